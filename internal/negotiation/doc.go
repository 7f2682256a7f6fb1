// Package negotiation implements proactive content negotiation for PURLs.
// Transport-agnostic core: parses requested media types, builds the catalog of
// representations an object can serve, and picks the first acceptable one.
//
// Matching is first-fit. The client's order of media types decides preference,
// and within one requested type the catalog tiers decide (HTML, then JSON, then
// multimedia in repository order). Quality values (q=) are not used for ranking.
package negotiation
