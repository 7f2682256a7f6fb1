// Package model defines the NBA document types the resolver reads and the
// error types shared by the resolver and its transports.
package model

// === Source Systems ===

// Source system codes used by the NBA for the systems of record it ingests from.
const (
	SourceSystemCRS    = "CRS"    // Naturalis collection registration system
	SourceSystemBRAHMS = "BRAHMS" // Naturalis botanical collections
	SourceSystemNSR    = "NSR"    // Dutch Species Register
	SourceSystemCOL    = "COL"    // Catalogue of Life
	SourceSystemOBS    = "OBS"    // Observation.org
	SourceSystemXC     = "XC"     // Xeno-canto
)

// SourceSystem identifies the upstream system a document was imported from.
type SourceSystem struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

// === Documents ===

// Specimen is the subset of the NBA specimen document the resolver needs.
// ID is the NBA-internal document id; UnitID is the public identifier used in PURLs.
type Specimen struct {
	ID             string       `json:"id"`
	UnitID         string       `json:"unitID"`
	SourceSystemID string       `json:"sourceSystemId,omitempty"`
	SourceSystem   SourceSystem `json:"sourceSystem"`
	CollectionType string       `json:"collectionType,omitempty"`
	RecordBasis    string       `json:"recordBasis,omitempty"`

	// AssociatedMultiMediaURIs is denormalised from the multimedia documents that
	// reference this specimen. Order is whatever the NBA returns.
	AssociatedMultiMediaURIs []ServiceAccessPoint `json:"associatedMultiMediaUris,omitempty"`
}

// MultiMediaObject is the subset of the NBA multimedia document the resolver needs.
type MultiMediaObject struct {
	ID                          string               `json:"id"`
	UnitID                      string               `json:"unitID"`
	SourceSystem                SourceSystem         `json:"sourceSystem"`
	AssociatedSpecimenReference string               `json:"associatedSpecimenReference,omitempty"`
	ServiceAccessPoints         []ServiceAccessPoint `json:"serviceAccessPoints,omitempty"`
}

// ServiceAccessPoint is a stored representation of a multimedia item.
// AccessURI is empty when the NBA has no location for the item. Format is empty
// when the import did not record a media type.
type ServiceAccessPoint struct {
	AccessURI string `json:"accessUri,omitempty"`
	Format    string `json:"format,omitempty"`
	Variant   string `json:"variant,omitempty"`
}

// === Query Results ===

// QueryResult is the NBA envelope for /query endpoints.
type QueryResult[T any] struct {
	TotalSize int                  `json:"totalSize"`
	ResultSet []QueryResultItem[T] `json:"resultSet"`
}

// QueryResultItem wraps a single hit in a QueryResult.
type QueryResultItem[T any] struct {
	Item  T       `json:"item"`
	Score float64 `json:"score,omitempty"`
}

// Items returns the documents of the result set in NBA order.
func (q *QueryResult[T]) Items() []T {
	items := make([]T, 0, len(q.ResultSet))
	for _, r := range q.ResultSet {
		items = append(items, r.Item)
	}
	return items
}
