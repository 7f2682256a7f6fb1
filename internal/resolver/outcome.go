package resolver

import (
	"purl-resolver/internal/negotiation"
)

// OutcomeKind discriminates the result of a resolution.
type OutcomeKind int

const (
	// OutcomeRedirect means a representation matched and Location is set.
	OutcomeRedirect OutcomeKind = iota
	// OutcomeNotFound means no acceptable specimen exists for the identifier.
	OutcomeNotFound
	// OutcomeNotAcceptable means the specimen exists but none of the requested
	// media types can be served. Alternatives lists what can.
	OutcomeNotAcceptable
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeRedirect:
		return "redirect"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeNotAcceptable:
		return "not_acceptable"
	default:
		return "unknown"
	}
}

// Outcome is the result of resolving one PURL request.
type Outcome struct {
	Kind OutcomeKind

	// Set for OutcomeRedirect.
	Location       string
	MediaType      negotiation.MediaType
	Representation negotiation.Kind

	// Set for OutcomeNotAcceptable, in catalog order without duplicates.
	Alternatives []negotiation.MediaType
}

// Redirect builds a redirect outcome for the matched representation.
func Redirect(location string, rep negotiation.Representation) Outcome {
	return Outcome{
		Kind:           OutcomeRedirect,
		Location:       location,
		MediaType:      rep.MediaType,
		Representation: rep.Kind,
	}
}

// NotFound builds a not-found outcome.
func NotFound() Outcome {
	return Outcome{Kind: OutcomeNotFound}
}

// NotAcceptable builds a not-acceptable outcome listing the alternatives.
func NotAcceptable(alternatives []negotiation.MediaType) Outcome {
	if alternatives == nil {
		alternatives = []negotiation.MediaType{}
	}
	return Outcome{Kind: OutcomeNotAcceptable, Alternatives: alternatives}
}
