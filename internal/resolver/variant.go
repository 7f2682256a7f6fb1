package resolver

import (
	"fmt"

	"purl-resolver/internal/negotiation"
)

// MultimediaSource selects where a variant reads multimedia access points from.
type MultimediaSource string

const (
	// MultimediaEmbedded uses the access points denormalised onto the specimen.
	MultimediaEmbedded MultimediaSource = "embedded"
	// MultimediaQuery looks up multimedia documents that reference the specimen.
	MultimediaQuery MultimediaSource = "query"
)

// ParseMultimediaSource converts a configured source name. Empty means embedded.
func ParseMultimediaSource(s string) (MultimediaSource, error) {
	switch MultimediaSource(s) {
	case "", MultimediaEmbedded:
		return MultimediaEmbedded, nil
	case MultimediaQuery:
		return MultimediaQuery, nil
	default:
		return "", fmt.Errorf("unknown multimedia source %q (want %q or %q)", s, MultimediaEmbedded, MultimediaQuery)
	}
}

// Variant is one PURL flavour: which source systems it serves, where its
// landing pages live, and which representations it offers in which order.
type Variant struct {
	// Name is the first path segment of the PURL, e.g. "naturalis".
	Name string

	Sources     SourceFilter
	LandingPage LandingPage

	// Tiers overrides the catalog order. Nil means html, json, multimedia.
	Tiers []negotiation.Kind

	Multimedia MultimediaSource
}

// tiers returns the effective catalog order.
func (v Variant) tiers() []negotiation.Kind {
	if v.Tiers == nil {
		return negotiation.DefaultTiers
	}
	return v.Tiers
}

// offersMultimedia reports whether the catalog has a multimedia tier.
func (v Variant) offersMultimedia() bool {
	for _, k := range v.tiers() {
		if k == negotiation.KindMultimedia {
			return true
		}
	}
	return false
}
