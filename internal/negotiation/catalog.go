package negotiation

import (
	"fmt"
	"strings"
)

// Kind identifies a tier of the representation catalog.
type Kind int

const (
	// KindHTML is the synthetic landing page.
	KindHTML Kind = iota
	// KindJSON is the synthetic metadata document.
	KindJSON
	// KindMultimedia covers stored multimedia access points.
	KindMultimedia
)

func (k Kind) String() string {
	switch k {
	case KindHTML:
		return "html"
	case KindJSON:
		return "json"
	case KindMultimedia:
		return "multimedia"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a configured tier name ("html", "json", "multimedia").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "html":
		return KindHTML, nil
	case "json":
		return KindJSON, nil
	case "multimedia":
		return KindMultimedia, nil
	default:
		return 0, fmt.Errorf("unknown representation %q", s)
	}
}

// DefaultTiers is the catalog order: human-facing page, then machine
// metadata, then raw assets.
var DefaultTiers = []Kind{KindHTML, KindJSON, KindMultimedia}

// AccessPoint is a stored representation: a concrete media type and the
// location it is served from. Location is empty when the repository lists the
// item without a URI.
type AccessPoint struct {
	MediaType MediaType
	Location  string
}

// Representation is one entry of a catalog. Location is only set for
// multimedia; synthetic targets are computed by the caller after a match.
type Representation struct {
	Kind      Kind
	MediaType MediaType
	Location  string
}

// Synthetic reports whether the representation's target must be computed.
func (r Representation) Synthetic() bool {
	return r.Kind != KindMultimedia
}

// Servable reports whether the representation can be redirected to. Stored
// entries without a location are advertised only.
func (r Representation) Servable() bool {
	return r.Synthetic() || r.Location != ""
}

// Catalog is the ordered list of representations an object can serve.
type Catalog []Representation

// NewCatalog builds a catalog in tier order. A KindMultimedia tier expands to
// one entry per access point, in the order given.
func NewCatalog(tiers []Kind, accessPoints []AccessPoint) Catalog {
	if tiers == nil {
		tiers = DefaultTiers
	}

	c := make(Catalog, 0, len(tiers)+len(accessPoints))
	for _, tier := range tiers {
		switch tier {
		case KindHTML:
			c = append(c, Representation{Kind: KindHTML, MediaType: TextHTML})
		case KindJSON:
			c = append(c, Representation{Kind: KindJSON, MediaType: ApplicationJSON})
		case KindMultimedia:
			for _, ap := range accessPoints {
				c = append(c, Representation{
					Kind:      KindMultimedia,
					MediaType: ap.MediaType,
					Location:  ap.Location,
				})
			}
		}
	}
	return c
}

// MediaTypes returns the distinct media types of the catalog in catalog order.
// This is the list of alternatives reported when negotiation fails.
func (c Catalog) MediaTypes() []MediaType {
	types := make([]MediaType, 0, len(c))
	for _, r := range c {
		seen := false
		for _, t := range types {
			if t.Equal(r.MediaType) {
				seen = true
				break
			}
		}
		if !seen {
			types = append(types, r.MediaType)
		}
	}
	return types
}
