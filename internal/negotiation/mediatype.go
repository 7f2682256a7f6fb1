package negotiation

import (
	"errors"
	"fmt"
	"mime"
	"strings"
)

// Wildcard matches any type or subtype.
const Wildcard = "*"

// Well-known media types of the representation catalog.
var (
	TextHTML        = MediaType{Type: "text", Subtype: "html"}
	ApplicationJSON = MediaType{Type: "application", Subtype: "json"}
	ImageJPEG       = MediaType{Type: "image", Subtype: "jpeg"}
	TextPlain       = MediaType{Type: "text", Subtype: "plain"}
)

// MediaType is a media type or media range: type/subtype plus parameters.
// Type and Subtype are lower case. Either may be the wildcard "*".
type MediaType struct {
	Type    string
	Subtype string
	Params  map[string]string
}

// ParseMediaType parses a single media type such as "image/*" or
// "text/html;level=1;q=0.8". Parameter names are lower-cased by the parser.
// A value without a subtype, with an empty slot, or with malformed
// parameters is rejected.
func ParseMediaType(s string) (MediaType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return MediaType{}, errors.New("empty media type")
	}

	full, params, err := mime.ParseMediaType(s)
	if err != nil {
		return MediaType{}, fmt.Errorf("parse media type %q: %w", s, err)
	}

	typ, sub, ok := strings.Cut(full, "/")
	if !ok || typ == "" || sub == "" {
		return MediaType{}, fmt.Errorf("parse media type %q: expected type/subtype", s)
	}

	if len(params) == 0 {
		params = nil
	}
	return MediaType{Type: typ, Subtype: sub, Params: params}, nil
}

// Essence returns type/subtype without parameters.
func (m MediaType) Essence() string {
	return m.Type + "/" + m.Subtype
}

// String formats the media type with its parameters in sorted order.
func (m MediaType) String() string {
	if len(m.Params) == 0 {
		return m.Essence()
	}
	if s := mime.FormatMediaType(m.Essence(), m.Params); s != "" {
		return s
	}
	return m.Essence()
}

// IsWildcard reports whether the type or subtype is a wildcard.
func (m MediaType) IsWildcard() bool {
	return m.Type == Wildcard || m.Subtype == Wildcard
}

// Compatible reports whether m and other can denote the same representation.
// A wildcard in either operand matches anything in that slot; otherwise the
// slots compare case-insensitively. Parameters are ignored.
func (m MediaType) Compatible(other MediaType) bool {
	return slotMatches(m.Type, other.Type) && slotMatches(m.Subtype, other.Subtype)
}

// Equal reports whether m and other have the same essence, ignoring parameters.
func (m MediaType) Equal(other MediaType) bool {
	return strings.EqualFold(m.Type, other.Type) && strings.EqualFold(m.Subtype, other.Subtype)
}

func slotMatches(a, b string) bool {
	return a == Wildcard || b == Wildcard || strings.EqualFold(a, b)
}
