package negotiation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dunglas/httpsfv"
)

// VariantsHeader is the response header advertising the available
// representations (RFC 8941 dictionary keyed by negotiation axis).
const VariantsHeader = "Variants"

// variantsAxis is the dictionary key for Accept-based variants.
const variantsAxis = "accept"

// FormatVariants serializes media types as a Variants header value.
//
// Example:
//   - [text/html application/json] → accept=("text/html" "application/json")
func FormatVariants(types []MediaType) (string, error) {
	items := make([]httpsfv.Item, 0, len(types))
	for _, t := range types {
		items = append(items, httpsfv.NewItem(t.Essence()))
	}

	dict := httpsfv.NewDictionary()
	dict.Add(variantsAxis, httpsfv.InnerList{
		Items:  items,
		Params: httpsfv.NewParams(),
	})

	v, err := httpsfv.Marshal(dict)
	if err != nil {
		return "", fmt.Errorf("marshal Variants header: %w", err)
	}
	return v, nil
}

// ParseVariants extracts the media types from a Variants header value.
// Returns error if the header is empty, malformed, or lacks the accept axis.
func ParseVariants(header string) ([]MediaType, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, errors.New("empty Variants header")
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return nil, fmt.Errorf("invalid Variants header: %w", err)
	}

	member, ok := dict.Get(variantsAxis)
	if !ok {
		return nil, errors.New("accept key not found in Variants header")
	}

	list, ok := member.(httpsfv.InnerList)
	if !ok {
		return nil, errors.New("accept value must be an inner list")
	}

	types := make([]MediaType, 0, len(list.Items))
	for _, item := range list.Items {
		var raw string
		switch v := item.Value.(type) {
		case string:
			raw = v
		case httpsfv.Token:
			raw = string(v)
		default:
			return nil, fmt.Errorf("variant must be a string or token, got %T", item.Value)
		}

		mt, err := ParseMediaType(raw)
		if err != nil {
			return nil, err
		}
		types = append(types, mt)
	}
	return types, nil
}
