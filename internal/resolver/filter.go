package resolver

import (
	"strings"

	"purl-resolver/internal/model"
)

// SourceFilter is the set of source systems a variant serves. Specimens
// imported from any other system are treated as absent.
type SourceFilter struct {
	codes []string
}

// NewSourceFilter builds a filter from source-system codes. Blank codes are
// dropped and duplicates collapsed.
func NewSourceFilter(codes ...string) SourceFilter {
	var f SourceFilter
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" || f.contains(c) {
			continue
		}
		f.codes = append(f.codes, c)
	}
	return f
}

// Accepts reports whether the specimen comes from an allowed source system.
func (f SourceFilter) Accepts(s model.Specimen) bool {
	return f.contains(s.SourceSystem.Code)
}

// First returns the first candidate the filter accepts, in the given order.
func (f SourceFilter) First(candidates []model.Specimen) (model.Specimen, bool) {
	for _, s := range candidates {
		if f.Accepts(s) {
			return s, true
		}
	}
	return model.Specimen{}, false
}

// Codes returns the allowed source-system codes in configuration order.
func (f SourceFilter) Codes() []string {
	out := make([]string, len(f.codes))
	copy(out, f.codes)
	return out
}

func (f SourceFilter) contains(code string) bool {
	for _, c := range f.codes {
		if c == code {
			return true
		}
	}
	return false
}
