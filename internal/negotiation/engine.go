package negotiation

// Negotiate selects the representation to serve.
//
// Requested patterns are tried in client order. For each pattern the catalog
// is scanned in tier order and the first compatible entry is returned, so an
// earlier pattern always beats a later one and, for a single pattern, HTML
// beats JSON beats multimedia. Returns false when nothing matches.
func Negotiate(requested []MediaType, catalog Catalog) (Representation, bool) {
	for _, want := range requested {
		if r, ok := catalog.First(want); ok {
			return r, true
		}
	}
	return Representation{}, false
}

// First returns the first servable catalog entry compatible with the pattern.
func (c Catalog) First(pattern MediaType) (Representation, bool) {
	for _, r := range c {
		if r.Servable() && pattern.Compatible(r.MediaType) {
			return r, true
		}
	}
	return Representation{}, false
}
