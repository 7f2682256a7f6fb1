package resolver

import (
	"net/url"
	"strings"

	"purl-resolver/internal/model"
)

// UnitIDPlaceholder is replaced by the specimen's unitID in landing-page templates.
const UnitIDPlaceholder = "${unitID}"

// LandingPage is a URL template for the human-facing specimen page, e.g.
// "https://bioportal.naturalis.nl/specimen/${unitID}".
type LandingPage string

// Validate checks that the template has the placeholder and expands to an
// absolute http(s) URL.
func (p LandingPage) Validate() error {
	_, err := p.Expand("RMNH.AVES.1")
	return err
}

// Expand substitutes the path-escaped unitID into the template.
// A template without the placeholder or one that does not yield an absolute
// URL is a configuration error.
func (p LandingPage) Expand(unitID string) (string, error) {
	tmpl := string(p)
	if !strings.Contains(tmpl, UnitIDPlaceholder) {
		return "", model.NewConfigurationError("landing page template",
			"missing "+UnitIDPlaceholder+" placeholder in "+quote(tmpl), nil)
	}

	expanded := strings.ReplaceAll(tmpl, UnitIDPlaceholder, url.PathEscape(unitID))
	u, err := url.Parse(expanded)
	if err != nil {
		return "", model.NewConfigurationError("landing page template", "not a valid URL: "+quote(tmpl), err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", model.NewConfigurationError("landing page template", "not an absolute http(s) URL: "+quote(tmpl), nil)
	}
	return u.String(), nil
}

func quote(s string) string {
	return `"` + s + `"`
}
