// Package nba is a read-only client for the Netherlands Biodiversity API.
// It implements repository.Store for the resolver.
package nba

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"purl-resolver/internal/model"
	"purl-resolver/internal/repository"
	"purl-resolver/internal/transport"
)

// serviceName labels upstream errors.
const serviceName = "NBA"

// maxErrorBody bounds how much of an error response ends up in logs.
const maxErrorBody = 512

// Paths of the specimen document endpoint. API v2 looks documents up by
// unitID; older deployments only had the find-by-id endpoint.
const (
	specimenPath       = "/specimen/findByUnitID/"
	legacySpecimenPath = "/specimen/find/"
	multimediaPath     = "/multimedia/query"
)

// Config holds NBA client settings.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.biodiversitydata.nl/v2".
	BaseURL string

	// APIVersion selects the endpoint layout. Empty means "v2".
	APIVersion string

	Timeout time.Duration

	// Fingerprint enables the Chrome TLS fingerprint transport.
	Fingerprint bool

	// Transport overrides the round tripper. Tests only.
	Transport http.RoundTripper
}

// Client talks to the NBA over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	legacy     bool
}

// New creates an NBA client.
func New(cfg Config) (*Client, error) {
	base, err := ParseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	version := normalizeVersion(cfg.APIVersion)
	if !semver.IsValid(version) {
		return nil, model.NewConfigurationError("NBA API version", fmt.Sprintf("%q is not a semantic version", cfg.APIVersion), nil)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	rt := cfg.Transport
	if rt == nil {
		rt = transport.New(timeout, cfg.Fingerprint)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: rt,
		},
		baseURL: base,
		legacy:  semver.Compare(version, "v2") < 0,
	}, nil
}

// ParseBaseURL validates an NBA base URL and strips trailing slashes.
func ParseBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", model.NewConfigurationError("NBA base URL", "not set", nil)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", model.NewConfigurationError("NBA base URL", fmt.Sprintf("%q is not a URL", raw), err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", model.NewConfigurationError("NBA base URL", fmt.Sprintf("%q is not an absolute http(s) URL", raw), nil)
	}
	return strings.TrimRight(raw, "/"), nil
}

// DocumentURL returns the public location of the specimen's JSON document.
func (c *Client) DocumentURL(unitID string) (string, error) {
	path := specimenPath
	if c.legacy {
		path = legacySpecimenPath
	}
	return c.baseURL + path + url.PathEscape(unitID), nil
}

// FindSpecimens fetches the specimens with the given unitID.
// A 404 or an empty array means none exist.
func (c *Client) FindSpecimens(ctx context.Context, unitID string) ([]model.Specimen, error) {
	docURL, _ := c.DocumentURL(unitID)

	body, found, err := c.get(ctx, docURL)
	if err != nil || !found {
		return nil, err
	}

	if c.legacy {
		// The find endpoint returns a bare document, or nothing.
		if len(strings.TrimSpace(string(body))) == 0 || strings.TrimSpace(string(body)) == "null" {
			return nil, nil
		}
		var s model.Specimen
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, model.NewUpstreamError(serviceName, fmt.Errorf("parsing specimen: %w", err))
		}
		return []model.Specimen{s}, nil
	}

	var specimens []model.Specimen
	if err := json.Unmarshal(body, &specimens); err != nil {
		return nil, model.NewUpstreamError(serviceName, fmt.Errorf("parsing specimens: %w", err))
	}
	return specimens, nil
}

// FindMultimedia fetches the multimedia documents that reference a specimen
// by its NBA-internal id.
func (c *Client) FindMultimedia(ctx context.Context, specimenID string) ([]model.MultiMediaObject, error) {
	q := url.Values{}
	q.Set("associatedSpecimenReference", specimenID)

	body, found, err := c.get(ctx, c.baseURL+multimediaPath+"?"+q.Encode())
	if err != nil || !found {
		return nil, err
	}

	var result model.QueryResult[model.MultiMediaObject]
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, model.NewUpstreamError(serviceName, fmt.Errorf("parsing multimedia query result: %w", err))
	}
	return result.Items(), nil
}

// get performs a GET and returns the body of a 2xx response. found is false
// for 404. Any other status is an upstream error.
func (c *Client) get(ctx context.Context, rawURL string) (body []byte, found bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, model.NewUpstreamError(serviceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return nil, false, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, model.NewUpstreamError(serviceName, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(respBody)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, false, model.NewUpstreamError(serviceName,
			fmt.Errorf("GET %s: status %d: %s", req.URL.Path, resp.StatusCode, strings.TrimSpace(snippet)))
	}

	return respBody, true, nil
}

// normalizeVersion adds "v" prefix if needed for semver parsing.
func normalizeVersion(v string) string {
	if v == "" {
		return "v2"
	}
	if v[0] != 'v' {
		return "v" + v
	}
	return v
}

// Verify Client implements Store interface at compile time.
var _ repository.Store = (*Client)(nil)
