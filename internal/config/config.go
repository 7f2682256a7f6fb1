// Package config handles loading and validation of service configuration.
// Supports both development (env vars or a config file) and production
// (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"purl-resolver/internal/model"
	"purl-resolver/internal/nba"
	"purl-resolver/internal/negotiation"
	"purl-resolver/internal/resolver"
)

// Defaults for settings that may be omitted.
const (
	DefaultPort            = "8080"
	DefaultEnvironment     = "development"
	DefaultLogLevel        = "info"
	DefaultUpstreamTimeout = 10 * time.Second
	DefaultAPIVersion      = "v2"
	DefaultConfigSecret    = "purl-resolver"
	DefaultVariant         = "naturalis"
	DefaultLandingPage     = "https://bioportal.naturalis.nl/specimen/" + resolver.UnitIDPlaceholder
)

// DefaultSourceSystems are the Naturalis systems of record.
var DefaultSourceSystems = []string{model.SourceSystemCRS, model.SourceSystemBRAHMS}

// variantName restricts variant names to a single lower-case path segment.
var variantName = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// Config holds all service configuration.
// Environment determines whether resolver settings load from env vars
// (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// NoRedirect serves targets inline instead of redirecting.
	NoRedirect bool

	// UpstreamTimeout bounds every NBA and media request.
	UpstreamTimeout time.Duration

	// GCP settings (required in production)
	GCPProject   string
	ConfigSecret string

	Resolver ResolverConfig
}

// ResolverConfig contains the NBA connection and the PURL variants.
// In production, this is loaded from Secret Manager as JSON.
type ResolverConfig struct {
	NBABaseURL     string          `json:"nba_base_url" yaml:"nba_base_url"`
	NBAAPIVersion  string          `json:"nba_api_version,omitempty" yaml:"nba_api_version,omitempty"`
	TLSFingerprint bool            `json:"tls_fingerprint,omitempty" yaml:"tls_fingerprint,omitempty"`
	Variants       []VariantConfig `json:"variants" yaml:"variants"`
}

// VariantConfig describes one PURL variant, served at /{name}/specimen/{unitID}.
type VariantConfig struct {
	Name          string   `json:"name" yaml:"name"`
	SourceSystems []string `json:"source_systems" yaml:"source_systems"`
	LandingPage   string   `json:"landing_page" yaml:"landing_page"`

	// Representations overrides the catalog order ("html", "json",
	// "multimedia"). Omitted means all three in that order.
	Representations []string `json:"representations,omitempty" yaml:"representations,omitempty"`

	// Multimedia is "embedded" (default) or "query".
	Multimedia string `json:"multimedia,omitempty" yaml:"multimedia,omitempty"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// Validates all settings and returns an error describing the first problem.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from that file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	noRedirect, err := envBool("NOREDIRECT")
	if err != nil {
		return nil, err
	}
	timeout, err := envDuration("UPSTREAM_TIMEOUT", DefaultUpstreamTimeout)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:            envOrDefault("PORT", DefaultPort),
		Environment:     envOrDefault("ENVIRONMENT", DefaultEnvironment),
		LogLevel:        envOrDefault("LOG_LEVEL", DefaultLogLevel),
		NoRedirect:      noRedirect,
		UpstreamTimeout: timeout,
		GCPProject:      os.Getenv("GCP_PROJECT"),
		ConfigSecret:    envOrDefault("CONFIG_SECRET", DefaultConfigSecret),
	}

	// Load resolver config based on environment
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading resolver config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// fileConfig mirrors the layout of a CONFIG_FILE.
type fileConfig struct {
	Port            string         `json:"port" yaml:"port"`
	Environment     string         `json:"environment" yaml:"environment"`
	LogLevel        string         `json:"log_level" yaml:"log_level"`
	NoRedirect      bool           `json:"noredirect" yaml:"noredirect"`
	UpstreamTimeout string         `json:"upstream_timeout" yaml:"upstream_timeout"`
	Resolver        ResolverConfig `json:"resolver" yaml:"resolver"`
}

// loadFromFile reads all configuration from a YAML or JSON file, chosen by
// extension.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	timeout := DefaultUpstreamTimeout
	if fc.UpstreamTimeout != "" {
		timeout, err = time.ParseDuration(fc.UpstreamTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid upstream_timeout: %w", err)
		}
	}

	cfg := &Config{
		Port:            withDefault(fc.Port, DefaultPort),
		Environment:     withDefault(fc.Environment, DefaultEnvironment),
		LogLevel:        withDefault(fc.LogLevel, DefaultLogLevel),
		NoRedirect:      fc.NoRedirect,
		UpstreamTimeout: timeout,
		Resolver:        fc.Resolver,
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromSecretManager fetches resolver config from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{config_secret}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.ConfigSecret)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Resolver); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	return nil
}

// loadFromEnv reads resolver config from individual environment variables.
// Without VARIANTS a single default variant is configured.
func (c *Config) loadFromEnv() error {
	fingerprint, err := envBool("TLS_FINGERPRINT")
	if err != nil {
		return err
	}

	c.Resolver = ResolverConfig{
		NBABaseURL:     os.Getenv("NBA_BASE_URL"),
		NBAAPIVersion:  os.Getenv("NBA_API_VERSION"),
		TLSFingerprint: fingerprint,
	}

	if variantsJSON := os.Getenv("VARIANTS"); variantsJSON != "" {
		if err := json.Unmarshal([]byte(variantsJSON), &c.Resolver.Variants); err != nil {
			return fmt.Errorf("parsing VARIANTS JSON: %w", err)
		}
		return nil
	}

	sources := DefaultSourceSystems
	if raw := os.Getenv("SOURCE_SYSTEMS"); raw != "" {
		sources = splitList(raw)
	}

	c.Resolver.Variants = []VariantConfig{{
		Name:          DefaultVariant,
		SourceSystems: sources,
		LandingPage:   envOrDefault("BIOPORTAL_SPECIMEN_URL", DefaultLandingPage),
	}}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Resolver.NBAAPIVersion == "" {
		c.Resolver.NBAAPIVersion = DefaultAPIVersion
	}
	if c.UpstreamTimeout <= 0 {
		c.UpstreamTimeout = DefaultUpstreamTimeout
	}
}

// validate checks every setting the resolver relies on, so that template and
// URL mistakes fail at startup rather than on the first request.
func (c *Config) validate() error {
	if _, err := nba.ParseBaseURL(c.Resolver.NBABaseURL); err != nil {
		return fmt.Errorf("nba_base_url: %w", err)
	}

	version := c.Resolver.NBAAPIVersion
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	if !semver.IsValid(version) {
		return fmt.Errorf("nba_api_version %q is not a semantic version", c.Resolver.NBAAPIVersion)
	}

	if len(c.Resolver.Variants) == 0 {
		return fmt.Errorf("at least one variant is required")
	}

	seen := make(map[string]bool, len(c.Resolver.Variants))
	for i, v := range c.Resolver.Variants {
		if !variantName.MatchString(v.Name) {
			return fmt.Errorf("variants[%d]: name %q must be a lower-case path segment", i, v.Name)
		}
		if seen[v.Name] {
			return fmt.Errorf("variants[%d]: duplicate name %q", i, v.Name)
		}
		seen[v.Name] = true

		if err := v.validate(); err != nil {
			return fmt.Errorf("variant %s: %w", v.Name, err)
		}
	}

	return nil
}

func (v VariantConfig) validate() error {
	if len(resolver.NewSourceFilter(v.SourceSystems...).Codes()) == 0 {
		return fmt.Errorf("source_systems is required")
	}
	if err := resolver.LandingPage(v.LandingPage).Validate(); err != nil {
		return fmt.Errorf("landing_page: %w", err)
	}
	if _, err := v.tiers(); err != nil {
		return fmt.Errorf("representations: %w", err)
	}
	if _, err := resolver.ParseMultimediaSource(v.Multimedia); err != nil {
		return fmt.Errorf("multimedia: %w", err)
	}
	return nil
}

// tiers converts the representation override. Nil means the default order.
func (v VariantConfig) tiers() ([]negotiation.Kind, error) {
	if len(v.Representations) == 0 {
		return nil, nil
	}

	kinds := make([]negotiation.Kind, 0, len(v.Representations))
	for _, name := range v.Representations {
		k, err := negotiation.ParseKind(name)
		if err != nil {
			return nil, err
		}
		for _, existing := range kinds {
			if existing == k {
				return nil, fmt.Errorf("%s listed twice", k)
			}
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// BuildVariants converts the variant settings into resolver variants.
func (c *Config) BuildVariants() ([]resolver.Variant, error) {
	variants := make([]resolver.Variant, 0, len(c.Resolver.Variants))
	for _, vc := range c.Resolver.Variants {
		tiers, err := vc.tiers()
		if err != nil {
			return nil, fmt.Errorf("variant %s: %w", vc.Name, err)
		}
		source, err := resolver.ParseMultimediaSource(vc.Multimedia)
		if err != nil {
			return nil, fmt.Errorf("variant %s: %w", vc.Name, err)
		}

		variants = append(variants, resolver.Variant{
			Name:        vc.Name,
			Sources:     resolver.NewSourceFilter(vc.SourceSystems...),
			LandingPage: resolver.LandingPage(vc.LandingPage),
			Tiers:       tiers,
			Multimedia:  source,
		})
	}
	return variants, nil
}

// NBAConfig returns the NBA client settings.
func (c *Config) NBAConfig() nba.Config {
	return nba.Config{
		BaseURL:     c.Resolver.NBABaseURL,
		APIVersion:  c.Resolver.NBAAPIVersion,
		Timeout:     c.UpstreamTimeout,
		Fingerprint: c.Resolver.TLSFingerprint,
	}
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// envBool parses a boolean environment variable. Unset means false.
func envBool(key string) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return b, nil
}

// envDuration parses a duration environment variable such as "5s".
func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
