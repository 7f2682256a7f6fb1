// Package handler provides the HTTP and MCP transports of the PURL resolver.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"purl-resolver/internal/metric"
	"purl-resolver/internal/resolver"
)

// Options configure rendering.
type Options struct {
	// NoRedirect serves targets inline instead of answering 307.
	NoRedirect bool

	// Fetcher loads targets in NoRedirect mode. It should follow redirects
	// (see transport.NewLoader); defaults to http.DefaultClient.
	Fetcher *http.Client

	// Metrics records resolution outcomes and serves /metrics. Optional.
	Metrics *metric.Registry
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	resolvers map[string]*resolver.Resolver
	order     []string
	opts      Options
	logger    *slog.Logger
}

// New creates a Handler serving one PURL route per resolver.
func New(resolvers []*resolver.Resolver, opts Options, logger *slog.Logger) *Handler {
	h := &Handler{
		resolvers: make(map[string]*resolver.Resolver, len(resolvers)),
		opts:      opts,
		logger:    logger,
	}
	if h.opts.Fetcher == nil {
		h.opts.Fetcher = http.DefaultClient
	}
	for _, r := range resolvers {
		name := r.Variant().Name
		h.resolvers[name] = r
		h.order = append(h.order, name)
	}
	return h
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// PURLs, one route per variant
	for _, name := range h.order {
		mux.HandleFunc("GET /"+name+"/specimen/{unitID}", h.handlePURL(h.resolvers[name]))
	}

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	if h.opts.Metrics != nil {
		mux.Handle("GET /metrics", h.opts.Metrics.Handler())
	}

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// observe counts a resolution outcome when metrics are enabled.
func (h *Handler) observe(variant, outcome string) {
	if h.opts.Metrics != nil {
		h.opts.Metrics.ObserveResolution(variant, outcome)
	}
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// healthResponse is the body of /health.
type healthResponse struct {
	Status   string   `json:"status"`
	Variants []string `json:"variants"`
}

// handleHealth returns a simple health check response.
// GET /health, GET /healthz
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	variants := h.order
	if variants == nil {
		variants = []string{}
	}
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Variants: variants})
}
