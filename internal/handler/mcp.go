// MCP transport for the PURL resolver using the official MCP Go SDK.
// Exposes resolution as tools so agents can see where a PURL leads without
// following redirects.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"purl-resolver/internal/model"
	"purl-resolver/internal/negotiation"
	"purl-resolver/internal/resolver"
)

// === MCP Tool Input/Output Types ===

// ResolvePURLInput is the input schema for the resolve_purl tool.
type ResolvePURLInput struct {
	Variant string   `json:"variant" jsonschema:"PURL variant, e.g. naturalis"`
	UnitID  string   `json:"unit_id" jsonschema:"specimen unitID, e.g. RMNH.AVES.110000"`
	Accept  []string `json:"accept,omitempty" jsonschema:"requested media types in preference order; defaults to */*"`
}

// ResolvePURLOutput describes the outcome of a resolution.
type ResolvePURLOutput struct {
	Status       string   `json:"status" jsonschema:"redirect, not_found or not_acceptable"`
	Location     string   `json:"location,omitempty" jsonschema:"target of the redirect"`
	MediaType    string   `json:"media_type,omitempty" jsonschema:"media type of the selected representation"`
	Alternatives []string `json:"alternatives" jsonschema:"media types the object can be served as, when not acceptable"`
}

// ListVariantsInput is the (empty) input schema for the list_variants tool.
type ListVariantsInput struct{}

// ListVariantsOutput lists the configured PURL variants.
type ListVariantsOutput struct {
	Variants []VariantInfo `json:"variants"`
}

// VariantInfo describes one PURL variant.
type VariantInfo struct {
	Name            string   `json:"name"`
	Path            string   `json:"path"`
	SourceSystems   []string `json:"source_systems"`
	Representations []string `json:"representations"`
	Multimedia      string   `json:"multimedia"`
}

// NewMCPServer creates an MCP server with the resolver tools registered.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "purl-resolver",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "PURL resolver for natural history specimens. " +
				"Use resolve_purl to find where a specimen PURL leads for given media types.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_purl",
		Description: "Resolve a specimen PURL by content negotiation and report the redirect target or the acceptable alternatives.",
	}, h.mcpResolvePURL)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_variants",
		Description: "List the PURL variants this server resolves, with their allowed source systems.",
	}, h.mcpListVariants)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpResolvePURL(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ResolvePURLInput,
) (*mcp.CallToolResult, ResolvePURLOutput, error) {
	res, ok := h.resolvers[input.Variant]
	if !ok {
		return nil, ResolvePURLOutput{}, fmt.Errorf("unknown variant %q", input.Variant)
	}
	if input.UnitID == "" {
		return nil, ResolvePURLOutput{}, fmt.Errorf("unit_id is required")
	}

	accept := input.Accept
	if len(accept) == 0 {
		accept = []string{"*/*"}
	}

	outcome, err := res.Resolve(ctx, resolver.Request{ObjectID: input.UnitID, Accept: accept})
	if err != nil {
		h.observe(input.Variant, "error")
		return nil, ResolvePURLOutput{}, h.mcpError(err)
	}
	h.observe(input.Variant, outcome.Kind.String())

	out := ResolvePURLOutput{
		Status:       outcome.Kind.String(),
		Alternatives: essences(outcome.Alternatives),
	}
	if outcome.Kind == resolver.OutcomeRedirect {
		out.Location = outcome.Location
		out.MediaType = outcome.MediaType.Essence()
	}
	return nil, out, nil
}

func (h *Handler) mcpListVariants(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListVariantsInput,
) (*mcp.CallToolResult, ListVariantsOutput, error) {
	out := ListVariantsOutput{Variants: make([]VariantInfo, 0, len(h.order))}
	for _, name := range h.order {
		v := h.resolvers[name].Variant()

		tiers := v.Tiers
		if tiers == nil {
			tiers = negotiation.DefaultTiers
		}
		reps := make([]string, 0, len(tiers))
		for _, k := range tiers {
			reps = append(reps, k.String())
		}

		multimedia := string(v.Multimedia)
		if multimedia == "" {
			multimedia = string(resolver.MultimediaEmbedded)
		}

		out.Variants = append(out.Variants, VariantInfo{
			Name:            name,
			Path:            "/" + name + "/specimen/{unitID}",
			SourceSystems:   v.Sources.Codes(),
			Representations: reps,
			Multimedia:      multimedia,
		})
	}
	return nil, out, nil
}

// mcpError converts an error to an MCP-friendly message without leaking
// internal details.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	h.logger.Error("mcp internal error", slog.String("error", err.Error()))
	return fmt.Errorf("internal error")
}

// essences formats media types without parameters. Never nil.
func essences(types []negotiation.MediaType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, t.Essence())
	}
	return out
}
