package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"purl-resolver/internal/model"
	"purl-resolver/internal/negotiation"
	"purl-resolver/internal/resolver"
)

// DebugParam switches rendering to status 200 with a plain-text account of
// what would have been returned, so browsers display it.
const DebugParam = "__debug"

// jsonContentType is sent for inline JSON documents.
const jsonContentType = "application/json;charset=UTF-8"

// handlePURL resolves a PURL and renders the outcome.
// GET /{variant}/specimen/{unitID}
func (h *Handler) handlePURL(res *resolver.Resolver) http.HandlerFunc {
	variant := res.Variant().Name

	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		req := resolver.Request{
			ObjectID: r.PathValue("unitID"),
			Accept:   r.Header.Values("Accept"),
		}
		if query.Has(negotiation.AcceptOverrideParam) {
			override := query.Get(negotiation.AcceptOverrideParam)
			req.AcceptOverride = &override
		}
		debug := query.Has(DebugParam)

		outcome, err := res.Resolve(r.Context(), req)
		if err != nil {
			h.observe(variant, "error")
			h.writeResolveError(w, err, debug)
			return
		}
		h.observe(variant, outcome.Kind.String())

		switch outcome.Kind {
		case resolver.OutcomeRedirect:
			h.writeRedirect(w, r, outcome, debug)
		case resolver.OutcomeNotFound:
			writeText(w, http.StatusNotFound,
				statusLine(http.StatusNotFound)+"\nNo specimen exists with ID "+req.ObjectID)
		case resolver.OutcomeNotAcceptable:
			h.writeNotAcceptable(w, outcome.Alternatives, debug)
		}
	}
}

// writeRedirect answers 307, or serves the target inline in no-redirect mode.
// No-redirect mode wins over debug mode.
func (h *Handler) writeRedirect(w http.ResponseWriter, r *http.Request, outcome resolver.Outcome, debug bool) {
	if h.opts.NoRedirect {
		h.serveInline(w, r, outcome)
		return
	}
	if debug {
		writeText(w, http.StatusOK, statusLine(http.StatusTemporaryRedirect)+"\n"+outcome.Location)
		return
	}

	w.Header().Add("Vary", "Accept")
	w.Header().Set("Location", outcome.Location)
	w.WriteHeader(http.StatusTemporaryRedirect)
}

// serveInline fetches the target and streams it back unchanged.
func (h *Handler) serveInline(w http.ResponseWriter, r *http.Request, outcome resolver.Outcome) {
	logger := h.logger.With(slog.String("location", outcome.Location))

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, outcome.Location, nil)
	if err != nil {
		logger.Error("invalid redirect target", slog.String("error", err.Error()))
		writeText(w, http.StatusInternalServerError, statusLine(http.StatusInternalServerError)+"\ninvalid target location")
		return
	}
	req.Header.Set("Accept", outcome.MediaType.Essence())

	resp, err := h.opts.Fetcher.Do(req)
	if err != nil {
		logger.Warn("fetching target failed", slog.String("error", err.Error()))
		writeText(w, http.StatusBadGateway, statusLine(http.StatusBadGateway)+"\nfailed to load "+outcome.Location)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("target returned error status", slog.Int("status", resp.StatusCode))
		writeText(w, http.StatusBadGateway,
			fmt.Sprintf("%s\n%s returned status %d", statusLine(http.StatusBadGateway), outcome.Location, resp.StatusCode))
		return
	}

	contentType := outcome.MediaType.Essence()
	if outcome.Representation == negotiation.KindJSON {
		contentType = jsonContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Add("Vary", "Accept")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, resp.Body); err != nil {
		logger.Warn("streaming target interrupted", slog.String("error", err.Error()))
	}
}

// writeNotAcceptable answers 406 listing what the object can be served as,
// in the body and in a Variants header.
func (h *Handler) writeNotAcceptable(w http.ResponseWriter, alternatives []negotiation.MediaType, debug bool) {
	w.Header().Add("Vary", "Accept")
	if variants, err := negotiation.FormatVariants(alternatives); err != nil {
		h.logger.Warn("failed to format Variants header", slog.String("error", err.Error()))
	} else {
		w.Header().Set(negotiation.VariantsHeader, variants)
	}

	status := http.StatusNotAcceptable
	if debug {
		status = http.StatusOK
	}
	writeText(w, status, notAcceptableBody(alternatives))
}

// writeResolveError renders upstream and configuration failures.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeResolveError(w http.ResponseWriter, err error, debug bool) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		apiErr = model.NewInternalError(err)
	}

	switch {
	case errors.Is(err, model.ErrUpstreamError):
		h.logger.Warn("repository failure", slog.String("error", err.Error()))
	default:
		h.logger.Error("resolution failed", slog.String("code", apiErr.Code), slog.String("error", err.Error()))
	}

	status := apiErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	body := statusLine(status) + "\n" + apiErr.Message

	if debug {
		status = http.StatusOK
	}
	writeText(w, status, body)
}

// notAcceptableBody lists the alternatives, comma separated.
func notAcceptableBody(alternatives []negotiation.MediaType) string {
	var b strings.Builder
	b.WriteString(statusLine(http.StatusNotAcceptable))
	b.WriteString("\nNone of the requested media types can be served.")
	b.WriteString("\nAcceptable media types for this object: ")
	if len(alternatives) == 0 {
		b.WriteString("none!")
		return b.String()
	}
	for i, mt := range alternatives {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(mt.Essence())
	}
	return b.String()
}

// statusLine formats a status as "406 (NOT ACCEPTABLE)".
func statusLine(status int) string {
	return fmt.Sprintf("%d (%s)", status, strings.ToUpper(http.StatusText(status)))
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, body)
}
