// Package resolver turns a PURL request into a redirect target or a
// structured failure.
//
// Resolution runs LOOKUP → FILTER → NEGOTIATE. The repository lookup is the
// only blocking step and is never retried here. Everything after it is a pure
// function of the specimen and the requested media types.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"purl-resolver/internal/model"
	"purl-resolver/internal/negotiation"
	"purl-resolver/internal/repository"
)

// Request is the transport-independent view of a PURL request.
type Request struct {
	// ObjectID is the identifier from the PURL path. It is opaque.
	ObjectID string

	// Accept holds every Accept header value in arrival order.
	Accept []string

	// AcceptOverride, when non-nil, replaces Accept entirely.
	AcceptOverride *string
}

// Resolver resolves PURLs for one variant. It holds no per-request state and
// is safe for concurrent use.
type Resolver struct {
	variant Variant
	repo    repository.Repository
	locator repository.Locator
	logger  *slog.Logger
}

// New creates a Resolver for the variant.
func New(variant Variant, repo repository.Repository, locator repository.Locator, logger *slog.Logger) *Resolver {
	return &Resolver{
		variant: variant,
		repo:    repo,
		locator: locator,
		logger:  logger.With(slog.String("variant", variant.Name)),
	}
}

// Variant returns the configuration the resolver was built with.
func (r *Resolver) Variant() Variant {
	return r.variant
}

// Resolve runs the resolution pipeline for one request.
//
// NotFound and NotAcceptable are outcomes, not errors. The returned error is
// either an upstream failure (wraps model.ErrUpstreamError) or a
// configuration error (wraps model.ErrConfiguration).
func (r *Resolver) Resolve(ctx context.Context, req Request) (Outcome, error) {
	logger := r.logger.With(slog.String("object_id", req.ObjectID))

	candidates, err := r.repo.FindSpecimens(ctx, req.ObjectID)
	if err != nil {
		return Outcome{}, fmt.Errorf("looking up specimen %s: %w", req.ObjectID, upstream(err))
	}
	if len(candidates) == 0 {
		logger.Debug("specimen not found")
		return NotFound(), nil
	}

	specimen, ok := r.variant.Sources.First(candidates)
	if !ok {
		logger.Info("specimen from unsupported source system",
			slog.String("source_system", candidates[0].SourceSystem.Code),
			slog.Int("candidates", len(candidates)))
		return NotFound(), nil
	}

	requested := negotiation.ParseRequested(logger, req.Accept, req.AcceptOverride)

	accessPoints, err := r.accessPoints(ctx, logger, specimen, requested)
	if err != nil {
		return Outcome{}, fmt.Errorf("looking up multimedia for %s: %w", req.ObjectID, upstream(err))
	}

	catalog := negotiation.NewCatalog(r.variant.Tiers, accessPoints)
	rep, ok := negotiation.Negotiate(requested, catalog)
	if !ok {
		logger.Debug("not acceptable",
			slog.Int("requested", len(requested)),
			slog.Int("representations", len(catalog)))
		return NotAcceptable(catalog.MediaTypes()), nil
	}

	location, err := r.target(rep, specimen, req.ObjectID)
	if err != nil {
		return Outcome{}, err
	}

	logger.Debug("resolved",
		slog.String("representation", rep.Kind.String()),
		slog.String("media_type", rep.MediaType.Essence()),
		slog.String("location", location))
	return Redirect(location, rep), nil
}

// accessPoints collects the specimen's multimedia. In query mode the lookup
// is skipped when the first requested type is already served by a synthetic
// tier ahead of multimedia, since no multimedia entry can then be selected.
func (r *Resolver) accessPoints(ctx context.Context, logger *slog.Logger, specimen model.Specimen, requested []negotiation.MediaType) ([]negotiation.AccessPoint, error) {
	if !r.variant.offersMultimedia() {
		return nil, nil
	}

	if r.variant.Multimedia != MultimediaQuery {
		return AccessPoints(logger, specimen.AssociatedMultiMediaURIs), nil
	}

	if r.syntheticSatisfies(requested) {
		return nil, nil
	}

	docs, err := r.repo.FindMultimedia(ctx, specimen.ID)
	if err != nil {
		return nil, err
	}
	return AccessPoints(logger, multimediaAccessPoints(docs)), nil
}

func (r *Resolver) syntheticSatisfies(requested []negotiation.MediaType) bool {
	if len(requested) == 0 {
		return false
	}

	var synthetic []negotiation.Kind
	for _, k := range r.variant.tiers() {
		if k == negotiation.KindMultimedia {
			break
		}
		synthetic = append(synthetic, k)
	}
	if len(synthetic) == 0 {
		return false
	}

	_, ok := negotiation.NewCatalog(synthetic, nil).First(requested[0])
	return ok
}

// target computes where a matched representation lives. The landing page
// uses the unitID as stored in the NBA; the JSON document is addressed by the
// identifier the client asked for.
func (r *Resolver) target(rep negotiation.Representation, specimen model.Specimen, objectID string) (string, error) {
	switch rep.Kind {
	case negotiation.KindHTML:
		unitID := specimen.UnitID
		if unitID == "" {
			unitID = objectID
		}
		return r.variant.LandingPage.Expand(unitID)
	case negotiation.KindJSON:
		loc, err := r.locator.DocumentURL(objectID)
		if err != nil {
			var apiErr *model.APIError
			if errors.As(err, &apiErr) {
				return "", err
			}
			return "", model.NewConfigurationError("NBA base URL", err.Error(), err)
		}
		return loc, nil
	default:
		return rep.Location, nil
	}
}

// upstream classifies a repository failure as an upstream error unless the
// repository already did.
func upstream(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	return model.NewUpstreamError("repository", err)
}
