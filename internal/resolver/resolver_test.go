package resolver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"purl-resolver/internal/model"
	"purl-resolver/internal/negotiation"
	"purl-resolver/internal/repository"
)

const landing = LandingPage("https://bioportal.naturalis.nl/specimen/${unitID}")

func testVariant() Variant {
	return Variant{
		Name:        "naturalis",
		Sources:     NewSourceFilter(model.SourceSystemCRS, model.SourceSystemBRAHMS),
		LandingPage: landing,
		Multimedia:  MultimediaEmbedded,
	}
}

func crsSpecimen(saps ...model.ServiceAccessPoint) model.Specimen {
	return model.Specimen{
		ID:                       "RMNH.AVES.110000@CRS",
		UnitID:                   "RMNH.AVES.110000",
		SourceSystem:             model.SourceSystem{Code: model.SourceSystemCRS, Name: "Naturalis - Zoology and Geology catalogues"},
		AssociatedMultiMediaURIs: saps,
	}
}

func newTestResolver(v Variant, repo *repository.Mock) *Resolver {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(v, repo, repo, logger)
}

func found(specimens ...model.Specimen) *repository.Mock {
	return &repository.Mock{
		FindSpecimensFunc: func(_ context.Context, _ string) ([]model.Specimen, error) {
			return specimens, nil
		},
	}
}

func strPtr(s string) *string { return &s }

func TestResolveScenarios(t *testing.T) {
	jpeg := model.ServiceAccessPoint{AccessURI: "https://medialib.naturalis.nl/file/id/RMNH.AVES.110000_1/format/large", Format: "image/jpeg"}

	tests := []struct {
		name          string
		repo          *repository.Mock
		req           Request
		wantKind      OutcomeKind
		wantLocation  string
		wantMediaType string
		wantAlts      []string
	}{
		{
			name:          "A: html landing page",
			repo:          found(crsSpecimen()),
			req:           Request{ObjectID: "RMNH.AVES.110000", Accept: []string{"text/html"}},
			wantKind:      OutcomeRedirect,
			wantLocation:  "https://bioportal.naturalis.nl/specimen/RMNH.AVES.110000",
			wantMediaType: "text/html",
		},
		{
			name:          "B: json document",
			repo:          found(crsSpecimen()),
			req:           Request{ObjectID: "RMNH.AVES.110000", Accept: []string{"application/json"}},
			wantKind:      OutcomeRedirect,
			wantLocation:  "https://api.example.org/v2/specimen/findByUnitID/RMNH.AVES.110000",
			wantMediaType: "application/json",
		},
		{
			name:     "C: unsupported image type lists alternatives",
			repo:     found(crsSpecimen(jpeg)),
			req:      Request{ObjectID: "RMNH.AVES.110000", Accept: []string{"image/png"}},
			wantKind: OutcomeNotAcceptable,
			wantAlts: []string{"text/html", "application/json", "image/jpeg"},
		},
		{
			name: "D: source system not allowed",
			repo: found(model.Specimen{
				ID:           "ZMA.INS.1@OBS",
				UnitID:       "ZMA.INS.1",
				SourceSystem: model.SourceSystem{Code: model.SourceSystemOBS},
			}),
			req:      Request{ObjectID: "ZMA.INS.1", Accept: []string{"text/html"}},
			wantKind: OutcomeNotFound,
		},
		{
			name:     "D: source system not allowed with wildcard",
			repo:     found(model.Specimen{UnitID: "X", SourceSystem: model.SourceSystem{Code: model.SourceSystemXC}}),
			req:      Request{ObjectID: "X", Accept: []string{"*/*"}},
			wantKind: OutcomeNotFound,
		},
		{
			name:     "E: unknown identifier",
			repo:     found(),
			req:      Request{ObjectID: "NOPE.1", Accept: []string{"text/html"}},
			wantKind: OutcomeNotFound,
		},
		{
			name: "F: override picks multimedia first",
			repo: found(crsSpecimen(jpeg)),
			req: Request{
				ObjectID:       "RMNH.AVES.110000",
				Accept:         []string{"text/html"},
				AcceptOverride: strPtr("image/jpeg,text/html"),
			},
			wantKind:      OutcomeRedirect,
			wantLocation:  jpeg.AccessURI,
			wantMediaType: "image/jpeg",
		},
		{
			name:          "wildcard picks html",
			repo:          found(crsSpecimen(jpeg)),
			req:           Request{ObjectID: "RMNH.AVES.110000", Accept: []string{"*/*"}},
			wantKind:      OutcomeRedirect,
			wantLocation:  "https://bioportal.naturalis.nl/specimen/RMNH.AVES.110000",
			wantMediaType: "text/html",
		},
		{
			name:          "image wildcard picks first access point",
			repo:          found(crsSpecimen(jpeg)),
			req:           Request{ObjectID: "RMNH.AVES.110000", Accept: []string{"image/*"}},
			wantKind:      OutcomeRedirect,
			wantLocation:  jpeg.AccessURI,
			wantMediaType: "image/jpeg",
		},
		{
			name:     "no accept header is not acceptable",
			repo:     found(crsSpecimen()),
			req:      Request{ObjectID: "RMNH.AVES.110000"},
			wantKind: OutcomeNotAcceptable,
			wantAlts: []string{"text/html", "application/json"},
		},
		{
			name:          "malformed entries are skipped",
			repo:          found(crsSpecimen()),
			req:           Request{ObjectID: "RMNH.AVES.110000", Accept: []string{"garbage, application/json"}},
			wantKind:      OutcomeRedirect,
			wantLocation:  "https://api.example.org/v2/specimen/findByUnitID/RMNH.AVES.110000",
			wantMediaType: "application/json",
		},
		{
			name: "first allowed candidate wins",
			repo: found(
				model.Specimen{UnitID: "L.1", SourceSystem: model.SourceSystem{Code: model.SourceSystemOBS}},
				model.Specimen{UnitID: "L.1", SourceSystem: model.SourceSystem{Code: model.SourceSystemBRAHMS},
					AssociatedMultiMediaURIs: []model.ServiceAccessPoint{{AccessURI: "https://media.example.org/brahms.jpg"}}},
			),
			req:           Request{ObjectID: "L.1", Accept: []string{"image/jpeg"}},
			wantKind:      OutcomeRedirect,
			wantLocation:  "https://media.example.org/brahms.jpg",
			wantMediaType: "image/jpeg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(testVariant(), tt.repo)

			got, err := r.Resolve(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if got.Kind != tt.wantKind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Location != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got.Location, tt.wantLocation)
			}
			if tt.wantMediaType != "" && got.MediaType.Essence() != tt.wantMediaType {
				t.Errorf("MediaType = %s, want %s", got.MediaType.Essence(), tt.wantMediaType)
			}
			if tt.wantKind == OutcomeNotAcceptable {
				if len(got.Alternatives) != len(tt.wantAlts) {
					t.Fatalf("Alternatives = %v, want %v", got.Alternatives, tt.wantAlts)
				}
				for i, alt := range got.Alternatives {
					if alt.Essence() != tt.wantAlts[i] {
						t.Errorf("Alternatives[%d] = %s, want %s", i, alt.Essence(), tt.wantAlts[i])
					}
				}
			}
		})
	}
}

func TestResolveAccessPointConversion(t *testing.T) {
	specimen := crsSpecimen(
		model.ServiceAccessPoint{Format: "image/png"},
		model.ServiceAccessPoint{AccessURI: "https://media.example.org/broken", Format: "not-a-type"},
		model.ServiceAccessPoint{AccessURI: "https://media.example.org/default"},
		model.ServiceAccessPoint{AccessURI: "https://media.example.org/clip.mp4", Format: "video/mp4"},
	)
	r := newTestResolver(testVariant(), found(specimen))

	tests := []struct {
		accept       string
		wantKind     OutcomeKind
		wantLocation string
	}{
		{"image/png", OutcomeNotAcceptable, ""},
		{"image/jpeg", OutcomeRedirect, "https://media.example.org/default"},
		{"video/*", OutcomeRedirect, "https://media.example.org/clip.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), Request{ObjectID: specimen.UnitID, Accept: []string{tt.accept}})
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if got.Kind != tt.wantKind || got.Location != tt.wantLocation {
				t.Errorf("Resolve(%s) = %v %q, want %v %q", tt.accept, got.Kind, got.Location, tt.wantKind, tt.wantLocation)
			}
		})
	}

	// The png without a URI is advertised but never selected.
	got, _ := r.Resolve(context.Background(), Request{ObjectID: specimen.UnitID, Accept: []string{"application/pdf"}})
	want := []string{"text/html", "application/json", "image/png", "image/jpeg", "video/mp4"}
	if len(got.Alternatives) != len(want) {
		t.Fatalf("Alternatives = %v, want %v", got.Alternatives, want)
	}
	for i := range want {
		if got.Alternatives[i].Essence() != want[i] {
			t.Errorf("Alternatives[%d] = %s, want %s", i, got.Alternatives[i].Essence(), want[i])
		}
	}
}

func TestResolveAlternativesDeduplicated(t *testing.T) {
	specimen := crsSpecimen(
		model.ServiceAccessPoint{AccessURI: "https://media.example.org/1.jpg", Format: "image/jpeg"},
		model.ServiceAccessPoint{AccessURI: "https://media.example.org/2.jpg"},
	)
	r := newTestResolver(testVariant(), found(specimen))

	got, err := r.Resolve(context.Background(), Request{ObjectID: specimen.UnitID, Accept: []string{"image/png"}})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(got.Alternatives) != 3 {
		t.Errorf("Alternatives = %v, want 3 distinct types", got.Alternatives)
	}
}

func TestResolveRepositoryError(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"plain error", errors.New("connection refused")},
		{"upstream error", model.NewUpstreamError("NBA", errors.New("status 503"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &repository.Mock{
				FindSpecimensFunc: func(_ context.Context, _ string) ([]model.Specimen, error) {
					return nil, tt.err
				},
			}
			r := newTestResolver(testVariant(), repo)

			_, err := r.Resolve(context.Background(), Request{ObjectID: "X", Accept: []string{"text/html"}})
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, model.ErrUpstreamError) {
				t.Errorf("expected ErrUpstreamError, got %v", err)
			}
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != 502 {
				t.Errorf("expected 502 APIError, got %v", err)
			}
		})
	}
}

func TestResolveConfigurationError(t *testing.T) {
	v := testVariant()
	v.LandingPage = "https://bioportal.naturalis.nl/specimen/"

	r := newTestResolver(v, found(crsSpecimen()))

	_, err := r.Resolve(context.Background(), Request{ObjectID: "RMNH.AVES.110000", Accept: []string{"text/html"}})
	if !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}

	// JSON does not touch the landing page.
	got, err := r.Resolve(context.Background(), Request{ObjectID: "RMNH.AVES.110000", Accept: []string{"application/json"}})
	if err != nil || got.Kind != OutcomeRedirect {
		t.Errorf("json resolution = %v, %v", got, err)
	}
}

func TestResolveLocatorError(t *testing.T) {
	repo := found(crsSpecimen())
	repo.DocumentURLFunc = func(string) (string, error) {
		return "", errors.New("no base URL")
	}
	r := newTestResolver(testVariant(), repo)

	_, err := r.Resolve(context.Background(), Request{ObjectID: "RMNH.AVES.110000", Accept: []string{"application/json"}})
	if !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestResolveMultimediaQuery(t *testing.T) {
	v := testVariant()
	v.Multimedia = MultimediaQuery

	specimen := crsSpecimen(model.ServiceAccessPoint{AccessURI: "https://media.example.org/embedded.jpg"})

	tests := []struct {
		name         string
		accept       []string
		wantQueried  bool
		wantKind     OutcomeKind
		wantLocation string
	}{
		{
			name:         "html first skips multimedia lookup",
			accept:       []string{"text/html", "image/png"},
			wantQueried:  false,
			wantKind:     OutcomeRedirect,
			wantLocation: "https://bioportal.naturalis.nl/specimen/RMNH.AVES.110000",
		},
		{
			name:         "wildcard skips multimedia lookup",
			accept:       []string{"*/*"},
			wantQueried:  false,
			wantKind:     OutcomeRedirect,
			wantLocation: "https://bioportal.naturalis.nl/specimen/RMNH.AVES.110000",
		},
		{
			name:         "image request queries multimedia",
			accept:       []string{"image/png", "text/html"},
			wantQueried:  true,
			wantKind:     OutcomeRedirect,
			wantLocation: "https://media.example.org/queried.png",
		},
		{
			name:        "empty request queries for alternatives",
			accept:      nil,
			wantQueried: true,
			wantKind:    OutcomeNotAcceptable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queried := false
			repo := found(specimen)
			repo.FindMultimediaFunc = func(_ context.Context, specimenID string) ([]model.MultiMediaObject, error) {
				queried = true
				if specimenID != specimen.ID {
					t.Errorf("FindMultimedia(%q), want %q", specimenID, specimen.ID)
				}
				return []model.MultiMediaObject{{
					ID:                          "RMNH.AVES.110000_1@CRS",
					AssociatedSpecimenReference: specimen.ID,
					ServiceAccessPoints: []model.ServiceAccessPoint{
						{AccessURI: "https://media.example.org/queried.png", Format: "image/png"},
					},
				}}, nil
			}
			r := newTestResolver(v, repo)

			got, err := r.Resolve(context.Background(), Request{ObjectID: specimen.UnitID, Accept: tt.accept})
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if queried != tt.wantQueried {
				t.Errorf("multimedia queried = %v, want %v", queried, tt.wantQueried)
			}
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Location != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got.Location, tt.wantLocation)
			}
		})
	}
}

func TestResolveMultimediaQueryError(t *testing.T) {
	v := testVariant()
	v.Multimedia = MultimediaQuery

	repo := found(crsSpecimen())
	repo.FindMultimediaFunc = func(context.Context, string) ([]model.MultiMediaObject, error) {
		return nil, errors.New("timeout")
	}
	r := newTestResolver(v, repo)

	_, err := r.Resolve(context.Background(), Request{ObjectID: "RMNH.AVES.110000", Accept: []string{"image/jpeg"}})
	if !errors.Is(err, model.ErrUpstreamError) {
		t.Errorf("expected ErrUpstreamError, got %v", err)
	}
}

func TestResolveTierOverride(t *testing.T) {
	jpeg := model.ServiceAccessPoint{AccessURI: "https://media.example.org/a.jpg", Format: "image/jpeg"}

	tests := []struct {
		name         string
		tiers        []negotiation.Kind
		accept       string
		wantKind     OutcomeKind
		wantLocation string
	}{
		{
			name:         "multimedia ahead of html",
			tiers:        []negotiation.Kind{negotiation.KindMultimedia, negotiation.KindHTML},
			accept:       "*/*",
			wantKind:     OutcomeRedirect,
			wantLocation: jpeg.AccessURI,
		},
		{
			name:     "json only rejects html",
			tiers:    []negotiation.Kind{negotiation.KindJSON},
			accept:   "text/html",
			wantKind: OutcomeNotAcceptable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testVariant()
			v.Tiers = tt.tiers
			r := newTestResolver(v, found(crsSpecimen(jpeg)))

			got, err := r.Resolve(context.Background(), Request{ObjectID: "RMNH.AVES.110000", Accept: []string{tt.accept}})
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if got.Kind != tt.wantKind || got.Location != tt.wantLocation {
				t.Errorf("got %v %q, want %v %q", got.Kind, got.Location, tt.wantKind, tt.wantLocation)
			}
		})
	}
}

func TestResolveIdempotent(t *testing.T) {
	r := newTestResolver(testVariant(), found(crsSpecimen(
		model.ServiceAccessPoint{AccessURI: "https://media.example.org/1.jpg"},
		model.ServiceAccessPoint{AccessURI: "https://media.example.org/2.jpg"},
	)))
	req := Request{ObjectID: "RMNH.AVES.110000", Accept: []string{"image/*"}}

	first, err := r.Resolve(context.Background(), req)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, _ := r.Resolve(context.Background(), req)
		if again.Location != first.Location {
			t.Fatalf("run %d: Location = %q, want %q", i, again.Location, first.Location)
		}
	}
}

func TestResolvePassesObjectIDThrough(t *testing.T) {
	var gotID string
	repo := &repository.Mock{
		FindSpecimensFunc: func(_ context.Context, unitID string) ([]model.Specimen, error) {
			gotID = unitID
			return nil, nil
		},
	}
	r := newTestResolver(testVariant(), repo)

	if _, err := r.Resolve(context.Background(), Request{ObjectID: "L  0123/ab"}); err != nil {
		t.Fatal(err)
	}
	if gotID != "L  0123/ab" {
		t.Errorf("repository saw %q", gotID)
	}
}

func TestResolveTargetIdentifiers(t *testing.T) {
	// The NBA matches unitIDs case-insensitively and returns its own spelling.
	r := newTestResolver(testVariant(), found(crsSpecimen()))

	tests := []struct {
		accept       string
		wantLocation string
	}{
		{"text/html", "https://bioportal.naturalis.nl/specimen/RMNH.AVES.110000"},
		{"application/json", "https://api.example.org/v2/specimen/findByUnitID/rmnh.aves.110000"},
	}
	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), Request{ObjectID: "rmnh.aves.110000", Accept: []string{tt.accept}})
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if got.Location != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got.Location, tt.wantLocation)
			}
		})
	}
}
