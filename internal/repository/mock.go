package repository

import (
	"context"

	"purl-resolver/internal/model"
)

// Mock implements Store for testing.
// Each method can be configured via function fields.
type Mock struct {
	FindSpecimensFunc  func(ctx context.Context, unitID string) ([]model.Specimen, error)
	FindMultimediaFunc func(ctx context.Context, specimenID string) ([]model.MultiMediaObject, error)
	DocumentURLFunc    func(unitID string) (string, error)
}

// FindSpecimens calls the configured FindSpecimensFunc or returns no specimens.
func (m *Mock) FindSpecimens(ctx context.Context, unitID string) ([]model.Specimen, error) {
	if m.FindSpecimensFunc != nil {
		return m.FindSpecimensFunc(ctx, unitID)
	}
	return nil, nil
}

// FindMultimedia calls the configured FindMultimediaFunc or returns no documents.
func (m *Mock) FindMultimedia(ctx context.Context, specimenID string) ([]model.MultiMediaObject, error) {
	if m.FindMultimediaFunc != nil {
		return m.FindMultimediaFunc(ctx, specimenID)
	}
	return nil, nil
}

// DocumentURL calls the configured DocumentURLFunc or returns a URL on a
// placeholder host.
func (m *Mock) DocumentURL(unitID string) (string, error) {
	if m.DocumentURLFunc != nil {
		return m.DocumentURLFunc(unitID)
	}
	return "https://api.example.org/v2/specimen/findByUnitID/" + unitID, nil
}

// Verify Mock implements Store interface at compile time.
var _ Store = (*Mock)(nil)
