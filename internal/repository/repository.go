// Package repository defines the read-only lookup port the resolver uses to
// find specimen records and their multimedia.
package repository

import (
	"context"

	"purl-resolver/internal/model"
)

// Repository looks up NBA documents.
//
// An empty result with a nil error means nothing matched. A non-nil error is a
// transport or backend failure and must never be reported as "not found".
// Implementations are safe for concurrent use.
type Repository interface {
	// FindSpecimens returns every specimen whose unitID equals unitID, in
	// backend order. Usually zero or one, but duplicates across source
	// systems exist.
	FindSpecimens(ctx context.Context, unitID string) ([]model.Specimen, error)

	// FindMultimedia returns the multimedia documents that reference the
	// specimen with the given NBA-internal id.
	FindMultimedia(ctx context.Context, specimenID string) ([]model.MultiMediaObject, error)
}

// Locator computes the public location of a specimen's metadata document.
type Locator interface {
	DocumentURL(unitID string) (string, error)
}

// Store is a Repository that can also locate the documents it serves.
type Store interface {
	Repository
	Locator
}
