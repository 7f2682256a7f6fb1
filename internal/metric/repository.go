package metric

import (
	"context"
	"time"

	"purl-resolver/internal/model"
	"purl-resolver/internal/repository"
)

// Repository lookup results.
const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

// instrumented records a counter and a latency observation for every call
// to the wrapped repository.
type instrumented struct {
	next    repository.Repository
	metrics *Registry
}

// InstrumentRepository wraps a repository with request metrics.
func InstrumentRepository(next repository.Repository, metrics *Registry) repository.Repository {
	return &instrumented{next: next, metrics: metrics}
}

func (i *instrumented) FindSpecimens(ctx context.Context, unitID string) ([]model.Specimen, error) {
	start := time.Now()
	specimens, err := i.next.FindSpecimens(ctx, unitID)
	i.observe("find_specimens", start, len(specimens), err)
	return specimens, err
}

func (i *instrumented) FindMultimedia(ctx context.Context, specimenID string) ([]model.MultiMediaObject, error) {
	start := time.Now()
	docs, err := i.next.FindMultimedia(ctx, specimenID)
	i.observe("find_multimedia", start, len(docs), err)
	return docs, err
}

func (i *instrumented) observe(operation string, start time.Time, n int, err error) {
	i.metrics.RepositoryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	result := resultHit
	switch {
	case err != nil:
		result = resultError
	case n == 0:
		result = resultMiss
	}
	i.metrics.RepositoryRequests.WithLabelValues(operation, result).Inc()
}
