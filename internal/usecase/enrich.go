package usecase

import (
	"context"

	"FeedNotifier/internal/domain"
	"FeedNotifier/internal/pipeline"
)

// EnrichmentInitializer gives every fetched entry an empty enrichment.
type EnrichmentInitializer struct{}

var _ pipeline.Stage[domain.FeedMeta, domain.Enrichment] = EnrichmentInitializer{}

func (EnrichmentInitializer) Name() string {
	return "enrich"
}

func (EnrichmentInitializer) Apply(_ context.Context, entries []domain.Entry[domain.FeedMeta]) (pipeline.Outcome[domain.Enrichment], error) {
	out := make([]domain.Entry[domain.Enrichment], len(entries))
	for i, e := range entries {
		out[i] = domain.WithMetadata(e, domain.Enrichment{})
	}
	return pipeline.Outcome[domain.Enrichment]{Entries: out}, nil
}
