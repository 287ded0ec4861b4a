package usecase

import (
	"errors"
	"log/slog"

	"FeedNotifier/internal/domain"
	"FeedNotifier/internal/pipeline"
)

// FeedPipeline is the fixed fetch, enrich, route, comment, notify pipeline.
type FeedPipeline = pipeline.Orchestrator[domain.FeedMeta, domain.Enrichment]

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source     pipeline.Source[domain.FeedMeta]
	Router     pipeline.Stage[domain.Enrichment, domain.Enrichment]
	Commentary pipeline.Stage[domain.Enrichment, domain.Enrichment]
	Notifier   pipeline.Notifier[domain.Enrichment]
	// Alerter is optional.
	Alerter pipeline.Alerter
	Logger  *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) (*FeedPipeline, error) {
	if deps.Router == nil || deps.Commentary == nil {
		return nil, errors.New("router and commentary stages are required")
	}

	chain := pipeline.Then(pipeline.Begin[domain.FeedMeta](), pipeline.Stage[domain.FeedMeta, domain.Enrichment](EnrichmentInitializer{}))
	chain = pipeline.Then(chain, deps.Router)
	chain = pipeline.Then(chain, deps.Commentary)

	return pipeline.New(pipeline.Deps[domain.FeedMeta, domain.Enrichment]{
		Source:   deps.Source,
		Chain:    chain,
		Notifier: deps.Notifier,
		Alerter:  deps.Alerter,
		Logger:   deps.Logger,
	})
}
