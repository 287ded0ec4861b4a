package llm

import (
	"errors"
	"fmt"

	"FeedNotifier/internal/domain"
)

// ErrUnsupportedModel is returned for models missing from the rate table.
var ErrUnsupportedModel = errors.New("unsupported model")

const perMillion = 1_000_000

// Rates are USD prices per million tokens.
type Rates struct {
	CachedInput    float64
	NonCachedInput float64
	Output         float64
}

// RateTable maps model names to their rates.
type RateTable map[string]Rates

var (
	gpt4oMiniRates = Rates{CachedInput: 0.075, NonCachedInput: 0.15, Output: 0.6}
	gpt4oRates     = Rates{CachedInput: 1.25, NonCachedInput: 2.5, Output: 10}
)

// DefaultRates covers the gpt-4o and gpt-4o-mini families.
func DefaultRates() RateTable {
	return RateTable{
		"gpt-4o-mini":            gpt4oMiniRates,
		"gpt-4o-mini-2024-07-18": gpt4oMiniRates,
		"gpt-4o":                 gpt4oRates,
		"gpt-4o-2024-11-20":      gpt4oRates,
		"gpt-4o-2024-08-06":      gpt4oRates,
		"gpt-4o-2024-05-13":      gpt4oRates,
	}
}

// Supports reports whether model has a price.
func (t RateTable) Supports(model string) bool {
	_, ok := t[model]
	return ok
}

// Cost prices one completion in USD.
func (t RateTable) Cost(model string, usage domain.Usage) (float64, error) {
	rates, ok := t[model]
	if !ok {
		return 0, fmt.Errorf("price %q: %w", model, ErrUnsupportedModel)
	}
	nonCached := usage.PromptTokens - usage.CachedTokens
	if nonCached < 0 {
		nonCached = 0
	}
	cost := float64(usage.CachedTokens)*rates.CachedInput +
		float64(nonCached)*rates.NonCachedInput +
		float64(usage.CompletionTokens)*rates.Output
	return cost / perMillion, nil
}
