package llm

import (
	"errors"
	"math"
	"testing"

	"FeedNotifier/internal/domain"
)

func TestCostMiniModel(t *testing.T) {
	t.Parallel()

	usage := domain.Usage{PromptTokens: 1000, CachedTokens: 200, CompletionTokens: 100}
	got, err := DefaultRates().Cost("gpt-4o-mini", usage)
	if err != nil {
		t.Fatalf("Cost returned error: %v", err)
	}

	want := (200*0.075 + 800*0.15 + 100*0.6) / 1_000_000
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("expected %.8f, got %.8f", want, got)
	}
}

func TestCostDatedVariantsShareRates(t *testing.T) {
	t.Parallel()

	usage := domain.Usage{PromptTokens: 500, CompletionTokens: 50}
	table := DefaultRates()
	base, _ := table.Cost("gpt-4o", usage)
	dated, err := table.Cost("gpt-4o-2024-08-06", usage)
	if err != nil {
		t.Fatalf("Cost returned error: %v", err)
	}
	if base != dated {
		t.Fatalf("dated variant priced differently: %v vs %v", base, dated)
	}
}

func TestCostUnsupportedModel(t *testing.T) {
	t.Parallel()

	_, err := DefaultRates().Cost("gpt-3.5-turbo", domain.Usage{PromptTokens: 1})
	if !errors.Is(err, ErrUnsupportedModel) {
		t.Fatalf("expected ErrUnsupportedModel, got %v", err)
	}
}

func TestRateTableSupports(t *testing.T) {
	t.Parallel()

	rates := DefaultRates()
	if !rates.Supports("gpt-4o-mini") {
		t.Fatalf("gpt-4o-mini must be priced")
	}
	if rates.Supports("gpt-3.5-turbo") {
		t.Fatalf("gpt-3.5-turbo must not be priced")
	}
}
