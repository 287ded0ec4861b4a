package domain

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWithMetadataClonesCategories(t *testing.T) {
	t.Parallel()

	src := Entry[FeedMeta]{ID: "1", Categories: []string{"tech", "go"}, TargetID: "C1"}
	out := WithMetadata(src, Enrichment{})
	out.Categories[0] = "changed"

	if src.Categories[0] != "tech" {
		t.Fatalf("source categories mutated: %v", src.Categories)
	}
	if out.TargetID != "C1" || out.ID != "1" {
		t.Fatalf("fields not copied: %+v", out)
	}
}

func TestWithExtraBlocksAppendsWithoutSharing(t *testing.T) {
	t.Parallel()

	base := Entry[Enrichment]{ID: "1", Metadata: Enrichment{ExtraBlocks: []Block{ContextBlock("a")}}}
	first := WithExtraBlocks(base, ContextBlock("b"))
	second := WithExtraBlocks(base, DividerBlock())

	if len(base.Metadata.ExtraBlocks) != 1 {
		t.Fatalf("base mutated: %v", base.Metadata.ExtraBlocks)
	}
	if diff := cmp.Diff([]Block{ContextBlock("a"), ContextBlock("b")}, first.Metadata.ExtraBlocks); diff != "" {
		t.Fatalf("first mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Block{ContextBlock("a"), DividerBlock()}, second.Metadata.ExtraBlocks); diff != "" {
		t.Fatalf("second mismatch (-want +got):\n%s", diff)
	}
}

func TestWithTarget(t *testing.T) {
	t.Parallel()

	base := Entry[Enrichment]{ID: "1"}
	routed := base.WithTarget("C9")
	if base.TargetID != "" || routed.TargetID != "C9" {
		t.Fatalf("unexpected targets: base=%q routed=%q", base.TargetID, routed.TargetID)
	}
}

func TestCatalogByNumber(t *testing.T) {
	t.Parallel()

	catalog := NewCatalog([]Commentator{
		{Name: "Ada", Field: "computing"},
		{Name: "Grace", Field: "compilers"},
	})

	got, err := catalog.ByNumber(1)
	if err != nil {
		t.Fatalf("ByNumber(1) error: %v", err)
	}
	if got.Name != "Ada" {
		t.Fatalf("expected Ada, got %s", got.Name)
	}

	for _, n := range []int{0, 3, -1} {
		if _, err := catalog.ByNumber(n); !errors.Is(err, ErrUnknownCommentator) {
			t.Fatalf("ByNumber(%d): expected ErrUnknownCommentator, got %v", n, err)
		}
	}
}
