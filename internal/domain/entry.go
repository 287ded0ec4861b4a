package domain

import (
	"slices"
	"time"
)

// Entry is a single article flowing through the pipeline. M is the
// stage-specific metadata payload.
type Entry[M any] struct {
	ID         string
	Title      string
	Link       string
	Content    string
	Author     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Categories []string
	Metadata   M
	// TargetID is the destination channel; empty means the entry is not delivered.
	TargetID string
}

// FeedMeta is the placeholder metadata produced by the source provider.
type FeedMeta struct {
	FeedID int64
	Hash   string
}

// Enrichment carries the extra message blocks that stages inject.
type Enrichment struct {
	ExtraBlocks []Block
}

// WithMetadata copies e with a new metadata payload.
func WithMetadata[From, To any](e Entry[From], meta To) Entry[To] {
	return Entry[To]{
		ID:         e.ID,
		Title:      e.Title,
		Link:       e.Link,
		Content:    e.Content,
		Author:     e.Author,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
		Categories: slices.Clone(e.Categories),
		Metadata:   meta,
		TargetID:   e.TargetID,
	}
}

// WithTarget returns a copy of e addressed to the given channel.
func (e Entry[M]) WithTarget(targetID string) Entry[M] {
	out := WithMetadata(e, e.Metadata)
	out.TargetID = targetID
	return out
}

// WithExtraBlocks returns a copy of e whose enrichment has blocks appended.
func WithExtraBlocks(e Entry[Enrichment], blocks ...Block) Entry[Enrichment] {
	extra := make([]Block, 0, len(e.Metadata.ExtraBlocks)+len(blocks))
	extra = append(extra, e.Metadata.ExtraBlocks...)
	extra = append(extra, blocks...)
	return WithMetadata(e, Enrichment{ExtraBlocks: extra})
}

// IDs lists entry identifiers in order.
func IDs[M any](entries []Entry[M]) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
