package domain

// BlockKind enumerates the message block shapes stages may inject.
type BlockKind string

const (
	BlockContext BlockKind = "context"
	BlockDivider BlockKind = "divider"
)

// Block is a platform-neutral message fragment. Text is markdown for
// context blocks and ignored for dividers.
type Block struct {
	Kind BlockKind
	Text string
}

// ContextBlock builds a markdown context block.
func ContextBlock(text string) Block {
	return Block{Kind: BlockContext, Text: text}
}

// DividerBlock builds a divider.
func DividerBlock() Block {
	return Block{Kind: BlockDivider}
}
