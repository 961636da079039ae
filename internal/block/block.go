package block

import (
	"fmt"
	"strings"
)

// Category classifies which declarative region of the testbench a block represents.
type Category int

const (
	Extern Category = iota
	Initial
	Always
	AlwaysComb
	AlwaysFF
	AlwaysLatch
)

// TagClock marks the single ALWAYS block that holds the edge-triggered process.
const TagClock = "clock"

// TagSensitivity carries the event control of an ALWAYS_FF block, e.g. "posedge clk".
const TagSensitivity = "sensitivity"

var categoryNames = [...]string{
	Extern:      "EXTERN",
	Initial:     "INITIAL",
	Always:      "ALWAYS",
	AlwaysComb:  "ALWAYS_COMB",
	AlwaysFF:    "ALWAYS_FF",
	AlwaysLatch: "ALWAYS_LATCH",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// Categories returns every category in declaration order.
func Categories() []Category {
	return []Category{Extern, Initial, Always, AlwaysComb, AlwaysFF, AlwaysLatch}
}

// ParseCategory accepts the upper-case names used in bench files, case-insensitively.
func ParseCategory(s string) (Category, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range categoryNames {
		if name == want {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown block category %q", s)
}

// Block is an append-only buffer of generated lines.
type Block struct {
	Category Category
	Metadata map[string]any
	Lines    []string
}

// New creates an empty block. A nil metadata map is replaced with an empty one.
func New(category Category, metadata map[string]any, lines ...string) *Block {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Block{
		Category: category,
		Metadata: metadata,
		Lines:    append([]string(nil), lines...),
	}
}

// Append adds one line at the end of the block.
func (b *Block) Append(line string) {
	b.Lines = append(b.Lines, line)
}

// Tagged reports whether key is present in the block metadata.
func (b *Block) Tagged(key string) bool {
	_, ok := b.Metadata[key]
	return ok
}
