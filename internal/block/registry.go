package block

import "fmt"

// Predicate filters blocks during a lookup.
type Predicate func(*Block) bool

// Any matches every block.
func Any(*Block) bool { return true }

// Tagged matches blocks whose metadata carries key.
func Tagged(key string) Predicate {
	return func(b *Block) bool { return b.Tagged(key) }
}

// Untagged matches blocks whose metadata does not carry key.
func Untagged(key string) Predicate {
	return func(b *Block) bool { return !b.Tagged(key) }
}

// MissingBlockError reports that no block of the required category exists.
type MissingBlockError struct {
	Category Category
	// Clocked is set when the lookup was for the clock-tagged ALWAYS block.
	Clocked bool
}

func (e *MissingBlockError) Error() string {
	if e.Clocked {
		return fmt.Sprintf("no clocked %s block found", e.Category)
	}
	return fmt.Sprintf("no %s block found", e.Category)
}

// Registry owns the blocks of one testbench. Blocks are kept in insertion
// order and indexed by category; nothing is ever removed.
type Registry struct {
	blocks     []*Block
	byCategory map[Category][]*Block
}

// NewRegistry returns a registry seeded with one empty block per category.
func NewRegistry(categories ...Category) *Registry {
	r := &Registry{byCategory: make(map[Category][]*Block)}
	for _, c := range categories {
		r.Add(New(c, nil))
	}
	return r
}

// Add appends b to the registry.
func (r *Registry) Add(b *Block) {
	if r.byCategory == nil {
		r.byCategory = make(map[Category][]*Block)
	}
	r.blocks = append(r.blocks, b)
	r.byCategory[b.Category] = append(r.byCategory[b.Category], b)
}

// Blocks returns the block handles in insertion order.
func (r *Registry) Blocks() []*Block {
	return append([]*Block(nil), r.blocks...)
}

// Len returns the number of blocks.
func (r *Registry) Len() int {
	return len(r.blocks)
}

// FindFirst returns the first block of category accepted by match.
// A nil match behaves like Any.
func (r *Registry) FindFirst(category Category, match Predicate) (*Block, bool) {
	if match == nil {
		match = Any
	}
	for _, b := range r.byCategory[category] {
		if match(b) {
			return b, true
		}
	}
	return nil, false
}

// Require is FindFirst that turns a miss into a *MissingBlockError.
func (r *Registry) Require(category Category, match Predicate) (*Block, error) {
	if b, ok := r.FindFirst(category, match); ok {
		return b, nil
	}
	return nil, &MissingBlockError{Category: category}
}

// Clocked returns the clock-tagged ALWAYS block.
func (r *Registry) Clocked() (*Block, error) {
	if b, ok := r.FindFirst(Always, Tagged(TagClock)); ok {
		return b, nil
	}
	return nil, &MissingBlockError{Category: Always, Clocked: true}
}
