package core

import (
	"fmt"

	"github.com/google/uuid"
)

// BlockList edits the ordered blocks of a single note.
//
// It works on its own copy of the sequence. Every successful operation
// rebuilds the full sequence and hands a copy of it to the change callback;
// operations that fail or do nothing do not notify.
type BlockList struct {
	blocks   []Block
	onChange func([]Block)
	newID    func() string
}

// BlockListOption configures a BlockList.
type BlockListOption func(*BlockList)

// WithBlockIDs sets the generator used for new block IDs.
func WithBlockIDs(fn func() string) BlockListOption {
	return func(l *BlockList) {
		if fn != nil {
			l.newID = fn
		}
	}
}

// NewBlockList creates a BlockList over a copy of blocks.
// onChange may be nil.
func NewBlockList(blocks []Block, onChange func([]Block), opts ...BlockListOption) *BlockList {
	l := &BlockList{
		blocks:   cloneBlocks(blocks),
		onChange: onChange,
		newID:    uuid.NewString,
	}
	if l.blocks == nil {
		l.blocks = []Block{}
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Blocks returns a copy of the current sequence.
func (l *BlockList) Blocks() []Block {
	return cloneBlocks(l.blocks)
}

// Len returns the number of blocks.
func (l *BlockList) Len() int { return len(l.blocks) }

// Index returns the position of the block, or -1.
func (l *BlockList) Index(id string) int {
	for i, b := range l.blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// IsFirst reports whether id is the first block.
func (l *BlockList) IsFirst(id string) bool {
	return len(l.blocks) > 0 && l.blocks[0].ID == id
}

// IsLast reports whether id is the last block.
func (l *BlockList) IsLast(id string) bool {
	return len(l.blocks) > 0 && l.blocks[len(l.blocks)-1].ID == id
}

// EditField replaces the left or right text of a block.
func (l *BlockList) EditField(id string, field Field, value string) error {
	i, err := l.find(id)
	if err != nil {
		return err
	}
	next := cloneBlocks(l.blocks)
	switch field {
	case FieldLeft:
		next[i].LeftContent = value
	case FieldRight:
		next[i].RightContent = value
	default:
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	l.commit(next)
	return nil
}

// SetWidth stores the left pane width of a block, clamped to [MinWidth, MaxWidth].
func (l *BlockList) SetWidth(id string, width float64) error {
	i, err := l.find(id)
	if err != nil {
		return err
	}
	next := cloneBlocks(l.blocks)
	next[i].LeftWidth = ClampWidth(width)
	l.commit(next)
	return nil
}

// InsertAfter inserts an empty block right after position index.
// An index outside the sequence appends at the end.
func (l *BlockList) InsertAfter(index int) Block {
	b := newBlock(l.newID())
	next := make([]Block, 0, len(l.blocks)+1)
	if index < 0 || index >= len(l.blocks)-1 {
		next = append(next, l.blocks...)
		next = append(next, b)
	} else {
		next = append(next, l.blocks[:index+1]...)
		next = append(next, b)
		next = append(next, l.blocks[index+1:]...)
	}
	l.commit(next)
	return b
}

// AppendBlock adds an empty block at the end.
func (l *BlockList) AppendBlock() Block {
	return l.InsertAfter(-1)
}

// Delete removes a block. Removing the last remaining block leaves the
// sequence empty.
func (l *BlockList) Delete(id string) error {
	i, err := l.find(id)
	if err != nil {
		return err
	}
	next := make([]Block, 0, len(l.blocks)-1)
	next = append(next, l.blocks[:i]...)
	next = append(next, l.blocks[i+1:]...)
	l.commit(next)
	return nil
}

// MoveStep moves a block one position up or down. At the boundary it does
// nothing.
func (l *BlockList) MoveStep(id string, dir Direction) error {
	i, err := l.find(id)
	if err != nil {
		return err
	}
	var j int
	switch dir {
	case Up:
		j = i - 1
	case Down:
		j = i + 1
	default:
		return fmt.Errorf("invalid direction %q", dir)
	}
	if j < 0 || j >= len(l.blocks) {
		return nil
	}
	next := cloneBlocks(l.blocks)
	next[i], next[j] = next[j], next[i]
	l.commit(next)
	return nil
}

// Reorder moves the source block to the position currently held by the
// target block, shifting the blocks in between by one. Equal IDs are a
// no-op.
func (l *BlockList) Reorder(sourceID, targetID string) error {
	if sourceID == targetID {
		return nil
	}
	from, err := l.find(sourceID)
	if err != nil {
		return err
	}
	to, err := l.find(targetID)
	if err != nil {
		return err
	}
	l.commit(arrayMove(l.blocks, from, to))
	return nil
}

func (l *BlockList) find(id string) (int, error) {
	if i := l.Index(id); i >= 0 {
		return i, nil
	}
	return -1, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
}

func (l *BlockList) commit(next []Block) {
	l.blocks = next
	if l.onChange != nil {
		l.onChange(cloneBlocks(next))
	}
}

func arrayMove(blocks []Block, from, to int) []Block {
	next := make([]Block, 0, len(blocks))
	moved := blocks[from]
	for i, b := range blocks {
		if i == from {
			continue
		}
		next = append(next, b)
	}
	next = append(next[:to], append([]Block{moved}, next[to:]...)...)
	return next
}
