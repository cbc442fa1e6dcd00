// Package core holds the notebook domain: notes, blocks, the note store and
// its debounced persistence.
package core

import (
	"math"
	"time"
)

const (
	// MinWidth and MaxWidth bound the left pane of a block, in percent.
	MinWidth = 10.0
	MaxWidth = 90.0
	// DefaultWidth is the split of a freshly created block.
	DefaultWidth = 50.0

	// DefaultTitle is given to notes created without a title.
	DefaultTitle = "New note"
	// DefaultStorageKey is the gateway key holding the notebook snapshot.
	DefaultStorageKey = "wingnotes-data"
	// DefaultDebounce is the quiet period before a snapshot is written.
	DefaultDebounce = 1000 * time.Millisecond
)

// Block is one row of the two-pane editor.
type Block struct {
	ID           string
	LeftContent  string
	RightContent string
	LeftWidth    float64
}

// Note is a titled, ordered sequence of blocks.
type Note struct {
	ID        string
	Title     string
	Blocks    []Block
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a copy of the note that shares no slices with n.
func (n Note) Clone() Note {
	n.Blocks = cloneBlocks(n.Blocks)
	return n
}

// Field selects one of the two text panes of a block.
type Field string

const (
	FieldLeft  Field = "left"
	FieldRight Field = "right"
)

// Direction is the step direction of MoveStep.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// NoteUpdate carries the fields to merge into a note.
// Nil fields are left unchanged; a non-nil empty Blocks clears the note.
type NoteUpdate struct {
	Title  *string
	Blocks []Block
}

// ClampWidth forces w into [MinWidth, MaxWidth]. NaN maps to DefaultWidth.
func ClampWidth(w float64) float64 {
	if math.IsNaN(w) {
		return DefaultWidth
	}
	return math.Min(math.Max(w, MinWidth), MaxWidth)
}

func newBlock(id string) Block {
	return Block{ID: id, LeftWidth: DefaultWidth}
}

func cloneBlocks(blocks []Block) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	copy(out, blocks)
	return out
}

func cloneNotes(notes []Note) []Note {
	out := make([]Note, len(notes))
	for i, n := range notes {
		out[i] = n.Clone()
	}
	return out
}
