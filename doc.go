// Package wingnotes is the composition root of the dual-column notebook.
//
// It connects the domain (package core: notes, blocks, the store and its
// debounced autosave) with the persistence adapters (package adapters/fs and
// adapters/memory) using the Hexagonal Architecture pattern.
//
// A notebook is an ordered list of notes. Each note is an ordered list of
// blocks, and each block pairs a description pane with a reference pane
// split by an adjustable width. Every mutation marks the notebook dirty and
// the whole notebook is written as one snapshot once edits have paused for
// the debounce delay.
//
// Usage:
//
//	store, err := wingnotes.Open(ctx, "./notes",
//		wingnotes.WithLogger(logger),
//		wingnotes.WithDebounce(time.Second),
//	)
//	defer store.Close(ctx)
//
//	note, _ := store.Current()
//	editor, _ := store.Editor(note.ID)
//	b := editor.AppendBlock()
//	_ = editor.EditField(b.ID, core.FieldLeft, "Why")
package wingnotes
