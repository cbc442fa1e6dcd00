// Package export converts notes to and from portable file formats.
package export

import (
	"fmt"
	"strings"

	"github.com/aretw0/wingnotes/pkg/core"
)

// Serializer converts a single note to a file format and back.
type Serializer interface {
	// Serialize renders the note.
	Serialize(n core.Note) ([]byte, error)
	// Parse reads a note previously rendered by Serialize.
	Parse(data []byte) (core.Note, error)
	// Ext is the file extension, including the dot.
	Ext() string
}

// DefaultSerializers returns the built-in formats keyed by name.
func DefaultSerializers() map[string]Serializer {
	return map[string]Serializer{
		"md":   NewMarkdownSerializer(),
		"json": NewJSONSerializer(),
		"yaml": NewYAMLSerializer(),
	}
}

// ForName returns the serializer registered under name ("md", "json",
// "yaml"), accepting common aliases.
func ForName(name string) (Serializer, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "md", "markdown":
		return NewMarkdownSerializer(), nil
	case "json":
		return NewJSONSerializer(), nil
	case "yaml", "yml":
		return NewYAMLSerializer(), nil
	}
	return nil, fmt.Errorf("unknown export format %q", name)
}

// --- JSON ---

// JSONSerializer uses the snapshot encoding of a single note.
type JSONSerializer struct{}

func NewJSONSerializer() *JSONSerializer { return &JSONSerializer{} }

func (s *JSONSerializer) Ext() string { return ".json" }

func (s *JSONSerializer) Serialize(n core.Note) ([]byte, error) {
	return core.EncodeNote(n)
}

func (s *JSONSerializer) Parse(data []byte) (core.Note, error) {
	notes, err := core.DecodeSnapshot("[" + string(data) + "]")
	if err != nil {
		return core.Note{}, err
	}
	if len(notes) != 1 {
		return core.Note{}, fmt.Errorf("expected one note, got %d", len(notes))
	}
	return notes[0], nil
}
