package export

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/wingnotes/pkg/core"
)

// frontMatter is the YAML header of an exported note.
type frontMatter struct {
	ID      string      `yaml:"id"`
	Title   string      `yaml:"title"`
	Created time.Time   `yaml:"created"`
	Updated time.Time   `yaml:"updated"`
	Blocks  []yamlBlock `yaml:"blocks,omitempty"`
}

type yamlBlock struct {
	ID    string  `yaml:"id"`
	Width float64 `yaml:"width"`
	Left  string  `yaml:"left"`
	Right string  `yaml:"right"`
}

const (
	markerLeft  = "<!-- left -->"
	markerRight = "<!-- right -->"
	markerEnd   = "<!-- end -->"
)

var blockMarker = regexp.MustCompile(`^<!-- block id="([^"]*)" width="([^"]*)" -->$`)

// MarkdownSerializer renders a note as Markdown with YAML front matter.
// Each block becomes a section delimited by HTML comments, which keeps the
// panes readable in any Markdown viewer and lets Parse recover them.
type MarkdownSerializer struct{}

func NewMarkdownSerializer() *MarkdownSerializer { return &MarkdownSerializer{} }

func (s *MarkdownSerializer) Ext() string { return ".md" }

func (s *MarkdownSerializer) Serialize(n core.Note) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	fm := frontMatter{ID: n.ID, Title: n.Title, Created: n.CreatedAt.UTC(), Updated: n.UpdatedAt.UTC()}
	if err := encoder.Encode(fm); err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}
	encoder.Close()
	buf.WriteString("---\n")

	fmt.Fprintf(&buf, "\n# %s\n", n.Title)
	for _, b := range n.Blocks {
		buf.WriteString("\n")
		fmt.Fprintf(&buf, "<!-- block id=%q width=%q -->\n", b.ID, strconv.FormatFloat(b.LeftWidth, 'f', -1, 64))
		buf.WriteString(markerLeft + "\n")
		writeSection(&buf, b.LeftContent)
		buf.WriteString(markerRight + "\n")
		writeSection(&buf, b.RightContent)
		buf.WriteString(markerEnd + "\n")
	}
	return buf.Bytes(), nil
}

// writeSection writes text followed by a newline, which parseBlocks strips
// again, so trailing newlines in the text survive. Lines that would read
// back as a marker are escaped with a leading backslash.
func writeSection(buf *bytes.Buffer, text string) {
	if text == "" {
		return
	}
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			buf.WriteString("\n")
		}
		if looksLikeMarker(line) {
			buf.WriteString(`\`)
		}
		buf.WriteString(line)
	}
	buf.WriteString("\n")
}

// looksLikeMarker reports whether line is a marker once leading
// backslashes and spaces are ignored. Escaping every such line keeps
// the escape reversible.
func looksLikeMarker(line string) bool {
	s := strings.TrimSpace(strings.TrimLeft(line, "\\ \t"))
	switch s {
	case markerLeft, markerRight, markerEnd:
		return true
	}
	return blockMarker.MatchString(s)
}

func (s *MarkdownSerializer) Parse(data []byte) (core.Note, error) {
	if !bytes.HasPrefix(data, []byte("---\n")) && !bytes.HasPrefix(data, []byte("---\r\n")) {
		return core.Note{}, errors.New("missing front matter")
	}
	rest := data[3:]
	parts := bytes.SplitN(rest, []byte("\n---"), 2)
	if len(parts) == 1 {
		return core.Note{}, errors.New("front matter started but no closing delimiter found")
	}

	var fm frontMatter
	if err := yaml.Unmarshal(parts[0], &fm); err != nil {
		return core.Note{}, fmt.Errorf("failed to parse front matter: %w", err)
	}
	n := core.Note{ID: fm.ID, Title: fm.Title, CreatedAt: fm.Created, UpdatedAt: fm.Updated}

	blocks, err := parseBlocks(parts[1])
	if err != nil {
		return core.Note{}, err
	}
	n.Blocks = blocks
	return n, nil
}

func parseBlocks(body []byte) ([]core.Block, error) {
	var (
		blocks  = []core.Block{}
		current *core.Block
		section *strings.Builder
		left    strings.Builder
		right   strings.Builder
	)

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(text)

		if m := blockMarker.FindStringSubmatch(trimmed); m != nil {
			if current != nil {
				return nil, fmt.Errorf("line %d: block %s not closed", line, current.ID)
			}
			w, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid width %q", line, m[2])
			}
			current = &core.Block{ID: m[1], LeftWidth: core.ClampWidth(w)}
			left.Reset()
			right.Reset()
			section = nil
			continue
		}
		if current == nil {
			continue
		}
		switch trimmed {
		case markerLeft:
			section = &left
			continue
		case markerRight:
			section = &right
			continue
		case markerEnd:
			current.LeftContent = strings.TrimSuffix(left.String(), "\n")
			current.RightContent = strings.TrimSuffix(right.String(), "\n")
			blocks = append(blocks, *current)
			current = nil
			section = nil
			continue
		}
		if section != nil {
			if looksLikeMarker(text) && strings.HasPrefix(text, `\`) {
				text = text[1:]
			}
			section.WriteString(text)
			section.WriteString("\n")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if current != nil {
		return nil, fmt.Errorf("block %s not closed", current.ID)
	}
	return blocks, nil
}

// --- YAML ---

// YAMLSerializer renders the whole note, blocks included, as YAML.
type YAMLSerializer struct{}

func NewYAMLSerializer() *YAMLSerializer { return &YAMLSerializer{} }

func (s *YAMLSerializer) Ext() string { return ".yaml" }

func (s *YAMLSerializer) Serialize(n core.Note) ([]byte, error) {
	fm := frontMatter{ID: n.ID, Title: n.Title, Created: n.CreatedAt.UTC(), Updated: n.UpdatedAt.UTC()}
	for _, b := range n.Blocks {
		fm.Blocks = append(fm.Blocks, yamlBlock{ID: b.ID, Width: b.LeftWidth, Left: b.LeftContent, Right: b.RightContent})
	}
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(fm); err != nil {
		return nil, err
	}
	encoder.Close()
	return buf.Bytes(), nil
}

func (s *YAMLSerializer) Parse(data []byte) (core.Note, error) {
	var fm frontMatter
	if err := yaml.Unmarshal(data, &fm); err != nil {
		return core.Note{}, fmt.Errorf("failed to parse yaml: %w", err)
	}
	n := core.Note{ID: fm.ID, Title: fm.Title, CreatedAt: fm.Created, UpdatedAt: fm.Updated, Blocks: []core.Block{}}
	for _, b := range fm.Blocks {
		w := b.Width
		if w == 0 {
			w = core.DefaultWidth
		}
		n.Blocks = append(n.Blocks, core.Block{ID: b.ID, LeftWidth: core.ClampWidth(w), LeftContent: b.Left, RightContent: b.Right})
	}
	return n, nil
}
