package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TimeLayout is the ISO-8601 form used for timestamps in snapshots.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

type blockRecord struct {
	ID           string   `json:"id"`
	LeftContent  string   `json:"leftContent"`
	RightContent string   `json:"rightContent"`
	LeftWidth    *float64 `json:"leftWidth,omitempty"`
}

type noteRecord struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Blocks    []blockRecord `json:"blocks"`
	CreatedAt string        `json:"createdAt"`
	UpdatedAt string        `json:"updatedAt"`
}

// EncodeSnapshot serializes the notebook into its stored text form.
func EncodeSnapshot(notes []Note) (string, error) {
	records := make([]noteRecord, len(notes))
	for i, n := range notes {
		records[i] = toRecord(n)
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return string(data), nil
}

// EncodeNote serializes a single note as indented JSON.
func EncodeNote(n Note) ([]byte, error) {
	return json.MarshalIndent(toRecord(n), "", "  ")
}

// DecodeSnapshot parses a stored notebook.
//
// Empty input and "null" decode to no notes. A bare array of blocks, as
// written by the single-editor releases, is migrated into one untitled note.
// Block widths are clamped, and a missing width means DefaultWidth. Missing
// IDs and timestamps are left zero for the caller to fill in.
func DecodeSnapshot(data string) ([]Note, error) {
	raw := bytes.TrimSpace([]byte(data))
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	legacy, err := isLegacyBlocks(items[0])
	if err != nil {
		return nil, err
	}
	if legacy {
		var blocks []blockRecord
		if err := json.Unmarshal(raw, &blocks); err != nil {
			return nil, fmt.Errorf("failed to decode legacy snapshot: %w", err)
		}
		return []Note{{Blocks: fromBlockRecords(blocks)}}, nil
	}

	var records []noteRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	notes := make([]Note, 0, len(records))
	for _, r := range records {
		n := Note{
			ID:     r.ID,
			Title:  r.Title,
			Blocks: fromBlockRecords(r.Blocks),
		}
		if n.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
			return nil, fmt.Errorf("note %s: createdAt: %w", r.ID, err)
		}
		if n.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("note %s: updatedAt: %w", r.ID, err)
		}
		notes = append(notes, n)
	}
	return notes, nil
}

func isLegacyBlocks(item json.RawMessage) (bool, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return false, fmt.Errorf("failed to decode snapshot entry: %w", err)
	}
	_, hasBlocks := fields["blocks"]
	_, hasLeft := fields["leftContent"]
	_, hasRight := fields["rightContent"]
	return !hasBlocks && (hasLeft || hasRight), nil
}

func toRecord(n Note) noteRecord {
	blocks := make([]blockRecord, len(n.Blocks))
	for i, b := range n.Blocks {
		w := ClampWidth(b.LeftWidth)
		blocks[i] = blockRecord{
			ID:           b.ID,
			LeftContent:  b.LeftContent,
			RightContent: b.RightContent,
			LeftWidth:    &w,
		}
	}
	return noteRecord{
		ID:        n.ID,
		Title:     n.Title,
		Blocks:    blocks,
		CreatedAt: formatTime(n.CreatedAt),
		UpdatedAt: formatTime(n.UpdatedAt),
	}
}

func fromBlockRecords(records []blockRecord) []Block {
	blocks := make([]Block, len(records))
	for i, r := range records {
		w := DefaultWidth
		if r.LeftWidth != nil {
			w = ClampWidth(*r.LeftWidth)
		}
		blocks[i] = Block{
			ID:           r.ID,
			LeftContent:  r.LeftContent,
			RightContent: r.RightContent,
			LeftWidth:    w,
		}
	}
	return blocks
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
