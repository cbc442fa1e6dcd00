package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/wingnotes/pkg/core"
	"github.com/aretw0/wingnotes/pkg/export"
)

var (
	exportFormat string
	exportOut    string
	exportAll    bool
	importFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export [note]",
	Short: "Write a note as Markdown, JSON or YAML",
	Long: `Write a note (default: the current one) to stdout or --out.
With --all every note is written to its own file in the --out directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ser, err := export.ForName(exportFormat)
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(s *session) error {
			if exportAll {
				if exportOut == "" {
					return fmt.Errorf("--all requires --out <dir>")
				}
				paths, err := exportNotes(s.store.Notes(), ser, exportOut)
				for _, p := range paths {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
				return err
			}

			n, err := resolveNote(s.store, argOr(args, 0))
			if err != nil {
				return err
			}
			data, err := ser.Serialize(n)
			if err != nil {
				return err
			}
			if exportOut == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(exportOut, data, 0644)
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Add a note from an exported file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := importFormat
		if format == "" {
			format = filepath.Ext(args[0])
		}
		ser, err := export.ForName(format)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		parsed, err := ser.Parse(data)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", args[0], err)
		}
		return withSession(cmd.Context(), func(s *session) error {
			n, err := importNote(s.store, parsed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s %q (%d blocks)\n", shortID(n.ID), n.Title, len(n.Blocks))
			return nil
		})
	},
}

// importNote adds parsed as a new note. It always gets a fresh ID so that
// importing the same file twice yields two notes.
func importNote(store *core.Store, parsed core.Note) (core.Note, error) {
	n := store.AddNote(parsed.Title)
	blocks := parsed.Blocks
	if blocks == nil {
		blocks = []core.Block{}
	}
	if err := store.UpdateNote(n.ID, core.NoteUpdate{Blocks: blocks}); err != nil {
		return core.Note{}, err
	}
	return store.Note(n.ID)
}

// exportNotes writes every note to dir and returns the paths written.
func exportNotes(notes []core.Note, ser export.Serializer, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	var paths []string
	used := make(map[string]bool)
	for _, n := range notes {
		name := slugify(n.Title)
		if used[name] {
			name += "-" + shortID(n.ID)
		}
		used[name] = true

		data, err := ser.Serialize(n)
		if err != nil {
			return paths, fmt.Errorf("note %s: %w", n.ID, err)
		}
		path := filepath.Join(dir, name+ser.Ext())
		if err := os.WriteFile(path, data, 0644); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		return "note"
	}
	return slug
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "md", "Output format: md, json or yaml")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (or directory with --all)")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every note")
	importCmd.Flags().StringVarP(&importFormat, "format", "f", "", "Input format (default: from the file extension)")
}
