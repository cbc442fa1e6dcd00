package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/aretw0/wingnotes/pkg/core"
)

var (
	listJSON  bool
	listMatch string
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage notes",
}

var noteAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Create a note and select it",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.Join(args, " ")
		return withSession(cmd.Context(), func(s *session) error {
			n := s.store.AddNote(title)
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q\n", shortID(n.ID), n.Title)
			return nil
		})
	},
}

var noteListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List notes",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listMatch != "" && !doublestar.ValidatePattern(listMatch) {
			return fmt.Errorf("invalid pattern %q", listMatch)
		}
		return withSession(cmd.Context(), func(s *session) error {
			notes := filterNotes(s.store.Notes(), listMatch)
			if listJSON {
				data, err := core.EncodeSnapshot(notes)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), data)
				return nil
			}
			printNoteList(cmd.OutOrStdout(), notes, s.store.CurrentID(), time.Now())
			return nil
		})
	},
}

var noteShowCmd = &cobra.Command{
	Use:   "show [note]",
	Short: "Print a note with its two panes side by side",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			n, err := resolveNote(s.store, argOr(args, 0))
			if err != nil {
				return err
			}
			renderNote(cmd.OutOrStdout(), n, renderWidth)
			return nil
		})
	},
}

var noteRenameCmd = &cobra.Command{
	Use:   "rename <note> <title>",
	Short: "Rename a note",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			n, err := resolveNote(s.store, args[0])
			if err != nil {
				return err
			}
			return s.store.RenameNote(n.ID, strings.Join(args[1:], " "))
		})
	},
}

var noteRmCmd = &cobra.Command{
	Use:     "rm <note>",
	Aliases: []string{"delete"},
	Short:   "Delete a note",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			n, err := resolveNote(s.store, args[0])
			if err != nil {
				return err
			}
			if err := s.store.DeleteNote(n.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", n.Title)
			return nil
		})
	},
}

var noteSelectCmd = &cobra.Command{
	Use:   "select <note>",
	Short: "Make a note the current one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			n, err := resolveNote(s.store, args[0])
			if err != nil {
				return err
			}
			return s.store.SelectNote(n.ID)
		})
	},
}

// filterNotes keeps the notes whose title matches the doublestar pattern.
func filterNotes(notes []core.Note, pattern string) []core.Note {
	if pattern == "" {
		return notes
	}
	var out []core.Note
	for _, n := range notes {
		if ok, _ := doublestar.Match(pattern, n.Title); ok {
			out = append(out, n)
		}
	}
	return out
}

func printNoteList(w io.Writer, notes []core.Note, current string, now time.Time) {
	if len(notes) == 0 {
		fmt.Fprintln(w, "No notes.")
		return
	}
	for i, n := range notes {
		marker := " "
		if n.ID == current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %2d  %s  %-12s %s\n", marker, i+1, shortID(n.ID), formatDate(n.UpdatedAt, now), n.Title)
	}
}

// formatDate renders t relative to now: the time of day for today, the
// day for this year, the full date otherwise.
func formatDate(t, now time.Time) string {
	t = t.In(now.Location())
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	switch {
	case y1 == y2 && m1 == m2 && d1 == d2:
		return t.Format("15:04")
	case y1 == y2:
		return t.Format("Jan 2")
	default:
		return t.Format("Jan 2, 2006")
	}
}

func argOr(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteAddCmd, noteListCmd, noteShowCmd, noteRenameCmd, noteRmCmd, noteSelectCmd)

	noteListCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	noteShowCmd.Flags().IntVar(&renderWidth, "width", 80, "Output width in columns")
	noteListCmd.Flags().StringVar(&listMatch, "match", "", "Only list titles matching a glob (e.g. 'meeting*')")
}
