package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/wingnotes/pkg/core"
)

var (
	blockNote  string
	blockAfter string
	blockLeft  string
	blockRight string
)

var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Edit the blocks of a note (default: the current note)",
	Long: `Edit the blocks of a note. Blocks are referenced by ID, unique ID prefix
or 1-based position, as printed by 'wingnotes note show'.`,
}

// editBlocks opens the editor of the --note note (or the current one).
func editBlocks(cmd *cobra.Command, fn func(n core.Note, ed *core.BlockList) error) error {
	return withSession(cmd.Context(), func(s *session) error {
		n, err := resolveNote(s.store, blockNote)
		if err != nil {
			return err
		}
		ed, err := s.store.Editor(n.ID)
		if err != nil {
			return err
		}
		return fn(n, ed)
	})
}

var blockAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a block at the end, or after --after",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return editBlocks(cmd, func(n core.Note, ed *core.BlockList) error {
			index := -1
			if blockAfter != "" {
				after, err := resolveBlock(n, blockAfter)
				if err != nil {
					return err
				}
				index = ed.Index(after.ID)
			}
			b := ed.InsertAfter(index)
			if err := applyText(cmd, ed, b.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added block %s at position %d\n", shortID(b.ID), ed.Index(b.ID)+1)
			return nil
		})
	},
}

var blockEditCmd = &cobra.Command{
	Use:   "edit <block>",
	Short: "Replace the left and/or right text of a block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("left") && !cmd.Flags().Changed("right") {
			return fmt.Errorf("nothing to edit: pass --left and/or --right")
		}
		return editBlocks(cmd, func(n core.Note, ed *core.BlockList) error {
			b, err := resolveBlock(n, args[0])
			if err != nil {
				return err
			}
			return applyText(cmd, ed, b.ID)
		})
	},
}

var blockWidthCmd = &cobra.Command{
	Use:   "width <block> <percent>",
	Short: "Set the width of the left pane (10-90)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pct, err := strconv.ParseFloat(strings.TrimSuffix(args[1], "%"), 64)
		if err != nil {
			return fmt.Errorf("invalid width %q", args[1])
		}
		return editBlocks(cmd, func(n core.Note, ed *core.BlockList) error {
			b, err := resolveBlock(n, args[0])
			if err != nil {
				return err
			}
			if err := ed.SetWidth(b.ID, pct); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Left pane at %.0f%%\n", ed.Blocks()[ed.Index(b.ID)].LeftWidth)
			return nil
		})
	},
}

var blockMoveCmd = &cobra.Command{
	Use:       "move <block> up|down",
	Short:     "Move a block one position",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(core.Up), string(core.Down)},
	RunE: func(cmd *cobra.Command, args []string) error {
		return editBlocks(cmd, func(n core.Note, ed *core.BlockList) error {
			b, err := resolveBlock(n, args[0])
			if err != nil {
				return err
			}
			return ed.MoveStep(b.ID, core.Direction(strings.ToLower(args[1])))
		})
	},
}

var blockReorderCmd = &cobra.Command{
	Use:   "reorder <block> <target>",
	Short: "Move a block to the position held by target",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editBlocks(cmd, func(n core.Note, ed *core.BlockList) error {
			src, err := resolveBlock(n, args[0])
			if err != nil {
				return err
			}
			dst, err := resolveBlock(n, args[1])
			if err != nil {
				return err
			}
			return ed.Reorder(src.ID, dst.ID)
		})
	},
}

var blockRmCmd = &cobra.Command{
	Use:     "rm <block>",
	Aliases: []string{"delete"},
	Short:   "Delete a block",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editBlocks(cmd, func(n core.Note, ed *core.BlockList) error {
			b, err := resolveBlock(n, args[0])
			if err != nil {
				return err
			}
			return ed.Delete(b.ID)
		})
	},
}

// applyText writes the --left and --right flags that were given.
func applyText(cmd *cobra.Command, ed *core.BlockList, id string) error {
	if cmd.Flags().Changed("left") {
		if err := ed.EditField(id, core.FieldLeft, unescape(blockLeft)); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("right") {
		if err := ed.EditField(id, core.FieldRight, unescape(blockRight)); err != nil {
			return err
		}
	}
	return nil
}

// unescape turns a literal "\n" typed on the command line into a newline.
func unescape(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

func init() {
	rootCmd.AddCommand(blockCmd)
	blockCmd.AddCommand(blockAddCmd, blockEditCmd, blockWidthCmd, blockMoveCmd, blockReorderCmd, blockRmCmd)

	blockCmd.PersistentFlags().StringVarP(&blockNote, "note", "n", "", "Note to edit (default: current)")
	blockAddCmd.Flags().StringVar(&blockAfter, "after", "", "Insert after this block")
	for _, c := range []*cobra.Command{blockAddCmd, blockEditCmd} {
		c.Flags().StringVarP(&blockLeft, "left", "l", "", "Description pane text")
		c.Flags().StringVarP(&blockRight, "right", "r", "", "Reference pane text")
	}
}
