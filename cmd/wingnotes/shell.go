package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	lcadapter "github.com/aretw0/wingnotes/pkg/adapters/lifecycle"
	"github.com/aretw0/wingnotes/pkg/core"
)

var errQuit = errors.New("quit")

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Edit the notebook interactively with live autosave",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		sh := newShell(s.store, cmd.OutOrStdout())
		sh.follow(ctx)

		runErr := sh.run(ctx, cmd.InOrStdin())
		cancel()
		return errors.Join(runErr, s.close(context.Background()))
	},
}

// shell is a line-oriented editor over a Store.
type shell struct {
	store *core.Store
	mu    sync.Mutex
	out   io.Writer
}

func newShell(store *core.Store, out io.Writer) *shell {
	return &shell{store: store, out: out}
}

// follow prints save-status transitions as they happen.
func (sh *shell) follow(ctx context.Context) {
	source := lcadapter.NewSource(sh.store.Watch(ctx))
	if err := source.Start(ctx); err != nil {
		return
	}
	go func() {
		for e := range source.Events() {
			sh.printf("[%s]\n", e)
		}
	}()
}

func (sh *shell) printf(format string, args ...any) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	fmt.Fprintf(sh.out, format, args...)
}

func (sh *shell) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	sh.printf("wingnotes shell. Type 'help' for commands.\n")
	for {
		sh.printf("%s> ", sh.prompt())
		if !scanner.Scan() {
			sh.printf("\n")
			return scanner.Err()
		}
		if err := sh.exec(ctx, scanner.Text()); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			sh.printf("error: %v\n", err)
		}
	}
}

func (sh *shell) prompt() string {
	if n, ok := sh.store.Current(); ok {
		return n.Title
	}
	return "(empty)"
}

const shellHelp = `Notes:
  ls                       list notes
  new [title]              create and select a note
  open <note>              select a note
  title <text>             rename the current note
  drop <note>              delete a note
  show                     print the current note
Blocks of the current note:
  add [after]              insert a block (at the end by default)
  left <block> <text>      set the description pane ("\n" for newlines)
  right <block> <text>     set the reference pane
  width <block> <percent>  resize the left pane
  up <block> / down <block>
  move <block> <target>    move a block to the target's position
  del <block>              delete a block
Other:
  status  save  help  quit
`

// exec runs one command line.
func (sh *shell) exec(ctx context.Context, line string) error {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch cmd {
	case "":
		return nil
	case "help", "?":
		sh.printf("%s", shellHelp)
	case "quit", "exit", "q":
		return errQuit
	case "status":
		sh.printf("%s\n", sh.store.Status())
	case "save":
		return sh.store.Flush(ctx)

	case "ls":
		sh.mu.Lock()
		printNoteList(sh.out, sh.store.Notes(), sh.store.CurrentID(), time.Now())
		sh.mu.Unlock()
	case "new":
		n := sh.store.AddNote(rest)
		sh.printf("created %s\n", shortID(n.ID))
	case "open":
		n, err := resolveNote(sh.store, rest)
		if err != nil {
			return err
		}
		return sh.store.SelectNote(n.ID)
	case "title":
		if rest == "" {
			return errors.New("usage: title <text>")
		}
		return sh.store.RenameNote(sh.store.CurrentID(), rest)
	case "drop":
		n, err := resolveNote(sh.store, rest)
		if err != nil {
			return err
		}
		return sh.store.DeleteNote(n.ID)
	case "show":
		n, err := resolveNote(sh.store, "")
		if err != nil {
			return err
		}
		sh.mu.Lock()
		renderNote(sh.out, n, renderWidth)
		sh.mu.Unlock()

	default:
		return sh.execBlock(cmd, rest, args)
	}
	return nil
}

func (sh *shell) execBlock(cmd, rest string, args []string) error {
	n, err := resolveNote(sh.store, "")
	if err != nil {
		return err
	}
	ed, err := sh.store.Editor(n.ID)
	if err != nil {
		return err
	}
	block := func(i int) (core.Block, error) {
		if i >= len(args) {
			return core.Block{}, fmt.Errorf("usage: %s <block> ...", cmd)
		}
		return resolveBlock(n, args[i])
	}

	switch cmd {
	case "add":
		index := -1
		if len(args) > 0 {
			b, err := block(0)
			if err != nil {
				return err
			}
			index = ed.Index(b.ID)
		}
		b := ed.InsertAfter(index)
		sh.printf("block %d\n", ed.Index(b.ID)+1)
		return nil
	case "left", "right":
		b, err := block(0)
		if err != nil {
			return err
		}
		_, text, _ := strings.Cut(rest, " ")
		return ed.EditField(b.ID, core.Field(cmd), unescape(strings.TrimSpace(text)))
	case "width":
		b, err := block(0)
		if err != nil {
			return err
		}
		if len(args) < 2 {
			return errors.New("usage: width <block> <percent>")
		}
		pct, err := strconv.ParseFloat(strings.TrimSuffix(args[1], "%"), 64)
		if err != nil {
			return fmt.Errorf("invalid width %q", args[1])
		}
		return ed.SetWidth(b.ID, pct)
	case "up", "down":
		b, err := block(0)
		if err != nil {
			return err
		}
		return ed.MoveStep(b.ID, core.Direction(cmd))
	case "move":
		src, err := block(0)
		if err != nil {
			return err
		}
		dst, err := block(1)
		if err != nil {
			return err
		}
		return ed.Reorder(src.ID, dst.ID)
	case "del":
		b, err := block(0)
		if err != nil {
			return err
		}
		return ed.Delete(b.ID)
	}
	return fmt.Errorf("unknown command %q (try 'help')", cmd)
}

func init() {
	rootCmd.AddCommand(shellCmd)
	shellCmd.Flags().IntVar(&renderWidth, "width", 80, "Output width in columns")
}
