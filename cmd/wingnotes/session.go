package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aretw0/wingnotes"
	"github.com/aretw0/wingnotes/pkg/adapters/fs"
	"github.com/aretw0/wingnotes/pkg/core"
)

const currentFile = "current"

// session is one CLI invocation working on a store.
type session struct {
	dir     string
	gateway core.Gateway
	store   *core.Store
	logger  *slog.Logger
}

// resolveDir picks the data directory: --dir, else the nearest root, else cwd.
func resolveDir() (string, error) {
	if dataDir != "" {
		return dataDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if root, err := wingnotes.FindRoot(cwd); err == nil {
		return root, nil
	}
	return cwd, nil
}

// sessionOptions merges the config file with command-line flags.
func sessionOptions(dir string, logger *slog.Logger) ([]wingnotes.Option, error) {
	path := configPath
	if path == "" {
		path = filepath.Join(dir, wingnotes.ConfigFileName)
	}
	cfg, err := wingnotes.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	opts := []wingnotes.Option{wingnotes.WithLogger(logger)}
	opts = append(opts, cfg.Options()...)
	if adapter != "" {
		opts = append(opts, wingnotes.WithAdapter(adapter))
	}
	if debounce > 0 {
		opts = append(opts, wingnotes.WithDebounce(debounce))
	}
	return opts, nil
}

func openSession(ctx context.Context, extra ...wingnotes.Option) (*session, error) {
	dir, err := resolveDir()
	if err != nil {
		return nil, err
	}
	logger := slog.Default()
	opts, err := sessionOptions(dir, logger)
	if err != nil {
		return nil, err
	}
	opts = append(opts, extra...)

	gw, err := wingnotes.Init(ctx, dir, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	store, err := wingnotes.Open(ctx, dir, append(opts, wingnotes.WithGateway(gw))...)
	if err != nil {
		return nil, err
	}

	s := &session{dir: dir, gateway: gw, store: store, logger: logger}
	s.restoreSelection()
	return s, nil
}

// close saves the selection and flushes pending changes.
func (s *session) close(ctx context.Context) error {
	s.saveSelection()
	if err := s.store.Close(ctx); err != nil {
		return fmt.Errorf("failed to save notebook: %w", err)
	}
	return nil
}

// selectionPath is where the CLI remembers the current note between runs.
// Only the fs adapter has one.
func (s *session) selectionPath() string {
	gw, ok := s.gateway.(*fs.Gateway)
	if !ok {
		return ""
	}
	state, _ := gw.State().(fs.GatewayState)
	return filepath.Join(gw.Path, state.SystemDir, currentFile)
}

func (s *session) restoreSelection() {
	path := s.selectionPath()
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	id := strings.TrimSpace(string(data))
	if err := s.store.SelectNote(id); err != nil {
		s.logger.Debug("stale selection ignored", "id", id)
	}
}

func (s *session) saveSelection() {
	path := s.selectionPath()
	if path == "" {
		return
	}
	if state, ok := s.gateway.(*fs.Gateway).State().(fs.GatewayState); ok && state.ReadOnly {
		return
	}
	if err := os.WriteFile(path, []byte(s.store.CurrentID()+"\n"), 0644); err != nil {
		s.logger.Warn("failed to remember selection", "error", err)
	}
}

// withSession opens a session, runs fn and always flushes afterwards.
func withSession(ctx context.Context, fn func(s *session) error) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	runErr := fn(s)
	closeErr := s.close(ctx)
	return errors.Join(runErr, closeErr)
}

// resolveNote accepts a full ID, a unique ID prefix, or a 1-based position.
// An empty ref means the current note.
func resolveNote(store *core.Store, ref string) (core.Note, error) {
	if ref == "" {
		n, ok := store.Current()
		if !ok {
			return core.Note{}, errors.New("no note selected")
		}
		return n, nil
	}
	notes := store.Notes()
	ids := make([]string, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}
	i, err := resolveRef(ids, ref)
	if err != nil {
		return core.Note{}, fmt.Errorf("note %q: %w", ref, err)
	}
	return notes[i], nil
}

// resolveBlock resolves ref among the blocks of a note like resolveNote.
func resolveBlock(n core.Note, ref string) (core.Block, error) {
	ids := make([]string, len(n.Blocks))
	for i, b := range n.Blocks {
		ids[i] = b.ID
	}
	i, err := resolveRef(ids, ref)
	if err != nil {
		return core.Block{}, fmt.Errorf("block %q: %w", ref, err)
	}
	return n.Blocks[i], nil
}

var errAmbiguous = errors.New("ambiguous reference")

func resolveRef(ids []string, ref string) (int, error) {
	for i, id := range ids {
		if id == ref {
			return i, nil
		}
	}
	if pos, err := strconv.Atoi(ref); err == nil && pos >= 1 && pos <= len(ids) {
		return pos - 1, nil
	}
	found := -1
	for i, id := range ids {
		if strings.HasPrefix(id, ref) {
			if found >= 0 {
				return -1, errAmbiguous
			}
			found = i
		}
	}
	if found < 0 {
		return -1, errors.New("not found")
	}
	return found, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
