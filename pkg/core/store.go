package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store owns the notebook and the current-note selection, and persists the
// notebook through a Gateway with debounced writes.
type Store struct {
	mu      sync.RWMutex
	gateway Gateway
	opts    storeOptions

	notes   []Note
	current string
	status  SaveStatus

	saver *Debouncer
	subs  map[int]chan SaveStatus
	subID int
	// flushErr holds the outcome of the last write performed by persist,
	// read back by Flush.
	flushErr error
	closed   bool
	done     chan struct{}
}

type storeOptions struct {
	logger       *slog.Logger
	clock        Clock
	newID        func() string
	debounce     time.Duration
	key          string
	defaultTitle string
	statusBuffer int
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

// WithLogger sets the logger of the store.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(o *storeOptions) { o.logger = logger }
}

// WithClock replaces the time source (useful for testing).
func WithClock(c Clock) StoreOption {
	return func(o *storeOptions) { o.clock = c }
}

// WithIDGenerator sets the generator of note and block IDs.
func WithIDGenerator(fn func() string) StoreOption {
	return func(o *storeOptions) { o.newID = fn }
}

// WithDebounce sets the quiet period before a snapshot is written.
func WithDebounce(d time.Duration) StoreOption {
	return func(o *storeOptions) { o.debounce = d }
}

// WithStorageKey sets the gateway key of the snapshot.
func WithStorageKey(key string) StoreOption {
	return func(o *storeOptions) { o.key = key }
}

// WithDefaultTitle sets the title given to untitled notes.
func WithDefaultTitle(title string) StoreOption {
	return func(o *storeOptions) { o.defaultTitle = title }
}

// WithStatusBuffer sets the channel buffer of each Watch subscription.
// Zero means default (16).
func WithStatusBuffer(size int) StoreOption {
	return func(o *storeOptions) { o.statusBuffer = size }
}

// NewStore creates an empty Store. Call Load to read the persisted notebook.
func NewStore(gateway Gateway, opts ...StoreOption) *Store {
	o := storeOptions{
		clock:        SystemClock{},
		newID:        uuid.NewString,
		debounce:     DefaultDebounce,
		key:          DefaultStorageKey,
		defaultTitle: DefaultTitle,
		statusBuffer: 16,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.statusBuffer <= 0 {
		o.statusBuffer = 16
	}

	s := &Store{
		gateway: gateway,
		opts:    o,
		status:  SaveStatus{State: StateSaved},
		subs:    make(map[int]chan SaveStatus),
		done:    make(chan struct{}),
	}
	s.saver = NewDebouncer(o.clock, o.debounce, s.persist)
	return s
}

// Load reads the persisted notebook and selects its first note.
//
// When nothing usable is stored, the notebook is reset to a single note
// holding one empty block. A snapshot that fails to decode is logged and
// treated as absent, but is not overwritten until the next mutation.
func (s *Store) Load(ctx context.Context) error {
	notes, readErr := s.read(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(notes) > 0 {
		s.notes = s.normalize(notes)
		s.current = s.notes[0].ID
		s.opts.logger.Debug("notebook loaded", "notes", len(s.notes), "key", s.opts.key)
		return nil
	}

	n := s.freshNote(s.opts.defaultTitle)
	s.notes = []Note{n}
	s.current = n.ID

	if readErr != nil {
		s.opts.logger.Warn("discarding unreadable snapshot", "error", readErr)
		return nil
	}
	s.opts.logger.Debug("starting with a fresh notebook", "key", s.opts.key)
	s.touchLocked()
	return nil
}

func (s *Store) read(ctx context.Context) ([]Note, error) {
	data, err := s.gateway.Get(ctx, s.opts.key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, nil
		}
		return nil, &ReadError{Key: s.opts.key, Err: err}
	}
	notes, err := DecodeSnapshot(data)
	if err != nil {
		return nil, &ReadError{Key: s.opts.key, Err: err}
	}
	return notes, nil
}

// normalize fills in what older or hand-edited snapshots may lack.
func (s *Store) normalize(notes []Note) []Note {
	now := s.opts.clock.Now()
	for i := range notes {
		n := &notes[i]
		if n.ID == "" {
			n.ID = s.opts.newID()
		}
		if n.Title == "" {
			n.Title = s.opts.defaultTitle
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		if n.UpdatedAt.IsZero() {
			n.UpdatedAt = n.CreatedAt
		}
		if n.Blocks == nil {
			n.Blocks = []Block{}
		}
		for j := range n.Blocks {
			if n.Blocks[j].ID == "" {
				n.Blocks[j].ID = s.opts.newID()
			}
			n.Blocks[j].LeftWidth = ClampWidth(n.Blocks[j].LeftWidth)
		}
	}
	return notes
}

func (s *Store) freshNote(title string) Note {
	now := s.opts.clock.Now()
	return Note{
		ID:        s.opts.newID(),
		Title:     title,
		Blocks:    []Block{newBlock(s.opts.newID())},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddNote appends a new note holding one empty block and selects it.
func (s *Store) AddNote(title string) Note {
	if title == "" {
		title = s.opts.defaultTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.freshNote(title)
	s.notes = append(s.notes, n)
	s.current = n.ID
	s.opts.logger.Debug("note added", "id", n.ID)
	s.touchLocked()
	return n.Clone()
}

// UpdateNote merges u into the note and refreshes its UpdatedAt.
func (s *Store) UpdateNote(id string, u NoteUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	n := &s.notes[i]
	if u.Title != nil {
		n.Title = *u.Title
	}
	if u.Blocks != nil {
		blocks := cloneBlocks(u.Blocks)
		for j := range blocks {
			blocks[j].LeftWidth = ClampWidth(blocks[j].LeftWidth)
		}
		n.Blocks = blocks
	}
	n.UpdatedAt = s.opts.clock.Now()
	s.touchLocked()
	return nil
}

// RenameNote sets the title of a note.
func (s *Store) RenameNote(id, title string) error {
	return s.UpdateNote(id, NoteUpdate{Title: &title})
}

// DeleteNote removes a note. Deleting the current note selects the first
// remaining one, or nothing once the notebook is empty.
func (s *Store) DeleteNote(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	s.notes = append(s.notes[:i:i], s.notes[i+1:]...)
	if s.current == id {
		s.current = ""
		if len(s.notes) > 0 {
			s.current = s.notes[0].ID
		}
	}
	s.opts.logger.Debug("note deleted", "id", id, "current", s.current)
	s.touchLocked()
	return nil
}

// SelectNote makes id the current note.
func (s *Store) SelectNote(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	s.current = id
	return nil
}

// Notes returns a copy of the notebook in display order.
func (s *Store) Notes() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneNotes(s.notes)
}

// Note returns a copy of the note with the given ID.
func (s *Store) Note(id string) (Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Note{}, fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	return s.notes[i].Clone(), nil
}

// CurrentID returns the selected note ID, or "" when the notebook is empty.
func (s *Store) CurrentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Current returns the selected note. ok is false when nothing is selected.
func (s *Store) Current() (n Note, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(s.current)
	if i < 0 {
		return Note{}, false
	}
	return s.notes[i].Clone(), true
}

// Editor returns a BlockList over the blocks of a note. Every change made
// through it is folded back into the store with UpdateNote.
func (s *Store) Editor(noteID string) (*BlockList, error) {
	n, err := s.Note(noteID)
	if err != nil {
		return nil, err
	}
	onChange := func(blocks []Block) {
		if err := s.UpdateNote(noteID, NoteUpdate{Blocks: blocks}); err != nil {
			s.opts.logger.Warn("dropping block change", "note", noteID, "error", err)
		}
	}
	return NewBlockList(n.Blocks, onChange, WithBlockIDs(s.opts.newID)), nil
}

// Status returns the current save status.
func (s *Store) Status() SaveStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Watch subscribes to save-status transitions until ctx is done.
// A subscriber that falls behind misses transitions rather than stalling
// mutations.
func (s *Store) Watch(ctx context.Context) <-chan SaveStatus {
	ch := make(chan SaveStatus, s.opts.statusBuffer)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	id := s.subID
	s.subID++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}()
	return ch
}

// Flush writes the pending snapshot immediately, if there is one, and
// returns the outcome of that write.
func (s *Store) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.saver.Flush() {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flushErr
}

// Close flushes pending changes and ends all Watch subscriptions.
func (s *Store) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.saver.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	return err
}

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.notes {
		if s.notes[i].ID == id {
			return i
		}
	}
	return -1
}

// touchLocked marks the notebook dirty: status goes to saving and a write
// is (re)scheduled.
func (s *Store) touchLocked() {
	if s.closed {
		return
	}
	s.setStatusLocked(SaveStatus{State: StateSaving, LastSaved: s.status.LastSaved})
	s.saver.Trigger()
}

func (s *Store) setStatusLocked(st SaveStatus) {
	s.status = st
	for _, ch := range s.subs {
		select {
		case ch <- st:
		default:
			s.opts.logger.Debug("status subscriber lagging, dropping transition", "state", st.State)
		}
	}
}

// persist is the debounced write. It encodes under the lock and writes
// outside of it so that mutations are never blocked on the gateway.
func (s *Store) persist() {
	s.mu.RLock()
	data, encErr := EncodeSnapshot(s.notes)
	s.mu.RUnlock()

	var err error
	if encErr != nil {
		err = encErr
	} else {
		err = s.write(data)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		werr := &WriteError{Key: s.opts.key, Err: err}
		s.flushErr = werr
		s.opts.logger.Error("failed to save notebook", "error", err)
		if !s.saver.Pending() {
			s.setStatusLocked(SaveStatus{State: StateError, LastSaved: s.status.LastSaved, Err: werr})
		}
		return
	}

	s.flushErr = nil
	s.opts.logger.Debug("notebook saved", "key", s.opts.key, "bytes", len(data))
	st := SaveStatus{State: StateSaved, LastSaved: s.opts.clock.Now()}
	if s.saver.Pending() {
		// A newer mutation is waiting for its own write.
		st.State = StateSaving
		s.status = st
		return
	}
	s.setStatusLocked(st)
}

func (s *Store) write(data string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gateway panic: %v", r)
		}
	}()
	return s.gateway.Set(context.Background(), s.opts.key, data)
}
