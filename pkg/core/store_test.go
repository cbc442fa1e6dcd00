package core_test

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/wingnotes/internal/clocktest"
	"github.com/aretw0/wingnotes/pkg/adapters/memory"
	"github.com/aretw0/wingnotes/pkg/core"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// newTestStore loads a store over gw with a manual clock and predictable IDs.
func newTestStore(t *testing.T, gw core.Gateway, opts ...core.StoreOption) (*core.Store, *clocktest.Clock) {
	t.Helper()
	clock := clocktest.New(t0)
	opts = append([]core.StoreOption{
		core.WithClock(clock),
		core.WithIDGenerator(sequentialIDs("id-")),
	}, opts...)
	s := core.NewStore(gw, opts...)
	require.NoError(t, s.Load(context.Background()))
	return s, clock
}

// lastSnapshot decodes the most recent value written to gw.
func lastSnapshot(t *testing.T, gw *memory.Gateway) []core.Note {
	t.Helper()
	history := gw.History()
	require.NotEmpty(t, history, "nothing was written")
	notes, err := core.DecodeSnapshot(history[len(history)-1])
	require.NoError(t, err)
	return notes
}

func recv(t *testing.T, ch <-chan core.SaveStatus) core.SaveStatus {
	t.Helper()
	select {
	case st := <-ch:
		return st
	case <-time.After(time.Second):
		t.Fatal("no status transition")
		return core.SaveStatus{}
	}
}

func TestStore_FirstLoad(t *testing.T) {
	gw := memory.New()
	s, clock := newTestStore(t, gw)

	notes := s.Notes()
	require.Len(t, notes, 1)
	n := notes[0]
	assert.Equal(t, core.DefaultTitle, n.Title)
	assert.Equal(t, n.ID, s.CurrentID())
	assert.Equal(t, t0, n.CreatedAt)
	assert.Equal(t, t0, n.UpdatedAt)
	require.Len(t, n.Blocks, 1)
	assert.Equal(t, core.Block{ID: n.Blocks[0].ID, LeftWidth: 50}, n.Blocks[0])

	// The fresh notebook is persisted once the quiet period elapses.
	assert.Equal(t, core.StateSaving, s.Status().State)
	clock.Advance(999 * time.Millisecond)
	assert.Equal(t, 0, gw.Writes())
	clock.Advance(time.Millisecond)
	assert.Equal(t, 1, gw.Writes())

	st := s.Status()
	assert.Equal(t, core.StateSaved, st.State)
	assert.Equal(t, t0.Add(time.Second), st.LastSaved)
	assert.Equal(t, notes, lastSnapshot(t, gw))
}

func TestStore_LoadExisting(t *testing.T) {
	snapshot := `[
		{"id":"n1","title":"Parsing","blocks":[
			{"id":"b1","leftContent":"tokenize","rightContent":"lex()","leftWidth":120},
			{"id":"b2","leftContent":"","rightContent":""}
		],"createdAt":"2024-01-01T08:00:00.000Z","updatedAt":"2024-01-02T08:00:00.000Z"},
		{"id":"n2","title":"","blocks":[],"createdAt":"2024-01-03T08:00:00.000Z","updatedAt":"2024-01-03T08:00:00.000Z"}
	]`
	gw := memory.New(memory.WithValue(core.DefaultStorageKey, snapshot))
	s, clock := newTestStore(t, gw)

	notes := s.Notes()
	require.Len(t, notes, 2)
	assert.Equal(t, "n1", s.CurrentID())
	assert.Equal(t, 90.0, notes[0].Blocks[0].LeftWidth)
	assert.Equal(t, 50.0, notes[0].Blocks[1].LeftWidth)
	assert.Equal(t, time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC), notes[0].UpdatedAt.UTC())
	assert.Equal(t, core.DefaultTitle, notes[1].Title)
	assert.Empty(t, notes[1].Blocks)

	clock.Advance(time.Minute)
	assert.Equal(t, 0, gw.Writes(), "loading must not write")
	assert.Equal(t, core.StateSaved, s.Status().State)
}

func TestStore_LoadLegacy(t *testing.T) {
	legacy := `[{"id":"b1","leftContent":"old","rightContent":"code"},{"id":"b2","leftContent":"","rightContent":"more","leftWidth":30}]`
	gw := memory.New(memory.WithValue(core.DefaultStorageKey, legacy))
	s, _ := newTestStore(t, gw)

	notes := s.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, core.DefaultTitle, notes[0].Title)
	assert.NotEmpty(t, notes[0].ID)
	assert.Equal(t, []string{"b1", "b2"}, ids(notes[0].Blocks))
	assert.Equal(t, 50.0, notes[0].Blocks[0].LeftWidth)
	assert.Equal(t, 30.0, notes[0].Blocks[1].LeftWidth)
	assert.Equal(t, t0, notes[0].CreatedAt)
}

func TestStore_LoadCorrupt(t *testing.T) {
	gw := memory.New(memory.WithValue(core.DefaultStorageKey, "{not json"))
	s, clock := newTestStore(t, gw)

	require.Len(t, s.Notes(), 1)
	clock.Advance(time.Minute)
	assert.Equal(t, 0, gw.Writes(), "an unreadable snapshot is only replaced by the next edit")

	require.NoError(t, s.RenameNote(s.CurrentID(), "Recovered"))
	clock.Advance(time.Second)
	assert.Equal(t, "Recovered", lastSnapshot(t, gw)[0].Title)
}

func TestStore_DebounceCoalescesWrites(t *testing.T) {
	gw := memory.New()
	s, clock := newTestStore(t, gw)
	clock.Advance(time.Second)
	require.Equal(t, 1, gw.Writes())

	id := s.CurrentID()
	require.NoError(t, s.RenameNote(id, "a"))
	clock.Advance(200 * time.Millisecond)
	require.NoError(t, s.RenameNote(id, "ab"))
	clock.Advance(200 * time.Millisecond)
	require.NoError(t, s.RenameNote(id, "abc"))

	clock.Advance(999 * time.Millisecond)
	assert.Equal(t, 1, gw.Writes(), "no write before 1000ms of quiet")
	assert.Equal(t, core.StateSaving, s.Status().State)

	clock.Advance(time.Millisecond)
	assert.Equal(t, 2, gw.Writes())
	assert.Equal(t, "abc", lastSnapshot(t, gw)[0].Title)
	assert.Equal(t, core.StateSaved, s.Status().State)
}

func TestStore_WriteFailureAndRecovery(t *testing.T) {
	gw := memory.New()
	s, clock := newTestStore(t, gw)
	clock.Advance(time.Second)
	saved := s.Status()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	statuses := s.Watch(ctx)

	quota := errors.New("quota exceeded")
	gw.FailWith(quota)
	require.NoError(t, s.RenameNote(s.CurrentID(), "too big"))
	assert.Equal(t, core.StateSaving, recv(t, statuses).State)

	clock.Advance(time.Second)
	st := recv(t, statuses)
	assert.Equal(t, core.StateError, st.State)
	assert.Equal(t, saved.LastSaved, st.LastSaved, "a failed write keeps the last success time")
	var werr *core.WriteError
	require.ErrorAs(t, st.Err, &werr)
	assert.Equal(t, core.DefaultStorageKey, werr.Key)
	assert.ErrorIs(t, st.Err, quota)
	assert.Contains(t, st.String(), "quota exceeded")

	// The in-memory notebook keeps the edit.
	n, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "too big", n.Title)

	gw.FailWith(nil)
	require.NoError(t, s.RenameNote(s.CurrentID(), "fits"))
	assert.Equal(t, core.StateSaving, recv(t, statuses).State)
	clock.Advance(time.Second)
	st = recv(t, statuses)
	assert.Equal(t, core.StateSaved, st.State)
	assert.NoError(t, st.Err)
	assert.Equal(t, "fits", lastSnapshot(t, gw)[0].Title)
}

func TestStore_GatewayPanic(t *testing.T) {
	s, clock := newTestStore(t, panicGateway{})
	clock.Advance(time.Second)

	st := s.Status()
	assert.Equal(t, core.StateError, st.State)
	assert.ErrorContains(t, st.Err, "boom")
}

type panicGateway struct{}

func (panicGateway) Get(context.Context, string) (string, error) { return "", core.ErrKeyNotFound }
func (panicGateway) Set(context.Context, string, string) error  { panic("boom") }

func TestStore_DeleteNote(t *testing.T) {
	gw := memory.New()
	s, clock := newTestStore(t, gw)
	first := s.CurrentID()
	second := s.AddNote("second")
	third := s.AddNote("")
	assert.Equal(t, core.DefaultTitle, third.Title)
	assert.Equal(t, third.ID, s.CurrentID(), "a new note is selected")

	t.Run("CurrentFallsBackToFirst", func(t *testing.T) {
		require.NoError(t, s.DeleteNote(third.ID))
		assert.Equal(t, first, s.CurrentID())
	})

	t.Run("OtherKeepsSelection", func(t *testing.T) {
		require.NoError(t, s.SelectNote(second.ID))
		require.NoError(t, s.DeleteNote(first))
		assert.Equal(t, second.ID, s.CurrentID())
	})

	t.Run("Unknown", func(t *testing.T) {
		assert.ErrorIs(t, s.DeleteNote("missing"), core.ErrNoteNotFound)
		assert.Len(t, s.Notes(), 1)
	})

	t.Run("Last", func(t *testing.T) {
		require.NoError(t, s.DeleteNote(second.ID))
		assert.Empty(t, s.CurrentID())
		_, ok := s.Current()
		assert.False(t, ok)

		clock.Advance(time.Second)
		assert.Equal(t, "[]", gw.History()[len(gw.History())-1])
	})
}

func TestStore_SelectDoesNotPersist(t *testing.T) {
	gw := memory.New()
	s, clock := newTestStore(t, gw)
	s.AddNote("other")
	first := s.Notes()[0].ID
	clock.Advance(time.Second)
	writes := gw.Writes()

	require.NoError(t, s.SelectNote(first))
	assert.Equal(t, first, s.CurrentID())
	assert.ErrorIs(t, s.SelectNote("missing"), core.ErrNoteNotFound)
	assert.Equal(t, first, s.CurrentID())

	clock.Advance(time.Minute)
	assert.Equal(t, writes, gw.Writes())
	assert.Equal(t, core.StateSaved, s.Status().State)
}

func TestStore_UpdateNote(t *testing.T) {
	gw := memory.New()
	s, clock := newTestStore(t, gw)
	id := s.CurrentID()
	clock.Advance(5 * time.Second)

	title := "Renamed"
	blocks := []core.Block{{ID: "x", LeftContent: "l", RightContent: "r", LeftWidth: 3}}
	require.NoError(t, s.UpdateNote(id, core.NoteUpdate{Title: &title, Blocks: blocks}))
	blocks[0].LeftContent = "mutated by caller"

	n, err := s.Note(id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", n.Title)
	assert.Equal(t, []core.Block{{ID: "x", LeftContent: "l", RightContent: "r", LeftWidth: 10}}, n.Blocks)
	assert.Equal(t, t0, n.CreatedAt)
	assert.Equal(t, t0.Add(5*time.Second), n.UpdatedAt)

	require.NoError(t, s.UpdateNote(id, core.NoteUpdate{Blocks: []core.Block{}}))
	n, _ = s.Note(id)
	assert.Equal(t, "Renamed", n.Title)
	assert.Empty(t, n.Blocks)

	_, err = s.Note("missing")
	assert.ErrorIs(t, err, core.ErrNoteNotFound)
	assert.ErrorIs(t, s.UpdateNote("missing", core.NoteUpdate{Title: &title}), core.ErrNoteNotFound)
}

func TestStore_Editor(t *testing.T) {
	gw := memory.New()
	s, clock := newTestStore(t, gw)
	id := s.CurrentID()
	clock.Advance(time.Second)

	ed, err := s.Editor(id)
	require.NoError(t, err)
	first := ed.Blocks()[0].ID
	require.NoError(t, ed.EditField(first, core.FieldLeft, "why"))
	added := ed.InsertAfter(0)
	require.NoError(t, ed.EditField(added.ID, core.FieldRight, "how"))
	require.NoError(t, ed.SetWidth(added.ID, 70))
	require.NoError(t, ed.MoveStep(added.ID, core.Up))

	n, _ := s.Note(id)
	require.Len(t, n.Blocks, 2)
	assert.Equal(t, added.ID, n.Blocks[0].ID)
	assert.Equal(t, "how", n.Blocks[0].RightContent)
	assert.Equal(t, 70.0, n.Blocks[0].LeftWidth)
	assert.Equal(t, "why", n.Blocks[1].LeftContent)

	clock.Advance(time.Second)
	assert.Equal(t, 2, gw.Writes(), "a burst of edits is written once")

	_, err = s.Editor("missing")
	assert.ErrorIs(t, err, core.ErrNoteNotFound)
}

func TestStore_Flush(t *testing.T) {
	gw := memory.New()
	s, _ := newTestStore(t, gw)
	ctx := context.Background()

	require.NoError(t, s.Flush(ctx))
	assert.Equal(t, 1, gw.Writes(), "flush writes without waiting")
	require.NoError(t, s.Flush(ctx))
	assert.Equal(t, 1, gw.Writes(), "nothing pending")

	gw.FailWith(memory.ErrQuotaExceeded)
	s.AddNote("x")
	err := s.Flush(ctx)
	assert.ErrorIs(t, err, memory.ErrQuotaExceeded)
	var werr *core.WriteError
	assert.ErrorAs(t, err, &werr)
	assert.Equal(t, core.StateError, s.Status().State)
}

func TestStore_Close(t *testing.T) {
	gw := memory.New()
	s, clock := newTestStore(t, gw)
	statuses := s.Watch(context.Background())

	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 1, gw.Writes(), "close flushes")

	for range statuses {
	}

	s.AddNote("after close")
	clock.Advance(time.Minute)
	assert.Equal(t, 1, gw.Writes())

	_, open := <-s.Watch(context.Background())
	assert.False(t, open)
}

func TestStore_WatchUnsubscribe(t *testing.T) {
	s, _ := newTestStore(t, memory.New())
	ctx, cancel := context.WithCancel(context.Background())
	statuses := s.Watch(ctx)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-statuses:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestStore_ConcurrentMutations(t *testing.T) {
	gw := memory.New()
	s := core.NewStore(gw, core.WithDebounce(5*time.Millisecond))
	require.NoError(t, s.Load(context.Background()))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				n := s.AddNote("")
				_ = s.RenameNote(n.ID, "worker")
				if ed, err := s.Editor(n.ID); err == nil {
					ed.AppendBlock()
				}
				_ = s.Notes()
				_ = s.Status()
			}
		}()
	}
	wg.Wait()
	require.NoError(t, s.Close(context.Background()))

	notes := lastSnapshot(t, gw)
	assert.Len(t, notes, 1+8*20)
	assert.Equal(t, len(s.Notes()), len(notes))
}

// heldGateway holds the first write containing hold until release is closed.
type heldGateway struct {
	*memory.Gateway
	hold    string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newHeldGateway(hold string) *heldGateway {
	return &heldGateway{
		Gateway: memory.New(),
		hold:    hold,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *heldGateway) Set(ctx context.Context, key, value string) error {
	if strings.Contains(value, g.hold) {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}
	return g.Gateway.Set(ctx, key, value)
}

func TestStore_SlowWriteIsNotOverwrittenByStaleSnapshot(t *testing.T) {
	ctx := context.Background()
	gw := newHeldGateway(`"title":"old"`)
	s := core.NewStore(gw, core.WithDebounce(10*time.Millisecond))
	require.NoError(t, s.Load(ctx))
	require.NoError(t, s.Flush(ctx))
	id := s.CurrentID()

	require.NoError(t, s.RenameNote(id, "old"))
	select {
	case <-gw.entered:
	case <-time.After(time.Second):
		t.Fatal("first write never started")
	}

	// The second write becomes due while the first one is still held.
	require.NoError(t, s.RenameNote(id, "new"))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, core.StateSaving, s.Status().State)

	close(gw.release)
	require.NoError(t, s.Flush(ctx))

	notes := lastSnapshot(t, gw.Gateway)
	assert.Equal(t, "new", notes[0].Title)
	assert.Equal(t, core.StateSaved, s.Status().State)
}

func TestStore_CloseEndsWatchGoroutines(t *testing.T) {
	s, _ := newTestStore(t, memory.New())
	before := runtime.NumGoroutine()
	for range 10 {
		s.Watch(context.Background())
	}
	assert.GreaterOrEqual(t, runtime.NumGoroutine(), before+10)

	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()), "close is idempotent")
	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, time.Second, 5*time.Millisecond)
}
