package client

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Snapshot is an immutable copy of the store state handed to subscribers.
type Snapshot struct {
	Activities     map[string]Activity
	Selected       *Activity
	EditMode       bool
	Loading        bool
	LoadingInitial bool
	// LastError is the error of the most recent failed operation, cleared by
	// the next successful one. Operations also return their error directly.
	LastError error
}

// Store is the client-side activity cache.
//
// The network call is the only point where an operation waits, and no lock is
// held across it: several operations may be in flight at once and, for the
// same id, the one that resolves last wins. Loading is a single flag, so the
// first operation to finish clears it.
type Store struct {
	api   API
	log   *slog.Logger
	newID func() string

	mu             sync.Mutex
	registry       map[string]Activity
	selectedID     string
	editMode       bool
	loading        bool
	loadingInitial bool
	lastErr        error

	subsMu  sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

type Option func(*Store)

// WithLogger sets the logger failed operations are reported to.
func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.log = l } }

// WithIDGenerator replaces uuid.NewString. Version 4 UUIDs make collisions
// between clients negligible.
func WithIDGenerator(fn func() string) Option { return func(s *Store) { s.newID = fn } }

func NewStore(api API, opts ...Option) *Store {
	s := &Store{
		api:            api,
		log:            slog.Default(),
		newID:          uuid.NewString,
		registry:       make(map[string]Activity),
		loadingInitial: true,
		subs:           make(map[int]func(Snapshot)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Subscribe registers fn to receive a snapshot after every state change. fn
// runs on the goroutine that made the change and may call back into the store.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) update(fn func()) {
	s.mu.Lock()
	fn()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.subsMu.Lock()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, id := range slices.Sorted(maps.Keys(s.subs)) {
		subs = append(subs, s.subs[id])
	}
	s.subsMu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Activities:     maps.Clone(s.registry),
		EditMode:       s.editMode,
		Loading:        s.loading,
		LoadingInitial: s.loadingInitial,
		LastError:      s.lastErr,
	}
	if a, ok := s.registry[s.selectedID]; ok {
		snap.Selected = &a
	}
	return snap
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get returns the cached activity for id.
func (s *Store) Get(id string) (Activity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.registry[id]
	return a, ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.registry)
}

// Selected resolves the selection against the cache; a selection whose entry
// is gone reads as none.
func (s *Store) Selected() (Activity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.registry[s.selectedID]
	return a, ok
}

// ByDate returns every cached activity in ascending date order, ties broken
// by id. It is recomputed on each call.
func (s *Store) ByDate() []Activity {
	s.mu.Lock()
	out := slices.Collect(maps.Values(s.registry))
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b Activity) int {
		if c := parseDate(a.Date).Compare(parseDate(b.Date)); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}

// Load fills the cache from the server. LoadingInitial is cleared whatever
// the outcome; on failure the cache is left as it was.
func (s *Store) Load(ctx context.Context) error {
	activities, err := s.api.List(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "load activities failed", "err", err)
		s.update(func() {
			s.loadingInitial = false
			s.lastErr = err
		})
		return fmt.Errorf("load activities: %w", err)
	}

	s.update(func() {
		for _, a := range activities {
			a.Date = DateOnly(a.Date)
			s.registry[a.ID] = a
		}
		s.loadingInitial = false
		s.lastErr = nil
	})
	return nil
}

// Create assigns a fresh id to a, sends it and, once the server accepts it,
// caches and selects it. The returned activity carries the assigned id even
// when the call fails.
func (s *Store) Create(ctx context.Context, a Activity) (Activity, error) {
	a.ID = s.newID()
	s.update(func() { s.loading = true })

	if err := s.api.Create(ctx, a); err != nil {
		s.log.ErrorContext(ctx, "create activity failed", "id", a.ID, "err", err)
		s.update(func() {
			s.loading = false
			s.lastErr = err
		})
		return a, fmt.Errorf("create activity %s: %w", a.ID, err)
	}

	a.Date = DateOnly(a.Date)
	s.update(func() {
		s.registry[a.ID] = a
		s.selectLocked(a.ID)
		s.loading = false
		s.lastErr = nil
	})
	return a, nil
}

// Update sends a and, on success, overwrites and selects the cached entry.
// EditMode is held while the call is in flight.
func (s *Store) Update(ctx context.Context, a Activity) error {
	s.update(func() {
		s.loading = true
		s.editMode = true
	})

	if err := s.api.Update(ctx, a); err != nil {
		s.log.ErrorContext(ctx, "update activity failed", "id", a.ID, "err", err)
		s.update(func() {
			s.loading = false
			s.editMode = false
			s.lastErr = err
		})
		return fmt.Errorf("update activity %s: %w", a.ID, err)
	}

	a.Date = DateOnly(a.Date)
	s.update(func() {
		s.registry[a.ID] = a
		s.selectLocked(a.ID)
		s.loading = false
		s.editMode = false
		s.lastErr = nil
	})
	return nil
}

// Delete removes id on the server and then from the cache, clearing the
// selection if it pointed at id.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.update(func() { s.loading = true })

	if err := s.api.Delete(ctx, id); err != nil {
		s.log.ErrorContext(ctx, "delete activity failed", "id", id, "err", err)
		s.update(func() {
			s.loading = false
			s.lastErr = err
		})
		return fmt.Errorf("delete activity %s: %w", id, err)
	}

	s.update(func() {
		delete(s.registry, id)
		if s.selectedID == id {
			s.selectedID = ""
		}
		s.loading = false
		s.lastErr = nil
	})
	return nil
}

// Select points the selection at id, or at nothing when id is not cached,
// and leaves edit mode.
func (s *Store) Select(id string) {
	s.update(func() { s.selectLocked(id) })
}

func (s *Store) selectLocked(id string) {
	if _, ok := s.registry[id]; ok {
		s.selectedID = id
	} else {
		s.selectedID = ""
	}
	s.editMode = false
}

// OpenForm enters edit mode, selecting id when given and clearing the
// selection otherwise.
func (s *Store) OpenForm(id ...string) {
	s.update(func() {
		if len(id) > 0 && id[0] != "" {
			s.selectLocked(id[0])
		} else {
			s.selectedID = ""
		}
		s.editMode = true
	})
}

func (s *Store) CloseForm() {
	s.update(func() { s.editMode = false })
}

func (s *Store) ClearSelection() {
	s.update(func() { s.selectedID = "" })
}
