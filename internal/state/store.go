// Package state holds the process-wide chat store. The store exposes
// immutable snapshots and a single dispatch path through which every
// mutation flows.
package state

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/diogo/chatdeck/internal/chat"
)

// State is an immutable snapshot of the chat list. Readers must not modify
// the slices it holds; reducers build new ones.
type State struct {
	Chats      []chat.Chat
	Current    int
	Generating bool
}

// CurrentChat returns the current chat, if any.
func (s State) CurrentChat() (chat.Chat, bool) {
	if s.Current < 0 || s.Current >= len(s.Chats) {
		return chat.Chat{}, false
	}
	return s.Chats[s.Current], true
}

// normalize clamps an out-of-range current index to the first chat.
func (s State) normalize() State {
	if len(s.Chats) == 0 {
		s.Current = -1
		return s
	}
	if s.Current < 0 || s.Current >= len(s.Chats) {
		s.Current = 0
	}
	return s
}

// Backend persists snapshots. Save must be all-or-nothing: on error nothing
// of the candidate snapshot may be observable through Load.
type Backend interface {
	Load() (State, error)
	Save(State) error
}

// Listener is notified with the new snapshot after each successful change.
type Listener func(State)

// Store is the process-wide chat store.
type Store struct {
	backend Backend
	log     *slog.Logger

	// mu serializes writers and guards snap
	mu   sync.RWMutex
	snap State

	generating atomic.Bool

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int
}

// NewStore loads the initial snapshot from the backend.
func NewStore(backend Backend, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	initial, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load chats: %w", err)
	}
	return &Store{
		backend:   backend,
		log:       log,
		snap:      initial.normalize(),
		listeners: make(map[int]Listener),
	}, nil
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()
	snap.Generating = s.generating.Load()
	return snap
}

// Dispatch applies the reducers in order to the current snapshot, persists
// the result and, only if persisting succeeds, makes it the current
// snapshot. On any error the visible state is unchanged.
func (s *Store) Dispatch(reducers ...Reducer) error {
	s.mu.Lock()
	next := s.snap
	for _, r := range reducers {
		var err error
		next, err = r(next)
		if err != nil {
			s.mu.Unlock()
			return err
		}
	}
	next = next.normalize()
	next.Generating = false

	if err := s.backend.Save(next); err != nil {
		s.mu.Unlock()
		s.log.Warn("dispatch rejected by backend", "error", err)
		return fmt.Errorf("failed to save chats: %w", err)
	}
	s.snap = next
	s.mu.Unlock()

	s.notify()
	return nil
}

// Replace swaps in a whole snapshot through the dispatch path.
func (s *Store) Replace(snap State) error {
	return s.Dispatch(func(State) (State, error) { return snap, nil })
}

// EnsureChat creates a chat when the store is empty.
func (s *Store) EnsureChat(newChat func() chat.Chat) error {
	if len(s.Snapshot().Chats) > 0 {
		return nil
	}
	return s.Dispatch(NewChat(newChat()))
}

// Generating reports whether a response is being generated.
func (s *Store) Generating() bool {
	return s.generating.Load()
}

// TryStartGenerating sets the generating flag, returning false if it was
// already set.
func (s *Store) TryStartGenerating() bool {
	if !s.generating.CompareAndSwap(false, true) {
		return false
	}
	s.notify()
	return true
}

// StopGenerating clears the generating flag.
func (s *Store) StopGenerating() {
	if s.generating.Swap(false) {
		s.notify()
	}
}

// Subscribe registers a listener and returns a function removing it.
func (s *Store) Subscribe(fn Listener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *Store) notify() {
	snap := s.Snapshot()
	s.listenersMu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
