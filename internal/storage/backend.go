// Package storage persists the chat list and provides lookup and export
// helpers on top of it.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/diogo/chatdeck/internal/chat"
	apperrors "github.com/diogo/chatdeck/internal/errors"
	"github.com/diogo/chatdeck/internal/state"
)

// DefaultQuota matches the usual browser local storage budget.
const DefaultQuota int64 = 5 << 20

// ChatsFile is the name of the chat list document in the data directory.
const ChatsFile = "chats.json"

// document is the on-disk shape of the chat list.
type document struct {
	Version int         `json:"version"`
	Current int         `json:"current"`
	Chats   []chat.Chat `json:"chats"`
}

const documentVersion = 1

func encode(s state.State, quota int64) ([]byte, error) {
	chats := s.Chats
	if chats == nil {
		chats = []chat.Chat{}
	}
	data, err := json.Marshal(document{Version: documentVersion, Current: s.Current, Chats: chats})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chats: %w", err)
	}
	if quota > 0 && int64(len(data)) > quota {
		return nil, apperrors.NewCapacityError(int64(len(data)), quota)
	}
	return data, nil
}

func decode(data []byte) (state.State, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return state.State{}, fmt.Errorf("failed to parse chats: %w", err)
	}
	return state.State{Chats: doc.Chats, Current: doc.Current}, nil
}

// FileBackend stores the chat list as a single JSON document. A snapshot
// whose encoding exceeds the quota is rejected with a CapacityError and the
// file is left untouched.
type FileBackend struct {
	path  string
	quota int64
	log   *slog.Logger
	mu    sync.Mutex
}

// NewFileBackend creates a backend writing chats.json under dir. A quota of
// zero or less disables the size check.
func NewFileBackend(dir string, quota int64, log *slog.Logger) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &FileBackend{
		path:  filepath.Join(dir, ChatsFile),
		quota: quota,
		log:   log,
	}, nil
}

// Path returns the location of the chat list document.
func (b *FileBackend) Path() string {
	return b.path
}

// Load reads the chat list. A missing file is an empty list.
func (b *FileBackend) Load() (state.State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return state.State{Current: -1}, nil
		}
		return state.State{}, fmt.Errorf("failed to read chats: %w", err)
	}
	s, err := decode(data)
	if err != nil {
		return state.State{}, err
	}
	b.log.Debug("chats loaded", "path", b.path, "chats", len(s.Chats), "bytes", len(data))
	return s, nil
}

// Save writes the snapshot atomically.
func (b *FileBackend) Save(s state.State) error {
	data, err := encode(s, b.quota)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := writeFileAtomic(b.path, data, 0o600); err != nil {
		return err
	}
	b.log.Debug("chats saved", "chats", len(s.Chats), "bytes", len(data))
	return nil
}

// MemoryBackend keeps the encoded chat list in memory. It applies the same
// quota rule as FileBackend.
type MemoryBackend struct {
	quota int64
	mu    sync.Mutex
	data  []byte
	saves int
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend(quota int64) *MemoryBackend {
	return &MemoryBackend{quota: quota}
}

// Load decodes the last saved snapshot.
func (b *MemoryBackend) Load() (state.State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return state.State{Current: -1}, nil
	}
	return decode(b.data)
}

// Save encodes and keeps the snapshot.
func (b *MemoryBackend) Save(s state.State) error {
	data, err := encode(s, b.quota)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.data = data
	b.saves++
	b.mu.Unlock()
	return nil
}

// SetQuota changes the byte limit for later saves.
func (b *MemoryBackend) SetQuota(quota int64) {
	b.mu.Lock()
	b.quota = quota
	b.mu.Unlock()
}

// Saves returns the number of successful saves.
func (b *MemoryBackend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

// Size returns the encoded size of the last saved snapshot.
func (b *MemoryBackend) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}
