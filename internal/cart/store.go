package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// Store persists cart rows per session id.
type Store interface {
	Load(ctx context.Context, sessionID string) ([]Item, error)
	Save(ctx context.Context, sessionID string, items []Item) error
	Delete(ctx context.Context, sessionID string) error
}

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ErrBadSessionID is returned for ids that are not safe file names.
var ErrBadSessionID = errors.New("invalid cart session id")

// FileStore keeps one JSON file per session in Dir.
type FileStore struct {
	Dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cart dir: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

func (fs *FileStore) path(id string) (string, error) {
	if !sessionIDPattern.MatchString(id) {
		return "", ErrBadSessionID
	}
	return filepath.Join(fs.Dir, id+".json"), nil
}

func (fs *FileStore) Load(_ context.Context, id string) ([]Item, error) {
	p, err := fs.path(id)
	if err != nil {
		return nil, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return items, nil
}

func (fs *FileStore) Save(_ context.Context, id string, items []Item) error {
	p, err := fs.path(id)
	if err != nil {
		return err
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cart: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("failed to replace cart: %w", err)
	}
	return nil
}

func (fs *FileStore) Delete(_ context.Context, id string) error {
	p, err := fs.path(id)
	if err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

// MemoryStore keeps carts in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string][]Item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string][]Item)}
}

func (ms *MemoryStore) Load(_ context.Context, id string) ([]Item, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	items := ms.carts[id]
	out := make([]Item, len(items))
	copy(out, items)
	return out, nil
}

func (ms *MemoryStore) Save(_ context.Context, id string, items []Item) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	cp := make([]Item, len(items))
	copy(cp, items)
	ms.carts[id] = cp
	return nil
}

func (ms *MemoryStore) Delete(_ context.Context, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.carts, id)
	return nil
}
