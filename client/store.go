package client

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stockroom-app/stockroom/model"
)

// State is the serialized form of the store, written to disk after
// every change so a restart resumes where the last session left off.
type State struct {
	Items []model.Item `json:"items"`
	Error string       `json:"error,omitempty"`
}

// Store keeps a local mirror of the server's inventory. Mutations go
// to the API first (except Add, which is applied optimistically after
// a successful create) and the mirror is updated from the response.
type Store struct {
	api          *Client
	snapshotPath string
	logger       *zap.Logger

	mu      sync.RWMutex
	items   []model.Item
	loading bool
	err     string
}

// NewStore creates a store backed by api. If snapshotPath is non-empty
// and the file exists, the previous session's items are restored.
func NewStore(api *Client, snapshotPath string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{api: api, snapshotPath: snapshotPath, logger: logger}
	s.restore()
	return s
}

func (s *Store) restore() {
	if s.snapshotPath == "" {
		return
	}
	data, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		return
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("discarding unreadable inventory snapshot",
			zap.String("path", s.snapshotPath), zap.Error(err))
		return
	}
	s.items = state.Items
	s.err = state.Error
}

// persistLocked writes the current state to the snapshot file.
// Callers must hold s.mu.
func (s *Store) persistLocked() {
	if s.snapshotPath == "" {
		return
	}
	data, err := json.Marshal(State{Items: s.items, Error: s.err})
	if err != nil {
		return
	}
	if err := os.WriteFile(s.snapshotPath, data, 0o644); err != nil {
		s.logger.Warn("failed to persist inventory snapshot",
			zap.String("path", s.snapshotPath), zap.Error(err))
	}
}

// Items returns a copy of the mirrored items.
func (s *Store) Items() []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Item, len(s.items))
	copy(out, s.items)
	return out
}

// Loading reports whether a fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the message of the last failed operation, or "".
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Refresh fetches the full inventory from the server and replaces the
// mirror. If a fetch is already in flight the call returns immediately
// without issuing a second request.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.mu.Unlock()

	items, err := s.api.FetchInventory(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = "Failed to fetch inventory items"
		s.persistLocked()
		return err
	}
	s.items = items
	s.err = ""
	s.persistLocked()
	return nil
}

// Add prepends an item to the mirror. The caller is responsible for
// having created it on the server first.
func (s *Store) Add(item model.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]model.Item, 0, len(s.items)+1)
	items = append(items, item)
	items = append(items, s.items...)
	s.items = items
	s.err = ""
	s.persistLocked()
}

// Update applies a partial update on the server, then merges the same
// fields into the mirrored copy. On failure the mirror's items are
// left untouched and only the error message is set.
func (s *Store) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	if err := s.api.Update(ctx, id, updates); err != nil {
		s.setError("Failed to update item")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]model.Item, len(s.items))
	copy(items, s.items)
	for i := range items {
		if items[i].ID == id {
			applyUpdates(&items[i], updates)
			break
		}
	}
	s.items = items
	s.err = ""
	s.persistLocked()
	return nil
}

// Delete removes the item on the server, then drops it from the
// mirror. On failure the mirror's items are left untouched.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.api.Delete(ctx, id); err != nil {
		s.setError("Failed to delete item")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]model.Item, 0, len(s.items))
	for _, it := range s.items {
		if it.ID != id {
			items = append(items, it)
		}
	}
	s.items = items
	s.err = ""
	s.persistLocked()
	return nil
}

func (s *Store) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = msg
	s.persistLocked()
}

func applyUpdates(item *model.Item, updates map[string]interface{}) {
	for k, v := range updates {
		switch k {
		case "description":
			if s, ok := v.(string); ok {
				item.Description = s
			}
		case "quantity":
			switch n := v.(type) {
			case int:
				item.Quantity = n
			case float64:
				item.Quantity = int(n)
			}
		case "price":
			switch n := v.(type) {
			case float64:
				item.Price = n
			case int:
				item.Price = float64(n)
			}
		case "image_url":
			if s, ok := v.(string); ok {
				item.ImageURL = s
			}
		}
	}
	item.UpdatedAt = time.Now()
}
