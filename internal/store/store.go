package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nhle/stickylist/internal/apperror"
)

// ChecklistsKey is the mirror key of the checklist collection.
const ChecklistsKey = "checklists"

// TasksKey returns the mirror key of one checklist's task collection.
func TasksKey(checklistID string) string {
	return "tasks_" + checklistID
}

// Entry describes one stored snapshot without its payload.
type Entry struct {
	Key       string    `db:"key"`
	ItemCount int       `db:"item_count"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Mirror is the durable key-value cache holding the last known snapshot of
// each collection. Every failure is reported as an apperror.ErrStorage.
type Mirror interface {
	// Read returns the payload stored under key. ok is false when the key
	// is absent.
	Read(ctx context.Context, key string) (payload []byte, ok bool, err error)

	// Write replaces the payload stored under key. itemCount is kept as
	// metadata for listings.
	Write(ctx context.Context, key string, payload []byte, itemCount int) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Entries lists stored keys ordered by key.
	Entries(ctx context.Context) ([]Entry, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error
}

// ReadSnapshot decodes the collection stored under key.
func ReadSnapshot[T any](ctx context.Context, m Mirror, key string) ([]T, bool, error) {
	payload, ok, err := m.Read(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}

	var items []T
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, false, apperror.Storage("decoding mirror "+key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, true, nil
}

// WriteSnapshot encodes items and stores them under key. A nil slice is
// stored as an empty collection.
func WriteSnapshot[T any](ctx context.Context, m Mirror, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return apperror.Storage("encoding mirror "+key, fmt.Errorf("marshaling %d items: %w", len(items), err))
	}
	return m.Write(ctx, key, payload, len(items))
}
