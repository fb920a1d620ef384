package activity

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// MemoryRecorder keeps activity in process memory. The number of tracked users
// is bounded by an LRU so idle users are forgotten first.
type MemoryRecorder struct {
	mu    sync.Mutex
	users *lru.Cache
	limit int
}

// NewMemoryRecorder remembers limit entries for at most maxUsers users.
func NewMemoryRecorder(limit, maxUsers int) (*MemoryRecorder, error) {
	if limit < 1 {
		limit = DefaultLimit
	}
	cache, err := lru.New(maxUsers)
	if err != nil {
		return nil, fmt.Errorf("create activity cache: %w", err)
	}
	return &MemoryRecorder{users: cache, limit: limit}, nil
}

// Record prepends e to the user's history and trims it to the limit.
func (r *MemoryRecorder) Record(_ context.Context, username string, e Entry) error {
	if username == "" {
		return ErrUsernameRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var history []Entry
	if v, ok := r.users.Get(username); ok {
		history = v.([]Entry)
	}

	next := make([]Entry, 0, r.limit)
	next = append(next, e)
	for _, old := range history {
		if len(next) == r.limit {
			break
		}
		next = append(next, old)
	}
	r.users.Add(username, next)
	return nil
}

// Recent returns the user's history, newest first. Unknown users have none.
func (r *MemoryRecorder) Recent(_ context.Context, username string) ([]Entry, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.users.Get(username)
	if !ok {
		return []Entry{}, nil
	}
	return append([]Entry(nil), v.([]Entry)...), nil
}
