package activity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultLimit is how many requests are remembered per user.
const DefaultLimit = 3

var ErrUsernameRequired = errors.New("username is required")

// Entry is one request made on behalf of a user.
type Entry struct {
	ID     string    `json:"id"`
	Method string    `json:"method"`
	Route  string    `json:"route"`
	Status int       `json:"status"`
	At     time.Time `json:"at"`
}

// NewEntry stamps a request with a fresh id and the current time.
func NewEntry(method, route string, status int) Entry {
	return Entry{
		ID:     uuid.NewString(),
		Method: method,
		Route:  route,
		Status: status,
		At:     time.Now().UTC(),
	}
}

// Recorder keeps the most recent requests of each user, newest first.
type Recorder interface {
	Record(ctx context.Context, username string, e Entry) error
	Recent(ctx context.Context, username string) ([]Entry, error)
}
