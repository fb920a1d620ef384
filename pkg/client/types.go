package client

import "time"

// Book is a book as the API returns it.
type Book struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// Query filters Search results. Empty fields match everything.
type Query struct {
	Title  string
	Author string
}

// Changes names the fields an Update sets. Nil fields keep their current value.
type Changes struct {
	Title  *string `json:"title,omitempty"`
	Author *string `json:"author,omitempty"`
}

// Empty reports whether no field is set.
func (c Changes) Empty() bool {
	return c.Title == nil && c.Author == nil
}

// EventType names a change on the feed.
type EventType string

const (
	BookCreated EventType = "book.created"
	BookUpdated EventType = "book.updated"
	BookDeleted EventType = "book.deleted"
)

// Event is one committed change received from the feed.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`
	Book Book      `json:"book"`
	At   time.Time `json:"at"`
}
