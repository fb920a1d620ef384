package book

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var (
	ErrNotFound    = errors.New("book not found")
	ErrInvalidBook = errors.New("invalid book")
)

// Store exposes the book collection to services.
type Store interface {
	List(ctx context.Context) []Book
	Search(ctx context.Context, q Query) []Book
	Get(ctx context.Context, id int) (Book, error)
	Create(ctx context.Context, title, author string) (Book, error)
	Update(ctx context.Context, id int, in Input) (Book, error)
	Delete(ctx context.Context, id int) error
	Len() int
}

// MemoryStore implements Store with an insertion-ordered slice guarded by a RWMutex.
// Mutations take the write lock so id allocation stays unique under concurrent requests.
type MemoryStore struct {
	mu     sync.RWMutex
	items  []Book
	nextID int
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied books.
// The id counter starts after the highest preloaded id.
func NewMemoryStore(items []Book) *MemoryStore {
	s := &MemoryStore{items: append([]Book(nil), items...), nextID: 1}
	for _, item := range s.items {
		if item.ID >= s.nextID {
			s.nextID = item.ID + 1
		}
	}
	return s
}

// List returns every book in insertion order.
func (s *MemoryStore) List(_ context.Context) []Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Book{}, s.items...)
}

// Search returns the books matching q, preserving insertion order.
func (s *MemoryStore) Search(_ context.Context, q Query) []Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Book, 0, len(s.items))
	for _, item := range s.items {
		if q.Matches(item) {
			out = append(out, item)
		}
	}
	return out
}

// Get looks up a book by id.
func (s *MemoryStore) Get(_ context.Context, id int) (Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.items[i], nil
	}
	return Book{}, ErrNotFound
}

// Create appends a new book with the next free id.
func (s *MemoryStore) Create(_ context.Context, title, author string) (Book, error) {
	if blank(title) || blank(author) {
		return Book{}, ErrInvalidBook
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := Book{ID: s.nextID, Title: title, Author: author}
	s.nextID++
	s.items = append(s.items, b)
	return b, nil
}

// Update applies the supplied fields of in to the book with the given id.
func (s *MemoryStore) Update(_ context.Context, id int, in Input) (Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Book{}, ErrNotFound
	}
	if in.Empty() || (in.Title != nil && blank(*in.Title)) || (in.Author != nil && blank(*in.Author)) {
		return Book{}, ErrInvalidBook
	}

	if in.Title != nil {
		s.items[i].Title = *in.Title
	}
	if in.Author != nil {
		s.items[i].Author = *in.Author
	}
	return s.items[i], nil
}

// Delete removes the book with the given id.
func (s *MemoryStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

// Len reports how many books are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// indexOf must be called with s.mu held.
func (s *MemoryStore) indexOf(id int) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func blank(v string) bool {
	return strings.TrimSpace(v) == ""
}
