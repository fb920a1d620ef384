package library

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/zhouzirui/bookshelf/backend/internal/model/book"
	"github.com/zhouzirui/bookshelf/backend/internal/service/feed"
)

// Publisher receives committed changes.
type Publisher interface {
	Publish(ev feed.Event)
}

// Service owns the book collection for the lifetime of the process and
// announces every committed mutation to the change feed. Events are
// published in commit order.
type Service struct {
	// mu spans each mutation and its publish.
	mu    sync.Mutex
	store book.Store
	feed  Publisher
	log   *zap.Logger
}

// NewService wires the store to an optional publisher.
func NewService(store book.Store, publisher Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store: store,
		feed:  publisher,
		log:   logger.Named("library"),
	}
}

// List returns the books matching q. A zero Query returns the whole collection.
func (s *Service) List(ctx context.Context, q book.Query) []book.Book {
	if q == (book.Query{}) {
		return s.store.List(ctx)
	}
	return s.store.Search(ctx, q)
}

// Get retrieves one book.
func (s *Service) Get(ctx context.Context, id int) (book.Book, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return book.Book{}, fmt.Errorf("get book %d: %w", id, err)
	}
	return b, nil
}

// Create validates and stores a new book.
func (s *Service) Create(ctx context.Context, title, author string) (book.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.store.Create(ctx, title, author)
	if err != nil {
		return book.Book{}, fmt.Errorf("create book: %w", err)
	}

	s.log.Info("book created", zap.Int("id", b.ID), zap.Int("total", s.store.Len()))
	s.publish(feed.BookCreated, b)
	return b, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id int, in book.Input) (book.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.store.Update(ctx, id, in)
	if err != nil {
		return book.Book{}, fmt.Errorf("update book %d: %w", id, err)
	}

	s.log.Info("book updated", zap.Int("id", b.ID))
	s.publish(feed.BookUpdated, b)
	return b, nil
}

// Delete removes a book.
func (s *Service) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}

	s.log.Info("book deleted", zap.Int("id", id), zap.Int("total", s.store.Len()))
	s.publish(feed.BookDeleted, b)
	return nil
}

func (s *Service) publish(t feed.EventType, b book.Book) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(feed.NewEvent(t, b))
}
