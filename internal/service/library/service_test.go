package library_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/zhouzirui/bookshelf/backend/internal/model/book"
	"github.com/zhouzirui/bookshelf/backend/internal/service/feed"
	"github.com/zhouzirui/bookshelf/backend/internal/service/library"
)

type recordingPublisher struct {
	events []feed.Event
}

func (p *recordingPublisher) Publish(ev feed.Event) {
	p.events = append(p.events, ev)
}

func newService() (*library.Service, *recordingPublisher) {
	pub := &recordingPublisher{}
	return library.NewService(book.NewMemoryStore(book.Seed()), pub, nil), pub
}

func TestServicePublishesMutations(t *testing.T) {
	svc, pub := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "Dune", "Herbert")
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	title := "Dune Messiah"
	if _, err := svc.Update(ctx, created.ID, book.Input{Title: &title}); err != nil {
		t.Fatalf("Update err: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete err: %v", err)
	}

	want := []feed.EventType{feed.BookCreated, feed.BookUpdated, feed.BookDeleted}
	if len(pub.events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(pub.events))
	}
	for i, ev := range pub.events {
		if ev.Type != want[i] {
			t.Fatalf("event %d: got %s want %s", i, ev.Type, want[i])
		}
		if ev.Book.ID != created.ID {
			t.Fatalf("event %d: got book %d want %d", i, ev.Book.ID, created.ID)
		}
	}
	if pub.events[2].Book.Title != title {
		t.Fatalf("delete event should carry the removed record, got %+v", pub.events[2].Book)
	}
}

func TestServiceFailuresDoNotPublish(t *testing.T) {
	svc, pub := newService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, "X", ""); !errors.Is(err, book.ErrInvalidBook) {
		t.Fatalf("expected ErrInvalidBook, got %v", err)
	}
	if _, err := svc.Update(ctx, 99, book.Input{}); !errors.Is(err, book.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, 99); !errors.Is(err, book.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Get(ctx, 99); !errors.Is(err, book.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("expected no events, got %d", len(pub.events))
	}
}

func TestServiceListFilters(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if got := svc.List(ctx, book.Query{}); len(got) != 3 {
		t.Fatalf("expected 3 books, got %d", len(got))
	}
	got := svc.List(ctx, book.Query{Author: "MARTIN"})
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("unexpected search result: %+v", got)
	}
}

func TestServiceWithoutPublisher(t *testing.T) {
	svc := library.NewService(book.NewMemoryStore(nil), nil, nil)
	if _, err := svc.Create(context.Background(), "Dune", "Herbert"); err != nil {
		t.Fatalf("Create err: %v", err)
	}
}

// commitLog records the order in which updates reach the store.
type commitLog struct {
	book.Store
	mu     sync.Mutex
	titles []string
}

func (c *commitLog) Update(ctx context.Context, id int, in book.Input) (book.Book, error) {
	b, err := c.Store.Update(ctx, id, in)
	if err == nil {
		c.mu.Lock()
		c.titles = append(c.titles, b.Title)
		c.mu.Unlock()
	}
	return b, err
}

func TestServicePublishesInCommitOrder(t *testing.T) {
	store := &commitLog{Store: book.NewMemoryStore(book.Seed())}
	pub := &recordingPublisher{}
	svc := library.NewService(store, pub, nil)
	ctx := context.Background()

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			title := fmt.Sprintf("edition %d", i)
			if _, err := svc.Update(ctx, 1, book.Input{Title: &title}); err != nil {
				t.Errorf("Update err: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if len(pub.events) != writers {
		t.Fatalf("expected %d events, got %d", writers, len(pub.events))
	}
	for i, ev := range pub.events {
		if ev.Book.Title != store.titles[i] {
			t.Fatalf("event %d: published %q but commit %d was %q", i, ev.Book.Title, i, store.titles[i])
		}
	}

	final, err := svc.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if last := pub.events[writers-1].Book.Title; last != final.Title {
		t.Fatalf("last event %q does not match stored title %q", last, final.Title)
	}
}
