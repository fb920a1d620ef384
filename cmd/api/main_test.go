package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/bookshelf/backend/internal/config"
	"github.com/zhouzirui/bookshelf/backend/internal/service/activity"
)

func TestRunServerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runServer err: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runServer did not return after cancel")
	}
}

func TestRunServerReportsListenError(t *testing.T) {
	srv := &http.Server{Addr: "not-an-address", Handler: http.NotFoundHandler()}
	if err := runServer(context.Background(), srv); err == nil {
		t.Fatal("expected listen error")
	}
}

func TestNewRecorderDefaultsToMemory(t *testing.T) {
	rec, closeFn, err := newRecorder(config.ActivityConfig{Limit: 3, MaxUsers: 4}, zap.NewNop())
	if err != nil {
		t.Fatalf("newRecorder err: %v", err)
	}
	defer closeFn()

	if _, ok := rec.(*activity.MemoryRecorder); !ok {
		t.Fatalf("expected memory recorder, got %T", rec)
	}
}
