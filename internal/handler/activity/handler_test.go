package activity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/bookshelf/backend/internal/service/activity"
)

type brokenRecorder struct{}

func (brokenRecorder) Record(context.Context, string, activity.Entry) error { return nil }

func (brokenRecorder) Recent(context.Context, string) ([]activity.Entry, error) {
	return nil, errors.New("redis unavailable")
}

func TestRecentActivity(t *testing.T) {
	rec, err := activity.NewMemoryRecorder(3, 8)
	if err != nil {
		t.Fatalf("NewMemoryRecorder err: %v", err)
	}
	if err := rec.Record(context.Background(), "alice", activity.NewEntry(http.MethodPost, "/api/books", http.StatusCreated)); err != nil {
		t.Fatalf("Record err: %v", err)
	}

	r := chi.NewRouter()
	New(rec, nil).RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/activity/alice", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload struct {
		Activity []activity.Entry `json:"activity"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(payload.Activity) != 1 || payload.Activity[0].Status != http.StatusCreated {
		t.Fatalf("unexpected activity: %+v", payload.Activity)
	}
}

func TestRecentActivityRecorderFailure(t *testing.T) {
	r := chi.NewRouter()
	New(brokenRecorder{}, nil).RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/activity/alice", nil))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}
