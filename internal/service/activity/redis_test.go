package activity_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/zhouzirui/bookshelf/backend/internal/service/activity"
)

func setupRedisRecorder(t *testing.T, limit int) (*activity.RedisRecorder, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	rec, err := activity.NewRedisRecorder(srv.Addr(), limit, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRedisRecorder err: %v", err)
	}
	t.Cleanup(func() { _ = rec.Close() })
	return rec, srv
}

func routesOf(entries []activity.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Route)
	}
	return out
}

func TestRedisRecorderKeepsNewestFirst(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	rec, srv := setupRedisRecorder(t, 3)

	for _, route := range []string{"/api/books", "/api/books/1", "/api/books/2", "/api/books/3"} {
		g.Expect(rec.Record(ctx, "alice", activity.NewEntry(http.MethodGet, route, http.StatusOK))).To(Succeed())
	}

	got, err := rec.Recent(ctx, "alice")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(routesOf(got)).To(Equal([]string{"/api/books/3", "/api/books/2", "/api/books/1"}))

	stored, err := srv.List("activity:alice")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(stored).To(HaveLen(3))
}

func TestRedisRecorderUsersAreSeparate(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	rec, _ := setupRedisRecorder(t, 3)

	g.Expect(rec.Record(ctx, "alice", activity.NewEntry(http.MethodPost, "/api/books", http.StatusCreated))).To(Succeed())

	got, err := rec.Recent(ctx, "bob")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(got).NotTo(BeNil())
	g.Expect(got).To(BeEmpty())
}

func TestRedisRecorderSkipsMalformedEntries(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	rec, srv := setupRedisRecorder(t, 3)

	g.Expect(rec.Record(ctx, "alice", activity.NewEntry(http.MethodGet, "/api/books/1", http.StatusOK))).To(Succeed())
	_, err := srv.Lpush("activity:alice", "not-json")
	g.Expect(err).NotTo(HaveOccurred())

	got, err := rec.Recent(ctx, "alice")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(routesOf(got)).To(Equal([]string{"/api/books/1"}))
}

func TestRedisRecorderRequiresUsername(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	rec, _ := setupRedisRecorder(t, 3)

	err := rec.Record(ctx, "", activity.NewEntry(http.MethodGet, "/api/books", http.StatusOK))
	g.Expect(errors.Is(err, activity.ErrUsernameRequired)).To(BeTrue())

	_, err = rec.Recent(ctx, "")
	g.Expect(errors.Is(err, activity.ErrUsernameRequired)).To(BeTrue())
}

func TestRedisRecorderReportsServerErrors(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	rec, srv := setupRedisRecorder(t, 3)

	srv.SetError("ERR server unavailable")
	g.Expect(rec.Record(ctx, "alice", activity.NewEntry(http.MethodGet, "/api/books", http.StatusOK))).NotTo(Succeed())
	_, err := rec.Recent(ctx, "alice")
	g.Expect(err).To(HaveOccurred())

	srv.SetError("")
	stored, err := srv.List("activity:alice")
	g.Expect(err).To(MatchError(miniredis.ErrKeyNotFound))
	g.Expect(stored).To(BeEmpty())
}

func TestNewRedisRecorderFailsWhenUnreachable(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	if _, err := activity.NewRedisRecorder(addr, 3, zap.NewNop()); err == nil {
		t.Fatal("expected ping error for a stopped server")
	}
}
