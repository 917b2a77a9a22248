package analytics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/romaneio-erp/romaneio/internal/romaneio"
	"github.com/romaneio-erp/romaneio/internal/shared"
)

type mockSource struct {
	mu       sync.Mutex
	byStatus map[romaneio.Status][]romaneio.Invoice
	failing  map[romaneio.Status]error
	calls    int
}

func (m *mockSource) Invoices(ctx context.Context, f romaneio.ListFilter) ([]romaneio.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	status := f.Statuses[0]
	if err := m.failing[status]; err != nil {
		return nil, err
	}
	return m.byStatus[status], nil
}

type mockRecorder struct {
	mu      sync.Mutex
	partial []string
	hits    int
	misses  int
}

func (m *mockRecorder) RecordPartialLoad(view, source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.partial = append(m.partial, view+"/"+source)
}

func (m *mockRecorder) RecordCache(hit bool) {
	if hit {
		m.hits++
		return
	}
	m.misses++
}

var fixedNow = time.Date(2024, 3, 10, 15, 0, 0, 0, brt)

func newTestService(t *testing.T, source InvoiceSource) (*Service, *mockRecorder) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	rec := &mockRecorder{}
	svc := NewService(source, NewCache(client, time.Minute), slog.New(slog.NewTextHandler(io.Discard, nil)), Options{Location: brt}).
		WithNow(shared.FixedClock(fixedNow)).
		WithRecorder(rec)
	return svc, rec
}

func sampleSource() *mockSource {
	return &mockSource{byStatus: map[romaneio.Status][]romaneio.Invoice{
		romaneio.StatusDone: {
			stored("1", romaneio.StatusDone, "500", "2024-03-10"),
			stored("2", romaneio.StatusDone, "200", "2024-03-04"),
		},
		romaneio.StatusPending: {
			func() romaneio.Invoice {
				inv := stored("3", romaneio.StatusPending, "80", "2024-03-02")
				inv.DueDate = "2024-03-12"
				return inv
			}(),
		},
		romaneio.StatusCanceled: {stored("4", romaneio.StatusCanceled, "999", "2024-03-10")},
	}}
}

func TestSnapshotCaches(t *testing.T) {
	source := sampleSource()
	svc, rec := newTestService(t, source)
	ctx := context.Background()

	snap, err := svc.Snapshot(ctx, SnapshotFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Date != "2024-03-10" {
		t.Fatalf("expected local date 2024-03-10 got %s", snap.Date)
	}
	if got := money(snap.RevenueToday); got != "500.00" {
		t.Fatalf("expected revenue 500.00 got %s", got)
	}
	// Yesterday had no revenue, so there is no meaningful delta.
	if snap.DeltaPercent != nil {
		t.Fatalf("expected nil delta got %v", *snap.DeltaPercent)
	}
	if got := money(snap.MonthToDate.Total); got != "780.00" || snap.MonthToDate.Count != 3 {
		t.Fatalf("unexpected month to date %+v", snap.MonthToDate)
	}
	if len(snap.Trailing) != TrailingDays {
		t.Fatalf("expected %d trailing points got %d", TrailingDays, len(snap.Trailing))
	}
	if snap.Pending.Pending != 1 || snap.Pending.Stale != 1 {
		t.Fatalf("unexpected pending summary %+v", snap.Pending)
	}
	if len(snap.DueSoon) != 1 || snap.DueSoon[0].DaysUntilDue != 2 {
		t.Fatalf("unexpected due soon %+v", snap.DueSoon)
	}
	if source.calls != 3 {
		t.Fatalf("expected 3 bucket fetches got %d", source.calls)
	}

	// Second call should hit cache.
	again, err := svc.Snapshot(ctx, SnapshotFilter{Date: "10/03/2024"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.calls != 3 {
		t.Fatalf("expected cached snapshot, source called %d times", source.calls)
	}
	if !again.RevenueToday.Equal(snap.RevenueToday) {
		t.Fatalf("cached revenue differs: %s vs %s", again.RevenueToday, snap.RevenueToday)
	}
	if rec.hits != 1 || rec.misses != 1 {
		t.Fatalf("expected one hit and one miss, got %d/%d", rec.hits, rec.misses)
	}

	// Bumping the cache should trigger reload.
	if err := svc.cache.Bump(ctx); err != nil {
		t.Fatalf("bump failed: %v", err)
	}
	if _, err := svc.Snapshot(ctx, SnapshotFilter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.calls != 6 {
		t.Fatalf("expected refetch after bump, calls %d", source.calls)
	}
}

func TestSnapshotWithWarningsIsNotCached(t *testing.T) {
	source := sampleSource()
	source.failing = map[romaneio.Status]error{romaneio.StatusCanceled: errors.New("permission denied")}
	svc, rec := newTestService(t, source)
	ctx := context.Background()

	snap, err := svc.Snapshot(ctx, SnapshotFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Warnings) != 1 || snap.Warnings[0].Source != "canceled" {
		t.Fatalf("expected canceled warning got %+v", snap.Warnings)
	}
	if got := money(snap.RevenueToday); got != "500.00" {
		t.Fatalf("other buckets should still count, revenue %s", got)
	}
	if snap.Distribution[2].Loaded {
		t.Fatalf("canceled bucket should be marked unloaded")
	}
	if len(rec.partial) != 1 || rec.partial[0] != "dashboard/canceled" {
		t.Fatalf("unexpected partial loads %v", rec.partial)
	}

	if _, err := svc.Snapshot(ctx, SnapshotFilter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.calls != 6 {
		t.Fatalf("partial snapshot must not be cached, calls %d", source.calls)
	}
}

func TestSnapshotCanceled(t *testing.T) {
	svc, rec := newTestService(t, sampleSource())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Snapshot(ctx, SnapshotFilter{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled got %v", err)
	}
	if len(rec.partial) != 0 {
		t.Fatalf("canceled load must not record warnings: %v", rec.partial)
	}
}

func TestSnapshotRejectsBadDate(t *testing.T) {
	svc, _ := newTestService(t, sampleSource())
	if _, err := svc.Snapshot(context.Background(), SnapshotFilter{Date: "yesterday"}); !errors.Is(err, shared.ErrValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestRefreshStoresSnapshot(t *testing.T) {
	source := sampleSource()
	svc, _ := newTestService(t, source)
	ctx := context.Background()

	if _, err := svc.Refresh(ctx, SnapshotFilter{CompanyID: "c1"}); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if _, err := svc.Snapshot(ctx, SnapshotFilter{CompanyID: "c1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.calls != 3 {
		t.Fatalf("expected warmed cache, calls %d", source.calls)
	}
}

func TestSnapshotWithoutCache(t *testing.T) {
	source := sampleSource()
	svc := NewService(source, nil, nil, Options{Location: brt}).WithNow(shared.FixedClock(fixedNow))
	for i := 0; i < 2; i++ {
		if _, err := svc.Snapshot(context.Background(), SnapshotFilter{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if source.calls != 6 {
		t.Fatalf("expected every call to compute, calls %d", source.calls)
	}
}

func TestListenForInvalidation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan int64, 1)
	if err := cache.ListenForInvalidation(ctx, func(v int64) { got <- v }); err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	if _, err := cache.Version(ctx); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if err := cache.Bump(ctx); err != nil {
		t.Fatalf("bump failed: %v", err)
	}
	select {
	case v := <-got:
		if v != 2 {
			t.Fatalf("expected version 2 got %d", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no invalidation received")
	}
}
