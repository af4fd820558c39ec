package slug

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type memoryExister struct {
	mu    sync.Mutex
	slugs map[string]bool
	err   error
}

func (m *memoryExister) ExistsBySlug(_ context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	return m.slugs[slug], nil
}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestAssignNormalizesAndSalts(t *testing.T) {
	t.Parallel()

	a := NewAssigner(&memoryExister{}, nil, zap.NewNop()).WithClock(fixedClock(1_700_000_000_000))
	got, err := a.Assign(context.Background(), "Qué ver en Málaga!", time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if want := "que-ver-en-malaga-" + salt(time.UnixMilli(1_700_000_000_000)); got != want {
		t.Fatalf("Assign = %q, want %q", got, want)
	}
}

func TestAssignUsesFreshClockNotCallerTime(t *testing.T) {
	t.Parallel()

	a := NewAssigner(&memoryExister{}, nil, zap.NewNop()).WithClock(fixedClock(42))
	now := time.UnixMilli(99_999)
	got, err := a.Assign(context.Background(), "Title", now)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if strings.HasSuffix(got, salt(now)) || !strings.HasSuffix(got, "-"+salt(time.UnixMilli(42))) {
		t.Fatalf("slug %q should be salted from the assigner clock", got)
	}
}

func TestAssignEmptyTitleFallsBack(t *testing.T) {
	t.Parallel()

	a := NewAssigner(&memoryExister{}, nil, zap.NewNop())
	got, err := a.Assign(context.Background(), "¿¡!!", time.Now())
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if !strings.HasPrefix(got, "article-") {
		t.Fatalf("unexpected slug %q", got)
	}
}

func TestAssignSameTitleNeverYieldsDuplicate(t *testing.T) {
	t.Parallel()

	store := &memoryExister{slugs: map[string]bool{}}
	var ms int64 = 1000
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return time.UnixMilli(ms)
	}
	a := NewAssigner(store, NewLocalReserver(time.Minute), zap.NewNop()).WithClock(clock)

	first, err := a.Assign(context.Background(), "Same Title", time.Now())
	if err != nil {
		t.Fatalf("first Assign: %v", err)
	}

	// Same millisecond: the reservation rejects the duplicate cleanly.
	if _, err := a.Assign(context.Background(), "Same Title", time.Now()); !errors.Is(err, ErrCollision) {
		t.Fatalf("expected ErrCollision, got %v", err)
	}

	mu.Lock()
	ms++
	mu.Unlock()
	second, err := a.Assign(context.Background(), "Same Title", time.Now())
	if err != nil {
		t.Fatalf("second Assign: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct slugs, got %q twice", first)
	}
}

func TestAssignStoreCollision(t *testing.T) {
	t.Parallel()

	reserver := NewLocalReserver(time.Minute)
	candidate := "taken-" + salt(time.UnixMilli(5))
	store := &memoryExister{slugs: map[string]bool{candidate: true}}
	a := NewAssigner(store, reserver, zap.NewNop()).WithClock(fixedClock(5))

	if _, err := a.Assign(context.Background(), "Taken", time.Now()); !errors.Is(err, ErrCollision) {
		t.Fatalf("expected ErrCollision, got %v", err)
	}
	if ok, _ := reserver.Reserve(context.Background(), candidate); !ok {
		t.Fatal("reservation should be released after a store collision")
	}
}

func TestAssignStoreError(t *testing.T) {
	t.Parallel()

	a := NewAssigner(&memoryExister{err: errors.New("db down")}, nil, zap.NewNop())
	_, err := a.Assign(context.Background(), "Title", time.Now())
	if err == nil || errors.Is(err, ErrCollision) {
		t.Fatalf("expected a non-collision error, got %v", err)
	}
}

func TestLocalReserverExpires(t *testing.T) {
	t.Parallel()

	r := NewLocalReserver(time.Second)
	now := time.Unix(100, 0)
	r.now = func() time.Time { return now }

	if ok, _ := r.Reserve(context.Background(), "s"); !ok {
		t.Fatal("first reservation should succeed")
	}
	if ok, _ := r.Reserve(context.Background(), "s"); ok {
		t.Fatal("second reservation should fail")
	}
	now = now.Add(2 * time.Second)
	if ok, _ := r.Reserve(context.Background(), "s"); !ok {
		t.Fatal("expired reservation should be reusable")
	}
}
