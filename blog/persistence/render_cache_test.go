package persistence

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dfryer1193/goblog/blog/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func renderer(content string, calls *int) func() (string, error) {
	return func() (string, error) {
		*calls++
		return content, nil
	}
}

func TestRenderCache_HitWithinTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewRenderCache(WithClock(clock.Now))
	id := domain.PostID{Number: 7}

	calls := 0
	got, err := cache.GetOrRender(id, renderer("H", &calls))
	if err != nil || got != "H" {
		t.Fatalf("GetOrRender() = %q, %v", got, err)
	}

	clock.Advance(RenderCacheTTL - time.Nanosecond)
	got, err = cache.GetOrRender(id, renderer("H2", &calls))
	if err != nil {
		t.Fatalf("GetOrRender() error = %v", err)
	}
	if got != "H" {
		t.Errorf("GetOrRender() = %q, want cached %q", got, "H")
	}
	if calls != 1 {
		t.Errorf("render called %d times, want 1", calls)
	}
}

func TestRenderCache_ExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewRenderCache(WithClock(clock.Now))
	id := domain.PostID{Number: 7}

	calls := 0
	if _, err := cache.GetOrRender(id, renderer("H", &calls)); err != nil {
		t.Fatalf("GetOrRender() error = %v", err)
	}

	clock.Advance(RenderCacheTTL)
	got, err := cache.GetOrRender(id, renderer("H2", &calls))
	if err != nil {
		t.Fatalf("GetOrRender() error = %v", err)
	}
	if got != "H2" {
		t.Errorf("GetOrRender() = %q, want re-rendered %q", got, "H2")
	}

	// The new entry is fresh again.
	got, _ = cache.GetOrRender(id, renderer("H3", &calls))
	if got != "H2" {
		t.Errorf("GetOrRender() = %q, want %q", got, "H2")
	}
	if calls != 2 {
		t.Errorf("render called %d times, want 2", calls)
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

func TestRenderCache_DevelopmentModeAlwaysRenders(t *testing.T) {
	cache := NewRenderCache(WithDevelopmentMode(true))
	id := domain.PostID{Number: 1}

	calls := 0
	for i, want := range []string{"a", "b", "c"} {
		got, err := cache.GetOrRender(id, renderer(want, &calls))
		if err != nil {
			t.Fatalf("GetOrRender() error = %v", err)
		}
		if got != want {
			t.Errorf("call %d = %q, want %q", i, got, want)
		}
	}
	if calls != 3 {
		t.Errorf("render called %d times, want 3", calls)
	}
}

func TestRenderCache_SlugDoesNotMatter(t *testing.T) {
	cache := NewRenderCache()

	calls := 0
	if _, err := cache.GetOrRender(domain.PostID{Number: 4, Slug: "one"}, renderer("H", &calls)); err != nil {
		t.Fatalf("GetOrRender() error = %v", err)
	}
	got, _ := cache.GetOrRender(domain.PostID{Number: 4, Slug: "two"}, renderer("other", &calls))
	if got != "H" {
		t.Errorf("GetOrRender() = %q, want %q", got, "H")
	}
}

func TestRenderCache_FailuresAreNotStored(t *testing.T) {
	cache := NewRenderCache()
	id := domain.PostID{Number: 9}
	renderErr := domain.RenderMathError("bad")

	_, err := cache.GetOrRender(id, func() (string, error) {
		return "", renderErr
	})
	if !errors.Is(err, domain.ErrRenderMathFailed) {
		t.Fatalf("error = %v, want ErrRenderMathFailed", err)
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d after failure, want 0", cache.Len())
	}

	calls := 0
	got, err := cache.GetOrRender(id, renderer("ok", &calls))
	if err != nil || got != "ok" || calls != 1 {
		t.Errorf("GetOrRender() after failure = %q, %v (calls %d)", got, err, calls)
	}
}

func TestRenderCache_StaleEntryKeptWhenRerenderFails(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewRenderCache(WithClock(clock.Now))
	id := domain.PostID{Number: 2}

	calls := 0
	if _, err := cache.GetOrRender(id, renderer("old", &calls)); err != nil {
		t.Fatalf("GetOrRender() error = %v", err)
	}

	clock.Advance(RenderCacheTTL + time.Hour)
	if _, err := cache.GetOrRender(id, func() (string, error) {
		return "", errors.New("boom")
	}); err == nil {
		t.Fatal("expected render error")
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want the stale entry to remain", cache.Len())
	}
}

func TestRenderCache_ConcurrentMissesRenderOnce(t *testing.T) {
	cache := NewRenderCache()
	id := domain.PostID{Number: 11}

	var calls atomic.Int32
	release := make(chan struct{})
	render := func() (string, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	const workers = 8
	var started, done sync.WaitGroup
	started.Add(workers)
	done.Add(workers)
	results := make([]string, workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i], _ = cache.GetOrRender(id, render)
		}(i)
	}

	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	done.Wait()

	for i, r := range results {
		if r != "shared" {
			t.Errorf("worker %d got %q", i, r)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("render called %d times, want 1", n)
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}
