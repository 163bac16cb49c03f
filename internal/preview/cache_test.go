package preview

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"go-stream-download/internal/models"
)

func TestCacheServesFreshEntries(t *testing.T) {
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	cache := NewCache(func(ctx context.Context, url string) (models.Preview, error) {
		calls++
		return models.Preview{URL: url, Title: "First Title"}, nil
	}, 180*time.Second)
	cache.now = func() time.Time { return clock }

	p, err := cache.GetOrFetch(context.Background(), "https://example.com/v")
	if err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if p.Title != "First Title" {
		t.Errorf("Title = %q, want %q", p.Title, "First Title")
	}

	// Inside the TTL the fetch func must not run again.
	clock = clock.Add(179 * time.Second)
	if _, err := cache.GetOrFetch(context.Background(), "https://example.com/v"); err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Fetch calls within TTL = %d, want 1", calls)
	}

	// Past the TTL a fresh lookup runs.
	clock = clock.Add(2 * time.Second)
	if _, err := cache.GetOrFetch(context.Background(), "https://example.com/v"); err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("Fetch calls after expiry = %d, want 2", calls)
	}
}

func TestCacheDoesNotCacheFailures(t *testing.T) {
	calls := 0
	cache := NewCache(func(ctx context.Context, url string) (models.Preview, error) {
		calls++
		if calls == 1 {
			return models.Preview{}, errors.New("extractor preview: boom")
		}
		return models.Preview{URL: url, Title: "Recovered"}, nil
	}, 180*time.Second)

	if _, err := cache.GetOrFetch(context.Background(), "https://example.com/v"); err == nil {
		t.Fatal("Expected first lookup to fail")
	}
	if cache.Len() != 0 {
		t.Errorf("Len after failed lookup = %d, want 0", cache.Len())
	}

	p, err := cache.GetOrFetch(context.Background(), "https://example.com/v")
	if err != nil {
		t.Fatalf("Second lookup failed: %v", err)
	}
	if p.Title != "Recovered" {
		t.Errorf("Title = %q, want %q", p.Title, "Recovered")
	}
}

func TestCacheEvictsStaleEntriesOnStore(t *testing.T) {
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCache(func(ctx context.Context, url string) (models.Preview, error) {
		return models.Preview{URL: url}, nil
	}, 180*time.Second)
	cache.now = func() time.Time { return clock }

	if _, err := cache.GetOrFetch(context.Background(), "https://example.com/a"); err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}

	// Storing a new entry long after the first expired sweeps the stale one.
	clock = clock.Add(10 * time.Minute)
	if _, err := cache.GetOrFetch(context.Background(), "https://example.com/b"); err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if cache.Len() != 1 {
		t.Errorf("Len after sweep = %d, want 1", cache.Len())
	}
}

func TestCacheKeysByExactURL(t *testing.T) {
	calls := 0
	cache := NewCache(func(ctx context.Context, url string) (models.Preview, error) {
		calls++
		return models.Preview{URL: url}, nil
	}, 180*time.Second)

	for _, url := range []string{
		"https://example.com/v",
		"https://example.com/v?t=10",
	} {
		if _, err := cache.GetOrFetch(context.Background(), url); err != nil {
			t.Fatalf("GetOrFetch(%q) failed: %v", url, err)
		}
	}
	if calls != 2 {
		t.Errorf("Fetch calls for distinct URLs = %d, want 2", calls)
	}
}
