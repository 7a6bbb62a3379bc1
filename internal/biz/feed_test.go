package biz

import (
	"context"
	"fmt"
	"testing"
)

func movieSet(prefix string, n int) []*Movie {
	out := make([]*Movie, n)
	for i := range out {
		out[i] = &Movie{ID: fmt.Sprintf("%s%d", prefix, i), Title: fmt.Sprintf("%s movie %d", prefix, i)}
	}
	return out
}

func TestBuildHomeFeedDedupAndBackfill(t *testing.T) {
	trending := movieSet("t", 3)
	historic := movieSet("h", 4)
	unreviewed := movieSet("z", 5)

	repo := &fakeMovieRepo{
		trending: trending,
		// popular ranks every movie; trending ones carry the most reviews
		popular: append(append(append([]*Movie{}, trending...), historic...), unreviewed[:1]...),
	}
	repo.movies = append(append(append([]*Movie{}, trending...), historic...), unreviewed...)

	uc := NewFeedUseCase(repo, testLogger)
	feed, err := uc.BuildHomeFeed(context.Background(), 5, 10, 10)
	if err != nil {
		t.Fatalf("BuildHomeFeed: %v", err)
	}

	if len(feed.Trending) != 3 {
		t.Errorf("expected 3 trending, got %d", len(feed.Trending))
	}
	if total := len(feed.Trending) + len(feed.Popular); total < 10 {
		t.Errorf("expected at least 10 movies after backfill, got %d", total)
	}

	seen := map[string]bool{}
	for _, m := range feed.Trending {
		seen[m.ID] = true
	}
	for _, m := range feed.Popular {
		if seen[m.ID] {
			t.Errorf("movie %s appears twice", m.ID)
		}
		seen[m.ID] = true
	}

	for i, m := range historic {
		if feed.Popular[i].ID != m.ID {
			t.Errorf("popular[%d] = %s, want %s", i, feed.Popular[i].ID, m.ID)
		}
	}

	// trending, historic and the single ranked unreviewed movie are excluded from backfill
	if len(repo.fallbackExcluded) != 8 {
		t.Errorf("expected 8 excluded ids, got %v", repo.fallbackExcluded)
	}

	if feed.Featured == nil || feed.Featured.ID != trending[0].ID {
		t.Errorf("expected first trending movie featured, got %+v", feed.Featured)
	}
}

func TestBuildHomeFeedNoBackfillWhenFull(t *testing.T) {
	popular := movieSet("p", 10)
	repo := &fakeMovieRepo{popular: popular, movies: popular}

	uc := NewFeedUseCase(repo, testLogger)
	feed, err := uc.BuildHomeFeed(context.Background(), 5, 10, 10)
	if err != nil {
		t.Fatalf("BuildHomeFeed: %v", err)
	}
	if repo.fallbackExcluded != nil {
		t.Error("fallback must not run when the minimum is reached")
	}
	if feed.Featured == nil || feed.Featured.ID != "p0" {
		t.Errorf("expected first popular movie featured, got %+v", feed.Featured)
	}
}

func TestBuildHomeFeedEmpty(t *testing.T) {
	uc := NewFeedUseCase(&fakeMovieRepo{}, testLogger)
	feed, err := uc.BuildHomeFeed(context.Background(), 5, 10, 10)
	if err != nil {
		t.Fatalf("BuildHomeFeed: %v", err)
	}
	if feed.Featured != nil || len(feed.Trending) != 0 || len(feed.Popular) != 0 {
		t.Errorf("expected empty feed, got %+v", feed)
	}
}
