package biz

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// TrendingWindow is how far back a review counts towards trending.
const TrendingWindow = 7 * 24 * time.Hour

// FeedUseCase builds the home page lists
type FeedUseCase struct {
	repo MovieRepo
	now  func() time.Time
	log  *log.Helper
}

// NewFeedUseCase creates a new FeedUseCase instance
func NewFeedUseCase(repo MovieRepo, logger log.Logger) *FeedUseCase {
	return &FeedUseCase{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
		log:  log.NewHelper(logger),
	}
}

// BuildHomeFeed returns trending movies, popular movies not already trending, and
// fills popular up to minimumTotal entries with the newest remaining movies.
func (uc *FeedUseCase) BuildHomeFeed(ctx context.Context, trendingLimit, popularLimit, minimumTotal int) (*HomeFeed, error) {
	trending, err := uc.repo.ListTrending(ctx, uc.now().Add(-TrendingWindow), trendingLimit)
	if err != nil {
		return nil, err
	}

	ranked, err := uc.repo.ListPopular(ctx, popularLimit)
	if err != nil {
		return nil, err
	}

	chosen := make(map[string]struct{}, len(trending)+len(ranked))
	for _, m := range trending {
		chosen[m.ID] = struct{}{}
	}

	popular := make([]*Movie, 0, len(ranked))
	for _, m := range ranked {
		if _, ok := chosen[m.ID]; ok {
			continue
		}
		chosen[m.ID] = struct{}{}
		popular = append(popular, m)
	}

	if shortfall := minimumTotal - len(trending) - len(popular); shortfall > 0 {
		exclude := make([]string, 0, len(chosen))
		for id := range chosen {
			exclude = append(exclude, id)
		}
		fallback, err := uc.repo.ListFallback(ctx, exclude, shortfall)
		if err != nil {
			return nil, err
		}
		uc.log.Debugf("backfilled %d of %d missing home feed entries", len(fallback), shortfall)
		popular = append(popular, fallback...)
	}

	feed := &HomeFeed{
		Trending: trending,
		Popular:  popular,
	}
	switch {
	case len(trending) > 0:
		feed.Featured = trending[0]
	case len(popular) > 0:
		feed.Featured = popular[0]
	}

	return feed, nil
}
