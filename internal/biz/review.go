package biz

import (
	"context"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
)

type reviewInput struct {
	Review string `form:"review" validate:"required,min=10,max=1000"`
}

// ReviewUseCase handles review business logic
type ReviewUseCase struct {
	movieRepo  MovieRepo
	reviewRepo ReviewRepo
	log        *log.Helper
}

// NewReviewUseCase creates a new ReviewUseCase instance
func NewReviewUseCase(movieRepo MovieRepo, reviewRepo ReviewRepo, logger log.Logger) *ReviewUseCase {
	return &ReviewUseCase{
		movieRepo:  movieRepo,
		reviewRepo: reviewRepo,
		log:        log.NewHelper(logger),
	}
}

// SubmitReview creates the caller's review of a movie or replaces its text (Upsert).
func (uc *ReviewUseCase) SubmitReview(ctx context.Context, who *Identity, movieID, text string) (*Review, error) {
	if who == nil {
		return nil, ErrUnauthenticated
	}

	in := &reviewInput{Review: strings.TrimSpace(text)}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	// Check if movie exists
	if _, err := uc.movieRepo.GetMovie(ctx, movieID); err != nil {
		return nil, err
	}

	return uc.reviewRepo.UpsertReview(ctx, &Review{
		UserID:  who.ID,
		MovieID: movieID,
		Body:    in.Review,
	})
}

// ListByMovie returns a movie's reviews, most recent first.
func (uc *ReviewUseCase) ListByMovie(ctx context.Context, movieID string) ([]*Review, error) {
	return uc.reviewRepo.ListByMovie(ctx, movieID)
}

// ListByUser returns the caller's reviews, most recent first.
func (uc *ReviewUseCase) ListByUser(ctx context.Context, who *Identity) ([]*Review, error) {
	if who == nil {
		return nil, ErrUnauthenticated
	}
	return uc.reviewRepo.ListByUser(ctx, who.ID)
}

// DeleteReview removes the caller's review of a movie. It reports false when the
// caller has no review for that movie.
func (uc *ReviewUseCase) DeleteReview(ctx context.Context, who *Identity, movieID string) (bool, error) {
	if who == nil {
		return false, ErrUnauthenticated
	}
	deleted, err := uc.reviewRepo.DeleteReview(ctx, who.ID, movieID)
	if err != nil {
		return false, err
	}
	if deleted {
		uc.log.Infof("user %s deleted review of movie %s", who.ID, movieID)
	}
	return deleted, nil
}
