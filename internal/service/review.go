package service

import (
	"context"
	"net/http"

	"moviereview/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// ReviewService handles review submission and deletion
type ReviewService struct {
	reviewUC *biz.ReviewUseCase
	sm       *SessionManager
	log      *log.Helper
}

// NewReviewService creates a new ReviewService
func NewReviewService(reviewUC *biz.ReviewUseCase, sm *SessionManager, logger log.Logger) *ReviewService {
	return &ReviewService{
		reviewUC: reviewUC,
		sm:       sm,
		log:      log.NewHelper(logger),
	}
}

// Submit creates or replaces the caller's review and redirects back to the movie.
// Validation failures are flashed onto the movie page.
func (s *ReviewService) Submit(ctx khttp.Context) error {
	return serve(ctx, OperationSubmitReview, func(c context.Context) error {
		w, r := ctx.Response(), ctx.Request()
		movieID := ctx.Vars().Get("id")
		back := "/movies/" + movieID

		_, err := s.reviewUC.SubmitReview(c, IdentityFrom(c), movieID, ctx.Form().Get("review"))
		if msgs, ok := validationMessages(err); ok {
			if err := s.sm.FlashErrors(w, r, msgs...); err != nil {
				return err
			}
			return redirect(ctx, back)
		}
		if err != nil {
			return err
		}

		if err := s.sm.Flash(w, r, "Review saved successfully!"); err != nil {
			return err
		}
		return redirect(ctx, back)
	})
}

// Delete removes the caller's review of a movie. Answers are always JSON.
func (s *ReviewService) Delete(ctx khttp.Context) error {
	return serve(ctx, OperationDeleteReview, func(c context.Context) error {
		deleted, err := s.reviewUC.DeleteReview(c, IdentityFrom(c), ctx.Vars().Get("id"))
		if err != nil {
			s.log.Errorf("failed to delete review: %v", err)
			return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"error":   "Failed to delete review",
			})
		}
		if !deleted {
			return ctx.JSON(http.StatusNotFound, map[string]interface{}{
				"success": false,
				"error":   "Review not found or unauthorized",
			})
		}
		return ctx.JSON(http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Review deleted successfully",
		})
	})
}
