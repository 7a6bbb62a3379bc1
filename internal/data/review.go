package data

import (
	"context"
	"time"

	"moviereview/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm/clause"
)

type reviewRepo struct {
	data *Data
	log  *log.Helper
}

// NewReviewRepo creates a new review repository
func NewReviewRepo(data *Data, logger log.Logger) biz.ReviewRepo {
	return &reviewRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// reviewRow is a review joined with its author and movie.
type reviewRow struct {
	UserID     string
	MovieID    string
	Body       string
	CreatedAt  time.Time
	Edited     bool
	Username   string
	MovieTitle string
}

func (r *reviewRepo) UpsertReview(ctx context.Context, review *biz.Review) (*biz.Review, error) {
	dbReview := &Review{
		UserID:  review.UserID,
		MovieID: review.MovieID,
		Body:    review.Body,
	}

	// Use GORM's ON CONFLICT clause for upsert; edited only ever flips to true
	err := r.data.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"review": review.Body,
			"edited": true,
		}),
	}).Create(dbReview).Error
	if err != nil {
		return nil, biz.StorageError(err)
	}

	var stored Review
	err = r.data.db.WithContext(ctx).
		Where("user_id = ? AND movie_id = ?", review.UserID, review.MovieID).
		First(&stored).Error
	if err != nil {
		return nil, biz.StorageError(err)
	}

	return &biz.Review{
		UserID:    stored.UserID,
		MovieID:   stored.MovieID,
		Body:      stored.Body,
		Edited:    stored.Edited,
		CreatedAt: stored.CreatedAt,
	}, nil
}

func (r *reviewRepo) ListByMovie(ctx context.Context, movieID string) ([]*biz.Review, error) {
	var rows []reviewRow
	err := r.data.db.WithContext(ctx).
		Model(&Review{}).
		Select("reviews.user_id, reviews.movie_id, reviews.review AS body, reviews.created_at, reviews.edited, users.username").
		Joins("JOIN users ON users.id = reviews.user_id").
		Where("reviews.movie_id = ?", movieID).
		Order("reviews.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, biz.StorageError(err)
	}
	return rowsToBiz(rows), nil
}

func (r *reviewRepo) ListByUser(ctx context.Context, userID string) ([]*biz.Review, error) {
	var rows []reviewRow
	err := r.data.db.WithContext(ctx).
		Model(&Review{}).
		Select("reviews.user_id, reviews.movie_id, reviews.review AS body, reviews.created_at, reviews.edited, movies.title AS movie_title").
		Joins("JOIN movies ON movies.id = reviews.movie_id").
		Where("reviews.user_id = ?", userID).
		Order("reviews.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, biz.StorageError(err)
	}
	return rowsToBiz(rows), nil
}

// DeleteReview removes a review only when userID owns it.
func (r *reviewRepo) DeleteReview(ctx context.Context, userID, movieID string) (bool, error) {
	result := r.data.db.WithContext(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Delete(&Review{})
	if result.Error != nil {
		return false, biz.StorageError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func rowsToBiz(rows []reviewRow) []*biz.Review {
	reviews := make([]*biz.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, &biz.Review{
			UserID:     row.UserID,
			MovieID:    row.MovieID,
			Username:   row.Username,
			Body:       row.Body,
			Edited:     row.Edited,
			CreatedAt:  row.CreatedAt,
			MovieTitle: row.MovieTitle,
		})
	}
	return reviews
}
