package data

import (
	"context"
	"errors"
	"strings"
	"time"

	"moviereview/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

type movieRepo struct {
	data *Data
	log  *log.Helper
}

// NewMovieRepo creates a new movie repository
func NewMovieRepo(data *Data, logger log.Logger) biz.MovieRepo {
	return &movieRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *movieRepo) CreateMovie(ctx context.Context, movie *biz.Movie) error {
	dbMovie := r.bizToModel(movie)

	// Plain insert: title and year are not unique.
	if err := r.data.db.WithContext(ctx).Create(dbMovie).Error; err != nil {
		return biz.StorageError(err)
	}

	movie.CreatedAt = dbMovie.CreatedAt
	return nil
}

func (r *movieRepo) GetMovie(ctx context.Context, id string) (*biz.Movie, error) {
	var dbMovie Movie
	if err := r.data.db.WithContext(ctx).Where("id = ?", id).First(&dbMovie).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrMovieNotFound
		}
		return nil, biz.StorageError(err)
	}
	return r.modelToBiz(&dbMovie), nil
}

func (r *movieRepo) FindByTitle(ctx context.Context, title string, year *int) ([]*biz.Movie, error) {
	db := r.data.db.WithContext(ctx).Where("LOWER(title) = LOWER(?)", title)
	if year != nil {
		db = db.Where("year = ?", *year)
	}

	var dbMovies []Movie
	if err := db.Order("created_at ASC, id ASC").Find(&dbMovies).Error; err != nil {
		return nil, biz.StorageError(err)
	}
	return r.modelsToBiz(dbMovies), nil
}

func (r *movieRepo) SearchByTitle(ctx context.Context, query string, limit int) ([]*biz.Movie, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	var dbMovies []Movie
	err := r.data.db.WithContext(ctx).
		Where(`LOWER(title) LIKE ? ESCAPE '\'`, pattern).
		Order(byteOrder(r.data.db, "title") + " ASC, id ASC").
		Limit(limit).
		Find(&dbMovies).Error
	if err != nil {
		return nil, biz.StorageError(err)
	}
	return r.modelsToBiz(dbMovies), nil
}

// ListTrending ranks movies by the number of reviews created since the given time.
func (r *movieRepo) ListTrending(ctx context.Context, since time.Time, limit int) ([]*biz.Movie, error) {
	var rows []rankedMovie
	err := r.data.db.WithContext(ctx).
		Model(&Movie{}).
		Select("movies.*, COUNT(reviews.movie_id) AS review_count").
		Joins("JOIN reviews ON reviews.movie_id = movies.id").
		Where("reviews.created_at >= ?", since).
		Group("movies.id").
		Order("review_count DESC, " + byteOrder(r.data.db, "movies.title") + " ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, biz.StorageError(err)
	}
	return r.rankedToBiz(rows), nil
}

// ListPopular ranks every movie, reviewed or not, by its all-time review count.
func (r *movieRepo) ListPopular(ctx context.Context, limit int) ([]*biz.Movie, error) {
	var rows []rankedMovie
	err := r.data.db.WithContext(ctx).
		Model(&Movie{}).
		Select("movies.*, COUNT(reviews.movie_id) AS review_count").
		Joins("LEFT JOIN reviews ON reviews.movie_id = movies.id").
		Group("movies.id").
		Order("review_count DESC, " + byteOrder(r.data.db, "movies.title") + " ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, biz.StorageError(err)
	}
	return r.rankedToBiz(rows), nil
}

// ListFallback returns the newest movies not in excludeIDs; movies without a year come last.
func (r *movieRepo) ListFallback(ctx context.Context, excludeIDs []string, limit int) ([]*biz.Movie, error) {
	db := r.data.db.WithContext(ctx).Model(&Movie{})
	if len(excludeIDs) > 0 {
		db = db.Where("id NOT IN ?", excludeIDs)
	}

	var dbMovies []Movie
	err := db.Order("year IS NULL, year DESC, " + byteOrder(r.data.db, "title") + " ASC").
		Limit(limit).
		Find(&dbMovies).Error
	if err != nil {
		return nil, biz.StorageError(err)
	}
	return r.modelsToBiz(dbMovies), nil
}

// byteOrder makes postgres compare column byte by byte, as sqlite does by default,
// so title ties break the same way on both drivers.
func byteOrder(db *gorm.DB, column string) string {
	if db.Dialector.Name() == "postgres" {
		return column + ` COLLATE "C"`
	}
	return column
}

// Helper: Convert biz.Movie to data.Movie
func (r *movieRepo) bizToModel(m *biz.Movie) *Movie {
	return &Movie{
		ID:     m.ID,
		Title:  m.Title,
		Year:   m.Year,
		Rating: m.Rating,
		Genre:  m.Genre,
		Plot:   m.Plot,
		Poster: m.Poster,
	}
}

// Helper: Convert data.Movie to biz.Movie
func (r *movieRepo) modelToBiz(m *Movie) *biz.Movie {
	return &biz.Movie{
		ID:        m.ID,
		Title:     m.Title,
		Year:      m.Year,
		Rating:    m.Rating,
		Genre:     m.Genre,
		Plot:      m.Plot,
		Poster:    m.Poster,
		CreatedAt: m.CreatedAt,
	}
}

func (r *movieRepo) modelsToBiz(ms []Movie) []*biz.Movie {
	movies := make([]*biz.Movie, 0, len(ms))
	for i := range ms {
		movies = append(movies, r.modelToBiz(&ms[i]))
	}
	return movies
}

func (r *movieRepo) rankedToBiz(rows []rankedMovie) []*biz.Movie {
	movies := make([]*biz.Movie, 0, len(rows))
	for i := range rows {
		movie := r.modelToBiz(&rows[i].Movie)
		movie.ReviewCount = rows[i].ReviewCount
		movies = append(movies, movie)
	}
	return movies
}

// escapeLike escapes LIKE wildcards so the query matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
