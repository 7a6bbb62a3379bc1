package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// SearchLimit caps FindLocalMovies results.
const SearchLimit = 50

// MovieUseCase handles movie lookup and search
type MovieUseCase struct {
	repo   MovieRepo
	client MovieMetadataClient
	log    *log.Helper
}

// NewMovieUseCase creates a new MovieUseCase instance
func NewMovieUseCase(repo MovieRepo, client MovieMetadataClient, logger log.Logger) *MovieUseCase {
	return &MovieUseCase{
		repo:   repo,
		client: client,
		log:    log.NewHelper(logger),
	}
}

// Resolve returns the stored movies whose title equals title (ignoring case), or
// fetches the movie from the external database on a miss, stores it and returns it.
// Every external failure is reported as ErrMovieNotFound.
func (uc *MovieUseCase) Resolve(ctx context.Context, title string, year *int) ([]*Movie, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, NewValidationError("title", "Title is required")
	}

	movies, err := uc.repo.FindByTitle(ctx, title, year)
	if err != nil {
		return nil, err
	}
	if len(movies) > 0 {
		uc.log.Debugf("loaded %d movie(s) for '%s' from storage", len(movies), title)
		return movies, nil
	}

	meta, err := uc.client.FetchMovie(ctx, title, year)
	if err != nil {
		uc.log.Warnf("external lookup for '%s' failed: %v", title, err)
		return nil, ErrMovieNotFound.WithCause(err)
	}

	// UUID v7 keeps ids ordered by insertion time.
	movieID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate movie ID: %w", err)
	}

	movie := &Movie{
		ID:     movieID.String(),
		Title:  meta.Title,
		Year:   meta.Year,
		Rating: meta.Rating,
		Genre:  meta.Genre,
		Plot:   meta.Plot,
		Poster: meta.Poster,
	}
	if err := uc.repo.CreateMovie(ctx, movie); err != nil {
		return nil, err
	}
	uc.log.Infof("saved movie '%s' from external lookup", movie.Title)

	return []*Movie{movie}, nil
}

// FindLocalMovies searches stored titles by substring. It never calls the external database.
func (uc *MovieUseCase) FindLocalMovies(ctx context.Context, query string) ([]*Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*Movie{}, nil
	}
	return uc.repo.SearchByTitle(ctx, query, SearchLimit)
}

// GetMovie retrieves a movie by id
func (uc *MovieUseCase) GetMovie(ctx context.Context, id string) (*Movie, error) {
	return uc.repo.GetMovie(ctx, id)
}
