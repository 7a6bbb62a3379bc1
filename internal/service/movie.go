package service

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"moviereview/internal/biz"
	"moviereview/internal/conf"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

const (
	defaultTrendingLimit = 5
	defaultPopularLimit  = 10
	defaultMinimumTotal  = 10
)

// MovieService serves the public movie pages
type MovieService struct {
	movieUC  *biz.MovieUseCase
	feedUC   *biz.FeedUseCase
	reviewUC *biz.ReviewUseCase
	health   biz.HealthRepo
	feed     conf.Feed

	sm     *SessionManager
	render *Renderer
	log    *log.Helper
}

type searchPage struct {
	Query  string
	Movies []*biz.Movie
	Title  string
	Year   string
}

type moviePage struct {
	Movie   *biz.Movie
	Reviews []*biz.Review
	Own     *biz.Review
}

// NewMovieService creates a new MovieService
func NewMovieService(movieUC *biz.MovieUseCase, feedUC *biz.FeedUseCase, reviewUC *biz.ReviewUseCase,
	health biz.HealthRepo, c *conf.Feed, sm *SessionManager, render *Renderer, logger log.Logger) *MovieService {
	feed := conf.Feed{
		TrendingLimit: defaultTrendingLimit,
		PopularLimit:  defaultPopularLimit,
		MinimumTotal:  defaultMinimumTotal,
	}
	if c != nil {
		if c.TrendingLimit > 0 {
			feed.TrendingLimit = c.TrendingLimit
		}
		if c.PopularLimit > 0 {
			feed.PopularLimit = c.PopularLimit
		}
		if c.MinimumTotal > 0 {
			feed.MinimumTotal = c.MinimumTotal
		}
	}

	return &MovieService{
		movieUC:  movieUC,
		feedUC:   feedUC,
		reviewUC: reviewUC,
		health:   health,
		feed:     feed,
		sm:       sm,
		render:   render,
		log:      log.NewHelper(logger),
	}
}

// Home renders the trending and popular lists
func (s *MovieService) Home(ctx khttp.Context) error {
	return serve(ctx, OperationHome, func(c context.Context) error {
		feed, err := s.feedUC.BuildHomeFeed(c, s.feed.TrendingLimit, s.feed.PopularLimit, s.feed.MinimumTotal)
		if err != nil {
			return err
		}
		return s.render.page(ctx, s.sm, http.StatusOK, "index.html", "Home", feed)
	})
}

func (s *MovieService) About(ctx khttp.Context) error {
	return serve(ctx, OperationAbout, func(c context.Context) error {
		return s.render.page(ctx, s.sm, http.StatusOK, "about.html", "About", nil)
	})
}

// Search lists stored movies whose title contains q. It never calls the movie database.
func (s *MovieService) Search(ctx khttp.Context) error {
	return serve(ctx, OperationSearch, func(c context.Context) error {
		query := strings.TrimSpace(ctx.Query().Get("q"))
		movies, err := s.movieUC.FindLocalMovies(c, query)
		if err != nil {
			return err
		}
		return s.render.page(ctx, s.sm, http.StatusOK, "search.html", "Movies", &searchPage{
			Query:  query,
			Movies: movies,
		})
	})
}

// Lookup resolves an exact title, fetching it from the movie database on a miss,
// and redirects to the first match.
func (s *MovieService) Lookup(ctx khttp.Context) error {
	return serve(ctx, OperationLookup, func(c context.Context) error {
		form := ctx.Form()
		page := &searchPage{
			Title: strings.TrimSpace(form.Get("title")),
			Year:  strings.TrimSpace(form.Get("year")),
		}

		var year *int
		if page.Year != "" {
			y, err := strconv.Atoi(page.Year)
			if err != nil {
				return s.render.page(ctx, s.sm, http.StatusBadRequest, "search.html", "Movies", page, "Year must be a number")
			}
			year = &y
		}

		movies, err := s.movieUC.Resolve(c, page.Title, year)
		if msgs, ok := validationMessages(err); ok {
			return s.render.page(ctx, s.sm, http.StatusBadRequest, "search.html", "Movies", page, msgs...)
		}
		if errors.Is(err, biz.ErrMovieNotFound) {
			return s.render.page(ctx, s.sm, http.StatusNotFound, "search.html", "Movies", page, "Movie not found")
		}
		if err != nil {
			return err
		}

		return redirect(ctx, "/movies/"+movies[0].ID)
	})
}

// Detail renders a movie with its reviews, newest first
func (s *MovieService) Detail(ctx khttp.Context) error {
	return serve(ctx, OperationMovieDetail, func(c context.Context) error {
		movie, err := s.movieUC.GetMovie(c, ctx.Vars().Get("id"))
		if err != nil {
			return err
		}

		reviews, err := s.reviewUC.ListByMovie(c, movie.ID)
		if err != nil {
			return err
		}

		page := &moviePage{Movie: movie, Reviews: reviews}
		if who := IdentityFrom(c); who != nil {
			for _, r := range reviews {
				if r.UserID == who.ID {
					page.Own = r
					break
				}
			}
		}

		return s.render.page(ctx, s.sm, http.StatusOK, "movie.html", movie.Title, page)
	})
}

// Health reports whether the database answers
func (s *MovieService) Health(ctx khttp.Context) error {
	return serve(ctx, OperationHealth, func(c context.Context) error {
		if err := s.health.Ping(c); err != nil {
			return kerrors.ServiceUnavailable("UNHEALTHY", "database unreachable").WithCause(err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
