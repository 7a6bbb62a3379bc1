package biz

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

var testLogger = log.NewStdLogger(discard{})

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

type fakeMovieRepo struct {
	mu       sync.Mutex
	movies   []*Movie
	trending []*Movie
	popular  []*Movie
	// fallbackExcluded records the ids passed to the last ListFallback call.
	fallbackExcluded []string
}

func (r *fakeMovieRepo) CreateMovie(_ context.Context, m *Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movies = append(r.movies, m)
	return nil
}

func (r *fakeMovieRepo) GetMovie(_ context.Context, id string) (*Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.movies {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, ErrMovieNotFound
}

func (r *fakeMovieRepo) FindByTitle(_ context.Context, title string, year *int) ([]*Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Movie
	for _, m := range r.movies {
		if !strings.EqualFold(m.Title, title) {
			continue
		}
		if year != nil && (m.Year == nil || *m.Year != *year) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *fakeMovieRepo) SearchByTitle(_ context.Context, query string, limit int) ([]*Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*Movie{}
	for _, m := range r.movies {
		if strings.Contains(strings.ToLower(m.Title), strings.ToLower(query)) {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeMovieRepo) ListTrending(_ context.Context, _ time.Time, limit int) ([]*Movie, error) {
	return capped(r.trending, limit), nil
}

func (r *fakeMovieRepo) ListPopular(_ context.Context, limit int) ([]*Movie, error) {
	return capped(r.popular, limit), nil
}

func (r *fakeMovieRepo) ListFallback(_ context.Context, exclude []string, limit int) ([]*Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbackExcluded = append([]string(nil), exclude...)
	sort.Strings(r.fallbackExcluded)

	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	var out []*Movie
	for _, m := range r.movies {
		if !skip[m.ID] {
			out = append(out, m)
		}
	}
	return capped(out, limit), nil
}

func capped(ms []*Movie, limit int) []*Movie {
	if len(ms) > limit {
		return ms[:limit]
	}
	return ms
}

type fakeClient struct {
	mu    sync.Mutex
	calls int
	found map[string]*MovieMetadata
}

func (c *fakeClient) FetchMovie(_ context.Context, title string, _ *int) (*MovieMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if meta, ok := c.found[strings.ToLower(title)]; ok {
		return meta, nil
	}
	return nil, UpstreamError("Movie not found!")
}

type fakeReviewRepo struct {
	reviews map[[2]string]*Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: map[[2]string]*Review{}}
}

func (r *fakeReviewRepo) UpsertReview(_ context.Context, rv *Review) (*Review, error) {
	key := [2]string{rv.UserID, rv.MovieID}
	if existing, ok := r.reviews[key]; ok {
		existing.Body = rv.Body
		existing.Edited = true
		return existing, nil
	}
	stored := *rv
	r.reviews[key] = &stored
	return &stored, nil
}

func (r *fakeReviewRepo) ListByMovie(_ context.Context, movieID string) ([]*Review, error) {
	var out []*Review
	for _, rv := range r.reviews {
		if rv.MovieID == movieID {
			out = append(out, rv)
		}
	}
	return out, nil
}

func (r *fakeReviewRepo) ListByUser(_ context.Context, userID string) ([]*Review, error) {
	var out []*Review
	for _, rv := range r.reviews {
		if rv.UserID == userID {
			out = append(out, rv)
		}
	}
	return out, nil
}

func (r *fakeReviewRepo) DeleteReview(_ context.Context, userID, movieID string) (bool, error) {
	key := [2]string{userID, movieID}
	if _, ok := r.reviews[key]; !ok {
		return false, nil
	}
	delete(r.reviews, key)
	return true, nil
}

type fakeUserRepo struct {
	users  map[string]*User
	images map[string]*ProfileImage
	// writes counts CreateUser calls.
	writes int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*User{}, images: map[string]*ProfileImage{}}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, u *User) error {
	r.writes++
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetUser(_ context.Context, id string) (*User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *fakeUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetUserByEmail(ctx, email)
	return err == nil, nil
}

func (r *fakeUserRepo) UsernameExists(_ context.Context, username string) (bool, error) {
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) UpdateUsername(_ context.Context, id, username string) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.Username = username
	return u, nil
}

func (r *fakeUserRepo) UpsertProfileImage(_ context.Context, img *ProfileImage) error {
	r.images[img.UserID] = img
	if u, ok := r.users[img.UserID]; ok {
		u.HasProfileImage = true
	}
	return nil
}

func (r *fakeUserRepo) GetProfileImage(_ context.Context, userID string) (*ProfileImage, error) {
	if img, ok := r.images[userID]; ok {
		return img, nil
	}
	return nil, ErrImageNotFound
}
