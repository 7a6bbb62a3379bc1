package biz

import (
	"context"
	"time"
)

// Movie domain model
type Movie struct {
	ID        string
	Title     string
	Year      *int
	Rating    *string
	Genre     *string
	Plot      *string
	Poster    *string
	CreatedAt time.Time

	// ReviewCount is only filled by the ranking queries.
	ReviewCount int64
}

// MovieMetadata is a normalized record returned by the external movie database.
type MovieMetadata struct {
	Title  string
	Year   *int
	Rating *string
	Genre  *string
	Plot   *string
	Poster *string
}

// HomeFeed is the home page selection.
type HomeFeed struct {
	Featured *Movie
	Trending []*Movie
	Popular  []*Movie
}

// Review domain model
type Review struct {
	UserID    string
	MovieID   string
	Username  string
	Body      string
	Edited    bool
	CreatedAt time.Time

	// MovieTitle is only filled when listing a user's reviews.
	MovieTitle string
}

// User domain model
type User struct {
	ID              string
	Username        string
	Email           string
	PasswordHash    string
	HasProfileImage bool
	CreatedAt       time.Time
}

// ProfileImage domain model
type ProfileImage struct {
	UserID      string
	Data        []byte
	ContentType string
	UpdatedAt   time.Time
}

// Identity is the authenticated caller as resolved by the session gate.
type Identity struct {
	ID       string
	Username string
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Username        string `form:"username" validate:"required,min=3,max=20,alphanum"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,min=8,password_strength"`
	ConfirmPassword string `form:"confirmPassword" validate:"eqfield=Password"`
}

// LoginInput is the login form.
type LoginInput struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=8"`
}

// ImageUpload is a profile image as received from a multipart form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// MovieRepo defines the repository interface for movies
type MovieRepo interface {
	CreateMovie(ctx context.Context, movie *Movie) error
	GetMovie(ctx context.Context, id string) (*Movie, error)
	// FindByTitle matches titles case-insensitively and exactly, in insertion order.
	FindByTitle(ctx context.Context, title string, year *int) ([]*Movie, error)
	// SearchByTitle matches titles case-insensitively by substring.
	SearchByTitle(ctx context.Context, query string, limit int) ([]*Movie, error)
	ListTrending(ctx context.Context, since time.Time, limit int) ([]*Movie, error)
	ListPopular(ctx context.Context, limit int) ([]*Movie, error)
	ListFallback(ctx context.Context, excludeIDs []string, limit int) ([]*Movie, error)
}

// ReviewRepo defines the repository interface for reviews
type ReviewRepo interface {
	UpsertReview(ctx context.Context, review *Review) (*Review, error)
	ListByMovie(ctx context.Context, movieID string) ([]*Review, error)
	ListByUser(ctx context.Context, userID string) ([]*Review, error)
	DeleteReview(ctx context.Context, userID, movieID string) (bool, error)
}

// UserRepo defines the repository interface for users and their profile images
type UserRepo interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateUsername(ctx context.Context, id, username string) (*User, error)
	// UpsertProfileImage replaces the user's image and sets HasProfileImage.
	UpsertProfileImage(ctx context.Context, image *ProfileImage) error
	GetProfileImage(ctx context.Context, userID string) (*ProfileImage, error)
}

// MovieMetadataClient defines the interface for the external movie database
type MovieMetadataClient interface {
	FetchMovie(ctx context.Context, title string, year *int) (*MovieMetadata, error)
}

// HealthRepo reports whether storage is reachable.
type HealthRepo interface {
	Ping(ctx context.Context) error
}
