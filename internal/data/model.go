package data

import (
	"time"
)

// User represents the users table
type User struct {
	ID              string    `gorm:"primaryKey;size:64"`
	Username        string    `gorm:"uniqueIndex;not null;size:20"`
	Email           string    `gorm:"uniqueIndex;not null;size:255"`
	PasswordHash    string    `gorm:"column:password;not null;size:255"`
	HasProfileImage bool      `gorm:"not null;default:false"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}

// ProfileImage represents the profile_images table
type ProfileImage struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      string    `gorm:"uniqueIndex;not null;size:64"`
	Data        []byte    `gorm:"not null"`
	ContentType string    `gorm:"not null;size:50"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`

	// Foreign key
	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the table name
func (ProfileImage) TableName() string {
	return "profile_images"
}

// Movie represents the movies table
type Movie struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Title     string    `gorm:"not null;size:255;index:idx_movies_title,expression:LOWER(title)"`
	Year      *int      `gorm:"index:idx_movies_year"`
	Rating    *string   `gorm:"size:16"`
	Genre     *string   `gorm:"size:127"`
	Plot      *string   `gorm:"type:text"`
	Poster    *string   `gorm:"column:image;size:512"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the table name
func (Movie) TableName() string {
	return "movies"
}

// Review represents the reviews table
type Review struct {
	UserID    string    `gorm:"primaryKey;size:64"`
	MovieID   string    `gorm:"primaryKey;size:64;index:idx_reviews_movie_id"`
	Body      string    `gorm:"column:review;not null;type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_reviews_created_at"`
	Edited    bool      `gorm:"not null;default:false"`

	// Foreign keys
	User  User  `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Movie Movie `gorm:"foreignKey:MovieID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the table name
func (Review) TableName() string {
	return "reviews"
}

// rankedMovie is a movie row with its review count from the ranking queries.
type rankedMovie struct {
	Movie
	ReviewCount int64
}
