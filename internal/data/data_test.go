package data

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"moviereview/internal/biz"
	"moviereview/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
)

var testLogger = log.NewStdLogger(io.Discard)

// newTestData opens a private in-memory sqlite database with foreign keys on.
func newTestData(t *testing.T) *Data {
	t.Helper()
	d, cleanup, err := NewData(&conf.Data{
		Database: &conf.Data_Database{
			Driver: "sqlite",
			Source: ":memory:?_pragma=foreign_keys(1)",
		},
	}, testLogger)
	if err != nil {
		t.Fatalf("NewData: %v", err)
	}
	t.Cleanup(cleanup)
	return d
}

func seedUser(t *testing.T, d *Data, id, username string) {
	t.Helper()
	err := d.db.Create(&User{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}).Error
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
}

func seedMovie(t *testing.T, d *Data, id, title string, year *int) {
	t.Helper()
	if err := d.db.Create(&Movie{ID: id, Title: title, Year: year}).Error; err != nil {
		t.Fatalf("seed movie %s: %v", title, err)
	}
}

func seedReview(t *testing.T, d *Data, userID, movieID string, at time.Time) {
	t.Helper()
	err := d.db.Omit("User", "Movie").Create(&Review{
		UserID:    userID,
		MovieID:   movieID,
		Body:      "a review long enough",
		CreatedAt: at,
	}).Error
	if err != nil {
		t.Fatalf("seed review %s/%s: %v", userID, movieID, err)
	}
}

func intPtr(v int) *int { return &v }

func TestNewDataUnsupportedDriver(t *testing.T) {
	_, _, err := NewData(&conf.Data{
		Database: &conf.Data_Database{Driver: "oracle", Source: "x"},
	}, testLogger)
	if err == nil {
		t.Fatal("expected an error for an unknown driver")
	}
}

func TestDataPing(t *testing.T) {
	d := newTestData(t)
	if err := d.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if d.rdb != nil {
		t.Fatal("redis should stay disabled without an address")
	}
}

func TestStorageErrorsAreTagged(t *testing.T) {
	d := newTestData(t)
	repo := NewMovieRepo(d, testLogger)

	sqlDB, err := d.db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.Close()

	_, err = repo.GetMovie(context.Background(), "anything")
	if !errors.Is(err, biz.ErrStorage) {
		t.Fatalf("expected a storage error, got %v", err)
	}
}
