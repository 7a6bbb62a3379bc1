package data

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"moviereview/internal/biz"
	"moviereview/internal/conf"
)

func newTestOmdb(t *testing.T, handler http.HandlerFunc) (biz.MovieMetadataClient, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewOmdbClient(&conf.Omdb{
		Url:     srv.URL,
		ApiKey:  "test-key",
		Timeout: conf.NewDuration(time.Second),
	}, testLogger)
	return client, &calls
}

func TestOmdbFetchMovie(t *testing.T) {
	client, calls := newTestOmdb(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("apikey") != "test-key" || q.Get("t") != "My Neighbor Totoro" || q.Get("y") != "1988" {
			http.Error(w, "bad query "+r.URL.RawQuery, http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"Title":"My Neighbor Totoro","Year":"1988","Rated":"G","Genre":"Animation, Family",
			"Plot":"Two girls move to the country.","Poster":"https://img.example/totoro.jpg","Response":"True"}`)
	})

	meta, err := client.FetchMovie(context.Background(), "My Neighbor Totoro", intPtr(1988))
	if err != nil {
		t.Fatalf("FetchMovie: %v", err)
	}
	if meta.Title != "My Neighbor Totoro" || meta.Year == nil || *meta.Year != 1988 {
		t.Errorf("unexpected metadata: %+v", meta)
	}
	if meta.Rating == nil || *meta.Rating != "G" || meta.Poster == nil || *meta.Poster != "https://img.example/totoro.jpg" {
		t.Errorf("unexpected optional fields: %+v", meta)
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Errorf("expected exactly one request, got %d", *calls)
	}
}

func TestOmdbMissingFieldsBecomeNil(t *testing.T) {
	client, _ := newTestOmdb(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Title":"Obscure","Year":"N/A","Rated":"N/A","Genre":"","Plot":"N/A","Poster":"N/A","Response":"True"}`)
	})

	meta, err := client.FetchMovie(context.Background(), "Obscure", nil)
	if err != nil {
		t.Fatalf("FetchMovie: %v", err)
	}
	if meta.Year != nil || meta.Rating != nil || meta.Genre != nil || meta.Plot != nil || meta.Poster != nil {
		t.Errorf("expected nil fields, got %+v", meta)
	}
}

func TestOmdbFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "negative response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"Response":"False","Error":"Movie not found!"}`)
			},
			want: biz.ErrMovieNotFound,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			want: biz.ErrUpstream,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `<html>`)
			},
			want: biz.ErrUpstream,
		},
		{
			name: "no title",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"Response":"True"}`)
			},
			want: biz.ErrUpstream,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, calls := newTestOmdb(t, tt.handler)
			_, err := client.FetchMovie(context.Background(), "Definitely Not A Real Movie 12345", nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if atomic.LoadInt32(calls) != 1 {
				t.Errorf("failures are not retried, got %d requests", *calls)
			}
		})
	}
}

func TestOmdbBreakerOpensAfterFailures(t *testing.T) {
	client, calls := newTestOmdb(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 8; i++ {
		if _, err := client.FetchMovie(context.Background(), "Up", nil); !errors.Is(err, biz.ErrUpstream) {
			t.Fatalf("call %d: got %v", i, err)
		}
	}
	if got := atomic.LoadInt32(calls); got != 5 {
		t.Errorf("breaker should stop requests after five failures, server saw %d", got)
	}
}

func TestOmdbNegativeAnswersKeepBreakerClosed(t *testing.T) {
	client, calls := newTestOmdb(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Response":"False","Error":"Movie not found!"}`)
	})

	for i := 0; i < 8; i++ {
		client.FetchMovie(context.Background(), "Nothing", nil)
	}
	if got := atomic.LoadInt32(calls); got != 8 {
		t.Errorf("server saw %d requests, want 8", got)
	}
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		in   string
		want *int
	}{
		{"2010", intPtr(2010)},
		{"2010–2015", intPtr(2010)},
		{" 1999 ", intPtr(1999)},
		{"N/A", nil},
		{"", nil},
	}
	for _, tt := range tests {
		got := parseYear(tt.in)
		if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
			t.Errorf("parseYear(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOmdbAbandonedLookupsKeepBreakerClosed(t *testing.T) {
	client, calls := newTestOmdb(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(50 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		fmt.Fprint(w, `{"Title":"Suzume","Year":"2022","Response":"True"}`)
	})

	for i := 0; i < 6; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		_, err := client.FetchMovie(ctx, "Suzume", nil)
		cancel()
		if !errors.Is(err, biz.ErrUpstream) || !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("call %d: got %v, want an upstream error caused by the deadline", i, err)
		}
	}

	meta, err := client.FetchMovie(context.Background(), "Suzume", nil)
	if err != nil {
		t.Fatalf("healthy upstream rejected after abandoned lookups: %v", err)
	}
	if meta.Title != "Suzume" {
		t.Errorf("unexpected title %q", meta.Title)
	}
	if got := atomic.LoadInt32(calls); got < 1 {
		t.Errorf("server saw %d requests", got)
	}
}
