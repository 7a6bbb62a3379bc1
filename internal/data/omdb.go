package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"moviereview/internal/biz"
	"moviereview/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/sony/gobreaker/v2"
)

const defaultOmdbTimeout = 5 * time.Second

// errLookupAbandoned marks a request cut short by the caller's own context.
var errLookupAbandoned = errors.New("lookup abandoned by caller")

type omdbClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	cb      *gobreaker.CircuitBreaker[*biz.MovieMetadata]
	log     *log.Helper
}

// omdbResponse is the subset of the OMDb title lookup we keep.
type omdbResponse struct {
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	Rated    string `json:"Rated"`
	Genre    string `json:"Genre"`
	Plot     string `json:"Plot"`
	Poster   string `json:"Poster"`
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// NewOmdbClient creates a new OMDb API client
func NewOmdbClient(c *conf.Omdb, logger log.Logger) biz.MovieMetadataClient {
	l := log.NewHelper(logger)

	timeout := c.Timeout.AsDuration()
	if timeout <= 0 {
		timeout = defaultOmdbTimeout
	}

	oc := &omdbClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(c.Url, "/"),
		apiKey:  c.ApiKey,
		log:     l,
	}

	oc.cb = gobreaker.NewCircuitBreaker[*biz.MovieMetadata](gobreaker.Settings{
		Name:        "omdb",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// a title the database does not know is an answer, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, biz.ErrMovieNotFound)
		},
		// a caller giving up says nothing about the upstream
		IsExcluded: func(err error) bool {
			return errors.Is(err, errLookupAbandoned)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warnf("circuit breaker %s: %s -> %s", name, from, to)
			breakerState.Set(float64(to))
		},
	})

	return oc
}

// FetchMovie looks a single title up. No retries: one lookup, one request.
func (c *omdbClient) FetchMovie(ctx context.Context, title string, year *int) (*biz.MovieMetadata, error) {
	meta, err := c.cb.Execute(func() (*biz.MovieMetadata, error) {
		return c.doRequest(ctx, title, year)
	})
	switch {
	case err == nil:
		omdbRequests.WithLabelValues("found").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		omdbRequests.WithLabelValues("rejected").Inc()
		return nil, biz.UpstreamError("omdb lookup rejected: %w", err)
	case errors.Is(err, errLookupAbandoned):
		omdbRequests.WithLabelValues("abandoned").Inc()
	case errors.Is(err, biz.ErrMovieNotFound):
		omdbRequests.WithLabelValues("not_found").Inc()
	default:
		omdbRequests.WithLabelValues("error").Inc()
	}
	return meta, err
}

func (c *omdbClient) doRequest(ctx context.Context, title string, year *int) (*biz.MovieMetadata, error) {
	start := time.Now()
	defer func() { omdbLatency.Observe(time.Since(start).Seconds()) }()

	query := url.Values{}
	query.Set("apikey", c.apiKey)
	query.Set("t", title)
	if year != nil {
		query.Set("y", strconv.Itoa(*year))
	}
	endpoint := fmt.Sprintf("%s/?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, biz.UpstreamError("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, biz.UpstreamError("%w: %w", errLookupAbandoned, err)
		}
		return nil, biz.UpstreamError("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, biz.UpstreamError("unexpected status code: %d", resp.StatusCode)
	}

	var response omdbResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		if ctx.Err() != nil {
			return nil, biz.UpstreamError("%w: %w", errLookupAbandoned, err)
		}
		return nil, biz.UpstreamError("failed to decode response: %w", err)
	}

	if response.Response != "True" {
		msg := response.Error
		if msg == "" {
			msg = "negative response"
		}
		c.log.Infof("omdb has no match for '%s': %s", title, msg)
		return nil, biz.ErrMovieNotFound.WithCause(errors.New(msg))
	}
	if strings.TrimSpace(response.Title) == "" {
		return nil, biz.UpstreamError("response without title")
	}

	return &biz.MovieMetadata{
		Title:  strings.TrimSpace(response.Title),
		Year:   parseYear(response.Year),
		Rating: optional(response.Rated),
		Genre:  optional(response.Genre),
		Plot:   optional(response.Plot),
		Poster: optional(response.Poster),
	}, nil
}

// parseYear reads the leading digits of an OMDb year such as "2010" or "2010–2015".
func parseYear(s string) *int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return nil
	}
	year, err := strconv.Atoi(s[:end])
	if err != nil {
		return nil
	}
	return &year
}

// optional maps OMDb's empty and "N/A" values to nil.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return nil
	}
	return &s
}
