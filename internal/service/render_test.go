package service

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"moviereview/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
)

var testLogger = log.NewStdLogger(io.Discard)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(testLogger)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func TestNewRendererParsesEveryPage(t *testing.T) {
	r := newTestRenderer(t)
	for _, page := range []string{"index.html", "about.html", "search.html", "movie.html", "login.html",
		"register.html", "profile.html", "settings.html", "error.html"} {
		if _, ok := r.pages[page]; !ok {
			t.Errorf("page %s not loaded", page)
		}
	}
	if _, ok := r.pages["layout.html"]; ok {
		t.Error("the layout is not a page")
	}
}

func TestWantsJSON(t *testing.T) {
	tests := []struct {
		name   string
		method string
		header map[string]string
		want   bool
	}{
		{"plain page", http.MethodGet, nil, false},
		{"browser accept", http.MethodGet, map[string]string{"Accept": "text/html,application/xhtml+xml"}, false},
		{"json accept", http.MethodGet, map[string]string{"Accept": "application/json"}, true},
		{"xhr", http.MethodPost, map[string]string{"X-Requested-With": "XMLHttpRequest"}, true},
		{"delete", http.MethodDelete, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			if got := WantsJSON(req); got != tt.want {
				t.Errorf("WantsJSON = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRendererError(t *testing.T) {
	r := newTestRenderer(t)

	tests := []struct {
		name        string
		err         error
		accept      string
		wantStatus  int
		wantMessage string
	}{
		{"not found page", biz.ErrMovieNotFound, "", http.StatusNotFound, "movie not found"},
		{"not found json", biz.ErrMovieNotFound, "application/json", http.StatusNotFound, "movie not found"},
		{"validation json", biz.NewValidationError("review", "Review text is required"), "application/json",
			422, "Review text is required"},
		{"storage details hidden", biz.StorageError(io.ErrUnexpectedEOF), "application/json",
			http.StatusInternalServerError, genericFailure},
		{"plain errors are server failures", io.EOF, "", http.StatusInternalServerError, genericFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/movies/x", nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			rec := httptest.NewRecorder()
			r.Error(rec, req, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.accept == "" {
				if !strings.Contains(rec.Header().Get("Content-Type"), "text/html") {
					t.Errorf("expected html, got %s", rec.Header().Get("Content-Type"))
				}
				if !strings.Contains(rec.Body.String(), tt.wantMessage) {
					t.Errorf("page does not mention %q", tt.wantMessage)
				}
				return
			}

			var body struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Success || body.Message != tt.wantMessage {
				t.Errorf("unexpected body: %+v", body)
			}
		})
	}
}

func TestRendererHTMLUnknownPage(t *testing.T) {
	r := newTestRenderer(t)
	rec := httptest.NewRecorder()
	if err := r.HTML(rec, http.StatusOK, "missing.html", &View{}); err == nil {
		t.Fatal("expected an error for an unknown page")
	}
	if rec.Body.Len() != 0 {
		t.Error("nothing should be written on failure")
	}
}

func TestRendererEscapesContent(t *testing.T) {
	r := newTestRenderer(t)
	rec := httptest.NewRecorder()
	err := r.HTML(rec, http.StatusOK, "movie.html", &View{
		Title: "x",
		Data: &moviePage{
			Movie:   &biz.Movie{ID: "m1", Title: "Safe"},
			Reviews: []*biz.Review{{Username: "eve", Body: "<script>alert(1)</script>"}},
		},
	})
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if strings.Contains(rec.Body.String(), "<script>alert(1)</script>") {
		t.Error("review text must be escaped")
	}
}
