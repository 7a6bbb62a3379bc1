package service

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"moviereview/internal/biz"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "templates/layout.html"

const genericFailure = "Something went wrong on the server"

// View is the data every page template receives.
type View struct {
	Title   string
	Path    string
	User    *biz.Identity
	Flashes []string
	Errors  []string
	Data    interface{}
}

type errorPage struct {
	Status  int
	Message string
}

// Renderer turns plain records into HTML pages or JSON bodies.
type Renderer struct {
	pages map[string]*template.Template
	log   *log.Helper
}

var templateFuncs = template.FuncMap{
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"year": func(y *int) string {
		if y == nil {
			return ""
		}
		return strconv.Itoa(*y)
	},
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("January 2, 2006")
	},
	"currentYear": func() int { return time.Now().Year() },
	"isActive":    func(path, route string) bool { return path == route },
}

// NewRenderer parses every page together with the shared layout.
func NewRenderer(logger log.Logger) (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == layoutTemplate {
			continue
		}
		t, err := template.New(path.Base(layoutTemplate)).Funcs(templateFuncs).ParseFS(templateFS, layoutTemplate, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[path.Base(file)] = t
	}

	return &Renderer{
		pages: pages,
		log:   log.NewHelper(logger),
	}, nil
}

// HTML renders page into a buffer first so a template failure never leaves half a page.
func (r *Renderer) HTML(w http.ResponseWriter, status int, page string, v *View) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %s", page)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, path.Base(layoutTemplate), v); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// JSON writes v as a JSON body.
func (r *Renderer) JSON(w http.ResponseWriter, status int, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

// Error answers with an error page, or with {"success":false,"message":...} when the
// client asked for JSON. Server-side failures are logged and shown as a generic message.
func (r *Renderer) Error(w http.ResponseWriter, req *http.Request, err error) {
	se := errors.FromError(err)
	status := int(se.Code)
	message := se.Message

	if msgs, ok := validationMessages(err); ok {
		message = strings.Join(msgs, "; ")
	}
	if status >= http.StatusInternalServerError {
		r.log.Errorf("%s %s: %v", req.Method, req.URL.Path, err)
		message = genericFailure
	}

	if WantsJSON(req) {
		if err := r.JSON(w, status, map[string]interface{}{"success": false, "message": message}); err != nil {
			r.log.Errorf("failed to write error response: %v", err)
		}
		return
	}

	v := &View{
		Title: http.StatusText(status),
		Path:  req.URL.Path,
		User:  IdentityFrom(req.Context()),
		Data:  errorPage{Status: status, Message: message},
	}
	if err := r.HTML(w, status, "error.html", v); err != nil {
		r.log.Errorf("failed to render error page: %v", err)
		http.Error(w, message, status)
	}
}

// NotFound renders the error page for unknown routes.
func (r *Renderer) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.Error(w, req, errors.NotFound("PAGE_NOT_FOUND", "The page you requested could not be found."))
	})
}

// WantsJSON reports whether the caller is a script: an XMLHttpRequest, an Accept
// header mentioning json, or a DELETE (only ever issued from scripts).
func WantsJSON(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "json") {
		return true
	}
	return r.Method == http.MethodDelete
}

func (r *Renderer) page(ctx khttp.Context, sm *SessionManager, status int, page, title string, data interface{}, errs ...string) error {
	w, req := ctx.Response(), ctx.Request()
	flashes, queued := sm.TakeFlashes(w, req)
	v := &View{
		Title:   title,
		Path:    req.URL.Path,
		User:    IdentityFrom(req.Context()),
		Flashes: flashes,
		Errors:  append(queued, errs...),
		Data:    data,
	}
	return r.HTML(w, status, page, v)
}
