package server

import (
	"context"
	"net/http"

	"moviereview/internal/biz"
	"moviereview/internal/service"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// AuthMiddleware rejects anonymous callers of the protected operations
func AuthMiddleware(protected ...string) middleware.Middleware {
	ops := make(map[string]struct{}, len(protected))
	for _, op := range protected {
		ops[op] = struct{}{}
	}

	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			// Get transport info
			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return nil, errors.Unauthorized("UNAUTHORIZED", "missing transport info")
			}

			if _, ok := ops[tr.Operation()]; ok && service.IdentityFrom(ctx) == nil {
				return nil, biz.ErrUnauthenticated
			}

			return handler(ctx, req)
		}
	}
}

// errorEncoder sends anonymous page visitors to the login form and renders every
// other failure as an error page or a JSON body.
func errorEncoder(sm *service.SessionManager, render *service.Renderer) khttp.EncodeErrorFunc {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		if errors.Is(err, biz.ErrUnauthenticated) && !service.WantsJSON(r) {
			if r.Method == http.MethodGet {
				// Store the URL they were trying to access
				if err := sm.SetReturnTo(w, r, r.URL.RequestURI()); err != nil {
					render.Error(w, r, err)
					return
				}
			}
			http.Redirect(w, r, "/auth/login", http.StatusFound)
			return
		}
		render.Error(w, r, err)
	}
}
