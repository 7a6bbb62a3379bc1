package server

import (
	"moviereview/internal/conf"
	"moviereview/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(
	c *conf.Server,
	sm *service.SessionManager,
	render *service.Renderer,
	movieSvc *service.MovieService,
	reviewSvc *service.ReviewService,
	authSvc *service.AuthService,
	userSvc *service.UserService,
	logger log.Logger,
) *khttp.Server {
	var opts = []khttp.ServerOption{
		khttp.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
			AuthMiddleware(service.ProtectedOperations...),
		),
		khttp.Filter(sm.Load),
		khttp.ErrorEncoder(errorEncoder(sm, render)),
		khttp.NotFoundHandler(render.NotFound()),
	}
	if c.Http != nil {
		if c.Http.Network != "" {
			opts = append(opts, khttp.Network(c.Http.Network))
		}
		if c.Http.Addr != "" {
			opts = append(opts, khttp.Address(c.Http.Addr))
		}
		if c.Http.Timeout != nil {
			opts = append(opts, khttp.Timeout(c.Http.Timeout.AsDuration()))
		}
	}
	srv := khttp.NewServer(opts...)

	srv.Handle("/metrics", promhttp.Handler())

	r := srv.Route("/")
	r.GET("/", movieSvc.Home)
	r.GET("/about", movieSvc.About)
	r.GET("/healthz", movieSvc.Health)

	r.GET("/auth/register", authSvc.RegisterForm)
	r.POST("/auth/register", authSvc.Register)
	r.GET("/auth/login", authSvc.LoginForm)
	r.POST("/auth/login", authSvc.Login)
	r.GET("/auth/logout", authSvc.Logout)

	r.GET("/movies", movieSvc.Search)
	r.POST("/movies/lookup", movieSvc.Lookup)
	r.GET("/movies/{id}", movieSvc.Detail)
	r.POST("/movies/{id}/review", reviewSvc.Submit)
	r.DELETE("/movies/{id}", reviewSvc.Delete)

	r.GET("/user/profile", userSvc.Profile)
	r.GET("/user/settings", userSvc.SettingsForm)
	r.POST("/user/settings", userSvc.Settings)
	r.GET("/user/profile-image", userSvc.ProfileImage)
	r.GET("/user/profile-image/{userId}", userSvc.UserProfileImage)

	return srv
}
