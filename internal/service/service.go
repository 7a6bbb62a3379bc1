package service

import (
	"context"
	stderrors "errors"
	"net/http"

	"moviereview/internal/biz"

	"github.com/google/wire"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(
	NewRenderer,
	NewSessionManager,
	NewMovieService,
	NewReviewService,
	NewAuthService,
	NewUserService,
)

// Operation names, as reported by the request logger and matched by the auth middleware.
const (
	OperationHome             = "/moviereview.MovieService/Home"
	OperationAbout            = "/moviereview.MovieService/About"
	OperationSearch           = "/moviereview.MovieService/Search"
	OperationLookup           = "/moviereview.MovieService/Lookup"
	OperationMovieDetail      = "/moviereview.MovieService/Detail"
	OperationHealth           = "/moviereview.MovieService/Health"
	OperationSubmitReview     = "/moviereview.ReviewService/Submit"
	OperationDeleteReview     = "/moviereview.ReviewService/Delete"
	OperationRegisterForm     = "/moviereview.AuthService/RegisterForm"
	OperationRegister         = "/moviereview.AuthService/Register"
	OperationLoginForm        = "/moviereview.AuthService/LoginForm"
	OperationLogin            = "/moviereview.AuthService/Login"
	OperationLogout           = "/moviereview.AuthService/Logout"
	OperationProfile          = "/moviereview.UserService/Profile"
	OperationSettingsForm     = "/moviereview.UserService/SettingsForm"
	OperationSettings         = "/moviereview.UserService/Settings"
	OperationProfileImage     = "/moviereview.UserService/ProfileImage"
	OperationUserProfileImage = "/moviereview.UserService/UserProfileImage"
)

// ProtectedOperations require a logged in user.
var ProtectedOperations = []string{
	OperationSubmitReview,
	OperationDeleteReview,
	OperationProfile,
	OperationSettingsForm,
	OperationSettings,
	OperationProfileImage,
	OperationUserProfileImage,
}

// serve runs fn inside the server middleware chain (recovery, logging, auth).
func serve(ctx khttp.Context, operation string, fn func(context.Context) error) error {
	khttp.SetOperation(ctx, operation)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return nil, fn(c)
	})
	_, err := h(ctx, nil)
	return err
}

// validationMessages returns the field messages of a validation failure.
func validationMessages(err error) ([]string, bool) {
	var ve *biz.ValidationError
	if stderrors.As(err, &ve) {
		return ve.Messages(), true
	}
	return nil, false
}

func redirect(ctx khttp.Context, url string) error {
	http.Redirect(ctx.Response(), ctx.Request(), url, http.StatusFound)
	return nil
}
