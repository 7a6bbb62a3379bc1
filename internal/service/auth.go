package service

import (
	"context"
	"errors"
	"net/http"

	"moviereview/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

const afterLogin = "/user/profile"

// AuthService handles registration, login and logout
type AuthService struct {
	userUC *biz.UserUseCase
	sm     *SessionManager
	render *Renderer
	log    *log.Helper
}

type registerPage struct {
	Username string
	Email    string
}

type loginPage struct {
	Email string
}

// NewAuthService creates a new AuthService
func NewAuthService(userUC *biz.UserUseCase, sm *SessionManager, render *Renderer, logger log.Logger) *AuthService {
	return &AuthService{
		userUC: userUC,
		sm:     sm,
		render: render,
		log:    log.NewHelper(logger),
	}
}

func (s *AuthService) RegisterForm(ctx khttp.Context) error {
	return serve(ctx, OperationRegisterForm, func(c context.Context) error {
		if IdentityFrom(c) != nil {
			return redirect(ctx, afterLogin)
		}
		return s.render.page(ctx, s.sm, http.StatusOK, "register.html", "Register", &registerPage{})
	})
}

// Register creates the account and sends the new user to the login form
func (s *AuthService) Register(ctx khttp.Context) error {
	return serve(ctx, OperationRegister, func(c context.Context) error {
		if IdentityFrom(c) != nil {
			return redirect(ctx, afterLogin)
		}

		form := ctx.Form()
		in := &biz.RegisterInput{
			Username:        form.Get("username"),
			Email:           form.Get("email"),
			Password:        form.Get("password"),
			ConfirmPassword: form.Get("confirmPassword"),
		}
		page := &registerPage{Username: in.Username, Email: in.Email}

		if _, err := s.userUC.Register(c, in); err != nil {
			if msgs, ok := validationMessages(err); ok {
				return s.render.page(ctx, s.sm, http.StatusBadRequest, "register.html", "Register", page, msgs...)
			}
			return err
		}

		if err := s.sm.Flash(ctx.Response(), ctx.Request(), "Registration successful! You can now log in."); err != nil {
			return err
		}
		return redirect(ctx, "/auth/login")
	})
}

func (s *AuthService) LoginForm(ctx khttp.Context) error {
	return serve(ctx, OperationLoginForm, func(c context.Context) error {
		if IdentityFrom(c) != nil {
			return redirect(ctx, afterLogin)
		}
		return s.render.page(ctx, s.sm, http.StatusOK, "login.html", "Login", &loginPage{})
	})
}

// Login checks the credentials and sends the user back where they were headed
func (s *AuthService) Login(ctx khttp.Context) error {
	return serve(ctx, OperationLogin, func(c context.Context) error {
		if IdentityFrom(c) != nil {
			return redirect(ctx, afterLogin)
		}

		form := ctx.Form()
		in := &biz.LoginInput{
			Email:    form.Get("email"),
			Password: form.Get("password"),
		}
		page := &loginPage{Email: in.Email}

		user, err := s.userUC.Authenticate(c, in)
		if msgs, ok := validationMessages(err); ok {
			return s.render.page(ctx, s.sm, http.StatusBadRequest, "login.html", "Login", page, msgs...)
		}
		if errors.Is(err, biz.ErrInvalidCredentials) {
			return s.render.page(ctx, s.sm, http.StatusUnauthorized, "login.html", "Login", page, biz.ErrInvalidCredentials.Message)
		}
		if err != nil {
			return err
		}

		returnTo, err := s.sm.Login(ctx.Response(), ctx.Request(), user)
		if err != nil {
			return err
		}
		s.log.Infof("user %s logged in", user.ID)

		if returnTo == "" {
			returnTo = afterLogin
		}
		return redirect(ctx, returnTo)
	})
}

func (s *AuthService) Logout(ctx khttp.Context) error {
	return serve(ctx, OperationLogout, func(c context.Context) error {
		if err := s.sm.Logout(ctx.Response(), ctx.Request()); err != nil {
			s.log.Errorf("failed to destroy session: %v", err)
		}
		return redirect(ctx, "/")
	})
}
