package service

import (
	"context"
	"errors"
	"io"
	"net/http"

	"moviereview/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// multipart overhead allowed on top of the image itself
const formOverhead = 64 << 10

// UserService serves the profile and settings pages
type UserService struct {
	userUC   *biz.UserUseCase
	reviewUC *biz.ReviewUseCase
	sm       *SessionManager
	render   *Renderer
	log      *log.Helper
}

type profilePage struct {
	User    *biz.User
	Reviews []*biz.Review
}

type settingsPage struct {
	User *biz.User
}

// NewUserService creates a new UserService
func NewUserService(userUC *biz.UserUseCase, reviewUC *biz.ReviewUseCase, sm *SessionManager, render *Renderer, logger log.Logger) *UserService {
	return &UserService{
		userUC:   userUC,
		reviewUC: reviewUC,
		sm:       sm,
		render:   render,
		log:      log.NewHelper(logger),
	}
}

// Profile shows the caller's account and reviews
func (s *UserService) Profile(ctx khttp.Context) error {
	return serve(ctx, OperationProfile, func(c context.Context) error {
		who := IdentityFrom(c)
		user, err := s.userUC.GetUser(c, who.ID)
		if err != nil {
			return err
		}
		reviews, err := s.reviewUC.ListByUser(c, who)
		if err != nil {
			return err
		}
		return s.render.page(ctx, s.sm, http.StatusOK, "profile.html", "Profile", &profilePage{User: user, Reviews: reviews})
	})
}

func (s *UserService) SettingsForm(ctx khttp.Context) error {
	return serve(ctx, OperationSettingsForm, func(c context.Context) error {
		user, err := s.userUC.GetUser(c, IdentityFrom(c).ID)
		if err != nil {
			return err
		}
		return s.render.page(ctx, s.sm, http.StatusOK, "settings.html", "Settings", &settingsPage{User: user})
	})
}

// Settings applies a username change and an optional profile image upload
func (s *UserService) Settings(ctx khttp.Context) error {
	return serve(ctx, OperationSettings, func(c context.Context) error {
		w, r := ctx.Response(), ctx.Request()
		who := IdentityFrom(c)

		user, err := s.userUC.GetUser(c, who.ID)
		if err != nil {
			return err
		}
		page := &settingsPage{User: user}

		r.Body = http.MaxBytesReader(w, r.Body, biz.MaxProfileImageSize+formOverhead)
		if err := r.ParseMultipartForm(biz.MaxProfileImageSize + formOverhead); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return s.render.page(ctx, s.sm, http.StatusBadRequest, "settings.html", "Settings", page, "File too large (maximum 2MB)")
			}
			return s.render.page(ctx, s.sm, http.StatusBadRequest, "settings.html", "Settings", page, "File upload error")
		}

		updated, err := s.userUC.UpdateUsername(c, who, r.FormValue("username"))
		if msgs, ok := validationMessages(err); ok {
			return s.render.page(ctx, s.sm, http.StatusBadRequest, "settings.html", "Settings", page, msgs...)
		}
		if err != nil {
			return err
		}
		page.User = updated
		if updated.Username != who.Username {
			if err := s.sm.SetUsername(w, r, updated.Username); err != nil {
				return err
			}
			who.Username = updated.Username
		}

		upload, err := readUpload(r)
		if err != nil {
			return s.render.page(ctx, s.sm, http.StatusBadRequest, "settings.html", "Settings", page, "File upload error")
		}
		if upload != nil {
			if _, err := s.userUC.UploadProfileImage(c, who, upload); err != nil {
				if msgs, ok := validationMessages(err); ok {
					return s.render.page(ctx, s.sm, http.StatusBadRequest, "settings.html", "Settings", page, msgs...)
				}
				s.log.Errorf("failed to save profile image: %v", err)
				return s.render.page(ctx, s.sm, http.StatusInternalServerError, "settings.html", "Settings", page, "Error saving profile image")
			}
			page.User.HasProfileImage = true
		}

		return s.render.HTML(w, http.StatusOK, "settings.html", &View{
			Title:   "Settings",
			Path:    r.URL.Path,
			User:    who,
			Flashes: []string{"Settings updated successfully"},
			Data:    page,
		})
	})
}

// readUpload returns the profileImage part, nil when none was sent.
func readUpload(r *http.Request) (*biz.ImageUpload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile("profileImage")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if header.Filename == "" && header.Size == 0 {
		return nil, nil
	}

	data, err := io.ReadAll(io.LimitReader(file, biz.MaxProfileImageSize+1))
	if err != nil {
		return nil, err
	}
	return &biz.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// ProfileImage serves the caller's own image
func (s *UserService) ProfileImage(ctx khttp.Context) error {
	return serve(ctx, OperationProfileImage, func(c context.Context) error {
		return s.writeImage(ctx, c, IdentityFrom(c).ID)
	})
}

// UserProfileImage serves another user's image
func (s *UserService) UserProfileImage(ctx khttp.Context) error {
	return serve(ctx, OperationUserProfileImage, func(c context.Context) error {
		return s.writeImage(ctx, c, ctx.Vars().Get("userId"))
	})
}

func (s *UserService) writeImage(ctx khttp.Context, c context.Context, userID string) error {
	img, err := s.userUC.GetProfileImage(c, userID)
	if errors.Is(err, biz.ErrImageNotFound) {
		return ctx.String(http.StatusNotFound, "Image not found")
	}
	if err != nil {
		return err
	}
	ctx.Response().Header().Set("Cache-Control", "private, no-cache")
	return ctx.Blob(http.StatusOK, img.ContentType, img.Data)
}
