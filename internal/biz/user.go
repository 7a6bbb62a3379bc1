package biz

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost = 10

	// MaxProfileImageSize is the largest accepted upload in bytes.
	MaxProfileImageSize = 2 << 20
)

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

var imageExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
}

const imagesOnly = "Error: Images Only (jpeg, jpg, png, gif)!"

// UserUseCase handles registration, login and profile settings
type UserUseCase struct {
	repo UserRepo
	log  *log.Helper
}

// NewUserUseCase creates a new UserUseCase instance
func NewUserUseCase(repo UserRepo, logger log.Logger) *UserUseCase {
	return &UserUseCase{
		repo: repo,
		log:  log.NewHelper(logger),
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates the form, checks that username and email are free and creates the user.
func (uc *UserUseCase) Register(ctx context.Context, in *RegisterInput) (*User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = NormalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	taken, err := uc.repo.UsernameExists(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		verr.Fields = append(verr.Fields, FieldError{Field: "username", Message: "Username is already taken"})
	}
	taken, err = uc.repo.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		verr.Fields = append(verr.Fields, FieldError{Field: "email", Message: "Email is already registered"})
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	userID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user ID: %w", err)
	}

	user := &User{
		ID:           userID.String(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
	}
	if err := uc.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	uc.log.Infof("registered user %s", user.Username)

	return user, nil
}

// Authenticate checks an email and password pair. Unknown email and wrong
// password both return ErrInvalidCredentials.
func (uc *UserUseCase) Authenticate(ctx context.Context, in *LoginInput) (*User, error) {
	in.Email = NormalizeEmail(in.Email)
	in.Password = strings.TrimSpace(in.Password)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	user, err := uc.repo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by id
func (uc *UserUseCase) GetUser(ctx context.Context, id string) (*User, error) {
	return uc.repo.GetUser(ctx, id)
}

// UpdateUsername renames the caller. Keeping the current name is a no-op.
func (uc *UserUseCase) UpdateUsername(ctx context.Context, who *Identity, username string) (*User, error) {
	if who == nil {
		return nil, ErrUnauthenticated
	}

	user, err := uc.repo.GetUser(ctx, who.ID)
	if err != nil {
		return nil, err
	}

	username = strings.TrimSpace(username)
	if username == "" || username == user.Username {
		return user, nil
	}

	in := &struct {
		Username string `form:"username" validate:"required,min=3,max=20,alphanum"`
	}{Username: username}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	taken, err := uc.repo.UsernameExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, NewValidationError("username", "Username is already taken")
	}

	return uc.repo.UpdateUsername(ctx, who.ID, username)
}

// UploadProfileImage replaces the caller's profile image. The upload must be a
// jpeg, png or gif by extension, declared type and content, at most MaxProfileImageSize.
func (uc *UserUseCase) UploadProfileImage(ctx context.Context, who *Identity, upload *ImageUpload) (*ProfileImage, error) {
	if who == nil {
		return nil, ErrUnauthenticated
	}

	if len(upload.Data) > MaxProfileImageSize {
		return nil, NewValidationError("profileImage", "File too large (maximum 2MB)")
	}
	if len(upload.Data) == 0 {
		return nil, NewValidationError("profileImage", imagesOnly)
	}

	ext := strings.ToLower(filepath.Ext(upload.Filename))
	declared := strings.ToLower(strings.TrimSpace(strings.SplitN(upload.ContentType, ";", 2)[0]))
	detected := mimetype.Detect(upload.Data).String()
	if !imageExtensions[ext] || !imageTypes[declared] || !imageTypes[detected] {
		return nil, NewValidationError("profileImage", imagesOnly)
	}

	image := &ProfileImage{
		UserID:      who.ID,
		Data:        upload.Data,
		ContentType: detected,
	}
	if err := uc.repo.UpsertProfileImage(ctx, image); err != nil {
		return nil, err
	}

	return image, nil
}

// GetProfileImage retrieves a user's profile image
func (uc *UserUseCase) GetProfileImage(ctx context.Context, userID string) (*ProfileImage, error) {
	return uc.repo.GetProfileImage(ctx, userID)
}
