package data

import (
	"context"
	"errors"

	"moviereview/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepo struct {
	data *Data
	log  *log.Helper
}

// NewUserRepo creates a new user repository
func NewUserRepo(data *Data, logger log.Logger) biz.UserRepo {
	return &userRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *userRepo) CreateUser(ctx context.Context, user *biz.User) error {
	dbUser := &User{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
	}
	if err := r.data.db.WithContext(ctx).Create(dbUser).Error; err != nil {
		return biz.StorageError(err)
	}
	user.CreatedAt = dbUser.CreatedAt
	return nil
}

func (r *userRepo) GetUser(ctx context.Context, id string) (*biz.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (*biz.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *userRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *userRepo) UpdateUsername(ctx context.Context, id, username string) (*biz.User, error) {
	result := r.data.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update("username", username)
	if result.Error != nil {
		return nil, biz.StorageError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, biz.ErrUserNotFound
	}
	return r.GetUser(ctx, id)
}

// UpsertProfileImage replaces the image and sets the user's flag in one transaction.
func (r *userRepo) UpsertProfileImage(ctx context.Context, image *biz.ProfileImage) error {
	err := r.data.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbImage := &ProfileImage{
			UserID:      image.UserID,
			Data:        image.Data,
			ContentType: image.ContentType,
		}
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "content_type", "updated_at"}),
		}).Create(dbImage).Error
		if err != nil {
			return err
		}
		image.UpdatedAt = dbImage.UpdatedAt

		return tx.Model(&User{}).Where("id = ?", image.UserID).Update("has_profile_image", true).Error
	})
	if err != nil {
		return biz.StorageError(err)
	}
	return nil
}

func (r *userRepo) GetProfileImage(ctx context.Context, userID string) (*biz.ProfileImage, error) {
	var dbImage ProfileImage
	if err := r.data.db.WithContext(ctx).Where("user_id = ?", userID).First(&dbImage).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrImageNotFound
		}
		return nil, biz.StorageError(err)
	}
	if len(dbImage.Data) == 0 {
		return nil, biz.ErrImageNotFound
	}
	return &biz.ProfileImage{
		UserID:      dbImage.UserID,
		Data:        dbImage.Data,
		ContentType: dbImage.ContentType,
		UpdatedAt:   dbImage.UpdatedAt,
	}, nil
}

func (r *userRepo) first(ctx context.Context, query string, arg interface{}) (*biz.User, error) {
	var dbUser User
	if err := r.data.db.WithContext(ctx).Where(query, arg).First(&dbUser).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrUserNotFound
		}
		return nil, biz.StorageError(err)
	}
	return &biz.User{
		ID:              dbUser.ID,
		Username:        dbUser.Username,
		Email:           dbUser.Email,
		PasswordHash:    dbUser.PasswordHash,
		HasProfileImage: dbUser.HasProfileImage,
		CreatedAt:       dbUser.CreatedAt,
	}, nil
}

func (r *userRepo) exists(ctx context.Context, query string, arg interface{}) (bool, error) {
	var count int64
	if err := r.data.db.WithContext(ctx).Model(&User{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, biz.StorageError(err)
	}
	return count > 0, nil
}
