// Package repository implements the data access layer for the application.
package repository

import (
	"context"

	"journal/internal/cache"
	"journal/internal/models"
	"journal/internal/validation"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
	SetRole(ctx context.Context, id uint, role models.Role) error
	UpdatePassword(ctx context.Context, id uint, credential string) error
	Delete(ctx context.Context, id uint) error
}

type userRepository struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewUserRepository returns a new UserRepository implementation. cache may be nil.
func NewUserRepository(db *gorm.DB, cache *cache.Store) UserRepository {
	return &userRepository{db: db, cache: cache}
}

// Create inserts user with a normalized email. The very first account
// becomes the admin; every later one is a member.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = validation.NormalizeEmail(user.Email)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Postgres serializes concurrent registrations here so only one of
		// them can count zero users. SQLite runs on a single connection.
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
				return err
			}
		}

		var existing int64
		if err := tx.Model(&models.User{}).Count(&existing).Error; err != nil {
			return err
		}
		if existing == 0 {
			user.Role = models.RoleAdmin
		} else if !user.Role.Valid() {
			user.Role = models.RoleMember
		}
		return tx.Create(user).Error
	})
	return translateError(err, "User", user.Email)
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateError(err, "User", id)
	}
	return &user, nil
}

// GetByEmail returns a NOT_FOUND AppError when no account uses email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = validation.NormalizeEmail(email)

	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateError(err, "User", email)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Where("role = ?", role).Order("id ASC").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) SetRole(ctx context.Context, id uint, role models.Role) error {
	if !role.Valid() {
		return models.NewValidationError("Unknown role " + string(role))
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return translateError(res.Error, "User", id)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

// UpdatePassword replaces the stored credential, e.g. after a rehash on login.
func (r *userRepository) UpdatePassword(ctx context.Context, id uint, credential string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password", credential)
	if res.Error != nil {
		return translateError(res.Error, "User", id)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

// Delete removes the user together with their sessions, their comments,
// their posts and every comment on those posts, all in one transaction.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	var postIDs, commentedPostIDs []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).Where("author_id = ?", id).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).Where("author_id = ?", id).Distinct().Pluck("post_id", &commentedPostIDs).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", postIDs).Delete(&models.Post{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Session{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("User", id)
		}
		return nil
	})
	if err != nil {
		return translateError(err, "User", id)
	}

	keys := make([]string, 0, len(postIDs)+len(commentedPostIDs))
	for _, postID := range append(postIDs, commentedPostIDs...) {
		keys = append(keys, cache.PostKey(postID))
	}
	r.cache.Invalidate(ctx, keys...)
	return nil
}
