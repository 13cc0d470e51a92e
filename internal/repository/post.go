package repository

import (
	"context"

	"journal/internal/cache"
	"journal/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

// editableColumns are the only columns an edit may touch; author and date are fixed at creation.
var editableColumns = []string{"title", "subtitle", "body", "img_url", "updated_at"}

type postRepository struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewPostRepository creates a new post repository. cache may be nil.
func NewPostRepository(db *gorm.DB, cache *cache.Store) PostRepository {
	return &postRepository{db: db, cache: cache}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return translateError(err, "Post", post.Title)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		return withCommentCount(r.db.WithContext(ctx)).
			Preload("Author").
			First(&post, id).Error
	})
	if err != nil {
		return nil, translateError(err, "Post", id)
	}
	return &post, nil
}

// List returns every post in insertion order.
func (r *postRepository) List(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := withCommentCount(r.db.WithContext(ctx)).
		Preload("Author").
		Order("posts.id ASC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Update writes the editable columns of post.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Model(post).Select(editableColumns).Updates(post)
	if res.Error != nil {
		return translateError(res.Error, "Post", post.ID)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	r.cache.Invalidate(ctx, cache.PostKey(post.ID))
	return nil
}

// Delete removes the post and its comments in one transaction.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
	if err != nil {
		return translateError(err, "Post", id)
	}
	r.cache.Invalidate(ctx, cache.PostKey(id))
	return nil
}

// withCommentCount selects the post columns plus a computed comments_count.
func withCommentCount(db *gorm.DB) *gorm.DB {
	return db.Select("posts.*, (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count")
}
