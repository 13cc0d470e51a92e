// Package seed populates a database with demo data for development.
// Everything goes through the services, so seeded data obeys the same
// rules as data created over HTTP.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"journal/internal/auth"
	"journal/internal/authz"
	"journal/internal/cache"
	"journal/internal/middleware"
	"journal/internal/models"
	"journal/internal/repository"
	"journal/internal/service"
	"journal/internal/session"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options control what Run creates.
type Options struct {
	AdminName       string
	AdminEmail      string
	Password        string
	Users           int
	Posts           int
	CommentsPerPost int
	// RandSeed makes the fake content reproducible; 0 picks a random seed.
	RandSeed int64
}

// DefaultOptions is a small blog: one admin, a handful of readers.
func DefaultOptions() Options {
	return Options{
		AdminName:       "Demo Admin",
		AdminEmail:      "admin@journal.local",
		Password:        "password123",
		Users:           5,
		Posts:           10,
		CommentsPerPost: 3,
	}
}

// Result lists what Run created (or found, for the admin).
type Result struct {
	Admin    *models.User
	Members  []*models.User
	Posts    []*models.Post
	Comments int
}

// Seeder writes demo users, posts and comments.
type Seeder struct {
	db       *gorm.DB
	users    repository.UserRepository
	auth     *service.AuthService
	posts    *service.PostService
	comments *service.CommentService
}

// NewSeeder builds a seeder over db. Seeding never uses Redis.
func NewSeeder(db *gorm.DB, hasher *auth.Hasher) *Seeder {
	store := cache.NewStore(nil)
	users := repository.NewUserRepository(db, store)
	posts := repository.NewPostRepository(db, store)
	comments := repository.NewCommentRepository(db, store)

	return &Seeder{
		db:       db,
		users:    users,
		auth:     service.NewAuthService(users, hasher, nil),
		posts:    service.NewPostService(posts, comments, authz.NewPolicy(false)),
		comments: service.NewCommentService(comments, posts, users),
	}
}

// ClearAll deletes every row the application owns, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Comment{}, &models.Post{}, &models.Session{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		return nil
	})
}

// Run creates the admin (or reuses an existing admin with the same email),
// opts.Users members, opts.Posts posts and opts.CommentsPerPost comments on
// each post.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(seed)

	admin, err := s.ensureAdmin(ctx, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{Admin: admin}

	for i := 0; i < opts.Users; i++ {
		email := fmt.Sprintf("%s.%d@example.com", strings.ToLower(faker.Username()), i+1)
		member, err := s.auth.Register(ctx, service.RegisterInput{
			Name:     faker.Name(),
			Email:    email,
			Password: opts.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", email, err)
		}
		res.Members = append(res.Members, member)
	}

	adminID := session.IdentityOf(admin)
	for i := 0; i < opts.Posts; i++ {
		post, err := s.posts.CreatePost(ctx, service.CreatePostInput{
			Caller: adminID,
			PostFields: service.PostFields{
				Title:    fmt.Sprintf("%s %d", strings.TrimSuffix(faker.Sentence(4), "."), i+1),
				Subtitle: faker.Sentence(8),
				Body:     faker.Paragraph(3, 4, 12, "\n\n"),
				ImageURL: fmt.Sprintf("https://picsum.photos/seed/%s/1200/600", faker.UUID()),
			},
		})
		if models.ErrorCode(err) == models.CodeDuplicate {
			middleware.Logger.Warn("skipping post with taken title", slog.Int("index", i))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		res.Posts = append(res.Posts, post)
	}

	commenters := append([]*models.User{admin}, res.Members...)
	for _, post := range res.Posts {
		for j := 0; j < opts.CommentsPerPost; j++ {
			author := commenters[faker.Number(0, len(commenters)-1)]
			if _, err := s.comments.AddComment(ctx, service.AddCommentInput{
				Caller: session.IdentityOf(author),
				PostID: post.ID,
				Body:   faker.Sentence(faker.Number(5, 20)),
			}); err != nil {
				return nil, fmt.Errorf("comment on post %d: %w", post.ID, err)
			}
			res.Comments++
		}
	}

	middleware.Logger.Info("seed completed",
		slog.String("admin", admin.Email),
		slog.Int("members", len(res.Members)),
		slog.Int("posts", len(res.Posts)),
		slog.Int("comments", res.Comments),
	)
	return res, nil
}

func (s *Seeder) ensureAdmin(ctx context.Context, opts Options) (*models.User, error) {
	admin, err := s.auth.Register(ctx, service.RegisterInput{
		Name:     opts.AdminName,
		Email:    opts.AdminEmail,
		Password: opts.Password,
	})
	if models.ErrorCode(err) == models.CodeDuplicate {
		admin, err = s.users.GetByEmail(ctx, opts.AdminEmail)
	}
	if err != nil {
		return nil, fmt.Errorf("admin account: %w", err)
	}
	if !admin.IsAdmin() {
		return nil, fmt.Errorf("%s exists but is not the admin; clear the database or promote it first", admin.Email)
	}
	return admin, nil
}
