package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"journal/internal/auth"
	"journal/internal/authz"
	"journal/internal/database"
	"journal/internal/models"
	"journal/internal/repository"
	"journal/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn  func(context.Context, *models.Post) error
	getByIDFn func(context.Context, uint) (*models.Post, error)
	listFn    func(context.Context) ([]*models.Post, error)
	updateFn  func(context.Context, *models.Post) error
	deleteFn  func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context) ([]*models.Post, error) {
	return s.listFn(ctx)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:  func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listFn:    func(_ context.Context) ([]*models.Post, error) { return nil, nil },
		updateFn:  func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:  func(_ context.Context, _ uint) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint) ([]*models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:    func(_ context.Context, _ uint) (*models.Comment, error) { return &models.Comment{}, nil },
		listByPostFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository. Only GetByID is
// configurable; the rest are unused by the services under stub tests.
type userRepoStub struct {
	repository.UserRepository
	getByIDFn func(context.Context, uint) (*models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Name: "Alice"}, nil
		},
	}
}

var (
	adminCaller  = session.Identity{UserID: 1, Name: "Admin", Role: models.RoleAdmin}
	memberCaller = session.Identity{UserID: 2, Name: "Member", Role: models.RoleMember}
)

// assertCode asserts that err is an AppError with the given code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

// stack is a full set of services over an in-memory database.
type stack struct {
	db       *gorm.DB
	auth     *AuthService
	posts    *PostService
	comments *CommentService
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)

	users := repository.NewUserRepository(db, nil)
	posts := repository.NewPostRepository(db, nil)
	comments := repository.NewCommentRepository(db, nil)
	manager := session.NewManager(session.NewDBStore(db), users, "test-secret-test-secret-test-secret", time.Hour)

	return &stack{
		db:       db,
		auth:     NewAuthService(users, auth.NewHasher(1000, 8), manager),
		posts:    NewPostService(posts, comments, authz.NewPolicy(false)),
		comments: NewCommentService(comments, posts, users),
	}
}

// loginAs registers (if needed) and logs in, returning the resolved identity.
func (s *stack) loginAs(t *testing.T, name, email, password string) (string, session.Identity) {
	t.Helper()
	ctx := t.Context()
	if _, err := s.auth.Register(ctx, RegisterInput{Name: name, Email: email, Password: password}); err != nil {
		require.Equal(t, models.CodeDuplicate, models.ErrorCode(err))
	}
	res, err := s.auth.Login(ctx, LoginInput{Email: email, Password: password})
	require.NoError(t, err)
	id, err := s.auth.Identify(ctx, res.Token)
	require.NoError(t, err)
	return res.Token, id
}
