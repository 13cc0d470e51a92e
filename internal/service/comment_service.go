package service

import (
	"context"

	"journal/internal/models"
	"journal/internal/observability"
	"journal/internal/repository"
	"journal/internal/session"
	"journal/internal/validation"
)

const (
	maxCommentLen    = 10000
	maxAuthorNameLen = 100
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
}

type AddCommentInput struct {
	Caller session.Identity
	PostID uint
	Body   string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
	}
}

// AddComment records a comment by the logged-in caller. Anonymous callers
// are rejected before anything is written.
func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	if in.Caller.IsAnonymous() {
		return nil, models.NewUnauthorizedError("You need to login or register to comment")
	}
	if err := validation.Required(validation.Field{Name: "Comment", Value: in.Body, Max: maxCommentLen}); err != nil {
		return nil, err
	}
	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}

	author, err := s.userRepo.GetByID(ctx, in.Caller.UserID)
	if models.IsNotFound(err) {
		return nil, models.NewUnauthorizedError("You need to login or register to comment")
	}
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Body:       in.Body,
		AuthorName: truncateRunes(author.Name, maxAuthorNameLen),
		AuthorID:   author.ID,
		PostID:     in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.CommentsCreated.Inc()

	return comment, nil
}

func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
