package service

import (
	"context"
	"time"

	"journal/internal/authz"
	"journal/internal/models"
	"journal/internal/observability"
	"journal/internal/repository"
	"journal/internal/session"
	"journal/internal/validation"
)

const (
	maxTitleLen    = 250
	maxSubtitleLen = 250
	maxImageURLLen = 250
)

type PostService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	policy      *authz.Policy
	now         func() time.Time
}

// PostFields are the author-editable parts of a post.
type PostFields struct {
	Title    string
	Subtitle string
	Body     string
	ImageURL string
}

type CreatePostInput struct {
	Caller session.Identity
	PostFields
}

type EditPostInput struct {
	Caller session.Identity
	PostID uint
	PostFields
}

type DeletePostInput struct {
	Caller session.Identity
	PostID uint
}

// PostListing is the front page: every post plus whether the caller may manage them.
type PostListing struct {
	Posts   []*models.Post
	IsAdmin bool
}

// PostView is a single post with its comments in the order they were written.
type PostView struct {
	Post     *models.Post
	Comments []*models.Comment
	IsAdmin  bool
}

func NewPostService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	policy *authz.Policy,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		policy:      policy,
		now:         time.Now,
	}
}

func (s *PostService) ListPosts(ctx context.Context, caller session.Identity) (*PostListing, error) {
	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return &PostListing{Posts: posts, IsAdmin: s.policy.IsAdmin(caller)}, nil
}

func (s *PostService) ViewPost(ctx context.Context, caller session.Identity, postID uint) (*PostView, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &PostView{Post: post, Comments: comments, IsAdmin: s.policy.IsAdmin(caller)}, nil
}

// CreatePost publishes a post authored by the caller and dated today.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, finish := observability.StartSpan(ctx, "PostService.CreatePost", spanAttrs(in.Caller)...)
	defer func() {
		finish(err)
		observability.PostMutations.WithLabelValues(string(authz.CreatePost), outcomeOf(err)).Inc()
	}()

	if err := s.policy.Authorize(in.Caller, authz.CreatePost); err != nil {
		return nil, err
	}
	if err := validatePostFields(in.PostFields); err != nil {
		return nil, err
	}

	post = &models.Post{
		Title:    in.Title,
		Subtitle: in.Subtitle,
		Date:     s.now().Format(models.PostDateLayout),
		Body:     in.Body,
		ImageURL: in.ImageURL,
		AuthorID: in.Caller.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, titleConflict(err)
	}

	return s.postRepo.GetByID(ctx, post.ID)
}

// EditPost replaces the editable fields. Author and date never change.
func (s *PostService) EditPost(ctx context.Context, in EditPostInput) (post *models.Post, err error) {
	ctx, finish := observability.StartSpan(ctx, "PostService.EditPost", spanAttrs(in.Caller)...)
	defer func() {
		finish(err)
		observability.PostMutations.WithLabelValues(string(authz.EditPost), outcomeOf(err)).Inc()
	}()

	if err := s.policy.Authorize(in.Caller, authz.EditPost); err != nil {
		return nil, err
	}

	post, err = s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := validatePostFields(in.PostFields); err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Subtitle = in.Subtitle
	post.Body = in.Body
	post.ImageURL = in.ImageURL
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, titleConflict(err)
	}

	return s.postRepo.GetByID(ctx, post.ID)
}

// DeletePost removes the post and its comments.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) (err error) {
	ctx, finish := observability.StartSpan(ctx, "PostService.DeletePost", spanAttrs(in.Caller)...)
	defer func() {
		finish(err)
		observability.PostMutations.WithLabelValues(string(authz.DeletePost), outcomeOf(err)).Inc()
	}()

	if err := s.policy.Authorize(in.Caller, authz.DeletePost); err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, in.PostID)
}

func validatePostFields(f PostFields) error {
	return validation.Required(
		validation.Field{Name: "Title", Value: f.Title, Max: maxTitleLen},
		validation.Field{Name: "Subtitle", Value: f.Subtitle, Max: maxSubtitleLen},
		validation.Field{Name: "Body", Value: f.Body},
		validation.Field{Name: "Image URL", Value: f.ImageURL, Max: maxImageURLLen},
	)
}

func titleConflict(err error) error {
	if models.ErrorCode(err) == models.CodeDuplicate {
		return models.NewDuplicateError("A post with that title already exists")
	}
	return err
}
