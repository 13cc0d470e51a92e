package server

import (
	"strings"

	"journal/internal/models"
	"journal/internal/service"

	"github.com/gofiber/fiber/v2"
)

// commentRequest accepts "comment" as an alias for "body", the field name
// older form clients submit.
type commentRequest struct {
	Body    string `json:"body" form:"body"`
	Comment string `json:"comment" form:"comment"`
}

func (r commentRequest) text() string {
	if strings.TrimSpace(r.Body) != "" {
		return r.Body
	}
	return r.Comment
}

// GetComments handles GET /api/posts/:id/comments
// @Summary List comments
// @Description Comments on a post in the order they were written.
// @Tags comments
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comments, err := s.commentService.ListComments(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:id/comments
// @Summary Add comment
// @Description Comment on a post. Requires a session.
// @Tags comments
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.AddComment(c.UserContext(), service.AddCommentInput{
		Caller: currentIdentity(c),
		PostID: postID,
		Body:   req.text(),
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}
