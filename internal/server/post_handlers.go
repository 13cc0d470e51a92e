package server

import (
	"journal/internal/models"
	"journal/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postRequest struct {
	Title    string `json:"title" form:"title"`
	Subtitle string `json:"subtitle" form:"subtitle"`
	Body     string `json:"body" form:"body"`
	ImageURL string `json:"img_url" form:"img_url"`
}

func (r postRequest) fields() service.PostFields {
	return service.PostFields{
		Title:    r.Title,
		Subtitle: r.Subtitle,
		Body:     r.Body,
		ImageURL: r.ImageURL,
	}
}

// GetPosts handles GET /api/posts
// @Summary List posts
// @Description All posts in publication order.
// @Tags posts
// @Produce json
// @Success 200 {object} object{posts=[]models.Post,is_admin=bool}
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	listing, err := s.postService.ListPosts(c.UserContext(), currentIdentity(c))
	if err != nil {
		return respondError(c, err)
	}
	posts := listing.Posts
	if posts == nil {
		posts = []*models.Post{}
	}
	return c.JSON(fiber.Map{
		"posts":    posts,
		"is_admin": listing.IsAdmin,
	})
}

// GetPost handles GET /api/posts/:id
// @Summary View post
// @Description A post with its comments.
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{post=models.Post,comments=[]models.Comment,is_admin=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	view, err := s.postService.ViewPost(c.UserContext(), currentIdentity(c), id)
	if err != nil {
		return respondError(c, err)
	}
	comments := view.Comments
	if comments == nil {
		comments = []*models.Comment{}
	}
	return c.JSON(fiber.Map{
		"post":     view.Post,
		"comments": comments,
		"is_admin": view.IsAdmin,
	})
}

// CreatePost handles POST /api/posts
// @Summary Create post
// @Description Publish a post as the administrator.
// @Tags posts
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		Caller:     currentIdentity(c),
		PostFields: req.fields(),
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Edit post
// @Description Replace title, subtitle, body and image. Author and date are kept.
// @Tags posts
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.EditPost(c.UserContext(), service.EditPostInput{
		Caller:     currentIdentity(c),
		PostID:     id,
		PostFields: req.fields(),
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete post
// @Description Delete a post and its comments.
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		Caller: currentIdentity(c),
		PostID: id,
	}); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Post deleted"})
}
