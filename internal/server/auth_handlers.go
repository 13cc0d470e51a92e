package server

import (
	"log/slog"

	"journal/internal/middleware"
	"journal/internal/models"
	"journal/internal/service"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create an account. The first account becomes the administrator.
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body object{name=string,email=string,password=string} true "Registration"
// @Success 201 {object} object{message=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account created, please log in",
		"user":    user,
	})
}

// Login handles POST /api/auth/login
// @Summary Log in
// @Description Check credentials and open a session. The token is also set as an HttpOnly cookie.
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body object{email=string,password=string} true "Credentials"
// @Success 200 {object} object{token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.authService.Login(c.UserContext(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.setSessionCookie(c, result.Token)
	return c.JSON(fiber.Map{
		"token": result.Token,
		"user":  result.User,
	})
}

// Logout handles GET and POST /api/auth/logout. It always succeeds.
// @Summary Log out
// @Description Revoke the current session and clear the cookie. Always succeeds.
// @Tags auth
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /auth/logout [post]
// @Router /auth/logout [get]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.authService.Logout(c.UserContext(), s.sessionToken(c)); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "logout could not revoke session",
			slog.String("error", err.Error()))
	}
	s.clearSessionCookie(c)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Me handles GET /api/auth/me
// @Summary Current identity
// @Description Resolve the caller's session.
// @Tags auth
// @Produce json
// @Success 200 {object} object{authenticated=bool,is_admin=bool,user=session.Identity}
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	id := currentIdentity(c)
	if id.IsAnonymous() {
		return c.JSON(fiber.Map{
			"authenticated": false,
			"is_admin":      false,
		})
	}
	return c.JSON(fiber.Map{
		"authenticated": true,
		"is_admin":      s.policy.IsAdmin(id),
		"user":          id,
	})
}
