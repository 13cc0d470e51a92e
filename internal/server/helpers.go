package server

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"journal/internal/middleware"
	"journal/internal/models"
	"journal/internal/session"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const (
	identityLocal = "identity"
	logoutPath    = "/api/auth/logout"
)

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid post ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// respondError writes err with the status its code maps to. Internal
// failures are logged; their details never reach the client.
func respondError(c *fiber.Ctx, err error) error {
	status := models.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		err = models.NewInternalError(nil)
	}
	return models.RespondWithError(c, status, err)
}

// IdentityMiddleware resolves the session token (cookie or bearer header)
// to an Identity stored in locals. Requests without a valid session proceed
// as Anonymous. A store failure fails the request, except on logout, which
// must still clear the cookie.
func (s *Server) IdentityMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := session.Anonymous()
		if token := s.sessionToken(c); token != "" {
			resolved, err := s.authService.Identify(c.UserContext(), token)
			switch {
			case err == nil:
				id = resolved
			case strings.TrimRight(c.Path(), "/") == logoutPath:
				middleware.Logger.WarnContext(c.UserContext(), "logout could not resolve session",
					slog.String("error", err.Error()),
				)
			default:
				return respondError(c, err)
			}
		}

		c.Locals(identityLocal, id)
		if !id.IsAnonymous() {
			c.Locals("userID", id.UserID)
			c.SetUserContext(middleware.WithUserID(c.UserContext(), id.UserID))
		}
		return c.Next()
	}
}

// sessionToken prefers an Authorization bearer token over the session cookie.
func (s *Server) sessionToken(c *fiber.Ctx) string {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Cookies(s.cookieName())
}

func (s *Server) cookieName() string {
	if s.config.SessionCookieName != "" {
		return s.config.SessionCookieName
	}
	return "journal_session"
}

func (s *Server) setSessionCookie(c *fiber.Ctx, token string) {
	cookie := &fiber.Cookie{
		Name:     s.cookieName(),
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if s.config.SessionTTLHours > 0 {
		cookie.Expires = time.Now().Add(time.Duration(s.config.SessionTTLHours) * time.Hour)
	} else {
		cookie.SessionOnly = true
	}
	c.Cookie(cookie)
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.cookieName(),
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Unix(0, 0),
	})
}

// currentIdentity returns the caller resolved by IdentityMiddleware.
func currentIdentity(c *fiber.Ctx) session.Identity {
	if id, ok := c.Locals(identityLocal).(session.Identity); ok {
		return id
	}
	return session.Anonymous()
}
