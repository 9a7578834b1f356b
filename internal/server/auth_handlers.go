package server

import (
	"fundboard/internal/models"
	"fundboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create an account and return its first session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Registration"
// @Success 200 {object} service.AuthResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	res, err := s.authService.Register(c.UserContext(), req)
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

// Login handles POST /api/auth/login
// @Summary Log in
// @Description Exchange credentials for a new session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Credentials"
// @Success 200 {object} service.AuthResult
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	res, err := s.authService.Login(c.UserContext(), req)
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(res)
}

// Logout handles POST /api/auth/logout
// @Summary Log out
// @Description Revoke the token used for this request
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	p := principal(c)
	if p == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authentication credentials were not provided."))
	}
	if err := s.authService.Logout(c.UserContext(), p.Claims); err != nil {
		return s.respondErr(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LogoutAll handles POST /api/auth/logoutall
// @Summary Log out everywhere
// @Description Revoke every token of the current user
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logoutall [post]
func (s *Server) LogoutAll(c *fiber.Ctx) error {
	if err := s.authService.LogoutAll(c.UserContext(), userID(c)); err != nil {
		return s.respondErr(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CurrentUser handles GET /api/auth/user
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserSummary
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/user [get]
func (s *Server) CurrentUser(c *fiber.Ctx) error {
	if p := principal(c); p != nil {
		return c.JSON(p.User.Summary())
	}
	user, err := s.authService.CurrentUser(c.UserContext(), userID(c))
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(user.Summary())
}
