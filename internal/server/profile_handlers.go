package server

import (
	"fundboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListProfiles handles GET /api/profile
// @Summary List profiles
// @Description Returns the caller's own profile as a list of zero or one items
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Profile
// @Router /profile [get]
func (s *Server) ListProfiles(c *fiber.Ctx) error {
	profiles, err := s.profileService.ListProfiles(c.UserContext(), userID(c))
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(profiles)
}

// CreateProfile handles POST /api/profile
// @Summary Create profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.ProfileInput true "Profile"
// @Success 201 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Router /profile [post]
func (s *Server) CreateProfile(c *fiber.Ctx) error {
	var req service.ProfileInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	profile, err := s.profileService.CreateProfile(c.UserContext(), userID(c), req)
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

// GetMyProfile handles GET /api/profile/me
// @Summary Own profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Router /profile/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.GetMyProfile(c.UserContext(), userID(c))
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(profile)
}

// GetProfile handles GET /api/profile/:id
// @Summary Get profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Param id path int true "Profile ID"
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /profile/{id} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	profile, err := s.profileService.GetProfile(c.UserContext(), userID(c), id)
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(profile)
}

// UpdateProfile handles PUT /api/profile/:id
// @Summary Replace profile
// @Description Fields missing from the body are cleared
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Profile ID"
// @Param request body service.ProfileInput true "Profile"
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /profile/{id} [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	return s.writeProfile(c, false)
}

// PatchProfile handles PATCH /api/profile/:id
// @Summary Update profile fields
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Profile ID"
// @Param request body service.ProfileInput true "Fields to change"
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /profile/{id} [patch]
func (s *Server) PatchProfile(c *fiber.Ctx) error {
	return s.writeProfile(c, true)
}

func (s *Server) writeProfile(c *fiber.Ctx, partial bool) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.ProfileInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	profile, err := s.profileService.UpdateProfile(c.UserContext(), userID(c), id, req, partial)
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(profile)
}

// DeleteProfile handles DELETE /api/profile/:id
// @Summary Delete profile
// @Tags profile
// @Security BearerAuth
// @Param id path int true "Profile ID"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /profile/{id} [delete]
func (s *Server) DeleteProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.profileService.DeleteProfile(c.UserContext(), userID(c), id); err != nil {
		return s.respondErr(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
