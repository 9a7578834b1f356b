package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags handles GET /api/features
// @Summary Feature flags
// @Description Flags evaluated for the caller (anonymous when no token is sent)
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /features [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	viewerID, _ := s.optionalUserID(c)
	return c.JSON(s.featureFlags.Snapshot(viewerID))
}
