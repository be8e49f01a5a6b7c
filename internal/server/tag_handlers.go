package server

import (
	"tribune/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListTags handles GET /api/tags
func (s *Server) ListTags(c *fiber.Ctx) error {
	tags, err := s.tagRepo.List(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(tags)
}
