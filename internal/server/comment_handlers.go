package server

import (
	"tribune/internal/models"
	"tribune/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateComment handles POST /api/articles/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	articleID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Body     string `json:"body"`
		ParentID *uint  `json:"parent_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.CreateComment(c.Context(), service.CreateCommentInput{
		UserID:    userID,
		ArticleID: articleID,
		ParentID:  req.ParentID,
		Body:      req.Body,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	// Cached threads catch up within the TTL; writes never reach into the
	// cache synchronously.
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	if err := s.commentService.DeleteComment(c.Context(), actor, commentID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
