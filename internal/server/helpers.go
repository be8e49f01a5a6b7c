package server

import (
	"errors"

	"tribune/internal/models"
	"tribune/internal/service"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const maxPageSize = 100

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		label := "ID"
		if param != "id" {
			label = param
		}
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+label))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseListQuery assembles the list input from query parameters. Page and
// page size fall back to service defaults when absent or out of range.
func (s *Server) parseListQuery(c *fiber.Ctx) service.ListArticlesInput {
	in := service.ListArticlesInput{
		TagSlug: c.Query("tag"),
		Title:   c.Query("q"),
		Page:    c.QueryInt("page", 1),
	}
	if in.Page <= 0 {
		in.Page = 1
	}

	in.PageSize = c.QueryInt("page_size", s.config.PageSize)
	if in.PageSize <= 0 {
		in.PageSize = s.config.PageSize
	}
	if in.PageSize > maxPageSize {
		in.PageSize = maxPageSize
	}

	if authorID := c.QueryInt("author_id", 0); authorID > 0 {
		id := uint(authorID)
		in.AuthorID = &id
	}
	if solved := c.Query("solved"); solved == "true" || solved == "false" {
		v := solved == "true"
		in.Solved = &v
	}

	return in
}

// currentUser loads the authenticated user from the userID local set by
// AuthRequired. On failure it writes the response and returns
// errResponseWritten.
func (s *Server) currentUser(c *fiber.Ctx) (*models.User, error) {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		_ = models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
		return nil, errResponseWritten
	}

	user, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Account no longer exists"))
			return nil, errResponseWritten
		}
		_ = models.RespondWithError(c, fiber.StatusInternalServerError, err)
		return nil, errResponseWritten
	}
	return user, nil
}

// isAPICaller reports whether the request came from a programmatic client.
// Browser navigations lack the X-Requested-With header; those count as views.
func isAPICaller(c *fiber.Ctx) bool {
	return c.Get("X-Requested-With") == "XMLHttpRequest"
}
