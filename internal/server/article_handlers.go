package server

import (
	"tribune/internal/models"
	"tribune/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListArticles handles GET /api/articles
func (s *Server) ListArticles(c *fiber.Ctx) error {
	page, err := s.articleService.ListArticles(c.Context(), s.parseListQuery(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// ListArticlesByTag handles GET /api/tags/:slug/articles
func (s *Server) ListArticlesByTag(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Tag slug is required"))
	}

	in := s.parseListQuery(c)
	in.TagSlug = slug

	page, err := s.articleService.ListArticles(c.Context(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetArticle handles GET /api/articles/:id
func (s *Server) GetArticle(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	article, comments, err := s.articleService.GetArticle(c.Context(), id, !isAPICaller(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"article":  article,
		"comments": comments,
	})
}

// CreateArticle handles POST /api/articles
func (s *Server) CreateArticle(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Title         string `json:"title"`
		Body          string `json:"body"`
		Pin           bool   `json:"pin"`
		Notification  bool   `json:"notification"`
		TagIDs        []uint `json:"tags"`
		AttachmentIDs []uint `json:"attachments"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	article, err := s.articleService.CreateArticle(c.Context(), service.CreateArticleInput{
		UserID:        userID,
		Title:         req.Title,
		Body:          req.Body,
		Pin:           req.Pin,
		Notification:  req.Notification,
		TagIDs:        req.TagIDs,
		AttachmentIDs: req.AttachmentIDs,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(article)
}

// UpdateArticle handles PUT /api/articles/:id
func (s *Server) UpdateArticle(c *fiber.Ctx) error {
	articleID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	// TagIDs is a pointer so the handler can tell "not sent" from "sent
	// empty": nil leaves the tag set untouched, [] clears it.
	var req struct {
		Title        string  `json:"title"`
		Body         string  `json:"body"`
		Pin          *bool   `json:"pin"`
		Notification bool    `json:"notification"`
		TagIDs       *[]uint `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	article, err := s.articleService.UpdateArticle(c.Context(), actor, service.UpdateArticleInput{
		ArticleID:    articleID,
		Title:        req.Title,
		Body:         req.Body,
		Pin:          req.Pin,
		Notification: req.Notification,
		TagIDs:       req.TagIDs,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(article)
}

// PickBestAnswer handles PATCH /api/articles/:id/solution
func (s *Server) PickBestAnswer(c *fiber.Ctx) error {
	articleID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	var req struct {
		SolutionID uint `json:"solution_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.articleService.PickBestAnswer(c.Context(), actor, articleID, req.SolutionID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteArticle handles DELETE /api/articles/:id
func (s *Server) DeleteArticle(c *fiber.Ctx) error {
	articleID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	if err := s.articleService.DeleteArticle(c.Context(), actor, articleID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
