package server

import (
	"tribune/internal/models"

	"github.com/gofiber/fiber/v2"
)

const maxAttachmentBytes = 20 << 20 // 20 MiB

// UploadAttachment handles POST /api/attachments. The file lands on disk
// under a generated name; the record stays unassociated until an article
// create or update claims it.
func (s *Server) UploadAttachment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	file, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}
	if file.Size > maxAttachmentBytes {
		return models.RespondWithError(c, fiber.StatusUnprocessableEntity,
			models.NewValidationError("File too large (max 20 MiB)"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	storedName, err := s.fileStore.Save(file.Filename, src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	attachment := &models.Attachment{
		UserID:       userID,
		FileName:     storedName,
		OriginalName: file.Filename,
		Size:         file.Size,
	}
	if err := s.attachmentRepo.Create(c.Context(), attachment); err != nil {
		// Keep disk and records consistent when the insert fails.
		_ = s.fileStore.Delete(storedName)
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Status(fiber.StatusCreated).JSON(attachment)
}
