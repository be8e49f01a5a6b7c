package repository

import (
	"context"

	"tribune/internal/models"

	"gorm.io/gorm"
)

// AttachmentRepository defines interface for attachment record operations.
// File contents live in storage.FileStore; this layer only tracks records.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *models.Attachment) error
	GetByID(ctx context.Context, id uint) (*models.Attachment, error)
	// GetUnattachedByIDs returns only attachments from ids that are not yet
	// associated with any article.
	GetUnattachedByIDs(ctx context.Context, ids []uint) ([]models.Attachment, error)
	ListByArticle(ctx context.Context, articleID uint) ([]models.Attachment, error)
	Associate(ctx context.Context, ids []uint, articleID uint) error
	// DeleteByArticle removes all attachment records of an article in one batch.
	DeleteByArticle(ctx context.Context, articleID uint) error
}

type attachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new AttachmentRepository
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *models.Attachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *attachmentRepository) GetByID(ctx context.Context, id uint) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := r.db.WithContext(ctx).First(&attachment, id).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *attachmentRepository) GetUnattachedByIDs(ctx context.Context, ids []uint) ([]models.Attachment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var attachments []models.Attachment
	err := r.db.WithContext(ctx).
		Where("id IN ? AND article_id IS NULL", ids).
		Find(&attachments).Error
	return attachments, err
}

func (r *attachmentRepository) ListByArticle(ctx context.Context, articleID uint) ([]models.Attachment, error) {
	var attachments []models.Attachment
	err := r.db.WithContext(ctx).Where("article_id = ?", articleID).Find(&attachments).Error
	return attachments, err
}

func (r *attachmentRepository) Associate(ctx context.Context, ids []uint, articleID uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Attachment{}).
		Where("id IN ? AND article_id IS NULL", ids).
		Update("article_id", articleID).Error
}

func (r *attachmentRepository) DeleteByArticle(ctx context.Context, articleID uint) error {
	return r.db.WithContext(ctx).
		Where("article_id = ?", articleID).
		Delete(&models.Attachment{}).Error
}
