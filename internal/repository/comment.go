package repository

import (
	"context"

	"tribune/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	// TopLevelWithReplies returns an article's top-level comments, most
	// recent first, each with its direct replies. Soft-deleted comments
	// are included so threads keep their shape.
	TopLevelWithReplies(ctx context.Context, articleID uint) ([]*models.Comment, error)
	ListByArticle(ctx context.Context, articleID uint) ([]*models.Comment, error)
	Replies(ctx context.Context, parentID uint) ([]*models.Comment, error)
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) TopLevelWithReplies(ctx context.Context, articleID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Unscoped().
		Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped().Order("comments.created_at asc")
		}).
		Preload("Replies.User").
		Where("article_id = ? AND parent_id IS NULL", articleID).
		Order("created_at desc").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) ListByArticle(ctx context.Context, articleID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).Where("article_id = ?", articleID).Find(&comments).Error
	return comments, err
}

func (r *commentRepository) Replies(ctx context.Context, parentID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).Where("parent_id = ?", parentID).Find(&comments).Error
	return comments, err
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Comment{}, id).Error
}
