package service

import (
	"context"
	"errors"

	"tribune/internal/models"
	"tribune/internal/repository"

	"gorm.io/gorm"
)

const maxCommentLen = 10000

// CommentService handles comment creation and threaded deletion.
type CommentService struct {
	commentRepo repository.CommentRepository
	articleRepo repository.ArticleRepository
}

// NewCommentService creates a new comment service.
func NewCommentService(commentRepo repository.CommentRepository, articleRepo repository.ArticleRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, articleRepo: articleRepo}
}

// CreateCommentInput is the payload for posting a comment or reply.
type CreateCommentInput struct {
	UserID    uint
	ArticleID uint
	ParentID  *uint
	Body      string
}

// CreateComment posts a comment on an article. A reply must reference a
// parent comment on the same article.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.Body == "" {
		return nil, models.NewValidationError("Body is required")
	}
	if len(in.Body) > maxCommentLen {
		return nil, models.NewValidationError("Body too long (max 10000 characters)")
	}

	if _, err := s.articleRepo.GetByID(ctx, in.ArticleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Article", in.ArticleID)
		}
		return nil, err
	}

	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewValidationError("Parent comment does not exist")
			}
			return nil, err
		}
		if parent.ArticleID != in.ArticleID {
			return nil, models.NewValidationError("Parent comment belongs to a different article")
		}
	}

	comment := &models.Comment{
		ArticleID: in.ArticleID,
		ParentID:  in.ParentID,
		UserID:    in.UserID,
		Body:      in.Body,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

// DeleteComment removes a comment and its descendants. The caller must own
// the comment or hold the author capability.
func (s *CommentService) DeleteComment(ctx context.Context, actor *models.User, id uint) error {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Comment", id)
		}
		return err
	}

	if actor == nil {
		return models.NewForbiddenError("Authentication required")
	}
	if actor.ID != comment.UserID && !actor.IsAuthor {
		return models.NewForbiddenError("You must own this comment or hold the author capability")
	}

	return s.DeleteTree(ctx, comment.ID)
}

// DeleteTree removes a comment subtree depth-first so no reply ever
// outlives its parent.
func (s *CommentService) DeleteTree(ctx context.Context, id uint) error {
	replies, err := s.commentRepo.Replies(ctx, id)
	if err != nil {
		return err
	}
	for _, reply := range replies {
		if err := s.DeleteTree(ctx, reply.ID); err != nil {
			return err
		}
	}
	return s.commentRepo.Delete(ctx, id)
}
