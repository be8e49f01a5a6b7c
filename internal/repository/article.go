// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"tribune/internal/models"

	"gorm.io/gorm"
)

// ListQuery is the full parameter set of a list request. The same values
// feed both the SQL predicates and the cache key.
type ListQuery struct {
	TagID    *uint
	AuthorID *uint
	Title    string
	Solved   *bool
	Page     int
	PageSize int
}

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id uint) (*models.Article, error)
	List(ctx context.Context, q ListQuery) ([]*models.Article, int64, error)
	Update(ctx context.Context, article *models.Article) error
	ReplaceTags(ctx context.Context, article *models.Article, tags []models.Tag) error
	SetSolution(ctx context.Context, articleID, solutionID uint) error
	Delete(ctx context.Context, id uint) error
}

type articleRepository struct {
	db *gorm.DB
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	return r.db.WithContext(ctx).Create(article).Error
}

func (r *articleRepository) GetByID(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	err := r.applyArticleDetails(r.db.WithContext(ctx)).
		Preload("User").
		Preload("Tags").
		Preload("Attachments").
		Preload("Solution", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		First(&article, id).Error
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) List(ctx context.Context, q ListQuery) ([]*models.Article, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Article{})

	if q.TagID != nil {
		base = base.
			Joins("JOIN article_tags ON article_tags.article_id = articles.id").
			Where("article_tags.tag_id = ?", *q.TagID)
	}
	if q.AuthorID != nil {
		base = base.Where("articles.user_id = ?", *q.AuthorID)
	}
	if q.Title != "" {
		base = base.Where("articles.title LIKE ?", "%"+q.Title+"%")
	}
	if q.Solved != nil {
		if *q.Solved {
			base = base.Where("articles.solution_id IS NOT NULL")
		} else {
			base = base.Where("articles.solution_id IS NULL")
		}
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var articles []*models.Article
	err := r.applyArticleDetails(base).
		Preload("User").
		Preload("Tags").
		Order("articles.pin DESC, articles.created_at DESC").
		Limit(q.PageSize).
		Offset((q.Page - 1) * q.PageSize).
		Find(&articles).Error
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// applyArticleDetails adds subqueries to fetch counts in a single query.
func (r *articleRepository) applyArticleDetails(db *gorm.DB) *gorm.DB {
	return db.Select("articles.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.article_id = articles.id AND comments.deleted_at IS NULL) as comments_count")
}

func (r *articleRepository) Update(ctx context.Context, article *models.Article) error {
	return r.db.WithContext(ctx).Omit("Tags", "Comments", "Attachments", "Solution", "User").Save(article).Error
}

// ReplaceTags syncs the tag set: the association becomes exactly `tags`,
// dropping omitted links (replace, not append).
func (r *articleRepository) ReplaceTags(ctx context.Context, article *models.Article, tags []models.Tag) error {
	return r.db.WithContext(ctx).Model(article).Association("Tags").Replace(tags)
}

func (r *articleRepository) SetSolution(ctx context.Context, articleID, solutionID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Article{}).
		Where("id = ?", articleID).
		Update("solution_id", solutionID).Error
}

// Delete removes the article row and its tag-join rows in one transaction.
func (r *articleRepository) Delete(ctx context.Context, id uint) error {
	article := models.Article{ID: id}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&article).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&article).Error
	})
}
