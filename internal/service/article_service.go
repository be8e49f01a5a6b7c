// Package service implements the application's business operations on top of
// the repository layer.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"

	"tribune/internal/cache"
	"tribune/internal/middleware"
	"tribune/internal/models"
	"tribune/internal/notifications"
	"tribune/internal/repository"

	"gorm.io/gorm"
)

const (
	maxTitleLen = 300
	maxBodyLen  = 50000
)

// ChangeNotifier publishes domain-change and consumed events. Satisfied by
// *notifications.Notifier; stubbed in tests.
type ChangeNotifier interface {
	PublishChange(ctx context.Context, domains ...string) error
	PublishConsumed(ctx context.Context, articleID uint) error
}

// AttachmentFiles removes stored attachment files. Satisfied by
// *storage.FileStore.
type AttachmentFiles interface {
	Delete(name string) error
}

// ArticleService exposes list/create/read/update/delete/pick-best operations
// over articles and their tags, comments and attachments.
type ArticleService struct {
	articleRepo    repository.ArticleRepository
	tagRepo        repository.TagRepository
	commentRepo    repository.CommentRepository
	attachmentRepo repository.AttachmentRepository
	comments       *CommentService
	notifier       ChangeNotifier
	files          AttachmentFiles
	pageSize       int
}

// NewArticleService creates a new article service.
func NewArticleService(
	articleRepo repository.ArticleRepository,
	tagRepo repository.TagRepository,
	commentRepo repository.CommentRepository,
	attachmentRepo repository.AttachmentRepository,
	comments *CommentService,
	notifier ChangeNotifier,
	files AttachmentFiles,
	pageSize int,
) *ArticleService {
	if pageSize <= 0 {
		pageSize = 5
	}
	return &ArticleService{
		articleRepo:    articleRepo,
		tagRepo:        tagRepo,
		commentRepo:    commentRepo,
		attachmentRepo: attachmentRepo,
		comments:       comments,
		notifier:       notifier,
		files:          files,
		pageSize:       pageSize,
	}
}

// ListArticlesInput is the full parameter set of a list request.
type ListArticlesInput struct {
	TagSlug  string
	AuthorID *uint
	Title    string
	Solved   *bool
	Page     int
	PageSize int
}

// cacheParams canonicalizes the input into url.Values so equivalent requests
// share one cache entry.
func (in ListArticlesInput) cacheParams() url.Values {
	params := url.Values{}
	if in.TagSlug != "" {
		params.Set("tag", in.TagSlug)
	}
	if in.AuthorID != nil {
		params.Set("author_id", cache.Itoa(*in.AuthorID))
	}
	if in.Title != "" {
		params.Set("q", in.Title)
	}
	if in.Solved != nil {
		params.Set("solved", strconv.FormatBool(*in.Solved))
	}
	params.Set("page", strconv.Itoa(in.Page))
	params.Set("page_size", strconv.Itoa(in.PageSize))
	return params
}

// ListArticles returns one page of articles, pinned first. The page is
// cached under a key derived from the full parameter set; a hit returns the
// prior page without touching persistence.
func (s *ArticleService) ListArticles(ctx context.Context, in ListArticlesInput) (*models.ArticlePage, error) {
	if in.Page <= 0 {
		in.Page = 1
	}
	if in.PageSize <= 0 {
		in.PageSize = s.pageSize
	}

	q := repository.ListQuery{
		AuthorID: in.AuthorID,
		Title:    in.Title,
		Solved:   in.Solved,
		Page:     in.Page,
		PageSize: in.PageSize,
	}
	if in.TagSlug != "" {
		tag, err := s.tagRepo.GetBySlug(ctx, in.TagSlug)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundError("Tag", in.TagSlug)
			}
			return nil, err
		}
		q.TagID = &tag.ID
	}

	var page models.ArticlePage
	err := cache.Aside(ctx, cache.ListKey(in.cacheParams()), &page, cache.ListTTL, func() error {
		items, total, err := s.articleRepo.List(ctx, q)
		if err != nil {
			return err
		}
		page = models.ArticlePage{
			Items:    items,
			Total:    total,
			Page:     in.Page,
			PageSize: in.PageSize,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateArticleInput is the payload for creating an article.
type CreateArticleInput struct {
	UserID        uint
	Title         string
	Body          string
	Pin           bool
	Notification  bool
	TagIDs        []uint
	AttachmentIDs []uint
}

// CreateArticle creates an article owned by the caller, replaces its tag set
// and claims the named attachments, then emits change notifications for the
// articles and tags domains.
func (s *ArticleService) CreateArticle(ctx context.Context, in CreateArticleInput) (*models.Article, error) {
	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(in.Title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 300 characters)")
	}
	if in.Body == "" {
		return nil, models.NewValidationError("Body is required")
	}
	if len(in.Body) > maxBodyLen {
		return nil, models.NewValidationError("Body too long (max 50000 characters)")
	}

	// Validate the whole payload before the first write so a 422 never
	// leaves a partial article behind.
	tags, err := s.resolveTags(ctx, in.TagIDs)
	if err != nil {
		return nil, err
	}
	attachmentIDs, err := s.verifyUnattached(ctx, in.AttachmentIDs)
	if err != nil {
		return nil, err
	}

	article := &models.Article{
		Title:        in.Title,
		Body:         in.Body,
		Pin:          in.Pin,
		Notification: in.Notification,
		UserID:       in.UserID,
	}
	if err := s.articleRepo.Create(ctx, article); err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		if err := s.articleRepo.ReplaceTags(ctx, article, tags); err != nil {
			return nil, err
		}
	}
	if len(attachmentIDs) > 0 {
		if err := s.attachmentRepo.Associate(ctx, attachmentIDs, article.ID); err != nil {
			return nil, err
		}
	}

	s.publishChange(ctx, notifications.DomainArticles, notifications.DomainTags)

	return s.articleRepo.GetByID(ctx, article.ID)
}

// GetArticle loads an article with its tags, attachments and solution, plus
// the top-level comment thread (soft-deleted included, most recent first,
// replies attached). Both loads are cached independently. When trackView is
// set a consumed event is published fire-and-forget.
func (s *ArticleService) GetArticle(ctx context.Context, id uint, trackView bool) (*models.Article, []*models.Comment, error) {
	var article models.Article
	err := cache.Aside(ctx, cache.ArticleKey(id), &article, cache.ArticleTTL, func() error {
		found, err := s.articleRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		article = *found
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, models.NewNotFoundError("Article", id)
		}
		return nil, nil, err
	}

	var comments []*models.Comment
	err = cache.Aside(ctx, cache.ArticleCommentsKey(id), &comments, cache.CommentsTTL, func() error {
		found, err := s.commentRepo.TopLevelWithReplies(ctx, id)
		if err != nil {
			return err
		}
		comments = found
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if trackView && s.notifier != nil {
		if err := s.notifier.PublishConsumed(ctx, id); err != nil {
			middleware.Logger.WarnContext(ctx, "consumed event not published",
				slog.Any("article_id", id), slog.String("error", err.Error()))
		}
	}

	return &article, comments, nil
}

// UpdateArticleInput is the payload for a partial article update. A nil
// TagIDs leaves the tag set untouched; an empty non-nil slice clears it.
type UpdateArticleInput struct {
	ArticleID    uint
	Title        string
	Body         string
	Pin          *bool
	Notification bool
	TagIDs       *[]uint
}

// UpdateArticle applies payload fields to an article. The caller must own
// the article or hold the author capability. Emits change notifications for
// the articles and tags domains.
func (s *ArticleService) UpdateArticle(ctx context.Context, actor *models.User, in UpdateArticleInput) (*models.Article, error) {
	article, err := s.articleRepo.GetByID(ctx, in.ArticleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Article", in.ArticleID)
		}
		return nil, err
	}

	if err := authorizeOwnerOrAuthor(actor, article); err != nil {
		return nil, err
	}

	if in.Title != "" {
		if len(in.Title) > maxTitleLen {
			return nil, models.NewValidationError("Title too long (max 300 characters)")
		}
		article.Title = in.Title
	}
	if in.Body != "" {
		if len(in.Body) > maxBodyLen {
			return nil, models.NewValidationError("Body too long (max 50000 characters)")
		}
		article.Body = in.Body
	}
	if in.Pin != nil {
		article.Pin = *in.Pin
	}
	// Checkbox semantics: the flag is recomputed from the payload on every
	// update, absence means off.
	article.Notification = in.Notification

	// Resolve the tag set before saving so a bad tag id rejects the whole
	// update instead of committing the field changes first.
	var tags []models.Tag
	if in.TagIDs != nil {
		tags, err = s.resolveTags(ctx, *in.TagIDs)
		if err != nil {
			return nil, err
		}
	}

	if err := s.articleRepo.Update(ctx, article); err != nil {
		return nil, err
	}

	if in.TagIDs != nil {
		if err := s.articleRepo.ReplaceTags(ctx, article, tags); err != nil {
			return nil, err
		}
	}

	s.publishChange(ctx, notifications.DomainArticles, notifications.DomainTags)

	return s.articleRepo.GetByID(ctx, article.ID)
}

// PickBestAnswer marks a comment as the accepted answer. The caller must
// hold the author capability. No change notification is emitted.
func (s *ArticleService) PickBestAnswer(ctx context.Context, actor *models.User, articleID, solutionID uint) error {
	if err := authorizeAuthor(actor); err != nil {
		return err
	}
	if solutionID == 0 {
		return models.NewValidationError("solution_id is required")
	}

	article, err := s.articleRepo.GetByID(ctx, articleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Article", articleID)
		}
		return err
	}

	comment, err := s.commentRepo.GetByID(ctx, solutionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewValidationError("solution_id does not reference an existing comment")
		}
		return err
	}
	if comment.ArticleID != article.ID {
		return models.NewValidationError("solution comment belongs to a different article")
	}

	return s.articleRepo.SetSolution(ctx, article.ID, comment.ID)
}

// DeleteArticle removes an article with a defined cascade order: attachment
// files first, then attachment records in one batch, then comments
// depth-first through the comment-deletion path, then the article row.
// Emits a change notification for the articles domain only.
func (s *ArticleService) DeleteArticle(ctx context.Context, actor *models.User, id uint) error {
	if err := authorizeAuthor(actor); err != nil {
		return err
	}

	article, err := s.articleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Article", id)
		}
		return err
	}

	attachments, err := s.attachmentRepo.ListByArticle(ctx, article.ID)
	if err != nil {
		return err
	}
	for _, attachment := range attachments {
		if err := s.files.Delete(attachment.FileName); err != nil {
			return err
		}
	}
	if len(attachments) > 0 {
		if err := s.attachmentRepo.DeleteByArticle(ctx, article.ID); err != nil {
			return err
		}
	}

	topLevel, err := s.commentRepo.TopLevelWithReplies(ctx, article.ID)
	if err != nil {
		return err
	}
	for _, comment := range topLevel {
		if err := s.comments.DeleteTree(ctx, comment.ID); err != nil {
			return err
		}
	}

	if err := s.articleRepo.Delete(ctx, article.ID); err != nil {
		return err
	}

	s.publishChange(ctx, notifications.DomainArticles)
	return nil
}

// resolveTags loads the given tag ids, failing validation when any id does
// not exist.
func (s *ArticleService) resolveTags(ctx context.Context, ids []uint) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	unique := dedupeIDs(ids)

	tags, err := s.tagRepo.GetByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(unique) {
		return nil, models.NewValidationError("One or more tags do not exist")
	}
	return tags, nil
}

// verifyUnattached checks that every id references an attachment no article
// has claimed yet, failing validation otherwise. Returns the deduplicated
// ids for the claim that follows the insert.
func (s *ArticleService) verifyUnattached(ctx context.Context, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	unique := dedupeIDs(ids)
	attachments, err := s.attachmentRepo.GetUnattachedByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(attachments) != len(unique) {
		return nil, models.NewValidationError("One or more attachments do not exist or are already attached")
	}
	return unique, nil
}

func dedupeIDs(ids []uint) []uint {
	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

// publishChange emits change notifications best-effort: a dead event bus
// must not fail the mutation that already committed.
func (s *ArticleService) publishChange(ctx context.Context, domains ...string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishChange(ctx, domains...); err != nil {
		middleware.Logger.WarnContext(ctx, "change notification not published",
			slog.Any("domains", domains), slog.String("error", err.Error()))
	}
}

// authorizeOwnerOrAuthor allows the article owner and holders of the author
// capability.
func authorizeOwnerOrAuthor(actor *models.User, article *models.Article) error {
	if actor == nil {
		return models.NewForbiddenError("Authentication required")
	}
	if actor.ID == article.UserID || actor.IsAuthor {
		return nil
	}
	return models.NewForbiddenError("You must own this article or hold the author capability")
}

// authorizeAuthor allows only holders of the author capability.
func authorizeAuthor(actor *models.User) error {
	if actor == nil || !actor.IsAuthor {
		return models.NewForbiddenError("The author capability is required")
	}
	return nil
}
