package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"tribune/internal/models"
	"tribune/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// articleRepoStub is a stub for repository.ArticleRepository.
type articleRepoStub struct {
	createFn      func(context.Context, *models.Article) error
	getByIDFn     func(context.Context, uint) (*models.Article, error)
	listFn        func(context.Context, repository.ListQuery) ([]*models.Article, int64, error)
	updateFn      func(context.Context, *models.Article) error
	replaceTagsFn func(context.Context, *models.Article, []models.Tag) error
	setSolutionFn func(context.Context, uint, uint) error
	deleteFn      func(context.Context, uint) error
}

func (s *articleRepoStub) Create(ctx context.Context, article *models.Article) error {
	return s.createFn(ctx, article)
}
func (s *articleRepoStub) GetByID(ctx context.Context, id uint) (*models.Article, error) {
	return s.getByIDFn(ctx, id)
}
func (s *articleRepoStub) List(ctx context.Context, q repository.ListQuery) ([]*models.Article, int64, error) {
	return s.listFn(ctx, q)
}
func (s *articleRepoStub) Update(ctx context.Context, article *models.Article) error {
	return s.updateFn(ctx, article)
}
func (s *articleRepoStub) ReplaceTags(ctx context.Context, article *models.Article, tags []models.Tag) error {
	return s.replaceTagsFn(ctx, article, tags)
}
func (s *articleRepoStub) SetSolution(ctx context.Context, articleID, solutionID uint) error {
	return s.setSolutionFn(ctx, articleID, solutionID)
}
func (s *articleRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopArticleRepo() *articleRepoStub {
	return &articleRepoStub{
		createFn:  func(_ context.Context, _ *models.Article) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Article, error) { return &models.Article{ID: id}, nil },
		listFn: func(_ context.Context, _ repository.ListQuery) ([]*models.Article, int64, error) {
			return nil, 0, nil
		},
		updateFn:      func(_ context.Context, _ *models.Article) error { return nil },
		replaceTagsFn: func(_ context.Context, _ *models.Article, _ []models.Tag) error { return nil },
		setSolutionFn: func(_ context.Context, _, _ uint) error { return nil },
		deleteFn:      func(_ context.Context, _ uint) error { return nil },
	}
}

// tagRepoStub is a stub for repository.TagRepository.
type tagRepoStub struct {
	getBySlugFn func(context.Context, string) (*models.Tag, error)
	getByIDsFn  func(context.Context, []uint) ([]models.Tag, error)
	listFn      func(context.Context) ([]*models.Tag, error)
	createFn    func(context.Context, *models.Tag) error
}

func (s *tagRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *tagRepoStub) GetByIDs(ctx context.Context, ids []uint) ([]models.Tag, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *tagRepoStub) List(ctx context.Context) ([]*models.Tag, error) {
	return s.listFn(ctx)
}
func (s *tagRepoStub) Create(ctx context.Context, tag *models.Tag) error {
	return s.createFn(ctx, tag)
}

func noopTagRepo() *tagRepoStub {
	return &tagRepoStub{
		getBySlugFn: func(_ context.Context, slug string) (*models.Tag, error) {
			return &models.Tag{ID: 1, Slug: slug}, nil
		},
		getByIDsFn: func(_ context.Context, ids []uint) ([]models.Tag, error) {
			tags := make([]models.Tag, len(ids))
			for i, id := range ids {
				tags[i] = models.Tag{ID: id}
			}
			return tags, nil
		},
		listFn:   func(_ context.Context) ([]*models.Tag, error) { return nil, nil },
		createFn: func(_ context.Context, _ *models.Tag) error { return nil },
	}
}

// attachmentRepoStub is a stub for repository.AttachmentRepository.
type attachmentRepoStub struct {
	createFn             func(context.Context, *models.Attachment) error
	getByIDFn            func(context.Context, uint) (*models.Attachment, error)
	getUnattachedByIDsFn func(context.Context, []uint) ([]models.Attachment, error)
	listByArticleFn      func(context.Context, uint) ([]models.Attachment, error)
	associateFn          func(context.Context, []uint, uint) error
	deleteByArticleFn    func(context.Context, uint) error
}

func (s *attachmentRepoStub) Create(ctx context.Context, attachment *models.Attachment) error {
	return s.createFn(ctx, attachment)
}
func (s *attachmentRepoStub) GetByID(ctx context.Context, id uint) (*models.Attachment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *attachmentRepoStub) GetUnattachedByIDs(ctx context.Context, ids []uint) ([]models.Attachment, error) {
	return s.getUnattachedByIDsFn(ctx, ids)
}
func (s *attachmentRepoStub) ListByArticle(ctx context.Context, articleID uint) ([]models.Attachment, error) {
	return s.listByArticleFn(ctx, articleID)
}
func (s *attachmentRepoStub) Associate(ctx context.Context, ids []uint, articleID uint) error {
	return s.associateFn(ctx, ids, articleID)
}
func (s *attachmentRepoStub) DeleteByArticle(ctx context.Context, articleID uint) error {
	return s.deleteByArticleFn(ctx, articleID)
}

func noopAttachmentRepo() *attachmentRepoStub {
	return &attachmentRepoStub{
		createFn:  func(_ context.Context, _ *models.Attachment) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Attachment, error) { return &models.Attachment{ID: id}, nil },
		getUnattachedByIDsFn: func(_ context.Context, ids []uint) ([]models.Attachment, error) {
			attachments := make([]models.Attachment, len(ids))
			for i, id := range ids {
				attachments[i] = models.Attachment{ID: id}
			}
			return attachments, nil
		},
		listByArticleFn:   func(_ context.Context, _ uint) ([]models.Attachment, error) { return nil, nil },
		associateFn:       func(_ context.Context, _ []uint, _ uint) error { return nil },
		deleteByArticleFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// notifierStub records published events.
type notifierStub struct {
	changes  [][]string
	consumed []uint
	err      error
}

func (s *notifierStub) PublishChange(_ context.Context, domains ...string) error {
	s.changes = append(s.changes, domains)
	return s.err
}
func (s *notifierStub) PublishConsumed(_ context.Context, articleID uint) error {
	s.consumed = append(s.consumed, articleID)
	return s.err
}

// fileStoreStub records deleted file names.
type fileStoreStub struct {
	deleted []string
	err     error
}

func (s *fileStoreStub) Delete(name string) error {
	s.deleted = append(s.deleted, name)
	return s.err
}

func newArticleService(
	articleRepo repository.ArticleRepository,
	tagRepo repository.TagRepository,
	commentRepo repository.CommentRepository,
	attachmentRepo repository.AttachmentRepository,
	notifier ChangeNotifier,
	files AttachmentFiles,
) *ArticleService {
	comments := NewCommentService(commentRepo, articleRepo)
	return NewArticleService(articleRepo, tagRepo, commentRepo, attachmentRepo, comments, notifier, files, 5)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, models.CodeValidation, appErr.Code)
}

// assertForbiddenError asserts that err is an AppError with code FORBIDDEN.
func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, models.CodeForbidden, appErr.Code)
}

// assertNotFoundError asserts that err is an AppError with code NOT_FOUND.
func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func author() *models.User {
	return &models.User{ID: 99, IsAuthor: true}
}

func reader(id uint) *models.User {
	return &models.User{ID: id}
}

func TestArticleService_CreateArticle_Validation(t *testing.T) {
	t.Parallel()

	svc := newArticleService(noopArticleRepo(), noopTagRepo(), noopCommentRepo(), noopAttachmentRepo(), &notifierStub{}, &fileStoreStub{})
	ctx := context.Background()

	t.Run("empty title", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreateArticle(ctx, CreateArticleInput{UserID: 1, Body: "b"})
		assertValidationError(t, err)
	})

	t.Run("title too long", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreateArticle(ctx, CreateArticleInput{
			UserID: 1,
			Title:  strings.Repeat("x", maxTitleLen+1),
			Body:   "b",
		})
		assertValidationError(t, err)
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreateArticle(ctx, CreateArticleInput{UserID: 1, Title: "t"})
		assertValidationError(t, err)
	})

	t.Run("unknown tag id", func(t *testing.T) {
		t.Parallel()
		tagRepo := noopTagRepo()
		tagRepo.getByIDsFn = func(_ context.Context, _ []uint) ([]models.Tag, error) { return nil, nil }
		svc2 := newArticleService(noopArticleRepo(), tagRepo, noopCommentRepo(), noopAttachmentRepo(), &notifierStub{}, &fileStoreStub{})
		_, err := svc2.CreateArticle(ctx, CreateArticleInput{UserID: 1, Title: "t", Body: "b", TagIDs: []uint{7}})
		assertValidationError(t, err)
	})

	t.Run("already attached attachment", func(t *testing.T) {
		t.Parallel()
		attachmentRepo := noopAttachmentRepo()
		attachmentRepo.getUnattachedByIDsFn = func(_ context.Context, _ []uint) ([]models.Attachment, error) {
			return nil, nil
		}
		created := 0
		articleRepo := noopArticleRepo()
		articleRepo.createFn = func(_ context.Context, _ *models.Article) error {
			created++
			return nil
		}
		svc2 := newArticleService(articleRepo, noopTagRepo(), noopCommentRepo(), attachmentRepo, &notifierStub{}, &fileStoreStub{})
		_, err := svc2.CreateArticle(ctx, CreateArticleInput{UserID: 1, Title: "t", Body: "b", AttachmentIDs: []uint{3}})
		assertValidationError(t, err)
		// The rejection must come before the insert, never after.
		assert.Zero(t, created)
	})
}

func TestArticleService_CreateArticle_Success(t *testing.T) {
	t.Parallel()

	articleRepo := noopArticleRepo()
	articleRepo.createFn = func(_ context.Context, a *models.Article) error {
		a.ID = 42
		return nil
	}
	var replaced []models.Tag
	articleRepo.replaceTagsFn = func(_ context.Context, _ *models.Article, tags []models.Tag) error {
		replaced = tags
		return nil
	}
	var claimed []uint
	var claimedBy uint
	attachmentRepo := noopAttachmentRepo()
	attachmentRepo.associateFn = func(_ context.Context, ids []uint, articleID uint) error {
		claimed = ids
		claimedBy = articleID
		return nil
	}
	notifier := &notifierStub{}

	svc := newArticleService(articleRepo, noopTagRepo(), noopCommentRepo(), attachmentRepo, notifier, &fileStoreStub{})
	article, err := svc.CreateArticle(context.Background(), CreateArticleInput{
		UserID:        1,
		Title:         "Release notes",
		Body:          "Long form body",
		Notification:  true,
		TagIDs:        []uint{2, 3},
		AttachmentIDs: []uint{7},
	})
	require.NoError(t, err)
	assert.Equal(t, uint(42), article.ID)
	assert.Len(t, replaced, 2)
	assert.Equal(t, []uint{7}, claimed)
	assert.Equal(t, uint(42), claimedBy)
	require.Len(t, notifier.changes, 1)
	assert.ElementsMatch(t, []string{"articles", "tags"}, notifier.changes[0])
}

func TestArticleService_CreateArticle_DuplicateAttachmentIDs(t *testing.T) {
	t.Parallel()

	attachmentRepo := noopAttachmentRepo()
	var lookedUp []uint
	attachmentRepo.getUnattachedByIDsFn = func(_ context.Context, ids []uint) ([]models.Attachment, error) {
		lookedUp = ids
		return []models.Attachment{{ID: 7}}, nil
	}
	var claimed []uint
	attachmentRepo.associateFn = func(_ context.Context, ids []uint, _ uint) error {
		claimed = ids
		return nil
	}

	svc := newArticleService(noopArticleRepo(), noopTagRepo(), noopCommentRepo(), attachmentRepo, &notifierStub{}, &fileStoreStub{})
	_, err := svc.CreateArticle(context.Background(), CreateArticleInput{
		UserID:        1,
		Title:         "t",
		Body:          "b",
		AttachmentIDs: []uint{7, 7},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{7}, lookedUp)
	assert.Equal(t, []uint{7}, claimed)
}

func TestArticleService_ListArticles(t *testing.T) {
	t.Parallel()

	t.Run("unknown tag slug is not found", func(t *testing.T) {
		t.Parallel()
		tagRepo := noopTagRepo()
		tagRepo.getBySlugFn = func(_ context.Context, _ string) (*models.Tag, error) {
			return nil, errRecordNotFound()
		}
		svc := newArticleService(noopArticleRepo(), tagRepo, noopCommentRepo(), noopAttachmentRepo(), &notifierStub{}, &fileStoreStub{})
		_, err := svc.ListArticles(context.Background(), ListArticlesInput{TagSlug: "ghost"})
		assertNotFoundError(t, err)
	})

	t.Run("defaults applied and page assembled", func(t *testing.T) {
		t.Parallel()
		var got repository.ListQuery
		articleRepo := noopArticleRepo()
		articleRepo.listFn = func(_ context.Context, q repository.ListQuery) ([]*models.Article, int64, error) {
			got = q
			return []*models.Article{{ID: 1}, {ID: 2}}, 12, nil
		}
		svc := newArticleService(articleRepo, noopTagRepo(), noopCommentRepo(), noopAttachmentRepo(), &notifierStub{}, &fileStoreStub{})
		page, err := svc.ListArticles(context.Background(), ListArticlesInput{})
		require.NoError(t, err)
		assert.Equal(t, 1, got.Page)
		assert.Equal(t, 5, got.PageSize)
		assert.Equal(t, int64(12), page.Total)
		assert.Len(t, page.Items, 2)
	})

	t.Run("tag filter resolves slug to id", func(t *testing.T) {
		t.Parallel()
		tagRepo := noopTagRepo()
		tagRepo.getBySlugFn = func(_ context.Context, slug string) (*models.Tag, error) {
			return &models.Tag{ID: 9, Slug: slug}, nil
		}
		var got repository.ListQuery
		articleRepo := noopArticleRepo()
		articleRepo.listFn = func(_ context.Context, q repository.ListQuery) ([]*models.Article, int64, error) {
			got = q
			return nil, 0, nil
		}
		svc := newArticleService(articleRepo, tagRepo, noopCommentRepo(), noopAttachmentRepo(), &notifierStub{}, &fileStoreStub{})
		_, err := svc.ListArticles(context.Background(), ListArticlesInput{TagSlug: "golang"})
		require.NoError(t, err)
		require.NotNil(t, got.TagID)
		assert.Equal(t, uint(9), *got.TagID)
	})
}

func TestArticleService_GetArticle(t *testing.T) {
	t.Parallel()

	t.Run("missing article is not found", func(t *testing.T) {
		t.Parallel()
		articleRepo := noopArticleRepo()
		articleRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Article, error) {
			return nil, errRecordNotFound()
		}
		svc := newArticleService(articleRepo, noopTagRepo(), noopCommentRepo(), noopAttachmentRepo(), &notifierStub{}, &fileStoreStub{})
		_, _, err := svc.GetArticle(context.Background(), 404, false)
		assertNotFoundError(t, err)
	})

	t.Run("returns article with thread", func(t *testing.T) {
		t.Parallel()
		commentRepo := noopCommentRepo()
		commentRepo.topLevelFn = func(_ context.Context, articleID uint) ([]*models.Comment, error) {
			return []*models.Comment{{ID: 5, ArticleID: articleID}}, nil
		}
		svc := newArticleService(noopArticleRepo(), noopTagRepo(), commentRepo, noopAttachmentRepo(), &notifierStub{}, &fileStoreStub{})
		article, comments, err := svc.GetArticle(context.Background(), 1, false)
		require.NoError(t, err)
		assert.Equal(t, uint(1), article.ID)
		require.Len(t, comments, 1)
		assert.Equal(t, uint(5), comments[0].ID)
	})

	t.Run("view tracking publishes consumed event", func(t *testing.T) {
		t.Parallel()
		notifier := &notifierStub{}
		svc := newArticleService(noopArticleRepo(), noopTagRepo(), noopCommentRepo(), noopAttachmentRepo(), notifier, &fileStoreStub{})
		_, _, err := svc.GetArticle(context.Background(), 7, true)
		require.NoError(t, err)
		assert.Equal(t, []uint{7}, notifier.consumed)
	})

	t.Run("api clients do not publish consumed events", func(t *testing.T) {
		t.Parallel()
		notifier := &notifierStub{}
		svc := newArticleService(noopArticleRepo(), noopTagRepo(), noopCommentRepo(), noopAttachmentRepo(), notifier, &fileStoreStub{})
		_, _, err := svc.GetArticle(context.Background(), 7, false)
		require.NoError(t, err)
		assert.Empty(t, notifier.consumed)
	})
}

func TestArticleService_UpdateArticle_Authorization(t *testing.T) {
	t.Parallel()

	articleRepo := noopArticleRepo()
	articleRepo.getByIDFn = func(_ context.Context, id uint) (*models.Article, error) {
		return &models.Article{ID: id, UserID: 10}, nil
	}

	t.Run("stranger is forbidden", func(t *testing.T) {
		t.Parallel()
		svc := newArticleService(articleRepo, noopTagRepo(), noopCommentRepo(), noopAttachmentRepo(), &notifierStub{}, &fileStoreStub{})
		_, err := svc.UpdateArticle(context.Background(), reader(1), UpdateArticleInput{ArticleID: 1, Title: "new"})
		assertForbiddenError(t, err)
	})

	t.Run("owner may update", func(t *testing.T) {
		t.Parallel()
		svc := newArticleService(articleRepo, noopTagRepo(), noopCommentRepo(), noopAttachmentRepo(), &notifierStub{}, &fileStoreStub{})
		_, err := svc.UpdateArticle(context.Background(), reader(10), UpdateArticleInput{ArticleID: 1, Title: "new"})
		require.NoError(t, err)
	})

	t.Run("author capability may update any article", func(t *testing.T) {
		t.Parallel()
		svc := newArticleService(articleRepo, noopTagRepo(), noopCommentRepo(), noopAttachmentRepo(), &notifierStub{}, &fileStoreStub{})
		_, err := svc.UpdateArticle(context.Background(), author(), UpdateArticleInput{ArticleID: 1, Title: "new"})
		require.NoError(t, err)
	})
}

func TestArticleService_UpdateArticle_Fields(t *testing.T) {
	t.Parallel()

	t.Run("notification flag recomputed from payload", func(t *testing.T) {
		t.Parallel()
		var saved *models.Article
		articleRepo := noopArticleRepo()
		articleRepo.getByIDFn = func(_ context.Context, id uint) (*models.Article, error) {
			return &models.Article{ID: id, UserID: 1, Notification: true}, nil
		}
		articleRepo.updateFn = func(_ context.Context, a *models.Article) error {
			saved = a
			return nil
		}
		svc := newArticleService(articleRepo, noopTagRepo(), noopCommentRepo(), noopAttachmentRepo(), &notifierStub{}, &fileStoreStub{})
		// A payload without the checkbox turns the flag off.
		_, err := svc.UpdateArticle(context.Background(), reader(1), UpdateArticleInput{ArticleID: 1, Title: "t"})
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.False(t, saved.Notification)
	})

	t.Run("nil tag ids leave tag set untouched", func(t *testing.T) {
		t.Parallel()
		articleRepo := noopArticleRepo()
		articleRepo.getByIDFn = func(_ context.Context, id uint) (*models.Article, error) {
			return &models.Article{ID: id, UserID: 1}, nil
		}
		replaceCalls := 0
		articleRepo.replaceTagsFn = func(_ context.Context, _ *models.Article, _ []models.Tag) error {
			replaceCalls++
			return nil
		}
		svc := newArticleService(articleRepo, noopTagRepo(), noopCommentRepo(), noopAttachmentRepo(), &notifierStub{}, &fileStoreStub{})
		_, err := svc.UpdateArticle(context.Background(), reader(1), UpdateArticleInput{ArticleID: 1, Title: "t"})
		require.NoError(t, err)
		assert.Zero(t, replaceCalls)
	})

	t.Run("empty tag ids clear the tag set", func(t *testing.T) {
		t.Parallel()
		articleRepo := noopArticleRepo()
		articleRepo.getByIDFn = func(_ context.Context, id uint) (*models.Article, error) {
			return &models.Article{ID: id, UserID: 1}, nil
		}
		replaceCalls := 0
		var replaced []models.Tag
		articleRepo.replaceTagsFn = func(_ context.Context, _ *models.Article, tags []models.Tag) error {
			replaceCalls++
			replaced = tags
			return nil
		}
		svc := newArticleService(articleRepo, noopTagRepo(), noopCommentRepo(), noopAttachmentRepo(), &notifierStub{}, &fileStoreStub{})
		empty := []uint{}
		_, err := svc.UpdateArticle(context.Background(), reader(1), UpdateArticleInput{ArticleID: 1, TagIDs: &empty})
		require.NoError(t, err)
		assert.Equal(t, 1, replaceCalls)
		assert.Empty(t, replaced)
	})

	t.Run("unknown tag ids reject before saving", func(t *testing.T) {
		t.Parallel()
		articleRepo := noopArticleRepo()
		articleRepo.getByIDFn = func(_ context.Context, id uint) (*models.Article, error) {
			return &models.Article{ID: id, UserID: 1, Title: "original"}, nil
		}
		updateCalls := 0
		articleRepo.updateFn = func(_ context.Context, _ *models.Article) error {
			updateCalls++
			return nil
		}
		tagRepo := noopTagRepo()
		tagRepo.getByIDsFn = func(_ context.Context, _ []uint) ([]models.Tag, error) { return nil, nil }
		svc := newArticleService(articleRepo, tagRepo, noopCommentRepo(), noopAttachmentRepo(), &notifierStub{}, &fileStoreStub{})
		bad := []uint{42}
		_, err := svc.UpdateArticle(context.Background(), reader(1), UpdateArticleInput{ArticleID: 1, Title: "changed", TagIDs: &bad})
		assertValidationError(t, err)
		// The title change must not reach persistence on a rejected payload.
		assert.Zero(t, updateCalls)
	})

	t.Run("update notifies articles and tags", func(t *testing.T) {
		t.Parallel()
		articleRepo := noopArticleRepo()
		articleRepo.getByIDFn = func(_ context.Context, id uint) (*models.Article, error) {
			return &models.Article{ID: id, UserID: 1}, nil
		}
		notifier := &notifierStub{}
		svc := newArticleService(articleRepo, noopTagRepo(), noopCommentRepo(), noopAttachmentRepo(), notifier, &fileStoreStub{})
		_, err := svc.UpdateArticle(context.Background(), reader(1), UpdateArticleInput{ArticleID: 1, Title: "t"})
		require.NoError(t, err)
		require.Len(t, notifier.changes, 1)
		assert.ElementsMatch(t, []string{"articles", "tags"}, notifier.changes[0])
	})
}

func TestArticleService_PickBestAnswer(t *testing.T) {
	t.Parallel()

	t.Run("requires author capability", func(t *testing.T) {
		t.Parallel()
		svc := newArticleService(noopArticleRepo(), noopTagRepo(), noopCommentRepo(), noopAttachmentRepo(), &notifierStub{}, &fileStoreStub{})
		err := svc.PickBestAnswer(context.Background(), reader(1), 1, 2)
		assertForbiddenError(t, err)
	})

	t.Run("zero solution id is invalid", func(t *testing.T) {
		t.Parallel()
		svc := newArticleService(noopArticleRepo(), noopTagRepo(), noopCommentRepo(), noopAttachmentRepo(), &notifierStub{}, &fileStoreStub{})
		err := svc.PickBestAnswer(context.Background(), author(), 1, 0)
		assertValidationError(t, err)
	})

	t.Run("missing comment is invalid", func(t *testing.T) {
		t.Parallel()
		commentRepo := noopCommentRepo()
		commentRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return nil, errRecordNotFound()
		}
		svc := newArticleService(noopArticleRepo(), noopTagRepo(), commentRepo, noopAttachmentRepo(), &notifierStub{}, &fileStoreStub{})
		err := svc.PickBestAnswer(context.Background(), author(), 1, 99)
		assertValidationError(t, err)
	})

	t.Run("comment from another article is invalid", func(t *testing.T) {
		t.Parallel()
		commentRepo := noopCommentRepo()
		commentRepo.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, ArticleID: 777}, nil
		}
		svc := newArticleService(noopArticleRepo(), noopTagRepo(), commentRepo, noopAttachmentRepo(), &notifierStub{}, &fileStoreStub{})
		err := svc.PickBestAnswer(context.Background(), author(), 1, 5)
		assertValidationError(t, err)
	})

	t.Run("marks the solution without notifying", func(t *testing.T) {
		t.Parallel()
		commentRepo := noopCommentRepo()
		commentRepo.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, ArticleID: 1}, nil
		}
		var gotArticle, gotSolution uint
		articleRepo := noopArticleRepo()
		articleRepo.setSolutionFn = func(_ context.Context, articleID, solutionID uint) error {
			gotArticle = articleID
			gotSolution = solutionID
			return nil
		}
		notifier := &notifierStub{}
		svc := newArticleService(articleRepo, noopTagRepo(), commentRepo, noopAttachmentRepo(), notifier, &fileStoreStub{})
		err := svc.PickBestAnswer(context.Background(), author(), 1, 5)
		require.NoError(t, err)
		assert.Equal(t, uint(1), gotArticle)
		assert.Equal(t, uint(5), gotSolution)
		assert.Empty(t, notifier.changes)
	})
}

func TestArticleService_DeleteArticle(t *testing.T) {
	t.Parallel()

	t.Run("requires author capability", func(t *testing.T) {
		t.Parallel()
		svc := newArticleService(noopArticleRepo(), noopTagRepo(), noopCommentRepo(), noopAttachmentRepo(), &notifierStub{}, &fileStoreStub{})
		err := svc.DeleteArticle(context.Background(), reader(1), 1)
		assertForbiddenError(t, err)
	})

	t.Run("missing article is not found", func(t *testing.T) {
		t.Parallel()
		articleRepo := noopArticleRepo()
		articleRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Article, error) {
			return nil, errRecordNotFound()
		}
		svc := newArticleService(articleRepo, noopTagRepo(), noopCommentRepo(), noopAttachmentRepo(), &notifierStub{}, &fileStoreStub{})
		err := svc.DeleteArticle(context.Background(), author(), 404)
		assertNotFoundError(t, err)
	})

	t.Run("file removal failure aborts the cascade", func(t *testing.T) {
		t.Parallel()
		attachmentRepo := noopAttachmentRepo()
		attachmentRepo.listByArticleFn = func(_ context.Context, _ uint) ([]models.Attachment, error) {
			return []models.Attachment{{ID: 1, FileName: "a.webp"}}, nil
		}
		recordsDeleted := false
		attachmentRepo.deleteByArticleFn = func(_ context.Context, _ uint) error {
			recordsDeleted = true
			return nil
		}
		files := &fileStoreStub{err: errors.New("disk gone")}
		svc := newArticleService(noopArticleRepo(), noopTagRepo(), noopCommentRepo(), attachmentRepo, &notifierStub{}, files)
		err := svc.DeleteArticle(context.Background(), author(), 1)
		require.Error(t, err)
		assert.False(t, recordsDeleted)
	})

	t.Run("cascade runs files, records, comments, article in order", func(t *testing.T) {
		t.Parallel()
		var order []string

		attachmentRepo := noopAttachmentRepo()
		attachmentRepo.listByArticleFn = func(_ context.Context, _ uint) ([]models.Attachment, error) {
			return []models.Attachment{{ID: 1, FileName: "a.webp"}, {ID: 2, FileName: "b.webp"}}, nil
		}
		attachmentRepo.deleteByArticleFn = func(_ context.Context, _ uint) error {
			order = append(order, "records")
			return nil
		}

		files := &fileStoreStub{}
		commentRepo := noopCommentRepo()
		commentRepo.topLevelFn = func(_ context.Context, _ uint) ([]*models.Comment, error) {
			return []*models.Comment{{ID: 10}}, nil
		}
		commentRepo.repliesFn = func(_ context.Context, parentID uint) ([]*models.Comment, error) {
			if parentID == 10 {
				return []*models.Comment{{ID: 11}}, nil
			}
			return nil, nil
		}
		commentRepo.deleteFn = func(_ context.Context, id uint) error {
			order = append(order, fmt.Sprintf("comment:%d", id))
			return nil
		}

		articleRepo := noopArticleRepo()
		articleRepo.deleteFn = func(_ context.Context, _ uint) error {
			order = append(order, "article")
			return nil
		}

		notifier := &notifierStub{}
		svc := newArticleService(articleRepo, noopTagRepo(), commentRepo, attachmentRepo, notifier, files)
		err := svc.DeleteArticle(context.Background(), author(), 1)
		require.NoError(t, err)

		assert.Equal(t, []string{"a.webp", "b.webp"}, files.deleted)
		// Replies go before their parent, the article row goes last.
		assert.Equal(t, []string{"records", "comment:11", "comment:10", "article"}, order)

		require.Len(t, notifier.changes, 1)
		assert.Equal(t, []string{"articles"}, notifier.changes[0])
	})
}

// errRecordNotFound returns gorm's not-found sentinel without importing gorm
// in every test body.
func errRecordNotFound() error {
	return gorm.ErrRecordNotFound
}
