package server

import (
	"testing"

	"tribune/internal/config"
	"tribune/internal/database"
	"tribune/internal/models"
	"tribune/internal/notifications"
	"tribune/internal/repository"
	"tribune/internal/service"
	"tribune/internal/storage"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestServer builds a Server over an in-memory sqlite database and a
// temp-dir file store, with no Redis (cache and events degrade to no-ops).
func newTestServer(t *testing.T) (*Server, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	fileStore, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}

	cfg := &config.Config{
		JWTSecret: "test-secret-test-secret-test-secret",
		Port:      "0",
		PageSize:  5,
		Env:       "test",
	}

	s := &Server{
		config:         cfg,
		db:             db,
		userRepo:       repository.NewUserRepository(db),
		articleRepo:    repository.NewArticleRepository(db),
		tagRepo:        repository.NewTagRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		attachmentRepo: repository.NewAttachmentRepository(db),
		notifier:       notifications.NewNotifier(nil),
		fileStore:      fileStore,
	}
	s.commentService = service.NewCommentService(s.commentRepo, s.articleRepo)
	s.articleService = service.NewArticleService(
		s.articleRepo, s.tagRepo, s.commentRepo, s.attachmentRepo,
		s.commentService, s.notifier, s.fileStore, cfg.PageSize,
	)
	return s, db
}

// newTestApp mounts the server's routes behind a middleware that injects the
// given user as the authenticated caller.
func newTestApp(s *Server, userID uint) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != 0 {
			c.Locals("userID", userID)
		}
		return c.Next()
	})

	app.Get("/api/articles", s.ListArticles)
	app.Get("/api/articles/:id", s.GetArticle)
	app.Post("/api/articles", s.CreateArticle)
	app.Patch("/api/articles/:id/solution", s.PickBestAnswer)
	app.Post("/api/articles/:id/comments", s.CreateComment)
	app.Put("/api/articles/:id", s.UpdateArticle)
	app.Delete("/api/articles/:id", s.DeleteArticle)
	app.Get("/api/tags", s.ListTags)
	app.Get("/api/tags/:slug/articles", s.ListArticlesByTag)
	app.Delete("/api/comments/:id", s.DeleteComment)
	app.Post("/api/attachments", s.UploadAttachment)
	return app
}

func seedUser(t *testing.T, db *gorm.DB, username string, isAuthor bool) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		IsAuthor: isAuthor,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedTag(t *testing.T, db *gorm.DB, slug string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Slug: slug, Name: slug}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("seed tag: %v", err)
	}
	return tag
}

func seedArticle(t *testing.T, db *gorm.DB, userID uint, title string) *models.Article {
	t.Helper()
	article := &models.Article{Title: title, Body: "body", UserID: userID}
	if err := db.Create(article).Error; err != nil {
		t.Fatalf("seed article: %v", err)
	}
	return article
}

func seedComment(t *testing.T, db *gorm.DB, articleID, userID uint, body string) *models.Comment {
	t.Helper()
	comment := &models.Comment{ArticleID: articleID, UserID: userID, Body: body}
	if err := db.Create(comment).Error; err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	return comment
}
