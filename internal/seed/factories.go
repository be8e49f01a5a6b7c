// Package seed provides helpers to create development and demo data for the
// application database.
package seed

import (
	"math/rand"
	"strings"
	"time"

	"tribune/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db  *gorm.DB
	rnd *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db, rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// CreateUser persists a user with a hashed password. Roughly one in five
// gets the author capability so seeded data exercises both roles.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: gofakeit.Username() + gofakeit.DigitN(4),
		Email:    gofakeit.Email(),
		Password: string(hash),
		IsAuthor: f.rnd.Intn(5) == 0,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateTag persists a tag with a slug derived from its name.
func (f *Factory) CreateTag(name string) (*models.Tag, error) {
	tag := &models.Tag{
		Name: name,
		Slug: strings.ToLower(strings.ReplaceAll(name, " ", "-")),
	}
	if err := f.db.Create(tag).Error; err != nil {
		return nil, err
	}
	return tag, nil
}

// CreateArticle persists an article with a realistic created_at spread over
// the past 90 days and a random subset of the given tags.
func (f *Factory) CreateArticle(user *models.User, tags []*models.Tag, overrides ...func(*models.Article)) (*models.Article, error) {
	article := &models.Article{
		Title:        gofakeit.Sentence(6),
		Body:         gofakeit.Paragraph(2, 4, 8, "\n\n"),
		UserID:       user.ID,
		Pin:          f.rnd.Intn(20) == 0,
		Notification: f.rnd.Intn(3) == 0,
	}
	daysBack := f.rnd.Intn(90)
	article.CreatedAt = time.Now().
		Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(f.rnd.Intn(24))*time.Hour)

	for _, override := range overrides {
		override(article)
	}
	if err := f.db.Create(article).Error; err != nil {
		return nil, err
	}

	if len(tags) > 0 {
		picked := make([]models.Tag, 0, 3)
		for _, tag := range tags {
			if f.rnd.Intn(len(tags)) < 3 {
				picked = append(picked, *tag)
			}
		}
		if len(picked) > 0 {
			if err := f.db.Model(article).Association("Tags").Replace(picked); err != nil {
				return nil, err
			}
		}
	}
	return article, nil
}

// CreateCommentThread persists a top-level comment with up to three replies
// from random members of users.
func (f *Factory) CreateCommentThread(article *models.Article, users []*models.User) (*models.Comment, error) {
	author := users[f.rnd.Intn(len(users))]
	top := &models.Comment{
		ArticleID: article.ID,
		UserID:    author.ID,
		Body:      gofakeit.Sentence(12),
	}
	if err := f.db.Create(top).Error; err != nil {
		return nil, err
	}

	for i := 0; i < f.rnd.Intn(4); i++ {
		replier := users[f.rnd.Intn(len(users))]
		reply := &models.Comment{
			ArticleID: article.ID,
			ParentID:  &top.ID,
			UserID:    replier.ID,
			Body:      gofakeit.Sentence(8),
		}
		if err := f.db.Create(reply).Error; err != nil {
			return nil, err
		}
	}
	return top, nil
}
