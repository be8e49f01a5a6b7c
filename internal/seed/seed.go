package seed

import (
	"log"

	"tribune/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumArticles int
	ShouldClean bool
}

var defaultTags = []string{
	"Go", "Databases", "Redis", "Networking", "Testing",
	"Performance", "Security", "Tooling", "Releases", "How To",
}

// Seed populates the database with demo data.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding %d users and %d articles...", opts.NumUsers, opts.NumArticles)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway")
		}
	}

	factory := NewFactory(db)

	tags := make([]*models.Tag, 0, len(defaultTags))
	for _, name := range defaultTags {
		tag, err := factory.CreateTag(name)
		if err != nil {
			return err
		}
		tags = append(tags, tag)
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := factory.CreateUser()
		if err != nil {
			return err
		}
		users = append(users, user)
	}
	if len(users) == 0 {
		log.Println("No users requested; skipping articles")
		return nil
	}

	for i := 0; i < opts.NumArticles; i++ {
		owner := users[factory.rnd.Intn(len(users))]
		article, err := factory.CreateArticle(owner, tags)
		if err != nil {
			return err
		}
		for j := 0; j < factory.rnd.Intn(5); j++ {
			if _, err := factory.CreateCommentThread(article, users); err != nil {
				return err
			}
		}
	}

	log.Println("Seeding complete")
	return nil
}

// clearData removes seeded rows in dependency order.
func clearData(db *gorm.DB) error {
	tables := []string{"article_tags", "attachments", "comments", "articles", "tags", "users"}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}
