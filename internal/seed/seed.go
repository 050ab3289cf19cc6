// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"quill/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Options controls how much data the seeder creates.
type Options struct {
	NumProfiles int
	NumArticles int
	// CommentsPerArticle is an upper bound; each article gets a random count.
	CommentsPerArticle int
	// DraftRatio is the fraction of articles left unpublished, 0..1.
	DraftRatio float64
}

// DefaultOptions returns a medium-sized data set suitable for local development.
func DefaultOptions() Options {
	return Options{
		NumProfiles:        25,
		NumArticles:        120,
		CommentsPerArticle: 8,
		DraftRatio:         0.15,
	}
}

// Seeder populates the database with generated profiles, articles and comments.
type Seeder struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:   db,
		opts: opts,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll removes all seeded data. Order matters for referential sanity even
// though the schema does not enforce FKs across these tables.
func (s *Seeder) ClearAll() error {
	for _, model := range []interface{}{
		&models.Comment{},
		&models.Article{},
		&models.UserProfile{},
	} {
		if err := s.db.Unscoped().Where("1 = 1").Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	log.Println("Cleared existing data")
	return nil
}

// SeedProfiles creates reader/contributor profiles plus one admin.
func (s *Seeder) SeedProfiles() ([]*models.UserProfile, error) {
	profiles := make([]*models.UserProfile, 0, s.opts.NumProfiles+1)

	admin := &models.UserProfile{
		UID:          "seed-admin-" + uuid.New().String()[:8],
		Username:     "editor_in_chief",
		Role:         models.RoleAdmin,
		ProfileImage: models.DefaultAvatarURL,
	}
	profiles = append(profiles, admin)

	for i := 0; i < s.opts.NumProfiles; i++ {
		role := models.RoleReader
		// Roughly half the seeded users can write articles.
		if s.rng.Intn(2) == 0 {
			role = models.RoleContributor
		}
		profiles = append(profiles, &models.UserProfile{
			UID:          "seed-" + uuid.New().String(),
			Username:     fmt.Sprintf("%s%d", gofakeit.Username(), i),
			Role:         role,
			ProfileImage: fmt.Sprintf("https://picsum.photos/seed/%s/240/240.jpg", gofakeit.UUID()),
		})
	}

	if err := s.db.CreateInBatches(profiles, 50).Error; err != nil {
		return nil, fmt.Errorf("seed profiles: %w", err)
	}
	log.Printf("Seeded %d profiles", len(profiles))
	return profiles, nil
}

// SeedArticles creates articles authored by the contributor/admin profiles,
// with publish times spread over the last 90 days so pagination has substance.
func (s *Seeder) SeedArticles(profiles []*models.UserProfile) ([]*models.Article, error) {
	authors := make([]*models.UserProfile, 0, len(profiles))
	for _, p := range profiles {
		if p.Role != models.RoleReader {
			authors = append(authors, p)
		}
	}
	if len(authors) == 0 {
		return nil, fmt.Errorf("no contributor profiles to author articles")
	}

	articles := make([]*models.Article, 0, s.opts.NumArticles)
	for i := 0; i < s.opts.NumArticles; i++ {
		author := authors[s.rng.Intn(len(authors))]
		written := time.Now().UTC().
			Add(-time.Duration(s.rng.Intn(90*24)) * time.Hour).
			Add(-time.Duration(s.rng.Intn(60)) * time.Minute)

		article := &models.Article{
			AuthorUID:      author.UID,
			AuthorUsername: author.Username,
			AuthorImage:    author.ProfileImage,
			Title:          gofakeit.Sentence(6),
			Content:        gofakeit.Paragraph(4, 6, 12, "\n\n"),
			HeaderImage:    fmt.Sprintf("https://picsum.photos/seed/%s/1200/600.jpg", gofakeit.UUID()),
			EditTime:       written,
		}
		if s.rng.Float64() >= s.opts.DraftRatio {
			article.Published = true
			article.PublishTime = &written
		}
		articles = append(articles, article)
	}

	if err := s.db.CreateInBatches(articles, 50).Error; err != nil {
		return nil, fmt.Errorf("seed articles: %w", err)
	}
	log.Printf("Seeded %d articles", len(articles))
	return articles, nil
}

// SeedComments attaches comments to published articles. Comments always
// postdate their article's publish time.
func (s *Seeder) SeedComments(profiles []*models.UserProfile, articles []*models.Article) (int, error) {
	if s.opts.CommentsPerArticle <= 0 {
		return 0, nil
	}

	comments := make([]*models.Comment, 0, len(articles)*s.opts.CommentsPerArticle/2)
	for _, article := range articles {
		if !article.Published {
			continue
		}
		count := s.rng.Intn(s.opts.CommentsPerArticle + 1)
		for i := 0; i < count; i++ {
			commenter := profiles[s.rng.Intn(len(profiles))]
			posted := article.PublishTime.
				Add(time.Duration(1+s.rng.Intn(72)) * time.Hour).
				Add(time.Duration(s.rng.Intn(60)) * time.Minute)
			comments = append(comments, &models.Comment{
				ArticleID:         article.ID,
				CommenterUID:      commenter.UID,
				CommenterUsername: commenter.Username,
				CommenterImage:    commenter.ProfileImage,
				Content:           gofakeit.Paragraph(1, 2, 8, " "),
				PostTime:          posted,
			})
		}
	}
	if len(comments) == 0 {
		return 0, nil
	}

	if err := s.db.CreateInBatches(comments, 100).Error; err != nil {
		return 0, fmt.Errorf("seed comments: %w", err)
	}
	log.Printf("Seeded %d comments", len(comments))
	return len(comments), nil
}

// Run executes the full seeding pipeline.
func (s *Seeder) Run() error {
	profiles, err := s.SeedProfiles()
	if err != nil {
		return err
	}
	articles, err := s.SeedArticles(profiles)
	if err != nil {
		return err
	}
	_, err = s.SeedComments(profiles, articles)
	return err
}
