// Command main runs the database seeder for Quill.
package main

import (
	"flag"
	"log"

	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/seed"
)

func main() {
	numProfiles := flag.Int("profiles", 25, "Number of user profiles to create")
	numArticles := flag.Int("articles", 120, "Number of articles to create")
	commentsPer := flag.Int("comments", 8, "Max comments per published article")
	draftRatio := flag.Float64("drafts", 0.15, "Fraction of articles left unpublished")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d profiles, %d articles, clean=%v\n", *numProfiles, *numArticles, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{
		NumProfiles:        *numProfiles,
		NumArticles:        *numArticles,
		CommentsPerArticle: *commentsPer,
		DraftRatio:         *draftRatio,
	})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	if err := s.Run(); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("All done! The database is now populated with demo data.")
}
