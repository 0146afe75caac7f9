package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/Baaaki/instagallery/internal/config"
	"github.com/Baaaki/instagallery/internal/database"
	"github.com/Baaaki/instagallery/internal/seed"
	"github.com/Baaaki/instagallery/internal/utils"
	"github.com/Baaaki/instagallery/pkg/logger"
)

func main() {
	demoUsers := flag.Int("users", 0, "Number of demo users to create")
	postsPerUser := flag.Int("posts", 3, "Posts per demo user")
	fakerSeed := flag.Int64("seed", time.Now().UnixNano(), "Faker seed")
	flag.Parse()

	cfg := config.Load()
	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()
	seeder := seed.NewSeeder(db, *fakerSeed, utils.DefaultArgon2Params)

	// Get admin credentials from env
	admin, created, err := seeder.EnsureAdmin(ctx,
		os.Getenv("ADMIN_USERNAME"),
		os.Getenv("ADMIN_EMAIL"),
		os.Getenv("ADMIN_PASSWORD"),
	)
	if err != nil {
		log.Fatalf("Failed to seed admin (set ADMIN_USERNAME, ADMIN_EMAIL, ADMIN_PASSWORD): %v", err)
	}
	if created {
		log.Println("Admin user created successfully")
	} else {
		log.Println("Admin user already exists")
	}
	log.Println("   Username:", admin.Username)
	log.Println("   Email:", admin.Email)

	if *demoUsers > 0 {
		result, err := seeder.SeedDemo(ctx, *demoUsers, *postsPerUser)
		if err != nil {
			log.Fatalf("Demo seeding failed: %v", err)
		}
		log.Printf("Demo data: %d users, %d posts, %d follows (password: %s)",
			result.Users, result.Posts, result.Follows, seed.DemoPassword)
	}
}
