// Command main runs the database seeder for the journal.
package main

import (
	"context"
	"flag"
	"log"

	"journal/internal/auth"
	"journal/internal/config"
	"journal/internal/database"
	"journal/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()

	numUsers := flag.Int("users", defaults.Users, "Number of member accounts to create")
	numPosts := flag.Int("posts", defaults.Posts, "Number of posts to create")
	comments := flag.Int("comments", defaults.CommentsPerPost, "Comments per post")
	adminEmail := flag.String("admin-email", defaults.AdminEmail, "Email of the admin account")
	password := flag.String("password", defaults.Password, "Password for every seeded account")
	randSeed := flag.Int64("rand-seed", 0, "Seed for reproducible fake content (0 = random)")
	shouldClean := flag.Bool("clean", false, "Delete all existing data before seeding")
	flag.Parse()

	log.Printf("Target: %d users, %d posts, %d comments per post, clean=%v\n", *numUsers, *numPosts, *comments, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	s := seed.NewSeeder(db, auth.NewHasher(cfg.PasswordIterations, cfg.PasswordSaltLength))

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	opts := defaults
	opts.Users = *numUsers
	opts.Posts = *numPosts
	opts.CommentsPerPost = *comments
	opts.AdminEmail = *adminEmail
	opts.Password = *password
	opts.RandSeed = *randSeed

	res, err := s.Run(ctx, opts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Done: admin %s, %d members, %d posts, %d comments\n",
		res.Admin.Email, len(res.Members), len(res.Posts), res.Comments)
	log.Printf("All seeded accounts use the password: %s\n", opts.Password)
}
