package main

import (
	"context" // Migration context
	"fmt"     // Printing tokens
	"time"    // Token lifetime

	"student_rideshare/internal/config" // Custom import path (Config)
	"student_rideshare/internal/db"     // Custom import path (Database)
	"student_rideshare/internal/domain" // Seed users
	"student_rideshare/internal/logger" // Logging setup
	"student_rideshare/internal/utils"  // JWT generation

	"github.com/sirupsen/logrus" // Logging library
	"github.com/spf13/pflag"     // Command line flags
)

const seedAdminID = "b7654321-4321-4321-4321-cba987654321"

// Main entry point for migration
func main() {
	seed := pflag.Bool("seed", false, "insert the development user and an admin")
	tokenTTL := pflag.Duration("token-ttl", 30*24*time.Hour, "lifetime of the printed seed tokens")
	pflag.Parse()

	cfg := config.LoadConfig() // Load configuration
	logger.Setup(cfg.LogLevel, cfg.LogFile)
	ctx := context.Background()

	gw, err := db.Connect(ctx, db.OptionsFromConfig(cfg))
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	defer gw.Close()

	if err := gw.Migrate(ctx); err != nil {
		logrus.Fatalf("failed to migrate DB: %v", err)
	}
	if !*seed {
		return
	}

	year, course, gender := 3, "Computer Science", "other"
	users := []domain.User{
		{
			ID:     cfg.DevUserID,
			Name:   "Dev Student",
			Email:  "dev.student@campus.test",
			Phone:  "+10000000001",
			Year:   &year,
			Course: &course,
			Gender: &gender,
			Role:   domain.RoleStudent,
		},
		{
			ID:    seedAdminID,
			Name:  "Campus Admin",
			Email: "admin@campus.test",
			Phone: "+10000000002",
			Role:  domain.RoleAdmin,
		},
	}
	for _, u := range users {
		stored, err := gw.EnsureUser(ctx, u)
		if err != nil {
			logrus.Fatalf("failed to seed %s: %v", u.Email, err)
		}
		logrus.WithFields(logrus.Fields{"user_id": stored.ID, "role": stored.Role}).Info("Seeded user")
		if cfg.JWTSecret == "" {
			continue // Tokens are only honoured with a secret
		}
		token, err := utils.GenerateJWT(stored.ID, cfg.JWTSecret, *tokenTTL)
		if err != nil {
			logrus.Fatalf("failed to sign token: %v", err)
		}
		fmt.Printf("%s (%s): %s\n", stored.Email, stored.Role, token)
	}
}
