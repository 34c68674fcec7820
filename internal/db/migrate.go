package db

import (
	"context"
	"errors"

	"student_rideshare/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"
	"gorm.io/gorm" // GORM ORM library
)

// Migrate performs automatic migration for the database schema
func (g *Gateway) Migrate(ctx context.Context) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	err := g.db.WithContext(ctx).AutoMigrate(&domain.User{}, &domain.Request{}, &domain.Vote{})
	if err != nil {
		return err
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}

// EnsureUser inserts u unless a user with the same id already exists, and
// returns the stored row.
func (g *Gateway) EnsureUser(ctx context.Context, u domain.User) (*domain.User, error) {
	var stored domain.User
	err := g.Transaction(ctx, func(tx *gorm.DB) error {
		err := tx.First(&stored, "id = ?", u.ID).Error
		if err == nil {
			return nil // Already seeded
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		stored = u
		return tx.Create(&stored).Error
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}
