package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/edumate-go-api/internal/models"
)

// Migrate creates or updates the tables owned by the API.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Student{},
		&models.Assignment{},
		&models.Submission{},
		&models.AIScore{},
		&models.AIFeedback{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	return nil
}
