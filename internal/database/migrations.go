package database

import (
	"gorm.io/gorm"

	"github.com/blueberry-insights/talentflow/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
// Parent tables migrate first so foreign keys resolve on strict backends.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Organization{},
		&models.Offer{},
		&models.Candidate{},
		&models.Test{},
		&models.Question{},
		&models.Flow{},
		&models.FlowItem{},
		&models.Invite{},
		&models.Submission{},
		&models.SubmissionItem{},
		&models.Answer{},
	)
}

// SeedData inserts the default organization used by fresh installations.
func SeedData(db *gorm.DB) error {
	defaultOrg := models.Organization{
		Name: "Default Organization",
		Slug: "default",
	}

	return db.
		Where(models.Organization{Slug: defaultOrg.Slug}).
		Attrs(defaultOrg).
		FirstOrCreate(&models.Organization{}).Error
}
