package db

import (
	"fmt"

	"waggle/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedParks inserts the starter park directory. Re-running is a no-op.
func SeedParks(database *gorm.DB) error {
	parks := []models.Park{
		{ID: 1, Name: "Golden Gate Dog Run", State: "California", City: "San Francisco"},
		{ID: 2, Name: "Prospect Park Dog Beach", State: "New York", City: "Brooklyn"},
		{ID: 3, Name: "Zilker Bark Park", State: "Texas", City: "Austin"},
		{ID: 4, Name: "Montrose Dog Beach", State: "Illinois", City: "Chicago"},
	}

	err := database.Clauses(clause.OnConflict{DoNothing: true}).Create(&parks).Error
	if err != nil {
		return fmt.Errorf("failed to seed parks: %w", err)
	}
	return nil
}
