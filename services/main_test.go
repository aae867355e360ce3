package services

import (
	"context"
	"testing"

	"waggle/db"
	"waggle/models"

	"github.com/brianvoe/gofakeit/v7"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB swaps the global ORM for a fresh in-memory SQLite database.
func setupTestDB(t *testing.T) {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	db.ORM = database
}

func createTestProfile(t *testing.T) *models.Profile {
	t.Helper()

	profile := models.Profile{
		Nickname:    gofakeit.Username(),
		DisplayName: gofakeit.Name(),
		AvatarURL:   gofakeit.URL(),
		Password:    "x",
	}
	if err := db.ORM.Create(&profile).Error; err != nil {
		t.Fatalf("failed to create test profile: %v", err)
	}
	return &profile
}

func createTestPark(t *testing.T, name, state string) *models.Park {
	t.Helper()

	park := models.Park{Name: name, State: state, City: gofakeit.City()}
	if err := db.ORM.Create(&park).Error; err != nil {
		t.Fatalf("failed to create test park: %v", err)
	}
	return &park
}

func testCtx() context.Context {
	return context.Background()
}
