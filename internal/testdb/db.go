package testdb

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plateful/backend/internal/database"
	"github.com/plateful/backend/internal/models"
)

// Open returns an isolated in-memory database with the full schema. Each
// call gets its own named shared-cache database so the pool's connections
// all see the same data. case_sensitive_like matches LIKE's behavior on
// postgres; sqlite is case-insensitive by default.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_case_sensitive_like=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.RunMigrations(db))
	return db
}

// CreateUser inserts a user with a throwaway password hash.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := models.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// CreateTag inserts a tag whose slug doubles as its name.
func CreateTag(t *testing.T, db *gorm.DB, slug string) *models.Tag {
	t.Helper()

	tag := models.Tag{Name: slug, Slug: slug, Color: "#49B64E"}
	require.NoError(t, db.Create(&tag).Error)
	return &tag
}

// CreateIngredient inserts one dictionary entry.
func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()

	ingredient := models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(&ingredient).Error)
	return &ingredient
}
