package database

import (
	"gorm.io/gorm"

	"github.com/plateful/backend/internal/models"
)

// RunMigrations brings the schema up to date for every model.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Favorite{},
		&models.Cart{},
	)
}
