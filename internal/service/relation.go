package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/backend/internal/models"
)

// recipeRelation is a (user, recipe) join row with a unique pair index.
// Favorites and cart entries share the exact same toggle state machine, so
// the toggle is implemented once and parameterized by the entity.
type recipeRelation interface {
	models.Favorite | models.Cart
}

// RelationService implements the add/remove toggle for one join entity.
// Adding twice and removing an absent relation are errors, not no-ops.
type RelationService[T recipeRelation] struct {
	db    *gorm.DB
	build func(userID, recipeID uuid.UUID) T
}

// NewFavoriteService returns the toggle over the favorites table.
func NewFavoriteService(db *gorm.DB) *RelationService[models.Favorite] {
	return &RelationService[models.Favorite]{
		db: db,
		build: func(userID, recipeID uuid.UUID) models.Favorite {
			return models.Favorite{UserID: userID, RecipeID: recipeID}
		},
	}
}

// NewCartService returns the toggle over the carts table.
func NewCartService(db *gorm.DB) *RelationService[models.Cart] {
	return &RelationService[models.Cart]{
		db: db,
		build: func(userID, recipeID uuid.UUID) models.Cart {
			return models.Cart{UserID: userID, RecipeID: recipeID}
		},
	}
}

// Add moves the pair from absent to present and returns the recipe for
// serialization. A present pair yields ErrAlreadyExists whether caught by
// the pre-check or by the unique index under a race.
func (s *RelationService[T]) Add(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(new(T)).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadyExists
	}

	relation := s.build(userID, recipeID)
	if err := s.db.WithContext(ctx).Create(&relation).Error; err != nil {
		if isDuplicate(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return &recipe, nil
}

// Remove moves the pair from present to absent; an absent pair is an
// error.
func (s *RelationService[T]) Remove(ctx context.Context, userID, recipeID uuid.UUID) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", recipeID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRelationMissing
	}
	return nil
}
