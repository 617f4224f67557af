package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/backend/internal/models"
)

// RecipeService handles recipe operations
type RecipeService struct {
	db *gorm.DB
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

// IngredientEntry is one submitted (ingredient, amount) pair.
type IngredientEntry struct {
	IngredientID uuid.UUID
	Amount       float64
}

// RecipeInput carries a full recipe submission. Both create and update
// take the complete set: ingredients and tags are replaced, not merged.
type RecipeInput struct {
	Name        string
	Text        string
	CookingTime int
	ImageURL    string
	TagIDs      []uuid.UUID
	Ingredients []IngredientEntry
}

func (in RecipeInput) validate() error {
	var messages []string
	if in.Name == "" {
		messages = append(messages, "name must not be empty")
	}
	if in.CookingTime < 1 {
		messages = append(messages, "cooking_time must be at least 1")
	}
	if len(in.Ingredients) == 0 {
		messages = append(messages, "ingredients must not be empty")
	}
	seen := make(map[uuid.UUID]bool, len(in.Ingredients))
	for _, entry := range in.Ingredients {
		if entry.Amount <= 0 {
			messages = append(messages, fmt.Sprintf("ingredient %s: amount must be greater than zero", entry.IngredientID))
		}
		if seen[entry.IngredientID] {
			messages = append(messages, fmt.Sprintf("ingredient %s submitted more than once", entry.IngredientID))
		}
		seen[entry.IngredientID] = true
	}
	if len(messages) > 0 {
		return &ValidationError{Messages: messages}
	}
	return nil
}

// checkReferences verifies every submitted tag and ingredient id exists.
func (s *RecipeService) checkReferences(tx *gorm.DB, in RecipeInput) error {
	var messages []string

	if len(in.TagIDs) > 0 {
		var count int64
		if err := tx.Model(&models.Tag{}).Where("id IN ?", in.TagIDs).Count(&count).Error; err != nil {
			return err
		}
		if int(count) != len(in.TagIDs) {
			messages = append(messages, "one or more tags do not exist")
		}
	}

	ingredientIDs := make([]uuid.UUID, len(in.Ingredients))
	for i, entry := range in.Ingredients {
		ingredientIDs[i] = entry.IngredientID
	}
	var count int64
	if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ingredientIDs).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != len(ingredientIDs) {
		messages = append(messages, "one or more ingredients do not exist")
	}

	if len(messages) > 0 {
		return &ValidationError{Messages: messages}
	}
	return nil
}

// Create persists the recipe, its ingredient rows and its tag set as one
// transaction; a failure mid-way leaves no partial recipe visible.
func (s *RecipeService) Create(ctx context.Context, authorID uuid.UUID, in RecipeInput) (*models.Recipe, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        in.Name,
		Text:        in.Text,
		ImageURL:    in.ImageURL,
		CookingTime: in.CookingTime,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkReferences(tx, in); err != nil {
			return err
		}
		if err := tx.Omit("Tags", "Ingredients").Create(&recipe).Error; err != nil {
			return err
		}
		if err := s.insertIngredients(tx, recipe.ID, in.Ingredients); err != nil {
			return err
		}
		return s.replaceTags(tx, &recipe, in.TagIDs)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, recipe.ID)
}

// Update replaces the entire ingredient set and tag set, then the scalar
// fields. Only the author may edit. An empty ImageURL keeps the current
// image.
func (s *RecipeService) Update(ctx context.Context, recipeID, editorID uuid.UUID, in RecipeInput) (*models.Recipe, error) {
	recipe, err := s.Get(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != editorID {
		return nil, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkReferences(tx, in); err != nil {
			return err
		}
		// Delete-all-then-reinsert, deliberately not a diff.
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := s.insertIngredients(tx, recipeID, in.Ingredients); err != nil {
			return err
		}
		if err := s.replaceTags(tx, recipe, in.TagIDs); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"name":         in.Name,
			"text":         in.Text,
			"cooking_time": in.CookingTime,
		}
		if in.ImageURL != "" {
			updates["image_url"] = in.ImageURL
		}
		return tx.Model(&models.Recipe{}).Where("id = ?", recipeID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, recipeID)
}

func (s *RecipeService) insertIngredients(tx *gorm.DB, recipeID uuid.UUID, entries []IngredientEntry) error {
	rows := make([]models.RecipeIngredient, len(entries))
	for i, entry := range entries {
		rows[i] = models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: entry.IngredientID,
			Amount:       entry.Amount,
		}
	}
	return tx.Create(&rows).Error
}

func (s *RecipeService) replaceTags(tx *gorm.DB, recipe *models.Recipe, tagIDs []uuid.UUID) error {
	tags := make([]models.Tag, len(tagIDs))
	for i, id := range tagIDs {
		tags[i] = models.Tag{ID: id}
	}
	return tx.Model(recipe).Association("Tags").Replace(tags)
}

// Get loads one recipe with its tags, ingredient rows and author.
func (s *RecipeService) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Preload("Author").
		First(&recipe, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// Delete removes the recipe and everything hanging off it. Only the author
// may delete. Join rows are removed explicitly so behavior does not depend
// on engine-level cascade support.
func (s *RecipeService) Delete(ctx context.Context, recipeID, editorID uuid.UUID) error {
	recipe, err := s.Get(ctx, recipeID)
	if err != nil {
		return err
	}
	if recipe.AuthorID != editorID {
		return ErrForbidden
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.Cart{}).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, "id = ?", recipeID).Error
	})
}

// RecipeFilter narrows and pages the recipe list. UserID is the requesting
// user; Favorited and InCart are ignored for anonymous callers.
type RecipeFilter struct {
	TagSlugs  []string
	AuthorID  *uuid.UUID
	Favorited bool
	InCart    bool
	UserID    *uuid.UUID
	Limit     int
	Offset    int
}

func (f RecipeFilter) apply(db *gorm.DB) *gorm.DB {
	q := db
	if len(f.TagSlugs) > 0 {
		q = q.Where(
			"recipes.id IN (SELECT recipe_tags.recipe_id FROM recipe_tags JOIN tags ON tags.id = recipe_tags.tag_id WHERE tags.slug IN ?)",
			f.TagSlugs,
		)
	}
	if f.AuthorID != nil {
		q = q.Where("recipes.author_id = ?", *f.AuthorID)
	}
	if f.UserID != nil {
		if f.Favorited {
			q = q.Where("recipes.id IN (SELECT recipe_id FROM favorites WHERE user_id = ?)", *f.UserID)
		}
		if f.InCart {
			q = q.Where("recipes.id IN (SELECT recipe_id FROM carts WHERE user_id = ?)", *f.UserID)
		}
	}
	return q
}

// List returns one newest-first page of recipes plus the total matching
// count.
func (s *RecipeService) List(ctx context.Context, f RecipeFilter) ([]models.Recipe, int64, error) {
	var total int64
	if err := f.apply(s.db.WithContext(ctx).Model(&models.Recipe{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := f.apply(s.db.WithContext(ctx).Model(&models.Recipe{})).
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Preload("Author").
		Order("recipes.created_at DESC, recipes.id")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	var recipes []models.Recipe
	if err := q.Find(&recipes).Error; err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// RelationFlags reports, in two queries, which of the given recipes the
// user has favorited and which are in their cart. Anonymous callers get
// empty sets.
func (s *RecipeService) RelationFlags(ctx context.Context, userID *uuid.UUID, recipeIDs []uuid.UUID) (map[uuid.UUID]bool, map[uuid.UUID]bool, error) {
	favorited := make(map[uuid.UUID]bool, len(recipeIDs))
	inCart := make(map[uuid.UUID]bool, len(recipeIDs))
	if userID == nil || len(recipeIDs) == 0 {
		return favorited, inCart, nil
	}

	var ids []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND recipe_id IN ?", *userID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, nil, err
	}
	for _, id := range ids {
		favorited[id] = true
	}

	ids = nil
	if err := s.db.WithContext(ctx).Model(&models.Cart{}).
		Where("user_id = ? AND recipe_id IN ?", *userID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, nil, err
	}
	for _, id := range ids {
		inCart[id] = true
	}
	return favorited, inCart, nil
}
