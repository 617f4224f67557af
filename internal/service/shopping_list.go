package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/backend/internal/models"
)

// ShoppingItem is one aggregated line of the shopping list.
type ShoppingItem struct {
	Name            string  `json:"name"`
	Amount          float64 `json:"amount"`
	MeasurementUnit string  `json:"measurement_unit"`
}

// ShoppingListService derives a shopping list from a user's cart.
type ShoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// Compute collects every ingredient row of every recipe in the user's
// cart, grouped by (name, unit) with amounts summed. An empty cart yields
// an empty list.
func (s *ShoppingListService) Compute(ctx context.Context, userID uuid.UUID) ([]ShoppingItem, error) {
	var items []ShoppingItem
	err := s.db.WithContext(ctx).Model(&models.RecipeIngredient{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN carts ON carts.recipe_id = recipe_ingredients.recipe_id").
		Where("carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []ShoppingItem{}
	}
	return items, nil
}

// Render formats the list as the plain-text attachment body.
func Render(items []ShoppingItem) string {
	var b strings.Builder
	b.WriteString("Shopping list\n\n")
	for _, item := range items {
		amount := strconv.FormatFloat(item.Amount, 'f', -1, 64)
		fmt.Fprintf(&b, "%s - %s %s\n", item.Name, amount, item.MeasurementUnit)
	}
	return b.String()
}
