package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateful/backend/internal/testdb"
)

func TestShoppingListAggregatesAcrossRecipes(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	shopper := testdb.CreateUser(t, f.db, "shopper")
	carts := NewCartService(f.db)
	svc := NewShoppingListService(f.db)

	pancakes, err := f.svc.Create(ctx, f.author.ID, f.input())
	require.NoError(t, err)

	bread := RecipeInput{
		Name:        "Bread",
		Text:        "Knead and bake.",
		CookingTime: 90,
		TagIDs:      []uuid.UUID{f.tags[1].ID},
		Ingredients: []IngredientEntry{
			{IngredientID: f.flour.ID, Amount: 100},
		},
	}
	loaf, err := f.svc.Create(ctx, f.author.ID, bread)
	require.NoError(t, err)

	_, err = carts.Add(ctx, shopper.ID, pancakes.ID)
	require.NoError(t, err)
	_, err = carts.Add(ctx, shopper.ID, loaf.ID)
	require.NoError(t, err)

	items, err := svc.Compute(ctx, shopper.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Alphabetical by name, same-name amounts summed.
	assert.Equal(t, ShoppingItem{Name: "egg", Amount: 2, MeasurementUnit: "pcs"}, items[0])
	assert.Equal(t, ShoppingItem{Name: "flour", Amount: 300, MeasurementUnit: "g"}, items[1])
}

func TestShoppingListEmptyCart(t *testing.T) {
	f := newRecipeFixture(t)
	shopper := testdb.CreateUser(t, f.db, "shopper")

	items, err := NewShoppingListService(f.db).Compute(context.Background(), shopper.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestShoppingListOnlyOwnCart(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	shopper := testdb.CreateUser(t, f.db, "shopper")
	other := testdb.CreateUser(t, f.db, "other")
	carts := NewCartService(f.db)

	recipe, err := f.svc.Create(ctx, f.author.ID, f.input())
	require.NoError(t, err)
	_, err = carts.Add(ctx, other.ID, recipe.ID)
	require.NoError(t, err)

	items, err := NewShoppingListService(f.db).Compute(ctx, shopper.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRenderShoppingList(t *testing.T) {
	items := []ShoppingItem{
		{Name: "egg", Amount: 2, MeasurementUnit: "pcs"},
		{Name: "flour", Amount: 300.5, MeasurementUnit: "g"},
	}
	assert.Equal(t, "Shopping list\n\negg - 2 pcs\nflour - 300.5 g\n", Render(items))

	assert.Equal(t, "Shopping list\n\n", Render(nil))
}
