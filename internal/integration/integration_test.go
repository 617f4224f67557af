package integration

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/plateful/backend/config"
	"github.com/plateful/backend/internal/database"
	"github.com/plateful/backend/internal/models"
	"github.com/plateful/backend/internal/service"
)

// setupPostgres starts a disposable Postgres container and returns a
// migrated connection. Skipped unless INTEGRATION_TESTS is set so the
// regular suite stays free of a Docker dependency.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("set INTEGRATION_TESTS to run container-backed tests")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections"),
			wait.ForListeningPort("5432/tcp"),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminating postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := &config.Config{
		DBHost:     host,
		DBPort:     port.Port(),
		DBUser:     "test",
		DBPassword: "test",
		DBName:     "test",
		DBSSLMode:  "disable",
	}
	db, err := database.New(cfg)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	return db
}

func TestPostgresEndToEnd(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	auth := service.NewAuthService(db, "test-secret")
	recipes := service.NewRecipeService(db)
	carts := service.NewCartService(db)
	shopping := service.NewShoppingListService(db)

	user, token, err := auth.Register(ctx, service.RegisterInput{
		Email:     "cook@example.com",
		Username:  "cook",
		FirstName: "Julia",
		LastName:  "Child",
		Password:  "password123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	tag := models.Tag{Name: "dinner", Slug: "dinner", Color: "#49B64E"}
	require.NoError(t, db.Create(&tag).Error)
	flour := models.Ingredient{Name: "flour", MeasurementUnit: "g"}
	require.NoError(t, db.Create(&flour).Error)

	recipe, err := recipes.Create(ctx, user.ID, service.RecipeInput{
		Name:        "Bread",
		Text:        "Knead and bake.",
		CookingTime: 90,
		TagIDs:      []uuid.UUID{tag.ID},
		Ingredients: []service.IngredientEntry{{IngredientID: flour.ID, Amount: 500}},
	})
	require.NoError(t, err)

	_, err = carts.Add(ctx, user.ID, recipe.ID)
	require.NoError(t, err)
	_, err = carts.Add(ctx, user.ID, recipe.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyExists)

	items, err := shopping.Compute(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, service.ShoppingItem{Name: "flour", Amount: 500, MeasurementUnit: "g"}, items[0])
}

// TestPostgresConcurrentFollow races two identical follow requests. Both
// can pass the pre-check, so one of them must be caught by the unique
// index; exactly one succeeds either way and a single row remains.
func TestPostgresConcurrentFollow(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	users := service.NewUserService(db)

	alice := models.User{Email: "alice@example.com", Username: "alice", FirstName: "A", LastName: "L", PasswordHash: "x"}
	require.NoError(t, db.Create(&alice).Error)
	bob := models.User{Email: "bob@example.com", Username: "bob", FirstName: "B", LastName: "M", PasswordHash: "x"}
	require.NoError(t, db.Create(&bob).Error)

	start := make(chan struct{})
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			<-start
			_, err := users.Follow(ctx, alice.ID, bob.ID)
			results <- err
		}()
	}
	close(start)

	var successes, conflicts int
	for i := 0; i < 2; i++ {
		switch err := <-results; {
		case err == nil:
			successes++
		case errors.Is(err, service.ErrAlreadyExists):
			conflicts++
		default:
			t.Fatalf("unexpected follow error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)

	var count int64
	require.NoError(t, db.Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", alice.ID, bob.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

// TestPostgresUniqueConstraintTranslation exercises the driver error
// translation the toggle semantics lean on under concurrency: a raw
// duplicate insert comes back as gorm.ErrDuplicatedKey.
func TestPostgresUniqueConstraintTranslation(t *testing.T) {
	db := setupPostgres(t)

	user := models.User{
		Email:        "dup@example.com",
		Username:     "dup",
		FirstName:    "D",
		LastName:     "U",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error)

	clone := models.User{
		Email:        "dup@example.com",
		Username:     "dup2",
		FirstName:    "D",
		LastName:     "U",
		PasswordHash: "x",
	}
	err := db.Create(&clone).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
