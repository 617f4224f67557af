package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/plateful/backend/config"
	"github.com/plateful/backend/internal/models"
	"github.com/plateful/backend/internal/router"
	"github.com/plateful/backend/internal/testdb"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWTSecret:      "test-secret",
		AllowedOrigins: []string{"http://localhost:5173"},
		MediaDir:       t.TempDir(),
		PageSize:       6,
	}
	db := testdb.Open(t)
	return router.SetupRouter(cfg, db, nil, nil), db
}

// registerTestUser creates an account through the API and returns the
// user with a bearer token.
func registerTestUser(t *testing.T, r *gin.Engine, db *gorm.DB, username string) (*models.User, string) {
	t.Helper()

	body := map[string]string{
		"email":      username + "@example.com",
		"username":   username,
		"first_name": "Test",
		"last_name":  "User",
		"password":   "password123",
	}
	w := doJSON(r, http.MethodPost, "/api/v1/auth/register", body, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	var user models.User
	require.NoError(t, db.First(&user, "username = ?", username).Error)
	return &user, resp.Token
}

func doJSON(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

// seedCatalog inserts tags and ingredients directly; the API has no
// write surface for reference data.
func seedCatalog(t *testing.T, db *gorm.DB) (tags []models.Tag, ingredients []models.Ingredient) {
	t.Helper()

	for _, slug := range []string{"breakfast", "dinner"} {
		tags = append(tags, *testdb.CreateTag(t, db, slug))
	}
	ingredients = append(ingredients,
		*testdb.CreateIngredient(t, db, "flour", "g"),
		*testdb.CreateIngredient(t, db, "egg", "pcs"),
	)
	return tags, ingredients
}

func recipeBody(tags []models.Tag, ingredients []models.Ingredient, name string) map[string]interface{} {
	entries := make([]map[string]interface{}, len(ingredients))
	for i, ing := range ingredients {
		entries[i] = map[string]interface{}{"id": ing.ID, "amount": float64(100 * (i + 1))}
	}
	tagIDs := make([]string, len(tags))
	for i, tag := range tags {
		tagIDs[i] = tag.ID.String()
	}
	return map[string]interface{}{
		"name":         name,
		"text":         "Cook it well.",
		"cooking_time": 30,
		"tags":         tagIDs,
		"ingredients":  entries,
	}
}

// createRecipeViaAPI posts a recipe and returns its id.
func createRecipeViaAPI(t *testing.T, r *gin.Engine, token string, body map[string]interface{}) string {
	t.Helper()

	w := doJSON(r, http.MethodPost, "/api/v1/recipes", body, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &resp)
	require.NotEmpty(t, resp.ID)
	return resp.ID
}
