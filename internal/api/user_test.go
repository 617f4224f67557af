package api_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeEndpoint(t *testing.T) {
	r, db := setupTestRouter(t)
	user, token := registerTestUser(t, r, db, "ada")

	w := doJSON(r, http.MethodGet, "/api/v1/users/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, user.ID.String(), resp.ID)
	assert.Equal(t, "ada", resp.Username)
}

func TestListUsersPagination(t *testing.T) {
	r, db := setupTestRouter(t)
	for i := 0; i < 8; i++ {
		registerTestUser(t, r, db, fmt.Sprintf("user%d", i))
	}

	w := doJSON(r, http.MethodGet, "/api/v1/users?limit=3", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Count    int64             `json:"count"`
		Next     *string           `json:"next"`
		Previous *string           `json:"previous"`
		Results  []map[string]any  `json:"results"`
	}
	decodeBody(t, w, &page)
	assert.EqualValues(t, 8, page.Count)
	require.NotNil(t, page.Next)
	assert.Contains(t, *page.Next, "page=2")
	assert.Nil(t, page.Previous)
	assert.Len(t, page.Results, 3)

	w = doJSON(r, http.MethodGet, "/api/v1/users?limit=3&page=3", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &page)
	assert.Nil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Contains(t, *page.Previous, "page=2")
	assert.Len(t, page.Results, 2)

	w = doJSON(r, http.MethodGet, "/api/v1/users?page=0", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(r, http.MethodGet, "/api/v1/users?limit=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscribeEndpoints(t *testing.T) {
	r, db := setupTestRouter(t)
	_, aliceToken := registerTestUser(t, r, db, "alice")
	bob, _ := registerTestUser(t, r, db, "bob")

	path := "/api/v1/users/" + bob.ID.String() + "/subscribe"

	w := doJSON(r, http.MethodPost, path, nil, aliceToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var sub struct {
		ID           string `json:"id"`
		Username     string `json:"username"`
		IsSubscribed bool   `json:"is_subscribed"`
		RecipesCount int64  `json:"recipes_count"`
	}
	decodeBody(t, w, &sub)
	assert.Equal(t, bob.ID.String(), sub.ID)
	assert.True(t, sub.IsSubscribed)
	assert.Zero(t, sub.RecipesCount)

	// Subscribing twice is a client error.
	w = doJSON(r, http.MethodPost, path, nil, aliceToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The subscription shows on the user detail.
	w = doJSON(r, http.MethodGet, "/api/v1/users/"+bob.ID.String(), nil, aliceToken)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		IsSubscribed bool `json:"is_subscribed"`
	}
	decodeBody(t, w, &detail)
	assert.True(t, detail.IsSubscribed)

	// Anonymous callers always see is_subscribed false.
	w = doJSON(r, http.MethodGet, "/api/v1/users/"+bob.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &detail)
	assert.False(t, detail.IsSubscribed)

	w = doJSON(r, http.MethodDelete, path, nil, aliceToken)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, http.MethodDelete, path, nil, aliceToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscribeReturnsRequestedFollowee(t *testing.T) {
	r, db := setupTestRouter(t)
	_, aliceToken := registerTestUser(t, r, db, "alice")
	bob, _ := registerTestUser(t, r, db, "bob")
	carol, _ := registerTestUser(t, r, db, "carol")

	// Back-to-back subscribes can land on the same timestamp; each
	// response must still be the followee that was asked for.
	for _, followee := range []struct {
		id       string
		username string
	}{
		{bob.ID.String(), "bob"},
		{carol.ID.String(), "carol"},
	} {
		w := doJSON(r, http.MethodPost, "/api/v1/users/"+followee.id+"/subscribe", nil, aliceToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var sub struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		}
		decodeBody(t, w, &sub)
		assert.Equal(t, followee.id, sub.ID)
		assert.Equal(t, followee.username, sub.Username)
	}
}

func TestSubscribeSelfAndUnknown(t *testing.T) {
	r, db := setupTestRouter(t)
	alice, aliceToken := registerTestUser(t, r, db, "alice")

	w := doJSON(r, http.MethodPost, "/api/v1/users/"+alice.ID.String()+"/subscribe", nil, aliceToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/users/"+uuid.NewString()+"/subscribe", nil, aliceToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/users/not-a-uuid/subscribe", nil, aliceToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubscriptionsEndpoint(t *testing.T) {
	r, db := setupTestRouter(t)
	_, aliceToken := registerTestUser(t, r, db, "alice")
	bob, bobToken := registerTestUser(t, r, db, "bob")

	tags, ingredients := seedCatalog(t, db)
	for i := 0; i < 3; i++ {
		createRecipeViaAPI(t, r, bobToken, recipeBody(tags, ingredients, fmt.Sprintf("Dish %d", i)))
	}

	w := doJSON(r, http.MethodPost, "/api/v1/users/"+bob.ID.String()+"/subscribe", nil, aliceToken)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/users/subscriptions?recipes_limit=2", nil, aliceToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page struct {
		Count   int64 `json:"count"`
		Results []struct {
			Username     string `json:"username"`
			Recipes      []struct {
				Name        string `json:"name"`
				CookingTime int    `json:"cooking_time"`
			} `json:"recipes"`
			RecipesCount int64 `json:"recipes_count"`
		} `json:"results"`
	}
	decodeBody(t, w, &page)
	assert.EqualValues(t, 1, page.Count)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "bob", page.Results[0].Username)
	assert.Len(t, page.Results[0].Recipes, 2)
	assert.EqualValues(t, 3, page.Results[0].RecipesCount)

	w = doJSON(r, http.MethodGet, "/api/v1/users/subscriptions?recipes_limit=-1", nil, aliceToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/users/subscriptions", nil, bobToken)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &page)
	assert.Zero(t, page.Count)
	assert.Empty(t, page.Results)
}
