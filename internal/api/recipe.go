package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plateful/backend/internal/middleware"
	"github.com/plateful/backend/internal/models"
	"github.com/plateful/backend/internal/service"
)

type RecipeHandler struct {
	recipes   *service.RecipeService
	users     *service.UserService
	favorites *service.RelationService[models.Favorite]
	carts     *service.RelationService[models.Cart]
	shopping  *service.ShoppingListService
	images    *service.ImageService
	validator middleware.TokenValidator
	limiter   *middleware.RateLimiter
	pageSize  int
}

func NewRecipeHandler(
	recipes *service.RecipeService,
	users *service.UserService,
	favorites *service.RelationService[models.Favorite],
	carts *service.RelationService[models.Cart],
	shopping *service.ShoppingListService,
	images *service.ImageService,
	validator middleware.TokenValidator,
	limiter *middleware.RateLimiter,
	pageSize int,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:   recipes,
		users:     users,
		favorites: favorites,
		carts:     carts,
		shopping:  shopping,
		images:    images,
		validator: validator,
		limiter:   limiter,
		pageSize:  pageSize,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	authRequired := middleware.AuthMiddleware(h.validator)
	authOptional := middleware.OptionalAuthMiddleware(h.validator)

	mutation := []gin.HandlerFunc{authRequired}
	if h.limiter != nil {
		mutation = append(mutation, h.limiter.Middleware())
	}

	recipes := router.Group("/recipes")
	{
		recipes.GET("", authOptional, h.ListRecipes)
		recipes.GET("/download_shopping_cart", authRequired, h.DownloadShoppingCart)
		recipes.GET("/:id", authOptional, h.GetRecipe)
		recipes.POST("", append(mutation, h.CreateRecipe)...)
		recipes.PUT("/:id", append(mutation, h.UpdateRecipe)...)
		recipes.PATCH("/:id", append(mutation, h.UpdateRecipe)...)
		recipes.DELETE("/:id", append(mutation, h.DeleteRecipe)...)
		recipes.POST("/:id/favorite", authRequired, h.FavoriteRecipe)
		recipes.DELETE("/:id/favorite", authRequired, h.UnfavoriteRecipe)
		recipes.POST("/:id/shopping_cart", authRequired, h.AddToCart)
		recipes.DELETE("/:id/shopping_cart", authRequired, h.RemoveFromCart)
	}
}

type RecipeIngredientRequest struct {
	ID     uuid.UUID `json:"id"`
	Amount float64   `json:"amount"`
}

type RecipeRequest struct {
	Name        string                    `json:"name" binding:"required"`
	Text        string                    `json:"text" binding:"required"`
	CookingTime int                       `json:"cooking_time"`
	Image       string                    `json:"image"`
	Tags        []uuid.UUID               `json:"tags"`
	Ingredients []RecipeIngredientRequest `json:"ingredients"`
}

func (r RecipeRequest) toInput(imageURL string) service.RecipeInput {
	entries := make([]service.IngredientEntry, len(r.Ingredients))
	for i, e := range r.Ingredients {
		entries[i] = service.IngredientEntry{IngredientID: e.ID, Amount: e.Amount}
	}
	return service.RecipeInput{
		Name:        r.Name,
		Text:        r.Text,
		CookingTime: r.CookingTime,
		ImageURL:    imageURL,
		TagIDs:      r.Tags,
		Ingredients: entries,
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	p, ok := parsePageParams(c, h.pageSize)
	if !ok {
		return
	}

	filter := service.RecipeFilter{
		TagSlugs:  c.QueryArray("tags"),
		Favorited: c.Query("is_favorited") == "1",
		InCart:    c.Query("is_in_shopping_cart") == "1",
		Limit:     p.Limit,
		Offset:    p.Offset(),
	}
	if raw := c.Query("author"); raw != "" {
		authorID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": "author must be a valid user id"})
			return
		}
		filter.AuthorID = &authorID
	}
	if callerID, ok := middleware.CurrentUserID(c); ok {
		filter.UserID = &callerID
	}

	recipes, total, err := h.recipes.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	results, err := h.buildRecipeResponses(c, filter.UserID, recipes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginatedBody(c, total, p, results))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}

	recipe, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	callerID, _ := middleware.CurrentUserID(c)

	imageURL, err := h.images.StoreRecipeImage(c.Request.Context(), req.Image)
	if err != nil {
		respondError(c, err)
		return
	}

	recipe, err := h.recipes.Create(c.Request.Context(), callerID, req.toInput(imageURL))
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}

	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	callerID, _ := middleware.CurrentUserID(c)

	imageURL, err := h.images.StoreRecipeImage(c.Request.Context(), req.Image)
	if err != nil {
		respondError(c, err)
		return
	}

	recipe, err := h.recipes.Update(c.Request.Context(), id, callerID, req.toInput(imageURL))
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}
	callerID, _ := middleware.CurrentUserID(c)

	if err := h.recipes.Delete(c.Request.Context(), id, callerID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) FavoriteRecipe(c *gin.Context) {
	h.addRelation(c, h.favorites.Add)
}

func (h *RecipeHandler) UnfavoriteRecipe(c *gin.Context) {
	h.removeRelation(c, h.favorites.Remove)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addRelation(c, h.carts.Add)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeRelation(c, h.carts.Remove)
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	callerID, _ := middleware.CurrentUserID(c)

	items, err := h.shopping.Compute(c.Request.Context(), callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="shop_list.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(service.Render(items)))
}

func (h *RecipeHandler) addRelation(c *gin.Context, add func(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, error)) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}
	callerID, _ := middleware.CurrentUserID(c)

	recipe, err := add(c.Request.Context(), callerID, recipeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newShortRecipeResponse(*recipe))
}

func (h *RecipeHandler) removeRelation(c *gin.Context, remove func(ctx context.Context, userID, recipeID uuid.UUID) error) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}
	callerID, _ := middleware.CurrentUserID(c)

	if err := remove(c.Request.Context(), callerID, recipeID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// respondRecipe serializes one recipe with per-caller annotations.
func (h *RecipeHandler) respondRecipe(c *gin.Context, status int, recipe *models.Recipe) {
	var callerID *uuid.UUID
	if id, ok := middleware.CurrentUserID(c); ok {
		callerID = &id
	}

	results, err := h.buildRecipeResponses(c, callerID, []models.Recipe{*recipe})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, results[0])
}

// buildRecipeResponses annotates a page of recipes with is_favorited,
// is_in_shopping_cart and the author's is_subscribed using batched
// membership queries rather than per-row lookups.
func (h *RecipeHandler) buildRecipeResponses(c *gin.Context, callerID *uuid.UUID, recipes []models.Recipe) ([]RecipeResponse, error) {
	ctx := c.Request.Context()

	recipeIDs := make([]uuid.UUID, len(recipes))
	authorIDs := make([]uuid.UUID, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		authorIDs[i] = r.AuthorID
	}

	favorited, inCart, err := h.recipes.RelationFlags(ctx, callerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := h.users.SubscribedSet(ctx, callerID, authorIDs)
	if err != nil {
		return nil, err
	}

	results := make([]RecipeResponse, len(recipes))
	for i, r := range recipes {
		author := newUserResponse(r.Author, subscribed[r.AuthorID])
		results[i] = newRecipeResponse(r, author, favorited[r.ID], inCart[r.ID])
	}
	return results, nil
}
