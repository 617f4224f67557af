package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plateful/backend/internal/middleware"
	"github.com/plateful/backend/internal/service"
)

type UserHandler struct {
	users     *service.UserService
	validator middleware.TokenValidator
	pageSize  int
}

func NewUserHandler(users *service.UserService, validator middleware.TokenValidator, pageSize int) *UserHandler {
	return &UserHandler{
		users:     users,
		validator: validator,
		pageSize:  pageSize,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("", middleware.OptionalAuthMiddleware(h.validator), h.ListUsers)
		users.GET("/me", middleware.AuthMiddleware(h.validator), h.Me)
		users.GET("/subscriptions", middleware.AuthMiddleware(h.validator), h.ListSubscriptions)
		users.GET("/:id", middleware.OptionalAuthMiddleware(h.validator), h.GetUser)
		users.POST("/:id/subscribe", middleware.AuthMiddleware(h.validator), h.Subscribe)
		users.DELETE("/:id/subscribe", middleware.AuthMiddleware(h.validator), h.Unsubscribe)
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	p, ok := parsePageParams(c, h.pageSize)
	if !ok {
		return
	}

	users, total, err := h.users.ListUsers(c.Request.Context(), p.Limit, p.Offset())
	if err != nil {
		respondError(c, err)
		return
	}

	var callerID *uuid.UUID
	if id, ok := middleware.CurrentUserID(c); ok {
		callerID = &id
	}
	userIDs := make([]uuid.UUID, len(users))
	for i, u := range users {
		userIDs[i] = u.ID
	}
	subscribed, err := h.users.SubscribedSet(c.Request.Context(), callerID, userIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]UserResponse, len(users))
	for i, u := range users {
		results[i] = newUserResponse(u, subscribed[u.ID])
	}
	c.JSON(http.StatusOK, paginatedBody(c, total, p, results))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	isSubscribed := false
	if callerID, ok := middleware.CurrentUserID(c); ok {
		set, err := h.users.SubscribedSet(c.Request.Context(), &callerID, []uuid.UUID{user.ID})
		if err != nil {
			respondError(c, err)
			return
		}
		isSubscribed = set[user.ID]
	}
	c.JSON(http.StatusOK, newUserResponse(*user, isSubscribed))
}

func (h *UserHandler) Me(c *gin.Context) {
	callerID, _ := middleware.CurrentUserID(c)
	user, err := h.users.GetUser(c.Request.Context(), callerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(*user, false))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	followeeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}
	callerID, _ := middleware.CurrentUserID(c)

	if _, err := h.users.Follow(c.Request.Context(), callerID, followeeID); err != nil {
		respondError(c, err)
		return
	}

	sub, err := h.users.SubscriptionFor(c.Request.Context(), followeeID, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newSubscriptionResponse(*sub))
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	followeeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}
	callerID, _ := middleware.CurrentUserID(c)

	if err := h.users.Unfollow(c.Request.Context(), callerID, followeeID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) ListSubscriptions(c *gin.Context) {
	p, ok := parsePageParams(c, h.pageSize)
	if !ok {
		return
	}

	recipesLimit := 0
	if raw := c.Query("recipes_limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"errors": "recipes_limit must be a non-negative integer"})
			return
		}
		recipesLimit = n
	}

	callerID, _ := middleware.CurrentUserID(c)
	subs, total, err := h.users.ListSubscriptions(c.Request.Context(), callerID, recipesLimit, p.Limit, p.Offset())
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]SubscriptionResponse, len(subs))
	for i, sub := range subs {
		results[i] = newSubscriptionResponse(sub)
	}
	c.JSON(http.StatusOK, paginatedBody(c, total, p, results))
}

func newSubscriptionResponse(sub service.Subscription) SubscriptionResponse {
	recipes := make([]ShortRecipeResponse, len(sub.Recipes))
	for i, r := range sub.Recipes {
		recipes[i] = newShortRecipeResponse(r)
	}
	return SubscriptionResponse{
		Email:        sub.User.Email,
		ID:           sub.User.ID,
		Username:     sub.User.Username,
		FirstName:    sub.User.FirstName,
		LastName:     sub.User.LastName,
		IsSubscribed: true,
		Recipes:      recipes,
		RecipesCount: sub.RecipesCount,
	}
}
