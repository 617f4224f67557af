package router

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/plateful/backend/config"
	"github.com/plateful/backend/internal/api"
	"github.com/plateful/backend/internal/middleware"
	"github.com/plateful/backend/internal/service"
)

// SetupRouter wires services and handlers onto a gin engine. redisClient
// and s3Config may be nil; the rate limiter and S3 image storage are then
// disabled.
func SetupRouter(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, s3Config *config.S3Config) *gin.Engine {
	router := gin.Default()
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	api.NewHealthHandler(db).RegisterRoutes(router)

	// Locally stored recipe images are served straight from disk.
	if cfg.S3Bucket == "" {
		router.Static("/media", cfg.MediaDir)
	}

	authService := service.NewAuthService(db, cfg.JWTSecret)
	userService := service.NewUserService(db)
	catalogService := service.NewCatalogService(db)
	recipeService := service.NewRecipeService(db)
	favoriteService := service.NewFavoriteService(db)
	cartService := service.NewCartService(db)
	shoppingService := service.NewShoppingListService(db)
	imageService := service.NewImageService(s3Config, cfg.MediaDir)

	var limiter *middleware.RateLimiter
	if redisClient != nil {
		limiter = middleware.NewRecipeMutationRateLimiter(redisClient)
	}

	v1 := router.Group("/api/v1")
	api.NewAuthHandler(authService).RegisterRoutes(v1)
	api.NewUserHandler(userService, authService, cfg.PageSize).RegisterRoutes(v1)
	api.NewCatalogHandler(catalogService).RegisterRoutes(v1)
	api.NewRecipeHandler(
		recipeService,
		userService,
		favoriteService,
		cartService,
		shoppingService,
		imageService,
		authService,
		limiter,
		cfg.PageSize,
	).RegisterRoutes(v1)

	return router
}
