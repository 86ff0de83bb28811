package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/avdeevm/blogapi/config"
	"github.com/avdeevm/blogapi/controllers"
	"github.com/avdeevm/blogapi/middleware"
	"github.com/avdeevm/blogapi/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(utils.Logger))
	r.Use(middleware.Recovery(utils.Logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.HostFilter())

	r.GET("/", apiIndex)
	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	articleController := controllers.NewArticleController(db)
	commentController := controllers.NewCommentController(db)
	categoryController := controllers.NewCategoryController(db)
	adminController := controllers.NewAdminController(db)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/refresh", authController.Refresh)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.POST("/change-password", middleware.AuthRequired(), authController.ChangePassword)

	blog := api.Group("/blog")
	blog.POST("/register", middleware.RateLimitMiddleware(), authController.Register)
	blog.GET("/articles", articleController.ListArticles)
	blog.GET("/articles/:id", articleController.GetArticle)
	blog.GET("/articles/:id/comments", commentController.ListComments)
	blog.GET("/categories", categoryController.ListCategories)

	protected := blog.Group("")
	protected.Use(middleware.AuthRequired())
	protected.POST("/articles", articleController.CreateArticle)
	protected.PUT("/articles/:id", articleController.UpdateArticle)
	protected.DELETE("/articles/:id", articleController.DeleteArticle)
	protected.POST("/comments", commentController.CreateComment)
	protected.PUT("/comments/:id", commentController.UpdateComment)
	protected.DELETE("/comments/:id", commentController.DeleteComment)
	protected.POST("/categories", categoryController.CreateCategory)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), adminController.RequireAdmin())
	admin.GET("/users", adminController.ListUsers)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}

// apiIndex describes the API surface for clients hitting the root path.
func apiIndex(ctx *gin.Context) {
	utils.Success(ctx, gin.H{
		"message": "Blog API",
		"version": "1.0.0",
		"endpoints": gin.H{
			"auth": gin.H{
				"login":    "/api/auth/login",
				"refresh":  "/api/auth/refresh",
				"register": "/api/blog/register",
			},
			"articles": gin.H{
				"list":   "/api/blog/articles",
				"detail": "/api/blog/articles/{id}",
			},
			"comments": gin.H{
				"list":   "/api/blog/articles/{article_id}/comments",
				"create": "/api/blog/comments",
			},
			"categories": gin.H{
				"list": "/api/blog/categories",
			},
		},
	})
}
