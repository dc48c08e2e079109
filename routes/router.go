package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lapakgo/lapakgo/config"
	"github.com/lapakgo/lapakgo/controllers"
	"github.com/lapakgo/lapakgo/middleware"
	"github.com/lapakgo/lapakgo/utils"
)

// SetupRouter wires the HTTP surface: public catalog and forum reads, the
// auth endpoints, authenticated user actions and the admin back office.
func SetupRouter(db *gorm.DB, tokens *utils.TokenManager, cfg config.AppConfig) *gin.Engine {
	gin.SetMode(cfg.GinMode)

	router := gin.New()

	accessLogger, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel,
		cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		accessLogger = zap.L()
	}
	router.Use(utils.GinZap(accessLogger))
	router.Use(utils.GinRecovery(accessLogger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	router.Use(cors.New(corsCfg))

	router.Use(middleware.PageViewRecorder(db))

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.Static("/static", cfg.UploadDir)

	auth := controllers.NewAuthController(db, tokens, cfg)
	categories := controllers.NewCategoryController(db)
	products := controllers.NewProductController(db)
	banners := controllers.NewBannerController(db)
	variants := controllers.NewVariantController(db)
	favorites := controllers.NewFavoriteController(db)
	forum := controllers.NewForumController(db)
	admin := controllers.NewAdminController(db, cfg)

	authenticate := middleware.Authenticate(db, tokens)

	v1 := router.Group("/api/v1")
	{
		// Public storefront reads.
		v1.GET("/categories", categories.List)
		v1.GET("/categories/:slug", categories.Get)
		v1.GET("/products", products.List)
		v1.GET("/products/:slug", products.Get)
		v1.GET("/banners", banners.List)
		v1.GET("/forum/posts", forum.ListPosts)
		v1.GET("/forum/posts/:id", forum.GetPost)

		authGroup := v1.Group("/auth")
		authGroup.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
		{
			authGroup.GET("/captcha", auth.Captcha)
			authGroup.POST("/register", auth.Register)
			authGroup.POST("/login", auth.Login)
			authGroup.POST("/refresh", auth.Refresh)
			authGroup.GET("/oauth/:provider/login", auth.OAuthRedirect)
			authGroup.GET("/oauth/:provider/callback", auth.OAuthCallback)
		}

		user := v1.Group("")
		user.Use(authenticate)
		{
			user.POST("/auth/logout", auth.Logout)
			user.POST("/auth/change-password", auth.ChangePassword)
			user.GET("/auth/me", auth.Me)

			user.GET("/favorites", favorites.List)
			user.POST("/favorites", favorites.Add)
			user.DELETE("/favorites/:productId", favorites.Remove)

			user.POST("/forum/posts", forum.CreatePost)
			user.PUT("/forum/posts/:id", forum.UpdatePost)
			user.DELETE("/forum/posts/:id", forum.DeletePost)
			user.POST("/forum/posts/:id/like", forum.ToggleLike)
			user.POST("/forum/posts/:id/replies", forum.CreateReply)
			user.PUT("/forum/replies/:replyId", forum.UpdateReply)
			user.DELETE("/forum/replies/:replyId", forum.DeleteReply)
		}

		adminGroup := v1.Group("/admin")
		adminGroup.Use(authenticate, middleware.AdminRequired())
		{
			adminGroup.GET("/users", admin.ListUsers)
			adminGroup.PATCH("/users/:id/admin", admin.SetAdmin)
			adminGroup.GET("/stats", admin.Stats)
			adminGroup.POST("/upload", admin.Upload)

			adminGroup.POST("/categories", categories.Create)
			adminGroup.PUT("/categories/:id", categories.Update)
			adminGroup.DELETE("/categories/:id", categories.Delete)

			adminGroup.POST("/products", products.Create)
			adminGroup.PUT("/products/:id", products.Update)
			adminGroup.DELETE("/products/:id", products.Delete)
			adminGroup.POST("/products/:id/variants", variants.Create)
			adminGroup.PUT("/variants/:variantId", variants.Update)
			adminGroup.DELETE("/variants/:variantId", variants.Delete)

			adminGroup.GET("/banners", banners.ListAll)
			adminGroup.POST("/banners", banners.Create)
			adminGroup.PUT("/banners/:id", banners.Update)
			adminGroup.DELETE("/banners/:id", banners.Delete)
		}
	}

	router.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, "halaman tidak ditemukan")
	})

	return router
}
