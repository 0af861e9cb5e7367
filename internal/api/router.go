package api

import (
	"github.com/buba6c/onesms-v1-sub003/config"
	_ "github.com/buba6c/onesms-v1-sub003/docs"
	adminHealth "github.com/buba6c/onesms-v1-sub003/internal/api/v1/admin/health"
	adminLedger "github.com/buba6c/onesms-v1-sub003/internal/api/v1/admin/ledger"
	adminUser "github.com/buba6c/onesms-v1-sub003/internal/api/v1/admin/user"
	"github.com/buba6c/onesms-v1-sub003/internal/api/v1/auth"
	orderRoutes "github.com/buba6c/onesms-v1-sub003/internal/api/v1/order"
	paymentRoutes "github.com/buba6c/onesms-v1-sub003/internal/api/v1/payment"
	userRoutes "github.com/buba6c/onesms-v1-sub003/internal/api/v1/user"
	"github.com/buba6c/onesms-v1-sub003/internal/database"
	"github.com/buba6c/onesms-v1-sub003/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewRouter() (*gin.Engine, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	_, err = database.Connect(cfg.DSN())
	if err != nil {
		return nil, err
	}

	err = database.ConnectRedis(cfg)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(middleware.Logger(), gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:8080"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1
	v1 := router.Group("/api/v1")
	{
		auth.RegisterRoutes(v1)

		// Payment gateway callback, signed by the gateway rather than a user token.
		paymentRoutes.RegisterNotifyRoutes(v1)
		// Payment routes apply AuthMiddleware themselves.
		paymentRoutes.RegisterRoutes(v1)

		authorized := v1.Group("/")
		authorized.Use(middleware.AuthMiddleware())
		{
			userRoutes.RegisterRoutes(authorized)
			orderRoutes.RegisterRoutes(authorized)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AdminAuthMiddleware())
		{
			adminUser.RegisterRoutes(admin)
			adminLedger.RegisterRoutes(admin)
			adminHealth.RegisterRoutes(admin)
		}
	}

	return router, nil
}
