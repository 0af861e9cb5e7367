package main

import (
	"log"

	"github.com/buba6c/onesms-v1-sub003/config"
	"github.com/buba6c/onesms-v1-sub003/internal/api"
	"github.com/buba6c/onesms-v1-sub003/internal/database"
	"github.com/buba6c/onesms-v1-sub003/internal/models"
	"github.com/buba6c/onesms-v1-sub003/internal/services"
	"github.com/buba6c/onesms-v1-sub003/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// @title onesms API
// @version 1.0
// @description Prepaid-credit storefront for phone number activations and rentals, backed by a frozen-balance ledger.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization

func main() {
	if err := logger.InitLogger(&logger.Config{
		Level:      "info",
		Filename:   "logs/onesms.log",
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     30,
		Compress:   true,
	}); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	router, err := api.NewRouter()
	if err != nil {
		logger.Log.Fatal("failed to create router", zap.Error(err))
	}

	// Migrate the schema
	err = database.DB.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.LedgerEntry{},
		&models.PaymentConfig{},
		&models.DepositOrder{},
	)
	if err != nil {
		logger.Log.Fatal("failed to migrate database", zap.Error(err))
	}

	initAdminUser()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Log.Fatal("failed to load config", zap.Error(err))
	}

	sweeper := services.NewExpirySweeper(cfg.SweepInterval)
	go sweeper.Start()
	defer sweeper.Stop()

	if err := router.Run(":8080"); err != nil {
		logger.Log.Fatal("failed to run server", zap.Error(err))
	}
}

func initAdminUser() {
	adminUsername := "admin@admin.com"
	adminPassword := "ChangeMe1234"

	var adminUser models.User
	result := database.DB.Where("username = ?", adminUsername).First(&adminUser)

	if result.Error != nil {
		if result.Error.Error() == "record not found" {
			hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
			if err != nil {
				logger.Log.Fatal("failed to hash admin password", zap.Error(err))
			}

			adminUser = models.User{
				Username: adminUsername,
				Password: string(hashedPassword),
				Role:     "admin",
				IsActive: true,
			}

			if err := database.DB.Create(&adminUser).Error; err != nil {
				logger.Log.Fatal("failed to create admin user", zap.Error(err))
			}
			logger.Log.Info("admin user created")
		} else {
			logger.Log.Fatal("failed to check for admin user", zap.Error(result.Error))
		}
	} else {
		logger.Log.Info("admin user already exists")
	}
}
