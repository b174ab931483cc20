package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shoplens/config"
	"shoplens/database"
	"shoplens/logger"
	"shoplens/routes"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	config.Load()
	if config.AppConfig.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	if config.AppConfig.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	if err := logger.Init(config.AppConfig.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	database.InitDB(config.AppConfig.DatabaseURL)
	defer database.CloseDB()

	app := fiber.New()

	// Add CORS middleware
	app.Use(cors.New())

	// Setup routes
	routes.SetupRoutes(app)

	logger.Info("🚀 Server starting", zap.String("port", config.AppConfig.Port))
	if err := app.Listen(":" + config.AppConfig.Port); err != nil {
		logger.Get().Fatal("Server stopped", zap.Error(err))
	}
}
