package config

import "os"

// Config struct holds application configuration
// This is a simple way to make config accessible globally.
// A more advanced approach might use dependency injection.
type Config struct {
	JWTSecret    string
	DatabaseURL  string
	ModelDir     string
	GeminiAPIKey string
	LogLevel     string
	Port         string
}

// AppConfig holds the application-wide configuration
var AppConfig Config

// Load fills AppConfig from environment variables, applying defaults
// for everything except the required DATABASE_URL and JWT_SECRET
// (those are validated in main).
func Load() {
	AppConfig = Config{
		JWTSecret:    os.Getenv("JWT_SECRET"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		ModelDir:     getEnv("MODEL_DIR", "ml_models"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnv("PORT", "3000"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
