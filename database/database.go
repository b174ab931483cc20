package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"shoplens/logger"
)

// db holds the application-wide database connection pool.
var db *pgxpool.Pool

// InitDB sets up the database connection pool.
func InitDB(databaseURL string) {
	var err error
	db, err = pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		logger.Get().Fatal("Unable to connect to database", zap.Error(err))
	}

	// Check if the connection is actually working
	if err = db.Ping(context.Background()); err != nil {
		logger.Get().Fatal("Database ping failed", zap.Error(err))
	}

	logger.Info("Successfully connected to the database")
}

// GetDB returns the database connection pool.
func GetDB() *pgxpool.Pool {
	return db
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if db != nil {
		db.Close()
		logger.Info("Database connection pool closed")
	}
}
