package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/billfold/billfold/internal/logger"
	"github.com/billfold/billfold/server"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "postgres://localhost:5432/billfold?sslmode=disable"
	}

	dataDir := os.Getenv("BILLFOLD_DATA_DIR")
	if dataDir == "" {
		dataDir = filepath.Join(os.TempDir(), "billfold-storage")
	}

	logConfig := logger.DefaultConfig()
	logConfig.Console = true
	if err := logger.Init(logConfig); err != nil {
		log.Printf("Logger init failed: %v", err)
	}

	srv, err := server.New(dbURL, dataDir)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			log.Printf("Error closing server: %v", err)
		}
	}()

	log.Printf("Billfold server starting on :%s", port)
	if err := srv.Start(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
