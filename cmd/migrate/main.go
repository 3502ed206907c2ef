package main

import (
	"context"
	"flag"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/IMmedia2025/My-PL-ML-System/internal/services"
	"github.com/IMmedia2025/My-PL-ML-System/internal/storage"
	"github.com/IMmedia2025/My-PL-ML-System/pkg/config"
	"github.com/IMmedia2025/My-PL-ML-System/pkg/database"
)

// Runs the schema migration standalone, optionally seeding a first API key
// so a fresh deployment can be exercised without the master-secret endpoint.
func main() {
	seedKeyName := flag.String("seed-key", "", "issue an initial API key for the named owner")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.SQLitePath, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	store := storage.NewGormStore(db)
	if err := store.Migrate(); err != nil {
		logrus.Fatalf("Migration failed: %v", err)
	}
	logrus.Info("Schema migration complete")

	if *seedKeyName != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		keys := services.NewKeyService(store, cfg.DefaultRateLimit, logrus.StandardLogger())
		created, err := keys.Create(ctx, *seedKeyName, 0, 0)
		if err != nil {
			logrus.Fatalf("Failed to seed API key: %v", err)
		}
		// Printed once; the token is never retrievable afterwards.
		logrus.Infof("Seeded API key for %q: %s", created.Name, created.Key)
	}
}
