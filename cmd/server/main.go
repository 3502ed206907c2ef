package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/IMmedia2025/My-PL-ML-System/internal/api"
	"github.com/IMmedia2025/My-PL-ML-System/internal/features"
	"github.com/IMmedia2025/My-PL-ML-System/internal/ml"
	"github.com/IMmedia2025/My-PL-ML-System/internal/providers"
	"github.com/IMmedia2025/My-PL-ML-System/internal/services"
	"github.com/IMmedia2025/My-PL-ML-System/internal/storage"
	"github.com/IMmedia2025/My-PL-ML-System/pkg/config"
	"github.com/IMmedia2025/My-PL-ML-System/pkg/database"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger := logrus.New()
	if cfg.IsDevelopment() {
		logger.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logger.SetLevel(logrus.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}

	store, cleanup, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to open storage: %v", err)
	}
	defer cleanup()

	fplClient := providers.NewFPLClient(providers.FPLClientOptions{
		BaseURL:     cfg.FPLBaseURL,
		Timeout:     cfg.FPLTimeout,
		MaxRetries:  cfg.FPLMaxRetries,
		RetryDelay:  cfg.FPLRetryDelay,
		PacingDelay: cfg.FPLPacingDelay,
	}, logger)

	engineer := features.NewEngineer(store, logger)

	model := ml.NewModel(cfg.ModelDir, logger)
	if model.ArtifactExists() {
		if err := model.Load(); err != nil {
			logger.Warnf("Could not load model artifact, training required: %v", err)
		}
	}

	syncService := services.NewSyncService(store, fplClient, logger)
	trainService := services.NewTrainService(store, engineer, model, services.TrainOptions{
		MinSamples: cfg.TrainMinSamples,
		Augment:    cfg.TrainAugment,
		Config: ml.TrainConfig{
			Epochs:          cfg.TrainEpochs,
			BatchSize:       cfg.TrainBatchSize,
			LearningRate:    cfg.TrainLearnRate,
			ValidationSplit: cfg.TrainValSplit,
		},
	}, logger)
	predictService := services.NewPredictService(store, engineer, model, logger)
	keyService := services.NewKeyService(store, cfg.DefaultRateLimit, logger)
	usageService := services.NewUsageService(store)
	statusService := services.NewStatusService(store, fplClient, model, logger)

	if cfg.EnableBackgroundSync {
		scheduler := services.NewScheduler(syncService, logger)
		if err := scheduler.Start(cfg.SyncInterval); err != nil {
			logger.Errorf("Failed to start background sync: %v", err)
		} else {
			defer scheduler.Stop()
		}
	}

	router := api.NewRouter(api.Deps{
		Store:   store,
		Sync:    syncService,
		Train:   trainService,
		Predict: predictService,
		Keys:    keyService,
		Usage:   usageService,
		Status:  statusService,
		Config:  cfg,
		Logger:  logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // training requests run inline
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
	logger.Info("Server exited")
}

// openStore selects the storage backend: mutex-guarded memory maps for
// ephemeral deployments, gorm (sqlite file or postgres) otherwise.
func openStore(cfg *config.Config, logger *logrus.Logger) (storage.Store, func(), error) {
	if cfg.StorageBackend == "memory" {
		logger.Warn("Using in-memory storage: all data is lost on restart")
		return storage.NewMemoryStore(), func() {}, nil
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.SQLitePath, cfg.IsDevelopment())
	if err != nil {
		return nil, nil, err
	}
	gormStore := storage.NewGormStore(db)
	if err := gormStore.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("schema migration failed: %w", err)
	}
	return gormStore, func() { db.Close() }, nil
}
