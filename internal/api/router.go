package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/IMmedia2025/My-PL-ML-System/internal/api/handlers"
	"github.com/IMmedia2025/My-PL-ML-System/internal/api/middleware"
	"github.com/IMmedia2025/My-PL-ML-System/internal/services"
	"github.com/IMmedia2025/My-PL-ML-System/internal/storage"
	"github.com/IMmedia2025/My-PL-ML-System/pkg/config"
)

// Deps bundles everything the route tree needs.
type Deps struct {
	Store   storage.Store
	Sync    *services.SyncService
	Train   *services.TrainService
	Predict *services.PredictService
	Keys    *services.KeyService
	Usage   *services.UsageService
	Status  *services.StatusService
	Config  *config.Config
	Logger  *logrus.Logger
}

// NewRouter builds the full route tree: public liveness and system status,
// key-gated pipeline and usage endpoints, master-secret-gated key
// management.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.Logger(deps.Logger))
	router.Use(middleware.CORS(deps.Config.CorsOrigins))

	dataHandler := handlers.NewDataHandler(deps.Sync, deps.Store)
	trainHandler := handlers.NewTrainHandler(deps.Train)
	predictHandler := handlers.NewPredictHandler(deps.Predict, deps.Store)
	usageHandler := handlers.NewUsageHandler(deps.Usage)
	keysHandler := handlers.NewKeysHandler(deps.Keys)
	systemHandler := handlers.NewSystemHandler(deps.Status)

	router.GET("/health", handlers.Health)

	apiGroup := router.Group("/api")

	apiGroup.GET("/system/status", systemHandler.Status)

	protected := apiGroup.Group("")
	protected.Use(middleware.APIKeyAuth(deps.Store, deps.Logger))
	{
		protected.POST("/data/sync", dataHandler.RunSync)
		protected.GET("/data/sync", dataHandler.SyncStatus)

		protected.POST("/train/production", trainHandler.RunTraining)
		protected.GET("/train/production", trainHandler.TrainingStatus)

		protected.POST("/predict/generate", predictHandler.Generate)
		protected.GET("/predict/generate", predictHandler.GenerateStatus)
		protected.GET("/predict/latest", predictHandler.Latest)

		protected.GET("/usage", usageHandler.GetUsage)
	}

	admin := apiGroup.Group("/keys")
	admin.Use(middleware.MasterSecretAuth(deps.Config.MasterAPISecret))
	{
		admin.POST("", keysHandler.CreateKey)
		admin.GET("", keysHandler.ListKeys)
	}

	return router
}
