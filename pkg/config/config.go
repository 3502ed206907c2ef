package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Storage
	StorageBackend string `mapstructure:"STORAGE_BACKEND"` // "sqlite", "postgres", "memory"
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	SQLitePath     string `mapstructure:"SQLITE_PATH"`

	// Model artifacts
	ModelDir string `mapstructure:"MODEL_DIR"`

	// Admin
	MasterAPISecret  string `mapstructure:"MASTER_API_SECRET"`
	DefaultRateLimit int    `mapstructure:"DEFAULT_RATE_LIMIT"` // requests per hour per key

	// CORS
	CorsOrigins []string `mapstructure:"CORS_ORIGINS"`

	// External FPL API
	FPLBaseURL     string        `mapstructure:"FPL_BASE_URL"`
	FPLTimeout     time.Duration `mapstructure:"FPL_TIMEOUT"`
	FPLMaxRetries  int           `mapstructure:"FPL_MAX_RETRIES"`
	FPLRetryDelay  time.Duration `mapstructure:"FPL_RETRY_DELAY"`
	FPLPacingDelay time.Duration `mapstructure:"FPL_PACING_DELAY"`

	// Training
	TrainMinSamples int     `mapstructure:"TRAIN_MIN_SAMPLES"`
	TrainAugment    bool    `mapstructure:"TRAIN_SYNTHETIC_AUGMENT"`
	TrainEpochs     int     `mapstructure:"TRAIN_EPOCHS"`
	TrainBatchSize  int     `mapstructure:"TRAIN_BATCH_SIZE"`
	TrainLearnRate  float64 `mapstructure:"TRAIN_LEARN_RATE"`
	TrainValSplit   float64 `mapstructure:"TRAIN_VAL_SPLIT"`

	// Background jobs
	EnableBackgroundSync bool   `mapstructure:"ENABLE_BACKGROUND_SYNC"`
	SyncInterval         string `mapstructure:"SYNC_INTERVAL"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("STORAGE_BACKEND", "sqlite")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("SQLITE_PATH", "data/predictions.db")
	viper.SetDefault("MODEL_DIR", "data/models")
	viper.SetDefault("MASTER_API_SECRET", "")
	viper.SetDefault("DEFAULT_RATE_LIMIT", 100)
	viper.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")

	viper.SetDefault("FPL_BASE_URL", "https://fantasy.premierleague.com/api")
	viper.SetDefault("FPL_TIMEOUT", "10s")
	viper.SetDefault("FPL_MAX_RETRIES", 3)
	viper.SetDefault("FPL_RETRY_DELAY", "1s")
	viper.SetDefault("FPL_PACING_DELAY", "500ms")

	viper.SetDefault("TRAIN_MIN_SAMPLES", 100)
	viper.SetDefault("TRAIN_SYNTHETIC_AUGMENT", true)
	viper.SetDefault("TRAIN_EPOCHS", 50)
	viper.SetDefault("TRAIN_BATCH_SIZE", 16)
	viper.SetDefault("TRAIN_LEARN_RATE", 0.01)
	viper.SetDefault("TRAIN_VAL_SPLIT", 0.2)

	viper.SetDefault("ENABLE_BACKGROUND_SYNC", false)
	viper.SetDefault("SYNC_INTERVAL", "6h")

	// Read from environment
	viper.AutomaticEnv()

	// Read config file if exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Parse CORS origins from comma-separated string
	if corsStr := viper.GetString("CORS_ORIGINS"); corsStr != "" {
		config.CorsOrigins = strings.Split(corsStr, ",")
	}

	return &config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
