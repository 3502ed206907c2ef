package models

import (
	"time"

	"gorm.io/datatypes"
)

// TrainingRun is the append-only audit trail of model training, one row per
// invocation. Saving this row is part of the training contract: a training
// call whose metrics cannot be recorded is reported as failed.
type TrainingRun struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	ModelVersion string         `gorm:"size:32;index" json:"model_version"`
	SampleCount  int            `json:"sample_count"`
	Loss         float64        `json:"loss"`
	Accuracy     float64        `json:"accuracy"`
	ValLoss      float64        `json:"val_loss"`
	ValAccuracy  float64        `json:"val_accuracy"`
	Hyperparams  datatypes.JSON `json:"hyperparams"` // architecture/lr/epochs snapshot
	CreatedAt    time.Time      `json:"created_at"`
}

// TableName specifies the table name for GORM
func (TrainingRun) TableName() string {
	return "training_runs"
}
