package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/IMmedia2025/My-PL-ML-System/internal/ml"
	"github.com/IMmedia2025/My-PL-ML-System/internal/providers"
	"github.com/IMmedia2025/My-PL-ML-System/internal/storage"
)

// SubsystemStatus is one line of the aggregate health report.
type SubsystemStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok" or "down"
	Detail string `json:"detail,omitempty"`
}

// SystemStatus aggregates the health of the four subsystems the pipeline
// depends on: the database, the upstream FPL API, the model artifact and
// the training history.
type SystemStatus struct {
	Healthy    bool              `json:"healthy"`
	Subsystems []SubsystemStatus `json:"subsystems"`
	CheckedAt  time.Time         `json:"checked_at"`
}

// StatusService probes each subsystem independently; one subsystem being
// down never hides the state of the others.
type StatusService struct {
	store  storage.Store
	client *providers.FPLClient
	model  *ml.Model
	logger *logrus.Logger
}

func NewStatusService(store storage.Store, client *providers.FPLClient, model *ml.Model, logger *logrus.Logger) *StatusService {
	return &StatusService{store: store, client: client, model: model, logger: logger}
}

// Check runs all four probes. The upstream probe carries its own 10s bound.
func (s *StatusService) Check(ctx context.Context) *SystemStatus {
	status := &SystemStatus{CheckedAt: time.Now().UTC()}

	status.Subsystems = append(status.Subsystems, s.checkDatabase(ctx))
	status.Subsystems = append(status.Subsystems, s.checkUpstream(ctx))
	status.Subsystems = append(status.Subsystems, s.checkModel())
	status.Subsystems = append(status.Subsystems, s.checkTrainingHistory(ctx))

	status.Healthy = true
	for _, sub := range status.Subsystems {
		if sub.Status != "ok" {
			status.Healthy = false
			break
		}
	}
	return status
}

func (s *StatusService) checkDatabase(ctx context.Context) SubsystemStatus {
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warnf("Database health probe failed: %v", err)
		return SubsystemStatus{Name: "database", Status: "down", Detail: "storage unreachable"}
	}
	return SubsystemStatus{Name: "database", Status: "ok"}
}

func (s *StatusService) checkUpstream(ctx context.Context) SubsystemStatus {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.client.Health(probeCtx); err != nil {
		s.logger.Warnf("FPL API health probe failed: %v", err)
		return SubsystemStatus{Name: "fpl_api", Status: "down", Detail: "upstream API unreachable"}
	}
	return SubsystemStatus{Name: "fpl_api", Status: "ok"}
}

func (s *StatusService) checkModel() SubsystemStatus {
	if s.model.Loaded() {
		return SubsystemStatus{Name: "model", Status: "ok", Detail: "loaded"}
	}
	if s.model.ArtifactExists() {
		return SubsystemStatus{Name: "model", Status: "ok", Detail: "artifact on disk, not yet loaded"}
	}
	return SubsystemStatus{Name: "model", Status: "down", Detail: "no trained model; run training"}
}

func (s *StatusService) checkTrainingHistory(ctx context.Context) SubsystemStatus {
	count, err := s.store.CountTrainingRuns(ctx)
	if err != nil {
		return SubsystemStatus{Name: "training_history", Status: "down", Detail: "storage unreachable"}
	}
	if count == 0 {
		return SubsystemStatus{Name: "training_history", Status: "down", Detail: "no training runs recorded"}
	}
	return SubsystemStatus{Name: "training_history", Status: "ok"}
}
