package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/IMmedia2025/My-PL-ML-System/internal/models"
	"github.com/IMmedia2025/My-PL-ML-System/internal/storage"
)

// KeyService issues and lists API keys. Issuance is gated behind the master
// secret at the transport layer; the service itself only enforces shape.
type KeyService struct {
	store            storage.Store
	defaultRateLimit int
	logger           *logrus.Logger
}

func NewKeyService(store storage.Store, defaultRateLimit int, logger *logrus.Logger) *KeyService {
	if defaultRateLimit <= 0 {
		defaultRateLimit = 100
	}
	return &KeyService{store: store, defaultRateLimit: defaultRateLimit, logger: logger}
}

// CreatedKey is returned exactly once at creation time; afterwards the
// token only appears redacted.
type CreatedKey struct {
	Key       string     `json:"key"`
	Name      string     `json:"name"`
	RateLimit int        `json:"rate_limit"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Create issues a fresh key for the named owner. rateLimit <= 0 selects the
// configured default; ttl == 0 means no expiry.
func (s *KeyService) Create(ctx context.Context, name string, rateLimit int, ttl time.Duration) (*CreatedKey, error) {
	if name == "" {
		return nil, fmt.Errorf("key owner name is required")
	}
	if rateLimit <= 0 {
		rateLimit = s.defaultRateLimit
	}

	key := &models.APIKey{
		Key:       models.GenerateKey(),
		Name:      name,
		Active:    true,
		RateLimit: rateLimit,
	}
	if ttl > 0 {
		expires := time.Now().UTC().Add(ttl)
		key.ExpiresAt = &expires
	}

	if err := s.store.CreateAPIKey(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to create API key: %w", err)
	}
	s.logger.Infof("Issued API key for %q (limit %d/h)", name, rateLimit)

	return &CreatedKey{
		Key:       key.Key,
		Name:      key.Name,
		RateLimit: key.RateLimit,
		ExpiresAt: key.ExpiresAt,
		CreatedAt: key.CreatedAt,
	}, nil
}

// RedactedKey is the listing shape: token masked, metadata intact.
type RedactedKey struct {
	ID         uint       `json:"id"`
	Key        string     `json:"key"`
	Name       string     `json:"name"`
	Active     bool       `json:"active"`
	RateLimit  int        `json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// List returns every key with its token redacted.
func (s *KeyService) List(ctx context.Context) ([]RedactedKey, error) {
	keys, err := s.store.ListAPIKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	out := make([]RedactedKey, 0, len(keys))
	for _, k := range keys {
		out = append(out, RedactedKey{
			ID:         k.ID,
			Key:        k.Redacted(),
			Name:       k.Name,
			Active:     k.Active,
			RateLimit:  k.RateLimit,
			CreatedAt:  k.CreatedAt,
			LastUsedAt: k.LastUsedAt,
			ExpiresAt:  k.ExpiresAt,
		})
	}
	return out, nil
}
