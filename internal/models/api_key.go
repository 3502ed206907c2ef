package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// KeyPrefix is the fixed literal tag every issued credential starts with.
// Authentication rejects anything without it before touching storage.
const KeyPrefix = "fpl_"

// APIKey is a client credential. The token itself is immutable after
// creation; only LastUsedAt and Active are ever mutated.
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"uniqueIndex;size:64;not null" json:"key"`
	Name       string     `gorm:"not null" json:"name"` // owner label
	Active     bool       `gorm:"default:true" json:"active"`
	RateLimit  int        `gorm:"default:100" json:"rate_limit"` // requests per hour
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

// TableName specifies the table name for GORM
func (APIKey) TableName() string {
	return "api_keys"
}

// Expired reports whether the key has an expiry in the past.
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && k.ExpiresAt.Before(now)
}

// Redacted returns the token with everything but the prefix and the last
// four characters masked, for listing endpoints.
func (k *APIKey) Redacted() string {
	if len(k.Key) <= len(KeyPrefix)+4 {
		return KeyPrefix + "****"
	}
	return KeyPrefix + "****" + k.Key[len(k.Key)-4:]
}

// GenerateKey produces a new opaque token: the fixed prefix plus a random
// 32-hex-char suffix.
func GenerateKey() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")
	return KeyPrefix + suffix
}

// HasKeyPrefix checks the fixed credential format without any storage access.
func HasKeyPrefix(token string) bool {
	return strings.HasPrefix(token, KeyPrefix) && len(token) > len(KeyPrefix)
}
