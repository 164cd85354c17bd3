package privacy

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const keySize = 32

// Service pseudonymizes identifiers before they are logged and describes what
// the service keeps. Ratings and results are never stored.
type Service struct {
	key        []byte
	captureTTL time.Duration
	cacheTTL   time.Duration
}

// RetentionInfo is the data handling statement served to clients.
type RetentionInfo struct {
	RatingsStored           bool     `json:"ratings_stored"`
	ResultsStored           bool     `json:"results_stored"`
	CaptureRetentionSeconds int64    `json:"capture_retention_seconds"`
	ResponseCacheSeconds    int64    `json:"response_cache_seconds"`
	CaptureReleasedOn       []string `json:"capture_released_on"`
	AnonymizationMethod     string   `json:"anonymization_method"`
}

// NewService creates a privacy service with a fresh per-process key, so
// pseudonyms cannot be linked across restarts.
func NewService(captureTTL, cacheTTL time.Duration) (*Service, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate anonymization key: %w", err)
	}
	return NewServiceWithKey(key, captureTTL, cacheTTL), nil
}

// NewServiceWithKey creates a privacy service with a fixed key.
func NewServiceWithKey(key []byte, captureTTL, cacheTTL time.Duration) *Service {
	return &Service{key: key, captureTTL: captureTTL, cacheTTL: cacheTTL}
}

// AnonymizeData maps an identifier such as a client IP to a stable pseudonym.
func (ps *Service) AnonymizeData(data string) string {
	if data == "" {
		return ""
	}
	mac := hmac.New(sha256.New, ps.key)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))[:16]
}

// RetentionInfo describes how long each kind of data lives.
func (ps *Service) RetentionInfo() RetentionInfo {
	return RetentionInfo{
		CaptureRetentionSeconds: int64(ps.captureTTL.Seconds()),
		ResponseCacheSeconds:    int64(ps.cacheTTL.Seconds()),
		CaptureReleasedOn:       []string{"analysis", "reset", "expiry", "shutdown"},
		AnonymizationMethod:     "HMAC-SHA256",
	}
}
