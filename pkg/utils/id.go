package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateUUID returns a new random UUID string.
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateOrderNumber builds a human-readable, unique order number:
// ORD-YYYYMMDD-XXXXXX where the suffix is random hex entropy.
func GenerateOrderNumber(now time.Time) string {
	entropy := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "ORD-" + now.UTC().Format("20060102") + "-" + entropy[:6]
}
