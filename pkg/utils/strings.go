package utils

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"time"
)

// GenerateUUID returns a random v4-style identifier.
func GenerateUUID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}

// GenerateOrderNumber builds a human-readable order reference like
// "KN-20260827-4F21". Uniqueness is backed by the DB constraint; the random
// suffix keeps same-day collisions unlikely.
func GenerateOrderNumber(now time.Time) string {
	b := make([]byte, 2)
	_, _ = rand.Read(b)
	return fmt.Sprintf("KN-%s-%X", now.Format("20060102"), b)
}

// ParseInt parses a string to int with a fallback default value
func ParseInt(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return val
}
