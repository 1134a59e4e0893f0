package utils

import (
	"os"
	"strconv"
)

const (
	// DefaultSemaphoreLimit bounds concurrent external calls when no
	// explicit limit is configured.
	DefaultSemaphoreLimit = 20
)

// GetSemaphoreLimit returns the semaphore limit from environment variable or default
func GetSemaphoreLimit() int {
	val := os.Getenv("SEMAPHORE_LIMIT")
	if val == "" {
		return DefaultSemaphoreLimit
	}
	limit, err := strconv.Atoi(val)
	if err != nil {
		return DefaultSemaphoreLimit
	}
	return limit
}
