package services

import "github.com/google/uuid"

// newID mints a UUIDv4 for persisted entities.
func newID() string {
	return uuid.NewString()
}
