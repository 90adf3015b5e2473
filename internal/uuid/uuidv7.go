// Package uuid generates record ids. Ids are UUIDv7 so that records sort
// roughly by creation time when listed by id.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a new UUIDv7 string, falling back to v4 if the clock source
// fails.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.NewString()
	}
	return id.String()
}

// Parse validates s and returns it in canonical form.
func Parse(s string) (string, error) {
	parsed, err := googleuuid.Parse(s)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}

// IsValid checks if a string is a valid UUID
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
