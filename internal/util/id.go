package util

import "github.com/google/uuid"

// NewID returns a new random UUID string. Used for message correlation
// identifiers so a response envelope can be matched to its request.
func NewID() string {
	return uuid.NewString()
}
