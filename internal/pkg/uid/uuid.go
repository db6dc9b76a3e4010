package uid

import "github.com/google/uuid"

// UUID generates correlation IDs and lock owner tokens.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a time-ordered v7 UUID, or a random v4 if the clock read fails.
func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
