package core

import "github.com/google/uuid"

// NewID generates a new unique identifier for runs, questions and traces.
func NewID() string { return uuid.NewString() }
