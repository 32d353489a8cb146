package assistant

import "github.com/google/uuid"

// IDGenerator supplies identifiers for messages and dispatch sessions. It is
// injected so tests can use a deterministic source.
type IDGenerator interface {
	NewID() string
}

type uuidGenerator struct{}

func (uuidGenerator) NewID() string { return uuid.NewString() }

// NewUUIDGenerator returns the production generator.
func NewUUIDGenerator() IDGenerator { return uuidGenerator{} }
