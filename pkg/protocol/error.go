package protocol

import (
	"fmt"

	"github.com/taurusgroup/paillier-dkg/internal/round"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
)

// Error is a custom error for protocols which contains information about the position in
// the execution where it occurred, and the parties responsible.
type Error struct {
	// Tag where the error occurred
	Tag round.Tag
	// Culprits is empty if the identity of the misbehaving parties cannot be known
	Culprits []party.ID
	// Err is the underlying error
	Err error
}

func (e Error) Error() string {
	if len(e.Culprits) == 0 {
		return fmt.Sprintf("%s: %s", e.Tag, e.Err)
	}
	return fmt.Sprintf("%s: culprits: %v: %s", e.Tag, e.Culprits, e.Err)
}

func (e Error) Unwrap() error {
	return e.Err
}
