package round

import (
	"fmt"

	"github.com/taurusgroup/paillier-dkg/pkg/party"
)

// Abort is returned by a transition when the execution cannot continue.
// It contains the list of parties who misbehaved, if they could be identified.
type Abort struct {
	Tag      Tag
	Culprits []party.ID
	Err      error
}

func (a *Abort) Error() string {
	if len(a.Culprits) == 0 {
		return fmt.Sprintf("abort at %s: %s", a.Tag, a.Err)
	}
	return fmt.Sprintf("abort at %s: culprits %v: %s", a.Tag, a.Culprits, a.Err)
}

func (a *Abort) Unwrap() error {
	return a.Err
}
