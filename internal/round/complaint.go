package round

import (
	"github.com/taurusgroup/paillier-dkg/pkg/party"
)

// Complaint is broadcast by a party who received an invalid share.
// Receiving one aborts the execution.
type Complaint struct {
	// Raised is the position of the machine that detected the invalid share.
	Raised Tag
	// Accused is the dealer of the invalid share.
	Accused party.ID
}

// Tag implements Content.
// Complaints all share the same tag, so that at most one per sender is ever deferred.
func (Complaint) Tag() Tag {
	return Tag{Phase: PhaseComplaint, Number: 1}
}

// ComplaintTag is the Tag of every Complaint.
var ComplaintTag = Complaint{}.Tag()
