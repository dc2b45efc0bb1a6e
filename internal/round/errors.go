package round

import "errors"

var (
	// ErrInvalidContent is returned when a message's content is malformed.
	ErrInvalidContent = errors.New("content is not valid")
	// ErrNilFields is returned when a message's content has missing fields.
	ErrNilFields = errors.New("message contained empty fields")
	// ErrUnknownSender is returned when a message comes from a party outside the registry.
	ErrUnknownSender = errors.New("message from unknown party")
	// ErrInvalidShare is returned when a received share does not match its commitments.
	ErrInvalidShare = errors.New("invalid share")
	// ErrComplaint is returned when another party complained about a dealer.
	ErrComplaint = errors.New("received complaint")
	// ErrUnexpectedEvent is returned when an event cannot be handled in the current state.
	ErrUnexpectedEvent = errors.New("unexpected event")
)
