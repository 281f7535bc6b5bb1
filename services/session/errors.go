package session

import (
	"Dinder/services/discovery"
	"errors"
)

var (
	ErrClosed             = errors.New("session closed")
	ErrInvalidTransition  = errors.New("invalid phase transition")
	ErrNotSwiping         = errors.New("session is not swiping")
	ErrUnknownCandidate   = errors.New("candidate is not in the current round")
	ErrUnknownParticipant = errors.New("participant is not in the session")
)

// IsProviderError reports whether err came from candidate discovery
func IsProviderError(err error) bool {
	var perr *discovery.ProviderError
	return errors.As(err, &perr)
}
