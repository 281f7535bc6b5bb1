package session

import (
	session_models "Dinder/models/session"
	"fmt"
)

// PhaseController holds the host's current phase and the candidate list of
// the running round, and enforces which transitions are allowed:
//
//	lobby          -> location-setup   BeginLocationSetup
//	location-setup -> lobby            ReturnToLobby
//	location-setup -> swiping          StartRound (new list)
//	swiping        -> swiping          StartRound (new list)
//	matched        -> swiping          StartRound (new list) or KeepSwiping (same list)
//	swiping        -> matched          MarkMatched
type PhaseController struct {
	phase      session_models.Phase
	candidates []session_models.Candidate
}

func NewPhaseController() *PhaseController {
	return &PhaseController{
		phase:      session_models.PhaseLobby,
		candidates: []session_models.Candidate{},
	}
}

func (pc *PhaseController) Phase() session_models.Phase {
	return pc.phase
}

// Candidates returns a copy of the current round's list
func (pc *PhaseController) Candidates() []session_models.Candidate {
	out := make([]session_models.Candidate, len(pc.candidates))
	for i, c := range pc.candidates {
		out[i] = c.Clone()
	}
	return out
}

func (pc *PhaseController) Candidate(id string) (session_models.Candidate, bool) {
	for _, c := range pc.candidates {
		if c.ID == id {
			return c.Clone(), true
		}
	}
	return session_models.Candidate{}, false
}

func (pc *PhaseController) move(to session_models.Phase, allowed ...session_models.Phase) error {
	for _, from := range allowed {
		if pc.phase == from {
			pc.phase = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, pc.phase, to)
}

func (pc *PhaseController) BeginLocationSetup() error {
	return pc.move(session_models.PhaseLocationSetup, session_models.PhaseLobby)
}

func (pc *PhaseController) ReturnToLobby() error {
	return pc.move(session_models.PhaseLobby, session_models.PhaseLocationSetup)
}

// CanStartRound reports whether a fresh candidate list may be installed now
func (pc *PhaseController) CanStartRound() bool {
	switch pc.phase {
	case session_models.PhaseLocationSetup, session_models.PhaseSwiping, session_models.PhaseMatched:
		return true
	}
	return false
}

// StartRound replaces the candidate list as a whole and enters swiping
func (pc *PhaseController) StartRound(candidates []session_models.Candidate) error {
	if len(candidates) == 0 {
		return fmt.Errorf("%w: empty candidate list", ErrInvalidTransition)
	}
	if err := pc.move(session_models.PhaseSwiping,
		session_models.PhaseLocationSetup, session_models.PhaseSwiping, session_models.PhaseMatched); err != nil {
		return err
	}
	pc.candidates = make([]session_models.Candidate, len(candidates))
	for i, c := range candidates {
		pc.candidates[i] = c.Clone()
	}
	return nil
}

// KeepSwiping goes back to swiping over the same list after a match
func (pc *PhaseController) KeepSwiping() error {
	return pc.move(session_models.PhaseSwiping, session_models.PhaseMatched)
}

func (pc *PhaseController) MarkMatched() error {
	return pc.move(session_models.PhaseMatched, session_models.PhaseSwiping)
}
