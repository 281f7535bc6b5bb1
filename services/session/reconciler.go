package session

import (
	"Dinder/models/messages"
	session_models "Dinder/models/session"
	"log"
)

// Mirror is a guest's local copy of the replicated state
type Mirror struct {
	Session   session_models.Session
	Match     *session_models.Candidate
	JoinState JoinState
}

// Reconcile applies one inbound message to a guest mirror and reports
// whether the mirror changed. Sync replaces the session wholesale, keeping
// only the local code; a snapshot outside the matched phase also drops any
// local match, since the host's frames arrive in order and a later snapshot
// is newer. MatchFound forces the matched phase whatever the mirror held.
// Everything else is ignored.
func Reconcile(m *Mirror, env messages.Envelope, selfID string) bool {
	switch env.Type {
	case messages.KindSync:
		snap, err := env.Sync()
		if err != nil {
			log.Printf("[SYNC-ERROR] Dropping snapshot: %v", err)
			return false
		}
		m.Session = snap.Apply(m.Session.Code)
		if snap.Phase != session_models.PhaseMatched {
			m.Match = nil
		}
		if m.JoinState == JoinPending && m.Session.HasParticipant(selfID) {
			m.JoinState = JoinJoined
			log.Printf("[JOIN-SUCCESS] Participant %s admitted to session %s", selfID, m.Session.Code)
		}
		return true

	case messages.KindMatchFound:
		found, err := env.MatchFound()
		if err != nil {
			log.Printf("[MATCH-ERROR] Dropping match: %v", err)
			return false
		}
		candidate := found.Candidate.Clone()
		m.Match = &candidate
		m.Session.Phase = session_models.PhaseMatched
		log.Printf("[MATCH] Session %s matched on %s", m.Session.Code, candidate.ID)
		return true
	}
	return false
}
