package messages

import (
	session_models "Dinder/models/session"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind identifies the payload carried by an Envelope
type Kind string

const (
	KindJoinRequest     Kind = "JoinRequest"
	KindSync            Kind = "Sync"
	KindApprovalRequest Kind = "ApprovalRequest"
	KindMatchFound      Kind = "MatchFound"
)

var (
	ErrMalformed   = errors.New("malformed message")
	ErrUnknownKind = errors.New("unknown message type")
)

// Envelope is the frame published on the session topic. The payload is kept
// raw until the receiver knows which type it wants.
type Envelope struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// JoinRequest is sent by a guest that wants to be added to the participants.
// Code is the session code typed by the guest, empty when unknown.
type JoinRequest struct {
	Participant session_models.Participant `json:"participant"`
	Code        string                     `json:"code,omitempty"`
}

// Sync is a full snapshot of the host's session, never a diff
type Sync struct {
	Participants []session_models.Participant `json:"participants"`
	Phase        session_models.Phase         `json:"phase"`
	Candidates   []session_models.Candidate   `json:"candidates"`
}

type ApprovalRequest struct {
	ParticipantID string `json:"participantId"`
	CandidateID   string `json:"candidateId"`
}

type MatchFound struct {
	Candidate session_models.Candidate `json:"candidate"`
}

// SyncFrom builds the snapshot payload for a session
func SyncFrom(s session_models.Session) Sync {
	c := s.Clone()
	return Sync{Participants: c.Participants, Phase: c.Phase, Candidates: c.Candidates}
}

// Apply returns the session described by the snapshot, keeping only the
// locally known code (the code never travels in a Sync).
func (s Sync) Apply(code string) session_models.Session {
	return session_models.Session{
		Code:         code,
		Phase:        s.Phase,
		Participants: s.Participants,
		Candidates:   s.Candidates,
	}.Clone()
}

// Encode wraps a payload into a serialized envelope
func Encode(kind Kind, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshaling %s payload: %w", kind, err)
	}
	frame, err := json.Marshal(Envelope{Type: kind, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("error marshaling %s envelope: %w", kind, err)
	}
	return frame, nil
}

// Decode parses a frame received from the bus. Anything that is not a JSON
// object with a known type and a payload is rejected.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch env.Type {
	case KindJoinRequest, KindSync, KindApprovalRequest, KindMatchFound:
	default:
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownKind, env.Type)
	}
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return Envelope{}, fmt.Errorf("%w: %s without payload", ErrMalformed, env.Type)
	}
	return env, nil
}

func (e Envelope) JoinRequest() (JoinRequest, error) {
	var req JoinRequest
	if err := e.decode(KindJoinRequest, &req); err != nil {
		return JoinRequest{}, err
	}
	if req.Participant.ID == "" {
		return JoinRequest{}, fmt.Errorf("%w: join request without participant id", ErrMalformed)
	}
	return req, nil
}

func (e Envelope) Sync() (Sync, error) {
	var snap Sync
	if err := e.decode(KindSync, &snap); err != nil {
		return Sync{}, err
	}
	if !snap.Phase.Valid() {
		return Sync{}, fmt.Errorf("%w: sync with unknown phase %q", ErrMalformed, snap.Phase)
	}
	return snap, nil
}

func (e Envelope) ApprovalRequest() (ApprovalRequest, error) {
	var req ApprovalRequest
	if err := e.decode(KindApprovalRequest, &req); err != nil {
		return ApprovalRequest{}, err
	}
	if req.ParticipantID == "" || req.CandidateID == "" {
		return ApprovalRequest{}, fmt.Errorf("%w: approval without participant or candidate", ErrMalformed)
	}
	return req, nil
}

func (e Envelope) MatchFound() (MatchFound, error) {
	var found MatchFound
	if err := e.decode(KindMatchFound, &found); err != nil {
		return MatchFound{}, err
	}
	if found.Candidate.ID == "" {
		return MatchFound{}, fmt.Errorf("%w: match without candidate id", ErrMalformed)
	}
	return found, nil
}

func (e Envelope) decode(want Kind, into any) error {
	if e.Type != want {
		return fmt.Errorf("%w: expected %s, got %s", ErrMalformed, want, e.Type)
	}
	if err := json.Unmarshal(e.Payload, into); err != nil {
		return fmt.Errorf("%w: %s payload: %v", ErrMalformed, want, err)
	}
	return nil
}
