// Package session implements the synchronization and match-detection
// protocol of a Dinder session.
//
// A process plays exactly one role. The Host owns the canonical Session and
// the LikeRegistry and is the only writer; every change it makes is
// broadcast as a full Sync snapshot. A Guest keeps a read-only mirror that
// is overwritten by each snapshot and only originates intents (join,
// approve). Both speak through a bus.Transport.
package session

import (
	session_models "Dinder/models/session"
	"sync"
)

type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// JoinState tracks a participant's admission: a guest is pending from the
// moment its join request is sent until a snapshot lists it.
type JoinState string

const (
	JoinUnjoined JoinState = "unjoined"
	JoinPending  JoinState = "pending"
	JoinJoined   JoinState = "joined"
)

// View is what the local presentation layer sees of the session
type View struct {
	Role      Role                       `json:"role"`
	Self      session_models.Participant `json:"self"`
	JoinState JoinState                  `json:"joinState"`
	Session   session_models.Session     `json:"session"`
	Match     *session_models.Candidate  `json:"match,omitempty"`
}

func (v View) clone() View {
	out := v
	out.Session = v.Session.Clone()
	if v.Match != nil {
		m := v.Match.Clone()
		out.Match = &m
	}
	return out
}

// Peer is the capability set shared by both roles. Host-only operations
// (phase changes, rounds) live on *Host alone.
type Peer interface {
	Role() Role
	Self() session_models.Participant
	Code() string
	View() View
	// Approve expresses the local participant's approval of a candidate
	Approve(candidateID string) error
	// Observe registers fn to be called with a fresh view after every
	// change. fn runs on the peer's own goroutine and must not block.
	Observe(fn func(View))
	Close() error
}

type observers struct {
	mu  sync.Mutex
	fns []func(View)
}

func (o *observers) add(fn func(View)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fns = append(o.fns, fn)
}

func (o *observers) notify(v View) {
	o.mu.Lock()
	fns := append([]func(View){}, o.fns...)
	o.mu.Unlock()
	for _, fn := range fns {
		fn(v.clone())
	}
}

func newParticipant(id, name string, isHost bool) session_models.Participant {
	return session_models.Participant{
		ID:          id,
		DisplayName: name,
		IsHost:      isHost,
		Activity:    session_models.ActivityActive,
	}
}
