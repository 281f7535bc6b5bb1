package session

import (
	dinder_constants "Dinder/constants/dinder"
	"Dinder/models/messages"
	session_models "Dinder/models/session"
	"Dinder/services/bus"
	"Dinder/utils"
	"fmt"
	"log"
	"sync"
)

type GuestOptions struct {
	Name  string
	Code  string // Session code typed by the user, kept as the mirror's code
	ID    string // Generated when empty
	Topic string // Defaults to dinder_constants.SessionTopic
}

// Guest mirrors a host's session. It never writes canonical state: its only
// outputs are a JoinRequest and ApprovalRequests.
type Guest struct {
	transport bus.Transport
	topic     string
	self      session_models.Participant

	mu        sync.Mutex
	mirror    Mirror
	closed    bool
	sub       bus.Subscription
	observers observers
}

var _ Peer = (*Guest)(nil)

// NewGuest subscribes to the session topic and asks to join. Until the host
// answers, the mirror holds only the guest itself in the lobby.
func NewGuest(transport bus.Transport, opts GuestOptions) (*Guest, error) {
	if opts.ID == "" {
		opts.ID = utils.NewParticipantID()
	}
	if opts.Topic == "" {
		opts.Topic = dinder_constants.SessionTopic
	}

	g := &Guest{
		transport: transport,
		topic:     opts.Topic,
		self:      newParticipant(opts.ID, opts.Name, false),
	}
	g.mirror = Mirror{
		Session: session_models.Session{
			Code:         opts.Code,
			Phase:        session_models.PhaseLobby,
			Participants: []session_models.Participant{g.self},
			Candidates:   []session_models.Candidate{},
		},
		JoinState: JoinUnjoined,
	}

	// Subscribe first, the host answers a join with an immediate Sync
	sub, err := transport.Subscribe(g.topic, g.receive)
	if err != nil {
		return nil, fmt.Errorf("error subscribing guest to %s: %w", g.topic, err)
	}
	g.sub = sub

	if err := g.requestJoin(); err != nil {
		sub.Unsubscribe()
		return nil, err
	}
	return g, nil
}

func (g *Guest) requestJoin() error {
	frame, err := messages.Encode(messages.KindJoinRequest, messages.JoinRequest{
		Participant: g.self,
		Code:        g.Code(),
	})
	if err != nil {
		return err
	}

	g.mu.Lock()
	if g.mirror.JoinState == JoinUnjoined {
		g.mirror.JoinState = JoinPending
	}
	g.mu.Unlock()

	log.Printf("[JOIN] %s (%s) requesting to join %s", g.self.DisplayName, g.self.ID, g.Code())
	g.transport.Publish(g.topic, frame)
	return nil
}

// RetryJoin republishes the join request. The host treats repeats as no-ops,
// so this is safe to call while still pending.
func (g *Guest) RetryJoin() error {
	g.mu.Lock()
	closed, state := g.closed, g.mirror.JoinState
	g.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if state == JoinJoined {
		return nil
	}
	return g.requestJoin()
}

func (g *Guest) receive(frame []byte) {
	env, err := messages.Decode(frame)
	if err != nil {
		log.Printf("[BUS-ERROR] Guest %s dropping frame: %v", g.self.ID, err)
		return
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	changed := Reconcile(&g.mirror, env, g.self.ID)
	v := g.viewLocked()
	g.mu.Unlock()

	if changed {
		g.observers.notify(v)
	}
}

// Approve sends an approval to the host. The guest keeps no like state; the
// host alone decides if it completes a match.
func (g *Guest) Approve(candidateID string) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrClosed
	}
	phase := g.mirror.Session.Phase
	_, known := g.mirror.Session.FindCandidate(candidateID)
	g.mu.Unlock()

	if phase != session_models.PhaseSwiping {
		return ErrNotSwiping
	}
	if !known {
		return ErrUnknownCandidate
	}

	frame, err := messages.Encode(messages.KindApprovalRequest, messages.ApprovalRequest{
		ParticipantID: g.self.ID,
		CandidateID:   candidateID,
	})
	if err != nil {
		return err
	}
	log.Printf("[APPROVAL] %s approving %s", g.self.ID, candidateID)
	g.transport.Publish(g.topic, frame)
	return nil
}

func (g *Guest) JoinState() JoinState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mirror.JoinState
}

func (g *Guest) viewLocked() View {
	v := View{
		Role:      RoleGuest,
		Self:      g.self,
		JoinState: g.mirror.JoinState,
		Session:   g.mirror.Session,
		Match:     g.mirror.Match,
	}
	return v.clone()
}

func (g *Guest) View() View {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.viewLocked()
}

func (g *Guest) Observe(fn func(View)) {
	g.observers.add(fn)
}

func (g *Guest) Role() Role                       { return RoleGuest }
func (g *Guest) Self() session_models.Participant { return g.self }

func (g *Guest) Code() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mirror.Session.Code
}

func (g *Guest) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.mu.Unlock()

	g.sub.Unsubscribe()
	log.Printf("[GUEST] %s left session %s", g.self.ID, g.Code())
	return nil
}
