// Package node holds the single session slot of a local process. A process
// is either idle, hosting or a guest; the presentation gateway drives the
// slot and is told about every change.
package node

import (
	session_models "Dinder/models/session"
	"Dinder/services/bus"
	"Dinder/services/discovery"
	"Dinder/services/session"
	"Dinder/utils"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

var (
	ErrNoSession     = errors.New("no active session")
	ErrSessionActive = errors.New("a session is already active")
	ErrNotHost       = errors.New("only the host can do this")
	ErrInvalidCode   = errors.New("invalid session code")
)

// TransportFactory opens a fresh bus handle for a new session
type TransportFactory func() (bus.Transport, error)

// State is what the node reports to listeners on every change
type State struct {
	session.View
	Rejected []string `json:"rejected"`
}

type Listener func(State)

type MatchListener func(session_models.Candidate)

type Node struct {
	newTransport TransportFactory
	provider     discovery.Provider
	topic        string

	mu        sync.Mutex
	peer      session.Peer
	host      *session.Host
	transport bus.Transport

	// Local round state, never published
	roundMu  sync.Mutex
	rejected map[string]struct{}
	lastView *session.View

	listenMu       sync.Mutex
	listeners      []Listener
	matchListeners []MatchListener
}

func New(newTransport TransportFactory, provider discovery.Provider, topic string) *Node {
	return &Node{
		newTransport: newTransport,
		provider:     provider,
		topic:        topic,
		rejected:     make(map[string]struct{}),
	}
}

// OnChange registers fn for every session change. It is called from the
// session's goroutines and must not call back into the node synchronously.
func (n *Node) OnChange(fn Listener) {
	n.listenMu.Lock()
	defer n.listenMu.Unlock()
	n.listeners = append(n.listeners, fn)
}

// OnMatch registers fn for each newly declared match
func (n *Node) OnMatch(fn MatchListener) {
	n.listenMu.Lock()
	defer n.listenMu.Unlock()
	n.matchListeners = append(n.matchListeners, fn)
}

// Host creates a new session with the local user as host
func (n *Node) Host(name string) (State, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.peer != nil {
		return State{}, ErrSessionActive
	}

	tr, err := n.newTransport()
	if err != nil {
		return State{}, fmt.Errorf("error opening bus: %w", err)
	}
	h, err := session.NewHost(tr, n.provider, session.HostOptions{Name: name, Topic: n.topic})
	if err != nil {
		tr.Close()
		return State{}, err
	}

	n.install(h, tr)
	n.host = h
	log.Printf("[NODE] Hosting session %s", h.Code())
	return n.stateOf(h.View()), nil
}

// Join asks to enter the session with the given code
func (n *Node) Join(name, code string) (State, error) {
	code, ok := utils.NormalizeSessionCode(code)
	if !ok {
		return State{}, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.peer != nil {
		return State{}, ErrSessionActive
	}

	tr, err := n.newTransport()
	if err != nil {
		return State{}, fmt.Errorf("error opening bus: %w", err)
	}
	g, err := session.NewGuest(tr, session.GuestOptions{Name: name, Code: code, Topic: n.topic})
	if err != nil {
		tr.Close()
		return State{}, err
	}

	n.install(g, tr)
	log.Printf("[NODE] Joining session %s as %s", code, g.Self().ID)
	return n.stateOf(g.View()), nil
}

// install must be called with n.mu held
func (n *Node) install(p session.Peer, tr bus.Transport) {
	n.peer = p
	n.transport = tr
	n.resetRound(nil)
	p.Observe(func(v session.View) { n.changed(p, v) })
}

// Leave tears the local session down and frees the slot
func (n *Node) Leave() error {
	n.mu.Lock()
	p, tr := n.peer, n.transport
	n.peer, n.host, n.transport = nil, nil, nil
	n.mu.Unlock()

	if p == nil {
		return ErrNoSession
	}
	// Close outside n.mu, the peer may be delivering a change right now
	err := p.Close()
	if cerr := tr.Close(); err == nil {
		err = cerr
	}
	n.resetRound(nil)
	log.Printf("[NODE] Left session %s", p.Code())
	return err
}

// Close releases any active session
func (n *Node) Close() error {
	if err := n.Leave(); err != nil && !errors.Is(err, ErrNoSession) {
		return err
	}
	return nil
}

func (n *Node) current() (session.Peer, *session.Host) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.peer, n.host
}

func (n *Node) Current() (State, error) {
	p, _ := n.current()
	if p == nil {
		return State{}, ErrNoSession
	}
	return n.stateOf(p.View()), nil
}

func (n *Node) hostOnly() (*session.Host, error) {
	p, h := n.current()
	if p == nil {
		return nil, ErrNoSession
	}
	if h == nil {
		return nil, ErrNotHost
	}
	return h, nil
}

func (n *Node) BeginLocationSetup() error {
	h, err := n.hostOnly()
	if err != nil {
		return err
	}
	return h.BeginLocationSetup()
}

func (n *Node) ReturnToLobby() error {
	h, err := n.hostOnly()
	if err != nil {
		return err
	}
	return h.ReturnToLobby()
}

func (n *Node) StartRound(ctx context.Context, query session_models.Query) error {
	h, err := n.hostOnly()
	if err != nil {
		return err
	}
	return h.StartRound(ctx, query)
}

func (n *Node) KeepSwiping() error {
	h, err := n.hostOnly()
	if err != nil {
		return err
	}
	return h.KeepSwiping()
}

// Tally reports who approved a candidate, visible to the host only
func (n *Node) Tally(candidateID string) ([]string, error) {
	h, err := n.hostOnly()
	if err != nil {
		return nil, err
	}
	return h.Tally(candidateID)
}

func (n *Node) Approve(candidateID string) error {
	p, _ := n.current()
	if p == nil {
		return ErrNoSession
	}
	return p.Approve(candidateID)
}

// Reject records a local "nope". It never leaves this process.
func (n *Node) Reject(candidateID string) (State, error) {
	p, _ := n.current()
	if p == nil {
		return State{}, ErrNoSession
	}
	v := p.View()
	if v.Session.Phase != session_models.PhaseSwiping {
		return State{}, session.ErrNotSwiping
	}
	if _, ok := v.Session.FindCandidate(candidateID); !ok {
		return State{}, session.ErrUnknownCandidate
	}

	n.roundMu.Lock()
	n.rejected[candidateID] = struct{}{}
	n.roundMu.Unlock()

	st := n.stateOf(v)
	n.emit(st)
	return st, nil
}

// changed runs on the peer's goroutine after every session change
func (n *Node) changed(p session.Peer, v session.View) {
	n.mu.Lock()
	stale := n.peer != p
	n.mu.Unlock()
	if stale {
		return
	}

	n.roundMu.Lock()
	prev := n.lastView
	if newRound(prev, v) {
		n.rejected = make(map[string]struct{})
	}
	n.lastView = &v
	n.roundMu.Unlock()

	n.emit(n.stateOf(v))
	if v.Match != nil && (prev == nil || prev.Match == nil) {
		n.emitMatch(*v.Match)
	}
}

// newRound reports whether v entered swiping over a different list
func newRound(prev *session.View, v session.View) bool {
	if v.Session.Phase != session_models.PhaseSwiping {
		return false
	}
	if prev == nil || prev.Session.Phase != session_models.PhaseSwiping {
		return true
	}
	if len(prev.Session.Candidates) != len(v.Session.Candidates) {
		return true
	}
	for i, c := range v.Session.Candidates {
		if prev.Session.Candidates[i].ID != c.ID {
			return true
		}
	}
	return false
}

func (n *Node) resetRound(v *session.View) {
	n.roundMu.Lock()
	defer n.roundMu.Unlock()
	n.rejected = make(map[string]struct{})
	n.lastView = v
}

func (n *Node) stateOf(v session.View) State {
	n.roundMu.Lock()
	defer n.roundMu.Unlock()
	rejected := make([]string, 0, len(n.rejected))
	for _, c := range v.Session.Candidates {
		if _, ok := n.rejected[c.ID]; ok {
			rejected = append(rejected, c.ID)
		}
	}
	return State{View: v, Rejected: rejected}
}

func (n *Node) emit(st State) {
	n.listenMu.Lock()
	fns := append([]Listener{}, n.listeners...)
	n.listenMu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

func (n *Node) emitMatch(c session_models.Candidate) {
	n.listenMu.Lock()
	fns := append([]MatchListener{}, n.matchListeners...)
	n.listenMu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}
