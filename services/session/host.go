package session

import (
	dinder_constants "Dinder/constants/dinder"
	"Dinder/models/messages"
	session_models "Dinder/models/session"
	"Dinder/services/bus"
	"Dinder/services/discovery"
	"Dinder/utils"
	"context"
	"fmt"
	"log"
	"sync"
)

type HostOptions struct {
	Name  string
	Code  string // Generated when empty
	ID    string // Generated when empty
	Topic string // Defaults to dinder_constants.SessionTopic
}

// Host is the single writer of a session. All of its state is owned by one
// actor goroutine: inbound bus messages and local commands are queued on the
// inbox and run one at a time, and every snapshot is built from that state at
// publish time.
type Host struct {
	transport bus.Transport
	provider  discovery.Provider
	topic     string
	self      session_models.Participant
	code      string

	inbox     chan func()
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	sub       bus.Subscription

	// Owned by the actor goroutine
	registry *Registry
	phases   *PhaseController
	likes    *LikeRegistry
	match    *session_models.Candidate

	viewMu    sync.RWMutex
	view      View
	observers observers
}

var _ Peer = (*Host)(nil)

// NewHost creates a session with its host as the first participant and
// starts listening for join and approval requests.
func NewHost(transport bus.Transport, provider discovery.Provider, opts HostOptions) (*Host, error) {
	if opts.Code == "" {
		opts.Code = utils.NewSessionCode()
	}
	if opts.ID == "" {
		opts.ID = utils.NewParticipantID()
	}
	if opts.Topic == "" {
		opts.Topic = dinder_constants.SessionTopic
	}

	h := &Host{
		transport: transport,
		provider:  provider,
		topic:     opts.Topic,
		self:      newParticipant(opts.ID, opts.Name, true),
		code:      opts.Code,
		inbox:     make(chan func(), dinder_constants.HostInboxSize),
		done:      make(chan struct{}),
		registry:  NewRegistry(),
		phases:    NewPhaseController(),
		likes:     NewLikeRegistry(),
	}
	h.registry.Add(h.self)
	h.refreshView()

	sub, err := transport.Subscribe(h.topic, h.receive)
	if err != nil {
		return nil, fmt.Errorf("error subscribing host to %s: %w", h.topic, err)
	}
	h.sub = sub

	h.wg.Add(1)
	go h.run()

	log.Printf("[HOST] Session %s created by %s (%s)", h.code, h.self.DisplayName, h.self.ID)
	h.enqueue(h.publishSync)
	return h, nil
}

func (h *Host) run() {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return
		case fn := <-h.inbox:
			fn()
		}
	}
}

// enqueue hands fn to the actor; it fails only once the host is closed
func (h *Host) enqueue(fn func()) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.inbox <- fn:
		return true
	case <-h.done:
		return false
	}
}

// do runs fn on the actor and waits for its result
func (h *Host) do(fn func() error) error {
	reply := make(chan error, 1)
	if !h.enqueue(func() { reply <- fn() }) {
		return ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-h.done:
		select {
		case err := <-reply:
			return err
		default:
			return ErrClosed
		}
	}
}

// receive runs on the transport's delivery goroutine. Only intents are
// accepted: the host's own Sync and MatchFound echoes are dropped, the local
// state is canonical.
func (h *Host) receive(frame []byte) {
	env, err := messages.Decode(frame)
	if err != nil {
		log.Printf("[BUS-ERROR] Host %s dropping frame: %v", h.code, err)
		return
	}

	switch env.Type {
	case messages.KindJoinRequest:
		req, err := env.JoinRequest()
		if err != nil {
			log.Printf("[JOIN-ERROR] %v", err)
			return
		}
		h.enqueue(func() { h.handleJoin(req) })

	case messages.KindApprovalRequest:
		req, err := env.ApprovalRequest()
		if err != nil {
			log.Printf("[APPROVAL-ERROR] %v", err)
			return
		}
		h.enqueue(func() {
			if err := h.recordApproval(req.ParticipantID, req.CandidateID); err != nil {
				log.Printf("[APPROVAL-ERROR] Ignoring approval of %s by %s: %v",
					req.CandidateID, req.ParticipantID, err)
			}
		})
	}
}

func (h *Host) handleJoin(req messages.JoinRequest) {
	if req.Code != "" && req.Code != h.code {
		log.Printf("[JOIN-ERROR] Join request of %s for session %s ignored (this is %s)",
			req.Participant.ID, req.Code, h.code)
		return
	}

	p := req.Participant
	p.IsHost = false
	if p.Activity == "" {
		p.Activity = session_models.ActivityActive
	}
	if !h.registry.Add(p) {
		log.Printf("[JOIN] Duplicate join request of %s ignored", p.ID)
		return
	}

	log.Printf("[JOIN-SUCCESS] %s (%s) joined session %s, %d participants",
		p.DisplayName, p.ID, h.code, h.registry.Len())
	h.publishSync()
	h.refreshView()
}

// recordApproval adds participantID to candidateID's like set and declares
// the match the first time every participant has approved it. Approvals are
// only taken while swiping, so a declared match ends the round.
func (h *Host) recordApproval(participantID, candidateID string) error {
	if h.phases.Phase() != session_models.PhaseSwiping {
		return ErrNotSwiping
	}
	candidate, ok := h.phases.Candidate(candidateID)
	if !ok {
		return ErrUnknownCandidate
	}
	if !h.registry.Has(participantID) {
		return ErrUnknownParticipant
	}
	if !h.likes.Add(candidateID, participantID) {
		return nil
	}

	approvals, participants := h.likes.Count(candidateID), h.registry.Len()
	log.Printf("[APPROVAL] %s approved %s (%d/%d)", participantID, candidateID, approvals, participants)
	if !Unanimous(approvals, participants) {
		return nil
	}

	if err := h.phases.MarkMatched(); err != nil {
		return err
	}
	h.match = &candidate
	log.Printf("[MATCH] Session %s matched on %s (%s)", h.code, candidate.ID, candidate.Name)
	h.publish(messages.KindMatchFound, messages.MatchFound{Candidate: candidate})
	h.refreshView()
	return nil
}

// RecordApproval records an approval on behalf of any participant, through
// the same path remote ApprovalRequests take.
func (h *Host) RecordApproval(participantID, candidateID string) error {
	return h.do(func() error { return h.recordApproval(participantID, candidateID) })
}

// Approve records the host's own approval
func (h *Host) Approve(candidateID string) error {
	return h.RecordApproval(h.self.ID, candidateID)
}

func (h *Host) BeginLocationSetup() error {
	return h.transition("BeginLocationSetup", h.phases.BeginLocationSetup)
}

func (h *Host) ReturnToLobby() error {
	return h.transition("ReturnToLobby", h.phases.ReturnToLobby)
}

// KeepSwiping resumes swiping after a match over the same candidates. It
// starts a new round: every approval made so far is forgotten, otherwise
// re-approving the matched candidate would match again at once.
func (h *Host) KeepSwiping() error {
	return h.transition("KeepSwiping", func() error {
		if err := h.phases.KeepSwiping(); err != nil {
			return err
		}
		h.resetRound()
		return nil
	})
}

// StartRound fetches a fresh candidate list and enters swiping with it. The
// provider runs outside the actor, so joins keep flowing meanwhile. On any
// provider failure the session is left untouched and the error is returned
// to the caller only.
func (h *Host) StartRound(ctx context.Context, query session_models.Query) error {
	var allowed bool
	if err := h.do(func() error {
		allowed = h.phases.CanStartRound()
		return nil
	}); err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: cannot start a round from %s", ErrInvalidTransition, h.View().Session.Phase)
	}

	log.Printf("[ROUND] Session %s fetching candidates for %q", h.code, query.Location)
	candidates, err := h.provider.FetchCandidates(ctx, query)
	if err != nil {
		log.Printf("[ROUND-ERROR] Session %s stays in %s: %v", h.code, h.View().Session.Phase, err)
		return err
	}

	return h.transition("StartRound", func() error {
		if err := h.phases.StartRound(candidates); err != nil {
			return err
		}
		h.resetRound()
		log.Printf("[ROUND] Session %s started a round of %d candidates", h.code, len(candidates))
		return nil
	})
}

func (h *Host) resetRound() {
	h.likes.Reset()
	h.match = nil
}

// transition applies a phase change on the actor and broadcasts the result
func (h *Host) transition(name string, apply func() error) error {
	return h.do(func() error {
		from := h.phases.Phase()
		if err := apply(); err != nil {
			log.Printf("[PHASE-CHANGE-ERROR] %s refused: %v", name, err)
			return err
		}
		log.Printf("[PHASE-CHANGE-SUCCESS] Session %s %s -> %s", h.code, from, h.phases.Phase())
		h.publishSync()
		h.refreshView()
		return nil
	})
}

// Tally returns who approved a candidate in the current round. It is local to
// the host, tallies are never broadcast.
func (h *Host) Tally(candidateID string) ([]string, error) {
	var out []string
	err := h.do(func() error {
		out = h.likes.Approvers(candidateID)
		return nil
	})
	return out, err
}

func (h *Host) session() session_models.Session {
	return session_models.Session{
		Code:         h.code,
		Phase:        h.phases.Phase(),
		Participants: h.registry.Participants(),
		Candidates:   h.phases.Candidates(),
	}
}

func (h *Host) publishSync() {
	h.publish(messages.KindSync, messages.SyncFrom(h.session()))
}

func (h *Host) publish(kind messages.Kind, payload any) {
	frame, err := messages.Encode(kind, payload)
	if err != nil {
		log.Printf("[BUS-ERROR] %v", err)
		return
	}
	h.transport.Publish(h.topic, frame)
}

func (h *Host) refreshView() {
	v := View{
		Role:      RoleHost,
		Self:      h.self,
		JoinState: JoinJoined,
		Session:   h.session(),
	}
	if h.match != nil {
		m := h.match.Clone()
		v.Match = &m
	}
	h.viewMu.Lock()
	h.view = v
	h.viewMu.Unlock()
	h.observers.notify(v)
}

func (h *Host) View() View {
	h.viewMu.RLock()
	defer h.viewMu.RUnlock()
	return h.view.clone()
}

func (h *Host) Observe(fn func(View)) {
	h.observers.add(fn)
}

func (h *Host) Role() Role                       { return RoleHost }
func (h *Host) Self() session_models.Participant { return h.self }
func (h *Host) Code() string                     { return h.code }

// Close tears the session down. Guests are not told; they simply stop
// receiving snapshots.
func (h *Host) Close() error {
	h.closeOnce.Do(func() {
		h.sub.Unsubscribe()
		close(h.done)
		h.wg.Wait()
		log.Printf("[HOST] Session %s closed", h.code)
	})
	return nil
}
