package session

import (
	"Dinder/models/messages"
	session_models "Dinder/models/session"
	"Dinder/services/bus"
	"Dinder/services/discovery"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostCreatesSessionWithItselfFirst(t *testing.T) {
	hub := bus.NewHub()
	tp := newTap(t, hub)
	h := newTestHost(t, hub, discovery.NewStaticProvider(nil), "DIN-4004")

	v := h.View()
	assert.Equal(t, RoleHost, v.Role)
	assert.Equal(t, JoinJoined, v.JoinState)
	assert.Equal(t, "DIN-4004", v.Session.Code)
	assert.Equal(t, session_models.PhaseLobby, v.Session.Phase)
	require.Len(t, v.Session.Participants, 1)
	assert.Equal(t, "host-1", v.Session.Participants[0].ID)
	assert.True(t, v.Session.Participants[0].IsHost)
	assert.NotNil(t, v.Session.Candidates)

	require.Eventually(t, func() bool { return tp.count(messages.KindSync) == 1 }, waitFor, tick)
}

func TestHostGeneratesCode(t *testing.T) {
	hub := bus.NewHub()
	tr := hub.Attach("dinder")
	defer tr.Close()

	h, err := NewHost(tr, discovery.NewStaticProvider(nil), HostOptions{Name: "Hana"})
	require.NoError(t, err)
	defer h.Close()

	assert.Regexp(t, `^DIN-\d{4}$`, h.Code())
	assert.NotEmpty(t, h.Self().ID)
}

func TestScenarioGuestJoinsDIN4004(t *testing.T) {
	hub := bus.NewHub()
	tp := newTap(t, hub)
	h := newTestHost(t, hub, discovery.NewStaticProvider(nil), "DIN-4004")
	g := newTestGuest(t, hub, "guest-1", "DIN-4004")

	waitJoined(t, g)
	waitParticipants(t, h, 2)
	waitParticipants(t, g, 2)

	snap := tp.lastSync(t)
	assert.Equal(t, session_models.PhaseLobby, snap.Phase)
	require.Len(t, snap.Participants, 2)
	assert.Equal(t, "host-1", snap.Participants[0].ID)
	assert.Equal(t, "guest-1", snap.Participants[1].ID)
	assert.False(t, snap.Participants[1].IsHost)
	assert.Equal(t, h.View().Session, g.View().Session)
}

func TestDuplicateJoinsKeepFirstSeenOrder(t *testing.T) {
	hub := bus.NewHub()
	tp := newTap(t, hub)
	h := newTestHost(t, hub, discovery.NewStaticProvider(nil), "DIN-4004")

	sender := hub.Attach("dinder")
	defer sender.Close()
	join := func(id string) {
		frame, err := messages.Encode(messages.KindJoinRequest, messages.JoinRequest{
			Participant: session_models.Participant{ID: id, DisplayName: id},
		})
		require.NoError(t, err)
		sender.Publish("session", frame)
	}

	for _, id := range []string{"a", "b", "a", "c", "b", "a"} {
		join(id)
	}

	waitParticipants(t, h, 4)
	// One Sync at creation plus one per distinct guest; duplicates publish nothing
	require.Eventually(t, func() bool { return tp.count(messages.KindSync) == 4 }, waitFor, tick)

	var ids []string
	for _, p := range h.View().Session.Participants {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"host-1", "a", "b", "c"}, ids)
}

func TestHostIgnoresJoinForOtherCode(t *testing.T) {
	hub := bus.NewHub()
	h := newTestHost(t, hub, discovery.NewStaticProvider(nil), "DIN-4004")
	other := newTestGuest(t, hub, "lost", "DIN-1111")
	g := newTestGuest(t, hub, "guest-1", "DIN-4004")

	waitJoined(t, g)
	assert.Len(t, h.View().Session.Participants, 2)
	assert.False(t, h.View().Session.HasParticipant("lost"))
	assert.Equal(t, JoinPending, other.JoinState())
}

func TestHostForcesGuestsToNonHost(t *testing.T) {
	hub := bus.NewHub()
	h := newTestHost(t, hub, discovery.NewStaticProvider(nil), "DIN-4004")

	sender := hub.Attach("dinder")
	defer sender.Close()
	frame, err := messages.Encode(messages.KindJoinRequest, messages.JoinRequest{
		Participant: session_models.Participant{ID: "impostor", DisplayName: "X", IsHost: true},
	})
	require.NoError(t, err)
	sender.Publish("session", frame)

	waitParticipants(t, h, 2)
	p := h.View().Session.Participants[1]
	assert.False(t, p.IsHost)
	assert.Equal(t, session_models.ActivityActive, p.Activity)
}

func TestHostNeverAppliesSyncToItself(t *testing.T) {
	hub := bus.NewHub()
	h := newTestHost(t, hub, discovery.NewStaticProvider(nil), "DIN-4004")
	g := newTestGuest(t, hub, "guest-1", "DIN-4004")
	waitJoined(t, g)

	sender := hub.Attach("dinder")
	defer sender.Close()
	frame, err := messages.Encode(messages.KindSync, messages.Sync{
		Participants: []session_models.Participant{{ID: "rogue"}},
		Phase:        session_models.PhaseMatched,
		Candidates:   deck("x"),
	})
	require.NoError(t, err)
	sender.Publish("session", frame)

	// The guest mirrors the rogue snapshot, the host does not
	require.Eventually(t, func() bool { return g.View().Session.HasParticipant("rogue") }, waitFor, tick)
	v := h.View()
	assert.Equal(t, session_models.PhaseLobby, v.Session.Phase)
	assert.Len(t, v.Session.Participants, 2)
}

func TestHostIgnoresMalformedFrames(t *testing.T) {
	hub := bus.NewHub()
	h := newTestHost(t, hub, discovery.NewStaticProvider(nil), "DIN-4004")

	sender := hub.Attach("dinder")
	defer sender.Close()
	for _, garbage := range []string{
		`not json`,
		`{"type":"Teleport","payload":{}}`,
		`{"type":"JoinRequest"}`,
		`{"type":"JoinRequest","payload":{"participant":{"id":""}}}`,
		`{"type":"ApprovalRequest","payload":42}`,
	} {
		sender.Publish("session", []byte(garbage))
	}

	g := newTestGuest(t, hub, "guest-1", "DIN-4004")
	waitJoined(t, g)
	assert.Len(t, h.View().Session.Participants, 2)
}

func TestPhaseTransitionsPublishSnapshots(t *testing.T) {
	hub := bus.NewHub()
	tp := newTap(t, hub)
	h := newTestHost(t, hub, discovery.NewStaticProvider(deck("c1", "c2")), "DIN-4004")
	g := newTestGuest(t, hub, "guest-1", "DIN-4004")
	waitJoined(t, g)

	assert.ErrorIs(t, h.ReturnToLobby(), ErrInvalidTransition)
	assert.ErrorIs(t, h.KeepSwiping(), ErrInvalidTransition)
	assert.ErrorIs(t, h.StartRound(context.Background(), session_models.Query{}), ErrInvalidTransition)

	require.Eventually(t, func() bool { return tp.count(messages.KindSync) == 2 }, waitFor, tick)
	require.NoError(t, h.BeginLocationSetup())
	waitPhase(t, g, session_models.PhaseLocationSetup)

	require.NoError(t, h.ReturnToLobby())
	waitPhase(t, g, session_models.PhaseLobby)

	require.NoError(t, h.BeginLocationSetup())
	require.NoError(t, h.StartRound(context.Background(), session_models.Query{Location: "Zaragoza"}))
	waitPhase(t, g, session_models.PhaseSwiping)

	assert.Equal(t, deck("c1", "c2"), g.View().Session.Candidates)
	require.Eventually(t, func() bool { return tp.count(messages.KindSync) == 6 }, waitFor, tick)
}

func TestProviderFailureKeepsPhaseAndList(t *testing.T) {
	hub := bus.NewHub()
	tp := newTap(t, hub)
	h := newTestHost(t, hub, failingProvider{}, "DIN-4004")
	require.NoError(t, h.BeginLocationSetup())
	require.Eventually(t, func() bool { return tp.count(messages.KindSync) == 2 }, waitFor, tick)

	err := h.StartRound(context.Background(), session_models.Query{Location: "Nowhere"})
	require.Error(t, err)
	assert.True(t, IsProviderError(err))

	v := h.View()
	assert.Equal(t, session_models.PhaseLocationSetup, v.Session.Phase)
	assert.Empty(t, v.Session.Candidates)
	assert.Never(t, func() bool { return tp.count(messages.KindSync) > 2 }, 100*tick, tick)
}

func TestProviderFailureMidSwipingKeepsRound(t *testing.T) {
	hub := bus.NewHub()
	h := newTestHost(t, hub, nil, "DIN-4004")
	startSwiping(t, h, "c1", "c2")

	h.provider = failingProvider{}
	require.Error(t, h.StartRound(context.Background(), session_models.Query{Location: "x"}))

	v := h.View()
	assert.Equal(t, session_models.PhaseSwiping, v.Session.Phase)
	assert.Len(t, v.Session.Candidates, 2)
}

func TestScenarioBothApproveC7(t *testing.T) {
	hub := bus.NewHub()
	tp := newTap(t, hub)
	h := newTestHost(t, hub, nil, "DIN-4004")
	g := newTestGuest(t, hub, "guest-1", "DIN-4004")
	waitJoined(t, g)
	startSwiping(t, h, "c5", "c7", "c9")
	waitPhase(t, g, session_models.PhaseSwiping)

	require.NoError(t, g.Approve("c7"))
	require.Eventually(t, func() bool {
		tally, _ := h.Tally("c7")
		return len(tally) == 1
	}, waitFor, tick)
	require.NoError(t, h.Approve("c7"))

	for _, p := range []Peer{h, g} {
		require.Eventually(t, func() bool { return p.View().Match != nil }, waitFor, tick)
		v := p.View()
		assert.Equal(t, "c7", v.Match.ID)
		assert.Equal(t, session_models.PhaseMatched, v.Session.Phase)
	}

	require.Eventually(t, func() bool { return tp.count(messages.KindMatchFound) == 1 }, waitFor, tick)
	found, err := tp.of(messages.KindMatchFound)[0].MatchFound()
	require.NoError(t, err)
	assert.Equal(t, "c7", found.Candidate.ID)
}

func TestScenarioOnlyHostApprovesC7(t *testing.T) {
	hub := bus.NewHub()
	tp := newTap(t, hub)
	h := newTestHost(t, hub, nil, "DIN-4004")
	g := newTestGuest(t, hub, "guest-1", "DIN-4004")
	waitJoined(t, g)
	startSwiping(t, h, "c7")

	require.NoError(t, h.Approve("c7"))

	tally, err := h.Tally("c7")
	require.NoError(t, err)
	assert.Equal(t, []string{"host-1"}, tally)
	assert.Nil(t, h.View().Match)
	assert.Equal(t, session_models.PhaseSwiping, h.View().Session.Phase)
	assert.Never(t, func() bool { return tp.count(messages.KindMatchFound) > 0 }, 100*tick, tick)
}

func TestMatchDeclaredExactlyOnceForAnyGroupSize(t *testing.T) {
	for n := 1; n <= 5; n++ {
		t.Run(fmt.Sprintf("participants=%d", n), func(t *testing.T) {
			hub := bus.NewHub()
			tp := newTap(t, hub)
			h := newTestHost(t, hub, nil, "DIN-4004")

			ids := []string{"host-1"}
			for i := 1; i < n; i++ {
				g := newTestGuest(t, hub, fmt.Sprintf("g%d", i), "DIN-4004")
				waitJoined(t, g)
				ids = append(ids, g.Self().ID)
			}
			waitParticipants(t, h, n)
			startSwiping(t, h, "a", "b", "c")

			// Everyone also likes "a" except the last participant, so only "b" can match
			for i, id := range ids {
				if i < n-1 {
					require.NoError(t, h.RecordApproval(id, "a"))
				}
			}
			for _, id := range ids {
				require.NoError(t, h.RecordApproval(id, "b"))
			}
			// Approvals after the match are refused
			assert.ErrorIs(t, h.RecordApproval(ids[n-1], "a"), ErrNotSwiping)
			assert.ErrorIs(t, h.RecordApproval(ids[0], "b"), ErrNotSwiping)

			require.Eventually(t, func() bool { return tp.count(messages.KindMatchFound) == 1 }, waitFor, tick)
			assert.Never(t, func() bool { return tp.count(messages.KindMatchFound) > 1 }, 50*tick, tick)

			assert.Equal(t, "b", h.View().Match.ID)
		})
	}
}

func TestRecordApprovalIsIdempotent(t *testing.T) {
	hub := bus.NewHub()
	h := newTestHost(t, hub, nil, "DIN-4004")
	g := newTestGuest(t, hub, "guest-1", "DIN-4004")
	waitJoined(t, g)
	startSwiping(t, h, "c1")

	require.NoError(t, h.RecordApproval("guest-1", "c1"))
	once, _ := h.Tally("c1")
	require.NoError(t, h.RecordApproval("guest-1", "c1"))
	twice, _ := h.Tally("c1")

	assert.Equal(t, once, twice)
	assert.Nil(t, h.View().Match)
}

func TestRecordApprovalRejectsUnknowns(t *testing.T) {
	hub := bus.NewHub()
	h := newTestHost(t, hub, nil, "DIN-4004")

	assert.ErrorIs(t, h.Approve("c1"), ErrNotSwiping)

	startSwiping(t, h, "c1")
	assert.ErrorIs(t, h.Approve("nope"), ErrUnknownCandidate)
	assert.ErrorIs(t, h.RecordApproval("stranger", "c1"), ErrUnknownParticipant)
}

func TestNewRoundClearsPriorApprovals(t *testing.T) {
	hub := bus.NewHub()
	tp := newTap(t, hub)
	h := newTestHost(t, hub, nil, "DIN-4004")
	g := newTestGuest(t, hub, "guest-1", "DIN-4004")
	waitJoined(t, g)

	startSwiping(t, h, "x", "y")
	require.NoError(t, h.RecordApproval("guest-1", "x"))

	// Same ids, new round
	h.provider = discovery.NewStaticProvider(deck("x", "y"))
	require.NoError(t, h.StartRound(context.Background(), session_models.Query{Location: "Zaragoza"}))

	tally, _ := h.Tally("x")
	assert.Empty(t, tally)

	require.NoError(t, h.Approve("x"))
	assert.Nil(t, h.View().Match)
	assert.Never(t, func() bool { return tp.count(messages.KindMatchFound) > 0 }, 50*tick, tick)
}

func TestKeepSwipingStartsFreshRoundOverSameList(t *testing.T) {
	hub := bus.NewHub()
	tp := newTap(t, hub)
	h := newTestHost(t, hub, nil, "DIN-4004")
	g := newTestGuest(t, hub, "guest-1", "DIN-4004")
	waitJoined(t, g)
	startSwiping(t, h, "a", "b")

	require.NoError(t, h.RecordApproval("guest-1", "b"))
	require.NoError(t, h.RecordApproval("guest-1", "a"))
	require.NoError(t, h.Approve("a"))
	require.Eventually(t, func() bool { return g.View().Match != nil }, waitFor, tick)

	require.NoError(t, h.KeepSwiping())
	waitPhase(t, g, session_models.PhaseSwiping)

	v := h.View()
	assert.Nil(t, v.Match)
	assert.Equal(t, deck("a", "b"), v.Session.Candidates)
	require.Eventually(t, func() bool { return g.View().Match == nil }, waitFor, tick)

	// The guest's earlier like of "b" does not carry over
	require.NoError(t, h.Approve("b"))
	assert.Nil(t, h.View().Match)
	assert.Equal(t, 1, tp.count(messages.KindMatchFound))
}

func TestHostObserversSeeChanges(t *testing.T) {
	hub := bus.NewHub()
	h := newTestHost(t, hub, nil, "DIN-4004")

	seen := make(chan View, 8)
	h.Observe(func(v View) { seen <- v })

	require.NoError(t, h.BeginLocationSetup())
	v := <-seen
	assert.Equal(t, session_models.PhaseLocationSetup, v.Session.Phase)
}

func TestHostClose(t *testing.T) {
	hub := bus.NewHub()
	tr := hub.Attach("dinder")
	defer tr.Close()
	h, err := NewHost(tr, nil, HostOptions{Name: "Hana", Code: "DIN-4004"})
	require.NoError(t, err)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	assert.ErrorIs(t, h.BeginLocationSetup(), ErrClosed)
	assert.ErrorIs(t, h.Approve("c1"), ErrClosed)
	_, err = h.Tally("c1")
	assert.ErrorIs(t, err, ErrClosed)
}
