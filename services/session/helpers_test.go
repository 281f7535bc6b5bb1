package session

import (
	"Dinder/models/messages"
	session_models "Dinder/models/session"
	"Dinder/services/bus"
	"Dinder/services/discovery"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func deck(ids ...string) []session_models.Candidate {
	out := make([]session_models.Candidate, len(ids))
	for i, id := range ids {
		out[i] = session_models.Candidate{
			ID:        id,
			Name:      "Place " + id,
			Category:  "Eatery",
			PriceTier: session_models.PriceTierModerate,
			Rating:    4.2,
			Proximity: "nearby",
			Tags:      []string{},
		}
	}
	return out
}

// tap records every envelope seen on the session topic of a bus
type tap struct {
	mu   sync.Mutex
	envs []messages.Envelope
}

func newTap(t *testing.T, hub *bus.Hub) *tap {
	t.Helper()
	tr := hub.Attach("dinder")
	t.Cleanup(func() { tr.Close() })

	tp := &tap{}
	_, err := tr.Subscribe("session", func(frame []byte) {
		env, err := messages.Decode(frame)
		if err != nil {
			return
		}
		tp.mu.Lock()
		tp.envs = append(tp.envs, env)
		tp.mu.Unlock()
	})
	require.NoError(t, err)
	return tp
}

func (tp *tap) of(kind messages.Kind) []messages.Envelope {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	var out []messages.Envelope
	for _, env := range tp.envs {
		if env.Type == kind {
			out = append(out, env)
		}
	}
	return out
}

func (tp *tap) count(kind messages.Kind) int {
	return len(tp.of(kind))
}

func (tp *tap) lastSync(t *testing.T) messages.Sync {
	t.Helper()
	syncs := tp.of(messages.KindSync)
	require.NotEmpty(t, syncs)
	s, err := syncs[len(syncs)-1].Sync()
	require.NoError(t, err)
	return s
}

type failingProvider struct{}

func (failingProvider) FetchCandidates(context.Context, session_models.Query) ([]session_models.Candidate, error) {
	return nil, &discovery.ProviderError{Provider: "test", Err: errors.New("connection refused")}
}

func newTestHost(t *testing.T, hub *bus.Hub, provider discovery.Provider, code string) *Host {
	t.Helper()
	tr := hub.Attach("dinder")
	t.Cleanup(func() { tr.Close() })

	h, err := NewHost(tr, provider, HostOptions{Name: "Hana", Code: code, ID: "host-1"})
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func newTestGuest(t *testing.T, hub *bus.Hub, id, code string) *Guest {
	t.Helper()
	tr := hub.Attach("dinder")
	t.Cleanup(func() { tr.Close() })

	g, err := NewGuest(tr, GuestOptions{Name: "Guest " + id, Code: code, ID: id})
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func waitJoined(t *testing.T, g *Guest) {
	t.Helper()
	require.Eventually(t, func() bool { return g.JoinState() == JoinJoined }, waitFor, tick)
}

func waitParticipants(t *testing.T, p Peer, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(p.View().Session.Participants) == n }, waitFor, tick)
}

func waitPhase(t *testing.T, p Peer, phase session_models.Phase) {
	t.Helper()
	require.Eventually(t, func() bool { return p.View().Session.Phase == phase }, waitFor, tick)
}

// startSwiping takes a host with joined guests into a round over ids
func startSwiping(t *testing.T, h *Host, ids ...string) {
	t.Helper()
	h.provider = discovery.NewStaticProvider(deck(ids...))
	require.NoError(t, h.BeginLocationSetup())
	require.NoError(t, h.StartRound(context.Background(), session_models.Query{Location: "Zaragoza", Radius: 5}))
	assert.Equal(t, session_models.PhaseSwiping, h.View().Session.Phase)
}
