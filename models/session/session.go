package session

// Phase is the current step of a Dinder session. Only the host changes it.
type Phase string

const (
	PhaseLobby         Phase = "lobby"
	PhaseLocationSetup Phase = "location-setup"
	PhaseSwiping       Phase = "swiping"
	PhaseMatched       Phase = "matched"
)

// Valid reports whether p is one of the four known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseLobby, PhaseLocationSetup, PhaseSwiping, PhaseMatched:
		return true
	}
	return false
}

type Activity string

const (
	ActivityActive Activity = "active"
	ActivityIdle   Activity = "idle"
)

// Participant is a person taking part in the session. Records are appended to
// the session when someone hosts or joins and are never edited afterwards.
type Participant struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	IsHost      bool     `json:"isHost"`
	Activity    Activity `json:"activity"`
}

// Candidate is a restaurant produced by the discovery provider for one round
type Candidate struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	PriceTier      string   `json:"priceTier"`
	Rating         float64  `json:"rating"`
	Proximity      string   `json:"proximity"`
	Tags           []string `json:"tags"`
	ImageRef       string   `json:"imageRef"`
	ExternalMapRef *string  `json:"externalMapRef,omitempty"`
	Reviews        int      `json:"reviews,omitempty"` // Review count reported by the provider
}

// Session is the replicated state. The host owns the canonical copy, guests
// hold a mirror that is replaced as a whole on every snapshot.
type Session struct {
	Code         string        `json:"code"`
	Phase        Phase         `json:"phase"`
	Participants []Participant `json:"participants"`
	Candidates   []Candidate   `json:"candidates"`
}

// Clone returns a deep copy, so snapshots never alias the owner's slices.
func (s Session) Clone() Session {
	out := Session{Code: s.Code, Phase: s.Phase}
	if s.Participants != nil {
		out.Participants = append(make([]Participant, 0, len(s.Participants)), s.Participants...)
	}
	if s.Candidates != nil {
		out.Candidates = make([]Candidate, len(s.Candidates))
		for i, c := range s.Candidates {
			out.Candidates[i] = c.Clone()
		}
	}
	return out
}

func (c Candidate) Clone() Candidate {
	out := c
	if c.Tags != nil {
		out.Tags = append(make([]string, 0, len(c.Tags)), c.Tags...)
	}
	if c.ExternalMapRef != nil {
		ref := *c.ExternalMapRef
		out.ExternalMapRef = &ref
	}
	return out
}

// FindCandidate returns the candidate with the given id from the current list
func (s Session) FindCandidate(id string) (Candidate, bool) {
	for _, c := range s.Candidates {
		if c.ID == id {
			return c, true
		}
	}
	return Candidate{}, false
}

func (s Session) HasParticipant(id string) bool {
	for _, p := range s.Participants {
		if p.ID == id {
			return true
		}
	}
	return false
}
