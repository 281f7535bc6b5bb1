package session

import "sort"

// LikeRegistry maps a candidate id to the set of participants that approved
// it during the current round. Sets only grow until Reset.
type LikeRegistry struct {
	likes map[string]map[string]struct{}
}

func NewLikeRegistry() *LikeRegistry {
	return &LikeRegistry{likes: make(map[string]map[string]struct{})}
}

// Add records an approval and reports whether it was new
func (l *LikeRegistry) Add(candidateID, participantID string) bool {
	set, ok := l.likes[candidateID]
	if !ok {
		set = make(map[string]struct{})
		l.likes[candidateID] = set
	}
	if _, dup := set[participantID]; dup {
		return false
	}
	set[participantID] = struct{}{}
	return true
}

func (l *LikeRegistry) Count(candidateID string) int {
	return len(l.likes[candidateID])
}

// Approvers returns the approving participant ids of a candidate, sorted
func (l *LikeRegistry) Approvers(candidateID string) []string {
	set := l.likes[candidateID]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Reset forgets every approval. Called whenever a round starts.
func (l *LikeRegistry) Reset() {
	l.likes = make(map[string]map[string]struct{})
}

// Unanimous is the match predicate: every participant approved, and there
// is at least one participant.
func Unanimous(approvals, participants int) bool {
	return participants > 0 && approvals >= participants
}
