package session

import session_models "Dinder/models/session"

// Registry is the host's ordered participant list. Entries are only ever
// appended, in the order their join requests were first seen.
type Registry struct {
	order []session_models.Participant
	index map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Add appends p unless its id is already registered. It reports whether the
// registry changed, so duplicate deliveries are a no-op.
func (r *Registry) Add(p session_models.Participant) bool {
	if _, ok := r.index[p.ID]; ok {
		return false
	}
	r.index[p.ID] = len(r.order)
	r.order = append(r.order, p)
	return true
}

func (r *Registry) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

func (r *Registry) Len() int {
	return len(r.order)
}

// Participants returns a copy in insertion order
func (r *Registry) Participants() []session_models.Participant {
	return append([]session_models.Participant{}, r.order...)
}
