// Package discovery produces the candidate list of a round. The session core
// only sees the Provider interface; where restaurants come from is up to the
// implementation.
package discovery

import (
	dinder_constants "Dinder/constants/dinder"
	session_models "Dinder/models/session"
	"context"
	"errors"
	"fmt"
)

var ErrNoCandidates = errors.New("no candidates matched the query")

// Provider returns an ordered, finite list of candidates for a query
type Provider interface {
	FetchCandidates(ctx context.Context, query session_models.Query) ([]session_models.Candidate, error)
}

// ProviderError wraps any failure (network, parse, empty result) of a provider
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func fail(provider string, err error) error {
	return &ProviderError{Provider: provider, Err: err}
}

// finish drops duplicate ids, caps the list and turns an empty result into
// an error, since a round without candidates can never match.
func finish(provider string, candidates []session_models.Candidate) ([]session_models.Candidate, error) {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]session_models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
		if len(out) == dinder_constants.MaxCandidates {
			break
		}
	}
	if len(out) == 0 {
		return nil, fail(provider, ErrNoCandidates)
	}
	return out, nil
}
