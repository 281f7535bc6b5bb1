package discovery

import (
	session_models "Dinder/models/session"
	"context"
	"fmt"
	"os"
)

// StaticProvider serves a fixed list, filtered per query. Used for offline
// demos and tests.
type StaticProvider struct {
	candidates []session_models.Candidate
}

func NewStaticProvider(candidates []session_models.Candidate) *StaticProvider {
	list := make([]session_models.Candidate, len(candidates))
	for i, c := range candidates {
		list[i] = c.Clone()
	}
	return &StaticProvider{candidates: list}
}

// LoadStaticProvider reads a JSON array in the feed format from path
func LoadStaticProvider(path string) (*StaticProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading static catalog: %w", err)
	}
	candidates, err := DecodeFeed(data)
	if err != nil {
		return nil, fmt.Errorf("error decoding static catalog %s: %w", path, err)
	}
	return NewStaticProvider(candidates), nil
}

func (p *StaticProvider) FetchCandidates(ctx context.Context, query session_models.Query) ([]session_models.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fail("static", err)
	}
	var out []session_models.Candidate
	for _, c := range p.candidates {
		if query.Filters.Accepts(c) {
			out = append(out, c.Clone())
		}
	}
	return finish("static", out)
}
