package discovery

import (
	session_models "Dinder/models/session"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const maxFeedBody = 1 << 20

// feedItem is one restaurant as returned by a content feed. Every field is
// optional, missing ones get the defaults below.
type feedItem struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Cuisine       string   `json:"cuisine"`
	Price         string   `json:"price"`
	Rating        *float64 `json:"rating"`
	Distance      string   `json:"distance"`
	Tags          []string `json:"tags"`
	Reviews       int      `json:"reviews"`
	Image         string   `json:"image"`
	GoogleMapsURI *string  `json:"googleMapsUri"`
}

// DecodeFeed parses a JSON array of restaurants, tolerating a surrounding
// markdown code fence as text generators like to add.
func DecodeFeed(data []byte) ([]session_models.Candidate, error) {
	text := strings.TrimSpace(string(data))
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	var items []feedItem
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("error unmarshaling feed: %w", err)
	}

	stamp := time.Now().UnixMilli()
	candidates := make([]session_models.Candidate, 0, len(items))
	for i, item := range items {
		candidates = append(candidates, item.candidate(i, stamp))
	}
	return candidates, nil
}

func (item feedItem) candidate(index int, stamp int64) session_models.Candidate {
	c := session_models.Candidate{
		ID:             item.ID,
		Name:           item.Name,
		Category:       item.Cuisine,
		PriceTier:      item.Price,
		Rating:         4.0,
		Proximity:      item.Distance,
		Tags:           item.Tags,
		ImageRef:       item.Image,
		ExternalMapRef: item.GoogleMapsURI,
		Reviews:        item.Reviews,
	}
	if c.ID == "" {
		c.ID = fmt.Sprintf("ai-%d-%d", index, stamp)
	}
	if c.Name == "" {
		c.Name = "Unknown"
	}
	if c.Category == "" {
		c.Category = "Eatery"
	}
	if c.PriceTier == "" {
		c.PriceTier = session_models.PriceTierModerate
	}
	if item.Rating != nil && *item.Rating != 0 {
		c.Rating = *item.Rating
	}
	if c.Proximity == "" {
		c.Proximity = "nearby"
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c
}

// FeedProvider asks an HTTP endpoint for candidates. The endpoint receives
// the query as URL parameters and answers with a feed array.
type FeedProvider struct {
	endpoint string
	client   *http.Client
}

func NewFeedProvider(endpoint string, client *http.Client) *FeedProvider {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &FeedProvider{endpoint: endpoint, client: client}
}

func (p *FeedProvider) FetchCandidates(ctx context.Context, query session_models.Query) ([]session_models.Candidate, error) {
	target, err := url.Parse(p.endpoint)
	if err != nil {
		return nil, fail("feed", fmt.Errorf("invalid endpoint: %w", err))
	}
	params := target.Query()
	params.Set("location", query.Location)
	params.Set("radius", strconv.FormatFloat(query.Radius, 'f', -1, 64))
	if len(query.Filters.PriceTiers) > 0 {
		params.Set("prices", strings.Join(query.Filters.PriceTiers, ","))
	}
	if query.Filters.MinRating != nil {
		params.Set("min_rating", strconv.FormatFloat(*query.Filters.MinRating, 'f', -1, 64))
	}
	target.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fail("feed", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fail("feed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fail("feed", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBody))
	if err != nil {
		return nil, fail("feed", fmt.Errorf("error reading body: %w", err))
	}
	candidates, err := DecodeFeed(body)
	if err != nil {
		return nil, fail("feed", err)
	}

	var out []session_models.Candidate
	for _, c := range candidates {
		if query.Filters.Accepts(c) {
			out = append(out, c)
		}
	}
	return finish("feed", out)
}
