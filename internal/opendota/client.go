// Package opendota provides a minimal client for the OpenDota public API,
// turning parsed-match ward logs into placements.
package opendota

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the root endpoint for the OpenDota API.
const DefaultBaseURL = "https://api.opendota.com/api"

// Client is a minimal OpenDota API client. The API key is optional.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient returns an OpenDota client. An empty apiKey uses the free tier.
func NewClient(apiKey string) *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// WithBaseURL points the client at another host, e.g. a mirror or a test server.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// get performs a GET request and returns the raw body.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.apiKey != "" {
		if query == nil {
			query = url.Values{}
		}
		query.Set("api_key", c.apiKey)
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: read body: %w", path, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("GET %s: invalid JSON", path)
	}
	return body, nil
}

// GetMatch fetches one match and extracts its ward placements. Matches that
// OpenDota has not parsed carry no ward logs; Parsed reports that.
func (c *Client) GetMatch(ctx context.Context, matchID int64) (*Match, error) {
	body, err := c.get(ctx, fmt.Sprintf("/matches/%d", matchID), nil)
	if err != nil {
		return nil, err
	}
	return ParseMatch(body)
}

// TeamMatch is one entry from /teams/{id}/matches.
type TeamMatch struct {
	MatchID      int64
	StartTime    time.Time
	Radiant      bool
	OpposingName string
	LeagueName   string
}

// GetTeamMatches returns up to limit recent matches for a team, newest first.
func (c *Client) GetTeamMatches(ctx context.Context, teamID int64, limit int) ([]TeamMatch, error) {
	body, err := c.get(ctx, fmt.Sprintf("/teams/%d/matches", teamID), nil)
	if err != nil {
		return nil, err
	}
	var out []TeamMatch
	for _, m := range gjson.ParseBytes(body).Array() {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, TeamMatch{
			MatchID:      m.Get("match_id").Int(),
			StartTime:    time.Unix(m.Get("start_time").Int(), 0).UTC(),
			Radiant:      m.Get("radiant").Bool(),
			OpposingName: m.Get("opposing_team_name").String(),
			LeagueName:   m.Get("league_name").String(),
		})
	}
	return out, nil
}
