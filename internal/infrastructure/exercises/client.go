package exercises

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/logger"
)

// Config holds exercise provider API configuration
type Config struct {
	BaseURL string // e.g. https://api.api-ninjas.com
	APIKey  string
	Timeout time.Duration
}

// Client fetches exercise definitions from an API-Ninjas style provider.
type Client struct {
	config     Config
	httpClient *http.Client
}

// exerciseResponse is a single element of the provider's array response.
type exerciseResponse struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Muscle       string `json:"muscle"`
	Equipment    string `json:"equipment"`
	Difficulty   string `json:"difficulty"`
	Instructions string `json:"instructions"`
}

// NewClient creates a new exercise provider client
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// FetchExercises lists exercises of the given type and difficulty.
// Empty arguments are omitted from the query.
func (c *Client) FetchExercises(ctx context.Context, exerciseType, difficulty string) ([]domain.RawExercise, error) {
	query := url.Values{}
	if exerciseType != "" {
		query.Set("type", exerciseType)
	}
	if difficulty != "" {
		query.Set("difficulty", strings.ToLower(difficulty))
	}
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/v1/exercises"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", domain.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.config.APIKey)

	logger.Debug("fetching exercises", "type", exerciseType, "difficulty", difficulty)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: exercise API status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var items []exerciseResponse
	if err := json.Unmarshal(respBody, &items); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", domain.ErrUpstreamUnavailable, err)
	}

	out := make([]domain.RawExercise, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			continue
		}
		out = append(out, domain.RawExercise{
			Name:         it.Name,
			Type:         it.Type,
			Difficulty:   it.Difficulty,
			Instructions: it.Instructions,
		})
	}
	return out, nil
}
