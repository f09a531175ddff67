package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quotebeam/quotebeam/internal/pkg/env"
)

const defaultAPIBaseURL = "https://api.paylane.dev/v1"

// ErrEventNotFound is returned when the provider has no event for the
// requested id.
var ErrEventNotFound = errors.New("provider event not found")

// Client talks to the payment provider's REST API. The pipeline only needs
// it for the admin replay path, which re-fetches historical events straight
// from the source instead of trusting a pasted payload.
type Client struct {
	SecretKey  string
	APIBaseURL string

	HTTPClient *http.Client
}

// NewClientFromEnv builds a provider client from environment configuration.
// The secret key is required; replay cannot work without it.
func NewClientFromEnv() *Client {
	return &Client{
		SecretKey:  env.MustGetEnv("PROVIDER_SECRET_KEY"),
		APIBaseURL: strings.TrimRight(env.GetEnv("PROVIDER_API_BASE_URL", defaultAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// RetrieveEvent fetches a historical event by id from the provider.
func (c *Client) RetrieveEvent(ctx context.Context, eventID string) (*Event, error) {
	id := strings.TrimSpace(eventID)
	if id == "" {
		return nil, errors.New("event id is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, errors.New("PROVIDER_SECRET_KEY is not configured")
	}

	u, err := url.Parse(c.APIBaseURL + "/events/" + url.PathEscape(id))
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrEventNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider event fetch failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, err
	}
	if strings.TrimSpace(ev.ID) == "" {
		return nil, errors.New("provider event response missing id")
	}
	return &ev, nil
}
