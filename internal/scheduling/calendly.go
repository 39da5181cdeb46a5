// Package scheduling builds prefilled Calendly booking links for qualified
// leads.
package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/homequest-ai/lead-assistant/pkg/logging"
)

var (
	// ErrDisabled is returned when Calendly credentials are not configured.
	ErrDisabled = errors.New("scheduling: calendly not configured")
	// ErrNoEventTypes is returned when the Calendly account has no active
	// event types to link to.
	ErrNoEventTypes = errors.New("scheduling: no active event types")
)

// Link is a ready-to-share booking URL with its event metadata.
type Link struct {
	BookingURL      string
	EventType       string
	DurationMinutes int
}

// EventType describes a bookable Calendly event.
type EventType struct {
	URI             string
	Name            string
	Slug            string
	SchedulingURL   string
	DurationMinutes int
	Active          bool
}

// Config holds Calendly connection settings.
type Config struct {
	APIKey   string
	Username string
	BaseURL  string
	Timeout  time.Duration
}

// Client talks to the Calendly v2 API. The current-user URI is fetched once
// and cached for the lifetime of the client.
type Client struct {
	baseURL  string
	apiKey   string
	username string
	http     *http.Client
	logger   *logging.Logger

	mu      sync.Mutex
	userURI string
}

// NewClient returns a Calendly client. Missing credentials leave it in
// disabled mode.
func NewClient(cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.calendly.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if cfg.APIKey == "" || cfg.Username == "" {
		logger.Warn("scheduling: calendly credentials not configured, scheduling links disabled")
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		username: cfg.Username,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Enabled reports whether the client has credentials.
func (c *Client) Enabled() bool { return c.apiKey != "" && c.username != "" }

// CreateSchedulingLink returns a booking link for the account's first active
// event type, prefilled with the lead's name and email.
func (c *Client) CreateSchedulingLink(ctx context.Context, name, email string) (Link, error) {
	return c.buildLink(ctx, name, email, "")
}

// CreatePropertyConsultationLink is CreateSchedulingLink with the property of
// interest carried through Calendly's details field.
func (c *Client) CreatePropertyConsultationLink(ctx context.Context, name, email, property string) (Link, error) {
	return c.buildLink(ctx, name, email, property)
}

func (c *Client) buildLink(ctx context.Context, name, email, details string) (Link, error) {
	if !c.Enabled() {
		return Link{}, ErrDisabled
	}

	types, err := c.EventTypes(ctx)
	if err != nil {
		return Link{}, err
	}
	var chosen *EventType
	for i := range types {
		if types[i].Active {
			chosen = &types[i]
			break
		}
	}
	if chosen == nil {
		return Link{}, ErrNoEventTypes
	}

	base := chosen.SchedulingURL
	if base == "" {
		base = fmt.Sprintf("https://calendly.com/%s/%s", c.username, chosen.Slug)
	}
	params := url.Values{}
	if name != "" {
		params.Set("name", name)
	}
	if email != "" {
		params.Set("email", email)
	}
	if details != "" {
		params.Set("details", details)
	}
	booking := base
	if encoded := params.Encode(); encoded != "" {
		booking = base + "?" + encoded
	}

	c.logger.Info("scheduling: link created", "event_type", chosen.Name, "email", email)
	return Link{
		BookingURL:      booking,
		EventType:       chosen.Name,
		DurationMinutes: chosen.DurationMinutes,
	}, nil
}

// EventTypes lists the account's event types.
func (c *Client) EventTypes(ctx context.Context) ([]EventType, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	user, err := c.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	var out struct {
		Collection []struct {
			URI           string `json:"uri"`
			Name          string `json:"name"`
			Slug          string `json:"slug"`
			SchedulingURL string `json:"scheduling_url"`
			Duration      int    `json:"duration"`
			Active        bool   `json:"active"`
		} `json:"collection"`
	}
	path := "/event_types?user=" + url.QueryEscape(user)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}

	types := make([]EventType, 0, len(out.Collection))
	for _, et := range out.Collection {
		types = append(types, EventType{
			URI:             et.URI,
			Name:            et.Name,
			Slug:            et.Slug,
			SchedulingURL:   et.SchedulingURL,
			DurationMinutes: et.Duration,
			Active:          et.Active,
		})
	}
	return types, nil
}

// currentUser resolves and caches the authenticated user's URI.
func (c *Client) currentUser(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userURI != "" {
		return c.userURI, nil
	}

	var out struct {
		Resource struct {
			URI string `json:"uri"`
		} `json:"resource"`
	}
	if err := c.get(ctx, "/users/me", &out); err != nil {
		return "", err
	}
	if out.Resource.URI == "" {
		return "", errors.New("scheduling: calendly returned empty user URI")
	}
	c.userURI = out.Resource.URI
	return c.userURI, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("scheduling: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("scheduling: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("scheduling: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("scheduling: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("scheduling: decode response: %w", err)
	}
	return nil
}
