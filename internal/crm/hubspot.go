// Package crm synchronizes qualified lead profiles to HubSpot. The client is
// a soft dependency: missing configuration or transport failures surface as
// status results, never as fatal errors to the chat pipeline.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/homequest-ai/lead-assistant/pkg/logging"
)

const transcriptLimit = 5000

// Profile is the contact payload accumulated from a chat session.
type Profile struct {
	Email         string
	Name          string
	Budget        string
	LeadType      string
	LeadScore     int
	Qualification string
	Transcript    string
	UserType      string
}

// UpsertResult reports the outcome of a contact sync.
type UpsertResult struct {
	StatusCode int
	ContactID  string
	Action     string // "created" or "updated"
	Message    string
}

// Config holds HubSpot connection settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client talks to the HubSpot contacts API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *logging.Logger
}

// NewClient returns a HubSpot client. An empty API key leaves the client in
// disabled mode: upserts report 503 without any network call.
func NewClient(cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.hubapi.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if cfg.APIKey == "" {
		logger.Warn("crm: hubspot API key not configured, CRM sync disabled")
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Enabled reports whether the client has credentials.
func (c *Client) Enabled() bool { return c.apiKey != "" }

// UpsertContact creates or updates a contact keyed by email. An existing
// contact's higher lead score is preserved: updates never downgrade a
// previously recorded score.
func (c *Client) UpsertContact(ctx context.Context, p Profile) (UpsertResult, error) {
	if !c.Enabled() {
		return UpsertResult{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "CRM integration disabled",
		}, nil
	}

	properties := c.buildProperties(p)

	existing, err := c.searchByEmail(ctx, p.Email)
	if err != nil {
		c.logger.Error("crm: contact search failed", "email", p.Email, "error", err)
		return UpsertResult{StatusCode: http.StatusInternalServerError, Message: "CRM update failed"}, err
	}

	if existing != nil {
		if oldScore, parseErr := strconv.Atoi(existing.Properties["lead_score"]); parseErr == nil {
			if newScore, parseErr := strconv.Atoi(properties["lead_score"]); parseErr == nil && oldScore > newScore {
				properties["lead_score"] = strconv.Itoa(oldScore)
			}
		}
		status, err := c.do(ctx, http.MethodPatch, "/crm/v3/objects/contacts/"+existing.ID,
			map[string]any{"properties": properties}, nil)
		if err != nil {
			c.logger.Error("crm: contact update failed", "contact_id", existing.ID, "error", err)
			return UpsertResult{StatusCode: http.StatusInternalServerError, Message: "CRM update failed"}, err
		}
		c.logger.Info("crm: contact updated", "contact_id", existing.ID, "email", p.Email)
		return UpsertResult{
			StatusCode: status,
			ContactID:  existing.ID,
			Action:     "updated",
			Message:    "Contact updated successfully",
		}, nil
	}

	var created struct {
		ID string `json:"id"`
	}
	status, err := c.do(ctx, http.MethodPost, "/crm/v3/objects/contacts",
		map[string]any{"properties": properties}, &created)
	if err != nil {
		c.logger.Error("crm: contact create failed", "email", p.Email, "error", err)
		return UpsertResult{StatusCode: http.StatusInternalServerError, Message: "CRM update failed"}, err
	}
	c.logger.Info("crm: contact created", "contact_id", created.ID, "email", p.Email)
	return UpsertResult{
		StatusCode: status,
		ContactID:  created.ID,
		Action:     "created",
		Message:    "Contact created successfully",
	}, nil
}

// Ping verifies credentials and data access by listing contact properties.
// Returns a few property names as a connectivity sample.
func (c *Client) Ping(ctx context.Context) ([]string, error) {
	if !c.Enabled() {
		return nil, errors.New("crm: API key not configured")
	}
	var out struct {
		Results []struct {
			Name string `json:"name"`
		} `json:"results"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/crm/v3/properties/contacts", nil, &out); err != nil {
		return nil, err
	}
	names := make([]string, 0, 5)
	for i, prop := range out.Results {
		if i == 5 {
			break
		}
		names = append(names, prop.Name)
	}
	return names, nil
}

func (c *Client) buildProperties(p Profile) map[string]string {
	transcript := p.Transcript
	if len(transcript) > transcriptLimit {
		transcript = transcript[:transcriptLimit]
	}
	leadType := p.LeadType
	if leadType == "" {
		leadType = "Unknown"
	}
	qualification := p.Qualification
	if qualification == "" {
		qualification = "Unqualified"
	}
	userType := p.UserType
	if userType == "" {
		userType = "Website Visitor"
	}

	properties := map[string]string{
		"email":              p.Email,
		"firstname":          p.Name,
		"budget":             p.Budget,
		"lead_type":          leadType,
		"lead_score":         strconv.Itoa(p.LeadScore),
		"lead_qualification": qualification,
		"chat_history":       transcript,
		"user_type":          userType,
		"last_interaction":   time.Now().Format("2006-01-02 15:04:05"),
		"lifecycle_stage":    "lead",
	}

	// Infer a coarse lead status from transcript keywords.
	lower := strings.ToLower(p.Transcript)
	switch {
	case strings.Contains(lower, "looking") || strings.Contains(lower, "searching"):
		properties["hs_lead_status"] = "New"
	case strings.Contains(lower, "price") || strings.Contains(lower, "cost"):
		properties["hs_lead_status"] = "In Progress"
	case strings.Contains(lower, "buy") || strings.Contains(lower, "purchase"):
		properties["hs_lead_status"] = "Open Deal"
	}

	return properties
}

type contactRecord struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

// searchByEmail returns the first matching contact, or nil when none exists.
func (c *Client) searchByEmail(ctx context.Context, email string) (*contactRecord, error) {
	payload := map[string]any{
		"filterGroups": []map[string]any{
			{
				"filters": []map[string]any{
					{"propertyName": "email", "operator": "EQ", "value": email},
				},
			},
		},
	}
	var out struct {
		Results []contactRecord `json:"results"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/crm/v3/objects/contacts/search", payload, &out); err != nil {
		return nil, err
	}
	if len(out.Results) == 0 {
		return nil, nil
	}
	return &out.Results[0], nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) (int, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("crm: encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("crm: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("crm: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("crm: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("crm: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("crm: decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
