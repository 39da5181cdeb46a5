package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
)

func calendlyStub(t *testing.T, userCalls *int32) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		if userCalls != nil {
			atomic.AddInt32(userCalls, 1)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"resource": map[string]string{"uri": "https://api.calendly.com/users/u-1"},
		})
	})
	mux.HandleFunc("/event_types", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("user"); got != "https://api.calendly.com/users/u-1" {
			t.Errorf("user query = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"collection": []map[string]any{
				{"uri": "et-0", "name": "Old Tour", "slug": "old-tour", "duration": 60, "active": false},
				{"uri": "et-1", "name": "Property Consultation", "slug": "property-consultation",
					"scheduling_url": "https://calendly.com/homequest/property-consultation",
					"duration":       30, "active": true},
			},
		})
	})
	return mux
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "test-key", Username: "homequest", BaseURL: srv.URL}, nil)
}

func TestCreateSchedulingLinkPrefillsLead(t *testing.T) {
	c := newTestClient(t, calendlyStub(t, nil))

	link, err := c.CreateSchedulingLink(context.Background(), "Priya Shah", "priya@example.com")
	if err != nil {
		t.Fatalf("CreateSchedulingLink: %v", err)
	}
	if link.EventType != "Property Consultation" || link.DurationMinutes != 30 {
		t.Errorf("link = %+v, want first active event type", link)
	}

	u, err := url.Parse(link.BookingURL)
	if err != nil {
		t.Fatalf("parse booking URL: %v", err)
	}
	if !strings.HasPrefix(link.BookingURL, "https://calendly.com/homequest/property-consultation?") {
		t.Errorf("booking URL = %q", link.BookingURL)
	}
	if got := u.Query().Get("name"); got != "Priya Shah" {
		t.Errorf("name param = %q", got)
	}
	if got := u.Query().Get("email"); got != "priya@example.com" {
		t.Errorf("email param = %q", got)
	}
}

func TestCreatePropertyConsultationLinkCarriesDetails(t *testing.T) {
	c := newTestClient(t, calendlyStub(t, nil))

	link, err := c.CreatePropertyConsultationLink(context.Background(), "Ravi", "ravi@example.com", "4BHK villa in Palm Grove")
	if err != nil {
		t.Fatalf("CreatePropertyConsultationLink: %v", err)
	}
	u, _ := url.Parse(link.BookingURL)
	if got := u.Query().Get("details"); got != "4BHK villa in Palm Grove" {
		t.Errorf("details param = %q", got)
	}
}

func TestCurrentUserCachedAcrossCalls(t *testing.T) {
	var userCalls int32
	c := newTestClient(t, calendlyStub(t, &userCalls))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.CreateSchedulingLink(ctx, "A", "a@b.com"); err != nil {
			t.Fatalf("CreateSchedulingLink #%d: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&userCalls); got != 1 {
		t.Errorf("users/me fetched %d times, want 1", got)
	}
}

func TestDisabledWithoutCredentials(t *testing.T) {
	c := NewClient(Config{APIKey: "key-only"}, nil)
	if c.Enabled() {
		t.Error("Enabled() = true without username")
	}
	if _, err := c.CreateSchedulingLink(context.Background(), "A", "a@b.com"); !errors.Is(err, ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
}

func TestNoActiveEventTypes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"resource": map[string]string{"uri": "https://api.calendly.com/users/u-1"},
		})
	})
	mux.HandleFunc("/event_types", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"collection": []map[string]any{
				{"uri": "et-0", "name": "Old Tour", "slug": "old-tour", "active": false},
			},
		})
	})
	c := newTestClient(t, mux)
	if _, err := c.CreateSchedulingLink(context.Background(), "A", "a@b.com"); !errors.Is(err, ErrNoEventTypes) {
		t.Errorf("err = %v, want ErrNoEventTypes", err)
	}
}

func TestAPIFailureSurfaces(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	})
	c := newTestClient(t, mux)
	if _, err := c.EventTypes(context.Background()); err == nil {
		t.Fatal("expected error on 401")
	}
}
