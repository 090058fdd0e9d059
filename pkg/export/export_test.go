package export

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"odolog/models"
)

func sampleTrip() models.Trip {
	return models.Trip{
		ID:          7,
		Date:        time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
		Origin:      "depot",
		Destination: "airport",
		Fare:        90000,
		OdoStart:    118000,
		OdoEnd:      118502,
	}
}

func TestTripCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := TripCSV().Write(&buf, []models.Trip{sampleTrip()}); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,date,origin") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "7,2025-03-14,depot,airport,90000,118000,118502,502,false" {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestWebhookDeliver(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL).Deliver(context.Background(), TripPayload(sampleTrip(), "driver1"))
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if got["user"] != "driver1" || got["distance"] != float64(502) {
		t.Fatalf("unexpected payload %v", got)
	}
}

func TestWebhookRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL).Deliver(context.Background(), map[string]any{})
	if err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Fatalf("expected rejection error, got %v", err)
	}
}
