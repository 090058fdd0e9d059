package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"odolog/models"
)

// Webhook posts JSON payloads to a configured endpoint. Delivery is
// one-shot; the caller decides whether a failure is worth retrying.
type Webhook struct {
	URL    string
	Client *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (w *Webhook) Deliver(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook rejected: status %d", resp.StatusCode)
	}
	return nil
}

// TripPayload is the wire shape of one exported trip.
func TripPayload(t models.Trip, username string) map[string]any {
	return map[string]any{
		"id":          t.ID,
		"user":        username,
		"date":        t.Date.Format(time.RFC3339),
		"origin":      t.Origin,
		"destination": t.Destination,
		"fare":        t.Fare,
		"odo_start":   t.OdoStart,
		"odo_end":     t.OdoEnd,
		"distance":    t.Distance(),
		"manual":      t.Manual,
	}
}
