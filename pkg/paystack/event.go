package paystack

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EventChargeSuccess is sent once a charge settles.
const EventChargeSuccess = "charge.success"

// Event is a webhook notification body.
type Event struct {
	Event string    `json:"event"`
	Data  EventData `json:"data"`
}

// EventData is the transaction the event refers to. Only the fields needed to
// re-verify the charge are decoded; amounts are always re-read through Verify.
type EventData struct {
	ID        json.Number `json:"id"`
	Reference string      `json:"reference"`
	Status    string      `json:"status"`
	Amount    int64       `json:"amount"`
	Currency  string      `json:"currency"`
}

// ParseEvent decodes a webhook body.
func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode paystack event: %w", err)
	}
	event.Event = strings.TrimSpace(event.Event)
	event.Data.Reference = strings.TrimSpace(event.Data.Reference)
	if event.Event == "" {
		return nil, fmt.Errorf("paystack event type missing")
	}
	return &event, nil
}

// DedupKey identifies a delivery. Paystack does not send event ids, so the event
// type is combined with the transaction id, falling back to the reference.
func (e *Event) DedupKey() string {
	id := strings.TrimSpace(e.Data.ID.String())
	if id == "" {
		id = e.Data.Reference
	}
	if id == "" {
		return ""
	}
	return e.Event + ":" + id
}
