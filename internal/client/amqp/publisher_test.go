package amqpclient

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/GregMSThompson/bizledger/internal/dto"
)

func TestNewPublishing(t *testing.T) {
	occurred := time.Date(2026, time.October, 15, 6, 30, 0, 0, time.UTC)
	event := dto.Event{
		ID:            "evt-1",
		Type:          dto.EventInvoicePaid,
		BusinessToken: "B1",
		OccurredAt:    occurred,
		Payload:       map[string]any{"invoice_number": "INV-1"},
	}

	msg, err := newPublishing(event)
	if err != nil {
		t.Fatalf("newPublishing error: %v", err)
	}
	if msg.ContentType != "application/json" {
		t.Fatalf("content type = %q", msg.ContentType)
	}
	if msg.DeliveryMode != amqp091.Persistent {
		t.Fatalf("expected persistent delivery")
	}
	if msg.MessageId != "evt-1" || msg.Type != dto.EventInvoicePaid {
		t.Fatalf("headers mismatch: id=%q type=%q", msg.MessageId, msg.Type)
	}
	if !msg.Timestamp.Equal(occurred) {
		t.Fatalf("timestamp = %v, want %v", msg.Timestamp, occurred)
	}

	var decoded map[string]any
	if err := json.Unmarshal(msg.Body, &decoded); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if decoded["businessToken"] != "B1" || decoded["type"] != dto.EventInvoicePaid {
		t.Fatalf("body mismatch: %v", decoded)
	}
}

func TestNewPublishingUnmarshalablePayload(t *testing.T) {
	_, err := newPublishing(dto.Event{Payload: make(chan int)})
	if err == nil {
		t.Fatalf("expected marshal error")
	}
}
