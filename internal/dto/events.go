package dto

import "time"

const (
	EventTransactionRecorded = "transaction.recorded"
	EventInvoicePaid         = "invoice.paid"
)

// Event is the envelope published to the message broker. Type doubles as the
// routing key.
type Event struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	BusinessToken string    `json:"businessToken"`
	OccurredAt    time.Time `json:"occurredAt"`
	Payload       any       `json:"payload"`
}
