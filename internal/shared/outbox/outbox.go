package outbox

import "time"

// Outbox row persisted inside the same DB transaction as ledger state
// changes. Worker relay reads pending rows and publishes to the event sink.
type Message struct {
	ID           string
	EventType    string
	PartitionKey string
	Payload      []byte
	Status       string // pending, published, failed
	RetryCount   int
	CreatedAt    time.Time
	PublishedAt  *time.Time
}

const (
	StatusPending   = "pending"
	StatusPublished = "published"
	StatusFailed    = "failed"
)
