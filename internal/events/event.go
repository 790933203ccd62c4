// Package events defines the domain events emitted after committed
// seat-diagram mutations and a RabbitMQ publisher for them. Downstream
// consumers (booking, boarding, reporting) subscribe to these queues.
package events

import "time"

// Queue names. Durable queues, declared idempotently on publish.
const (
	QueueSeatConfigurationUpdated = "seatmap.configuration.updated"
	QueueDiagramRegenerated       = "seatmap.diagram.regenerated"
)

// SeatConfigurationUpdated is published after a reconciliation commits.
type SeatConfigurationUpdated struct {
	DiagramModelID   string    `json:"diagram_model_id"`
	SeatsCreated     int       `json:"seats_created"`
	SeatsUpdated     int       `json:"seats_updated"`
	SeatsDeactivated int       `json:"seats_deactivated"`
	TotalActiveSeats int       `json:"total_active_seats"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// DiagramRegenerated is published after a full regeneration commits.
type DiagramRegenerated struct {
	DiagramModelID  string    `json:"diagram_model_id"`
	SpacesGenerated int       `json:"spaces_generated"`
	TotalSeats      int       `json:"total_seats"`
	OccurredAt      time.Time `json:"occurred_at"`
}
