package outbox

import (
	"encoding/json"
	"time"
)

// ActorRef identifies who caused an event. Address is the logical caller
// address resolved by the auth layer.
type ActorRef struct {
	Address string `json:"address"`
	Relayed bool   `json:"relayed,omitempty"`
}

// PayloadEnvelope is the versioned wrapper stored in the outbox payload
// column and published verbatim to Pub/Sub.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"event_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
