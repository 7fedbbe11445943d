package dto

import "time"

// InboundMessage is the single shape every provider payload is reduced to
// before it reaches the conversation layer.
type InboundMessage struct {
	ContactID  string
	Name       string
	Text       string
	MessageID  string
	Provider   string
	ReceivedAt time.Time
}

// Outbound is one message the bot sends. Pause is waited before sending it.
type Outbound struct {
	Text  string
	Pause time.Duration
}
