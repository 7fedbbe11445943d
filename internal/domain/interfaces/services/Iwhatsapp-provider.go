package Iservices

import "context"

// IWhatsAppProvider is the outbound side of the messaging channel.
type IWhatsAppProvider interface {
	SendTextMessage(ctx context.Context, to, message string) error
	// SimulateTyping shows a typing indicator for the message being answered.
	// Providers without presence support return nil.
	SimulateTyping(ctx context.Context, to, messageID string) error
}
