package Iservices

import (
	"context"

	"survey-bot/internal/domain/dto"
)

// IChannelService receives normalized inbound messages from the webhook handlers.
type IChannelService interface {
	HandleInbound(ctx context.Context, msg dto.InboundMessage)
}
