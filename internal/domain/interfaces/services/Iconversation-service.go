package Iservices

import (
	"context"

	"survey-bot/internal/domain/dto"
	"survey-bot/internal/domain/entities"
)

// IConversationService runs one coalesced message through the state machine and
// returns the outbound messages to send, in order.
type IConversationService interface {
	Process(ctx context.Context, msg dto.InboundMessage) ([]dto.Outbound, error)
	RetryNotice() string
	CurrentState(ctx context.Context, contactID string) (entities.LifecycleState, error)
}

// ISurveyPublisher hands a completed survey to the sinks. It must not block the
// conversation.
type ISurveyPublisher interface {
	Publish(ctx context.Context, survey entities.CompletedSurvey)
}

// ISurveySink records one completed survey.
type ISurveySink interface {
	Name() string
	Record(ctx context.Context, survey entities.CompletedSurvey) error
}
