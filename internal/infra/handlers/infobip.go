package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"survey-bot/internal/domain/dto"
	Iservices "survey-bot/internal/domain/interfaces/services"
	"survey-bot/internal/infra/logger"
)

type InfobipHandlers struct {
	Logger         *logger.Logger
	ChannelService Iservices.IChannelService
}

func NewInfobipHandlers(logger *logger.Logger, channelService Iservices.IChannelService) *InfobipHandlers {
	return &InfobipHandlers{Logger: logger, ChannelService: channelService}
}

// InfoBipWebhook receives Infobip inbound WhatsApp messages. Results are
// handed to the channel in order, in the background.
func (th *InfobipHandlers) InfoBipWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var webhookRequest dto.InboundResponse
	if err := json.NewDecoder(r.Body).Decode(&webhookRequest); err != nil {
		th.Logger.Error(fmt.Sprintf("Invalid Infobip payload: %v", err))
		http.Error(w, "Erro ao processar o JSON", http.StatusBadRequest)
		return
	}

	var messages []dto.InboundMessage
	for _, result := range webhookRequest.Results {
		text := result.Message.TextContent()
		if result.From == "" || text == "" {
			th.Logger.Debug(fmt.Sprintf("Skipping Infobip %s message %s without text", result.Message.Type, result.MessageID))
			continue
		}
		messages = append(messages, dto.InboundMessage{
			ContactID:  result.From,
			Name:       result.Contact.Name,
			Text:       text,
			MessageID:  result.MessageID,
			Provider:   "infobip",
			ReceivedAt: infobipTimestamp(result.ReceivedAt),
		})
	}

	if len(messages) > 0 {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					th.Logger.Error(fmt.Sprintf("Recovered from panic: %v", r))
				}
			}()

			ctx := context.Background()
			for _, msg := range messages {
				th.ChannelService.HandleInbound(ctx, msg)
			}
		}()
	}

	w.WriteHeader(http.StatusOK)
}

// Infobip sends receivedAt as 2006-01-02T15:04:05.000+0000.
func infobipTimestamp(raw string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04:05.000-0700", time.RFC3339Nano} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Now()
}
