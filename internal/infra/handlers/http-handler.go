package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"survey-bot/internal/domain/dto"
	Iservices "survey-bot/internal/domain/interfaces/services"
	"survey-bot/internal/infra/logger"
	"survey-bot/internal/util"
)

type HttpHandlers struct {
	Logger         *logger.Logger
	VerifyToken    string
	ChannelService Iservices.IChannelService
}

func NewHttpHandlers(logger *logger.Logger, verifyToken string, channelService Iservices.IChannelService) *HttpHandlers {
	return &HttpHandlers{Logger: logger, VerifyToken: verifyToken, ChannelService: channelService}
}

// MetaWebhook serves the WhatsApp Cloud API webhook.
//
// GET requests are the subscription handshake, POST requests carry message
// and status notifications. Any other method gets 405.
func (th *HttpHandlers) MetaWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		th.handleVerification(w, r)
		return
	}

	if r.Method == http.MethodPost {
		th.handleWebhookEvent(w, r)
		return
	}

	http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
}

// handleVerification echoes hub.challenge back when hub.mode is "subscribe"
// and hub.verify_token matches the configured token. Anything else is 403.
func (th *HttpHandlers) handleVerification(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mode := query.Get("hub.mode")
	token := query.Get("hub.verify_token")
	challenge := query.Get("hub.challenge")

	if mode == "subscribe" && th.VerifyToken != "" && token == th.VerifyToken {
		th.Logger.Info("Webhook verified")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}

	th.Logger.Warn(fmt.Sprintf("Webhook verification refused, mode=%q", mode))
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// handleWebhookEvent acknowledges the notification at once and hands every
// text-bearing message to the channel in the background. Status updates and
// echoes of the bot's own messages are dropped here.
func (th *HttpHandlers) handleWebhookEvent(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var body dto.IWebhookMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		th.Logger.Error(fmt.Sprintf("Invalid JSON payload: %s", err.Error()))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	messages := th.collectMessages(body)
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
	w.Write([]byte("EVENT_RECEIVED"))
}

func (th *HttpHandlers) collectMessages(body dto.IWebhookMessage) []dto.InboundMessage {
	var messages []dto.InboundMessage
	for _, entry := range body.Entry {
		for _, change := range entry.Changes {
			value := change.Value
			if len(value.Messages) == 0 {
				continue
			}

			ownNumber := util.Digits(value.Metadata.DisplayPhoneNumber)
			for _, m := range value.Messages {
				if ownNumber != "" && util.Digits(m.From) == ownNumber {
					continue
				}

				text := m.TextContent()
				if text == "" {
					th.Logger.Debug(fmt.Sprintf("Skipping %s message %s from %s without text", m.Type, m.ID, m.From))
					continue
				}

				messages = append(messages, dto.InboundMessage{
					ContactID:  m.From,
					Name:       profileName(value.Contacts, m.From),
					Text:       text,
					MessageID:  m.ID,
					Provider:   "meta",
					ReceivedAt: unixTimestamp(m.Timestamp),
				})
			}
		}
	}
	return messages
}

func profileName(contacts []dto.WebhookContact, waID string) string {
	for _, c := range contacts {
		if c.WaID == waID {
			return c.Profile.Name
		}
	}
	if len(contacts) == 1 {
		return contacts[0].Profile.Name
	}
	return ""
}

func unixTimestamp(raw string) time.Time {
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Now()
	}
	return time.Unix(seconds, 0)
}
