package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"survey-bot/internal/config"
	"survey-bot/internal/domain/dto"
	"survey-bot/internal/infra/logger"
	"survey-bot/internal/util"
)

// MetaCloudProvider talks to the WhatsApp Cloud API on the Graph endpoint.
type MetaCloudProvider struct {
	Logger     *logger.Logger
	HttpClient *http.Client
	Config     config.MetaConfig
}

func NewMetaCloudProvider(logger *logger.Logger, httpClient *http.Client, cfg config.MetaConfig) *MetaCloudProvider {
	return &MetaCloudProvider{Logger: logger, HttpClient: httpClient, Config: cfg}
}

func (th *MetaCloudProvider) SendTextMessage(ctx context.Context, to, message string) error {
	if to == "" || message == "" {
		return fmt.Errorf("recipient (to) and message cannot be empty")
	}

	recipient := util.AddNineToPhoneNumber(to)
	if err := th.post(ctx, dto.NewWhatsAppTextMessage(recipient, message)); err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to send WhatsApp message to %s: %v", recipient, err))
		return err
	}

	th.Logger.Debug(fmt.Sprintf("Message sent successfully to %s", recipient))
	return nil
}

// SimulateTyping marks the inbound message as read and shows the typing
// indicator, which the Cloud API keeps up for at most 25 seconds or until the
// next message is sent.
func (th *MetaCloudProvider) SimulateTyping(ctx context.Context, to, messageID string) error {
	if messageID == "" {
		return nil
	}

	receipt := dto.IWhatsAppReadReceipt{
		MessagingProduct: "whatsapp",
		Status:           "read",
		MessageID:        messageID,
		TypingIndicator:  &dto.WhatsAppTypingIndicator{Type: "text"},
	}
	if err := th.post(ctx, receipt); err != nil {
		return fmt.Errorf("failed to send typing indicator to %s: %w", to, err)
	}
	return nil
}

func (th *MetaCloudProvider) messagesURL() string {
	return fmt.Sprintf("%s/%s/%s/messages", strings.TrimRight(th.Config.GraphAPIURL, "/"), th.Config.Version, th.Config.PhoneNumberID)
}

func (th *MetaCloudProvider) post(ctx context.Context, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, th.messagesURL(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", th.Config.AccessToken))
	req.Header.Set("Content-Type", "application/json")

	res, err := th.HttpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		responseBody, _ := io.ReadAll(res.Body)
		return fmt.Errorf("unexpected HTTP status: %s, response: %s", res.Status, string(responseBody))
	}
	return nil
}
