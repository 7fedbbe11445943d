package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"survey-bot/internal/config"
	"survey-bot/internal/domain/dto"
	"survey-bot/internal/infra/logger"
)

// tokenSafetyMargin renews the OAuth2 token slightly before Infobip expires it.
const tokenSafetyMargin = 30 * time.Second

type InfobipWhatsAppProvider struct {
	Logger     *logger.Logger
	HttpClient *http.Client
	Config     config.InfobipConfig

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	now         func() time.Time
}

func NewInfobipWhatsAppProvider(logger *logger.Logger, httpClient *http.Client, cfg config.InfobipConfig) *InfobipWhatsAppProvider {
	return &InfobipWhatsAppProvider{Logger: logger, HttpClient: httpClient, Config: cfg, now: time.Now}
}

// SendTextMessage sends a text message to a recipient's phone number using the Infobip API.
//
// Parameters:
//   - to: string - The recipient's phone number in international format (including the country code).
//   - message: string - The content of the text message to be sent.
//
// Returns:
//   - error: Returns an error if any step of the process fails, including input validation,
//     token generation, HTTP request failure, or unexpected API response.
func (th *InfobipWhatsAppProvider) SendTextMessage(ctx context.Context, to, message string) error {
	if to == "" || message == "" {
		return fmt.Errorf("recipient (to) and message cannot be empty")
	}

	requiredConfigs := []struct {
		name  string
		value string
	}{
		{"INFOBIP_URL", th.Config.BaseURL},
		{"WHATSAPP_PHONE_NUMBER", th.Config.Sender},
	}

	for _, configItem := range requiredConfigs {
		if configItem.value == "" {
			th.Logger.Error(fmt.Sprintf("%s is not set", configItem.name))
			return fmt.Errorf("%s is not set", configItem.name)
		}
	}

	authToken, err := th.accessToken(ctx)
	if err != nil {
		return err
	}

	payloadData := dto.InfobipMessagePayload{
		From:    th.Config.Sender,
		To:      to,
		Content: dto.MessageContent{Text: message},
	}

	payload, err := json.Marshal(payloadData)
	if err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to marshal payload %v", err))
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/whatsapp/1/message/text", strings.TrimRight(th.Config.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to create HTTP request %v", err))
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", authToken))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := th.HttpClient.Do(req)
	if err != nil {
		th.Logger.Error(fmt.Sprintf("HTTP request failed %v", err))
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(res.Body)
		if res.StatusCode == http.StatusUnauthorized {
			th.invalidateToken()
		}
		th.Logger.Error(fmt.Sprintf("Unexpected HTTP status %s response_body %s", res.Status, string(body)))
		return fmt.Errorf("unexpected HTTP status: %s", res.Status)
	}

	th.Logger.Debug(fmt.Sprintf("Message sent successfully to %s (%s)", to, res.Status))
	return nil
}

// SimulateTyping is a no-op: the Infobip WhatsApp API has no typing indicator.
// The dispatcher still waits the typing delay before sending.
func (th *InfobipWhatsAppProvider) SimulateTyping(ctx context.Context, to, messageID string) error {
	return nil
}

// accessToken returns the cached OAuth2 token, requesting a new one when it is
// missing or about to expire.
func (th *InfobipWhatsAppProvider) accessToken(ctx context.Context) (string, error) {
	th.mu.Lock()
	defer th.mu.Unlock()

	if th.token != "" && th.now().Before(th.tokenExpiry) {
		return th.token, nil
	}

	tokenResponse, err := th.GenerateOAuth2Token(ctx)
	if err != nil {
		return "", err
	}
	th.token = tokenResponse.AccessToken
	th.tokenExpiry = th.now().Add(time.Duration(tokenResponse.ExpiresIn)*time.Second - tokenSafetyMargin)
	return th.token, nil
}

func (th *InfobipWhatsAppProvider) invalidateToken() {
	th.mu.Lock()
	th.token = ""
	th.mu.Unlock()
}

func (th *InfobipWhatsAppProvider) GenerateOAuth2Token(ctx context.Context) (*dto.TokenResponse, error) {
	if th.Config.ClientID == "" || th.Config.ClientSecret == "" {
		return nil, fmt.Errorf("INFOBIP_CLIENT_ID and INFOBIP_CLIENT_SECRET must be set")
	}
	apiURL := fmt.Sprintf("%s/auth/1/oauth2/token", strings.TrimRight(th.Config.BaseURL, "/"))

	data := url.Values{}
	data.Set("client_id", th.Config.ClientID)
	data.Set("client_secret", th.Config.ClientSecret)
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBufferString(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Add("Accept", "application/json")

	resp, err := th.HttpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected HTTP status: %d, response: %s", resp.StatusCode, string(body))
	}

	var tokenResponse dto.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return nil, fmt.Errorf("error decoding response JSON: %w", err)
	}
	if tokenResponse.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}

	return &tokenResponse, nil
}
