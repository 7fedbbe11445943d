package dto

type InfobipMessagePayload struct {
	From         string         `json:"from"`
	To           string         `json:"to"`
	MessageID    string         `json:"messageId,omitempty"`
	Content      MessageContent `json:"content"`
	CallbackData string         `json:"callbackData,omitempty"`
	NotifyURL    string         `json:"notifyUrl,omitempty"`
}

type MessageContent struct {
	Text string `json:"text"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}
