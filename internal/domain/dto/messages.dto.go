package dto

// Meta WhatsApp Cloud API webhook payload.
type IWebhookMessage struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

type WebhookValue struct {
	MessagingProduct string               `json:"messaging_product"`
	Metadata         WebhookMetadata      `json:"metadata"`
	Contacts         []WebhookContact     `json:"contacts"`
	Messages         []WebhookMessageData `json:"messages"`
	Statuses         []WebhookStatus      `json:"statuses"`
}

type WebhookMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type WebhookContact struct {
	Profile WebhookContactProfile `json:"profile"`
	WaID    string                `json:"wa_id"`
}

type WebhookContactProfile struct {
	Name string `json:"name"`
}

type WebhookMessageData struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Timestamp   string              `json:"timestamp"`
	Type        string              `json:"type"`
	Text        *WebhookText        `json:"text,omitempty"`
	Button      *WebhookButton      `json:"button,omitempty"`
	Interactive *WebhookInteractive `json:"interactive,omitempty"`
	Image       *WebhookMedia       `json:"image,omitempty"`
	Video       *WebhookMedia       `json:"video,omitempty"`
	Document    *WebhookMedia       `json:"document,omitempty"`
}

type WebhookText struct {
	Body string `json:"body"`
}

type WebhookButton struct {
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

type WebhookInteractive struct {
	Type        string              `json:"type"`
	ButtonReply *WebhookReplyOption `json:"button_reply,omitempty"`
	ListReply   *WebhookReplyOption `json:"list_reply,omitempty"`
}

type WebhookReplyOption struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type WebhookMedia struct {
	ID      string `json:"id"`
	Caption string `json:"caption"`
}

type WebhookStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	RecipientID string `json:"recipient_id"`
}

// TextContent reduces every supported message shape to its text.
func (m WebhookMessageData) TextContent() string {
	switch {
	case m.Text != nil:
		return m.Text.Body
	case m.Button != nil:
		return m.Button.Text
	case m.Interactive != nil && m.Interactive.ButtonReply != nil:
		return m.Interactive.ButtonReply.Title
	case m.Interactive != nil && m.Interactive.ListReply != nil:
		return m.Interactive.ListReply.Title
	case m.Image != nil:
		return m.Image.Caption
	case m.Video != nil:
		return m.Video.Caption
	case m.Document != nil:
		return m.Document.Caption
	}
	return ""
}

type IWhatsAppMessage struct {
	MessagingProduct string              `json:"messaging_product"`
	RecipientType    string              `json:"recipient_type"`
	To               string              `json:"to"`
	Type             string              `json:"type"`
	Text             whatsAppMessageText `json:"text"`
}

type whatsAppMessageText struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

func NewWhatsAppTextMessage(to, body string) IWhatsAppMessage {
	message := IWhatsAppMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
	}
	message.Text.PreviewURL = false
	message.Text.Body = body
	return message
}

// IWhatsAppReadReceipt marks an inbound message as read and, with
// TypingIndicator set, shows "typing..." to the contact.
type IWhatsAppReadReceipt struct {
	MessagingProduct string                  `json:"messaging_product"`
	Status           string                  `json:"status"`
	MessageID        string                  `json:"message_id"`
	TypingIndicator  *WhatsAppTypingIndicator `json:"typing_indicator,omitempty"`
}

type WhatsAppTypingIndicator struct {
	Type string `json:"type"`
}
