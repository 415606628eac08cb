package greenapi

// Webhook discriminator values carried in RawNotification.TypeWebhook.
const (
	WebhookStateChanged = "stateInstanceChanged"
	WebhookIncoming     = "incomingMessageReceived"
	WebhookOutgoing     = "outgoingMessageReceived"
)

// Message type discriminator values carried in MessageData.TypeMessage.
const (
	TypeText         = "textMessage"
	TypeExtendedText = "extendedTextMessage"
)

// Notification is one queued inbound event fetched from the provider's
// inbox. ReceiptID acknowledges (deletes) it after processing.
type Notification struct {
	ReceiptID int64           `json:"receiptId"`
	Body      RawNotification `json:"body"`
}

// RawNotification is the provider's webhook payload, tagged by TypeWebhook.
type RawNotification struct {
	TypeWebhook string `json:"typeWebhook"`
	IDMessage   string `json:"idMessage,omitempty"`
	Timestamp   int64  `json:"timestamp,omitempty"`

	// stateInstanceChanged carries the new state under one of several
	// field names depending on provider version.
	StateInstance  string `json:"stateInstance,omitempty"`
	StateAfter     string `json:"stateAfter,omitempty"`
	StatusInstance string `json:"statusInstance,omitempty"`

	SenderData  *SenderData  `json:"senderData,omitempty"`
	MessageData *MessageData `json:"messageData,omitempty"`
}

// State returns the new instance state from a stateInstanceChanged payload,
// trying each known field name in fixed order. Empty when none is present.
func (n RawNotification) State() string {
	for _, s := range []string{n.StateInstance, n.StateAfter, n.StatusInstance} {
		if s != "" {
			return s
		}
	}
	return ""
}

// SenderData identifies the chat and sender of a message webhook.
type SenderData struct {
	ChatID     string `json:"chatId"`
	Sender     string `json:"sender,omitempty"`
	SenderName string `json:"senderName,omitempty"`
}

// MessageData is the nested message payload, tagged by TypeMessage.
type MessageData struct {
	TypeMessage string `json:"typeMessage"`
	IDMessage   string `json:"idMessage,omitempty"`

	TextMessageData         *TextMessageData         `json:"textMessageData,omitempty"`
	ExtendedTextMessageData *ExtendedTextMessageData `json:"extendedTextMessageData,omitempty"`

	// File payloads arrive under different keys depending on media kind
	// and provider version. File() probes them in fixed order.
	FileMessageData *FileMessageData `json:"fileMessageData,omitempty"`
	ImageMessage    *FileMessageData `json:"imageMessage,omitempty"`
	VideoMessage    *FileMessageData `json:"videoMessage,omitempty"`
	AudioMessage    *FileMessageData `json:"audioMessage,omitempty"`
	DocumentMessage *FileMessageData `json:"documentMessage,omitempty"`
}

// File returns the message's file payload, trying each known field in
// fixed order, or nil for non-media messages.
func (m MessageData) File() *FileMessageData {
	for _, f := range []*FileMessageData{
		m.FileMessageData, m.ImageMessage, m.VideoMessage, m.AudioMessage, m.DocumentMessage,
	} {
		if f != nil {
			return f
		}
	}
	return nil
}

// TextMessageData carries a plain text message.
type TextMessageData struct {
	TextMessage string `json:"textMessage"`
}

// ExtendedTextMessageData carries forwarded/quoted text.
type ExtendedTextMessageData struct {
	Text string `json:"text"`
}

// FileMessageData describes downloadable media attached to a message.
type FileMessageData struct {
	DownloadURL string `json:"downloadUrl,omitempty"`
	Caption     string `json:"caption,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// QRResponse is the qr endpoint's payload: either a direct scannable token
// in QR, or Type "qrCode" with a base64 PNG in Message.
type QRResponse struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
	QR      string `json:"qr,omitempty"`
}

// Chat is one entry from the getChats listing.
type Chat struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// HistoryMessage is one record from getChatHistory.
type HistoryMessage struct {
	IDMessage   string `json:"idMessage"`
	Type        string `json:"type"`
	TypeMessage string `json:"typeMessage,omitempty"`
	ChatID      string `json:"chatId,omitempty"`
	SenderID    string `json:"senderId,omitempty"`
	SenderName  string `json:"senderName,omitempty"`
	TextMessage string `json:"textMessage,omitempty"`
	Caption     string `json:"caption,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

// SendResult is the sendMessage response.
type SendResult struct {
	IDMessage string `json:"idMessage"`
}

// LogoutResult is the logout/reboot response.
type LogoutResult struct {
	IsLogout bool `json:"isLogout,omitempty"`
	IsReboot bool `json:"isReboot,omitempty"`
}

// downloadURLResponse is the downloadFile probe response. The URL arrives
// under one of several field names depending on provider version; URL()
// tries them in fixed order.
type downloadURLResponse struct {
	DownloadURL string `json:"downloadUrl,omitempty"`
	PlainURL    string `json:"url,omitempty"`
	URLFile     string `json:"urlFile,omitempty"`
	FileURL     string `json:"fileUrl,omitempty"`
}

func (r downloadURLResponse) URL() string {
	for _, u := range []string{r.DownloadURL, r.PlainURL, r.URLFile, r.FileURL} {
		if u != "" {
			return u
		}
	}
	return ""
}
