// Package classify maps raw provider notifications to typed results. It
// is pure: no I/O, no clock, no shared state — the dispatcher owns side
// effects like media downloads.
package classify

import (
	"github.com/ybarkan/wagate/internal/greenapi"
	"github.com/ybarkan/wagate/internal/session"
)

// Kind discriminates classification outcomes.
type Kind int

const (
	// KindIgnored: not relevant — wrong webhook type, no active monitor
	// target, or a message from a non-monitored chat.
	KindIgnored Kind = iota
	// KindStateHint: an out-of-band authorization state observation.
	KindStateHint
	// KindText: a text or extended-text message from the monitored group.
	KindText
	// KindMedia: a file-bearing message from the monitored group.
	KindMedia
	// KindUnhandled: from the monitored group, but an unrecognized message
	// type; callers log these for observability.
	KindUnhandled
)

// TextResult carries everything needed to build a text event.
type TextResult struct {
	ID         string
	From       string
	Author     string
	SenderName string
	Text       string
	Timestamp  int64
}

// MediaResult identifies a downloadable file; the dispatcher fetches the
// bytes.
type MediaResult struct {
	ID          string
	From        string
	Author      string
	SenderName  string
	Caption     string
	MimeType    string
	DownloadURL string
	Timestamp   int64
}

// Classification is the outcome of classifying one notification body.
type Classification struct {
	Kind    Kind
	State   string // KindStateHint
	Text    *TextResult
	Media   *MediaResult
	TypeMsg string // KindUnhandled: the unrecognized typeMessage
}

// Classify maps a raw notification body to a typed classification against
// the current monitor target. Rules are checked in fixed order; absence of
// any expected field degrades to KindIgnored, never a panic.
func Classify(body greenapi.RawNotification, target session.Target) Classification {
	if body.TypeWebhook == greenapi.WebhookStateChanged {
		state := body.State()
		if state == "" {
			return Classification{Kind: KindIgnored}
		}
		return Classification{Kind: KindStateHint, State: state}
	}

	if body.TypeWebhook != greenapi.WebhookIncoming && body.TypeWebhook != greenapi.WebhookOutgoing {
		return Classification{Kind: KindIgnored}
	}

	if !target.Active || body.SenderData == nil || body.SenderData.ChatID != target.GroupID {
		return Classification{Kind: KindIgnored}
	}

	md := body.MessageData
	if md == nil {
		return Classification{Kind: KindIgnored}
	}

	id := md.IDMessage
	if id == "" {
		id = body.IDMessage
	}
	if id == "" {
		id = "unknown"
	}

	sender := body.SenderData
	author := sender.Sender
	if author == "" {
		author = sender.ChatID
	}
	senderName := sender.SenderName
	if senderName == "" {
		senderName = "Unknown"
	}

	switch {
	case md.TypeMessage == greenapi.TypeText && md.TextMessageData != nil:
		return Classification{Kind: KindText, Text: &TextResult{
			ID:         id,
			From:       sender.ChatID,
			Author:     author,
			SenderName: senderName,
			Text:       md.TextMessageData.TextMessage,
			Timestamp:  body.Timestamp,
		}}

	case md.TypeMessage == greenapi.TypeExtendedText && md.ExtendedTextMessageData != nil:
		return Classification{Kind: KindText, Text: &TextResult{
			ID:         id,
			From:       sender.ChatID,
			Author:     author,
			SenderName: senderName,
			Text:       md.ExtendedTextMessageData.Text,
			Timestamp:  body.Timestamp,
		}}
	}

	if file := md.File(); file != nil {
		return Classification{Kind: KindMedia, Media: &MediaResult{
			ID:          id,
			From:        sender.ChatID,
			Author:      author,
			SenderName:  senderName,
			Caption:     file.Caption,
			MimeType:    file.MimeType,
			DownloadURL: file.DownloadURL,
			Timestamp:   body.Timestamp,
		}}
	}

	return Classification{Kind: KindUnhandled, TypeMsg: md.TypeMessage}
}
