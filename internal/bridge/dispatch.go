package bridge

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/ybarkan/wagate/internal/classify"
	"github.com/ybarkan/wagate/internal/events"
	"github.com/ybarkan/wagate/internal/greenapi"
	"github.com/ybarkan/wagate/internal/store"
)

// dispatch classifies one notification against the current monitor target
// and performs its side effects. Dispatch failures never propagate; the
// notification is acked by the caller regardless.
func (b *Bridge) dispatch(ctx context.Context, n *greenapi.Notification) {
	log := b.log.Sub("dispatch")
	c := classify.Classify(n.Body, b.monitor.Current())

	switch c.Kind {
	case classify.KindStateHint:
		log.Debug().Str("state", c.State).Msg("state change webhook")
		b.noteStateHint(c.State)

	case classify.KindText:
		t := c.Text
		log.Info().Str("id", t.ID).Str("sender", t.SenderName).Msg("forwarding text message")
		b.emit.Emit(events.NewText(events.TextBody{
			ID:         t.ID,
			From:       t.From,
			Author:     t.Author,
			Kind:       "text",
			Timestamp:  t.Timestamp,
			Text:       t.Text,
			SenderName: t.SenderName,
		}))
		b.archiveRecord(store.Record{
			MessageID:  t.ID,
			ChatID:     t.From,
			Author:     t.Author,
			SenderName: t.SenderName,
			Kind:       store.KindText,
			Body:       t.Text,
			Timestamp:  t.Timestamp,
		})

	case classify.KindMedia:
		b.dispatchMedia(ctx, c.Media)

	case classify.KindUnhandled:
		log.Warn().Str("typeMessage", c.TypeMsg).Msg("unhandled message type")

	default:
		log.Debug().Str("typeWebhook", n.Body.TypeWebhook).Msg("notification ignored")
	}
}

// dispatchMedia downloads the file and emits a media event with the bytes
// inlined as base64. A failed download is logged and produces no event;
// the notification is still acked, so the message is lost rather than
// wedging the drain loop.
func (b *Bridge) dispatchMedia(ctx context.Context, m *classify.MediaResult) {
	log := b.log.Sub("dispatch")

	data, err := b.provider.DownloadFile(ctx, m.From, m.ID, m.DownloadURL)
	if err != nil {
		log.Error().Err(err).Str("id", m.ID).Msg("media download failed, dropping message")
		return
	}

	ts := time.Unix(m.Timestamp, 0)
	if m.Timestamp == 0 {
		ts = time.Now()
	}
	filename := classify.MediaFilename(m.SenderName, ts, m.MimeType)
	_, mime := classify.InferMedia(m.MimeType)

	log.Info().
		Str("id", m.ID).
		Str("sender", m.SenderName).
		Str("filename", filename).
		Int("size", len(data)).
		Msg("forwarding media message")

	b.emit.Emit(events.NewMedia(events.MediaBody{
		ID:         m.ID,
		From:       m.From,
		Author:     m.Author,
		MimeType:   mime,
		Timestamp:  m.Timestamp,
		Filename:   filename,
		Data:       base64.StdEncoding.EncodeToString(data),
		Size:       len(data),
		SenderName: m.SenderName,
		Caption:    m.Caption,
	}))
	b.archiveRecord(store.Record{
		MessageID:  m.ID,
		ChatID:     m.From,
		Author:     m.Author,
		SenderName: m.SenderName,
		Kind:       store.KindMedia,
		Body:       m.Caption,
		Filename:   filename,
		Size:       int64(len(data)),
		Timestamp:  m.Timestamp,
	})
}

// archiveRecord persists a forwarded message when archiving is enabled.
// Archive failures are log-only: persistence is an observer, not a
// participant, of the forwarding path.
func (b *Bridge) archiveRecord(rec store.Record) {
	if b.archive == nil {
		return
	}
	if err := b.archive.Save(rec); err != nil {
		b.log.Error().Err(err).Str("messageId", rec.MessageID).Msg("failed to archive message")
	}
}
