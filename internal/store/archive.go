package store

import (
	"time"
)

// Message kinds stored in the archive.
const (
	KindText  = "text"
	KindMedia = "media"
)

// Record is one forwarded message persisted to the archive.
type Record struct {
	MessageID  string
	ChatID     string
	Author     string
	SenderName string
	Kind       string
	Body       string
	Filename   string
	Size       int64
	Timestamp  int64
	ArchivedAt time.Time
}

// Archive persists forwarded messages. Media payloads are not stored,
// only their metadata; the host owns the bytes once they are emitted.
type Archive struct {
	db *DB
}

// NewArchive creates a message archive using the given database.
func NewArchive(db *DB) *Archive {
	return &Archive{db: db}
}

// Save inserts a record. Notifications are delivered at least once, so a
// record whose message_id is already archived is silently skipped.
func (a *Archive) Save(rec Record) error {
	_, err := a.db.sql.Exec(
		`INSERT OR IGNORE INTO archived_messages
		 (message_id, chat_id, author, sender_name, kind, body, filename, size, message_ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.MessageID, rec.ChatID, rec.Author, rec.SenderName,
		rec.Kind, rec.Body, rec.Filename, rec.Size, rec.Timestamp,
	)
	return err
}

// Recent returns up to limit records for a chat, newest first. An empty
// chatID returns records across all chats.
func (a *Archive) Recent(chatID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT message_id, chat_id, author, sender_name, kind, body, filename, size, message_ts, archived_at
	          FROM archived_messages`
	args := []any{}
	if chatID != "" {
		query += ` WHERE chat_id = ?`
		args = append(args, chatID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := a.db.sql.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		var archivedAt string
		if err := rows.Scan(
			&rec.MessageID, &rec.ChatID, &rec.Author, &rec.SenderName,
			&rec.Kind, &rec.Body, &rec.Filename, &rec.Size, &rec.Timestamp,
			&archivedAt,
		); err != nil {
			return nil, err
		}
		rec.ArchivedAt, _ = time.Parse(time.DateTime, archivedAt)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Count returns the total number of archived messages.
func (a *Archive) Count() (int64, error) {
	var n int64
	err := a.db.sql.QueryRow(`SELECT COUNT(*) FROM archived_messages`).Scan(&n)
	return n, err
}
