// Package domain contains core concepts of the chat client.
// This file defines Message entries of a transcript and the wire payload
// exchanged on a room topic.
package domain

import (
	"time"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision,
// e.g. 2024-01-01T00:00:00.000Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

const topicPrefix = "chat."

// Topic returns the relay topic carrying a room's messages.
func Topic(room string) string {
	return topicPrefix + room
}

// Payload is the message body published on a room topic.
type Payload struct {
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

func NewPayload(username, text string, at time.Time) Payload {
	return Payload{
		Username:  username,
		Text:      text,
		Timestamp: at.UTC().Format(TimestampLayout),
	}
}

// SentAt parses the sender's timestamp. Senders are not trusted to
// send a valid one, so the second value reports whether it parsed.
func (p Payload) SentAt() (time.Time, bool) {
	at, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}

// Message is an immutable transcript entry.
// Transcript order is arrival order; neither SentAt nor ReceivedAt is used to sort.
type Message struct {
	ID         string
	Author     string
	Body       string
	SentAt     time.Time // zero when the sender's timestamp was unusable
	ReceivedAt time.Time
}

// DisplayTime formats the sender's time in local time, or the receive
// time when the sender's was unusable.
func (m Message) DisplayTime() string {
	at := m.SentAt
	if at.IsZero() {
		at = m.ReceivedAt
	}
	return at.Local().Format(time.TimeOnly)
}

// IsFrom reports whether the message was written by username.
func (m Message) IsFrom(username string) bool {
	return m.Author == username
}
