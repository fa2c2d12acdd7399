package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTopic(t *testing.T) {
	require.Equal(t, "chat.general", Topic("general"))
}

func TestNewPayload_TimestampIsISO8601UTC(t *testing.T) {
	req := require.New(t)
	at := time.Date(2024, 1, 1, 1, 2, 3, 4_000_000, time.FixedZone("CET", 3600))

	payload := NewPayload("alice", "yo", at)

	req.Equal("alice", payload.Username)
	req.Equal("yo", payload.Text)
	req.Equal("2024-01-01T00:02:03.004Z", payload.Timestamp)

	sent, ok := payload.SentAt()
	req.True(ok)
	req.True(sent.Equal(at))
}

func TestPayload_SentAt_Invalid(t *testing.T) {
	_, ok := Payload{Timestamp: "yesterday"}.SentAt()
	require.False(t, ok)
}

func TestMessage_DisplayTime(t *testing.T) {
	req := require.New(t)
	sent := time.Date(2024, 1, 1, 9, 0, 5, 0, time.UTC)
	received := time.Date(2024, 1, 1, 9, 0, 7, 0, time.UTC)

	// The sender's time wins when it parsed
	msg := Message{SentAt: sent, ReceivedAt: received}
	req.Equal(sent.Local().Format(time.TimeOnly), msg.DisplayTime())

	// Otherwise the receive time is shown
	msg.SentAt = time.Time{}
	req.Equal(received.Local().Format(time.TimeOnly), msg.DisplayTime())
}
