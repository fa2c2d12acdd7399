package session

import (
	"relay-chat/domain"

	"github.com/samber/lo"
)

// Transcript is an append-only, arrival-ordered list of messages.
// A Transcript value never changes once handed out: appending returns a new
// value and only ever writes past the end of every earlier value.
type Transcript struct {
	messages []domain.Message
}

func (t Transcript) Len() int {
	return len(t.messages)
}

// Messages returns the messages in arrival order. The slice is capped so
// an append by the caller reallocates instead of writing into the transcript.
func (t Transcript) Messages() []domain.Message {
	return t.messages[:len(t.messages):len(t.messages)]
}

// Since returns the messages appended after the first n.
func (t Transcript) Since(n int) []domain.Message {
	if n >= len(t.messages) {
		return nil
	}
	n = max(n, 0)
	return t.messages[n:len(t.messages):len(t.messages)]
}

// Authors lists distinct named authors in order of first appearance.
func (t Transcript) Authors() []string {
	return lo.Compact(lo.Uniq(lo.Map(t.messages, func(m domain.Message, _ int) string {
		return m.Author
	})))
}

// append must only be called on the latest Transcript, under the session lock.
func (t Transcript) append(m domain.Message) Transcript {
	return Transcript{messages: append(t.messages, m)}
}
