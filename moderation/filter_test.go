package moderation

import (
	"relay-chat/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const mask = '*'

// The word list avoids short words colliding inside others ("he" inside "The")
func TestFilter_Censor(t *testing.T) {
	req := require.New(t)
	filter, err := NewFilter([]string{"badger", "snake", "mushroom"}, mask)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Single word keeps surrounding spaces",
			input:    "The badger is here",
			expected: "The ****** is here",
		},
		{
			name:     "Every occurrence is masked",
			input:    "badger badger badger",
			expected: "****** ****** ******",
		},
		{
			name:     "Leet and punctuation inside a word",
			input:    "Look at B.4.d.g.€r !",
			expected: "Look at ********** !",
		},
		{
			name:     "Uppercase with separators",
			input:    "S-N-A-K-E is a B.A.D.G.E.R",
			expected: "********* is a ***********",
		},
		{
			name:     "Multibyte runes are preserved",
			input:    "Un été avec un badger",
			expected: "Un été avec un ******",
		},
		{
			name:     "Clean text is returned unchanged",
			input:    "hello there",
			expected: "hello there",
		},
		{
			name:     "Only punctuation",
			input:    "?!...",
			expected: "?!...",
		},
		{
			name:     "Empty body",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req.Equal(tt.expected, filter.Censor(tt.input))
		})
	}
}

func TestFilter_CustomMask(t *testing.T) {
	req := require.New(t)
	filter, err := NewFilter([]string{"snake"}, '#')
	req.NoError(err)
	req.Equal("a ##### here", filter.Censor("a snake here"))
}

func TestNewFilter_EmptyWords(t *testing.T) {
	req := require.New(t)

	_, err := NewFilter(nil, mask)
	req.ErrorIs(err, errors.ErrEmptyWords)

	// Words reduced to nothing by normalization do not count
	_, err = NewFilter([]string{"...", " "}, mask)
	req.ErrorIs(err, errors.ErrEmptyWords)
}

func TestParseWords(t *testing.T) {
	req := require.New(t)
	req.Equal([]string{"badger", "snake"}, ParseWords(" badger, ,snake ,"))
	req.Empty(ParseWords(""))
}
