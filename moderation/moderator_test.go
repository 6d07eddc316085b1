package moderation

import (
	"chat-relay/errors"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator([]string{"badger", "snake", "mushroom"}, replacementChar, logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{"word inside a sentence", "The badger is here", "The ****** is here", []string{"badger"}},
		{"repeated word keeps spacing", "badger badger", "****** ******", []string{"badger", "badger"}},
		{"leet and dots are masked with the match", "Look at B.4.d.g.€r !", "Look at ********** !", []string{"badger"}},
		{"dashes and uppercase", "S-N-A-K-E or B.A.D.G.E.R", "********* or ***********", []string{"snake", "badger"}},
		{"accents outside the match survive", "Un été avec un badger", "Un été avec un ******", []string{"badger"}},
		{"trailing punctuation survives", "I love badger!", "I love ******!", []string{"badger"}},
		{"emoji around a word", "🍄mushroom🍄", "🍄********🍄", []string{"mushroom"}},
		{"clean message", "Chat-Relay is amazing", "Chat-Relay is amazing", nil},
		{"empty message", "", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, words := mod.Censor(tt.input)
			require.Equal(t, tt.expected, content)
			require.Equal(t, tt.words, words)
		})
	}
}

func TestModerator_CornerCases(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given real noise and not Leet Speak associated
	dictionary := []string{"...", ",,,", "", "badger"}

	mod, err := NewModerator(dictionary, replacementChar, log)
	req.NoError(err)

	// Then the sentence is censored
	input := "The badger is safe"
	expected := "The ****** is safe"
	content, words := mod.Censor(input)
	req.Equal(expected, content)
	req.Equal([]string{"badger"}, words)

	// Then real noise is uncensored
	input = "Hello ..."
	expected = "Hello ..."
	content, words = mod.Censor(input)
	req.Equal(expected, content)
	req.Nil(words)
}

func TestModerator_EmptyDictionary(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator(nil, replacementChar, logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)

	content, words := mod.Censor("nothing to see")
	req.Equal("nothing to see", content)
	req.Nil(words)
}

func TestLoadAll(t *testing.T) {
	req := require.New(t)
	fsys := fstest.MapFS{
		"words/en.txt":    {Data: []byte("badger\r\nsnake\n\n")},
		"words/fr.txt":    {Data: []byte("blaireau\nbadger\n")},
		"words/README.md": {Data: []byte("ignored")},
		"words/nested/x":  {Data: []byte("ignored")},
	}

	data, err := LoadAll(fsys, "words")
	req.NoError(err)
	req.ElementsMatch([]string{"en", "fr"}, data.Languages)
	req.ElementsMatch([]string{"badger", "snake", "blaireau"}, data.Words)

	_, err = LoadAll(fstest.MapFS{"empty/en.txt": {Data: []byte("\n")}}, "empty")
	req.ErrorIs(err, errors.ErrEmptyWords)
}

func TestLoadEmbedded(t *testing.T) {
	req := require.New(t)
	data, err := LoadEmbedded()
	req.NoError(err)
	req.NotEmpty(data.Words)
	req.Contains(data.Languages, "en")
}
