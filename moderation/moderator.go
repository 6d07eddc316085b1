// Package moderation censors forbidden words in message content before it is stored.
package moderation

import (
	"log/slog"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	matcher      *goahocorasick.Machine
	censoredChar rune
	log          *slog.Logger
}

// folded is the searchable form of a text: lowercased, leet mapped back to letters,
// separators removed. origin[i] is the rune index in the source of runes[i].
type folded struct {
	runes  []rune
	origin []int
}

// NewModerator builds the Aho-Corasick automaton from the folded form of every word.
// Words that fold to nothing (pure punctuation) are ignored.
func NewModerator(censoredWords []string, censoredChar rune, log *slog.Logger) (*Moderator, error) {
	patterns := make([][]rune, 0, len(censoredWords))
	for _, word := range censoredWords {
		if f := fold(word); len(f.runes) > 0 {
			patterns = append(patterns, f.runes)
		}
	}

	mod := &Moderator{censoredChar: censoredChar, log: log}
	if len(patterns) == 0 {
		return mod, nil
	}
	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	mod.matcher = machine
	return mod, nil
}

// Censor masks every source rune covered by a forbidden word, separators inside the
// match included, and returns the matched words in order of appearance.
func (m *Moderator) Censor(original string) (string, []string) {
	if m == nil || m.matcher == nil {
		return original, nil
	}
	text := fold(original)
	if len(text.runes) == 0 {
		return original, nil
	}
	hits := m.matcher.MultiPatternSearch(text.runes, false)
	if len(hits) == 0 {
		return original, nil
	}

	source := []rune(original)
	found := make([]string, 0, len(hits))
	for _, hit := range hits {
		end := hit.Pos + len(hit.Word)
		if hit.Pos < 0 || end > len(text.origin) {
			continue
		}
		for i := text.origin[hit.Pos]; i <= text.origin[end-1]; i++ {
			source[i] = m.censoredChar
		}
		found = append(found, string(hit.Word))
	}
	if len(found) == 0 {
		return original, nil
	}
	if m.log != nil {
		m.log.Debug("Censored words found", "count", len(found))
	}
	return string(source), found
}

func fold(input string) folded {
	source := []rune(input)
	f := folded{runes: make([]rune, 0, len(source)), origin: make([]int, 0, len(source))}
	for i, r := range source {
		r = unleet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		f.runes = append(f.runes, unicode.ToLower(r))
		f.origin = append(f.origin, i)
	}
	return f
}

// unleet maps common substitutions back to the letter they stand for.
func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}
