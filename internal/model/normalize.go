package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rawCardContent accepts every payload shape the backend has ever
// emitted for card content. Older backends used flat fields and legacy
// names (verses for poetry lines, words/keywords for the english word);
// everything is mapped into the canonical CardContent exactly once here,
// before the value enters application state.
type rawCardContent struct {
	// Canonical nested variants.
	Science *ScienceContent `json:"science"`
	Poetry  *PoetryContent  `json:"poetry"`
	English *EnglishContent `json:"english"`

	// Legacy flat science fields.
	Fact    string `json:"fact"`
	FunFact string `json:"funFact"`

	// Legacy flat poetry fields.
	Title  string   `json:"title"`
	Author string   `json:"author"`
	Lines  []string `json:"lines"`
	Verses []string `json:"verses"`

	// Legacy flat english fields.
	Word     string `json:"word"`
	Words    string `json:"words"`
	Keywords string `json:"keywords"`
	Phonetic string `json:"phonetic"`
	Sentence string `json:"sentence"`
}

// NormalizeCardContent decodes a card content payload of the given type
// into its canonical shape, accepting all known legacy field names.
func NormalizeCardContent(cardType CardType, data json.RawMessage) (CardContent, error) {
	var out CardContent
	if len(data) == 0 {
		return out, fmt.Errorf("empty card content")
	}

	var raw rawCardContent
	if err := json.Unmarshal(data, &raw); err != nil {
		// A bare string is treated as the primary text of the variant.
		var text string
		if err2 := json.Unmarshal(data, &text); err2 != nil {
			return out, fmt.Errorf("decode card content: %w", err)
		}
		raw.Fact = text
		raw.Word = text
		raw.Lines = []string{text}
	}

	switch cardType {
	case CardScience:
		if raw.Science != nil {
			out.Science = raw.Science
			return out, nil
		}
		out.Science = &ScienceContent{Fact: raw.Fact, FunFact: raw.FunFact}
	case CardPoetry:
		if raw.Poetry != nil {
			out.Poetry = raw.Poetry
			return out, nil
		}
		lines := raw.Lines
		if len(lines) == 0 {
			lines = raw.Verses
		}
		out.Poetry = &PoetryContent{Title: raw.Title, Author: raw.Author, Lines: lines}
	case CardEnglish:
		if raw.English != nil {
			out.English = raw.English
			return out, nil
		}
		word := raw.Word
		if word == "" {
			word = raw.Words
		}
		if word == "" {
			word = raw.Keywords
		}
		out.English = &EnglishContent{Word: word, Phonetic: raw.Phonetic, Sentence: raw.Sentence}
	default:
		return out, fmt.Errorf("unknown card type %q", cardType)
	}
	return out, nil
}

// PrimaryText returns the text a card would be read aloud with,
// regardless of variant.
func (c CardContent) PrimaryText() string {
	switch {
	case c.Science != nil:
		return c.Science.Fact
	case c.Poetry != nil:
		return strings.Join(c.Poetry.Lines, "\n")
	case c.English != nil:
		return c.English.Word
	}
	return ""
}
