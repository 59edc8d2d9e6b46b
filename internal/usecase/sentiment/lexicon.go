package sentiment

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var lexiconYAML []byte

// lexiconFile mirrors the YAML layout
type lexiconFile struct {
	Positive []string            `yaml:"positive"`
	Negative []string            `yaml:"negative"`
	Emotions map[string][]string `yaml:"emotions"`
}

// Lexicon holds the keyword sets driving the rule-based classifier.
// Polarity entries containing a space are phrases and are matched
// before tokenization; emotion entries are single words.
type Lexicon struct {
	positive        map[string]struct{}
	negative        map[string]struct{}
	positivePhrases []string // longest first
	negativePhrases []string
	emotions        map[entities.Emotion]map[string]struct{}
}

// ParseLexicon builds a lexicon from YAML content
func ParseLexicon(data []byte) (*Lexicon, error) {
	var file lexiconFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}
	if len(file.Positive) == 0 || len(file.Negative) == 0 {
		return nil, fmt.Errorf("lexicon must define positive and negative terms")
	}

	lex := &Lexicon{
		positive: make(map[string]struct{}),
		negative: make(map[string]struct{}),
		emotions: make(map[entities.Emotion]map[string]struct{}),
	}

	lex.positivePhrases = splitTerms(file.Positive, lex.positive)
	lex.negativePhrases = splitTerms(file.Negative, lex.negative)

	for name, words := range file.Emotions {
		emotion := entities.Emotion(strings.ToLower(name))
		if !emotion.IsValid() {
			return nil, fmt.Errorf("unknown emotion %q in lexicon", name)
		}
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w == "" || strings.Contains(w, " ") {
				return nil, fmt.Errorf("emotion %q has invalid entry %q", name, w)
			}
			set[w] = struct{}{}
		}
		lex.emotions[emotion] = set
	}

	return lex, nil
}

// splitTerms lowercases terms into the word set and returns the phrases
// sorted longest first for greedy matching
func splitTerms(terms []string, words map[string]struct{}) []string {
	var phrases []string
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if strings.Contains(t, " ") {
			phrases = append(phrases, t)
			continue
		}
		words[t] = struct{}{}
	}
	sort.Slice(phrases, func(i, j int) bool {
		return len(phrases[i]) > len(phrases[j])
	})
	return phrases
}

func (l *Lexicon) isPositive(word string) bool {
	_, ok := l.positive[word]
	return ok
}

func (l *Lexicon) isNegative(word string) bool {
	_, ok := l.negative[word]
	return ok
}

// emotionsFor returns the emotions whose word lists contain the word
func (l *Lexicon) emotionsFor(word string) []entities.Emotion {
	var matched []entities.Emotion
	for _, emotion := range entities.AllEmotions {
		if set, ok := l.emotions[emotion]; ok {
			if _, hit := set[word]; hit {
				matched = append(matched, emotion)
			}
		}
	}
	return matched
}

var defaultLexicon = mustParseLexicon(lexiconYAML)

func mustParseLexicon(data []byte) *Lexicon {
	lex, err := ParseLexicon(data)
	if err != nil {
		panic(fmt.Sprintf("sentiment: embedded lexicon invalid: %v", err))
	}
	return lex
}

// DefaultLexicon returns the embedded lexicon
func DefaultLexicon() *Lexicon {
	return defaultLexicon
}
