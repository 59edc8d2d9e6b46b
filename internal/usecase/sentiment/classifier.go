package sentiment

import (
	"math"
	"strings"
	"unicode"

	"github.com/chatdesk-team/chatdesk/internal/domain/entities"
)

// Classifier is the deterministic keyword classifier. It performs no I/O
// and is safe for concurrent use; the same text always yields the same
// result.
type Classifier struct {
	lexicon *Lexicon
}

// NewClassifier creates a classifier, defaulting to the embedded lexicon
func NewClassifier(lexicon *Lexicon) *Classifier {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	return &Classifier{lexicon: lexicon}
}

// Analyze classifies one message. Phrases are matched and consumed before
// tokenization so that "tidak bagus" never also counts "bagus"; each
// remaining token can bump the positive counter, the negative counter and
// any number of emotion counters independently.
func (c *Classifier) Analyze(text string) *entities.SentimentResult {
	lower := strings.ToLower(text)

	posCount := 0
	negCount := 0
	emotionCounts := make(map[entities.Emotion]int)
	var keywords []string
	seen := make(map[string]struct{})

	addKeyword := func(kw string) {
		if _, ok := seen[kw]; ok {
			return
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}

	for _, phrase := range c.lexicon.positivePhrases {
		if n := strings.Count(lower, phrase); n > 0 {
			posCount += n
			addKeyword(phrase)
			lower = strings.ReplaceAll(lower, phrase, " ")
		}
	}
	for _, phrase := range c.lexicon.negativePhrases {
		if n := strings.Count(lower, phrase); n > 0 {
			negCount += n
			addKeyword(phrase)
			lower = strings.ReplaceAll(lower, phrase, " ")
		}
	}

	for _, token := range strings.Fields(lower) {
		word := strings.TrimFunc(token, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word == "" {
			continue
		}
		if c.lexicon.isPositive(word) {
			posCount++
			addKeyword(word)
		}
		if c.lexicon.isNegative(word) {
			negCount++
			addKeyword(word)
		}
		for _, emotion := range c.lexicon.emotionsFor(word) {
			emotionCounts[emotion]++
		}
	}

	var sentiment entities.Sentiment
	var confidence float64
	switch {
	case posCount > negCount:
		sentiment = entities.SentimentPositive
		confidence = math.Min(0.9, 0.5+0.1*float64(posCount-negCount))
	case negCount > posCount:
		sentiment = entities.SentimentNegative
		confidence = math.Min(0.9, 0.5+0.1*float64(negCount-posCount))
	default:
		sentiment = entities.SentimentNeutral
		if posCount > 0 {
			confidence = 0.6 // matched, but evenly split
		} else {
			confidence = 0.8 // nothing matched at all
		}
	}

	var emotions map[entities.Emotion]float64
	if len(emotionCounts) > 0 {
		total := 0
		for _, n := range emotionCounts {
			total += n
		}
		emotions = make(map[entities.Emotion]float64, len(emotionCounts))
		for emotion, n := range emotionCounts {
			emotions[emotion] = float64(n) / float64(total)
		}
	}

	return &entities.SentimentResult{
		Sentiment:  sentiment,
		Confidence: confidence,
		Emotions:   emotions,
		Keywords:   keywords,
		Language:   DetectLanguage(text),
	}
}
