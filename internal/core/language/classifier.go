// Package language implements the bilingual character-ratio classifier used
// to resolve the response language and to verify generated output.
package language

import (
	"strings"
	"unicode"

	"github.com/techmart/store-assistant/internal/core/domain"
)

const (
	// DefaultArabicThreshold classifies input as Arabic on its own.
	DefaultArabicThreshold = 0.25
	// DefaultWeakThreshold is enough when an Arabic interrogative is present.
	DefaultWeakThreshold = 0.10
	// DefaultOutputThreshold is the minimum Arabic ratio a generated Arabic
	// answer must reach before it is accepted.
	DefaultOutputThreshold = 0.30
)

// Arabic interrogatives and common question words used as tie-breakers for
// short mixed-script input.
var arabicStopWords = []string{"ما", "ماذا", "متى", "أين", "وين", "كيف", "كم", "هل", "لماذا", "من"}

// Classifier is a pure function object; it performs no I/O and holds no
// mutable state, so it is safe to share across requests.
type Classifier struct {
	ArabicThreshold float64
	WeakThreshold   float64
	OutputThreshold float64
}

func NewClassifier() *Classifier {
	return &Classifier{
		ArabicThreshold: DefaultArabicThreshold,
		WeakThreshold:   DefaultWeakThreshold,
		OutputThreshold: DefaultOutputThreshold,
	}
}

// Detect resolves the language of free text. Empty or all-non-alphabetic
// input resolves to English, the primary language.
func (c *Classifier) Detect(text string) domain.Language {
	ratio := ArabicRatio(text)
	if ratio > c.ArabicThreshold {
		return domain.LanguageArabic
	}
	if ratio >= c.WeakThreshold && containsArabicStopWord(text) {
		return domain.LanguageArabic
	}
	return domain.LanguageEnglish
}

// Resolve applies an inbound hint: concrete supported hints win, anything
// else falls back to detection.
func (c *Classifier) Resolve(text string, hint domain.Language) domain.Language {
	if hint.Supported() {
		return hint
	}
	return c.Detect(text)
}

// VerifyOutput reports whether generated text satisfies the required
// language. Only Arabic output is ratio-checked; English output with
// embedded Arabic product names is acceptable as-is.
func (c *Classifier) VerifyOutput(text string, want domain.Language) bool {
	if want != domain.LanguageArabic {
		return true
	}
	return ArabicRatio(text) >= c.OutputThreshold
}

// ArabicRatio returns the share of Arabic-block characters among all
// alphabetic characters; zero for input with no alphabetic characters.
func ArabicRatio(text string) float64 {
	arabic, alphabetic := 0, 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		alphabetic++
		if r >= 0x0600 && r <= 0x06FF {
			arabic++
		}
	}
	if alphabetic == 0 {
		return 0
	}
	return float64(arabic) / float64(alphabetic)
}

func containsArabicStopWord(text string) bool {
	for _, word := range arabicStopWords {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
