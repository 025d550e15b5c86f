package usecase

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/techmart/store-assistant/internal/core/domain"
	"github.com/techmart/store-assistant/internal/core/language"
	"github.com/techmart/store-assistant/internal/core/ports"
	"github.com/techmart/store-assistant/internal/core/prompt"
)

const (
	defaultAnswerMaxTokens = 700
	defaultTemperature     = 0.4
	// forcedPromptMaxTokens keeps the corrective re-prompt cheap.
	forcedPromptMaxTokens = 400
	// streamChunkChars sizes the token events replayed after an Arabic
	// answer has been buffered and verified.
	streamChunkChars = 60
)

// Generation is the generator's output before confidence scoring.
type Generation struct {
	Text      string
	Corrected bool
}

// ResponseGenerator builds the final prompts, invokes the model and enforces
// language consistency. The Arabic correction path is a bounded state
// machine: verify, canned lookup, at most one corrective model call, verify
// again, generic template. English output is never regenerated.
type ResponseGenerator struct {
	model      ports.ChatModel
	prompts    *prompt.Catalog
	classifier *language.Classifier

	maxTokens   int
	temperature float64
}

func NewResponseGenerator(model ports.ChatModel, prompts *prompt.Catalog, classifier *language.Classifier) *ResponseGenerator {
	return &ResponseGenerator{
		model:       model,
		prompts:     prompts,
		classifier:  classifier,
		maxTokens:   defaultAnswerMaxTokens,
		temperature: defaultTemperature,
	}
}

func (g *ResponseGenerator) options() ports.GenerationOptions {
	return ports.GenerationOptions{MaxTokens: g.maxTokens, Temperature: g.temperature}
}

// Generate runs the single-shot variant.
func (g *ResponseGenerator) Generate(ctx context.Context, question string, analysis domain.QueryAnalysis, contextText string) (Generation, error) {
	lang := analysis.Language
	text, err := g.model.Complete(ctx, g.prompts.SystemPrompt(lang), g.prompts.UserPrompt(lang, question, contextText), g.options())
	if err != nil {
		return Generation{}, domain.WrapError(domain.ErrGenerationFailure, "generate answer", err)
	}
	return g.verifyAndCorrect(ctx, question, lang, text), nil
}

// GenerateStream runs the streaming variant. English answers stream live
// model tokens through emit; Arabic answers are buffered, verified and then
// replayed through emit in fixed-size chunks so a failed verification never
// leaks mixed-language tokens to the consumer.
func (g *ResponseGenerator) GenerateStream(ctx context.Context, question string, analysis domain.QueryAnalysis, contextText string, emit func(token string) error) (Generation, error) {
	lang := analysis.Language
	system := g.prompts.SystemPrompt(lang)
	user := g.prompts.UserPrompt(lang, question, contextText)

	if lang != domain.LanguageArabic {
		text, err := g.model.CompleteStream(ctx, system, user, g.options(), emit)
		if err != nil {
			return Generation{}, domain.WrapError(domain.ErrGenerationFailure, "stream answer", err)
		}
		return Generation{Text: text}, nil
	}

	text, err := g.model.CompleteStream(ctx, system, user, g.options(), func(string) error { return nil })
	if err != nil {
		return Generation{}, domain.WrapError(domain.ErrGenerationFailure, "stream answer", err)
	}
	generation := g.verifyAndCorrect(ctx, question, lang, text)
	for _, chunk := range splitByRunes(generation.Text, streamChunkChars) {
		if err := emit(chunk); err != nil {
			return Generation{}, err
		}
	}
	return generation, nil
}

// verifyAndCorrect is the forced-language path. It never returns an error:
// every tier degrades to the next, ending at the generic localized template.
func (g *ResponseGenerator) verifyAndCorrect(ctx context.Context, question string, lang domain.Language, text string) Generation {
	if g.classifier.VerifyOutput(text, lang) {
		return Generation{Text: text}
	}
	slog.Info("language_correction", "language", lang, "ratio", language.ArabicRatio(text))

	if canned, ok := g.prompts.CannedAnswer(lang, question); ok {
		return Generation{Text: canned, Corrected: true}
	}

	forced, err := g.model.Complete(ctx, "", g.prompts.ForcedPrompt(question), ports.GenerationOptions{
		MaxTokens:   forcedPromptMaxTokens,
		Temperature: g.temperature,
	})
	if err == nil && g.classifier.VerifyOutput(forced, lang) {
		return Generation{Text: forced, Corrected: true}
	}
	if err != nil {
		slog.Warn("language_correction_reprompt_failed", "error", err)
	}

	return Generation{Text: g.prompts.GenericAnswer(lang), Corrected: true}
}

func splitByRunes(text string, chunkChars int) []string {
	if chunkChars <= 0 || utf8.RuneCountInString(text) <= chunkChars {
		return []string{text}
	}
	runes := []rune(text)
	parts := make([]string, 0, (len(runes)+chunkChars-1)/chunkChars)
	for start := 0; start < len(runes); start += chunkChars {
		end := start + chunkChars
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}
