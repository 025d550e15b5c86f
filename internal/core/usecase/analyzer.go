package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/techmart/store-assistant/internal/core/domain"
	"github.com/techmart/store-assistant/internal/core/language"
	"github.com/techmart/store-assistant/internal/core/ports"
	"github.com/techmart/store-assistant/internal/core/prompt"
)

// QueryAnalyzer turns free text into a structured analysis record with one
// model call. It is its own error boundary: any model or parse failure
// yields the tagged default analysis, never an error.
type QueryAnalyzer struct {
	model      ports.ChatModel
	prompts    *prompt.Catalog
	classifier *language.Classifier
}

func NewQueryAnalyzer(model ports.ChatModel, prompts *prompt.Catalog, classifier *language.Classifier) *QueryAnalyzer {
	return &QueryAnalyzer{
		model:      model,
		prompts:    prompts,
		classifier: classifier,
	}
}

// rawAnalysis mirrors the JSON shape the model is instructed to produce.
type rawAnalysis struct {
	Intent   string `json:"intent"`
	Entities struct {
		Products   []string           `json:"products"`
		Brands     []string           `json:"brands"`
		Categories []string           `json:"categories"`
		Services   []string           `json:"services"`
		StoreInfo  []string           `json:"store_info_topics"`
		PriceRange *domain.PriceRange `json:"price_range"`
	} `json:"entities"`
	Urgency              string `json:"urgency"`
	Complexity           string `json:"complexity"`
	RequiresRealTimeData bool   `json:"requires_real_time_data"`
}

func (a *QueryAnalyzer) Analyze(ctx context.Context, text string, hint domain.Language) domain.AnalysisResult {
	resolved := a.classifier.Resolve(text, hint)

	raw, err := a.model.Complete(ctx, "", a.prompts.AnalysisPrompt(text), ports.GenerationOptions{
		MaxTokens:   300,
		Temperature: 0.1,
		JSONMode:    true,
	})
	if err != nil {
		slog.Warn("query_analysis_fallback", "reason", "model_call", "error", err)
		return domain.AnalysisResult{Analysis: domain.DefaultAnalysis(resolved), Defaulted: true}
	}

	parsed, err := parseAnalysis(raw)
	if err != nil {
		slog.Warn("query_analysis_fallback", "reason", "parse", "error", domain.WrapError(domain.ErrAnalysisParse, "analyze query", err))
		return domain.AnalysisResult{Analysis: domain.DefaultAnalysis(resolved), Defaulted: true}
	}

	parsed.Language = resolved
	return domain.AnalysisResult{Analysis: parsed}
}

func parseAnalysis(raw string) (domain.QueryAnalysis, error) {
	var parsed rawAnalysis
	if err := json.Unmarshal([]byte(extractJSONObject(stripCodeFences(raw))), &parsed); err != nil {
		return domain.QueryAnalysis{}, err
	}

	analysis := domain.QueryAnalysis{
		Intent: domain.NormalizeIntent(parsed.Intent),
		Entities: domain.Entities{
			Products:   cleanTerms(parsed.Entities.Products),
			Brands:     cleanTerms(parsed.Entities.Brands),
			Categories: cleanTerms(parsed.Entities.Categories),
			Services:   cleanTerms(parsed.Entities.Services),
			StoreInfo:  cleanTerms(parsed.Entities.StoreInfo),
			PriceRange: parsed.Entities.PriceRange,
		},
		Urgency:              normalizeUrgency(parsed.Urgency),
		Complexity:           normalizeComplexity(parsed.Complexity),
		RequiresRealTimeData: parsed.RequiresRealTimeData,
	}
	return analysis, nil
}

func normalizeUrgency(raw string) domain.Urgency {
	switch domain.Urgency(strings.ToLower(strings.TrimSpace(raw))) {
	case domain.UrgencyLow:
		return domain.UrgencyLow
	case domain.UrgencyHigh:
		return domain.UrgencyHigh
	default:
		return domain.UrgencyMedium
	}
}

func normalizeComplexity(raw string) domain.Complexity {
	switch domain.Complexity(strings.ToLower(strings.TrimSpace(raw))) {
	case domain.ComplexityModerate:
		return domain.ComplexityModerate
	case domain.ComplexityComplex:
		return domain.ComplexityComplex
	default:
		return domain.ComplexitySimple
	}
}

func cleanTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		key := strings.ToLower(term)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, term)
	}
	return out
}

// stripCodeFences removes a markdown fence wrapper some models add despite
// the instructions.
func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
