package usecase

import (
	"strings"

	"github.com/techmart/store-assistant/internal/core/domain"
)

// ConfidenceScorer is a pure weighted function over retrieval yield,
// retrieval quality, query complexity and answer text. Total over every
// combination of empty and non-empty inputs.
type ConfidenceScorer struct{}

func NewConfidenceScorer() *ConfidenceScorer { return &ConfidenceScorer{} }

const (
	confidenceBase         = 0.20
	productsBonus          = 0.25
	servicesBonus          = 0.15
	storeInfoBonus         = 0.10
	chunkQualityCeiling    = 0.35
	chunkQualityWeight     = 0.40
	simpleComplexityBonus  = 0.05
	complexComplexityMalus = 0.05
	productIntentBonus     = 0.10
	policyIntentBonus      = 0.08
	currencyTextBonus      = 0.03
	availabilityTextBonus  = 0.02
	longAnswerMinLength    = 120
)

var currencyMarkers = []string{"JOD", "دينار", "Dinar"}

var availabilityWords = []string{
	"in stock", "available", "availability", "warranty",
	"متوفر", "التوفر", "ضمان", "الضمان",
}

func (s *ConfidenceScorer) Score(analysis domain.QueryAnalysis, catalog domain.CatalogResult, unstructured domain.UnstructuredResult, answerText string) float64 {
	score := confidenceBase

	if len(catalog.Products) > 0 {
		score += productsBonus
	}
	if len(catalog.Services) > 0 {
		score += servicesBonus
	}
	if catalog.StoreInfo != nil {
		score += storeInfoBonus
	}

	if len(unstructured.Chunks) > 0 {
		quality := unstructured.MeanScore * chunkQualityWeight
		if quality > chunkQualityCeiling {
			quality = chunkQualityCeiling
		}
		score += quality
	}

	switch analysis.Complexity {
	case domain.ComplexitySimple:
		score += simpleComplexityBonus
	case domain.ComplexityComplex:
		score -= complexComplexityMalus
	}

	switch analysis.Intent {
	case domain.IntentProductInquiry, domain.IntentPriceCheck, domain.IntentAvailability:
		if len(catalog.Products) > 0 {
			score += productIntentBonus
		}
	case domain.IntentPolicy:
		if len(unstructured.Chunks) > 0 {
			score += policyIntentBonus
		}
	}

	if len(answerText) >= longAnswerMinLength && containsAny(answerText, currencyMarkers) {
		score += currencyTextBonus
	}
	if containsAny(strings.ToLower(answerText), availabilityWords) {
		score += availabilityTextBonus
	}

	return clampConfidence(score)
}

func clampConfidence(score float64) float64 {
	if score < domain.ConfidenceFloor {
		return domain.ConfidenceFloor
	}
	if score > domain.ConfidenceCeiling {
		return domain.ConfidenceCeiling
	}
	return score
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
