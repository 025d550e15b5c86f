package usecase

import (
	"math"
	"strings"
	"testing"

	"github.com/techmart/store-assistant/internal/core/domain"
)

func TestScoreEmptyRetrievalSimpleQuery(t *testing.T) {
	s := NewConfidenceScorer()

	got := s.Score(domain.QueryAnalysis{Complexity: domain.ComplexitySimple}, domain.CatalogResult{}, domain.UnstructuredResult{}, "short answer")
	want := confidenceBase + simpleComplexityBonus
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("score = %f, want %f (base plus complexity bonus only)", got, want)
	}
}

func TestScoreProductsWithSimpleComplexityReachesHalf(t *testing.T) {
	s := NewConfidenceScorer()

	catalog := domain.CatalogResult{Products: []domain.ProductRecord{{Name: "iPhone 15 Pro Max"}}}
	got := s.Score(domain.QueryAnalysis{Complexity: domain.ComplexitySimple}, catalog, domain.UnstructuredResult{}, "")
	if got < 0.50 {
		t.Fatalf("score = %f, want >= 0.50 with products and simple complexity", got)
	}
}

func TestScoreChunkQualityIsBounded(t *testing.T) {
	s := NewConfidenceScorer()

	unstructured := domain.UnstructuredResult{
		Chunks:    []domain.RetrievedChunk{{Score: 1.0}},
		MeanScore: 1.0,
	}
	base := s.Score(domain.QueryAnalysis{Complexity: domain.ComplexityModerate}, domain.CatalogResult{}, domain.UnstructuredResult{}, "")
	withChunks := s.Score(domain.QueryAnalysis{Complexity: domain.ComplexityModerate}, domain.CatalogResult{}, unstructured, "")
	if delta := withChunks - base; delta > chunkQualityCeiling+1e-9 {
		t.Fatalf("chunk quality term = %f, ceiling is %f", delta, chunkQualityCeiling)
	}
}

func TestScoreIntentBonuses(t *testing.T) {
	s := NewConfidenceScorer()
	catalog := domain.CatalogResult{Products: []domain.ProductRecord{{Name: "x"}}}
	chunks := domain.UnstructuredResult{Chunks: []domain.RetrievedChunk{{Score: 0.8}}, MeanScore: 0.8}

	without := s.Score(domain.QueryAnalysis{Intent: domain.IntentGeneral, Complexity: domain.ComplexityModerate}, catalog, domain.UnstructuredResult{}, "")
	with := s.Score(domain.QueryAnalysis{Intent: domain.IntentPriceCheck, Complexity: domain.ComplexityModerate}, catalog, domain.UnstructuredResult{}, "")
	if math.Abs((with-without)-productIntentBonus) > 1e-9 {
		t.Fatalf("price intent with products bonus = %f, want %f", with-without, productIntentBonus)
	}

	// The product-intent bonus requires products.
	with = s.Score(domain.QueryAnalysis{Intent: domain.IntentPriceCheck, Complexity: domain.ComplexityModerate}, domain.CatalogResult{}, domain.UnstructuredResult{}, "")
	without = s.Score(domain.QueryAnalysis{Intent: domain.IntentGeneral, Complexity: domain.ComplexityModerate}, domain.CatalogResult{}, domain.UnstructuredResult{}, "")
	if with != without {
		t.Fatalf("price intent without products must add nothing")
	}

	without = s.Score(domain.QueryAnalysis{Intent: domain.IntentGeneral, Complexity: domain.ComplexityModerate}, domain.CatalogResult{}, chunks, "")
	with = s.Score(domain.QueryAnalysis{Intent: domain.IntentPolicy, Complexity: domain.ComplexityModerate}, domain.CatalogResult{}, chunks, "")
	if math.Abs((with-without)-policyIntentBonus) > 1e-9 {
		t.Fatalf("policy intent with chunks bonus = %f, want %f", with-without, policyIntentBonus)
	}
}

func TestScoreTextBonuses(t *testing.T) {
	s := NewConfidenceScorer()
	analysis := domain.QueryAnalysis{Complexity: domain.ComplexityModerate}

	longPricedAnswer := strings.Repeat("The iPhone 15 costs 999.00 JOD. ", 5)
	plain := s.Score(analysis, domain.CatalogResult{}, domain.UnstructuredResult{}, "")
	priced := s.Score(analysis, domain.CatalogResult{}, domain.UnstructuredResult{}, longPricedAnswer)
	if math.Abs((priced-plain)-currencyTextBonus) > 1e-9 {
		t.Fatalf("currency bonus = %f, want %f", priced-plain, currencyTextBonus)
	}

	// Short answers do not earn the currency bonus.
	shortPriced := s.Score(analysis, domain.CatalogResult{}, domain.UnstructuredResult{}, "999 JOD")
	if shortPriced != plain {
		t.Fatalf("short answer must not earn the currency bonus")
	}

	stocked := s.Score(analysis, domain.CatalogResult{}, domain.UnstructuredResult{}, "It is in stock today.")
	if math.Abs((stocked-plain)-availabilityTextBonus) > 1e-9 {
		t.Fatalf("availability bonus = %f, want %f", stocked-plain, availabilityTextBonus)
	}
}

func TestScoreAlwaysWithinBounds(t *testing.T) {
	s := NewConfidenceScorer()

	catalogs := []domain.CatalogResult{
		{},
		{Products: []domain.ProductRecord{{Name: "p"}}},
		{
			Products:  []domain.ProductRecord{{Name: "p"}},
			Services:  []domain.ServiceRecord{{Name: "s"}},
			StoreInfo: &domain.StoreRecord{},
		},
	}
	retrievals := []domain.UnstructuredResult{
		{},
		{Chunks: []domain.RetrievedChunk{{Score: 1.0}}, MeanScore: 1.0},
	}
	answers := []string{
		"",
		strings.Repeat("Everything is available with a 24 month warranty for 999 JOD. ", 10),
	}
	for _, intent := range []domain.Intent{domain.IntentPriceCheck, domain.IntentPolicy, domain.IntentGeneral} {
		for _, complexity := range []domain.Complexity{domain.ComplexitySimple, domain.ComplexityModerate, domain.ComplexityComplex} {
			for _, catalog := range catalogs {
				for _, retrieval := range retrievals {
					for _, answer := range answers {
						got := s.Score(domain.QueryAnalysis{Intent: intent, Complexity: complexity}, catalog, retrieval, answer)
						if got < domain.ConfidenceFloor || got > domain.ConfidenceCeiling {
							t.Fatalf("score %f out of [%f, %f]", got, domain.ConfidenceFloor, domain.ConfidenceCeiling)
						}
					}
				}
			}
		}
	}
}
