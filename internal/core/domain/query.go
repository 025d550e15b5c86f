package domain

import "strings"

type Intent string

const (
	IntentProductInquiry Intent = "product_inquiry"
	IntentPriceCheck     Intent = "price_check"
	IntentAvailability   Intent = "availability"
	IntentPolicy         Intent = "policy"
	IntentSupport        Intent = "support"
	IntentService        Intent = "service"
	IntentComparison     Intent = "comparison"
	IntentRecommendation Intent = "recommendation"
	IntentGreeting       Intent = "greeting"
	IntentGeneral        Intent = "general"
)

var knownIntents = map[Intent]struct{}{
	IntentProductInquiry: {},
	IntentPriceCheck:     {},
	IntentAvailability:   {},
	IntentPolicy:         {},
	IntentSupport:        {},
	IntentService:        {},
	IntentComparison:     {},
	IntentRecommendation: {},
	IntentGreeting:       {},
	IntentGeneral:        {},
}

// NormalizeIntent maps arbitrary model output onto the closed intent set.
func NormalizeIntent(raw string) Intent {
	intent := Intent(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := knownIntents[intent]; ok {
		return intent
	}
	return IntentGeneral
}

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

type TurnRole string

const (
	RoleUser      TurnRole = "user"
	RoleAssistant TurnRole = "assistant"
)

// Turn is one stored message of a conversation, supplied and persisted by
// the session collaborator.
type Turn struct {
	Role    TurnRole `json:"role"`
	Content string   `json:"content"`
}

// Query is the immutable inbound request the pipeline operates on.
type Query struct {
	SessionID    string
	Text         string
	LanguageHint Language
	History      []Turn
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type Entities struct {
	Products   []string    `json:"products"`
	Brands     []string    `json:"brands"`
	Categories []string    `json:"categories"`
	Services   []string    `json:"services"`
	StoreInfo  []string    `json:"store_info_topics"`
	PriceRange *PriceRange `json:"price_range,omitempty"`
}

// QueryAnalysis is produced once per query by the analyzer and never mutated.
// Language is always a concrete supported language, never "auto".
type QueryAnalysis struct {
	Intent               Intent     `json:"intent"`
	Entities             Entities   `json:"entities"`
	Language             Language   `json:"language"`
	Urgency              Urgency    `json:"urgency"`
	Complexity           Complexity `json:"complexity"`
	RequiresRealTimeData bool       `json:"requires_real_time_data"`
}

// AnalysisResult is the tagged outcome of query analysis: either the model
// output parsed cleanly, or the exhaustively-filled default analysis.
type AnalysisResult struct {
	Analysis  QueryAnalysis
	Defaulted bool
}

// DefaultAnalysis is the analyzer's own error boundary: the fixed record
// returned whenever the model call or JSON parse fails.
func DefaultAnalysis(language Language) QueryAnalysis {
	if !language.Supported() {
		language = LanguageEnglish
	}
	return QueryAnalysis{
		Intent:               IntentGeneral,
		Entities:             Entities{},
		Language:             language,
		Urgency:              UrgencyMedium,
		Complexity:           ComplexitySimple,
		RequiresRealTimeData: true,
	}
}
