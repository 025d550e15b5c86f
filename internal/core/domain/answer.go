package domain

// DataSources records which retrieval slices contributed to an answer.
type DataSources struct {
	Structured   bool `json:"structured"`
	Unstructured bool `json:"unstructured"`
}

type AnswerMetadata struct {
	Intent               Intent      `json:"intent"`
	Complexity           Complexity  `json:"complexity"`
	Urgency              Urgency     `json:"urgency"`
	ProductsFound        int         `json:"products_found"`
	ServicesFound        int         `json:"services_found"`
	ContextChunks        int         `json:"context_chunks"`
	DataSources          DataSources `json:"data_sources"`
	LanguageCorrected    bool        `json:"language_corrected,omitempty"`
	ProcessingSuccessful bool        `json:"processing_successful"`
	ErrorType            string      `json:"error_type,omitempty"`
}

const (
	// ConfidenceFloor and ConfidenceCeiling bound every returned confidence.
	ConfidenceFloor   = 0.15
	ConfidenceCeiling = 0.95
)

// GeneratedAnswer is the single response shape the pipeline returns, for
// successes and for the fallback path alike.
type GeneratedAnswer struct {
	Text       string         `json:"text"`
	Language   Language       `json:"language"`
	Sources    []string       `json:"sources"`
	Confidence float64        `json:"confidence"`
	Metadata   AnswerMetadata `json:"metadata"`
}

type StreamEventType string

const (
	EventSession  StreamEventType = "session"
	EventToken    StreamEventType = "token"
	EventComplete StreamEventType = "complete"
	EventDone     StreamEventType = "done"
	EventError    StreamEventType = "error"
)

// StreamEvent is the tagged union emitted by the streaming generator.
// Ordering contract: session first, then zero or more token events, then
// exactly one of complete+done or a single error.
type StreamEvent struct {
	Type      StreamEventType  `json:"type"`
	SessionID string           `json:"session_id,omitempty"`
	Token     string           `json:"token,omitempty"`
	Answer    *GeneratedAnswer `json:"answer,omitempty"`
	Message   string           `json:"message,omitempty"`
}
