package domain

import "time"

// QueryAnalytics captures one processed request for offline analysis.
// Records are published to the queue by the API process and persisted by
// the worker; losing one is acceptable, blocking a response on one is not.
type QueryAnalytics struct {
	ID                 string    `json:"id"`
	SessionID          string    `json:"session_id"`
	Query              string    `json:"query"`
	Intent             Intent    `json:"intent"`
	Language           Language  `json:"language"`
	ProductsFound      int       `json:"products_found"`
	ServicesFound      int       `json:"services_found"`
	ChunksUsed         int       `json:"chunks_used"`
	TopSimilarity      float64   `json:"top_similarity"`
	Confidence         float64   `json:"confidence"`
	LanguageCorrected  bool      `json:"language_corrected"`
	ResponseTimeMillis int64     `json:"response_time_ms"`
	CreatedAt          time.Time `json:"created_at"`
}
