package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/techmart/store-assistant/internal/core/domain"
	"github.com/techmart/store-assistant/internal/core/ports"
	"github.com/techmart/store-assistant/internal/observability/metrics"
)

const maxQuestionChars = 2000

// Options tune the adapter surface; zero values disable the corresponding
// middleware.
type Options struct {
	Service        string
	HistoryLimit   int
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	QueueWait      time.Duration
}

type Router struct {
	assistant   ports.Assistant
	suggestions ports.SuggestionProvider
	sessions    ports.SessionStore
	metrics     *metrics.HTTPServerMetrics
	opts        Options
}

func NewRouter(
	assistant ports.Assistant,
	suggestions ports.SuggestionProvider,
	sessions ports.SessionStore,
	m *metrics.HTTPServerMetrics,
	opts Options,
) *Router {
	if opts.Service == "" {
		opts.Service = "api"
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 50
	}
	if opts.QueueWait <= 0 {
		opts.QueueWait = 100 * time.Millisecond
	}
	return &Router{
		assistant:   assistant,
		suggestions: suggestions,
		sessions:    sessions,
		metrics:     m,
		opts:        opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.Handle("/metrics", rt.metrics.Handler())
	mux.HandleFunc("/v1/chat/message", rt.chatMessage)
	mux.HandleFunc("/v1/chat/stream", rt.chatStream)
	mux.HandleFunc("/v1/chat/history/", rt.chatHistory)
	mux.HandleFunc("/v1/chat/suggestions", rt.chatSuggestions)

	var handler http.Handler = mux
	handler = rt.metrics.Middleware(rt.opts.Service, handler)
	handler = backpressureMiddleware(handler, rt.opts.MaxInFlight, rt.opts.QueueWait)
	handler = rt.rateLimitMiddleware(handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
	Language  string `json:"language"`
}

type chatResponse struct {
	SessionID          string                  `json:"session_id"`
	Answer             *domain.GeneratedAnswer `json:"answer"`
	SuggestedQuestions []string                `json:"suggested_questions,omitempty"`
}

// parseChatRequest validates the shared request shape of the message and
// stream endpoints. firstContact reports that the caller carried no session.
func (rt *Router) parseChatRequest(r *http.Request) (domain.Query, bool, string) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return domain.Query{}, false, "invalid json"
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return domain.Query{}, false, "text is required"
	}
	if len(text) > maxQuestionChars {
		return domain.Query{}, false, "text is too long"
	}

	query := domain.Query{
		SessionID:    strings.TrimSpace(req.SessionID),
		Text:         text,
		LanguageHint: parseLanguage(req.Language),
	}
	firstContact := query.SessionID == ""
	if firstContact {
		query.SessionID = uuid.NewString()
	}
	return query, firstContact, ""
}

func (rt *Router) chatMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	query, firstContact, problem := rt.parseChatRequest(r)
	if problem != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": problem})
		return
	}

	started := time.Now()
	answer := rt.assistant.Respond(r.Context(), query)
	rt.recordAnswer("message", answer, time.Since(started))

	resp := chatResponse{
		SessionID: query.SessionID,
		Answer:    answer,
	}
	if firstContact {
		resp.SuggestedQuestions = rt.suggestions.Suggestions(answer.Language)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) chatStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	query, _, problem := rt.parseChatRequest(r)
	if problem != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": problem})
		return
	}

	stream, err := newSSEWriter(w)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	started := time.Now()
	for event := range rt.assistant.RespondStream(r.Context(), query) {
		rt.metrics.RecordStreamEvent(rt.opts.Service, string(event.Type))
		if event.Type == domain.EventComplete && event.Answer != nil {
			rt.recordAnswer("stream", event.Answer, time.Since(started))
		}
		if event.Type == domain.EventError {
			rt.metrics.RecordFallback(rt.opts.Service, "stream", "stream_error")
		}
		if err := stream.WriteEvent(event); err != nil {
			// Client went away; the producer observes ctx and stops.
			return
		}
	}
}

type historyResponse struct {
	SessionID string        `json:"session_id"`
	Turns     []domain.Turn `json:"turns"`
}

func (rt *Router) chatHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	sessionID := strings.TrimPrefix(r.URL.Path, "/v1/chat/history/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session id is required"})
		return
	}

	turns, err := rt.sessions.RecentTurns(r.Context(), sessionID, rt.opts.HistoryLimit)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": "could not load history"})
		return
	}
	if turns == nil {
		turns = []domain.Turn{}
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: sessionID, Turns: turns})
}

type suggestionsResponse struct {
	Language  domain.Language `json:"language"`
	Questions []string        `json:"questions"`
}

func (rt *Router) chatSuggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	language := parseLanguage(r.URL.Query().Get("language"))
	if !language.Supported() {
		language = domain.LanguageEnglish
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{
		Language:  language,
		Questions: rt.suggestions.Suggestions(language),
	})
}

func (rt *Router) recordAnswer(endpoint string, answer *domain.GeneratedAnswer, duration time.Duration) {
	if answer == nil {
		return
	}
	if !answer.Metadata.ProcessingSuccessful {
		rt.metrics.RecordFallback(rt.opts.Service, endpoint, answer.Metadata.ErrorType)
		return
	}
	rt.metrics.RecordAnswer(
		rt.opts.Service,
		endpoint,
		string(answer.Language),
		string(answer.Metadata.Intent),
		answer.Confidence,
		answer.Metadata.ContextChunks,
		duration,
	)
	if answer.Metadata.LanguageCorrected {
		rt.metrics.RecordLanguageCorrection(rt.opts.Service, endpoint, string(answer.Language))
	}
}

func parseLanguage(raw string) domain.Language {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "en", "english":
		return domain.LanguageEnglish
	case "ar", "arabic":
		return domain.LanguageArabic
	default:
		return domain.LanguageAuto
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
