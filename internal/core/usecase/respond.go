package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/techmart/store-assistant/internal/core/domain"
	"github.com/techmart/store-assistant/internal/core/ports"
	"github.com/techmart/store-assistant/internal/core/prompt"
)

const (
	defaultRetrievalTimeout = 5 * time.Second
	streamEventBuffer       = 16
)

// AssistantService is the top-level orchestrator: analyze, fan out the two
// retrievers, assemble, generate, score. It is the pipeline's outermost
// error boundary; Respond never returns an error, fatal failures surface as
// the localized fallback answer.
type AssistantService struct {
	analyzer  *QueryAnalyzer
	catalog   *CatalogRetriever
	vector    *VectorRetriever
	assembler *ContextAssembler
	generator *ResponseGenerator
	scorer    *ConfidenceScorer
	prompts   *prompt.Catalog
	sessions  ports.SessionStore
	analytics ports.AnalyticsPublisher

	retrievalTimeout time.Duration
	historyLimit     int
}

var _ ports.Assistant = (*AssistantService)(nil)
var _ ports.SuggestionProvider = (*AssistantService)(nil)

func NewAssistantService(
	analyzer *QueryAnalyzer,
	catalog *CatalogRetriever,
	vector *VectorRetriever,
	assembler *ContextAssembler,
	generator *ResponseGenerator,
	scorer *ConfidenceScorer,
	prompts *prompt.Catalog,
	sessions ports.SessionStore,
	analytics ports.AnalyticsPublisher,
) *AssistantService {
	return &AssistantService{
		analyzer:         analyzer,
		catalog:          catalog,
		vector:           vector,
		assembler:        assembler,
		generator:        generator,
		scorer:           scorer,
		prompts:          prompts,
		sessions:         sessions,
		analytics:        analytics,
		retrievalTimeout: defaultRetrievalTimeout,
		historyLimit:     defaultHistoryTurns,
	}
}

// pipelineRun carries the intermediate state of one request so the single
// shot and streaming variants share preparation and bookkeeping.
type pipelineRun struct {
	sessionID    string
	question     string
	analysis     domain.QueryAnalysis
	catalog      domain.CatalogResult
	unstructured domain.UnstructuredResult
	contextText  string
	startedAt    time.Time
}

func (s *AssistantService) Respond(ctx context.Context, query domain.Query) *domain.GeneratedAnswer {
	run := s.prepare(ctx, query)

	generation, err := s.generator.Generate(ctx, run.question, run.analysis, run.contextText)
	if err != nil {
		slog.Error("answer_generation_failed", "session_id", run.sessionID, "error", err)
		answer := s.fallback(run.analysis.Language, errorType(err))
		s.finish(ctx, run, answer)
		return answer
	}

	answer := s.buildAnswer(run, generation)
	s.finish(ctx, run, answer)
	return answer
}

func (s *AssistantService) RespondStream(ctx context.Context, query domain.Query) <-chan domain.StreamEvent {
	out := make(chan domain.StreamEvent, streamEventBuffer)

	go func() {
		defer close(out)

		run := s.prepare(ctx, query)
		if !send(ctx, out, domain.StreamEvent{Type: domain.EventSession, SessionID: run.sessionID}) {
			return
		}

		generation, err := s.generator.GenerateStream(ctx, run.question, run.analysis, run.contextText, func(token string) error {
			if !send(ctx, out, domain.StreamEvent{Type: domain.EventToken, Token: token}) {
				return ctx.Err()
			}
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				// Consumer is gone; nobody is reading a terminal event.
				return
			}
			slog.Error("answer_stream_failed", "session_id", run.sessionID, "error", err)
			answer := s.fallback(run.analysis.Language, errorType(err))
			s.finish(ctx, run, answer)
			send(ctx, out, domain.StreamEvent{Type: domain.EventError, Message: answer.Text})
			return
		}

		answer := s.buildAnswer(run, generation)
		s.finish(ctx, run, answer)
		if !send(ctx, out, domain.StreamEvent{Type: domain.EventComplete, Answer: answer}) {
			return
		}
		send(ctx, out, domain.StreamEvent{Type: domain.EventDone})
	}()

	return out
}

// Suggestions implements ports.SuggestionProvider.
func (s *AssistantService) Suggestions(language domain.Language) []string {
	return s.prompts.Suggestions(language)
}

func send(ctx context.Context, out chan<- domain.StreamEvent, event domain.StreamEvent) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- event:
		return true
	}
}

// prepare runs everything up to generation: session resolution, analysis,
// the concurrent retrieval fan-out and context assembly. Each stage degrades
// independently; prepare never fails.
func (s *AssistantService) prepare(ctx context.Context, query domain.Query) pipelineRun {
	run := pipelineRun{
		sessionID: query.SessionID,
		question:  query.Text,
		startedAt: time.Now(),
	}
	if run.sessionID == "" {
		run.sessionID = uuid.NewString()
	}

	hint := query.LanguageHint
	if !hint.Supported() {
		if preferred, err := s.sessions.PreferredLanguage(ctx, run.sessionID); err == nil && preferred.Supported() {
			hint = preferred
		}
	}

	result := s.analyzer.Analyze(ctx, run.question, hint)
	run.analysis = result.Analysis
	if result.Defaulted {
		slog.Info("query_analysis_defaulted", "session_id", run.sessionID)
	}

	if err := s.sessions.EnsureSession(ctx, run.sessionID, run.analysis.Language); err != nil {
		slog.Warn("session_ensure_failed", "session_id", run.sessionID, "error", err)
	}

	history := query.History
	if len(history) == 0 {
		stored, err := s.sessions.RecentTurns(ctx, run.sessionID, s.historyLimit)
		if err != nil {
			slog.Warn("session_history_skipped", "session_id", run.sessionID, "error", err)
		} else {
			history = stored
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		stageCtx, cancel := context.WithTimeout(ctx, s.retrievalTimeout)
		defer cancel()
		run.catalog = s.catalog.Retrieve(stageCtx, run.question, run.analysis)
	}()
	go func() {
		defer wg.Done()
		stageCtx, cancel := context.WithTimeout(ctx, s.retrievalTimeout)
		defer cancel()
		run.unstructured = s.vector.Retrieve(stageCtx, run.question, run.analysis)
	}()
	wg.Wait()

	run.contextText = s.assembler.Assemble(run.analysis.Language, run.catalog, run.unstructured, history)
	return run
}

func (s *AssistantService) buildAnswer(run pipelineRun, generation Generation) *domain.GeneratedAnswer {
	confidence := s.scorer.Score(run.analysis, run.catalog, run.unstructured, generation.Text)

	return &domain.GeneratedAnswer{
		Text:       generation.Text,
		Language:   run.analysis.Language,
		Sources:    run.unstructured.Sources,
		Confidence: confidence,
		Metadata: domain.AnswerMetadata{
			Intent:        run.analysis.Intent,
			Complexity:    run.analysis.Complexity,
			Urgency:       run.analysis.Urgency,
			ProductsFound: len(run.catalog.Products),
			ServicesFound: len(run.catalog.Services),
			ContextChunks: len(run.unstructured.Chunks),
			DataSources: domain.DataSources{
				Structured:   !run.catalog.Empty(),
				Unstructured: len(run.unstructured.Chunks) > 0,
			},
			LanguageCorrected:    generation.Corrected,
			ProcessingSuccessful: true,
		},
	}
}

func (s *AssistantService) fallback(language domain.Language, errType string) *domain.GeneratedAnswer {
	if !language.Supported() {
		language = domain.LanguageEnglish
	}
	return &domain.GeneratedAnswer{
		Text:       s.prompts.Fallback(language),
		Language:   language,
		Sources:    nil,
		Confidence: domain.ConfidenceFloor,
		Metadata: domain.AnswerMetadata{
			ProcessingSuccessful: false,
			ErrorType:            errType,
		},
	}
}

// finish persists the exchange and publishes the analytics record. All of
// it is best effort; the answer is already decided.
func (s *AssistantService) finish(ctx context.Context, run pipelineRun, answer *domain.GeneratedAnswer) {
	if err := s.sessions.AppendTurn(ctx, run.sessionID, domain.Turn{Role: domain.RoleUser, Content: run.question}); err != nil {
		slog.Warn("session_turn_skipped", "session_id", run.sessionID, "role", domain.RoleUser, "error", err)
	}
	if err := s.sessions.AppendTurn(ctx, run.sessionID, domain.Turn{Role: domain.RoleAssistant, Content: answer.Text}); err != nil {
		slog.Warn("session_turn_skipped", "session_id", run.sessionID, "role", domain.RoleAssistant, "error", err)
	}
	if err := s.sessions.UpdatePreferredLanguage(ctx, run.sessionID, answer.Language); err != nil {
		slog.Warn("session_language_skipped", "session_id", run.sessionID, "error", err)
	}

	record := domain.QueryAnalytics{
		ID:                 uuid.NewString(),
		SessionID:          run.sessionID,
		Query:              run.question,
		Intent:             run.analysis.Intent,
		Language:           answer.Language,
		ProductsFound:      len(run.catalog.Products),
		ServicesFound:      len(run.catalog.Services),
		ChunksUsed:         len(run.unstructured.Chunks),
		TopSimilarity:      topSimilarity(run.unstructured.Chunks),
		Confidence:         answer.Confidence,
		LanguageCorrected:  answer.Metadata.LanguageCorrected,
		ResponseTimeMillis: time.Since(run.startedAt).Milliseconds(),
		CreatedAt:          time.Now().UTC(),
	}
	if err := s.analytics.PublishQueryAnalytics(ctx, record); err != nil {
		slog.Warn("analytics_publish_skipped", "session_id", run.sessionID, "error", err)
	}
}

func topSimilarity(chunks []domain.RetrievedChunk) float64 {
	var top float64
	for _, chunk := range chunks {
		if chunk.Score > top {
			top = chunk.Score
		}
	}
	return top
}

func errorType(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrGenerationFailure):
		return "generation_failure"
	case domain.IsKind(err, domain.ErrRetrievalUnavailable):
		return "retrieval_unavailable"
	case domain.IsKind(err, domain.ErrTemporary):
		return "temporary"
	default:
		return "internal"
	}
}
