package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/techmart/store-assistant/internal/core/domain"
	"github.com/techmart/store-assistant/internal/core/language"
	"github.com/techmart/store-assistant/internal/core/prompt"
)

type fakeSessionStore struct {
	mu        sync.Mutex
	preferred map[string]domain.Language
	turns     map[string][]domain.Turn
	ensureErr error
	turnsErr  error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		preferred: make(map[string]domain.Language),
		turns:     make(map[string][]domain.Turn),
	}
}

func (f *fakeSessionStore) EnsureSession(_ context.Context, sessionID string, lang domain.Language) error {
	if f.ensureErr != nil {
		return f.ensureErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.preferred[sessionID]; !ok {
		f.preferred[sessionID] = lang
	}
	return nil
}

func (f *fakeSessionStore) PreferredLanguage(_ context.Context, sessionID string) (domain.Language, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lang, ok := f.preferred[sessionID]
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	return lang, nil
}

func (f *fakeSessionStore) UpdatePreferredLanguage(_ context.Context, sessionID string, lang domain.Language) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.preferred[sessionID] = lang
	return nil
}

func (f *fakeSessionStore) RecentTurns(_ context.Context, sessionID string, limit int) ([]domain.Turn, error) {
	if f.turnsErr != nil {
		return nil, f.turnsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	turns := f.turns[sessionID]
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return append([]domain.Turn(nil), turns...), nil
}

func (f *fakeSessionStore) AppendTurn(_ context.Context, sessionID string, turn domain.Turn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns[sessionID] = append(f.turns[sessionID], turn)
	return nil
}

type fakePublisher struct {
	mu      sync.Mutex
	records []domain.QueryAnalytics
	err     error
}

func (f *fakePublisher) PublishQueryAnalytics(_ context.Context, record domain.QueryAnalytics) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return nil
}

type serviceFixture struct {
	service  *AssistantService
	model    *fakeChatModel
	catalog  *fakeCatalogStore
	searcher *fakeSearcher
	sessions *fakeSessionStore
	events   *fakePublisher
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	profile, err := prompt.LoadProfile()
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	prompts := prompt.NewCatalog(profile)
	classifier := language.NewClassifier()

	f := &serviceFixture{
		model:    &fakeChatModel{},
		catalog:  &fakeCatalogStore{},
		searcher: &fakeSearcher{},
		sessions: newFakeSessionStore(),
		events:   &fakePublisher{},
	}
	f.service = NewAssistantService(
		NewQueryAnalyzer(f.model, prompts, classifier),
		NewCatalogRetriever(f.catalog),
		NewVectorRetriever(&fakeEmbedder{vector: []float32{0.1}}, f.searcher),
		NewContextAssembler(),
		NewResponseGenerator(f.model, prompts, classifier),
		NewConfidenceScorer(),
		prompts,
		f.sessions,
		f.events,
	)
	return f
}

const priceQuestion = "What's the price of iPhone 15?"

func priceAnalysisJSON() string {
	return `{"intent": "price_check", "entities": {"products": ["iPhone 15"]}, "urgency": "medium", "complexity": "simple"}`
}

func TestRespondHappyPath(t *testing.T) {
	f := newServiceFixture(t)
	f.model.responses = []string{
		priceAnalysisJSON(),
		"The iPhone 15 Pro Max is in stock for 999.00 JOD with a 12 month warranty included today.",
	}
	f.catalog.products = []domain.ProductRecord{{SKU: "P-1", Name: "iPhone 15 Pro Max", Price: 999}}
	f.searcher.hits = []domain.RetrievedChunk{{Text: longChunk("warranty policy"), Source: "policies.md", Score: 0.82}}

	answer := f.service.Respond(context.Background(), domain.Query{SessionID: "s-1", Text: priceQuestion})

	if !answer.Metadata.ProcessingSuccessful {
		t.Fatalf("expected success, got %+v", answer.Metadata)
	}
	if answer.Confidence <= 0.5 {
		t.Fatalf("confidence = %f, want > 0.5 with products found", answer.Confidence)
	}
	if !strings.Contains(answer.Text, "JOD") {
		t.Fatalf("answer missing currency marker: %q", answer.Text)
	}
	if !answer.Metadata.DataSources.Structured || !answer.Metadata.DataSources.Unstructured {
		t.Fatalf("data source flags wrong: %+v", answer.Metadata.DataSources)
	}
	if len(answer.Sources) != 1 || answer.Sources[0] != "policies.md" {
		t.Fatalf("sources = %v", answer.Sources)
	}

	turns := f.sessions.turns["s-1"]
	if len(turns) != 2 || turns[0].Role != domain.RoleUser || turns[1].Role != domain.RoleAssistant {
		t.Fatalf("session turns not persisted: %+v", turns)
	}
	if len(f.events.records) != 1 {
		t.Fatalf("analytics records = %d, want 1", len(f.events.records))
	}
	record := f.events.records[0]
	if record.Intent != domain.IntentPriceCheck || record.ProductsFound != 1 || record.TopSimilarity != 0.82 {
		t.Fatalf("analytics record wrong: %+v", record)
	}
}

func TestRespondGenerationFailureYieldsFallback(t *testing.T) {
	f := newServiceFixture(t)
	f.model.responses = []string{priceAnalysisJSON()}
	f.model.err = nil
	// First call consumes the analysis response; the generation call then
	// hits the exhausted responses slice, so force an error instead.
	f.model.responses = nil
	f.model.err = errors.New("model down")

	answer := f.service.Respond(context.Background(), domain.Query{SessionID: "s-2", Text: priceQuestion})

	if answer.Metadata.ProcessingSuccessful {
		t.Fatalf("fatal generation failure must not report success")
	}
	if answer.Confidence != domain.ConfidenceFloor {
		t.Fatalf("confidence = %f, want floor %f", answer.Confidence, domain.ConfidenceFloor)
	}
	if answer.Metadata.ErrorType != "generation_failure" {
		t.Fatalf("error_type = %q", answer.Metadata.ErrorType)
	}
	if !strings.Contains(answer.Text, "+970") {
		t.Fatalf("fallback must carry contact info: %q", answer.Text)
	}
}

func TestRespondRetrievalFailuresDegradeNotAbort(t *testing.T) {
	f := newServiceFixture(t)
	f.model.responses = []string{
		priceAnalysisJSON(),
		"I could not find that product, please contact the store.",
	}
	f.catalog.productsErr = errors.New("postgres down")
	f.searcher.err = errors.New("index down")

	answer := f.service.Respond(context.Background(), domain.Query{SessionID: "s-3", Text: priceQuestion})

	if !answer.Metadata.ProcessingSuccessful {
		t.Fatalf("retrieval failures must degrade to empty, not abort: %+v", answer.Metadata)
	}
	if answer.Metadata.DataSources.Structured || answer.Metadata.DataSources.Unstructured {
		t.Fatalf("no data source should be flagged: %+v", answer.Metadata.DataSources)
	}
}

func TestRespondGeneratesSessionIDWhenMissing(t *testing.T) {
	f := newServiceFixture(t)
	f.model.responses = []string{priceAnalysisJSON(), "answer text"}

	f.service.Respond(context.Background(), domain.Query{Text: priceQuestion})

	if len(f.events.records) != 1 || f.events.records[0].SessionID == "" {
		t.Fatalf("missing session id must be generated")
	}
}

func TestRespondUsesPreferredLanguageAsHint(t *testing.T) {
	f := newServiceFixture(t)
	f.sessions.preferred["s-5"] = domain.LanguageArabic
	f.model.responses = []string{
		`{"intent": "greeting", "urgency": "low", "complexity": "simple"}`,
		arabicAnswer,
	}

	answer := f.service.Respond(context.Background(), domain.Query{SessionID: "s-5", Text: "hello"})
	if answer.Language != domain.LanguageArabic {
		t.Fatalf("stored preference must act as hint, got %s", answer.Language)
	}
}

func TestRespondStreamEventOrdering(t *testing.T) {
	f := newServiceFixture(t)
	f.model.responses = []string{priceAnalysisJSON()}
	f.model.streamText = []string{"The price ", "is 999 JOD."}

	var events []domain.StreamEvent
	for event := range f.service.RespondStream(context.Background(), domain.Query{SessionID: "s-6", Text: priceQuestion}) {
		events = append(events, event)
	}

	if len(events) < 4 {
		t.Fatalf("events = %d, want session+tokens+complete+done", len(events))
	}
	if events[0].Type != domain.EventSession || events[0].SessionID != "s-6" {
		t.Fatalf("first event must be session: %+v", events[0])
	}
	var text string
	for _, event := range events[1 : len(events)-2] {
		if event.Type != domain.EventToken {
			t.Fatalf("middle events must be tokens: %+v", event)
		}
		text += event.Token
	}
	complete := events[len(events)-2]
	if complete.Type != domain.EventComplete || complete.Answer == nil {
		t.Fatalf("penultimate event must be complete with answer: %+v", complete)
	}
	if complete.Answer.Text != text {
		t.Fatalf("complete text %q != streamed text %q", complete.Answer.Text, text)
	}
	if events[len(events)-1].Type != domain.EventDone {
		t.Fatalf("last event must be done: %+v", events[len(events)-1])
	}
}

func TestRespondStreamErrorTerminatesWithoutDone(t *testing.T) {
	f := newServiceFixture(t)
	f.model.responses = []string{priceAnalysisJSON()}
	f.model.streamErr = errors.New("model stream broke")

	var events []domain.StreamEvent
	for event := range f.service.RespondStream(context.Background(), domain.Query{SessionID: "s-7", Text: priceQuestion}) {
		events = append(events, event)
	}

	last := events[len(events)-1]
	if last.Type != domain.EventError {
		t.Fatalf("stream must terminate with a single error event: %+v", events)
	}
	if last.Message == "" {
		t.Fatalf("error event must carry a localized message")
	}
	for _, event := range events {
		if event.Type == domain.EventDone {
			t.Fatalf("no done event may follow an error")
		}
	}
}

func TestRespondStreamStopsOnConsumerCancel(t *testing.T) {
	f := newServiceFixture(t)
	f.model.responses = []string{priceAnalysisJSON()}
	f.model.streamText = []string{"a", "b", "c"}

	ctx, cancel := context.WithCancel(context.Background())
	stream := f.service.RespondStream(ctx, domain.Query{SessionID: "s-8", Text: priceQuestion})

	<-stream // session event
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-stream:
			if !ok {
				return // channel closed, producer stopped
			}
		case <-deadline:
			t.Fatalf("producer did not stop after cancellation")
		}
	}
}

func TestRespondAnalyticsFailureDoesNotAffectAnswer(t *testing.T) {
	f := newServiceFixture(t)
	f.model.responses = []string{priceAnalysisJSON(), "fine answer"}
	f.events.err = errors.New("nats down")

	answer := f.service.Respond(context.Background(), domain.Query{SessionID: "s-9", Text: priceQuestion})
	if !answer.Metadata.ProcessingSuccessful {
		t.Fatalf("analytics publish failure must be absorbed")
	}
}
