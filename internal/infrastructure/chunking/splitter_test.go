package chunking

import (
	"strings"
	"testing"

	"github.com/techmart/store-assistant/internal/core/domain"
)

func TestSplitDocumentKeepsShortTextIntact(t *testing.T) {
	s := NewSplitter(100, 20)
	doc := domain.RetrievedChunk{
		ID:       "doc-1",
		Text:     "Returns accepted within 14 days with receipt.",
		Source:   "policies.pdf",
		Language: domain.LanguageEnglish,
	}

	parts := s.SplitDocument(doc)
	if len(parts) != 1 {
		t.Fatalf("parts = %d, want 1", len(parts))
	}
	if parts[0].ID != "doc-1" || parts[0].Text != doc.Text {
		t.Fatalf("part = %+v", parts[0])
	}
}

func TestSplitDocumentDerivesIDsAndKeepsMetadata(t *testing.T) {
	s := NewSplitter(50, 10)
	doc := domain.RetrievedChunk{
		ID:           "doc-2",
		Text:         strings.Repeat("warranty terms apply to all devices ", 10),
		Source:       "warranty.pdf",
		Language:     domain.LanguageEnglish,
		DocumentType: "policy",
	}

	parts := s.SplitDocument(doc)
	if len(parts) < 2 {
		t.Fatalf("parts = %d, want several", len(parts))
	}
	for i, part := range parts {
		if want := "doc-2#" + string(rune('0'+i)); i < 10 && part.ID != want {
			t.Fatalf("part %d id = %q, want %q", i, part.ID, want)
		}
		if part.Source != "warranty.pdf" || part.DocumentType != "policy" {
			t.Fatalf("part %d lost metadata: %+v", i, part)
		}
		if len([]rune(part.Text)) > 50 {
			t.Fatalf("part %d exceeds window: %d runes", i, len([]rune(part.Text)))
		}
	}
}

func TestSplitDocumentOverlapRepeatsBoundaryText(t *testing.T) {
	s := NewSplitter(20, 8)
	doc := domain.RetrievedChunk{ID: "doc-3", Text: "abcdefghijklmnopqrstuvwxyz0123456789"}

	parts := s.SplitDocument(doc)
	if len(parts) < 2 {
		t.Fatalf("parts = %d, want at least 2", len(parts))
	}
	tail := parts[0].Text[len(parts[0].Text)-8:]
	if !strings.HasPrefix(parts[1].Text, tail) {
		t.Fatalf("second part %q does not start with overlap %q", parts[1].Text, tail)
	}
}

func TestNewSplitterNormalizesBounds(t *testing.T) {
	s := NewSplitter(0, -5)
	if s.ChunkSize != 900 || s.Overlap != 0 {
		t.Fatalf("splitter = %+v", s)
	}
	s = NewSplitter(100, 100)
	if s.Overlap != 25 {
		t.Fatalf("overlap = %d, want a quarter of the window", s.Overlap)
	}
}
