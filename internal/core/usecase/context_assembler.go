package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/techmart/store-assistant/internal/core/domain"
)

const (
	defaultContextBudget     = 4000
	defaultHistoryTurns      = 8
	defaultHistoryTurnLength = 200
)

// ContextAssembler renders the retrieval slices into the single context block
// passed to generation. Section order is fixed: products, services, store
// information, document chunks, conversation history. Over budget it trims
// history first, then chunks from the tail.
type ContextAssembler struct {
	budget            int
	historyTurns      int
	historyTurnLength int
}

func NewContextAssembler() *ContextAssembler {
	return &ContextAssembler{
		budget:            defaultContextBudget,
		historyTurns:      defaultHistoryTurns,
		historyTurnLength: defaultHistoryTurnLength,
	}
}

func (a *ContextAssembler) Assemble(language domain.Language, catalog domain.CatalogResult, unstructured domain.UnstructuredResult, history []domain.Turn) string {
	sections := []string{
		renderProducts(language, catalog.Products),
		renderServices(language, catalog.Services),
		renderStoreInfo(language, catalog.StoreInfo),
	}
	chunkSection := renderChunks(language, unstructured.Chunks)
	historySection := a.renderHistory(language, history)

	assembled := joinSections(append(sections, chunkSection, historySection))
	if utf8.RuneCountInString(assembled) <= a.budget {
		return assembled
	}

	// Drop history first.
	assembled = joinSections(append(sections, chunkSection))
	chunks := unstructured.Chunks
	for utf8.RuneCountInString(assembled) > a.budget && len(chunks) > 0 {
		chunks = chunks[:len(chunks)-1]
		assembled = joinSections(append(sections, renderChunks(language, chunks)))
	}
	if utf8.RuneCountInString(assembled) > a.budget {
		assembled = string([]rune(assembled)[:a.budget])
	}
	return assembled
}

func joinSections(sections []string) string {
	nonEmpty := make([]string, 0, len(sections))
	for _, s := range sections {
		if strings.TrimSpace(s) != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}

type sectionHeadings struct {
	products  string
	services  string
	storeInfo string
	documents string
	history   string
}

var headings = map[domain.Language]sectionHeadings{
	domain.LanguageEnglish: {
		products:  "CURRENT PRODUCT INFORMATION:",
		services:  "AVAILABLE SERVICES:",
		storeInfo: "STORE INFORMATION:",
		documents: "RELEVANT DOCUMENTATION:",
		history:   "RECENT CONVERSATION:",
	},
	domain.LanguageArabic: {
		products:  "معلومات المنتجات الحالية:",
		services:  "الخدمات المتوفرة:",
		storeInfo: "معلومات المتجر:",
		documents: "معلومات من الوثائق:",
		history:   "المحادثة الأخيرة:",
	},
}

func headingsFor(language domain.Language) sectionHeadings {
	if h, ok := headings[language]; ok {
		return h
	}
	return headings[domain.LanguageEnglish]
}

func renderProducts(language domain.Language, products []domain.ProductRecord) string {
	if len(products) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(headingsFor(language).products)
	for _, p := range products {
		b.WriteString("\n- ")
		b.WriteString(p.Name)
		if p.Brand != "" {
			fmt.Fprintf(&b, " (%s)", p.Brand)
		}
		fmt.Fprintf(&b, " | %.2f JOD", p.Price)
		if p.DiscountPercent > 0 && p.OriginalPrice > p.Price {
			fmt.Fprintf(&b, " (was %.2f JOD, -%.0f%%)", p.OriginalPrice, p.DiscountPercent)
		}
		if p.StockQuantity > 0 {
			fmt.Fprintf(&b, " | in stock: %d", p.StockQuantity)
		} else {
			b.WriteString(" | out of stock")
		}
		if p.WarrantyMonths > 0 {
			fmt.Fprintf(&b, " | warranty: %d months", p.WarrantyMonths)
		}
		if p.IsPromotion && p.PromotionText != "" {
			fmt.Fprintf(&b, " | %s", p.PromotionText)
		}
	}
	return b.String()
}

func renderServices(language domain.Language, services []domain.ServiceRecord) string {
	if len(services) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(headingsFor(language).services)
	for _, s := range services {
		b.WriteString("\n- ")
		b.WriteString(s.Name)
		fmt.Fprintf(&b, " | %.2f JOD", s.Price)
		if s.DurationHours > 0 {
			fmt.Fprintf(&b, " | ~%.1f hours", s.DurationHours)
		}
		if s.Description != "" {
			fmt.Fprintf(&b, " | %s", s.Description)
		}
	}
	return b.String()
}

func renderStoreInfo(language domain.Language, info *domain.StoreRecord) string {
	if info == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(headingsFor(language).storeInfo)
	fmt.Fprintf(&b, "\n- %s, %s", info.Name, info.Address)
	fmt.Fprintf(&b, "\n- %s | %s", info.Phone, info.Email)
	fmt.Fprintf(&b, "\n- %s", info.Hours)
	return b.String()
}

func renderChunks(language domain.Language, chunks []domain.RetrievedChunk) string {
	if len(chunks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(headingsFor(language).documents)
	for _, chunk := range chunks {
		b.WriteString("\n- ")
		b.WriteString(strings.TrimSpace(chunk.Text))
		if chunk.Source != "" {
			fmt.Fprintf(&b, " [source: %s]", chunk.Source)
		}
	}
	return b.String()
}

func (a *ContextAssembler) renderHistory(language domain.Language, history []domain.Turn) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > a.historyTurns {
		history = history[len(history)-a.historyTurns:]
	}
	var b strings.Builder
	b.WriteString(headingsFor(language).history)
	for _, turn := range history {
		content := strings.TrimSpace(turn.Content)
		if runes := []rune(content); len(runes) > a.historyTurnLength {
			content = string(runes[:a.historyTurnLength]) + "..."
		}
		fmt.Fprintf(&b, "\n%s: %s", turn.Role, content)
	}
	return b.String()
}
