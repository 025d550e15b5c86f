package main

import (
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/techmart/store-assistant/internal/core/domain"
)

func buildWorkbook(t *testing.T, sheets map[string][][]string) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	for name, rows := range sheets {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("NewSheet(%s) error = %v", name, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatalf("SetSheetRow(%s) error = %v", name, err)
			}
		}
	}
	return f
}

func TestReadProductsParsesTypedColumns(t *testing.T) {
	f := buildWorkbook(t, map[string][][]string{
		sheetProducts: {
			{"SKU", "Name", "Name_AR", "Brand", "Category", "Price", "Original_Price", "Stock_Quantity", "Warranty_Months", "Is_Featured", "Promotion_Text"},
			{"IP15-128", "iPhone 15", "آيفون 15", "Apple", "smartphones", "899.00", "949.00", "12", "24", "yes", ""},
			{"GS24-256", "Galaxy S24", "جالاكسي S24", "Samsung", "smartphones", "799.50", "", "0", "12", "", "Trade-in bonus"},
		},
	})

	products, err := readProducts(f)
	if err != nil {
		t.Fatalf("readProducts() error = %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("products = %d, want 2", len(products))
	}

	first := products[0]
	if first.SKU != "IP15-128" || first.NameArabic != "آيفون 15" {
		t.Fatalf("first row = %+v", first)
	}
	if first.Price != 899.0 || first.OriginalPrice != 949.0 {
		t.Fatalf("prices = %v / %v", first.Price, first.OriginalPrice)
	}
	if first.StockQuantity != 12 || first.WarrantyMonths != 24 || !first.IsFeatured {
		t.Fatalf("typed columns = %+v", first)
	}

	second := products[1]
	if second.OriginalPrice != 0 || second.IsFeatured {
		t.Fatalf("blank cells must default, got %+v", second)
	}
	if second.PromotionText != "Trade-in bonus" {
		t.Fatalf("promotion text = %q", second.PromotionText)
	}
}

func TestReadProductsRequiresSKUAndName(t *testing.T) {
	f := buildWorkbook(t, map[string][][]string{
		sheetProducts: {
			{"SKU", "Name"},
			{"", "nameless"},
		},
	})

	if _, err := readProducts(f); err == nil {
		t.Fatal("expected an error for a row without sku")
	}
}

func TestReadServicesSplitsRequirements(t *testing.T) {
	f := buildWorkbook(t, map[string][][]string{
		sheetServices: {
			{"Name", "Category", "Description", "Base_Price", "Duration_Hours", "Requirements"},
			{"Screen replacement", "repair", "Same-day", "45", "2", "device; proof of purchase"},
		},
	})

	services, err := readServices(f)
	if err != nil {
		t.Fatalf("readServices() error = %v", err)
	}
	if len(services) != 1 {
		t.Fatalf("services = %d, want 1", len(services))
	}
	if len(services[0].Requirements) != 2 || services[0].Requirements[1] != "proof of purchase" {
		t.Fatalf("requirements = %v", services[0].Requirements)
	}
	if services[0].Price != 45 || services[0].DurationHours != 2 {
		t.Fatalf("service = %+v", services[0])
	}
}

func TestReadStoreInfoTakesFirstDataRow(t *testing.T) {
	f := buildWorkbook(t, map[string][][]string{
		sheetStoreInfo: {
			{"Name", "Address", "Phone", "Email", "Opening_Hours"},
			{"TechMart Electronics", "Rafidia Street, Nablus", "+970-9-234-5678", "info@techmart.ps", "Sat-Thu 9:00-21:00"},
		},
	})

	info, err := readStoreInfo(f)
	if err != nil {
		t.Fatalf("readStoreInfo() error = %v", err)
	}
	if info == nil || info.Phone != "+970-9-234-5678" || info.Hours != "Sat-Thu 9:00-21:00" {
		t.Fatalf("info = %+v", info)
	}
}

func TestReadDocumentsDefaultsLanguage(t *testing.T) {
	f := buildWorkbook(t, map[string][][]string{
		sheetDocuments: {
			{"ID", "Text", "Source", "Language", "Document_Type"},
			{"doc-1", "Returns accepted within 14 days.", "policies.pdf", "en", "policy"},
			{"doc-2", "الضمان سنتان على الأجهزة.", "policies.pdf", "unknown", "policy"},
		},
	})

	documents, err := readDocuments(f)
	if err != nil {
		t.Fatalf("readDocuments() error = %v", err)
	}
	if len(documents) != 2 {
		t.Fatalf("documents = %d, want 2", len(documents))
	}
	if documents[0].Language != domain.LanguageEnglish || documents[0].DocumentType != "policy" {
		t.Fatalf("first document = %+v", documents[0])
	}
	if documents[1].Language != domain.LanguageEnglish {
		t.Fatalf("unsupported language must default to English, got %q", documents[1].Language)
	}
}

func TestReadDocumentsMissingSheetIsNotAnError(t *testing.T) {
	f := buildWorkbook(t, map[string][][]string{
		sheetProducts: {{"SKU", "Name"}},
	})

	documents, err := readDocuments(f)
	if err != nil {
		t.Fatalf("readDocuments() error = %v", err)
	}
	if documents != nil {
		t.Fatalf("documents = %v, want nil", documents)
	}
}
