package services

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestGenerateExcel_BasicQuote(t *testing.T) {
	data := sampleExportData(t)

	result, err := GenerateExcel(data)
	if err != nil {
		t.Fatalf("GenerateExcel() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateExcel() returned empty bytes")
	}

	f, err := excelize.OpenReader(bytesReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 || sheets[0] != "Offre BOP" {
		t.Errorf("expected sheet name 'Offre BOP', got %v", sheets)
	}

	title, _ := f.GetCellValue(sheets[0], "A1")
	if title != "Offre BOP" {
		t.Errorf("expected title 'Offre BOP', got %q", title)
	}

	// first line row: reference resolved to 3100
	qty, _ := f.GetCellValue(sheets[0], "D8")
	if qty != "3100" {
		t.Errorf("expected resolved quantity 3100 in D8, got %q", qty)
	}
}

func TestGenerateExcel_EmptyItems(t *testing.T) {
	data := ExportData{
		Title:       "Devis vide",
		CreatedDate: "2026-01-15",
		Rows:        []ExportRow{},
	}

	result, err := GenerateExcel(data)
	if err != nil {
		t.Fatalf("GenerateExcel() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateExcel() returned empty bytes")
	}
}

func TestGenerateExcel_LongTitle(t *testing.T) {
	data := ExportData{
		Title:       "Offre génie civil et électricité du parc éolien des Hauts Champs",
		CreatedDate: "2026-01-15",
	}

	result, err := GenerateExcel(data)
	if err != nil {
		t.Fatalf("GenerateExcel() error = %v", err)
	}

	f, err := excelize.OpenReader(bytesReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if n := len([]rune(sheets[0])); n > 31 {
		t.Errorf("sheet name exceeds 31 chars: %d", n)
	}
}

func TestGenerateExcel_EmptyTitle(t *testing.T) {
	result, err := GenerateExcel(ExportData{CreatedDate: "2026-01-15"})
	if err != nil {
		t.Fatalf("GenerateExcel() error = %v", err)
	}

	f, err := excelize.OpenReader(bytesReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if sheets[0] != "Devis" {
		t.Errorf("expected default sheet name 'Devis', got %q", sheets[0])
	}
}

func TestSanitizeSheetName(t *testing.T) {
	if got := sanitizeSheetName("Lot [A]: 1/2"); got != "Lot A 12" {
		t.Errorf("sanitizeSheetName() = %q", got)
	}
}

func TestSanitizeExcelCell(t *testing.T) {
	tests := []struct {
		input  string
		expect string
	}{
		{"", ""},
		{"Béton", "Béton"},
		{"=SUM(A1)", "'=SUM(A1)"},
		{"-5", "'-5"},
		{"@cmd", "'@cmd"},
	}
	for _, tt := range tests {
		if got := sanitizeExcelCell(tt.input); got != tt.expect {
			t.Errorf("sanitizeExcelCell(%q) = %q, want %q", tt.input, got, tt.expect)
		}
	}
}
