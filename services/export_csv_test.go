package services

import (
	"encoding/csv"
	"strings"
	"testing"
)

func TestGenerateCSV(t *testing.T) {
	out, err := GenerateCSV(sampleExportData(t))
	if err != nil {
		t.Fatalf("GenerateCSV() error = %v", err)
	}

	body := string(out)
	if !strings.HasPrefix(body, utf8BOM) {
		t.Error("expected a UTF-8 BOM")
	}

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(body, utf8BOM)))
	r.Comma = ';'
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	// header + 9 rows + CAPEX
	if len(records) != 11 {
		t.Fatalf("expected 11 records, got %d", len(records))
	}

	line := records[3]
	if line[1] != "ligne" || line[4] != "3100" || line[5] != "18,50" || line[6] != "57350,00" {
		t.Errorf("unexpected line record: %v", line)
	}

	last := records[len(records)-1]
	if last[2] != "Total CAPEX" || last[6] != "524755,00" {
		t.Errorf("unexpected CAPEX record: %v", last)
	}
}

func TestCSVQuantity(t *testing.T) {
	tests := []struct {
		input  float64
		expect string
	}{
		{12, "12"},
		{12.5, "12,5"},
		{374.7664, "374,766"},
	}
	for _, tt := range tests {
		if got := csvQuantity(tt.input); got != tt.expect {
			t.Errorf("csvQuantity(%v) = %q, want %q", tt.input, got, tt.expect)
		}
	}
}
