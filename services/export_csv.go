package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// utf8BOM lets spreadsheet software detect the encoding of accented
// designations.
const utf8BOM = "\ufeff"

// GenerateCSV writes the quote as semicolon separated values with decimal
// commas, the layout French spreadsheet software opens directly.
func GenerateCSV(data ExportData) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)

	w := csv.NewWriter(&buf)
	w.Comma = ';'

	records := [][]string{
		{"N°", "Niveau", "Désignation", "Unité", "Quantité", "Prix unitaire", "Total"},
	}
	for _, r := range data.Rows {
		rec := []string{r.Index, levelName(r.Level), sanitizeExcelCell(r.Designation), "", "", "", csvAmount(r.Total)}
		if r.Level == LevelLine {
			rec[3] = sanitizeExcelCell(r.Unit)
			rec[4] = csvQuantity(r.Quantity)
			rec[5] = csvAmount(r.UnitPrice)
		}
		records = append(records, rec)
	}
	records = append(records, []string{"", "", "Total CAPEX", "", "", "", csvAmount(data.CAPEX)})

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func levelName(level int) string {
	switch level {
	case LevelLot:
		return "lot"
	case LevelSection:
		return "section"
	}
	return "ligne"
}

func csvAmount(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}

func csvQuantity(q float64) string {
	return strings.Replace(decimal.NewFromFloat(q).Round(3).String(), ".", ",", 1)
}
