package services

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"windquote/quantity"
	"windquote/store"
)

// ErrUnsupportedFormat is returned for uploads that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format: must be .csv or .xlsx")

// ValidationError represents a single field-level error on one row.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is returned after parsing and validating an uploaded file.
type ValidationResult struct {
	TotalRows int               `json:"total_rows"`
	ValidRows int               `json:"valid_rows"`
	ErrorRows int               `json:"error_rows"`
	Errors    []ValidationError `json:"errors"`
	FileName  string            `json:"file_name"`
}

func (r *ValidationResult) finish() {
	errorRowSet := make(map[int]bool)
	for _, e := range r.Errors {
		errorRowSet[e.Row] = true
	}
	r.ErrorRows = len(errorRowSet)
	r.ValidRows = r.TotalRows - r.ErrorRows
}

// ImportField is a column an import understands. Labels are matched
// case-insensitively against the header row.
type ImportField struct {
	Key      string
	Labels   []string
	Required bool
}

// LineImportFields are the columns of a billed-line import.
var LineImportFields = []ImportField{
	{Key: "designation", Labels: []string{"désignation", "designation", "libellé", "description"}, Required: true},
	{Key: "unit", Labels: []string{"unité", "unite", "unit", "u"}},
	{Key: "quantity", Labels: []string{"quantité", "quantite", "quantity", "qté", "qte"}},
	{Key: "unit_price", Labels: []string{"prix unitaire", "pu", "p.u.", "unit price", "unit_price"}},
	{Key: "price_code", Labels: []string{"code", "code prix", "price code"}},
}

// PriceItemImportFields are the columns of a unit-price database import.
var PriceItemImportFields = []ImportField{
	{Key: "code", Labels: []string{"code"}, Required: true},
	{Key: "designation", Labels: []string{"désignation", "designation", "libellé", "description"}, Required: true},
	{Key: "unit", Labels: []string{"unité", "unite", "unit", "u"}},
	{Key: "unit_price", Labels: []string{"prix unitaire", "pu", "p.u.", "unit price", "unit_price"}, Required: true},
	{Key: "category", Labels: []string{"catégorie", "categorie", "category"}},
}

// ParseUpload reads headers and data rows from a .csv or .xlsx upload.
func ParseUpload(fileName string, file io.Reader) ([]string, [][]string, error) {
	lowerName := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lowerName, ".csv"):
		return parseCSV(file)
	case strings.HasSuffix(lowerName, ".xlsx"):
		return parseExcel(file)
	}
	return nil, nil, ErrUnsupportedFormat
}

// parseCSV reads a CSV file and returns headers + data rows. The separator
// is a semicolon when the header line holds more semicolons than commas.
func parseCSV(file io.Reader) ([]string, [][]string, error) {
	br := bufio.NewReader(file)
	head, _ := br.Peek(4096)
	head = bytes.TrimPrefix(head, []byte(utf8BOM))
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}

	reader := csv.NewReader(br)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		reader.Comma = ';'
	}

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}

	headers := allRows[0]
	headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	return headers, allRows[1:], nil
}

// parseExcel reads an xlsx file and returns headers + data rows from the first sheet.
func parseExcel(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}

	return rows[0], rows[1:], nil
}

// mapHeadersToFields maps uploaded column headers to ImportField keys.
// Returns ordered list of field keys (one per column) and any unrecognized columns.
func mapHeadersToFields(headers []string, fields []ImportField) ([]string, []string) {
	labelToKey := make(map[string]string)
	for _, f := range fields {
		for _, l := range f.Labels {
			labelToKey[l] = f.Key
		}
	}

	mapped := make([]string, len(headers))
	var unrecognized []string

	for i, h := range headers {
		norm := strings.ToLower(strings.TrimSpace(h))
		// Strip trailing " *" marking required columns
		norm = strings.TrimSpace(strings.TrimSuffix(norm, " *"))

		if key, ok := labelToKey[norm]; ok {
			mapped[i] = key
		} else {
			unrecognized = append(unrecognized, h)
		}
	}
	return mapped, unrecognized
}

// rowValues maps one data row to field keys, checking required columns.
func rowValues(rowNum int, row []string, columnKeys []string, fields []ImportField) (map[string]string, []ValidationError) {
	data := make(map[string]string)
	for colIdx, key := range columnKeys {
		if key == "" || colIdx >= len(row) {
			continue
		}
		data[key] = strings.TrimSpace(row[colIdx])
	}

	var errs []ValidationError
	for _, f := range fields {
		if f.Required && data[f.Key] == "" {
			errs = append(errs, ValidationError{
				Row:     rowNum,
				Field:   f.Labels[0],
				Message: fmt.Sprintf("%s est obligatoire", f.Labels[0]),
			})
		}
	}
	return data, errs
}

// missingColumns reports required fields with no matching header.
func missingColumns(columnKeys []string, fields []ImportField) []ValidationError {
	present := make(map[string]bool, len(columnKeys))
	for _, k := range columnKeys {
		present[k] = true
	}
	var errs []ValidationError
	for _, f := range fields {
		if f.Required && !present[f.Key] {
			errs = append(errs, ValidationError{
				Row:     1,
				Field:   f.Labels[0],
				Message: fmt.Sprintf("colonne %q absente", f.Labels[0]),
			})
		}
	}
	return errs
}

// LineImportResult is the validated content of a line import. Lines holds
// the rows without errors, in file order.
type LineImportResult struct {
	ValidationResult
	Lines []store.NewLine `json:"-"`
}

// ValidateLineImport parses billed lines. Quantity cells go through the
// same commit path as the editor, so "$var" references and formulas are
// accepted and resolved against cat. priceIDs maps price-item codes to
// record ids for linking.
func ValidateLineImport(fileName string, headers []string, rows [][]string, cat quantity.Catalog, priceIDs map[string]string) *LineImportResult {
	result := &LineImportResult{ValidationResult: ValidationResult{TotalRows: len(rows), FileName: fileName}}

	columnKeys, _ := mapHeadersToFields(headers, LineImportFields)
	if errs := missingColumns(columnKeys, LineImportFields); len(errs) > 0 {
		result.Errors = errs
		result.ErrorRows = result.TotalRows
		return result
	}

	for rowIdx, row := range rows {
		rowNum := rowIdx + 2 // 1-indexed, +1 for header row
		data, rowErrors := rowValues(rowNum, row, columnKeys, LineImportFields)

		q, err := quantity.Commit(data["quantity"], quantity.Literal(0), cat)
		if err != nil {
			rowErrors = append(rowErrors, ValidationError{Row: rowNum, Field: "quantité", Message: err.Error()})
		}

		var price float64
		if v := data["unit_price"]; v != "" {
			p, ok := quantity.ParseDecimal(v)
			if !ok {
				rowErrors = append(rowErrors, ValidationError{Row: rowNum, Field: "prix unitaire", Message: fmt.Sprintf("nombre invalide: %q", v)})
			}
			price = p
		}

		var priceID string
		if code := data["price_code"]; code != "" {
			id, ok := priceIDs[code]
			if !ok {
				rowErrors = append(rowErrors, ValidationError{Row: rowNum, Field: "code", Message: fmt.Sprintf("prix %q inconnu", code)})
			}
			priceID = id
		}

		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			continue
		}
		result.Lines = append(result.Lines, store.NewLine{
			Designation: data["designation"],
			Unit:        data["unit"],
			Quantity:    q,
			UnitPrice:   price,
			PriceItemID: priceID,
		})
	}

	result.finish()
	return result
}

type PriceItemImportResult struct {
	ValidationResult
	Items []store.PriceItem `json:"-"`
}

// ValidatePriceItemImport parses unit-price database rows. Codes must be
// unique within the file.
func ValidatePriceItemImport(fileName string, headers []string, rows [][]string) *PriceItemImportResult {
	result := &PriceItemImportResult{ValidationResult: ValidationResult{TotalRows: len(rows), FileName: fileName}}

	columnKeys, _ := mapHeadersToFields(headers, PriceItemImportFields)
	if errs := missingColumns(columnKeys, PriceItemImportFields); len(errs) > 0 {
		result.Errors = errs
		result.ErrorRows = result.TotalRows
		return result
	}

	seen := make(map[string]int)
	for rowIdx, row := range rows {
		rowNum := rowIdx + 2
		data, rowErrors := rowValues(rowNum, row, columnKeys, PriceItemImportFields)

		price, ok := quantity.ParseDecimal(data["unit_price"])
		if data["unit_price"] != "" && !ok {
			rowErrors = append(rowErrors, ValidationError{Row: rowNum, Field: "prix unitaire", Message: fmt.Sprintf("nombre invalide: %q", data["unit_price"])})
		}
		if code := data["code"]; code != "" {
			if first, dup := seen[code]; dup {
				rowErrors = append(rowErrors, ValidationError{Row: rowNum, Field: "code", Message: fmt.Sprintf("code %q déjà présent ligne %d", code, first)})
			} else {
				seen[code] = rowNum
			}
		}

		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			continue
		}
		result.Items = append(result.Items, store.PriceItem{
			Code:        data["code"],
			Designation: data["designation"],
			Unit:        data["unit"],
			UnitPrice:   price,
			Category:    data["category"],
		})
	}

	result.finish()
	return result
}

// GenerateErrorReport creates a downloadable .xlsx file from validation errors.
func GenerateErrorReport(errors []ValidationError) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Erreurs"
	defaultSheet := f.GetSheetName(0)
	f.SetSheetName(defaultSheet, sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DC2626"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})

	f.SetCellValue(sheet, "A1", "Ligne")
	f.SetCellValue(sheet, "B1", "Champ")
	f.SetCellValue(sheet, "C1", "Erreur")
	f.SetCellStyle(sheet, "A1", "C1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 22)
	f.SetColWidth(sheet, "C", "C", 60)

	for i, e := range errors {
		row := fmt.Sprintf("%d", i+2)
		f.SetCellValue(sheet, "A"+row, e.Row)
		f.SetCellValue(sheet, "B"+row, e.Field)
		f.SetCellValue(sheet, "C"+row, e.Message)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write error report: %w", err)
	}
	return buf.Bytes(), nil
}
