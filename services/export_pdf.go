package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// GeneratePDF creates a PDF document from quote export data using maroto/v2.
// It returns the raw PDF bytes or an error.
func GeneratePDF(data ExportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} / {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addHeader(m, data)
	addTableHeader(m, data.Currency)
	for _, r := range data.Rows {
		addTableRow(m, r, data.Currency)
	}
	addSummary(m, data)
	addFooter(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// addHeader adds the company, title, project and date to the PDF.
func addHeader(m core.Maroto, data ExportData) {
	grey := &props.Color{Red: 80, Green: 80, Blue: 80}

	if data.Company != "" {
		m.AddRows(
			row.New(6).Add(
				col.New(12).Add(
					text.New(data.Company, props.Text{Size: 8, Align: align.Left, Color: grey}),
				),
			),
		)
	}

	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(data.Title, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	m.AddRows(
		row.New(8).Add(
			col.New(8).Add(
				text.New(fmt.Sprintf("Projet : %s - version %d", data.ProjectName, data.Version), props.Text{
					Size:  9,
					Align: align.Left,
					Color: grey,
				}),
			),
			col.New(4).Add(
				text.New(fmt.Sprintf("Date : %s", data.CreatedDate), props.Text{
					Size:  9,
					Align: align.Right,
					Color: grey,
				}),
			),
		),
	)

	m.AddRows(row.New(4))
}

// addTableHeader adds the column header row for the quote table.
func addTableHeader(m core.Maroto, currency string) {
	headerBg := &props.Color{Red: 31, Green: 78, Blue: 121}
	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerTextLeft := headerText
	headerTextLeft.Align = align.Left

	headerCell := props.Cell{BackgroundColor: headerBg}

	m.AddRows(
		row.New(8).Add(
			col.New(1).Add(text.New("N°", headerText)).WithStyle(&headerCell),
			col.New(5).Add(text.New("Désignation", headerTextLeft)).WithStyle(&headerCell),
			col.New(1).Add(text.New("Unité", headerText)).WithStyle(&headerCell),
			col.New(1).Add(text.New("Qté", headerText)).WithStyle(&headerCell),
			col.New(2).Add(text.New("P.U. "+currency, headerText)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Total "+currency, headerText)).WithStyle(&headerCell),
		),
	)
}

// addTableRow adds a single row to the quote table, styled by level.
func addTableRow(m core.Maroto, r ExportRow, currency string) {
	var cellStyle *props.Cell
	var textSize float64 = 7
	var textStyle fontstyle.Type = fontstyle.Normal
	descPrefix := ""

	switch r.Level {
	case LevelLot:
		textStyle = fontstyle.Bold
		textSize = 8
		cellStyle = &props.Cell{BackgroundColor: &props.Color{Red: 217, Green: 225, Blue: 242}}
	case LevelSection:
		textStyle = fontstyle.BoldItalic
		descPrefix = "  "
		cellStyle = &props.Cell{BackgroundColor: &props.Color{Red: 245, Green: 245, Blue: 245}}
	case LevelLine:
		descPrefix = "    "
	}

	baseText := props.Text{
		Size:  textSize,
		Style: textStyle,
		Align: align.Center,
	}
	leftText := baseText
	leftText.Align = align.Left
	rightText := baseText
	rightText.Align = align.Right

	desc := descPrefix + r.Designation
	if r.Level == LevelSection && r.Multiplier != 1 {
		desc += fmt.Sprintf(" (x%s)", FormatQuantity(r.Multiplier))
	}

	unit, qty, price := "", "", ""
	if r.Level == LevelLine {
		unit = r.Unit
		qty = FormatQuantity(r.Quantity)
		price = FormatMoney(r.UnitPrice, currency)
	}

	cols := []core.Col{
		col.New(1).Add(text.New(r.Index, baseText)),
		col.New(5).Add(text.New(desc, leftText)),
		col.New(1).Add(text.New(unit, baseText)),
		col.New(1).Add(text.New(qty, rightText)),
		col.New(2).Add(text.New(price, rightText)),
		col.New(2).Add(text.New(FormatMoney(r.Total, currency), rightText)),
	}
	if cellStyle != nil {
		for i := range cols {
			cols[i] = cols[i].WithStyle(cellStyle)
		}
	}

	m.AddRows(row.New(7).Add(cols...))
}

// addSummary adds the CAPEX total at the bottom of the PDF.
func addSummary(m core.Maroto, data ExportData) {
	m.AddRows(row.New(6))

	summaryCell := &props.Cell{BackgroundColor: &props.Color{Red: 240, Green: 240, Blue: 240}}
	style := props.Text{
		Size:  10,
		Style: fontstyle.Bold,
		Align: align.Right,
	}

	m.AddRows(
		row.New(9).Add(
			col.New(8).Add(text.New("Total CAPEX", style)).WithStyle(summaryCell),
			col.New(4).Add(text.New(FormatMoney(data.CAPEX, data.Currency), style)).WithStyle(summaryCell),
		),
	)
}

// addFooter adds the generated-date line at the bottom.
func addFooter(m core.Maroto, data ExportData) {
	m.AddRows(row.New(6))
	m.AddRows(
		row.New(6).Add(
			col.New(12).Add(
				text.New(
					fmt.Sprintf("Édité le %s", data.CreatedDate),
					props.Text{
						Size:  7,
						Align: align.Left,
						Color: &props.Color{Red: 140, Green: 140, Blue: 140},
					},
				),
			),
		),
	)
}
