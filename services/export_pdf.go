package services

import (
	"fmt"
	"math"

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

// GenerateEstimatePDF creates the customer-facing estimate document from
// the consolidated estimate data using maroto/v2. It returns the raw PDF
// bytes or an error.
func GenerateEstimatePDF(data EstimateData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addEstimateHeader(m, data)
	addEstimateTableHeader(m)
	for _, r := range data.Rows {
		addEstimateRow(m, r)
	}
	addEstimateTotal(m, data)
	addEstimateFooter(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// addEstimateHeader adds the title, quote number and date.
func addEstimateHeader(m core.Maroto, data EstimateData) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New("Roofing Estimate", props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(
				text.New(fmt.Sprintf("Quote: %s", data.QuoteNumber), props.Text{
					Size:  9,
					Align: align.Left,
					Color: &props.Color{Red: 80, Green: 80, Blue: 80},
				}),
			),
			col.New(6).Add(
				text.New(fmt.Sprintf("Date: %s", data.CreatedDate), props.Text{
					Size:  9,
					Align: align.Right,
					Color: &props.Color{Red: 80, Green: 80, Blue: 80},
				}),
			),
		),
	)

	if data.CustomerName != "" {
		m.AddRows(
			row.New(8).Add(
				col.New(12).Add(
					text.New("Prepared for: "+data.CustomerName, props.Text{
						Size:  9,
						Align: align.Left,
					}),
				),
			),
		)
	}

	// Spacer
	m.AddRows(row.New(4))
}

// addEstimateTableHeader adds the column header row.
func addEstimateTableHeader(m core.Maroto) {
	headerBg := &props.Color{Red: 33, Green: 37, Blue: 41}
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
			col.New(6).Add(
				text.New("Description", headerTextLeft),
			).WithStyle(&headerCell),
			col.New(2).Add(
				text.New("Qty", headerText),
			).WithStyle(&headerCell),
			col.New(1).Add(
				text.New("Unit", headerText),
			).WithStyle(&headerCell),
			col.New(3).Add(
				text.New("Amount", headerText),
			).WithStyle(&headerCell),
		),
	)
}

// addEstimateRow adds a single consolidated line to the estimate table.
func addEstimateRow(m core.Maroto, r EstimateRow) {
	baseText := props.Text{
		Size:  8,
		Align: align.Center,
	}
	leftText := baseText
	leftText.Align = align.Left
	rightText := baseText
	rightText.Align = align.Right

	var cellStyle *props.Cell
	if r.Inconsistent {
		// Flag groups with disagreeing unit economics for the estimator:
		// light amber background.
		cellStyle = &props.Cell{BackgroundColor: &props.Color{Red: 255, Green: 243, Blue: 205}}
	}

	colDesc := col.New(6).Add(text.New(r.Name, leftText))
	colQty := col.New(2).Add(text.New(formatQty(r.Quantity), rightText))
	colUnit := col.New(1).Add(text.New(r.Unit, baseText))
	colAmount := col.New(3).Add(text.New(FormatUSD(r.Total), rightText))

	if cellStyle != nil {
		colDesc = colDesc.WithStyle(cellStyle)
		colQty = colQty.WithStyle(cellStyle)
		colUnit = colUnit.WithStyle(cellStyle)
		colAmount = colAmount.WithStyle(cellStyle)
	}

	m.AddRows(
		row.New(7).Add(
			colDesc,
			colQty,
			colUnit,
			colAmount,
		),
	)
}

// addEstimateTotal adds the aggregate total section.
func addEstimateTotal(m core.Maroto, data EstimateData) {
	m.AddRows(row.New(6))

	summaryBg := &props.Color{Red: 240, Green: 240, Blue: 240}
	summaryCell := &props.Cell{BackgroundColor: summaryBg}

	labelStyle := props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Align: align.Right,
	}

	m.AddRows(
		row.New(8).Add(
			col.New(9).Add(
				text.New("Estimate Total", labelStyle),
			).WithStyle(summaryCell),
			col.New(3).Add(
				text.New(FormatUSD(data.Total), labelStyle),
			).WithStyle(summaryCell),
		),
	)
}

// addEstimateFooter adds the generated-date line at the bottom.
func addEstimateFooter(m core.Maroto, data EstimateData) {
	m.AddRows(row.New(6))
	m.AddRows(
		row.New(6).Add(
			col.New(12).Add(
				text.New(
					fmt.Sprintf("Generated on %s", data.CreatedDate),
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

// formatQty returns a string representation of the quantity value.
// Whole numbers are formatted without decimals; fractional values get 2 decimal places.
func formatQty(qty float64) string {
	if qty == math.Trunc(qty) {
		return fmt.Sprintf("%.0f", qty)
	}
	return fmt.Sprintf("%.2f", qty)
}
