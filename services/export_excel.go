package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// GenerateMaterialOrderExcel creates the supplier-facing material order
// workbook and returns the file contents as a byte slice.
func GenerateMaterialOrderExcel(data MaterialOrderData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Material Order"

	// Rename default sheet.
	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	// Column references (A through E).
	columns := []string{"A", "B", "C", "D", "E"}
	lastCol := columns[len(columns)-1]

	widths := []float64{18, 42, 10, 10, 14}
	for i, col := range columns {
		if err := f.SetColWidth(sheetName, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	// ── Styles ──────────────────────────────────────────────────────────

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
			Size: 16,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}

	subtitleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Size: 11,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create subtitle style: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Color: "#FFFFFF",
			Size:  11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#333333"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	categoryStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
			Size: 10,
		},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create category style: %w", err)
	}

	itemStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Size: 10,
		},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create item style: %w", err)
	}

	summaryLabelStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create summary label style: %w", err)
	}

	summaryValueStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create summary value style: %w", err)
	}

	// ── Header Rows (1-3) ───────────────────────────────────────────────

	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheetName, "A1", "Material Order — "+sanitizeExcelCell(data.QuoteNumber))
	f.SetCellStyle(sheetName, "A1", lastCol+"1", titleStyle)

	if data.CustomerName != "" {
		if err := f.MergeCell(sheetName, "A2", lastCol+"2"); err != nil {
			return nil, fmt.Errorf("merge customer: %w", err)
		}
		f.SetCellValue(sheetName, "A2", "Customer: "+sanitizeExcelCell(data.CustomerName))
		f.SetCellStyle(sheetName, "A2", lastCol+"2", subtitleStyle)
	}

	if err := f.MergeCell(sheetName, "A3", lastCol+"3"); err != nil {
		return nil, fmt.Errorf("merge date: %w", err)
	}
	f.SetCellValue(sheetName, "A3", "Date: "+data.CreatedDate)
	f.SetCellStyle(sheetName, "A3", lastCol+"3", subtitleStyle)

	// ── Row 5: Column Headers ───────────────────────────────────────────

	headers := []string{"Category", "Item", "Qty", "Unit", "Unit Cost"}
	for i, h := range headers {
		cell := fmt.Sprintf("%s5", columns[i])
		f.SetCellValue(sheetName, cell, h)
	}
	f.SetCellStyle(sheetName, "A5", lastCol+"5", headerStyle)

	// ── Data Rows (starting row 6) ──────────────────────────────────────

	row := 6
	lastCategory := ""
	for _, r := range data.Rows {
		rowStr := fmt.Sprintf("%d", row)

		// Category shown once per group.
		style := itemStyle
		if r.Category != lastCategory {
			f.SetCellValue(sheetName, "A"+rowStr, sanitizeExcelCell(r.Category))
			lastCategory = r.Category
			style = categoryStyle
		}

		f.SetCellValue(sheetName, "B"+rowStr, sanitizeExcelCell(r.Name))
		f.SetCellValue(sheetName, "C"+rowStr, r.Quantity)
		f.SetCellValue(sheetName, "D"+rowStr, sanitizeExcelCell(r.Unit))
		f.SetCellValue(sheetName, "E"+rowStr, FormatUSD(r.UnitCost))

		f.SetCellStyle(sheetName, "A"+rowStr, lastCol+rowStr, style)

		row++
	}

	// ── Summary Row ─────────────────────────────────────────────────────

	row++

	summaryRow := fmt.Sprintf("%d", row)
	f.SetCellValue(sheetName, "D"+summaryRow, "Total Cost:")
	f.SetCellStyle(sheetName, "D"+summaryRow, "D"+summaryRow, summaryLabelStyle)
	f.SetCellValue(sheetName, "E"+summaryRow, FormatUSD(data.TotalCost))
	f.SetCellStyle(sheetName, "E"+summaryRow, "E"+summaryRow, summaryValueStyle)

	// ── Write to buffer ─────────────────────────────────────────────────

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}

	return buf.Bytes(), nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas, which can be abused for code execution or data theft.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}
