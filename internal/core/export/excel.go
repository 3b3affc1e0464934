package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/MuhamadAgungGumelar/govreport-ai-be/internal/core/render"
)

const (
	summarySheet    = "Summary"
	maxSheetNameLen = 31
)

// ExcelExporter writes a summary sheet plus one sheet per table or chart
type ExcelExporter struct {
	style ExportStyle
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter(style ExportStyle) *ExcelExporter {
	return &ExcelExporter{style: style.withDefaults()}
}

func (e *ExcelExporter) Export(doc *render.Document, writer io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	f.SetDocProps(&excelize.DocProperties{
		Title:   doc.Title,
		Creator: "govreport " + doc.Metadata.RendererVersion,
	})

	headerStyle, err := e.createHeaderStyle(f)
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14, Family: e.style.FontFamily}})
	boldStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Family: e.style.FontFamily}})

	row := 1
	set := func(col int, value interface{}, style int) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		f.SetCellValue(summarySheet, cell, value)
		if style != 0 {
			f.SetCellStyle(summarySheet, cell, cell, style)
		}
	}

	set(1, doc.Title, titleStyle)
	row++
	if doc.Description != "" {
		set(1, doc.Description, 0)
		row++
	}
	row++

	names := map[string]bool{strings.ToLower(summarySheet): true}
	for _, s := range doc.Sections {
		set(1, s.Title, boldStyle)
		row++
		for _, b := range s.Blocks {
			switch {
			case b.KPI != nil:
				set(1, b.KPI.Title, 0)
				if b.KPI.Number != nil {
					set(2, *b.KPI.Number, 0)
				}
				set(3, b.KPI.Value, 0)
			case b.Placeholder != nil:
				set(1, b.Placeholder.Message(), 0)
			case b.Table != nil:
				sheet := uniqueSheetName(names, b.Table.Title, "Table")
				if err := e.writeTable(f, sheet, headerStyle, b.Table.Columns, b.Table.Rows); err != nil {
					return err
				}
				set(1, "See sheet "+sheet, 0)
			case b.Chart != nil:
				sheet := uniqueSheetName(names, b.Chart.Title, "Chart")
				headers := append([]string{b.Chart.XLabel}, b.Chart.YLabels...)
				rows := make([][]string, len(b.Chart.Labels))
				for i, label := range b.Chart.Labels {
					rows[i] = []string{label}
					for _, series := range b.Chart.Series {
						rows[i] = append(rows[i], series.Display[i])
					}
				}
				if err := e.writeTable(f, sheet, headerStyle, headers, rows); err != nil {
					return err
				}
				set(1, b.Chart.AltText(), 0)
			}
			row++
		}
		row++
	}
	f.SetColWidth(summarySheet, "A", "A", 40)

	if err := f.Write(writer); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

// GetContentType returns the MIME type for Excel files
func (e *ExcelExporter) GetContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// GetFileExtension returns the file extension for Excel files
func (e *ExcelExporter) GetFileExtension() string {
	return ".xlsx"
}

func (e *ExcelExporter) writeTable(f *excelize.File, sheet string, headerStyle int, headers []string, rows [][]string) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to add sheet %s: %w", sheet, err)
	}

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	plainStyle, _ := e.createRowStyle(f, e.style.RowBgColor1)
	bandStyle, _ := e.createRowStyle(f, e.style.RowBgColor2)
	for i, values := range rows {
		style := plainStyle
		if e.style.Banded(i) {
			style = bandStyle
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cell, value)
			f.SetCellStyle(sheet, cell, cell, style)
		}
	}

	if e.style.FreezeHeader {
		f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}
	if e.style.AutoFilter && len(headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(headers), len(rows)+1)
		f.AutoFilter(sheet, "A1:"+last, nil)
	}
	return nil
}

// createHeaderStyle creates the header style
func (e *ExcelExporter) createHeaderStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   e.style.HeaderBold,
			Size:   e.style.FontSize,
			Family: e.style.FontFamily,
			Color:  "FFFFFF",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{stripHashFromColor(e.style.HeaderBgColor)},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
}

// createRowStyle creates a row style with background color
func (e *ExcelExporter) createRowStyle(f *excelize.File, bgColor string) (int, error) {
	rowStyle := &excelize.Style{
		Font: &excelize.Font{
			Size:   e.style.FontSize,
			Family: e.style.FontFamily,
		},
	}

	// Only add fill if bgColor is not white
	if bgColor != "" && !strings.EqualFold(bgColor, "#FFFFFF") {
		rowStyle.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{stripHashFromColor(bgColor)},
		}
	}

	return f.NewStyle(rowStyle)
}

// uniqueSheetName derives a legal, unused sheet name from a title
func uniqueSheetName(used map[string]bool, title, fallback string) string {
	base := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return ' '
		}
		return r
	}, strings.TrimSpace(title))
	if base == "" {
		base = fallback
	}
	if r := []rune(base); len(r) > maxSheetNameLen-4 {
		base = string(r[:maxSheetNameLen-4])
	}

	name := base
	for i := 2; used[strings.ToLower(name)]; i++ {
		name = fmt.Sprintf("%s (%d)", base, i)
	}
	used[strings.ToLower(name)] = true
	return name
}

// stripHashFromColor removes # from hex color codes
func stripHashFromColor(color string) string {
	return strings.TrimPrefix(color, "#")
}
