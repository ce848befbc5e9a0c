package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is the longest sheet name Excel accepts.
const maxSheetName = 31

// WorkbookExporter writes one styled sheet per table.
type WorkbookExporter struct {
	file    *excelize.File
	options ExcelOptions
	styles  map[string]int
	sheets  int
}

// ExcelOptions configures Excel export behavior
type ExcelOptions struct {
	FreezeHeader bool              `json:"freeze_header"`
	AutoFilter   bool              `json:"auto_filter"`
	AutoWidth    bool              `json:"auto_width"`
	DateFormat   string            `json:"date_format"`
	NumberFormat string            `json:"number_format"`
	HeaderStyle  *ExcelStyleConfig `json:"header_style,omitempty"`
	DataStyle    *ExcelStyleConfig `json:"data_style,omitempty"`
}

// ExcelStyleConfig defines style for cells
type ExcelStyleConfig struct {
	FontBold  bool   `json:"font_bold"`
	FontSize  int    `json:"font_size"`
	FontColor string `json:"font_color"`
	FillColor string `json:"fill_color"`
	Alignment string `json:"alignment"` // left, center, right
	Border    bool   `json:"border"`
}

// DefaultExcelOptions returns default Excel export options
func DefaultExcelOptions() ExcelOptions {
	return ExcelOptions{
		FreezeHeader: true,
		AutoFilter:   true,
		AutoWidth:    true,
		DateFormat:   "dd/mm/yyyy",
		NumberFormat: "#,##0.00",
		HeaderStyle: &ExcelStyleConfig{
			FontBold:  true,
			FontSize:  11,
			FillColor: "2E7D32",
			FontColor: "FFFFFF",
			Alignment: "center",
			Border:    true,
		},
		DataStyle: &ExcelStyleConfig{
			FontSize: 11,
			Border:   true,
		},
	}
}

// NewWorkbookExporter creates an empty workbook.
func NewWorkbookExporter(options ExcelOptions) *WorkbookExporter {
	return &WorkbookExporter{
		file:    excelize.NewFile(),
		options: options,
		styles:  make(map[string]int),
	}
}

// AddTables adds a sheet per table, in order.
func (e *WorkbookExporter) AddTables(tables []Table) error {
	for _, t := range tables {
		if err := e.AddTable(t); err != nil {
			return fmt.Errorf("sheet %s: %w", t.Name, err)
		}
	}
	return nil
}

// AddTable writes a table to a new sheet. The first table reuses the
// default sheet.
func (e *WorkbookExporter) AddTable(t Table) error {
	name := sheetName(t.Name)
	if e.sheets == 0 {
		if err := e.file.SetSheetName("Sheet1", name); err != nil {
			return err
		}
	} else if _, err := e.file.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	e.sheets++

	if err := e.writeHeader(name, t.Columns); err != nil {
		return err
	}
	return e.writeRows(name, t)
}

// Sheets returns the sheet names in order.
func (e *WorkbookExporter) Sheets() []string {
	return e.file.GetSheetList()
}

func (e *WorkbookExporter) writeHeader(sheet string, columns []string) error {
	styleID, err := e.style("header", func() (int, error) { return e.createStyle(e.options.HeaderStyle, nil) })
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := e.file.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
		if styleID > 0 {
			e.file.SetCellStyle(sheet, cell, cell, styleID)
		}
	}

	if e.options.FreezeHeader {
		e.file.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}
	return nil
}

func (e *WorkbookExporter) writeRows(sheet string, t Table) error {
	columnWidths := make(map[int]float64)
	for i, col := range t.Columns {
		columnWidths[i] = float64(len(col)) * 1.2
	}

	for rowIdx, row := range t.Rows {
		for colIdx, val := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := e.setCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("failed to set cell value: %w", err)
			}
			if w := estimateCellWidth(val); w > columnWidths[colIdx] {
				columnWidths[colIdx] = w
			}
		}
	}

	if e.options.AutoFilter && len(t.Rows) > 0 && len(t.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Columns), len(t.Rows)+1)
		if err := e.file.AutoFilter(sheet, "A1:"+last, nil); err != nil {
			return err
		}
	}

	if e.options.AutoWidth {
		for colIdx, width := range columnWidths {
			colName, _ := excelize.ColumnNumberToName(colIdx + 1)
			e.file.SetColWidth(sheet, colName, colName, clampWidth(width))
		}
	}
	return nil
}

// setCellValue sets a cell value with the number or date format it needs.
func (e *WorkbookExporter) setCellValue(sheet, cell string, val any) error {
	switch v := val.(type) {
	case nil:
		return e.file.SetCellValue(sheet, cell, "")
	case time.Time:
		if v.IsZero() {
			return e.file.SetCellValue(sheet, cell, "")
		}
		if err := e.file.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
		return e.applyStyle(sheet, cell, "date", e.options.DateFormat)
	case float64:
		if err := e.file.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
		return e.applyStyle(sheet, cell, "number", e.options.NumberFormat)
	default:
		if err := e.file.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
		return e.applyStyle(sheet, cell, "text", "")
	}
}

func (e *WorkbookExporter) applyStyle(sheet, cell, kind, numFmt string) error {
	id, err := e.style(kind, func() (int, error) {
		var custom *string
		if numFmt != "" {
			custom = &numFmt
		}
		return e.createStyle(e.options.DataStyle, custom)
	})
	if err != nil || id == 0 {
		return err
	}
	return e.file.SetCellStyle(sheet, cell, cell, id)
}

// style caches style IDs so each workbook defines every style once.
func (e *WorkbookExporter) style(kind string, create func() (int, error)) (int, error) {
	if id, ok := e.styles[kind]; ok {
		return id, nil
	}
	id, err := create()
	if err != nil {
		return 0, err
	}
	e.styles[kind] = id
	return id, nil
}

// createStyle creates an Excel style from config
func (e *WorkbookExporter) createStyle(config *ExcelStyleConfig, numFmt *string) (int, error) {
	if config == nil && numFmt == nil {
		return 0, nil
	}
	style := &excelize.Style{CustomNumFmt: numFmt}

	if config != nil {
		style.Font = &excelize.Font{
			Bold:  config.FontBold,
			Size:  float64(config.FontSize),
			Color: config.FontColor,
		}
		if config.FillColor != "" {
			style.Fill = excelize.Fill{
				Type:    "pattern",
				Pattern: 1,
				Color:   []string{config.FillColor},
			}
		}
		if config.Alignment != "" {
			style.Alignment = &excelize.Alignment{Horizontal: config.Alignment}
		}
		if config.Border {
			style.Border = []excelize.Border{
				{Type: "left", Color: "BDBDBD", Style: 1},
				{Type: "right", Color: "BDBDBD", Style: 1},
				{Type: "top", Color: "BDBDBD", Style: 1},
				{Type: "bottom", Color: "BDBDBD", Style: 1},
			}
		}
	}

	return e.file.NewStyle(style)
}

// WriteTo writes the Excel file to a writer
func (e *WorkbookExporter) WriteTo(w io.Writer) error {
	return e.file.Write(w)
}

// SaveAs saves the Excel file to a path
func (e *WorkbookExporter) SaveAs(path string) error {
	return e.file.SaveAs(path)
}

// Close closes the Excel file
func (e *WorkbookExporter) Close() error {
	return e.file.Close()
}

func sheetName(name string) string {
	if len(name) > maxSheetName {
		return name[:maxSheetName]
	}
	if name == "" {
		return "Sheet"
	}
	return name
}

// estimateCellWidth estimates the display width of a cell value
func estimateCellWidth(val any) float64 {
	if val == nil {
		return 0
	}
	switch v := val.(type) {
	case float64:
		return float64(len(fmt.Sprintf("%.2f", v))) * 1.3
	case time.Time:
		return 12
	}
	return float64(len(fmt.Sprintf("%v", val))) * 1.1
}

func clampWidth(w float64) float64 {
	if w < 10 {
		return 10
	}
	if w > 60 {
		return 60
	}
	return w
}
