package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// CSVExporter exports tables to CSV format
type CSVExporter struct {
	writer  *csv.Writer
	options CSVOptions
}

// CSVOptions configures CSV export behavior
type CSVOptions struct {
	Delimiter      rune   `json:"delimiter"`        // Field delimiter (default: semicolon)
	UseCRLF        bool   `json:"use_crlf"`         // Use \r\n for line terminator
	IncludeHeader  bool   `json:"include_header"`   // Include column headers
	IncludeTitles  bool   `json:"include_titles"`   // Write a title row before each table
	DateFormat     string `json:"date_format"`      // Format for date fields
	NumberFormat   string `json:"number_format"`    // Format for numbers (e.g., "%.2f")
	NullValue      string `json:"null_value"`       // String to use for null values
	BoolTrueValue  string `json:"bool_true_value"`  // String for true
	BoolFalseValue string `json:"bool_false_value"` // String for false
}

// DefaultCSVOptions returns default CSV export options. The semicolon keeps
// files readable by spreadsheets configured for decimal commas.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:      ';',
		IncludeHeader:  true,
		IncludeTitles:  true,
		DateFormat:     "2006-01-02",
		NumberFormat:   "%.2f",
		BoolTrueValue:  "true",
		BoolFalseValue: "false",
	}
}

// NewCSVExporter creates a new CSV exporter
func NewCSVExporter(w io.Writer, options CSVOptions) *CSVExporter {
	writer := csv.NewWriter(w)
	writer.Comma = options.Delimiter
	writer.UseCRLF = options.UseCRLF

	return &CSVExporter{
		writer:  writer,
		options: options,
	}
}

// WriteTables writes each table as a block separated by an empty line.
func (e *CSVExporter) WriteTables(tables []Table) error {
	for i, t := range tables {
		if i > 0 {
			if err := e.writer.Write([]string{""}); err != nil {
				return fmt.Errorf("failed to write separator: %w", err)
			}
		}
		if err := e.WriteTable(t); err != nil {
			return fmt.Errorf("table %s: %w", t.Name, err)
		}
	}
	return nil
}

// WriteTable writes the optional title, header and rows of one table.
func (e *CSVExporter) WriteTable(t Table) error {
	if e.options.IncludeTitles && t.Title != "" {
		if err := e.writer.Write([]string{t.Title}); err != nil {
			return fmt.Errorf("failed to write title: %w", err)
		}
	}
	if err := e.WriteHeader(t.Columns); err != nil {
		return err
	}
	return e.WriteRows(t.Rows)
}

// WriteHeader writes the CSV header row
func (e *CSVExporter) WriteHeader(columns []string) error {
	if !e.options.IncludeHeader {
		return nil
	}
	if err := e.writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// WriteRow writes a single row of data
func (e *CSVExporter) WriteRow(row []any) error {
	record := make([]string, len(row))
	for i, val := range row {
		record[i] = e.formatValue(val)
	}

	if err := e.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	return nil
}

// WriteRows writes multiple rows of data
func (e *CSVExporter) WriteRows(rows [][]any) error {
	for _, row := range rows {
		if err := e.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes any buffered data to the underlying writer
func (e *CSVExporter) Flush() error {
	e.writer.Flush()
	return e.writer.Error()
}

// formatValue formats a value for CSV output
func (e *CSVExporter) formatValue(val any) string {
	if val == nil {
		return e.options.NullValue
	}

	switch v := val.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		if e.options.NumberFormat != "" {
			return fmt.Sprintf(e.options.NumberFormat, v)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return e.options.BoolTrueValue
		}
		return e.options.BoolFalseValue
	case time.Time:
		if v.IsZero() {
			return e.options.NullValue
		}
		return v.Format(e.options.DateFormat)
	default:
		return fmt.Sprintf("%v", v)
	}
}
