package export

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"agroexposure/risk-portal/risk-portal-backend/pkg/money"
)

// PDFGenerator generates the executive PDF report
type PDFGenerator struct {
	pdf     *gofpdf.Fpdf
	options PDFOptions
	tr      func(string) string
}

// PDFOptions configures PDF generation
type PDFOptions struct {
	PageSize       string     `json:"page_size"`   // A4, Letter, Legal
	Orientation    string     `json:"orientation"` // portrait, landscape
	Title          string     `json:"title"`
	Subtitle       string     `json:"subtitle,omitempty"`
	DateFormat     string     `json:"date_format"`
	IncludePageNum bool       `json:"include_page_num"`
	HeaderColor    PDFColor   `json:"header_color"`
	AlternateRows  bool       `json:"alternate_rows"`
	AlternateColor PDFColor   `json:"alternate_color"`
	FontFamily     string     `json:"font_family"`
	FontSize       float64    `json:"font_size"`
	HeaderFontSize float64    `json:"header_font_size"`
	TitleFontSize  float64    `json:"title_font_size"`
	Margins        PDFMargins `json:"margins"`
}

// PDFColor represents an RGB color
type PDFColor struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// PDFMargins represents page margins
type PDFMargins struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// DefaultPDFOptions returns default PDF options
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageSize:       "A4",
		Orientation:    "landscape",
		Title:          "AgroExposure report",
		DateFormat:     "02/01/2006",
		IncludePageNum: true,
		HeaderColor:    PDFColor{R: 46, G: 125, B: 50},
		AlternateRows:  true,
		AlternateColor: PDFColor{R: 242, G: 242, B: 242},
		FontFamily:     "Arial",
		FontSize:       8,
		HeaderFontSize: 8,
		TitleFontSize:  16,
		Margins: PDFMargins{
			Left:   12,
			Right:  12,
			Top:    15,
			Bottom: 15,
		},
	}
}

// NewPDFGenerator creates a new PDF generator
func NewPDFGenerator(options PDFOptions) *PDFGenerator {
	orientation := "P"
	if options.Orientation == "landscape" {
		orientation = "L"
	}

	pdf := gofpdf.New(orientation, "mm", options.PageSize, "")
	pdf.SetMargins(options.Margins.Left, options.Margins.Top, options.Margins.Right)
	pdf.SetAutoPageBreak(true, options.Margins.Bottom)

	g := &PDFGenerator{
		pdf:     pdf,
		options: options,
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
	}
	g.setFooter()
	return g
}

// GenerateReport writes the title page summary followed by one section per
// table.
func (g *PDFGenerator) GenerateReport(generatedAt time.Time, summary []KeyValue, tables []Table) error {
	g.pdf.AddPage()
	g.addTitle()
	if g.options.Subtitle != "" {
		g.addSubtitle()
	}
	g.addDate(generatedAt)

	g.AddSummarySection("Summary", summary)

	for _, t := range tables {
		if len(t.Rows) == 0 {
			continue
		}
		g.addTable(t)
	}
	return g.pdf.Error()
}

// addTitle adds the report title
func (g *PDFGenerator) addTitle() {
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.TitleFontSize)
	g.pdf.SetTextColor(0, 0, 0)
	g.pdf.CellFormat(0, 10, g.tr(g.options.Title), "", 1, "C", false, 0, "")
}

// addSubtitle adds the report subtitle
func (g *PDFGenerator) addSubtitle() {
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize+2)
	g.pdf.SetTextColor(100, 100, 100)
	g.pdf.CellFormat(0, 8, g.tr(g.options.Subtitle), "", 1, "C", false, 0, "")
}

// addDate adds the report generation date
func (g *PDFGenerator) addDate(at time.Time) {
	if at.IsZero() {
		at = time.Now()
	}
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
	g.pdf.SetTextColor(128, 128, 128)
	g.pdf.CellFormat(0, 6, "Generated: "+at.Format(g.options.DateFormat), "", 1, "R", false, 0, "")
}

// AddSummarySection adds a two-column list of headline figures
func (g *PDFGenerator) AddSummarySection(title string, items []KeyValue) {
	g.addSectionTitle(title)

	for _, item := range items {
		g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize+1)
		g.pdf.CellFormat(70, 6, g.tr(item.Key), "", 0, "L", false, 0, "")
		g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize+1)
		g.pdf.CellFormat(0, 6, g.tr(g.formatValue(item.Value)), "", 1, "L", false, 0, "")
	}
}

func (g *PDFGenerator) addSectionTitle(title string) {
	g.pdf.Ln(6)
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize+4)
	g.pdf.SetTextColor(0, 0, 0)
	g.pdf.CellFormat(0, 8, g.tr(title), "", 1, "L", false, 0, "")
	g.pdf.Ln(1)
}

func (g *PDFGenerator) addTable(t Table) {
	g.addSectionTitle(t.Title)
	widths := g.calculateColumnWidths(t)
	g.addTableHeader(t.Columns, widths)
	g.addTableData(t, widths)
}

// calculateColumnWidths sizes columns to their content, scaled to the page.
func (g *PDFGenerator) calculateColumnWidths(t Table) []float64 {
	pageWidth, _ := g.pdf.GetPageSize()
	available := pageWidth - g.options.Margins.Left - g.options.Margins.Right

	widths := make([]float64, len(t.Columns))
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.HeaderFontSize)
	for i, label := range t.Columns {
		widths[i] = g.pdf.GetStringWidth(label) + 4
	}

	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
	for _, row := range t.Rows {
		for i, val := range row {
			if i >= len(widths) {
				break
			}
			if w := g.pdf.GetStringWidth(g.tr(g.formatValue(val))) + 4; w > widths[i] {
				widths[i] = w
			}
		}
	}

	total := 0.0
	for _, w := range widths {
		total += w
	}
	if total > available {
		scale := available / total
		for i := range widths {
			widths[i] *= scale
		}
	}
	return widths
}

// addTableHeader adds the table header row
func (g *PDFGenerator) addTableHeader(labels []string, widths []float64) {
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.HeaderFontSize)
	g.pdf.SetFillColor(g.options.HeaderColor.R, g.options.HeaderColor.G, g.options.HeaderColor.B)
	g.pdf.SetTextColor(255, 255, 255)

	for i, label := range labels {
		g.pdf.CellFormat(widths[i], 7, g.tr(label), "1", 0, "C", true, 0, "")
	}
	g.pdf.Ln(-1)
}

// addTableData adds the data rows, repeating the header after a page break
func (g *PDFGenerator) addTableData(t Table, widths []float64) {
	_, pageHeight := g.pdf.GetPageSize()

	for i, row := range t.Rows {
		if g.pdf.GetY()+7 > pageHeight-g.options.Margins.Bottom {
			g.pdf.AddPage()
			g.addTableHeader(t.Columns, widths)
		}

		g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
		g.pdf.SetTextColor(0, 0, 0)
		if g.options.AlternateRows && i%2 == 1 {
			g.pdf.SetFillColor(g.options.AlternateColor.R, g.options.AlternateColor.G, g.options.AlternateColor.B)
		} else {
			g.pdf.SetFillColor(255, 255, 255)
		}

		for j, val := range row {
			if j >= len(widths) {
				break
			}
			align := "L"
			if _, ok := val.(float64); ok {
				align = "R"
			}
			text := truncate(g.tr(g.formatValue(val)), int(widths[j]/1.6))
			g.pdf.CellFormat(widths[j], 6, text, "1", 0, align, true, 0, "")
		}
		g.pdf.Ln(-1)
	}
}

// formatValue formats a value for display
func (g *PDFGenerator) formatValue(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(g.options.DateFormat)
	case float64:
		return money.Number(v, 2)
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// WriteTo writes the PDF to a writer
func (g *PDFGenerator) WriteTo(w io.Writer) error {
	return g.pdf.Output(w)
}

// OutputToBytes returns the PDF as bytes
func (g *PDFGenerator) OutputToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := g.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// setFooter sets up the page footer
func (g *PDFGenerator) setFooter() {
	g.pdf.SetFooterFunc(func() {
		if !g.options.IncludePageNum {
			return
		}
		g.pdf.SetY(-12)
		g.pdf.SetFont(g.options.FontFamily, "", 7)
		g.pdf.SetTextColor(128, 128, 128)
		g.pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", g.pdf.PageNo()), "", 0, "C", false, 0, "")
	})
}

func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
