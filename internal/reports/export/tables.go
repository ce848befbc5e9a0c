package export

import (
	"fmt"
	"io"
	"time"

	"agroexposure/risk-portal/risk-portal-backend/internal/financing/calculation"
	"agroexposure/risk-portal/risk-portal-backend/internal/financing/cashflow"
	"agroexposure/risk-portal/risk-portal-backend/internal/reports/consolidation"
)

// Format is an export file format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "xlsx"
	FormatPDF   Format = "pdf"
)

// ParseFormat accepts csv, xlsx (or excel) and pdf.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatExcel, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Portfolio is everything a consolidated export shows.
type Portfolio struct {
	Title        string
	GeneratedAt  time.Time
	Positions    []calculation.Result
	Consolidated consolidation.Report
	CashFlows    []cashflow.Report
	Calendar     []cashflow.Event
}

// Table is a titled grid of raw values. Numbers stay numbers so that
// spreadsheets can compute with them; display formatting is up to the writer.
type Table struct {
	Name    string
	Title   string
	Columns []string
	Rows    [][]any
}

// Write renders the portfolio in the given format.
func Write(w io.Writer, format Format, p Portfolio) error {
	tables := PortfolioTables(p)
	switch format {
	case FormatCSV:
		e := NewCSVExporter(w, DefaultCSVOptions())
		if err := e.WriteTables(tables); err != nil {
			return err
		}
		return e.Flush()
	case FormatExcel:
		e := NewWorkbookExporter(DefaultExcelOptions())
		defer e.Close()
		if err := e.AddTables(tables); err != nil {
			return err
		}
		return e.WriteTo(w)
	case FormatPDF:
		opts := DefaultPDFOptions()
		opts.Title = p.Title
		g := NewPDFGenerator(opts)
		if err := g.GenerateReport(p.GeneratedAt, summaryItems(p.Consolidated), tables[1:]); err != nil {
			return err
		}
		return g.WriteTo(w)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// PortfolioTables lays the portfolio out as tables, summary first.
func PortfolioTables(p Portfolio) []Table {
	r := p.Consolidated
	return []Table{
		summaryTable(r),
		positionsTable(r),
		statementTable(r),
		professionalTable(p.Positions),
		cashFlowTable(p.CashFlows),
		forcedSaleTable(p.CashFlows),
		calendarTable(p.Calendar),
		stressTable(r),
		alertsTable(r),
	}
}

// KeyValue is one headline figure.
type KeyValue struct {
	Key   string
	Value any
}

func summaryItems(r consolidation.Report) []KeyValue {
	items := []KeyValue{
		{"Physical area (ha)", r.PhysicalArea},
		{"Annual planted area (ha)", r.AnnualPlantedArea},
		{"Revenue", r.TotalRevenue},
		{"Cash cost", r.TotalCashCost},
		{"Economic cost", r.TotalEconomicCost},
		{"Net profit", r.TotalProfit},
		{"Net margin (%)", r.MarginPct},
		{"Weighted target margin (%)", r.WeightedTargetMarginPct},
		{"Weighted average price (R$/sc)", r.WeightedAvgPrice},
		{"Profit per physical ha", r.ProfitPerPhysicalHa},
		{"Interest / revenue (%)", r.Insights.InterestPctRevenue},
		{"ROI on cash cost (%)", r.Insights.ROIOnCashCostPct},
		{"Best crop per ha", r.Ranking.Best},
		{"Worst crop per ha", r.Ranking.Worst},
	}
	if r.Insights.InterestCoverage != nil {
		items = append(items, KeyValue{"Interest coverage (x)", *r.Insights.InterestCoverage})
	}
	return items
}

func summaryTable(r consolidation.Report) Table {
	t := Table{Name: "Summary", Title: "Consolidated summary", Columns: []string{"Metric", "Value"}}
	for _, kv := range summaryItems(r) {
		t.Rows = append(t.Rows, []any{kv.Key, kv.Value})
	}
	return t
}

func positionsTable(r consolidation.Report) Table {
	t := Table{
		Name:  "Positions",
		Title: "Positions",
		Columns: []string{
			"Crop", "Area (ha)", "Yield (sc/ha)", "Net production (sc)", "Blended price",
			"Revenue", "Cash cost", "Profit", "Profit/ha", "Margin (%)",
			"0x0 price", "Target price", "Hedged (%)", "Safety margin (sc/ha)",
		},
	}
	for _, p := range r.Positions {
		t.Rows = append(t.Rows, []any{
			p.Crop, p.Area, p.EffectiveYield, p.NetProduction, p.BlendedPrice,
			p.Revenue, p.CashCost, p.Profit, p.ProfitPerHa, p.MarginPct,
			p.BreakevenPrice, p.TargetPrice, p.HedgedPct, p.SafetyMarginSacks,
		})
	}
	return t
}

func statementTable(r consolidation.Report) Table {
	t := Table{Name: "DRE", Title: "Income statement", Columns: []string{"Line", "Consolidated"}}
	for _, s := range r.PositionStatements {
		t.Columns = append(t.Columns, s.Title)
	}
	for i, line := range r.Statement.Lines {
		row := []any{line.Label, line.Value}
		for _, s := range r.PositionStatements {
			row = append(row, s.Lines[i].Value)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func professionalTable(results []calculation.Result) Table {
	t := Table{
		Name:    "DRE detail",
		Title:   "Vertical analysis per crop",
		Columns: []string{"Crop", "Line", "Description", "R$", "R$/ha", "sc/ha"},
	}
	for _, res := range results {
		for _, l := range consolidation.ProfessionalStatement(res) {
			t.Rows = append(t.Rows, []any{res.Inputs.Crop, l.Group, l.Description, l.Value, l.PerHa, l.SacksPerHa})
		}
	}
	return t
}

func cashFlowTable(flows []cashflow.Report) Table {
	t := Table{
		Name:    "Cash flow",
		Title:   "12-month cash flow",
		Columns: []string{"Crop", "Month", "Inflow", "Outflow", "Net", "Balance"},
	}
	for _, f := range flows {
		for _, m := range f.Months {
			t.Rows = append(t.Rows, []any{f.Crop, m.Label, m.Inflow, m.Outflow, m.Net, m.CumulativeBalance})
		}
	}
	return t
}

func forcedSaleTable(flows []cashflow.Report) Table {
	t := Table{
		Name:    "Forced sale",
		Title:   "Liquidity-driven sales",
		Columns: []string{"Crop", "Month", "Gap", "Sacks", "% of production"},
	}
	for _, f := range flows {
		for _, d := range f.ForcedSale.Deficits {
			t.Rows = append(t.Rows, []any{f.Crop, d.Label, d.Gap, d.Sacks, d.PctOfProduction})
		}
	}
	return t
}

func calendarTable(events []cashflow.Event) Table {
	t := Table{Name: "Calendar", Title: "Financing calendar", Columns: []string{"Date", "Crop", "Event", "Amount"}}
	for _, e := range events {
		t.Rows = append(t.Rows, []any{e.Date, e.Crop, string(e.Kind), e.Amount})
	}
	return t
}

func stressTable(r consolidation.Report) Table {
	t := Table{Name: "Stress", Title: "Stress scenarios", Columns: []string{"Scenario", "Revenue", "Profit", "Change"}}
	for _, s := range r.Stress {
		t.Rows = append(t.Rows, []any{s.Name, s.Revenue, s.Profit, s.DeltaProfit})
	}
	return t
}

func alertsTable(r consolidation.Report) Table {
	t := Table{Name: "Alerts", Title: "Alerts", Columns: []string{"Priority", "Crop", "Code", "Message"}}
	for _, a := range r.Insights.Alerts {
		t.Rows = append(t.Rows, []any{a.Priority, a.Crop, a.Code, a.Message})
	}
	return t
}
