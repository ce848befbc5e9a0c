package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"agroexposure/risk-portal/risk-portal-backend/internal/financing/calculation"
	"agroexposure/risk-portal/risk-portal-backend/internal/financing/cashflow"
	"agroexposure/risk-portal/risk-portal-backend/internal/reports/consolidation"
	"agroexposure/risk-portal/risk-portal-backend/internal/snapshot"
)

func testPortfolio() Portfolio {
	soy := calculation.ComputePosition(snapshot.InputsFromState(nil, snapshot.Soy))
	corn := calculation.ComputePosition(snapshot.InputsFromState(nil, snapshot.Corn))
	sched := cashflow.DefaultScheduleInputs()
	return Portfolio{
		Title:        "Safra 2025/26",
		GeneratedAt:  time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC),
		Positions:    []calculation.Result{soy, corn},
		Consolidated: consolidation.Consolidate(soy, corn),
		CashFlows:    []cashflow.Report{cashflow.Build(soy, sched), cashflow.Build(corn, sched)},
		Calendar:     cashflow.Calendar(soy, corn),
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("excel")
	require.NoError(t, err)
	assert.Equal(t, FormatExcel, f)
	assert.Equal(t, ".xlsx", f.Extension())
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}

func TestPortfolioTables(t *testing.T) {
	p := testPortfolio()
	tables := PortfolioTables(p)

	names := make([]string, len(tables))
	for i, tb := range tables {
		names[i] = tb.Name
		assert.LessOrEqual(t, len(tb.Name), maxSheetName)
		for _, row := range tb.Rows {
			assert.Len(t, row, len(tb.Columns), tb.Name)
		}
	}
	assert.Equal(t, []string{
		"Summary", "Positions", "DRE", "DRE detail", "Cash flow",
		"Forced sale", "Calendar", "Stress", "Alerts",
	}, names)

	assert.Len(t, tables[1].Rows, 2)
	assert.Equal(t, []string{"Line", "Consolidated", "SOJA", "MILHO SAFRINHA"}, tables[2].Columns)
	assert.Len(t, tables[4].Rows, 24)
}

func TestCSVExporter_FormatsValues(t *testing.T) {
	var buf bytes.Buffer
	e := NewCSVExporter(&buf, DefaultCSVOptions())
	require.NoError(t, e.WriteTable(Table{
		Title:   "Sample",
		Columns: []string{"a", "b", "c", "d"},
		Rows:    [][]any{{1234.5, time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC), true, nil}},
	}))
	require.NoError(t, e.Flush())

	assert.Equal(t, "Sample\na;b;c;d\n1234.50;2026-01-30;true;\n", buf.String())
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, testPortfolio()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Consolidated summary\n"))
	assert.Contains(t, out, "Income statement")
	assert.Contains(t, out, "12-month cash flow")
	assert.Contains(t, out, "Revenue (gross production value)")
}

func TestWrite_Excel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatExcel, testPortfolio()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 9)
	assert.Equal(t, "Summary", sheets[0])

	header, err := f.GetCellValue("Positions", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Crop", header)

	crop, err := f.GetCellValue("Positions", "A2")
	require.NoError(t, err)
	assert.Equal(t, "SOJA", crop)
}

func TestWrite_PDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatPDF, testPortfolio()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestWrite_UnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, Format("docx"), testPortfolio()))
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Sheet", sheetName(""))
	assert.Len(t, sheetName(strings.Repeat("x", 40)), maxSheetName)
}
