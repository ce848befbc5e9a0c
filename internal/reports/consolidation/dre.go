package consolidation

import (
	"fmt"

	"agroexposure/risk-portal/risk-portal-backend/internal/financing/calculation"
)

// Measure tells a waterfall chart how to draw a line.
type Measure string

const (
	MeasureAbsolute Measure = "absolute"
	MeasureRelative Measure = "relative"
	MeasureTotal    Measure = "total"
)

// Statement line labels.
const (
	LineRevenue         = "Revenue (gross production value)"
	LineOperationalCost = "(-) Operational cost"
	LineLease           = "(-) Land lease"
	LineEBITDA          = "(=) EBITDA"
	LineInterest        = "(-) Interest"
	LineNetProfit       = "(=) Net profit"
)

// Line is one signed entry of an income statement.
type Line struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Measure Measure `json:"measure"`
}

// Statement is a simplified income statement (DRE) as an ordered,
// waterfall-compatible sequence of lines.
type Statement struct {
	Title string `json:"title"`
	Lines []Line `json:"lines"`
}

// Value returns the value of the line with the given label.
func (s Statement) Value(label string) (float64, bool) {
	for _, l := range s.Lines {
		if l.Label == label {
			return l.Value, true
		}
	}
	return 0, false
}

// NetProfit is the closing line of the statement.
func (s Statement) NetProfit() float64 {
	if len(s.Lines) == 0 {
		return 0
	}
	return s.Lines[len(s.Lines)-1].Value
}

// IncomeStatement builds the DRE of one position. The top line is the gross
// production value, i.e. sales plus the lease sacks valued at market, so the
// lease line is deducted exactly once and the closing line equals the
// position's net profit.
func IncomeStatement(title string, res calculation.Result) Statement {
	return newStatement(title,
		res.Revenue.GrossRevenue,
		res.Costs.OperationalCostTotal,
		res.Costs.LeaseCostInReais,
		res.Costs.InterestCost)
}

func consolidatedStatement(r Report) Statement {
	return newStatement("Consolidated", r.TotalRevenue, r.TotalOperationalCost, r.TotalLease, r.TotalInterest)
}

func newStatement(title string, sales, opCost, lease, interest float64) Statement {
	vbp := sales + lease
	ebitda := sales - opCost
	return Statement{
		Title: title,
		Lines: []Line{
			{Label: LineRevenue, Value: vbp, Measure: MeasureAbsolute},
			{Label: LineOperationalCost, Value: -opCost, Measure: MeasureRelative},
			{Label: LineLease, Value: -lease, Measure: MeasureRelative},
			{Label: LineEBITDA, Value: ebitda, Measure: MeasureTotal},
			{Label: LineInterest, Value: -interest, Measure: MeasureRelative},
			{Label: LineNetProfit, Value: ebitda - interest, Measure: MeasureTotal},
		},
	}
}

// ProfessionalLine is a row of the vertical analysis, carrying the value in
// R$, per hectare, and in sacks per hectare at the blended price.
type ProfessionalLine struct {
	Group       string  `json:"group"`
	Description string  `json:"description"`
	Value       float64 `json:"value"`
	PerHa       float64 `json:"per_ha"`
	SacksPerHa  float64 `json:"sacks_per_ha"`
}

// ProfessionalStatement is the vertical analysis of one position: gross
// production value, land cost, net marketable revenue, operational cost,
// EBITDA, interest and the final result.
func ProfessionalStatement(res calculation.Result) []ProfessionalLine {
	area := res.Production.TotalArea
	price := res.Revenue.BlendedPrice
	perHa := func(v float64) float64 { return ratio(v, area) }
	sacks := func(v float64) float64 { return ratio(perHa(v), price) }

	vbp := res.Indicators.GrossProductionValue
	lease := res.Costs.LeaseCostInReais
	sales := res.Revenue.GrossRevenue
	op := res.Costs.OperationalCostTotal
	ebitda := res.Costs.OperatingProfit
	interest := res.Costs.InterestCost
	profit := res.Costs.NetProfit

	landDesc := "No leased area"
	if res.Inputs.LeasedArea > 0 {
		landDesc = fmt.Sprintf("%.0f ha leased at %.1f sc/ha", res.Inputs.LeasedArea, res.Inputs.LeaseSacksPerHa)
	}

	return []ProfessionalLine{
		{
			Group:       "1. Gross production value",
			Description: "Total production valued, lease sacks at market price",
			Value:       vbp,
			PerHa:       perHa(vbp),
			SacksPerHa:  res.Production.EffectiveYield,
		},
		{
			Group:       "2. (-) Land cost",
			Description: landDesc,
			Value:       -lease,
			PerHa:       -perHa(lease),
			SacksPerHa:  -ratio(res.Production.LeaseSacksTotal, area),
		},
		{
			Group:       "3. (=) Net marketable revenue",
			Description: fmt.Sprintf("Sale of net volume at an average %.2f/sc", price),
			Value:       sales,
			PerHa:       perHa(sales),
			SacksPerHa:  ratio(res.Production.NetSellableProduction, area),
		},
		{
			Group:       "4. (-) Operational cost",
			Description: fmt.Sprintf("Applied on %.0f ha", area),
			Value:       -op,
			PerHa:       -perHa(op),
			SacksPerHa:  -sacks(op),
		},
		{
			Group:       "5. (=) EBITDA",
			Description: "Cash generated by the crop",
			Value:       ebitda,
			PerHa:       perHa(ebitda),
			SacksPerHa:  sacks(ebitda),
		},
		{
			Group:       "6. (-) Interest",
			Description: fmt.Sprintf("Interest over %d days", res.Financing.Days),
			Value:       -interest,
			PerHa:       -perHa(interest),
			SacksPerHa:  -res.Indicators.InterestSacksPerHa,
		},
		{
			Group:       "7. (=) Final result",
			Description: "Result after operations and financing",
			Value:       profit,
			PerHa:       perHa(profit),
			SacksPerHa:  sacks(profit),
		},
	}
}
