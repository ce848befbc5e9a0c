package consolidation

import (
	"math"
	"sort"

	"agroexposure/risk-portal/risk-portal-backend/internal/financing/calculation"
)

// PositionSummary is the per-crop row of the consolidated view.
type PositionSummary struct {
	Crop              string  `json:"crop"`
	Area              float64 `json:"area"`
	EffectiveYield    float64 `json:"effective_yield"`
	Production        float64 `json:"production"`
	NetProduction     float64 `json:"net_production"`
	BlendedPrice      float64 `json:"blended_price"`
	MarketPrice       float64 `json:"market_price"`
	Revenue           float64 `json:"revenue"`
	OperationalCost   float64 `json:"operational_cost"`
	LeaseCost         float64 `json:"lease_cost"`
	Interest          float64 `json:"interest"`
	CashCost          float64 `json:"cash_cost"`
	EconomicCost      float64 `json:"economic_cost"`
	Profit            float64 `json:"profit"`
	ProfitPerHa       float64 `json:"profit_per_ha"`
	MarginPct         float64 `json:"margin_pct"`
	TargetMarginPct   float64 `json:"target_margin_pct"`
	BreakevenPrice    float64 `json:"breakeven_price"`
	TargetPrice       float64 `json:"target_price"`
	HedgedPct         float64 `json:"hedged_pct"`
	SpotExposurePct   float64 `json:"spot_exposure_pct"`
	SafetyMarginSacks float64 `json:"safety_margin_sacks"`
}

// Ranking orders positions by profit per hectare.
type Ranking struct {
	Order            []string `json:"order"`
	Best             string   `json:"best"`
	Worst            string   `json:"worst"`
	BestProfitPerHa  float64  `json:"best_profit_per_ha"`
	WorstProfitPerHa float64  `json:"worst_profit_per_ha"`
	GapPerHa         float64  `json:"gap_per_ha"`
}

// Elasticity is the first-order profit response to price and yield.
type Elasticity struct {
	ProfitPerPriceUnit float64 `json:"profit_per_price_unit"` // per +R$1/sc
	ProfitPerYieldUnit float64 `json:"profit_per_yield_unit"` // per +1 sc/ha
}

// StressShock is a multiplicative shock on consolidated revenue.
type StressShock struct {
	Name       string  `json:"name"`
	PriceShock float64 `json:"price_shock"`
	YieldShock float64 `json:"yield_shock"`
}

// StressScenario is the consolidated outcome of a shock with cost held fixed.
type StressScenario struct {
	StressShock
	Revenue     float64 `json:"revenue"`
	Profit      float64 `json:"profit"`
	DeltaProfit float64 `json:"delta_profit"`
}

// DefaultStressShocks are price -5%, and price -5% with yield -5%.
var DefaultStressShocks = []StressShock{
	{Name: "price -5%", PriceShock: -0.05},
	{Name: "price -5% & yield -5%", PriceShock: -0.05, YieldShock: -0.05},
}

// Report is the combined view of positions sharing the same land.
type Report struct {
	Positions []PositionSummary `json:"positions"`

	PhysicalArea      float64 `json:"physical_area"`
	AnnualPlantedArea float64 `json:"annual_planted_area"`

	TotalProduction      float64 `json:"total_production"`
	TotalNetProduction   float64 `json:"total_net_production"`
	TotalRevenue         float64 `json:"total_revenue"`
	TotalOperationalCost float64 `json:"total_operational_cost"`
	TotalLease           float64 `json:"total_lease"`
	TotalInterest        float64 `json:"total_interest"`
	TotalCashCost        float64 `json:"total_cash_cost"`
	TotalEconomicCost    float64 `json:"total_economic_cost"`
	TotalProfit          float64 `json:"total_profit"`
	EBITDA               float64 `json:"ebitda"`

	MarginPct               float64 `json:"margin_pct"`
	WeightedTargetMarginPct float64 `json:"weighted_target_margin_pct"`
	WeightedAvgPrice        float64 `json:"weighted_avg_price"`
	ProfitPerPhysicalHa     float64 `json:"profit_per_physical_ha"`

	Ranking            Ranking          `json:"ranking"`
	Statement          Statement        `json:"statement"`
	PositionStatements []Statement      `json:"position_statements"`
	Elasticity         Elasticity       `json:"elasticity"`
	Stress             []StressScenario `json:"stress"`
	Insights           Insights         `json:"insights"`
}

// Consolidate combines a first crop and a second (double-cropping) crop
// using the default alert thresholds.
func Consolidate(a, b calculation.Result) Report {
	return ConsolidateWith(DefaultThresholds(), a, b)
}

// ConsolidateWith combines any number of positions planted on the same
// footprint. Physical area is the largest position's area; planted area is
// their sum. Like ComputePosition it is pure and never fails.
func ConsolidateWith(th Thresholds, results ...calculation.Result) Report {
	r := Report{
		Positions:          make([]PositionSummary, 0, len(results)),
		PositionStatements: make([]Statement, 0, len(results)),
	}

	weightedTarget := 0.0
	for _, res := range results {
		s := summarize(res)
		r.Positions = append(r.Positions, s)
		r.PositionStatements = append(r.PositionStatements, IncomeStatement(s.Crop, res))

		r.PhysicalArea = math.Max(r.PhysicalArea, s.Area)
		r.AnnualPlantedArea += s.Area
		r.TotalProduction += s.Production
		r.TotalNetProduction += s.NetProduction
		r.TotalRevenue += s.Revenue
		r.TotalOperationalCost += s.OperationalCost
		r.TotalLease += s.LeaseCost
		r.TotalInterest += s.Interest
		r.TotalCashCost += s.CashCost
		r.TotalEconomicCost += s.EconomicCost
		r.TotalProfit += s.Profit
		weightedTarget += s.Revenue * s.TargetMarginPct
	}

	r.EBITDA = r.TotalRevenue - r.TotalOperationalCost
	r.MarginPct = ratio(r.TotalProfit, r.TotalRevenue) * 100
	r.WeightedTargetMarginPct = ratio(weightedTarget, r.TotalRevenue)
	r.WeightedAvgPrice = ratio(r.TotalRevenue, r.TotalNetProduction)
	r.ProfitPerPhysicalHa = ratio(r.TotalProfit, r.PhysicalArea)

	r.Ranking = rank(r.Positions)
	r.Statement = consolidatedStatement(r)
	r.Elasticity = elasticity(r)
	r.Stress = Stress(r, DefaultStressShocks)
	r.Insights = buildInsights(th, r)
	return r
}

// Stress applies each shock to consolidated revenue, holding cash cost fixed.
func Stress(r Report, shocks []StressShock) []StressScenario {
	out := make([]StressScenario, 0, len(shocks))
	for _, s := range shocks {
		revenue := r.TotalRevenue * (1 + s.PriceShock) * (1 + s.YieldShock)
		profit := revenue - r.TotalCashCost
		out = append(out, StressScenario{
			StressShock: s,
			Revenue:     revenue,
			Profit:      profit,
			DeltaProfit: profit - r.TotalProfit,
		})
	}
	return out
}

func summarize(res calculation.Result) PositionSummary {
	return PositionSummary{
		Crop:              res.Inputs.Crop,
		Area:              res.Production.TotalArea,
		EffectiveYield:    res.Production.EffectiveYield,
		Production:        res.Production.TotalProduction,
		NetProduction:     res.Production.NetSellableProduction,
		BlendedPrice:      res.Revenue.BlendedPrice,
		MarketPrice:       res.Inputs.MarketPrice,
		Revenue:           res.Revenue.GrossRevenue,
		OperationalCost:   res.Costs.OperationalCostTotal,
		LeaseCost:         res.Costs.LeaseCostInReais,
		Interest:          res.Costs.InterestCost,
		CashCost:          res.Costs.CashCostTotal,
		EconomicCost:      res.Costs.EconomicCostTotal,
		Profit:            res.Costs.NetProfit,
		ProfitPerHa:       res.Indicators.ProfitPerHa,
		MarginPct:         res.Costs.NetMarginPct,
		TargetMarginPct:   res.Breakeven.TargetMargin * 100,
		BreakevenPrice:    res.Breakeven.PriceOnOpenBalance,
		TargetPrice:       res.Breakeven.TargetPriceOnOpenBalance,
		HedgedPct:         100 - res.Indicators.SpotExposurePct,
		SpotExposurePct:   res.Indicators.SpotExposurePct,
		SafetyMarginSacks: res.Breakeven.SafetyMarginSacksPerHa,
	}
}

// rank sorts by profit per hectare, best first. Ties keep input order.
func rank(positions []PositionSummary) Ranking {
	if len(positions) == 0 {
		return Ranking{Order: []string{}}
	}

	sorted := make([]PositionSummary, len(positions))
	copy(sorted, positions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ProfitPerHa > sorted[j].ProfitPerHa
	})

	order := make([]string, len(sorted))
	for i, p := range sorted {
		order[i] = p.Crop
	}
	best, worst := sorted[0], sorted[len(sorted)-1]

	return Ranking{
		Order:            order,
		Best:             best.Crop,
		Worst:            worst.Crop,
		BestProfitPerHa:  best.ProfitPerHa,
		WorstProfitPerHa: worst.ProfitPerHa,
		GapPerHa:         best.ProfitPerHa - worst.ProfitPerHa,
	}
}

func elasticity(r Report) Elasticity {
	area := r.PhysicalArea
	if area <= 0 {
		area = r.AnnualPlantedArea
	}
	return Elasticity{
		ProfitPerPriceUnit: r.TotalProduction,
		ProfitPerYieldUnit: area * r.WeightedAvgPrice,
	}
}

func ratio(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}
