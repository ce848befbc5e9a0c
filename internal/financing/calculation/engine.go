package calculation

// ComputePosition derives every figure of a crop position from its inputs.
// It is a pure function: identical inputs give identical results, nothing is
// read from or written to shared state, and degenerate inputs produce zero
// fallbacks instead of errors.
func ComputePosition(in Inputs) Result {
	production := computeProduction(in)
	revenue := computeRevenue(in, production)
	loan := in.Financing.Accrue(production.TotalArea * max0(in.OpCostPerHa))
	costs := computeCosts(in, production, revenue, loan)
	breakeven := solveBreakeven(in, production, revenue, costs)
	indicators := computeIndicators(in, production, revenue, costs)

	return Result{
		Inputs:     in,
		Production: production,
		Revenue:    revenue,
		Costs:      costs,
		Financing:  loan,
		Breakeven:  breakeven,
		Indicators: indicators,
		Steps:      buildSteps(production, revenue, costs, breakeven),
		Validation: NewValidator().Validate(in, production, revenue),
	}
}

// ComputeAll computes several independent positions.
func ComputeAll(inputs ...Inputs) []Result {
	out := make([]Result, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, ComputePosition(in))
	}
	return out
}

// buildSteps records the calculation trail shown next to the figures.
func buildSteps(p Production, r Revenue, c Costs, b Breakeven) []CalculationStep {
	steps := []CalculationStep{
		{
			Name:        "production",
			Description: "Physical production and sellable volume after the in-kind lease",
			Formula:     "total = area x effective_yield; net = max(0, total - leased_area x lease_sc_ha)",
			Outputs: map[string]float64{
				"total_area":              p.TotalArea,
				"effective_yield":         p.EffectiveYield,
				"total_production":        p.TotalProduction,
				"lease_sacks_total":       p.LeaseSacksTotal,
				"net_sellable_production": p.NetSellableProduction,
			},
		},
		{
			Name:        "revenue",
			Description: "Hedge sized on gross production, spot residual on net production",
			Formula:     "hedged = total x hedged_pct; spot = max(0, net - hedged); blended = gross_revenue / net",
			Outputs: map[string]float64{
				"hedged_volume": r.HedgedVolume,
				"spot_volume":   r.PhysicallyAvailableForSpot,
				"hedge_revenue": r.HedgeRevenue,
				"spot_revenue":  r.SpotRevenue,
				"gross_revenue": r.GrossRevenue,
				"blended_price": r.BlendedPrice,
			},
		},
		{
			Name:        "costs",
			Description: "Cash cost covers operations and interest; economic cost adds the lease valuation",
			Formula:     "cash = op_cost + interest; economic = cash + lease_sc x market_price; profit = gross_revenue - cash",
			Outputs: map[string]float64{
				"operational_cost_total": c.OperationalCostTotal,
				"interest_cost":          c.InterestCost,
				"lease_cost_in_reais":    c.LeaseCostInReais,
				"cash_cost_total":        c.CashCostTotal,
				"economic_cost_total":    c.EconomicCostTotal,
				"net_profit":             c.NetProfit,
				"net_margin_pct":         c.NetMarginPct,
			},
		},
		{
			Name:        "breakeven",
			Description: "Zero-profit price on the open balance and breakeven yields",
			Formula:     "price_0x0 = (cash - hedge_revenue) / open; target = (cash / (1 - m) - hedge_revenue) / open",
			Outputs: map[string]float64{
				"open_volume":                  b.OpenVolume,
				"price_on_open_balance":        b.PriceOnOpenBalance,
				"plan_yield_per_ha":            b.PlanYieldPerHa,
				"conservative_yield_per_ha":    b.ConservativeYieldPerHa,
				"target_price_on_open_balance": b.TargetPriceOnOpenBalance,
				"safety_margin_sacks_per_ha":   b.SafetyMarginSacksPerHa,
			},
		},
	}
	for i := range steps {
		steps[i].StepNumber = i + 1
	}
	return steps
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
