package calculation

import (
	"math"

	"agroexposure/risk-portal/risk-portal-backend/internal/financing"
)

// computeCosts aggregates operational cost, interest and the lease valuation.
// The lease already reduced sellable volume, so it appears in the economic
// total only and never in profit.
func computeCosts(in Inputs, p Production, r Revenue, loan financing.Loan) Costs {
	opTotal := p.TotalArea * math.Max(0, in.OpCostPerHa)

	inputsPct := clampPct(in.InputsPct)
	harvestPct := clampPct(in.HarvestPct)
	maintenancePct := 100 - inputsPct - harvestPct

	leaseCost := p.LeaseSacksTotal * math.Max(0, in.MarketPrice)
	cash := opTotal + loan.Interest
	economic := cash + leaseCost
	profit := r.GrossRevenue - cash

	c := Costs{
		OperationalCostTotal: opTotal,
		InputsCost:           opTotal * inputsPct / 100,
		HarvestCost:          opTotal * harvestPct / 100,
		MaintenancePct:       maintenancePct,
		MaintenanceCost:      math.Max(0, opTotal*maintenancePct/100),
		InterestCost:         loan.Interest,
		LeaseCostInReais:     leaseCost,
		CashCostTotal:        cash,
		EconomicCostTotal:    economic,
		NetProfit:            profit,
		OperatingProfit:      r.GrossRevenue - opTotal,
		NetMarginPct:         safeDiv(profit, r.GrossRevenue) * 100,
		ROIOnEconomicCost:    safeDiv(profit, economic) * 100,
		ROIOnCashCost:        safeDiv(profit, cash) * 100,
		OperationalBarter:    safeDiv(math.Max(0, in.OpCostPerHa), in.MarketPrice),
	}
	if p.TotalArea > 0 {
		c.TotalBarter = safeDiv(economic/p.TotalArea, in.MarketPrice)
	}
	return c
}

// computeIndicators derives per-unit and per-area figures. Every ratio falls
// back to 0 on a non-positive denominator.
func computeIndicators(in Inputs, p Production, r Revenue, c Costs) Indicators {
	cashPerHa := safeDiv(c.CashCostTotal, p.TotalArea)

	ind := Indicators{
		CashCostPerNetSack:     safeDiv(c.CashCostTotal, p.NetSellableProduction),
		EconomicCostPerNetSack: safeDiv(c.EconomicCostTotal, p.NetSellableProduction),
		CashCostPerHa:          cashPerHa,
		OwnedAreaCostPerHa:     cashPerHa,
		InterestPerSack:        safeDiv(c.InterestCost, p.TotalProduction),
		InterestSacksPerHa:     safeDiv(safeDiv(c.InterestCost, p.TotalArea), r.BlendedPrice),
		GrossProductionValue:   r.GrossRevenue + c.LeaseCostInReais,
		ProfitPerHa:            safeDiv(c.NetProfit, p.TotalArea),
		SpotExposurePct:        100 - clampPct(in.HedgedPct),
	}
	if p.TotalArea > 0 {
		ind.LeasedAreaCostPerHa = cashPerHa + math.Max(0, in.LeaseSacksPerHa)*math.Max(0, in.MarketPrice)
	}
	return ind
}
