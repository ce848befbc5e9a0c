package calculation

import "math"

// computeProduction derives areas and volumes. The lease is paid in sacks,
// so it comes out of the sellable pool and never out of gross production.
func computeProduction(in Inputs) Production {
	area := math.Max(0, in.OwnedArea) + math.Max(0, in.LeasedArea)

	yield := math.Max(0, in.BaseYield)
	if in.BreakSimulationEnabled {
		yield *= 1 - clamp(in.BreakPct, 0, MaxBreakPct)
	}

	total := area * yield
	lease := math.Max(0, in.LeasedArea) * math.Max(0, in.LeaseSacksPerHa)

	return Production{
		TotalArea:             area,
		EffectiveYield:        yield,
		TotalProduction:       total,
		LeaseSacksTotal:       lease,
		NetSellableProduction: math.Max(0, total-lease),
	}
}

// computeRevenue splits production into the forward commitment, sized on
// gross production, and the spot residual left after the lease. The
// realized price is taken over net sellable production.
func computeRevenue(in Inputs, p Production) Revenue {
	hedge := in.Hedge()

	hedgedVolume := hedge.Volume(p.TotalProduction)
	spotVolume := math.Max(0, p.NetSellableProduction-hedgedVolume)

	hedgeRevenue := hedge.Revenue(p.TotalProduction)
	spotRevenue := spotVolume * in.MarketPrice
	gross := hedgeRevenue + spotRevenue

	return Revenue{
		HedgedVolume:               hedgedVolume,
		PhysicallyAvailableForSpot: spotVolume,
		HedgeRevenue:               hedgeRevenue,
		SpotRevenue:                spotRevenue,
		GrossRevenue:               gross,
		BlendedPrice:               safeDiv(gross, p.NetSellableProduction),
		OverHedged:                 hedgedVolume > p.NetSellableProduction,
	}
}

// safeDiv returns a/b, or 0 when the denominator is not positive.
func safeDiv(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func clampPct(v float64) float64 {
	return clamp(v, 0, 100)
}
