package calculation

import "math"

// Default price sensitivity range around the market price.
const (
	DefaultSensitivityLow    = 0.75
	DefaultSensitivityHigh   = 1.25
	DefaultSensitivityPoints = 20
)

// Grid size limits. Larger requests are truncated.
const (
	MaxSensitivityPoints = 200
	MaxHeatmapAxis       = 50
)

// NewSaleSimulation is the effect of selling an extra share of production now.
type NewSaleSimulation struct {
	RequestedVolume float64 `json:"requested_volume"`
	SoldVolume      float64 `json:"sold_volume"`
	Price           float64 `json:"price"`
	Revenue         float64 `json:"revenue"`
	Profit          float64 `json:"profit"`
	MarginPct       float64 `json:"margin_pct"`
	MarginDeltaPct  float64 `json:"margin_delta_pct"`
}

// SensitivityPoint is the net margin at one open-balance price.
type SensitivityPoint struct {
	Price     float64 `json:"price"`
	Revenue   float64 `json:"revenue"`
	MarginPct float64 `json:"margin_pct"`
}

// Heatmap holds margin per hectare for each (yield, price) cell.
// Cells[i][j] corresponds to Yields[i] and Prices[j].
type Heatmap struct {
	Yields []float64   `json:"yields"`
	Prices []float64   `json:"prices"`
	Cells  [][]float64 `json:"cells"`
}

// SimulateNewSale sells pctOfTotal of gross production at price, capped at the
// open physical volume. The rest of the open balance stays at market price
// and cost is held at the cash total.
func SimulateNewSale(res Result, pctOfTotal, price float64) NewSaleSimulation {
	open := res.Breakeven.OpenVolume
	requested := res.Production.TotalProduction * clampPct(pctOfTotal) / 100
	sold := math.Min(open, math.Max(0, requested))

	revenue := res.Revenue.HedgeRevenue + sold*price + (open-sold)*res.Inputs.MarketPrice
	profit := revenue - res.Costs.CashCostTotal
	margin := safeDiv(profit, revenue) * 100

	return NewSaleSimulation{
		RequestedVolume: requested,
		SoldVolume:      sold,
		Price:           price,
		Revenue:         revenue,
		Profit:          profit,
		MarginPct:       margin,
		MarginDeltaPct:  margin - res.Costs.NetMarginPct,
	}
}

// PriceSensitivity evaluates the net margin for open-balance prices evenly
// spaced over [market x low, market x high], both ends included. Points are
// capped at MaxSensitivityPoints.
func PriceSensitivity(res Result, low, high float64, points int) []SensitivityPoint {
	points = min(points, MaxSensitivityPoints)
	prices := Linspace(res.Inputs.MarketPrice*low, res.Inputs.MarketPrice*high, points)
	out := make([]SensitivityPoint, 0, len(prices))
	for _, p := range prices {
		revenue := res.Revenue.HedgeRevenue + res.Breakeven.OpenVolume*p
		out = append(out, SensitivityPoint{
			Price:     p,
			Revenue:   revenue,
			MarginPct: safeDiv(revenue-res.Costs.CashCostTotal, revenue) * 100,
		})
	}
	return out
}

// MarginHeatmap computes margin per hectare on a yield x price grid. Fixed
// cost per hectare is operational cost plus interest; the lease is valued at
// each cell's price. Empty axes default to a grid around the current plan;
// each axis keeps at most MaxHeatmapAxis values.
func MarginHeatmap(res Result, yields, prices []float64) Heatmap {
	yields = yields[:min(len(yields), MaxHeatmapAxis)]
	prices = prices[:min(len(prices), MaxHeatmapAxis)]
	if len(yields) == 0 {
		yields = Linspace(res.Production.EffectiveYield*0.6, res.Production.EffectiveYield*1.3, 8)
	}
	if len(prices) == 0 {
		prices = Linspace(res.Inputs.MarketPrice*DefaultSensitivityLow, res.Inputs.MarketPrice*DefaultSensitivityHigh, 9)
	}

	area := res.Production.TotalArea
	fixedPerHa := safeDiv(res.Costs.OperationalCostTotal+res.Costs.InterestCost, area)
	leaseSacksPerHa := safeDiv(math.Max(0, res.Inputs.LeasedArea)*math.Max(0, res.Inputs.LeaseSacksPerHa), area)

	cells := make([][]float64, len(yields))
	for i, y := range yields {
		row := make([]float64, len(prices))
		for j, p := range prices {
			row[j] = y*p - fixedPerHa - leaseSacksPerHa*p
		}
		cells[i] = row
	}

	return Heatmap{Yields: yields, Prices: prices, Cells: cells}
}

// Linspace returns n evenly spaced values from start to stop inclusive.
func Linspace(start, stop float64, n int) []float64 {
	switch {
	case n <= 0:
		return []float64{}
	case n == 1:
		return []float64{start}
	}
	step := (stop - start) / float64(n-1)
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	out[n-1] = stop
	return out
}
