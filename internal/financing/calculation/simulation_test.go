package calculation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateNewSale(t *testing.T) {
	res := ComputePosition(cornInputs())

	t.Run("sale at market leaves margin unchanged", func(t *testing.T) {
		sim := SimulateNewSale(res, 10, res.Inputs.MarketPrice)
		assert.InDelta(t, 15750.0, sim.SoldVolume, 1e-6)
		assert.InDelta(t, res.Revenue.GrossRevenue, sim.Revenue, 1e-6)
		assert.InDelta(t, 0.0, sim.MarginDeltaPct, 1e-9)
	})

	t.Run("sale above market improves margin", func(t *testing.T) {
		sim := SimulateNewSale(res, 10, 65)
		assert.InDelta(t, res.Revenue.GrossRevenue+15750*10, sim.Revenue, 1e-6)
		assert.InDelta(t, sim.Revenue-res.Costs.CashCostTotal, sim.Profit, 1e-6)
		assert.Greater(t, sim.MarginDeltaPct, 0.0)
	})

	t.Run("volume is capped at the open balance", func(t *testing.T) {
		sim := SimulateNewSale(res, 100, 70)
		assert.InDelta(t, 157500.0, sim.RequestedVolume, 1e-6)
		assert.InDelta(t, res.Breakeven.OpenVolume, sim.SoldVolume, 1e-6)
		assert.InDelta(t, res.Revenue.HedgeRevenue+res.Breakeven.OpenVolume*70, sim.Revenue, 1e-6)
	})
}

func TestPriceSensitivity(t *testing.T) {
	res := ComputePosition(cornInputs())

	points := PriceSensitivity(res, DefaultSensitivityLow, DefaultSensitivityHigh, DefaultSensitivityPoints)

	require.Len(t, points, 20)
	assert.InDelta(t, 55*0.75, points[0].Price, 1e-9)
	assert.InDelta(t, 55*1.25, points[19].Price, 1e-9)
	for i := 1; i < len(points); i++ {
		assert.Greater(t, points[i].MarginPct, points[i-1].MarginPct)
	}

	// the 0x0 price sits where margin crosses zero
	be := res.Breakeven.PriceOnOpenBalance
	for _, p := range points {
		if p.Price < be {
			assert.Less(t, p.MarginPct, 0.0)
		} else if p.Price > be {
			assert.Greater(t, p.MarginPct, 0.0)
		}
	}
}

func TestMarginHeatmap(t *testing.T) {
	in := cornInputs()
	in.LeaseSacksPerHa = 15
	res := ComputePosition(in)

	hm := MarginHeatmap(res, []float64{80, 105}, []float64{50, 55, 60})

	require.Len(t, hm.Cells, 2)
	require.Len(t, hm.Cells[0], 3)

	fixed := (res.Costs.OperationalCostTotal + res.Costs.InterestCost) / 1500
	leasePerHa := 500.0 * 15 / 1500
	assert.InDelta(t, 105*55-fixed-leasePerHa*55, hm.Cells[1][1], 1e-9)
	assert.InDelta(t, 80*50-fixed-leasePerHa*50, hm.Cells[0][0], 1e-9)

	t.Run("default axes", func(t *testing.T) {
		hm := MarginHeatmap(res, nil, nil)
		assert.Len(t, hm.Yields, 8)
		assert.Len(t, hm.Prices, 9)
		assert.Len(t, hm.Cells, 8)
	})

	t.Run("axes are truncated", func(t *testing.T) {
		long := Linspace(1, 100, MaxHeatmapAxis+25)
		hm := MarginHeatmap(res, long, long)
		assert.Len(t, hm.Yields, MaxHeatmapAxis)
		assert.Len(t, hm.Cells, MaxHeatmapAxis)
		assert.Len(t, hm.Cells[0], MaxHeatmapAxis)
	})
}

func TestPriceSensitivity_PointsCapped(t *testing.T) {
	res := ComputePosition(cornInputs())

	points := PriceSensitivity(res, DefaultSensitivityLow, DefaultSensitivityHigh, 2_000_000_000)

	require.Len(t, points, MaxSensitivityPoints)
	assert.InDelta(t, 55*1.25, points[MaxSensitivityPoints-1].Price, 1e-9)
}

func TestLinspace(t *testing.T) {
	assert.Empty(t, Linspace(0, 1, 0))
	assert.Equal(t, []float64{3}, Linspace(3, 9, 1))
	assert.Equal(t, []float64{0, 0.5, 1}, Linspace(0, 1, 3))
}

func TestDecisions(t *testing.T) {
	t.Run("barter", func(t *testing.T) {
		q := NewBarterQuote(930000, 55)
		assert.InDelta(t, 930000.0/55, q.Sacks, 1e-9)
		assert.Equal(t, 0.0, NewBarterQuote(930000, 0).Sacks)
	})

	t.Run("carry pays", func(t *testing.T) {
		d := EvaluateCarry(55, 67, 0.8, 1, 4)
		assert.InDelta(t, 3.2, d.PhysicalCost, 1e-9)
		assert.InDelta(t, 2.2, d.FinancialCost, 1e-9)
		assert.InDelta(t, 67-5.4, d.NetFuturePrice, 1e-9)
		assert.InDelta(t, 6.6, d.Result, 1e-9)
		assert.True(t, d.Hold)
	})

	t.Run("carry does not pay", func(t *testing.T) {
		d := EvaluateCarry(55, 58, 0.8, 1, 4)
		assert.Less(t, d.Result, 0.0)
		assert.False(t, d.Hold)
	})

	t.Run("seasonal projection anchors on the current month", func(t *testing.T) {
		pts := SeasonalProjection(55, 3, nil)
		require.Len(t, pts, 12)
		assert.InDelta(t, 55.0, pts[2].Price, 1e-9)
		assert.InDelta(t, 55/0.95*1.08, pts[10].Price, 1e-9)
	})

	t.Run("export parity", func(t *testing.T) {
		q := ExportParity(ParityInputs{
			CBOT: 10.435, Premium: 0.5, DeliveryFX: 5.64, PaymentFX: 5.8,
			FobbingsBRL: 10, BreakageBRL: 1, OtherBRL: 1, GrossFreightBRL: 170,
			FobbingsUSD: 5, BreakageUSD: 0.25, OtherUSD: 0.5,
		})
		market := (10.435 + 0.5) * 36.74541
		freight := 170 * (1 - 0.0925)
		cost := (12+freight)/5.64 + 5.75
		assert.InDelta(t, market, q.MarketPriceUSDPerTon, 1e-9)
		assert.InDelta(t, freight, q.NetFreightBRL, 1e-9)
		assert.InDelta(t, cost, q.TotalCostUSDPerTon, 1e-9)
		assert.InDelta(t, (market-cost)*0.06*5.8, q.PriceBRLPerSack, 1e-9)
	})
}
