package financing

import "math"

// ForwardSale is the hedged share of a harvest, committed ahead of time at a
// fixed price per sack. The commitment is sized against gross production.
type ForwardSale struct {
	HedgedPct float64 `json:"hedged_pct"`
	Price     float64 `json:"price"`
}

// Ratio is the hedged fraction of production, clamped to [0, 1].
func (f ForwardSale) Ratio() float64 {
	return clampPct(f.HedgedPct) / 100
}

// Volume returns the committed sacks for a given gross production.
func (f ForwardSale) Volume(totalProduction float64) float64 {
	return math.Max(0, totalProduction) * f.Ratio()
}

// Revenue returns the locked-in proceeds of the commitment.
func (f ForwardSale) Revenue(totalProduction float64) float64 {
	return f.Volume(totalProduction) * f.Price
}

// BlendedPrice weights the forward price against a spot price by the hedge
// ratio, i.e. the average price one sack of production fetches under the plan.
func (f ForwardSale) BlendedPrice(spotPrice float64) float64 {
	h := f.Ratio()
	return h*f.Price + (1-h)*spotPrice
}
