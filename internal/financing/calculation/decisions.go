package calculation

import "math"

// Export parity constants for soybeans.
const (
	BushelsPerTonSoy    = 36.74541
	FreightDiscountRate = 0.0925
	TonsPerSack         = 0.06
)

// DefaultSeasonalIndices is the average monthly price shape, January first.
var DefaultSeasonalIndices = []float64{1.03, 1.01, 0.95, 0.94, 0.97, 0.99, 1.01, 1.03, 1.05, 1.07, 1.08, 1.05}

// BarterQuote converts a purchase into sacks at a given price.
type BarterQuote struct {
	PurchaseValue float64 `json:"purchase_value"`
	Price         float64 `json:"price"`
	Sacks         float64 `json:"sacks"`
}

// CarryDecision compares selling now against storing and selling later.
type CarryDecision struct {
	PhysicalCost   float64 `json:"physical_cost"`
	FinancialCost  float64 `json:"financial_cost"`
	TotalCarry     float64 `json:"total_carry"`
	NetFuturePrice float64 `json:"net_future_price"`
	Result         float64 `json:"result"`
	Hold           bool    `json:"hold"`
}

// SeasonalPoint is the projected price for one calendar month.
type SeasonalPoint struct {
	Month int     `json:"month"`
	Index float64 `json:"index"`
	Price float64 `json:"price"`
}

// ParityInputs are the market and logistics figures of an export parity quote.
// Cost fields are per metric ton.
type ParityInputs struct {
	CBOT            float64 `json:"cbot"`    // US$/bu
	Premium         float64 `json:"premium"` // US$/bu
	DeliveryFX      float64 `json:"delivery_fx"`
	PaymentFX       float64 `json:"payment_fx"`
	FobbingsBRL     float64 `json:"fobbings_brl"`
	BreakageBRL     float64 `json:"breakage_brl"`
	OtherBRL        float64 `json:"other_brl"`
	GrossFreightBRL float64 `json:"gross_freight_brl"`
	FobbingsUSD     float64 `json:"fobbings_usd"`
	BreakageUSD     float64 `json:"breakage_usd"`
	OtherUSD        float64 `json:"other_usd"`
}

// ParityQuote is the producer price implied by export parity.
type ParityQuote struct {
	MarketPriceUSDPerTon float64 `json:"market_price_usd_per_ton"`
	NetFreightBRL        float64 `json:"net_freight_brl"`
	TotalCostUSDPerTon   float64 `json:"total_cost_usd_per_ton"`
	PriceUSDPerSack      float64 `json:"price_usd_per_sack"`
	PriceBRLPerSack      float64 `json:"price_brl_per_sack"`
}

// NewBarterQuote returns the sacks needed to pay purchaseValue at price.
func NewBarterQuote(purchaseValue, price float64) BarterQuote {
	return BarterQuote{
		PurchaseValue: purchaseValue,
		Price:         price,
		Sacks:         safeDiv(purchaseValue, price),
	}
}

// EvaluateCarry weighs storage and opportunity cost against the expected
// future price. Holding is recommended only when it strictly pays.
func EvaluateCarry(spot, futurePrice, storageCostPerSackMonth, opportunityRatePctMonth float64, months int) CarryDecision {
	m := float64(max(0, months))
	physical := storageCostPerSackMonth * m
	financial := spot * (opportunityRatePctMonth / 100) * m
	total := physical + financial
	net := futurePrice - total
	result := net - spot

	return CarryDecision{
		PhysicalCost:   physical,
		FinancialCost:  financial,
		TotalCarry:     total,
		NetFuturePrice: net,
		Result:         result,
		Hold:           result > 0,
	}
}

// SeasonalProjection rescales the twelve monthly indices so that
// currentMonth (1-12) prices at spot. Nil indices use DefaultSeasonalIndices.
func SeasonalProjection(spot float64, currentMonth int, indices []float64) []SeasonalPoint {
	if len(indices) != 12 {
		indices = DefaultSeasonalIndices
	}
	if currentMonth < 1 || currentMonth > 12 {
		currentMonth = 1
	}

	factor := safeDiv(spot, indices[currentMonth-1])
	out := make([]SeasonalPoint, 12)
	for i, idx := range indices {
		out[i] = SeasonalPoint{Month: i + 1, Index: idx, Price: idx * factor}
	}
	return out
}

// ExportParity computes the soybean price per sack at the farm from CBOT plus
// premium, net of port and freight costs.
func ExportParity(in ParityInputs) ParityQuote {
	marketUSD := (in.CBOT + in.Premium) * BushelsPerTonSoy
	netFreight := in.GrossFreightBRL * (1 - FreightDiscountRate)

	brlCosts := safeDiv(in.FobbingsBRL+in.BreakageBRL+in.OtherBRL+netFreight, in.DeliveryFX)
	totalUSD := brlCosts + in.FobbingsUSD + in.BreakageUSD + in.OtherUSD

	usdPerSack := (marketUSD - totalUSD) * TonsPerSack

	return ParityQuote{
		MarketPriceUSDPerTon: marketUSD,
		NetFreightBRL:        netFreight,
		TotalCostUSDPerTon:   totalUSD,
		PriceUSDPerSack:      usdPerSack,
		PriceBRLPerSack:      usdPerSack * math.Max(0, in.PaymentFX),
	}
}
