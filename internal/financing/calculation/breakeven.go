package calculation

import (
	"math"

	"agroexposure/risk-portal/risk-portal-backend/internal/financing"
)

// Yield policy codes.
const (
	YieldPolicyPlan         = "PLAN"
	YieldPolicyConservative = "CONSERVATIVE"
)

// YieldPolicy is one way of answering "how many sacks per hectare cover the
// cash cost". Policies answer different questions and are all reported.
type YieldPolicy interface {
	// Code identifies the policy in results and exports
	Code() string

	// Name is the operator-facing label
	Name() string

	// Headline marks the figure shown first
	Headline() bool

	// YieldPerHa solves the zero-profit yield for the given basis
	YieldPerHa(b YieldBasis) float64
}

// YieldBasis carries the totals every yield policy solves against.
type YieldBasis struct {
	CashCostTotal    float64
	LeaseSacksTotal  float64
	LeaseCostInReais float64
	TotalArea        float64
	MarketPrice      float64
	Hedge            financing.ForwardSale
}

// YieldEstimate is a policy's answer for one position.
type YieldEstimate struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	YieldPerHa float64 `json:"yield_per_ha"`
	Headline   bool    `json:"headline"`
}

var yieldPolicies = []YieldPolicy{
	planYield{},
	conservativeYield{},
}

// YieldPolicies returns the registered policies, headline first.
func YieldPolicies() []YieldPolicy {
	out := make([]YieldPolicy, len(yieldPolicies))
	copy(out, yieldPolicies)
	return out
}

// YieldPolicyByCode looks a policy up by its code.
func YieldPolicyByCode(code string) (YieldPolicy, bool) {
	for _, p := range yieldPolicies {
		if p.Code() == code {
			return p, true
		}
	}
	return nil, false
}

// planYield credits the price mix the current hedge actually achieves.
type planYield struct{}

func (planYield) Code() string   { return YieldPolicyPlan }
func (planYield) Name() string   { return "Plan-consistent breakeven yield" }
func (planYield) Headline() bool { return true }

func (planYield) YieldPerHa(b YieldBasis) float64 {
	price := b.Hedge.BlendedPrice(b.MarketPrice)
	if b.TotalArea <= 0 || price <= 0 {
		return 0
	}
	return (b.CashCostTotal + b.LeaseCostInReais) / (b.TotalArea * price)
}

// conservativeYield assumes the whole balance sells at plain market price.
type conservativeYield struct{}

func (conservativeYield) Code() string   { return YieldPolicyConservative }
func (conservativeYield) Name() string   { return "Conservative breakeven yield" }
func (conservativeYield) Headline() bool { return false }

func (conservativeYield) YieldPerHa(b YieldBasis) float64 {
	if b.TotalArea <= 0 {
		return 0
	}
	return (safeDiv(b.CashCostTotal, b.MarketPrice) + b.LeaseSacksTotal) / b.TotalArea
}

// solveBreakeven computes the 0x0 price on the open balance, both yield
// policies, the target-margin price and the safety margin.
func solveBreakeven(in Inputs, p Production, r Revenue, c Costs) Breakeven {
	open := math.Max(0, p.NetSellableProduction-r.HedgedVolume)
	m := clamp(in.TargetMarginPct/100, 0, MaxTargetMargin)
	required := c.CashCostTotal / (1 - m)

	basis := YieldBasis{
		CashCostTotal:    c.CashCostTotal,
		LeaseSacksTotal:  p.LeaseSacksTotal,
		LeaseCostInReais: c.LeaseCostInReais,
		TotalArea:        p.TotalArea,
		MarketPrice:      in.MarketPrice,
		Hedge:            in.Hedge(),
	}

	b := Breakeven{
		OpenVolume:               open,
		PriceOnOpenBalance:       safeDiv(c.CashCostTotal-r.HedgeRevenue, open),
		BlendedProductionPrice:   basis.Hedge.BlendedPrice(in.MarketPrice),
		TargetMargin:             m,
		TargetRequiredRevenue:    required,
		TargetPriceOnOpenBalance: safeDiv(required-r.HedgeRevenue, open),
		Yields:                   make([]YieldEstimate, 0, len(yieldPolicies)),
	}

	for _, policy := range yieldPolicies {
		y := policy.YieldPerHa(basis)
		b.Yields = append(b.Yields, YieldEstimate{
			Code:       policy.Code(),
			Name:       policy.Name(),
			YieldPerHa: y,
			Headline:   policy.Headline(),
		})
		switch policy.Code() {
		case YieldPolicyPlan:
			b.PlanYieldPerHa = y
		case YieldPolicyConservative:
			b.ConservativeYieldPerHa = y
		}
	}

	b.SafetyMarginSacksPerHa = p.EffectiveYield - b.PlanYieldPerHa
	return b
}
