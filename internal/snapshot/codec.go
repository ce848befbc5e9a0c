package snapshot

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"agroexposure/risk-portal/risk-portal-backend/internal/financing"
	"agroexposure/risk-portal/risk-portal-backend/internal/financing/calculation"
)

// Float reads a number, accepting JSON numbers, integers and numeric strings
// (including the "1.234,56" form). Anything else yields def.
func Float(s Snapshot, key string, def float64) float64 {
	v, ok := s[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case float64:
		return finite(t, def)
	case float32:
		return finite(float64(t), def)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return def
		}
		return finite(f, def)
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		return parseNumber(t, def)
	}
	return def
}

// Pct reads a percentage and clamps it to [0, 100].
func Pct(s Snapshot, key string, def float64) float64 {
	return math.Min(100, math.Max(0, Float(s, key, def)))
}

// Int reads a whole number, truncating decimals. Values beyond the int32
// range are clamped.
func Int(s Snapshot, key string, def int) int {
	return IntRange(s, key, def, math.MinInt32, math.MaxInt32)
}

// IntRange reads a whole number and clamps it to [lo, hi].
func IntRange(s Snapshot, key string, def, lo, hi int) int {
	f := Float(s, key, float64(def))
	return int(math.Min(float64(hi), math.Max(float64(lo), f)))
}

// Bool reads a flag. Numbers are true when non-zero.
func Bool(s Snapshot, key string, def bool) bool {
	v, ok := s[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return def
		}
		return b
	}
	d := 0.0
	if def {
		d = 1
	}
	return Float(s, key, d) != 0
}

// Date reads a date stored as time.Time or YYYY-MM-DD.
func Date(s Snapshot, key string, def time.Time) time.Time {
	switch t := s[key].(type) {
	case time.Time:
		return t
	case string:
		if d, err := time.Parse(DateLayout, strings.TrimSpace(t)); err == nil {
			return d
		}
	}
	return def
}

func parseNumber(str string, def float64) float64 {
	str = strings.TrimSpace(str)
	if str == "" {
		return def
	}
	if f, err := strconv.ParseFloat(str, 64); err == nil {
		return finite(f, def)
	}
	// pt-BR grouping: 1.234,56
	normalized := strings.ReplaceAll(strings.ReplaceAll(str, ".", ""), ",", ".")
	if f, err := strconv.ParseFloat(normalized, 64); err == nil {
		return finite(f, def)
	}
	return def
}

func finite(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// Merged overlays state on the crop defaults.
func (c Crop) Merged(state Snapshot) Snapshot {
	out := c.Defaults.Clone()
	for k, v := range state.WithPrefixes(c.Prefix) {
		out[k] = v
	}
	return out
}

// InputsFromState builds engine inputs for a crop. Missing, blank or
// non-numeric entries fall back to the crop defaults.
func InputsFromState(state Snapshot, c Crop) calculation.Inputs {
	d := c.Defaults
	f := func(suffix string) float64 { return Float(state, c.Key(suffix), Float(d, c.Key(suffix), 0)) }
	pct := func(suffix string) float64 { return Pct(state, c.Key(suffix), Pct(d, c.Key(suffix), 0)) }
	date := func(suffix string) time.Time { return Date(state, c.Key(suffix), Date(d, c.Key(suffix), time.Time{})) }
	month := func(suffix string) int {
		return IntRange(state, c.Key(suffix), IntRange(d, c.Key(suffix), 1, 1, 12), 1, 12)
	}

	return calculation.Inputs{
		Crop:                   c.Label,
		OwnedArea:              f(KeyOwnedArea),
		LeasedArea:             f(KeyLeasedArea),
		BaseYield:              f(KeyYield),
		BreakSimulationEnabled: Bool(state, c.Key(KeyBreakEnabled), Bool(d, c.Key(KeyBreakEnabled), false)),
		BreakPct:               pct(KeyBreakPct) / 100,
		LeaseSacksPerHa:        f(KeyLeaseSacksPerHa),
		OpCostPerHa:            f(KeyOpCostPerHa),
		InputsPct:              pct(KeyInputsPct),
		HarvestPct:             pct(KeyHarvestPct),
		HedgedPct:              pct(KeyHedgedPct),
		HedgePrice:             f(KeyHedgePrice),
		MarketPrice:            f(KeyMarketPrice),
		TargetMarginPct:        pct(KeyTargetMarginPct),
		Financing: financing.Terms{
			FinancedPct:      pct(KeyFinancedPct),
			AnnualRatePct:    f(KeyAnnualRatePct),
			DisbursementDate: date(KeyDisbursementDate),
			PaymentDate:      date(KeyPaymentDate),
		},
		Installments: financing.InstallmentPlan{
			DownPaymentPct:   pct(KeyDownPaymentPct),
			Installment2Pct:  pct(KeyInstallment2Pct),
			Installment2Date: date(KeyInstallment2Date),
			Installment3Pct:  pct(KeyInstallment3Pct),
			Installment3Date: date(KeyInstallment3Date),
		},
		PlantingMonth: month(KeyPlantingMonth),
		HarvestMonth:  month(KeyHarvestMonth),
	}
}

// StateFromInputs is the inverse of InputsFromState for the engine fields.
func StateFromInputs(in calculation.Inputs, c Crop) Snapshot {
	return withPrefix(c.Prefix, map[string]any{
		KeyBreakEnabled:     in.BreakSimulationEnabled,
		KeyBreakPct:         in.BreakPct * 100,
		KeyOwnedArea:        in.OwnedArea,
		KeyLeasedArea:       in.LeasedArea,
		KeyYield:            in.BaseYield,
		KeyOpCostPerHa:      in.OpCostPerHa,
		KeyHedgedPct:        in.HedgedPct,
		KeyHedgePrice:       in.HedgePrice,
		KeyMarketPrice:      in.MarketPrice,
		KeyTargetMarginPct:  in.TargetMarginPct,
		KeyFinancedPct:      in.Financing.FinancedPct,
		KeyAnnualRatePct:    in.Financing.AnnualRatePct,
		KeyDisbursementDate: in.Financing.DisbursementDate,
		KeyPaymentDate:      in.Financing.PaymentDate,
		KeyLeaseSacksPerHa:  in.LeaseSacksPerHa,
		KeyInputsPct:        in.InputsPct,
		KeyHarvestPct:       in.HarvestPct,
		KeyDownPaymentPct:   in.Installments.DownPaymentPct,
		KeyInstallment2Pct:  in.Installments.Installment2Pct,
		KeyInstallment2Date: in.Installments.Installment2Date,
		KeyInstallment3Pct:  in.Installments.Installment3Pct,
		KeyInstallment3Date: in.Installments.Installment3Date,
		KeyPlantingMonth:    in.PlantingMonth,
		KeyHarvestMonth:     in.HarvestMonth,
	})
}

// maxCarryMonths bounds the storage horizon read from a snapshot.
const maxCarryMonths = 36

// Tools holds the what-if and decision-helper inputs of a crop.
type Tools struct {
	NewSalePct              float64 `json:"new_sale_pct"`
	NewSalePrice            float64 `json:"new_sale_price"`
	BarterPurchase          float64 `json:"barter_purchase"`
	BarterPrice             float64 `json:"barter_price"`
	StorageCostPerSackMonth float64 `json:"storage_cost_per_sack_month"`
	OpportunityRatePctMonth float64 `json:"opportunity_rate_pct_month"`
	CarryMonths             int     `json:"carry_months"`
	FuturePrice             float64 `json:"future_price"`
}

// ToolsFromState reads the decision-helper inputs of a crop.
func ToolsFromState(state Snapshot, c Crop) Tools {
	d := c.Defaults
	f := func(suffix string) float64 { return Float(state, c.Key(suffix), Float(d, c.Key(suffix), 0)) }
	return Tools{
		NewSalePct:              Pct(state, c.Key(KeyNewSalePct), Pct(d, c.Key(KeyNewSalePct), 0)),
		NewSalePrice:            f(KeyNewSalePrice),
		BarterPurchase:          f(KeyBarterPurchase),
		BarterPrice:             f(KeyBarterPrice),
		StorageCostPerSackMonth: f(KeyStorageCost),
		OpportunityRatePctMonth: f(KeyOpportunityRate),
		CarryMonths:             IntRange(state, c.Key(KeyCarryMonths), Int(d, c.Key(KeyCarryMonths), 0), 0, maxCarryMonths),
		FuturePrice:             f(KeyFuturePrice),
	}
}
