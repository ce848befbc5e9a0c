package calculation

import (
	"fmt"
)

// Validation codes.
const (
	CodeZeroArea                  = "ZERO_AREA"
	CodeNegativeArea              = "NEGATIVE_AREA"
	CodeNegativeCost              = "NEGATIVE_COST"
	CodeInstallmentsNot100        = "INSTALLMENTS_NOT_100"
	CodeMaintenanceNegative       = "MAINTENANCE_NEGATIVE"
	CodeOverHedged                = "OVER_HEDGED"
	CodePaymentBeforeDisbursement = "PAYMENT_BEFORE_DISBURSEMENT"
	CodeBreakPctOutOfRange        = "BREAK_PCT_OUT_OF_RANGE"
	CodeHedgedPctOutOfRange       = "HEDGED_PCT_OUT_OF_RANGE"
	CodeTargetMarginOutOfRange    = "TARGET_MARGIN_OUT_OF_RANGE"
	CodeLeaseExceedsProduction    = "LEASE_EXCEEDS_PRODUCTION"
	CodeMonthOutOfRange           = "MONTH_OUT_OF_RANGE"
)

// Validator checks position inputs for inconsistencies. It never blocks a
// computation; it only describes what the operator entered wrong.
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// Validate inspects the inputs and the physical/commercial figures derived
// from them.
func (v *Validator) Validate(in Inputs, p Production, r Revenue) ValidationResults {
	res := ValidationResults{
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
	}

	if in.OwnedArea < 0 || in.LeasedArea < 0 {
		res.warn("area", CodeNegativeArea, "negative areas are treated as zero")
	}
	if p.TotalArea <= 0 {
		res.fail("area", CodeZeroArea, "total area is zero; every per-hectare figure falls back to 0")
	}
	if in.OpCostPerHa < 0 {
		res.warn("op_cost_per_ha", CodeNegativeCost,
			fmt.Sprintf("operational cost %.2f/ha is negative and was treated as zero", in.OpCostPerHa))
	}

	v.validateAllocation(in, &res)
	v.validateCommercial(in, p, r, &res)
	v.validateFinancing(in, &res)
	v.validateCalendar(in, &res)

	res.IsValid = len(res.Errors) == 0
	return res
}

// validateAllocation checks the cost split and the installment plan
func (v *Validator) validateAllocation(in Inputs, res *ValidationResults) {
	if in.InputsPct+in.HarvestPct > 100 {
		res.warn("maintenance_pct", CodeMaintenanceNegative,
			fmt.Sprintf("inputs (%.1f%%) and harvest (%.1f%%) exceed 100%%; maintenance would be %.1f%%",
				in.InputsPct, in.HarvestPct, 100-in.InputsPct-in.HarvestPct))
	}

	if !in.Installments.Balanced() {
		res.warn("installments", CodeInstallmentsNot100,
			fmt.Sprintf("installments add up to %.1f%%, not 100%%", in.Installments.TotalPct()))
	}
}

// validateCommercial checks hedge, break and margin ranges
func (v *Validator) validateCommercial(in Inputs, p Production, r Revenue, res *ValidationResults) {
	if in.HedgedPct < 0 || in.HedgedPct > 100 {
		res.warn("hedged_pct", CodeHedgedPctOutOfRange,
			fmt.Sprintf("hedged share %.1f%% is outside [0, 100] and was clamped", in.HedgedPct))
	}

	if in.BreakSimulationEnabled && (in.BreakPct < 0 || in.BreakPct > MaxBreakPct) {
		res.warn("break_pct", CodeBreakPctOutOfRange,
			fmt.Sprintf("crop failure %.2f is outside [0, %.2f] and was clamped", in.BreakPct, MaxBreakPct))
	}

	if in.TargetMarginPct < 0 || in.TargetMarginPct/100 > MaxTargetMargin {
		res.warn("target_margin_pct", CodeTargetMarginOutOfRange,
			fmt.Sprintf("target margin %.1f%% is outside [0, %.0f] and was clamped", in.TargetMarginPct, MaxTargetMargin*100))
	}

	if p.LeaseSacksTotal > p.TotalProduction {
		res.warn("lease_sacks_per_ha", CodeLeaseExceedsProduction,
			fmt.Sprintf("lease of %.0f sacks exceeds production of %.0f sacks", p.LeaseSacksTotal, p.TotalProduction))
	}

	if r.OverHedged {
		res.warn("hedged_pct", CodeOverHedged,
			fmt.Sprintf("hedged volume %.0f sc exceeds net sellable production %.0f sc", r.HedgedVolume, p.NetSellableProduction))
	}
}

// validateFinancing checks date ordering
func (v *Validator) validateFinancing(in Inputs, res *ValidationResults) {
	t := in.Financing
	if t.DisbursementDate.IsZero() || t.PaymentDate.IsZero() {
		return
	}
	if t.PaymentDate.Before(t.DisbursementDate) {
		res.warn("payment_date", CodePaymentBeforeDisbursement,
			"payment date is before disbursement; financing days were set to 0")
	}
}

// validateCalendar checks the month anchors
func (v *Validator) validateCalendar(in Inputs, res *ValidationResults) {
	if in.PlantingMonth < 1 || in.PlantingMonth > 12 {
		res.warn("planting_month", CodeMonthOutOfRange,
			fmt.Sprintf("planting month %d is outside 1-12", in.PlantingMonth))
	}
	if in.HarvestMonth < 1 || in.HarvestMonth > 12 {
		res.warn("harvest_month", CodeMonthOutOfRange,
			fmt.Sprintf("harvest month %d is outside 1-12", in.HarvestMonth))
	}
}

func (r *ValidationResults) warn(field, code, message string) {
	r.Warnings = append(r.Warnings, ValidationWarning{Field: field, Message: message, Code: code})
}

func (r *ValidationResults) fail(field, code, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message, Code: code})
}
