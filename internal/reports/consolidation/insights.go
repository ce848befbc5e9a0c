package consolidation

import (
	"fmt"

	"agroexposure/risk-portal/risk-portal-backend/pkg/money"
)

// Alert codes.
const (
	AlertMarginBelowTarget    = "MARGIN_BELOW_TARGET"
	AlertInterestHigh         = "INTEREST_HIGH"
	AlertPriceBelowBreakeven  = "PRICE_BELOW_BREAKEVEN"
	AlertSpotExposureHigh     = "SPOT_EXPOSURE_HIGH"
	AlertSafetyMarginNegative = "SAFETY_MARGIN_NEGATIVE"
	AlertSafetyMarginLow      = "SAFETY_MARGIN_LOW"
)

// Thresholds are the heuristics behind the consolidated alerts.
type Thresholds struct {
	HighSpotExposurePct   float64 `json:"high_spot_exposure_pct"`
	InterestAlertPct      float64 `json:"interest_alert_pct"`
	SafetyMarginWarnSacks float64 `json:"safety_margin_warn_sacks"`
}

// DefaultThresholds returns the standard alert thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighSpotExposurePct:   60,
		InterestAlertPct:      3,
		SafetyMarginWarnSacks: 5,
	}
}

// Alert is a consolidated risk flag.
type Alert struct {
	Code     string `json:"code"`
	Crop     string `json:"crop,omitempty"`
	Priority string `json:"priority"` // high, medium, low
	Message  string `json:"message"`
}

// Insights are derived ratios and alerts over the consolidated figures.
type Insights struct {
	InterestCoverage   *float64 `json:"interest_coverage,omitempty"`
	InterestPctRevenue float64  `json:"interest_pct_revenue"`
	ROIOnCashCostPct   float64  `json:"roi_on_cash_cost_pct"`
	Alerts             []Alert  `json:"alerts"`
}

// HasAlert reports whether an alert with the given code was raised, for any crop.
func (i Insights) HasAlert(code string) bool {
	for _, a := range i.Alerts {
		if a.Code == code {
			return true
		}
	}
	return false
}

func buildInsights(th Thresholds, r Report) Insights {
	in := Insights{
		InterestPctRevenue: ratio(r.TotalInterest, r.TotalRevenue) * 100,
		ROIOnCashCostPct:   ratio(r.TotalProfit, r.TotalCashCost) * 100,
		Alerts:             []Alert{},
	}
	if r.TotalInterest > 0 {
		coverage := r.EBITDA / r.TotalInterest
		in.InterestCoverage = &coverage
	}

	add := func(code, crop, priority, msg string) {
		in.Alerts = append(in.Alerts, Alert{Code: code, Crop: crop, Priority: priority, Message: msg})
	}

	if r.MarginPct < r.WeightedTargetMarginPct {
		add(AlertMarginBelowTarget, "", "high", fmt.Sprintf(
			"Consolidated margin (%s) is below the weighted target (%s)",
			money.Pct(r.MarginPct, 1), money.Pct(r.WeightedTargetMarginPct, 1)))
	}
	if in.InterestPctRevenue > th.InterestAlertPct {
		add(AlertInterestHigh, "", "medium", fmt.Sprintf(
			"Interest takes %s of revenue; review financed volume and term",
			money.Pct(in.InterestPctRevenue, 1)))
	}

	for _, p := range r.Positions {
		if p.BreakevenPrice > 0 && p.BreakevenPrice > p.MarketPrice {
			add(AlertPriceBelowBreakeven, p.Crop, "high", fmt.Sprintf(
				"%s: open balance needs %s/sc to break even",
				p.Crop, money.BRL(p.BreakevenPrice)))
		}
		if p.SpotExposurePct > th.HighSpotExposurePct {
			add(AlertSpotExposureHigh, p.Crop, "medium", fmt.Sprintf(
				"%s: high spot exposure (%s)", p.Crop, money.Pct(p.SpotExposurePct, 0)))
		}
		switch {
		case p.SafetyMarginSacks < 0:
			add(AlertSafetyMarginNegative, p.Crop, "high", fmt.Sprintf(
				"%s: yield is %.1f sc/ha short of breakeven", p.Crop, -p.SafetyMarginSacks))
		case p.SafetyMarginSacks < th.SafetyMarginWarnSacks:
			add(AlertSafetyMarginLow, p.Crop, "low", fmt.Sprintf(
				"%s: only %.1f sc/ha above breakeven", p.Crop, p.SafetyMarginSacks))
		}
	}
	return in
}
