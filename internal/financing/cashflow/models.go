package cashflow

import (
	"encoding/json"
	"fmt"
	"time"

	"agroexposure/risk-portal/risk-portal-backend/internal/financing"
)

// Months is the length of the projection window.
const Months = 12

// DefaultSpotLagMonths is the delay between harvest and spot settlement.
const DefaultSpotLagMonths = 2

// EntryKind labels a ledger entry.
type EntryKind string

const (
	EntryInputDownPayment  EntryKind = "input_down_payment"
	EntryInputInstallment2 EntryKind = "input_installment_2"
	EntryInputInstallment3 EntryKind = "input_installment_3"
	EntryMaintenance       EntryKind = "maintenance"
	EntryHarvest           EntryKind = "harvest"
	EntryLoanRepayment     EntryKind = "loan_repayment"
	EntryHedgeSettlement   EntryKind = "hedge_settlement"
	EntrySpotSale          EntryKind = "spot_sale"
)

// ScheduleInputs are the timing heuristics of the projection. The zero value
// settles spot sales in the harvest month; use DefaultScheduleInputs for the
// usual two-month lag.
type ScheduleInputs struct {
	SpotLagMonths int `json:"spot_lag_months" binding:"gte=0,lte=12"`

	// MaintenanceMonths spreads maintenance evenly over this many months
	// from planting, at most 12. Zero means planting through harvest
	// inclusive.
	MaintenanceMonths int `json:"maintenance_months" binding:"gte=0,lte=12"`

	// WindowStart overrides the first month of the window. Zero means the
	// financing disbursement month.
	WindowStart time.Time `json:"window_start"`
}

// UnmarshalJSON accepts window_start as YYYY-MM-DD or RFC3339.
func (s *ScheduleInputs) UnmarshalJSON(data []byte) error {
	type alias ScheduleInputs
	aux := struct {
		*alias
		WindowStart string `json:"window_start"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if s.WindowStart, err = financing.ParseDate(aux.WindowStart); err != nil {
		return fmt.Errorf("window_start: %w", err)
	}
	return nil
}

// DefaultScheduleInputs returns the standard schedule heuristics.
func DefaultScheduleInputs() ScheduleInputs {
	return ScheduleInputs{SpotLagMonths: DefaultSpotLagMonths}
}

// Entry is a single cash movement. Outflows report the share covered by the
// remaining financed balance separately; only the out-of-pocket share hits
// the month's outflow.
type Entry struct {
	Kind     EntryKind `json:"kind"`
	Month    int       `json:"month"`
	Inflow   float64   `json:"inflow"`
	Outflow  float64   `json:"outflow"`
	BankPaid float64   `json:"bank_paid"`
}

// Month is one bucket of the ledger.
type Month struct {
	Index             int       `json:"index"`
	Label             string    `json:"label"`
	Start             time.Time `json:"start"`
	Inflow            float64   `json:"inflow"`
	Outflow           float64   `json:"outflow"`
	Net               float64   `json:"net"`
	CumulativeBalance float64   `json:"cumulative_balance"`
	Entries           []Entry   `json:"entries"`
}

// Deficit is a month whose outflow exceeds its inflow, expressed in the
// sacks that must be sold at market to cover it.
type Deficit struct {
	Month           int     `json:"month"`
	Label           string  `json:"label"`
	Gap             float64 `json:"gap"`
	Sacks           float64 `json:"sacks"`
	PctOfProduction float64 `json:"pct_of_production"`
}

// ForcedSale sums the liquidity-driven selling across deficit months.
type ForcedSale struct {
	Deficits        []Deficit `json:"deficits"`
	TotalGap        float64   `json:"total_gap"`
	TotalSacks      float64   `json:"total_sacks"`
	PctOfProduction float64   `json:"pct_of_production"`
}

// Required reports whether any month needs a forced sale.
func (f ForcedSale) Required() bool {
	return len(f.Deficits) > 0
}

// Report is the 12-month projection of one position.
type Report struct {
	Crop                  string     `json:"crop"`
	WindowStart           time.Time  `json:"window_start"`
	Months                []Month    `json:"months"`
	TotalInflow           float64    `json:"total_inflow"`
	TotalOutflow          float64    `json:"total_outflow"`
	FinancedInputs        float64    `json:"financed_inputs"`
	OwnInputs             float64    `json:"own_inputs"`
	BankFundedOther       float64    `json:"bank_funded_other"`
	UnusedFinancedBalance float64    `json:"unused_financed_balance"`
	Dropped               []Entry    `json:"dropped"`
	ForcedSale            ForcedSale `json:"forced_sale"`
}

// FinalBalance is the cumulative balance at the end of the window.
func (r Report) FinalBalance() float64 {
	if len(r.Months) == 0 {
		return 0
	}
	return r.Months[len(r.Months)-1].CumulativeBalance
}

// Event is a dated financial commitment of a position.
type Event struct {
	Date   time.Time `json:"date"`
	Crop   string    `json:"crop"`
	Kind   EventKind `json:"kind"`
	Amount float64   `json:"amount"`
}

// EventKind labels a calendar event.
type EventKind string

const (
	EventInputDownPayment  EventKind = "input_down_payment"
	EventInputInstallment2 EventKind = "input_installment_2"
	EventInputInstallment3 EventKind = "input_installment_3"
	EventLoanPrincipal     EventKind = "loan_principal"
	EventLoanInterest      EventKind = "loan_interest"
)
