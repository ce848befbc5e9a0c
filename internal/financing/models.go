package financing

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// DayCountBasis is the denominator of the simple (non-compounding) interest accrual.
const DayCountBasis = 365.0

// DateLayout is the ISO-8601 calendar date format used for every persisted date.
const DateLayout = "2006-01-02"

// Terms describes the operating loan (custeio) that finances part of a crop's
// operational cost.
type Terms struct {
	FinancedPct      float64   `json:"financed_pct"`
	AnnualRatePct    float64   `json:"annual_rate_pct"`
	DisbursementDate time.Time `json:"disbursement_date"`
	PaymentDate      time.Time `json:"payment_date"`
}

// UnmarshalJSON accepts the dates as YYYY-MM-DD or RFC3339.
func (t *Terms) UnmarshalJSON(data []byte) error {
	type alias Terms
	aux := struct {
		*alias
		DisbursementDate string `json:"disbursement_date"`
		PaymentDate      string `json:"payment_date"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if t.DisbursementDate, err = ParseDate(aux.DisbursementDate); err != nil {
		return fmt.Errorf("disbursement_date: %w", err)
	}
	if t.PaymentDate, err = ParseDate(aux.PaymentDate); err != nil {
		return fmt.Errorf("payment_date: %w", err)
	}
	return nil
}

// Loan is the accrued state of Terms applied to a given operational cost.
type Loan struct {
	Principal        float64   `json:"principal"`
	AnnualRatePct    float64   `json:"annual_rate_pct"`
	Days             int       `json:"days"`
	Interest         float64   `json:"interest"`
	DisbursementDate time.Time `json:"disbursement_date"`
	PaymentDate      time.Time `json:"payment_date"`
}

// Repayment is the principal plus accrued interest settled on the payment date.
func (l Loan) Repayment() float64 {
	return l.Principal + l.Interest
}

// InstallmentPlan splits the out-of-pocket share of the input cost into a down
// payment at planting and two dated installments.
type InstallmentPlan struct {
	DownPaymentPct   float64   `json:"down_payment_pct"`
	Installment2Pct  float64   `json:"installment2_pct"`
	Installment2Date time.Time `json:"installment2_date"`
	Installment3Pct  float64   `json:"installment3_pct"`
	Installment3Date time.Time `json:"installment3_date"`
}

// UnmarshalJSON accepts the installment dates as YYYY-MM-DD or RFC3339.
func (p *InstallmentPlan) UnmarshalJSON(data []byte) error {
	type alias InstallmentPlan
	aux := struct {
		*alias
		Installment2Date string `json:"installment2_date"`
		Installment3Date string `json:"installment3_date"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if p.Installment2Date, err = ParseDate(aux.Installment2Date); err != nil {
		return fmt.Errorf("installment2_date: %w", err)
	}
	if p.Installment3Date, err = ParseDate(aux.Installment3Date); err != nil {
		return fmt.Errorf("installment3_date: %w", err)
	}
	return nil
}

// TotalPct sums the three installment shares as entered.
func (p InstallmentPlan) TotalPct() float64 {
	return p.DownPaymentPct + p.Installment2Pct + p.Installment3Pct
}

// Balanced reports whether the shares add up to 100%.
func (p InstallmentPlan) Balanced() bool {
	return math.Abs(p.TotalPct()-100) < 1e-6
}

// ParseDate reads a calendar date (2006-01-02) or an RFC3339 timestamp. An
// empty string is the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, nil
	}
	d, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}

// DaysBetween counts calendar days from one date to another. Time-of-day and
// location are ignored; the result is never negative.
func DaysBetween(from, to time.Time) int {
	if from.IsZero() || to.IsZero() {
		return 0
	}
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	days := int(math.Round(t.Sub(f).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

// Principal returns the financed share of an operational cost.
func (t Terms) Principal(operationalCost float64) float64 {
	if operationalCost <= 0 {
		return 0
	}
	return operationalCost * clampPct(t.FinancedPct) / 100
}

// Accrue applies the terms to an operational cost using simple linear
// accrual over actual days / 365.
func (t Terms) Accrue(operationalCost float64) Loan {
	principal := t.Principal(operationalCost)
	days := DaysBetween(t.DisbursementDate, t.PaymentDate)
	rate := math.Max(0, t.AnnualRatePct)

	return Loan{
		Principal:        principal,
		AnnualRatePct:    rate,
		Days:             days,
		Interest:         principal * (rate / 100 / DayCountBasis) * float64(days),
		DisbursementDate: t.DisbursementDate,
		PaymentDate:      t.PaymentDate,
	}
}

func clampPct(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}
