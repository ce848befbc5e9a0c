package financing

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysBetween(t *testing.T) {
	jan30 := time.Date(2026, time.January, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{"corn season", jan30, time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC), 212},
		{"same day", jan30, jan30, 0},
		{"reversed clamps to zero", jan30, jan30.AddDate(0, 0, -10), 0},
		{"zero date", time.Time{}, jan30, 0},
		{"time of day ignored", jan30.Add(23 * time.Hour), time.Date(2026, time.January, 31, 1, 0, 0, 0, time.UTC), 1},
		{"leap year", time.Date(2028, time.February, 1, 0, 0, 0, 0, time.UTC), time.Date(2028, time.March, 1, 0, 0, 0, 0, time.UTC), 29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.from, tt.to))
		})
	}
}

func TestTermsAccrue(t *testing.T) {
	terms := Terms{
		FinancedPct:      30,
		AnnualRatePct:    12,
		DisbursementDate: time.Date(2026, time.January, 30, 0, 0, 0, 0, time.UTC),
		PaymentDate:      time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC),
	}

	loan := terms.Accrue(8100000)

	assert.InDelta(t, 2430000.0, loan.Principal, 1e-6)
	assert.Equal(t, 212, loan.Days)
	assert.InDelta(t, 2430000*0.12/365*212, loan.Interest, 1e-6)
	assert.InDelta(t, loan.Principal+loan.Interest, loan.Repayment(), 1e-9)

	t.Run("financed share clamps to 100", func(t *testing.T) {
		terms := terms
		terms.FinancedPct = 140
		assert.InDelta(t, 8100000.0, terms.Principal(8100000), 1e-6)
	})

	t.Run("negative rate accrues nothing", func(t *testing.T) {
		terms := terms
		terms.AnnualRatePct = -5
		assert.Equal(t, 0.0, terms.Accrue(8100000).Interest)
	})
}

func TestInstallmentPlan(t *testing.T) {
	p := InstallmentPlan{DownPaymentPct: 50, Installment2Pct: 25, Installment3Pct: 25}
	assert.True(t, p.Balanced())

	p.Installment3Pct = 20
	assert.False(t, p.Balanced())
	assert.InDelta(t, 95.0, p.TotalPct(), 1e-12)
}

func TestForwardSale(t *testing.T) {
	f := ForwardSale{HedgedPct: 25, Price: 60}

	assert.InDelta(t, 39375.0, f.Volume(157500), 1e-9)
	assert.InDelta(t, 2362500.0, f.Revenue(157500), 1e-6)
	assert.InDelta(t, 56.25, f.BlendedPrice(55), 1e-12)

	f.HedgedPct = 120
	assert.Equal(t, 1.0, f.Ratio())
}

func TestTermsUnmarshalJSON_AcceptsPlainDates(t *testing.T) {
	var terms Terms
	err := json.Unmarshal([]byte(`{"financed_pct":30,"disbursement_date":"2026-01-30","payment_date":"2026-08-30T00:00:00Z"}`), &terms)
	require.NoError(t, err)

	assert.Equal(t, 30.0, terms.FinancedPct)
	assert.Equal(t, time.Date(2026, time.January, 30, 0, 0, 0, 0, time.UTC), terms.DisbursementDate)
	assert.Equal(t, 212, DaysBetween(terms.DisbursementDate, terms.PaymentDate))

	err = json.Unmarshal([]byte(`{"disbursement_date":"30/01/2026"}`), &terms)
	assert.ErrorContains(t, err, "disbursement_date")
}

func TestInstallmentPlanUnmarshalJSON(t *testing.T) {
	var plan InstallmentPlan
	err := json.Unmarshal([]byte(`{"down_payment_pct":50,"installment2_pct":25,"installment2_date":"2026-07-30","installment3_pct":25}`), &plan)
	require.NoError(t, err)

	assert.True(t, plan.Balanced())
	assert.Equal(t, time.Date(2026, time.July, 30, 0, 0, 0, 0, time.UTC), plan.Installment2Date)
	assert.True(t, plan.Installment3Date.IsZero())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2026-01-30 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.January, 30, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseDate("tomorrow")
	assert.Error(t, err)
}
