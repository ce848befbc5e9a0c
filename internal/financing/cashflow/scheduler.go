package cashflow

import (
	"math"
	"sort"
	"time"

	"agroexposure/risk-portal/risk-portal-backend/internal/financing/calculation"
)

// Build projects a computed position onto a 12-month ledger starting at the
// financing disbursement month.
//
// Input cost is financed first, up to the principal; the out-of-pocket
// remainder is paid in the installment plan. Whatever principal is left after
// inputs covers maintenance and harvest tranches before the producer's own
// cash does. The lease is never a cash outflow. Events falling outside the
// window are dropped, not deferred.
func Build(res calculation.Result, sched ScheduleInputs) Report {
	in := res.Inputs
	start := windowStart(res, sched)
	l := newLedger(start)

	inputCost := res.Costs.InputsCost
	principal := res.Financing.Principal
	financedInputs := math.Min(inputCost, principal)
	ownInputs := inputCost - financedInputs
	l.balance = math.Max(0, principal-inputCost)

	plant, harvest := cycleIndices(l.start, in.PlantingMonth, in.HarvestMonth)

	// 1. Inputs, out-of-pocket share in three installments
	plan := in.Installments
	l.pay(plant, EntryInputDownPayment, ownInputs*plan.DownPaymentPct/100)
	l.pay(l.dateIndex(plan.Installment2Date), EntryInputInstallment2, ownInputs*plan.Installment2Pct/100)
	l.pay(l.dateIndex(plan.Installment3Date), EntryInputInstallment3, ownInputs*plan.Installment3Pct/100)

	// 2. Maintenance, spread evenly from planting to harvest inclusive
	duration := max(1, harvest-plant+1)
	if sched.MaintenanceMonths > 0 {
		duration = min(sched.MaintenanceMonths, Months)
	}
	monthly := res.Costs.MaintenanceCost / float64(duration)
	for i := plant; i < plant+duration; i++ {
		l.payBankFirst(i, EntryMaintenance, monthly)
	}

	// 3. Harvest
	l.payBankFirst(harvest, EntryHarvest, res.Costs.HarvestCost)

	// 4. Loan repayment in the payment month
	if principal > 0 {
		l.pay(l.dateIndex(res.Financing.PaymentDate), EntryLoanRepayment, res.Financing.Repayment())
	}

	// Inflows
	lag := max(0, sched.SpotLagMonths)
	l.receive(harvest, EntryHedgeSettlement, res.Revenue.HedgeRevenue)
	l.receive(min(Months-1, harvest+lag), EntrySpotSale, res.Revenue.SpotRevenue)

	report := l.close(in.MarketPrice, res.Production.TotalProduction)
	report.Crop = in.Crop
	report.FinancedInputs = financedInputs
	report.OwnInputs = ownInputs
	return report
}

// Calendar lists the dated commitments of one or more positions in date
// order: the input down payment on the first day of the planting month, the
// two installments, and loan principal and interest on the payment date.
func Calendar(results ...calculation.Result) []Event {
	var events []Event
	for _, res := range results {
		in := res.Inputs
		own := res.Costs.InputsCost - math.Min(res.Costs.InputsCost, res.Financing.Principal)
		plan := in.Installments

		add := func(d time.Time, kind EventKind, amount float64) {
			if d.IsZero() || amount == 0 {
				return
			}
			events = append(events, Event{Date: d, Crop: in.Crop, Kind: kind, Amount: amount})
		}

		add(plantingDate(in), EventInputDownPayment, own*plan.DownPaymentPct/100)
		add(plan.Installment2Date, EventInputInstallment2, own*plan.Installment2Pct/100)
		add(plan.Installment3Date, EventInputInstallment3, own*plan.Installment3Pct/100)
		add(res.Financing.PaymentDate, EventLoanPrincipal, res.Financing.Principal)
		add(res.Financing.PaymentDate, EventLoanInterest, res.Financing.Interest)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	return events
}

// plantingDate is the first day of the planting month within the crop cycle
// that follows the disbursement. A planting month already past at
// disbursement clamps to the disbursement month.
func plantingDate(in calculation.Inputs) time.Time {
	d := in.Financing.DisbursementDate
	if d.IsZero() {
		return time.Time{}
	}
	start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	plant, _ := cycleIndices(start, in.PlantingMonth, in.HarvestMonth)
	return start.AddDate(0, plant, 0)
}

func windowStart(res calculation.Result, sched ScheduleInputs) time.Time {
	d := sched.WindowStart
	if d.IsZero() {
		d = res.Financing.DisbursementDate
	}
	if d.IsZero() {
		return time.Time{}
	}
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func clampMonth(m int) int {
	return min(12, max(1, m))
}

// ledger accumulates entries into month buckets and tracks the financed
// balance still available after inputs.
type ledger struct {
	start          time.Time
	months         []Month
	dropped        []Entry
	balance        float64
	bankFundedRest float64
}

func newLedger(start time.Time) *ledger {
	months := make([]Month, Months)
	for i := range months {
		ms := start.AddDate(0, i, 0)
		months[i] = Month{
			Index:   i,
			Label:   ms.Format("Jan/06"),
			Start:   ms,
			Entries: []Entry{},
		}
	}
	return &ledger{start: start, months: months}
}

// calendarIndex maps a calendar month (1-12) to its offset from start.
func calendarIndex(start time.Time, month int) int {
	return ((clampMonth(month)-int(start.Month()))%Months + Months) % Months
}

// cycleIndices maps planting and harvest months onto the window. Harvest is
// the first occurrence on or after start. A planting month that lands after
// harvest belongs to the cycle already under way, so it clamps to the
// window's first month.
func cycleIndices(start time.Time, plantingMonth, harvestMonth int) (plant, harvest int) {
	plant = calendarIndex(start, plantingMonth)
	harvest = calendarIndex(start, harvestMonth)
	if plant > harvest {
		plant = 0
	}
	return plant, harvest
}

// dateIndex maps a date to its offset in the window. Zero dates and dates
// outside the window return an out-of-range offset.
func (l *ledger) dateIndex(d time.Time) int {
	if d.IsZero() {
		return -1
	}
	return (d.Year()-l.start.Year())*12 + int(d.Month()) - int(l.start.Month())
}

func (l *ledger) add(idx int, e Entry) {
	e.Month = idx
	if idx < 0 || idx >= Months {
		l.dropped = append(l.dropped, e)
		return
	}
	m := &l.months[idx]
	m.Inflow += e.Inflow
	m.Outflow += e.Outflow
	m.Entries = append(m.Entries, e)
}

// pay records an out-of-pocket outflow.
func (l *ledger) pay(idx int, kind EntryKind, amount float64) {
	if amount == 0 {
		return
	}
	l.add(idx, Entry{Kind: kind, Outflow: amount})
}

// payBankFirst covers as much of amount as the remaining financed balance
// allows and records the rest as out-of-pocket.
func (l *ledger) payBankFirst(idx int, kind EntryKind, amount float64) {
	if amount == 0 {
		return
	}
	if idx < 0 || idx >= Months {
		l.add(idx, Entry{Kind: kind, Outflow: amount})
		return
	}
	bank := math.Max(0, math.Min(amount, l.balance))
	l.balance -= bank
	l.bankFundedRest += bank
	l.add(idx, Entry{Kind: kind, Outflow: amount - bank, BankPaid: bank})
}

func (l *ledger) receive(idx int, kind EntryKind, amount float64) {
	if amount == 0 {
		return
	}
	l.add(idx, Entry{Kind: kind, Inflow: amount})
}

// close computes running balances and the forced-sale requirement.
func (l *ledger) close(marketPrice, totalProduction float64) Report {
	r := Report{
		WindowStart:           l.start,
		Months:                l.months,
		Dropped:               l.dropped,
		BankFundedOther:       l.bankFundedRest,
		UnusedFinancedBalance: l.balance,
		ForcedSale:            ForcedSale{Deficits: []Deficit{}},
	}
	if r.Dropped == nil {
		r.Dropped = []Entry{}
	}

	running := 0.0
	for i := range r.Months {
		m := &r.Months[i]
		m.Net = m.Inflow - m.Outflow
		running += m.Net
		m.CumulativeBalance = running
		r.TotalInflow += m.Inflow
		r.TotalOutflow += m.Outflow

		gap := m.Outflow - m.Inflow
		if gap <= 0 {
			continue
		}
		sacks := 0.0
		if marketPrice > 0 {
			sacks = gap / marketPrice
		}
		r.ForcedSale.Deficits = append(r.ForcedSale.Deficits, Deficit{
			Month:           i,
			Label:           m.Label,
			Gap:             gap,
			Sacks:           sacks,
			PctOfProduction: pctOf(sacks, totalProduction),
		})
		r.ForcedSale.TotalGap += gap
		r.ForcedSale.TotalSacks += sacks
	}
	r.ForcedSale.PctOfProduction = pctOf(r.ForcedSale.TotalSacks, totalProduction)
	return r
}

func pctOf(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}
