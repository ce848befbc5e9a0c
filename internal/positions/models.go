package positions

import (
	"time"

	"github.com/google/uuid"

	"agroexposure/risk-portal/risk-portal-backend/internal/financing/calculation"
	"agroexposure/risk-portal/risk-portal-backend/internal/financing/cashflow"
	"agroexposure/risk-portal/risk-portal-backend/internal/reports/consolidation"
	"agroexposure/risk-portal/risk-portal-backend/internal/snapshot"
)

// CashFlowRequest is the body of POST /positions/cashflow.
type CashFlowRequest struct {
	Inputs   calculation.Inputs       `json:"inputs"`
	Schedule *cashflow.ScheduleInputs `json:"schedule,omitempty"`
}

// CashFlowResponse pairs a position with its 12-month projection.
type CashFlowResponse struct {
	Result   calculation.Result `json:"result"`
	CashFlow cashflow.Report    `json:"cash_flow"`
}

// ConsolidateRequest holds the two crops planted on the same land.
type ConsolidateRequest struct {
	First  calculation.Inputs `json:"first"`
	Second calculation.Inputs `json:"second"`
}

// NewSaleRequest simulates selling an extra share of production.
type NewSaleRequest struct {
	Inputs calculation.Inputs `json:"inputs"`
	Pct    float64            `json:"pct" binding:"gte=0,lte=100"`
	Price  float64            `json:"price" binding:"gte=0"`
}

// SensitivityRequest sweeps the open-balance price. Zero fields take the
// default range.
type SensitivityRequest struct {
	Inputs calculation.Inputs `json:"inputs"`
	Low    float64            `json:"low"`
	High   float64            `json:"high"`
	Points int                `json:"points" binding:"lte=200"`
}

// HeatmapRequest lists the yield and price axes. Empty axes get a grid
// around the current plan.
type HeatmapRequest struct {
	Inputs calculation.Inputs `json:"inputs"`
	Yields []float64          `json:"yields" binding:"max=50"`
	Prices []float64          `json:"prices" binding:"max=50"`
}

// CarryRequest compares selling now with storing until a later month.
type CarryRequest struct {
	Spot                    float64   `json:"spot" binding:"gte=0"`
	FuturePrice             float64   `json:"future_price" binding:"gte=0"`
	StorageCostPerSackMonth float64   `json:"storage_cost_per_sack_month"`
	OpportunityRatePctMonth float64   `json:"opportunity_rate_pct_month"`
	Months                  int       `json:"months" binding:"gte=0"`
	CurrentMonth            int       `json:"current_month"`
	SeasonalIndices         []float64 `json:"seasonal_indices" binding:"max=12"`
}

// CarryResponse is the carry decision plus the seasonal price curve.
type CarryResponse struct {
	Decision calculation.CarryDecision   `json:"decision"`
	Seasonal []calculation.SeasonalPoint `json:"seasonal"`
}

// BarterRequest converts a purchase into sacks.
type BarterRequest struct {
	PurchaseValue float64 `json:"purchase_value" binding:"gte=0"`
	Price         float64 `json:"price" binding:"gte=0"`
}

// SessionResponse describes a session and its current state.
type SessionResponse struct {
	ID        uuid.UUID         `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	State     snapshot.Snapshot `json:"state"`
	Persisted bool              `json:"persisted,omitempty"`
}

// PositionView is one crop computed from session state, with its tools.
type PositionView struct {
	Crop     string                        `json:"crop"`
	Result   calculation.Result            `json:"result"`
	CashFlow cashflow.Report               `json:"cash_flow"`
	Tools    snapshot.Tools                `json:"tools"`
	NewSale  calculation.NewSaleSimulation `json:"new_sale"`
	Barter   calculation.BarterQuote       `json:"barter"`
	Carry    calculation.CarryDecision     `json:"carry"`
}

// SessionReport is both crops of a session plus their consolidation.
type SessionReport struct {
	SessionID    uuid.UUID            `json:"session_id"`
	GeneratedAt  time.Time            `json:"generated_at"`
	Positions    []PositionView       `json:"positions"`
	Consolidated consolidation.Report `json:"consolidated"`
	Calendar     []cashflow.Event     `json:"calendar"`
}
