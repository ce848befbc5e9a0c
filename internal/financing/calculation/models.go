package calculation

import "agroexposure/risk-portal/risk-portal-backend/internal/financing"

// MaxBreakPct is the largest crop-failure derate a position may carry.
const MaxBreakPct = 0.95

// MaxTargetMargin bounds the target net margin so the required revenue stays finite.
const MaxTargetMargin = 0.99

// Inputs is one planting cycle of one crop, as entered by the operator.
// It is built once per compute pass and never mutated by the engine.
type Inputs struct {
	Crop string `json:"crop"`

	// Physical
	OwnedArea              float64 `json:"owned_area"`
	LeasedArea             float64 `json:"leased_area"`
	BaseYield              float64 `json:"base_yield"`
	BreakSimulationEnabled bool    `json:"break_simulation_enabled"`
	BreakPct               float64 `json:"break_pct"` // fraction, 0 to 0.95
	LeaseSacksPerHa        float64 `json:"lease_sacks_per_ha"`

	// Cost allocation; maintenance is the residual of InputsPct and HarvestPct
	OpCostPerHa float64 `json:"op_cost_per_ha"`
	InputsPct   float64 `json:"inputs_pct"`
	HarvestPct  float64 `json:"harvest_pct"`

	// Commercial
	HedgedPct       float64 `json:"hedged_pct"`
	HedgePrice      float64 `json:"hedge_price"`
	MarketPrice     float64 `json:"market_price"`
	TargetMarginPct float64 `json:"target_margin_pct"`

	Financing    financing.Terms           `json:"financing"`
	Installments financing.InstallmentPlan `json:"installments"`

	// Calendar anchors, 1-12
	PlantingMonth int `json:"planting_month"`
	HarvestMonth  int `json:"harvest_month"`
}

// Hedge returns the forward commitment described by the inputs.
func (in Inputs) Hedge() financing.ForwardSale {
	return financing.ForwardSale{HedgedPct: in.HedgedPct, Price: in.HedgePrice}
}

// Production holds the physical volumes of a position.
type Production struct {
	TotalArea             float64 `json:"total_area"`
	EffectiveYield        float64 `json:"effective_yield"`
	TotalProduction       float64 `json:"total_production"`
	LeaseSacksTotal       float64 `json:"lease_sacks_total"`
	NetSellableProduction float64 `json:"net_sellable_production"`
}

// Revenue holds the hedge/spot split and the realized price.
type Revenue struct {
	HedgedVolume               float64 `json:"hedged_volume"`
	PhysicallyAvailableForSpot float64 `json:"physically_available_for_spot"`
	HedgeRevenue               float64 `json:"hedge_revenue"`
	SpotRevenue                float64 `json:"spot_revenue"`
	GrossRevenue               float64 `json:"gross_revenue"`
	BlendedPrice               float64 `json:"blended_price"`
	OverHedged                 bool    `json:"over_hedged"`
}

// Costs keeps cash and economic cost apart. The lease valuation only enters
// EconomicCostTotal.
type Costs struct {
	OperationalCostTotal float64 `json:"operational_cost_total"`
	InputsCost           float64 `json:"inputs_cost"`
	HarvestCost          float64 `json:"harvest_cost"`
	MaintenancePct       float64 `json:"maintenance_pct"`
	MaintenanceCost      float64 `json:"maintenance_cost"`
	InterestCost         float64 `json:"interest_cost"`
	LeaseCostInReais     float64 `json:"lease_cost_in_reais"`
	CashCostTotal        float64 `json:"cash_cost_total"`
	EconomicCostTotal    float64 `json:"economic_cost_total"`

	NetProfit         float64 `json:"net_profit"`
	OperatingProfit   float64 `json:"operating_profit"`
	NetMarginPct      float64 `json:"net_margin_pct"`
	ROIOnEconomicCost float64 `json:"roi_on_economic_cost"`
	ROIOnCashCost     float64 `json:"roi_on_cash_cost"`

	OperationalBarter float64 `json:"operational_barter"`
	TotalBarter       float64 `json:"total_barter"`
}

// Breakeven holds the zero-profit and target-margin solutions.
type Breakeven struct {
	OpenVolume               float64         `json:"open_volume"`
	PriceOnOpenBalance       float64         `json:"price_on_open_balance"`
	ConservativeYieldPerHa   float64         `json:"conservative_yield_per_ha"`
	PlanYieldPerHa           float64         `json:"plan_yield_per_ha"`
	BlendedProductionPrice   float64         `json:"blended_production_price"`
	TargetMargin             float64         `json:"target_margin"`
	TargetRequiredRevenue    float64         `json:"target_required_revenue"`
	TargetPriceOnOpenBalance float64         `json:"target_price_on_open_balance"`
	SafetyMarginSacksPerHa   float64         `json:"safety_margin_sacks_per_ha"`
	Yields                   []YieldEstimate `json:"yields"`
}

// Indicators are per-unit and per-area figures derived from the totals.
type Indicators struct {
	CashCostPerNetSack     float64 `json:"cash_cost_per_net_sack"`
	EconomicCostPerNetSack float64 `json:"economic_cost_per_net_sack"`
	CashCostPerHa          float64 `json:"cash_cost_per_ha"`
	OwnedAreaCostPerHa     float64 `json:"owned_area_cost_per_ha"`
	LeasedAreaCostPerHa    float64 `json:"leased_area_cost_per_ha"`
	InterestPerSack        float64 `json:"interest_per_sack"`
	InterestSacksPerHa     float64 `json:"interest_sacks_per_ha"`
	GrossProductionValue   float64 `json:"gross_production_value"`
	ProfitPerHa            float64 `json:"profit_per_ha"`
	SpotExposurePct        float64 `json:"spot_exposure_pct"`
}

// CalculationStep records one stage of the computation for audit display.
type CalculationStep struct {
	StepNumber  int                `json:"step_number"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Formula     string             `json:"formula"`
	Outputs     map[string]float64 `json:"outputs"`
}

// Result is the fully derived state of a position for one compute pass.
type Result struct {
	Inputs     Inputs            `json:"inputs"`
	Production Production        `json:"production"`
	Revenue    Revenue           `json:"revenue"`
	Costs      Costs             `json:"costs"`
	Financing  financing.Loan    `json:"financing"`
	Breakeven  Breakeven         `json:"breakeven"`
	Indicators Indicators        `json:"indicators"`
	Steps      []CalculationStep `json:"steps"`
	Validation ValidationResults `json:"validation"`
}

// ValidationResults lists inconsistencies found in the inputs. Computation
// proceeds regardless; these are shown to the operator.
type ValidationResults struct {
	IsValid  bool                `json:"is_valid"`
	Errors   []ValidationError   `json:"errors"`
	Warnings []ValidationWarning `json:"warnings"`
}

// ValidationError represents an input that makes part of the result meaningless.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationWarning represents an inconsistent but computable input.
type ValidationWarning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// HasWarning reports whether a warning with the given code was raised.
func (v ValidationResults) HasWarning(code string) bool {
	for _, w := range v.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// HasError reports whether an error with the given code was raised.
func (v ValidationResults) HasError(code string) bool {
	for _, e := range v.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}
