package positions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"agroexposure/risk-portal/risk-portal-backend/internal/config"
	"agroexposure/risk-portal/risk-portal-backend/internal/financing/calculation"
	"agroexposure/risk-portal/risk-portal-backend/internal/financing/cashflow"
	"agroexposure/risk-portal/risk-portal-backend/internal/reports/consolidation"
	"agroexposure/risk-portal/risk-portal-backend/internal/reports/export"
	"agroexposure/risk-portal/risk-portal-backend/internal/snapshot"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownCrop     = errors.New("unknown crop")
)

// Options are the engine heuristics the service applies.
type Options struct {
	Prefixes   []string
	Schedule   cashflow.ScheduleInputs
	Thresholds consolidation.Thresholds
	Title      string
}

// DefaultOptions returns the standard heuristics for both crops.
func DefaultOptions() Options {
	return Options{
		Prefixes:   snapshot.Prefixes(),
		Schedule:   cashflow.DefaultScheduleInputs(),
		Thresholds: consolidation.DefaultThresholds(),
		Title:      "AgroExposure consolidated report",
	}
}

// OptionsFromConfig maps the engine and snapshot sections of the config.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	if len(cfg.Snapshot.Prefixes) > 0 {
		opts.Prefixes = cfg.Snapshot.Prefixes
	}
	opts.Schedule.SpotLagMonths = cfg.Engine.SpotLagMonths
	opts.Schedule.MaintenanceMonths = cfg.Engine.MaintenanceMonths
	opts.Thresholds = consolidation.Thresholds{
		HighSpotExposurePct:   cfg.Engine.HighSpotExposurePct,
		InterestAlertPct:      cfg.Engine.InterestAlertPct,
		SafetyMarginWarnSacks: cfg.Engine.SafetyMarginWarnSacks,
	}
	return opts
}

// Service computes positions and manages operator sessions.
type Service struct {
	store    snapshot.Store
	sessions *snapshot.SessionCache
	opts     Options
	logger   *zap.Logger
}

// NewService creates a new positions service
func NewService(store snapshot.Store, sessions *snapshot.SessionCache, opts Options, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		sessions: sessions,
		opts:     opts,
		logger:   logger,
	}
}

// =====================================================
// Stateless computations
// =====================================================

// Compute derives a single position.
func (s *Service) Compute(in calculation.Inputs) calculation.Result {
	return calculation.ComputePosition(in)
}

// CashFlow derives a position and its 12-month projection. A nil schedule
// uses the configured heuristics.
func (s *Service) CashFlow(req CashFlowRequest) CashFlowResponse {
	sched := s.opts.Schedule
	if req.Schedule != nil {
		sched = *req.Schedule
	}
	res := calculation.ComputePosition(req.Inputs)
	return CashFlowResponse{Result: res, CashFlow: cashflow.Build(res, sched)}
}

// Consolidate derives both crops and their consolidated view.
func (s *Service) Consolidate(req ConsolidateRequest) consolidation.Report {
	results := calculation.ComputeAll(req.First, req.Second)
	return consolidation.ConsolidateWith(s.opts.Thresholds, results...)
}

// SimulateNewSale computes the effect of an extra sale.
func (s *Service) SimulateNewSale(req NewSaleRequest) calculation.NewSaleSimulation {
	return calculation.SimulateNewSale(calculation.ComputePosition(req.Inputs), req.Pct, req.Price)
}

// Sensitivity sweeps the open-balance price.
func (s *Service) Sensitivity(req SensitivityRequest) []calculation.SensitivityPoint {
	low, high, points := req.Low, req.High, req.Points
	if low <= 0 || high <= low {
		low, high = calculation.DefaultSensitivityLow, calculation.DefaultSensitivityHigh
	}
	if points < 2 {
		points = calculation.DefaultSensitivityPoints
	}
	return calculation.PriceSensitivity(calculation.ComputePosition(req.Inputs), low, high, points)
}

// Heatmap computes margin per hectare over yield and price axes.
func (s *Service) Heatmap(req HeatmapRequest) calculation.Heatmap {
	return calculation.MarginHeatmap(calculation.ComputePosition(req.Inputs), req.Yields, req.Prices)
}

// Carry evaluates storing against selling now, with the seasonal curve.
func (s *Service) Carry(req CarryRequest) CarryResponse {
	indices := req.SeasonalIndices
	if len(indices) != 12 {
		indices = calculation.DefaultSeasonalIndices
	}
	month := req.CurrentMonth
	if month < 1 || month > 12 {
		month = int(time.Now().Month())
	}
	return CarryResponse{
		Decision: calculation.EvaluateCarry(req.Spot, req.FuturePrice, req.StorageCostPerSackMonth, req.OpportunityRatePctMonth, req.Months),
		Seasonal: calculation.SeasonalProjection(req.Spot, month, indices),
	}
}

// Barter converts a purchase into sacks.
func (s *Service) Barter(req BarterRequest) calculation.BarterQuote {
	return calculation.NewBarterQuote(req.PurchaseValue, req.Price)
}

// Parity quotes the export parity price.
func (s *Service) Parity(in calculation.ParityInputs) calculation.ParityQuote {
	return calculation.ExportParity(in)
}

// =====================================================
// Sessions
// =====================================================

// CreateSession starts a session hydrated from the store.
func (s *Service) CreateSession(ctx context.Context) *SessionResponse {
	sess := s.sessions.Create()
	sess.Hydrate(ctx, s.store, s.logger)
	s.logger.Info("Session created", zap.String("session_id", sess.ID.String()))
	return sessionResponse(sess, false)
}

// GetState returns the session state.
func (s *Service) GetState(ctx context.Context, id uuid.UUID) (*SessionResponse, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	return sessionResponse(sess, false), nil
}

// UpdateState merges values into the session and persists the tracked keys.
func (s *Service) UpdateState(ctx context.Context, id uuid.UUID, values map[string]any) (*SessionResponse, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Merge(values)
	persisted := sess.Persist(ctx, s.store, s.opts.Prefixes, s.logger)
	return sessionResponse(sess, persisted), nil
}

// ResetCrop restores the defaults of one crop and persists.
func (s *Service) ResetCrop(ctx context.Context, id uuid.UUID, cropName string) (*SessionResponse, error) {
	crop, ok := snapshot.CropByName(cropName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCrop, cropName)
	}
	sess, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	persisted := sess.Reset(ctx, s.store, crop, s.opts.Prefixes, s.logger)
	s.logger.Info("Crop reset to defaults",
		zap.String("session_id", id.String()),
		zap.String("crop", crop.Name),
		zap.Bool("persisted", persisted))
	return sessionResponse(sess, persisted), nil
}

// Recalculate drops unsaved edits, re-reads the store and recomputes.
func (s *Service) Recalculate(ctx context.Context, id uuid.UUID) (*SessionReport, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.Clear(s.opts.Prefixes)
	return s.Report(ctx, id)
}

// Report computes both crops from the session state and consolidates them.
func (s *Service) Report(ctx context.Context, id uuid.UUID) (*SessionReport, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return nil, err
	}
	state := sess.State()

	report := &SessionReport{SessionID: id, GeneratedAt: time.Now()}
	results := make([]calculation.Result, 0, 2)
	for _, crop := range snapshot.Crops() {
		res := calculation.ComputePosition(snapshot.InputsFromState(state, crop))
		tools := snapshot.ToolsFromState(state, crop)
		results = append(results, res)

		report.Positions = append(report.Positions, PositionView{
			Crop:     crop.Name,
			Result:   res,
			CashFlow: cashflow.Build(res, s.opts.Schedule),
			Tools:    tools,
			NewSale:  calculation.SimulateNewSale(res, tools.NewSalePct, tools.NewSalePrice),
			Barter:   calculation.NewBarterQuote(tools.BarterPurchase, tools.BarterPrice),
			Carry: calculation.EvaluateCarry(res.Inputs.MarketPrice, tools.FuturePrice,
				tools.StorageCostPerSackMonth, tools.OpportunityRatePctMonth, tools.CarryMonths),
		})
		if !res.Validation.IsValid {
			s.logger.Warn("Position has input errors",
				zap.String("crop", crop.Name),
				zap.Int("errors", len(res.Validation.Errors)))
		}
	}
	report.Consolidated = consolidation.ConsolidateWith(s.opts.Thresholds, results...)
	report.Calendar = cashflow.Calendar(results...)
	return report, nil
}

// Export writes the session report in the given format.
func (s *Service) Export(ctx context.Context, id uuid.UUID, format export.Format, w io.Writer) error {
	report, err := s.Report(ctx, id)
	if err != nil {
		return err
	}
	if err := export.Write(w, format, report.Portfolio(s.opts.Title)); err != nil {
		return fmt.Errorf("failed to export %s report: %w", format, err)
	}
	return nil
}

// ExportFileName returns a unique download name for an export.
func ExportFileName(format export.Format) string {
	return "agro-exposure-" + uuid.NewString()[:8] + format.Extension()
}

// Portfolio converts the report into the export model.
func (r *SessionReport) Portfolio(title string) export.Portfolio {
	p := export.Portfolio{
		Title:        title,
		GeneratedAt:  r.GeneratedAt,
		Consolidated: r.Consolidated,
		Calendar:     r.Calendar,
	}
	for _, v := range r.Positions {
		p.Positions = append(p.Positions, v.Result)
		p.CashFlows = append(p.CashFlows, v.CashFlow)
	}
	return p
}

// session returns a hydrated session.
func (s *Service) session(ctx context.Context, id uuid.UUID) (*snapshot.Session, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.Hydrate(ctx, s.store, s.logger)
	return sess, nil
}

func sessionResponse(sess *snapshot.Session, persisted bool) *SessionResponse {
	return &SessionResponse{
		ID:        sess.ID,
		CreatedAt: sess.CreatedAt,
		State:     sess.State(),
		Persisted: persisted,
	}
}
