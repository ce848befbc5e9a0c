package positions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"agroexposure/risk-portal/risk-portal-backend/internal/config"
	"agroexposure/risk-portal/risk-portal-backend/internal/financing/calculation"
	"agroexposure/risk-portal/risk-portal-backend/internal/financing/cashflow"
	"agroexposure/risk-portal/risk-portal-backend/internal/snapshot"
)

// MockStore is a mock implementation of snapshot.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Load(ctx context.Context) (snapshot.Snapshot, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(snapshot.Snapshot)
	return s, args.Error(1)
}

func (m *MockStore) Save(ctx context.Context, s snapshot.Snapshot) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func newTestService(t *testing.T, store snapshot.Store) (*Service, *snapshot.SessionCache) {
	t.Helper()
	cache := snapshot.NewSessionCache(time.Hour)
	t.Cleanup(cache.Stop)
	return NewService(store, cache, DefaultOptions(), zap.NewNop()), cache
}

func soyInputs() calculation.Inputs {
	return snapshot.InputsFromState(nil, snapshot.Soy)
}

func TestService_CreateSessionHydrates(t *testing.T) {
	store := new(MockStore)
	store.On("Load", mock.Anything).Return(snapshot.Snapshot{"milho_preco_mercado": 58.0}, nil).Once()
	svc, _ := newTestService(t, store)

	resp := svc.CreateSession(context.Background())

	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.Equal(t, 58.0, resp.State["milho_preco_mercado"])
	store.AssertExpectations(t)
}

func TestService_UpdateStatePersistsTrackedKeys(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	store.On("Load", mock.Anything).Return(nil, snapshot.ErrSnapshotNotFound)
	store.On("Save", mock.Anything, mock.MatchedBy(func(s snapshot.Snapshot) bool {
		_, ui := s["ui_tab"]
		return s["soja_preco_mercado"] == 110.0 && !ui
	})).Return(nil).Once()
	svc, _ := newTestService(t, store)

	sess := svc.CreateSession(ctx)
	resp, err := svc.UpdateState(ctx, sess.ID, map[string]any{
		"soja_preco_mercado": 110.0,
		"ui_tab":             "cashflow",
	})
	require.NoError(t, err)

	assert.True(t, resp.Persisted)
	assert.Equal(t, "cashflow", resp.State["ui_tab"])
	store.AssertExpectations(t)
}

func TestService_UpdateStateSaveFailureIsNotAnError(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	store.On("Load", mock.Anything).Return(nil, snapshot.ErrSnapshotNotFound)
	store.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	svc, _ := newTestService(t, store)

	sess := svc.CreateSession(ctx)
	resp, err := svc.UpdateState(ctx, sess.ID, map[string]any{"milho_preco_mercado": 61.0})
	require.NoError(t, err)

	assert.False(t, resp.Persisted)
	assert.Equal(t, 61.0, resp.State["milho_preco_mercado"])
}

func TestService_UnknownSession(t *testing.T) {
	svc, _ := newTestService(t, new(MockStore))

	_, err := svc.GetState(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.Report(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestService_ResetCrop(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	store.On("Load", mock.Anything).Return(snapshot.Snapshot{"milho_preco_mercado": 40.0}, nil)
	store.On("Save", mock.Anything, mock.Anything).Return(nil)
	svc, _ := newTestService(t, store)

	sess := svc.CreateSession(ctx)
	_, err := svc.ResetCrop(ctx, sess.ID, "banana")
	assert.ErrorIs(t, err, ErrUnknownCrop)

	resp, err := svc.ResetCrop(ctx, sess.ID, "milho")
	require.NoError(t, err)
	assert.True(t, resp.Persisted)
	assert.Equal(t, snapshot.CornDefaults()["milho_preco_mercado"], resp.State["milho_preco_mercado"])
}

func TestService_ReportFromDefaults(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	store.On("Load", mock.Anything).Return(nil, snapshot.ErrSnapshotNotFound)
	svc, _ := newTestService(t, store)

	sess := svc.CreateSession(ctx)
	report, err := svc.Report(ctx, sess.ID)
	require.NoError(t, err)

	require.Len(t, report.Positions, 2)
	assert.Equal(t, "soja", report.Positions[0].Crop)
	assert.Equal(t, "milho", report.Positions[1].Crop)

	want := calculation.ComputePosition(soyInputs())
	assert.InDelta(t, want.Costs.NetProfit, report.Positions[0].Result.Costs.NetProfit, 1e-6)
	assert.Len(t, report.Positions[0].CashFlow.Months, cashflow.Months)
	assert.Len(t, report.Consolidated.Positions, 2)
	assert.NotEmpty(t, report.Calendar)

	p := report.Portfolio("Safra")
	assert.Equal(t, "Safra", p.Title)
	assert.Len(t, p.Positions, 2)
	assert.Len(t, p.CashFlows, 2)
}

func TestService_RecalculateDropsUnsavedEdits(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	store.On("Load", mock.Anything).Return(snapshot.Snapshot{"soja_preco_mercado": 100.0}, nil)
	svc, cache := newTestService(t, store)

	created := svc.CreateSession(ctx)
	sess, ok := cache.Get(created.ID)
	require.True(t, ok)
	sess.Set("soja_preco_mercado", 140.0)

	report, err := svc.Recalculate(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, 100.0, report.Positions[0].Result.Inputs.MarketPrice)
	store.AssertNumberOfCalls(t, "Load", 2)
}

func TestService_CashFlowSchedule(t *testing.T) {
	svc, _ := newTestService(t, new(MockStore))
	in := soyInputs()

	byDefault := svc.CashFlow(CashFlowRequest{Inputs: in})
	explicit := svc.CashFlow(CashFlowRequest{Inputs: in, Schedule: &cashflow.ScheduleInputs{SpotLagMonths: 2}})
	sameMonth := svc.CashFlow(CashFlowRequest{Inputs: in, Schedule: &cashflow.ScheduleInputs{}})

	assert.Equal(t, explicit.CashFlow, byDefault.CashFlow)
	assert.Len(t, sameMonth.CashFlow.Months, cashflow.Months)
}

func TestService_SimulationDefaults(t *testing.T) {
	svc, _ := newTestService(t, new(MockStore))
	in := soyInputs()

	points := svc.Sensitivity(SensitivityRequest{Inputs: in})
	require.Len(t, points, calculation.DefaultSensitivityPoints)
	assert.InDelta(t, in.MarketPrice*calculation.DefaultSensitivityLow, points[0].Price, 1e-9)
	assert.InDelta(t, in.MarketPrice*calculation.DefaultSensitivityHigh, points[len(points)-1].Price, 1e-9)

	hm := svc.Heatmap(HeatmapRequest{Inputs: in})
	assert.Len(t, hm.Yields, 8)
	assert.Len(t, hm.Prices, 9)
	require.Len(t, hm.Cells, 8)
	assert.Len(t, hm.Cells[0], 9)

	carry := svc.Carry(CarryRequest{Spot: 100, FuturePrice: 110, Months: 3, CurrentMonth: 13})
	assert.Len(t, carry.Seasonal, 12)
	assert.True(t, carry.Decision.Hold)

	quote := svc.Barter(BarterRequest{PurchaseValue: 10500, Price: 105})
	assert.InDelta(t, 100.0, quote.Sacks, 1e-9)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.SpotLagMonths = 1
	cfg.Engine.MaintenanceMonths = 3
	cfg.Engine.HighSpotExposurePct = 70

	opts := OptionsFromConfig(cfg)

	assert.Equal(t, 1, opts.Schedule.SpotLagMonths)
	assert.Equal(t, 3, opts.Schedule.MaintenanceMonths)
	assert.Equal(t, 70.0, opts.Thresholds.HighSpotExposurePct)
	assert.Equal(t, []string{"soja_", "milho_"}, opts.Prefixes)
}
