package positions

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"agroexposure/risk-portal/risk-portal-backend/internal/financing/calculation"
	"agroexposure/risk-portal/risk-portal-backend/internal/snapshot"
)

func setupRouter(t *testing.T) (*gin.Engine, *snapshot.FileStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := snapshot.NewFileStore(filepath.Join(t.TempDir(), "agro_state.json"))
	cache := snapshot.NewSessionCache(time.Hour)
	t.Cleanup(cache.Stop)

	svc := NewService(store, cache, DefaultOptions(), zap.NewNop())
	router := gin.New()
	NewHandler(svc, zap.NewNop()).RegisterRoutes(router.Group("/api/v1"))
	return router, store
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_Compute(t *testing.T) {
	router, _ := setupRouter(t)
	in := soyInputs()

	w := doJSON(t, router, http.MethodPost, "/api/v1/positions/compute", in)
	require.Equal(t, http.StatusOK, w.Code)

	var got calculation.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	want := calculation.ComputePosition(in)
	assert.InDelta(t, want.Costs.NetProfit, got.Costs.NetProfit, 1e-6)
	assert.InDelta(t, want.Breakeven.PriceOnOpenBalance, got.Breakeven.PriceOnOpenBalance, 1e-6)
}

func TestHandler_ComputeAcceptsPlainDates(t *testing.T) {
	router, _ := setupRouter(t)

	body := `{
		"crop": "milho", "owned_area": 1000, "leased_area": 500, "base_yield": 105,
		"op_cost_per_ha": 5400, "inputs_pct": 60, "harvest_pct": 20,
		"hedged_pct": 25, "hedge_price": 60, "market_price": 55,
		"financing": {"financed_pct": 30, "annual_rate_pct": 12,
			"disbursement_date": "2026-01-30", "payment_date": "2026-08-30"},
		"installments": {"down_payment_pct": 50, "installment2_pct": 25,
			"installment2_date": "2026-07-30", "installment3_pct": 25,
			"installment3_date": "2026-08-30T00:00:00Z"},
		"planting_month": 2, "harvest_month": 7
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/positions/compute", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got calculation.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 212, got.Financing.Days)
	assert.InDelta(t, 2430000.0, got.Financing.Principal, 1e-6)

	w = doJSON(t, router, http.MethodPost, "/api/v1/positions/cashflow", map[string]any{
		"inputs":   json.RawMessage(body),
		"schedule": map[string]any{"spot_lag_months": 2, "window_start": "2025-12-15"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cf CashFlowResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cf))
	assert.Equal(t, "Dec/25", cf.CashFlow.Months[0].Label)
}

func TestHandler_ComputeRejectsBadDate(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/positions/compute",
		strings.NewReader(`{"financing": {"disbursement_date": "30/01/2026"}}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "disbursement_date")
}

func TestHandler_ComputeRejectsMalformedBody(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/positions/compute", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestHandler_Consolidate(t *testing.T) {
	router, _ := setupRouter(t)
	body := ConsolidateRequest{First: soyInputs(), Second: snapshot.InputsFromState(nil, snapshot.Corn)}

	w := doJSON(t, router, http.MethodPost, "/api/v1/positions/consolidate", body)
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		PhysicalArea float64 `json:"physical_area"`
		Positions    []any   `json:"positions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got.Positions, 2)
	assert.Greater(t, got.PhysicalArea, 0.0)
}

func TestHandler_NewSaleValidatesPct(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/positions/simulate/new-sale",
		NewSaleRequest{Inputs: soyInputs(), Pct: 150, Price: 110})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/positions/simulate/new-sale",
		NewSaleRequest{Inputs: soyInputs(), Pct: 10, Price: 110})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_SimulationSizeLimits(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/positions/simulate/sensitivity",
		SensitivityRequest{Inputs: soyInputs(), Points: 2_000_000_000})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/positions/simulate/sensitivity",
		SensitivityRequest{Inputs: soyInputs(), Points: 200})
	assert.Equal(t, http.StatusOK, w.Code)

	long := calculation.Linspace(10, 200, 51)
	w = doJSON(t, router, http.MethodPost, "/api/v1/positions/simulate/heatmap",
		HeatmapRequest{Inputs: soyInputs(), Yields: long, Prices: []float64{100}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/positions/simulate/heatmap",
		HeatmapRequest{Inputs: soyInputs(), Yields: []float64{60}, Prices: long})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/positions/cashflow", map[string]any{
		"inputs":   soyInputs(),
		"schedule": map[string]any{"maintenance_months": 2_000_000_000},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Barter(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/positions/simulate/barter",
		BarterRequest{PurchaseValue: 21000, Price: 105})
	require.Equal(t, http.StatusOK, w.Code)

	var got calculation.BarterQuote
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.InDelta(t, 200.0, got.Sacks, 1e-9)
}

func TestHandler_SessionFlow(t *testing.T) {
	router, store := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	base := "/api/v1/sessions/" + created.ID.String()

	w = doJSON(t, router, http.MethodPut, base+"/state", map[string]any{
		"milho_preco_mercado":  60.0,
		"milho_data_pagamento": "2026-09-15",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"persisted":true`)
	assert.Contains(t, w.Body.String(), `"milho_data_pagamento":"2026-09-15"`)

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 60.0, saved["milho_preco_mercado"])

	w = doJSON(t, router, http.MethodGet, base+"/report", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report SessionReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.Len(t, report.Positions, 2)
	assert.Equal(t, 60.0, report.Positions[1].Result.Inputs.MarketPrice)

	w = doJSON(t, router, http.MethodPost, base+"/reset/milho", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, base+"/recalculate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, snapshot.CornDefaults()["milho_preco_mercado"], report.Positions[1].Result.Inputs.MarketPrice)
}

func TestHandler_Export(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/sessions", nil)
	var created SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	base := "/api/v1/sessions/" + created.ID.String()

	w = doJSON(t, router, http.MethodGet, base+"/export?format=xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, w.Body.Len())

	w = doJSON(t, router, http.MethodGet, base+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Consolidated summary")

	w = doJSON(t, router, http.MethodGet, base+"/export?format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_SessionErrors(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/sessions/not-a-uuid/state", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/sessions/"+uuid.NewString()+"/report", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/sessions", nil)
	var created SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+created.ID.String()+"/reset/banana", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
