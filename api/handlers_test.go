package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predial/budget-engine/api"
	"github.com/predial/budget-engine/store/sqlite"
	"github.com/predial/budget-engine/upstream/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	demo := memory.New()
	api.LoadDefaultScenario(demo)

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := api.NewHandler(demo, store, demo, nil)
	srv := httptest.NewServer(api.NewRouter(h, []string{"*"}))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, out any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func generateProjection(t *testing.T, srv *httptest.Server) api.ProjectionDTO {
	t.Helper()
	var dto api.ProjectionDTO
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/projections", api.GenerateProjectionRequest{
		PropertyID:   "aurora",
		ClosingMonth: "2025-06",
	}, &dto)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return dto
}

// =============================================================================
// CATALOG
// =============================================================================

func TestListProperties(t *testing.T) {
	srv := newTestServer(t)

	var properties []api.PropertyDTO
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/properties", nil, &properties)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, properties, 1)
	assert.Equal(t, "Edifício Aurora", properties[0].Name)
}

func TestListUnits(t *testing.T) {
	srv := newTestServer(t)

	var units []api.UnitDTO
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/properties/aurora/units", nil, &units)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, units, 4)
	assert.InDelta(t, 0.30, units[0].OwnershipFraction, 1e-9)
}

// =============================================================================
// PROJECTION FLOW
// =============================================================================

func TestGenerateProjection(t *testing.T) {
	srv := newTestServer(t)
	dto := generateProjection(t, srv)

	assert.NotEmpty(t, dto.ID)
	assert.Equal(t, "2025-06", dto.ClosingMonth)
	require.Len(t, dto.Periods, 12)
	assert.Equal(t, "Jul/2024", dto.Periods[0].Label)
	assert.Equal(t, "Jun/2025", dto.Periods[11].Label)

	// Every discovered parent defaults to a 0% index.
	for code, pct := range dto.Indices {
		assert.Equal(t, "0", pct, "index for %s", code)
	}

	// The extraordinary works account shows up but stays out of the
	// grand total: 12 x (5200 + 480 + 850 + 320 + 210.50).
	assert.InDelta(t, 84726.0, dto.GrandTotal["Total (Ref.)"], 1e-6)
	var sawExtraordinary bool
	for _, row := range dto.Rows {
		if row.Code == "9.1" {
			sawExtraordinary = true
			assert.True(t, row.Extraordinary)
			assert.InDelta(t, 18000.0, row.Values["Total (Ref.)"], 1e-6)
		}
	}
	assert.True(t, sawExtraordinary)
}

func TestGenerateProjection_Validation(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/projections", api.GenerateProjectionRequest{
		ClosingMonth: "2025-06",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/projections", api.GenerateProjectionRequest{
		PropertyID:   "aurora",
		ClosingMonth: "junho",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSetIndexRecomputes(t *testing.T) {
	srv := newTestServer(t)
	dto := generateProjection(t, srv)
	before := dto.GrandTotal["Total (Proj.)"]

	var updated api.ProjectionDTO
	resp := doJSON(t, http.MethodPut,
		fmt.Sprintf("%s/api/projections/%s/indices/5.2", srv.URL, dto.ID),
		api.SetIndexRequest{Percent: "10"}, &updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 5.2 reference total is 12 x (850 + 320) = 14040; +10% adds 1404.
	assert.InDelta(t, before+1404.0, updated.GrandTotal["Total (Proj.)"], 1e-6)
	assert.Equal(t, "10", updated.Indices["5.2"])
}

func TestOverrideLifecycle(t *testing.T) {
	srv := newTestServer(t)
	dto := generateProjection(t, srv)
	before := dto.GrandTotal["Total (Proj.)"]

	override := api.SetOverrideRequest{
		RowKey: "5.2.3 - Jardinagem",
		Column: "Jul/2025 (Proj.)",
		Value:  1000,
	}

	var updated api.ProjectionDTO
	resp := doJSON(t, http.MethodPut,
		fmt.Sprintf("%s/api/projections/%s/overrides", srv.URL, dto.ID), override, &updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	// The cell carried 320 at 0%; pinning it to 1000 adds 680.
	assert.InDelta(t, before+680.0, updated.GrandTotal["Total (Proj.)"], 1e-6)

	resp = doJSON(t, http.MethodDelete,
		fmt.Sprintf("%s/api/projections/%s/overrides", srv.URL, dto.ID),
		api.ClearOverrideRequest{RowKey: override.RowKey, Column: override.Column}, &updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, before, updated.GrandTotal["Total (Proj.)"], 1e-6)
}

func TestGetApportionment(t *testing.T) {
	srv := newTestServer(t)
	dto := generateProjection(t, srv)

	var ap api.ApportionmentDTO
	resp := doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/projections/%s/apportionment", srv.URL, dto.ID), nil, &ap)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, ap.Rows, 4)
	assert.False(t, ap.EqualSplit)

	percentSum := 0.0
	monthlySum := 0.0
	for _, r := range ap.Rows {
		percentSum += r.PercentOfTotal
		monthlySum += r.MonthlyValue
		assert.NotEmpty(t, r.MonthlyFormatted)
	}
	assert.InDelta(t, 100.0, percentSum, 1e-6)
	assert.InDelta(t, ap.MonthlyAverage, monthlySum, 1e-6)
}

func TestApportionment_EqualSplitScenario(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/load",
		api.LoadScenarioRequest{ScenarioID: "vila-das-flores"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dto api.ProjectionDTO
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/projections", api.GenerateProjectionRequest{
		PropertyID:   "vila-flores",
		ClosingMonth: "2025-06",
	}, &dto)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var ap api.ApportionmentDTO
	resp = doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/projections/%s/apportionment", srv.URL, dto.ID), nil, &ap)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.True(t, ap.EqualSplit, "missing fractions must be disclosed")
	require.Len(t, ap.Rows, 3)
	for _, r := range ap.Rows {
		assert.InDelta(t, 100.0/3, r.PercentOfTotal, 1e-6)
	}
}

func TestProjectionNotFound(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/projections/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// SAVED SESSIONS
// =============================================================================

func TestSaveAndLoadSession(t *testing.T) {
	srv := newTestServer(t)
	dto := generateProjection(t, srv)

	var updated api.ProjectionDTO
	resp := doJSON(t, http.MethodPut,
		fmt.Sprintf("%s/api/projections/%s/indices/5.1", srv.URL, dto.ID),
		api.SetIndexRequest{Percent: "8"}, &updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	expected := updated.GrandTotal["Total (Proj.)"]

	var saved api.SavedSessionDTO
	resp = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/projections/%s/save", srv.URL, dto.ID),
		api.SaveSessionRequest{Name: "Orçamento 2026"}, &saved)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []api.SavedSessionDTO
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/sessions?property_id=aurora", nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list, 1)
	assert.Equal(t, "Orçamento 2026", list[0].Name)

	var restored api.ProjectionDTO
	resp = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/sessions/%s/load", srv.URL, saved.ID), nil, &restored)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "8", restored.Indices["5.1"])
	assert.InDelta(t, expected, restored.GrandTotal["Total (Proj.)"], 1e-6)
}

func TestDeleteSession(t *testing.T) {
	srv := newTestServer(t)
	dto := generateProjection(t, srv)

	var saved api.SavedSessionDTO
	resp := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/projections/%s/save", srv.URL, dto.ID),
		api.SaveSessionRequest{}, &saved)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/sessions/%s", srv.URL, saved.ID), nil)
	require.NoError(t, err)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp2.StatusCode)

	resp = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/sessions/%s/load", srv.URL, saved.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestListScenarios(t *testing.T) {
	srv := newTestServer(t)

	var list []api.ScenarioDTO
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/scenarios", nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, list, 2)
}

func TestLoadScenario_Unknown(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/load",
		api.LoadScenarioRequest{ScenarioID: "nope"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
