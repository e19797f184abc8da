package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/climate-advisory/internal/advisor"
	"github.com/i474232898/climate-advisory/internal/report"
	"github.com/i474232898/climate-advisory/internal/store"
	"github.com/i474232898/climate-advisory/internal/weather"
)

type stubFetcher struct {
	tables map[string]*weather.Table
	err    error
}

func (f *stubFetcher) Fetch(_ context.Context, region string, _ weather.Period) (*weather.Table, error) {
	if f.err != nil {
		return nil, f.err
	}
	r, err := weather.LookupRegion(region)
	if err != nil {
		return nil, err
	}
	t, ok := f.tables[r.Name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", r.Name, weather.ErrNoPrecipitation)
	}
	return t, nil
}

func (f *stubFetcher) FetchAll(_ context.Context, _ weather.Period) (map[string]*weather.Table, error) {
	return f.tables, f.err
}

type stubArchive struct {
	saved []*report.Report
}

func (a *stubArchive) Save(_ context.Context, _ string, r *report.Report) (string, error) {
	a.saved = append(a.saved, r)
	return fmt.Sprintf("r-%d", len(a.saved)), nil
}

func (a *stubArchive) List(_ context.Context, region string, limit int) ([]store.ArchivedReport, error) {
	var out []store.ArchivedReport
	for i, r := range a.saved {
		if region != "" && r.Region != region {
			continue
		}
		out = append(out, store.ArchivedReport{ID: fmt.Sprintf("r-%d", i+1), Region: r.Region, Report: r})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func monthly(region string, start, step float64) *weather.Table {
	t := &weather.Table{Region: region}
	for i := 0; i < 24; i++ {
		t.Rows = append(t.Rows, weather.Row{
			Date:     time.Date(2022, time.January, 15, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0),
			PrecipMM: start + step*float64(i),
		})
	}
	return t
}

func newTestApp(t *testing.T, f *stubFetcher, archive *stubArchive) *fiber.App {
	t.Helper()
	app, _ := newTestAppWithStore(t, f, archive)
	return app
}

func newTestAppWithStore(t *testing.T, f *stubFetcher, archive *stubArchive) (*fiber.App, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore(0, 0)
	opts := advisor.Options{
		Now: func() time.Time { return time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC) },
	}
	var lister ReportLister
	if archive != nil {
		opts.Archive = archive
		lister = archive
	}
	adv := advisor.New(f, st, zerolog.Nop(), opts)
	app := NewApp("climate-advisory-test", zerolog.Nop())
	RegisterRoutes(app, adv, lister)
	return app, st
}

func defaultStub() *stubFetcher {
	return &stubFetcher{tables: map[string]*weather.Table{
		"Salta":    monthly("Salta", 120, -2),
		"Misiones": monthly("Misiones", 150, 1),
	}}
}

func doJSON(t *testing.T, app *fiber.App, req *http.Request, wantStatus int) map[string]any {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, wantStatus, resp.StatusCode, string(body))

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, defaultStub(), nil)
	out := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/health", nil), http.StatusOK)
	assert.Equal(t, "ok", out["status"])
}

func TestRegionsListsCatalogue(t *testing.T) {
	app := newTestApp(t, defaultStub(), nil)
	out := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/regions", nil), http.StatusOK)

	regions, ok := out["regions"].([]any)
	require.True(t, ok)
	assert.Len(t, regions, len(weather.Regions()))
}

func TestAnalysisValidation(t *testing.T) {
	app := newTestApp(t, defaultStub(), nil)

	cases := map[string]string{
		"missing region": "/api/v1/analysis",
		"bad start":      "/api/v1/analysis?region=Salta&start=2020-13-01",
		"unknown region": "/api/v1/analysis?region=Atlantis",
		"reversed":       "/api/v1/analysis?region=Salta&start=2023-05&end=2022-01",
		"future end":     "/api/v1/analysis?region=Salta&start=2023-05&end=2030-01",
	}
	for name, url := range cases {
		t.Run(name, func(t *testing.T) {
			out := doJSON(t, app, httptest.NewRequest(http.MethodGet, url, nil), http.StatusBadRequest)
			assert.Equal(t, true, out["error"])
		})
	}
}

func TestAnalysisReturnsReportAndSession(t *testing.T) {
	archive := &stubArchive{}
	app := newTestApp(t, defaultStub(), archive)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis?region=salta&start=2022-01&end=2023-12", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sessionID := resp.Header.Get(SessionHeader)
	assert.NotEmpty(t, sessionID)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "Salta", out["region"])
	assert.Equal(t, sessionID, out["sessionId"])
	assert.Equal(t, "r-1", out["archiveId"])
	assert.Contains(t, out["text"], "REPORTE CLIMÁTICO DETALLADO: SALTA")
	require.Len(t, archive.saved, 1)
}

func TestAnalysisKeepsCallerSession(t *testing.T) {
	app, st := newTestAppWithStore(t, defaultStub(), nil)

	sessions := []string{"session-aaaa", "session-bbbb", "session-cccc"}
	for _, id := range sessions {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis?region=Salta", nil)
		req.Header.Set(SessionHeader, id)
		out := doJSON(t, app, req, http.StatusOK)
		assert.Equal(t, id, out["sessionId"])
	}

	// Every header session keeps its own report after later requests.
	for _, id := range sessions {
		r, err := st.LatestReport(id)
		require.NoError(t, err, id)
		assert.Equal(t, "Salta", r.Region)
	}
	assert.Equal(t, len(sessions), st.SessionCount())
}

func TestAnalysisMapsProviderFailures(t *testing.T) {
	fetchErr := &weather.FetchError{Region: "Salta", Variable: weather.VarPrecipitation, Err: io.ErrUnexpectedEOF}
	app := newTestApp(t, &stubFetcher{err: fmt.Errorf("Salta: %w: %w", weather.ErrNoPrecipitation, fetchErr)}, nil)
	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/analysis?region=Salta", nil), http.StatusBadGateway)

	app = newTestApp(t, &stubFetcher{tables: map[string]*weather.Table{}}, nil)
	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/analysis?region=Salta", nil), http.StatusUnprocessableEntity)
}

func TestSeriesIncludesForecast(t *testing.T) {
	app := newTestApp(t, defaultStub(), nil)
	out := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/series?region=Misiones", nil), http.StatusOK)

	history, ok := out["history"].([]any)
	require.True(t, ok)
	assert.Len(t, history, 24)
	rows, ok := out["forecast"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, rows)
}

func TestCompare(t *testing.T) {
	app := newTestApp(t, defaultStub(), nil)

	out := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/compare", nil), http.StatusOK)
	assert.Equal(t, "Misiones", out["region"])

	out = doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/compare?year=2023", nil), http.StatusOK)
	assert.Equal(t, "Misiones", out["region"])
	assert.InDelta(t, 2010.0, out["totalMm"], 1e-9)

	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/compare?year=1900", nil), http.StatusBadRequest)

	empty := newTestApp(t, &stubFetcher{tables: map[string]*weather.Table{}}, nil)
	doJSON(t, empty, httptest.NewRequest(http.MethodGet, "/api/v1/compare", nil), http.StatusNotFound)
}

func TestChatUsesSessionReport(t *testing.T) {
	app := newTestApp(t, defaultStub(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis?region=Salta", nil)
	req.Header.Set(SessionHeader, "s1")
	doJSON(t, app, req, http.StatusOK)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message":"¿Qué lluvia puedo esperar en Salta?","sessionId":"s1"}`))
	req.Header.Set("Content-Type", "application/json")
	out := doJSON(t, app, req, http.StatusOK)

	assert.Equal(t, advisor.SourceReport, out["source"])
	assert.Equal(t, "s1", out["sessionId"])
	assert.Contains(t, out["reply"], "Promedio esperado")
}

func TestChatValidation(t *testing.T) {
	app := newTestApp(t, defaultStub(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message":"   "}`))
	req.Header.Set("Content-Type", "application/json")
	doJSON(t, app, req, http.StatusBadRequest)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{`))
	req.Header.Set("Content-Type", "application/json")
	doJSON(t, app, req, http.StatusBadRequest)
}

func TestReportsArchive(t *testing.T) {
	doJSON(t, newTestApp(t, defaultStub(), nil),
		httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil), http.StatusNotFound)

	archive := &stubArchive{}
	app := newTestApp(t, defaultStub(), archive)
	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/analysis?region=Salta", nil), http.StatusOK)
	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/analysis?region=Misiones", nil), http.StatusOK)

	out := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/reports?region=misiones", nil), http.StatusOK)
	reports, ok := out["reports"].([]any)
	require.True(t, ok)
	assert.Len(t, reports, 1)

	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/reports?limit=9999", nil), http.StatusBadRequest)
}
