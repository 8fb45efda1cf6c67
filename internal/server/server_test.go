package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/engine"
	"github.com/cleared-dev/tally/internal/importer"
	"github.com/cleared-dev/tally/internal/journal"
	"github.com/cleared-dev/tally/internal/model"
)

type staticSource struct {
	snap model.Snapshot
	err  error
}

func (s staticSource) Load(context.Context) (model.Snapshot, error) {
	return s.snap, s.err
}

func newEngine() *engine.Engine {
	return engine.New(engine.Options{
		Journal: journal.Options{
			CashAccount:       accounts.DefaultBankAccount,
			ReceivableAccount: accounts.DefaultReceivableAccount,
			PayableAccount:    accounts.DefaultPayableAccount,
		},
		CashAccounts: []string{accounts.DefaultCashAccount, accounts.DefaultBankAccount},
	}, nil)
}

func newServer(src importer.Source, cfg config.ServerConfig) http.Handler {
	return New(src, newEngine(), cfg, nil).Routes()
}

func sampleServer() http.Handler {
	return newServer(importer.NewDirSource("../../testdata/sample", nil), config.ServerConfig{})
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetail {
	t.Helper()
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var p ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func TestHealthz(t *testing.T) {
	rec := get(t, sampleServer(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestReportBalanceSheet(t *testing.T) {
	rec := get(t, sampleServer(), "/reports/balance-sheet")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rep struct {
		Kind         string `json:"kind"`
		BalanceSheet struct {
			BalanceCheck bool `json:"balance_check"`
			Assets       struct {
				Total string `json:"total"`
			} `json:"assets"`
		} `json:"balance_sheet"`
		Diagnostics []struct {
			Kind  string `json:"kind"`
			Field string `json:"field"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, "balance-sheet", rep.Kind)
	assert.True(t, rep.BalanceSheet.BalanceCheck)
	assert.Equal(t, "6570", rep.BalanceSheet.Assets.Total)
	require.Len(t, rep.Diagnostics, 1)
	assert.Equal(t, "MalformedSourceRecord", rep.Diagnostics[0].Kind)
	assert.Equal(t, "date", rep.Diagnostics[0].Field)
}

func TestReportDebtors(t *testing.T) {
	rec := get(t, sampleServer(), "/reports/debtors?end_date=2025-01-31")
	require.Equal(t, http.StatusOK, rec.Code)

	var rep struct {
		Parties []struct {
			Counterparty string `json:"counterparty"`
			Outstanding  string `json:"outstanding"`
			Overpayment  string `json:"overpayment"`
		} `json:"parties"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	require.Len(t, rep.Parties, 3)
	assert.Equal(t, "Acme Corp", rep.Parties[0].Counterparty)
	assert.Equal(t, "500", rep.Parties[0].Outstanding)
	assert.Equal(t, "Walk-in", rep.Parties[2].Counterparty)
	assert.Equal(t, "120", rep.Parties[2].Overpayment)
}

func TestReportParentFilter(t *testing.T) {
	rec := get(t, sampleServer(), "/reports/trial-balance?parent_account=Operating+Expenses")
	require.Equal(t, http.StatusOK, rec.Code)

	var rep struct {
		ParentAccount string `json:"parent_account"`
		TrialBalance  struct {
			Rows []struct {
				Account string `json:"account"`
			} `json:"rows"`
		} `json:"trial_balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, "Operating Expenses", rep.ParentAccount)
	require.Len(t, rep.TrialBalance.Rows, 2)
	assert.Equal(t, "Rent", rep.TrialBalance.Rows[0].Account)
}

func TestReportBadRequests(t *testing.T) {
	cases := []struct {
		name   string
		target string
		title  string
	}{
		{"unknown kind", "/reports/ledger", "Unknown Report"},
		{"bad date", "/reports/trial-balance?start_date=01/02/2025", "Invalid Request"},
		{"bad as_of", "/reports/debtor-aging?as_of=soon", "Invalid Request"},
		{"unknown parent", "/reports/trial-balance?parent_account=Nope", "Invalid Request"},
		{"inverted period", "/reports/income-statement?start_date=2025-02-01&end_date=2025-01-01", "Invalid Request"},
	}
	h := sampleServer()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(t, h, tc.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			p := decodeProblem(t, rec)
			assert.Equal(t, tc.title, p.Title)
			assert.Equal(t, http.StatusBadRequest, p.Status)
			assert.NotEmpty(t, p.Detail)
		})
	}
}

func TestReportInvalidCatalog(t *testing.T) {
	snap := model.Snapshot{Accounts: []model.Account{{Type: "Asset"}}}
	h := newServer(staticSource{snap: snap}, config.ServerConfig{})

	rec := get(t, h, "/reports/balance-sheet")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	p := decodeProblem(t, rec)
	assert.Contains(t, p.Detail, "missing parent account")
}

func TestReportLoadFailure(t *testing.T) {
	h := newServer(staticSource{err: errors.New("disk on fire")}, config.ServerConfig{})

	rec := get(t, h, "/reports/balance-sheet")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	p := decodeProblem(t, rec)
	assert.Equal(t, "Internal Error", p.Title)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestAllReports(t *testing.T) {
	rec := get(t, sampleServer(), "/reports?start_date=2025-01-01&end_date=2025-01-31")
	require.Equal(t, http.StatusOK, rec.Code)

	var reps []struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reps))
	require.Len(t, reps, len(engine.Kinds))
	for i, k := range engine.Kinds {
		assert.Equal(t, string(k), reps[i].Kind)
	}
}

func TestDiagnosticsCSV(t *testing.T) {
	rec := get(t, sampleServer(), "/diagnostics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "kind,source,reference,row,field,message", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "MalformedSourceRecord,cash-receipt,R-3,3,date,"), lines[1])
}

func TestRateLimit(t *testing.T) {
	h := newServer(importer.NewDirSource("../../testdata/sample", nil), config.ServerConfig{RateLimit: 1})

	first := get(t, h, "/reports/debtors")
	assert.Equal(t, http.StatusOK, first.Code)

	second := get(t, h, "/reports/debtors")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "Too Many Requests", decodeProblem(t, second).Title)

	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code, "health checks are not limited")
}

func TestMetrics(t *testing.T) {
	h := sampleServer()
	get(t, h, "/reports/balance-sheet")
	get(t, h, "/reports/trial-balance?parent_account=Nope")

	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `tally_reports_total{kind="balance-sheet",outcome="ok"} 1`)
	assert.Contains(t, body, `tally_reports_total{kind="trial-balance",outcome="error"} 1`)
	assert.Contains(t, body, `tally_report_diagnostics_total{kind="MalformedSourceRecord"} 1`)
	assert.Contains(t, body, `tally_http_requests_total{code="200",route="/reports/{kind}"} 1`)
}

func TestMetricsCountBatchAndDiagnosticsFailures(t *testing.T) {
	bad := newServer(staticSource{snap: model.Snapshot{Accounts: []model.Account{{Type: "Asset"}}}}, config.ServerConfig{})
	assert.Equal(t, http.StatusUnprocessableEntity, get(t, bad, "/reports").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, get(t, bad, "/diagnostics").Code)

	body := get(t, bad, "/metrics").Body.String()
	assert.Contains(t, body, `tally_reports_total{kind="all",outcome="error"} 1`)
	assert.Contains(t, body, `tally_reports_total{kind="trial-balance",outcome="error"} 1`)

	down := newServer(staticSource{err: errors.New("disk on fire")}, config.ServerConfig{})
	assert.Equal(t, http.StatusInternalServerError, get(t, down, "/reports").Code)
	assert.Equal(t, http.StatusInternalServerError, get(t, down, "/reports/debtors").Code)

	body = get(t, down, "/metrics").Body.String()
	assert.Contains(t, body, `tally_reports_total{kind="all",outcome="error"} 1`)
	assert.Contains(t, body, `tally_reports_total{kind="debtors",outcome="error"} 1`)
}

func TestListenAndServeShutsDown(t *testing.T) {
	srv := New(staticSource{}, newEngine(), config.ServerConfig{Addr: "127.0.0.1:0"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestParseRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/reports/x?start_date=2025-01-01&end_date=2025-03-31&as_of=2025-04-15&parent_account=Payables", nil)
	req, err := parseRequest(r)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), req.Start)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), req.End)
	assert.Equal(t, time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC), req.AsOf)
	assert.Equal(t, "Payables", req.ParentAccount)
}
