package budgetapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetui/internal/core"
)

type recordedCall struct {
	endpoint string
	outcome  string
}

type fakeObserver struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeObserver) ObserveAPICall(endpoint, outcome string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{endpoint, outcome})
}

type MockRoundTripper func(req *http.Request) (*http.Response, error)

func (m MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m(req)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeObserver) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	obs := &fakeObserver{}
	c, err := NewClient(srv.URL+"/", WithHTTPClient(srv.Client()), WithObserver(obs))
	require.NoError(t, err)
	return c, obs
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	_, err := NewClient("ftp://example.com")
	assert.Error(t, err)

	_, err = NewClient("://nope")
	assert.Error(t, err)
}

func TestClient_SaveBudget(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody map[string]string

	c, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, `{"ok":true}`)
	})

	res, err := c.SaveBudget(context.Background(), "2024-03", core.Limits{"Food": "200", "Rent": "0"})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "/api/budgets/2024-03", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, map[string]string{"Food": "200", "Rent": "0"}, gotBody)
	assert.Equal(t, []recordedCall{{EndpointSaveBudget, OutcomeOK}}, obs.calls)
}

func TestClient_SaveBudgetNilLimitsSendsEmptyObject(t *testing.T) {
	var raw []byte
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, `{"ok":true}`)
	})

	_, err := c.SaveBudget(context.Background(), "2024-03", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
}

func TestClient_WriteApplicationErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "400 with message", status: http.StatusBadRequest, body: `{"error":"Limit for Food must be >= 0"}`, wantMsg: "Limit for Food must be >= 0"},
		{name: "400 without message", status: http.StatusBadRequest, body: `{}`, wantMsg: "Error"},
		{name: "200 with ok false", status: http.StatusOK, body: `{"ok":false}`, wantMsg: "Error"},
		{name: "200 with error only", status: http.StatusOK, body: `{"error":"nope"}`, wantMsg: "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			res, err := c.AddTransaction(context.Background(), core.NewTransaction{Date: "15-03-2024"})
			require.NoError(t, err)
			assert.False(t, res.OK)
			assert.Equal(t, tt.wantMsg, res.Message())
			assert.Equal(t, OutcomeRejected, obs.calls[0].outcome)
		})
	}
}

func TestClient_AddTransactionBody(t *testing.T) {
	var got map[string]string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/transactions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"ok":true,"transaction":{"date":"2024-03-15"}}`)
	})

	res, err := c.AddTransaction(context.Background(), core.NewTransaction{
		Date: "15-03-2024", Amount: "12.50", Type: "expense", Category: "Food", Description: "",
	})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, map[string]string{
		"date": "15-03-2024", "amount": "12.50", "type": "expense", "category": "Food", "description": "",
	}, got)
}

func TestClient_GetBudget(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/budgets/2024-03", r.URL.Path)
		_, _ = io.WriteString(w, `{"month":"2024-03","limits":{"Food":200.0,"Fun":"12.5"}}`)
	})

	limits, err := c.GetBudget(context.Background(), "2024-03")
	require.NoError(t, err)
	assert.Equal(t, core.Limits{"Food": "200", "Fun": "12.5"}, limits)
}

func TestClient_GetBudgetEmpty(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"month":"2024-03","limits":{}}`)
	})

	limits, err := c.GetBudget(context.Background(), "2024-03")
	require.NoError(t, err)
	assert.Empty(t, limits)
}

func TestClient_GetBudgetWithoutLimitsKey(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"month":"2024-03"}`)
	})

	limits, err := c.GetBudget(context.Background(), "2024-03")
	require.NoError(t, err)
	assert.Empty(t, limits)
}

func TestClient_ListTransactionsQuery(t *testing.T) {
	tests := []struct {
		name      string
		filter    core.TransactionFilter
		wantQuery string
	}{
		{name: "no filters", filter: core.TransactionFilter{}, wantQuery: ""},
		{name: "month only", filter: core.TransactionFilter{Month: "2024-03"}, wantQuery: "month=2024-03"},
		{name: "both", filter: core.TransactionFilter{Month: "2024-03", Category: "Food & Drink"}, wantQuery: "category=Food+%26+Drink&month=2024-03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery string
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.RawQuery
				_, _ = io.WriteString(w, `{"transactions":[
					{"date":"01-03-2024","amount":-12.5,"type":"expense","category":"Food","description":"lunch"},
					{"date":"02-03-2024","amount":1500,"type":"income","category":"Salary"}]}`)
			})

			txs, err := c.ListTransactions(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantQuery, gotQuery)
			require.Len(t, txs, 2)
			assert.Equal(t, "-12.50", core.FormatAmount(txs[0].Amount))
			assert.Equal(t, "lunch", txs[0].Description)
			assert.Empty(t, txs[1].Description)
		})
	}
}

func TestClient_GetReport(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reports/2024-03", r.URL.Path)
		_, _ = io.WriteString(w, `{"month":"2024-03","income":100,"expenses":40,"net":60,"burn_rate":1.29,
			"forecast_expenses":40,"breakdown":[{"category":"Food","limit":0,"actual":40,"remaining":null}]}`)
	})

	report, err := c.GetReport(context.Background(), "2024-03")
	require.NoError(t, err)
	assert.Equal(t, "2024-03", report.Month)
	assert.Equal(t, "60", report.Net.String())
	require.Len(t, report.Breakdown, 1)
	assert.False(t, report.Breakdown[0].Remaining.Valid)
}

func TestClient_ReadStatusError(t *testing.T) {
	c, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"month must be YYYY-MM"}`)
	})

	_, err := c.GetReport(context.Background(), "bogus")
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusBadRequest, serr.StatusCode)
	assert.Equal(t, "month must be YYYY-MM", serr.Message)
	assert.False(t, errors.Is(err, ErrTransport))
	assert.Equal(t, OutcomeRejected, obs.calls[0].outcome)
}

func TestClient_DecodeFailureIsTransport(t *testing.T) {
	c, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})

	_, err := c.SaveBudget(context.Background(), "2024-03", core.Limits{})
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, OutcomeDecode, obs.calls[0].outcome)
}

func TestClient_TransportFailure(t *testing.T) {
	obs := &fakeObserver{}
	hc := &http.Client{Transport: MockRoundTripper(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})}
	c, err := NewClient("http://budget.invalid", WithHTTPClient(hc), WithObserver(obs))
	require.NoError(t, err)

	_, err = c.ListTransactions(context.Background(), core.TransactionFilter{})
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, []recordedCall{{EndpointListTransactions, OutcomeTransport}}, obs.calls)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	tests := []struct {
		name  string
		order func(hc *http.Client) []Option
	}{
		{
			name: "timeout after http client",
			order: func(hc *http.Client) []Option {
				return []Option{WithHTTPClient(hc), WithTimeout(20 * time.Millisecond)}
			},
		},
		{
			name: "timeout before http client",
			order: func(hc *http.Client) []Option {
				return []Option{WithTimeout(20 * time.Millisecond), WithHTTPClient(hc)}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shared := srv.Client()
			c, err := NewClient(srv.URL, tt.order(shared)...)
			require.NoError(t, err)

			_, err = c.GetBudget(context.Background(), "2024-03")
			assert.ErrorIs(t, err, ErrTransport)
			assert.Zero(t, shared.Timeout, "caller's client must not be modified")
		})
	}
}

func TestNewClient_RejectsNilHTTPClient(t *testing.T) {
	_, err := NewClient("http://localhost:8000", WithHTTPClient(nil))
	assert.Error(t, err)
}

func TestClient_MonthIsPathEscaped(t *testing.T) {
	var gotRawPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotRawPath = r.URL.EscapedPath()
		_, _ = io.WriteString(w, `{"limits":{}}`)
	})

	_, err := c.GetBudget(context.Background(), "2024/03")
	require.NoError(t, err)
	assert.Equal(t, "/api/budgets/2024%2F03", gotRawPath)
}
