package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sheikh-saqib/session-bank-ledger/internal/session"
	"github.com/sheikh-saqib/session-bank-ledger/internal/storage/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	svc := session.NewService(memory.NewMemorySessionStore(time.Hour))
	ts := httptest.NewServer(NewServer(svc, zap.NewNop(), "PLN").Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return ts, &http.Client{Jar: jar}
}

// postJSON submits a form and decodes the JSON view.
func postJSON(t *testing.T, cli *http.Client, base string, form url.Values, wantCode int) session.View {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, base+"/", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := cli.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantCode, resp.StatusCode)

	var view session.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	return view
}

func TestHTTPFlow(t *testing.T) {
	ts, cli := newTestServer(t)

	view := postJSON(t, cli, ts.URL, url.Values{"action": {"login"}, "account_number": {"12345678"}}, http.StatusOK)
	require.NotNil(t, view.Current)
	assert.Equal(t, "Jan Kowalski", view.Current.OwnerName)

	view = postJSON(t, cli, ts.URL, url.Values{"action": {"deposit"}, "amount": {"100,50"}, "description": {"bonus"}}, http.StatusOK)
	assert.Equal(t, session.MsgDepositDone, view.Message)
	assert.True(t, decimal.RequireFromString("5100.5").Equal(view.Current.Balance))

	view = postJSON(t, cli, ts.URL, url.Values{"action": {"withdraw"}, "amount": {"999999"}}, http.StatusOK)
	assert.Equal(t, session.ErrMsgWithdraw, view.Error)

	view = postJSON(t, cli, ts.URL, url.Values{"action": {"withdraw"}, "amount": {"not a number"}}, http.StatusOK)
	assert.Equal(t, session.ErrMsgWithdraw, view.Error)

	view = postJSON(t, cli, ts.URL, url.Values{
		"action":         {"transfer"},
		"target_account": {"87654321"},
		"amount":         {"100.5"},
		"description":    {"gift"},
	}, http.StatusOK)
	assert.Equal(t, session.MsgTransferDone, view.Message)
	assert.True(t, decimal.NewFromInt(5000).Equal(view.Current.Balance))
	assert.True(t, decimal.RequireFromString("7600.5").Equal(view.Accounts[1].Balance))
	require.Len(t, view.Current.Transactions, 2)
	assert.Equal(t, "gift to 87654321", view.Current.Transactions[0].Description)

	view = postJSON(t, cli, ts.URL, url.Values{"action": {"logout"}}, http.StatusOK)
	assert.Nil(t, view.Current)

	// state survives across requests of the same session
	resp, err := cli.Get(ts.URL + "/api/session")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.True(t, decimal.RequireFromString("7600.5").Equal(view.Accounts[1].Balance))
}

func TestHTTPInvalidForm(t *testing.T) {
	ts, cli := newTestServer(t)

	view := postJSON(t, cli, ts.URL, url.Values{"action": {"steal"}}, http.StatusBadRequest)
	assert.Equal(t, errMsgInvalidForm, view.Error)

	view = postJSON(t, cli, ts.URL, url.Values{"action": {"deposit"}, "description": {strings.Repeat("x", 141)}}, http.StatusBadRequest)
	assert.Equal(t, errMsgInvalidForm, view.Error)
}

func TestHTTPRejectsExponentAmounts(t *testing.T) {
	ts, cli := newTestServer(t)
	postJSON(t, cli, ts.URL, url.Values{"action": {"login"}, "account_number": {"12345678"}}, http.StatusOK)

	for _, raw := range []string{"1e200000000", "1e9", "1e-9", "0.001"} {
		view := postJSON(t, cli, ts.URL, url.Values{"action": {"deposit"}, "amount": {raw}}, http.StatusOK)
		assert.Equal(t, session.ErrMsgDeposit, view.Error, raw)
		assert.True(t, decimal.NewFromInt(5000).Equal(view.Current.Balance), raw)
		assert.Empty(t, view.Current.Transactions, raw)
	}
}

func TestWriteJSONLogsEncodeFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := NewServer(session.NewService(memory.NewMemorySessionStore(time.Hour)), zap.New(core), "PLN")

	rec := httptest.NewRecorder()
	s.writeJSON(rec, http.StatusOK, make(chan int))

	assert.Equal(t, 1, logs.FilterMessage("encode response failed").Len())
}

func TestHTTPReset(t *testing.T) {
	ts, cli := newTestServer(t)

	postJSON(t, cli, ts.URL, url.Values{"action": {"login"}, "account_number": {"13579246"}}, http.StatusOK)
	postJSON(t, cli, ts.URL, url.Values{"action": {"withdraw"}, "amount": {"500"}}, http.StatusOK)

	view := postJSON(t, cli, ts.URL, url.Values{"action": {"reset"}}, http.StatusOK)
	assert.Nil(t, view.Current)
	assert.True(t, decimal.NewFromInt(2500).Equal(view.Accounts[2].Balance))
}

func TestHTTPRendersPage(t *testing.T) {
	ts, cli := newTestServer(t)

	resp, err := cli.Get(ts.URL + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), "Anna Nowak (87654321) 7 500,00 PLN")

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	require.Len(t, cli.Jar.Cookies(u), 1)

	form := url.Values{"action": {"login"}, "account_number": {"87654321"}}
	resp, err = cli.PostForm(ts.URL+"/", form)
	require.NoError(t, err)
	resp.Body.Close()

	form = url.Values{"action": {"deposit"}, "amount": {"1"}, "description": {"<script>"}}
	resp, err = cli.PostForm(ts.URL+"/", form)
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	page := string(body)
	assert.Contains(t, page, session.MsgDepositDone)
	assert.Contains(t, page, "7 501,00 PLN")
	assert.Contains(t, page, "&lt;script&gt;")
	assert.NotContains(t, page, "<script>")
}

func TestHTTPSeparateSessions(t *testing.T) {
	ts, cli := newTestServer(t)
	postJSON(t, cli, ts.URL, url.Values{"action": {"login"}, "account_number": {"12345678"}}, http.StatusOK)
	postJSON(t, cli, ts.URL, url.Values{"action": {"withdraw"}, "amount": {"5000"}}, http.StatusOK)

	other := &http.Client{} // no cookie jar, fresh session every call
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/session", nil)
	require.NoError(t, err)
	resp, err := other.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var view session.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.True(t, decimal.NewFromInt(5000).Equal(view.Accounts[0].Balance))
}

func TestHealth(t *testing.T) {
	ts, cli := newTestServer(t)

	resp, err := cli.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}
