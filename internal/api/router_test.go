package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/transaction-enricher/internal/config"
	"github.com/dvloznov/transaction-enricher/internal/enrich"
	"github.com/dvloznov/transaction-enricher/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	text string
	err  error
}

func (s stubGenerator) Generate(context.Context, string, string) (string, error) {
	return s.text, s.err
}

func (s stubGenerator) Name() string {
	return "stub/test"
}

func newTestServer(t *testing.T, gen stubGenerator) *httptest.Server {
	t.Helper()
	log := logger.NewWithWriter(io.Discard)
	gw := enrich.NewGateway(config.Config{ProviderTimeout: time.Second}, gen, log)
	srv := httptest.NewServer(NewRouter(gw, gen, time.Second, log))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, contentType, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/api/categorize_transactions", strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHello(t *testing.T) {
	srv := newTestServer(t, stubGenerator{})

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hello, World!", string(body))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestCategorizeTransactions_Success(t *testing.T) {
	reply := "```json\n" + `{"results":[{"description":"Saving","amount":-50,"generalCategory":"Bank Products","subCategory":"Savings","domainDescription":"Internal transfer to savings."}],"status":"Succeeded"}` + "\n```"
	srv := newTestServer(t, stubGenerator{text: reply})

	resp, body := postJSON(t, srv.URL, "application/json", `{"results":[{"description":"Saving","amount":-50}],"status":"Succeeded"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"results":[{"description":"Saving","amount":-50,"generalCategory":"Bank Products","subCategory":"Savings","domainDescription":"Internal transfer to savings."}],"status":"Succeeded"}`, string(body))
}

func TestCategorizeTransactions_FenceStripping(t *testing.T) {
	srv := newTestServer(t, stubGenerator{text: "```json\n{\"results\":[],\"status\":\"Succeeded\"}\n```"})

	resp, body := postJSON(t, srv.URL, "application/json; charset=utf-8", `{"results":[],"status":"Succeeded"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"results": [], "status": "Succeeded"}`, string(body))
}

func TestCategorizeTransactions_NotJSON(t *testing.T) {
	srv := newTestServer(t, stubGenerator{text: "{}"})

	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{name: "form content type", contentType: "application/x-www-form-urlencoded", body: "a=1"},
		{name: "no content type", contentType: "", body: `{"results":[]}`},
		{name: "json content type with invalid body", contentType: "application/json", body: `{"results": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postJSON(t, srv.URL, tt.contentType, tt.body)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.JSONEq(t, `{"error": "Request must be JSON"}`, string(body))
		})
	}
}

func TestCategorizeTransactions_VendorJSONContentType(t *testing.T) {
	srv := newTestServer(t, stubGenerator{text: `{"results":[],"status":"Succeeded"}`})

	resp, _ := postJSON(t, srv.URL, "application/vnd.api+json", `{"results":[],"status":"Succeeded"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCategorizeTransactions_ProviderFailures(t *testing.T) {
	tests := []struct {
		name    string
		gen     stubGenerator
		wantMsg string
	}{
		{name: "provider error", gen: stubGenerator{err: errors.New("gemini: generate content: 503 Service Unavailable")}, wantMsg: "503 Service Unavailable"},
		{name: "not JSON after stripping", gen: stubGenerator{text: "```json\nSorry, no.\n```"}, wantMsg: "invalid character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.gen)

			resp, body := postJSON(t, srv.URL, "application/json", `{"results":[],"status":"Succeeded"}`)

			assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
			var payload map[string]string
			require.NoError(t, json.Unmarshal(body, &payload))
			assert.Contains(t, payload["error"], tt.wantMsg)
		})
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, stubGenerator{})

	resp, err := http.Get(srv.URL + "/api/categorize_transactions")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRouter_Preflight(t *testing.T) {
	srv := newTestServer(t, stubGenerator{})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/categorize_transactions", bytes.NewReader(nil))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestProviderCheck(t *testing.T) {
	tests := []struct {
		name       string
		gen        stubGenerator
		wantStatus int
		wantBody   map[string]string
	}{
		{
			name:       "provider answers",
			gen:        stubGenerator{text: "API test successful"},
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"status": "success", "message": "API test successful", "provider": "stub/test"},
		},
		{
			name:       "provider fails",
			gen:        stubGenerator{err: errors.New("openai: 401 invalid api key")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]string{"status": "error", "message": "openai: 401 invalid api key", "provider": "stub/test"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.gen)

			resp, err := http.Get(srv.URL + "/testCategorize")
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			var payload map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
			assert.NotEmpty(t, payload["timestamp"])
			delete(payload, "timestamp")
			assert.Equal(t, tt.wantBody, payload)
		})
	}
}
