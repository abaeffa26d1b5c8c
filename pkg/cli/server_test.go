package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechNxt05/revtrust/pkg/trust"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(makeRouter(&trust.Resolver{}))
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	require.NoError(t, json.NewDecoder(res.Body).Decode(v))
	return res.StatusCode
}

func TestHealthHandler(t *testing.T) {
	srv := testServer(t)

	var body map[string]string
	status := getJSON(t, srv.URL+"/healthz", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["version"])
}

func TestTrustByIDHandler_FallbackForUnknown(t *testing.T) {
	srv := testServer(t)

	var res trust.TrustResult
	status := getJSON(t, srv.URL+"/api/trust/B0UNKNOWN", &res)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "B0UNKNOWN", res.ItemID)
	assert.Equal(t, trust.NeutralScore, res.Score)
	assert.Equal(t, trust.ModelFallback, res.Model)
}

func TestTrustBatchHandler_Texts(t *testing.T) {
	srv := testServer(t)

	res, err := http.Post(srv.URL+"/api/trust", "application/json",
		strings.NewReader(`{"texts":["sponsored paid review"]}`))
	require.NoError(t, err)
	defer res.Body.Close()

	var tr trust.TrustResult
	require.NoError(t, json.NewDecoder(res.Body).Decode(&tr))
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, trust.ModelPipeline, tr.Model)
	assert.Equal(t, 0.72, tr.Score)
}

func TestTrustBatchHandler_Reviews(t *testing.T) {
	srv := testServer(t)

	res, err := http.Post(srv.URL+"/api/trust", "application/json",
		strings.NewReader(`{"reviews":[{"text":"works fine for the price","rating":4}]}`))
	require.NoError(t, err)
	defer res.Body.Close()

	var tr trust.TrustResult
	require.NoError(t, json.NewDecoder(res.Body).Decode(&tr))
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, trust.ModelPipeline, tr.Model)
}

func TestTrustBatchHandler_BadRequests(t *testing.T) {
	srv := testServer(t)

	res, err := http.Post(srv.URL+"/api/trust", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, err = http.Post(srv.URL+"/api/trust", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestRouter_UnknownRoute(t *testing.T) {
	srv := testServer(t)

	res, err := http.Get(srv.URL + "/api/nope")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
