package common_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plumline/promoboard/internal/common"
)

func TestJSONDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	common.JSONData(rec, http.StatusOK, map[string]string{"subject": "샘플"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "샘플", body["data"]["subject"])
}

func TestJSONPageCarriesTotal(t *testing.T) {
	rec := httptest.NewRecorder()
	common.JSONPage(rec, http.StatusOK, []string{"a", "b"}, 42)

	var body struct {
		Data []string        `json:"data"`
		Meta common.ListMeta `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	require.EqualValues(t, 42, body.Meta.Total)
}

func TestJSONErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	common.JSONError(rec, http.StatusNotFound, common.CodeNotFound, "post not found", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body struct {
		Error common.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, common.CodeNotFound, body.Error.Code)
	require.Equal(t, "post not found", body.Error.Message)
}

func TestClientIP(t *testing.T) {
	// RealIP middleware normally rewrites RemoteAddr, so it wins.
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	require.Equal(t, "203.0.113.7", common.ClientIP(r))

	// Handlers mounted without the middleware fall back to headers.
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = ""
	r.Header.Set("X-Forwarded-For", "198.51.100.2, 203.0.113.7")
	require.Equal(t, "198.51.100.2", common.ClientIP(r))
}
