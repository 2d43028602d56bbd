package apitest

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func get(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAuthRequired(t *testing.T) {
	srv := New()
	defer srv.Close()

	require.Equal(t, http.StatusUnauthorized, get(t, srv.URL+"/suggestions", "").StatusCode)
	require.Equal(t, http.StatusUnauthorized, get(t, srv.URL+"/suggestions", "not-a-jwt").StatusCode)
	require.Equal(t, http.StatusUnauthorized, get(t, srv.URL+"/suggestions", srv.ExpiredToken("co-1")).StatusCode)
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/suggestions", srv.Token("co-1")).StatusCode)
}

func TestRateLimiterReturns429WithRetryAfter(t *testing.T) {
	srv := New(WithRateLimit(2, time.Minute))
	defer srv.Close()

	token := srv.Token("co-1")
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/suggestions", token).StatusCode)
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/suggestions", token).StatusCode)

	resp := get(t, srv.URL+"/suggestions", token)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, "60", resp.Header.Get("Retry-After"))
}

func TestFailureInjectionIsConsumed(t *testing.T) {
	srv := New()
	defer srv.Close()

	srv.Fail("GET /suggestions", Failure{Status: 500, Times: 1})

	token := srv.Token("co-1")
	require.Equal(t, http.StatusInternalServerError, get(t, srv.URL+"/suggestions", token).StatusCode)
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/suggestions", token).StatusCode)
	require.Equal(t, 2, srv.Count("GET /suggestions"))
}
