package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/api/v1/events":                    "/api/v1/events",
		"/api/v1/events/{id}":               "/api/v1/events/{param}",
		"/api/v1/registrations/{id}/status": "/api/v1/registrations/{param}/status",
		"":                                  "",
		"api/v1/events/{id}":                "api/v1/events/{id}",
	}
	for input, want := range tests {
		require.Equal(t, want, normalizePath(input), "normalizePath(%q)", input)
	}
}

func TestRouteLabelUsesMatchedPattern(t *testing.T) {
	var seen string
	mux := http.NewServeMux()
	mux.Handle("PATCH /api/v1/events/{id}/review", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		seen = routeLabel(r)
	})

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPatch, "/api/v1/events/42/review", nil))
	require.Equal(t, "/api/v1/events/{param}/review", seen)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.Equal(t, "unmatched", seen)
}

func TestHTTPMiddlewareDoesNotLeakIDsIntoLabels(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/registrations/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	})
	handler := HTTPMiddleware(mux)

	for _, id := range []string{"1", "2", "3"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/registrations/"+id, nil))
	}

	count := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/registrations/{param}", "200"))
	require.GreaterOrEqual(t, count, 3.0)
}
