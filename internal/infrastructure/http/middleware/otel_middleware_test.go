package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/apip-render/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestHTTPRouteContextUsesPattern(t *testing.T) {
	var route string
	r := chi.NewRouter()
	r.Use(ActiveRequestsMiddleware(noop.NewMeterProvider().Meter("test")))
	r.With(HTTPRouteContext()).Get("/render/{kind}", func(w http.ResponseWriter, r *http.Request) {
		route = telemetry.HTTPRouteFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/render/block", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "/render/{kind}", route)
}

func TestRoutePatternFallsBackToPath(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/unrouted", nil)
	assert.Equal(t, "/unrouted", RoutePattern(req))
}
