package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInstrumentCountsByStatus(t *testing.T) {
	h := Instrument("test_route", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fail") != "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	before200 := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("test_route", "200"))
	before400 := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("test_route", "400"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/?fail=1", nil))

	assert.Equal(t, before200+2, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("test_route", "200")))
	assert.Equal(t, before400+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("test_route", "400")))
}

func TestHandlerServesMetrics(t *testing.T) {
	VisitCodesIssuedTotal.WithLabelValues("sales").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "trackmate_visit_codes_issued_total")
}
