package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordStoreOp(t *testing.T) {
	before := testutil.ToFloat64(storeOps.WithLabelValues("upsert", "error"))
	RecordStoreOp("upsert", errors.New("disk full"))
	assert.Equal(t, before+1, testutil.ToFloat64(storeOps.WithLabelValues("upsert", "error")))
}

func TestRecordAllocation(t *testing.T) {
	before := testutil.ToFloat64(allocations.WithLabelValues("FOOD", "ok"))
	RecordAllocation("FOOD", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(allocations.WithLabelValues("FOOD", "ok")))
}

func TestInstrumentHandler(t *testing.T) {
	h := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/healthz", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/healthz", "418")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordRPC("/moneyshare.v1.BillService/GetBill", "ok", 0)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "moneyshare_rpc_requests_total"))
}

func TestCanonicalPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "/"},
		{"/", "/"},
		{"/healthz", "/healthz"},
		{"/moneyshare.v1.BillService/GetBill", "/moneyshare.v1.BillService/GetBill"},
		{"/static/js/app.js", "/static"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, canonicalPath(tt.in), tt.in)
	}
}
