package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{"allowed origin", []string{"http://localhost:5173"}, http.MethodPost, "http://localhost:5173", http.StatusTeapot, "http://localhost:5173"},
		{"unknown origin", []string{"http://localhost:5173"}, http.MethodPost, "http://evil.test", http.StatusTeapot, ""},
		{"wildcard", []string{"*"}, http.MethodPost, "http://any.test", http.StatusTeapot, "http://any.test"},
		{"preflight", []string{"*"}, http.MethodOptions, "http://any.test", http.StatusNoContent, "http://any.test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/moneyshare.v1.BillService/GetBill", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()

			CORS(tt.allowed)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
