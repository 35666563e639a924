package decoder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/moneyshare/internal/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    models.DecodedBill
		wantErr bool
	}{
		{
			name: "top level payload",
			body: `{"expenses":[{"name":"Pho bo","amount":55000,"quantity":2},{"name":"Tra da","amount":"5000"}],
				"discountAmount":10000,"shipAmount":15000,"actualTotal":120000,"totalAmount":999999}`,
			want: models.DecodedBill{
				Expenses: []models.Expense{
					{Name: "Pho bo", Amount: 55000, Quantity: 2},
					{Name: "Tra da", Amount: 5000},
				},
				DiscountAmount: 10000,
				ShipAmount:     15000,
				ActualTotal:    120000,
			},
		},
		{
			name: "data envelope with receipt header",
			body: `{"success":true,"data":{"name":"Quan Ut Ut","address":"168 Vo Van Kiet","expenses":[{"name":"Suon","amount":250000}]}}`,
			want: models.DecodedBill{
				Name:     "Quan Ut Ut",
				Address:  "168 Vo Van Kiet",
				Expenses: []models.Expense{{Name: "Suon", Amount: 250000}},
			},
		},
		{
			name: "negative adjustments read as zero",
			body: `{"expenses":[],"discountAmount":-5}`,
			want: models.DecodedBill{},
		},
		{name: "invalid json", body: `{"expenses":[`, wantErr: true},
		{name: "array root", body: `[1,2]`, wantErr: true},
		{name: "missing expenses", body: `{"actualTotal":10}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClientDecode(t *testing.T) {
	var gotReq decodeRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/bill", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"expenses":[{"name":"Banh mi","amount":25000,"quantity":3}],"actualTotal":70000}}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", WithToken("secret"))
	bill, err := c.Decode(context.Background(), "data:image/png;base64,iVBORw0K")
	require.NoError(t, err)

	assert.Equal(t, "data:image/png;base64,iVBORw0K", gotReq.Base64URL)
	assert.Equal(t, "Bearer secret", gotAuth)
	require.Len(t, bill.Expenses, 1)
	assert.Equal(t, 3, bill.Expenses[0].Quantity)
	assert.Equal(t, 70000.0, bill.ActualTotal)
}

func TestClientFailuresAreExternal(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model overloaded", http.StatusServiceUnavailable)
		}},
		{"bad payload", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>oops</html>`))
		}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := New(srv.URL, WithTimeout(50*time.Millisecond)).Decode(context.Background(), "img")
			var ext *models.ExternalServiceError
			require.True(t, errors.As(err, &ext), "got %v", err)
			assert.Equal(t, ServiceName, ext.Service)
		})
	}
}

func TestClientOptionsLeaveSharedClientAlone(t *testing.T) {
	before := http.DefaultClient.Timeout

	c := New("http://decoder.invalid", WithHTTPClient(http.DefaultClient), WithTimeout(3*time.Second))
	assert.Equal(t, before, http.DefaultClient.Timeout)
	assert.Equal(t, 3*time.Second, c.httpClient.Timeout)
	assert.NotSame(t, http.DefaultClient, c.httpClient)

	c = New("http://decoder.invalid", WithHTTPClient(nil))
	require.NotNil(t, c.httpClient)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}

func TestClientUsesGivenHTTPClient(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"expenses":[{"name":"Bun cha","amount":60000}]}`))
	}))
	defer srv.Close()

	got, err := New(srv.URL, WithHTTPClient(srv.Client())).Decode(context.Background(), "img")
	require.NoError(t, err)
	require.Len(t, got.Expenses, 1)
	assert.Equal(t, "Bun cha", got.Expenses[0].Name)
}

func TestClientNotConfigured(t *testing.T) {
	_, err := New("").Decode(context.Background(), "img")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClientRequiresImage(t *testing.T) {
	_, err := New("http://decoder.invalid").Decode(context.Background(), " ")
	assert.True(t, models.IsValidation(err))
}
