package payments

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, repo *memoryPaymentsRepo) *httptest.Server {
	t.Helper()
	svc := NewService(repo, &stubLocker{}, nil, testLogger())
	handler := NewHandler(testLogger(), svc)
	r := chi.NewRouter()
	r.Route("/payments", handler.MountRoutes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestAllocatePaymentEndpoint(t *testing.T) {
	repo := newMemoryPaymentsRepo()
	repo.addInvoice(1, 42, "INV-2026-00001", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), 100)
	srv := newTestServer(t, repo)

	resp, err := http.Post(srv.URL+"/payments", "application/json",
		strings.NewReader(`{"farmer_id":42,"amount":60,"mode":"UPI","transaction_ref":"UTR123"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result AllocationResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.InDelta(t, 60.0, result.AllocatedAmount, 1e-9)
	require.InDelta(t, 40.0, result.RemainingBalance, 1e-9)
	require.Zero(t, result.InvoicesSettled)
}

func TestAllocatePaymentEndpointRejectsBadMode(t *testing.T) {
	srv := newTestServer(t, newMemoryPaymentsRepo())

	resp, err := http.Post(srv.URL+"/payments", "application/json",
		strings.NewReader(`{"farmer_id":42,"amount":60,"mode":"CHEQUE"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAllocatePaymentEndpointNoOutstanding(t *testing.T) {
	srv := newTestServer(t, newMemoryPaymentsRepo())

	resp, err := http.Post(srv.URL+"/payments", "application/json",
		strings.NewReader(`{"farmer_id":42,"amount":60,"mode":"CASH"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListPaymentsEndpoint(t *testing.T) {
	repo := newMemoryPaymentsRepo()
	repo.addInvoice(1, 42, "INV-2026-00001", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), 100)
	srv := newTestServer(t, repo)

	resp, err := http.Post(srv.URL+"/payments", "application/json",
		strings.NewReader(`{"farmer_id":42,"amount":100,"mode":"CASH"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	listResp, err := http.Get(srv.URL + "/payments?farmer_id=42")
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var payload struct {
		Payments []Payment `json:"payments"`
	}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&payload))
	require.Len(t, payload.Payments, 1)
	require.InDelta(t, 100.0, payload.Payments[0].Amount, 1e-9)
}
