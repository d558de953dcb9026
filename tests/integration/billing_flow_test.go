package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	adaptershttp "github.com/infisparks/gautami-ledger/internal/adapter/http"
	"github.com/infisparks/gautami-ledger/internal/adapter/http/dto"
	"github.com/infisparks/gautami-ledger/internal/adapter/http/handler"
	postgresrepo "github.com/infisparks/gautami-ledger/internal/adapter/repository/postgres"
	redisrepo "github.com/infisparks/gautami-ledger/internal/adapter/repository/redis"
	"github.com/infisparks/gautami-ledger/internal/domain"
	infraredis "github.com/infisparks/gautami-ledger/internal/infrastructure/redis"
	"github.com/infisparks/gautami-ledger/internal/usecase"
	"github.com/infisparks/gautami-ledger/tests/testutil"
)

func newTestServer(t *testing.T, testDB *testutil.TestDB) *httptest.Server {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient, err := infraredis.NewClient(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { redisClient.Close() })

	pool := testDB.Pool
	logger := zerolog.Nop()

	txManager := postgresrepo.NewTxManager(pool)
	recordRepo := postgresrepo.NewRecordRepository(pool)
	bedRegistry := postgresrepo.NewBedRepository(pool)
	outboxRepo := postgresrepo.NewOutboxRepository(pool)
	cache := redisrepo.NewCache(redisClient)
	idGen := postgresrepo.NewULIDGenerator()
	retrier := postgresrepo.NewRetrier(3, logger, nil)

	methods := domain.NewPaymentMethods([]string{"cash", "card", "upi", "netbanking"})

	recordUC := usecase.NewRecordUseCase(txManager, recordRepo, outboxRepo, idGen, nil)
	billingUC := usecase.NewBillingUseCase(txManager, recordRepo, outboxRepo, retrier, idGen, nil)
	paymentUC := usecase.NewPaymentUseCase(txManager, recordRepo, outboxRepo, retrier, idGen, methods, nil)
	dischargeUC := usecase.NewDischargeUseCase(txManager, recordRepo, bedRegistry, outboxRepo, retrier, idGen, logger, nil)
	invoiceUC := usecase.NewInvoiceUseCase(recordRepo, cache, 0, logger, nil)
	reconciliationUC := usecase.NewReconciliationUseCase(recordRepo, bedRegistry, logger, nil)

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		RecordHandler:         handler.NewRecordHandler(recordUC),
		ServiceHandler:        handler.NewServiceHandler(billingUC),
		PaymentHandler:        handler.NewPaymentHandler(paymentUC),
		DischargeHandler:      handler.NewDischargeHandler(dischargeUC),
		InvoiceHandler:        handler.NewInvoiceHandler(invoiceUC),
		ReconciliationHandler: handler.NewReconciliationHandler(reconciliationUC),
		HealthHandler:         &handler.HealthHandler{},
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeRecord(t *testing.T, resp *http.Response) dto.RecordResponse {
	t.Helper()
	defer resp.Body.Close()

	var record dto.RecordResponse
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		t.Fatalf("failed to decode record: %v", err)
	}
	return record
}

func TestBillingFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)
	testDB.SeedBed(ctx, "deluxe", "D-3", "occupied")

	server := newTestServer(t, testDB)

	// Admit with an opening deposit
	resp := postJSON(t, server.URL+"/api/v1/records", map[string]any{
		"patient_ref":     "uhid-1001",
		"opening_deposit": "5000.00",
		"room_type":       "deluxe",
		"bed_id":          "D-3",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("admit: expected 201, got %d", resp.StatusCode)
	}
	record := decodeRecord(t, resp)
	if record.ID == "" {
		t.Fatal("admit: expected a record ID")
	}

	// Append a service; the outstanding balance grows
	resp = postJSON(t, server.URL+"/api/v1/records/"+record.ID+"/services", map[string]any{
		"name":   "X-Ray",
		"amount": "1200.00",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add service: expected 201, got %d", resp.StatusCode)
	}
	record = decodeRecord(t, resp)
	if !record.Outstanding.Equal(decimal.RequireFromString("6200.00")) {
		t.Fatalf("expected outstanding 6200.00, got %s", record.Outstanding)
	}

	// Complete the service; paid total now covers it
	resp = postJSON(t, server.URL+"/api/v1/records/"+record.ID+"/services/0/complete", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete service: expected 200, got %d", resp.StatusCode)
	}
	record = decodeRecord(t, resp)
	if !record.TotalPaid.Equal(decimal.RequireFromString("1200.00")) {
		t.Fatalf("expected total paid 1200.00, got %s", record.TotalPaid)
	}

	// Record a payment; it folds into the deposit total
	resp = postJSON(t, server.URL+"/api/v1/records/"+record.ID+"/payments", map[string]any{
		"amount": "2000.00",
		"method": "cash",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("record payment: expected 201, got %d", resp.StatusCode)
	}
	record = decodeRecord(t, resp)
	if !record.DepositTotal.Equal(decimal.RequireFromString("7000.00")) {
		t.Fatalf("expected deposit total 7000.00, got %s", record.DepositTotal)
	}

	// Invoice projection carries the synthetic deposit row first
	invoiceResp, err := http.Get(server.URL + "/api/v1/records/" + record.ID + "/invoice")
	if err != nil {
		t.Fatalf("invoice request failed: %v", err)
	}
	defer invoiceResp.Body.Close()
	if invoiceResp.StatusCode != http.StatusOK {
		t.Fatalf("invoice: expected 200, got %d", invoiceResp.StatusCode)
	}
	var invoice dto.InvoiceResponse
	if err := json.NewDecoder(invoiceResp.Body).Decode(&invoice); err != nil {
		t.Fatalf("failed to decode invoice: %v", err)
	}
	if len(invoice.PaymentHistory) != 2 {
		t.Fatalf("expected 2 payment history rows, got %d", len(invoice.PaymentHistory))
	}
	if invoice.PaymentHistory[0].Label != domain.DepositRowLabel {
		t.Fatalf("expected deposit row first, got %s", invoice.PaymentHistory[0].Label)
	}

	// Discharge; the bed is released
	resp = postJSON(t, server.URL+"/api/v1/records/"+record.ID+"/discharge", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("discharge: expected 200, got %d", resp.StatusCode)
	}
	record = decodeRecord(t, resp)
	if record.DischargedAt == nil {
		t.Fatal("expected record to be discharged")
	}

	var bedStatus string
	if err := testDB.Pool.QueryRow(ctx,
		"SELECT status FROM beds WHERE room_type = $1 AND bed_id = $2", "deluxe", "D-3",
	).Scan(&bedStatus); err != nil {
		t.Fatalf("failed to read bed status: %v", err)
	}
	if bedStatus != "available" {
		t.Fatalf("expected bed to be available, got %s", bedStatus)
	}

	// Every mutation left an outbox event behind
	var outboxCount int
	if err := testDB.Pool.QueryRow(ctx,
		"SELECT count(*) FROM outbox_events WHERE aggregate_id = $1", record.ID,
	).Scan(&outboxCount); err != nil {
		t.Fatalf("failed to count outbox events: %v", err)
	}
	if outboxCount == 0 {
		t.Fatal("expected outbox events to be written")
	}

	// Repeat discharge is idempotent
	resp = postJSON(t, server.URL+"/api/v1/records/"+record.ID+"/discharge", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("repeat discharge: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestConcurrentServiceAppends(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	server := newTestServer(t, testDB)

	resp := postJSON(t, server.URL+"/api/v1/records", map[string]any{
		"patient_ref":     "uhid-2002",
		"opening_deposit": "0.00",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("admit: expected 201, got %d", resp.StatusCode)
	}
	record := decodeRecord(t, resp)

	// Hammer the record from multiple writers; the merge loop should
	// absorb every conflict.
	const writers = 8
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		go func() {
			body := []byte(`{"name":"Dressing","amount":"100.00"}`)
			r, err := http.Post(server.URL+"/api/v1/records/"+record.ID+"/services", "application/json", bytes.NewReader(body))
			if err != nil {
				errs <- err
				return
			}
			defer r.Body.Close()
			if r.StatusCode != http.StatusCreated {
				errs <- fmt.Errorf("unexpected status %d", r.StatusCode)
				return
			}
			errs <- nil
		}()
	}
	for i := 0; i < writers; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("concurrent append failed: %v", err)
		}
	}

	getResp, err := http.Get(server.URL + "/api/v1/records/" + record.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	final := decodeRecord(t, getResp)

	if len(final.Services) != writers {
		t.Fatalf("expected %d services, got %d", writers, len(final.Services))
	}
	if !final.Outstanding.Equal(decimal.RequireFromString("800.00")) {
		t.Fatalf("expected outstanding 800.00, got %s", final.Outstanding)
	}
}
