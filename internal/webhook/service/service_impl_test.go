package service_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/youthbridge/youthbridge/internal/clock"
	"github.com/youthbridge/youthbridge/internal/config"
	"github.com/youthbridge/youthbridge/internal/notify"
	payabledomain "github.com/youthbridge/youthbridge/internal/payable/domain"
	payablerepo "github.com/youthbridge/youthbridge/internal/payable/repository"
	"github.com/youthbridge/youthbridge/internal/paypal"
	reconciledomain "github.com/youthbridge/youthbridge/internal/reconcile/domain"
	reconcilerepo "github.com/youthbridge/youthbridge/internal/reconcile/repository"
	reconcileservice "github.com/youthbridge/youthbridge/internal/reconcile/service"
	"github.com/youthbridge/youthbridge/internal/webhook/adapters"
	paypaladapter "github.com/youthbridge/youthbridge/internal/webhook/adapters/paypal"
	stripeadapter "github.com/youthbridge/youthbridge/internal/webhook/adapters/stripe"
	webhookdomain "github.com/youthbridge/youthbridge/internal/webhook/domain"
	webhookservice "github.com/youthbridge/youthbridge/internal/webhook/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestIngestWebhookRejectsBadSignature(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	node, err := snowflake.NewNode(50)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	svc := newWebhookService(t, db, node, nil)

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`)
	headers := http.Header{}
	headers.Set("Stripe-Signature", "t=1,v1=deadbeef")

	if err := svc.IngestWebhook(ctx, "stripe", payload, headers); !errors.Is(err, webhookdomain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	// A rejected delivery must leave no trace.
	var count int64
	if err := db.Raw("SELECT COUNT(1) FROM provider_events").Scan(&count).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected webhook must not be stored, got %d rows", count)
	}
}

func TestIngestWebhookConfirmsBookingOnce(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	node, err := snowflake.NewNode(55)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	recordID := node.Generate()
	seedRecord(t, db, recordID, 7500)
	if err := db.Exec("UPDATE payable_records SET kind = ? WHERE id = ?", payabledomain.KindEventBooking, recordID).Error; err != nil {
		t.Fatalf("set kind: %v", err)
	}

	svc := newWebhookService(t, db, node, nil)

	now := time.Now().UTC().Unix()
	payload := []byte(fmt.Sprintf(
		`{"id":"evt_book","type":"checkout.session.completed","created":%d,"data":{"object":{"id":"cs_1","amount_total":7500,"currency":"usd","created":%d,"metadata":{"booking_id":"%s"}}}}`,
		now, now, recordID,
	))
	headers := http.Header{}
	headers.Set("Stripe-Signature", buildStripeSignatureHeader("whsec_test", payload, now))

	if err := svc.IngestWebhook(ctx, "stripe", payload, headers); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := svc.IngestWebhook(ctx, "stripe", payload, headers); !errors.Is(err, reconciledomain.ErrEventAlreadyProcessed) {
		t.Fatalf("expected ErrEventAlreadyProcessed on redelivery, got %v", err)
	}

	var status, paymentStatus string
	row := db.Raw("SELECT status, payment_status FROM payable_records WHERE id = ?", recordID).Row()
	if err := row.Scan(&status, &paymentStatus); err != nil {
		t.Fatalf("load record: %v", err)
	}
	if status != payabledomain.StatusConfirmed || paymentStatus != payabledomain.PaymentStatusPaid {
		t.Fatalf("expected CONFIRMED/PAID, got %s/%s", status, paymentStatus)
	}

	var count int64
	if err := db.Raw("SELECT COUNT(1) FROM provider_events WHERE processed_at IS NOT NULL").Scan(&count).Error; err != nil {
		t.Fatalf("count processed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 processed event, got %d", count)
	}
}

func TestIngestWebhookUnknownProvider(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	node, err := snowflake.NewNode(51)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	svc := newWebhookService(t, db, node, nil)
	if err := svc.IngestWebhook(ctx, "square", []byte(`{}`), http.Header{}); !errors.Is(err, webhookdomain.ErrProviderNotFound) {
		t.Fatalf("expected ErrProviderNotFound, got %v", err)
	}
}

func TestVerifyCapturedOrderConfirmsRecord(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	node, err := snowflake.NewNode(52)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	recordID := node.Generate()
	seedRecord(t, db, recordID, 7500)

	server := newPayPalStub(t, recordID.String(), "COMPLETED")
	defer server.Close()

	svc := newWebhookService(t, db, node, server)

	if err := svc.VerifyCapturedOrder(ctx, "ord_1", recordID); err != nil {
		t.Fatalf("verify captured order: %v", err)
	}

	var paymentStatus string
	if err := db.Raw("SELECT payment_status FROM payable_records WHERE id = ?", recordID).Scan(&paymentStatus).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}
	if paymentStatus != payabledomain.PaymentStatusPaid {
		t.Fatalf("expected payment PAID, got %s", paymentStatus)
	}

	// A repeat verification for the same capture is a no-op, not an error.
	if err := svc.VerifyCapturedOrder(ctx, "ord_1", recordID); err != nil {
		t.Fatalf("repeat verification: %v", err)
	}
}

func TestVerifyCapturedOrderRejectsMismatchedRecord(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	node, err := snowflake.NewNode(53)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	recordID := node.Generate()
	seedRecord(t, db, recordID, 7500)

	// The order belongs to a different record.
	server := newPayPalStub(t, node.Generate().String(), "COMPLETED")
	defer server.Close()

	svc := newWebhookService(t, db, node, server)

	if err := svc.VerifyCapturedOrder(ctx, "ord_1", recordID); !errors.Is(err, webhookdomain.ErrOrderMismatch) {
		t.Fatalf("expected ErrOrderMismatch, got %v", err)
	}

	var paymentStatus string
	if err := db.Raw("SELECT payment_status FROM payable_records WHERE id = ?", recordID).Scan(&paymentStatus).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}
	if paymentStatus != payabledomain.PaymentStatusPending {
		t.Fatalf("record must stay PENDING, got %s", paymentStatus)
	}
}

func TestVerifyCapturedOrderRequiresCompletedCapture(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	node, err := snowflake.NewNode(54)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	recordID := node.Generate()
	seedRecord(t, db, recordID, 7500)

	server := newPayPalStub(t, recordID.String(), "PENDING")
	defer server.Close()

	svc := newWebhookService(t, db, node, server)

	if err := svc.VerifyCapturedOrder(ctx, "ord_1", recordID); !errors.Is(err, webhookdomain.ErrOrderNotCaptured) {
		t.Fatalf("expected ErrOrderNotCaptured, got %v", err)
	}
}

// newPayPalStub serves the token endpoint plus a single order whose capture
// carries the given custom id and status.
func newPayPalStub(t *testing.T, customID, captureStatus string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-token","expires_in":3600}`)
	})
	mux.HandleFunc("/v2/checkout/orders/", func(w http.ResponseWriter, r *http.Request) {
		orderStatus := "COMPLETED"
		if captureStatus != "COMPLETED" {
			orderStatus = "APPROVED"
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w,
			`{"id":"ord_1","status":"%s","purchase_units":[{"custom_id":"%s","amount":{"currency_code":"USD","value":"75.00"},"payments":{"captures":[{"id":"cap_1","status":"%s","custom_id":"%s","amount":{"currency_code":"USD","value":"75.00"}}]}}]}`,
			orderStatus, customID, captureStatus, customID,
		)
	})
	return httptest.NewServer(mux)
}

func newWebhookService(t *testing.T, db *gorm.DB, node *snowflake.Node, paypalStub *httptest.Server) webhookdomain.Service {
	t.Helper()

	cfg := config.Config{
		ProviderTimeout: 5 * time.Second,
	}
	if paypalStub != nil {
		cfg.PayPalBaseURL = paypalStub.URL
		cfg.PayPalClientID = "client"
		cfg.PayPalClientSecret = "secret"
		cfg.PayPalWebhookID = "wh-1"
	}
	paypalClient := paypal.New(paypal.Params{Cfg: cfg})

	reconcileSvc := reconcileservice.New(reconcileservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        reconcilerepo.Provide(),
		PayableRepo: payablerepo.Provide(),
		Hub:         notify.NewHub(),
		Clock:       clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	})

	registry := adapters.NewRegistry(
		stripeadapter.NewAdapter("whsec_test"),
		paypaladapter.NewAdapter(paypalClient),
	)

	return webhookservice.New(webhookservice.Params{
		Log:       zap.NewNop(),
		Reconcile: reconcileSvc,
		Adapters:  registry,
		PayPal:    paypalClient,
	})
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE payable_records (
			id BIGINT PRIMARY KEY,
			kind TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			related_event_id BIGINT,
			category TEXT,
			amount_cents BIGINT NOT NULL,
			status TEXT NOT NULL,
			payment_status TEXT NOT NULL,
			provider TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE provider_events (
			id BIGINT PRIMARY KEY,
			provider TEXT NOT NULL,
			provider_event_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payable_record_id BIGINT NOT NULL,
			payload TEXT,
			received_at TIMESTAMP NOT NULL,
			processed_at TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX uq_provider_events_delivery ON provider_events(provider, provider_event_id)`,
	}

	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("schema exec failed: %v", err)
		}
	}

	return db
}

func buildStripeSignatureHeader(secret string, payload []byte, timestamp int64) string {
	signedPayload := fmt.Sprintf("%d.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(signedPayload))
	signature := hex.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, signature)
}

func seedRecord(t *testing.T, db *gorm.DB, id snowflake.ID, amountCents int64) {
	t.Helper()

	now := time.Now().UTC()
	if err := db.Exec(
		`INSERT INTO payable_records (id, kind, owner_id, related_event_id, category, amount_cents,
			status, payment_status, provider, created_at, updated_at)
		 VALUES (?, ?, ?, NULL, '', ?, ?, ?, '', ?, ?)`,
		id, payabledomain.KindVisaInvitation, "user-1", amountCents,
		payabledomain.StatusPending, payabledomain.PaymentStatusPending, now, now,
	).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}
}
