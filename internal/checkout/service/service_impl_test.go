package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	checkoutdomain "github.com/youthbridge/youthbridge/internal/checkout/domain"
	checkoutservice "github.com/youthbridge/youthbridge/internal/checkout/service"
	"github.com/youthbridge/youthbridge/internal/clock"
	"github.com/youthbridge/youthbridge/internal/config"
	eventrepo "github.com/youthbridge/youthbridge/internal/event/repository"
	payabledomain "github.com/youthbridge/youthbridge/internal/payable/domain"
	payablerepo "github.com/youthbridge/youthbridge/internal/payable/repository"
	"github.com/youthbridge/youthbridge/internal/paypal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestInitiateRejectsUnsupportedProvider(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db, clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))

	_, err := svc.Initiate(context.Background(), checkoutdomain.InitiateRequest{
		PayableRecordID: 1,
		Provider:        "venmo",
	})
	if !errors.Is(err, checkoutdomain.ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestInitiateClosedRegistrationLeavesRecordPending(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	node, err := snowflake.NewNode(40)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	svc := newService(t, db, fakeClock)

	eventID := node.Generate()
	seedEvent(t, db, eventID, time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC))

	recordID := node.Generate()
	seedRecord(t, db, recordID, eventID)

	_, err = svc.Initiate(ctx, checkoutdomain.InitiateRequest{
		PayableRecordID: recordID,
		Provider:        checkoutdomain.ProviderStripe,
	})
	if !errors.Is(err, checkoutdomain.ErrRegistrationClosed) {
		t.Fatalf("expected ErrRegistrationClosed, got %v", err)
	}

	var status string
	if err := db.Raw("SELECT status FROM payable_records WHERE id = ?", recordID).Scan(&status).Error; err != nil {
		t.Fatalf("load status: %v", err)
	}
	if status != payabledomain.StatusPending {
		t.Fatalf("record must stay PENDING, got %s", status)
	}
}

func TestInitiateRequiresPayableRecord(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	node, err := snowflake.NewNode(41)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	svc := newService(t, db, fakeClock)

	if _, err := svc.Initiate(ctx, checkoutdomain.InitiateRequest{
		PayableRecordID: node.Generate(),
		Provider:        checkoutdomain.ProviderStripe,
	}); !errors.Is(err, payabledomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	recordID := node.Generate()
	seedRecord(t, db, recordID, 0)
	if err := db.Exec(
		"UPDATE payable_records SET kind = ?, status = ?, payment_status = ? WHERE id = ?",
		payabledomain.KindVisaInvitation, payabledomain.StatusPaid, payabledomain.PaymentStatusPaid, recordID,
	).Error; err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	if _, err := svc.Initiate(ctx, checkoutdomain.InitiateRequest{
		PayableRecordID: recordID,
		Provider:        checkoutdomain.ProviderStripe,
	}); !errors.Is(err, checkoutdomain.ErrNotPayable) {
		t.Fatalf("expected ErrNotPayable, got %v", err)
	}
}

func TestInitiatePayPalUnconfigured(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	node, err := snowflake.NewNode(42)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	svc := newService(t, db, fakeClock)

	eventID := node.Generate()
	seedEvent(t, db, eventID, time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))

	recordID := node.Generate()
	seedRecord(t, db, recordID, eventID)

	if _, err := svc.Initiate(ctx, checkoutdomain.InitiateRequest{
		PayableRecordID: recordID,
		Provider:        checkoutdomain.ProviderPayPal,
	}); !errors.Is(err, checkoutdomain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func newService(t *testing.T, db *gorm.DB, fakeClock clock.Clock) checkoutdomain.Service {
	t.Helper()

	cfg := config.Config{
		FrontendURL:     "http://localhost:5173",
		ProviderTimeout: 5 * time.Second,
	}
	return checkoutservice.New(checkoutservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		Cfg:         cfg,
		Clock:       fakeClock,
		PayableRepo: payablerepo.Provide(),
		EventRepo:   eventrepo.Provide(),
		PayPal:      paypal.New(paypal.Params{Cfg: cfg}),
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
		`CREATE TABLE events (
			id BIGINT PRIMARY KEY,
			title TEXT NOT NULL,
			location TEXT NOT NULL,
			date TIMESTAMP NOT NULL,
			price_cents BIGINT NOT NULL,
			self_funded_seats INTEGER NOT NULL DEFAULT 0,
			partially_funded_seats INTEGER NOT NULL DEFAULT 0,
			fully_funded_seats INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
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
	}

	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("schema exec failed: %v", err)
		}
	}

	return db
}

func seedEvent(t *testing.T, db *gorm.DB, id snowflake.ID, date time.Time) {
	t.Helper()

	if err := db.Exec(
		`INSERT INTO events (id, title, location, date, price_cents,
			self_funded_seats, partially_funded_seats, fully_funded_seats, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, "Global Youth Summit", "Nairobi", date, 10000, 40, 30, 30, date.Add(-90*24*time.Hour),
	).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
}

func seedRecord(t *testing.T, db *gorm.DB, id, eventID snowflake.ID) {
	t.Helper()

	now := time.Now().UTC()
	var relatedEventID any
	if eventID != 0 {
		relatedEventID = eventID
	}
	if err := db.Exec(
		`INSERT INTO payable_records (id, kind, owner_id, related_event_id, category, amount_cents,
			status, payment_status, provider, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, '', ?, ?)`,
		id, payabledomain.KindEventBooking, "user-1", relatedEventID, "SELF_FUNDED", 10000,
		payabledomain.StatusPending, payabledomain.PaymentStatusPending, now, now,
	).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}
}
