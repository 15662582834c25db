package checkout

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rakapradana/pustaka-backend/internal/audit"
	"github.com/rakapradana/pustaka-backend/internal/gateway"
	"github.com/rakapradana/pustaka-backend/internal/subscriptions"
	"github.com/rakapradana/pustaka-backend/internal/transactions"
	"github.com/rakapradana/pustaka-backend/pkg/config"
	"github.com/rakapradana/pustaka-backend/pkg/db/models"
	"github.com/rakapradana/pustaka-backend/pkg/enums"
	pkgerrors "github.com/rakapradana/pustaka-backend/pkg/errors"
)

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	subs := `
CREATE TABLE IF NOT EXISTS subscriptions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'pending',
  plan_name TEXT NOT NULL,
  order_id TEXT NOT NULL,
  gateway TEXT NOT NULL,
  start_date DATETIME,
  end_date DATETIME,
  gross_amount TEXT NOT NULL,
  gateway_transaction_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	txns := `
CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  gateway TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  gross_amount TEXT NOT NULL,
  payment_type TEXT,
  gateway_transaction_id TEXT,
  transaction_time DATETIME,
  settlement_time DATETIME,
  raw_payload TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(subs).Error)
	require.NoError(t, db.Exec(txns).Error)
	require.NoError(t, db.Exec("DELETE FROM subscriptions").Error)
	require.NoError(t, db.Exec("DELETE FROM transactions").Error)
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type auditStub struct {
	entries []audit.Entry
}

func (a *auditStub) RecordTx(_ context.Context, _ *gorm.DB, entry audit.Entry) error {
	a.entries = append(a.entries, entry)
	return nil
}

type gatewayStub struct {
	name    enums.PaymentGateway
	session *gateway.Session
	err     error
	calls   int
}

func (g *gatewayStub) Name() enums.PaymentGateway {
	return g.name
}

func (g *gatewayStub) Initiate(context.Context, gateway.Order) (*gateway.Session, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.session, nil
}

func newTestService(t *testing.T, db *gorm.DB, client gateway.Client) (*Service, *auditStub) {
	t.Helper()

	recorder := &auditStub{}
	svc, err := NewService(ServiceParams{
		Subscriptions:     subscriptions.NewRepository(db),
		Transactions:      transactions.NewRepository(db),
		Gateways:          []gateway.Client{client},
		TransactionRunner: gormTxRunner{db: db},
		Audit:             recorder,
		Config:            config.CheckoutConfig{DefaultGateway: "midtrans", PendingTTL: 24 * time.Hour},
	})
	require.NoError(t, err)
	return svc, recorder
}

func TestCreate_success(t *testing.T) {
	db := setupCheckoutTestDB(t)
	client := &gatewayStub{
		name: enums.PaymentGatewayMidtrans,
		session: &gateway.Session{
			Token:       "snap-token",
			RedirectURL: "https://pay.example/redirect",
			Raw:         json.RawMessage(`{"token":"snap-token"}`),
		},
	}
	svc, recorder := newTestService(t, db, client)
	userID := uuid.New()

	result, err := svc.Create(context.Background(), Input{
		UserID: userID,
		Email:  "reader@example.com",
		PlanID: "1month",
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "1month", result.PlanID)
	assert.Equal(t, int64(25000), result.GrossAmount)
	assert.Equal(t, "snap-token", result.Token)
	assert.NotEmpty(t, result.OrderID)

	sub, err := subscriptions.NewRepository(db).FindByUserID(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, enums.SubscriptionStatusPending, sub.Status)
	assert.Equal(t, result.OrderID, sub.OrderID)
	assert.Nil(t, sub.StartDate)

	txn, err := transactions.NewRepository(db).FindByOrderID(context.Background(), result.OrderID)
	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.Equal(t, enums.TransactionStatusPending, txn.Status)
	assert.True(t, txn.GrossAmount.Equal(decimal.NewFromInt(25000)))

	require.Len(t, recorder.entries, 1)
	assert.Equal(t, enums.AdminEventCheckoutCreated, recorder.entries[0].Type)
}

func TestCreate_unknownPlan(t *testing.T) {
	db := setupCheckoutTestDB(t)
	client := &gatewayStub{name: enums.PaymentGatewayMidtrans}
	svc, _ := newTestService(t, db, client)

	_, err := svc.Create(context.Background(), Input{
		UserID: uuid.New(),
		PlanID: "weekly",
	})
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	assert.Zero(t, client.calls)
}

func TestCreate_duplicateActive(t *testing.T) {
	db := setupCheckoutTestDB(t)
	client := &gatewayStub{name: enums.PaymentGatewayMidtrans}
	svc, _ := newTestService(t, db, client)

	userID := uuid.New()
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -5)
	end := now.AddDate(0, 0, 25)
	require.NoError(t, db.Create(&models.Subscription{
		ID:          uuid.New(),
		UserID:      userID,
		Status:      enums.SubscriptionStatusActive,
		PlanName:    "1month",
		OrderID:     "PST-existing",
		Gateway:     enums.PaymentGatewayMidtrans,
		StartDate:   &start,
		EndDate:     &end,
		GrossAmount: decimal.NewFromInt(25000),
	}).Error)

	_, err := svc.Create(context.Background(), Input{
		UserID: userID,
		PlanID: "3month",
	})
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	assert.Zero(t, client.calls)
}

func TestCreate_expiredActiveAllowsCheckout(t *testing.T) {
	db := setupCheckoutTestDB(t)
	client := &gatewayStub{
		name:    enums.PaymentGatewayMidtrans,
		session: &gateway.Session{Token: "snap-token"},
	}
	svc, _ := newTestService(t, db, client)

	userID := uuid.New()
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -40)
	end := now.AddDate(0, 0, -10)
	require.NoError(t, db.Create(&models.Subscription{
		ID:          uuid.New(),
		UserID:      userID,
		Status:      enums.SubscriptionStatusActive,
		PlanName:    "1month",
		OrderID:     "PST-lapsed",
		Gateway:     enums.PaymentGatewayMidtrans,
		StartDate:   &start,
		EndDate:     &end,
		GrossAmount: decimal.NewFromInt(25000),
	}).Error)

	result, err := svc.Create(context.Background(), Input{
		UserID: userID,
		PlanID: "1month",
	})
	require.NoError(t, err)

	sub, err := subscriptions.NewRepository(db).FindByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, enums.SubscriptionStatusPending, sub.Status)
	assert.Equal(t, result.OrderID, sub.OrderID)
}

func TestCreate_gatewayFailureCommitsNothing(t *testing.T) {
	db := setupCheckoutTestDB(t)
	client := &gatewayStub{
		name: enums.PaymentGatewayMidtrans,
		err:  pkgerrors.New(pkgerrors.CodeDependency, "midtrans unreachable"),
	}
	svc, recorder := newTestService(t, db, client)
	userID := uuid.New()

	_, err := svc.Create(context.Background(), Input{
		UserID: userID,
		PlanID: "1month",
	})
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeDependency, appErr.Code())

	sub, err := subscriptions.NewRepository(db).FindByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Nil(t, sub)
	assert.Empty(t, recorder.entries)
}

func TestCreate_unsupportedGateway(t *testing.T) {
	db := setupCheckoutTestDB(t)
	client := &gatewayStub{name: enums.PaymentGatewayMidtrans}
	svc, _ := newTestService(t, db, client)

	_, err := svc.Create(context.Background(), Input{
		UserID:  uuid.New(),
		PlanID:  "1month",
		Gateway: enums.PaymentGatewayIPaymu,
	})
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}
