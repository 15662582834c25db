package subscriptions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rakapradana/pustaka-backend/internal/audit"
	"github.com/rakapradana/pustaka-backend/pkg/enums"
	pkgerrors "github.com/rakapradana/pustaka-backend/pkg/errors"
)

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

func newTestService(t *testing.T) (Service, *gorm.DB, *auditStub) {
	t.Helper()

	db := setupSubscriptionsTestDB(t)
	recorder := &auditStub{}
	svc, err := NewService(ServiceParams{
		Repo:              NewRepository(db),
		TransactionRunner: gormTxRunner{db: db},
		Audit:             recorder,
	})
	require.NoError(t, err)
	return svc, db, recorder
}

func TestServiceActivate_newSubscription(t *testing.T) {
	svc, _, recorder := newTestService(t)
	userID := uuid.New()

	sub, err := svc.Activate(context.Background(), ActivateInput{
		UserID:      userID,
		PlanName:    "1month",
		OrderID:     "PST-order-1",
		Gateway:     enums.PaymentGatewayMidtrans,
		GrossAmount: decimal.NewFromInt(25000),
	})
	require.NoError(t, err)
	require.NotNil(t, sub)

	assert.Equal(t, enums.SubscriptionStatusActive, sub.Status)
	require.NotNil(t, sub.StartDate)
	require.NotNil(t, sub.EndDate)
	assert.Equal(t, sub.StartDate.AddDate(0, 0, 30), *sub.EndDate)

	require.Len(t, recorder.entries, 1)
	assert.Equal(t, enums.AdminEventSubscriptionActivated, recorder.entries[0].Type)
}

func TestServiceActivate_replaySameOrderKeepsWindow(t *testing.T) {
	svc, _, _ := newTestService(t)
	userID := uuid.New()

	input := ActivateInput{
		UserID:      userID,
		PlanName:    "1month",
		OrderID:     "PST-order-replay",
		Gateway:     enums.PaymentGatewayIPaymu,
		GrossAmount: decimal.NewFromInt(25000),
	}

	first, err := svc.Activate(context.Background(), input)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	second, err := svc.Activate(context.Background(), input)
	require.NoError(t, err)

	assert.True(t, first.StartDate.Equal(*second.StartDate))
	assert.True(t, first.EndDate.Equal(*second.EndDate))
}

func TestServiceActivate_replayAfterCancelKeepsWindow(t *testing.T) {
	svc, _, _ := newTestService(t)
	userID := uuid.New()

	input := ActivateInput{
		UserID:      userID,
		PlanName:    "1month",
		OrderID:     "PST-order-late-replay",
		Gateway:     enums.PaymentGatewayMidtrans,
		GrossAmount: decimal.NewFromInt(25000),
	}

	first, err := svc.Activate(context.Background(), input)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), userID, "gateway reported cancel"))

	time.Sleep(10 * time.Millisecond)

	// A settlement redelivered after the cancel must not mint a new window.
	second, err := svc.Activate(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, enums.SubscriptionStatusActive, second.Status)
	assert.True(t, first.StartDate.Equal(*second.StartDate))
	assert.True(t, first.EndDate.Equal(*second.EndDate))
}

func TestServiceActivate_newOrderResetsWindow(t *testing.T) {
	svc, _, _ := newTestService(t)
	userID := uuid.New()

	first, err := svc.Activate(context.Background(), ActivateInput{
		UserID:      userID,
		PlanName:    "1month",
		OrderID:     "PST-order-a",
		Gateway:     enums.PaymentGatewayMidtrans,
		GrossAmount: decimal.NewFromInt(25000),
	})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	second, err := svc.Activate(context.Background(), ActivateInput{
		UserID:      userID,
		PlanName:    "3month",
		OrderID:     "PST-order-b",
		Gateway:     enums.PaymentGatewayMidtrans,
		GrossAmount: decimal.NewFromInt(65000),
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "3month", second.PlanName)
	assert.True(t, second.StartDate.After(*first.StartDate))
	assert.Equal(t, second.StartDate.AddDate(0, 0, 90), *second.EndDate)
}

func TestServiceActivate_unknownPlan(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Activate(context.Background(), ActivateInput{
		UserID:      uuid.New(),
		PlanName:    "lifetime",
		OrderID:     "PST-order-x",
		Gateway:     enums.PaymentGatewayMidtrans,
		GrossAmount: decimal.NewFromInt(1),
	})
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestServiceCancel(t *testing.T) {
	svc, _, recorder := newTestService(t)
	userID := uuid.New()

	_, err := svc.Activate(context.Background(), ActivateInput{
		UserID:      userID,
		PlanName:    "1month",
		OrderID:     "PST-order-cancel",
		Gateway:     enums.PaymentGatewayMidtrans,
		GrossAmount: decimal.NewFromInt(25000),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), userID, "payment refunded"))

	active, err := svc.IsActive(context.Background(), userID)
	require.NoError(t, err)
	assert.False(t, active)

	require.Len(t, recorder.entries, 2)
	assert.Equal(t, enums.AdminEventSubscriptionCancelled, recorder.entries[1].Type)
}

func TestServiceCancel_absentRowIsNoop(t *testing.T) {
	svc, _, recorder := newTestService(t)

	require.NoError(t, svc.Cancel(context.Background(), uuid.New(), "webhook deny"))
	assert.Empty(t, recorder.entries)
}

func TestServiceIsActive_lazyExpiry(t *testing.T) {
	svc, db, recorder := newTestService(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	past := now.Add(-1 * time.Hour)
	seeded := seedSubscription(t, db, enums.SubscriptionStatusActive, &past, now)

	active, err := svc.IsActive(context.Background(), seeded.UserID)
	require.NoError(t, err)
	assert.False(t, active)

	stored, err := repo.FindByUserID(context.Background(), seeded.UserID)
	require.NoError(t, err)
	assert.Equal(t, enums.SubscriptionStatusExpired, stored.Status)

	require.Len(t, recorder.entries, 1)
	assert.Equal(t, enums.AdminEventSubscriptionExpired, recorder.entries[0].Type)

	// Second read serves the stored expired row without another flip.
	active, err = svc.IsActive(context.Background(), seeded.UserID)
	require.NoError(t, err)
	assert.False(t, active)
	assert.Len(t, recorder.entries, 1)
}

func TestServiceGetInfo(t *testing.T) {
	svc, _, _ := newTestService(t)
	userID := uuid.New()

	missing, err := svc.GetInfo(context.Background(), userID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = svc.Activate(context.Background(), ActivateInput{
		UserID:      userID,
		PlanName:    "3month",
		OrderID:     "PST-order-info",
		Gateway:     enums.PaymentGatewayMidtrans,
		GrossAmount: decimal.NewFromInt(65000),
	})
	require.NoError(t, err)

	info, err := svc.GetInfo(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, enums.SubscriptionStatusActive, info.Status)
	assert.Equal(t, "3month", info.PlanName)
	assert.InDelta(t, 89, info.RemainingDays, 1)
}
