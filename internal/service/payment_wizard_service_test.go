package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-club-api/internal/dto"
	"github.com/noah-isme/sma-club-api/internal/models"
	"github.com/noah-isme/sma-club-api/internal/wizard"
	appErrors "github.com/noah-isme/sma-club-api/pkg/errors"
)

type mockPaymentStudents struct {
	students map[string]models.StudentSummary
}

func (m *mockPaymentStudents) FindByID(ctx context.Context, id string) (*models.StudentSummary, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockCounter struct {
	seq  int64
	fail bool
}

func (m *mockCounter) Next(ctx context.Context, method string) (int64, error) {
	if m.fail {
		return 0, errors.New("redis unavailable")
	}
	m.seq++
	return m.seq, nil
}

func newPaymentFixture(store *mockWizardStore, counter *mockCounter, receipts *mockReceipts) *PaymentWizardService {
	logger := zap.NewNop()
	metrics := NewMetricsService()
	sessions := NewSessionStore(time.Hour, time.Minute, logger)
	reconciler := wizard.NewReconciler(store, logger)
	students := &mockPaymentStudents{students: map[string]models.StudentSummary{
		"stu-1": {Student: models.Student{ID: "stu-1", FullName: "Aissatou Barry", Active: true}},
	}}
	prefixes := ReceiptPrefixes{Cash: "REC", Bank: "VIR", MobileMoney: "MOB"}

	var receiptsDep receiptEnqueuer
	if receipts != nil {
		receiptsDep = receipts
	}
	return NewPaymentWizardService(sessions, reconciler, students, counter, prefixes, nil, receiptsDep, metrics, wizard.PaymentPolicy{}, "Groupe Scolaire Horizon", nil, logger)
}

func TestPaymentWizardDetailNotFound(t *testing.T) {
	svc := newPaymentFixture(&mockWizardStore{}, &mockCounter{}, nil)

	_, err := svc.Detail(context.Background(), "missing")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestPaymentWizardFullFlow(t *testing.T) {
	store := &mockWizardStore{}
	counter := &mockCounter{}
	receipts := &mockReceipts{}
	svc := newPaymentFixture(store, counter, receipts)
	ctx := context.Background()

	state := svc.Start(ctx)
	assert.Equal(t, int(wizard.StepPayStudent), state.CurrentStep)

	state, err := svc.SelectStudent(ctx, state.SessionID, dto.SelectStudentRequest{StudentID: "stu-1"})
	require.NoError(t, err)
	assert.True(t, state.CanProceed)

	state, err = svc.Next(ctx, state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, int(wizard.StepPayAmount), state.CurrentStep)

	amount := 75000.0
	state, err = svc.UpdatePayment(ctx, state.SessionID, dto.UpdatePaymentRequest{Amount: &amount})
	require.NoError(t, err)

	state, err = svc.Next(ctx, state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, int(wizard.StepPayMethod), state.CurrentStep)
	assert.Equal(t, 1, store.creates)

	method := "cash"
	_, err = svc.UpdatePayment(ctx, state.SessionID, dto.UpdatePaymentRequest{Method: &method})
	require.NoError(t, err)

	suggestion, err := svc.SuggestReceiptNumber(ctx, state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("REC-%d-00001", time.Now().UTC().Year()), suggestion.ReceiptNumber)

	payer := "Mamadou Barry"
	phone := "+224628000000"
	payerType := "father"
	_, err = svc.UpdatePayment(ctx, state.SessionID, dto.UpdatePaymentRequest{
		PayerType:  &payerType,
		PayerName:  &payer,
		PayerPhone: &phone,
	})
	require.NoError(t, err)

	result, err := svc.Submit(ctx, state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "ENR-2024-00001", result.Number)
	assert.Len(t, receipts.enqueued, 1)

	_, err = svc.GetState(ctx, state.SessionID)
	assert.Error(t, err)
}

func TestPaymentWizardMobileMoneyRequiresReference(t *testing.T) {
	svc := newPaymentFixture(&mockWizardStore{}, &mockCounter{}, nil)
	ctx := context.Background()

	state := svc.Start(ctx)
	_, err := svc.SelectStudent(ctx, state.SessionID, dto.SelectStudentRequest{StudentID: "stu-1"})
	require.NoError(t, err)

	amount := 75000.0
	method := "mobile_money"
	receipt := "MOB-2024-00001"
	payer := "Mamadou Barry"
	phone := "+224628000000"
	_, err = svc.UpdatePayment(ctx, state.SessionID, dto.UpdatePaymentRequest{
		Amount:        &amount,
		Method:        &method,
		ReceiptNumber: &receipt,
		PayerName:     &payer,
		PayerPhone:    &phone,
	})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, state.SessionID)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)

	ref := "MM-778812"
	_, err = svc.UpdatePayment(ctx, state.SessionID, dto.UpdatePaymentRequest{TransactionRef: &ref})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, state.SessionID)
	assert.NoError(t, err)
}

func TestPaymentWizardSuggestNeedsMethod(t *testing.T) {
	svc := newPaymentFixture(&mockWizardStore{}, &mockCounter{}, nil)
	ctx := context.Background()

	state := svc.Start(ctx)
	_, err := svc.SuggestReceiptNumber(ctx, state.SessionID)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestPaymentWizardPlaceholderPhoneRejected(t *testing.T) {
	svc := newPaymentFixture(&mockWizardStore{}, &mockCounter{}, nil)
	ctx := context.Background()

	state := svc.Start(ctx)
	_, err := svc.SelectStudent(ctx, state.SessionID, dto.SelectStudentRequest{StudentID: "stu-1"})
	require.NoError(t, err)

	amount := 75000.0
	method := "cash"
	receipt := "REC-2024-00009"
	payer := "Mamadou Barry"
	placeholder := "+224"
	_, err = svc.UpdatePayment(ctx, state.SessionID, dto.UpdatePaymentRequest{
		Amount:        &amount,
		Method:        &method,
		ReceiptNumber: &receipt,
		PayerName:     &payer,
		PayerPhone:    &placeholder,
	})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, state.SessionID)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestPaymentWizardVersionConflictSurfacesAsConflict(t *testing.T) {
	store := &mockWizardStore{}
	svc := newPaymentFixture(store, &mockCounter{}, nil)
	ctx := context.Background()

	state := svc.Start(ctx)
	_, err := svc.SelectStudent(ctx, state.SessionID, dto.SelectStudentRequest{StudentID: "stu-1"})
	require.NoError(t, err)

	amount := 75000.0
	_, err = svc.UpdatePayment(ctx, state.SessionID, dto.UpdatePaymentRequest{Amount: &amount})
	require.NoError(t, err)

	_, err = svc.Next(ctx, state.SessionID)
	require.NoError(t, err)
	next, err := svc.Next(ctx, state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, int(wizard.StepPayMethod), next.CurrentStep)
	assert.Equal(t, 1, store.creates)

	store.updateErr = wizard.ErrVersionConflict
	method := "cash"
	receipt := "REC-2024-00010"
	_, err = svc.UpdatePayment(ctx, state.SessionID, dto.UpdatePaymentRequest{Method: &method, ReceiptNumber: &receipt})
	require.NoError(t, err)

	_, err = svc.Next(ctx, state.SessionID)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONFLICT", appErr.Code)
}
