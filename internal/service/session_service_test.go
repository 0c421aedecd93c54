package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-club-api/internal/wizard"
	appErrors "github.com/noah-isme/sma-club-api/pkg/errors"
)

func TestSessionStoreCreateAndGet(t *testing.T) {
	store := NewSessionStore(time.Hour, time.Minute, zap.NewNop())

	session := store.Create(WizardEnrollment, wizard.EnrollmentPolicy{})
	require.NotEmpty(t, session.ID)
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(session.ID, WizardEnrollment)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
}

func TestSessionStoreKindMismatch(t *testing.T) {
	store := NewSessionStore(time.Hour, time.Minute, zap.NewNop())
	session := store.Create(WizardEnrollment, wizard.EnrollmentPolicy{})

	_, err := store.Get(session.ID, WizardPayment)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestSessionStoreExpiry(t *testing.T) {
	store := NewSessionStore(10*time.Millisecond, time.Minute, zap.NewNop())
	session := store.Create(WizardEnrollment, wizard.EnrollmentPolicy{})

	time.Sleep(20 * time.Millisecond)

	_, err := store.Get(session.ID, WizardEnrollment)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrSessionExpired.Code, appErr.Code)
	assert.Equal(t, 0, store.Len())
}

func TestSessionStoreSweep(t *testing.T) {
	store := NewSessionStore(10*time.Millisecond, time.Minute, zap.NewNop())
	store.Create(WizardEnrollment, wizard.EnrollmentPolicy{})
	store.Create(WizardPayment, wizard.PaymentPolicy{})

	time.Sleep(20 * time.Millisecond)

	removed := store.sweepExpired()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, store.Len())
}

func TestSessionStoreDelete(t *testing.T) {
	store := NewSessionStore(time.Hour, time.Minute, zap.NewNop())
	session := store.Create(WizardPayment, wizard.PaymentPolicy{})

	store.Delete(session.ID)
	_, err := store.Get(session.ID, WizardPayment)
	assert.Error(t, err)
}
