package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-club-api/pkg/errors"
	"github.com/noah-isme/sma-club-api/pkg/export"
	"github.com/noah-isme/sma-club-api/pkg/storage"
)

func newReceiptFixture(t *testing.T, enabled bool) *ReceiptService {
	t.Helper()
	store, err := storage.NewLocalStorage(filepath.Join(t.TempDir(), "receipts"))
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewReceiptService(export.NewReceiptRenderer(), store, signer, ReceiptConfig{
		Enabled: enabled,
		Workers: 1,
		Retries: 1,
	}, zap.NewNop())
}

func sampleDocument() export.ReceiptDocument {
	return export.ReceiptDocument{
		SchoolName:    "Groupe Scolaire Horizon",
		ReceiptNumber: "REC-2024-00042",
		Amount:        150000,
		Lines: []export.ReceiptLine{
			{Label: "Student", Value: "Aissatou Barry"},
			{Label: "Method", Value: "cash"},
		},
	}
}

func TestReceiptServiceRenderAndDownload(t *testing.T) {
	svc := newReceiptFixture(t, true)
	svc.Start(context.Background())
	defer svc.Stop()

	require.NoError(t, svc.Enqueue("pay-1", sampleDocument()))

	var token string
	require.Eventually(t, func() bool {
		var err error
		token, _, err = svc.SignedLink("pay-1")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	file, err := svc.Download(token)
	require.NoError(t, err)
	defer file.Close()

	header := make([]byte, 5)
	_, err = file.Read(header)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(header))
}

func TestReceiptServiceLinkBeforeRender(t *testing.T) {
	svc := newReceiptFixture(t, true)
	_, _, err := svc.SignedLink("pay-unknown")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReceiptServiceDisabledDropsJobs(t *testing.T) {
	svc := newReceiptFixture(t, false)
	svc.Start(context.Background())
	defer svc.Stop()

	require.NoError(t, svc.Enqueue("pay-1", sampleDocument()))
	_, _, err := svc.SignedLink("pay-1")
	assert.Error(t, err)
}

func TestReceiptServiceRejectsTamperedToken(t *testing.T) {
	svc := newReceiptFixture(t, true)
	_, err := svc.Download("not.a.valid.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestLocalStorageCleanup(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("2024/receipt-old.pdf", []byte("stale"))
	require.NoError(t, err)
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "2024", "receipt-old.pdf"), old, old))

	removed, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Len(t, removed, 1)
}
