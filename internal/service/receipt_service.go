package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-club-api/pkg/errors"
	"github.com/noah-isme/sma-club-api/pkg/export"
	"github.com/noah-isme/sma-club-api/pkg/jobs"
	"github.com/noah-isme/sma-club-api/pkg/storage"
)

// ReceiptJob is the unit of work for asynchronous receipt rendering.
type ReceiptJob struct {
	PaymentID string
	Document  export.ReceiptDocument
}

type receiptRenderer interface {
	Render(doc export.ReceiptDocument) ([]byte, error)
}

type receiptStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ReceiptConfig tunes the receipt worker pool and retention.
type ReceiptConfig struct {
	Enabled         bool
	Workers         int
	Retries         int
	CleanupInterval time.Duration
	RetentionTTL    time.Duration
}

// ReceiptService renders payment receipts to PDF in the background and
// hands out signed, time-limited download links. Rendering is best
// effort: a submit never waits on it.
type ReceiptService struct {
	renderer receiptRenderer
	storage  receiptStorage
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	config   ReceiptConfig

	queue *jobs.Queue[ReceiptJob]

	mu    sync.RWMutex
	files map[string]string

	cancel context.CancelFunc
	done   chan struct{}
}

// NewReceiptService constructs a ReceiptService.
func NewReceiptService(renderer receiptRenderer, store receiptStorage, signer *storage.SignedURLSigner, cfg ReceiptConfig, logger *zap.Logger) *ReceiptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RetentionTTL <= 0 {
		cfg.RetentionTTL = 30 * 24 * time.Hour
	}
	s := &ReceiptService{
		renderer: renderer,
		storage:  store,
		signer:   signer,
		logger:   logger,
		config:   cfg,
		files:    make(map[string]string),
	}
	s.queue = jobs.NewQueue[ReceiptJob]("receipts", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool and the retention cleanup loop.
func (s *ReceiptService) Start(ctx context.Context) {
	if !s.config.Enabled {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.queue.Start(ctx)

	if s.config.CleanupInterval > 0 {
		s.done = make(chan struct{})
		go func() {
			defer close(s.done)
			ticker := time.NewTicker(s.config.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					removed, err := s.storage.CleanupOlderThan(s.config.RetentionTTL)
					if err != nil {
						s.logger.Warn("receipt cleanup failed", zap.Error(err))
						continue
					}
					if len(removed) > 0 {
						s.logger.Info("expired receipts removed", zap.Int("count", len(removed)))
					}
				}
			}
		}()
	}
}

// Stop drains the worker pool.
func (s *ReceiptService) Stop() {
	if !s.config.Enabled || s.cancel == nil {
		return
	}
	s.cancel()
	s.queue.Stop()
	if s.done != nil {
		<-s.done
	}
}

// Enqueue schedules receipt rendering for a confirmed payment. A
// disabled service accepts and drops the request.
func (s *ReceiptService) Enqueue(paymentID string, doc export.ReceiptDocument) error {
	if !s.config.Enabled {
		return nil
	}
	return s.queue.Enqueue(jobs.Job[ReceiptJob]{
		ID:      paymentID,
		Payload: ReceiptJob{PaymentID: paymentID, Document: doc},
	})
}

// SignedLink returns a signed download token for a rendered receipt.
func (s *ReceiptService) SignedLink(paymentID string) (token string, expiresAt time.Time, err error) {
	if !s.config.Enabled {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "receipt generation is disabled")
	}
	s.mu.RLock()
	relPath, ok := s.files[paymentID]
	s.mu.RUnlock()
	if !ok {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "receipt not generated yet")
	}
	return s.signer.Generate(paymentID, relPath)
}

// Download resolves a signed token to the receipt file.
func (s *ReceiptService) Download(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download link")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "receipt file not found")
	}
	return file, nil
}

func (s *ReceiptService) handle(ctx context.Context, job jobs.Job[ReceiptJob]) error {
	data, err := s.renderer.Render(job.Payload.Document)
	if err != nil {
		return fmt.Errorf("render receipt %s: %w", job.Payload.PaymentID, err)
	}

	relPath := fmt.Sprintf("%d/receipt-%s.pdf", time.Now().UTC().Year(), job.Payload.Document.ReceiptNumber)
	if _, err := s.storage.Save(relPath, data); err != nil {
		return fmt.Errorf("store receipt %s: %w", job.Payload.PaymentID, err)
	}

	s.mu.Lock()
	s.files[job.Payload.PaymentID] = relPath
	s.mu.Unlock()

	s.logger.Info("receipt rendered",
		zap.String("payment_id", job.Payload.PaymentID),
		zap.String("file", relPath))
	return nil
}
