package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-club-api/internal/models"
	"github.com/noah-isme/sma-club-api/internal/wizard"
	appErrors "github.com/noah-isme/sma-club-api/pkg/errors"
	"github.com/noah-isme/sma-club-api/pkg/export"
)

type clubRepository interface {
	List(ctx context.Context, filter models.ClubFilter) ([]models.ClubDetail, int, error)
	FindDetailByID(ctx context.Context, id string) (*models.ClubDetail, error)
}

type rosterReader interface {
	ListActiveByClub(ctx context.Context, clubID string) ([]models.ClubEnrollmentDetail, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type rosterExporter interface {
	Render(rows []export.RosterRow) ([]byte, error)
}

// ClubService serves club catalogue reads and roster exports. Club
// details are cached: the wizard re-reads the same club on every step
// render.
type ClubService struct {
	repo     clubRepository
	roster   rosterReader
	cache    cacheStore
	exporter rosterExporter
	metrics  *MetricsService
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewClubService constructs ClubService.
func NewClubService(repo clubRepository, roster rosterReader, cache cacheStore, exporter rosterExporter, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *ClubService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ClubService{repo: repo, roster: roster, cache: cache, exporter: exporter, metrics: metrics, logger: logger, cacheTTL: cacheTTL}
}

// List returns clubs with pagination metadata.
func (s *ClubService) List(ctx context.Context, filter models.ClubFilter) ([]models.ClubDetail, *models.Pagination, error) {
	clubs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list clubs")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return clubs, pagination, nil
}

// Get returns one club with its live enrollment count, served from
// cache when fresh.
func (s *ClubService) Get(ctx context.Context, id string) (*models.ClubDetail, error) {
	key := clubCacheKey(id)
	if s.cache != nil {
		var cached models.ClubDetail
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		}
		s.metrics.RecordCacheOperation(false)
	}

	club, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "club not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load club")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, club, s.cacheTTL); err != nil {
			s.logger.Warn("club cache write failed", zap.String("club_id", id), zap.Error(err))
		}
	}
	return club, nil
}

// InvalidateCache drops the cached detail after a submit changes the
// club's enrollment count.
func (s *ClubService) InvalidateCache(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, clubCacheKey(id)); err != nil {
		s.logger.Warn("club cache invalidation failed", zap.String("club_id", id), zap.Error(err))
	}
}

// RosterCSV exports the club's active enrollments as CSV.
func (s *ClubService) RosterCSV(ctx context.Context, clubID string) ([]byte, string, error) {
	club, err := s.Get(ctx, clubID)
	if err != nil {
		return nil, "", err
	}

	enrollments, err := s.roster.ListActiveByClub(ctx, clubID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load club roster")
	}

	rows := make([]export.RosterRow, 0, len(enrollments))
	for _, e := range enrollments {
		row := export.RosterRow{
			StudentName: e.StudentName,
		}
		if e.EnrollmentNumber != nil {
			row.EnrollmentNumber = *e.EnrollmentNumber
		}
		if e.FinalizedAt != nil {
			row.EnrolledAt = e.FinalizedAt.Format("2006-01-02")
		}
		var data wizard.Data
		if len(e.Payload) > 0 {
			if err := json.Unmarshal(e.Payload, &data); err == nil {
				row.ClassName = data.Student.Grade
				row.PayerName = data.Payment.Payer.Name
				row.PayerPhone = data.Payment.Payer.Phone
				if data.Payment.Amount > 0 {
					row.AmountPaid = fmt.Sprintf("%.0f", data.Payment.Amount)
				}
			}
		}
		rows = append(rows, row)
	}

	csvBytes, err := s.exporter.Render(rows)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	filename := fmt.Sprintf("roster-%s-%s.csv", club.ID, time.Now().UTC().Format("20060102"))
	return csvBytes, filename, nil
}

func clubCacheKey(id string) string {
	return "clubs:detail:" + id
}
