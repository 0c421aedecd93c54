package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-club-api/internal/models"
	"github.com/noah-isme/sma-club-api/internal/wizard"
	appErrors "github.com/noah-isme/sma-club-api/pkg/errors"
	"github.com/noah-isme/sma-club-api/pkg/export"
)

type mockCache struct {
	values  map[string][]byte
	deletes []string
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.values == nil {
		m.values = make(map[string][]byte)
	}
	m.values[key] = raw
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.values, key)
	m.deletes = append(m.deletes, key)
	return nil
}

type mockRoster struct {
	enrollments []models.ClubEnrollmentDetail
}

func (m *mockRoster) ListActiveByClub(ctx context.Context, clubID string) ([]models.ClubEnrollmentDetail, error) {
	return m.enrollments, nil
}

func TestClubServiceGetCachesDetail(t *testing.T) {
	repo := &mockClubRepo{clubs: map[string]models.ClubDetail{"club-1": chessClub()}}
	cache := &mockCache{}
	svc := NewClubService(repo, nil, cache, export.NewRosterCSVExporter(), NewMetricsService(), time.Minute, zap.NewNop())

	club, err := svc.Get(context.Background(), "club-1")
	require.NoError(t, err)
	assert.Equal(t, "Chess Club", club.Name)
	assert.Contains(t, cache.values, "clubs:detail:club-1")

	// Second read is served from cache even if the repo row disappears.
	delete(repo.clubs, "club-1")
	club, err = svc.Get(context.Background(), "club-1")
	require.NoError(t, err)
	assert.Equal(t, "Chess Club", club.Name)
}

func TestClubServiceGetNotFound(t *testing.T) {
	svc := NewClubService(&mockClubRepo{}, nil, nil, export.NewRosterCSVExporter(), NewMetricsService(), time.Minute, zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestClubServiceInvalidateCache(t *testing.T) {
	repo := &mockClubRepo{clubs: map[string]models.ClubDetail{"club-1": chessClub()}}
	cache := &mockCache{}
	svc := NewClubService(repo, nil, cache, export.NewRosterCSVExporter(), NewMetricsService(), time.Minute, zap.NewNop())

	_, err := svc.Get(context.Background(), "club-1")
	require.NoError(t, err)

	svc.InvalidateCache(context.Background(), "club-1")
	assert.Equal(t, []string{"clubs:detail:club-1"}, cache.deletes)
}

func TestClubServiceRosterCSV(t *testing.T) {
	number := "ENR-2024-00001"
	finalized := time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC)
	payload, err := json.Marshal(wizard.Data{
		Student: wizard.StudentSelection{Grade: "6eme A"},
		Payment: wizard.PaymentDetails{
			Amount: 150000,
			Payer:  wizard.Payer{Name: "Mamadou Barry", Phone: "+224628000000"},
		},
	})
	require.NoError(t, err)

	repo := &mockClubRepo{clubs: map[string]models.ClubDetail{"club-1": chessClub()}}
	roster := &mockRoster{enrollments: []models.ClubEnrollmentDetail{{
		ClubEnrollment: models.ClubEnrollment{
			ID:               "enr-1",
			EnrollmentNumber: &number,
			Payload:          payload,
			FinalizedAt:      &finalized,
		},
		StudentName: "Aissatou Barry",
	}}}
	svc := NewClubService(repo, roster, nil, export.NewRosterCSVExporter(), NewMetricsService(), time.Minute, zap.NewNop())

	data, filename, err := svc.RosterCSV(context.Background(), "club-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "roster-club-1-"))

	out := string(data)
	assert.Contains(t, out, "ENR-2024-00001,Aissatou Barry,6eme A,Mamadou Barry,+224628000000,150000,2024-11-15")
}
