package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-club-api/internal/dto"
	"github.com/noah-isme/sma-club-api/internal/models"
	"github.com/noah-isme/sma-club-api/internal/service"
	"github.com/noah-isme/sma-club-api/internal/wizard"
	"github.com/noah-isme/sma-club-api/pkg/export"
	"github.com/noah-isme/sma-club-api/pkg/response"
)

type stubClubRepo struct {
	club models.ClubDetail
}

func (s *stubClubRepo) List(ctx context.Context, filter models.ClubFilter) ([]models.ClubDetail, int, error) {
	return []models.ClubDetail{s.club}, 1, nil
}

func (s *stubClubRepo) FindDetailByID(ctx context.Context, id string) (*models.ClubDetail, error) {
	if id != s.club.ID {
		return nil, sql.ErrNoRows
	}
	club := s.club
	return &club, nil
}

func (s *stubClubRepo) CountActiveEnrollments(ctx context.Context, clubID string) (int, error) {
	return s.club.EnrolledCount, nil
}

type stubStudentRepo struct {
	student models.StudentSummary
}

func (s *stubStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentSummary, error) {
	if id != s.student.ID {
		return nil, sql.ErrNoRows
	}
	student := s.student
	return &student, nil
}

func (s *stubStudentRepo) ListEligibleForClub(ctx context.Context, clubID string) ([]models.StudentSummary, error) {
	return []models.StudentSummary{s.student}, nil
}

type stubDraftStore struct {
	drafts int
}

func (s *stubDraftStore) CreateDraft(ctx context.Context, data wizard.Data) (wizard.DraftRef, error) {
	s.drafts++
	return wizard.DraftRef{ID: fmt.Sprintf("draft-%d", s.drafts), Version: 1}, nil
}

func (s *stubDraftStore) UpdateDraft(ctx context.Context, id string, data wizard.Data) (wizard.DraftRef, error) {
	return wizard.DraftRef{ID: id, Version: data.Version + 1}, nil
}

func (s *stubDraftStore) Finalize(ctx context.Context, id string, data wizard.Data) (wizard.FinalRef, error) {
	return wizard.FinalRef{ID: id, Number: "ENR-2024-00007", Status: "ACTIVE"}, nil
}

func newWizardRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	metrics := service.NewMetricsService()
	sessions := service.NewSessionStore(time.Hour, time.Minute, logger)

	clubs := &stubClubRepo{club: models.ClubDetail{
		Club: models.Club{
			ID:            "club-1",
			Name:          "Chess Club",
			EnrollmentFee: 20000,
			MonthlyFee:    50000,
			StartDate:     time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
			EndDate:       time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
			Capacity:      30,
			Active:        true,
		},
		EnrolledCount: 10,
	}}
	students := &stubStudentRepo{student: models.StudentSummary{
		Student: models.Student{ID: "stu-1", FullName: "Aissatou Barry", Active: true},
	}}
	reconciler := wizard.NewReconciler(&stubDraftStore{}, logger)
	clubSvc := service.NewClubService(clubs, nil, nil, export.NewRosterCSVExporter(), metrics, time.Minute, logger)
	wizardSvc := service.NewEnrollmentWizardService(sessions, reconciler, clubs, clubSvc, students, nil, nil, nil, metrics, wizard.EnrollmentPolicy{}, "Groupe Scolaire Horizon", nil, logger)
	h := NewEnrollmentWizardHandler(wizardSvc)

	r := gin.New()
	r.POST("/enrollments/wizard", h.Start)
	r.GET("/enrollments/wizard/:sessionId", h.GetState)
	r.PUT("/enrollments/wizard/:sessionId/club", h.SelectClub)
	r.GET("/enrollments/wizard/:sessionId/students", h.EligibleStudents)
	r.PUT("/enrollments/wizard/:sessionId/student", h.SelectStudent)
	r.PATCH("/enrollments/wizard/:sessionId/payment", h.UpdatePayment)
	r.GET("/enrollments/wizard/:sessionId/proration", h.Proration)
	r.POST("/enrollments/wizard/:sessionId/next", h.Next)
	r.POST("/enrollments/wizard/:sessionId/submit", h.Submit)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, payload interface{}) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var envelope response.Envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	}
	return w, envelope
}

func stateFromEnvelope(t *testing.T, envelope response.Envelope) dto.StateResponse {
	t.Helper()
	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var state dto.StateResponse
	require.NoError(t, json.Unmarshal(raw, &state))
	return state
}

func TestEnrollmentWizardHandlerFlow(t *testing.T) {
	r := newWizardRouter(t)

	w, envelope := doJSON(t, r, http.MethodPost, "/enrollments/wizard", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	state := stateFromEnvelope(t, envelope)
	require.NotEmpty(t, state.SessionID)
	base := "/enrollments/wizard/" + state.SessionID

	w, envelope = doJSON(t, r, http.MethodPut, base+"/club", dto.SelectClubRequest{ClubID: "club-1"})
	require.Equal(t, http.StatusOK, w.Code)
	state = stateFromEnvelope(t, envelope)
	assert.True(t, state.CanProceed)

	w, _ = doJSON(t, r, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodGet, base+"/students", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodPut, base+"/student", dto.SelectStudentRequest{StudentID: "stu-1"})
	require.Equal(t, http.StatusOK, w.Code)

	w, envelope = doJSON(t, r, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, w.Code)
	state = stateFromEnvelope(t, envelope)
	assert.Equal(t, "draft-1", state.Data.RemoteID)

	w, _ = doJSON(t, r, http.MethodGet, base+"/proration", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, envelope = doJSON(t, r, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var result dto.SubmitResponse
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, "ENR-2024-00007", result.Number)
}

func TestEnrollmentWizardHandlerInvalidBody(t *testing.T) {
	r := newWizardRouter(t)

	w, envelope := doJSON(t, r, http.MethodPost, "/enrollments/wizard", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	state := stateFromEnvelope(t, envelope)

	req := httptest.NewRequest(http.MethodPut, "/enrollments/wizard/"+state.SessionID+"/club", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnrollmentWizardHandlerUnknownSession(t *testing.T) {
	r := newWizardRouter(t)
	w, _ := doJSON(t, r, http.MethodGet, "/enrollments/wizard/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
