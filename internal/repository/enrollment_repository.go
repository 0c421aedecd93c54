package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-club-api/internal/models"
	"github.com/noah-isme/sma-club-api/internal/wizard"
)

// EnrollmentRepository persists club enrollments and acts as the
// wizard's draft store: drafts carry the full wizard payload and an
// optimistic version; finalization assigns the enrollment number.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// CreateDraft inserts a new draft enrollment from the wizard payload.
func (r *EnrollmentRepository) CreateDraft(ctx context.Context, data wizard.Data) (wizard.DraftRef, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return wizard.DraftRef{}, fmt.Errorf("marshal draft payload: %w", err)
	}

	enrollment := models.ClubEnrollment{
		ID:        uuid.NewString(),
		ClubID:    data.Club.ID,
		StudentID: data.Student.ID,
		Status:    models.EnrollmentStatusDraft,
		Version:   1,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	const query = `INSERT INTO club_enrollments (id, club_id, student_id, status, version, payload, created_at, updated_at)
        VALUES (:id, :club_id, :student_id, :status, :version, :payload, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return wizard.DraftRef{}, fmt.Errorf("create enrollment draft: %w", err)
	}
	return wizard.DraftRef{ID: enrollment.ID, Version: enrollment.Version}, nil
}

// UpdateDraft replaces a draft's payload, guarded by its version. A
// version mismatch on an existing row reports ErrVersionConflict.
func (r *EnrollmentRepository) UpdateDraft(ctx context.Context, id string, data wizard.Data) (wizard.DraftRef, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return wizard.DraftRef{}, fmt.Errorf("marshal draft payload: %w", err)
	}

	const query = `UPDATE club_enrollments
        SET club_id = $3, student_id = $4, payload = $5, version = version + 1, updated_at = $6
        WHERE id = $1 AND version = $2 AND status = 'DRAFT'
        RETURNING version`
	var version int
	err = r.db.GetContext(ctx, &version, query, id, data.Version, data.Club.ID, data.Student.ID, payload, time.Now().UTC())
	if err == sql.ErrNoRows {
		exists, existsErr := r.draftExists(ctx, id)
		if existsErr != nil {
			return wizard.DraftRef{}, existsErr
		}
		if exists {
			return wizard.DraftRef{}, wizard.ErrVersionConflict
		}
		return wizard.DraftRef{}, sql.ErrNoRows
	}
	if err != nil {
		return wizard.DraftRef{}, fmt.Errorf("update enrollment draft: %w", err)
	}
	return wizard.DraftRef{ID: id, Version: version}, nil
}

// Finalize promotes a draft to an active enrollment, assigning its
// enrollment number from the dedicated sequence.
func (r *EnrollmentRepository) Finalize(ctx context.Context, id string, data wizard.Data) (wizard.FinalRef, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return wizard.FinalRef{}, fmt.Errorf("marshal final payload: %w", err)
	}

	const query = `UPDATE club_enrollments
        SET status = 'ACTIVE', payload = $2, version = version + 1, finalized_at = $3, updated_at = $3,
            enrollment_number = 'ENR-' || to_char(now(), 'YYYY') || '-' || lpad(nextval('enrollment_number_seq')::text, 5, '0')
        WHERE id = $1 AND status = 'DRAFT'
        RETURNING enrollment_number`
	var number string
	if err := r.db.GetContext(ctx, &number, query, id, payload, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return wizard.FinalRef{}, err
		}
		return wizard.FinalRef{}, fmt.Errorf("finalize enrollment: %w", err)
	}
	return wizard.FinalRef{ID: id, Number: number, Status: string(models.EnrollmentStatusActive)}, nil
}

// FindDetailByID returns an enrollment with display context.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.ClubEnrollmentDetail, error) {
	const query = `SELECT e.id, e.club_id, e.student_id, e.enrollment_number, e.status, e.version, e.payload,
        e.created_at, e.updated_at, e.finalized_at,
        c.name AS club_name, s.full_name AS student_name
        FROM club_enrollments e
        LEFT JOIN clubs c ON c.id = e.club_id
        LEFT JOIN students s ON s.id = e.student_id
        WHERE e.id = $1`
	var detail models.ClubEnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListActiveByClub returns active enrollments for roster exports.
func (r *EnrollmentRepository) ListActiveByClub(ctx context.Context, clubID string) ([]models.ClubEnrollmentDetail, error) {
	const query = `SELECT e.id, e.club_id, e.student_id, e.enrollment_number, e.status, e.version, e.payload,
        e.created_at, e.updated_at, e.finalized_at,
        c.name AS club_name, s.full_name AS student_name
        FROM club_enrollments e
        LEFT JOIN clubs c ON c.id = e.club_id
        LEFT JOIN students s ON s.id = e.student_id
        WHERE e.club_id = $1 AND e.status = 'ACTIVE'
        ORDER BY s.full_name ASC`
	var enrollments []models.ClubEnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, clubID); err != nil {
		return nil, fmt.Errorf("list club roster: %w", err)
	}
	return enrollments, nil
}

func (r *EnrollmentRepository) draftExists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT 1 FROM club_enrollments WHERE id = $1 LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment draft: %w", err)
	}
	return true, nil
}
