package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-club-api/internal/models"
)

// StudentRepository handles persistence of students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by its ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentSummary, error) {
	const query = `SELECT s.id, s.full_name, s.grade, s.gender, s.birth_date, s.photo_url, s.active,
        s.created_at, s.updated_at, s.guardian_name, s.guardian_phone,
        (SELECT COUNT(*) FROM club_enrollments e WHERE e.student_id = s.id AND e.status = 'ACTIVE') AS club_count
        FROM students s WHERE s.id = $1`
	var student models.StudentSummary
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListEligibleForClub returns active students not already actively
// enrolled in the given club, for the wizard's student selection step.
func (r *StudentRepository) ListEligibleForClub(ctx context.Context, clubID string) ([]models.StudentSummary, error) {
	const query = `SELECT s.id, s.full_name, s.grade, s.gender, s.birth_date, s.photo_url, s.active,
        s.created_at, s.updated_at, s.guardian_name, s.guardian_phone,
        (SELECT COUNT(*) FROM club_enrollments e WHERE e.student_id = s.id AND e.status = 'ACTIVE') AS club_count
        FROM students s
        WHERE s.active = TRUE
          AND NOT EXISTS (
              SELECT 1 FROM club_enrollments e
              WHERE e.student_id = s.id AND e.club_id = $1 AND e.status = 'ACTIVE'
          )
        ORDER BY s.full_name ASC`
	var students []models.StudentSummary
	if err := r.db.SelectContext(ctx, &students, query, clubID); err != nil {
		return nil, fmt.Errorf("list eligible students: %w", err)
	}
	return students, nil
}
