package models

import "time"

// EnrollmentStatus represents the lifecycle of a club enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. Drafts are wizard work-in-progress
// records; finalization flips them to ACTIVE and assigns a number.
const (
	EnrollmentStatusDraft     EnrollmentStatus = "DRAFT"
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
)

// ClubEnrollment captures a student's registration to a club.
type ClubEnrollment struct {
	ID               string           `db:"id" json:"id"`
	ClubID           string           `db:"club_id" json:"club_id"`
	StudentID        string           `db:"student_id" json:"student_id"`
	EnrollmentNumber *string          `db:"enrollment_number" json:"enrollment_number,omitempty"`
	Status           EnrollmentStatus `db:"status" json:"status"`
	Version          int              `db:"version" json:"version"`
	Payload          []byte           `db:"payload" json:"-"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
	FinalizedAt      *time.Time       `db:"finalized_at" json:"finalized_at,omitempty"`
}

// ClubEnrollmentDetail enriches an enrollment with display context.
type ClubEnrollmentDetail struct {
	ClubEnrollment
	ClubName    string `db:"club_name" json:"club_name"`
	StudentName string `db:"student_name" json:"student_name"`
}

// Pagination describes list metadata returned alongside collections.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
