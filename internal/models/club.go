package models

import "time"

// Club represents an extracurricular club offered during a school term.
type Club struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	LocalName     string    `db:"local_name" json:"local_name,omitempty"`
	Category      string    `db:"category" json:"category"`
	Leader        string    `db:"leader" json:"leader,omitempty"`
	EnrollmentFee float64   `db:"enrollment_fee" json:"enrollment_fee"`
	MonthlyFee    float64   `db:"monthly_fee" json:"monthly_fee"`
	StartDate     time.Time `db:"start_date" json:"start_date"`
	EndDate       time.Time `db:"end_date" json:"end_date"`
	Capacity      int       `db:"capacity" json:"capacity"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ClubDetail extends Club with the live enrollment count used for
// capacity checks.
type ClubDetail struct {
	Club
	EnrolledCount int `db:"enrolled_count" json:"enrolled_count"`
}

// Full reports whether the club has no seats left.
func (c ClubDetail) Full() bool {
	return c.Capacity > 0 && c.EnrolledCount >= c.Capacity
}

// ClubFilter defines filter criteria for listing clubs.
type ClubFilter struct {
	Category  string
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
