package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Grade     string    `db:"grade" json:"grade"`
	Gender    string    `db:"gender" json:"gender"`
	BirthDate time.Time `db:"birth_date" json:"birth_date"`
	PhotoURL  string    `db:"photo_url" json:"photo_url,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StudentSummary is the eligible-student view served to the wizard's
// student selection step: identity plus guardian contacts and any
// existing club memberships.
type StudentSummary struct {
	Student
	GuardianName  string `db:"guardian_name" json:"guardian_name,omitempty"`
	GuardianPhone string `db:"guardian_phone" json:"guardian_phone,omitempty"`
	ClubCount     int    `db:"club_count" json:"club_count"`
}
