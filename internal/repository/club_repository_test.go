package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clubDetailRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "local_name", "category", "leader", "enrollment_fee", "monthly_fee",
		"start_date", "end_date", "capacity", "active", "created_at", "updated_at", "enrolled_count",
	}).AddRow("club-1", "Chess Club", "Club d'échecs", "academic", "Mme Diallo", 20000.0, 50000.0,
		now, now.AddDate(0, 4, 0), 30, true, now, now, 12)
}

func TestClubRepositoryFindDetailByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClubRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM clubs c WHERE c.id").
		WithArgs("club-1").
		WillReturnRows(clubDetailRows())

	club, err := repo.FindDetailByID(context.Background(), "club-1")
	require.NoError(t, err)
	assert.Equal(t, "Chess Club", club.Name)
	assert.Equal(t, 12, club.EnrolledCount)
	assert.False(t, club.Full())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClubRepositoryCountActiveEnrollments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClubRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM club_enrollments").
		WithArgs("club-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(30))

	count, err := repo.CountActiveEnrollments(context.Background(), "club-1")
	require.NoError(t, err)
	assert.Equal(t, 30, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
