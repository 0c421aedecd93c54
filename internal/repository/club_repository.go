package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-club-api/internal/models"
)

// ClubRepository handles persistence of clubs.
type ClubRepository struct {
	db *sqlx.DB
}

// NewClubRepository constructs the repository.
func NewClubRepository(db *sqlx.DB) *ClubRepository {
	return &ClubRepository{db: db}
}

const clubDetailColumns = `c.id, c.name, c.local_name, c.category, c.leader, c.enrollment_fee, c.monthly_fee,
        c.start_date, c.end_date, c.capacity, c.active, c.created_at, c.updated_at,
        (SELECT COUNT(*) FROM club_enrollments e WHERE e.club_id = c.id AND e.status = 'ACTIVE') AS enrolled_count`

// List returns clubs filtered by the provided criteria.
func (r *ClubRepository) List(ctx context.Context, filter models.ClubFilter) ([]models.ClubDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("c.category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(c.name ILIKE $%d OR c.local_name ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("c.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"name":       "c.name",
		"category":   "c.category",
		"start_date": "c.start_date",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "c.name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM clubs c%s ORDER BY %s %s LIMIT %d OFFSET %d",
		clubDetailColumns, clause, orderBy, order, size, offset)

	var clubs []models.ClubDetail
	if err := r.db.SelectContext(ctx, &clubs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list clubs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM clubs c%s", clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count clubs: %w", err)
	}
	return clubs, total, nil
}

// FindDetailByID returns a club with its live enrollment count.
func (r *ClubRepository) FindDetailByID(ctx context.Context, id string) (*models.ClubDetail, error) {
	query := fmt.Sprintf("SELECT %s FROM clubs c WHERE c.id = $1", clubDetailColumns)
	var detail models.ClubDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CountActiveEnrollments returns the number of active enrollments for
// the capacity re-check immediately before final confirmation.
func (r *ClubRepository) CountActiveEnrollments(ctx context.Context, clubID string) (int, error) {
	const query = `SELECT COUNT(*) FROM club_enrollments WHERE club_id = $1 AND status = 'ACTIVE'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, clubID); err != nil {
		return 0, fmt.Errorf("count club enrollments: %w", err)
	}
	return count, nil
}
