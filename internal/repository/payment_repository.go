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

// PaymentRepository persists payments and acts as the payment wizard's
// draft store.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// CreateDraft inserts a new draft payment from the wizard payload.
func (r *PaymentRepository) CreateDraft(ctx context.Context, data wizard.Data) (wizard.DraftRef, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return wizard.DraftRef{}, fmt.Errorf("marshal payment payload: %w", err)
	}

	now := time.Now().UTC()
	payment := models.Payment{
		ID:         uuid.NewString(),
		StudentID:  data.Student.ID,
		Amount:     data.Payment.Amount,
		Method:     string(data.Payment.Method),
		PayerType:  string(data.Payment.Payer.Type),
		PayerName:  data.Payment.Payer.Name,
		PayerPhone: data.Payment.Payer.Phone,
		Notes:      data.Payment.Notes,
		Status:     models.PaymentStatusDraft,
		Version:    1,
		Payload:    payload,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	const query = `INSERT INTO payments (id, student_id, amount, method, payer_type, payer_name, payer_phone, notes, status, version, payload, created_at, updated_at)
        VALUES (:id, :student_id, :amount, :method, :payer_type, :payer_name, :payer_phone, :notes, :status, :version, :payload, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return wizard.DraftRef{}, fmt.Errorf("create payment draft: %w", err)
	}
	return wizard.DraftRef{ID: payment.ID, Version: payment.Version}, nil
}

// UpdateDraft replaces a draft payment, guarded by its version.
func (r *PaymentRepository) UpdateDraft(ctx context.Context, id string, data wizard.Data) (wizard.DraftRef, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return wizard.DraftRef{}, fmt.Errorf("marshal payment payload: %w", err)
	}

	const query = `UPDATE payments
        SET student_id = $3, amount = $4, method = $5, payer_type = $6, payer_name = $7, payer_phone = $8,
            notes = $9, payload = $10, version = version + 1, updated_at = $11
        WHERE id = $1 AND version = $2 AND status = 'DRAFT'
        RETURNING version`
	var version int
	err = r.db.GetContext(ctx, &version, query,
		id, data.Version, data.Student.ID, data.Payment.Amount, string(data.Payment.Method),
		string(data.Payment.Payer.Type), data.Payment.Payer.Name, data.Payment.Payer.Phone,
		data.Payment.Notes, payload, time.Now().UTC())
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
		return wizard.DraftRef{}, fmt.Errorf("update payment draft: %w", err)
	}
	return wizard.DraftRef{ID: id, Version: version}, nil
}

// Finalize confirms a draft payment with the receipt number captured in
// the wizard. The number is re-validated here: submission fails when it
// was already consumed by another payment.
func (r *PaymentRepository) Finalize(ctx context.Context, id string, data wizard.Data) (wizard.FinalRef, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return wizard.FinalRef{}, fmt.Errorf("marshal payment payload: %w", err)
	}

	taken, err := r.receiptNumberTaken(ctx, data.Payment.ReceiptNumber, id)
	if err != nil {
		return wizard.FinalRef{}, err
	}
	if taken {
		return wizard.FinalRef{}, fmt.Errorf("receipt number %s already used", data.Payment.ReceiptNumber)
	}

	const query = `UPDATE payments
        SET status = 'CONFIRMED', receipt_number = $2, transaction_ref = NULLIF($3, ''), payload = $4,
            version = version + 1, confirmed_at = $5, updated_at = $5
        WHERE id = $1 AND status = 'DRAFT'
        RETURNING receipt_number`
	var number string
	if err := r.db.GetContext(ctx, &number, query, id, data.Payment.ReceiptNumber, data.Payment.TransactionRef, payload, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return wizard.FinalRef{}, err
		}
		return wizard.FinalRef{}, fmt.Errorf("finalize payment: %w", err)
	}
	return wizard.FinalRef{ID: id, Number: number, Status: string(models.PaymentStatusConfirmed)}, nil
}

// AttachEnrollment links a confirmed payment to the enrollment it paid.
func (r *PaymentRepository) AttachEnrollment(ctx context.Context, id, enrollmentID string) error {
	const query = `UPDATE payments SET enrollment_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, enrollmentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("attach payment enrollment: %w", err)
	}
	return nil
}

// FindDetailByID returns a payment with display context.
func (r *PaymentRepository) FindDetailByID(ctx context.Context, id string) (*models.PaymentDetail, error) {
	const query = `SELECT p.id, p.student_id, p.enrollment_id, p.amount, p.method, p.receipt_number, p.transaction_ref,
        p.payer_type, p.payer_name, p.payer_phone, p.notes, p.status, p.version, p.payload,
        p.created_at, p.updated_at, p.confirmed_at,
        s.full_name AS student_name
        FROM payments p
        LEFT JOIN students s ON s.id = p.student_id
        WHERE p.id = $1`
	var detail models.PaymentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (r *PaymentRepository) receiptNumberTaken(ctx context.Context, number, excludeID string) (bool, error) {
	if number == "" {
		return false, nil
	}
	const query = `SELECT 1 FROM payments WHERE receipt_number = $1 AND id <> $2 LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, number, excludeID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check receipt number: %w", err)
	}
	return true, nil
}

func (r *PaymentRepository) draftExists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT 1 FROM payments WHERE id = $1 LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check payment draft: %w", err)
	}
	return true, nil
}
