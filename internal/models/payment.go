package models

import "time"

// PaymentStatus represents the lifecycle of a payment record.
type PaymentStatus string

// Possible payment statuses.
const (
	PaymentStatusDraft     PaymentStatus = "DRAFT"
	PaymentStatusConfirmed PaymentStatus = "CONFIRMED"
	PaymentStatusVoided    PaymentStatus = "VOIDED"
)

// Payment captures a fee payment made for a student.
type Payment struct {
	ID             string        `db:"id" json:"id"`
	StudentID      string        `db:"student_id" json:"student_id"`
	EnrollmentID   *string       `db:"enrollment_id" json:"enrollment_id,omitempty"`
	Amount         float64       `db:"amount" json:"amount"`
	Method         string        `db:"method" json:"method"`
	ReceiptNumber  *string       `db:"receipt_number" json:"receipt_number,omitempty"`
	TransactionRef *string       `db:"transaction_ref" json:"transaction_ref,omitempty"`
	PayerType      string        `db:"payer_type" json:"payer_type,omitempty"`
	PayerName      string        `db:"payer_name" json:"payer_name,omitempty"`
	PayerPhone     string        `db:"payer_phone" json:"payer_phone,omitempty"`
	Notes          string        `db:"notes" json:"notes,omitempty"`
	Status         PaymentStatus `db:"status" json:"status"`
	Version        int           `db:"version" json:"version"`
	Payload        []byte        `db:"payload" json:"-"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
	ConfirmedAt    *time.Time    `db:"confirmed_at" json:"confirmed_at,omitempty"`
}

// PaymentDetail enriches a payment with display context.
type PaymentDetail struct {
	Payment
	StudentName string `db:"student_name" json:"student_name"`
}
