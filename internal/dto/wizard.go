package dto

import (
	"github.com/noah-isme/sma-club-api/internal/wizard"
)

// SelectClubRequest picks the club for an enrollment session.
type SelectClubRequest struct {
	ClubID string `json:"club_id" validate:"required"`
}

// SelectStudentRequest picks the student for a wizard session.
type SelectStudentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

// UpdatePaymentRequest carries a partial payment update. Absent fields
// leave the session's current values untouched.
type UpdatePaymentRequest struct {
	Amount         *float64 `json:"amount,omitempty"`
	Method         *string  `json:"method,omitempty" validate:"omitempty,oneof=cash bank_transfer mobile_money"`
	ReceiptNumber  *string  `json:"receipt_number,omitempty"`
	TransactionRef *string  `json:"transaction_ref,omitempty"`
	Notes          *string  `json:"notes,omitempty"`
	PayerType      *string  `json:"payer_type,omitempty" validate:"omitempty,oneof=father mother enrolling_person other"`
	PayerName      *string  `json:"payer_name,omitempty"`
	PayerPhone     *string  `json:"payer_phone,omitempty"`
	PayerEmail     *string  `json:"payer_email,omitempty" validate:"omitempty,email"`
	CustomTotal    *float64 `json:"custom_total,omitempty"`
	IsProrated     *bool    `json:"is_prorated,omitempty"`
}

// Patch converts the request into a wizard payment patch.
func (r UpdatePaymentRequest) Patch() wizard.PaymentPatch {
	patch := wizard.PaymentPatch{
		Amount:         r.Amount,
		ReceiptNumber:  r.ReceiptNumber,
		TransactionRef: r.TransactionRef,
		Notes:          r.Notes,
		PayerName:      r.PayerName,
		PayerPhone:     r.PayerPhone,
		PayerEmail:     r.PayerEmail,
		CustomTotal:    r.CustomTotal,
		IsProrated:     r.IsProrated,
	}
	if r.Method != nil {
		method := wizard.PaymentMethod(*r.Method)
		patch.Method = &method
	}
	if r.PayerType != nil {
		payerType := wizard.PayerType(*r.PayerType)
		patch.PayerType = &payerType
	}
	return patch
}

// ResumeDraftRequest reopens a persisted enrollment draft in a new
// wizard session.
type ResumeDraftRequest struct {
	DraftID string `json:"draft_id" validate:"required"`
}

// GotoStepRequest jumps the session to a target step.
type GotoStepRequest struct {
	Step int `json:"step" validate:"min=0"`
}

// StateResponse is the wizard session snapshot returned by every
// session-scoped endpoint.
type StateResponse struct {
	SessionID      string      `json:"session_id"`
	CurrentStep    int         `json:"current_step"`
	CompletedSteps []int       `json:"completed_steps"`
	CanProceed     bool        `json:"can_proceed"`
	Data           wizard.Data `json:"data"`
	IsDirty        bool        `json:"is_dirty"`
	IsSubmitting   bool        `json:"is_submitting"`
	Error          string      `json:"error,omitempty"`
}

// NewStateResponse builds a snapshot response from machine state.
func NewStateResponse(sessionID string, state wizard.State, canProceed bool) StateResponse {
	completed := make([]int, 0, len(state.CompletedSteps))
	for _, step := range state.CompletedSteps {
		completed = append(completed, int(step))
	}
	return StateResponse{
		SessionID:      sessionID,
		CurrentStep:    int(state.CurrentStep),
		CompletedSteps: completed,
		CanProceed:     canProceed,
		Data:           state.Data,
		IsDirty:        state.IsDirty,
		IsSubmitting:   state.IsSubmitting,
		Error:          state.Error,
	}
}

// ProrationResponse is the fee projection preview for a session.
type ProrationResponse struct {
	wizard.Breakdown
	BillableTotal float64 `json:"billable_total"`
}

// SubmitResponse reports the outcome of a final submission.
type SubmitResponse struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Status string `json:"status"`
}

// ReceiptNumberResponse carries a pre-filled receipt number suggestion.
type ReceiptNumberResponse struct {
	ReceiptNumber string `json:"receipt_number"`
}

// ReceiptLinkResponse carries a signed, time-limited download link.
type ReceiptLinkResponse struct {
	Token     string `json:"token"`
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}
