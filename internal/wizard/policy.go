package wizard

import "strings"

// DefaultPhonePlaceholder is the bare country code pre-filled into
// phone inputs; a payer phone equal to it carries no real number.
const DefaultPhonePlaceholder = "+224"

// StepPolicy defines the step range of a wizard variant and its
// per-step validation. CanProceed is pure: it inspects the data and
// nothing else.
type StepPolicy interface {
	First() Step
	Last() Step
	CanProceed(step Step, data Data) bool
}

// Club enrollment wizard steps.
const (
	StepClubSelection    Step = 1
	StepStudentSelection Step = 2
	StepPaymentReview    Step = 3
	StepConfirmation     Step = 4
)

// EnrollmentPolicy validates the club enrollment wizard (steps 1..4).
type EnrollmentPolicy struct {
	// PhonePlaceholder overrides DefaultPhonePlaceholder when set.
	PhonePlaceholder string
}

func (p EnrollmentPolicy) First() Step { return StepClubSelection }
func (p EnrollmentPolicy) Last() Step  { return StepConfirmation }

// CanProceed reports whether the given step holds enough data to move
// forward. Payment is optional: a zero amount always passes the
// payment-review step so an enrollment can be saved unpaid.
func (p EnrollmentPolicy) CanProceed(step Step, data Data) bool {
	switch step {
	case StepClubSelection:
		return data.Club.ID != "" && data.Club.Name != ""
	case StepStudentSelection:
		return data.Student.ID != "" && data.Student.FullName != ""
	case StepPaymentReview:
		if data.Payment.Amount <= 0 {
			return true
		}
		return data.Payment.ReceiptNumber != "" &&
			data.Payment.Method != "" &&
			data.Payment.Payer.Name != "" &&
			phoneFilled(data.Payment.Payer.Phone, p.placeholder())
	default:
		return true
	}
}

func (p EnrollmentPolicy) placeholder() string {
	if p.PhonePlaceholder != "" {
		return p.PhonePlaceholder
	}
	return DefaultPhonePlaceholder
}

// Payment wizard steps.
const (
	StepPayStudent      Step = 0
	StepPayAmount       Step = 1
	StepPayMethod       Step = 2
	StepPayPayer        Step = 3
	StepPayReview       Step = 4
	StepPayConfirmation Step = 5
)

// PaymentPolicy validates the standalone payment wizard (steps 0..5).
type PaymentPolicy struct {
	PhonePlaceholder string
}

func (p PaymentPolicy) First() Step { return StepPayStudent }
func (p PaymentPolicy) Last() Step  { return StepPayConfirmation }

// CanProceed applies the payment wizard's rule set. Mobile money
// payments additionally require a transaction reference.
func (p PaymentPolicy) CanProceed(step Step, data Data) bool {
	switch step {
	case StepPayStudent:
		return data.Student.ID != "" && data.Student.FullName != ""
	case StepPayAmount:
		return data.Payment.Amount > 0
	case StepPayMethod:
		if data.Payment.Method == "" || data.Payment.ReceiptNumber == "" {
			return false
		}
		if data.Payment.Method == MethodMobileMoney && data.Payment.TransactionRef == "" {
			return false
		}
		return true
	case StepPayPayer:
		return data.Payment.Payer.Name != "" &&
			phoneFilled(data.Payment.Payer.Phone, p.placeholder())
	default:
		return true
	}
}

func (p PaymentPolicy) placeholder() string {
	if p.PhonePlaceholder != "" {
		return p.PhonePlaceholder
	}
	return DefaultPhonePlaceholder
}

// phoneFilled rejects empty values and the bare country-code
// placeholder, compared after trimming.
func phoneFilled(phone, placeholder string) bool {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return false
	}
	return trimmed != strings.TrimSpace(placeholder)
}
