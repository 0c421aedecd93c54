package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnrollmentPolicyClubStep(t *testing.T) {
	p := EnrollmentPolicy{}
	assert.False(t, p.CanProceed(StepClubSelection, Data{}))
	assert.False(t, p.CanProceed(StepClubSelection, Data{Club: ClubSelection{ID: "club-1"}}))
	assert.True(t, p.CanProceed(StepClubSelection, Data{Club: ClubSelection{ID: "club-1", Name: "Chess Club"}}))
}

func TestEnrollmentPolicyStudentStep(t *testing.T) {
	p := EnrollmentPolicy{}
	assert.False(t, p.CanProceed(StepStudentSelection, Data{}))
	assert.True(t, p.CanProceed(StepStudentSelection, Data{Student: StudentSelection{ID: "stu-1", FullName: "Aissatou Bah"}}))
}

func TestEnrollmentPolicyPaymentGating(t *testing.T) {
	p := EnrollmentPolicy{}
	data := Data{Payment: PaymentDetails{
		Amount: 5000,
		Method: MethodCash,
		Payer:  Payer{Name: "A", Phone: "+224123"},
	}}
	assert.False(t, p.CanProceed(StepPaymentReview, data), "missing receipt number blocks the step")

	data.Payment.ReceiptNumber = "REC-1"
	assert.True(t, p.CanProceed(StepPaymentReview, data))
}

func TestEnrollmentPolicyZeroAmountAlwaysPasses(t *testing.T) {
	p := EnrollmentPolicy{}
	assert.True(t, p.CanProceed(StepPaymentReview, Data{}), "unpaid enrollments are allowed")
	assert.True(t, p.CanProceed(StepPaymentReview, Data{Payment: PaymentDetails{Amount: 0, Method: MethodCash}}))
}

func TestEnrollmentPolicyPlaceholderPhoneRejected(t *testing.T) {
	p := EnrollmentPolicy{}
	data := Data{Payment: PaymentDetails{
		Amount:        5000,
		Method:        MethodCash,
		ReceiptNumber: "REC-1",
		Payer:         Payer{Name: "A", Phone: "+224"},
	}}
	assert.False(t, p.CanProceed(StepPaymentReview, data), "bare country code is not a phone number")

	data.Payment.Payer.Phone = " +224 "
	assert.False(t, p.CanProceed(StepPaymentReview, data), "trimmed comparison")

	data.Payment.Payer.Phone = "+224628000000"
	assert.True(t, p.CanProceed(StepPaymentReview, data))
}

func TestEnrollmentPolicyCustomPlaceholder(t *testing.T) {
	p := EnrollmentPolicy{PhonePlaceholder: "+33"}
	data := Data{Payment: PaymentDetails{
		Amount:        5000,
		Method:        MethodCash,
		ReceiptNumber: "REC-1",
		Payer:         Payer{Name: "A", Phone: "+33"},
	}}
	assert.False(t, p.CanProceed(StepPaymentReview, data))
	data.Payment.Payer.Phone = "+224"
	assert.True(t, p.CanProceed(StepPaymentReview, data))
}

func TestEnrollmentPolicyConfirmationAlwaysPasses(t *testing.T) {
	p := EnrollmentPolicy{}
	assert.True(t, p.CanProceed(StepConfirmation, Data{}))
}

func TestPaymentPolicySteps(t *testing.T) {
	p := PaymentPolicy{}

	assert.False(t, p.CanProceed(StepPayStudent, Data{}))
	assert.True(t, p.CanProceed(StepPayStudent, Data{Student: StudentSelection{ID: "stu-1", FullName: "Mamadou Sow"}}))

	assert.False(t, p.CanProceed(StepPayAmount, Data{}))
	assert.True(t, p.CanProceed(StepPayAmount, Data{Payment: PaymentDetails{Amount: 25000}}))

	assert.False(t, p.CanProceed(StepPayPayer, Data{Payment: PaymentDetails{Payer: Payer{Name: "B", Phone: "+224"}}}))
	assert.True(t, p.CanProceed(StepPayPayer, Data{Payment: PaymentDetails{Payer: Payer{Name: "B", Phone: "+224620112233"}}}))

	assert.True(t, p.CanProceed(StepPayReview, Data{}))
	assert.True(t, p.CanProceed(StepPayConfirmation, Data{}))
}

func TestPaymentPolicyMobileMoneyRequiresTransactionRef(t *testing.T) {
	p := PaymentPolicy{}
	data := Data{Payment: PaymentDetails{
		Method:        MethodMobileMoney,
		ReceiptNumber: "MOB-7",
	}}
	assert.False(t, p.CanProceed(StepPayMethod, data))

	data.Payment.TransactionRef = "OM-8812734"
	assert.True(t, p.CanProceed(StepPayMethod, data))

	cash := Data{Payment: PaymentDetails{Method: MethodCash, ReceiptNumber: "REC-7"}}
	assert.True(t, p.CanProceed(StepPayMethod, cash), "cash needs no transaction reference")
}
