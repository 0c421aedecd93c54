package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-club-api/internal/dto"
	"github.com/noah-isme/sma-club-api/internal/models"
	"github.com/noah-isme/sma-club-api/internal/wizard"
	appErrors "github.com/noah-isme/sma-club-api/pkg/errors"
)

type paymentStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentSummary, error)
}

type receiptSequencer interface {
	Next(ctx context.Context, method string) (int64, error)
}

type paymentDetailReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.PaymentDetail, error)
}

// ReceiptPrefixes maps payment methods to receipt number prefixes.
type ReceiptPrefixes struct {
	Cash        string
	Bank        string
	MobileMoney string
}

// ForMethod resolves the prefix for the given payment method.
func (p ReceiptPrefixes) ForMethod(method wizard.PaymentMethod) string {
	switch method {
	case wizard.MethodBankTransfer:
		return p.Bank
	case wizard.MethodMobileMoney:
		return p.MobileMoney
	default:
		return p.Cash
	}
}

// PaymentWizardService orchestrates the standalone fee payment wizard.
type PaymentWizardService struct {
	sessions   *SessionStore
	reconciler *wizard.Reconciler
	students   paymentStudentReader
	counter    receiptSequencer
	prefixes   ReceiptPrefixes
	details    paymentDetailReader
	receipts   receiptEnqueuer
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	policy     wizard.PaymentPolicy
	schoolName string
}

// NewPaymentWizardService constructs the orchestrator.
func NewPaymentWizardService(
	sessions *SessionStore,
	reconciler *wizard.Reconciler,
	students paymentStudentReader,
	counter receiptSequencer,
	prefixes ReceiptPrefixes,
	details paymentDetailReader,
	receipts receiptEnqueuer,
	metrics *MetricsService,
	policy wizard.PaymentPolicy,
	schoolName string,
	validate *validator.Validate,
	logger *zap.Logger,
) *PaymentWizardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentWizardService{
		sessions:   sessions,
		reconciler: reconciler,
		students:   students,
		counter:    counter,
		prefixes:   prefixes,
		details:    details,
		receipts:   receipts,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		policy:     policy,
		schoolName: schoolName,
	}
}

// Start opens a new payment wizard session.
func (s *PaymentWizardService) Start(ctx context.Context) dto.StateResponse {
	session := s.sessions.Create(WizardPayment, s.policy)
	s.metrics.SetLiveSessions(WizardPayment, s.sessions.Len())
	s.logger.Info("payment wizard started", zap.String("session_id", session.ID))
	return s.snapshot(session)
}

// Detail returns a persisted payment with its display context.
func (s *PaymentWizardService) Detail(ctx context.Context, id string) (*models.PaymentDetail, error) {
	if s.details == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
	}
	detail, err := s.details.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return detail, nil
}

// GetState returns the current session snapshot.
func (s *PaymentWizardService) GetState(ctx context.Context, sessionID string) (dto.StateResponse, error) {
	session, err := s.sessions.Get(sessionID, WizardPayment)
	if err != nil {
		return dto.StateResponse{}, err
	}
	return s.snapshot(session), nil
}

// SelectStudent loads the student being paid for and merges them into
// the session.
func (s *PaymentWizardService) SelectStudent(ctx context.Context, sessionID string, req dto.SelectStudentRequest) (dto.StateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StateResponse{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student selection payload")
	}
	session, err := s.sessions.Get(sessionID, WizardPayment)
	if err != nil {
		return dto.StateResponse{}, err
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return dto.StateResponse{}, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return dto.StateResponse{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	session.Machine.MergeStudentData(wizard.StudentPatch{
		ID:            &student.ID,
		FullName:      &student.FullName,
		Grade:         &student.Grade,
		PhotoURL:      &student.PhotoURL,
		GuardianName:  &student.GuardianName,
		GuardianPhone: &student.GuardianPhone,
	})
	s.metrics.RecordTransition(WizardPayment, "merge_student")
	return s.snapshot(session), nil
}

// UpdatePayment merges a partial payment update into the session.
func (s *PaymentWizardService) UpdatePayment(ctx context.Context, sessionID string, req dto.UpdatePaymentRequest) (dto.StateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StateResponse{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	session, err := s.sessions.Get(sessionID, WizardPayment)
	if err != nil {
		return dto.StateResponse{}, err
	}
	session.Machine.MergePaymentData(req.Patch())
	s.metrics.RecordTransition(WizardPayment, "merge_payment")
	return s.snapshot(session), nil
}

// SuggestReceiptNumber pre-fills the next receipt number for the
// session's payment method and merges it into the data. The number is
// advisory; uniqueness is re-validated at submit.
func (s *PaymentWizardService) SuggestReceiptNumber(ctx context.Context, sessionID string) (dto.ReceiptNumberResponse, error) {
	session, err := s.sessions.Get(sessionID, WizardPayment)
	if err != nil {
		return dto.ReceiptNumberResponse{}, err
	}

	method := session.Machine.GetState().Data.Payment.Method
	if method == "" {
		return dto.ReceiptNumberResponse{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "choose a payment method first")
	}
	seq, err := s.counter.Next(ctx, string(method))
	if err != nil {
		return dto.ReceiptNumberResponse{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve receipt number")
	}

	number := fmt.Sprintf("%s-%d-%05d", s.prefixes.ForMethod(method), time.Now().UTC().Year(), seq)
	session.Machine.MergePaymentData(wizard.PaymentPatch{ReceiptNumber: &number})
	return dto.ReceiptNumberResponse{ReceiptNumber: number}, nil
}

// Next advances the session one step, saving the draft first once a
// student has been chosen.
func (s *PaymentWizardService) Next(ctx context.Context, sessionID string) (dto.StateResponse, error) {
	session, err := s.sessions.Get(sessionID, WizardPayment)
	if err != nil {
		return dto.StateResponse{}, err
	}

	state := session.Machine.GetState()
	if !session.Machine.CanProceed() {
		return s.snapshot(session), nil
	}

	var save wizard.SaveFunc
	if state.CurrentStep >= wizard.StepPayAmount {
		save = s.reconciler.BindMachine(session.Machine)
	}

	if err := session.Machine.GoNext(ctx, save); err != nil {
		s.metrics.RecordSaveFailure(WizardPayment)
		return s.snapshot(session), err
	}
	s.metrics.RecordTransition(WizardPayment, "advance")
	return s.snapshot(session), nil
}

// Previous moves back one step.
func (s *PaymentWizardService) Previous(ctx context.Context, sessionID string) (dto.StateResponse, error) {
	session, err := s.sessions.Get(sessionID, WizardPayment)
	if err != nil {
		return dto.StateResponse{}, err
	}
	session.Machine.GoPrevious()
	s.metrics.RecordTransition(WizardPayment, "retreat")
	return s.snapshot(session), nil
}

// Goto jumps to a completed step or the immediate next one.
func (s *PaymentWizardService) Goto(ctx context.Context, sessionID string, req dto.GotoStepRequest) (dto.StateResponse, error) {
	session, err := s.sessions.Get(sessionID, WizardPayment)
	if err != nil {
		return dto.StateResponse{}, err
	}
	session.Machine.GoToStep(wizard.Step(req.Step))
	s.metrics.RecordTransition(WizardPayment, "jump")
	return s.snapshot(session), nil
}

// Reset clears the session back to its initial state.
func (s *PaymentWizardService) Reset(ctx context.Context, sessionID string) (dto.StateResponse, error) {
	session, err := s.sessions.Get(sessionID, WizardPayment)
	if err != nil {
		return dto.StateResponse{}, err
	}
	session.Machine.Reset()
	s.metrics.RecordTransition(WizardPayment, "reset")
	return s.snapshot(session), nil
}

// Submit confirms the payment: the receipt number's uniqueness is
// re-validated inside the finalize, the receipt render is queued, and
// the session is closed on success.
func (s *PaymentWizardService) Submit(ctx context.Context, sessionID string) (dto.SubmitResponse, error) {
	session, err := s.sessions.Get(sessionID, WizardPayment)
	if err != nil {
		return dto.SubmitResponse{}, err
	}

	data := session.Machine.GetState().Data
	for _, step := range []wizard.Step{wizard.StepPayStudent, wizard.StepPayAmount, wizard.StepPayMethod, wizard.StepPayPayer} {
		if !s.policy.CanProceed(step, data) {
			return dto.SubmitResponse{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "payment details are incomplete")
		}
	}

	session.Machine.SetSubmitting(true)
	final, err := s.reconciler.Submit(ctx, data)
	if err != nil {
		session.Machine.SetError(err.Error())
		s.metrics.RecordSubmit(WizardPayment, false)
		return dto.SubmitResponse{}, err
	}
	session.Machine.AssignRemote(final.ID, final.Number, final.Status, 0)
	session.Machine.SetSubmitting(false)

	if s.receipts != nil {
		doc := buildReceiptDocument(s.schoolName, "Payment Receipt", final.Number, data)
		if err := s.receipts.Enqueue(final.ID, doc); err != nil {
			s.logger.Warn("receipt enqueue failed", zap.String("payment_id", final.ID), zap.Error(err))
		}
	}

	s.sessions.Delete(session.ID)
	s.metrics.SetLiveSessions(WizardPayment, s.sessions.Len())
	s.metrics.RecordSubmit(WizardPayment, true)
	s.logger.Info("payment submitted",
		zap.String("payment_id", final.ID),
		zap.String("receipt_number", final.Number),
		zap.String("student_id", data.Student.ID))

	return dto.SubmitResponse{ID: final.ID, Number: final.Number, Status: final.Status}, nil
}

func (s *PaymentWizardService) snapshot(session *Session) dto.StateResponse {
	state := session.Machine.GetState()
	return dto.NewStateResponse(session.ID, state, session.Machine.CanProceed())
}
