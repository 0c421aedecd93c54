package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-club-api/internal/dto"
	"github.com/noah-isme/sma-club-api/internal/models"
	"github.com/noah-isme/sma-club-api/internal/wizard"
	appErrors "github.com/noah-isme/sma-club-api/pkg/errors"
	"github.com/noah-isme/sma-club-api/pkg/export"
)

type clubSelectionReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.ClubDetail, error)
	CountActiveEnrollments(ctx context.Context, clubID string) (int, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentSummary, error)
	ListEligibleForClub(ctx context.Context, clubID string) ([]models.StudentSummary, error)
}

type receiptEnqueuer interface {
	Enqueue(paymentID string, doc export.ReceiptDocument) error
}

type draftReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.ClubEnrollmentDetail, error)
}

// paymentLedger records the money captured with an enrollment as a
// confirmed payment row linked to it.
type paymentLedger interface {
	CreateDraft(ctx context.Context, data wizard.Data) (wizard.DraftRef, error)
	Finalize(ctx context.Context, id string, data wizard.Data) (wizard.FinalRef, error)
	AttachEnrollment(ctx context.Context, id, enrollmentID string) error
}

// EnrollmentWizardService orchestrates the club enrollment wizard:
// session lifecycle, step data merging, guarded transitions with draft
// saves, fee proration previews, and the final submit.
type EnrollmentWizardService struct {
	sessions   *SessionStore
	reconciler *wizard.Reconciler
	clubs      clubSelectionReader
	clubSvc    *ClubService
	students   studentReader
	receipts   receiptEnqueuer
	drafts     draftReader
	ledger     paymentLedger
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	policy     wizard.EnrollmentPolicy
	schoolName string
}

// NewEnrollmentWizardService constructs the orchestrator.
func NewEnrollmentWizardService(
	sessions *SessionStore,
	reconciler *wizard.Reconciler,
	clubs clubSelectionReader,
	clubSvc *ClubService,
	students studentReader,
	receipts receiptEnqueuer,
	drafts draftReader,
	ledger paymentLedger,
	metrics *MetricsService,
	policy wizard.EnrollmentPolicy,
	schoolName string,
	validate *validator.Validate,
	logger *zap.Logger,
) *EnrollmentWizardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentWizardService{
		sessions:   sessions,
		reconciler: reconciler,
		clubs:      clubs,
		clubSvc:    clubSvc,
		students:   students,
		receipts:   receipts,
		drafts:     drafts,
		ledger:     ledger,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		policy:     policy,
		schoolName: schoolName,
	}
}

// Start opens a new enrollment wizard session.
func (s *EnrollmentWizardService) Start(ctx context.Context) dto.StateResponse {
	session := s.sessions.Create(WizardEnrollment, s.policy)
	s.metrics.SetLiveSessions(WizardEnrollment, s.sessions.Len())
	s.logger.Info("enrollment wizard started", zap.String("session_id", session.ID))
	return s.snapshot(session)
}

// Resume reopens a persisted enrollment draft in a fresh session. The
// machine is rebuilt from the saved payload, positioned at the first
// step whose data is still incomplete.
func (s *EnrollmentWizardService) Resume(ctx context.Context, req dto.ResumeDraftRequest) (dto.StateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StateResponse{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resume payload")
	}
	if s.drafts == nil {
		return dto.StateResponse{}, appErrors.Clone(appErrors.ErrNotFound, "enrollment draft not found")
	}

	detail, err := s.drafts.FindDetailByID(ctx, req.DraftID)
	if err != nil {
		if err == sql.ErrNoRows {
			return dto.StateResponse{}, appErrors.Clone(appErrors.ErrNotFound, "enrollment draft not found")
		}
		return dto.StateResponse{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment draft")
	}
	if detail.Status != models.EnrollmentStatusDraft {
		return dto.StateResponse{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment is no longer a draft")
	}

	var data wizard.Data
	if len(detail.Payload) > 0 {
		if err := json.Unmarshal(detail.Payload, &data); err != nil {
			return dto.StateResponse{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "corrupt enrollment draft payload")
		}
	}
	data.RemoteID = detail.ID
	data.Version = detail.Version

	session := s.sessions.Adopt(WizardEnrollment, wizard.NewMachineFromData(s.policy, data))
	s.metrics.SetLiveSessions(WizardEnrollment, s.sessions.Len())
	s.logger.Info("enrollment draft resumed",
		zap.String("session_id", session.ID),
		zap.String("draft_id", detail.ID))
	return s.snapshot(session), nil
}

// GetState returns the current session snapshot.
func (s *EnrollmentWizardService) GetState(ctx context.Context, sessionID string) (dto.StateResponse, error) {
	session, err := s.sessions.Get(sessionID, WizardEnrollment)
	if err != nil {
		return dto.StateResponse{}, err
	}
	return s.snapshot(session), nil
}

// SelectClub loads the club and merges it into the session. A full
// club is rejected up front; capacity is re-checked again at submit.
func (s *EnrollmentWizardService) SelectClub(ctx context.Context, sessionID string, req dto.SelectClubRequest) (dto.StateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StateResponse{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid club selection payload")
	}
	session, err := s.sessions.Get(sessionID, WizardEnrollment)
	if err != nil {
		return dto.StateResponse{}, err
	}

	club, err := s.clubSvc.Get(ctx, req.ClubID)
	if err != nil {
		return dto.StateResponse{}, err
	}
	if !club.Active {
		return dto.StateResponse{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "club is not open for enrollment")
	}
	if club.Full() {
		return dto.StateResponse{}, appErrors.Clone(appErrors.ErrCapacityFull, fmt.Sprintf("club %s is at capacity", club.Name))
	}

	session.Machine.MergeClubData(wizard.ClubPatch{
		ID:            &club.ID,
		Name:          &club.Name,
		LocalName:     &club.LocalName,
		Category:      &club.Category,
		Leader:        &club.Leader,
		EnrollmentFee: &club.EnrollmentFee,
		MonthlyFee:    &club.MonthlyFee,
		StartDate:     &club.StartDate,
		EndDate:       &club.EndDate,
		Capacity:      &club.Capacity,
		EnrolledCount: &club.EnrolledCount,
	})
	s.metrics.RecordTransition(WizardEnrollment, "merge_club")
	return s.snapshot(session), nil
}

// EligibleStudents lists active students not already enrolled in the
// session's selected club.
func (s *EnrollmentWizardService) EligibleStudents(ctx context.Context, sessionID string) ([]models.StudentSummary, error) {
	session, err := s.sessions.Get(sessionID, WizardEnrollment)
	if err != nil {
		return nil, err
	}
	clubID := session.Machine.GetState().Data.Club.ID
	if clubID == "" {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "select a club first")
	}
	students, err := s.students.ListEligibleForClub(ctx, clubID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list eligible students")
	}
	return students, nil
}

// SelectStudent loads the student and merges them into the session.
func (s *EnrollmentWizardService) SelectStudent(ctx context.Context, sessionID string, req dto.SelectStudentRequest) (dto.StateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StateResponse{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student selection payload")
	}
	session, err := s.sessions.Get(sessionID, WizardEnrollment)
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
	if !student.Active {
		return dto.StateResponse{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "student inactive")
	}

	session.Machine.MergeStudentData(wizard.StudentPatch{
		ID:            &student.ID,
		FullName:      &student.FullName,
		Grade:         &student.Grade,
		PhotoURL:      &student.PhotoURL,
		BirthDate:     &student.BirthDate,
		Gender:        &student.Gender,
		GuardianName:  &student.GuardianName,
		GuardianPhone: &student.GuardianPhone,
	})
	s.metrics.RecordTransition(WizardEnrollment, "merge_student")
	return s.snapshot(session), nil
}

// UpdatePayment merges a partial payment update into the session.
func (s *EnrollmentWizardService) UpdatePayment(ctx context.Context, sessionID string, req dto.UpdatePaymentRequest) (dto.StateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StateResponse{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	session, err := s.sessions.Get(sessionID, WizardEnrollment)
	if err != nil {
		return dto.StateResponse{}, err
	}
	session.Machine.MergePaymentData(req.Patch())
	s.metrics.RecordTransition(WizardEnrollment, "merge_payment")
	return s.snapshot(session), nil
}

// Proration returns the month-by-month fee projection for the
// session's selected club, with the amount the operator would be
// billed under the current overrides.
func (s *EnrollmentWizardService) Proration(ctx context.Context, sessionID string) (dto.ProrationResponse, error) {
	session, err := s.sessions.Get(sessionID, WizardEnrollment)
	if err != nil {
		return dto.ProrationResponse{}, err
	}
	data := session.Machine.GetState().Data
	breakdown := wizard.ComputeBreakdown(data.Club.StartDate, data.Club.EndDate, data.Club.MonthlyFee, data.Club.EnrollmentFee, time.Now())
	return dto.ProrationResponse{
		Breakdown:     breakdown,
		BillableTotal: wizard.BillableTotal(data, breakdown),
	}, nil
}

// Next advances the session one step. From the student step onward the
// draft is saved first; a failed save blocks the transition and leaves
// the error on the session.
func (s *EnrollmentWizardService) Next(ctx context.Context, sessionID string) (dto.StateResponse, error) {
	session, err := s.sessions.Get(sessionID, WizardEnrollment)
	if err != nil {
		return dto.StateResponse{}, err
	}

	state := session.Machine.GetState()
	if !session.Machine.CanProceed() {
		return s.snapshot(session), nil
	}

	var save wizard.SaveFunc
	if state.CurrentStep >= wizard.StepStudentSelection {
		save = s.reconciler.BindMachine(session.Machine)
	}

	if err := session.Machine.GoNext(ctx, save); err != nil {
		s.metrics.RecordSaveFailure(WizardEnrollment)
		return s.snapshot(session), err
	}
	s.metrics.RecordTransition(WizardEnrollment, "advance")
	return s.snapshot(session), nil
}

// Previous moves back one step.
func (s *EnrollmentWizardService) Previous(ctx context.Context, sessionID string) (dto.StateResponse, error) {
	session, err := s.sessions.Get(sessionID, WizardEnrollment)
	if err != nil {
		return dto.StateResponse{}, err
	}
	session.Machine.GoPrevious()
	s.metrics.RecordTransition(WizardEnrollment, "retreat")
	return s.snapshot(session), nil
}

// Goto jumps to a completed step or the immediate next one; other
// targets leave the session unchanged.
func (s *EnrollmentWizardService) Goto(ctx context.Context, sessionID string, req dto.GotoStepRequest) (dto.StateResponse, error) {
	session, err := s.sessions.Get(sessionID, WizardEnrollment)
	if err != nil {
		return dto.StateResponse{}, err
	}
	session.Machine.GoToStep(wizard.Step(req.Step))
	s.metrics.RecordTransition(WizardEnrollment, "jump")
	return s.snapshot(session), nil
}

// Reset clears the session back to its initial state.
func (s *EnrollmentWizardService) Reset(ctx context.Context, sessionID string) (dto.StateResponse, error) {
	session, err := s.sessions.Get(sessionID, WizardEnrollment)
	if err != nil {
		return dto.StateResponse{}, err
	}
	session.Machine.Reset()
	s.metrics.RecordTransition(WizardEnrollment, "reset")
	return s.snapshot(session), nil
}

// Submit finalizes the enrollment: capacity is re-checked against the
// live count, the draft is promoted to an active enrollment with its
// assigned number, and the receipt render is queued when a payment was
// captured. The session is closed on success.
func (s *EnrollmentWizardService) Submit(ctx context.Context, sessionID string) (dto.SubmitResponse, error) {
	session, err := s.sessions.Get(sessionID, WizardEnrollment)
	if err != nil {
		return dto.SubmitResponse{}, err
	}

	state := session.Machine.GetState()
	data := state.Data
	if data.Club.ID == "" || data.Student.ID == "" {
		return dto.SubmitResponse{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment is incomplete")
	}
	if !s.policy.CanProceed(wizard.StepPaymentReview, data) {
		return dto.SubmitResponse{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "payment details are incomplete")
	}

	if data.Club.Capacity > 0 {
		count, err := s.clubs.CountActiveEnrollments(ctx, data.Club.ID)
		if err != nil {
			return dto.SubmitResponse{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify club capacity")
		}
		if count >= data.Club.Capacity {
			s.metrics.RecordSubmit(WizardEnrollment, false)
			return dto.SubmitResponse{}, appErrors.Clone(appErrors.ErrCapacityFull, fmt.Sprintf("club %s filled up while enrolling", data.Club.Name))
		}
	}

	session.Machine.SetSubmitting(true)
	final, err := s.reconciler.Submit(ctx, data)
	if err != nil {
		session.Machine.SetError(err.Error())
		s.metrics.RecordSubmit(WizardEnrollment, false)
		return dto.SubmitResponse{}, err
	}
	session.Machine.AssignRemote(final.ID, final.Number, final.Status, 0)
	session.Machine.SetSubmitting(false)

	s.clubSvc.InvalidateCache(ctx, data.Club.ID)

	paymentID := s.recordLedgerPayment(ctx, data, final)

	if s.receipts != nil && data.Payment.Amount > 0 {
		doc := buildReceiptDocument(s.schoolName, "Club Enrollment Receipt", data.Payment.ReceiptNumber, data)
		doc.Lines = append(doc.Lines, export.ReceiptLine{Label: "Enrollment", Value: final.Number})
		key := paymentID
		if key == "" {
			key = final.ID
		}
		if err := s.receipts.Enqueue(key, doc); err != nil {
			s.logger.Warn("receipt enqueue failed", zap.String("enrollment_id", final.ID), zap.Error(err))
		}
	}

	s.sessions.Delete(session.ID)
	s.metrics.SetLiveSessions(WizardEnrollment, s.sessions.Len())
	s.metrics.RecordSubmit(WizardEnrollment, true)
	s.logger.Info("enrollment submitted",
		zap.String("enrollment_id", final.ID),
		zap.String("number", final.Number),
		zap.String("club_id", data.Club.ID),
		zap.String("student_id", data.Student.ID))

	return dto.SubmitResponse{ID: final.ID, Number: final.Number, Status: final.Status}, nil
}

// recordLedgerPayment writes the money captured with the enrollment
// into the payments ledger and links it to the final record. The
// enrollment is already committed at this point, so ledger failures are
// logged and the submit still succeeds.
func (s *EnrollmentWizardService) recordLedgerPayment(ctx context.Context, data wizard.Data, final wizard.FinalRef) string {
	if s.ledger == nil || data.Payment.Amount <= 0 {
		return ""
	}

	ledgerData := data
	ledgerData.RemoteID = ""
	ledgerData.Version = 0

	ref, err := s.ledger.CreateDraft(ctx, ledgerData)
	if err == nil {
		ledgerData.RemoteID = ref.ID
		ledgerData.Version = ref.Version
		if _, err = s.ledger.Finalize(ctx, ref.ID, ledgerData); err == nil {
			err = s.ledger.AttachEnrollment(ctx, ref.ID, final.ID)
		}
	}
	if err != nil {
		s.logger.Error("payment ledger record failed",
			zap.String("enrollment_id", final.ID),
			zap.Error(err))
		return ""
	}
	return ref.ID
}

func (s *EnrollmentWizardService) snapshot(session *Session) dto.StateResponse {
	state := session.Machine.GetState()
	return dto.NewStateResponse(session.ID, state, session.Machine.CanProceed())
}

func buildReceiptDocument(schoolName, title, number string, data wizard.Data) export.ReceiptDocument {
	lines := []export.ReceiptLine{
		{Label: "Student", Value: data.Student.FullName},
	}
	if data.Club.Name != "" {
		lines = append(lines, export.ReceiptLine{Label: "Club", Value: data.Club.Name})
	}
	if data.Payment.Payer.Name != "" {
		lines = append(lines, export.ReceiptLine{Label: "Payer", Value: data.Payment.Payer.Name})
	}
	if data.Payment.Payer.Phone != "" {
		lines = append(lines, export.ReceiptLine{Label: "Phone", Value: data.Payment.Payer.Phone})
	}
	if data.Payment.Method != "" {
		lines = append(lines, export.ReceiptLine{Label: "Method", Value: string(data.Payment.Method)})
	}
	if data.Payment.TransactionRef != "" {
		lines = append(lines, export.ReceiptLine{Label: "Reference", Value: data.Payment.TransactionRef})
	}
	return export.ReceiptDocument{
		SchoolName:    schoolName,
		Title:         title,
		ReceiptNumber: number,
		IssuedAt:      time.Now(),
		Lines:         lines,
		Amount:        data.Payment.Amount,
	}
}
