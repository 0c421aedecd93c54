// Package wizard implements the step state machine, validation policy,
// fee proration, and draft reconciliation backing the club enrollment
// and payment wizards. It is pure in-memory logic: transport, storage,
// and rendering live with the callers.
package wizard

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Step is a position in a wizard flow. Ranges are contiguous and owned
// by the StepPolicy of each wizard variant.
type Step int

// PayerType identifies who is financially responsible for a payment.
type PayerType string

// Possible payer types.
const (
	PayerFather          PayerType = "father"
	PayerMother          PayerType = "mother"
	PayerEnrollingPerson PayerType = "enrolling_person"
	PayerOther           PayerType = "other"
)

// PaymentMethod identifies how a payment is made.
type PaymentMethod string

// Possible payment methods.
const (
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodMobileMoney  PaymentMethod = "mobile_money"
)

// ClubSelection accumulates the club fields captured by the first step.
type ClubSelection struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	LocalName     string        `json:"local_name,omitempty"`
	Category      string        `json:"category,omitempty"`
	Leader        string        `json:"leader,omitempty"`
	EnrollmentFee float64       `json:"enrollment_fee"`
	MonthlyFee    float64       `json:"monthly_fee"`
	StartDate     time.Time     `json:"start_date,omitempty"`
	EndDate       time.Time     `json:"end_date,omitempty"`
	Capacity      int           `json:"capacity"`
	EnrolledCount int           `json:"enrolled_count"`
}

// StudentSelection accumulates the student fields captured by the
// student step.
type StudentSelection struct {
	ID            string    `json:"id"`
	FullName      string    `json:"full_name"`
	Grade         string    `json:"grade,omitempty"`
	PhotoURL      string    `json:"photo_url,omitempty"`
	BirthDate     time.Time `json:"birth_date,omitempty"`
	Gender        string    `json:"gender,omitempty"`
	GuardianName  string    `json:"guardian_name,omitempty"`
	GuardianPhone string    `json:"guardian_phone,omitempty"`
}

// Payer carries contact details for the person paying.
type Payer struct {
	Type  PayerType `json:"type,omitempty"`
	Name  string    `json:"name,omitempty"`
	Phone string    `json:"phone,omitempty"`
	Email string    `json:"email,omitempty"`
}

// PaymentDetails accumulates the payment fields of either wizard.
type PaymentDetails struct {
	Amount         float64       `json:"amount"`
	Method         PaymentMethod `json:"method,omitempty"`
	ReceiptNumber  string        `json:"receipt_number,omitempty"`
	TransactionRef string        `json:"transaction_ref,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	Payer          Payer         `json:"payer"`
}

// Data is the form record a wizard session accumulates. It is owned
// exclusively by one session and merged into step by step; it is never
// replaced wholesale.
type Data struct {
	Club    ClubSelection    `json:"club"`
	Student StudentSelection `json:"student"`
	Payment PaymentDetails   `json:"payment"`

	// Remote record state folded back after saves and final submit.
	RemoteID         string `json:"remote_id,omitempty"`
	EnrollmentNumber string `json:"enrollment_number,omitempty"`
	Status           string `json:"status,omitempty"`
	Version          int    `json:"version"`

	// Operator billing overrides. CustomTotal, when set, takes
	// precedence over both computed totals; the calculator never
	// produces it.
	CustomTotal *float64 `json:"custom_total,omitempty"`
	IsProrated  bool     `json:"is_prorated"`
}

// ClubPatch is a shallow partial update of the club selection.
type ClubPatch struct {
	ID            *string
	Name          *string
	LocalName     *string
	Category      *string
	Leader        *string
	EnrollmentFee *float64
	MonthlyFee    *float64
	StartDate     *time.Time
	EndDate       *time.Time
	Capacity      *int
	EnrolledCount *int
}

// StudentPatch is a shallow partial update of the student selection.
type StudentPatch struct {
	ID            *string
	FullName      *string
	Grade         *string
	PhotoURL      *string
	BirthDate     *time.Time
	Gender        *string
	GuardianName  *string
	GuardianPhone *string
}

// PaymentPatch is a shallow partial update of the payment fields.
type PaymentPatch struct {
	Amount         *float64
	Method         *PaymentMethod
	ReceiptNumber  *string
	TransactionRef *string
	Notes          *string
	PayerType      *PayerType
	PayerName      *string
	PayerPhone     *string
	PayerEmail     *string
	CustomTotal    *float64
	IsProrated     *bool
}

// State is a snapshot of one wizard session.
type State struct {
	CurrentStep    Step   `json:"current_step"`
	CompletedSteps []Step `json:"completed_steps"`
	Data           Data   `json:"data"`
	IsDirty        bool   `json:"is_dirty"`
	IsSubmitting   bool   `json:"is_submitting"`
	Error          string `json:"error,omitempty"`
}

// Action is a member of the enumerated transition set consumed by the
// reducer.
type Action interface {
	actionName() string
}

type advanceAction struct{}
type retreatAction struct{}
type jumpAction struct{ target Step }
type completeAction struct{ step Step }
type mergeClubAction struct{ patch ClubPatch }
type mergeStudentAction struct{ patch StudentPatch }
type mergePaymentAction struct{ patch PaymentPatch }
type setErrorAction struct{ message string }
type setSubmittingAction struct{ submitting bool }
type assignRemoteAction struct {
	id      string
	number  string
	status  string
	version int
}
type resetAction struct{}

func (advanceAction) actionName() string       { return "advance" }
func (retreatAction) actionName() string       { return "retreat" }
func (jumpAction) actionName() string          { return "jump" }
func (completeAction) actionName() string      { return "complete" }
func (mergeClubAction) actionName() string     { return "merge_club" }
func (mergeStudentAction) actionName() string  { return "merge_student" }
func (mergePaymentAction) actionName() string  { return "merge_payment" }
func (setErrorAction) actionName() string      { return "set_error" }
func (setSubmittingAction) actionName() string { return "set_submitting" }
func (assignRemoteAction) actionName() string  { return "assign_remote" }
func (resetAction) actionName() string         { return "reset" }

// reduce applies an action to a state and returns the next state. Guard
// failures are silent no-ops: the reducer never errors, callers consult
// the policy to learn why a transition did not happen.
func reduce(state State, action Action, policy StepPolicy) State {
	switch a := action.(type) {
	case advanceAction:
		if state.CurrentStep >= policy.Last() {
			return state
		}
		state.CompletedSteps = insertStep(state.CompletedSteps, state.CurrentStep)
		state.CurrentStep++
		return state

	case retreatAction:
		if state.CurrentStep > policy.First() {
			state.CurrentStep--
		}
		return state

	case jumpAction:
		if a.target < policy.First() || a.target > policy.Last() {
			return state
		}
		if containsStep(state.CompletedSteps, a.target) || a.target == state.CurrentStep+1 {
			state.CurrentStep = a.target
		}
		return state

	case completeAction:
		if a.step < policy.First() || a.step > policy.Last() {
			return state
		}
		state.CompletedSteps = insertStep(state.CompletedSteps, a.step)
		return state

	case mergeClubAction:
		state.Data.Club = applyClubPatch(state.Data.Club, a.patch)
		return touched(state)

	case mergeStudentAction:
		state.Data.Student = applyStudentPatch(state.Data.Student, a.patch)
		return touched(state)

	case mergePaymentAction:
		state.Data = applyPaymentPatch(state.Data, a.patch)
		return touched(state)

	case setErrorAction:
		state.Error = a.message
		state.IsSubmitting = false
		return state

	case setSubmittingAction:
		state.IsSubmitting = a.submitting
		return state

	case assignRemoteAction:
		if a.id != "" {
			state.Data.RemoteID = a.id
		}
		if a.number != "" {
			state.Data.EnrollmentNumber = a.number
		}
		if a.status != "" {
			state.Data.Status = a.status
		}
		if a.version > state.Data.Version {
			state.Data.Version = a.version
		}
		return state

	case resetAction:
		return initialState(policy)
	}
	return state
}

// touched marks the state dirty and dismisses any previous error: a
// user edit always clears a stale error banner.
func touched(state State) State {
	state.IsDirty = true
	state.Error = ""
	return state
}

func initialState(policy StepPolicy) State {
	return State{CurrentStep: policy.First()}
}

func insertStep(steps []Step, step Step) []Step {
	if containsStep(steps, step) {
		return steps
	}
	next := make([]Step, 0, len(steps)+1)
	next = append(next, steps...)
	next = append(next, step)
	sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
	return next
}

func containsStep(steps []Step, step Step) bool {
	for _, s := range steps {
		if s == step {
			return true
		}
	}
	return false
}

func applyClubPatch(club ClubSelection, p ClubPatch) ClubSelection {
	if p.ID != nil {
		club.ID = *p.ID
	}
	if p.Name != nil {
		club.Name = *p.Name
	}
	if p.LocalName != nil {
		club.LocalName = *p.LocalName
	}
	if p.Category != nil {
		club.Category = *p.Category
	}
	if p.Leader != nil {
		club.Leader = *p.Leader
	}
	if p.EnrollmentFee != nil {
		club.EnrollmentFee = *p.EnrollmentFee
	}
	if p.MonthlyFee != nil {
		club.MonthlyFee = *p.MonthlyFee
	}
	if p.StartDate != nil {
		club.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		club.EndDate = *p.EndDate
	}
	if p.Capacity != nil {
		club.Capacity = *p.Capacity
	}
	if p.EnrolledCount != nil {
		club.EnrolledCount = *p.EnrolledCount
	}
	return club
}

func applyStudentPatch(student StudentSelection, p StudentPatch) StudentSelection {
	if p.ID != nil {
		student.ID = *p.ID
	}
	if p.FullName != nil {
		student.FullName = *p.FullName
	}
	if p.Grade != nil {
		student.Grade = *p.Grade
	}
	if p.PhotoURL != nil {
		student.PhotoURL = *p.PhotoURL
	}
	if p.BirthDate != nil {
		student.BirthDate = *p.BirthDate
	}
	if p.Gender != nil {
		student.Gender = *p.Gender
	}
	if p.GuardianName != nil {
		student.GuardianName = *p.GuardianName
	}
	if p.GuardianPhone != nil {
		student.GuardianPhone = *p.GuardianPhone
	}
	return student
}

func applyPaymentPatch(data Data, p PaymentPatch) Data {
	if p.Amount != nil {
		data.Payment.Amount = *p.Amount
	}
	if p.Method != nil {
		data.Payment.Method = *p.Method
	}
	if p.ReceiptNumber != nil {
		data.Payment.ReceiptNumber = *p.ReceiptNumber
	}
	if p.TransactionRef != nil {
		data.Payment.TransactionRef = *p.TransactionRef
	}
	if p.Notes != nil {
		data.Payment.Notes = *p.Notes
	}
	if p.PayerType != nil {
		data.Payment.Payer.Type = *p.PayerType
	}
	if p.PayerName != nil {
		data.Payment.Payer.Name = *p.PayerName
	}
	if p.PayerPhone != nil {
		data.Payment.Payer.Phone = *p.PayerPhone
	}
	if p.PayerEmail != nil {
		data.Payment.Payer.Email = *p.PayerEmail
	}
	if p.CustomTotal != nil {
		data.CustomTotal = p.CustomTotal
	}
	if p.IsProrated != nil {
		data.IsProrated = *p.IsProrated
	}
	return data
}

// SaveFunc is the side effect a host may interpose before a forward
// transition, typically persisting a draft. A non-nil error aborts the
// transition.
type SaveFunc func(ctx context.Context, data Data) error

// Machine holds one wizard session's state and applies transitions
// through the reducer. All rejected transitions are silent no-ops so
// callers may invoke operations speculatively.
type Machine struct {
	mu     sync.Mutex
	policy StepPolicy
	state  State
}

// NewMachine builds a machine positioned at the policy's first step.
func NewMachine(policy StepPolicy) *Machine {
	return &Machine{policy: policy, state: initialState(policy)}
}

// NewMachineFromData rebuilds a machine from a previously saved data
// payload, replaying completion until the first step whose data is
// still incomplete. Used to resume a persisted draft in a new session.
func NewMachineFromData(policy StepPolicy, data Data) *Machine {
	state := initialState(policy)
	state.Data = data
	for step := policy.First(); step < policy.Last() && policy.CanProceed(step, state.Data); step++ {
		state.CompletedSteps = insertStep(state.CompletedSteps, step)
		state.CurrentStep = step + 1
	}
	return &Machine{policy: policy, state: state}
}

// GetState returns a snapshot copy of the current state.
func (m *Machine) GetState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

// Dispatch applies an action and returns the resulting snapshot.
func (m *Machine) Dispatch(action Action) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = reduce(m.state, action, m.policy)
	return m.snapshot()
}

// Policy exposes the step policy governing this machine.
func (m *Machine) Policy() StepPolicy {
	return m.policy
}

// CanProceed reports whether the current step's validation passes.
func (m *Machine) CanProceed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.policy.CanProceed(m.state.CurrentStep, m.state.Data)
}

// GoNext completes the current step and advances by one. When save is
// non-nil it runs first with IsSubmitting raised; if it fails the
// transition does not occur, the error lands on the state, and the
// machine stays on the current step.
func (m *Machine) GoNext(ctx context.Context, save SaveFunc) error {
	m.mu.Lock()
	if m.state.CurrentStep >= m.policy.Last() {
		m.mu.Unlock()
		return nil
	}
	data := m.state.Data
	if save != nil {
		m.state = reduce(m.state, setSubmittingAction{submitting: true}, m.policy)
	}
	m.mu.Unlock()

	if save != nil {
		if err := m.runSave(ctx, save, data); err != nil {
			m.Dispatch(setErrorAction{message: err.Error()})
			return err
		}
	}

	m.mu.Lock()
	m.state = reduce(m.state, advanceAction{}, m.policy)
	m.state = reduce(m.state, setSubmittingAction{submitting: false}, m.policy)
	m.mu.Unlock()
	return nil
}

func (m *Machine) runSave(ctx context.Context, save SaveFunc, data Data) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return save(ctx, data)
}

// GoPrevious moves back one step. Completed steps are untouched.
func (m *Machine) GoPrevious() State {
	return m.Dispatch(retreatAction{})
}

// GoToStep jumps to an already-completed step or the immediate next
// one. Any other target is silently rejected.
func (m *Machine) GoToStep(target Step) State {
	return m.Dispatch(jumpAction{target: target})
}

// CompleteStep records a step as completed. Idempotent.
func (m *Machine) CompleteStep(step Step) State {
	return m.Dispatch(completeAction{step: step})
}

// MergeClubData folds a partial club update into the session data.
func (m *Machine) MergeClubData(patch ClubPatch) State {
	return m.Dispatch(mergeClubAction{patch: patch})
}

// MergeStudentData folds a partial student update into the session data.
func (m *Machine) MergeStudentData(patch StudentPatch) State {
	return m.Dispatch(mergeStudentAction{patch: patch})
}

// MergePaymentData folds a partial payment update into the session data.
func (m *Machine) MergePaymentData(patch PaymentPatch) State {
	return m.Dispatch(mergePaymentAction{patch: patch})
}

// SetError records an error message and ends any in-flight operation.
func (m *Machine) SetError(message string) State {
	return m.Dispatch(setErrorAction{message: message})
}

// SetSubmitting toggles the advisory in-flight flag.
func (m *Machine) SetSubmitting(submitting bool) State {
	return m.Dispatch(setSubmittingAction{submitting: submitting})
}

// AssignRemote folds server-assigned identifiers back into the data.
func (m *Machine) AssignRemote(id, number, status string, version int) State {
	return m.Dispatch(assignRemoteAction{id: id, number: number, status: status, version: version})
}

// Reset restores the initial empty state.
func (m *Machine) Reset() State {
	return m.Dispatch(resetAction{})
}

func (m *Machine) snapshot() State {
	snap := m.state
	snap.CompletedSteps = append([]Step(nil), m.state.CompletedSteps...)
	return snap
}
