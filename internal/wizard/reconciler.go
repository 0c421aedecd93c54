package wizard

import (
	"context"
	"errors"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-club-api/pkg/errors"
)

// ErrVersionConflict is returned by DraftStore implementations when an
// update targets a stale draft version. The reconciler surfaces it as a
// typed CONFLICT error so concurrent editors never overwrite each
// other silently.
var ErrVersionConflict = errors.New("draft version conflict")

// DraftRef identifies a persisted draft and its server-side version.
type DraftRef struct {
	ID      string
	Version int
}

// FinalRef is the result of a final submission.
type FinalRef struct {
	ID     string
	Number string
	Status string
}

// DraftStore is the remote persistence contract the reconciler drives.
// Implementations live in the repository layer.
type DraftStore interface {
	CreateDraft(ctx context.Context, data Data) (DraftRef, error)
	UpdateDraft(ctx context.Context, id string, data Data) (DraftRef, error)
	Finalize(ctx context.Context, id string, data Data) (FinalRef, error)
}

// Reconciler decides create-vs-update when persisting wizard progress
// and folds server-assigned identifiers back into machine state. It
// owns no retry policy: one failed attempt is surfaced to the caller.
type Reconciler struct {
	store  DraftStore
	logger *zap.Logger
}

// NewReconciler constructs a Reconciler.
func NewReconciler(store DraftStore, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{store: store, logger: logger}
}

// Save persists the data as a draft: a create when no remote id has
// been assigned yet, an update against that id afterwards. The remote
// id on the data is never mutated on failure.
func (r *Reconciler) Save(ctx context.Context, data Data) (DraftRef, error) {
	if data.RemoteID == "" {
		ref, err := r.store.CreateDraft(ctx, data)
		if err != nil {
			r.logger.Warn("draft create failed", zap.Error(err))
			return DraftRef{}, r.saveError(err)
		}
		r.logger.Debug("draft created", zap.String("draft_id", ref.ID))
		return ref, nil
	}

	ref, err := r.store.UpdateDraft(ctx, data.RemoteID, data)
	if err != nil {
		r.logger.Warn("draft update failed", zap.String("draft_id", data.RemoteID), zap.Error(err))
		return DraftRef{}, r.saveError(err)
	}
	return ref, nil
}

// BindMachine returns a SaveFunc for Machine.GoNext that saves through
// this reconciler and folds the assigned id back into the machine.
func (r *Reconciler) BindMachine(m *Machine) SaveFunc {
	return func(ctx context.Context, data Data) error {
		ref, err := r.Save(ctx, data)
		if err != nil {
			return err
		}
		m.AssignRemote(ref.ID, "", "", ref.Version)
		return nil
	}
}

// Submit commits the wizard terminally, creating the draft first when
// the session never saved one.
func (r *Reconciler) Submit(ctx context.Context, data Data) (FinalRef, error) {
	id := data.RemoteID
	if id == "" {
		ref, err := r.store.CreateDraft(ctx, data)
		if err != nil {
			return FinalRef{}, r.saveError(err)
		}
		id = ref.ID
		data.RemoteID = ref.ID
		data.Version = ref.Version
	}

	final, err := r.store.Finalize(ctx, id, data)
	if err != nil {
		r.logger.Warn("final submit failed", zap.String("draft_id", id), zap.Error(err))
		return FinalRef{}, r.saveError(err)
	}
	return final, nil
}

func (r *Reconciler) saveError(err error) error {
	if errors.Is(err, ErrVersionConflict) {
		return appErrors.Clone(appErrors.ErrConflict, "draft was modified by another session")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if msg := err.Error(); msg != "" {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
	}
	return appErrors.Clone(appErrors.ErrInternal, "failed to save enrollment draft")
}
