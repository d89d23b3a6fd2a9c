package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"visitor.kiosk/internal/core/model"
	"visitor.kiosk/internal/ports/gateway"
)

// TransferReconciler moves a visitor's active session from a stale office
// (and possibly department) into the office the kiosk belongs to. Ordering is
// fixed: department close, then office close, then office open — a department
// may not stay open under a closed office, and the new office log may only be
// opened once every close for the visitor has landed.
//
// There is no compensation. A step failing aborts the rest of the cascade and
// leaves the earlier mutations committed on the remote service; the error
// names the ticket and the step reached so an operator can reconcile by hand.
type TransferReconciler struct {
	gw       gateway.Gateway
	migrator *ImageMigrator
	now      func() time.Time
}

// NewTransferReconciler wires a reconciler to the gateway and photo migrator.
func NewTransferReconciler(gw gateway.Gateway, migrator *ImageMigrator) *TransferReconciler {
	return &TransferReconciler{
		gw:       gw,
		migrator: migrator,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Transfer runs the cascade for the stale office log (and department log,
// which may be nil or already closed) and returns the freshly opened office
// log for the record-visit handoff.
func (r *TransferReconciler) Transfer(ctx context.Context, stale *model.OfficeLog, staleDept *model.DepartmentLog, newOfficeID int64) (*model.OfficeLog, error) {
	transferAt := r.now()

	if staleDept != nil && staleDept.DeptLogOut == nil {
		// Case B: the old department visit is still open and must be closed
		// before its parent office log.
		err := r.gw.CloseDepartmentLog(ctx, staleDept.StrID, staleDept.StrDeptLogIn, transferAt)
		if err != nil && !errors.Is(err, model.ErrAlreadyClosed) {
			return nil, fmt.Errorf("transfer of ticket %s aborted at department close: %w", stale.StrID, err)
		}
	}

	if staleDept != nil {
		// Cases A and B: plain office close, tagged returned so reporting can
		// tell a transfer-close from a manual sign-out.
		if err := r.gw.CloseOfficeLog(ctx, stale.StrID, stale.StrLogIn, transferAt, true); err != nil {
			return nil, fmt.Errorf("transfer of ticket %s aborted at office close: %w", stale.StrID, err)
		}
	} else {
		// Case C: the visitor signed into the old office but never reached a
		// department; the dedicated sign-out operation tags the closure as
		// system-initiated.
		if err := r.gw.SignOutOfficeLog(ctx, stale.StrID, stale.StrLogIn, transferAt); err != nil {
			return nil, fmt.Errorf("transfer of ticket %s aborted at office sign-out: %w", stale.StrID, err)
		}
	}

	if err := r.gw.OpenOfficeLog(ctx, stale, newOfficeID, transferAt); err != nil {
		return nil, fmt.Errorf("transfer of ticket %s aborted at office open: %w", stale.StrID, err)
	}

	// Photo continuity is best effort; Migrate never surfaces a failure.
	r.migrator.Migrate(ctx, stale.LogIn, transferAt)

	log.Ctx(ctx).Info().
		Str("ticket", stale.StrID).
		Int64("from_office", stale.OfficeID).
		Int64("to_office", newOfficeID).
		Msg("Visitor transferred")

	return &model.OfficeLog{
		ID:          stale.ID,
		StrID:       stale.StrID,
		LogIn:       transferAt,
		StrLogIn:    transferAt.Format(model.WireTimeLayout),
		LogDate:     transferAt.Format("2006-01-02"),
		VisitorID:   stale.VisitorID,
		OfficeID:    newOfficeID,
		ServiceID:   stale.ServiceID,
		SpecService: stale.SpecService,
	}, nil
}
