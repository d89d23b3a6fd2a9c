package gateway

import (
	"context"
	"time"

	"visitor.kiosk/internal/core/model"
)

// Gateway is the output port to the visitor-log service, the sole system of
// record. Every operation is a single remote call; none are transactional
// with each other and none retry. Callers decide recovery.
type Gateway interface {
	// FetchOfficeLog returns the most recent same-day office log for the
	// ticket, or (nil, nil) when the ticket has none.
	FetchOfficeLog(ctx context.Context, ticketID string) (*model.OfficeLog, error)

	// FetchDepartmentLog returns the most recent same-day department log for
	// the ticket, or (nil, nil) when the ticket has none.
	FetchDepartmentLog(ctx context.Context, ticketID string) (*model.DepartmentLog, error)

	// FetchImagePair reports which visitor images exist for a filename token.
	FetchImagePair(ctx context.Context, token string) (model.ImagePair, error)

	// CreateDepartmentLog opens a department visit under an open office log.
	CreateDepartmentLog(ctx context.Context, officeLog *model.OfficeLog, deptID int64, reason string, loginAt time.Time) error

	// CloseDepartmentLog closes a department visit. Returns
	// model.ErrAlreadyClosed when the service reports the log was already
	// closed, which callers treat as recoverable.
	CloseDepartmentLog(ctx context.Context, strID, strDeptLogIn string, closeAt time.Time) error

	// CloseOfficeLog closes an office visit. markReturned tags the closure as
	// caused by an automatic transfer rather than a manual sign-out.
	CloseOfficeLog(ctx context.Context, strID, strLogIn string, closeAt time.Time, markReturned bool) error

	// SignOutOfficeLog closes an office visit through the system-initiated
	// sign-out operation, used when the visitor never entered a department.
	SignOutOfficeLog(ctx context.Context, strID, strLogIn string, closeAt time.Time) error

	// OpenOfficeLog creates a fresh office log for the same visitor under a
	// different office, carrying forward visitor, service and spec-service.
	OpenOfficeLog(ctx context.Context, prev *model.OfficeLog, newOfficeID int64, loginAt time.Time) error

	// DuplicateImage copies a stored visitor photo under a new filename.
	// Best effort; callers must not let a failure block their workflow.
	DuplicateImage(ctx context.Context, oldName, newName string) error
}
