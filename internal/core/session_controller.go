package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"visitor.kiosk/internal/core/model"
	"visitor.kiosk/internal/ports/gateway"
	"visitor.kiosk/pkg/metrics"
)

// SessionState is where the current scan sits in its lifecycle.
type SessionState string

const (
	StateIdle            SessionState = "IDLE"
	StateClassifying     SessionState = "CLASSIFYING"
	StateRecordVisit     SessionState = "RECORD_VISIT"
	StateConfirmTransfer SessionState = "CONFIRM_TRANSFER"
	StateSignOut         SessionState = "SIGN_OUT"
)

// LastFailure records a workflow that died mid-flight, with enough context
// for an operator to reconcile the remote logs by hand.
type LastFailure struct {
	Ticket string `json:"ticket"`
	Step   string `json:"step"`
	Error  string `json:"error"`
}

// Snapshot is the controller state the presentation layer renders.
type Snapshot struct {
	State          SessionState         `json:"state"`
	SessionID      string               `json:"sessionId,omitempty"`
	Ticket         string               `json:"ticket,omitempty"`
	Classification model.Classification `json:"classification,omitempty"`
	OfficeLog      *model.OfficeLog     `json:"officeLog,omitempty"`
	DeptLog        *model.DepartmentLog `json:"deptLog,omitempty"`
	Images         model.ImagePair      `json:"images"`
	Notice         string               `json:"notice,omitempty"`
	LastFailure    *LastFailure         `json:"lastFailure,omitempty"`
}

// SessionController owns the in-memory state of the single scan a kiosk
// processes at a time. The mutex is held across each trigger, remote calls
// included; a scan arriving while another is in flight waits and is then
// rejected by the Idle gate, which matches the device suppressing decode
// while a result is on screen.
type SessionController struct {
	gw         gateway.Gateway
	reconciler *TransferReconciler
	now        func() time.Time

	mu          sync.Mutex
	state       SessionState
	sessionID   string
	ticket      string
	target      model.Department
	class       model.Classification
	officeLog   *model.OfficeLog
	deptLog     *model.DepartmentLog
	images      model.ImagePair
	notice      string
	lastFailure *LastFailure
}

// NewSessionController creates an idle controller.
func NewSessionController(gw gateway.Gateway, reconciler *TransferReconciler) *SessionController {
	return &SessionController{
		gw:         gw,
		reconciler: reconciler,
		now:        func() time.Time { return time.Now().UTC() },
		state:      StateIdle,
	}
}

// SubmitScan classifies a decoded ticket against the target department and
// moves the session to the workflow the classification picked. Rejected when
// a previous scan has not reached Idle yet.
func (c *SessionController) SubmitScan(ctx context.Context, ticket string, target model.Department) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return model.ErrScanInProgress
	}

	c.state = StateClassifying
	c.sessionID = uuid.NewString()
	c.ticket = ticket
	c.target = target
	c.notice = ""

	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.ticket", ticket))
	logger := log.Ctx(ctx).With().Str("session_id", c.sessionID).Str("ticket", ticket).Logger()

	officeLog, err := c.gw.FetchOfficeLog(ctx, ticket)
	if err != nil {
		c.reset()
		logger.Error().Err(err).Msg("Failed to fetch office log")
		return fmt.Errorf("failed to process ticket: %w", err)
	}

	deptLog, err := c.gw.FetchDepartmentLog(ctx, ticket)
	if err != nil {
		c.reset()
		logger.Error().Err(err).Msg("Failed to fetch department log")
		return fmt.Errorf("failed to process ticket: %w", err)
	}

	res := Classify(officeLog, deptLog, target)
	metrics.ScansTotal.WithLabelValues(string(res.Class)).Inc()
	logger.Info().Str("classification", string(res.Class)).Msg("Ticket classified")

	c.class = res.Class
	switch res.Class {
	case model.ClassNotFound:
		c.reset()
		return model.ErrTicketNotFound

	case model.ClassAlreadyLoggedOut:
		c.reset()
		return model.ErrAlreadyLoggedOut

	case model.ClassSameOfficeActive:
		c.officeLog = res.OfficeLog
		c.images = c.fetchImages(ctx, res.OfficeLog.LogIn)
		c.state = StateRecordVisit

	case model.ClassSameOfficeSignOut:
		c.officeLog = res.OfficeLog
		c.deptLog = res.DeptLog
		c.state = StateSignOut

	case model.ClassCrossOfficeTransfer:
		c.officeLog = res.OfficeLog
		c.deptLog = res.DeptLog
		c.state = StateConfirmTransfer
	}

	return nil
}

// SubmitVisitPurpose opens a department log for the current office log. The
// purpose must be non-blank; blank input is rejected before any remote call.
func (c *SessionController) SubmitVisitPurpose(ctx context.Context, purpose string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRecordVisit {
		return model.ErrInvalidState
	}

	purpose = strings.TrimSpace(purpose)
	if purpose == "" {
		return model.ErrEmptyPurpose
	}

	if err := c.gw.CreateDepartmentLog(ctx, c.officeLog, c.target.ID, purpose, c.now()); err != nil {
		c.failScan("create department log", err)
		log.Ctx(ctx).Error().Err(err).Str("ticket", c.ticket).Msg("Failed to create department log")
		c.reset()
		return fmt.Errorf("failed to process ticket: %w", err)
	}

	metrics.VisitsRecordedTotal.Inc()
	log.Ctx(ctx).Info().Str("ticket", c.ticket).Int64("dept_id", c.target.ID).Msg("Department visit recorded")
	c.reset()
	return nil
}

// ConfirmTransfer resolves a pending cross-office transfer. Cancel discards
// the candidates; confirm runs the reconciler cascade and, on success, seeds
// the record-visit step with the freshly opened office log.
func (c *SessionController) ConfirmTransfer(ctx context.Context, confirm bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConfirmTransfer {
		return model.ErrInvalidState
	}

	if !confirm {
		log.Ctx(ctx).Info().Str("ticket", c.ticket).Msg("Transfer cancelled by operator")
		c.reset()
		return nil
	}

	newLog, err := c.reconciler.Transfer(ctx, c.officeLog, c.deptLog, c.target.OfficeID)
	if err != nil {
		metrics.TransfersTotal.WithLabelValues("failed").Inc()
		// Earlier cascade steps are already committed remotely; keep the
		// failure on the snapshot so the operator knows to reconcile.
		c.failScan("transfer", err)
		log.Ctx(ctx).Error().Err(err).Str("ticket", c.ticket).Msg("Failed to transfer visitor")
		c.reset()
		return fmt.Errorf("failed to transfer visitor: %w", err)
	}

	metrics.TransfersTotal.WithLabelValues("ok").Inc()
	c.officeLog = newLog
	c.deptLog = nil
	c.images = c.fetchImages(ctx, newLog.LogIn)
	c.state = StateRecordVisit
	return nil
}

// ConfirmSignOut closes the open department log of a same-office visitor. The
// service reporting it already closed is shown as a notice, not an error.
func (c *SessionController) ConfirmSignOut(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateSignOut {
		return model.ErrInvalidState
	}

	if c.deptLog == nil || (c.deptLog.StrID == "" && c.deptLog.StrDeptLogIn == "") {
		c.reset()
		return model.ErrMalformedSignOut
	}

	err := c.gw.CloseDepartmentLog(ctx, c.deptLog.StrID, c.deptLog.StrDeptLogIn, c.now())
	if errors.Is(err, model.ErrAlreadyClosed) {
		log.Ctx(ctx).Info().Str("ticket", c.ticket).Msg("Department log was already closed")
		c.reset()
		c.notice = "Visitor Already Logged Out"
		return nil
	}
	if err != nil {
		c.failScan("close department log", err)
		log.Ctx(ctx).Error().Err(err).Str("ticket", c.ticket).Msg("Failed to sign out visitor")
		c.reset()
		return fmt.Errorf("failed to process ticket: %w", err)
	}

	metrics.SignOutsTotal.Inc()
	log.Ctx(ctx).Info().Str("ticket", c.ticket).Msg("Visitor signed out of department")
	c.reset()
	return nil
}

// Snapshot returns a copy of the controller state for rendering.
func (c *SessionController) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		State:          c.state,
		SessionID:      c.sessionID,
		Ticket:         c.ticket,
		Classification: c.class,
		OfficeLog:      c.officeLog,
		DeptLog:        c.deptLog,
		Images:         c.images,
		Notice:         c.notice,
		LastFailure:    c.lastFailure,
	}
}

// fetchImages looks up the image pair for a login timestamp. Display-only:
// a failure is logged and rendered as "no images", never blocking the flow.
func (c *SessionController) fetchImages(ctx context.Context, loginAt time.Time) model.ImagePair {
	pair, err := c.gw.FetchImagePair(ctx, TokenFromTimestamp(loginAt))
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("ticket", c.ticket).Msg("Failed to fetch image pair")
		return model.ImagePair{}
	}
	return pair
}

func (c *SessionController) failScan(step string, err error) {
	c.lastFailure = &LastFailure{
		Ticket: c.ticket,
		Step:   step,
		Error:  err.Error(),
	}
}

// reset returns the session to Idle. Notice and lastFailure survive a reset
// so the UI can still show them; the next scan clears the notice.
func (c *SessionController) reset() {
	c.state = StateIdle
	c.sessionID = ""
	c.ticket = ""
	c.class = ""
	c.officeLog = nil
	c.deptLog = nil
	c.images = model.ImagePair{}
}
