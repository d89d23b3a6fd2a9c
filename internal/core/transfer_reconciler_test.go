package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visitor.kiosk/internal/core"
	"visitor.kiosk/internal/core/model"
)

func newReconciler(gw *fakeGateway) *core.TransferReconciler {
	return core.NewTransferReconciler(gw, core.NewImageMigrator(gw))
}

func TestTransferCaseA_StaleDepartmentAlreadyClosed(t *testing.T) {
	gw := newFakeGateway()
	stale := openOffice(9)
	gw.seedOfficeLog(stale)

	newLog, err := newReconciler(gw).Transfer(context.Background(), stale, closedDept(), testTarget.OfficeID)

	require.NoError(t, err)
	assert.Equal(t, []string{"CloseOfficeLog", "OpenOfficeLog", "DuplicateImage"}, gw.mutationCalls())
	require.Len(t, gw.closeOfficeCalls, 1)
	assert.True(t, gw.closeOfficeCalls[0].returned)
	assert.Equal(t, testTarget.OfficeID, newLog.OfficeID)
}

func TestTransferCaseB_StaleDepartmentStillOpen(t *testing.T) {
	gw := newFakeGateway()
	stale := openOffice(9)
	gw.seedOfficeLog(stale)
	dept := openDept()
	gw.deptLogs[dept.StrID] = dept

	newLog, err := newReconciler(gw).Transfer(context.Background(), stale, dept, testTarget.OfficeID)

	require.NoError(t, err)
	// Department close strictly before office close, office close strictly
	// before office open.
	assert.Equal(t, []string{"CloseDepartmentLog", "CloseOfficeLog", "OpenOfficeLog", "DuplicateImage"}, gw.mutationCalls())

	require.Len(t, gw.closeDeptCalls, 1)
	assert.Equal(t, dept.StrID, gw.closeDeptCalls[0].strID)
	assert.Equal(t, dept.StrDeptLogIn, gw.closeDeptCalls[0].strDeptLogIn)

	require.Len(t, gw.closeOfficeCalls, 1)
	assert.True(t, gw.closeOfficeCalls[0].returned)

	require.Len(t, gw.openCalls, 1)
	assert.Equal(t, testTarget.OfficeID, gw.openCalls[0].officeID)
	assert.Nil(t, newLog.LogOut)
	assert.Equal(t, stale.VisitorID, newLog.VisitorID)
}

func TestTransferCaseC_NoStaleDepartment(t *testing.T) {
	gw := newFakeGateway()
	stale := openOffice(9)
	gw.seedOfficeLog(stale)

	_, err := newReconciler(gw).Transfer(context.Background(), stale, nil, testTarget.OfficeID)

	require.NoError(t, err)
	// The dedicated system-initiated sign-out closes the office, never the
	// plain transfer close.
	assert.Equal(t, []string{"SignOutOfficeLog", "OpenOfficeLog", "DuplicateImage"}, gw.mutationCalls())
	assert.Empty(t, gw.closeOfficeCalls)
}

func TestTransferLeavesExactlyOneOpenOfficeLog(t *testing.T) {
	gw := newFakeGateway()
	stale := openOffice(9)
	gw.seedOfficeLog(stale)
	dept := openDept()
	gw.deptLogs[dept.StrID] = dept

	_, err := newReconciler(gw).Transfer(context.Background(), stale, dept, testTarget.OfficeID)

	require.NoError(t, err)
	assert.Equal(t, 1, gw.openOfficeLogs(stale.VisitorID))
}

func TestTransferMigratesPhotoToNewLoginToken(t *testing.T) {
	gw := newFakeGateway()
	stale := openOffice(9)
	gw.seedOfficeLog(stale)

	_, err := newReconciler(gw).Transfer(context.Background(), stale, nil, testTarget.OfficeID)

	require.NoError(t, err)
	require.Len(t, gw.duplicateCalls, 1)
	require.Len(t, gw.openCalls, 1)
	assert.Equal(t, core.TokenFromTimestamp(stale.LogIn), gw.duplicateCalls[0][0])
	assert.Equal(t, core.TokenFromTimestamp(gw.openCalls[0].at), gw.duplicateCalls[0][1])
}

func TestTransferToleratesAlreadyClosedDepartment(t *testing.T) {
	gw := newFakeGateway()
	stale := openOffice(9)
	gw.seedOfficeLog(stale)
	gw.failCloseDept = model.ErrAlreadyClosed

	_, err := newReconciler(gw).Transfer(context.Background(), stale, openDept(), testTarget.OfficeID)

	require.NoError(t, err)
	// The close was attempted, reported already-closed, and the cascade
	// carried on.
	assert.Equal(t, []string{"CloseDepartmentLog", "CloseOfficeLog", "OpenOfficeLog", "DuplicateImage"}, gw.mutationCalls())
}

func TestTransferAbortsCascadeOnOfficeCloseFailure(t *testing.T) {
	gw := newFakeGateway()
	stale := openOffice(9)
	gw.seedOfficeLog(stale)
	gw.failCloseOffice = errors.New("service unavailable")

	_, err := newReconciler(gw).Transfer(context.Background(), stale, openDept(), testTarget.OfficeID)

	require.Error(t, err)
	// The department close already committed; nothing after the failed step
	// may run and nothing is compensated.
	assert.Equal(t, []string{"CloseDepartmentLog", "CloseOfficeLog"}, gw.mutationCalls())
	assert.Empty(t, gw.openCalls)
	assert.Contains(t, err.Error(), stale.StrID)
}

func TestTransferSucceedsWhenPhotoMigrationFails(t *testing.T) {
	gw := newFakeGateway()
	stale := openOffice(9)
	gw.seedOfficeLog(stale)
	gw.failDuplicate = errors.New("image store unavailable")

	newLog, err := newReconciler(gw).Transfer(context.Background(), stale, nil, testTarget.OfficeID)

	require.NoError(t, err)
	assert.Equal(t, testTarget.OfficeID, newLog.OfficeID)
}
