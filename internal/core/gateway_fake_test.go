package core_test

import (
	"context"
	"sync"
	"time"

	"visitor.kiosk/internal/core/model"
)

// fakeGateway is an in-memory stand-in for the visitor-log service. It
// records every call in order so tests can assert cascade sequencing, and it
// keeps enough state to check the single-open-office-log invariant.
type fakeGateway struct {
	mu sync.Mutex

	officeLogs map[string]*model.OfficeLog
	deptLogs   map[string]*model.DepartmentLog
	images     map[string]model.ImagePair

	// every open office log ever created, stale seeds included
	allOfficeLogs []*model.OfficeLog

	calls []string

	closeDeptCalls   []closeDeptCall
	closeOfficeCalls []closeOfficeCall
	signOutCalls     []closeOfficeCall
	openCalls        []openCall
	createDeptCalls  []createDeptCall
	duplicateCalls   [][2]string

	failFetchOffice error
	failFetchDept   error
	failFetchImages error
	failCreateDept  error
	failCloseDept   error
	failCloseOffice error
	failSignOut     error
	failOpenOffice  error
	failDuplicate   error
}

type closeDeptCall struct {
	strID        string
	strDeptLogIn string
	at           time.Time
}

type closeOfficeCall struct {
	strID    string
	strLogIn string
	at       time.Time
	returned bool
}

type openCall struct {
	prev     *model.OfficeLog
	officeID int64
	at       time.Time
}

type createDeptCall struct {
	officeLog *model.OfficeLog
	deptID    int64
	reason    string
	at        time.Time
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		officeLogs: map[string]*model.OfficeLog{},
		deptLogs:   map[string]*model.DepartmentLog{},
		images:     map[string]model.ImagePair{},
	}
}

func (f *fakeGateway) seedOfficeLog(l *model.OfficeLog) {
	f.officeLogs[l.StrID] = l
	f.allOfficeLogs = append(f.allOfficeLogs, l)
}

// openOfficeLogs counts currently open office logs for a visitor.
func (f *fakeGateway) openOfficeLogs(visitorID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, l := range f.allOfficeLogs {
		if l.VisitorID == visitorID && l.LogOut == nil {
			n++
		}
	}
	return n
}

func (f *fakeGateway) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeGateway) FetchOfficeLog(ctx context.Context, ticketID string) (*model.OfficeLog, error) {
	f.record("FetchOfficeLog")
	if f.failFetchOffice != nil {
		return nil, f.failFetchOffice
	}
	return f.officeLogs[ticketID], nil
}

func (f *fakeGateway) FetchDepartmentLog(ctx context.Context, ticketID string) (*model.DepartmentLog, error) {
	f.record("FetchDepartmentLog")
	if f.failFetchDept != nil {
		return nil, f.failFetchDept
	}
	return f.deptLogs[ticketID], nil
}

func (f *fakeGateway) FetchImagePair(ctx context.Context, token string) (model.ImagePair, error) {
	f.record("FetchImagePair")
	if f.failFetchImages != nil {
		return model.ImagePair{}, f.failFetchImages
	}
	return f.images[token], nil
}

func (f *fakeGateway) CreateDepartmentLog(ctx context.Context, officeLog *model.OfficeLog, deptID int64, reason string, loginAt time.Time) error {
	f.record("CreateDepartmentLog")
	if f.failCreateDept != nil {
		return f.failCreateDept
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createDeptCalls = append(f.createDeptCalls, createDeptCall{officeLog: officeLog, deptID: deptID, reason: reason, at: loginAt})
	return nil
}

func (f *fakeGateway) CloseDepartmentLog(ctx context.Context, strID, strDeptLogIn string, closeAt time.Time) error {
	f.record("CloseDepartmentLog")
	if f.failCloseDept != nil {
		return f.failCloseDept
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeDeptCalls = append(f.closeDeptCalls, closeDeptCall{strID: strID, strDeptLogIn: strDeptLogIn, at: closeAt})
	if l, ok := f.deptLogs[strID]; ok && l.DeptLogOut == nil {
		out := closeAt
		l.DeptLogOut = &out
	}
	return nil
}

func (f *fakeGateway) CloseOfficeLog(ctx context.Context, strID, strLogIn string, closeAt time.Time, markReturned bool) error {
	f.record("CloseOfficeLog")
	if f.failCloseOffice != nil {
		return f.failCloseOffice
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeOfficeCalls = append(f.closeOfficeCalls, closeOfficeCall{strID: strID, strLogIn: strLogIn, at: closeAt, returned: markReturned})
	f.closeOfficeLocked(strID, closeAt, markReturned)
	return nil
}

func (f *fakeGateway) SignOutOfficeLog(ctx context.Context, strID, strLogIn string, closeAt time.Time) error {
	f.record("SignOutOfficeLog")
	if f.failSignOut != nil {
		return f.failSignOut
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutCalls = append(f.signOutCalls, closeOfficeCall{strID: strID, strLogIn: strLogIn, at: closeAt})
	f.closeOfficeLocked(strID, closeAt, false)
	return nil
}

func (f *fakeGateway) closeOfficeLocked(strID string, closeAt time.Time, returned bool) {
	if l, ok := f.officeLogs[strID]; ok && l.LogOut == nil {
		out := closeAt
		l.LogOut = &out
		l.Returned = returned
	}
}

func (f *fakeGateway) OpenOfficeLog(ctx context.Context, prev *model.OfficeLog, newOfficeID int64, loginAt time.Time) error {
	f.record("OpenOfficeLog")
	if f.failOpenOffice != nil {
		return f.failOpenOffice
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openCalls = append(f.openCalls, openCall{prev: prev, officeID: newOfficeID, at: loginAt})
	opened := &model.OfficeLog{
		ID:          prev.ID,
		StrID:       prev.StrID,
		LogIn:       loginAt,
		StrLogIn:    loginAt.Format(model.WireTimeLayout),
		VisitorID:   prev.VisitorID,
		OfficeID:    newOfficeID,
		ServiceID:   prev.ServiceID,
		SpecService: prev.SpecService,
	}
	f.officeLogs[prev.StrID] = opened
	f.allOfficeLogs = append(f.allOfficeLogs, opened)
	return nil
}

func (f *fakeGateway) DuplicateImage(ctx context.Context, oldName, newName string) error {
	f.record("DuplicateImage")
	if f.failDuplicate != nil {
		return f.failDuplicate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.duplicateCalls = append(f.duplicateCalls, [2]string{oldName, newName})
	f.images[newName] = f.images[oldName]
	return nil
}

// mutationCalls filters the recorded call order down to mutating operations.
func (f *fakeGateway) mutationCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		switch c {
		case "FetchOfficeLog", "FetchDepartmentLog", "FetchImagePair":
		default:
			out = append(out, c)
		}
	}
	return out
}
