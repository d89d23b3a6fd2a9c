package model

import (
	"time"
)

// WireTimeLayout is the timestamp layout the visitor-log service uses on the
// wire and inside its composite keys (strLogIn / strDeptLogIn).
const WireTimeLayout = "2006-01-02 15:04:05"

// Classification is the outcome of classifying a scanned ticket against the
// visitor's current office and department logs.
type Classification string

const (
	ClassNotFound            Classification = "NOT_FOUND"
	ClassAlreadyLoggedOut    Classification = "ALREADY_LOGGED_OUT"
	ClassSameOfficeActive    Classification = "SAME_OFFICE_ACTIVE"
	ClassSameOfficeSignOut   Classification = "SAME_OFFICE_SIGN_OUT"
	ClassCrossOfficeTransfer Classification = "CROSS_OFFICE_TRANSFER"
)

// OfficeLog is one office-level visit. LogOut == nil means the visitor is
// currently signed into that office; at most one such log exists per visitor.
type OfficeLog struct {
	ID          int64      `json:"id"`
	StrID       string     `json:"strId"`
	LogIn       time.Time  `json:"logIn"`
	StrLogIn    string     `json:"strLogIn"`
	LogDate     string     `json:"logDate"`
	LogOut      *time.Time `json:"logOut,omitempty"`
	VisitorID   int64      `json:"visitorId"`
	OfficeID    int64      `json:"officeId"`
	ServiceID   int64      `json:"serviceId"`
	SpecService string     `json:"specService"`
	Returned    bool       `json:"returned"`
}

// Open reports whether the office visit is still active.
func (l *OfficeLog) Open() bool {
	return l != nil && l.LogOut == nil
}

// DepartmentLog is one department-level visit nested inside an office visit.
// Its composite key on the remote service is (StrID, StrDeptLogIn).
type DepartmentLog struct {
	ID           int64      `json:"id"`
	StrID        string     `json:"strId"`
	DeptLogIn    time.Time  `json:"deptLogIn"`
	StrDeptLogIn string     `json:"strDeptLogIn"`
	DeptLogOut   *time.Time `json:"deptLogOut,omitempty"`
	DeptID       int64      `json:"deptId"`
	Reason       string     `json:"reason"`
}

// Open reports whether the department visit is still active.
func (l *DepartmentLog) Open() bool {
	return l != nil && l.DeptLogOut == nil
}

// Department identifies the desk the kiosk is operating for. Passed
// explicitly into every scan so classification stays a pure projection.
type Department struct {
	ID       int64  `json:"id"`
	OfficeID int64  `json:"officeId"`
	Name     string `json:"name"`
}

// ImagePair reports which of the two visitor images (ID card scan, face
// photo) exist on the remote service for a timestamp-derived token.
type ImagePair struct {
	IDExists    bool `json:"idExists"`
	PhotoExists bool `json:"photoExists"`
}

// ScanResult is the classifier's output: the classification plus the fetched
// records the downstream workflow needs.
type ScanResult struct {
	Class     Classification
	OfficeLog *OfficeLog
	DeptLog   *DepartmentLog
}
