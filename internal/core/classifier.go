package core

import (
	"visitor.kiosk/internal/core/model"
)

// Classify decides which workflow a scanned ticket should drive, given the
// visitor's fetched office and department logs and the department the kiosk
// is operating for. It is a read-only projection; first match wins.
func Classify(officeLog *model.OfficeLog, deptLog *model.DepartmentLog, target model.Department) model.ScanResult {
	if officeLog == nil {
		return model.ScanResult{Class: model.ClassNotFound}
	}

	if officeLog.LogOut != nil {
		return model.ScanResult{Class: model.ClassAlreadyLoggedOut, OfficeLog: officeLog}
	}

	if officeLog.OfficeID == target.OfficeID {
		// A missing or already-closed department log means the visitor still
		// has to state a purpose and open a fresh department visit.
		if deptLog == nil || deptLog.DeptLogOut != nil {
			return model.ScanResult{Class: model.ClassSameOfficeActive, OfficeLog: officeLog}
		}
		return model.ScanResult{
			Class:     model.ClassSameOfficeSignOut,
			OfficeLog: officeLog,
			DeptLog:   deptLog,
		}
	}

	// Different office: the stale logs (department log possibly absent) go to
	// the transfer reconciler once the operator confirms.
	return model.ScanResult{
		Class:     model.ClassCrossOfficeTransfer,
		OfficeLog: officeLog,
		DeptLog:   deptLog,
	}
}
