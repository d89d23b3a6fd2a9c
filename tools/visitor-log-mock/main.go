// In-memory mock of the visitor-log service for local kiosk development.
// Seeds one visitor per scenario: signed into this office, signed into a
// department, signed into a different office, and already signed out.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

const wireLayout = "2006-01-02 15:04:05"

type officeLog struct {
	ID          int64  `json:"id"`
	StrID       string `json:"strId"`
	LogIn       string `json:"logIn"`
	StrLogIn    string `json:"strLogIn"`
	LogDate     string `json:"logDate"`
	LogOut      string `json:"logOut"`
	VisitorID   int64  `json:"visitorId"`
	OfficeID    int64  `json:"officeId"`
	ServiceID   int64  `json:"serviceId"`
	SpecService string `json:"specService"`
	Returned    bool   `json:"returned"`
}

type departmentLog struct {
	ID           int64  `json:"id"`
	StrID        string `json:"strId"`
	DeptLogIn    string `json:"deptLogIn"`
	StrDeptLogIn string `json:"strDeptLogIn"`
	DeptLogOut   string `json:"deptLogOut"`
	DeptID       int64  `json:"deptId"`
	Reason       string `json:"reason"`
}

type store struct {
	mu         sync.Mutex
	officeLogs map[string]*officeLog     // keyed by strId
	deptLogs   map[string]*departmentLog // keyed by strId
	images     map[string]bool
}

func newStore() *store {
	now := time.Now().Format(wireLayout)
	today := time.Now().Format("2006-01-02")

	s := &store{
		officeLogs: map[string]*officeLog{},
		deptLogs:   map[string]*departmentLog{},
		images:     map[string]bool{},
	}

	// T-100: open office log in office 1, no department log.
	s.officeLogs["T-100"] = &officeLog{ID: 100, StrID: "T-100", LogIn: now, StrLogIn: now, LogDate: today, VisitorID: 10, OfficeID: 1, ServiceID: 3}
	// T-101: already signed out.
	s.officeLogs["T-101"] = &officeLog{ID: 101, StrID: "T-101", LogIn: now, StrLogIn: now, LogDate: today, LogOut: now, VisitorID: 11, OfficeID: 1}
	// T-102: open office log in a different office, never reached a department.
	s.officeLogs["T-102"] = &officeLog{ID: 102, StrID: "T-102", LogIn: now, StrLogIn: now, LogDate: today, VisitorID: 12, OfficeID: 9}
	// T-103: different office with an open department log.
	s.officeLogs["T-103"] = &officeLog{ID: 103, StrID: "T-103", LogIn: now, StrLogIn: now, LogDate: today, VisitorID: 13, OfficeID: 9}
	s.deptLogs["T-103"] = &departmentLog{ID: 1, StrID: "T-103", DeptLogIn: now, StrDeptLogIn: now, DeptID: 42, Reason: "Delivery"}

	return s
}

func writeEnvelope(w http.ResponseWriter, code int, msg string) {
	json.NewEncoder(w).Encode(map[string]any{"errorCode": code, "message": msg})
}

func main() {
	s := newStore()
	r := mux.NewRouter()

	r.HandleFunc("/office-logs/today/{ticket}", func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		l, ok := s.officeLogs[mux.Vars(req)["ticket"]]
		if !ok {
			http.NotFound(w, req)
			return
		}
		json.NewEncoder(w).Encode(l)
	}).Methods(http.MethodGet)

	r.HandleFunc("/department-logs/today/{ticket}", func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		l, ok := s.deptLogs[mux.Vars(req)["ticket"]]
		if !ok {
			http.NotFound(w, req)
			return
		}
		json.NewEncoder(w).Encode(l)
	}).Methods(http.MethodGet)

	r.HandleFunc("/visitor-images/{token}", func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		exists := s.images[mux.Vars(req)["token"]]
		json.NewEncoder(w).Encode(map[string]bool{"idExists": exists, "photoExists": exists})
	}).Methods(http.MethodGet)

	r.HandleFunc("/department-logs", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Log departmentLog `json:"log"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		body.Log.StrDeptLogIn = body.Log.DeptLogIn
		s.deptLogs[body.Log.StrID] = &body.Log
		log.Printf("Opened department log for %s (dept %d, reason %q)", body.Log.StrID, body.Log.DeptID, body.Log.Reason)
		writeEnvelope(w, 0, "department log created")
	}).Methods(http.MethodPost)

	r.HandleFunc("/department-logs/{strId}/{deptLogIn}/close", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			DeptLogOut string `json:"deptLogOut"`
		}
		json.NewDecoder(req.Body).Decode(&body)
		s.mu.Lock()
		defer s.mu.Unlock()
		l, ok := s.deptLogs[mux.Vars(req)["strId"]]
		if !ok || l.DeptLogOut != "" {
			writeEnvelope(w, 102, "department log already closed")
			return
		}
		l.DeptLogOut = body.DeptLogOut
		log.Printf("Closed department log for %s", l.StrID)
		writeEnvelope(w, 0, "department log closed")
	}).Methods(http.MethodPut)

	closeOffice := func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			LogOut   string `json:"logOut"`
			Returned bool   `json:"returned"`
		}
		json.NewDecoder(req.Body).Decode(&body)
		s.mu.Lock()
		defer s.mu.Unlock()
		l, ok := s.officeLogs[mux.Vars(req)["strId"]]
		if !ok {
			http.NotFound(w, req)
			return
		}
		l.LogOut = body.LogOut
		l.Returned = body.Returned
		log.Printf("Closed office log for %s (returned=%v)", l.StrID, l.Returned)
		writeEnvelope(w, 0, "office log closed")
	}
	r.HandleFunc("/office-logs/{strId}/{logIn}/close", closeOffice).Methods(http.MethodPut)
	r.HandleFunc("/office-logs/{strId}/{logIn}/sign-out", closeOffice).Methods(http.MethodPut)

	r.HandleFunc("/office-logs", func(w http.ResponseWriter, req *http.Request) {
		var l officeLog
		if err := json.NewDecoder(req.Body).Decode(&l); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		l.StrLogIn = l.LogIn
		s.officeLogs[l.StrID] = &l
		log.Printf("Opened office log for %s in office %d", l.StrID, l.OfficeID)
		writeEnvelope(w, 0, "office log created")
	}).Methods(http.MethodPost)

	r.HandleFunc("/visitor-images/duplicate", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Filename    string `json:"filename"`
			NewFilename string `json:"newFilename"`
		}
		json.NewDecoder(req.Body).Decode(&body)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.images[body.NewFilename] = s.images[body.Filename]
		log.Printf("Duplicated image %s -> %s", body.Filename, body.NewFilename)
		writeEnvelope(w, 0, "image duplicated")
	}).Methods(http.MethodPost)

	log.Println("Visitor-log mock server starting on port 8081...")
	log.Fatal(http.ListenAndServe(":8081", r))
}
