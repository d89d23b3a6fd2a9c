package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"visitor.kiosk/internal/core"
	"visitor.kiosk/internal/core/model"
)

// SessionHandler exposes the session controller's triggers to the kiosk UI.
type SessionHandler struct {
	Controller *core.SessionController
	Target     model.Department
}

type ScanRequest struct {
	Ticket string `json:"ticket"`
}

type VisitPurposeRequest struct {
	Purpose string `json:"purpose"`
}

type TransferConfirmRequest struct {
	Confirm bool `json:"confirm"`
}

type sessionResponse struct {
	Session core.Snapshot `json:"session"`
	Error   string        `json:"error,omitempty"`
}

func (h *SessionHandler) SubmitScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Ticket == "" {
		http.Error(w, "Ticket is required", http.StatusBadRequest)
		return
	}

	err := h.Controller.SubmitScan(r.Context(), req.Ticket, h.Target)
	h.respond(w, err)
}

func (h *SessionHandler) SubmitVisitPurpose(w http.ResponseWriter, r *http.Request) {
	var req VisitPurposeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.Controller.SubmitVisitPurpose(r.Context(), req.Purpose)
	h.respond(w, err)
}

func (h *SessionHandler) ConfirmTransfer(w http.ResponseWriter, r *http.Request) {
	var req TransferConfirmRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.Controller.ConfirmTransfer(r.Context(), req.Confirm)
	h.respond(w, err)
}

func (h *SessionHandler) ConfirmSignOut(w http.ResponseWriter, r *http.Request) {
	err := h.Controller.ConfirmSignOut(r.Context())
	h.respond(w, err)
}

func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.writeSession(w, http.StatusOK, "")
}

// respond maps workflow errors onto HTTP statuses and always includes the
// current session snapshot so the UI can re-render from one response.
func (h *SessionHandler) respond(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		h.writeSession(w, http.StatusOK, "")
	case errors.Is(err, model.ErrTicketNotFound),
		errors.Is(err, model.ErrAlreadyLoggedOut):
		h.writeSession(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrEmptyPurpose),
		errors.Is(err, model.ErrMalformedSignOut):
		h.writeSession(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, model.ErrScanInProgress),
		errors.Is(err, model.ErrInvalidState):
		h.writeSession(w, http.StatusConflict, err.Error())
	default:
		h.writeSession(w, http.StatusBadGateway, err.Error())
	}
}

func (h *SessionHandler) writeSession(w http.ResponseWriter, status int, errMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(sessionResponse{
		Session: h.Controller.Snapshot(),
		Error:   errMsg,
	})
}
