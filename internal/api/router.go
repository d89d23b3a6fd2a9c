package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"visitor.kiosk/internal/api/handler"
	"visitor.kiosk/internal/core"
	"visitor.kiosk/internal/core/model"
)

// NewRouter sets up the gorilla/mux router and defines all kiosk routes.
// target is the department this kiosk is operating for; every scan is
// classified against it.
func NewRouter(controller *core.SessionController, target model.Department) *mux.Router {

	sessionHandler := handler.SessionHandler{
		Controller: controller,
		Target:     target,
	}

	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/scan", sessionHandler.SubmitScan).Methods(http.MethodPost)
	api.HandleFunc("/visit-purpose", sessionHandler.SubmitVisitPurpose).Methods(http.MethodPost)
	api.HandleFunc("/transfer-confirm", sessionHandler.ConfirmTransfer).Methods(http.MethodPost)
	api.HandleFunc("/sign-out", sessionHandler.ConfirmSignOut).Methods(http.MethodPost)
	api.HandleFunc("/session", sessionHandler.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}
