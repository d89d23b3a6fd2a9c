package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Kiosk-wide counters, registered on the default registry and served by the
// router's /metrics endpoint.
var (
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_scans_total",
		Help: "Scanned tickets by classification outcome.",
	}, []string{"classification"})

	TransfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_transfers_total",
		Help: "Cross-office transfer cascades by result.",
	}, []string{"result"})

	VisitsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_visits_recorded_total",
		Help: "Department visits opened from this kiosk.",
	})

	SignOutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_sign_outs_total",
		Help: "Department sign-outs completed from this kiosk.",
	})
)
