// Package metrics defines the custom Prometheus metrics of the counseling API.
// Metrics are registered with the default registry on package init and are
// served by the echoprometheus handler mounted on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/campuscare/counseling-api/internal/core/domain"
)

const namespace = "counseling"

// ── Consultation metrics ──────────────────────────────────────────────────────

// ConsultationTransitionsTotal counts workflow operations by outcome.
// Labels:
//   - operation: "book", "accept", "reject", "delete_room", "admin_delete"
//   - result: "ok", "already_provisioned" or the error class (e.g. "conflict")
var ConsultationTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "consultation_operations_total",
		Help:      "Total number of consultation workflow operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// RoomProvisioningTotal counts video room provisioning outcomes seen by accept.
// Label:
//   - result: "created", "reused" or "failed"
var RoomProvisioningTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "room_provisioning_total",
		Help:      "Total number of video room provisioning attempts, by result.",
	},
	[]string{"result"},
)

// NotificationsTotal counts best-effort email deliveries.
// Labels:
//   - recipient: "student" or "counselor"
//   - status: "sent", "failed" or "error"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of transactional emails, by recipient and delivery status.",
	},
	[]string{"recipient", "status"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthFailuresTotal counts rejected requests at the authorization gate.
// Label:
//   - reason: "unauthenticated", "unauthorized", "role_not_found" or "login"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of requests rejected by authentication or role checks.",
	},
	[]string{"reason"},
)

// ObserveNotifications adds every outcome of report to NotificationsTotal.
func ObserveNotifications(report *domain.NotificationReport) {
	if report == nil {
		return
	}
	for recipient, status := range report.Results {
		NotificationsTotal.WithLabelValues(string(recipient), string(status)).Inc()
	}
}
