package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orgaccess_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orgaccess_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	invitationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orgaccess_invitations_total",
		Help: "Invitation lifecycle events by outcome",
	}, []string{"event"})

	invitationRollbackFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orgaccess_invitation_rollback_failures_total",
		Help: "Invitations left behind after a failed email could not be rolled back",
	})

	invitationsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orgaccess_invitations_expired_total",
		Help: "Pending invitations relabelled as expired by the sweep",
	})

	auditWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orgaccess_audit_write_failures_total",
		Help: "Audit records that could not be persisted",
	}, []string{"action"})

	roleChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orgaccess_role_changes_total",
		Help: "Membership role changes by resulting role",
	}, []string{"role"})

	membersRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orgaccess_members_removed_total",
		Help: "Members removed from organizations",
	})
)

// Invitation lifecycle events.
const (
	InvitationCreated     = "created"
	InvitationEmailFailed = "email_failed"
	InvitationAccepted    = "accepted"
	InvitationCancelled   = "cancelled"
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveInvitation counts an invitation lifecycle event.
func ObserveInvitation(event string) {
	invitationsTotal.WithLabelValues(event).Inc()
}

// ObserveRollbackFailure counts an invitation that survived a failed send.
func ObserveRollbackFailure() {
	invitationRollbackFailures.Inc()
}

func ObserveExpired(n int64) {
	if n <= 0 {
		return
	}
	invitationsExpired.Add(float64(n))
}

// ObserveAuditFailure counts an audit record lost for the given action.
func ObserveAuditFailure(action string) {
	auditWriteFailures.WithLabelValues(action).Inc()
}

func ObserveRoleChange(role string) {
	roleChanges.WithLabelValues(role).Inc()
}

func ObserveMemberRemoved() {
	membersRemoved.Inc()
}
