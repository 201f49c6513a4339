// Package metrics exposes Prometheus collectors for the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wichtelbot"

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Commands      *prometheus.CounterVec
	Assignments   *prometheus.CounterVec
	Attempts      prometheus.Histogram
	Notifications *prometheus.CounterVec
	Groups        prometheus.Gauge
	Participants  prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Chat commands handled, by command and outcome kind.",
		}, []string{"command", "outcome"}),
		Assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignments_total",
			Help:      "Assignment draws, by mode and outcome.",
		}, []string{"mode", "outcome"}),
		Attempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assignment_attempts",
			Help:      "Shuffles needed by rejection sampling per draw.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Private reveal messages, by delivery outcome.",
		}, []string{"outcome"}),
		Groups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "groups",
			Help:      "Groups currently registered.",
		}),
		Participants: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "participants",
			Help:      "Users currently indexed to a group.",
		}),
	}
	reg.MustRegister(m.Commands, m.Assignments, m.Attempts, m.Notifications, m.Groups, m.Participants)
	return m
}

// ObserveCommand counts a handled chat command.
func (m *Metrics) ObserveCommand(command, outcome string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(command, outcome).Inc()
}

// ObserveAssignment counts a draw. attempts is only recorded on success.
func (m *Metrics) ObserveAssignment(mode, outcome string, attempts int) {
	if m == nil {
		return
	}
	m.Assignments.WithLabelValues(mode, outcome).Inc()
	if outcome == "ok" {
		m.Attempts.Observe(float64(attempts))
	}
}

// ObserveNotification counts one delivery outcome.
func (m *Metrics) ObserveNotification(ok bool) {
	if m == nil {
		return
	}
	outcome := "sent"
	if !ok {
		outcome = "failed"
	}
	m.Notifications.WithLabelValues(outcome).Inc()
}

// SetState records the current registry size.
func (m *Metrics) SetState(groups, participants int) {
	if m == nil {
		return
	}
	m.Groups.Set(float64(groups))
	m.Participants.Set(float64(participants))
}
