package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// DirectoryMetrics tracks form submissions, verification and reviewer alerts.
type DirectoryMetrics struct {
	Submissions   *prometheus.CounterVec
	CodesIssued   prometheus.Counter
	CodeMails     *prometheus.CounterVec
	Confirmations *prometheus.CounterVec
	Notifications *prometheus.CounterVec
}

// NewDirectoryMetrics creates and registers the submission and verification collectors.
func NewDirectoryMetrics(registry *prometheus.Registry) (*DirectoryMetrics, error) {
	m := &DirectoryMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register directory metrics: %w", err)
	}
	return m, nil
}

func (m *DirectoryMetrics) initMetrics() {
	m.Submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drugfinder_submissions_total",
		Help: "Form submissions by kind (wish, proposal, supply, feedback) and result.",
	}, []string{"kind", "result"})
	m.CodesIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "drugfinder_verification_codes_issued_total",
		Help: "Verification codes generated.",
	})
	m.CodeMails = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drugfinder_verification_mails_total",
		Help: "Verification code e-mails by result.",
	}, []string{"result"})
	m.Confirmations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drugfinder_verification_confirmations_total",
		Help: "Code confirmation attempts by result (verified, mismatch, expired).",
	}, []string{"result"})
	m.Notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drugfinder_reviewer_notifications_total",
		Help: "Reviewer alerts by result.",
	}, []string{"result"})
}

// RecordSubmission counts a submission attempt.
func (m *DirectoryMetrics) RecordSubmission(kind string, ok bool) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(kind, resultLabel(ok)).Inc()
}

func (m *DirectoryMetrics) IncCodesIssued() {
	if m != nil {
		m.CodesIssued.Inc()
	}
}

func (m *DirectoryMetrics) RecordCodeMail(ok bool) {
	if m != nil {
		m.CodeMails.WithLabelValues(resultLabel(ok)).Inc()
	}
}

// RecordConfirmation counts a confirm attempt: "verified", "mismatch" or "expired".
func (m *DirectoryMetrics) RecordConfirmation(result string) {
	if m != nil {
		m.Confirmations.WithLabelValues(result).Inc()
	}
}

func (m *DirectoryMetrics) RecordNotification(ok bool) {
	if m != nil {
		m.Notifications.WithLabelValues(resultLabel(ok)).Inc()
	}
}

func resultLabel(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}

// Collect implements the prometheus.Collector interface.
func (m *DirectoryMetrics) Collect(ch chan<- prometheus.Metric) {
	m.Submissions.Collect(ch)
	ch <- m.CodesIssued
	m.CodeMails.Collect(ch)
	m.Confirmations.Collect(ch)
	m.Notifications.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *DirectoryMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.Submissions.Describe(ch)
	ch <- m.CodesIssued.Desc()
	m.CodeMails.Describe(ch)
	m.Confirmations.Describe(ch)
	m.Notifications.Describe(ch)
}
