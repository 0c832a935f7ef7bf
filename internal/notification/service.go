package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/twdrugfinder/drugfinder/internal/conf"
	"github.com/twdrugfinder/drugfinder/internal/errors"
	"github.com/twdrugfinder/drugfinder/internal/logger"
	"github.com/twdrugfinder/drugfinder/internal/observability/metrics"
	"github.com/twdrugfinder/drugfinder/internal/records"
)

const (
	defaultQueueSize   = 64
	defaultSendTimeout = 10 * time.Second
)

// Service fans reviewer alerts out to the configured providers. Alerts queued with
// Enqueue are delivered by a single background worker once Start has been called.
type Service struct {
	providers []Provider
	timeout   time.Duration
	log       logger.Logger
	metrics   *metrics.DirectoryMetrics

	queue   chan *Notification
	mu      sync.RWMutex // guards closed against sends on queue
	closed  bool
	started atomic.Bool
	wg      sync.WaitGroup
}

// Option customizes a Service.
type Option func(*Service)

// WithMetrics counts delivered and failed alerts.
func WithMetrics(m *metrics.DirectoryMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger replaces the module logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService builds a Service from the reviewer URLs in settings. No URLs yields a
// Service that drops every alert.
func NewService(settings conf.NotificationSettings, opts ...Option) (*Service, error) {
	var providers []Provider
	if len(settings.Reviewers) > 0 {
		p := NewShoutrrrProvider("reviewers", true, settings.Reviewers, nil, settings.Timeout)
		if err := p.ValidateConfig(); err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	s := NewServiceWithProviders(providers, opts...)
	if settings.Timeout > 0 {
		s.timeout = settings.Timeout
	}
	return s, nil
}

// NewServiceWithProviders builds a Service over already validated providers.
func NewServiceWithProviders(providers []Provider, opts ...Option) *Service {
	s := &Service{
		providers: providers,
		timeout:   defaultSendTimeout,
		log:       logger.Global().Module("notification"),
		queue:     make(chan *Notification, defaultQueueSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether at least one provider is enabled.
func (s *Service) Enabled() bool {
	if s == nil {
		return false
	}
	for _, p := range s.providers {
		if p.IsEnabled() {
			return true
		}
	}
	return false
}

// Start launches the delivery worker. It is a no-op when called twice.
func (s *Service) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for n := range s.queue {
			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			_ = s.Send(ctx, n)
			cancel()
		}
	}()
}

// Close stops accepting alerts, delivers what is queued and waits for the worker.
func (s *Service) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Enqueue hands n to the worker without blocking. Without a running worker the alert
// is delivered inline. It reports whether the alert was accepted.
func (s *Service) Enqueue(n *Notification) bool {
	if !s.Enabled() {
		return false
	}
	if !s.started.Load() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		return s.Send(ctx, n) == nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.queue <- n:
		return true
	default:
		s.log.Warn("notification queue full, dropping alert",
			logger.String("type", string(n.Type)),
			logger.String("id", n.ID))
		return false
	}
}

// Send delivers n to every enabled provider that supports its type.
func (s *Service) Send(ctx context.Context, n *Notification) error {
	var errs []error
	for _, p := range s.providers {
		if !p.IsEnabled() || !p.SupportsType(n.Type) {
			continue
		}
		if err := p.Send(ctx, n); err != nil {
			s.log.Warn("reviewer alert failed",
				logger.String("provider", p.GetName()),
				logger.String("type", string(n.Type)),
				logger.Error(err))
			errs = append(errs, err)
			continue
		}
		s.log.Debug("reviewer alert sent",
			logger.String("provider", p.GetName()),
			logger.String("type", string(n.Type)))
	}

	err := errors.Join(errs...)
	s.metrics.RecordNotification(err == nil)
	return err
}

// NotifySupplyReport alerts reviewers that a supply report awaits promotion.
func (s *Service) NotifySupplyReport(r records.SupplyReport) bool {
	payment := r.Payment.String()
	if payment == "" {
		payment = "未填"
	}
	msg := fmt.Sprintf("%s (%s, %s) 回報可提供 %s\n給付條件: %s",
		r.InstitutionName, r.InstitutionCode, r.City, r.Drug, payment)
	n := NewNotification(TypeSupplyReport, "新的診所供貨回報待審核", msg).
		WithMetadata("institution_code", r.InstitutionCode).
		WithMetadata("drug", r.Drug)
	return s.Enqueue(n)
}

// NotifyProposal alerts reviewers that a new drug was proposed.
func (s *Service) NotifyProposal(p records.NewDrugProposal) bool {
	msg := fmt.Sprintf("民眾提議新增藥品: %s (%s)", strings.TrimSpace(p.DrugName), p.City)
	n := NewNotification(TypeDrugProposal, "新藥品提議待審核", msg).
		WithMetadata("drug", p.DrugName)
	return s.Enqueue(n)
}
