package verification

import (
	"context"

	"github.com/twdrugfinder/drugfinder/internal/errors"
	"github.com/twdrugfinder/drugfinder/internal/logger"
	"github.com/twdrugfinder/drugfinder/internal/observability/metrics"
)

// Service issues codes on a Gate and mails them.
type Service struct {
	mailer  Mailer
	metrics *metrics.DirectoryMetrics
	log     logger.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithMetrics counts issued codes, mail outcomes and confirmations.
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

// NewService returns a Service delivering through mailer.
func NewService(mailer Mailer, opts ...Option) *Service {
	s := &Service{
		mailer: mailer,
		log:    logger.Global().Module("verification"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendCode issues a fresh code on gate for email and mails it. The gate moves to
// CodeSent before the mail is attempted, so a failed send still invalidates any
// earlier code.
func (s *Service) SendCode(ctx context.Context, gate *Gate, email string) error {
	if s.mailer == nil {
		return errors.Newf("no mailer configured").
			Category(errors.CategoryConfiguration).
			Component("verification").
			Build()
	}

	code, err := gate.Issue(email)
	if err != nil {
		return err
	}
	s.metrics.IncCodesIssued()

	to := gate.Email()
	if err := s.mailer.SendCode(ctx, to, code); err != nil {
		s.metrics.RecordCodeMail(false)
		s.log.Warn("verification mail failed",
			logger.String("email", logger.MaskEmail(to)),
			logger.Error(err))
		return err
	}
	s.metrics.RecordCodeMail(true)
	s.log.Info("verification code sent", logger.String("email", logger.MaskEmail(to)))
	return nil
}

// Confirm checks input against gate and counts the outcome.
func (s *Service) Confirm(gate *Gate, input string) error {
	err := gate.Confirm(input)
	switch {
	case err == nil:
		s.metrics.RecordConfirmation("verified")
		s.log.Info("clinic email verified", logger.String("email", logger.MaskEmail(gate.VerifiedEmail())))
	case errors.Is(err, ErrCodeMismatch):
		s.metrics.RecordConfirmation("mismatch")
	case errors.Is(err, ErrCodeExpired):
		s.metrics.RecordConfirmation("expired")
	}
	return err
}
