// Package verification implements the emailed six-digit code check that gates clinic
// supply reports. It deters casual spam; it is not an authentication mechanism.
package verification

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/twdrugfinder/drugfinder/internal/errors"
	"github.com/twdrugfinder/drugfinder/internal/records"
)

// State is the position of a Gate in Unverified → CodeSent → Verified.
type State int

const (
	Unverified State = iota
	CodeSent
	Verified
)

func (s State) String() string {
	switch s {
	case CodeSent:
		return "code_sent"
	case Verified:
		return "verified"
	default:
		return "unverified"
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name written by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Unverified, CodeSent, Verified} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return errors.Newf("unknown verification state %q", text).
		Category(errors.CategoryValidation).
		Component("verification").
		Build()
}

const (
	codeMin   = 100000
	codeRange = 900000 // codes are 100000..999999
)

// Sentinel errors of Confirm. The gate state is unchanged when they are returned.
var (
	ErrCodeMismatch = errors.NewStd("verification code does not match")
	ErrNoCodeIssued = errors.NewStd("no verification code has been sent")
	ErrCodeExpired  = errors.NewStd("verification code has expired, request a new one")
)

// CodeGenerator returns a fresh six-digit code.
type CodeGenerator func() (string, error)

// RandomCode draws a uniform code in 100000..999999 from crypto/rand.
func RandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return "", errors.New(err).
			Category(errors.CategoryVerification).
			Component("verification").
			Context("operation", "generate_code").
			Build()
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}

// Gate holds the verification state of one session.
//
// A code stays valid until it is replaced by the next Issue; it may be confirmed any
// number of times. With a positive maxAge, codes older than maxAge are refused.
type Gate struct {
	mu sync.Mutex

	state         State
	code          string
	email         string
	issuedAt      time.Time
	verifiedEmail string

	maxAge   time.Duration
	generate CodeGenerator
	now      func() time.Time
}

// GateOption customizes a Gate.
type GateOption func(*Gate)

// WithMaxCodeAge expires codes after d. Zero keeps codes valid indefinitely.
func WithMaxCodeAge(d time.Duration) GateOption {
	return func(g *Gate) { g.maxAge = d }
}

// WithCodeGenerator replaces the random code source.
func WithCodeGenerator(gen CodeGenerator) GateOption {
	return func(g *Gate) {
		if gen != nil {
			g.generate = gen
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGate returns an Unverified gate.
func NewGate(opts ...GateOption) *Gate {
	g := &Gate{generate: RandomCode, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Issue generates a code for email, replacing any earlier code, and moves the gate to
// CodeSent. A previously verified email is forgotten.
func (g *Gate) Issue(email string) (string, error) {
	email = records.CleanText(email)
	if !records.ValidEmail(email) {
		return "", errors.Newf("a valid email address is required").
			Category(errors.CategoryValidation).
			Component("verification").
			Build()
	}

	code, err := g.generate()
	if err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = CodeSent
	g.code = code
	g.email = email
	g.issuedAt = g.now()
	g.verifiedEmail = ""
	return code, nil
}

// Confirm compares input with the current code. On a match the gate becomes Verified
// for the email the code was sent to; otherwise the state is left untouched.
func (g *Gate) Confirm(input string) error {
	input = strings.ReplaceAll(records.CleanText(input), " ", "")

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.code == "" {
		return ErrNoCodeIssued
	}
	if g.maxAge > 0 && g.now().Sub(g.issuedAt) > g.maxAge {
		return ErrCodeExpired
	}
	if subtle.ConstantTimeCompare([]byte(input), []byte(g.code)) != 1 {
		return ErrCodeMismatch
	}
	g.state = Verified
	g.verifiedEmail = g.email
	return nil
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Verified reports whether a code has been confirmed.
func (g *Gate) Verified() bool {
	return g.State() == Verified
}

// Email returns the address the current code was sent to.
func (g *Gate) Email() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.email
}

// VerifiedEmail returns the confirmed address, or "" when not verified.
func (g *Gate) VerifiedEmail() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.verifiedEmail
}

// Reset returns the gate to Unverified and forgets the code and both addresses.
// Options set at construction are kept.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = Unverified
	g.code, g.email, g.verifiedEmail = "", "", ""
	g.issuedAt = time.Time{}
}
