// Package session keeps the per-visitor state of the directory: the verification gate,
// the selected tab and the feedback target. Sessions live in memory only.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/twdrugfinder/drugfinder/internal/verification"
)

// DefaultTTL is the idle lifetime of a session.
const DefaultTTL = 2 * time.Hour

// FeedbackTarget is the inventory row a visitor is about to give feedback on.
type FeedbackTarget struct {
	InstitutionCode string `json:"institution_code"`
	Drug            string `json:"drug"`
}

// Session is one visitor's state. Gate is safe for concurrent use on its own; the
// remaining fields are guarded by mu.
type Session struct {
	ID        string
	CreatedAt time.Time
	Gate      *verification.Gate

	mu             sync.Mutex
	selectedTab    string
	feedbackTarget FeedbackTarget
}

// VerifiedEmail returns the clinic email confirmed in this session, or "".
func (s *Session) VerifiedEmail() string {
	return s.Gate.VerifiedEmail()
}

func (s *Session) SelectedTab() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedTab
}

func (s *Session) SetSelectedTab(tab string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedTab = tab
}

func (s *Session) FeedbackTarget() FeedbackTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feedbackTarget
}

func (s *Session) SetFeedbackTarget(t FeedbackTarget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedbackTarget = t
}

// Store holds sessions keyed by UUID. Every Get extends the idle lifetime.
type Store struct {
	items    *cache.Cache
	ttl      time.Duration
	gateOpts []verification.GateOption
}

// NewStore creates a store whose sessions expire after ttl without use. Gates of new
// sessions are built with gateOpts.
func NewStore(ttl time.Duration, gateOpts ...verification.GateOption) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		items:    cache.New(ttl, ttl/2),
		ttl:      ttl,
		gateOpts: gateOpts,
	}
}

// TTL returns the idle lifetime.
func (st *Store) TTL() time.Duration { return st.ttl }

// Create starts a new session.
func (st *Store) Create() *Session {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Gate:      verification.NewGate(st.gateOpts...),
	}
	st.items.SetDefault(s.ID, s)
	return s
}

// Get returns the live session with id.
func (st *Store) Get(id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	v, ok := st.items.Get(id)
	if !ok {
		return nil, false
	}
	s := v.(*Session)
	st.items.SetDefault(id, s)
	return s, true
}

// Delete ends a session.
func (st *Store) Delete(id string) {
	st.items.Delete(id)
}

// Len returns the number of stored sessions, including expired ones not yet swept.
func (st *Store) Len() int {
	return st.items.ItemCount()
}
