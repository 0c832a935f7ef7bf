// Package notification alerts human reviewers when a submission awaits curation in the
// remote store. Delivery is best effort: a failed alert never fails the submission.
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type categorizes a notification.
type Type string

const (
	TypeSupplyReport Type = "supply_report" // new clinic supply report in the inbox
	TypeDrugProposal Type = "drug_proposal" // new-drug proposal in the wishlist
	TypeTest         Type = "test"
)

// Notification is one reviewer alert.
type Notification struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewNotification creates a notification with a unique ID and timestamp.
func NewNotification(notifType Type, title, message string) *Notification {
	return &Notification{
		ID:        uuid.NewString(),
		Type:      notifType,
		Title:     title,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WithMetadata adds a metadata entry and returns n.
func (n *Notification) WithMetadata(key string, value any) *Notification {
	if n.Metadata == nil {
		n.Metadata = make(map[string]any)
	}
	n.Metadata[key] = value
	return n
}

// Provider delivers notifications to one set of destinations.
type Provider interface {
	GetName() string
	ValidateConfig() error
	Send(ctx context.Context, n *Notification) error
	SupportsType(notifType Type) bool
	IsEnabled() bool
}
