package records

import (
	"slices"
	"strings"
)

// StockStatus is the stock state of an inventory row.
type StockStatus string

const (
	StockInStock    StockStatus = "in-stock"
	StockOutOfStock StockStatus = "out-of-stock"
	StockUnknown    StockStatus = "unknown"
)

// Remote labels. Curators type free text into the stock column; only these lists are
// recognized and any other text is StockUnknown, which keeps the row hidden.
var (
	inStockLabels    = []string{"有貨", "有庫存", "現貨", "in stock", "in-stock"}
	outOfStockLabels = []string{"缺貨", "無庫存", "暫缺", "out of stock", "out-of-stock"}
)

// ParseStockStatus maps a remote stock label to a StockStatus.
func ParseStockStatus(label string) StockStatus {
	label = strings.ToLower(CleanText(label))
	switch {
	case slices.Contains(inStockLabels, label):
		return StockInStock
	case slices.Contains(outOfStockLabels, label):
		return StockOutOfStock
	default:
		return StockUnknown
	}
}

// Label returns the remote display label.
func (s StockStatus) Label() string {
	switch s {
	case StockInStock:
		return "有貨"
	case StockOutOfStock:
		return "缺貨"
	default:
		return ""
	}
}

// FeedbackKind is what a feedback entry says about an inventory row.
type FeedbackKind string

const (
	FeedbackConfirmed FeedbackKind = "confirmed-accurate"
	FeedbackDisputed  FeedbackKind = "reported-inaccurate"
	FeedbackUnknown   FeedbackKind = "unknown"
)

var feedbackLabels = map[string]FeedbackKind{
	"資訊正確":                FeedbackConfirmed,
	"正確":                  FeedbackConfirmed,
	"確認有貨":                FeedbackConfirmed,
	"confirmed-accurate":  FeedbackConfirmed,
	"資訊有誤":                FeedbackDisputed,
	"有誤":                  FeedbackDisputed,
	"已無庫存":                FeedbackDisputed,
	"reported-inaccurate": FeedbackDisputed,
}

// ParseFeedbackKind maps a remote feedback label to a FeedbackKind.
func ParseFeedbackKind(label string) FeedbackKind {
	if k, ok := feedbackLabels[strings.ToLower(strings.TrimSpace(label))]; ok {
		return k
	}
	return FeedbackUnknown
}

// Valid reports whether k may be written.
func (k FeedbackKind) Valid() bool {
	return k == FeedbackConfirmed || k == FeedbackDisputed
}

// Label returns the remote display label.
func (k FeedbackKind) Label() string {
	switch k {
	case FeedbackConfirmed:
		return "資訊正確"
	case FeedbackDisputed:
		return "資訊有誤"
	default:
		return ""
	}
}

// ProposalStatus is the review state of a new-drug proposal.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalApproved ProposalStatus = "approved"
	ProposalRejected ProposalStatus = "rejected"
)

var proposalLabels = map[string]ProposalStatus{
	"待審核":      ProposalPending,
	"審核中":      ProposalPending,
	"pending":  ProposalPending,
	"已核准":      ProposalApproved,
	"已上架":      ProposalApproved,
	"approved": ProposalApproved,
	"已駁回":      ProposalRejected,
	"不通過":      ProposalRejected,
	"rejected": ProposalRejected,
}

// ParseProposalStatus maps a remote status label. A blank status is pending: new rows
// are inserted before a curator has looked at them.
func ParseProposalStatus(label string) ProposalStatus {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return ProposalPending
	}
	if s, ok := proposalLabels[label]; ok {
		return s
	}
	return ProposalPending
}

// Label returns the remote display label.
func (s ProposalStatus) Label() string {
	switch s {
	case ProposalApproved:
		return "已核准"
	case ProposalRejected:
		return "已駁回"
	default:
		return "待審核"
	}
}
