package records

import (
	"encoding/json"
	"slices"
	"strings"
)

// PaymentCondition is one payment tag of a supply report or inventory row.
type PaymentCondition string

const (
	PaymentNHI     PaymentCondition = "健保"    // national health insurance
	PaymentSelfPay PaymentCondition = "自費"    // self-pay
	PaymentHPA     PaymentCondition = "國健署專案" // Health Promotion Administration programme
)

// KnownPaymentConditions lists the tags offered by the supply form, in display order.
var KnownPaymentConditions = []PaymentCondition{PaymentNHI, PaymentSelfPay, PaymentHPA}

var paymentAliases = map[string]PaymentCondition{
	"健保給付":     PaymentNHI,
	"nhi":      PaymentNHI,
	"self-pay": PaymentSelfPay,
	"自費給付":     PaymentSelfPay,
	"國健署":      PaymentHPA,
	"hpa":      PaymentHPA,
}

// listSeparators split a multi-select value that arrived as one joined string.
const listSeparators = ",，、;；"

// ParsePaymentCondition folds a label onto a known tag. Unknown non-empty labels are
// returned as-is so curator-added tags still match themselves.
func ParsePaymentCondition(label string) (PaymentCondition, bool) {
	label = CleanText(label)
	if label == "" {
		return "", false
	}
	for _, known := range KnownPaymentConditions {
		if label == string(known) {
			return known, true
		}
	}
	if c, ok := paymentAliases[strings.ToLower(label)]; ok {
		return c, true
	}
	return PaymentCondition(label), true
}

// PaymentConditions is a set of payment tags. Membership is the only meaningful
// operation: a single value and a one-element list produce the same set.
type PaymentConditions struct {
	tags []PaymentCondition // unique, canonical order
}

// NewPaymentConditions builds a set from labels. Each label may itself be a joined
// multi-select value ("健保, 自費").
func NewPaymentConditions(labels ...string) PaymentConditions {
	var p PaymentConditions
	for _, label := range labels {
		for _, part := range splitList(label) {
			if c, ok := ParsePaymentCondition(part); ok {
				p.add(c)
			}
		}
	}
	return p
}

func (p *PaymentConditions) add(c PaymentCondition) {
	if p.Has(c) {
		return
	}
	p.tags = append(p.tags, c)
	slices.SortStableFunc(p.tags, func(a, b PaymentCondition) int {
		ra, rb := paymentRank(a), paymentRank(b)
		if ra != rb {
			return ra - rb
		}
		return strings.Compare(string(a), string(b))
	})
}

func paymentRank(c PaymentCondition) int {
	if i := slices.Index(KnownPaymentConditions, c); i >= 0 {
		return i
	}
	return len(KnownPaymentConditions)
}

// Has reports whether c is in the set.
func (p PaymentConditions) Has(c PaymentCondition) bool {
	return slices.Contains(p.tags, c)
}

// HasAny reports whether any of cs is in the set. An empty cs matches every set.
func (p PaymentConditions) HasAny(cs ...PaymentCondition) bool {
	if len(cs) == 0 {
		return true
	}
	for _, c := range cs {
		if p.Has(c) {
			return true
		}
	}
	return false
}

// Len returns the number of tags.
func (p PaymentConditions) Len() int { return len(p.tags) }

// Strings returns the tags in canonical order, never nil.
func (p PaymentConditions) Strings() []string {
	out := make([]string, 0, len(p.tags))
	for _, c := range p.tags {
		out = append(out, string(c))
	}
	return out
}

// Equal reports whether both sets hold the same tags.
func (p PaymentConditions) Equal(o PaymentConditions) bool {
	return slices.Equal(p.tags, o.tags)
}

func (p PaymentConditions) String() string {
	return strings.Join(p.Strings(), "、")
}

// MarshalJSON encodes the set as a JSON array.
func (p PaymentConditions) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Strings())
}

// UnmarshalJSON accepts a JSON array or a single string.
func (p *PaymentConditions) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*p = NewPaymentConditions(list...)
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*p = NewPaymentConditions(single)
	return nil
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(listSeparators, r)
	})
}
