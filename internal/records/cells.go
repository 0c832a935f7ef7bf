package records

import (
	"maps"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/twdrugfinder/drugfinder/internal/coda"
	"github.com/twdrugfinder/drugfinder/internal/errors"
)

// Insert column names.
const (
	ColWishEmail = "許願者Email"
	ColWishCity  = "所在縣市"
	ColWishDrug  = "想要藥品"

	ColProposalEmail  = "提議人Email"
	ColProposalCity   = "所在縣市"
	ColProposalDrug   = "藥品名稱"
	ColProposalStatus = "狀態"

	ColInboxCode    = "機構代碼"
	ColInboxName    = "診所名稱"
	ColInboxCity    = "所在縣市"
	ColInboxDrug    = "提供藥品"
	ColInboxPayment = "給付條件"
	ColInboxEmail   = "聯絡Email"

	ColFeedbackCode  = "機構代碼"
	ColFeedbackDrug  = "藥品名稱"
	ColFeedbackKind  = "回饋類型"
	ColFeedbackNote  = "備註"
	ColFeedbackTime  = "回報時間"
	ColFeedbackEmail = "回報者Email"
)

// FeedbackTimeLayout is how report times are written to the feedback table.
const FeedbackTimeLayout = "2006-01-02 15:04:05"

func fieldError(entity, field, reason string) error {
	return errors.Newf("%s: %s %s", entity, field, reason).
		Category(errors.CategoryValidation).
		Component("records").
		Context("entity", entity).
		Context("field", field).
		Build()
}

func required(entity string, fields map[string]string) error {
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		if strings.TrimSpace(fields[name]) == "" {
			errs = append(errs, fieldError(entity, name, "is required"))
		}
	}
	return errors.Join(errs...)
}

// ValidEmail reports whether s is a single bare address.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s, ".")
}

func checkEmail(entity, field, email string, optional bool) error {
	if email == "" && optional {
		return nil
	}
	if !ValidEmail(email) {
		return fieldError(entity, field, "is not a valid email address")
	}
	return nil
}

// Normalize folds all text fields of the wish.
func (w WishRequest) Normalize() WishRequest {
	return WishRequest{Email: CleanText(w.Email), City: CleanText(w.City), Drug: CleanText(w.Drug)}
}

// Validate checks the fields the wish form requires. Email is optional.
func (w WishRequest) Validate() error {
	if err := required("wish", map[string]string{"city": w.City, "drug": w.Drug}); err != nil {
		return err
	}
	return checkEmail("wish", "email", w.Email, true)
}

// Cells maps the wish onto requests-table columns.
func (w WishRequest) Cells() []coda.Cell {
	return []coda.Cell{
		{Column: ColWishEmail, Value: w.Email},
		{Column: ColWishCity, Value: w.City},
		{Column: ColWishDrug, Value: w.Drug},
	}
}

// Normalize folds all text fields and marks the proposal pending.
func (p NewDrugProposal) Normalize() NewDrugProposal {
	return NewDrugProposal{
		Email:    CleanText(p.Email),
		City:     CleanText(p.City),
		DrugName: CleanText(p.DrugName),
		Status:   ProposalPending,
	}
}

// Validate checks the proposal form.
func (p NewDrugProposal) Validate() error {
	if err := required("proposal", map[string]string{"city": p.City, "drug_name": p.DrugName}); err != nil {
		return err
	}
	return checkEmail("proposal", "email", p.Email, true)
}

// Cells maps the proposal onto wishlist-table columns.
func (p NewDrugProposal) Cells() []coda.Cell {
	return []coda.Cell{
		{Column: ColProposalEmail, Value: p.Email},
		{Column: ColProposalCity, Value: p.City},
		{Column: ColProposalDrug, Value: p.DrugName},
		{Column: ColProposalStatus, Value: p.Status.Label()},
	}
}

// Normalize folds all text fields of the report.
func (s SupplyReport) Normalize() SupplyReport {
	return SupplyReport{
		InstitutionCode: strings.ToUpper(CleanText(s.InstitutionCode)),
		InstitutionName: CleanText(s.InstitutionName),
		City:            CleanText(s.City),
		Drug:            CleanText(s.Drug),
		Payment:         s.Payment,
		Email:           CleanText(s.Email),
	}
}

// Validate checks the supply form. Payment conditions may be empty.
func (s SupplyReport) Validate() error {
	if err := required("supply", map[string]string{
		"institution_code": s.InstitutionCode,
		"institution_name": s.InstitutionName,
		"city":             s.City,
		"drug":             s.Drug,
		"email":            s.Email,
	}); err != nil {
		return err
	}
	return checkEmail("supply", "email", s.Email, false)
}

// Cells maps the report onto supply-inbox columns. Payment is sent as a list so the
// multi-select column receives one entry per tag.
func (s SupplyReport) Cells() []coda.Cell {
	return []coda.Cell{
		{Column: ColInboxCode, Value: s.InstitutionCode},
		{Column: ColInboxName, Value: s.InstitutionName},
		{Column: ColInboxCity, Value: s.City},
		{Column: ColInboxDrug, Value: s.Drug},
		{Column: ColInboxPayment, Value: s.Payment.Strings()},
		{Column: ColInboxEmail, Value: s.Email},
	}
}

// Normalize folds all text fields of the entry.
func (f FeedbackEntry) Normalize() FeedbackEntry {
	return FeedbackEntry{
		InstitutionCode: strings.ToUpper(CleanText(f.InstitutionCode)),
		Drug:            CleanText(f.Drug),
		Kind:            f.Kind,
		Note:            strings.TrimSpace(f.Note),
		ReportedAt:      f.ReportedAt,
		Email:           CleanText(f.Email),
	}
}

// Validate checks the feedback form.
func (f FeedbackEntry) Validate() error {
	if err := required("feedback", map[string]string{
		"institution_code": f.InstitutionCode,
		"drug":             f.Drug,
	}); err != nil {
		return err
	}
	if !f.Kind.Valid() {
		return fieldError("feedback", "kind", "must be "+string(FeedbackConfirmed)+" or "+string(FeedbackDisputed))
	}
	return checkEmail("feedback", "email", f.Email, true)
}

// Cells maps the entry onto feedback-table columns.
func (f FeedbackEntry) Cells(loc *time.Location) []coda.Cell {
	if loc == nil {
		loc = time.Local
	}
	return []coda.Cell{
		{Column: ColFeedbackCode, Value: f.InstitutionCode},
		{Column: ColFeedbackDrug, Value: f.Drug},
		{Column: ColFeedbackKind, Value: f.Kind.Label()},
		{Column: ColFeedbackNote, Value: f.Note},
		{Column: ColFeedbackTime, Value: f.ReportedAt.In(loc).Format(FeedbackTimeLayout)},
		{Column: ColFeedbackEmail, Value: f.Email},
	}
}
