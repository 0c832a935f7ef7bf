package records

import (
	"slices"
	"strings"
	"time"

	"github.com/twdrugfinder/drugfinder/internal/coda"
)

// Field tables, one per entity. Column names are tried in order, newest first.
var (
	drugFields = struct {
		Name, Category           FieldSpec[string]
		WishCount, SupplierCount FieldSpec[int]
	}{
		Name:          StringField("", "藥品名稱", "藥品", "Name"),
		Category:      StringField("", "藥品分類", "分類"),
		WishCount:     IntField(0, "許願人數", "需求人數"),
		SupplierCount: IntField(0, "供貨診所數", "供貨數"),
	}

	cityFields = struct {
		Name FieldSpec[string]
	}{
		Name: StringField("", "name", "縣市", "名稱"),
	}

	requestFields = struct {
		Email, City, Drug FieldSpec[string]
	}{
		Email: StringField("", ColWishEmail, "Email"),
		City:  StringField("", ColWishCity, "縣市"),
		Drug:  StringField("", ColWishDrug, "藥品名稱"),
	}

	proposalFields = struct {
		Email, City, DrugName, Status FieldSpec[string]
	}{
		Email:    StringField("", ColProposalEmail, "Email"),
		City:     StringField("", ColProposalCity, "縣市"),
		DrugName: StringField("", ColProposalDrug, "想要藥品"),
		Status:   StringField("", ColProposalStatus, "審核狀態"),
	}

	inboxFields = struct {
		Code, Name, City, Drug, Email FieldSpec[string]
		Payment                       FieldSpec[[]string]
	}{
		Code:    StringField("", ColInboxCode),
		Name:    StringField("", ColInboxName, "診所"),
		City:    StringField("", ColInboxCity, "縣市"),
		Drug:    StringField("", ColInboxDrug, "藥品"),
		Email:   StringField("", ColInboxEmail, "Email"),
		Payment: ListField(ColInboxPayment),
	}

	inventoryFields = struct {
		Clinic, Code, Drug, City, Stock FieldSpec[string]
		Note                            FieldSpec[string]
		Payment                         FieldSpec[[]string]
		Listed                          FieldSpec[bool]
	}{
		Clinic:  StringField("", "診所", "診所名稱"),
		Code:    StringField("", "機構代碼"),
		Drug:    StringField("", "藥品", "藥品名稱"),
		City:    StringField("", "縣市1", "縣市"),
		Stock:   StringField("", "庫存狀態"),
		Note:    TextField("", "備註"),
		Payment: ListField("給付條件"),
		Listed:  BoolField(false, "是否上架"),
	}

	feedbackFields = struct {
		Code, Drug, Kind, Email FieldSpec[string]
		Note                    FieldSpec[string]
		ReportedAt              FieldSpec[time.Time]
	}{
		Code:       StringField("", ColFeedbackCode),
		Drug:       StringField("", ColFeedbackDrug, "藥品"),
		Kind:       StringField("", ColFeedbackKind),
		Email:      StringField("", ColFeedbackEmail, "Email"),
		Note:       TextField("", ColFeedbackNote),
		ReportedAt: TimeField(ColFeedbackTime, "時間"),
	}
)

// DecodeDrug normalizes one drugs-table row. The row display name stands in for a
// missing name column.
func DecodeDrug(row coda.Row) Drug {
	b := NewBag(row.Values)
	d := Drug{
		Name:          drugFields.Name.Read(b),
		Category:      drugFields.Category.Read(b),
		WishCount:     drugFields.WishCount.Read(b),
		SupplierCount: drugFields.SupplierCount.Read(b),
	}
	if d.Name == "" {
		d.Name = CleanText(row.Name)
	}
	return d
}

// DecodeDrugs normalizes a drugs table, dropping rows without a name. Duplicate names
// keep the first row.
func DecodeDrugs(rows []coda.Row) []Drug {
	out := make([]Drug, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		d := DecodeDrug(row)
		if d.Name == "" || seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		out = append(out, d)
	}
	return out
}

// DecodeCity normalizes one cities-table row.
func DecodeCity(row coda.Row) City {
	c := City{Name: cityFields.Name.Read(NewBag(row.Values)), Order: row.Index}
	if c.Name == "" {
		c.Name = CleanText(row.Name)
	}
	return c
}

// DecodeCities normalizes the cities table sorted by remote row index.
func DecodeCities(rows []coda.Row) []City {
	out := make([]City, 0, len(rows))
	for _, row := range rows {
		if c := DecodeCity(row); c.Name != "" {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b City) int { return a.Order - b.Order })
	return out
}

// DecodeWishRequest normalizes one requests-table row.
func DecodeWishRequest(row coda.Row) WishRequest {
	b := NewBag(row.Values)
	return WishRequest{
		Email: requestFields.Email.Read(b),
		City:  requestFields.City.Read(b),
		Drug:  requestFields.Drug.Read(b),
	}
}

// DecodeWishRequests normalizes the requests table in remote order.
func DecodeWishRequests(rows []coda.Row) []WishRequest {
	return decodeAll(rows, DecodeWishRequest)
}

// DecodeProposal normalizes one wishlist-table row.
func DecodeProposal(row coda.Row) NewDrugProposal {
	b := NewBag(row.Values)
	return NewDrugProposal{
		Email:    proposalFields.Email.Read(b),
		City:     proposalFields.City.Read(b),
		DrugName: proposalFields.DrugName.Read(b),
		Status:   ParseProposalStatus(proposalFields.Status.Read(b)),
	}
}

// DecodeProposals normalizes the wishlist table in remote order.
func DecodeProposals(rows []coda.Row) []NewDrugProposal {
	return decodeAll(rows, DecodeProposal)
}

// DecodeSupplyReport normalizes one supply-inbox row.
func DecodeSupplyReport(row coda.Row) SupplyReport {
	b := NewBag(row.Values)
	return SupplyReport{
		InstitutionCode: inboxFields.Code.Read(b),
		InstitutionName: inboxFields.Name.Read(b),
		City:            inboxFields.City.Read(b),
		Drug:            inboxFields.Drug.Read(b),
		Payment:         NewPaymentConditions(inboxFields.Payment.Read(b)...),
		Email:           inboxFields.Email.Read(b),
	}
}

// DecodeInventoryRow normalizes one inventory-table row.
func DecodeInventoryRow(row coda.Row) InventoryRow {
	b := NewBag(row.Values)
	return InventoryRow{
		Clinic:          inventoryFields.Clinic.Read(b),
		InstitutionCode: inventoryFields.Code.Read(b),
		Drug:            inventoryFields.Drug.Read(b),
		City:            inventoryFields.City.Read(b),
		Stock:           ParseStockStatus(inventoryFields.Stock.Read(b)),
		Payment:         NewPaymentConditions(inventoryFields.Payment.Read(b)...),
		Listed:          inventoryFields.Listed.Read(b),
		Note:            inventoryFields.Note.Read(b),
	}
}

// DecodeInventory normalizes the inventory table in remote order.
func DecodeInventory(rows []coda.Row) []InventoryRow {
	return decodeAll(rows, DecodeInventoryRow)
}

// DecodeFeedback normalizes one feedback-table row. A missing report time falls back
// to the row's creation time.
func DecodeFeedback(row coda.Row) FeedbackEntry {
	b := NewBag(row.Values)
	f := FeedbackEntry{
		InstitutionCode: feedbackFields.Code.Read(b),
		Drug:            feedbackFields.Drug.Read(b),
		Kind:            ParseFeedbackKind(feedbackFields.Kind.Read(b)),
		Note:            feedbackFields.Note.Read(b),
		ReportedAt:      feedbackFields.ReportedAt.Read(b),
		Email:           feedbackFields.Email.Read(b),
	}
	if f.ReportedAt.IsZero() {
		f.ReportedAt = row.CreatedAt
	}
	return f
}

// DecodeFeedbacks normalizes the feedback table in remote order.
func DecodeFeedbacks(rows []coda.Row) []FeedbackEntry {
	return decodeAll(rows, DecodeFeedback)
}

func decodeAll[T any](rows []coda.Row, decode func(coda.Row) T) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		out = append(out, decode(row))
	}
	return out
}

// IsAllCities reports whether city means "no city filter".
func IsAllCities(city string) bool {
	city = strings.TrimSpace(city)
	return city == "" || city == AllTaiwan
}
