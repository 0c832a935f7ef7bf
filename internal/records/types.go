// Package records maps the loosely typed rows of the remote tables onto fixed local
// record shapes, and maps local records back onto insertable column cells.
//
// Decoding never fails. A field that is missing, renamed to an unknown name or of the
// wrong JSON shape takes its documented default; the rest of the row is unaffected.
package records

import "time"

// AllTaiwan is the city sentinel meaning "no city filter".
const AllTaiwan = "全台灣"

// Drug is one selectable drug of the drugs table.
type Drug struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	WishCount     int    `json:"wish_count"`
	SupplierCount int    `json:"supplier_count"`
}

// City is one entry of the cities table. Order is the remote row index and defines the
// display order.
type City struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// WishRequest is one vote for a drug. Email may be empty.
type WishRequest struct {
	Email string `json:"email,omitempty"`
	City  string `json:"city"`
	Drug  string `json:"drug"`
}

// NewDrugProposal asks curators to add a drug that is not yet in the drugs table.
type NewDrugProposal struct {
	Email    string         `json:"email,omitempty"`
	City     string         `json:"city"`
	DrugName string         `json:"drug_name"`
	Status   ProposalStatus `json:"status"`
}

// SupplyReport is an unverified inbound report from a clinic.
type SupplyReport struct {
	InstitutionCode string            `json:"institution_code"`
	InstitutionName string            `json:"institution_name"`
	City            string            `json:"city"`
	Drug            string            `json:"drug"`
	Payment         PaymentConditions `json:"payment"`
	Email           string            `json:"email"`
}

// InventoryRow is a curated "where to find it" record.
type InventoryRow struct {
	Clinic          string            `json:"clinic"`
	InstitutionCode string            `json:"institution_code"`
	Drug            string            `json:"drug"`
	City            string            `json:"city"`
	Stock           StockStatus       `json:"stock"`
	Payment         PaymentConditions `json:"payment"`
	Listed          bool              `json:"listed"`
	Note            string            `json:"note,omitempty"`
}

// Visible reports whether the row may be shown in supply search results.
func (r InventoryRow) Visible() bool {
	return r.Listed && r.Stock == StockInStock
}

// FeedbackEntry is one user report about an inventory row.
type FeedbackEntry struct {
	InstitutionCode string       `json:"institution_code"`
	Drug            string       `json:"drug"`
	Kind            FeedbackKind `json:"kind"`
	Note            string       `json:"note,omitempty"`
	ReportedAt      time.Time    `json:"reported_at"`
	Email           string       `json:"email,omitempty"`
}
