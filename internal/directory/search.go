package directory

import (
	"context"

	"github.com/twdrugfinder/drugfinder/internal/records"
)

// SupplyQuery selects inventory rows. An empty or all-Taiwan City matches every city;
// a non-empty Payment keeps rows accepting at least one of the listed conditions.
type SupplyQuery struct {
	Drug    string
	City    string
	Payment []records.PaymentCondition
}

// FindSupply returns the visible inventory rows matching q. The bool reports whether
// the rows came from cache without a remote read.
func (d *Directory) FindSupply(ctx context.Context, q SupplyQuery) ([]records.InventoryRow, bool) {
	rows, fresh := d.inventory.Get(ctx)
	return FilterSupply(rows, q), fresh
}

// FilterSupply applies q to rows. Hidden rows (unlisted or not in stock) never match.
func FilterSupply(rows []records.InventoryRow, q SupplyQuery) []records.InventoryRow {
	out := make([]records.InventoryRow, 0)
	for _, r := range rows {
		if !r.Visible() {
			continue
		}
		if !records.SameText(r.Drug, q.Drug) {
			continue
		}
		if !records.IsAllCities(q.City) && !records.SameText(r.City, q.City) {
			continue
		}
		if !r.Payment.HasAny(q.Payment...) {
			continue
		}
		out = append(out, r)
	}
	return out
}
