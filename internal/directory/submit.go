package directory

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/twdrugfinder/drugfinder/internal/coda"
	"github.com/twdrugfinder/drugfinder/internal/datastore"
	"github.com/twdrugfinder/drugfinder/internal/errors"
	"github.com/twdrugfinder/drugfinder/internal/logger"
	"github.com/twdrugfinder/drugfinder/internal/records"
	"github.com/twdrugfinder/drugfinder/internal/verification"
)

// Submission kinds, used as metric labels and journal kinds.
const (
	KindWish     = "wish"
	KindProposal = "proposal"
	KindSupply   = "supply"
	KindFeedback = "feedback"
)

// ErrNotVerified is returned for a supply report from an unverified session.
var ErrNotVerified = errors.NewStd("clinic email has not been verified")

// SubmitWish appends a wish to the requests table. Submitting the same wish twice
// counts twice.
func (d *Directory) SubmitWish(ctx context.Context, w records.WishRequest) error {
	w = w.Normalize()
	if err := w.Validate(); err != nil {
		d.metrics.RecordSubmission(KindWish, false)
		return err
	}
	return d.submit(ctx, KindWish, d.tables.Requests, w.Cells(), KeyRequests, KeyDrugs)
}

// SubmitProposal appends a pending new-drug proposal and alerts reviewers.
func (d *Directory) SubmitProposal(ctx context.Context, p records.NewDrugProposal) error {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		d.metrics.RecordSubmission(KindProposal, false)
		return err
	}
	if err := d.submit(ctx, KindProposal, d.tables.Wishlist, p.Cells(), KeyPending); err != nil {
		return err
	}
	if d.notifier != nil {
		d.notifier.NotifyProposal(p)
	}
	return nil
}

// SubmitSupply appends a clinic report to the supply inbox. The gate must be verified;
// its confirmed email replaces whatever the report carries. Reviewers are alerted so
// the report can be promoted to the inventory.
func (d *Directory) SubmitSupply(ctx context.Context, gate *verification.Gate, r records.SupplyReport) error {
	if gate == nil || !gate.Verified() {
		d.metrics.RecordSubmission(KindSupply, false)
		return ErrNotVerified
	}
	r.Email = gate.VerifiedEmail()
	r = r.Normalize()
	if err := r.Validate(); err != nil {
		d.metrics.RecordSubmission(KindSupply, false)
		return err
	}
	if err := d.submit(ctx, KindSupply, d.tables.Inbox, r.Cells(), KeyInventory); err != nil {
		return err
	}
	if d.notifier != nil {
		d.notifier.NotifySupplyReport(r)
	}
	return nil
}

// SubmitFeedback appends a feedback entry stamped with the current time.
func (d *Directory) SubmitFeedback(ctx context.Context, f records.FeedbackEntry) error {
	f.ReportedAt = d.now()
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		d.metrics.RecordSubmission(KindFeedback, false)
		return err
	}
	return d.submit(ctx, KindFeedback, d.tables.Feedback, f.Cells(d.loc), KeyFeedback)
}

// submit inserts one row, journals the attempt and, on success, invalidates keys once
// the settle pause has passed.
func (d *Directory) submit(ctx context.Context, kind, table string, cells []coda.Cell, keys ...string) error {
	start := time.Now()
	res, err := d.store.InsertRows(ctx, table, cells)
	elapsed := time.Since(start)

	d.metrics.RecordSubmission(kind, err == nil)
	d.record(ctx, kind, table, cells, res, err, elapsed)

	if err != nil {
		d.log.Warn("submission failed",
			logger.String("kind", kind),
			logger.String("table", table),
			logger.Duration("duration", elapsed),
			logger.Error(err))
		return err
	}

	d.waitSettle(ctx)
	for _, key := range keys {
		d.cache.Invalidate(key)
	}
	d.log.Info("submission accepted",
		logger.String("kind", kind),
		logger.String("table", table),
		logger.String("request_id", res.RequestID))
	return nil
}

// waitSettle pauses for the settle window. The write has already succeeded, so a
// cancelled context only cuts the pause short.
func (d *Directory) waitSettle(ctx context.Context) {
	if d.settle <= 0 {
		return
	}
	t := time.NewTimer(d.settle)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// record journals one attempt. Journal failures are logged and never fail the write.
func (d *Directory) record(ctx context.Context, kind, table string, cells []coda.Cell, res *coda.InsertResult, err error, elapsed time.Duration) {
	if d.journal == nil {
		return
	}
	s := &datastore.Submission{
		Kind:       kind,
		Table:      table,
		Success:    err == nil,
		Cells:      maskedCells(cells),
		DurationMs: elapsed.Milliseconds(),
	}
	if err != nil {
		s.Error = errors.ScrubMessage(err.Error())
	}
	if res != nil {
		s.RequestID = res.RequestID
	}
	if jerr := d.journal.Record(context.WithoutCancel(ctx), s); jerr != nil {
		d.log.Warn("failed to journal submission",
			logger.String("kind", kind),
			logger.Error(jerr))
	}
}

// maskedCells encodes cells for the journal with email addresses masked.
func maskedCells(cells []coda.Cell) datatypes.JSON {
	masked := make([]coda.Cell, len(cells))
	for i, c := range cells {
		if s, ok := c.Value.(string); ok && records.ValidEmail(s) {
			c.Value = logger.MaskEmail(s)
		}
		masked[i] = c
	}
	b, err := json.Marshal(masked)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(b)
}
