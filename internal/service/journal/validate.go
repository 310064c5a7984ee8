package journal

import (
	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/tinoosan/bookkeeping/internal/errs"
	"github.com/tinoosan/bookkeeping/internal/ledger"
	"github.com/tinoosan/bookkeeping/internal/normalize"
)

// ProposedEntry is an entry as submitted. LedgerID may be uuid.Nil, Amount may
// be zero or negative and Side may be anything; Clean discards such entries.
type ProposedEntry struct {
	LedgerID uuid.UUID
	Amount   decimal.Decimal
	Side     ledger.Side
}

// Result is an accepted set of entries with their totals.
type Result struct {
	Entries []ledger.VoucherEntry
	TotalDr decimal.Decimal
	TotalCr decimal.Decimal
}

// Clean drops entries with a missing ledger, a non-positive amount or a side
// other than Dr/Cr, keeping the order of the rest.
func Clean(proposed []ProposedEntry) []ledger.VoucherEntry {
	out := make([]ledger.VoucherEntry, 0, len(proposed))
	for _, p := range proposed {
		if p.LedgerID == uuid.Nil || !p.Amount.IsPos() || !p.Side.Valid() {
			continue
		}
		out = append(out, ledger.VoucherEntry{LedgerID: p.LedgerID, Amount: p.Amount, Side: p.Side})
	}
	return out
}

// Check applies the double-entry rules to cleaned entries. known holds the
// referenced ledger ids that belong to the company; ids outside the company
// must be absent from it. Checks run in order: at least two entries, every
// amount within the stored scale and limit, every distinct ledger known, then
// |Dr - Cr| within ledger.MatchTolerance.
func Check(entries []ledger.VoucherEntry, known map[uuid.UUID]bool) (Result, error) {
	if len(entries) < 2 {
		return Result{}, &errs.ValidationError{Field: "entries", Reason: "at least two entries are required", Err: errs.ErrTooFewEntries}
	}
	for _, e := range entries {
		if err := normalize.CheckAmount("amount", e.Amount); err != nil {
			return Result{}, err
		}
	}
	distinct := make(map[uuid.UUID]struct{}, len(entries))
	found := 0
	for _, e := range entries {
		if _, ok := distinct[e.LedgerID]; ok {
			continue
		}
		distinct[e.LedgerID] = struct{}{}
		if known[e.LedgerID] {
			found++
		}
	}
	if found != len(distinct) {
		return Result{}, &errs.ValidationError{Field: "entries", Reason: "one or more ledger entries are invalid for this company", Err: errs.ErrInvalidLedgerReference}
	}
	v := ledger.Voucher{Entries: entries}
	dr, cr, err := v.Totals()
	if err != nil {
		return Result{}, errs.VolumeExceeded("entries")
	}
	ok, err := ledger.WithinTolerance(dr, cr)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, &errs.MismatchError{TotalDr: dr, TotalCr: cr}
	}
	return Result{Entries: entries, TotalDr: dr, TotalCr: cr}, nil
}

// Validate is Clean followed by Check. It has no side effects and must be run
// on every submission.
func Validate(proposed []ProposedEntry, known map[uuid.UUID]bool) (Result, error) {
	return Check(Clean(proposed), known)
}

// LedgerIDs returns the distinct ledger ids referenced by entries in first-seen order.
func LedgerIDs(entries []ledger.VoucherEntry) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(entries))
	out := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.LedgerID]; ok {
			continue
		}
		seen[e.LedgerID] = struct{}{}
		out = append(out, e.LedgerID)
	}
	return out
}
