package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/tinoosan/bookkeeping/internal/errs"
	"github.com/tinoosan/bookkeeping/internal/ledger"
)

// Snapshot copies the company's groups, ledgers and entries under one read lock.
func (s *Store) Snapshot(_ context.Context, companyID uuid.UUID) (ledger.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vs := s.companyVouchersLocked(companyID)
	snap := ledger.Snapshot{
		CompanyID:    companyID,
		Version:      s.versions[companyID],
		Groups:       s.groupsLocked(companyID),
		Ledgers:      s.ledgersLocked(companyID),
		Entries:      make([]ledger.VoucherEntry, 0),
		VoucherCount: len(vs),
	}
	for _, v := range vs {
		snap.Entries = append(snap.Entries, v.Entries...)
	}
	return snap, nil
}

// LedgerHistory returns a ledger and its postings asc by (Date, Seq).
func (s *Store) LedgerHistory(_ context.Context, companyID, ledgerID uuid.UUID) (ledger.LedgerHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.ledgers[ledgerID]
	if !ok || l.CompanyID != companyID {
		return ledger.LedgerHistory{}, errs.NotFound("ledger", ledgerID)
	}
	h := ledger.LedgerHistory{Version: s.versions[companyID], Ledger: l, Postings: make([]ledger.Posting, 0)}
	for _, v := range s.companyVouchersLocked(companyID) {
		for _, e := range v.Entries {
			if e.LedgerID != ledgerID {
				continue
			}
			h.Postings = append(h.Postings, ledger.Posting{
				VoucherID:     v.ID,
				VoucherNumber: v.Number,
				VoucherType:   v.Type,
				Date:          v.Date,
				Seq:           v.Seq,
				Narration:     v.Narration,
				Amount:        e.Amount,
				Side:          e.Side,
			})
		}
	}
	return h, nil
}
