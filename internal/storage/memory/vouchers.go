package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/tinoosan/bookkeeping/internal/errs"
	"github.com/tinoosan/bookkeeping/internal/ledger"
	"github.com/tinoosan/bookkeeping/internal/service/journal"
)

// CreateVoucher validates, checks the number and inserts under one write lock.
func (s *Store) CreateVoucher(_ context.Context, v ledger.Voucher, guard journal.Guard) (ledger.Voucher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[uuid.UUID]bool)
	for _, id := range journal.LedgerIDs(v.Entries) {
		if l, ok := s.ledgers[id]; ok && l.CompanyID == v.CompanyID {
			known[id] = true
		}
	}
	if guard != nil {
		if err := guard(known); err != nil {
			return ledger.Voucher{}, err
		}
	}
	for _, other := range s.companyVouchersLocked(v.CompanyID) {
		if other.Number == v.Number {
			return ledger.Voucher{}, &errs.DuplicateError{Field: "voucherNumber", Value: v.Number}
		}
	}
	dr, cr, err := v.Totals()
	if err != nil {
		return ledger.Voucher{}, errs.VolumeExceeded("entries")
	}
	added, err := dr.Add(cr)
	if err != nil {
		return ledger.Voucher{}, errs.VolumeExceeded("entries")
	}
	if err := s.checkVolumeLocked(v.CompanyID, added, "entries"); err != nil {
		return ledger.Voucher{}, err
	}

	s.seq++
	stored := v
	stored.Seq = s.seq
	stored.Entries = append([]ledger.VoucherEntry(nil), v.Entries...)
	s.vouchers[stored.ID] = &stored
	s.insertVoucherIndexLocked(stored.CompanyID, voucherKey{Date: stored.Date, Seq: stored.Seq, ID: stored.ID})
	s.bumpLocked(stored.CompanyID)
	return copyVoucher(&stored), nil
}

// DeleteVoucher removes a voucher and returns what was removed.
func (s *Store) DeleteVoucher(_ context.Context, companyID, voucherID uuid.UUID) (ledger.Voucher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vouchers[voucherID]
	if !ok || v.CompanyID != companyID {
		return ledger.Voucher{}, errs.NotFound("voucher", voucherID)
	}
	delete(s.vouchers, voucherID)
	s.removeVoucherIndexLocked(companyID, voucherID)
	s.bumpLocked(companyID)
	return copyVoucher(v), nil
}

// ListVouchers returns the company's vouchers asc by (Date, Seq).
func (s *Store) ListVouchers(_ context.Context, companyID uuid.UUID) ([]ledger.Voucher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vs := s.companyVouchersLocked(companyID)
	out := make([]ledger.Voucher, 0, len(vs))
	for _, v := range vs {
		out = append(out, copyVoucher(v))
	}
	return out, nil
}

// GetVoucher returns a company's voucher by ID.
func (s *Store) GetVoucher(_ context.Context, companyID, voucherID uuid.UUID) (ledger.Voucher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vouchers[voucherID]
	if !ok || v.CompanyID != companyID {
		return ledger.Voucher{}, errs.NotFound("voucher", voucherID)
	}
	return copyVoucher(v), nil
}

// VoucherNumbers returns every number in use by the company.
func (s *Store) VoucherNumbers(_ context.Context, companyID uuid.UUID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vs := s.companyVouchersLocked(companyID)
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Number)
	}
	return out, nil
}
