// Package memory provides an in-memory implementation used for development and tests.
// A single RWMutex makes each write one atomic unit and each read one consistent snapshot.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/tinoosan/bookkeeping/internal/errs"
	"github.com/tinoosan/bookkeeping/internal/ledger"
)

// voucherKey orders a company's vouchers asc by (Date, Seq).
type voucherKey struct {
	Date time.Time
	Seq  int64
	ID   uuid.UUID
}

func (k voucherKey) after(o voucherKey) bool {
	if !k.Date.Equal(o.Date) {
		return k.Date.After(o.Date)
	}
	return k.Seq > o.Seq
}

// Store is an in-memory implementation of every repository and writer used by
// the services. It is guarded by an RWMutex for concurrent reads/writes.
type Store struct {
	mu       sync.RWMutex
	groups   map[uuid.UUID]ledger.AccountGroup
	ledgers  map[uuid.UUID]ledger.Ledger
	vouchers map[uuid.UUID]*ledger.Voucher
	// Per-company sorted index of vouchers for statement order
	voucherKeysByCompany map[uuid.UUID][]voucherKey
	// Journal version per company, bumped by every write
	versions map[uuid.UUID]int64
	seq      int64
}

// New constructs an empty in-memory store.
func New() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Reset drops all data.
func (s *Store) Reset() {
	s.mu.Lock()
	s.groups = map[uuid.UUID]ledger.AccountGroup{}
	s.ledgers = map[uuid.UUID]ledger.Ledger{}
	s.vouchers = map[uuid.UUID]*ledger.Voucher{}
	s.voucherKeysByCompany = map[uuid.UUID][]voucherKey{}
	s.versions = map[uuid.UUID]int64{}
	s.seq = 0
	s.mu.Unlock()
}

// Ready always succeeds for the in-memory store.
func (s *Store) Ready(context.Context) error { return nil }

// Close is a no-op kept for symmetry with the postgres store.
func (s *Store) Close() {}

// JournalVersion returns the company's current version.
func (s *Store) JournalVersion(_ context.Context, companyID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versions[companyID], nil
}

// CompanyIDs lists every company that has written anything.
func (s *Store) CompanyIDs(_ context.Context) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(s.versions))
	for id := range s.versions {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

// bumpLocked advances the company's version. Caller must hold s.mu (write lock).
func (s *Store) bumpLocked(companyID uuid.UUID) {
	s.versions[companyID]++
}

// insertVoucherIndexLocked inserts k into the per-company sorted index, keeping order asc by (Date, Seq).
// Caller must hold s.mu (write lock).
func (s *Store) insertVoucherIndexLocked(companyID uuid.UUID, k voucherKey) {
	keys := s.voucherKeysByCompany[companyID]
	// binary search for first position > k (stable insert after equal)
	i := sort.Search(len(keys), func(i int) bool { return keys[i].after(k) })
	if i == len(keys) {
		s.voucherKeysByCompany[companyID] = append(keys, k)
		return
	}
	keys = append(keys, voucherKey{})
	copy(keys[i+1:], keys[i:])
	keys[i] = k
	s.voucherKeysByCompany[companyID] = keys
}

// removeVoucherIndexLocked drops id from the company's index. Caller must hold s.mu (write lock).
func (s *Store) removeVoucherIndexLocked(companyID, id uuid.UUID) {
	keys := s.voucherKeysByCompany[companyID]
	for i, k := range keys {
		if k.ID == id {
			s.voucherKeysByCompany[companyID] = append(keys[:i], keys[i+1:]...)
			return
		}
	}
}

// companyVouchersLocked returns the company's vouchers in index order. Caller must hold s.mu.
func (s *Store) companyVouchersLocked(companyID uuid.UUID) []*ledger.Voucher {
	keys := s.voucherKeysByCompany[companyID]
	out := make([]*ledger.Voucher, 0, len(keys))
	for _, k := range keys {
		if v, ok := s.vouchers[k.ID]; ok && v.CompanyID == companyID {
			out = append(out, v)
		}
	}
	return out
}

// ledgerReferencedLocked reports whether any voucher entry of the company uses one of ids.
// Caller must hold s.mu.
func (s *Store) ledgerReferencedLocked(companyID uuid.UUID, ids map[uuid.UUID]bool) bool {
	for _, v := range s.companyVouchersLocked(companyID) {
		for _, e := range v.Entries {
			if ids[e.LedgerID] {
				return true
			}
		}
	}
	return false
}

// checkVolumeLocked fails with errs.VolumeExceeded when adding add to the
// company's journal volume would pass ledger.MaxJournalVolume. Caller must hold s.mu.
func (s *Store) checkVolumeLocked(companyID uuid.UUID, add decimal.Decimal, field string) error {
	if !add.IsPos() {
		return nil
	}
	volume := decimal.Zero
	var err error
	for _, l := range s.ledgers {
		if l.CompanyID != companyID {
			continue
		}
		if volume, err = volume.Add(l.OpeningBalance); err != nil {
			return errs.VolumeExceeded(field)
		}
	}
	for _, v := range s.companyVouchersLocked(companyID) {
		for _, e := range v.Entries {
			if volume, err = volume.Add(e.Amount); err != nil {
				return errs.VolumeExceeded(field)
			}
		}
	}
	if !ledger.FitsVolume(volume, add) {
		return errs.VolumeExceeded(field)
	}
	return nil
}

// categoriesLocked maps the company's group ids to their category. Caller must hold s.mu.
func (s *Store) categoriesLocked(companyID uuid.UUID) map[uuid.UUID]ledger.Category {
	out := make(map[uuid.UUID]ledger.Category)
	for id, g := range s.groups {
		if g.CompanyID == companyID {
			out[id] = g.Category
		}
	}
	return out
}

func copyVoucher(v *ledger.Voucher) ledger.Voucher {
	out := *v
	out.Entries = append([]ledger.VoucherEntry(nil), v.Entries...)
	return out
}
