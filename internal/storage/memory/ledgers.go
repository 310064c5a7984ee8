package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/tinoosan/bookkeeping/internal/errs"
	"github.com/tinoosan/bookkeeping/internal/ledger"
	"github.com/tinoosan/bookkeeping/internal/service/registry"
)

// ListLedgers returns the company's ledgers ordered by name.
func (s *Store) ListLedgers(_ context.Context, companyID uuid.UUID) ([]ledger.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledgersLocked(companyID), nil
}

func (s *Store) ledgersLocked(companyID uuid.UUID) []ledger.Ledger {
	out := make([]ledger.Ledger, 0)
	for _, l := range s.ledgers {
		if l.CompanyID == companyID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetLedger returns a company's ledger by ID.
func (s *Store) GetLedger(_ context.Context, companyID, ledgerID uuid.UUID) (ledger.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.ledgers[ledgerID]
	if !ok || l.CompanyID != companyID {
		return ledger.Ledger{}, errs.NotFound("ledger", ledgerID)
	}
	return l, nil
}

// CreateLedger persists a new ledger.
func (s *Store) CreateLedger(_ context.Context, l ledger.Ledger) (ledger.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLedgerLocked(l); err != nil {
		return ledger.Ledger{}, err
	}
	if err := s.checkVolumeLocked(l.CompanyID, l.OpeningBalance, "openingBalance"); err != nil {
		return ledger.Ledger{}, err
	}
	s.ledgers[l.ID] = l
	s.bumpLocked(l.CompanyID)
	return l, nil
}

// UpdateLedger applies mutate to the stored ledger under the write lock.
func (s *Store) UpdateLedger(_ context.Context, companyID, ledgerID uuid.UUID, mutate registry.LedgerMutator) (ledger.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.ledgers[ledgerID]
	if !ok || cur.CompanyID != companyID {
		return ledger.Ledger{}, errs.NotFound("ledger", ledgerID)
	}
	next, err := mutate(cur, registry.LedgerFacts{
		HasPostings: s.ledgerReferencedLocked(companyID, map[uuid.UUID]bool{ledgerID: true}),
		Categories:  s.categoriesLocked(companyID),
	})
	if err != nil {
		return ledger.Ledger{}, err
	}
	next.ID, next.CompanyID, next.CreatedAt = cur.ID, cur.CompanyID, cur.CreatedAt
	if err := s.checkLedgerLocked(next); err != nil {
		return ledger.Ledger{}, err
	}
	growth, err := next.OpeningBalance.Sub(cur.OpeningBalance)
	if err != nil {
		return ledger.Ledger{}, err
	}
	if err := s.checkVolumeLocked(companyID, growth, "openingBalance"); err != nil {
		return ledger.Ledger{}, err
	}
	s.ledgers[ledgerID] = next
	s.bumpLocked(companyID)
	return next, nil
}

// DeleteLedger removes a ledger that no voucher entry references.
func (s *Store) DeleteLedger(_ context.Context, companyID, ledgerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.ledgers[ledgerID]
	if !ok || l.CompanyID != companyID {
		return errs.NotFound("ledger", ledgerID)
	}
	if s.ledgerReferencedLocked(companyID, map[uuid.UUID]bool{ledgerID: true}) {
		return &errs.ReferentialIntegrityError{Entity: "ledger", ID: ledgerID, By: "voucher entries"}
	}
	delete(s.ledgers, ledgerID)
	s.bumpLocked(companyID)
	return nil
}

// checkLedgerLocked enforces the group link and name uniqueness. Caller must hold s.mu.
func (s *Store) checkLedgerLocked(l ledger.Ledger) error {
	if g, ok := s.groups[l.GroupID]; !ok || g.CompanyID != l.CompanyID {
		return errs.Invalid("groupId", "group does not exist for this company")
	}
	for _, other := range s.ledgers {
		if other.CompanyID == l.CompanyID && other.ID != l.ID && other.Name == l.Name {
			return &errs.DuplicateError{Field: "ledgerName", Value: l.Name}
		}
	}
	return nil
}
