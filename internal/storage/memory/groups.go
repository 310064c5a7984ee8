package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/tinoosan/bookkeeping/internal/errs"
	"github.com/tinoosan/bookkeeping/internal/ledger"
	"github.com/tinoosan/bookkeeping/internal/service/chart"
)

// ListGroups returns the company's groups ordered by name.
func (s *Store) ListGroups(_ context.Context, companyID uuid.UUID) ([]ledger.AccountGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groupsLocked(companyID), nil
}

func (s *Store) groupsLocked(companyID uuid.UUID) []ledger.AccountGroup {
	out := make([]ledger.AccountGroup, 0)
	for _, g := range s.groups {
		if g.CompanyID == companyID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetGroup returns a company's group by ID.
func (s *Store) GetGroup(_ context.Context, companyID, groupID uuid.UUID) (ledger.AccountGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[groupID]
	if !ok || g.CompanyID != companyID {
		return ledger.AccountGroup{}, errs.NotFound("group", groupID)
	}
	return g, nil
}

// CreateGroups inserts all groups or none.
func (s *Store) CreateGroups(_ context.Context, companyID uuid.UUID, groups []ledger.AccountGroup, skipExisting bool) ([]ledger.AccountGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	taken := make(map[string]bool)
	for _, g := range s.groupsLocked(companyID) {
		taken[g.Name] = true
	}
	created := make([]ledger.AccountGroup, 0, len(groups))
	for _, g := range groups {
		if taken[g.Name] {
			if skipExisting {
				continue
			}
			return nil, &errs.DuplicateError{Field: "groupName", Value: g.Name}
		}
		taken[g.Name] = true
		g.CompanyID = companyID
		created = append(created, g)
	}
	for _, g := range created {
		s.groups[g.ID] = g
	}
	if len(created) > 0 {
		s.bumpLocked(companyID)
	}
	return created, nil
}

// UpdateGroup applies mutate to the stored group under the write lock.
func (s *Store) UpdateGroup(_ context.Context, companyID, groupID uuid.UUID, mutate chart.GroupMutator) (ledger.AccountGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.groups[groupID]
	if !ok || cur.CompanyID != companyID {
		return ledger.AccountGroup{}, errs.NotFound("group", groupID)
	}
	members := make(map[uuid.UUID]bool)
	for _, l := range s.ledgers {
		if l.CompanyID == companyID && l.GroupID == groupID {
			members[l.ID] = true
		}
	}
	next, err := mutate(cur, len(members) > 0 && s.ledgerReferencedLocked(companyID, members))
	if err != nil {
		return ledger.AccountGroup{}, err
	}
	next.ID, next.CompanyID, next.IsPredefined = cur.ID, cur.CompanyID, cur.IsPredefined
	for _, g := range s.groups {
		if g.CompanyID == companyID && g.ID != groupID && g.Name == next.Name {
			return ledger.AccountGroup{}, &errs.DuplicateError{Field: "groupName", Value: next.Name}
		}
	}
	s.groups[groupID] = next
	s.bumpLocked(companyID)
	return next, nil
}

// DeleteGroup removes a group that no ledger references.
func (s *Store) DeleteGroup(_ context.Context, companyID, groupID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok || g.CompanyID != companyID {
		return errs.NotFound("group", groupID)
	}
	if g.IsPredefined {
		return errs.ErrPredefinedGroup
	}
	for _, l := range s.ledgers {
		if l.CompanyID == companyID && l.GroupID == groupID {
			return &errs.ReferentialIntegrityError{Entity: "group", ID: groupID, By: "ledgers"}
		}
	}
	delete(s.groups, groupID)
	s.bumpLocked(companyID)
	return nil
}
