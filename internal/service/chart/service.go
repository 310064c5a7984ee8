// Package chart implements the chart of accounts: per-company account groups
// with unique names, a seeded predefined set, and guarded updates and deletes.
package chart

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/bookkeeping/internal/dictionary"
	"github.com/tinoosan/bookkeeping/internal/errs"
	"github.com/tinoosan/bookkeeping/internal/ledger"
	"github.com/tinoosan/bookkeeping/internal/normalize"
)

type Repo interface {
	ListGroups(ctx context.Context, companyID uuid.UUID) ([]ledger.AccountGroup, error)
	GetGroup(ctx context.Context, companyID, groupID uuid.UUID) (ledger.AccountGroup, error)
}

// GroupMutator receives the stored group and whether any ledger in it has
// postings, and returns the replacement. It runs inside the store's atomic
// section.
type GroupMutator func(current ledger.AccountGroup, hasPostings bool) (ledger.AccountGroup, error)

type Writer interface {
	// CreateGroups inserts groups, skipping names that already exist when
	// skipExisting is set and failing with errs.DuplicateError otherwise.
	CreateGroups(ctx context.Context, companyID uuid.UUID, groups []ledger.AccountGroup, skipExisting bool) ([]ledger.AccountGroup, error)
	UpdateGroup(ctx context.Context, companyID, groupID uuid.UUID, mutate GroupMutator) (ledger.AccountGroup, error)
	// DeleteGroup removes the group unless a ledger references it.
	DeleteGroup(ctx context.Context, companyID, groupID uuid.UUID) error
}

type Service interface {
	ListGroups(ctx context.Context, companyID uuid.UUID) ([]ledger.AccountGroup, error)
	CreateGroup(ctx context.Context, companyID uuid.UUID, in GroupInput) (ledger.AccountGroup, error)
	UpdateGroup(ctx context.Context, companyID, groupID uuid.UUID, in GroupPatch) (ledger.AccountGroup, error)
	DeleteGroup(ctx context.Context, companyID, groupID uuid.UUID) error
	SeedPredefined(ctx context.Context, companyID uuid.UUID) ([]ledger.AccountGroup, error)
}

// GroupInput is the loose create payload.
type GroupInput struct {
	Name            string  `json:"groupName" validate:"required,max=128"`
	Category        string  `json:"category" validate:"required,oneof=Asset Liability Income Expense"`
	ParentGroupName *string `json:"parentGroup,omitempty" validate:"omitempty,max=128"`
}

// GroupPatch changes only the fields that are set.
type GroupPatch struct {
	Name            *string `json:"groupName,omitempty" validate:"omitempty,max=128"`
	Category        *string `json:"category,omitempty" validate:"omitempty,oneof=Asset Liability Income Expense"`
	ParentGroupName *string `json:"parentGroup,omitempty" validate:"omitempty,max=128"`
}

type service struct {
	repo   Repo
	writer Writer
	log    *slog.Logger
	now    func() time.Time
}

func New(repo Repo, writer Writer, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{repo: repo, writer: writer, log: logger, now: time.Now}
}

func (s *service) ListGroups(ctx context.Context, companyID uuid.UUID) ([]ledger.AccountGroup, error) {
	if companyID == uuid.Nil {
		return nil, errs.Invalid("companyId", "is required")
	}
	groups, err := s.repo.ListGroups(ctx, companyID)
	if err != nil {
		return nil, err
	}
	rank := make(map[ledger.Category]int, len(ledger.Categories))
	for i, c := range ledger.Categories {
		rank[c] = i
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Category != groups[j].Category {
			return rank[groups[i].Category] < rank[groups[j].Category]
		}
		return groups[i].Name < groups[j].Name
	})
	return groups, nil
}

func (s *service) CreateGroup(ctx context.Context, companyID uuid.UUID, in GroupInput) (ledger.AccountGroup, error) {
	if companyID == uuid.Nil {
		return ledger.AccountGroup{}, errs.Invalid("companyId", "is required")
	}
	normalize.Trim(&in.Name, &in.Category, in.ParentGroupName)
	if err := normalize.Struct(in); err != nil {
		return ledger.AccountGroup{}, err
	}
	g := ledger.AccountGroup{
		ID:        uuid.New(),
		CompanyID: companyID,
		Name:      in.Name,
		Category:  ledger.Category(in.Category),
		CreatedAt: s.now().UTC(),
	}
	if in.ParentGroupName != nil {
		g.ParentGroupName = *in.ParentGroupName
	}
	created, err := s.writer.CreateGroups(ctx, companyID, []ledger.AccountGroup{g}, false)
	if err != nil {
		return ledger.AccountGroup{}, err
	}
	if len(created) != 1 {
		return ledger.AccountGroup{}, fmt.Errorf("chart: create group: %d rows created", len(created))
	}
	s.log.Info("group created", "company_id", companyID, "group_id", g.ID, "name", g.Name, "category", g.Category)
	return created[0], nil
}

// UpdateGroup applies a patch. A category change is refused once any ledger of
// the group carries postings, because it would silently move history between
// statements.
func (s *service) UpdateGroup(ctx context.Context, companyID, groupID uuid.UUID, in GroupPatch) (ledger.AccountGroup, error) {
	if companyID == uuid.Nil || groupID == uuid.Nil {
		return ledger.AccountGroup{}, errs.Invalid("groupId", "is required")
	}
	normalize.Trim(in.Name, in.Category, in.ParentGroupName)
	if err := normalize.Struct(in); err != nil {
		return ledger.AccountGroup{}, err
	}
	if in.Name != nil && *in.Name == "" {
		return ledger.AccountGroup{}, errs.Invalid("groupName", "is required")
	}
	updated, err := s.writer.UpdateGroup(ctx, companyID, groupID, func(cur ledger.AccountGroup, hasPostings bool) (ledger.AccountGroup, error) {
		next := cur
		if in.Name != nil {
			if cur.IsPredefined && *in.Name != cur.Name {
				return cur, &errs.ValidationError{Field: "groupName", Reason: "predefined groups cannot be renamed", Err: errs.ErrImmutable}
			}
			next.Name = *in.Name
		}
		if in.Category != nil {
			next.Category = ledger.Category(*in.Category)
			if next.Category != cur.Category {
				switch {
				case cur.IsPredefined:
					return cur, &errs.ValidationError{Field: "category", Reason: "predefined groups keep their category", Err: errs.ErrImmutable}
				case hasPostings:
					return cur, &errs.ValidationError{Field: "category", Reason: "cannot change category of a group with postings", Err: errs.ErrImmutable}
				}
			}
		}
		if in.ParentGroupName != nil {
			next.ParentGroupName = *in.ParentGroupName
		}
		return next, nil
	})
	if err != nil {
		return ledger.AccountGroup{}, err
	}
	s.log.Info("group updated", "company_id", companyID, "group_id", groupID, "name", updated.Name, "category", updated.Category)
	return updated, nil
}

func (s *service) DeleteGroup(ctx context.Context, companyID, groupID uuid.UUID) error {
	if companyID == uuid.Nil || groupID == uuid.Nil {
		return errs.Invalid("groupId", "is required")
	}
	g, err := s.repo.GetGroup(ctx, companyID, groupID)
	if err != nil {
		return err
	}
	if g.IsPredefined {
		return fmt.Errorf("group %q: %w", g.Name, errs.ErrPredefinedGroup)
	}
	if err := s.writer.DeleteGroup(ctx, companyID, groupID); err != nil {
		return err
	}
	s.log.Info("group deleted", "company_id", companyID, "group_id", groupID, "name", g.Name)
	return nil
}

// SeedPredefined inserts the predefined groups that the company does not have
// yet. Calling it again is a no-op.
func (s *service) SeedPredefined(ctx context.Context, companyID uuid.UUID) ([]ledger.AccountGroup, error) {
	if companyID == uuid.Nil {
		return nil, errs.Invalid("companyId", "is required")
	}
	defs := dictionary.GroupsFor(nil)
	now := s.now().UTC()
	groups := make([]ledger.AccountGroup, 0, len(defs))
	for _, d := range defs {
		groups = append(groups, ledger.AccountGroup{
			ID:              uuid.New(),
			CompanyID:       companyID,
			Name:            d.Name,
			Category:        d.Category,
			ParentGroupName: d.Parent,
			IsPredefined:    true,
			CreatedAt:       now,
		})
	}
	created, err := s.writer.CreateGroups(ctx, companyID, groups, true)
	if err != nil {
		return nil, err
	}
	if len(created) > 0 {
		names := make([]string, 0, len(created))
		for _, g := range created {
			names = append(names, g.Name)
		}
		s.log.Info("predefined groups seeded", "company_id", companyID, "count", len(created), "groups", strings.Join(names, ","))
	}
	return created, nil
}
