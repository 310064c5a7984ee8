// Package registry implements the ledger registry: ledger master records with
// per-company unique names, a required group of the same company, and deletes
// that are refused while voucher entries reference the ledger.
package registry

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/tinoosan/bookkeeping/internal/errs"
	"github.com/tinoosan/bookkeeping/internal/ledger"
	"github.com/tinoosan/bookkeeping/internal/normalize"
)

type Repo interface {
	ListLedgers(ctx context.Context, companyID uuid.UUID) ([]ledger.Ledger, error)
	GetLedger(ctx context.Context, companyID, ledgerID uuid.UUID) (ledger.Ledger, error)
	ListGroups(ctx context.Context, companyID uuid.UUID) ([]ledger.AccountGroup, error)
}

// LedgerMutator returns the replacement for a stored ledger. It runs inside
// the store's atomic section with facts read in that same section.
type LedgerMutator func(current ledger.Ledger, facts LedgerFacts) (ledger.Ledger, error)

// LedgerFacts is what a LedgerMutator may consult besides the ledger itself.
type LedgerFacts struct {
	// HasPostings reports whether any voucher entry references the ledger.
	HasPostings bool
	// Categories maps each of the company's group ids to its category.
	Categories map[uuid.UUID]ledger.Category
}

type Writer interface {
	// CreateLedger fails with errs.DuplicateError on a name clash, with a
	// ValidationError on groupId when the group is not the company's and with
	// errs.VolumeExceeded when the opening balance would push the company's
	// journal volume past ledger.MaxJournalVolume. UpdateLedger applies the
	// same checks to the mutated ledger.
	CreateLedger(ctx context.Context, l ledger.Ledger) (ledger.Ledger, error)
	UpdateLedger(ctx context.Context, companyID, ledgerID uuid.UUID, mutate LedgerMutator) (ledger.Ledger, error)
	// DeleteLedger removes the ledger unless a voucher entry references it.
	DeleteLedger(ctx context.Context, companyID, ledgerID uuid.UUID) error
}

type Service interface {
	ListLedgers(ctx context.Context, companyID uuid.UUID) ([]View, error)
	GetLedger(ctx context.Context, companyID, ledgerID uuid.UUID) (View, error)
	CreateLedger(ctx context.Context, companyID uuid.UUID, in LedgerInput) (ledger.Ledger, error)
	UpdateLedger(ctx context.Context, companyID, ledgerID uuid.UUID, in LedgerPatch) (ledger.Ledger, error)
	DeleteLedger(ctx context.Context, companyID, ledgerID uuid.UUID) error
}

// View is a ledger with its group resolved for display.
type View struct {
	ledger.Ledger
	GroupName string
	Category  ledger.Category
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

func (s *service) ListLedgers(ctx context.Context, companyID uuid.UUID) ([]View, error) {
	if companyID == uuid.Nil {
		return nil, errs.Invalid("companyId", "is required")
	}
	ledgers, err := s.repo.ListLedgers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	groups, err := s.groupIndex(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(ledgers))
	for _, l := range ledgers {
		out = append(out, view(l, groups))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *service) GetLedger(ctx context.Context, companyID, ledgerID uuid.UUID) (View, error) {
	if companyID == uuid.Nil || ledgerID == uuid.Nil {
		return View{}, errs.Invalid("ledgerId", "is required")
	}
	l, err := s.repo.GetLedger(ctx, companyID, ledgerID)
	if err != nil {
		return View{}, err
	}
	groups, err := s.groupIndex(ctx, companyID)
	if err != nil {
		return View{}, err
	}
	return view(l, groups), nil
}

func (s *service) CreateLedger(ctx context.Context, companyID uuid.UUID, in LedgerInput) (ledger.Ledger, error) {
	if companyID == uuid.Nil {
		return ledger.Ledger{}, errs.Invalid("companyId", "is required")
	}
	l, err := in.toLedger()
	if err != nil {
		return ledger.Ledger{}, err
	}
	l.ID = uuid.New()
	l.CompanyID = companyID
	l.CreatedAt = s.now().UTC()
	created, err := s.writer.CreateLedger(ctx, l)
	if err != nil {
		return ledger.Ledger{}, err
	}
	s.log.Info("ledger created", "company_id", companyID, "ledger_id", created.ID, "name", created.Name, "group_id", created.GroupID)
	return created, nil
}

func (s *service) UpdateLedger(ctx context.Context, companyID, ledgerID uuid.UUID, in LedgerPatch) (ledger.Ledger, error) {
	if companyID == uuid.Nil || ledgerID == uuid.Nil {
		return ledger.Ledger{}, errs.Invalid("ledgerId", "is required")
	}
	if err := in.normalize(); err != nil {
		return ledger.Ledger{}, err
	}
	updated, err := s.writer.UpdateLedger(ctx, companyID, ledgerID, in.apply)
	if err != nil {
		return ledger.Ledger{}, err
	}
	s.log.Info("ledger updated", "company_id", companyID, "ledger_id", ledgerID, "name", updated.Name)
	return updated, nil
}

func (s *service) DeleteLedger(ctx context.Context, companyID, ledgerID uuid.UUID) error {
	if companyID == uuid.Nil || ledgerID == uuid.Nil {
		return errs.Invalid("ledgerId", "is required")
	}
	if err := s.writer.DeleteLedger(ctx, companyID, ledgerID); err != nil {
		return err
	}
	s.log.Info("ledger deleted", "company_id", companyID, "ledger_id", ledgerID)
	return nil
}

func (s *service) groupIndex(ctx context.Context, companyID uuid.UUID) (map[uuid.UUID]ledger.AccountGroup, error) {
	groups, err := s.repo.ListGroups(ctx, companyID)
	if err != nil {
		return nil, err
	}
	idx := make(map[uuid.UUID]ledger.AccountGroup, len(groups))
	for _, g := range groups {
		idx[g.ID] = g
	}
	return idx, nil
}

func view(l ledger.Ledger, groups map[uuid.UUID]ledger.AccountGroup) View {
	v := View{Ledger: l, GroupName: "Unknown"}
	if g, ok := groups[l.GroupID]; ok {
		v.GroupName = g.Name
		v.Category = g.Category
	}
	return v
}

func nonNegative(field string, n normalize.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	d, ok := n.Decimal()
	if !ok {
		return decimal.Zero, errs.Invalid(field, "must be a decimal number")
	}
	if d.IsNeg() {
		return decimal.Zero, errs.Invalid(field, "must be >= 0")
	}
	if err := normalize.CheckAmount(field, d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}
