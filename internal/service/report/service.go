// Package report derives financial statements from a company's journal. Every
// report is a full recomputation over one consistent snapshot; nothing is kept
// between calls.
package report

import (
	"context"

	"github.com/google/uuid"

	"github.com/tinoosan/bookkeeping/internal/errs"
	"github.com/tinoosan/bookkeeping/internal/ledger"
)

// Repo supplies consistent reads. Snapshot returns groups, ledgers and every
// voucher entry of the company as of one instant; LedgerHistory returns a
// ledger and its postings ordered by (Date, Seq), or an errs.NotFoundError.
type Repo interface {
	Snapshot(ctx context.Context, companyID uuid.UUID) (ledger.Snapshot, error)
	LedgerHistory(ctx context.Context, companyID, ledgerID uuid.UUID) (ledger.LedgerHistory, error)
}

type Service interface {
	TrialBalance(ctx context.Context, companyID uuid.UUID) (TrialBalance, error)
	ProfitAndLoss(ctx context.Context, companyID uuid.UUID) (ProfitAndLoss, error)
	BalanceSheet(ctx context.Context, companyID uuid.UUID) (BalanceSheet, error)
	LedgerStatement(ctx context.Context, companyID, ledgerID uuid.UUID) (Statement, error)
	Stats(ctx context.Context, companyID uuid.UUID) (Stats, error)
}

type service struct {
	repo Repo
}

func New(repo Repo) Service { return &service{repo: repo} }

func (s *service) TrialBalance(ctx context.Context, companyID uuid.UUID) (TrialBalance, error) {
	snap, err := s.snapshot(ctx, companyID)
	if err != nil {
		return TrialBalance{}, err
	}
	return BuildTrialBalance(snap)
}

func (s *service) ProfitAndLoss(ctx context.Context, companyID uuid.UUID) (ProfitAndLoss, error) {
	snap, err := s.snapshot(ctx, companyID)
	if err != nil {
		return ProfitAndLoss{}, err
	}
	return BuildProfitAndLoss(snap)
}

func (s *service) BalanceSheet(ctx context.Context, companyID uuid.UUID) (BalanceSheet, error) {
	snap, err := s.snapshot(ctx, companyID)
	if err != nil {
		return BalanceSheet{}, err
	}
	return BuildBalanceSheet(snap)
}

func (s *service) LedgerStatement(ctx context.Context, companyID, ledgerID uuid.UUID) (Statement, error) {
	if companyID == uuid.Nil {
		return Statement{}, errs.Invalid("companyId", "is required")
	}
	if ledgerID == uuid.Nil {
		return Statement{}, errs.NotFound("ledger", ledgerID)
	}
	h, err := s.repo.LedgerHistory(ctx, companyID, ledgerID)
	if err != nil {
		return Statement{}, err
	}
	return BuildStatement(h)
}

func (s *service) Stats(ctx context.Context, companyID uuid.UUID) (Stats, error) {
	snap, err := s.snapshot(ctx, companyID)
	if err != nil {
		return Stats{}, err
	}
	return BuildStats(snap)
}

func (s *service) snapshot(ctx context.Context, companyID uuid.UUID) (ledger.Snapshot, error) {
	if companyID == uuid.Nil {
		return ledger.Snapshot{}, errs.Invalid("companyId", "is required")
	}
	return s.repo.Snapshot(ctx, companyID)
}
