// Package journal accepts and manages vouchers. Every submission is
// re-validated inside the store's per-company atomic section, together with the
// voucher number uniqueness check and the insert.
package journal

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/tinoosan/bookkeeping/internal/errs"
	"github.com/tinoosan/bookkeeping/internal/ledger"
)

// Repo defines read operations needed by the service.
type Repo interface {
	ListVouchers(ctx context.Context, companyID uuid.UUID) ([]ledger.Voucher, error)
	GetVoucher(ctx context.Context, companyID, voucherID uuid.UUID) (ledger.Voucher, error)
	VoucherNumbers(ctx context.Context, companyID uuid.UUID) ([]string, error)
}

// Guard is called by the store with the subset of the voucher's ledger ids
// that belong to the company. A non-nil error aborts the insert.
type Guard func(known map[uuid.UUID]bool) error

// Writer defines write operations needed by the service.
type Writer interface {
	// CreateVoucher runs guard, checks the number is unused (errs.DuplicateError)
	// and inserts, all under one per-company atomicity boundary. The store
	// assigns Seq.
	CreateVoucher(ctx context.Context, v ledger.Voucher, guard Guard) (ledger.Voucher, error)
	DeleteVoucher(ctx context.Context, companyID, voucherID uuid.UUID) (ledger.Voucher, error)
}

type Service interface {
	CreateVoucher(ctx context.Context, companyID uuid.UUID, cmd Command) (ledger.Voucher, error)
	ListVouchers(ctx context.Context, companyID uuid.UUID) ([]Summary, error)
	GetVoucher(ctx context.Context, companyID, voucherID uuid.UUID) (ledger.Voucher, error)
	DeleteVoucher(ctx context.Context, companyID, voucherID uuid.UUID) error
	NextVoucherNumber(ctx context.Context, companyID uuid.UUID) (string, error)
}

// Summary is a voucher list row; TotalAmount is the debit total.
type Summary struct {
	ledger.Voucher
	TotalAmount decimal.Decimal
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

// CreateVoucher validates cmd against the company's ledgers and persists it
// atomically. Nothing is written on any error.
func (s *service) CreateVoucher(ctx context.Context, companyID uuid.UUID, cmd Command) (ledger.Voucher, error) {
	if companyID == uuid.Nil {
		return ledger.Voucher{}, errs.Invalid("companyId", "is required")
	}
	if !cmd.Type.Valid() {
		return ledger.Voucher{}, errs.Invalid("voucherType", "must be one of Payment Receipt Contra Journal")
	}
	if cmd.Number == "" {
		return ledger.Voucher{}, errs.Invalid("voucherNumber", "is required")
	}
	entries := Clean(cmd.Entries)
	v := ledger.Voucher{
		ID:        uuid.New(),
		CompanyID: companyID,
		Type:      cmd.Type,
		Number:    cmd.Number,
		Date:      ledger.CalendarDate(cmd.Date),
		Narration: cmd.Narration,
		Reference: cmd.Reference,
		Entries:   entries,
		CreatedAt: s.now().UTC(),
	}
	created, err := s.writer.CreateVoucher(ctx, v, func(known map[uuid.UUID]bool) error {
		_, err := Check(entries, known)
		return err
	})
	if err != nil {
		vouchersRejected.WithLabelValues(rejectReason(err)).Inc()
		return ledger.Voucher{}, err
	}
	vouchersCreated.WithLabelValues(string(created.Type)).Inc()
	s.log.Info("voucher created",
		"company_id", companyID,
		"voucher_id", created.ID,
		"number", created.Number,
		"type", created.Type,
		"entries", len(created.Entries),
	)
	return created, nil
}

// ListVouchers returns vouchers newest first: date descending, then creation
// order descending.
func (s *service) ListVouchers(ctx context.Context, companyID uuid.UUID) ([]Summary, error) {
	if companyID == uuid.Nil {
		return nil, errs.Invalid("companyId", "is required")
	}
	vs, err := s.repo.ListVouchers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(vs, func(i, j int) bool {
		if !vs[i].Date.Equal(vs[j].Date) {
			return vs[i].Date.After(vs[j].Date)
		}
		return vs[i].Seq > vs[j].Seq
	})
	out := make([]Summary, 0, len(vs))
	for _, v := range vs {
		dr, _, err := v.Totals()
		if err != nil {
			return nil, err
		}
		out = append(out, Summary{Voucher: v, TotalAmount: dr})
	}
	return out, nil
}

func (s *service) GetVoucher(ctx context.Context, companyID, voucherID uuid.UUID) (ledger.Voucher, error) {
	if companyID == uuid.Nil || voucherID == uuid.Nil {
		return ledger.Voucher{}, errs.Invalid("voucherId", "is required")
	}
	return s.repo.GetVoucher(ctx, companyID, voucherID)
}

// DeleteVoucher hard-deletes a voucher. Balances derived from it change with
// no trail, so the deletion is logged at WARN and counted.
func (s *service) DeleteVoucher(ctx context.Context, companyID, voucherID uuid.UUID) error {
	if companyID == uuid.Nil || voucherID == uuid.Nil {
		return errs.Invalid("voucherId", "is required")
	}
	v, err := s.writer.DeleteVoucher(ctx, companyID, voucherID)
	if err != nil {
		return err
	}
	voucherDeletes.Inc()
	dr, _, _ := v.Totals()
	s.log.Warn("voucher hard-deleted",
		"company_id", companyID,
		"voucher_id", voucherID,
		"number", v.Number,
		"date", v.Date.Format(time.DateOnly),
		"total_dr", dr.String(),
	)
	return nil
}

// NextVoucherNumber suggests count+1, moving past numbers already taken.
func (s *service) NextVoucherNumber(ctx context.Context, companyID uuid.UUID) (string, error) {
	if companyID == uuid.Nil {
		return "", errs.Invalid("companyId", "is required")
	}
	numbers, err := s.repo.VoucherNumbers(ctx, companyID)
	if err != nil {
		return "", err
	}
	taken := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		taken[n] = struct{}{}
	}
	next := len(numbers) + 1
	for {
		candidate := strconv.Itoa(next)
		if _, ok := taken[candidate]; !ok {
			return candidate, nil
		}
		next++
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, errs.ErrTooFewEntries):
		return "too_few_entries"
	case errors.Is(err, errs.ErrInvalidLedgerReference):
		return "invalid_ledger_reference"
	case errors.Is(err, errs.ErrUnbalanced):
		return "mismatch"
	case errors.Is(err, errs.ErrConflict):
		return "duplicate"
	case errors.Is(err, errs.ErrLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, errs.ErrInvalid):
		return "validation"
	}
	return "error"
}
