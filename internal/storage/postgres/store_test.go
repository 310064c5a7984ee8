package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/tinoosan/bookkeeping/internal/errs"
	"github.com/tinoosan/bookkeeping/internal/ledger"
	"github.com/tinoosan/bookkeeping/internal/service/registry"
)

func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres store tests")
	}
	return dsn
}

func mustOpen(t *testing.T, dsn string) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func applyInitSQL(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Resolve init SQL path relative to this test file so CWD doesn't matter
	_, thisFile, _, _ := runtime.Caller(0)
	repoRoot := filepath.Clean(filepath.Join(filepath.Dir(thisFile), "../../../"))
	b, err := os.ReadFile(filepath.Join(repoRoot, "db", "migrations", "0001_init.sql"))
	if err != nil {
		t.Fatalf("read init sql: %v", err)
	}
	if _, err := s.pool.Exec(ctx, string(b)); err != nil {
		t.Fatalf("apply init sql: %v", err)
	}
	if _, err := s.pool.Exec(ctx, `truncate table voucher_entries, vouchers, ledgers, account_groups, journal_versions cascade`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func setup(t *testing.T) (*Store, uuid.UUID, ledger.Ledger, ledger.Ledger) {
	t.Helper()
	s := mustOpen(t, getTestDSN(t))
	t.Cleanup(s.Close)
	applyInitSQL(t, s)
	ctx := context.Background()
	company := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)
	groups := []ledger.AccountGroup{
		{ID: uuid.New(), Name: "Cash-in-hand", Category: ledger.CategoryAsset, ParentGroupName: "Current Assets", IsPredefined: true, CreatedAt: now},
		{ID: uuid.New(), Name: "Capital Account", Category: ledger.CategoryLiability, IsPredefined: true, CreatedAt: now},
	}
	if _, err := s.CreateGroups(ctx, company, groups, false); err != nil {
		t.Fatalf("create groups: %v", err)
	}
	cash := ledger.Ledger{ID: uuid.New(), CompanyID: company, GroupID: groups[0].ID, Name: "Cash", OpeningBalance: decimal.MustParse("1000.50"), OpeningSide: ledger.SideDebit, CreatedAt: now}
	capital := ledger.Ledger{ID: uuid.New(), CompanyID: company, GroupID: groups[1].ID, Name: "Capital", OpeningBalance: decimal.MustParse("1000.50"), OpeningSide: ledger.SideCredit, CreatedAt: now}
	cash.Contact.CreditLimit = decimal.Zero
	capital.Contact.CreditLimit = decimal.Zero
	for _, l := range []ledger.Ledger{cash, capital} {
		if _, err := s.CreateLedger(ctx, l); err != nil {
			t.Fatalf("create ledger: %v", err)
		}
	}
	return s, company, cash, capital
}

func voucherFor(company uuid.UUID, number string, date time.Time, dr, cr uuid.UUID, amount string) ledger.Voucher {
	amt := decimal.MustParse(amount)
	return ledger.Voucher{
		ID:        uuid.New(),
		CompanyID: company,
		Type:      ledger.VoucherJournal,
		Number:    number,
		Date:      date,
		Narration: "test",
		CreatedAt: time.Now().UTC(),
		Entries: []ledger.VoucherEntry{
			{LedgerID: dr, Amount: amt, Side: ledger.SideDebit},
			{LedgerID: cr, Amount: amt, Side: ledger.SideCredit},
		},
	}
}

func TestStore_GroupsAndLedgers(t *testing.T) {
	s, company, cash, _ := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Ready(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}
	groups, err := s.ListGroups(ctx, company)
	if err != nil || len(groups) != 2 {
		t.Fatalf("list groups: %v %d", err, len(groups))
	}
	got, err := s.GetLedger(ctx, company, cash.ID)
	if err != nil {
		t.Fatalf("get ledger: %v", err)
	}
	if got.OpeningBalance.Cmp(decimal.MustParse("1000.50")) != 0 || got.OpeningSide != ledger.SideDebit {
		t.Fatalf("unexpected ledger: %+v", got)
	}

	dup := cash
	dup.ID = uuid.New()
	var de *errs.DuplicateError
	if _, err := s.CreateLedger(ctx, dup); !errors.As(err, &de) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if _, err := s.CreateGroups(ctx, company, []ledger.AccountGroup{{ID: uuid.New(), Name: "Cash-in-hand", Category: ledger.CategoryAsset}}, false); !errors.As(err, &de) {
		t.Fatalf("expected duplicate group, got %v", err)
	}

	updated, err := s.UpdateLedger(ctx, company, cash.ID, func(cur ledger.Ledger, facts registry.LedgerFacts) (ledger.Ledger, error) {
		if facts.HasPostings || facts.Categories[cur.GroupID] != ledger.CategoryAsset {
			t.Errorf("unexpected facts: %+v", facts)
		}
		cur.Contact.City = "Pune"
		return cur, nil
	})
	if err != nil || updated.Contact.City != "Pune" {
		t.Fatalf("update ledger: %v %+v", err, updated)
	}
	if _, err := s.GetGroup(ctx, company, uuid.New()); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStore_VouchersAndReports(t *testing.T) {
	s, company, cash, capital := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	day := func(d int) time.Time { return time.Date(2024, 4, d, 0, 0, 0, 0, time.UTC) }

	v0, _ := s.JournalVersion(ctx, company)
	for _, v := range []ledger.Voucher{
		voucherFor(company, "B", day(2), cash.ID, capital.ID, "10"),
		voucherFor(company, "A", day(1), cash.ID, capital.ID, "20.25"),
		voucherFor(company, "C", day(2), capital.ID, cash.ID, "5"),
	} {
		if _, err := s.CreateVoucher(ctx, v, func(known map[uuid.UUID]bool) error {
			if !known[cash.ID] || !known[capital.ID] {
				return errs.ErrInvalidLedgerReference
			}
			return nil
		}); err != nil {
			t.Fatalf("create voucher %s: %v", v.Number, err)
		}
	}
	if v1, _ := s.JournalVersion(ctx, company); v1 != v0+3 {
		t.Fatalf("expected version %d, got %d", v0+3, v1)
	}

	var de *errs.DuplicateError
	if _, err := s.CreateVoucher(ctx, voucherFor(company, "A", day(3), cash.ID, capital.ID, "1"), nil); !errors.As(err, &de) {
		t.Fatalf("expected duplicate number, got %v", err)
	}

	h, err := s.LedgerHistory(ctx, company, cash.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	order := ""
	for _, p := range h.Postings {
		order += p.VoucherNumber
	}
	if order != "ABC" {
		t.Fatalf("expected postings ABC, got %s", order)
	}

	snap, err := s.Snapshot(ctx, company)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.VoucherCount != 3 || len(snap.Entries) != 6 || len(snap.Ledgers) != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	list, err := s.ListVouchers(ctx, company)
	if err != nil || len(list) != 3 || len(list[0].Entries) != 2 {
		t.Fatalf("list vouchers: %v %+v", err, list)
	}
	if err := s.DeleteLedger(ctx, company, cash.ID); !errors.Is(err, errs.ErrReferenced) {
		t.Fatalf("expected referenced, got %v", err)
	}
	for _, v := range list {
		if _, err := s.DeleteVoucher(ctx, company, v.ID); err != nil {
			t.Fatalf("delete voucher: %v", err)
		}
	}
	if err := s.DeleteLedger(ctx, company, cash.ID); err != nil {
		t.Fatalf("delete unreferenced ledger: %v", err)
	}
}

func TestStore_JournalVolumeLimit(t *testing.T) {
	s, company, cash, capital := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	// Each voucher adds 2 * MaxAmount; the openings already hold 2001.
	perVoucher := 2 * 1_000_000_000_000
	room := 100_000_000_000_000 / perVoucher
	for i := 0; i < room-1; i++ {
		v := voucherFor(company, fmt.Sprintf("big-%d", i), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), cash.ID, capital.ID, ledger.MaxAmount.String())
		if _, err := s.CreateVoucher(ctx, v, nil); err != nil {
			t.Fatalf("voucher %d: %v", i, err)
		}
	}
	last := voucherFor(company, "over", time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), cash.ID, capital.ID, ledger.MaxAmount.String())
	if _, err := s.CreateVoucher(ctx, last, nil); !errors.Is(err, errs.ErrLimitExceeded) {
		t.Fatalf("expected limit exceeded, got %v", err)
	}
	if _, err := s.Snapshot(ctx, company); err != nil {
		t.Fatalf("snapshot at the limit: %v", err)
	}
}

func TestStore_ConcurrentVoucherNumbers(t *testing.T) {
	s, company, cash, capital := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	const n = 8
	var wg sync.WaitGroup
	errsCh := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateVoucher(ctx, voucherFor(company, "same", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), cash.ID, capital.ID, "1"), nil)
			errsCh <- err
		}()
	}
	wg.Wait()
	close(errsCh)
	wins := 0
	for err := range errsCh {
		if err == nil {
			wins++
			continue
		}
		var de *errs.DuplicateError
		if !errors.As(err, &de) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}
