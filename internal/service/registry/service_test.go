package registry_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/bookkeeping/internal/errs"
	"github.com/tinoosan/bookkeeping/internal/ledger"
	"github.com/tinoosan/bookkeeping/internal/normalize"
	"github.com/tinoosan/bookkeeping/internal/service/journal"
	"github.com/tinoosan/bookkeeping/internal/service/registry"
	"github.com/tinoosan/bookkeeping/internal/storage/memory"
)

type fixture struct {
	ctx     context.Context
	store   *memory.Store
	svc     registry.Service
	company uuid.UUID
	group   ledger.AccountGroup
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st := memory.New()
	f := fixture{
		ctx:     context.Background(),
		store:   st,
		svc:     registry.New(st, st, slog.New(slog.NewTextHandler(io.Discard, nil))),
		company: uuid.New(),
	}
	created, err := st.CreateGroups(f.ctx, f.company, []ledger.AccountGroup{{ID: uuid.New(), Name: "Sundry Debtors", Category: ledger.CategoryAsset}}, false)
	require.NoError(t, err)
	f.group = created[0]
	return f
}

func (f fixture) input(name string) registry.LedgerInput {
	return registry.LedgerInput{Name: name, GroupID: f.group.ID.String(), OpeningSide: "Dr"}
}

func TestCreateLedgerFromLoosePayload(t *testing.T) {
	f := newFixture(t)
	raw := `{
		"ledgerName": "  Acme Traders ",
		"groupId": "` + f.group.ID.String() + `",
		"openingBalance": "2500.50",
		"openingBalanceType": "Dr",
		"email": "accounts@acme.test",
		"creditLimit": 10000,
		"creditDays": "30"
	}`
	var in registry.LedgerInput
	require.NoError(t, json.Unmarshal([]byte(raw), &in))

	l, err := f.svc.CreateLedger(f.ctx, f.company, in)
	require.NoError(t, err)
	assert.Equal(t, "Acme Traders", l.Name)
	assert.Equal(t, "2500.50", l.OpeningBalance.String())
	assert.Equal(t, ledger.SideDebit, l.OpeningSide)
	assert.Equal(t, "10000", l.Contact.CreditLimit.String())
	assert.Equal(t, 30, l.Contact.CreditDays)

	v, err := f.svc.GetLedger(f.ctx, f.company, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sundry Debtors", v.GroupName)
	assert.Equal(t, ledger.CategoryAsset, v.Category)
}

func TestCreateLedgerRejects(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateLedger(f.ctx, f.company, f.input("Acme"))
	require.NoError(t, err)

	_, err = f.svc.CreateLedger(f.ctx, f.company, f.input("Acme"))
	var de *errs.DuplicateError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "ledgerName", de.Field)

	cases := []struct {
		name  string
		in    registry.LedgerInput
		field string
	}{
		{"missing name", f.input(""), "ledgerName"},
		{"bad side", registry.LedgerInput{Name: "X", GroupID: f.group.ID.String(), OpeningSide: "Debit"}, "openingBalanceType"},
		{"bad group id", registry.LedgerInput{Name: "X", GroupID: "nope", OpeningSide: "Cr"}, "groupId"},
		{"foreign group", registry.LedgerInput{Name: "X", GroupID: uuid.NewString(), OpeningSide: "Cr"}, "groupId"},
		{"negative opening", registry.LedgerInput{Name: "X", GroupID: f.group.ID.String(), OpeningSide: "Cr", OpeningBalance: normalize.Number("-1")}, "openingBalance"},
		{"garbage credit days", registry.LedgerInput{Name: "X", GroupID: f.group.ID.String(), OpeningSide: "Cr", CreditDays: normalize.Number("soon")}, "creditDays"},
		{"opening above max", registry.LedgerInput{Name: "X", GroupID: f.group.ID.String(), OpeningSide: "Cr", OpeningBalance: normalize.Number("6000000000000000000")}, "openingBalance"},
		{"opening too precise", registry.LedgerInput{Name: "X", GroupID: f.group.ID.String(), OpeningSide: "Cr", OpeningBalance: normalize.Number("0.00001")}, "openingBalance"},
		{"credit limit above max", registry.LedgerInput{Name: "X", GroupID: f.group.ID.String(), OpeningSide: "Cr", CreditLimit: normalize.Number("1000000000001")}, "creditLimit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateLedger(f.ctx, f.company, tc.in)
			var ve *errs.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestUpdateLedger(t *testing.T) {
	f := newFixture(t)
	l, err := f.svc.CreateLedger(f.ctx, f.company, f.input("Acme"))
	require.NoError(t, err)

	city := " Pune "
	opening := normalize.Number("12.5")
	updated, err := f.svc.UpdateLedger(f.ctx, f.company, l.ID, registry.LedgerPatch{City: &city, OpeningBalance: &opening})
	require.NoError(t, err)
	assert.Equal(t, "Pune", updated.Contact.City)
	assert.Equal(t, "Acme", updated.Name)
	assert.Equal(t, "12.5", updated.OpeningBalance.String())
	assert.Equal(t, l.CreatedAt, updated.CreatedAt)

	_, err = f.svc.UpdateLedger(f.ctx, f.company, uuid.New(), registry.LedgerPatch{City: &city})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpdateLedger_GroupMoveKeepsCategoryOncePosted(t *testing.T) {
	f := newFixture(t)
	groups, err := f.store.CreateGroups(f.ctx, f.company, []ledger.AccountGroup{
		{ID: uuid.New(), Name: "Bank Accounts", Category: ledger.CategoryAsset},
		{ID: uuid.New(), Name: "Indirect Expenses", Category: ledger.CategoryExpense},
	}, false)
	require.NoError(t, err)
	bankGroup, expenseGroup := groups[0].ID.String(), groups[1].ID.String()

	a, err := f.svc.CreateLedger(f.ctx, f.company, f.input("A"))
	require.NoError(t, err)
	b, err := f.svc.CreateLedger(f.ctx, f.company, f.input("B"))
	require.NoError(t, err)

	// No postings yet: any group will do.
	_, err = f.svc.UpdateLedger(f.ctx, f.company, a.ID, registry.LedgerPatch{GroupID: &expenseGroup})
	require.NoError(t, err)
	assetGroup := f.group.ID.String()
	_, err = f.svc.UpdateLedger(f.ctx, f.company, a.ID, registry.LedgerPatch{GroupID: &assetGroup})
	require.NoError(t, err)

	jnl := journal.New(f.store, f.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	amt := decimal.MustParse("10")
	_, err = jnl.CreateVoucher(f.ctx, f.company, journal.Command{
		Type:   ledger.VoucherJournal,
		Number: "J1",
		Entries: []journal.ProposedEntry{
			{LedgerID: a.ID, Amount: amt, Side: ledger.SideDebit},
			{LedgerID: b.ID, Amount: amt, Side: ledger.SideCredit},
		},
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateLedger(f.ctx, f.company, a.ID, registry.LedgerPatch{GroupID: &expenseGroup})
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "groupId", ve.Field)
	assert.ErrorIs(t, err, errs.ErrImmutable)

	moved, err := f.svc.UpdateLedger(f.ctx, f.company, a.ID, registry.LedgerPatch{GroupID: &bankGroup})
	require.NoError(t, err)
	assert.Equal(t, groups[0].ID, moved.GroupID)

	v, err := f.svc.GetLedger(f.ctx, f.company, a.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.CategoryAsset, v.Category)
}

func TestDeleteLedgerReferencedByVoucher(t *testing.T) {
	f := newFixture(t)
	a, err := f.svc.CreateLedger(f.ctx, f.company, f.input("A"))
	require.NoError(t, err)
	b, err := f.svc.CreateLedger(f.ctx, f.company, f.input("B"))
	require.NoError(t, err)
	spare, err := f.svc.CreateLedger(f.ctx, f.company, f.input("Spare"))
	require.NoError(t, err)

	jnl := journal.New(f.store, f.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	amt := decimal.MustParse("10")
	_, err = jnl.CreateVoucher(f.ctx, f.company, journal.Command{
		Type:   ledger.VoucherJournal,
		Number: "J1",
		Entries: []journal.ProposedEntry{
			{LedgerID: a.ID, Amount: amt, Side: ledger.SideDebit},
			{LedgerID: b.ID, Amount: amt, Side: ledger.SideCredit},
		},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteLedger(f.ctx, f.company, spare.ID))

	err = f.svc.DeleteLedger(f.ctx, f.company, a.ID)
	var rie *errs.ReferentialIntegrityError
	require.ErrorAs(t, err, &rie)
	assert.Equal(t, "ledger", rie.Entity)
	assert.Equal(t, a.ID, rie.ID)

	views, err := f.svc.ListLedgers(f.ctx, f.company)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "A", views[0].Name)
}
