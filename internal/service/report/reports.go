package report

import (
	"bytes"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/tinoosan/bookkeeping/internal/ledger"
)

// UnknownGroup is the display name for ledgers whose group no longer exists.
const UnknownGroup = "Unknown"

// Balance is a non-negative amount with the side it sits on.
type Balance struct {
	Amount decimal.Decimal
	Side   ledger.Side
}

// GroupLine is one account group's aggregate in a report.
type GroupLine struct {
	GroupID uuid.UUID
	Name    string
	Amount  decimal.Decimal
}

// TrialBalance lists group closings split into debit and credit columns.
type TrialBalance struct {
	// Version is the journal version the report was computed from.
	Version      int64
	DrGroups     []GroupLine
	CrGroups     []GroupLine
	GrandTotalDr decimal.Decimal
	GrandTotalCr decimal.Decimal
	Diff         decimal.Decimal
	// Balanced is false when |Diff| exceeds ledger.MatchTolerance; Warning
	// then explains it. Diff is never adjusted.
	Balanced bool
	Warning  string
}

// ProfitAndLoss reports Income and Expense group closings.
type ProfitAndLoss struct {
	Version      int64
	Expenses     []GroupLine
	Incomes      []GroupLine
	TotalExpense decimal.Decimal
	TotalIncome  decimal.Decimal
	NetProfit    decimal.Decimal
}

// BalanceSheet reports Asset and Liability group closings, balanced by a
// profit and loss account line on the smaller side.
type BalanceSheet struct {
	Version          int64
	Assets           []GroupLine
	Liabilities      []GroupLine
	TotalAssets      decimal.Decimal
	TotalLiabilities decimal.Decimal
	// Diff is TotalAssets - TotalLiabilities and equals the profit and loss
	// net profit of the same snapshot.
	Diff decimal.Decimal
	// ProfitLoss is the balancing line; ProfitLossSide is "liabilities" for a
	// profit, "assets" for a loss and empty when Diff is zero.
	ProfitLoss           decimal.Decimal
	ProfitLossSide       string
	AssetsSideTotal      decimal.Decimal
	LiabilitiesSideTotal decimal.Decimal
}

// StatementLine is the opening line or one posting of a ledger statement.
type StatementLine struct {
	Opening       bool
	Date          *time.Time
	VoucherID     uuid.UUID
	VoucherNumber string
	VoucherType   ledger.VoucherType
	Narration     string
	Dr            *decimal.Decimal
	Cr            *decimal.Decimal
	Balance       Balance
}

// Statement is a ledger's postings with a running balance.
type Statement struct {
	Version int64
	Ledger  ledger.Ledger
	Lines   []StatementLine
	TotalDr decimal.Decimal
	TotalCr decimal.Decimal
	Closing Balance
	// ClosingSigned is the final running balance, positive for Dr.
	ClosingSigned decimal.Decimal
}

// Stats are the journal-wide counters shown on the dashboard.
type Stats struct {
	Version       int64
	TotalVouchers int
	TotalLedgers  int
	TotalDr       decimal.Decimal
	TotalCr       decimal.Decimal
}

// BuildTrialBalance aggregates every ledger's signed closing into its group,
// keyed by group id. Groups whose total is exactly zero are omitted.
func BuildTrialBalance(snap ledger.Snapshot) (TrialBalance, error) {
	closings, err := Closings(snap.Ledgers, snap.Entries)
	if err != nil {
		return TrialBalance{}, err
	}
	groups := indexGroups(snap.Groups)
	totals := make(map[uuid.UUID]decimal.Decimal)
	for _, l := range snap.Ledgers {
		key := l.GroupID
		if _, ok := groups[key]; !ok {
			key = uuid.Nil
		}
		if totals[key], err = addTo(totals, key, closings[l.ID]); err != nil {
			return TrialBalance{}, err
		}
	}

	tb := TrialBalance{
		Version:      snap.Version,
		DrGroups:     []GroupLine{},
		CrGroups:     []GroupLine{},
		GrandTotalDr: decimal.Zero,
		GrandTotalCr: decimal.Zero,
	}
	for id, bal := range totals {
		line := GroupLine{GroupID: id, Name: groupName(groups, id), Amount: bal.Abs()}
		switch bal.Sign() {
		case 1:
			tb.DrGroups = append(tb.DrGroups, line)
		case -1:
			tb.CrGroups = append(tb.CrGroups, line)
		}
	}
	sortLines(tb.DrGroups)
	sortLines(tb.CrGroups)
	if tb.GrandTotalDr, err = sumLines(tb.DrGroups); err != nil {
		return TrialBalance{}, err
	}
	if tb.GrandTotalCr, err = sumLines(tb.CrGroups); err != nil {
		return TrialBalance{}, err
	}
	if tb.Diff, err = tb.GrandTotalDr.Sub(tb.GrandTotalCr); err != nil {
		return TrialBalance{}, err
	}
	tb.Balanced = tb.Diff.Abs().Cmp(ledger.MatchTolerance) <= 0
	if !tb.Balanced {
		tb.Warning = "trial balance does not agree: debit and credit totals differ by " + tb.Diff.String()
	}
	return tb, nil
}

// BuildProfitAndLoss restricts to Income and Expense groups. Expense groups
// take closings as they are, Income groups take them negated, so both read as
// positive figures in the normal case.
func BuildProfitAndLoss(snap ledger.Snapshot) (ProfitAndLoss, error) {
	expenses, incomes, err := twoSided(snap, ledger.CategoryExpense, ledger.CategoryIncome)
	if err != nil {
		return ProfitAndLoss{}, err
	}
	pl := ProfitAndLoss{Version: snap.Version, Expenses: expenses, Incomes: incomes}
	if pl.TotalExpense, err = sumLines(expenses); err != nil {
		return ProfitAndLoss{}, err
	}
	if pl.TotalIncome, err = sumLines(incomes); err != nil {
		return ProfitAndLoss{}, err
	}
	if pl.NetProfit, err = pl.TotalIncome.Sub(pl.TotalExpense); err != nil {
		return ProfitAndLoss{}, err
	}
	return pl, nil
}

// BuildBalanceSheet restricts to Asset and Liability groups. A positive diff
// (profit) is added to the liabilities side, a negative one (loss) to the
// assets side as its absolute value.
func BuildBalanceSheet(snap ledger.Snapshot) (BalanceSheet, error) {
	assets, liabilities, err := twoSided(snap, ledger.CategoryAsset, ledger.CategoryLiability)
	if err != nil {
		return BalanceSheet{}, err
	}
	bs := BalanceSheet{Version: snap.Version, Assets: assets, Liabilities: liabilities, ProfitLoss: decimal.Zero}
	if bs.TotalAssets, err = sumLines(assets); err != nil {
		return BalanceSheet{}, err
	}
	if bs.TotalLiabilities, err = sumLines(liabilities); err != nil {
		return BalanceSheet{}, err
	}
	if bs.Diff, err = bs.TotalAssets.Sub(bs.TotalLiabilities); err != nil {
		return BalanceSheet{}, err
	}
	bs.AssetsSideTotal, bs.LiabilitiesSideTotal = bs.TotalAssets, bs.TotalLiabilities
	switch bs.Diff.Sign() {
	case 1:
		bs.ProfitLoss, bs.ProfitLossSide = bs.Diff, "liabilities"
		bs.LiabilitiesSideTotal, err = bs.TotalLiabilities.Add(bs.Diff)
	case -1:
		bs.ProfitLoss, bs.ProfitLossSide = bs.Diff.Abs(), "assets"
		bs.AssetsSideTotal, err = bs.TotalAssets.Add(bs.Diff.Abs())
	}
	if err != nil {
		return BalanceSheet{}, err
	}
	return bs, nil
}

// BuildStatement replays a ledger's postings in (Date, Seq) order, starting
// from its signed opening balance.
func BuildStatement(h ledger.LedgerHistory) (Statement, error) {
	postings := make([]ledger.Posting, len(h.Postings))
	copy(postings, h.Postings)
	sort.SliceStable(postings, func(i, j int) bool {
		if !postings[i].Date.Equal(postings[j].Date) {
			return postings[i].Date.Before(postings[j].Date)
		}
		return postings[i].Seq < postings[j].Seq
	})

	running := h.Ledger.SignedOpening()
	st := Statement{
		Version: h.Version,
		Ledger:  h.Ledger,
		Lines:   make([]StatementLine, 0, len(postings)+1),
		TotalDr: decimal.Zero,
		TotalCr: decimal.Zero,
	}
	st.Lines = append(st.Lines, StatementLine{Opening: true, Narration: "Opening Balance", Balance: Present(running)})

	var err error
	for _, p := range postings {
		date := p.Date
		line := StatementLine{
			Date:          &date,
			VoucherID:     p.VoucherID,
			VoucherNumber: p.VoucherNumber,
			VoucherType:   p.VoucherType,
			Narration:     p.Narration,
		}
		amt := p.Amount
		switch p.Side {
		case ledger.SideDebit:
			line.Dr = &amt
			if st.TotalDr, err = st.TotalDr.Add(amt); err == nil {
				running, err = running.Add(amt)
			}
		case ledger.SideCredit:
			line.Cr = &amt
			if st.TotalCr, err = st.TotalCr.Add(amt); err == nil {
				running, err = running.Sub(amt)
			}
		}
		if err != nil {
			return Statement{}, err
		}
		line.Balance = Present(running)
		st.Lines = append(st.Lines, line)
	}
	st.Closing = Present(running)
	st.ClosingSigned = running
	return st, nil
}

// BuildStats counts vouchers and ledgers and totals every entry by side.
func BuildStats(snap ledger.Snapshot) (Stats, error) {
	mv, err := Movements(snap.Entries)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{
		Version:       snap.Version,
		TotalVouchers: snap.VoucherCount,
		TotalLedgers:  len(snap.Ledgers),
		TotalDr:       decimal.Zero,
		TotalCr:       decimal.Zero,
	}
	for _, m := range mv {
		if st.TotalDr, err = st.TotalDr.Add(m.Dr); err != nil {
			return Stats{}, err
		}
		if st.TotalCr, err = st.TotalCr.Add(m.Cr); err != nil {
			return Stats{}, err
		}
	}
	return st, nil
}

// twoSided aggregates closings for two categories: direct takes closings as
// is, negated takes their negation. Ledgers of other categories or of missing
// groups are skipped. Negligible lines are dropped.
func twoSided(snap ledger.Snapshot, direct, negated ledger.Category) ([]GroupLine, []GroupLine, error) {
	closings, err := Closings(snap.Ledgers, snap.Entries)
	if err != nil {
		return nil, nil, err
	}
	groups := indexGroups(snap.Groups)
	left := make(map[uuid.UUID]decimal.Decimal)
	right := make(map[uuid.UUID]decimal.Decimal)
	for _, l := range snap.Ledgers {
		g, ok := groups[l.GroupID]
		if !ok {
			continue
		}
		c := closings[l.ID]
		switch g.Category {
		case direct:
			left[g.ID], err = addTo(left, g.ID, c)
		case negated:
			right[g.ID], err = addTo(right, g.ID, c.Neg())
		}
		if err != nil {
			return nil, nil, err
		}
	}
	return lines(left, groups), lines(right, groups), nil
}

func lines(totals map[uuid.UUID]decimal.Decimal, groups map[uuid.UUID]ledger.AccountGroup) []GroupLine {
	out := make([]GroupLine, 0, len(totals))
	for id, amt := range totals {
		if ledger.Negligible(amt) {
			continue
		}
		out = append(out, GroupLine{GroupID: id, Name: groupName(groups, id), Amount: amt})
	}
	sortLines(out)
	return out
}

func addTo(m map[uuid.UUID]decimal.Decimal, key uuid.UUID, v decimal.Decimal) (decimal.Decimal, error) {
	cur, ok := m[key]
	if !ok {
		cur = decimal.Zero
	}
	return cur.Add(v)
}

func sumLines(ls []GroupLine) (decimal.Decimal, error) {
	total := decimal.Zero
	var err error
	for _, l := range ls {
		if total, err = total.Add(l.Amount); err != nil {
			return decimal.Zero, err
		}
	}
	return total, nil
}

func indexGroups(groups []ledger.AccountGroup) map[uuid.UUID]ledger.AccountGroup {
	idx := make(map[uuid.UUID]ledger.AccountGroup, len(groups))
	for _, g := range groups {
		idx[g.ID] = g
	}
	return idx
}

func groupName(groups map[uuid.UUID]ledger.AccountGroup, id uuid.UUID) string {
	if g, ok := groups[id]; ok {
		return g.Name
	}
	return UnknownGroup
}

// sortLines orders lines alphabetically by name using locale-aware collation,
// falling back to group id so that the order is total.
func sortLines(ls []GroupLine) {
	c := collate.New(language.Und)
	sort.SliceStable(ls, func(i, j int) bool {
		if r := c.CompareString(ls[i].Name, ls[j].Name); r != 0 {
			return r < 0
		}
		return bytes.Compare(ls[i].GroupID[:], ls[j].GroupID[:]) < 0
	})
}
