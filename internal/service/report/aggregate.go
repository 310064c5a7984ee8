package report

import (
	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/tinoosan/bookkeeping/internal/ledger"
)

// Movement is the all-time debit and credit activity of one ledger.
type Movement struct {
	Dr decimal.Decimal
	Cr decimal.Decimal
}

// Movements sums every entry per ledger in a single pass. Dates are ignored:
// the aggregation covers the whole journal.
func Movements(entries []ledger.VoucherEntry) (map[uuid.UUID]Movement, error) {
	out := make(map[uuid.UUID]Movement)
	for _, e := range entries {
		m, ok := out[e.LedgerID]
		if !ok {
			m = Movement{Dr: decimal.Zero, Cr: decimal.Zero}
		}
		var err error
		switch e.Side {
		case ledger.SideDebit:
			m.Dr, err = m.Dr.Add(e.Amount)
		case ledger.SideCredit:
			m.Cr, err = m.Cr.Add(e.Amount)
		}
		if err != nil {
			return nil, err
		}
		out[e.LedgerID] = m
	}
	return out, nil
}

// Closing is signedOpening + (Dr - Cr); positive means a net debit balance.
func Closing(l ledger.Ledger, m Movement) (decimal.Decimal, error) {
	net, err := m.Dr.Sub(m.Cr)
	if err != nil {
		return decimal.Zero, err
	}
	return l.SignedOpening().Add(net)
}

// Closings returns the signed closing balance of every ledger, including
// ledgers without postings.
func Closings(ledgers []ledger.Ledger, entries []ledger.VoucherEntry) (map[uuid.UUID]decimal.Decimal, error) {
	mv, err := Movements(entries)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]decimal.Decimal, len(ledgers))
	for _, l := range ledgers {
		m, ok := mv[l.ID]
		if !ok {
			m = Movement{Dr: decimal.Zero, Cr: decimal.Zero}
		}
		c, err := Closing(l, m)
		if err != nil {
			return nil, err
		}
		out[l.ID] = c
	}
	return out, nil
}

// Present splits a signed balance into magnitude and side; zero is Dr.
func Present(signed decimal.Decimal) Balance {
	if signed.IsNeg() {
		return Balance{Amount: signed.Abs(), Side: ledger.SideCredit}
	}
	return Balance{Amount: signed, Side: ledger.SideDebit}
}
