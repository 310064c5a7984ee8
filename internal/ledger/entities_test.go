package ledger

import (
	"testing"
	"time"

	"github.com/govalues/decimal"
)

func TestSignedOpening(t *testing.T) {
	dr := Ledger{OpeningBalance: decimal.MustParse("1000"), OpeningSide: SideDebit}
	cr := Ledger{OpeningBalance: decimal.MustParse("1000"), OpeningSide: SideCredit}
	if dr.SignedOpening().Cmp(decimal.MustParse("1000")) != 0 {
		t.Fatalf("debit opening: got %s", dr.SignedOpening())
	}
	if cr.SignedOpening().Cmp(decimal.MustParse("-1000")) != 0 {
		t.Fatalf("credit opening: got %s", cr.SignedOpening())
	}
}

func TestVoucherTotals(t *testing.T) {
	v := Voucher{Entries: []VoucherEntry{
		{Amount: decimal.MustParse("60.50"), Side: SideDebit},
		{Amount: decimal.MustParse("39.50"), Side: SideDebit},
		{Amount: decimal.MustParse("100"), Side: SideCredit},
	}}
	dr, cr, err := v.Totals()
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if dr.Cmp(cr) != 0 {
		t.Fatalf("expected equal totals, got %s / %s", dr, cr)
	}
}

func TestWithinTolerance(t *testing.T) {
	base := decimal.MustParse("100.00")
	ok, err := WithinTolerance(base, decimal.MustParse("100.009"))
	if err != nil || !ok {
		t.Fatalf("100.009 should be within tolerance: ok=%v err=%v", ok, err)
	}
	ok, _ = WithinTolerance(base, decimal.MustParse("100.01"))
	if !ok {
		t.Fatalf("exactly 0.01 apart should be accepted")
	}
	ok, _ = WithinTolerance(base, decimal.MustParse("100.02"))
	if ok {
		t.Fatalf("100.02 should be outside tolerance")
	}
}

func TestNegligible(t *testing.T) {
	if !Negligible(decimal.MustParse("0.00001")) || !Negligible(decimal.MustParse("-0.000005")) {
		t.Fatalf("values at or below threshold must be negligible")
	}
	if Negligible(decimal.MustParse("0.00002")) {
		t.Fatalf("0.00002 is above threshold")
	}
}

func TestCalendarDateDropsTime(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	in := time.Date(2024, 3, 31, 23, 45, 0, 0, loc)
	got := CalendarDate(in)
	want := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}
