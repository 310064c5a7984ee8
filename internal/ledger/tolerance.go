package ledger

import "github.com/govalues/decimal"

// Amounts are exact decimals, so these thresholds are business rules and not
// compensation for rounding drift. They are the only two used anywhere.
var (
	// MatchTolerance bounds |Dr - Cr| for an acceptable voucher and for a
	// trial balance that is reported as balanced.
	MatchTolerance = decimal.MustNew(1, 2)
	// ZeroThreshold is the magnitude at or below which a profit and loss or
	// balance sheet group line is treated as empty and dropped.
	ZeroThreshold = decimal.MustNew(1, 5)
)

// Stored amounts (entry amounts, opening balances, credit limits) have at most
// AmountScale fractional digits and a magnitude of at most MaxAmount. A
// company's journal volume, the sum of every entry amount and opening balance,
// stays at or below MaxJournalVolume. Every report figure is a signed partial
// sum of that volume, so with a 19 digit coefficient all report arithmetic is
// exact and cannot overflow.
const AmountScale = 4

var (
	MaxAmount        = decimal.MustNew(1_000_000_000_000, 0)   // 10^12
	MaxJournalVolume = decimal.MustNew(100_000_000_000_000, 0) // 10^14
)

// WithinTolerance reports whether |a - b| <= MatchTolerance.
func WithinTolerance(a, b decimal.Decimal) (bool, error) {
	d, err := a.Sub(b)
	if err != nil {
		return false, err
	}
	return d.Abs().Cmp(MatchTolerance) <= 0, nil
}

// Negligible reports whether |d| <= ZeroThreshold.
func Negligible(d decimal.Decimal) bool {
	return d.Abs().Cmp(ZeroThreshold) <= 0
}

// FitsScale reports whether d has at most AmountScale significant fractional digits.
func FitsScale(d decimal.Decimal) bool {
	return d.Trim(0).Scale() <= AmountScale
}

// FitsAmount reports whether d fits the stored amount scale and |d| <= MaxAmount.
func FitsAmount(d decimal.Decimal) bool {
	return FitsScale(d) && d.Abs().Cmp(MaxAmount) <= 0
}

// FitsVolume reports whether adding add to a journal volume keeps it within
// MaxJournalVolume.
func FitsVolume(volume, add decimal.Decimal) bool {
	total, err := volume.Add(add)
	if err != nil {
		return false
	}
	return total.Cmp(MaxJournalVolume) <= 0
}
