package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
)

// Side represents the accounting position of a voucher entry.
type Side string

const (
	// SideDebit records a value on the debit side of a ledger.
	SideDebit Side = "Dr"
	// SideCredit records a value on the credit side of a ledger.
	SideCredit Side = "Cr"
)

// Valid reports whether s is Dr or Cr.
func (s Side) Valid() bool { return s == SideDebit || s == SideCredit }

// Category is the broad classification of an account group.
type Category string

const (
	// CategoryAsset increases on the debit side and holds resources owned by the company.
	CategoryAsset Category = "Asset"
	// CategoryLiability increases on the credit side; capital is carried here too.
	CategoryLiability Category = "Liability"
	// CategoryIncome represents inflows reported in profit and loss.
	CategoryIncome Category = "Income"
	// CategoryExpense represents outflows reported in profit and loss.
	CategoryExpense Category = "Expense"
)

// Categories lists every category in reporting order.
var Categories = []Category{CategoryAsset, CategoryLiability, CategoryIncome, CategoryExpense}

func (c Category) Valid() bool {
	switch c {
	case CategoryAsset, CategoryLiability, CategoryIncome, CategoryExpense:
		return true
	}
	return false
}

// VoucherType enumerates the kinds of voucher a company can post.
type VoucherType string

const (
	VoucherPayment VoucherType = "Payment"
	VoucherReceipt VoucherType = "Receipt"
	VoucherContra  VoucherType = "Contra"
	VoucherJournal VoucherType = "Journal"
)

func (t VoucherType) Valid() bool {
	switch t {
	case VoucherPayment, VoucherReceipt, VoucherContra, VoucherJournal:
		return true
	}
	return false
}

// AccountGroup is a named bucket of ledgers under one category.
type AccountGroup struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	Name      string
	Category  Category
	// ParentGroupName is informational only; it is not enforced as a reference.
	ParentGroupName string
	IsPredefined    bool
	CreatedAt       time.Time
}

// Contact holds the party and credit attributes of a ledger.
type Contact struct {
	Email       string
	Phone       string
	Address     string
	City        string
	State       string
	Pincode     string
	PANNumber   string
	GSTIN       string
	CreditLimit decimal.Decimal
	CreditDays  int
}

// Ledger is an individual account carrying an opening balance.
type Ledger struct {
	ID             uuid.UUID
	CompanyID      uuid.UUID
	GroupID        uuid.UUID
	Name           string
	OpeningBalance decimal.Decimal
	OpeningSide    Side
	Contact        Contact
	CreatedAt      time.Time
}

// SignedOpening returns the opening balance with positive meaning net debit.
func (l Ledger) SignedOpening() decimal.Decimal {
	if l.OpeningSide == SideDebit {
		return l.OpeningBalance
	}
	return l.OpeningBalance.Neg()
}

// VoucherEntry is one posting of a voucher. It has no identity of its own.
type VoucherEntry struct {
	LedgerID uuid.UUID
	Amount   decimal.Decimal
	Side     Side
}

// Reference carries the optional document metadata of a voucher.
type Reference struct {
	Number       string
	Date         *time.Time
	ChequeNumber string
	ChequeDate   *time.Time
	BankName     string
	Remarks      string
}

// Voucher is a balanced transaction made of two or more entries.
type Voucher struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	Type      VoucherType
	Number    string
	// Date is a calendar date at UTC midnight.
	Date      time.Time
	Narration string
	Reference Reference
	Entries   []VoucherEntry
	// Seq is the insertion order within the store; it breaks ties between
	// vouchers sharing a date.
	Seq       int64
	CreatedAt time.Time
}

// Totals returns the debit and credit sums of the voucher's entries.
func (v Voucher) Totals() (dr, cr decimal.Decimal, err error) {
	dr, cr = decimal.Zero, decimal.Zero
	for _, e := range v.Entries {
		switch e.Side {
		case SideDebit:
			dr, err = dr.Add(e.Amount)
		case SideCredit:
			cr, err = cr.Add(e.Amount)
		}
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
	}
	return dr, cr, nil
}

// Posting is one entry of a ledger in statement order.
type Posting struct {
	VoucherID     uuid.UUID
	VoucherNumber string
	VoucherType   VoucherType
	Date          time.Time
	Seq           int64
	Narration     string
	Amount        decimal.Decimal
	Side          Side
}

// Snapshot is one consistent read of a company's chart, ledgers and journal.
type Snapshot struct {
	CompanyID    uuid.UUID
	Version      int64
	Groups       []AccountGroup
	Ledgers      []Ledger
	Entries      []VoucherEntry
	VoucherCount int
}

// LedgerHistory is a ledger together with its postings ordered by (Date, Seq).
type LedgerHistory struct {
	Version  int64
	Ledger   Ledger
	Postings []Posting
}

// CalendarDate drops the time of day, keeping the date as seen in t's location.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
