package journal

import (
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/bookkeeping/internal/ledger"
	"github.com/tinoosan/bookkeeping/internal/normalize"
)

// VoucherPayload is the loose voucher request as callers send it.
type VoucherPayload struct {
	VoucherType   string         `json:"voucherType" validate:"required,oneof=Payment Receipt Contra Journal"`
	VoucherNumber string         `json:"voucherNumber" validate:"required,max=64"`
	VoucherDate   string         `json:"voucherDate" validate:"required,calendardate"`
	Narration     string         `json:"narration" validate:"max=1024"`
	ReferenceNo   string         `json:"referenceNo" validate:"max=64"`
	ReferenceDate string         `json:"referenceDate" validate:"omitempty,calendardate"`
	ChequeNumber  string         `json:"chequeNumber" validate:"max=64"`
	ChequeDate    string         `json:"chequeDate" validate:"omitempty,calendardate"`
	BankName      string         `json:"bankName" validate:"max=128"`
	Remarks       string         `json:"remarks" validate:"max=1024"`
	Entries       []EntryPayload `json:"entries"`
}

// EntryPayload accepts the ledger as "ledgerId" or "ledger" and the side as
// "type" or "side".
type EntryPayload struct {
	LedgerID string           `json:"ledgerId"`
	Ledger   string           `json:"ledger"`
	Amount   normalize.Number `json:"amount"`
	Type     string           `json:"type"`
	Side     string           `json:"side"`
}

// Command is a normalized voucher submission. Build it with NewCommand and
// treat it as read-only.
type Command struct {
	Type      ledger.VoucherType
	Number    string
	Date      time.Time
	Narration string
	Reference ledger.Reference
	Entries   []ProposedEntry
}

// NewCommand trims and validates the header fields and coerces entries. Entry
// level problems are left for Validate to discard.
func NewCommand(p VoucherPayload) (Command, error) {
	normalize.Trim(&p.VoucherType, &p.VoucherNumber, &p.VoucherDate, &p.Narration, &p.ReferenceNo,
		&p.ReferenceDate, &p.ChequeNumber, &p.ChequeDate, &p.BankName, &p.Remarks)
	if err := normalize.Struct(p); err != nil {
		return Command{}, err
	}
	date, err := normalize.ParseDate(p.VoucherDate)
	if err != nil {
		return Command{}, err
	}
	cmd := Command{
		Type:      ledger.VoucherType(p.VoucherType),
		Number:    p.VoucherNumber,
		Date:      date,
		Narration: p.Narration,
		Reference: ledger.Reference{
			Number:       p.ReferenceNo,
			Date:         normalize.OptionalDate(p.ReferenceDate),
			ChequeNumber: p.ChequeNumber,
			ChequeDate:   normalize.OptionalDate(p.ChequeDate),
			BankName:     p.BankName,
			Remarks:      p.Remarks,
		},
		Entries: make([]ProposedEntry, 0, len(p.Entries)),
	}
	for _, e := range p.Entries {
		cmd.Entries = append(cmd.Entries, e.proposed())
	}
	return cmd, nil
}

func (e EntryPayload) proposed() ProposedEntry {
	ref := e.LedgerID
	if ref == "" {
		ref = e.Ledger
	}
	side := e.Type
	if side == "" {
		side = e.Side
	}
	normalize.Trim(&ref, &side)
	out := ProposedEntry{Side: ledger.Side(side)}
	if id, err := uuid.Parse(ref); err == nil {
		out.LedgerID = id
	}
	if amt, ok := e.Amount.Decimal(); ok {
		out.Amount = amt
	}
	return out
}
