package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tinoosan/bookkeeping/internal/ledger"
)

// Snapshot reads the company's groups, ledgers and entries in one repeatable
// read transaction.
func (s *Store) Snapshot(ctx context.Context, companyID uuid.UUID) (ledger.Snapshot, error) {
	snap := ledger.Snapshot{CompanyID: companyID}
	err := s.read(ctx, func(tx pgx.Tx) error {
		var err error
		if snap.Version, err = journalVersion(ctx, tx, companyID); err != nil {
			return err
		}
		if snap.Groups, err = listGroups(ctx, tx, companyID); err != nil {
			return err
		}
		if snap.Ledgers, err = listLedgers(ctx, tx, companyID); err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, `select count(*) from vouchers where company_id = $1`, companyID).Scan(&snap.VoucherCount); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, `
			select e.ledger_id, e.amount::text, e.side
			from voucher_entries e
			join vouchers v on v.id = e.voucher_id
			where v.company_id = $1
			order by v.date, v.seq, e.position
		`, companyID)
		if err != nil {
			return err
		}
		defer rows.Close()
		snap.Entries = make([]ledger.VoucherEntry, 0)
		for rows.Next() {
			var e ledger.VoucherEntry
			var amount, side string
			if err := rows.Scan(&e.LedgerID, &amount, &side); err != nil {
				return err
			}
			if e.Amount, err = numeric(amount); err != nil {
				return err
			}
			e.Side = ledger.Side(side)
			snap.Entries = append(snap.Entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return ledger.Snapshot{}, err
	}
	return snap, nil
}

// LedgerHistory returns a ledger and its postings asc by (Date, Seq).
func (s *Store) LedgerHistory(ctx context.Context, companyID, ledgerID uuid.UUID) (ledger.LedgerHistory, error) {
	var h ledger.LedgerHistory
	err := s.read(ctx, func(tx pgx.Tx) error {
		var err error
		if h.Version, err = journalVersion(ctx, tx, companyID); err != nil {
			return err
		}
		if h.Ledger, err = getLedger(ctx, tx, companyID, ledgerID, ""); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, `
			select v.id, v.number, v.type, v.date, v.seq, v.narration, e.amount::text, e.side
			from voucher_entries e
			join vouchers v on v.id = e.voucher_id
			where v.company_id = $1 and e.ledger_id = $2
			order by v.date, v.seq, e.position
		`, companyID, ledgerID)
		if err != nil {
			return err
		}
		defer rows.Close()
		h.Postings = make([]ledger.Posting, 0)
		for rows.Next() {
			var p ledger.Posting
			var typ, amount, side string
			if err := rows.Scan(&p.VoucherID, &p.VoucherNumber, &typ, &p.Date, &p.Seq, &p.Narration, &amount, &side); err != nil {
				return err
			}
			if p.Amount, err = numeric(amount); err != nil {
				return err
			}
			p.VoucherType = ledger.VoucherType(typ)
			p.Side = ledger.Side(side)
			h.Postings = append(h.Postings, p)
		}
		return rows.Err()
	})
	if err != nil {
		return ledger.LedgerHistory{}, err
	}
	return h, nil
}
