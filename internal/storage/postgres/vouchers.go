package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tinoosan/bookkeeping/internal/errs"
	"github.com/tinoosan/bookkeeping/internal/ledger"
	"github.com/tinoosan/bookkeeping/internal/service/journal"
)

const voucherColumns = `id, company_id, seq, type, number, date, narration,
	reference_no, reference_date, cheque_number, cheque_date, bank_name, remarks, created_at`

func scanVoucher(row pgx.Row) (ledger.Voucher, error) {
	var v ledger.Voucher
	var typ string
	r := &v.Reference
	if err := row.Scan(&v.ID, &v.CompanyID, &v.Seq, &typ, &v.Number, &v.Date, &v.Narration,
		&r.Number, &r.Date, &r.ChequeNumber, &r.ChequeDate, &r.BankName, &r.Remarks, &v.CreatedAt); err != nil {
		return ledger.Voucher{}, err
	}
	v.Type = ledger.VoucherType(typ)
	return v, nil
}

// loadEntries fills the entries of vs in their stored position order.
func loadEntries(ctx context.Context, q querier, vs []ledger.Voucher) error {
	if len(vs) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(vs))
	idx := make(map[uuid.UUID]*ledger.Voucher, len(vs))
	for i := range vs {
		vs[i].Entries = make([]ledger.VoucherEntry, 0, 2)
		ids = append(ids, vs[i].ID)
		idx[vs[i].ID] = &vs[i]
	}
	rows, err := q.Query(ctx, `
		select voucher_id, ledger_id, amount::text, side
		from voucher_entries
		where voucher_id = any($1)
		order by voucher_id, position
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var voucherID uuid.UUID
		var e ledger.VoucherEntry
		var amount, side string
		if err := rows.Scan(&voucherID, &e.LedgerID, &amount, &side); err != nil {
			return err
		}
		if e.Amount, err = numeric(amount); err != nil {
			return err
		}
		e.Side = ledger.Side(side)
		if v := idx[voucherID]; v != nil {
			v.Entries = append(v.Entries, e)
		}
	}
	return rows.Err()
}

// CreateVoucher runs guard against the company's ledgers, checks the number
// and inserts the voucher with its entries in one transaction.
func (s *Store) CreateVoucher(ctx context.Context, v ledger.Voucher, guard journal.Guard) (ledger.Voucher, error) {
	err := s.write(ctx, v.CompanyID, func(tx pgx.Tx) (bool, error) {
		known, err := knownLedgers(ctx, tx, v.CompanyID, journal.LedgerIDs(v.Entries))
		if err != nil {
			return false, err
		}
		if guard != nil {
			if err := guard(known); err != nil {
				return false, err
			}
		}
		var taken bool
		if err := tx.QueryRow(ctx, `select exists (select 1 from vouchers where company_id = $1 and number = $2)`, v.CompanyID, v.Number).Scan(&taken); err != nil {
			return false, err
		}
		if taken {
			return false, &errs.DuplicateError{Field: "voucherNumber", Value: v.Number}
		}
		dr, cr, err := v.Totals()
		if err != nil {
			return false, errs.VolumeExceeded("entries")
		}
		added, err := dr.Add(cr)
		if err != nil {
			return false, errs.VolumeExceeded("entries")
		}
		if err := checkVolume(ctx, tx, v.CompanyID, added, "entries"); err != nil {
			return false, err
		}
		r := v.Reference
		err = tx.QueryRow(ctx, `
			insert into vouchers (id, company_id, type, number, date, narration,
				reference_no, reference_date, cheque_number, cheque_date, bank_name, remarks, created_at)
			values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			returning seq
		`, v.ID, v.CompanyID, string(v.Type), v.Number, v.Date, v.Narration,
			r.Number, r.Date, r.ChequeNumber, r.ChequeDate, r.BankName, r.Remarks, v.CreatedAt).Scan(&v.Seq)
		if code, _ := pgCode(err); code == uniqueViolation {
			return false, &errs.DuplicateError{Field: "voucherNumber", Value: v.Number}
		}
		if err != nil {
			return false, err
		}
		for i, e := range v.Entries {
			if _, err := tx.Exec(ctx, `
				insert into voucher_entries (voucher_id, position, ledger_id, amount, side)
				values ($1, $2, $3, $4::numeric, $5)
			`, v.ID, i, e.LedgerID, e.Amount.String(), string(e.Side)); err != nil {
				return false, fmt.Errorf("insert entry: %w", err)
			}
		}
		return true, nil
	})
	if err != nil {
		return ledger.Voucher{}, err
	}
	return v, nil
}

// knownLedgers returns the subset of ids that are ledgers of the company,
// share-locking them so a concurrent delete cannot slip in.
func knownLedgers(ctx context.Context, q querier, companyID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	known := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 {
		return known, nil
	}
	rows, err := q.Query(ctx, `select id from ledgers where company_id = $1 and id = any($2) for share`, companyID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		known[id] = true
	}
	return known, rows.Err()
}

// DeleteVoucher removes a voucher and its entries and returns what was removed.
func (s *Store) DeleteVoucher(ctx context.Context, companyID, voucherID uuid.UUID) (ledger.Voucher, error) {
	var removed ledger.Voucher
	err := s.write(ctx, companyID, func(tx pgx.Tx) (bool, error) {
		v, err := getVoucher(ctx, tx, companyID, voucherID)
		if err != nil {
			return false, err
		}
		if _, err := tx.Exec(ctx, `delete from vouchers where id = $1 and company_id = $2`, voucherID, companyID); err != nil {
			return false, err
		}
		removed = v
		return true, nil
	})
	if err != nil {
		return ledger.Voucher{}, err
	}
	return removed, nil
}

// ListVouchers returns the company's vouchers asc by (Date, Seq).
func (s *Store) ListVouchers(ctx context.Context, companyID uuid.UUID) ([]ledger.Voucher, error) {
	var out []ledger.Voucher
	err := s.read(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `select `+voucherColumns+` from vouchers where company_id = $1 order by date, seq`, companyID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = make([]ledger.Voucher, 0)
		for rows.Next() {
			v, err := scanVoucher(rows)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()
		return loadEntries(ctx, tx, out)
	})
	return out, err
}

// GetVoucher returns a company's voucher by ID.
func (s *Store) GetVoucher(ctx context.Context, companyID, voucherID uuid.UUID) (ledger.Voucher, error) {
	var v ledger.Voucher
	err := s.read(ctx, func(tx pgx.Tx) error {
		var err error
		v, err = getVoucher(ctx, tx, companyID, voucherID)
		return err
	})
	return v, err
}

func getVoucher(ctx context.Context, q querier, companyID, voucherID uuid.UUID) (ledger.Voucher, error) {
	v, err := scanVoucher(q.QueryRow(ctx, `select `+voucherColumns+` from vouchers where id = $1 and company_id = $2`, voucherID, companyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Voucher{}, errs.NotFound("voucher", voucherID)
	}
	if err != nil {
		return ledger.Voucher{}, err
	}
	vs := []ledger.Voucher{v}
	if err := loadEntries(ctx, q, vs); err != nil {
		return ledger.Voucher{}, err
	}
	return vs[0], nil
}

// VoucherNumbers returns every number in use by the company.
func (s *Store) VoucherNumbers(ctx context.Context, companyID uuid.UUID) ([]string, error) {
	rows, err := s.pool.Query(ctx, `select number from vouchers where company_id = $1`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
