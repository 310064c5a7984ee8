package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tinoosan/bookkeeping/internal/errs"
	"github.com/tinoosan/bookkeeping/internal/ledger"
	"github.com/tinoosan/bookkeeping/internal/service/registry"
)

const ledgerColumns = `id, company_id, group_id, name, opening_balance::text, opening_balance_type,
	email, phone, address, city, state, pincode, pan_number, gstin, credit_limit::text, credit_days, created_at`

func scanLedger(row pgx.Row) (ledger.Ledger, error) {
	var l ledger.Ledger
	var opening, side, limit string
	c := &l.Contact
	if err := row.Scan(&l.ID, &l.CompanyID, &l.GroupID, &l.Name, &opening, &side,
		&c.Email, &c.Phone, &c.Address, &c.City, &c.State, &c.Pincode, &c.PANNumber, &c.GSTIN, &limit, &c.CreditDays, &l.CreatedAt); err != nil {
		return ledger.Ledger{}, err
	}
	var err error
	if l.OpeningBalance, err = numeric(opening); err != nil {
		return ledger.Ledger{}, err
	}
	if c.CreditLimit, err = numeric(limit); err != nil {
		return ledger.Ledger{}, err
	}
	l.OpeningSide = ledger.Side(side)
	return l, nil
}

func listLedgers(ctx context.Context, q querier, companyID uuid.UUID) ([]ledger.Ledger, error) {
	rows, err := q.Query(ctx, `select `+ledgerColumns+` from ledgers where company_id = $1 order by name`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Ledger, 0)
	for rows.Next() {
		l, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func getLedger(ctx context.Context, q querier, companyID, ledgerID uuid.UUID, lock string) (ledger.Ledger, error) {
	l, err := scanLedger(q.QueryRow(ctx, `select `+ledgerColumns+` from ledgers where id = $1 and company_id = $2 `+lock, ledgerID, companyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Ledger{}, errs.NotFound("ledger", ledgerID)
	}
	return l, err
}

// ListLedgers returns the company's ledgers ordered by name.
func (s *Store) ListLedgers(ctx context.Context, companyID uuid.UUID) ([]ledger.Ledger, error) {
	return listLedgers(ctx, s.pool, companyID)
}

// GetLedger returns a company's ledger by ID.
func (s *Store) GetLedger(ctx context.Context, companyID, ledgerID uuid.UUID) (ledger.Ledger, error) {
	return getLedger(ctx, s.pool, companyID, ledgerID, "")
}

// CreateLedger inserts a ledger after checking its group belongs to the company.
func (s *Store) CreateLedger(ctx context.Context, l ledger.Ledger) (ledger.Ledger, error) {
	err := s.write(ctx, l.CompanyID, func(tx pgx.Tx) (bool, error) {
		if err := checkGroup(ctx, tx, l); err != nil {
			return false, err
		}
		if err := checkVolume(ctx, tx, l.CompanyID, l.OpeningBalance, "openingBalance"); err != nil {
			return false, err
		}
		c := l.Contact
		_, err := tx.Exec(ctx, `
			insert into ledgers (id, company_id, group_id, name, opening_balance, opening_balance_type,
				email, phone, address, city, state, pincode, pan_number, gstin, credit_limit, credit_days, created_at)
			values ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15::numeric, $16, $17)
		`, l.ID, l.CompanyID, l.GroupID, l.Name, l.OpeningBalance.String(), string(l.OpeningSide),
			c.Email, c.Phone, c.Address, c.City, c.State, c.Pincode, c.PANNumber, c.GSTIN, c.CreditLimit.String(), c.CreditDays, l.CreatedAt)
		return err == nil, ledgerWriteErr(err, l)
	})
	if err != nil {
		return ledger.Ledger{}, err
	}
	return l, nil
}

// UpdateLedger applies mutate to the locked ledger row.
func (s *Store) UpdateLedger(ctx context.Context, companyID, ledgerID uuid.UUID, mutate registry.LedgerMutator) (ledger.Ledger, error) {
	var next ledger.Ledger
	err := s.write(ctx, companyID, func(tx pgx.Tx) (bool, error) {
		cur, err := getLedger(ctx, tx, companyID, ledgerID, "for update")
		if err != nil {
			return false, err
		}
		facts := registry.LedgerFacts{}
		if err := tx.QueryRow(ctx, `select exists (select 1 from voucher_entries where ledger_id = $1)`, ledgerID).Scan(&facts.HasPostings); err != nil {
			return false, err
		}
		if facts.Categories, err = groupCategories(ctx, tx, companyID); err != nil {
			return false, err
		}
		if next, err = mutate(cur, facts); err != nil {
			return false, err
		}
		next.ID, next.CompanyID, next.CreatedAt = cur.ID, cur.CompanyID, cur.CreatedAt
		if err := checkGroup(ctx, tx, next); err != nil {
			return false, err
		}
		growth, err := next.OpeningBalance.Sub(cur.OpeningBalance)
		if err != nil {
			return false, err
		}
		if err := checkVolume(ctx, tx, companyID, growth, "openingBalance"); err != nil {
			return false, err
		}
		c := next.Contact
		_, err = tx.Exec(ctx, `
			update ledgers set group_id = $1, name = $2, opening_balance = $3::numeric, opening_balance_type = $4,
				email = $5, phone = $6, address = $7, city = $8, state = $9, pincode = $10, pan_number = $11,
				gstin = $12, credit_limit = $13::numeric, credit_days = $14
			where id = $15 and company_id = $16
		`, next.GroupID, next.Name, next.OpeningBalance.String(), string(next.OpeningSide),
			c.Email, c.Phone, c.Address, c.City, c.State, c.Pincode, c.PANNumber,
			c.GSTIN, c.CreditLimit.String(), c.CreditDays, ledgerID, companyID)
		return err == nil, ledgerWriteErr(err, next)
	})
	if err != nil {
		return ledger.Ledger{}, err
	}
	return next, nil
}

// DeleteLedger removes a ledger that no voucher entry references.
func (s *Store) DeleteLedger(ctx context.Context, companyID, ledgerID uuid.UUID) error {
	return s.write(ctx, companyID, func(tx pgx.Tx) (bool, error) {
		if _, err := getLedger(ctx, tx, companyID, ledgerID, "for update"); err != nil {
			return false, err
		}
		var used bool
		if err := tx.QueryRow(ctx, `select exists (select 1 from voucher_entries where ledger_id = $1)`, ledgerID).Scan(&used); err != nil {
			return false, err
		}
		if used {
			return false, &errs.ReferentialIntegrityError{Entity: "ledger", ID: ledgerID, By: "voucher entries"}
		}
		_, err := tx.Exec(ctx, `delete from ledgers where id = $1 and company_id = $2`, ledgerID, companyID)
		if code, _ := pgCode(err); code == foreignKeyViolation {
			return false, &errs.ReferentialIntegrityError{Entity: "ledger", ID: ledgerID, By: "voucher entries"}
		}
		return err == nil, err
	})
}

func groupCategories(ctx context.Context, q querier, companyID uuid.UUID) (map[uuid.UUID]ledger.Category, error) {
	rows, err := q.Query(ctx, `select id, category from account_groups where company_id = $1`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uuid.UUID]ledger.Category)
	for rows.Next() {
		var id uuid.UUID
		var category string
		if err := rows.Scan(&id, &category); err != nil {
			return nil, err
		}
		out[id] = ledger.Category(category)
	}
	return out, rows.Err()
}

func checkGroup(ctx context.Context, q querier, l ledger.Ledger) error {
	var ok bool
	if err := q.QueryRow(ctx, `select exists (select 1 from account_groups where id = $1 and company_id = $2)`, l.GroupID, l.CompanyID).Scan(&ok); err != nil {
		return err
	}
	if !ok {
		return errs.Invalid("groupId", "group does not exist for this company")
	}
	return nil
}

func ledgerWriteErr(err error, l ledger.Ledger) error {
	switch code, constraint := pgCode(err); {
	case code == uniqueViolation && constraint == "uq_ledgers_name":
		return &errs.DuplicateError{Field: "ledgerName", Value: l.Name}
	case code == foreignKeyViolation:
		return errs.Invalid("groupId", "group does not exist for this company")
	}
	return err
}
