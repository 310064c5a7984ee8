package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tinoosan/bookkeeping/internal/errs"
	"github.com/tinoosan/bookkeeping/internal/ledger"
	"github.com/tinoosan/bookkeeping/internal/service/chart"
)

const groupColumns = `id, company_id, name, category, parent_group_name, is_predefined, created_at`

func scanGroup(row pgx.Row) (ledger.AccountGroup, error) {
	var g ledger.AccountGroup
	var category string
	if err := row.Scan(&g.ID, &g.CompanyID, &g.Name, &category, &g.ParentGroupName, &g.IsPredefined, &g.CreatedAt); err != nil {
		return ledger.AccountGroup{}, err
	}
	g.Category = ledger.Category(category)
	return g, nil
}

func listGroups(ctx context.Context, q querier, companyID uuid.UUID) ([]ledger.AccountGroup, error) {
	rows, err := q.Query(ctx, `select `+groupColumns+` from account_groups where company_id = $1 order by name`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.AccountGroup, 0)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func getGroup(ctx context.Context, q querier, companyID, groupID uuid.UUID, lock string) (ledger.AccountGroup, error) {
	g, err := scanGroup(q.QueryRow(ctx, `select `+groupColumns+` from account_groups where id = $1 and company_id = $2 `+lock, groupID, companyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.AccountGroup{}, errs.NotFound("group", groupID)
	}
	return g, err
}

// ListGroups returns the company's groups ordered by name.
func (s *Store) ListGroups(ctx context.Context, companyID uuid.UUID) ([]ledger.AccountGroup, error) {
	return listGroups(ctx, s.pool, companyID)
}

// GetGroup returns a company's group by ID.
func (s *Store) GetGroup(ctx context.Context, companyID, groupID uuid.UUID) (ledger.AccountGroup, error) {
	return getGroup(ctx, s.pool, companyID, groupID, "")
}

// CreateGroups inserts all groups or none.
func (s *Store) CreateGroups(ctx context.Context, companyID uuid.UUID, groups []ledger.AccountGroup, skipExisting bool) ([]ledger.AccountGroup, error) {
	created := make([]ledger.AccountGroup, 0, len(groups))
	err := s.write(ctx, companyID, func(tx pgx.Tx) (bool, error) {
		created = created[:0]
		for _, g := range groups {
			g.CompanyID = companyID
			ct, err := tx.Exec(ctx, `
				insert into account_groups (id, company_id, name, category, parent_group_name, is_predefined, created_at)
				values ($1, $2, $3, $4, $5, $6, $7)
				on conflict (company_id, name) do nothing
			`, g.ID, g.CompanyID, g.Name, string(g.Category), g.ParentGroupName, g.IsPredefined, g.CreatedAt)
			if err != nil {
				return false, err
			}
			if ct.RowsAffected() == 0 {
				if skipExisting {
					continue
				}
				return false, &errs.DuplicateError{Field: "groupName", Value: g.Name}
			}
			created = append(created, g)
		}
		return len(created) > 0, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateGroup applies mutate to the locked group row.
func (s *Store) UpdateGroup(ctx context.Context, companyID, groupID uuid.UUID, mutate chart.GroupMutator) (ledger.AccountGroup, error) {
	var next ledger.AccountGroup
	err := s.write(ctx, companyID, func(tx pgx.Tx) (bool, error) {
		cur, err := getGroup(ctx, tx, companyID, groupID, "for update")
		if err != nil {
			return false, err
		}
		var hasPostings bool
		if err := tx.QueryRow(ctx, `
			select exists (
				select 1 from voucher_entries e
				join ledgers l on l.id = e.ledger_id
				where l.group_id = $1
			)
		`, groupID).Scan(&hasPostings); err != nil {
			return false, err
		}
		next, err = mutate(cur, hasPostings)
		if err != nil {
			return false, err
		}
		next.ID, next.CompanyID, next.IsPredefined, next.CreatedAt = cur.ID, cur.CompanyID, cur.IsPredefined, cur.CreatedAt
		_, err = tx.Exec(ctx, `
			update account_groups set name = $1, category = $2, parent_group_name = $3
			where id = $4 and company_id = $5
		`, next.Name, string(next.Category), next.ParentGroupName, groupID, companyID)
		if code, _ := pgCode(err); code == uniqueViolation {
			return false, &errs.DuplicateError{Field: "groupName", Value: next.Name}
		}
		return err == nil, err
	})
	if err != nil {
		return ledger.AccountGroup{}, err
	}
	return next, nil
}

// DeleteGroup removes a group that no ledger references.
func (s *Store) DeleteGroup(ctx context.Context, companyID, groupID uuid.UUID) error {
	return s.write(ctx, companyID, func(tx pgx.Tx) (bool, error) {
		g, err := getGroup(ctx, tx, companyID, groupID, "for update")
		if err != nil {
			return false, err
		}
		if g.IsPredefined {
			return false, errs.ErrPredefinedGroup
		}
		var used bool
		if err := tx.QueryRow(ctx, `select exists (select 1 from ledgers where group_id = $1)`, groupID).Scan(&used); err != nil {
			return false, err
		}
		if used {
			return false, &errs.ReferentialIntegrityError{Entity: "group", ID: groupID, By: "ledgers"}
		}
		_, err = tx.Exec(ctx, `delete from account_groups where id = $1 and company_id = $2`, groupID, companyID)
		if code, _ := pgCode(err); code == foreignKeyViolation {
			return false, &errs.ReferentialIntegrityError{Entity: "group", ID: groupID, By: "ledgers"}
		}
		return err == nil, err
	})
}
