package registry

import (
	"github.com/google/uuid"

	"github.com/tinoosan/bookkeeping/internal/errs"
	"github.com/tinoosan/bookkeeping/internal/ledger"
	"github.com/tinoosan/bookkeeping/internal/normalize"
)

// LedgerInput is the loose create payload.
type LedgerInput struct {
	Name           string           `json:"ledgerName" validate:"required,max=128"`
	GroupID        string           `json:"groupId" validate:"required,uuid"`
	OpeningBalance normalize.Number `json:"openingBalance" validate:"omitempty,decimal"`
	OpeningSide    string           `json:"openingBalanceType" validate:"required,oneof=Dr Cr"`
	Email          string           `json:"email" validate:"omitempty,email"`
	Phone          string           `json:"phone" validate:"max=32"`
	Address        string           `json:"address" validate:"max=512"`
	City           string           `json:"city" validate:"max=128"`
	State          string           `json:"state" validate:"max=128"`
	Pincode        string           `json:"pincode" validate:"max=16"`
	PANNumber      string           `json:"panNumber" validate:"max=16"`
	GSTIN          string           `json:"gstin" validate:"max=16"`
	CreditLimit    normalize.Number `json:"creditLimit" validate:"omitempty,decimal"`
	CreditDays     normalize.Number `json:"creditDays"`
}

func (in LedgerInput) toLedger() (ledger.Ledger, error) {
	normalize.Trim(&in.Name, &in.GroupID, &in.OpeningSide, &in.Email, &in.Phone, &in.Address,
		&in.City, &in.State, &in.Pincode, &in.PANNumber, &in.GSTIN)
	if err := normalize.Struct(in); err != nil {
		return ledger.Ledger{}, err
	}
	groupID, err := uuid.Parse(in.GroupID)
	if err != nil {
		return ledger.Ledger{}, errs.Invalid("groupId", "must be a uuid")
	}
	opening, err := nonNegative("openingBalance", in.OpeningBalance)
	if err != nil {
		return ledger.Ledger{}, err
	}
	limit, err := nonNegative("creditLimit", in.CreditLimit)
	if err != nil {
		return ledger.Ledger{}, err
	}
	days, err := creditDays(in.CreditDays)
	if err != nil {
		return ledger.Ledger{}, err
	}
	return ledger.Ledger{
		GroupID:        groupID,
		Name:           in.Name,
		OpeningBalance: opening,
		OpeningSide:    ledger.Side(in.OpeningSide),
		Contact: ledger.Contact{
			Email:       in.Email,
			Phone:       in.Phone,
			Address:     in.Address,
			City:        in.City,
			State:       in.State,
			Pincode:     in.Pincode,
			PANNumber:   in.PANNumber,
			GSTIN:       in.GSTIN,
			CreditLimit: limit,
			CreditDays:  days,
		},
	}, nil
}

// LedgerPatch changes only the fields that are set.
type LedgerPatch struct {
	Name           *string           `json:"ledgerName,omitempty" validate:"omitempty,max=128"`
	GroupID        *string           `json:"groupId,omitempty" validate:"omitempty,uuid"`
	OpeningBalance *normalize.Number `json:"openingBalance,omitempty" validate:"omitempty,decimal"`
	OpeningSide    *string           `json:"openingBalanceType,omitempty" validate:"omitempty,oneof=Dr Cr"`
	Email          *string           `json:"email,omitempty" validate:"omitempty,email"`
	Phone          *string           `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address        *string           `json:"address,omitempty" validate:"omitempty,max=512"`
	City           *string           `json:"city,omitempty" validate:"omitempty,max=128"`
	State          *string           `json:"state,omitempty" validate:"omitempty,max=128"`
	Pincode        *string           `json:"pincode,omitempty" validate:"omitempty,max=16"`
	PANNumber      *string           `json:"panNumber,omitempty" validate:"omitempty,max=16"`
	GSTIN          *string           `json:"gstin,omitempty" validate:"omitempty,max=16"`
	CreditLimit    *normalize.Number `json:"creditLimit,omitempty" validate:"omitempty,decimal"`
	CreditDays     *normalize.Number `json:"creditDays,omitempty"`
}

func (p *LedgerPatch) normalize() error {
	normalize.Trim(p.Name, p.GroupID, p.OpeningSide, p.Email, p.Phone, p.Address,
		p.City, p.State, p.Pincode, p.PANNumber, p.GSTIN)
	if err := normalize.Struct(p); err != nil {
		return err
	}
	if p.Name != nil && *p.Name == "" {
		return errs.Invalid("ledgerName", "is required")
	}
	return nil
}

// apply returns cur with the patch applied. A ledger with postings keeps the
// category of its group: it may only move to a group of the same category.
func (p LedgerPatch) apply(cur ledger.Ledger, facts LedgerFacts) (ledger.Ledger, error) {
	next := cur
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.GroupID != nil {
		id, err := uuid.Parse(*p.GroupID)
		if err != nil {
			return cur, errs.Invalid("groupId", "must be a uuid")
		}
		if id != cur.GroupID && facts.HasPostings {
			from, fromOK := facts.Categories[cur.GroupID]
			to, toOK := facts.Categories[id]
			if toOK && (!fromOK || from != to) {
				return cur, &errs.ValidationError{Field: "groupId", Reason: "cannot move a ledger with postings to a group of another category", Err: errs.ErrImmutable}
			}
		}
		next.GroupID = id
	}
	if p.OpeningBalance != nil {
		d, err := nonNegative("openingBalance", *p.OpeningBalance)
		if err != nil {
			return cur, err
		}
		next.OpeningBalance = d
	}
	if p.OpeningSide != nil {
		next.OpeningSide = ledger.Side(*p.OpeningSide)
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&next.Contact.Email, p.Email)
	set(&next.Contact.Phone, p.Phone)
	set(&next.Contact.Address, p.Address)
	set(&next.Contact.City, p.City)
	set(&next.Contact.State, p.State)
	set(&next.Contact.Pincode, p.Pincode)
	set(&next.Contact.PANNumber, p.PANNumber)
	set(&next.Contact.GSTIN, p.GSTIN)
	if p.CreditLimit != nil {
		d, err := nonNegative("creditLimit", *p.CreditLimit)
		if err != nil {
			return cur, err
		}
		next.Contact.CreditLimit = d
	}
	if p.CreditDays != nil {
		days, err := creditDays(*p.CreditDays)
		if err != nil {
			return cur, err
		}
		next.Contact.CreditDays = days
	}
	return next, nil
}

func creditDays(n normalize.Number) (int, error) {
	if n == "" {
		return 0, nil
	}
	days, ok := n.Int()
	if !ok || days < 0 {
		return 0, errs.Invalid("creditDays", "must be a whole number >= 0")
	}
	return days, nil
}
