package v1

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/govalues/money"

	"github.com/tinoosan/bookkeeping/internal/ledger"
	"github.com/tinoosan/bookkeeping/internal/service/journal"
	"github.com/tinoosan/bookkeeping/internal/service/registry"
	"github.com/tinoosan/bookkeeping/internal/service/report"
)

// amountView is an exact decimal plus a display string in the ledger currency.
type amountView struct {
	Value   string `json:"value"`
	Display string `json:"display,omitempty"`
}

func (s *Server) amount(d decimal.Decimal) amountView {
	v := amountView{Value: d.String()}
	if a, err := money.ParseAmount(s.currency.Code(), d.String()); err == nil {
		v.Display = a.RoundToCurr().String()
	}
	return v
}

func (s *Server) optAmount(d *decimal.Decimal) *amountView {
	if d == nil {
		return nil
	}
	v := s.amount(*d)
	return &v
}

func dateString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

type groupResponse struct {
	ID           uuid.UUID       `json:"id"`
	CompanyID    uuid.UUID       `json:"companyId"`
	Name         string          `json:"groupName"`
	Category     ledger.Category `json:"category"`
	ParentGroup  string          `json:"parentGroup,omitempty"`
	IsPredefined bool            `json:"isPredefined"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func toGroupResponse(g ledger.AccountGroup) groupResponse {
	return groupResponse{
		ID:           g.ID,
		CompanyID:    g.CompanyID,
		Name:         g.Name,
		Category:     g.Category,
		ParentGroup:  g.ParentGroupName,
		IsPredefined: g.IsPredefined,
		CreatedAt:    g.CreatedAt,
	}
}

type ledgerResponse struct {
	ID                 uuid.UUID       `json:"id"`
	CompanyID          uuid.UUID       `json:"companyId"`
	GroupID            uuid.UUID       `json:"groupId"`
	GroupName          string          `json:"groupName,omitempty"`
	Category           ledger.Category `json:"category,omitempty"`
	Name               string          `json:"ledgerName"`
	OpeningBalance     amountView      `json:"openingBalance"`
	OpeningBalanceType ledger.Side     `json:"openingBalanceType"`
	Email              string          `json:"email,omitempty"`
	Phone              string          `json:"phone,omitempty"`
	Address            string          `json:"address,omitempty"`
	City               string          `json:"city,omitempty"`
	State              string          `json:"state,omitempty"`
	Pincode            string          `json:"pincode,omitempty"`
	PANNumber          string          `json:"panNumber,omitempty"`
	GSTIN              string          `json:"gstin,omitempty"`
	CreditLimit        amountView      `json:"creditLimit"`
	CreditDays         int             `json:"creditDays"`
	CreatedAt          time.Time       `json:"createdAt"`
}

func (s *Server) toLedgerResponse(v registry.View) ledgerResponse {
	l, c := v.Ledger, v.Ledger.Contact
	return ledgerResponse{
		ID:                 l.ID,
		CompanyID:          l.CompanyID,
		GroupID:            l.GroupID,
		GroupName:          v.GroupName,
		Category:           v.Category,
		Name:               l.Name,
		OpeningBalance:     s.amount(l.OpeningBalance),
		OpeningBalanceType: l.OpeningSide,
		Email:              c.Email,
		Phone:              c.Phone,
		Address:            c.Address,
		City:               c.City,
		State:              c.State,
		Pincode:            c.Pincode,
		PANNumber:          c.PANNumber,
		GSTIN:              c.GSTIN,
		CreditLimit:        s.amount(c.CreditLimit),
		CreditDays:         c.CreditDays,
		CreatedAt:          l.CreatedAt,
	}
}

type entryResponse struct {
	LedgerID   uuid.UUID   `json:"ledgerId"`
	LedgerName string      `json:"ledgerName,omitempty"`
	Amount     amountView  `json:"amount"`
	Type       ledger.Side `json:"type"`
}

type voucherResponse struct {
	ID            uuid.UUID          `json:"id"`
	CompanyID     uuid.UUID          `json:"companyId"`
	VoucherType   ledger.VoucherType `json:"voucherType"`
	VoucherNumber string             `json:"voucherNumber"`
	VoucherDate   string             `json:"voucherDate"`
	Narration     string             `json:"narration,omitempty"`
	ReferenceNo   string             `json:"referenceNo,omitempty"`
	ReferenceDate string             `json:"referenceDate,omitempty"`
	ChequeNumber  string             `json:"chequeNumber,omitempty"`
	ChequeDate    string             `json:"chequeDate,omitempty"`
	BankName      string             `json:"bankName,omitempty"`
	Remarks       string             `json:"remarks,omitempty"`
	TotalAmount   amountView         `json:"totalAmount"`
	Entries       []entryResponse    `json:"entries"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// toVoucherResponse renders v; names resolves ledger ids to display names and
// may be nil.
func (s *Server) toVoucherResponse(v ledger.Voucher, total decimal.Decimal, names map[uuid.UUID]string) voucherResponse {
	out := voucherResponse{
		ID:            v.ID,
		CompanyID:     v.CompanyID,
		VoucherType:   v.Type,
		VoucherNumber: v.Number,
		VoucherDate:   v.Date.Format(time.DateOnly),
		Narration:     v.Narration,
		ReferenceNo:   v.Reference.Number,
		ReferenceDate: dateString(v.Reference.Date),
		ChequeNumber:  v.Reference.ChequeNumber,
		ChequeDate:    dateString(v.Reference.ChequeDate),
		BankName:      v.Reference.BankName,
		Remarks:       v.Reference.Remarks,
		TotalAmount:   s.amount(total),
		Entries:       make([]entryResponse, 0, len(v.Entries)),
		CreatedAt:     v.CreatedAt,
	}
	for _, e := range v.Entries {
		out.Entries = append(out.Entries, entryResponse{
			LedgerID:   e.LedgerID,
			LedgerName: names[e.LedgerID],
			Amount:     s.amount(e.Amount),
			Type:       e.Side,
		})
	}
	return out
}

func (s *Server) toSummaryResponses(items []journal.Summary, names map[uuid.UUID]string) []voucherResponse {
	out := make([]voucherResponse, 0, len(items))
	for _, it := range items {
		out = append(out, s.toVoucherResponse(it.Voucher, it.TotalAmount, names))
	}
	return out
}

type groupLineResponse struct {
	GroupID uuid.UUID  `json:"groupId"`
	Name    string     `json:"groupName"`
	Amount  amountView `json:"amount"`
}

func (s *Server) toLines(ls []report.GroupLine) []groupLineResponse {
	out := make([]groupLineResponse, 0, len(ls))
	for _, l := range ls {
		out = append(out, groupLineResponse{GroupID: l.GroupID, Name: l.Name, Amount: s.amount(l.Amount)})
	}
	return out
}

type trialBalanceResponse struct {
	Version      int64               `json:"version"`
	DrGroups     []groupLineResponse `json:"drGroups"`
	CrGroups     []groupLineResponse `json:"crGroups"`
	GrandTotalDr amountView          `json:"grandTotalDr"`
	GrandTotalCr amountView          `json:"grandTotalCr"`
	Diff         amountView          `json:"diff"`
	Balanced     bool                `json:"balanced"`
	Warning      string              `json:"warning,omitempty"`
}

func (s *Server) toTrialBalanceResponse(tb report.TrialBalance) trialBalanceResponse {
	return trialBalanceResponse{
		Version:      tb.Version,
		DrGroups:     s.toLines(tb.DrGroups),
		CrGroups:     s.toLines(tb.CrGroups),
		GrandTotalDr: s.amount(tb.GrandTotalDr),
		GrandTotalCr: s.amount(tb.GrandTotalCr),
		Diff:         s.amount(tb.Diff),
		Balanced:     tb.Balanced,
		Warning:      tb.Warning,
	}
}

type profitAndLossResponse struct {
	Version      int64               `json:"version"`
	Expenses     []groupLineResponse `json:"expenses"`
	Incomes      []groupLineResponse `json:"incomes"`
	TotalExpense amountView          `json:"totalExpense"`
	TotalIncome  amountView          `json:"totalIncome"`
	NetProfit    amountView          `json:"netProfit"`
}

func (s *Server) toProfitAndLossResponse(pl report.ProfitAndLoss) profitAndLossResponse {
	return profitAndLossResponse{
		Version:      pl.Version,
		Expenses:     s.toLines(pl.Expenses),
		Incomes:      s.toLines(pl.Incomes),
		TotalExpense: s.amount(pl.TotalExpense),
		TotalIncome:  s.amount(pl.TotalIncome),
		NetProfit:    s.amount(pl.NetProfit),
	}
}

type balanceSheetResponse struct {
	Version              int64               `json:"version"`
	Assets               []groupLineResponse `json:"assets"`
	Liabilities          []groupLineResponse `json:"liabilities"`
	TotalAssets          amountView          `json:"totalAssets"`
	TotalLiabilities     amountView          `json:"totalLiabilities"`
	Diff                 amountView          `json:"diff"`
	ProfitLoss           amountView          `json:"profitLoss"`
	ProfitLossSide       string              `json:"profitLossSide,omitempty"`
	AssetsSideTotal      amountView          `json:"assetsSideTotal"`
	LiabilitiesSideTotal amountView          `json:"liabilitiesSideTotal"`
}

func (s *Server) toBalanceSheetResponse(bs report.BalanceSheet) balanceSheetResponse {
	return balanceSheetResponse{
		Version:              bs.Version,
		Assets:               s.toLines(bs.Assets),
		Liabilities:          s.toLines(bs.Liabilities),
		TotalAssets:          s.amount(bs.TotalAssets),
		TotalLiabilities:     s.amount(bs.TotalLiabilities),
		Diff:                 s.amount(bs.Diff),
		ProfitLoss:           s.amount(bs.ProfitLoss),
		ProfitLossSide:       bs.ProfitLossSide,
		AssetsSideTotal:      s.amount(bs.AssetsSideTotal),
		LiabilitiesSideTotal: s.amount(bs.LiabilitiesSideTotal),
	}
}

type balanceView struct {
	Amount amountView  `json:"amount"`
	Side   ledger.Side `json:"side"`
}

func (s *Server) toBalance(b report.Balance) balanceView {
	return balanceView{Amount: s.amount(b.Amount), Side: b.Side}
}

type statementLineResponse struct {
	Opening       bool               `json:"opening,omitempty"`
	Date          string             `json:"date,omitempty"`
	VoucherID     *uuid.UUID         `json:"voucherId,omitempty"`
	VoucherNumber string             `json:"voucherNumber,omitempty"`
	VoucherType   ledger.VoucherType `json:"voucherType,omitempty"`
	Narration     string             `json:"narration,omitempty"`
	Dr            *amountView        `json:"dr,omitempty"`
	Cr            *amountView        `json:"cr,omitempty"`
	Balance       balanceView        `json:"balance"`
}

type statementResponse struct {
	Version    int64                   `json:"version"`
	LedgerID   uuid.UUID               `json:"ledgerId"`
	LedgerName string                  `json:"ledgerName"`
	Opening    balanceView             `json:"openingBalance"`
	Lines      []statementLineResponse `json:"lines"`
	TotalDr    amountView              `json:"totalDr"`
	TotalCr    amountView              `json:"totalCr"`
	Closing    balanceView             `json:"closingBalance"`
}

func (s *Server) toStatementResponse(st report.Statement) statementResponse {
	out := statementResponse{
		Version:    st.Version,
		LedgerID:   st.Ledger.ID,
		LedgerName: st.Ledger.Name,
		Opening:    s.toBalance(report.Present(st.Ledger.SignedOpening())),
		Lines:      make([]statementLineResponse, 0, len(st.Lines)),
		TotalDr:    s.amount(st.TotalDr),
		TotalCr:    s.amount(st.TotalCr),
		Closing:    s.toBalance(st.Closing),
	}
	for _, l := range st.Lines {
		line := statementLineResponse{
			Opening:       l.Opening,
			Date:          dateString(l.Date),
			VoucherNumber: l.VoucherNumber,
			VoucherType:   l.VoucherType,
			Narration:     l.Narration,
			Dr:            s.optAmount(l.Dr),
			Cr:            s.optAmount(l.Cr),
			Balance:       s.toBalance(l.Balance),
		}
		if !l.Opening {
			id := l.VoucherID
			line.VoucherID = &id
		}
		out.Lines = append(out.Lines, line)
	}
	return out
}

type statsResponse struct {
	Version       int64      `json:"version"`
	TotalVouchers int        `json:"totalVouchers"`
	TotalLedgers  int        `json:"totalLedgers"`
	TotalDr       amountView `json:"totalDr"`
	TotalCr       amountView `json:"totalCr"`
}

func (s *Server) toStatsResponse(st report.Stats) statsResponse {
	return statsResponse{
		Version:       st.Version,
		TotalVouchers: st.TotalVouchers,
		TotalLedgers:  st.TotalLedgers,
		TotalDr:       s.amount(st.TotalDr),
		TotalCr:       s.amount(st.TotalCr),
	}
}

type listResponse[T any] struct {
	Items []T `json:"items"`
}
