package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/redis/go-redis/v9"

	"github.com/tinoosan/bookkeeping/internal/cache"
	"github.com/tinoosan/bookkeeping/internal/storage/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type errResp struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Field   string `json:"field"`
	TotalDr string `json:"totalDr"`
	TotalCr string `json:"totalCr"`
}

type idResp struct {
	ID string `json:"id"`
}

type client struct {
	t       *testing.T
	h       http.Handler
	company uuid.UUID
	groups  map[string]string
}

func newClient(t *testing.T, opts Options) *client {
	t.Helper()
	c := &client{
		t:       t,
		h:       New(memory.New(), opts, testLogger()).Handler(),
		company: uuid.New(),
		groups:  map[string]string{},
	}
	rr := c.do(http.MethodPost, "/seed", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("seed: %d %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Items []struct {
			ID   string `json:"id"`
			Name string `json:"groupName"`
		} `json:"items"`
	}
	c.decode(rr, &out)
	for _, g := range out.Items {
		c.groups[g.Name] = g.ID
	}
	return c
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}
	if !strings.HasPrefix(path, "/v1/") && !strings.HasPrefix(path, "/healthz") && !strings.HasPrefix(path, "/readyz") {
		path = "/v1/companies/" + c.company.String() + path
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	c.h.ServeHTTP(rr, req)
	return rr
}

func (c *client) decode(rr *httptest.ResponseRecorder, v any) {
	c.t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		c.t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func (c *client) ledger(name, group string, opening any, side string) string {
	c.t.Helper()
	rr := c.do(http.MethodPost, "/ledgers", map[string]any{
		"ledgerName":         name,
		"groupId":            c.groups[group],
		"openingBalance":     opening,
		"openingBalanceType": side,
	})
	if rr.Code != http.StatusCreated {
		c.t.Fatalf("create ledger %s: %d %s", name, rr.Code, rr.Body.String())
	}
	var out idResp
	c.decode(rr, &out)
	return out.ID
}

func voucherBody(number, date string, dr, cr string, drAmt, crAmt any) map[string]any {
	return map[string]any{
		"voucherType":   "Journal",
		"voucherNumber": number,
		"voucherDate":   date,
		"narration":     "test",
		"entries": []map[string]any{
			{"ledgerId": dr, "amount": drAmt, "type": "Dr"},
			{"ledgerId": cr, "amount": crAmt, "type": "Cr"},
		},
	}
}

func sameDecimal(t *testing.T, got, want string) {
	t.Helper()
	g, err := decimal.Parse(got)
	if err != nil {
		t.Fatalf("parse %q: %v", got, err)
	}
	if g.Cmp(decimal.MustParse(want)) != 0 {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestScenario_CashCapitalRent(t *testing.T) {
	c := newClient(t, Options{})
	cash := c.ledger("Cash", "Cash-in-hand", 1000, "Dr")
	capital := c.ledger("Capital", "Capital Account", "1000", "Cr")
	rent := c.ledger("Rent", "Indirect Expenses", nil, "Dr")

	rr := c.do(http.MethodPost, "/vouchers", voucherBody("1", "2024-04-01", cash, capital, 500, 500))
	if rr.Code != http.StatusCreated {
		t.Fatalf("capital voucher: %d %s", rr.Code, rr.Body.String())
	}
	body := voucherBody("2", "2024-04-02T10:30:00Z", rent, cash, "200", "200")
	body["voucherType"] = "Payment"
	if rr := c.do(http.MethodPost, "/vouchers", body); rr.Code != http.StatusCreated {
		t.Fatalf("rent voucher: %d %s", rr.Code, rr.Body.String())
	}

	var tb trialBalanceResponse
	rr = c.do(http.MethodGet, "/reports/trial-balance", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("trial balance: %d %s", rr.Code, rr.Body.String())
	}
	c.decode(rr, &tb)
	sameDecimal(t, tb.GrandTotalDr.Value, "1500")
	sameDecimal(t, tb.GrandTotalCr.Value, "1500")
	if !tb.Balanced || tb.Warning != "" {
		t.Fatalf("expected balanced trial balance: %+v", tb)
	}
	if !strings.HasPrefix(tb.GrandTotalDr.Display, "INR") {
		t.Fatalf("expected INR display, got %q", tb.GrandTotalDr.Display)
	}

	var pl profitAndLossResponse
	c.decode(c.do(http.MethodGet, "/reports/profit-loss", nil), &pl)
	sameDecimal(t, pl.NetProfit.Value, "-200")
	if len(pl.Expenses) != 1 || pl.Expenses[0].Name != "Indirect Expenses" {
		t.Fatalf("unexpected expenses: %+v", pl.Expenses)
	}

	var bs balanceSheetResponse
	c.decode(c.do(http.MethodGet, "/reports/balance-sheet", nil), &bs)
	sameDecimal(t, bs.TotalAssets.Value, "1300")
	sameDecimal(t, bs.TotalLiabilities.Value, "1500")
	sameDecimal(t, bs.Diff.Value, pl.NetProfit.Value)
	sameDecimal(t, bs.AssetsSideTotal.Value, "1500")
	sameDecimal(t, bs.LiabilitiesSideTotal.Value, "1500")
	if bs.ProfitLossSide != "assets" {
		t.Fatalf("expected loss on assets side, got %q", bs.ProfitLossSide)
	}

	var st statementResponse
	c.decode(c.do(http.MethodGet, "/reports/ledgers/"+cash+"/statement", nil), &st)
	if len(st.Lines) != 3 || !st.Lines[0].Opening {
		t.Fatalf("unexpected statement lines: %+v", st.Lines)
	}
	sameDecimal(t, st.Closing.Amount.Value, "1300")
	if st.Closing.Side != "Dr" || st.Lines[2].Balance != st.Closing {
		t.Fatalf("closing mismatch: %+v vs %+v", st.Lines[2].Balance, st.Closing)
	}
	if st.Lines[2].Date != "2024-04-02" || st.Lines[2].VoucherType != "Payment" {
		t.Fatalf("unexpected posting line: %+v", st.Lines[2])
	}

	var stats statsResponse
	c.decode(c.do(http.MethodGet, "/dashboard", nil), &stats)
	if stats.TotalVouchers != 2 || stats.TotalLedgers != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	sameDecimal(t, stats.TotalDr.Value, "700")
}

func TestPostVoucher_ToleranceAndMismatch(t *testing.T) {
	c := newClient(t, Options{})
	cash := c.ledger("Cash", "Cash-in-hand", 0, "Dr")
	capital := c.ledger("Capital", "Capital Account", 0, "Cr")

	if rr := c.do(http.MethodPost, "/vouchers", voucherBody("1", "2024-04-01", cash, capital, 100, "100.009")); rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 within tolerance, got %d %s", rr.Code, rr.Body.String())
	}

	rr := c.do(http.MethodPost, "/vouchers", voucherBody("2", "2024-04-01", cash, capital, 100, 100.02))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d %s", rr.Code, rr.Body.String())
	}
	var er errResp
	c.decode(rr, &er)
	if er.Code != "mismatch" {
		t.Fatalf("expected mismatch code, got %+v", er)
	}
	sameDecimal(t, er.TotalDr, "100")
	sameDecimal(t, er.TotalCr, "100.02")

	// duplicate number
	rr = c.do(http.MethodPost, "/vouchers", voucherBody("1", "2024-04-03", cash, capital, 5, 5))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 duplicate, got %d %s", rr.Code, rr.Body.String())
	}
	c.decode(rr, &er)
	if er.Code != "duplicate" || er.Field != "voucherNumber" {
		t.Fatalf("unexpected duplicate error: %+v", er)
	}

	var next map[string]string
	c.decode(c.do(http.MethodGet, "/vouchers/next-number", nil), &next)
	if next["voucherNumber"] != "2" {
		t.Fatalf("expected next number 2, got %v", next)
	}
}

func TestPostVoucher_Rejections(t *testing.T) {
	c := newClient(t, Options{})
	cash := c.ledger("Cash", "Cash-in-hand", 0, "Dr")
	capital := c.ledger("Capital", "Capital Account", 0, "Cr")

	cases := []struct {
		name   string
		body   map[string]any
		status int
		code   string
		field  string
	}{
		{"bad type", func() map[string]any {
			b := voucherBody("1", "2024-04-01", cash, uuid.NewString(), 1, 1)
			b["voucherType"] = "Sales"
			return b
		}(), http.StatusUnprocessableEntity, "validation_error", "voucherType"},
		{"bad date", voucherBody("1", "01/04/2024", cash, uuid.NewString(), 1, 1), http.StatusUnprocessableEntity, "validation_error", "voucherDate"},
		{"unknown ledger", voucherBody("1", "2024-04-01", cash, uuid.NewString(), 1, 1), http.StatusUnprocessableEntity, "invalid_ledger_reference", "entries"},
		{"one usable entry", voucherBody("1", "2024-04-01", cash, cash, 1, 0), http.StatusUnprocessableEntity, "too_few_entries", "entries"},
		{"amount above limit", voucherBody("1", "2024-04-01", cash, capital, "6000000000000000000", "6000000000000000000"), http.StatusUnprocessableEntity, "limit_exceeded", "amount"},
		{"amount too precise", voucherBody("1", "2024-04-01", cash, capital, "0.00001", "0.00001"), http.StatusUnprocessableEntity, "validation_error", "amount"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := c.do(http.MethodPost, "/vouchers", tc.body)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d %s", tc.status, rr.Code, rr.Body.String())
			}
			var er errResp
			c.decode(rr, &er)
			if er.Code != tc.code || er.Field != tc.field {
				t.Fatalf("unexpected error: %+v", er)
			}
		})
	}

	var list listResponse[voucherResponse]
	c.decode(c.do(http.MethodGet, "/vouchers", nil), &list)
	if len(list.Items) != 0 {
		t.Fatalf("rejected vouchers must not be stored, got %d", len(list.Items))
	}
}

func TestRequestShapeErrors(t *testing.T) {
	c := newClient(t, Options{})

	req := httptest.NewRequest(http.MethodPost, "/v1/companies/"+c.company.String()+"/ledgers", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	c.h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rr.Code)
	}

	if rr := c.do(http.MethodGet, "/v1/companies/not-a-uuid/groups", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad company, got %d", rr.Code)
	}
	if rr := c.do(http.MethodPost, "/groups", map[string]any{"groupName": "X", "category": "Asset", "bogus": 1}); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rr.Code)
	}
	if rr := c.do(http.MethodGet, "/reports/ledgers/"+uuid.NewString()+"/statement", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown ledger, got %d", rr.Code)
	}
	if rr := c.do(http.MethodGet, "/vouchers/"+uuid.NewString(), nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown voucher, got %d", rr.Code)
	}
}

func TestDeleteGuards(t *testing.T) {
	c := newClient(t, Options{})
	cash := c.ledger("Cash", "Cash-in-hand", 0, "Dr")
	capital := c.ledger("Capital", "Capital Account", 0, "Cr")
	rr := c.do(http.MethodPost, "/vouchers", voucherBody("1", "2024-04-01", cash, capital, 10, 10))
	var v idResp
	c.decode(rr, &v)

	var er errResp
	rr = c.do(http.MethodDelete, "/ledgers/"+cash, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for referenced ledger, got %d", rr.Code)
	}
	c.decode(rr, &er)
	if er.Code != "referenced" {
		t.Fatalf("unexpected error: %+v", er)
	}

	if rr := c.do(http.MethodDelete, "/groups/"+c.groups["Cash-in-hand"], nil); rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for predefined group, got %d", rr.Code)
	}

	rr = c.do(http.MethodPost, "/groups", map[string]any{"groupName": "Petty Cash", "category": "Asset"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create group: %d %s", rr.Code, rr.Body.String())
	}
	var g idResp
	c.decode(rr, &g)
	if rr := c.do(http.MethodPost, "/groups", map[string]any{"groupName": "Petty Cash", "category": "Asset"}); rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 duplicate group, got %d", rr.Code)
	}
	if rr := c.do(http.MethodPatch, "/groups/"+g.ID, map[string]any{"groupName": "Float"}); rr.Code != http.StatusOK {
		t.Fatalf("rename group: %d %s", rr.Code, rr.Body.String())
	}
	if rr := c.do(http.MethodDelete, "/groups/"+g.ID, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("delete group: %d %s", rr.Code, rr.Body.String())
	}

	if rr := c.do(http.MethodDelete, "/vouchers/"+v.ID, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("delete voucher: %d", rr.Code)
	}
	if rr := c.do(http.MethodDelete, "/vouchers/"+v.ID, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rr.Code)
	}
	if rr := c.do(http.MethodDelete, "/ledgers/"+cash, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("delete unreferenced ledger: %d %s", rr.Code, rr.Body.String())
	}
}

func TestLedgerCRUD(t *testing.T) {
	c := newClient(t, Options{})
	id := c.ledger("Acme Traders", "Sundry Debtors", "250.50", "Dr")

	if rr := c.do(http.MethodPatch, "/ledgers/"+id, map[string]any{"city": "Pune", "creditDays": "30"}); rr.Code != http.StatusOK {
		t.Fatalf("patch ledger: %d %s", rr.Code, rr.Body.String())
	}
	var got ledgerResponse
	c.decode(c.do(http.MethodGet, "/ledgers/"+id, nil), &got)
	if got.City != "Pune" || got.CreditDays != 30 || got.GroupName != "Sundry Debtors" || got.Category != "Asset" {
		t.Fatalf("unexpected ledger: %+v", got)
	}
	sameDecimal(t, got.OpeningBalance.Value, "250.50")

	rr := c.do(http.MethodPost, "/ledgers", map[string]any{
		"ledgerName":         "Acme Traders",
		"groupId":            c.groups["Sundry Debtors"],
		"openingBalanceType": "Dr",
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected duplicate ledger 409, got %d", rr.Code)
	}

	rr = c.do(http.MethodPost, "/ledgers", map[string]any{
		"ledgerName":         "Other",
		"groupId":            uuid.NewString(),
		"openingBalanceType": "Dr",
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for foreign group, got %d", rr.Code)
	}
	var er errResp
	c.decode(rr, &er)
	if er.Field != "groupId" {
		t.Fatalf("unexpected error: %+v", er)
	}

	var list listResponse[ledgerResponse]
	c.decode(c.do(http.MethodGet, "/ledgers", nil), &list)
	if len(list.Items) != 1 {
		t.Fatalf("expected one ledger, got %d", len(list.Items))
	}
}

func TestReports_CachedBodiesMatchUncached(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	store := memory.New()
	cached := New(store, Options{Cache: cache.New(rc, time.Minute)}, testLogger()).Handler()
	plain := New(store, Options{}, testLogger()).Handler()
	c := &client{t: t, h: cached, company: uuid.New(), groups: map[string]string{}}
	newSeed := c.do(http.MethodPost, "/seed", nil)
	var seeded listResponse[groupResponse]
	c.decode(newSeed, &seeded)
	for _, g := range seeded.Items {
		c.groups[g.Name] = g.ID.String()
	}
	cash := c.ledger("Cash", "Cash-in-hand", 100, "Dr")
	capital := c.ledger("Capital", "Capital Account", 100, "Cr")

	get := func(h http.Handler, path string) string {
		req := httptest.NewRequest(http.MethodGet, "/v1/companies/"+c.company.String()+path, nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %s: %d %s", path, rr.Code, rr.Body.String())
		}
		return rr.Body.String()
	}

	first := get(cached, "/reports/balance-sheet")
	if len(mr.Keys()) != 1 {
		t.Fatalf("expected one cached key, got %v", mr.Keys())
	}
	if again := get(cached, "/reports/balance-sheet"); again != first {
		t.Fatalf("cached body differs:\n%s\n%s", first, again)
	}
	if direct := get(plain, "/reports/balance-sheet"); direct != first {
		t.Fatalf("uncached body differs:\n%s\n%s", first, direct)
	}

	if rr := c.do(http.MethodPost, "/vouchers", voucherBody("1", "2024-04-01", cash, capital, 40, 40)); rr.Code != http.StatusCreated {
		t.Fatalf("voucher: %d %s", rr.Code, rr.Body.String())
	}
	after := get(cached, "/reports/balance-sheet")
	if after != get(plain, "/reports/balance-sheet") {
		t.Fatal("cached report is stale after a write")
	}
	if after == first {
		t.Fatal("expected the report to change after a write")
	}
}

func TestDictionaryAndHealth(t *testing.T) {
	c := newClient(t, Options{})
	var out struct {
		Items []struct {
			Category string `json:"category"`
			Groups   []struct {
				Name string `json:"name"`
			} `json:"groups"`
		} `json:"items"`
	}
	c.decode(c.do(http.MethodGet, "/v1/dictionary/groups?category=Liability", nil), &out)
	if len(out.Items) != 1 || out.Items[0].Category != "Liability" || len(out.Items[0].Groups) == 0 {
		t.Fatalf("unexpected dictionary: %+v", out)
	}
	if rr := c.do(http.MethodGet, "/v1/dictionary/groups?category=Equity", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad category, got %d", rr.Code)
	}
	if rr := c.do(http.MethodGet, "/healthz", nil); rr.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rr.Code)
	}
	if rr := c.do(http.MethodGet, "/readyz", nil); rr.Code != http.StatusOK {
		t.Fatalf("readyz: %d", rr.Code)
	}
	rr := c.do(http.MethodGet, "/healthz", nil)
	if rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("expected secure headers, got %v", rr.Header())
	}
}

type failingReady struct{}

func (failingReady) Ready(context.Context) error { return errors.New("down") }

func TestReadyz_FailingDependency(t *testing.T) {
	h := New(memory.New(), Options{Ready: []ReadyChecker{failingReady{}}}, testLogger()).Handler()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestRateLimit(t *testing.T) {
	h := New(memory.New(), Options{RateLimitPerMinute: 2}, testLogger()).Handler()
	var last int
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on third request, got %d", last)
	}
}
