package dictionary

import (
	"testing"

	"github.com/tinoosan/bookkeeping/internal/ledger"
)

func TestPredefinedGroups(t *testing.T) {
	all := GroupsFor(nil)
	if len(all) != 14 {
		t.Fatalf("expected 14 predefined groups, got %d", len(all))
	}
	for _, name := range []string{"Capital Account", "Cash-in-hand", "Indirect Expenses", "Sundry Debtors"} {
		if !IsPredefined(name) {
			t.Fatalf("%s should be predefined", name)
		}
	}
	if IsPredefined("Rent") {
		t.Fatalf("Rent is not a predefined group")
	}
}

func TestGroupsForCategory(t *testing.T) {
	c := ledger.CategoryIncome
	got := GroupsFor(&c)
	want := []string{"Direct Income", "Indirect Income", "Sales Accounts"}
	if len(got) != len(want) {
		t.Fatalf("got %d income groups, want %d", len(got), len(want))
	}
	for i, g := range got {
		if g.Name != want[i] || g.Category != ledger.CategoryIncome {
			t.Fatalf("item %d: got %+v", i, g)
		}
	}
}

func TestParseRejectsBadDefinitions(t *testing.T) {
	if _, err := parse([]byte("groups:\n  - name: X\n    category: Equity\n")); err == nil {
		t.Fatalf("expected error for unknown category")
	}
	if _, err := parse([]byte("groups:\n  - name: X\n    category: Asset\n  - name: X\n    category: Asset\n")); err == nil {
		t.Fatalf("expected error for duplicate name")
	}
}
