package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tinoosan/bookkeeping/internal/normalize"
	"github.com/tinoosan/bookkeeping/internal/service/chart"
	"github.com/tinoosan/bookkeeping/internal/service/journal"
	"github.com/tinoosan/bookkeeping/internal/service/registry"
)

func newSeedCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create a demo company on the configured store and print its ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(*envFile, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			store, err := openBackend(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()
			if !cfg.UsePostgres() {
				logger.Warn("seeding the in-memory store; the data is gone when this command exits")
			}
			seed, err := seedDemo(cmd.Context(), store, logger)
			if err != nil {
				return err
			}
			seed.log(logger)
			seed.printBanner(cmd.OutOrStdout())
			return nil
		},
	}
}

// demoSeed holds the ids created by seedDemo.
type demoSeed struct {
	CompanyID uuid.UUID
	CashID    uuid.UUID
	CapitalID uuid.UUID
	RentID    uuid.UUID
	VoucherID uuid.UUID
}

// seedDemo creates a company with the predefined groups, a Cash, Capital and
// Rent ledger, and one rent payment.
func seedDemo(ctx context.Context, store backend, logger *slog.Logger) (demoSeed, error) {
	seed := demoSeed{CompanyID: uuid.New()}
	groups, err := chart.New(store, store, logger).SeedPredefined(ctx, seed.CompanyID)
	if err != nil {
		return demoSeed{}, fmt.Errorf("seed groups: %w", err)
	}
	groupIDs := make(map[string]string, len(groups))
	for _, g := range groups {
		groupIDs[g.Name] = g.ID.String()
	}

	reg := registry.New(store, store, logger)
	for _, def := range []struct {
		dst     *uuid.UUID
		name    string
		group   string
		opening string
		side    string
	}{
		{&seed.CashID, "Cash", "Cash-in-hand", "1000", "Dr"},
		{&seed.CapitalID, "Capital", "Capital Account", "1000", "Cr"},
		{&seed.RentID, "Rent", "Indirect Expenses", "0", "Dr"},
	} {
		l, err := reg.CreateLedger(ctx, seed.CompanyID, registry.LedgerInput{
			Name:           def.name,
			GroupID:        groupIDs[def.group],
			OpeningBalance: normalize.Number(def.opening),
			OpeningSide:    def.side,
		})
		if err != nil {
			return demoSeed{}, fmt.Errorf("seed ledger %s: %w", def.name, err)
		}
		*def.dst = l.ID
	}

	cmd, err := journal.NewCommand(journal.VoucherPayload{
		VoucherType:   "Payment",
		VoucherNumber: "1",
		VoucherDate:   time.Now().UTC().Format(time.DateOnly),
		Narration:     "Office rent",
		Entries: []journal.EntryPayload{
			{LedgerID: seed.RentID.String(), Amount: "200", Type: "Dr"},
			{LedgerID: seed.CashID.String(), Amount: "200", Type: "Cr"},
		},
	})
	if err != nil {
		return demoSeed{}, err
	}
	v, err := journal.New(store, store, logger).CreateVoucher(ctx, seed.CompanyID, cmd)
	if err != nil {
		return demoSeed{}, fmt.Errorf("seed voucher: %w", err)
	}
	seed.VoucherID = v.ID
	return seed, nil
}

// log emits structured logs with useful IDs
func (s demoSeed) log(l *slog.Logger) {
	l.Info("DEV seed",
		"company_id", s.CompanyID.String(),
		"ids", map[string]string{
			"cash_ledger_id":    s.CashID.String(),
			"capital_ledger_id": s.CapitalID.String(),
			"rent_ledger_id":    s.RentID.String(),
			"voucher_id":        s.VoucherID.String(),
		},
	)
}

// printBanner prints a simple banner for easy copy/paste of IDs
func (s demoSeed) printBanner(w io.Writer) {
	fmt.Fprintln(w, "==================== DEV SEED ====================")
	fmt.Fprintf(w, "company_id: %s\n", s.CompanyID)
	fmt.Fprintf(w, "cash_ledger_id: %s\n", s.CashID)
	fmt.Fprintf(w, "capital_ledger_id: %s\n", s.CapitalID)
	fmt.Fprintf(w, "rent_ledger_id: %s\n", s.RentID)
	fmt.Fprintf(w, "voucher_id: %s\n", s.VoucherID)
	fmt.Fprintln(w, "==================================================")
}
