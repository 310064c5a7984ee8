package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tinoosan/bookkeeping/internal/service/report"
)

var reportKinds = []string{"trial-balance", "profit-loss", "balance-sheet", "statement", "stats"}

func newReportCommand(envFile *string) *cobra.Command {
	var (
		company string
		ledger  string
		format  string
	)

	cmd := &cobra.Command{
		Use:       "report <trial-balance|profit-loss|balance-sheet|statement|stats>",
		Short:     "Compute a report from the configured store and print it",
		Args:      cobra.ExactArgs(1),
		ValidArgs: reportKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			companyID, err := uuid.Parse(company)
			if err != nil {
				return fmt.Errorf("invalid --company: %w", err)
			}
			var ledgerID uuid.UUID
			if args[0] == "statement" {
				if ledgerID, err = uuid.Parse(ledger); err != nil {
					return fmt.Errorf("statement needs a valid --ledger: %w", err)
				}
			}
			cfg, logger, err := loadConfig(*envFile, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			store, err := openBackend(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()
			return runReport(cmd.Context(), cmd.OutOrStdout(), report.New(store), args[0], companyID, ledgerID, format)
		},
	}
	cmd.Flags().StringVar(&company, "company", "", "company id (required)")
	_ = cmd.MarkFlagRequired("company")
	cmd.Flags().StringVar(&ledger, "ledger", "", "ledger id, for statement")
	cmd.Flags().StringVarP(&format, "output", "o", "json", "output format: json or yaml")
	return cmd
}

func runReport(ctx context.Context, w io.Writer, svc report.Service, kind string, companyID, ledgerID uuid.UUID, format string) error {
	var (
		out any
		err error
	)
	switch kind {
	case "trial-balance":
		out, err = svc.TrialBalance(ctx, companyID)
	case "profit-loss":
		out, err = svc.ProfitAndLoss(ctx, companyID)
	case "balance-sheet":
		out, err = svc.BalanceSheet(ctx, companyID)
	case "statement":
		out, err = svc.LedgerStatement(ctx, companyID, ledgerID)
	case "stats":
		out, err = svc.Stats(ctx, companyID)
	default:
		return fmt.Errorf("unknown report %q (want one of %v)", kind, reportKinds)
	}
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	switch format {
	case "json":
		_, err = fmt.Fprintln(w, string(raw))
		return err
	case "yaml":
		// Go through JSON so both formats share field names and amount rendering.
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
