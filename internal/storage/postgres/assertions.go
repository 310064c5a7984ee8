package postgres

import (
	"github.com/tinoosan/bookkeeping/internal/service/chart"
	"github.com/tinoosan/bookkeeping/internal/service/journal"
	"github.com/tinoosan/bookkeeping/internal/service/registry"
	"github.com/tinoosan/bookkeeping/internal/service/report"
)

var (
	_ chart.Repo      = (*Store)(nil)
	_ chart.Writer    = (*Store)(nil)
	_ registry.Repo   = (*Store)(nil)
	_ registry.Writer = (*Store)(nil)
	_ journal.Repo    = (*Store)(nil)
	_ journal.Writer  = (*Store)(nil)
	_ report.Repo     = (*Store)(nil)
)
