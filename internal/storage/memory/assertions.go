package memory

import (
	"github.com/tinoosan/bookkeeping/internal/service/chart"
	"github.com/tinoosan/bookkeeping/internal/service/journal"
	"github.com/tinoosan/bookkeeping/internal/service/registry"
	"github.com/tinoosan/bookkeeping/internal/service/report"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	// Service layer repos and writers
	_ chart.Repo      = (*Store)(nil)
	_ chart.Writer    = (*Store)(nil)
	_ registry.Repo   = (*Store)(nil)
	_ registry.Writer = (*Store)(nil)
	_ journal.Repo    = (*Store)(nil)
	_ journal.Writer  = (*Store)(nil)
	_ report.Repo     = (*Store)(nil)
)
