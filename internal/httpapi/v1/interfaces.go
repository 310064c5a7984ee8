package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/tinoosan/bookkeeping/internal/service/chart"
	"github.com/tinoosan/bookkeeping/internal/service/journal"
	"github.com/tinoosan/bookkeeping/internal/service/registry"
	"github.com/tinoosan/bookkeeping/internal/service/report"
)

// ReadyChecker is implemented by stores and caches to indicate readiness.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// VersionSource reports a company's journal version, which every write bumps.
type VersionSource interface {
	JournalVersion(ctx context.Context, companyID uuid.UUID) (int64, error)
}

// Store composes the read and write operations used by the API.
// It is a convenience union satisfied by the memory and postgres stores.
type Store interface {
	chart.Repo
	chart.Writer
	registry.Repo
	registry.Writer
	journal.Repo
	journal.Writer
	report.Repo
	VersionSource
	ReadyChecker
}
