package v1

import (
	"github.com/tinoosan/bookkeeping/internal/cache"
	"github.com/tinoosan/bookkeeping/internal/storage/memory"
	"github.com/tinoosan/bookkeeping/internal/storage/postgres"
)

var (
	_ Store        = (*memory.Store)(nil)
	_ Store        = (*postgres.Store)(nil)
	_ ReadyChecker = (*cache.Reports)(nil)
)
