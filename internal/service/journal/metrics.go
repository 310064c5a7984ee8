package journal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	vouchersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookkeeping",
			Name:      "vouchers_created_total",
			Help:      "Vouchers accepted into the journal",
		},
		[]string{"type"},
	)
	vouchersRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookkeeping",
			Name:      "vouchers_rejected_total",
			Help:      "Voucher submissions rejected, by reason",
		},
		[]string{"reason"},
	)
	voucherDeletes = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookkeeping",
			Name:      "voucher_deletes_total",
			Help:      "Vouchers hard-deleted from the journal",
		},
	)
)
