// Package metrics exports the transmitter's observability counters
// (§4.3, §7) as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransfersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cyphalcan_transfers_total",
		Help: "Total transfers successfully segmented and pushed onto the frame queue.",
	})
	TransferErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cyphalcan_transfer_errors_total",
		Help: "Total pushes rejected with out-of-memory because the frame queue had no room.",
	})
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cyphalcan_queue_depth",
		Help: "Frames currently buffered in the transmit queue.",
	})
)

// Counts is a plain snapshot of what a Transmitter tracks. It exists so
// this package doesn't need to import the generic Transmitter type just
// to read two counters and a queue length.
type Counts struct {
	Transfers uint64
	Errors    uint64
	QueueLen  int
}

// last mirrors the previous sample so Sample can report a delta: the
// Transmitter's counters are plain running totals, but Prometheus counters
// must only ever move forward.
var last Counts

// Sample folds one observation of a Transmitter's counters into the
// package's Prometheus metrics. Intended to be called periodically (e.g.
// once per event loop iteration) by whatever owns the Transmitter.
func Sample(c Counts) {
	if c.Transfers >= last.Transfers {
		TransfersTotal.Add(float64(c.Transfers - last.Transfers))
	}
	if c.Errors >= last.Errors {
		TransferErrorsTotal.Add(float64(c.Errors - last.Errors))
	}
	QueueDepth.Set(float64(c.QueueLen))
	last = c
}
