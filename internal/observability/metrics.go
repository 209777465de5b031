// Package observability owns the daemon's Prometheus registry and the
// instruments recorded around lsblk scans.
package observability

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry      *prom.Registry
	scansTotal    *prom.CounterVec
	scanDuration  prom.Histogram
	devices       prom.Gauge
	systemDevices prom.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prom.NewRegistry(),
		scansTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "blkd_scans_total",
			Help: "lsblk scans by outcome (ok, acquisition, upstream, parse).",
		}, []string{"outcome"}),
		scanDuration: prom.NewHistogram(prom.HistogramOpts{
			Name:    "blkd_scan_duration_seconds",
			Help:    "Wall time of one lsblk scan including parsing.",
			Buckets: prom.DefBuckets,
		}),
		devices: prom.NewGauge(prom.GaugeOpts{
			Name: "blkd_devices",
			Help: "Top-level devices seen by the most recent successful scan.",
		}),
		systemDevices: prom.NewGauge(prom.GaugeOpts{
			Name: "blkd_system_devices",
			Help: "Top-level devices whose subtree mounts / in the most recent successful scan.",
		}),
	}
	m.registry.MustRegister(m.scansTotal, m.scanDuration, m.devices, m.systemDevices)
	return m
}

func (m *Metrics) ObserveScan(outcome string, d time.Duration) {
	m.scansTotal.WithLabelValues(outcome).Inc()
	m.scanDuration.Observe(d.Seconds())
}

func (m *Metrics) SetDeviceCounts(total, system int) {
	m.devices.Set(float64(total))
	m.systemDevices.Set(float64(system))
}

// Handler serves the text exposition for this registry only; the default
// global registry is not used anywhere in the daemon.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
