package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shirou/gopsutil/v3/disk"

	"blkd/internal/inventory"
	"blkd/internal/observability"
	"blkd/pkg/blkdev"
	"blkd/pkg/httpx"
)

type devicesHandler struct {
	src     collector
	metrics *observability.Metrics
}

// diskUsage is swapped out in tests; gopsutil hits statfs otherwise.
var diskUsage = disk.Usage

// scan runs one collection and writes the error response itself on
// failure. Every error class maps to a stable code for API consumers.
func (h *devicesHandler) scan(w http.ResponseWriter, r *http.Request) *blkdev.Collection {
	start := time.Now()
	col, err := h.src.Collect(r.Context())
	outcome := inventory.Outcome(err)
	h.metrics.ObserveScan(outcome, time.Since(start))
	if err != nil {
		switch outcome {
		case "upstream":
			httpx.WriteTypedError(w, http.StatusBadGateway, "upstream_failed", err.Error())
		case "parse":
			httpx.WriteTypedError(w, http.StatusBadGateway, "parse_failed", err.Error())
		default:
			httpx.WriteTypedError(w, http.StatusServiceUnavailable, "lsblk_unavailable", err.Error())
		}
		return nil
	}
	h.metrics.SetDeviceCounts(col.Len(), len(col.System()))
	return col
}

func (h *devicesHandler) list(w http.ResponseWriter, r *http.Request) {
	col := h.scan(w, r)
	if col == nil {
		return
	}
	writeJSON(w, col)
}

func (h *devicesHandler) system(w http.ResponseWriter, r *http.Request) {
	col := h.scan(w, r)
	if col == nil {
		return
	}
	writeJSON(w, map[string]any{"devices": col.System()})
}

func (h *devicesHandler) nonSystem(w http.ResponseWriter, r *http.Request) {
	col := h.scan(w, r)
	if col == nil {
		return
	}
	writeJSON(w, map[string]any{"devices": col.NonSystem()})
}

func (h *devicesHandler) get(w http.ResponseWriter, r *http.Request) {
	col := h.scan(w, r)
	if col == nil {
		return
	}
	d := col.FindByName(chi.URLParam(r, "name"))
	if d == nil {
		httpx.WriteTypedError(w, http.StatusNotFound, "not_found", "no such top-level device")
		return
	}
	writeJSON(w, d)
}

type mountUsage struct {
	Mountpoint  string  `json:"mountpoint"`
	TotalBytes  uint64  `json:"totalBytes"`
	UsedBytes   uint64  `json:"usedBytes"`
	FreeBytes   uint64  `json:"freeBytes"`
	UsedPercent float64 `json:"usedPercent"`
}

// usage reports filesystem usage for each active mountpoint of one
// top-level device. Mounts that statfs refuses are skipped, not fatal.
func (h *devicesHandler) usage(w http.ResponseWriter, r *http.Request) {
	col := h.scan(w, r)
	if col == nil {
		return
	}
	d := col.FindByName(chi.URLParam(r, "name"))
	if d == nil {
		httpx.WriteTypedError(w, http.StatusNotFound, "not_found", "no such top-level device")
		return
	}
	usage := []mountUsage{}
	for _, mp := range d.ActiveMountpoints() {
		u, err := diskUsage(mp)
		if err != nil {
			continue
		}
		usage = append(usage, mountUsage{
			Mountpoint:  mp,
			TotalBytes:  u.Total,
			UsedBytes:   u.Used,
			FreeBytes:   u.Free,
			UsedPercent: u.UsedPercent,
		})
	}
	writeJSON(w, map[string]any{"name": d.Name, "usage": usage})
}
