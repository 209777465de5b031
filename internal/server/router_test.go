package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/shirou/gopsutil/v3/disk"

	"blkd/internal/config"
	"blkd/internal/inventory"
	"blkd/pkg/blkdev"
)

type fakeCollector struct {
	col *blkdev.Collection
	err error
}

func (f *fakeCollector) Collect(ctx context.Context) (*blkdev.Collection, error) {
	return f.col, f.err
}

func fixtureCollector(t *testing.T) *fakeCollector {
	t.Helper()
	b, err := os.ReadFile("testdata/lsblk.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	col, err := blkdev.Parse(b)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return &fakeCollector{col: col}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func TestHealth(t *testing.T) {
	r := newRouter(config.Load(""), fixtureCollector(t))
	res := get(t, r, "/api/health")
	if res.Code != 200 {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["ok"] != true || body["version"] == "" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestListDevices(t *testing.T) {
	r := newRouter(config.Load(""), fixtureCollector(t))
	res := get(t, r, "/api/v1/devices")
	if res.Code != 200 {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var body struct {
		Blockdevices []json.RawMessage `json:"blockdevices"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(body.Blockdevices) != 6 {
		t.Fatalf("expected 6 devices, got %d", len(body.Blockdevices))
	}
}

func TestPartitionEndpoints(t *testing.T) {
	r := newRouter(config.Load(""), fixtureCollector(t))

	var body struct {
		Devices []struct {
			Name string `json:"name"`
		} `json:"devices"`
	}
	res := get(t, r, "/api/v1/devices/system")
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Devices) != 1 || body.Devices[0].Name != "nvme3n1" {
		t.Fatalf("system: %v", body.Devices)
	}

	res = get(t, r, "/api/v1/devices/non-system")
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Devices) != 5 {
		t.Fatalf("non-system: %v", body.Devices)
	}
}

func TestGetDevice(t *testing.T) {
	r := newRouter(config.Load(""), fixtureCollector(t))

	res := get(t, r, "/api/v1/devices/nvme3n1")
	if res.Code != 200 {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var dev struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &dev); err != nil {
		t.Fatal(err)
	}
	if dev.Name != "nvme3n1" || dev.Type != "disk" {
		t.Fatalf("unexpected device: %+v", dev)
	}

	res = get(t, r, "/api/v1/devices/nope")
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestUsage(t *testing.T) {
	orig := diskUsage
	diskUsage = func(path string) (*disk.UsageStat, error) {
		return &disk.UsageStat{Path: path, Total: 1000, Used: 250, Free: 750, UsedPercent: 25}, nil
	}
	defer func() { diskUsage = orig }()

	r := newRouter(config.Load(""), fixtureCollector(t))
	res := get(t, r, "/api/v1/devices/loop0/usage")
	if res.Code != 200 {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var body struct {
		Name  string `json:"name"`
		Usage []struct {
			Mountpoint string `json:"mountpoint"`
			TotalBytes uint64 `json:"totalBytes"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Usage) != 1 || body.Usage[0].Mountpoint != "/snap/core/1" || body.Usage[0].TotalBytes != 1000 {
		t.Fatalf("unexpected usage: %+v", body)
	}

	// Unmounted device reports an empty usage list, not an error.
	res = get(t, r, "/api/v1/devices/nvme1n1/usage")
	if res.Code != 200 {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Usage) != 0 {
		t.Fatalf("expected no usage entries: %+v", body)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{&inventory.UpstreamError{ExitCode: 32, Stderr: "boom"}, http.StatusBadGateway, "upstream_failed"},
		{&blkdev.StructuralError{Path: "blockdevices", Msg: "missing required field"}, http.StatusBadGateway, "parse_failed"},
		{inventory.ErrLsblkNotFound, http.StatusServiceUnavailable, "lsblk_unavailable"},
	}
	for _, c := range cases {
		r := newRouter(config.Load(""), &fakeCollector{err: c.err})
		res := get(t, r, "/api/v1/devices")
		if res.Code != c.status {
			t.Fatalf("%v: expected %d, got %d", c.err, c.status, res.Code)
		}
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body.Error.Code != c.code {
			t.Fatalf("%v: expected code %s, got %s", c.err, c.code, body.Error.Code)
		}
	}
}

func TestMetricsToggle(t *testing.T) {
	cfg := config.Load("")
	r := newRouter(cfg, fixtureCollector(t))
	if res := get(t, r, "/metrics"); res.Code != 200 {
		t.Fatalf("metrics enabled: expected 200, got %d", res.Code)
	}

	cfg.MetricsEnabled = false
	r = newRouter(cfg, fixtureCollector(t))
	if res := get(t, r, "/metrics"); res.Code != http.StatusNotFound {
		t.Fatalf("metrics disabled: expected 404, got %d", res.Code)
	}
}
