package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"slotsort.ai/internal/persistence/snapshot"
	"slotsort.ai/internal/sim/catalogs"
	"slotsort.ai/internal/sim/world"
)

func TestLatestSnapshot_PicksHighestTick(t *testing.T) {
	dir := t.TempDir()
	snaps := filepath.Join(dir, "snapshots")
	if err := os.MkdirAll(snaps, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"100.snap.zst", "2400.snap.zst", "900.snap.zst", "junk.snap.zst", "3000.txt"} {
		if err := os.WriteFile(filepath.Join(snaps, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if got := latestSnapshot(dir); filepath.Base(got) != "2400.snap.zst" {
		t.Fatalf("latest=%q", got)
	}
	if got := latestSnapshot(t.TempDir()); got != "" {
		t.Fatalf("empty dir gave %q", got)
	}
}

func TestServerEnv_AdminDefault(t *testing.T) {
	if !(serverEnv{}).adminHTTP() {
		t.Fatalf("admin should default on")
	}
	if (serverEnv{DeployEnv: "production"}).adminHTTP() {
		t.Fatalf("admin should be off in production")
	}
	if !(serverEnv{DeployEnv: "production", EnableAdminHTTP: "true"}).adminHTTP() {
		t.Fatalf("explicit switch ignored")
	}
}

func TestOpenRuntimeIndex(t *testing.T) {
	if idx, err := openRuntimeIndex(t.TempDir(), "none", false); err != nil || idx != nil {
		t.Fatalf("none backend: %v %v", idx, err)
	}
	if _, err := openRuntimeIndex(t.TempDir(), "d1", false); err == nil {
		t.Fatalf("expected unsupported backend error")
	}
	idx, err := openRuntimeIndex(t.TempDir(), "sqlite", false)
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	_ = idx.Close()
}

func TestMetricsAndSnapshotHandlers(t *testing.T) {
	cats, err := catalogs.Load(filepath.Join("..", "..", "configs"))
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	w := world.New(world.WorldConfig{ID: "test", TickRateHz: 50}, cats)
	dir := t.TempDir()
	snapCh := make(chan snapshot.SnapshotV1, 1)
	w.SetSnapshotSink(snapCh)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	go writeSnapshots(ctx, dir, snapCh, nil, log.New(io.Discard, "", 0))

	rec := httptest.NewRecorder()
	metricsHandler(w, nil)(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `slotsort_world_tick{world="test"}`) {
		t.Fatalf("metrics body:\n%s", rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/v1/snapshot", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	rec = httptest.NewRecorder()
	snapshotHandler(w)(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot status=%d body=%s", rec.Code, rec.Body.String())
	}
	deadline := time.Now().Add(3 * time.Second)
	for latestSnapshot(dir) == "" {
		if time.Now().After(deadline) {
			t.Fatalf("snapshot never written")
		}
		time.Sleep(10 * time.Millisecond)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/v1/state", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec = httptest.NewRecorder()
	stateHandler(w)(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("remote state status=%d", rec.Code)
	}
}
