package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTuning(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoad_RepoFile(t *testing.T) {
	tu, err := Load(filepath.Join("..", "..", "..", "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.InteractionRateMs != 10 || tu.Sort.Primary != "creative" || !tu.Sort.ServerAccelerated {
		t.Fatalf("unexpected tuning: %#v", tu)
	}
	if !tu.Sort.OptimizeCreative() {
		t.Fatalf("expected optimize_creative_search")
	}
}

func TestLoad_LegacyRawIDMigrated(t *testing.T) {
	p := writeTuning(t, "sort:\n  primary: RAW_ID\n  shift: raw_id\n  control: alphabet\n")
	tu, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.Sort.Primary != "creative" || tu.Sort.Shift != "creative" || tu.Sort.Control != "alphabet" {
		t.Fatalf("legacy modes not migrated: %#v", tu.Sort)
	}
}

func TestLoad_RawIDKeptWhenOptimizeSet(t *testing.T) {
	p := writeTuning(t, "sort:\n  primary: raw_id\n  optimize_creative_search: false\n")
	tu, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.Sort.Primary != "raw_id" || tu.Sort.OptimizeCreative() {
		t.Fatalf("unexpected: %#v", tu.Sort)
	}
}

func TestLoad_UnknownMode(t *testing.T) {
	p := writeTuning(t, "sort:\n  primary: by_color\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unknown mode error")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SLOTSORT_INTERACTION_RATE_MS", "50")
	t.Setenv("SLOTSORT_SORT_PRIMARY", "quantity")
	p := writeTuning(t, "interaction_rate_ms: 10\nsort:\n  primary: creative\n")
	tu, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.InteractionRateMs != 50 || tu.Sort.Primary != "quantity" {
		t.Fatalf("env not applied: %#v", tu)
	}
}

func TestLoad_ZeroValuesDefaulted(t *testing.T) {
	p := writeTuning(t, "server:\n  tick_rate_hz: 0\n")
	tu, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.Server.TickRateHz != 20 || tu.Server.ContainerSlots != 27 || tu.IntegratedInteractionRateMs != 1 {
		t.Fatalf("defaults not applied: %#v", tu)
	}
}

func TestLoad_StarterKit(t *testing.T) {
	tu, err := Load(filepath.Join("..", "..", "..", "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tu.Server.StarterKit) == 0 || tu.Server.StarterKit[0].Item != "DIRT" {
		t.Fatalf("starter kit: %#v", tu.Server.StarterKit)
	}

	p := writeTuning(t, "server:\n  starter_kit:\n    - {item: STONE, count: 0}\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected error for zero count")
	}
}

func TestSort_ModeFor(t *testing.T) {
	s := Defaults().Sort
	cases := []struct{ mod, want string }{
		{"", s.Primary},
		{"shift", "quantity"},
		{"Control", "alphabet"},
		{"ctrl", "alphabet"},
	}
	for _, tc := range cases {
		got, err := s.ModeFor(tc.mod)
		if err != nil || got != tc.want {
			t.Fatalf("ModeFor(%q)=%q err=%v want %q", tc.mod, got, err, tc.want)
		}
	}
	if _, err := s.ModeFor("alt"); err == nil {
		t.Fatalf("expected error for unknown modifier")
	}
}
