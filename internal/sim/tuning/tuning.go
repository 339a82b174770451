package tuning

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	// Scheduler tick period against a remote server / an integrated one.
	InteractionRateMs           int `yaml:"interaction_rate_ms" env:"SLOTSORT_INTERACTION_RATE_MS"`
	IntegratedInteractionRateMs int `yaml:"integrated_interaction_rate_ms" env:"SLOTSORT_INTEGRATED_INTERACTION_RATE_MS"`

	Sort   Sort   `yaml:"sort"`
	Server Server `yaml:"server"`
}

type Sort struct {
	Primary           string `yaml:"primary" env:"SLOTSORT_SORT_PRIMARY"`
	Shift             string `yaml:"shift" env:"SLOTSORT_SORT_SHIFT"`
	Control           string `yaml:"control" env:"SLOTSORT_SORT_CONTROL"`
	ServerAccelerated bool   `yaml:"server_accelerated" env:"SLOTSORT_SORT_SERVER_ACCELERATED"`
	// Pointer so legacy files without the key can be told apart.
	OptimizeCreativeSearch *bool `yaml:"optimize_creative_search"`
}

type Server struct {
	TickRateHz         int `yaml:"tick_rate_hz" env:"SLOTSORT_SERVER_TICK_RATE_HZ"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks" env:"SLOTSORT_SERVER_SNAPSHOT_EVERY_TICKS"`
	ContainerSlots     int `yaml:"container_slots" env:"SLOTSORT_SERVER_CONTAINER_SLOTS"`

	// StarterKit fills the main inventory of players joining for the first time.
	StarterKit []KitEntry `yaml:"starter_kit"`
}

type KitEntry struct {
	Item  string `yaml:"item"`
	Count int    `yaml:"count"`
}

var knownModes = map[string]struct{}{
	"none":     {},
	"alphabet": {},
	"creative": {},
	"quantity": {},
	"raw_id":   {},
}

func Defaults() Tuning {
	optimize := true
	return Tuning{
		ProtocolVersion:             "1.0",
		InteractionRateMs:           10,
		IntegratedInteractionRateMs: 1,
		Sort: Sort{
			Primary:                "creative",
			Shift:                  "quantity",
			Control:                "alphabet",
			ServerAccelerated:      true,
			OptimizeCreativeSearch: &optimize,
		},
		Server: Server{
			TickRateHz:         20,
			SnapshotEveryTicks: 6000,
			ContainerSlots:     27,
		},
	}
}

// Load reads a tuning file over Defaults and then applies SLOTSORT_* environment overrides.
func Load(path string) (Tuning, error) {
	t := Defaults()
	t.Sort.OptimizeCreativeSearch = nil
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := env.Parse(&t); err != nil {
		return t, fmt.Errorf("tuning env: %w", err)
	}
	if err := t.normalize(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// normalize fills zero values and rejects unknown sort modes.
func (t *Tuning) normalize() error {
	if t.Sort.OptimizeCreativeSearch == nil {
		// Files written before the optimized creative search existed used raw_id as
		// a stand-in for creative order.
		optimize := true
		t.Sort.OptimizeCreativeSearch = &optimize
		for _, m := range []*string{&t.Sort.Primary, &t.Sort.Shift, &t.Sort.Control} {
			if strings.EqualFold(*m, "raw_id") {
				*m = "creative"
			}
		}
	}
	d := Defaults()
	if t.InteractionRateMs <= 0 {
		t.InteractionRateMs = d.InteractionRateMs
	}
	if t.IntegratedInteractionRateMs <= 0 {
		t.IntegratedInteractionRateMs = d.IntegratedInteractionRateMs
	}
	if t.Server.TickRateHz <= 0 {
		t.Server.TickRateHz = d.Server.TickRateHz
	}
	if t.Server.ContainerSlots <= 0 {
		t.Server.ContainerSlots = d.Server.ContainerSlots
	}
	for i, k := range t.Server.StarterKit {
		if strings.TrimSpace(k.Item) == "" || k.Count <= 0 {
			return fmt.Errorf("server.starter_kit[%d]: item and positive count required", i)
		}
	}
	for name, m := range map[string]*string{"primary": &t.Sort.Primary, "shift": &t.Sort.Shift, "control": &t.Sort.Control} {
		*m = strings.ToLower(strings.TrimSpace(*m))
		if *m == "" {
			*m = "none"
		}
		if _, ok := knownModes[*m]; !ok {
			return fmt.Errorf("sort.%s: unknown mode %q", name, *m)
		}
	}
	return nil
}

func (s Sort) OptimizeCreative() bool {
	return s.OptimizeCreativeSearch == nil || *s.OptimizeCreativeSearch
}

// ModeFor returns the sort mode bound to a held modifier key: "" for none,
// "shift" or "control".
func (s Sort) ModeFor(modifier string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(modifier)) {
	case "":
		return s.Primary, nil
	case "shift":
		return s.Shift, nil
	case "control", "ctrl":
		return s.Control, nil
	}
	return "", fmt.Errorf("unknown modifier %q (shift|control)", modifier)
}
