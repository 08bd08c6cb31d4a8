package presets

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"terrainforge.ai/internal/terrain/tuning"
)

func TestBuiltinsResolve(t *testing.T) {
	c := Builtin()
	for _, name := range c.Names() {
		if _, err := c.Resolve(name, nil, nil); err != nil {
			t.Fatalf("preset %s: %v", name, err)
		}
	}
	want := []string{"archipelago-core", "default", "highlands", "large-island", "lowlands", "mainland", "small-island"}
	if got := c.Names(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("names: got %v want %v", got, want)
	}
	if !sort.StringsAreSorted(c.Names()) {
		t.Fatalf("names not sorted")
	}
}

func TestResolvePrecedence(t *testing.T) {
	c := Builtin()
	caller := &tuning.Overrides{
		Seed:      tuning.Ptr[int64](77),
		MaxHeight: tuning.Ptr(90.0),
	}
	cfg, err := c.Resolve("highlands", caller, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Seed != 77 {
		t.Fatalf("seed: got %d want 77", cfg.Seed)
	}
	if cfg.MaxHeight != 90 {
		t.Fatalf("caller should win over preset: max_height=%v", cfg.MaxHeight)
	}
	if cfg.WaterThreshold != 6 {
		t.Fatalf("preset should win over defaults: water_threshold=%v", cfg.WaterThreshold)
	}
	if cfg.TileSize != tuning.Defaults().TileSize {
		t.Fatalf("untouched field should keep default: tile_size=%v", cfg.TileSize)
	}
}

func TestResolveUnknownFallsBackToDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	cfg, err := Builtin().Resolve("nope", nil, logger)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := tuning.Defaults()
	want.Normalize()
	if cfg != want {
		t.Fatalf("unknown preset should resolve to defaults")
	}
	if !strings.Contains(buf.String(), `preset "nope" not found; using defaults`) {
		t.Fatalf("missing log line, got %q", buf.String())
	}
}

func TestResolveRejectsInvalidCaller(t *testing.T) {
	_, err := Builtin().Resolve(Default, &tuning.Overrides{TileResolution: tuning.Ptr(1)}, nil)
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestMainlandDisablesIsland(t *testing.T) {
	cfg, err := Builtin().Resolve("mainland", nil, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Island.Enabled {
		t.Fatalf("mainland should disable the island")
	}
}

func TestLoadShippedFile(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "..", "configs", "presets.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, name := range []string{"tiny-test", "fjords", Default} {
		if _, ok := c.Get(name); !ok {
			t.Fatalf("missing preset %s", name)
		}
		if _, err := c.Resolve(name, nil, nil); err != nil {
			t.Fatalf("resolve %s: %v", name, err)
		}
	}
	cfg, _ := c.Resolve("fjords", nil, nil)
	if cfg.Island.Mode != tuning.ModeNatural || cfg.MaxHeight != 70 {
		t.Fatalf("fjords not applied: %+v", cfg.Island)
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"unknown field": "presets:\n  x:\n    overrides:\n      max_hieght: 3\n",
		"bad mode":      "presets:\n  x:\n    overrides:\n      island:\n        mode: square\n",
		"bad name":      "presets:\n  Bad_Name:\n    description: hi\n",
		"wrong type":    "presets:\n  x:\n    overrides:\n      tile_resolution: lots\n",
		"no root":       "other: 1\n",
	}
	dir := t.TempDir()
	for name, body := range cases {
		p := filepath.Join(dir, strings.ReplaceAll(name, " ", "_")+".yaml")
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(p); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadFileOverridesBuiltin(t *testing.T) {
	p := filepath.Join(t.TempDir(), "p.yaml")
	body := "presets:\n  default:\n    description: custom\n    overrides:\n      max_height: 42\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg, err := c.Resolve("", nil, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.MaxHeight != 42 {
		t.Fatalf("file preset should replace built-in default: %v", cfg.MaxHeight)
	}
}

func TestLoadEmptyPathIsBuiltin(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Names()) != len(Builtin().Names()) {
		t.Fatalf("empty path should return built-ins only")
	}
}
