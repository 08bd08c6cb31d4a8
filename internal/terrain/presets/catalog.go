// Package presets holds named tuning overrides and resolves them into a
// validated generator configuration.
package presets

import (
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"terrainforge.ai/internal/terrain/tuning"
)

const Default = "default"

type Preset struct {
	Name        string           `yaml:"-" json:"name"`
	Description string           `yaml:"description" json:"description"`
	Overrides   tuning.Overrides `yaml:"overrides" json:"overrides"`
}

// Catalog is a set of presets keyed by name. It is not modified after
// Builtin or Load returns.
type Catalog struct {
	presets map[string]Preset
}

func Builtin() *Catalog {
	c := &Catalog{presets: map[string]Preset{}}
	for _, p := range builtins() {
		c.presets[p.Name] = p
	}
	return c
}

func builtins() []Preset {
	p := tuning.Ptr[float64]
	i := tuning.Ptr[int]
	return []Preset{
		{
			Name:        Default,
			Description: "100x100 tile island with a radial coastline",
		},
		{
			Name:        "small-island",
			Description: "40x40 tile island, narrow coast band",
			Overrides: tuning.Overrides{
				WorldSizeTiles: i(40),
				Biome:          &tuning.BiomeOverrides{GridSize: i(4)},
				Island: &tuning.IslandOverrides{
					MaxWorldSizeTiles: i(40),
					FalloffTiles:      p(6),
					Pond:              &tuning.PondOverrides{CenterX: p(250), CenterZ: p(-180), Radius: p(40)},
				},
			},
		},
		{
			Name:        "large-island",
			Description: "200x200 tile island with a wide coast band",
			Overrides: tuning.Overrides{
				WorldSizeTiles: i(200),
				Biome:          &tuning.BiomeOverrides{GridSize: i(12)},
				Island: &tuning.IslandOverrides{
					MaxWorldSizeTiles: i(200),
					FalloffTiles:      p(18),
					EdgeNoiseScale:    p(0.0008),
				},
			},
		},
		{
			Name:        "archipelago-core",
			Description: "ragged natural coastline with strong angular variation",
			Overrides: tuning.Overrides{
				Island: &tuning.IslandOverrides{
					Mode:               tuning.Ptr(tuning.ModeNatural),
					CoastlineVariation: p(0.45),
					FalloffTiles:       p(8),
					BaseElevation:      p(0.1),
				},
				Shoreline: &tuning.ShorelineOverrides{LandBand: p(0.08), UnderwaterBand: p(0.07)},
			},
		},
		{
			Name:        "highlands",
			Description: "tall ridged terrain with boosted mountains",
			Overrides: tuning.Overrides{
				MaxHeight:      p(80),
				WaterThreshold: p(6),
				Noise: &tuning.NoiseOverrides{
					Ridge: &tuning.NoiseLayerOverrides{Weight: p(0.25), Octaves: i(3)},
					Hill:  &tuning.NoiseLayerOverrides{Weight: p(0.16)},
				},
				Biome: &tuning.BiomeOverrides{
					MountainWeightBoost: p(3),
					MountainHeightBoost: p(0.8),
				},
			},
		},
		{
			Name:        "lowlands",
			Description: "flat plains and valleys close to the water line",
			Overrides: tuning.Overrides{
				MaxHeight:      p(30),
				WaterThreshold: p(4),
				Noise: &tuning.NoiseOverrides{
					Continent: &tuning.NoiseLayerOverrides{Octaves: i(4)},
					Ridge:     &tuning.NoiseLayerOverrides{Weight: p(0.02)},
					Hill:      &tuning.NoiseLayerOverrides{Weight: p(0.06)},
				},
				Biome: &tuning.BiomeOverrides{
					ValleyWeightBoost:   p(2.5),
					MountainHeightBoost: p(0.2),
				},
			},
		},
		{
			Name:        "mainland",
			Description: "endless terrain without island shaping",
			Overrides: tuning.Overrides{
				Island: &tuning.IslandOverrides{Enabled: tuning.Ptr(false)},
			},
		},
	}
}

func (c *Catalog) Get(name string) (Preset, bool) {
	p, ok := c.presets[name]
	return p, ok
}

// Names returns the preset names in sorted order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.presets))
	for name := range c.presets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolve layers defaults, the named preset and caller overrides, then
// normalizes and validates the result. An unknown name is logged and
// resolves as if no preset was given.
func (c *Catalog) Resolve(name string, caller *tuning.Overrides, logger *log.Logger) (tuning.Config, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = Default
	}

	cfg := tuning.Defaults()
	if p, ok := c.presets[name]; ok {
		p.Overrides.Apply(&cfg)
	} else {
		logger.Printf("preset %q not found; using defaults", name)
	}
	caller.Apply(&cfg)
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("preset %s: %w", name, err)
	}
	return cfg, nil
}
