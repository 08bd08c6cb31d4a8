// Package gen composes noise layers, biomes and the island mask into
// terrain heights, tiles and point queries.
package gen

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"terrainforge.ai/internal/logic/mathx"
	"terrainforge.ai/internal/terrain/biome"
	"terrainforge.ai/internal/terrain/island"
	"terrainforge.ai/internal/terrain/noise"
	"terrainforge.ai/internal/terrain/tuning"
)

// per-layer offsets in noise space so layers sharing one table don't align
const (
	ridgeOffset   = 1000.5
	hillOffset    = -2000.25
	erosionOffset = 3000.75
	detailOffset  = -4000.125
)

const sandColor = 0xC2B280

// Generator is immutable after New and safe for concurrent use.
type Generator struct {
	cfg    tuning.Config
	noise  *noise.Generator
	biomes *biome.System
	island *island.Mask

	weightSum  float64
	waterLevel float64
}

type sample struct {
	height     float64 // normalized, final
	base       float64 // normalized, before biome/island shaping
	influences []biome.Influence
}

func New(cfg tuning.Config) (*Generator, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("terrain config: %w", err)
	}
	n := cfg.Noise
	g := &Generator{
		cfg:        cfg,
		noise:      noise.New(cfg.Seed),
		biomes:     biome.NewSystem(cfg.Biome, cfg.Seed, cfg.WorldSize()),
		island:     island.New(cfg.Island, cfg.Seed, cfg.TileSize),
		weightSum:  n.Continent.Weight + n.Ridge.Weight + n.Hill.Weight + n.Erosion.Weight + n.Detail.Weight,
		waterLevel: cfg.WaterLevel(),
	}
	return g, nil
}

func (g *Generator) Config() tuning.Config  { return g.cfg }
func (g *Generator) Biomes() *biome.System  { return g.biomes }
func (g *Generator) Island() *island.Mask   { return g.island }
func (g *Generator) Noise() *noise.Generator { return g.noise }

// TileAt returns the tile containing world position (x, z).
func (g *Generator) TileAt(x, z float64) (tileX, tileZ int) {
	return int(math.Floor(x / g.cfg.TileSize)), int(math.Floor(z / g.cfg.TileSize))
}

// HeightAt returns the terrain height in meters, in [0, MaxHeight].
func (g *Generator) HeightAt(x, z float64) float64 {
	return g.sample(x, z).height * g.cfg.MaxHeight
}

// IsUnderwater compares the height in meters with WaterThreshold.
func (g *Generator) IsUnderwater(x, z float64) bool {
	return g.HeightAt(x, z) < g.cfg.WaterThreshold
}

func (g *Generator) sample(x, z float64) sample {
	n0 := g.baseHeight(x, z)
	inf := g.biomes.Influences(x, z, n0)

	h := n0
	if h > g.waterLevel {
		h = mathx.Clamp01(g.waterLevel + (h-g.waterLevel)*biome.TerrainMultiplier(inf))
	}
	h = g.biomes.MountainHeightBoost(x, z, h)
	if g.island.Enabled() {
		h = g.island.ApplyShaping(x, z, h, g.cfg.Island.BaseElevation)
	}
	h = mathx.Clamp01(g.shoreline(h))
	if !mathx.Finite(h) {
		h = 0
	}
	return sample{height: h, base: n0, influences: inf}
}

// baseHeight is the weighted sum of the five noise layers mapped to [0, 1].
func (g *Generator) baseHeight(x, z float64) float64 {
	n := g.cfg.Noise

	wx, wz := g.noise.DomainWarp2D(x*n.Continent.Scale, z*n.Continent.Scale, g.cfg.DomainWarpStrength)
	continent := g.fractal(wx, wz, n.Continent)

	ridge := 2*g.ridged(x*n.Ridge.Scale+ridgeOffset, z*n.Ridge.Scale+ridgeOffset, n.Ridge) - 1
	hill := g.fractal(x*n.Hill.Scale+hillOffset, z*n.Hill.Scale+hillOffset, n.Hill)

	ex, ez := x*n.Erosion.Scale+erosionOffset, z*n.Erosion.Scale+erosionOffset
	erosion := 0.5*g.noise.Erosion2D(ex, ez) + 0.5*g.fractal(ex, ez, n.Erosion)

	detail := g.fractal(x*n.Detail.Scale+detailOffset, z*n.Detail.Scale+detailOffset, n.Detail)

	raw := continent*n.Continent.Weight +
		ridge*n.Ridge.Weight +
		hill*n.Hill.Weight +
		erosion*n.Erosion.Weight +
		detail*n.Detail.Weight
	raw /= g.weightSum
	return mathx.Clamp01((raw + 1) / 2)
}

func (g *Generator) fractal(x, y float64, l tuning.NoiseLayer) float64 {
	return g.noise.Fractal2D(x, y, l.Octaves, l.Persistence, l.Lacunarity)
}

// ridged is multi-octave Ridge2D normalized to [0, 1].
func (g *Generator) ridged(x, y float64, l tuning.NoiseLayer) float64 {
	total, maxAmp := 0.0, 0.0
	freq, amp := 1.0, 1.0
	for i := 0; i < l.Octaves; i++ {
		total += g.noise.Ridge2D(x*freq, y*freq) * amp
		maxAmp += amp
		amp *= l.Persistence
		freq *= l.Lacunarity
	}
	if maxAmp == 0 {
		return 0
	}
	return total / maxAmp
}

// shoreline steepens the land band just above the water level and deepens
// the band just below it. Both maps are monotonic for multipliers in [1, 2].
func (g *Generator) shoreline(h float64) float64 {
	s := g.cfg.Shoreline
	w := g.waterLevel
	switch {
	case h >= w && s.LandBand > 0 && h < w+s.LandBand:
		t := (h - w) / s.LandBand
		return w + s.LandBand*t*(1+(s.LandMaxMultiplier-1)*(1-t))
	case h < w && s.UnderwaterBand > 0 && h > w-s.UnderwaterBand:
		t := (w - h) / s.UnderwaterBand
		return w - s.UnderwaterBand*t*(1+(s.UnderwaterDepthMultiplier-1)*(1-t))
	}
	return h
}

// QueryPoint evaluates everything known about a single world position.
func (g *Generator) QueryPoint(x, z float64) PointQuery {
	s := g.sample(x, z)
	return PointQuery{
		Height:          s.height * g.cfg.MaxHeight,
		Biome:           s.influences[0].Kind,
		BiomeInfluences: s.influences,
		IslandMask:      g.islandMask(x, z),
		Normal:          g.NormalAt(x, z),
		Temperature:     g.noise.Temperature(x, z),
		Moisture:        g.noise.Moisture(x, z),
	}
}

func (g *Generator) islandMask(x, z float64) float64 {
	if !g.island.Enabled() {
		return 1
	}
	return g.island.ActiveMask(x, z)
}

// NormalAt is the unit surface normal from central differences.
func (g *Generator) NormalAt(x, z float64) [3]float64 {
	e := g.cfg.NormalSampleDistance
	dx := g.HeightAt(x+e, z) - g.HeightAt(x-e, z)
	dz := g.HeightAt(x, z+e) - g.HeightAt(x, z-e)

	tx := mgl64.Vec3{2 * e, dx, 0}
	tz := mgl64.Vec3{0, dz, 2 * e}
	n := tz.Cross(tx)
	l := n.Len()
	if !(l > 1e-12) || !mathx.Finite(l) {
		return [3]float64{0, 1, 0}
	}
	n = n.Mul(1 / l)
	return [3]float64{n[0], n[1], n[2]}
}
