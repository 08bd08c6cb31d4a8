// Package island shapes the world into a landmass surrounded by ocean.
package island

import (
	"math"

	"terrainforge.ai/internal/logic/mathx"
	"terrainforge.ai/internal/terrain/noise"
	"terrainforge.ai/internal/terrain/tuning"
)

const (
	seedOffset = 7919

	// submerged height used where the mask is exactly zero
	oceanFloor = 0.05
	// beyond effectiveRadius+hardOceanMargin the natural mask is forced to 0
	hardOceanMargin = 50.0
)

// Mask is immutable after New.
type Mask struct {
	cfg      tuning.IslandConfig
	tileSize float64
	noise    *noise.Generator
}

func New(cfg tuning.IslandConfig, seed int64, tileSize float64) *Mask {
	return &Mask{
		cfg:      cfg,
		tileSize: tileSize,
		noise:    noise.New(seed + seedOffset),
	}
}

func (m *Mask) Enabled() bool { return m.cfg.Enabled }

// MaxRadius is half the island's configured extent in meters.
func (m *Mask) MaxRadius() float64 {
	return float64(m.cfg.MaxWorldSizeTiles) * m.tileSize / 2
}

// Falloff is the width of the coastline transition band in meters.
func (m *Mask) Falloff() float64 {
	return math.Max(m.cfg.FalloffTiles*m.tileSize, m.tileSize)
}

// MaskAt is the radial island mask: 1 inland, 0 in open ocean, with a
// smoothstep band whose outer edge is perturbed by simplex noise.
func (m *Mask) MaskAt(x, z float64) float64 {
	if !m.cfg.Enabled {
		return 1
	}
	maxRadius := m.MaxRadius()
	falloff := m.Falloff()
	edge := mathx.Clamp(m.noise.Simplex2D(x*m.cfg.EdgeNoiseScale, z*m.cfg.EdgeNoiseScale), -1, 1)
	radius := maxRadius + maxRadius*m.cfg.EdgeNoiseStrength*edge

	d := math.Sqrt(x*x + z*z)
	return 1 - mathx.Smoothstep(radius-falloff, radius, d)
}

// NaturalCoastlineMask samples coastline noise by angle around the origin,
// so the outline is a closed curve with no seam at the angle wrap.
func (m *Mask) NaturalCoastlineMask(x, z, baseRadius, falloff float64) float64 {
	if !m.cfg.Enabled {
		return 1
	}
	angle := math.Atan2(z, x)
	nx := math.Cos(angle) * 2
	nz := math.Sin(angle) * 2

	n := 0.5*m.noise.Fractal2D(nx, nz, 3, 0.5, 2) +
		0.3*m.noise.Simplex2D(nx*2, nz*2) +
		0.2*m.noise.Simplex2D(nx*4, nz*4)
	n = mathx.Clamp(n, -1, 1)
	effective := baseRadius * (1 + n*m.cfg.CoastlineVariation)

	d := math.Sqrt(x*x + z*z)
	if d > effective+hardOceanMargin {
		return 0
	}
	return 1 - mathx.Smoothstep(effective-falloff, effective, d)
}

// ActiveMask evaluates the coastline strategy selected by the config.
func (m *Mask) ActiveMask(x, z float64) float64 {
	if m.cfg.Mode == tuning.ModeNatural {
		return m.NaturalCoastlineMask(x, z, m.MaxRadius(), m.Falloff())
	}
	return m.MaskAt(x, z)
}

// PondDepression is the normalized depth carved by the pond at (x, z).
func (m *Mask) PondDepression(x, z float64) float64 {
	p := m.cfg.Pond
	if p.Radius <= 0 || p.Depth <= 0 {
		return 0
	}
	dx := x - p.CenterX
	dz := z - p.CenterZ
	d := math.Sqrt(dx*dx + dz*dz)
	outer := 2 * p.Radius
	if d >= outer {
		return 0
	}
	t := 1 - d/outer
	return t * t * p.Depth
}

// ApplyShaping blends a normalized height toward a low ocean floor by the
// island mask, lifts land by baseElevation and carves the pond. Output is
// in [0, 1].
func (m *Mask) ApplyShaping(x, z, h, baseElevation float64) float64 {
	mask := m.ActiveMask(x, z)
	if mask == 0 {
		return oceanFloor
	}
	floor := oceanFloor + m.cfg.FloorVariation*m.noise.Perlin2D(x*m.cfg.FloorScale, z*m.cfg.FloorScale)
	land := h + baseElevation*mask
	shaped := floor*(1-mask) + land*mask - m.PondDepression(x, z)
	return mathx.Clamp01(shaped)
}

// IsOnLand reports whether the mask at (x, z) exceeds threshold.
func (m *Mask) IsOnLand(x, z, threshold float64) bool {
	return m.ActiveMask(x, z) > threshold
}
