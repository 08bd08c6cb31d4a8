package biome

import (
	"math"
	"sort"

	"terrainforge.ai/internal/terrain/noise"
	"terrainforge.ai/internal/terrain/rng"
	"terrainforge.ai/internal/terrain/tuning"
)

const (
	mountainBoostCoeff  = 0.3
	mountainBoostCutoff = 2.5

	boundarySeedOffset = 104729
)

// Center is a point source of biome influence placed once per generator.
type Center struct {
	X         float64 `json:"x"`
	Z         float64 `json:"z"`
	Kind      Kind    `json:"type"`
	Influence float64 `json:"influence"` // radius, meters
}

// Influence is the normalized weight of one kind at a position.
type Influence struct {
	Kind   Kind    `json:"type"`
	Weight float64 `json:"weight"`
}

// System owns the biome centers for one generator. It is read-only after
// NewSystem returns.
type System struct {
	cfg       tuning.BiomeConfig
	noise     *noise.Generator
	centers   []Center
	mountains []Center
}

// NewSystem places GridSize² centers on a jittered grid covering a square
// world of side worldSize centered on the origin. Each cell draws, in
// order: x jitter, z jitter, kind, influence radius.
func NewSystem(cfg tuning.BiomeConfig, seed int64, worldSize float64) *System {
	s := &System{
		cfg:   cfg,
		noise: noise.New(seed + boundarySeedOffset),
	}
	n := cfg.GridSize
	if n < 1 {
		n = 1
	}
	cell := worldSize / float64(n)
	half := worldSize / 2
	r := rng.NewSeeded(seed)

	s.centers = make([]Center, 0, n*n)
	for gz := 0; gz < n; gz++ {
		for gx := 0; gx < n; gx++ {
			x := -half + (float64(gx)+0.5)*cell
			z := -half + (float64(gz)+0.5)*cell
			x += (r.Next()*2 - 1) * cfg.Jitter * cell
			z += (r.Next()*2 - 1) * cfg.Jitter * cell
			kind := drawKind(r.Next())
			radius := cell * (cfg.InfluenceMin + r.Next()*(cfg.InfluenceMax-cfg.InfluenceMin))
			c := Center{X: x, Z: z, Kind: kind, Influence: radius}
			s.centers = append(s.centers, c)
			if kind == Mountains {
				s.mountains = append(s.mountains, c)
			}
		}
	}
	return s
}

func drawKind(u float64) Kind {
	total := 0.0
	for _, w := range placementWeights {
		total += w
	}
	target := u * total
	acc := 0.0
	for i, w := range placementWeights {
		acc += w
		if target < acc {
			return Kind(i)
		}
	}
	return Plains
}

// Centers returns a copy of the placed centers in placement order.
func (s *System) Centers() []Center {
	out := make([]Center, len(s.centers))
	copy(out, s.centers)
	return out
}

// Influences returns per-kind weights at (x, z) that sum to 1, sorted by
// descending weight. baseHeight is the normalized pre-shaping height.
func (s *System) Influences(x, z, baseHeight float64) []Influence {
	var acc [NumKinds]float64
	s.accumulate(&acc, x, z, baseHeight)
	return normalize(&acc)
}

// Dominant is the kind with the largest influence at (x, z).
func (s *System) Dominant(x, z, baseHeight float64) Kind {
	return s.Influences(x, z, baseHeight)[0].Kind
}

func (s *System) accumulate(acc *[NumKinds]float64, x, z, baseHeight float64) {
	cfg := s.cfg
	boundary := s.noise.Simplex2D(x*cfg.BoundaryNoiseScale, z*cfg.BoundaryNoiseScale)
	perturb := 1 + boundary*cfg.BoundaryNoiseAmount

	for _, c := range s.centers {
		dx := x - c.X
		dz := z - c.Z
		d := math.Sqrt(dx*dx+dz*dz) * perturb
		nd := d / c.Influence
		w := math.Exp(-nd * nd * cfg.GaussianCoeff)

		switch c.Kind {
		case Mountains:
			if baseHeight > cfg.MountainHeightThreshold {
				w *= 1 + (baseHeight-cfg.MountainHeightThreshold)*cfg.MountainWeightBoost
			}
		case Valley, Plains:
			if baseHeight < cfg.ValleyHeightThreshold {
				w *= 1 + (cfg.ValleyHeightThreshold-baseHeight)*cfg.ValleyWeightBoost
			}
		}
		acc[c.Kind] += w
	}
}

func normalize(acc *[NumKinds]float64) []Influence {
	total := 0.0
	for _, w := range acc {
		total += w
	}
	if !(total > 0) || math.IsInf(total, 0) {
		return []Influence{{Kind: Plains, Weight: 1}}
	}

	out := make([]Influence, 0, NumKinds)
	for i, w := range acc {
		if w > 0 {
			out = append(out, Influence{Kind: Kind(i), Weight: w / total})
		}
	}
	// enum order is preserved for equal weights
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out
}

// MountainHeightBoost lifts baseHeight near mountain centers. It looks at
// mountain centers only and keeps the strongest boost.
func (s *System) MountainHeightBoost(x, z, baseHeight float64) float64 {
	maxBoost := 0.0
	for _, c := range s.mountains {
		dx := x - c.X
		dz := z - c.Z
		nd := math.Sqrt(dx*dx+dz*dz) / c.Influence
		if nd >= mountainBoostCutoff {
			continue
		}
		if b := math.Exp(-nd * nd * mountainBoostCoeff); b > maxBoost {
			maxBoost = b
		}
	}
	return math.Min(1, baseHeight*(1+maxBoost*s.cfg.MountainHeightBoost))
}

// BlendColors mixes catalog colors by weight. Channels are in [0, 1].
func BlendColors(influences []Influence) (r, g, b float64) {
	for _, in := range influences {
		if !in.Kind.Valid() {
			continue
		}
		cr, cg, cb := RGB(defs[in.Kind].BaseColor)
		r += cr * in.Weight
		g += cg * in.Weight
		b += cb * in.Weight
	}
	return r, g, b
}

// TerrainMultiplier is the influence-weighted terrain multiplier.
func TerrainMultiplier(influences []Influence) float64 {
	m := 0.0
	for _, in := range influences {
		if in.Kind.Valid() {
			m += defs[in.Kind].TerrainMultiplier * in.Weight
		}
	}
	return m
}
