package gen

import (
	"math"

	"terrainforge.ai/internal/logic/mathx"
	"terrainforge.ai/internal/terrain/biome"
)

// vertexCoord maps vertex index i of a tile to a world coordinate. The last
// vertex is pinned to the next tile's origin so shared edges match exactly.
func (g *Generator) vertexCoord(tile, i int) float64 {
	res := g.cfg.TileResolution
	if i == res-1 {
		if tile == math.MaxInt {
			return float64(tile)*g.cfg.TileSize + g.cfg.TileSize
		}
		return float64(tile+1) * g.cfg.TileSize
	}
	step := g.cfg.TileSize / float64(res-1)
	return float64(tile)*g.cfg.TileSize + float64(i)*step
}

// Heightmap samples a tile. Repeated calls return equal arrays.
func (g *Generator) Heightmap(tileX, tileZ int) *Heightmap {
	hm, _ := g.build(tileX, tileZ, false)
	return hm
}

// Tile samples a tile with vertex colors and an empty road channel.
func (g *Generator) Tile(tileX, tileZ int) *Tile {
	hm, colors := g.build(tileX, tileZ, true)
	return &Tile{
		Heightmap:     *hm,
		Colors:        colors,
		RoadInfluence: make([]float32, len(hm.Heights)),
	}
}

func (g *Generator) build(tileX, tileZ int, withColors bool) (*Heightmap, []float32) {
	res := g.cfg.TileResolution
	n := res * res
	hm := &Heightmap{
		TileX:      tileX,
		TileZ:      tileZ,
		Resolution: res,
		Heights:    make([]float64, n),
		BiomeIDs:   make([]uint8, n),
	}
	var colors []float32
	if withColors {
		colors = make([]float32, 3*n)
	}

	var votes [biome.NumKinds]int
	for j := 0; j < res; j++ {
		z := g.vertexCoord(tileZ, j)
		for i := 0; i < res; i++ {
			x := g.vertexCoord(tileX, i)
			s := g.sample(x, z)
			idx := i + j*res
			k := s.influences[0].Kind
			hm.Heights[idx] = s.height * g.cfg.MaxHeight
			hm.BiomeIDs[idx] = uint8(k)
			votes[k]++
			if withColors {
				r, gr, b := g.vertexColor(s)
				colors[3*idx] = float32(r)
				colors[3*idx+1] = float32(gr)
				colors[3*idx+2] = float32(b)
			}
		}
	}
	hm.DominantBiome = majority(votes)
	return hm, colors
}

// majority picks the most frequent kind; ties go to the lower kind.
func majority(votes [biome.NumKinds]int) biome.Kind {
	best := biome.Plains
	for i, v := range votes {
		if v > votes[best] {
			best = biome.Kind(i)
		}
	}
	return best
}

// vertexColor blends biome colors and tints toward sand near the water line.
func (g *Generator) vertexColor(s sample) (r, gr, b float64) {
	r, gr, b = biome.BlendColors(s.influences)
	sh := g.cfg.Shoreline
	if sh.ColorThreshold <= 0 || sh.ColorStrength <= 0 {
		return r, gr, b
	}
	d := math.Abs(s.height - g.waterLevel)
	if d >= sh.ColorThreshold {
		return r, gr, b
	}
	f := sh.ColorStrength * (1 - d/sh.ColorThreshold)
	sr, sg, sb := biome.RGB(sandColor)
	return mathx.Lerp(r, sr, f), mathx.Lerp(gr, sg, f), mathx.Lerp(b, sb, f)
}
