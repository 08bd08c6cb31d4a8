// Package noise implements seeded gradient noise over a shuffled
// permutation table. A Generator is immutable after New and may be shared
// by any number of goroutines.
package noise

import (
	"math"

	"terrainforge.ai/internal/logic/mathx"
	"terrainforge.ai/internal/terrain/rng"
)

const (
	f2 = 0.36602540378443864676 // (sqrt(3)-1)/2
	g2 = 0.21132486540518711775 // (3-sqrt(3))/6
)

var grad3 = [12][2]float64{
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
	{1, 0}, {-1, 0}, {1, 0}, {-1, 0},
	{0, 1}, {0, -1}, {0, 1}, {0, -1},
}

type Generator struct {
	seed int64
	perm [512]uint8
}

// New builds the permutation table for seed.
func New(seed int64) *Generator {
	g := &Generator{seed: seed}

	var base [256]uint8
	for i := range base {
		base[i] = uint8(i)
	}
	r := rng.NewSeeded(seed)
	for i := 255; i > 0; i-- {
		j := r.Intn(i + 1)
		base[i], base[j] = base[j], base[i]
	}
	for i := 0; i < 256; i++ {
		g.perm[i] = base[i]
		g.perm[i+256] = base[i]
	}
	return g
}

func (g *Generator) Seed() int64 { return g.seed }

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func grad2(hash uint8, x, y float64) float64 {
	switch hash & 7 {
	case 0:
		return x + y
	case 1:
		return -x + y
	case 2:
		return x - y
	case 3:
		return -x - y
	case 4:
		return x
	case 5:
		return -x
	case 6:
		return y
	default:
		return -y
	}
}

// lattice maps a floored coordinate onto the 256-cell period.
func lattice(f float64) int {
	return int(mathx.Wrap(f, 256)) & 255
}

// Perlin2D returns classic gradient noise in [-1, 1].
func (g *Generator) Perlin2D(x, y float64) float64 {
	fx := math.Floor(x)
	fy := math.Floor(y)
	xi := lattice(fx)
	yi := lattice(fy)
	xf := x - fx
	yf := y - fy

	u := fade(xf)
	v := fade(yf)

	p := &g.perm
	aa := p[int(p[xi])+yi]
	ab := p[int(p[xi])+yi+1]
	ba := p[int(p[xi+1])+yi]
	bb := p[int(p[xi+1])+yi+1]

	x1 := mathx.Lerp(grad2(aa, xf, yf), grad2(ba, xf-1, yf), u)
	x2 := mathx.Lerp(grad2(ab, xf, yf-1), grad2(bb, xf-1, yf-1), u)
	return mathx.Clamp(mathx.Lerp(x1, x2, v), -1, 1)
}

// Simplex2D returns 2D simplex noise, approximately in [-1, 1].
func (g *Generator) Simplex2D(xin, yin float64) float64 {
	s := (xin + yin) * f2
	fi := math.Floor(xin + s)
	fj := math.Floor(yin + s)
	t := (fi + fj) * g2
	x0 := xin - (fi - t)
	y0 := yin - (fj - t)

	i1, j1 := 0, 1
	if x0 > y0 {
		i1, j1 = 1, 0
	}

	x1 := x0 - float64(i1) + g2
	y1 := y0 - float64(j1) + g2
	x2 := x0 - 1 + 2*g2
	y2 := y0 - 1 + 2*g2

	ii := lattice(fi)
	jj := lattice(fj)
	p := &g.perm
	gi0 := p[ii+int(p[jj])] % 12
	gi1 := p[ii+i1+int(p[jj+j1])] % 12
	gi2 := p[ii+1+int(p[jj+1])] % 12

	n := corner(gi0, x0, y0) + corner(gi1, x1, y1) + corner(gi2, x2, y2)
	return mathx.Clamp(70*n, -1, 1)
}

func corner(gi uint8, x, y float64) float64 {
	t := 0.5 - x*x - y*y
	if t < 0 {
		return 0
	}
	t *= t
	gr := grad3[gi]
	return t * t * (gr[0]*x + gr[1]*y)
}

// Ridge2D folds Perlin noise into sharp crests, in [0, 1].
func (g *Generator) Ridge2D(x, y float64) float64 {
	return 1 - math.Abs(mathx.Clamp(g.Perlin2D(x, y), -1, 1))
}

// Turbulence2D sums |Perlin2D| over octaves of doubling frequency.
func (g *Generator) Turbulence2D(x, y float64, octaves int) float64 {
	sum := 0.0
	freq := 1.0
	amp := 1.0
	for i := 0; i < octaves; i++ {
		sum += math.Abs(g.Perlin2D(x*freq, y*freq)) * amp
		freq *= 2
		amp *= 0.5
	}
	return sum
}

// Fractal2D is fractal Brownian motion over Perlin2D, normalized by the
// accumulated amplitude.
func (g *Generator) Fractal2D(x, y float64, octaves int, persistence, lacunarity float64) float64 {
	total := 0.0
	maxAmp := 0.0
	freq := 1.0
	amp := 1.0
	for i := 0; i < octaves; i++ {
		total += g.Perlin2D(x*freq, y*freq) * amp
		maxAmp += amp
		amp *= persistence
		freq *= lacunarity
	}
	if maxAmp == 0 {
		return 0
	}
	return total / maxAmp
}

// DomainWarp2D displaces (x, y) by noise sampled at two decorrelated offsets.
func (g *Generator) DomainWarp2D(x, y, strength float64) (float64, float64) {
	wx := x + strength*g.Perlin2D(x+5.2, y+1.3)
	wy := y + strength*g.Perlin2D(x+9.7, y+2.8)
	return wx, wy
}
