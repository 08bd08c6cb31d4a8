package noise

import (
	"math"
	"testing"
)

func TestPerlinScenarioExactEquality(t *testing.T) {
	a := New(12345).Perlin2D(10, 15)
	b := New(12345).Perlin2D(10, 15)
	if a != b {
		t.Fatalf("perlin2D(10,15) differs across generators: %v vs %v", a, b)
	}
}

func TestPrimitivesDeterministicAcrossInstances(t *testing.T) {
	for _, seed := range []int64{0, 1, 12345, math.MaxInt32} {
		g1 := New(seed)
		g2 := New(seed)
		for i := 0; i < 200; i++ {
			x := float64(i)*3.71 - 400
			y := float64(i)*-2.13 + 91
			if g1.Perlin2D(x, y) != g2.Perlin2D(x, y) {
				t.Fatalf("seed %d: Perlin2D differs at (%v,%v)", seed, x, y)
			}
			if g1.Simplex2D(x, y) != g2.Simplex2D(x, y) {
				t.Fatalf("seed %d: Simplex2D differs at (%v,%v)", seed, x, y)
			}
			if g1.Fractal2D(x, y, 5, 0.5, 2) != g2.Fractal2D(x, y, 5, 0.5, 2) {
				t.Fatalf("seed %d: Fractal2D differs at (%v,%v)", seed, x, y)
			}
		}
	}
}

func TestPermutationIsAPermutation(t *testing.T) {
	g := New(42)
	var seen [256]bool
	for i := 0; i < 256; i++ {
		v := g.perm[i]
		if seen[v] {
			t.Fatalf("value %d appears twice", v)
		}
		seen[v] = true
		if g.perm[i+256] != v {
			t.Fatalf("upper half not duplicated at %d", i)
		}
	}
}

func TestSeedsProduceDifferentTables(t *testing.T) {
	if New(1).perm == New(2).perm {
		t.Fatalf("seeds 1 and 2 share a permutation")
	}
}

func TestRanges(t *testing.T) {
	g := New(7)
	for i := 0; i < 20000; i++ {
		x := float64(i)*0.173 - 1700
		y := float64(i)*0.091 + 33
		if v := g.Perlin2D(x, y); v < -1 || v > 1 {
			t.Fatalf("Perlin2D(%v,%v) = %v", x, y, v)
		}
		if v := g.Simplex2D(x, y); v < -1 || v > 1 {
			t.Fatalf("Simplex2D(%v,%v) = %v", x, y, v)
		}
		if v := g.Ridge2D(x, y); v < 0 || v > 1 {
			t.Fatalf("Ridge2D(%v,%v) = %v", x, y, v)
		}
		if v := g.Turbulence2D(x, y, 4); v < 0 {
			t.Fatalf("Turbulence2D(%v,%v) = %v", x, y, v)
		}
		if v := g.Fractal2D(x, y, 6, 0.5, 2); v < -1 || v > 1 {
			t.Fatalf("Fractal2D(%v,%v) = %v", x, y, v)
		}
		if v := g.Erosion2D(x, y); v < -1 || v > 1 {
			t.Fatalf("Erosion2D(%v,%v) = %v", x, y, v)
		}
		if v := g.Temperature(x*40, y*40); v < 0 || v > 1 {
			t.Fatalf("Temperature = %v", v)
		}
		if v := g.Moisture(x*40, y*40); v < 0 || v > 1 {
			t.Fatalf("Moisture = %v", v)
		}
	}
}

func TestPerlinIsZeroOnLattice(t *testing.T) {
	g := New(5)
	for i := -10; i <= 10; i++ {
		if v := g.Perlin2D(float64(i), float64(2*i)); v != 0 {
			t.Fatalf("Perlin2D on lattice (%d,%d) = %v", i, 2*i, v)
		}
	}
}

func TestHugeCoordinatesStayFinite(t *testing.T) {
	g := New(0)
	for _, c := range []float64{1e9, -1e9, 1e15, -1e15, 1e300, -1e300} {
		vals := []float64{
			g.Perlin2D(c, c*0.5),
			g.Simplex2D(c, -c),
			g.Fractal2D(c, c, 4, 0.5, 2),
			g.Erosion2D(c, c),
		}
		for _, v := range vals {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("non-finite noise at %v: %v", c, vals)
			}
		}
	}
}

func TestFractalSmoothness(t *testing.T) {
	g := New(77)
	prev := g.Fractal2D(0, 0, 4, 0.5, 2)
	for i := 1; i < 1000; i++ {
		v := g.Fractal2D(float64(i)*0.01, 0, 4, 0.5, 2)
		if math.Abs(v-prev) > 0.25 {
			t.Fatalf("step %d jumped by %v", i, math.Abs(v-prev))
		}
		prev = v
	}
}

func TestDomainWarpZeroStrengthIsIdentity(t *testing.T) {
	g := New(9)
	x, y := g.DomainWarp2D(12.5, -3.25, 0)
	if x != 12.5 || y != -3.25 {
		t.Fatalf("zero warp moved point to (%v,%v)", x, y)
	}
	x, y = g.DomainWarp2D(12.5, -3.25, 2)
	if math.Abs(x-12.5) > 2 || math.Abs(y+3.25) > 2 {
		t.Fatalf("warp exceeded strength: (%v,%v)", x, y)
	}
}
