package noise

import "terrainforge.ai/internal/logic/mathx"

// Erosion2D mixes broad fractal relief with ridged channels and subtracts
// turbulent wear. Result is in [-1, 1].
func (g *Generator) Erosion2D(x, y float64) float64 {
	base := g.Fractal2D(x, y, 4, 0.5, 2)
	ridge := 2*g.Ridge2D(x*2, y*2) - 1
	wear := g.Turbulence2D(x*4, y*4, 2)
	return mathx.Clamp(0.6*base+0.4*ridge-0.2*wear, -1, 1)
}

// Temperature returns a climate value in [0, 1] for world coordinates.
func (g *Generator) Temperature(x, z float64) float64 {
	t := 0.5 + 0.5*g.Fractal2D(x*0.0004+311.7, z*0.0004-91.3, 3, 0.5, 2)
	t -= 0.25 * g.Turbulence2D(x*0.003+17.1, z*0.003-44.2, 2)
	return mathx.Clamp01(t)
}

// Moisture returns a humidity value in [0, 1] for world coordinates.
func (g *Generator) Moisture(x, z float64) float64 {
	m := 0.5 + 0.5*g.Fractal2D(x*0.0006-517.1, z*0.0006+203.9, 4, 0.55, 2)
	m += 0.15 * g.Simplex2D(x*0.002, z*0.002)
	return mathx.Clamp01(m)
}
