// Package render draws top-down previews of generated terrain.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"terrainforge.ai/internal/logic/mathx"
	"terrainforge.ai/internal/terrain/biome"
	"terrainforge.ai/internal/terrain/gen"
)

const (
	waterColor    = 0x2E5C8A
	maxWaterBlend = 0.85
)

// Preview renders tilesX*tilesZ tiles starting at (tx0, tz0) and scales the
// result to outW x outH. Image rows follow +z.
func Preview(g *gen.Generator, tx0, tz0, tilesX, tilesZ, outW, outH int) (*image.RGBA, error) {
	if tilesX < 1 || tilesZ < 1 {
		return nil, fmt.Errorf("render: tile range must be at least 1x1")
	}
	if outW < 1 || outH < 1 {
		return nil, fmt.Errorf("render: output size must be positive")
	}
	src := Mosaic(g, tx0, tz0, tilesX, tilesZ)
	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// Mosaic lays tiles side by side at one pixel per vertex. The last row and
// column of each tile repeat the neighbour's first, so they are skipped.
func Mosaic(g *gen.Generator, tx0, tz0, tilesX, tilesZ int) *image.NRGBA {
	cfg := g.Config()
	step := cfg.TileResolution - 1
	img := image.NewNRGBA(image.Rect(0, 0, tilesX*step, tilesZ*step))

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for dz := 0; dz < tilesZ; dz++ {
		for dx := 0; dx < tilesX; dx++ {
			dx, dz := dx, dz
			eg.Go(func() error {
				t := g.Tile(tx0+dx, tz0+dz)
				paint(img, t, dx*step, dz*step, step, cfg.WaterThreshold, cfg.MaxHeight)
				return nil
			})
		}
	}
	_ = eg.Wait()
	return img
}

// paint writes one tile into a disjoint region of img.
func paint(img *image.NRGBA, t *gen.Tile, ox, oy, step int, water, maxHeight float64) {
	res := t.Resolution
	wr, wg, wb := biome.RGB(waterColor)
	for j := 0; j < step; j++ {
		for i := 0; i < step; i++ {
			idx := i + j*res
			r := float64(t.Colors[3*idx])
			gr := float64(t.Colors[3*idx+1])
			b := float64(t.Colors[3*idx+2])
			if h := t.Heights[idx]; h < water {
				depth := mathx.Clamp01((water - h) / (water + 1e-9))
				f := 0.5 + (maxWaterBlend-0.5)*depth
				r, gr, b = mathx.Lerp(r, wr, f), mathx.Lerp(gr, wg, f), mathx.Lerp(b, wb, f)
			} else {
				// light shading by altitude
				s := 0.85 + 0.3*mathx.Clamp01(h/maxHeight)
				r, gr, b = r*s, gr*s, b*s
			}
			img.SetNRGBA(ox+i, oy+j, color.NRGBA{R: channel(r), G: channel(gr), B: channel(b), A: 0xff})
		}
	}
}

func channel(v float64) uint8 {
	return uint8(mathx.Clamp01(v)*255 + 0.5)
}

func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}

func WritePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodePNG(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
