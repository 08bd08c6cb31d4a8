package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"terrainforge.ai/internal/persistence/tilefile"
	"terrainforge.ai/internal/render"
	"terrainforge.ai/internal/terrain/biome"
	"terrainforge.ai/internal/terrain/gen"
	"terrainforge.ai/internal/terrain/presets"
	"terrainforge.ai/internal/terrain/tuning"
)

const usage = `usage: terrainctl <command> [flags]

commands:
  height   height in meters at -x -z
  query    full point query at -x -z
  tile     generate one tile (-out writes a tile file, -read inspects one)
  bake     write a rectangle of tiles plus a sqlite index
  render   write a PNG preview of a rectangle of tiles
  db       list bake runs or the tiles of one run
  presets  list presets (-show prints a resolved config)`

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "height":
			heightCmd(os.Args[2:])
			return
		case "query":
			queryCmd(os.Args[2:])
			return
		case "tile":
			tileCmd(os.Args[2:])
			return
		case "bake":
			bakeCmd(os.Args[2:])
			return
		case "render":
			renderCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "presets":
			presetsCmd(os.Args[2:])
			return
		}
	}
	fmt.Fprintln(os.Stderr, usage)
	os.Exit(2)
}

// terrainFlags are shared by every command that builds a generator.
type terrainFlags struct {
	seed        *int64
	preset      *string
	presetsPath *string
	tuningPath  *string
}

func addTerrainFlags(fs *flag.FlagSet) terrainFlags {
	return terrainFlags{
		seed:        fs.Int64("seed", 0, "terrain seed"),
		preset:      fs.String("preset", presets.Default, "preset name"),
		presetsPath: fs.String("presets", "./configs/presets.yaml", "preset file (empty for built-ins only)"),
		tuningPath:  fs.String("tuning", "", "yaml overrides applied after the preset (optional)"),
	}
}

func (f terrainFlags) config(logger *log.Logger) (tuning.Config, error) {
	cat, err := presets.Load(strings.TrimSpace(*f.presetsPath))
	if err != nil && !os.IsNotExist(err) {
		return tuning.Config{}, err
	}
	o, err := tuning.LoadOverrides(*f.tuningPath)
	if err != nil {
		return tuning.Config{}, err
	}
	o.Seed = f.seed
	return cat.Resolve(*f.preset, o, logger)
}

func (f terrainFlags) generator() *gen.Generator {
	logger := log.New(os.Stderr, "[terrainctl] ", log.LstdFlags)
	cfg, err := f.config(logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	g, err := gen.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "generator:", err)
		os.Exit(1)
	}
	return g
}

func heightCmd(args []string) {
	fs := flag.NewFlagSet("height", flag.ExitOnError)
	tf := addTerrainFlags(fs)
	x := fs.Float64("x", 0, "world x")
	z := fs.Float64("z", 0, "world z")
	_ = fs.Parse(args)

	g := tf.generator()
	tx, tz := g.TileAt(*x, *z)
	printJSON(struct {
		X          float64 `json:"x"`
		Z          float64 `json:"z"`
		Height     float64 `json:"height"`
		Underwater bool    `json:"underwater"`
		TileX      int     `json:"tile_x"`
		TileZ      int     `json:"tile_z"`
	}{*x, *z, g.HeightAt(*x, *z), g.IsUnderwater(*x, *z), tx, tz})
}

func queryCmd(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	tf := addTerrainFlags(fs)
	x := fs.Float64("x", 0, "world x")
	z := fs.Float64("z", 0, "world z")
	_ = fs.Parse(args)

	g := tf.generator()
	printJSON(struct {
		X float64 `json:"x"`
		Z float64 `json:"z"`
		gen.PointQuery
		Underwater bool `json:"underwater"`
	}{*x, *z, g.QueryPoint(*x, *z), g.IsUnderwater(*x, *z)})
}

func tileCmd(args []string) {
	fs := flag.NewFlagSet("tile", flag.ExitOnError)
	tf := addTerrainFlags(fs)
	tx := fs.Int("tx", 0, "tile x")
	tz := fs.Int("tz", 0, "tile z")
	out := fs.String("out", "", "write the tile file here (optional)")
	colors := fs.Bool("colors", false, "store vertex colors in the tile file")
	read := fs.String("read", "", "inspect an existing tile file instead of generating")
	headerOnly := fs.Bool("header", false, "with -read, decode only the header line")
	_ = fs.Parse(args)

	if p := strings.TrimSpace(*read); p != "" && *headerOnly {
		h, err := tilefile.ReadHeader(p)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			os.Exit(1)
		}
		printJSON(h)
		return
	}
	if p := strings.TrimSpace(*read); p != "" {
		t, err := tilefile.ReadTile(p)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			os.Exit(1)
		}
		verr := t.Verify()
		printJSON(tileSummary(t, verr == nil))
		if verr != nil {
			fmt.Fprintln(os.Stderr, "verify:", verr)
			os.Exit(1)
		}
		return
	}

	g := tf.generator()
	t := g.Tile(*tx, *tz)
	if !*colors {
		t.Colors = nil
	}
	tv := tilefile.FromTile(g.Config(), *tf.preset, t)
	if p := strings.TrimSpace(*out); p != "" {
		if err := tilefile.WriteTile(p, tv); err != nil {
			fmt.Fprintln(os.Stderr, "write:", err)
			os.Exit(1)
		}
	}
	printJSON(tileSummary(tv, true))
}

type tileInfo struct {
	Header        tilefile.Header `json:"header"`
	DominantBiome string          `json:"dominant_biome"`
	MinHeight     float64         `json:"min_height"`
	MaxHeight     float64         `json:"max_height"`
	Digest        string          `json:"digest"`
	Verified      bool            `json:"verified"`
}

func tileSummary(t tilefile.TileV1, verified bool) tileInfo {
	hm := gen.Heightmap{Heights: t.Heights}
	lo, hi := hm.Bounds()
	return tileInfo{
		Header:        t.Header,
		DominantBiome: biome.Kind(t.DominantBiome).String(),
		MinHeight:     lo,
		MaxHeight:     hi,
		Digest:        t.Digest,
		Verified:      verified,
	}
}

func renderCmd(args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	tf := addTerrainFlags(fs)
	tx0 := fs.Int("tx0", 0, "first tile x")
	tz0 := fs.Int("tz0", 0, "first tile z")
	tilesX := fs.Int("tiles_x", 8, "tiles along x")
	tilesZ := fs.Int("tiles_z", 8, "tiles along z")
	w := fs.Int("w", 512, "output width in pixels")
	h := fs.Int("h", 512, "output height in pixels")
	out := fs.String("out", "preview.png", "output path")
	_ = fs.Parse(args)

	g := tf.generator()
	img, err := render.Preview(g, *tx0, *tz0, *tilesX, *tilesZ, *w, *h)
	if err != nil {
		fmt.Fprintln(os.Stderr, "render:", err)
		os.Exit(2)
	}
	if err := render.WritePNG(*out, img); err != nil {
		fmt.Fprintln(os.Stderr, "write:", err)
		os.Exit(1)
	}
	fmt.Println(*out)
}

func presetsCmd(args []string) {
	fs := flag.NewFlagSet("presets", flag.ExitOnError)
	tf := addTerrainFlags(fs)
	show := fs.String("show", "", "print the resolved config of this preset")
	_ = fs.Parse(args)

	if name := strings.TrimSpace(*show); name != "" {
		*tf.preset = name
		cfg, err := tf.config(log.New(os.Stderr, "[terrainctl] ", log.LstdFlags))
		if err != nil {
			fmt.Fprintln(os.Stderr, "config:", err)
			os.Exit(2)
		}
		printJSON(cfg)
		return
	}

	cat, err := presets.Load(strings.TrimSpace(*tf.presetsPath))
	if err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "presets:", err)
		os.Exit(1)
	}
	for _, name := range cat.Names() {
		p, _ := cat.Get(name)
		fmt.Printf("%-18s %s\n", name, p.Description)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
