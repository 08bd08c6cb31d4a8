package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"terrainforge.ai/internal/persistence/indexdb"
	plog "terrainforge.ai/internal/persistence/log"
	"terrainforge.ai/internal/persistence/tilefile"
	"terrainforge.ai/internal/terrain/gen"
)

type bakeOptions struct {
	Dir     string
	Preset  string
	TileX0  int
	TileZ0  int
	TilesX  int
	TilesZ  int
	Workers int
	Colors  bool
}

type bakeResult struct {
	RunID string
	Tiles int
	Bytes int64
	Took  time.Duration
}

func indexPath(dataDir string) string {
	return filepath.Join(dataDir, "index", "bake.sqlite")
}

func bakeCmd(args []string) {
	fs := flag.NewFlagSet("bake", flag.ExitOnError)
	tf := addTerrainFlags(fs)
	dataDir := fs.String("data", "./data", "output directory (tiles, index, bake log)")
	tx0 := fs.Int("tx0", 0, "first tile x")
	tz0 := fs.Int("tz0", 0, "first tile z")
	tilesX := fs.Int("tiles_x", 4, "tiles along x")
	tilesZ := fs.Int("tiles_z", 4, "tiles along z")
	workers := fs.Int("workers", runtime.GOMAXPROCS(0), "concurrent tile workers")
	colors := fs.Bool("colors", false, "store vertex colors")
	_ = fs.Parse(args)

	logger := log.New(os.Stdout, "[bake] ", log.LstdFlags|log.Lmicroseconds)
	g := tf.generator()

	idx, err := indexdb.OpenSQLite(indexPath(*dataDir))
	if err != nil {
		fmt.Fprintln(os.Stderr, "open index:", err)
		os.Exit(1)
	}
	defer idx.Close()
	events := plog.NewBakeLogger(*dataDir)
	defer events.Close()

	res, err := bake(context.Background(), g, bakeOptions{
		Dir:     *dataDir,
		Preset:  *tf.preset,
		TileX0:  *tx0,
		TileZ0:  *tz0,
		TilesX:  *tilesX,
		TilesZ:  *tilesZ,
		Workers: *workers,
		Colors:  *colors,
	}, idx, events, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bake:", err)
		os.Exit(1)
	}
	logger.Printf("run %s: %d tiles, %s in %s", res.RunID, res.Tiles, humanize.Bytes(uint64(res.Bytes)), res.Took.Round(time.Millisecond))
	st := idx.Stats()
	logger.Printf("index: %d rows recorded, %d write errors", st.TilesRecorded, st.WriteErrors)
}

// bake generates the rectangle of tiles, writes each as a tile file and
// records it in the index. The run row is marked failed when any tile fails.
func bake(ctx context.Context, g *gen.Generator, opt bakeOptions, idx *indexdb.SQLiteIndex, events *plog.BakeLogger, logger *log.Logger) (bakeResult, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if opt.TilesX <= 0 || opt.TilesZ <= 0 {
		return bakeResult{}, errors.New("tiles_x and tiles_z must be > 0")
	}
	if opt.Workers <= 0 {
		opt.Workers = 1
	}
	start := time.Now()

	cfg := g.Config()
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return bakeResult{}, err
	}
	sum := sha256.Sum256(cfgJSON)
	runID := uuid.NewString()

	if err := idx.BeginRun(ctx, indexdb.RunRow{
		RunID:        runID,
		Preset:       opt.Preset,
		Seed:         cfg.Seed,
		ConfigJSON:   string(cfgJSON),
		ConfigDigest: hex.EncodeToString(sum[:]),
		TileX0:       opt.TileX0,
		TileZ0:       opt.TileZ0,
		TilesX:       opt.TilesX,
		TilesZ:       opt.TilesZ,
	}); err != nil {
		return bakeResult{}, err
	}
	event(events, logger, plog.BakeEvent{RunID: runID, Event: "start"})

	var tiles, bytes atomic.Int64
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(opt.Workers)
	for j := 0; j < opt.TilesZ; j++ {
		for i := 0; i < opt.TilesX; i++ {
			tx, tz := opt.TileX0+i, opt.TileZ0+j
			eg.Go(func() error {
				if err := ectx.Err(); err != nil {
					return err
				}
				n, err := bakeTile(g, opt, runID, tx, tz, idx)
				if err != nil {
					event(events, logger, plog.BakeEvent{RunID: runID, Event: "error", TileX: tx, TileZ: tz, Error: err.Error()})
					return err
				}
				tiles.Add(1)
				bytes.Add(n)
				event(events, logger, plog.BakeEvent{RunID: runID, Event: "tile", TileX: tx, TileZ: tz, Bytes: n})
				return nil
			})
		}
	}
	bakeErr := eg.Wait()

	res := bakeResult{RunID: runID, Tiles: int(tiles.Load()), Bytes: bytes.Load(), Took: time.Since(start)}
	status := "done"
	if bakeErr != nil {
		status = "failed"
	}
	if err := idx.FinishRun(runID, status, res.Tiles, res.Bytes); err != nil && bakeErr == nil {
		bakeErr = err
	}
	event(events, logger, plog.BakeEvent{RunID: runID, Event: "done", Bytes: res.Bytes})
	return res, bakeErr
}

func bakeTile(g *gen.Generator, opt bakeOptions, runID string, tx, tz int, idx *indexdb.SQLiteIndex) (int64, error) {
	t := g.Tile(tx, tz)
	if !opt.Colors {
		t.Colors = nil
	}
	tv := tilefile.FromTile(g.Config(), opt.Preset, t)
	path := tilefile.Path(opt.Dir, runID, tx, tz)
	if err := tilefile.WriteTile(path, tv); err != nil {
		return 0, fmt.Errorf("tile %d,%d: %w", tx, tz, err)
	}
	st, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	lo, hi := t.Bounds()
	err = idx.RecordTile(indexdb.TileRow{
		RunID:         runID,
		TileX:         tx,
		TileZ:         tz,
		Path:          path,
		Digest:        tv.Digest,
		DominantBiome: t.DominantBiome.String(),
		MinHeight:     lo,
		MaxHeight:     hi,
		Bytes:         st.Size(),
	})
	return st.Size(), err
}

func event(events *plog.BakeLogger, logger *log.Logger, e plog.BakeEvent) {
	if events == nil {
		return
	}
	e.Time = time.Now().UTC()
	if err := events.WriteEvent(e); err != nil {
		logger.Printf("bake log: %v", err)
	}
}
