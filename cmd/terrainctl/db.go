package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"terrainforge.ai/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "bake output directory")
	dbPath := fs.String("db", "", "sqlite db path (optional; defaults to <data>/index/bake.sqlite)")
	runID := fs.String("run", "", "run id (tiles)")
	limit := fs.Int("limit", 20, "result limit (runs)")
	asJSON := fs.Bool("json", false, "print rows as JSON")
	_ = fs.Parse(args)

	q := "runs"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = indexPath(*dataDir)
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer idx.Close()
	ctx := context.Background()

	switch q {
	case "runs":
		runs, err := idx.ListRuns(ctx, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, r := range runs {
			if *asJSON {
				printJSON(r)
				continue
			}
			fmt.Printf("%s  %-8s seed=%d preset=%s tiles=%d (%dx%d at %d,%d) %s  %s\n",
				r.RunID, r.Status, r.Seed, r.Preset, r.Tiles, r.TilesX, r.TilesZ, r.TileX0, r.TileZ0,
				humanize.Bytes(uint64(r.Bytes)), r.StartedAt)
		}

	case "tiles":
		if strings.TrimSpace(*runID) == "" {
			fmt.Fprintln(os.Stderr, "missing -run")
			os.Exit(2)
		}
		tiles, err := idx.ListTiles(ctx, *runID)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, t := range tiles {
			if *asJSON {
				printJSON(t)
				continue
			}
			fmt.Printf("%5d %5d  %-9s h=[%.2f, %.2f] %8s  %s\n",
				t.TileX, t.TileZ, t.DominantBiome, t.MinHeight, t.MaxHeight, humanize.Bytes(uint64(t.Bytes)), short(t.Digest))
		}

	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		os.Exit(2)
	}
}

func short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
