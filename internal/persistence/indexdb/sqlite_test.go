package indexdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

func openTemp(t *testing.T) (*SQLiteIndex, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	return idx, path
}

func TestSQLiteIndex_BakeRunLifecycle(t *testing.T) {
	ctx := context.Background()
	idx, _ := openTemp(t)
	defer idx.Close()

	run := RunRow{RunID: "R1", Preset: "default", Seed: 42, ConfigJSON: "{}", ConfigDigest: "abc", TilesX: 2, TilesZ: 2}
	if err := idx.BeginRun(ctx, run); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	for z := 0; z < 2; z++ {
		for x := 0; x < 2; x++ {
			err := idx.RecordTile(TileRow{
				RunID: "R1", TileX: x, TileZ: z,
				Path:   fmt.Sprintf("/tiles/t_%d_%d.tile.zst", x, z),
				Digest: "d", DominantBiome: "plains", MinHeight: 1, MaxHeight: 9, Bytes: 100,
			})
			if err != nil {
				t.Fatalf("RecordTile: %v", err)
			}
		}
	}
	if err := idx.FinishRun("R1", "done", 4, 400); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := idx.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != "done" || runs[0].Tiles != 4 || runs[0].Bytes != 400 || runs[0].FinishedAt == "" {
		t.Fatalf("runs: %+v", runs)
	}
	tiles, err := idx.ListTiles(ctx, "R1")
	if err != nil {
		t.Fatalf("ListTiles: %v", err)
	}
	if len(tiles) != 4 {
		t.Fatalf("tiles: got %d want 4", len(tiles))
	}
	if tiles[0].TileX != 0 || tiles[0].TileZ != 0 || tiles[3].TileX != 1 || tiles[3].TileZ != 1 {
		t.Fatalf("tile order: %+v", tiles)
	}
	if st := idx.Stats(); st.TilesRecorded != 4 || st.WriteErrors != 0 {
		t.Fatalf("stats: %+v", st)
	}
}

func TestSQLiteIndex_TileForUnknownRunFails(t *testing.T) {
	idx, _ := openTemp(t)
	defer idx.Close()
	if err := idx.RecordTile(TileRow{RunID: "missing", Path: "p", Digest: "d", DominantBiome: "plains"}); err != nil {
		t.Fatalf("RecordTile: %v", err)
	}
	if err := idx.Flush(); err == nil {
		t.Fatalf("expected foreign key error on flush")
	}
	if st := idx.Stats(); st.WriteErrors == 0 {
		t.Fatalf("write error not counted")
	}
}

func TestSQLiteIndex_PersistsAfterClose(t *testing.T) {
	idx, path := openTemp(t)
	if err := idx.BeginRun(context.Background(), RunRow{RunID: "R2", Preset: "p", ConfigJSON: "{}", ConfigDigest: "x"}); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := idx.RecordTile(TileRow{RunID: "R2", TileX: 3, TileZ: -1, Path: "a", Digest: "b", DominantBiome: "forest"}); err != nil {
		t.Fatalf("RecordTile: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := idx.RecordTile(TileRow{RunID: "R2"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("RecordTile after close: got %v want ErrClosed", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	var (
		x, z  int
		biome string
	)
	row := db.QueryRow(`SELECT tile_x,tile_z,dominant_biome FROM baked_tiles WHERE run_id='R2'`)
	if err := row.Scan(&x, &z, &biome); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if x != 3 || z != -1 || biome != "forest" {
		t.Fatalf("row mismatch: x=%d z=%d biome=%q", x, z, biome)
	}
}

func TestSQLiteIndex_RollbackReportsDiscardedRows(t *testing.T) {
	ctx := context.Background()
	idx, _ := openTemp(t)
	defer idx.Close()

	if err := idx.BeginRun(ctx, RunRow{RunID: "R3", Preset: "p", ConfigJSON: "{}", ConfigDigest: "x"}); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := idx.RecordTile(TileRow{RunID: "R3", Path: "a", Digest: "b", DominantBiome: "plains"}); err != nil {
		t.Fatalf("RecordTile: %v", err)
	}
	if err := idx.RecordTile(TileRow{RunID: "missing", TileX: 1, Path: "c", Digest: "d", DominantBiome: "plains"}); err != nil {
		t.Fatalf("RecordTile: %v", err)
	}
	err := idx.Flush()
	if err == nil || !strings.Contains(err.Error(), "1 queued tile rows discarded") {
		t.Fatalf("flush: got %v", err)
	}
	if st := idx.Stats(); st.TilesRecorded != 0 {
		t.Fatalf("discarded rows counted as recorded: %+v", st)
	}
	rows, err := idx.ListTiles(ctx, "R3")
	if err != nil {
		t.Fatalf("ListTiles: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows: got %d want 0", len(rows))
	}
}

func TestOpenSQLite_FailsOnIncompatibleSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE baked_tiles (run_id TEXT, tile_x INTEGER, tile_z INTEGER)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	_ = db.Close()

	idx, err := OpenSQLite(path)
	if err == nil {
		idx.Close()
		t.Fatalf("expected prepare error")
	}
	if !strings.Contains(err.Error(), "prepare insert tile") {
		t.Fatalf("error: %v", err)
	}
}
