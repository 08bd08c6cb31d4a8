package tilefile

import (
	"os"
	"path/filepath"
	"testing"

	"terrainforge.ai/internal/terrain/gen"
	"terrainforge.ai/internal/terrain/tuning"
)

func bakeOne(t *testing.T) (tuning.Config, *gen.Tile) {
	t.Helper()
	cfg := tuning.Defaults()
	cfg.Seed = 7
	cfg.TileResolution = 9
	g, err := gen.New(cfg)
	if err != nil {
		t.Fatalf("gen.New: %v", err)
	}
	return g.Config(), g.Tile(2, -1)
}

func TestWriteReadRoundTrip(t *testing.T) {
	cfg, tile := bakeOne(t)
	rec := FromTile(cfg, "default", tile)
	path := Path(t.TempDir(), "run-a", 2, -1)

	if err := WriteTile(path, rec); err != nil {
		t.Fatalf("WriteTile: %v", err)
	}
	got, err := ReadTile(path)
	if err != nil {
		t.Fatalf("ReadTile: %v", err)
	}
	if got.Header != rec.Header {
		t.Fatalf("header: got %+v want %+v", got.Header, rec.Header)
	}
	if got.Digest != rec.Digest || got.DominantBiome != rec.DominantBiome {
		t.Fatalf("digest/dominant mismatch")
	}
	for i := range rec.Heights {
		if got.Heights[i] != rec.Heights[i] {
			t.Fatalf("height %d: got %v want %v", i, got.Heights[i], rec.Heights[i])
		}
	}
	if len(got.Colors) != len(rec.Colors) {
		t.Fatalf("colors: got %d want %d", len(got.Colors), len(rec.Colors))
	}
	if err := got.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h != rec.Header {
		t.Fatalf("ReadHeader: got %+v", h)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	cfg, tile := bakeOne(t)
	rec := FromTile(cfg, "", tile)
	rec.Heights = append([]float64(nil), rec.Heights...)
	rec.Heights[3] += 0.5
	if err := rec.Verify(); err == nil {
		t.Fatalf("expected digest mismatch")
	}
	rec.Heights = rec.Heights[:4]
	if err := rec.Verify(); err == nil {
		t.Fatalf("expected length error")
	}
}

func TestDigestIsStable(t *testing.T) {
	a := Digest([]float64{1, 2.5}, []uint8{0, 3})
	b := Digest([]float64{1, 2.5}, []uint8{0, 3})
	c := Digest([]float64{1, 2.5}, []uint8{0, 4})
	if a != b || a == c || len(a) != 64 {
		t.Fatalf("digest: a=%s b=%s c=%s", a, b, c)
	}
}

func TestReadTileRejectsGarbage(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.tile.zst")
	if err := os.WriteFile(p, []byte("not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadTile(p); err == nil {
		t.Fatalf("expected error for garbage file")
	}
}

func TestPathSeparatesRuns(t *testing.T) {
	a := Path("/data", "run-a", 0, 0)
	b := Path("/data", "run-b", 0, 0)
	if a == b {
		t.Fatalf("runs share a tile path: %s", a)
	}
	if filepath.Dir(a) != filepath.Join("/data", "tiles", "run-a") {
		t.Fatalf("unexpected layout: %s", a)
	}
}
