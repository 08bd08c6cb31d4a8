// Package tilefile stores baked tiles as zstd-compressed files: one JSON
// header line followed by a gob record.
package tilefile

import (
	"bufio"
	"crypto/sha256"
	"encoding/binary"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"terrainforge.ai/internal/terrain/gen"
	"terrainforge.ai/internal/terrain/tuning"
)

const Version = 1

type Header struct {
	Version    int    `json:"version"`
	Seed       int64  `json:"seed"`
	Preset     string `json:"preset,omitempty"`
	TileX      int    `json:"tile_x"`
	TileZ      int    `json:"tile_z"`
	Resolution int    `json:"resolution"`
}

type TileV1 struct {
	Header Header `json:"header"`

	TileSize       float64 `json:"tile_size"`
	MaxHeight      float64 `json:"max_height"`
	WaterThreshold float64 `json:"water_threshold"`

	Heights       []float64 `json:"heights"`
	BiomeIDs      []uint8   `json:"biome_ids"`
	DominantBiome uint8     `json:"dominant_biome"`
	Colors        []float32 `json:"colors,omitempty"`

	Digest string `json:"digest"`
}

func FromTile(cfg tuning.Config, preset string, t *gen.Tile) TileV1 {
	return TileV1{
		Header: Header{
			Version:    Version,
			Seed:       cfg.Seed,
			Preset:     preset,
			TileX:      t.TileX,
			TileZ:      t.TileZ,
			Resolution: t.Resolution,
		},
		TileSize:       cfg.TileSize,
		MaxHeight:      cfg.MaxHeight,
		WaterThreshold: cfg.WaterThreshold,
		Heights:        t.Heights,
		BiomeIDs:       t.BiomeIDs,
		DominantBiome:  uint8(t.DominantBiome),
		Colors:         t.Colors,
		Digest:         Digest(t.Heights, t.BiomeIDs),
	}
}

// Path is where bake run runID stores tile (tx, tz) under dir. Each run
// owns its directory, so a later bake never rewrites files an earlier run
// indexed.
func Path(dir, runID string, tx, tz int) string {
	return filepath.Join(dir, "tiles", runID, fmt.Sprintf("t_%d_%d.tile.zst", tx, tz))
}

// Digest is the sha256 of the heights (little-endian float64 bits) followed
// by the biome ids.
func Digest(heights []float64, biomes []uint8) string {
	h := sha256.New()
	var buf [8]byte
	for _, v := range heights {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	h.Write(biomes)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify recomputes the digest and checks array lengths.
func (t TileV1) Verify() error {
	n := t.Header.Resolution * t.Header.Resolution
	if len(t.Heights) != n || len(t.BiomeIDs) != n {
		return fmt.Errorf("tile %d,%d: expected %d samples, got heights=%d biomes=%d",
			t.Header.TileX, t.Header.TileZ, n, len(t.Heights), len(t.BiomeIDs))
	}
	if got := Digest(t.Heights, t.BiomeIDs); got != t.Digest {
		return fmt.Errorf("tile %d,%d: digest mismatch", t.Header.TileX, t.Header.TileZ)
	}
	return nil
}

func WriteTile(path string, tile TileV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, _ := json.Marshal(tile.Header)
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&tile); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Sync()
}

func ReadTile(path string) (TileV1, error) {
	var tile TileV1
	f, err := os.Open(path)
	if err != nil {
		return tile, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return tile, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	// The gob record repeats the header.
	if _, err := br.ReadBytes('\n'); err != nil {
		return tile, fmt.Errorf("read header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&tile); err != nil {
		return tile, fmt.Errorf("gob decode: %w", err)
	}
	return tile, nil
}

// ReadHeader decodes only the leading JSON line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}
