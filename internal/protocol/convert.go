package protocol

import (
	"terrainforge.ai/internal/terrain/biome"
	"terrainforge.ai/internal/terrain/gen"
	"terrainforge.ai/internal/terrain/tuning"
)

func NewWorldParams(cfg tuning.Config, preset string) WorldParams {
	return WorldParams{
		Seed:           cfg.Seed,
		Preset:         preset,
		TileSize:       cfg.TileSize,
		WorldSizeTiles: cfg.WorldSizeTiles,
		TileResolution: cfg.TileResolution,
		MaxHeight:      cfg.MaxHeight,
		WaterThreshold: cfg.WaterThreshold,
		IslandEnabled:  cfg.Island.Enabled,
		IslandMode:     cfg.Island.Mode,
	}
}

// BiomePalette lists biome ids in enum order so TILE biome_ids index it.
func BiomePalette() []string {
	kinds := biome.Kinds()
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.String()
	}
	return out
}

// NewTileMsg copies a heightmap into a TILE message. colors may be nil.
func NewTileMsg(reqID string, hm *gen.Heightmap, colors []float32, digest string) TileMsg {
	ids := make([]int, len(hm.BiomeIDs))
	for i, id := range hm.BiomeIDs {
		ids[i] = int(id)
	}
	return TileMsg{
		Type:            TypeTile,
		ProtocolVersion: Version,
		ReqID:           reqID,
		TileX:           hm.TileX,
		TileZ:           hm.TileZ,
		Resolution:      hm.Resolution,
		Heights:         hm.Heights,
		BiomeIDs:        ids,
		DominantBiome:   hm.DominantBiome,
		Colors:          colors,
		Digest:          digest,
	}
}

func NewPointMsg(reqID string, x, z float64, q gen.PointQuery, underwater bool) PointMsg {
	return PointMsg{
		Type:            TypePoint,
		ProtocolVersion: Version,
		ReqID:           reqID,
		X:               x,
		Z:               z,
		Height:          q.Height,
		Underwater:      underwater,
		Biome:           q.Biome,
		BiomeInfluences: q.BiomeInfluences,
		IslandMask:      q.IslandMask,
		Normal:          q.Normal,
		Temperature:     q.Temperature,
		Moisture:        q.Moisture,
	}
}
