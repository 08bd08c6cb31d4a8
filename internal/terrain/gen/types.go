package gen

import "terrainforge.ai/internal/terrain/biome"

// Heightmap is one tile of heights and per-vertex biome ids. Vertex (i, j)
// is stored at i + j*Resolution.
type Heightmap struct {
	TileX         int        `json:"tile_x"`
	TileZ         int        `json:"tile_z"`
	Resolution    int        `json:"resolution"`
	Heights       []float64  `json:"heights"` // meters
	BiomeIDs      []uint8    `json:"biome_ids"`
	DominantBiome biome.Kind `json:"dominant_biome"`
}

// Bounds returns the lowest and highest height in the tile.
func (h *Heightmap) Bounds() (lo, hi float64) {
	if len(h.Heights) == 0 {
		return 0, 0
	}
	lo, hi = h.Heights[0], h.Heights[0]
	for _, v := range h.Heights[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Tile is a Heightmap plus render channels.
type Tile struct {
	Heightmap
	Colors        []float32 `json:"colors"` // RGB triplets in [0,1]
	RoadInfluence []float32 `json:"road_influence"`
}

type PointQuery struct {
	Height          float64           `json:"height"` // meters
	Biome           biome.Kind        `json:"biome"`
	BiomeInfluences []biome.Influence `json:"biome_influences"`
	IslandMask      float64           `json:"island_mask"`
	Normal          [3]float64        `json:"normal"`
	Temperature     float64           `json:"temperature"`
	Moisture        float64           `json:"moisture"`
}
