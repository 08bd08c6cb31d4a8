package protocol

import "terrainforge.ai/internal/terrain/biome"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	ClientName      string            `json:"client_name"`
	Capabilities    HelloCapabilities `json:"capabilities"`
}

type HelloCapabilities struct {
	MaxQueue int  `json:"max_queue,omitempty"`
	Colors   bool `json:"colors,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	WorldParams     WorldParams `json:"world_params"`
	BiomePalette    []string    `json:"biome_palette"`
}

type WorldParams struct {
	Seed           int64   `json:"seed"`
	Preset         string  `json:"preset,omitempty"`
	TileSize       float64 `json:"tile_size"`
	WorldSizeTiles int     `json:"world_size_tiles"`
	TileResolution int     `json:"tile_resolution"`
	MaxHeight      float64 `json:"max_height"`
	WaterThreshold float64 `json:"water_threshold"`
	IslandEnabled  bool    `json:"island_enabled"`
	IslandMode     string  `json:"island_mode,omitempty"`
}

// TILE_REQ (client -> server)
type TileReqMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	TileX           int    `json:"tile_x"`
	TileZ           int    `json:"tile_z"`
}

// TILE (server -> client)
type TileMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	ReqID           string     `json:"req_id,omitempty"`
	TileX           int        `json:"tile_x"`
	TileZ           int        `json:"tile_z"`
	Resolution      int        `json:"resolution"`
	Heights         []float64  `json:"heights"`
	BiomeIDs        []int      `json:"biome_ids"`
	DominantBiome   biome.Kind `json:"dominant_biome"`
	Colors          []float32  `json:"colors,omitempty"`
	Digest          string     `json:"digest"`
}

// POINT_REQ (client -> server)
type PointReqMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ReqID           string  `json:"req_id"`
	X               float64 `json:"x"`
	Z               float64 `json:"z"`
}

// POINT (server -> client)
type PointMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	ReqID           string            `json:"req_id,omitempty"`
	X               float64           `json:"x"`
	Z               float64           `json:"z"`
	Height          float64           `json:"height"`
	Underwater      bool              `json:"underwater"`
	Biome           biome.Kind        `json:"biome"`
	BiomeInfluences []biome.Influence `json:"biome_influences"`
	IslandMask      float64           `json:"island_mask"`
	Normal          [3]float64        `json:"normal"`
	Temperature     float64           `json:"temperature"`
	Moisture        float64           `json:"moisture"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

func NewError(reqID, code, message string) ErrorMsg {
	return ErrorMsg{
		Type:            TypeError,
		ProtocolVersion: Version,
		ReqID:           reqID,
		Code:            code,
		Message:         message,
	}
}
