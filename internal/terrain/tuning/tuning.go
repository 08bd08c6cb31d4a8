package tuning

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"terrainforge.ai/internal/logic/mathx"
)

const (
	ModeRadial  = "radial"
	ModeNatural = "natural"
)

// Config is the full generator configuration. A generator copies it at
// construction and never mutates it afterwards.
type Config struct {
	Seed           int64   `yaml:"seed" json:"seed"`
	TileSize       float64 `yaml:"tile_size" json:"tile_size"`
	WorldSizeTiles int     `yaml:"world_size_tiles" json:"world_size_tiles"`
	TileResolution int     `yaml:"tile_resolution" json:"tile_resolution"`
	MaxHeight      float64 `yaml:"max_height" json:"max_height"`
	WaterThreshold float64 `yaml:"water_threshold" json:"water_threshold"`

	NormalSampleDistance float64 `yaml:"normal_sample_distance" json:"normal_sample_distance"`
	DomainWarpStrength   float64 `yaml:"domain_warp_strength" json:"domain_warp_strength"`

	Noise     NoiseLayers     `yaml:"noise" json:"noise"`
	Biome     BiomeConfig     `yaml:"biome" json:"biome"`
	Island    IslandConfig    `yaml:"island" json:"island"`
	Shoreline ShorelineConfig `yaml:"shoreline" json:"shoreline"`
}

type NoiseLayer struct {
	Scale       float64 `yaml:"scale" json:"scale"`
	Weight      float64 `yaml:"weight" json:"weight"`
	Octaves     int     `yaml:"octaves" json:"octaves"`
	Persistence float64 `yaml:"persistence" json:"persistence"`
	Lacunarity  float64 `yaml:"lacunarity" json:"lacunarity"`
}

type NoiseLayers struct {
	Continent NoiseLayer `yaml:"continent" json:"continent"`
	Ridge     NoiseLayer `yaml:"ridge" json:"ridge"`
	Hill      NoiseLayer `yaml:"hill" json:"hill"`
	Erosion   NoiseLayer `yaml:"erosion" json:"erosion"`
	Detail    NoiseLayer `yaml:"detail" json:"detail"`
}

type BiomeConfig struct {
	GridSize     int     `yaml:"grid_size" json:"grid_size"`
	Jitter       float64 `yaml:"jitter" json:"jitter"`
	InfluenceMin float64 `yaml:"influence_min" json:"influence_min"` // × cell size
	InfluenceMax float64 `yaml:"influence_max" json:"influence_max"` // × cell size

	GaussianCoeff       float64 `yaml:"gaussian_coeff" json:"gaussian_coeff"`
	BoundaryNoiseScale  float64 `yaml:"boundary_noise_scale" json:"boundary_noise_scale"`
	BoundaryNoiseAmount float64 `yaml:"boundary_noise_amount" json:"boundary_noise_amount"`

	MountainHeightThreshold float64 `yaml:"mountain_height_threshold" json:"mountain_height_threshold"`
	MountainWeightBoost     float64 `yaml:"mountain_weight_boost" json:"mountain_weight_boost"`
	ValleyHeightThreshold   float64 `yaml:"valley_height_threshold" json:"valley_height_threshold"`
	ValleyWeightBoost       float64 `yaml:"valley_weight_boost" json:"valley_weight_boost"`
	MountainHeightBoost     float64 `yaml:"mountain_height_boost" json:"mountain_height_boost"`
}

type PondConfig struct {
	CenterX float64 `yaml:"center_x" json:"center_x"`
	CenterZ float64 `yaml:"center_z" json:"center_z"`
	Radius  float64 `yaml:"radius" json:"radius"`
	Depth   float64 `yaml:"depth" json:"depth"` // normalized height units
}

type IslandConfig struct {
	Enabled            bool    `yaml:"enabled" json:"enabled"`
	Mode               string  `yaml:"mode" json:"mode"`
	MaxWorldSizeTiles  int     `yaml:"max_world_size_tiles" json:"max_world_size_tiles"`
	FalloffTiles       float64 `yaml:"falloff_tiles" json:"falloff_tiles"`
	EdgeNoiseScale     float64 `yaml:"edge_noise_scale" json:"edge_noise_scale"`
	EdgeNoiseStrength  float64 `yaml:"edge_noise_strength" json:"edge_noise_strength"`
	CoastlineVariation float64 `yaml:"coastline_variation" json:"coastline_variation"`
	BaseElevation      float64 `yaml:"base_elevation" json:"base_elevation"`
	FloorScale         float64 `yaml:"floor_scale" json:"floor_scale"`
	FloorVariation     float64 `yaml:"floor_variation" json:"floor_variation"`

	Pond PondConfig `yaml:"pond" json:"pond"`
}

type ShorelineConfig struct {
	LandBand                  float64 `yaml:"land_band" json:"land_band"`
	LandMaxMultiplier         float64 `yaml:"land_max_multiplier" json:"land_max_multiplier"`
	UnderwaterBand            float64 `yaml:"underwater_band" json:"underwater_band"`
	UnderwaterDepthMultiplier float64 `yaml:"underwater_depth_multiplier" json:"underwater_depth_multiplier"`
	ColorThreshold            float64 `yaml:"color_threshold" json:"color_threshold"`
	ColorStrength             float64 `yaml:"color_strength" json:"color_strength"`
}

func Defaults() Config {
	return Config{
		Seed:                 0,
		TileSize:             100,
		WorldSizeTiles:       100,
		TileResolution:       64,
		MaxHeight:            50,
		WaterThreshold:       5.4,
		NormalSampleDistance: 1,
		DomainWarpStrength:   0.35,
		Noise: NoiseLayers{
			Continent: NoiseLayer{Scale: 0.0008, Weight: 0.4, Octaves: 5, Persistence: 0.7, Lacunarity: 2.0},
			Ridge:     NoiseLayer{Scale: 0.003, Weight: 0.1, Octaves: 1, Persistence: 0.5, Lacunarity: 2.0},
			Hill:      NoiseLayer{Scale: 0.02, Weight: 0.12, Octaves: 4, Persistence: 0.6, Lacunarity: 2.2},
			Erosion:   NoiseLayer{Scale: 0.005, Weight: 0.08, Octaves: 3, Persistence: 0.5, Lacunarity: 2.0},
			Detail:    NoiseLayer{Scale: 0.04, Weight: 0.04, Octaves: 2, Persistence: 0.3, Lacunarity: 2.5},
		},
		Biome: BiomeConfig{
			GridSize:                8,
			Jitter:                  0.35,
			InfluenceMin:            0.6,
			InfluenceMax:            1.2,
			GaussianCoeff:           0.15,
			BoundaryNoiseScale:      0.003,
			BoundaryNoiseAmount:     0.15,
			MountainHeightThreshold: 0.4,
			MountainWeightBoost:     2.0,
			ValleyHeightThreshold:   0.4,
			ValleyWeightBoost:       1.5,
			MountainHeightBoost:     0.5,
		},
		Island: IslandConfig{
			Enabled:            true,
			Mode:               ModeRadial,
			MaxWorldSizeTiles:  100,
			FalloffTiles:       10,
			EdgeNoiseScale:     0.0015,
			EdgeNoiseStrength:  0.15,
			CoastlineVariation: 0.3,
			BaseElevation:      0.15,
			FloorScale:         0.0008,
			FloorVariation:     0.03,
			Pond:               PondConfig{CenterX: 400, CenterZ: -300, Radius: 60, Depth: 0.08},
		},
		Shoreline: ShorelineConfig{
			LandBand:                  0.06,
			LandMaxMultiplier:         1.6,
			UnderwaterBand:            0.05,
			UnderwaterDepthMultiplier: 1.8,
			ColorThreshold:            0.04,
			ColorStrength:             0.6,
		},
	}
}

// WorldSize is the configured world extent in meters.
func (c Config) WorldSize() float64 {
	return float64(c.WorldSizeTiles) * c.TileSize
}

// WaterLevel is WaterThreshold in normalized height units.
func (c Config) WaterLevel() float64 {
	if c.MaxHeight <= 0 {
		return 0
	}
	return c.WaterThreshold / c.MaxHeight
}

// Normalize fills fields left at their zero value where a zero is never
// meaningful.
func (c *Config) Normalize() {
	if c == nil {
		return
	}
	d := Defaults()
	if c.NormalSampleDistance <= 0 {
		c.NormalSampleDistance = d.NormalSampleDistance
	}
	c.Island.Mode = strings.ToLower(strings.TrimSpace(c.Island.Mode))
	if c.Island.Mode == "" {
		c.Island.Mode = ModeRadial
	}
	if c.Island.MaxWorldSizeTiles <= 0 {
		c.Island.MaxWorldSizeTiles = c.WorldSizeTiles
	}
	for _, l := range c.Noise.all() {
		if l.Lacunarity == 0 {
			l.Lacunarity = 2
		}
	}
}

func (n *NoiseLayers) all() []*NoiseLayer {
	return []*NoiseLayer{&n.Continent, &n.Ridge, &n.Hill, &n.Erosion, &n.Detail}
}

type namedFloat struct {
	name string
	v    float64
}

// floats lists every float field by its yaml path.
func (c Config) floats() []namedFloat {
	out := []namedFloat{
		{"tile_size", c.TileSize},
		{"max_height", c.MaxHeight},
		{"water_threshold", c.WaterThreshold},
		{"normal_sample_distance", c.NormalSampleDistance},
		{"domain_warp_strength", c.DomainWarpStrength},
	}
	names := []string{"continent", "ridge", "hill", "erosion", "detail"}
	for i, l := range c.Noise.all() {
		p := "noise." + names[i] + "."
		out = append(out,
			namedFloat{p + "scale", l.Scale},
			namedFloat{p + "weight", l.Weight},
			namedFloat{p + "persistence", l.Persistence},
			namedFloat{p + "lacunarity", l.Lacunarity})
	}
	b, is, s := c.Biome, c.Island, c.Shoreline
	return append(out,
		namedFloat{"biome.jitter", b.Jitter},
		namedFloat{"biome.influence_min", b.InfluenceMin},
		namedFloat{"biome.influence_max", b.InfluenceMax},
		namedFloat{"biome.gaussian_coeff", b.GaussianCoeff},
		namedFloat{"biome.boundary_noise_scale", b.BoundaryNoiseScale},
		namedFloat{"biome.boundary_noise_amount", b.BoundaryNoiseAmount},
		namedFloat{"biome.mountain_height_threshold", b.MountainHeightThreshold},
		namedFloat{"biome.mountain_weight_boost", b.MountainWeightBoost},
		namedFloat{"biome.valley_height_threshold", b.ValleyHeightThreshold},
		namedFloat{"biome.valley_weight_boost", b.ValleyWeightBoost},
		namedFloat{"biome.mountain_height_boost", b.MountainHeightBoost},
		namedFloat{"island.falloff_tiles", is.FalloffTiles},
		namedFloat{"island.edge_noise_scale", is.EdgeNoiseScale},
		namedFloat{"island.edge_noise_strength", is.EdgeNoiseStrength},
		namedFloat{"island.coastline_variation", is.CoastlineVariation},
		namedFloat{"island.base_elevation", is.BaseElevation},
		namedFloat{"island.floor_scale", is.FloorScale},
		namedFloat{"island.floor_variation", is.FloorVariation},
		namedFloat{"island.pond.center_x", is.Pond.CenterX},
		namedFloat{"island.pond.center_z", is.Pond.CenterZ},
		namedFloat{"island.pond.radius", is.Pond.Radius},
		namedFloat{"island.pond.depth", is.Pond.Depth},
		namedFloat{"shoreline.land_band", s.LandBand},
		namedFloat{"shoreline.land_max_multiplier", s.LandMaxMultiplier},
		namedFloat{"shoreline.underwater_band", s.UnderwaterBand},
		namedFloat{"shoreline.underwater_depth_multiplier", s.UnderwaterDepthMultiplier},
		namedFloat{"shoreline.color_threshold", s.ColorThreshold},
		namedFloat{"shoreline.color_strength", s.ColorStrength},
	)
}

func (c Config) Validate() error {
	// NaN slips through every ordered comparison below.
	for _, f := range c.floats() {
		if !mathx.Finite(f.v) {
			return fmt.Errorf("%s must be finite", f.name)
		}
	}
	if c.TileSize <= 0 {
		return fmt.Errorf("tile_size must be > 0")
	}
	if c.WorldSizeTiles <= 0 {
		return fmt.Errorf("world_size_tiles must be > 0")
	}
	if c.TileResolution < 2 {
		return fmt.Errorf("tile_resolution must be >= 2")
	}
	if c.MaxHeight <= 0 {
		return fmt.Errorf("max_height must be > 0")
	}
	if c.WaterThreshold < 0 || c.WaterThreshold >= c.MaxHeight {
		return fmt.Errorf("water_threshold must be in [0, max_height)")
	}
	if c.NormalSampleDistance <= 0 {
		return fmt.Errorf("normal_sample_distance must be > 0")
	}
	if c.DomainWarpStrength < 0 {
		return fmt.Errorf("domain_warp_strength must be >= 0")
	}

	names := []string{"continent", "ridge", "hill", "erosion", "detail"}
	total := 0.0
	for i, l := range c.Noise.all() {
		if l.Scale <= 0 {
			return fmt.Errorf("noise.%s.scale must be > 0", names[i])
		}
		if l.Weight < 0 {
			return fmt.Errorf("noise.%s.weight must be >= 0", names[i])
		}
		if l.Octaves < 1 || l.Octaves > 16 {
			return fmt.Errorf("noise.%s.octaves must be in [1, 16]", names[i])
		}
		if l.Persistence < 0 {
			return fmt.Errorf("noise.%s.persistence must be >= 0", names[i])
		}
		if l.Lacunarity <= 0 {
			return fmt.Errorf("noise.%s.lacunarity must be > 0", names[i])
		}
		total += l.Weight
	}
	if total <= 0 {
		return fmt.Errorf("noise layer weights must not all be zero")
	}

	b := c.Biome
	if b.GridSize < 1 || b.GridSize > 64 {
		return fmt.Errorf("biome.grid_size must be in [1, 64]")
	}
	if b.Jitter < 0 || b.Jitter > 0.5 {
		return fmt.Errorf("biome.jitter must be in [0, 0.5]")
	}
	if b.InfluenceMin <= 0 || b.InfluenceMax < b.InfluenceMin {
		return fmt.Errorf("biome influence range must satisfy 0 < influence_min <= influence_max")
	}
	if b.GaussianCoeff <= 0 {
		return fmt.Errorf("biome.gaussian_coeff must be > 0")
	}
	if b.BoundaryNoiseScale < 0 || b.BoundaryNoiseAmount < 0 || b.BoundaryNoiseAmount >= 1 {
		return fmt.Errorf("biome boundary noise must satisfy scale >= 0 and amount in [0, 1)")
	}
	if b.MountainWeightBoost < 0 || b.ValleyWeightBoost < 0 || b.MountainHeightBoost < 0 {
		return fmt.Errorf("biome boosts must be >= 0")
	}

	is := c.Island
	if is.Mode != ModeRadial && is.Mode != ModeNatural {
		return fmt.Errorf("island.mode must be %q or %q", ModeRadial, ModeNatural)
	}
	if is.MaxWorldSizeTiles <= 0 {
		return fmt.Errorf("island.max_world_size_tiles must be > 0")
	}
	if is.FalloffTiles < 0 {
		return fmt.Errorf("island.falloff_tiles must be >= 0")
	}
	if is.EdgeNoiseScale < 0 || is.EdgeNoiseStrength < 0 || is.EdgeNoiseStrength >= 0.5 {
		return fmt.Errorf("island edge noise must satisfy scale >= 0 and strength in [0, 0.5)")
	}
	if is.CoastlineVariation < 0 || is.CoastlineVariation >= 0.5 {
		return fmt.Errorf("island.coastline_variation must be in [0, 0.5)")
	}
	maxRadius := float64(is.MaxWorldSizeTiles) * c.TileSize / 2
	falloff := math.Max(is.FalloffTiles*c.TileSize, c.TileSize)
	if falloff >= maxRadius*(1-math.Max(is.EdgeNoiseStrength, is.CoastlineVariation)) {
		return fmt.Errorf("island falloff band must be narrower than the smallest coastline radius")
	}
	if is.BaseElevation < 0 || is.BaseElevation > 1 {
		return fmt.Errorf("island.base_elevation must be in [0, 1]")
	}
	if is.FloorScale < 0 || is.FloorVariation < 0 || is.FloorVariation > 0.05 {
		return fmt.Errorf("island floor must satisfy scale >= 0 and variation in [0, 0.05]")
	}
	if is.Pond.Radius < 0 || is.Pond.Depth < 0 || is.Pond.Depth > 1 {
		return fmt.Errorf("island.pond must satisfy radius >= 0 and depth in [0, 1]")
	}

	s := c.Shoreline
	if s.LandBand < 0 || s.UnderwaterBand < 0 || s.ColorThreshold < 0 {
		return fmt.Errorf("shoreline bands must be >= 0")
	}
	if s.LandMaxMultiplier < 1 || s.LandMaxMultiplier > 2 {
		return fmt.Errorf("shoreline.land_max_multiplier must be in [1, 2]")
	}
	if s.UnderwaterDepthMultiplier < 1 || s.UnderwaterDepthMultiplier > 2 {
		return fmt.Errorf("shoreline.underwater_depth_multiplier must be in [1, 2]")
	}
	if s.ColorStrength < 0 || s.ColorStrength > 1 {
		return fmt.Errorf("shoreline.color_strength must be in [0, 1]")
	}
	return nil
}

// Load reads a yaml file of overrides and applies them over Defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	o, err := LoadOverrides(path)
	if err != nil {
		return cfg, err
	}
	o.Apply(&cfg)
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("terrain.yaml: %w", err)
	}
	return cfg, nil
}

// LoadOverrides reads a yaml file of overrides without applying them. An
// empty path yields empty overrides.
func LoadOverrides(path string) (*Overrides, error) {
	o := &Overrides{}
	if strings.TrimSpace(path) == "" {
		return o, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return o, err
	}
	if err := yaml.Unmarshal(raw, o); err != nil {
		return o, fmt.Errorf("terrain.yaml: %w", err)
	}
	return o, nil
}
