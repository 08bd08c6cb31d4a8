package tuning

// Overrides is a partial Config. A nil field leaves the target untouched,
// so presets and callers can be layered field by field:
// Defaults -> preset -> caller.
type Overrides struct {
	Seed           *int64   `yaml:"seed,omitempty" json:"seed,omitempty"`
	TileSize       *float64 `yaml:"tile_size,omitempty" json:"tile_size,omitempty"`
	WorldSizeTiles *int     `yaml:"world_size_tiles,omitempty" json:"world_size_tiles,omitempty"`
	TileResolution *int     `yaml:"tile_resolution,omitempty" json:"tile_resolution,omitempty"`
	MaxHeight      *float64 `yaml:"max_height,omitempty" json:"max_height,omitempty"`
	WaterThreshold *float64 `yaml:"water_threshold,omitempty" json:"water_threshold,omitempty"`

	NormalSampleDistance *float64 `yaml:"normal_sample_distance,omitempty" json:"normal_sample_distance,omitempty"`
	DomainWarpStrength   *float64 `yaml:"domain_warp_strength,omitempty" json:"domain_warp_strength,omitempty"`

	Noise     *NoiseOverrides     `yaml:"noise,omitempty" json:"noise,omitempty"`
	Biome     *BiomeOverrides     `yaml:"biome,omitempty" json:"biome,omitempty"`
	Island    *IslandOverrides    `yaml:"island,omitempty" json:"island,omitempty"`
	Shoreline *ShorelineOverrides `yaml:"shoreline,omitempty" json:"shoreline,omitempty"`
}

type NoiseLayerOverrides struct {
	Scale       *float64 `yaml:"scale,omitempty" json:"scale,omitempty"`
	Weight      *float64 `yaml:"weight,omitempty" json:"weight,omitempty"`
	Octaves     *int     `yaml:"octaves,omitempty" json:"octaves,omitempty"`
	Persistence *float64 `yaml:"persistence,omitempty" json:"persistence,omitempty"`
	Lacunarity  *float64 `yaml:"lacunarity,omitempty" json:"lacunarity,omitempty"`
}

type NoiseOverrides struct {
	Continent *NoiseLayerOverrides `yaml:"continent,omitempty" json:"continent,omitempty"`
	Ridge     *NoiseLayerOverrides `yaml:"ridge,omitempty" json:"ridge,omitempty"`
	Hill      *NoiseLayerOverrides `yaml:"hill,omitempty" json:"hill,omitempty"`
	Erosion   *NoiseLayerOverrides `yaml:"erosion,omitempty" json:"erosion,omitempty"`
	Detail    *NoiseLayerOverrides `yaml:"detail,omitempty" json:"detail,omitempty"`
}

type BiomeOverrides struct {
	GridSize                *int     `yaml:"grid_size,omitempty" json:"grid_size,omitempty"`
	Jitter                  *float64 `yaml:"jitter,omitempty" json:"jitter,omitempty"`
	InfluenceMin            *float64 `yaml:"influence_min,omitempty" json:"influence_min,omitempty"`
	InfluenceMax            *float64 `yaml:"influence_max,omitempty" json:"influence_max,omitempty"`
	GaussianCoeff           *float64 `yaml:"gaussian_coeff,omitempty" json:"gaussian_coeff,omitempty"`
	BoundaryNoiseScale      *float64 `yaml:"boundary_noise_scale,omitempty" json:"boundary_noise_scale,omitempty"`
	BoundaryNoiseAmount     *float64 `yaml:"boundary_noise_amount,omitempty" json:"boundary_noise_amount,omitempty"`
	MountainHeightThreshold *float64 `yaml:"mountain_height_threshold,omitempty" json:"mountain_height_threshold,omitempty"`
	MountainWeightBoost     *float64 `yaml:"mountain_weight_boost,omitempty" json:"mountain_weight_boost,omitempty"`
	ValleyHeightThreshold   *float64 `yaml:"valley_height_threshold,omitempty" json:"valley_height_threshold,omitempty"`
	ValleyWeightBoost       *float64 `yaml:"valley_weight_boost,omitempty" json:"valley_weight_boost,omitempty"`
	MountainHeightBoost     *float64 `yaml:"mountain_height_boost,omitempty" json:"mountain_height_boost,omitempty"`
}

type PondOverrides struct {
	CenterX *float64 `yaml:"center_x,omitempty" json:"center_x,omitempty"`
	CenterZ *float64 `yaml:"center_z,omitempty" json:"center_z,omitempty"`
	Radius  *float64 `yaml:"radius,omitempty" json:"radius,omitempty"`
	Depth   *float64 `yaml:"depth,omitempty" json:"depth,omitempty"`
}

type IslandOverrides struct {
	Enabled            *bool          `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Mode               *string        `yaml:"mode,omitempty" json:"mode,omitempty"`
	MaxWorldSizeTiles  *int           `yaml:"max_world_size_tiles,omitempty" json:"max_world_size_tiles,omitempty"`
	FalloffTiles       *float64       `yaml:"falloff_tiles,omitempty" json:"falloff_tiles,omitempty"`
	EdgeNoiseScale     *float64       `yaml:"edge_noise_scale,omitempty" json:"edge_noise_scale,omitempty"`
	EdgeNoiseStrength  *float64       `yaml:"edge_noise_strength,omitempty" json:"edge_noise_strength,omitempty"`
	CoastlineVariation *float64       `yaml:"coastline_variation,omitempty" json:"coastline_variation,omitempty"`
	BaseElevation      *float64       `yaml:"base_elevation,omitempty" json:"base_elevation,omitempty"`
	FloorScale         *float64       `yaml:"floor_scale,omitempty" json:"floor_scale,omitempty"`
	FloorVariation     *float64       `yaml:"floor_variation,omitempty" json:"floor_variation,omitempty"`
	Pond               *PondOverrides `yaml:"pond,omitempty" json:"pond,omitempty"`
}

type ShorelineOverrides struct {
	LandBand                  *float64 `yaml:"land_band,omitempty" json:"land_band,omitempty"`
	LandMaxMultiplier         *float64 `yaml:"land_max_multiplier,omitempty" json:"land_max_multiplier,omitempty"`
	UnderwaterBand            *float64 `yaml:"underwater_band,omitempty" json:"underwater_band,omitempty"`
	UnderwaterDepthMultiplier *float64 `yaml:"underwater_depth_multiplier,omitempty" json:"underwater_depth_multiplier,omitempty"`
	ColorThreshold            *float64 `yaml:"color_threshold,omitempty" json:"color_threshold,omitempty"`
	ColorStrength             *float64 `yaml:"color_strength,omitempty" json:"color_strength,omitempty"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Apply writes every non-nil field of o into c.
func (o *Overrides) Apply(c *Config) {
	if o == nil || c == nil {
		return
	}
	set(&c.Seed, o.Seed)
	set(&c.TileSize, o.TileSize)
	set(&c.WorldSizeTiles, o.WorldSizeTiles)
	set(&c.TileResolution, o.TileResolution)
	set(&c.MaxHeight, o.MaxHeight)
	set(&c.WaterThreshold, o.WaterThreshold)
	set(&c.NormalSampleDistance, o.NormalSampleDistance)
	set(&c.DomainWarpStrength, o.DomainWarpStrength)

	o.Noise.apply(&c.Noise)
	o.Biome.apply(&c.Biome)
	o.Island.apply(&c.Island)
	o.Shoreline.apply(&c.Shoreline)
}

func (o *NoiseOverrides) apply(n *NoiseLayers) {
	if o == nil {
		return
	}
	o.Continent.apply(&n.Continent)
	o.Ridge.apply(&n.Ridge)
	o.Hill.apply(&n.Hill)
	o.Erosion.apply(&n.Erosion)
	o.Detail.apply(&n.Detail)
}

func (o *NoiseLayerOverrides) apply(l *NoiseLayer) {
	if o == nil {
		return
	}
	set(&l.Scale, o.Scale)
	set(&l.Weight, o.Weight)
	set(&l.Octaves, o.Octaves)
	set(&l.Persistence, o.Persistence)
	set(&l.Lacunarity, o.Lacunarity)
}

func (o *BiomeOverrides) apply(b *BiomeConfig) {
	if o == nil {
		return
	}
	set(&b.GridSize, o.GridSize)
	set(&b.Jitter, o.Jitter)
	set(&b.InfluenceMin, o.InfluenceMin)
	set(&b.InfluenceMax, o.InfluenceMax)
	set(&b.GaussianCoeff, o.GaussianCoeff)
	set(&b.BoundaryNoiseScale, o.BoundaryNoiseScale)
	set(&b.BoundaryNoiseAmount, o.BoundaryNoiseAmount)
	set(&b.MountainHeightThreshold, o.MountainHeightThreshold)
	set(&b.MountainWeightBoost, o.MountainWeightBoost)
	set(&b.ValleyHeightThreshold, o.ValleyHeightThreshold)
	set(&b.ValleyWeightBoost, o.ValleyWeightBoost)
	set(&b.MountainHeightBoost, o.MountainHeightBoost)
}

func (o *IslandOverrides) apply(is *IslandConfig) {
	if o == nil {
		return
	}
	set(&is.Enabled, o.Enabled)
	set(&is.Mode, o.Mode)
	set(&is.MaxWorldSizeTiles, o.MaxWorldSizeTiles)
	set(&is.FalloffTiles, o.FalloffTiles)
	set(&is.EdgeNoiseScale, o.EdgeNoiseScale)
	set(&is.EdgeNoiseStrength, o.EdgeNoiseStrength)
	set(&is.CoastlineVariation, o.CoastlineVariation)
	set(&is.BaseElevation, o.BaseElevation)
	set(&is.FloorScale, o.FloorScale)
	set(&is.FloorVariation, o.FloorVariation)
	if o.Pond != nil {
		set(&is.Pond.CenterX, o.Pond.CenterX)
		set(&is.Pond.CenterZ, o.Pond.CenterZ)
		set(&is.Pond.Radius, o.Pond.Radius)
		set(&is.Pond.Depth, o.Pond.Depth)
	}
}

func (o *ShorelineOverrides) apply(s *ShorelineConfig) {
	if o == nil {
		return
	}
	set(&s.LandBand, o.LandBand)
	set(&s.LandMaxMultiplier, o.LandMaxMultiplier)
	set(&s.UnderwaterBand, o.UnderwaterBand)
	set(&s.UnderwaterDepthMultiplier, o.UnderwaterDepthMultiplier)
	set(&s.ColorThreshold, o.ColorThreshold)
	set(&s.ColorStrength, o.ColorStrength)
}

// Ptr is a convenience for building Overrides literals.
func Ptr[T any](v T) *T { return &v }
