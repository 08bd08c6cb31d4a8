package biome

import (
	"fmt"
	"strings"
)

// Kind is the closed set of biome types.
type Kind uint8

const (
	Plains Kind = iota
	Forest
	Valley
	Mountains
	Tundra
	Desert
	Lakes
	Swamp

	NumKinds = int(Swamp) + 1
)

// Definition is the static catalog entry for a biome kind.
type Definition struct {
	Kind              Kind
	Name              string
	BaseColor         uint32 // 0xRRGGBB
	TerrainMultiplier float64
	DifficultyLevel   int
	HeightRange       [2]float64 // normalized
	MaxSlope          float64    // 0 = unrestricted
	ResourceDensity   float64
}

var defs = [NumKinds]Definition{
	Plains:    {Kind: Plains, Name: "Plains", BaseColor: 0x7FB24F, TerrainMultiplier: 0.8, DifficultyLevel: 0, HeightRange: [2]float64{0.1, 0.45}, MaxSlope: 0.6, ResourceDensity: 0.5},
	Forest:    {Kind: Forest, Name: "Forest", BaseColor: 0x3F7A2E, TerrainMultiplier: 1.0, DifficultyLevel: 1, HeightRange: [2]float64{0.15, 0.6}, MaxSlope: 0.8, ResourceDensity: 0.8},
	Valley:    {Kind: Valley, Name: "Valley", BaseColor: 0x8CBF5A, TerrainMultiplier: 0.6, DifficultyLevel: 0, HeightRange: [2]float64{0.1, 0.35}, MaxSlope: 0.5, ResourceDensity: 0.6},
	Mountains: {Kind: Mountains, Name: "Mountains", BaseColor: 0x8A8580, TerrainMultiplier: 1.5, DifficultyLevel: 3, HeightRange: [2]float64{0.4, 1.0}, ResourceDensity: 0.4},
	Tundra:    {Kind: Tundra, Name: "Tundra", BaseColor: 0xD8E0E3, TerrainMultiplier: 0.9, DifficultyLevel: 2, HeightRange: [2]float64{0.3, 0.8}, MaxSlope: 0.9, ResourceDensity: 0.2},
	Desert:    {Kind: Desert, Name: "Desert", BaseColor: 0xD9C58C, TerrainMultiplier: 0.7, DifficultyLevel: 2, HeightRange: [2]float64{0.12, 0.4}, MaxSlope: 0.7, ResourceDensity: 0.15},
	Lakes:     {Kind: Lakes, Name: "Lakes", BaseColor: 0x5C8FA6, TerrainMultiplier: 0.5, DifficultyLevel: 0, HeightRange: [2]float64{0.0, 0.25}, MaxSlope: 0.4, ResourceDensity: 0.7},
	Swamp:     {Kind: Swamp, Name: "Swamp", BaseColor: 0x4E5E3A, TerrainMultiplier: 0.55, DifficultyLevel: 2, HeightRange: [2]float64{0.05, 0.25}, MaxSlope: 0.3, ResourceDensity: 0.6},
}

var ids = [NumKinds]string{
	Plains:    "plains",
	Forest:    "forest",
	Valley:    "valley",
	Mountains: "mountains",
	Tundra:    "tundra",
	Desert:    "desert",
	Lakes:     "lakes",
	Swamp:     "swamp",
}

// placement weights for center kinds; plains dominate.
var placementWeights = [NumKinds]float64{
	Plains:    0.30,
	Forest:    0.20,
	Valley:    0.12,
	Mountains: 0.15,
	Tundra:    0.06,
	Desert:    0.07,
	Lakes:     0.05,
	Swamp:     0.05,
}

func (k Kind) Valid() bool { return int(k) < NumKinds }

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("biome(%d)", uint8(k))
	}
	return ids[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid biome kind %d", uint8(k))
	}
	return []byte(ids[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, id := range ids {
		if id == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown biome %q", s)
}

// Def returns the catalog entry for k. k must be valid.
func Def(k Kind) Definition {
	return defs[k]
}

// Kinds lists every kind in enum order.
func Kinds() []Kind {
	out := make([]Kind, NumKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// RGB decomposes a packed 0xRRGGBB color into [0,1] channels.
func RGB(c uint32) (r, g, b float64) {
	return float64((c>>16)&0xff) / 255, float64((c>>8)&0xff) / 255, float64(c&0xff) / 255
}
