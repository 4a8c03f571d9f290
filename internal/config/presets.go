package config

// TerrainPreset is a named staircase roughness level.
type TerrainPreset string

const (
	TerrainFlat   TerrainPreset = "flat"
	TerrainNormal TerrainPreset = "normal"
	TerrainRough  TerrainPreset = "rough"
)

// RoughnessForPreset returns the step orientation amplitude in radians and
// whether the preset is known.
func RoughnessForPreset(preset TerrainPreset) (float64, bool) {
	switch preset {
	case TerrainFlat:
		return 0, true
	case TerrainNormal:
		return 0.5, true
	case TerrainRough:
		return 0.8, true
	default:
		return 0, false
	}
}

// ApplyTerrainPreset sets the staircase roughness from a preset. Unknown
// presets leave cfg unchanged and return false.
func ApplyTerrainPreset(cfg *Config, preset TerrainPreset) bool {
	r, ok := RoughnessForPreset(preset)
	if ok {
		cfg.Staircase.Roughness = r
	}
	return ok
}
