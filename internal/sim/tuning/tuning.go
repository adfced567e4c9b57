package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz         int   `yaml:"tick_rate_hz"`
	TickDurationMs     int   `yaml:"tick_duration_ms"`
	ChunkSize          []int `yaml:"chunk_size"`
	WorldHeight        int   `yaml:"world_height"`
	WorldBoundaryR     int   `yaml:"world_boundary_r"`
	ObsRadius          int   `yaml:"obs_radius"`
	SnapshotEveryTicks int   `yaml:"snapshot_every_ticks"`

	Logic Logic `yaml:"logic"`

	RateLimits RateLimits `yaml:"rate_limits"`
}

type Logic struct {
	ButtonHoldTicks int `yaml:"button_hold_ticks"`
}

type RateLimits struct {
	PlaceWindowTicks    int `yaml:"place_window_ticks"`
	PlaceMax            int `yaml:"place_max"`
	InteractWindowTicks int `yaml:"interact_window_ticks"`
	InteractMax         int `yaml:"interact_max"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		TickRateHz:         5,
		TickDurationMs:     200,
		ChunkSize:          []int{16, 16, 16},
		WorldHeight:        64,
		WorldBoundaryR:     256,
		ObsRadius:          7,
		SnapshotEveryTicks: 3000,
		Logic:              Logic{ButtonHoldTicks: 10},
		RateLimits: RateLimits{
			PlaceWindowTicks:    10,
			PlaceMax:            40,
			InteractWindowTicks: 10,
			InteractMax:         20,
		},
	}
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
