package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 captures the complete world state plus the parameters
// needed to resume deterministically. The wire-network grouping is not
// stored: it is derived state, rebuilt from the voxels on import.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed      int64 `json:"seed"`
	TickRate  int   `json:"tick_rate_hz"`
	ObsRadius int   `json:"obs_radius"`
	Height    int   `json:"height"`
	BoundaryR int   `json:"boundary_r"`
	FloorY    int   `json:"floor_y"`

	ButtonHoldTicks int `json:"button_hold_ticks"`

	// Operational parameters (captured for deterministic replay/resume).
	SnapshotEveryTicks int          `json:"snapshot_every_ticks,omitempty"`
	RateLimits         RateLimitsV1 `json:"rate_limits,omitempty"`

	Chunks     []ChunkV1     `json:"chunks"`
	Rotations  []RotationV1  `json:"rotations,omitempty"`
	Producers  []ProducerV1  `json:"producers,omitempty"`
	GateStates []GateStateV1 `json:"gate_states,omitempty"`
	Agents     []AgentV1     `json:"agents"`

	Counters CountersV1 `json:"counters"`
}

type RateLimitsV1 struct {
	PlaceWindowTicks    int `json:"place_window_ticks,omitempty"`
	PlaceMax            int `json:"place_max,omitempty"`
	InteractWindowTicks int `json:"interact_window_ticks,omitempty"`
	InteractMax         int `json:"interact_max,omitempty"`
}

type CountersV1 struct {
	NextAgent uint64 `json:"next_agent"`
}

type ChunkV1 struct {
	CX     int      `json:"cx"`
	CY     int      `json:"cy"`
	CZ     int      `json:"cz"`
	Blocks []uint16 `json:"blocks"`
}

type RotationV1 struct {
	Pos   [3]int `json:"pos"`
	Up    string `json:"up"`
	Front string `json:"front"`
}

// ProducerV1 is one published output value on the wire graph.
type ProducerV1 struct {
	Pos    [3]int `json:"pos"`
	Dir    string `json:"dir"`
	Signal int    `json:"signal"`
}

// GateStateV1 is the sparse per-block gate state (pressed buttons,
// latched flip-flops, lit indicators).
type GateStateV1 struct {
	Pos     [3]int `json:"pos"`
	Signal  int    `json:"signal"`
	Pressed bool   `json:"pressed,omitempty"`
	Timer   int    `json:"timer,omitempty"`
	Armed   bool   `json:"armed,omitempty"`
}

type AgentV1 struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Focus [3]int `json:"focus"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
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
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Read header line (ignore it for now, gob also contains header).
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
