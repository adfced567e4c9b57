package snapshot

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestSnapshot_WriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "42.snap.zst")

	snap := SnapshotV1{
		Header:          Header{Version: 1, WorldID: "w_test", Tick: 42},
		Seed:            1337,
		TickRate:        5,
		ObsRadius:       7,
		Height:          32,
		BoundaryR:       64,
		FloorY:          4,
		ButtonHoldTicks: 10,
		Chunks: []ChunkV1{
			{CX: 0, CY: 0, CZ: 0, Blocks: []uint16{0, 1, 2, 3}},
			{CX: -1, CY: 0, CZ: 0, Blocks: []uint16{8, 8, 8, 8}},
		},
		Rotations:  []RotationV1{{Pos: [3]int{0, 4, 0}, Up: "+X", Front: "+Z"}},
		Producers:  []ProducerV1{{Pos: [3]int{0, 4, 0}, Dir: "-Z", Signal: 1}},
		GateStates: []GateStateV1{{Pos: [3]int{0, 4, 2}, Signal: 1, Pressed: true, Timer: 3}},
		Agents:     []AgentV1{{ID: "A0001", Name: "tester", Focus: [3]int{0, 4, 0}}},
		Counters:   CountersV1{NextAgent: 1},
	}

	if err := WriteSnapshot(path, snap); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(got, snap) {
		t.Fatalf("roundtrip mismatch:\n got %+v\nwant %+v", got, snap)
	}
}

func TestSnapshot_ReadMissingFile(t *testing.T) {
	if _, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope.snap.zst")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
