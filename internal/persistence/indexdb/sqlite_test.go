package indexdb

import (
	"path/filepath"
	"testing"

	"voxlogic/internal/persistence/snapshot"
	"voxlogic/internal/protocol"
	"voxlogic/internal/sim/catalogs"
	"voxlogic/internal/sim/tuning"
	"voxlogic/internal/sim/world"
)

func TestSQLiteIndex_TickAuditSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := idx.WriteTick(world.TickLogEntry{
		Tick:   7,
		Digest: "d7",
		Joins:  []world.RecordedJoin{{AgentID: "A0001", Name: "tester"}},
		Actions: []world.RecordedAction{{
			AgentID: "A0001",
			Act: protocol.ActMsg{Type: protocol.TypeAct, Instants: []protocol.InstantReq{
				{ID: "i1", Type: "PLACE", Pos: [3]int{0, 4, 0}, Block: "SWITCH"},
			}},
		}},
	}); err != nil {
		t.Fatalf("write tick: %v", err)
	}
	if err := idx.WriteAudit(world.AuditEntry{
		Tick: 7, Actor: "A0001", Action: "SET_BLOCK", Pos: [3]int{0, 4, 0}, To: 9, Reason: "PLACE",
	}); err != nil {
		t.Fatalf("write audit: %v", err)
	}
	idx.RecordSnapshot("/data/snapshots/7.snap.zst", snapshot.SnapshotV1{
		Header:     snapshot.Header{Version: 1, WorldID: "w", Tick: 7},
		Seed:       42,
		Height:     32,
		Chunks:     []snapshot.ChunkV1{{CX: 0, CY: 0, CZ: 0}},
		Producers:  []snapshot.ProducerV1{{Pos: [3]int{0, 4, 0}, Dir: "+X", Signal: 1}},
		GateStates: []snapshot.GateStateV1{{Pos: [3]int{0, 4, 0}, Signal: 1}},
	})

	// Close drains the writer queue and commits.
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	idx2, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx2.Close()

	var digest string
	if err := idx2.db.QueryRow(`SELECT digest FROM ticks WHERE tick=7`).Scan(&digest); err != nil {
		t.Fatalf("query tick: %v", err)
	}
	if digest != "d7" {
		t.Fatalf("digest=%q want d7", digest)
	}

	var actor string
	var toBlock int64
	if err := idx2.db.QueryRow(`SELECT actor, to_block FROM audits WHERE tick=7 AND seq=0`).Scan(&actor, &toBlock); err != nil {
		t.Fatalf("query audit: %v", err)
	}
	if actor != "A0001" || toBlock != 9 {
		t.Fatalf("audit row: actor=%q to=%d", actor, toBlock)
	}

	var snapPath string
	var producers int
	if err := idx2.db.QueryRow(`SELECT path, producers FROM snapshots WHERE tick=7`).Scan(&snapPath, &producers); err != nil {
		t.Fatalf("query snapshot: %v", err)
	}
	if snapPath != "/data/snapshots/7.snap.zst" || producers != 1 {
		t.Fatalf("snapshot row: path=%q producers=%d", snapPath, producers)
	}

	var joins int
	if err := idx2.db.QueryRow(`SELECT COUNT(*) FROM joins WHERE tick=7`).Scan(&joins); err != nil {
		t.Fatalf("query joins: %v", err)
	}
	if joins != 1 {
		t.Fatalf("joins=%d want 1", joins)
	}
}

func TestSQLiteIndex_UpsertCatalogs(t *testing.T) {
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	tune := tuning.Defaults()

	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer idx.Close()

	if err := idx.UpsertCatalogs("../../../configs", cats, tune); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	for _, name := range []string{"blocks_defs", "blocks_palette", "tuning"} {
		var digest string
		if err := idx.db.QueryRow(`SELECT digest FROM catalogs WHERE name=?`, name).Scan(&digest); err != nil {
			t.Fatalf("catalog %s missing: %v", name, err)
		}
		if digest == "" {
			t.Fatalf("catalog %s has empty digest", name)
		}
	}
}
