package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"voxlogic/internal/sim/world"
)

func TestTickLogger_WritesCompressedJSONL(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)

	entries := []world.TickLogEntry{
		{Tick: 1, Digest: "d1"},
		{Tick: 2, Digest: "d2", Leaves: []string{"A0001"}},
		{Tick: 3, Digest: "d3", Joins: []world.RecordedJoin{{AgentID: "A0002", Name: "bot"}}},
	}
	for _, e := range entries {
		if err := l.WriteTick(e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "events", "*.jsonl.zst"))
	if err != nil || len(files) != 1 {
		t.Fatalf("expected one log file, got %v (err=%v)", files, err)
	}

	f, err := os.Open(files[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()

	var got []world.TickLogEntry
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var e world.TickLogEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad line: %v", err)
		}
		got = append(got, e)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(got), len(entries))
	}
	for i := range entries {
		if got[i].Tick != entries[i].Tick || got[i].Digest != entries[i].Digest {
			t.Fatalf("entry %d mismatch: %+v vs %+v", i, got[i], entries[i])
		}
	}
}

func TestAuditLogger_WritesUnderAuditDir(t *testing.T) {
	dir := t.TempDir()
	l := NewAuditLogger(dir)
	if err := l.WriteAudit(world.AuditEntry{Tick: 9, Actor: "A0001", Action: "SET_BLOCK", Pos: [3]int{1, 2, 3}, To: 5}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	files, _ := filepath.Glob(filepath.Join(dir, "audit", "audit-*.jsonl.zst"))
	if len(files) != 1 {
		t.Fatalf("expected one audit file, got %v", files)
	}
}
