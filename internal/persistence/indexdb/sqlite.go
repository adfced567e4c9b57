package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"voxlogic/internal/persistence/snapshot"
	"voxlogic/internal/sim/catalogs"
	"voxlogic/internal/sim/tuning"
	"voxlogic/internal/sim/world"
)

// SQLiteIndex is a queryable secondary index over the tick/audit logs
// and snapshot files. Writes are funneled through a single goroutine;
// the JSONL logs remain the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqAudit
	reqSnapshot
)

type req struct {
	kind reqKind

	tick     world.TickLogEntry
	audit    world.AuditEntry
	snapshot snapshotRow
}

type snapshotRow struct {
	Tick       uint64
	Path       string
	Seed       int64
	Height     int
	Chunks     int
	Agents     int
	Producers  int
	GateStates int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// High buffer: allow bursty audit writes (e.g. a big circuit
		// flipping at once) without stalling the sim.
		ch: make(chan req, 262144),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			joins INTEGER NOT NULL,
			leaves INTEGER NOT NULL,
			actions INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS joins (
			tick INTEGER NOT NULL,
			agent_id TEXT NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (tick, agent_id)
		);`,
		`CREATE TABLE IF NOT EXISTS leaves (
			tick INTEGER NOT NULL,
			agent_id TEXT NOT NULL,
			PRIMARY KEY (tick, agent_id)
		);`,
		`CREATE TABLE IF NOT EXISTS actions (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			agent_id TEXT NOT NULL,
			act_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_actions_agent_tick ON actions(agent_id, tick);`,
		`CREATE TABLE IF NOT EXISTS audits (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			from_block INTEGER NOT NULL,
			to_block INTEGER NOT NULL,
			signal INTEGER NOT NULL,
			reason TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_actor_tick ON audits(actor, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_pos_tick ON audits(x, z, y, tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			seed INTEGER NOT NULL,
			height INTEGER NOT NULL,
			chunks INTEGER NOT NULL,
			agents INTEGER NOT NULL,
			producers INTEGER NOT NULL,
			gate_states INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
	}
	return nil
}

func (s *SQLiteIndex) WriteAudit(entry world.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqAudit, audit: entry}:
	default:
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Tick:       snap.Header.Tick,
		Path:       path,
		Seed:       snap.Seed,
		Height:     snap.Height,
		Chunks:     len(snap.Chunks),
		Agents:     len(snap.Agents),
		Producers:  len(snap.Producers),
		GateStates: len(snap.GateStates),
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
	}
}

func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if configDir != "" {
		if b, err := os.ReadFile(filepath.Join(configDir, "blocks.json")); err == nil && len(b) > 0 {
			rows = append(rows, kv{name: "blocks_defs", digest: cats.Blocks.DefsDigest, json: b})
		}
	}
	if b, _ := json.Marshal(cats.Blocks.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "blocks_palette", digest: cats.Blocks.PaletteDigest, json: b})
	}

	// Tuning: store the values we actually apply (canonical JSON).
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		digest := hex.EncodeToString(sum[:])
		rows = append(rows, kv{name: "tuning", digest: digest, json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	// Prepared statements (on db; executed within tx).
	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,digest,joins,leaves,actions,raw_json) VALUES(?,?,?,?,?,?)`)
	insertJoin, _ := s.db.Prepare(`INSERT OR REPLACE INTO joins(tick,agent_id,name) VALUES(?,?,?)`)
	insertLeave, _ := s.db.Prepare(`INSERT OR REPLACE INTO leaves(tick,agent_id) VALUES(?,?)`)
	insertAction, _ := s.db.Prepare(`INSERT OR REPLACE INTO actions(tick,seq,agent_id,act_json) VALUES(?,?,?,?)`)
	insertAudit, _ := s.db.Prepare(`INSERT OR REPLACE INTO audits(tick,seq,actor,action,x,y,z,from_block,to_block,signal,reason,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(tick,path,seed,height,chunks,agents,producers,gate_states) VALUES(?,?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertJoin, insertLeave, insertAction, insertAudit, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastAuditTick uint64
		auditSeq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			b, _ := json.Marshal(r.tick)
			if insertTick != nil {
				if _, err := tx.Stmt(insertTick).Exec(
					int64(r.tick.Tick),
					r.tick.Digest,
					len(r.tick.Joins),
					len(r.tick.Leaves),
					len(r.tick.Actions),
					string(b),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
			for _, j := range r.tick.Joins {
				if insertJoin == nil {
					break
				}
				if _, err := tx.Stmt(insertJoin).Exec(int64(r.tick.Tick), j.AgentID, j.Name); err != nil {
					rollback()
					break
				}
				opCount++
			}
			for _, id := range r.tick.Leaves {
				if insertLeave == nil {
					break
				}
				if _, err := tx.Stmt(insertLeave).Exec(int64(r.tick.Tick), id); err != nil {
					rollback()
					break
				}
				opCount++
			}
			for i, a := range r.tick.Actions {
				if insertAction == nil {
					break
				}
				actJSON, _ := json.Marshal(a.Act)
				if _, err := tx.Stmt(insertAction).Exec(int64(r.tick.Tick), i, a.AgentID, string(actJSON)); err != nil {
					rollback()
					break
				}
				opCount++
			}

		case reqAudit:
			a := r.audit
			if a.Tick != lastAuditTick {
				lastAuditTick = a.Tick
				auditSeq = 0
			}
			seq := auditSeq
			auditSeq++
			raw, _ := json.Marshal(a)
			if insertAudit != nil {
				if _, err := tx.Stmt(insertAudit).Exec(
					int64(a.Tick),
					seq,
					a.Actor,
					a.Action,
					a.Pos[0], a.Pos[1], a.Pos[2],
					int64(a.From),
					int64(a.To),
					a.Signal,
					a.Reason,
					string(raw),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot != nil {
				if _, err := tx.Stmt(insertSnapshot).Exec(
					int64(sn.Tick),
					sn.Path,
					sn.Seed,
					sn.Height,
					sn.Chunks,
					sn.Agents,
					sn.Producers,
					sn.GateStates,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		flushIfNeeded()
	}

	commit()
}
