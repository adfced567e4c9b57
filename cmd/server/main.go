package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"voxlogic/internal/persistence/indexdb"
	persistlog "voxlogic/internal/persistence/log"
	"voxlogic/internal/persistence/snapshot"
	"voxlogic/internal/sim/catalogs"
	"voxlogic/internal/sim/tuning"
	"voxlogic/internal/sim/world"
	"voxlogic/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "world_1", "world id")
		seed       = flag.Int64("seed", 1337, "world seed (used only when starting a fresh world)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable sqlite indexing (tick/audit + catalogs + snapshot metadata)")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}

	var w *world.World
	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(worldDir)
	}

	// Load tuning (required for fresh world; optional for snapshot resumes).
	tune, tuneErr := tuning.Load(tp)
	if tuneErr != nil {
		if snapshotToLoad == "" {
			logger.Fatalf("load tuning: %v", tuneErr)
		}
		// Resume fallback: the snapshot carries the effective parameters.
		if os.IsNotExist(tuneErr) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", tuneErr)
		}
	}

	// Optional: read-model index (does not affect sim determinism).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(worldDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index db: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index db: upsert catalogs: %v", err)
		}
	}

	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.WorldID != "" && snap.Header.WorldID != *worldID {
			logger.Fatalf("snapshot world id mismatch: flag=%s snap=%s", *worldID, snap.Header.WorldID)
		}
		w, err = world.NewFromSnapshot(snap, cats)
		if err != nil {
			logger.Fatalf("world from snapshot: %v", err)
		}
		logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotToLoad), w.CurrentTick())
	} else {
		w, err = world.New(world.WorldConfig{
			ID:                 *worldID,
			TickRateHz:         tune.TickRateHz,
			ObsRadius:          tune.ObsRadius,
			Height:             tune.WorldHeight,
			Seed:               *seed,
			BoundaryR:          tune.WorldBoundaryR,
			ButtonHoldTicks:    tune.Logic.ButtonHoldTicks,
			SnapshotEveryTicks: tune.SnapshotEveryTicks,
			RateLimits: world.RateLimitConfig{
				PlaceWindowTicks:    tune.RateLimits.PlaceWindowTicks,
				PlaceMax:            tune.RateLimits.PlaceMax,
				InteractWindowTicks: tune.RateLimits.InteractWindowTicks,
				InteractMax:         tune.RateLimits.InteractMax,
			},
		}, cats)
		if err != nil {
			logger.Fatalf("world: %v", err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	tickLog := persistlog.NewTickLogger(worldDir)
	auditLog := persistlog.NewAuditLogger(worldDir)
	defer tickLog.Close()
	defer auditLog.Close()
	w.SetTickLogger(multiTickLogger{a: tickLog, b: tickIndexOrNil(idx)})
	w.SetAuditLogger(multiAuditLogger{a: auditLog, b: auditIndexOrNil(idx)})

	// Snapshot writer.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := filepath.Join(worldDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
			}
		}
	}()

	go w.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		m := w.Metrics()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP voxlogic_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE voxlogic_world_tick gauge\n")
		fmt.Fprintf(rw, "voxlogic_world_tick{world=%q} %d\n", *worldID, m.Tick)

		fmt.Fprintf(rw, "# HELP voxlogic_world_agents Current number of agents in the world.\n")
		fmt.Fprintf(rw, "# TYPE voxlogic_world_agents gauge\n")
		fmt.Fprintf(rw, "voxlogic_world_agents{world=%q} %d\n", *worldID, m.Agents)

		fmt.Fprintf(rw, "# HELP voxlogic_world_queue_depth Channel backlog depth.\n")
		fmt.Fprintf(rw, "# TYPE voxlogic_world_queue_depth gauge\n")
		fmt.Fprintf(rw, "voxlogic_world_queue_depth{world=%q,queue=%q} %d\n", *worldID, "inbox", m.QueueDepths.Inbox)
		fmt.Fprintf(rw, "voxlogic_world_queue_depth{world=%q,queue=%q} %d\n", *worldID, "join", m.QueueDepths.Join)
		fmt.Fprintf(rw, "voxlogic_world_queue_depth{world=%q,queue=%q} %d\n", *worldID, "leave", m.QueueDepths.Leave)
		fmt.Fprintf(rw, "voxlogic_world_queue_depth{world=%q,queue=%q} %d\n", *worldID, "attach", m.QueueDepths.Attach)
	})

	enableAdminHTTP := envBool("VL_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	enablePprofHTTP := envBool("VL_ENABLE_PPROF_HTTP", false)
	if enableAdminHTTP {
		// Local-only admin endpoints (do not affect simulation determinism).
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				WorldID string             `json:"world_id"`
				Tick    uint64             `json:"tick"`
				Metrics world.WorldMetrics `json:"metrics"`
			}{
				WorldID: *worldID,
				Tick:    w.CurrentTick(),
				Metrics: w.Metrics(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
	} else {
		logger.Printf("admin endpoints disabled (VL_ENABLE_ADMIN_HTTP=false)")
	}
	if enablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (VL_ENABLE_PPROF_HTTP=false)")
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func latestSnapshot(worldDir string) string {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		base := strings.TrimSuffix(name, ".snap.zst")
		tick, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func tickIndexOrNil(idx *indexdb.SQLiteIndex) world.TickLogger {
	if idx == nil {
		return nil
	}
	return idx
}

func auditIndexOrNil(idx *indexdb.SQLiteIndex) world.AuditLogger {
	if idx == nil {
		return nil
	}
	return idx
}

type multiTickLogger struct {
	a world.TickLogger
	b world.TickLogger
}

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}

type multiAuditLogger struct {
	a world.AuditLogger
	b world.AuditLogger
}

func (m multiAuditLogger) WriteAudit(entry world.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}
