// Package log persists the simulation history as compressed JSONL: one
// stream of per-tick entries (the replay journal) and one of audit
// entries, each in its own subdirectory with hourly file rotation.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"voxlogic/internal/sim/world"
)

// rotatingJSONL appends one JSON document per line to an hourly-rotated
// zstd stream. Lines are flushed through the buffered writer as they
// arrive; the zstd frame is finished on rotation or Close.
type rotatingJSONL struct {
	dir    string
	prefix string

	mu   sync.Mutex
	hour string
	file *os.File
	zw   *zstd.Encoder
	buf  *bufio.Writer
}

func newRotatingJSONL(dir, prefix string) *rotatingJSONL {
	return &rotatingJSONL{dir: dir, prefix: prefix}
}

func (r *rotatingJSONL) write(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != r.hour {
		if err := r.openLocked(hour); err != nil {
			return err
		}
	}
	if _, err := r.buf.Write(line); err != nil {
		return err
	}
	if err := r.buf.WriteByte('\n'); err != nil {
		return err
	}
	return r.buf.Flush()
}

func (r *rotatingJSONL) openLocked(hour string) error {
	if err := r.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return err
	}
	name := filepath.Join(r.dir, fmt.Sprintf("%s-%s.jsonl.zst", r.prefix, hour))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	r.file = f
	r.zw = zw
	r.buf = bufio.NewWriterSize(zw, 64*1024)
	r.hour = hour
	return nil
}

func (r *rotatingJSONL) closeLocked() error {
	var err error
	if r.buf != nil {
		_ = r.buf.Flush()
		r.buf = nil
	}
	if r.zw != nil {
		err = r.zw.Close()
		r.zw = nil
	}
	if r.file != nil {
		_ = r.file.Close()
		r.file = nil
	}
	return err
}

func (r *rotatingJSONL) close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeLocked()
}

// TickLogger records one entry per simulation tick. Together with the
// recorded inputs in each entry it makes a run replayable.
type TickLogger struct{ w *rotatingJSONL }

func NewTickLogger(worldDir string) *TickLogger {
	return &TickLogger{w: newRotatingJSONL(filepath.Join(worldDir, "events"), "events")}
}

func (l *TickLogger) WriteTick(v world.TickLogEntry) error { return l.w.write(v) }
func (l *TickLogger) Close() error                         { return l.w.close() }

// AuditLogger records who changed what: block edits, interactions and
// published logic outputs.
type AuditLogger struct{ w *rotatingJSONL }

func NewAuditLogger(worldDir string) *AuditLogger {
	return &AuditLogger{w: newRotatingJSONL(filepath.Join(worldDir, "audit"), "audit")}
}

func (l *AuditLogger) WriteAudit(v world.AuditEntry) error { return l.w.write(v) }
func (l *AuditLogger) Close() error                        { return l.w.close() }
