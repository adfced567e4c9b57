package world

import (
	"voxlogic/internal/protocol"
	"voxlogic/internal/sim/logic"
)

func (w *World) auditSetBlock(tick uint64, actor string, pos Vec3i, from, to uint16, reason string) {
	if w.auditLogger != nil {
		_ = w.auditLogger.WriteAudit(AuditEntry{
			Tick:   tick,
			Actor:  actor,
			Action: "SET_BLOCK",
			Pos:    pos.ToArray(),
			From:   from,
			To:     to,
			Reason: reason,
		})
	}
	w.broadcastEvent(pos, protocol.Event{
		"t":    tick,
		"type": "BLOCK_CHANGED",
		"pos":  pos.ToArray(),
		"from": from,
		"to":   to,
		"by":   actor,
	})
}

func (w *World) auditEvent(tick uint64, actor, action string, pos Vec3i, signal int) {
	if w.auditLogger == nil {
		return
	}
	_ = w.auditLogger.WriteAudit(AuditEntry{
		Tick:   tick,
		Actor:  actor,
		Action: action,
		Pos:    pos.ToArray(),
		Signal: signal,
	})
}

// broadcastEvent journals an event and delivers it to every agent whose
// focus is close enough to see it.
func (w *World) broadcastEvent(pos Vec3i, e protocol.Event) {
	w.journal.Append(e)
	for _, a := range w.agents {
		if Chebyshev(a.Focus, pos) <= 2*w.cfg.ObsRadius {
			a.AddEvent(e)
		}
	}
}

// onOutputChanged observes every published output transition from the
// logic engine. Runs on the world loop goroutine, inside Tick.
func (w *World) onOutputChanged(port logic.Port, signal int) {
	tick := w.tick.Load()
	pos := FromLogic(port.Coord)
	w.auditEvent(tick, "world", "LOGIC_OUTPUT", pos, signal)
	w.broadcastEvent(pos, protocol.Event{
		"t":      tick,
		"type":   "LOGIC_OUTPUT",
		"pos":    pos.ToArray(),
		"dir":    port.Dir.String(),
		"signal": signal,
	})
}

func (w *World) onStateChanged(coord logic.Vec3i, signal int) {
	tick := w.tick.Load()
	pos := FromLogic(coord)
	w.broadcastEvent(pos, protocol.Event{
		"t":      tick,
		"type":   "LOGIC_STATE",
		"pos":    pos.ToArray(),
		"signal": signal,
	})
}
