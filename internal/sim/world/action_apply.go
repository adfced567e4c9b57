package world

import (
	"fmt"

	"voxlogic/internal/protocol"
)

const actStaleWindow = 2

func actionResult(tick uint64, ref string, ok bool, code, message string) protocol.Event {
	e := protocol.Event{
		"t":    tick,
		"type": "ACTION_RESULT",
		"ref":  ref,
		"ok":   ok,
	}
	if code != "" {
		e["code"] = code
	}
	if message != "" {
		e["message"] = message
	}
	return e
}

// applyAct validates and applies one ACT envelope at the tick boundary.
// Instants run in request order; each reports an ACTION_RESULT event.
func (w *World) applyAct(tick uint64, env ActionEnvelope) {
	a := w.agents[env.AgentID]
	if a == nil {
		return
	}
	act := env.Act
	if act.Tick != 0 && (act.Tick > tick || tick-act.Tick > actStaleWindow) {
		a.AddEvent(actionResult(tick, "", false, protocol.ErrConflict,
			fmt.Sprintf("act tick %d outside window ending at %d", act.Tick, tick)))
		return
	}
	for _, in := range act.Instants {
		w.applyInstant(tick, a, in)
	}
}

func (w *World) applyInstant(tick uint64, a *Agent, in protocol.InstantReq) {
	fail := func(code, message string) {
		a.AddEvent(actionResult(tick, in.ID, false, code, message))
	}
	pos := FromArray(in.Pos)

	switch in.Type {
	case "FOCUS":
		if !w.chunks.inBounds(pos) {
			fail(protocol.ErrOutOfBounds, "focus outside world")
			return
		}
		a.Focus = pos

	case "PLACE":
		if ok, cd := a.RateLimitAllow("place", tick, uint64(w.cfg.RateLimits.PlaceWindowTicks), w.cfg.RateLimits.PlaceMax); !ok {
			fail(protocol.ErrRateLimit, fmt.Sprintf("retry in %d ticks", cd))
			return
		}
		if !w.chunks.inBounds(pos) {
			fail(protocol.ErrOutOfBounds, "outside world")
			return
		}
		if w.chunks.GetBlock(pos) != w.chunks.gen.Air {
			fail(protocol.ErrOccupied, "cell not empty")
			return
		}
		bid, ok := w.catalogs.Blocks.Index[in.Block]
		if !ok || bid == w.chunks.gen.Air {
			fail(protocol.ErrBadRequest, fmt.Sprintf("unknown block %q", in.Block))
			return
		}
		rot, ok := parseRotation(in.Up, in.Front)
		if !ok {
			fail(protocol.ErrBadRequest, "invalid rotation")
			return
		}
		w.chunks.SetBlock(pos, bid)
		w.chunks.SetRotation(pos, rot)
		w.engine.BlockPlaced(pos.ToLogic())
		w.auditSetBlock(tick, a.ID, pos, w.chunks.gen.Air, bid, "PLACE")

	case "MINE":
		if ok, cd := a.RateLimitAllow("place", tick, uint64(w.cfg.RateLimits.PlaceWindowTicks), w.cfg.RateLimits.PlaceMax); !ok {
			fail(protocol.ErrRateLimit, fmt.Sprintf("retry in %d ticks", cd))
			return
		}
		if !w.chunks.inBounds(pos) {
			fail(protocol.ErrOutOfBounds, "outside world")
			return
		}
		old := w.chunks.GetBlock(pos)
		if old == w.chunks.gen.Air {
			fail(protocol.ErrInvalidTarget, "nothing to mine")
			return
		}
		def := w.catalogs.Blocks.Defs[w.catalogs.Blocks.Palette[old]]
		if !def.Breakable {
			fail(protocol.ErrNotEditable, "block is not breakable")
			return
		}
		oldRot := w.chunks.GetRotation(pos)
		w.chunks.SetBlock(pos, w.chunks.gen.Air)
		w.chunks.ClearRotation(pos)
		w.engine.BlockRemoved(pos.ToLogic(), old, oldRot)
		w.auditSetBlock(tick, a.ID, pos, old, w.chunks.gen.Air, "MINE")

	case "ROTATE":
		if !w.chunks.inBounds(pos) {
			fail(protocol.ErrOutOfBounds, "outside world")
			return
		}
		if w.chunks.GetBlock(pos) == w.chunks.gen.Air {
			fail(protocol.ErrInvalidTarget, "nothing to rotate")
			return
		}
		rot, ok := parseRotation(in.Up, in.Front)
		if !ok {
			fail(protocol.ErrBadRequest, "invalid rotation")
			return
		}
		oldRot := w.chunks.GetRotation(pos)
		if rot != oldRot {
			w.chunks.SetRotation(pos, rot)
			w.engine.BlockRotated(pos.ToLogic(), oldRot)
			w.auditEvent(tick, a.ID, "ROTATE", pos, 0)
		}

	case "INTERACT":
		if ok, cd := a.RateLimitAllow("interact", tick, uint64(w.cfg.RateLimits.InteractWindowTicks), w.cfg.RateLimits.InteractMax); !ok {
			fail(protocol.ErrRateLimit, fmt.Sprintf("retry in %d ticks", cd))
			return
		}
		if !w.chunks.inBounds(pos) {
			fail(protocol.ErrOutOfBounds, "outside world")
			return
		}
		if !w.engine.Interact(pos.ToLogic()) {
			fail(protocol.ErrInvalidTarget, "block is not interactive")
			return
		}
		w.auditEvent(tick, a.ID, "INTERACT", pos, 0)

	default:
		fail(protocol.ErrBadRequest, fmt.Sprintf("unknown instant type %q", in.Type))
		return
	}

	a.AddEvent(actionResult(tick, in.ID, true, "", ""))
}
