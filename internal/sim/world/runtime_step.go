package world

import (
	"encoding/json"
	"sort"
)

// step advances the simulation by one tick. Order is fixed: leaves,
// joins, actions in arrival order, then the logic engine's two-phase
// tick, then per-agent observations. The resulting state digest goes to
// the tick log, which together with the recorded inputs makes the run
// replayable.
func (w *World) step(joins []JoinRequest, leaves []string, acts []ActionEnvelope) (uint64, string) {
	tick := w.tick.Add(1)
	entry := TickLogEntry{Tick: tick}

	for _, id := range leaves {
		w.handleLeave(id)
		entry.Leaves = append(entry.Leaves, id)
	}

	for _, jr := range joins {
		resp := w.joinAgent(jr.Name, jr.Out)
		entry.Joins = append(entry.Joins, RecordedJoin{AgentID: resp.Welcome.AgentID, Name: jr.Name})
		if jr.Resp != nil {
			jr.Resp <- resp
		}
	}

	for _, env := range acts {
		w.applyAct(tick, env)
		entry.Actions = append(entry.Actions, RecordedAction{AgentID: env.AgentID, Act: env.Act})
	}

	w.engine.Tick()

	for _, id := range w.sortedAgentIDs() {
		a := w.agents[id]
		cl := w.clients[id]
		if cl == nil {
			// No client attached: keep events for a future reconnect,
			// but bound the backlog.
			if len(a.Events) > 256 {
				a.Events = a.Events[len(a.Events)-256:]
			}
			continue
		}
		obs := w.buildObs(tick, a)
		if b, err := json.Marshal(obs); err == nil {
			sendLatest(cl.Out, b)
		}
	}

	entry.Digest = w.stateDigest(tick)
	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(entry)
	}

	if w.snapshotSink != nil && w.cfg.SnapshotEveryTicks > 0 && tick%uint64(w.cfg.SnapshotEveryTicks) == 0 {
		snap := w.ExportSnapshot()
		select {
		case w.snapshotSink <- snap:
		default:
			// Sink busy: skip this cadence rather than stall the loop.
		}
	}

	return tick, entry.Digest
}

// StepOnce runs a single tick synchronously. Intended for tests and
// deterministic replay; must not race with Run.
func (w *World) StepOnce(joins []JoinRequest, leaves []string, acts []ActionEnvelope) (uint64, string) {
	return w.step(joins, leaves, acts)
}

func (w *World) sortedAgentIDs() []string {
	ids := make([]string, 0, len(w.agents))
	for id := range w.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
