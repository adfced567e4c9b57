package world

import (
	"fmt"
	"sort"

	"voxlogic/internal/persistence/snapshot"
	"voxlogic/internal/sim/catalogs"
	"voxlogic/internal/sim/logic"
)

const snapshotVersion = 1

// ExportSnapshot captures the world for persistence. Must run on the
// world loop goroutine (or via StepOnce-driven tests).
func (w *World) ExportSnapshot() snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshotVersion,
			WorldID: w.cfg.ID,
			Tick:    w.tick.Load(),
		},
		Seed:               w.cfg.Seed,
		TickRate:           w.cfg.TickRateHz,
		ObsRadius:          w.cfg.ObsRadius,
		Height:             w.cfg.Height,
		BoundaryR:          w.cfg.BoundaryR,
		FloorY:             w.cfg.FloorY,
		ButtonHoldTicks:    w.cfg.ButtonHoldTicks,
		SnapshotEveryTicks: w.cfg.SnapshotEveryTicks,
		RateLimits: snapshot.RateLimitsV1{
			PlaceWindowTicks:    w.cfg.RateLimits.PlaceWindowTicks,
			PlaceMax:            w.cfg.RateLimits.PlaceMax,
			InteractWindowTicks: w.cfg.RateLimits.InteractWindowTicks,
			InteractMax:         w.cfg.RateLimits.InteractMax,
		},
		Counters: snapshot.CountersV1{NextAgent: w.nextAgentNum.Load()},
	}

	for _, k := range w.chunks.LoadedChunkKeys() {
		ch := w.chunks.chunks[k]
		blocks := make([]uint16, len(ch.Blocks))
		copy(blocks, ch.Blocks)
		snap.Chunks = append(snap.Chunks, snapshot.ChunkV1{CX: k.CX, CY: k.CY, CZ: k.CZ, Blocks: blocks})
	}

	for _, pos := range w.chunks.Rotations() {
		r := w.chunks.GetRotation(pos)
		snap.Rotations = append(snap.Rotations, snapshot.RotationV1{
			Pos:   pos.ToArray(),
			Up:    r.Up.String(),
			Front: r.Front.String(),
		})
	}

	producers := w.engine.Driver().Producers()
	ports := make([]logic.Port, 0, len(producers))
	for p := range producers {
		ports = append(ports, p)
	}
	sort.Slice(ports, func(i, j int) bool { return portLessDigest(ports[i], ports[j]) })
	for _, p := range ports {
		snap.Producers = append(snap.Producers, snapshot.ProducerV1{
			Pos:    FromLogic(p.Coord).ToArray(),
			Dir:    p.Dir.String(),
			Signal: producers[p],
		})
	}

	states := w.engine.States()
	coords := make([]logic.Vec3i, 0, len(states))
	for c := range states {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool { return coords[i].Less(coords[j]) })
	for _, c := range coords {
		s := states[c]
		snap.GateStates = append(snap.GateStates, snapshot.GateStateV1{
			Pos:     FromLogic(c).ToArray(),
			Signal:  s.Signal,
			Pressed: s.Pressed,
			Timer:   s.Timer,
			Armed:   s.Armed,
		})
	}

	for _, id := range w.sortedAgentIDs() {
		a := w.agents[id]
		snap.Agents = append(snap.Agents, snapshot.AgentV1{ID: a.ID, Name: a.Name, Focus: a.Focus.ToArray()})
	}

	return snap
}

// NewFromSnapshot rebuilds a world from a snapshot. The wire-network
// graph is derived state: it is reconstructed by replaying block
// placements, then overlaying the saved producer values and gate states.
func NewFromSnapshot(snap snapshot.SnapshotV1, cats *catalogs.Catalogs) (*World, error) {
	if snap.Header.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	cfg := WorldConfig{
		ID:                 snap.Header.WorldID,
		TickRateHz:         snap.TickRate,
		ObsRadius:          snap.ObsRadius,
		Height:             snap.Height,
		Seed:               snap.Seed,
		BoundaryR:          snap.BoundaryR,
		FloorY:             snap.FloorY,
		ButtonHoldTicks:    snap.ButtonHoldTicks,
		SnapshotEveryTicks: snap.SnapshotEveryTicks,
		RateLimits: RateLimitConfig{
			PlaceWindowTicks:    snap.RateLimits.PlaceWindowTicks,
			PlaceMax:            snap.RateLimits.PlaceMax,
			InteractWindowTicks: snap.RateLimits.InteractWindowTicks,
			InteractMax:         snap.RateLimits.InteractMax,
		},
	}
	w, err := New(cfg, cats)
	if err != nil {
		return nil, err
	}

	// Silence event hooks while restoring: replay is not observable.
	w.engine.OnOutputChanged = nil
	w.engine.OnStateChanged = nil

	for _, c := range snap.Chunks {
		w.chunks.restoreChunk(c.CX, c.CY, c.CZ, c.Blocks)
	}

	var logicCoords []Vec3i
	for _, r := range snap.Rotations {
		rot, ok := parseRotation(r.Up, r.Front)
		if !ok {
			return nil, fmt.Errorf("snapshot: bad rotation at %v", r.Pos)
		}
		w.chunks.SetRotation(FromArray(r.Pos), rot)
	}
	for _, k := range w.chunks.LoadedChunkKeys() {
		ch := w.chunks.chunks[k]
		for i, b := range ch.Blocks {
			if w.reg.For(b) == nil {
				continue
			}
			x := i % chunkEdge
			y := (i / chunkEdge) % chunkEdge
			z := i / (chunkEdge * chunkEdge)
			logicCoords = append(logicCoords, Vec3i{
				X: k.CX*chunkEdge + x,
				Y: k.CY*chunkEdge + y,
				Z: k.CZ*chunkEdge + z,
			})
		}
	}
	sort.Slice(logicCoords, func(i, j int) bool { return logicCoords[i].ToLogic().Less(logicCoords[j].ToLogic()) })
	for _, c := range logicCoords {
		w.engine.BlockPlaced(c.ToLogic())
	}

	for _, p := range snap.Producers {
		dir, ok := parseDir(p.Dir)
		if !ok {
			return nil, fmt.Errorf("snapshot: bad producer dir %q", p.Dir)
		}
		w.engine.RestoreProducer(logic.Port{Coord: FromArray(p.Pos).ToLogic(), Dir: dir}, p.Signal)
	}
	for _, gs := range snap.GateStates {
		w.engine.RestoreState(FromArray(gs.Pos).ToLogic(), logic.BlockState{
			Signal:  gs.Signal,
			Pressed: gs.Pressed,
			Timer:   gs.Timer,
			Armed:   gs.Armed,
		})
	}

	// The replay leaves every gate queued for Consume. That work stays
	// pending on purpose: the first post-resume tick re-evaluates each
	// gate against the restored producer values, which is a no-op for
	// settled circuits (duplicate updates are suppressed) and keeps
	// circuits that were mid-propagation at export time running.

	for _, av := range snap.Agents {
		a := &Agent{ID: av.ID, Name: av.Name, Focus: FromArray(av.Focus)}
		a.initDefaults()
		w.agents[av.ID] = a
	}
	w.agentCount.Store(int64(len(w.agents)))
	w.nextAgentNum.Store(snap.Counters.NextAgent)
	w.tick.Store(snap.Header.Tick)

	w.engine.OnOutputChanged = w.onOutputChanged
	w.engine.OnStateChanged = w.onStateChanged
	return w, nil
}
