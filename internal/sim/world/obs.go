package world

import (
	"sort"

	"voxlogic/internal/protocol"
	"voxlogic/internal/sim/logic"
)

// buildObs assembles the per-agent observation for the tick that just
// completed: a sparse voxel cube around the agent's focus, nearby
// circuit state, and the agent's pending events.
func (w *World) buildObs(tick uint64, a *Agent) protocol.ObsMsg {
	r := w.cfg.ObsRadius
	center := a.Focus

	obs := protocol.ObsMsg{
		Type:            protocol.TypeObs,
		ProtocolVersion: protocol.Version,
		Tick:            tick,
		AgentID:         a.ID,
		Self:            protocol.SelfObs{Focus: center.ToArray()},
		Voxels: protocol.VoxelsObs{
			Center:   center.ToArray(),
			Radius:   r,
			Encoding: "OPS",
		},
	}

	air := w.chunks.gen.Air
	for dz := -r; dz <= r; dz++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				pos := Vec3i{X: center.X + dx, Y: center.Y + dy, Z: center.Z + dz}
				if !w.chunks.inBounds(pos) {
					continue
				}
				b := w.chunks.GetBlock(pos)
				if b == air {
					continue
				}
				obs.Voxels.Ops = append(obs.Voxels.Ops, protocol.VoxelOp{D: [3]int{dx, dy, dz}, B: b})
				if rot := w.chunks.GetRotation(pos); rot != logic.IdentityRotation {
					obs.Voxels.Rots = append(obs.Voxels.Rots, protocol.VoxelRot{
						D:     [3]int{dx, dy, dz},
						Up:    rot.Up.String(),
						Front: rot.Front.String(),
					})
				}
			}
		}
	}

	producers := w.engine.Driver().Producers()
	ports := make([]logic.Port, 0, len(producers))
	for p := range producers {
		if Chebyshev(FromLogic(p.Coord), center) <= r {
			ports = append(ports, p)
		}
	}
	sort.Slice(ports, func(i, j int) bool { return portLessDigest(ports[i], ports[j]) })
	for _, p := range ports {
		obs.Outputs = append(obs.Outputs, protocol.OutputObs{
			Pos:    FromLogic(p.Coord).ToArray(),
			Dir:    p.Dir.String(),
			Signal: producers[p],
		})
	}

	states := w.engine.States()
	coords := make([]logic.Vec3i, 0, len(states))
	for c := range states {
		if Chebyshev(FromLogic(c), center) <= r {
			coords = append(coords, c)
		}
	}
	sort.Slice(coords, func(i, j int) bool { return coords[i].Less(coords[j]) })
	for _, c := range coords {
		s := states[c]
		obs.Blocks = append(obs.Blocks, protocol.BlockObs{
			Pos:    FromLogic(c).ToArray(),
			Signal: s.Signal,
			Timer:  s.Timer,
		})
	}

	obs.Events = a.TakeEvents()
	return obs
}
