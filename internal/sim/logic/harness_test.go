package logic

import "testing"

// Test palette ids, mirroring the shipped block catalog.
const (
	tbAir uint16 = iota
	tbAnd
	tbOr
	tbXor
	tbNot
	tbButton
	tbFlipFlop
	tbSwitch
	tbWire
	tbIndicator
)

// mapStructure is a minimal Structure for engine tests: a bounded box of
// sparse blocks with sparse rotations.
type mapStructure struct {
	blocks map[Vec3i]uint16
	rots   map[Vec3i]Rotation
	r      int
}

func newMapStructure(r int) *mapStructure {
	return &mapStructure{
		blocks: map[Vec3i]uint16{},
		rots:   map[Vec3i]Rotation{},
		r:      r,
	}
}

func (m *mapStructure) BlockTypeAt(c Vec3i) uint16 {
	if !m.InBounds(c) {
		return tbAir
	}
	return m.blocks[c]
}

func (m *mapStructure) RotationAt(c Vec3i) Rotation {
	if rot, ok := m.rots[c]; ok {
		return rot
	}
	return IdentityRotation
}

func (m *mapStructure) InBounds(c Vec3i) bool {
	abs := func(v int) int {
		if v < 0 {
			return -v
		}
		return v
	}
	return abs(c.X) <= m.r && abs(c.Y) <= m.r && abs(c.Z) <= m.r
}

type rig struct {
	t      *testing.T
	st     *mapStructure
	reg    *Registry
	engine *Engine
}

func newRig(t *testing.T) *rig {
	t.Helper()
	st := newMapStructure(32)
	reg := NewRegistry()
	for _, b := range []struct {
		id   uint16
		name string
	}{
		{tbAnd, "AND"},
		{tbOr, "OR"},
		{tbXor, "XOR"},
		{tbNot, "NOT"},
		{tbButton, "BUTTON"},
		{tbFlipFlop, "FLIP_FLOP"},
		{tbSwitch, "SWITCH"},
		{tbWire, "WIRE"},
		{tbIndicator, "INDICATOR"},
	} {
		bh, ok := BehaviorByName(b.name)
		if !ok {
			t.Fatalf("missing behavior %s", b.name)
		}
		if err := reg.Register(NewLogicBlock(b.id, b.name, bh)); err != nil {
			t.Fatalf("register %s: %v", b.name, err)
		}
	}
	return &rig{t: t, st: st, reg: reg, engine: NewEngine(reg, st, Config{})}
}

func (r *rig) place(c Vec3i, id uint16) {
	r.placeRotated(c, id, IdentityRotation)
}

func (r *rig) placeRotated(c Vec3i, id uint16, rot Rotation) {
	r.t.Helper()
	r.st.blocks[c] = id
	r.st.rots[c] = rot
	r.engine.BlockPlaced(c)
}

func (r *rig) remove(c Vec3i) {
	r.t.Helper()
	old := r.st.blocks[c]
	oldRot := r.st.RotationAt(c)
	delete(r.st.blocks, c)
	delete(r.st.rots, c)
	r.engine.BlockRemoved(c, old, oldRot)
}

func (r *rig) interact(c Vec3i) {
	r.t.Helper()
	if !r.engine.Interact(c) {
		r.t.Fatalf("interact at %v not handled", c)
	}
}

func (r *rig) tick(n int) {
	for i := 0; i < n; i++ {
		r.engine.Tick()
	}
}

// output reads the published producer value of the block at c on the
// world-facing direction d.
func (r *rig) output(c Vec3i, d Direction) int {
	v, _ := r.engine.Driver().ProducerValue(NewPort(c, d))
	return v
}

// settle runs ticks until no consume work remains (bounded, to catch
// runaway rescheduling).
func (r *rig) settle(maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		sched := r.engine.Scheduler()
		if sched.PendingInputs() == 0 && sched.PendingOutputs() == 0 {
			return i
		}
		r.engine.Tick()
	}
	r.t.Fatalf("network did not settle within %d ticks", maxTicks)
	return maxTicks
}
