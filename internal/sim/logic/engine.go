package logic

// Config carries the engine tunables a world passes in from its tuning
// file.
type Config struct {
	// ButtonHoldTicks is how many ticks a pressed button stays on.
	ButtonHoldTicks int
}

const DefaultButtonHoldTicks = 10

// Engine runs the logic simulation for exactly one structure: it owns
// the driver, the scheduler and the sparse gate state, and is never
// shared between structures.
type Engine struct {
	cfg    Config
	reg    *Registry
	st     Structure
	driver *Driver
	sched  *Scheduler
	states map[Vec3i]*BlockState

	// OnOutputChanged, when set, observes every published output value
	// change. It exists for non-logic systems (rendering, audit); the
	// simulation itself never depends on it.
	OnOutputChanged func(port Port, signal int)
	// OnStateChanged observes staged block-state signal changes, letting
	// indicators light up without having output ports.
	OnStateChanged func(coord Vec3i, signal int)
}

func NewEngine(reg *Registry, st Structure, cfg Config) *Engine {
	if cfg.ButtonHoldTicks <= 0 {
		cfg.ButtonHoldTicks = DefaultButtonHoldTicks
	}
	return &Engine{
		cfg:    cfg,
		reg:    reg,
		st:     st,
		driver: NewDriver(),
		sched:  NewScheduler(),
		states: map[Vec3i]*BlockState{},
	}
}

func (e *Engine) Driver() *Driver       { return e.driver }
func (e *Engine) Scheduler() *Scheduler { return e.sched }

// BlockPlaced wires a freshly placed block into the graph. Non-logic
// blocks are ignored.
func (e *Engine) BlockPlaced(coord Vec3i) {
	lb := e.reg.For(e.st.BlockTypeAt(coord))
	if lb == nil {
		return
	}
	e.driver.AddBlock(lb, e.st.RotationAt(coord), coord, e.st, e.reg, e.sched)
}

// BlockRemoved unwires a block that the structure storage has already
// dropped. The old block id and rotation must be the values the block
// had before removal.
func (e *Engine) BlockRemoved(coord Vec3i, oldBlockID uint16, oldRot Rotation) {
	lb := e.reg.For(oldBlockID)
	if lb == nil {
		return
	}
	e.driver.RemoveBlock(lb, oldRot, coord, e.st, e.reg, e.sched)
	delete(e.states, coord)
}

// BlockRotated re-derives a block's connectivity after a rotation
// change: remove under the old rotation, re-add under the current one.
func (e *Engine) BlockRotated(coord Vec3i, oldRot Rotation) {
	lb := e.reg.For(e.st.BlockTypeAt(coord))
	if lb == nil {
		return
	}
	e.driver.RemoveBlock(lb, oldRot, coord, e.st, e.reg, e.sched)
	e.driver.AddBlock(lb, e.st.RotationAt(coord), coord, e.st, e.reg, e.sched)
}

// Interact forwards a player interaction (button press, switch toggle)
// to the block's behavior. Reports whether a behavior handled it.
func (e *Engine) Interact(coord Vec3i) bool {
	lb := e.reg.For(e.st.BlockTypeAt(coord))
	if lb == nil {
		return false
	}
	ib, ok := lb.Behavior.(Interactor)
	if !ok {
		return false
	}
	ib.OnInteract(e.gate(coord, lb))
	return true
}

// Tick runs one full simulation tick: PreTick, then Consume, then
// Produce. Scheduled entries whose block disappeared in the meantime are
// dropped silently.
func (e *Engine) Tick() {
	// PreTick: stateful blocks advance their counters.
	for _, coord := range sortedStateKeys(e.states) {
		lb := e.reg.For(e.st.BlockTypeAt(coord))
		if lb == nil {
			continue
		}
		if pt, ok := lb.Behavior.(PreTicker); ok {
			pt.PreTick(e.gate(coord, lb))
		}
	}

	// Consume: every block queued since the prior Produce reads its
	// inputs and stages new state. No producer writes happen here.
	for _, coord := range e.sched.drainConsume() {
		lb := e.reg.For(e.st.BlockTypeAt(coord))
		if lb == nil {
			continue
		}
		lb.Behavior.Consume(e.gate(coord, lb))
	}

	// Produce: blocks with changed outputs publish them, scheduling
	// their dependents for the next tick.
	for _, coord := range e.sched.drainProduce() {
		lb := e.reg.For(e.st.BlockTypeAt(coord))
		if lb == nil {
			continue
		}
		lb.Behavior.Produce(e.gate(coord, lb))
	}
}

func (e *Engine) gate(coord Vec3i, lb *LogicBlock) *Gate {
	return &Gate{engine: e, coord: coord, block: lb}
}

func sortedStateKeys(m map[Vec3i]*BlockState) []Vec3i {
	set := make(map[Vec3i]bool, len(m))
	for c := range m {
		set[c] = true
	}
	return sortedCoords(set)
}

// States returns a copy of the sparse gate state for snapshot export.
func (e *Engine) States() map[Vec3i]BlockState {
	out := make(map[Vec3i]BlockState, len(e.states))
	for c, s := range e.states {
		out[c] = *s
	}
	return out
}

// RestoreState reinstates one block's gate state during snapshot import.
func (e *Engine) RestoreState(coord Vec3i, s BlockState) {
	cp := s
	e.states[coord] = &cp
}

// RestoreProducer republishes a producer value during snapshot import.
// It goes through the normal update path, so consumers re-evaluate on
// the first tick after load.
func (e *Engine) RestoreProducer(port Port, signal int) {
	e.driver.UpdateProducer(port, signal, e.sched)
}
