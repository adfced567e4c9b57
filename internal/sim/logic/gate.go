package logic

// Behavior is the full surface a block type implements to join the
// logic system. Ports are declared per unrotated face; Consume reads
// inputs and stages state; Produce publishes staged outputs. Behaviors
// never touch the grouper or the scheduler directly, and never hold a
// Gate across tick boundaries.
type Behavior interface {
	// Ports declares the role of each unrotated face.
	Ports() [6]Connection
	// DefaultOutput is the value output ports emit while the block holds
	// no state.
	DefaultOutput() int
	// Consume reads inputs via the gate and stages new state. It must
	// not publish producer values.
	Consume(g *Gate)
	// Produce publishes the block's current output value(s).
	Produce(g *Gate)
}

// PreTicker is implemented by behaviors with per-tick bookkeeping that
// runs before Consume (e.g. the button countdown).
type PreTicker interface {
	PreTick(g *Gate)
}

// Interactor is implemented by behaviors that react to a player
// interaction.
type Interactor interface {
	OnInteract(g *Gate)
}

// Gate is the per-evaluation context handed to behaviors. It scopes all
// reads and writes to one block of one structure for one phase.
type Gate struct {
	engine *Engine
	coord  Vec3i
	block  *LogicBlock
}

func (g *Gate) Coord() Vec3i { return g.coord }

// Rotation re-reads the block's rotation from the structure. It is
// intentionally not stored on the Gate.
func (g *Gate) Rotation() Rotation { return g.engine.st.RotationAt(g.coord) }

// ReadInput returns the network value at the given local face, resolved
// through the block's current rotation.
func (g *Gate) ReadInput(face BlockFace) int {
	return g.engine.driver.ReadInput(g.coord, g.Rotation().DirectionOf(face))
}

// State returns the block's sparse state, or nil if it has none.
func (g *Gate) State() *BlockState { return g.engine.stateAt(g.coord) }

// EffectiveSignal is the value the block's outputs should currently
// emit: staged state if present, the registered default otherwise.
func (g *Gate) EffectiveSignal() int {
	if s := g.State(); s != nil {
		return s.Signal
	}
	return g.block.DefaultOutput
}

// SetSignal stages a new output value during Consume. Unchanged values
// are a no-op; changed ones queue the block for this tick's Produce
// phase. State reverting to the block's idle value is freed.
func (g *Gate) SetSignal(v int) {
	if g.EffectiveSignal() == v {
		return
	}
	s := g.engine.ensureState(g.coord)
	s.Signal = v
	g.engine.sched.QueueOutput(g.coord)
	if g.engine.OnStateChanged != nil {
		g.engine.OnStateChanged(g.coord, v)
	}
	g.engine.maybeFreeState(g.coord, g.block.DefaultOutput)
}

// Mutate runs fn against the block's state (created on first need) and
// frees it afterwards if it reverted to the block's idle state.
func (g *Gate) Mutate(fn func(s *BlockState)) {
	fn(g.engine.ensureState(g.coord))
	g.engine.maybeFreeState(g.coord, g.block.DefaultOutput)
}

// QueueOutput schedules this block for the Produce phase.
func (g *Gate) QueueOutput() { g.engine.sched.QueueOutput(g.coord) }

// Publish writes a producer value to one local face's output port.
// Called only from Produce.
func (g *Gate) Publish(face BlockFace, signal int) {
	port := NewPort(g.coord, g.Rotation().DirectionOf(face))
	old, exists := g.engine.driver.ProducerValue(port)
	if !exists {
		// The face had no neighbor cell when the block was wired in, so
		// it carries no port. Nothing to publish, no event to emit.
		return
	}
	g.engine.driver.UpdateProducer(port, signal, g.engine.sched)
	if old != signal && g.engine.OnOutputChanged != nil {
		g.engine.OnOutputChanged(port, signal)
	}
}

// PublishAll writes the same value to every output face.
func (g *Gate) PublishAll(signal int) {
	for _, face := range g.block.OutputFaces() {
		g.Publish(face, signal)
	}
}

// HoldTicks is the configured button hold duration.
func (g *Gate) HoldTicks() int { return g.engine.cfg.ButtonHoldTicks }
