package logic

// Button emits on all six faces for a fixed number of ticks after a
// player interaction, then releases itself.
type Button struct{}

func (Button) Ports() [6]Connection {
	return [6]Connection{ConnOutput, ConnOutput, ConnOutput, ConnOutput, ConnOutput, ConnOutput}
}

func (Button) DefaultOutput() int { return 0 }

func (Button) OnInteract(g *Gate) {
	g.Mutate(func(s *BlockState) {
		s.Pressed = true
		s.Timer = 0
		s.Signal = 1
	})
	g.QueueOutput()
}

// PreTick advances the countdown. When the hold time elapses the button
// clears itself and is queued for Produce so its now-zero output
// propagates.
func (Button) PreTick(g *Gate) {
	s := g.State()
	if s == nil || !s.Pressed {
		return
	}
	if s.Timer < g.HoldTicks() {
		s.Timer++
		return
	}
	g.Mutate(func(s *BlockState) {
		s.Pressed = false
		s.Timer = 0
		s.Signal = 0
	})
	g.QueueOutput()
}

func (Button) Consume(*Gate) {}

func (Button) Produce(g *Gate) { g.PublishAll(g.EffectiveSignal()) }

// Switch is the button's latching sibling: each interaction toggles its
// output on all six faces.
type Switch struct{}

func (Switch) Ports() [6]Connection {
	return [6]Connection{ConnOutput, ConnOutput, ConnOutput, ConnOutput, ConnOutput, ConnOutput}
}

func (Switch) DefaultOutput() int { return 0 }

func (Switch) OnInteract(g *Gate) {
	g.Mutate(func(s *BlockState) {
		s.Signal = boolSignal(s.Signal == 0)
	})
	g.QueueOutput()
}

func (Switch) Consume(*Gate) {}

func (Switch) Produce(g *Gate) { g.PublishAll(g.EffectiveSignal()) }
