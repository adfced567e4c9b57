package logic

// FlipFlop toggles its stored output exactly once per rising edge of
// its front-face input. The Armed bit tracks the last observed input:
// the toggle fires only on a 0 -> non-zero transition, further non-zero
// reads are ignored, and a return to 0 re-arms it. The output magnitude
// is the input value captured at the rising edge.
type FlipFlop struct{}

func (FlipFlop) Ports() [6]Connection {
	return [6]Connection{
		int(FaceRight):  ConnOutput,
		int(FaceLeft):   ConnOutput,
		int(FaceTop):    ConnOutput,
		int(FaceBottom): ConnOutput,
		int(FaceFront):  ConnInput,
		int(FaceBack):   ConnOutput,
	}
}

func (FlipFlop) DefaultOutput() int { return 0 }

func (FlipFlop) Consume(g *Gate) {
	input := g.ReadInput(FaceFront)
	g.Mutate(func(s *BlockState) {
		if !s.Armed {
			if input != 0 {
				s.Armed = true
				if s.Signal != 0 {
					s.Signal = 0
				} else {
					s.Signal = input
				}
				g.QueueOutput()
			}
			return
		}
		if input == 0 {
			s.Armed = false
		}
	})
}

func (FlipFlop) Produce(g *Gate) { g.PublishAll(g.EffectiveSignal()) }
