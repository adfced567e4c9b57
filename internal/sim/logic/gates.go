package logic

// Built-in gate behaviors. Two-input gates take their left and right
// faces as inputs and drive their front face; NOT takes its back face.
// Behaviors stage state in Consume and publish in Produce, never both in
// one phase.

// AndGate outputs non-zero only while both inputs are non-zero.
type AndGate struct{}

func (AndGate) Ports() [6]Connection {
	return [6]Connection{int(FaceRight): ConnInput, int(FaceLeft): ConnInput, int(FaceFront): ConnOutput}
}

func (AndGate) DefaultOutput() int { return 0 }

func (AndGate) Consume(g *Gate) {
	left := g.ReadInput(FaceLeft) != 0
	right := g.ReadInput(FaceRight) != 0
	g.SetSignal(boolSignal(left && right))
}

func (AndGate) Produce(g *Gate) { g.PublishAll(g.EffectiveSignal()) }

// OrGate outputs non-zero while either input is non-zero.
type OrGate struct{}

func (OrGate) Ports() [6]Connection {
	return [6]Connection{int(FaceRight): ConnInput, int(FaceLeft): ConnInput, int(FaceFront): ConnOutput}
}

func (OrGate) DefaultOutput() int { return 0 }

func (OrGate) Consume(g *Gate) {
	left := g.ReadInput(FaceLeft) != 0
	right := g.ReadInput(FaceRight) != 0
	g.SetSignal(boolSignal(left || right))
}

func (OrGate) Produce(g *Gate) { g.PublishAll(g.EffectiveSignal()) }

// XorGate outputs non-zero while exactly one input is non-zero.
type XorGate struct{}

func (XorGate) Ports() [6]Connection {
	return [6]Connection{int(FaceRight): ConnInput, int(FaceLeft): ConnInput, int(FaceFront): ConnOutput}
}

func (XorGate) DefaultOutput() int { return 0 }

func (XorGate) Consume(g *Gate) {
	left := g.ReadInput(FaceLeft) != 0
	right := g.ReadInput(FaceRight) != 0
	g.SetSignal(boolSignal(left != right))
}

func (XorGate) Produce(g *Gate) { g.PublishAll(g.EffectiveSignal()) }

// NotGate inverts its back-face input onto its front face. Its idle
// output is 1: a NOT gate with no input powers its network.
type NotGate struct{}

func (NotGate) Ports() [6]Connection {
	return [6]Connection{int(FaceBack): ConnInput, int(FaceFront): ConnOutput}
}

func (NotGate) DefaultOutput() int { return 1 }

func (NotGate) Consume(g *Gate) {
	g.SetSignal(boolSignal(g.ReadInput(FaceBack) == 0))
}

func (NotGate) Produce(g *Gate) { g.PublishAll(g.EffectiveSignal()) }

// Wire conducts on all six faces and has no behavior of its own; it
// exists purely to join networks.
type Wire struct{}

func (Wire) Ports() [6]Connection {
	return [6]Connection{ConnWire, ConnWire, ConnWire, ConnWire, ConnWire, ConnWire}
}

func (Wire) DefaultOutput() int { return 0 }
func (Wire) Consume(*Gate)      {}
func (Wire) Produce(*Gate)      {}

// Indicator reads all six faces and mirrors the strongest network value
// into its block state, so display systems can react without the block
// driving anything.
type Indicator struct{}

func (Indicator) Ports() [6]Connection {
	return [6]Connection{ConnInput, ConnInput, ConnInput, ConnInput, ConnInput, ConnInput}
}

func (Indicator) DefaultOutput() int { return 0 }

func (Indicator) Consume(g *Gate) {
	max := 0
	for _, face := range AllFaces {
		if v := g.ReadInput(face); v > max {
			max = v
		}
	}
	g.SetSignal(max)
}

func (Indicator) Produce(*Gate) {}

func boolSignal(b bool) int {
	if b {
		return 1
	}
	return 0
}
