package logic

import "testing"

// Two switches flanking a gate at the origin: left input fed from
// (-1,0,0), right input from (1,0,0), output read on -Z.
func setTwoInputs(r *rig, a, b bool) {
	if a {
		r.interact(Vec3i{X: -1})
	}
	if b {
		r.interact(Vec3i{X: 1})
	}
	r.settle(16)
}

func TestGates_TruthTables(t *testing.T) {
	cases := []struct {
		name string
		id   uint16
		fn   func(a, b bool) bool
	}{
		{"AND", tbAnd, func(a, b bool) bool { return a && b }},
		{"OR", tbOr, func(a, b bool) bool { return a || b }},
		{"XOR", tbXor, func(a, b bool) bool { return a != b }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, a := range []bool{false, true} {
				for _, b := range []bool{false, true} {
					r := newRig(t)
					r.place(Vec3i{}, tc.id)
					r.place(Vec3i{X: -1}, tbSwitch)
					r.place(Vec3i{X: 1}, tbSwitch)
					setTwoInputs(r, a, b)
					got := r.output(Vec3i{}, DirNegZ) != 0
					if got != tc.fn(a, b) {
						t.Fatalf("%s(%v,%v) = %v, want %v", tc.name, a, b, got, tc.fn(a, b))
					}
				}
			}
		})
	}
}

func TestNotGate_DefaultHighAndInversion(t *testing.T) {
	r := newRig(t)
	r.place(Vec3i{}, tbNot)
	r.settle(8)
	if got := r.output(Vec3i{}, DirNegZ); got != 1 {
		t.Fatalf("unfed NOT gate output = %d, want 1", got)
	}

	// Feed the back input (+Z under identity rotation).
	r.place(Vec3i{Z: 1}, tbSwitch)
	r.interact(Vec3i{Z: 1})
	r.settle(8)
	if got := r.output(Vec3i{}, DirNegZ); got != 0 {
		t.Fatalf("NOT(1) = %d, want 0", got)
	}

	r.interact(Vec3i{Z: 1})
	r.settle(8)
	if got := r.output(Vec3i{}, DirNegZ); got != 1 {
		t.Fatalf("NOT(0) = %d, want 1", got)
	}
}

// A chain of N NOT gates propagates an input change by exactly one gate
// per tick: the last gate's output changes on tick N+1 after the toggle
// (one tick for the switch to publish, then one per gate).
func TestNotChain_OneLayerPerTick(t *testing.T) {
	const n = 6
	r := newRig(t)
	r.place(Vec3i{Z: 1}, tbSwitch)
	for i := 0; i < n; i++ {
		r.place(Vec3i{Z: -i}, tbNot)
	}
	r.settle(n + 4)

	last := Vec3i{Z: -(n - 1)}
	before := r.output(last, DirNegZ)

	r.interact(Vec3i{Z: 1})
	for tick := 1; tick <= n; tick++ {
		r.tick(1)
		if got := r.output(last, DirNegZ); got != before {
			t.Fatalf("tail output changed on tick %d, want unchanged through tick %d", tick, n)
		}
	}
	r.tick(1)
	if got := r.output(last, DirNegZ); got == before {
		t.Fatalf("tail output did not change on tick %d", n+1)
	}
}

// A NOT gate feeding its own input through a wire ring oscillates with
// period 2 instead of looping within a tick: Produce schedules the next
// Consume for the following tick.
func TestNotGate_SelfLoopOscillates(t *testing.T) {
	r := newRig(t)
	r.place(Vec3i{}, tbNot)
	for _, c := range []Vec3i{
		{Z: -1}, {X: 1, Z: -1}, {X: 1}, {X: 1, Z: 1}, {Z: 1},
	} {
		r.place(c, tbWire)
	}

	r.tick(2) // reach the first post-placement steady oscillation
	prev := r.output(Vec3i{}, DirNegZ)
	for i := 0; i < 10; i++ {
		r.tick(1)
		cur := r.output(Vec3i{}, DirNegZ)
		if cur == prev {
			t.Fatalf("loop output stuck at %d after tick %d", cur, i+1)
		}
		prev = cur
	}
}

// AND gate with one held-off input: the output turns on exactly one tick
// after the second input's produced value reaches the network, and only
// while both inputs are high.
func TestAndGate_SecondInputTiming(t *testing.T) {
	r := newRig(t)
	r.place(Vec3i{}, tbAnd)
	r.place(Vec3i{X: -1}, tbSwitch)
	r.place(Vec3i{X: 1}, tbButton)
	r.settle(8)

	r.interact(Vec3i{X: 1}) // press button: right input goes high
	r.tick(2)
	if got := r.output(Vec3i{}, DirNegZ); got != 0 {
		t.Fatalf("AND output = %d with left input low, want 0", got)
	}

	r.interact(Vec3i{X: -1}) // left switch on
	r.tick(1)                // switch publishes; gate not yet re-evaluated
	if got := r.output(Vec3i{}, DirNegZ); got != 0 {
		t.Fatalf("AND output changed before its consume tick")
	}
	r.tick(1)
	if got := r.output(Vec3i{}, DirNegZ); got != 1 {
		t.Fatalf("AND output = %d one tick after both inputs high, want 1", got)
	}
}

// Button hold window: output is non-zero for exactly HoldTicks ticks
// after the press, with the countdown observable in block state, then
// clears itself.
func TestButton_HoldWindow(t *testing.T) {
	r := newRig(t)
	r.place(Vec3i{}, tbButton)
	r.settle(4)

	r.interact(Vec3i{})
	hold := DefaultButtonHoldTicks
	for i := 1; i <= hold; i++ {
		r.tick(1)
		if got := r.output(Vec3i{}, DirPosX); got != 1 {
			t.Fatalf("tick %d: button output = %d, want 1", i, got)
		}
		s, ok := r.engine.States()[Vec3i{}]
		if !ok || !s.Pressed || s.Timer != i {
			t.Fatalf("tick %d: state = %+v, want pressed with timer %d", i, s, i)
		}
	}
	r.tick(1)
	if got := r.output(Vec3i{}, DirPosX); got != 0 {
		t.Fatalf("button still on after hold window: %d", got)
	}
	if _, ok := r.engine.States()[Vec3i{}]; ok {
		t.Fatalf("released button should carry no state")
	}
}

// Flip-flop: each rising edge on the front input toggles the latched
// output exactly once; holding the input high or dropping it does not.
func TestFlipFlop_TogglesOnRisingEdge(t *testing.T) {
	r := newRig(t)
	r.place(Vec3i{}, tbFlipFlop)
	r.place(Vec3i{Z: -1}, tbSwitch) // front input under identity rotation
	r.settle(8)

	want := 0
	for cycle := 0; cycle < 4; cycle++ {
		r.interact(Vec3i{Z: -1}) // rising edge
		r.settle(8)
		want = boolSignal(want == 0)
		if got := r.output(Vec3i{}, DirPosX); got != want {
			t.Fatalf("cycle %d: after rising edge output = %d, want %d", cycle, got, want)
		}

		r.tick(3) // held high: no further toggles
		if got := r.output(Vec3i{}, DirPosX); got != want {
			t.Fatalf("cycle %d: output toggled while input held high", cycle)
		}

		r.interact(Vec3i{Z: -1}) // falling edge
		r.settle(8)
		if got := r.output(Vec3i{}, DirPosX); got != want {
			t.Fatalf("cycle %d: output changed on falling edge", cycle)
		}
	}
}

// Indicators have no output ports; they mirror the network value in
// their sparse state.
func TestIndicator_MirrorsNetwork(t *testing.T) {
	r := newRig(t)
	r.place(Vec3i{}, tbSwitch)
	r.place(Vec3i{X: 1}, tbIndicator)
	r.settle(8)

	r.interact(Vec3i{})
	r.settle(8)
	if s := r.engine.States()[Vec3i{X: 1}]; s.Signal != 1 {
		t.Fatalf("indicator signal = %d with switch on, want 1", s.Signal)
	}

	r.interact(Vec3i{})
	r.settle(8)
	if _, ok := r.engine.States()[Vec3i{X: 1}]; ok {
		t.Fatalf("indicator back at idle should hold no state")
	}
}

// A rotated gate resolves its ports through its rotation, and rotating
// it in place re-derives connectivity.
func TestGate_RotationResolvesPorts(t *testing.T) {
	r := newRig(t)
	// Front +X, up +Y: right face points +Z, so the left input is -Z.
	rot := Rotation{Up: DirPosY, Front: DirPosX}
	r.placeRotated(Vec3i{}, tbOr, rot)
	r.place(Vec3i{Z: -1}, tbSwitch)
	r.interact(Vec3i{Z: -1})
	r.settle(8)
	if got := r.output(Vec3i{}, DirPosX); got != 1 {
		t.Fatalf("rotated OR output on +X = %d, want 1", got)
	}

	// Rotate back to identity: the +X output port must disappear and the
	// switch no longer feeds an input.
	r.st.rots[Vec3i{}] = IdentityRotation
	r.engine.BlockRotated(Vec3i{}, rot)
	r.settle(8)
	if _, ok := r.engine.Driver().ProducerValue(NewPort(Vec3i{}, DirPosX)); ok {
		t.Fatalf("+X output port survived the rotation change")
	}
	if got := r.output(Vec3i{}, DirNegZ); got != 0 {
		t.Fatalf("identity OR output = %d with no inputs wired, want 0", got)
	}
}

// A block at the structure boundary has no ports on faces that point out
// of bounds; publishing must not report output events for them.
func TestGate_BoundaryPublishSkipsMissingPorts(t *testing.T) {
	r := newRig(t)
	corner := Vec3i{X: 32, Y: 32, Z: 32}

	var events []Port
	r.engine.OnOutputChanged = func(p Port, signal int) { events = append(events, p) }

	r.place(corner, tbSwitch)
	r.interact(corner)
	r.tick(1)

	for _, p := range events {
		if _, ok := r.engine.Driver().ProducerValue(p); !ok {
			t.Fatalf("output event for nonexistent port %v", p)
		}
	}
	// Only -X, -Y and -Z have neighbor cells at this corner.
	if len(events) != 3 {
		t.Fatalf("got %d output events, want 3 (one per in-bounds face)", len(events))
	}
}
