package logic

// BlockState is the sparse per-block persisted state a stateful gate
// needs beyond its published output. The zero value is "no state": the
// store drops entries the moment they revert to it, so the overwhelming
// majority of blocks carry nothing.
type BlockState struct {
	// Signal is the block's staged output value (published in Produce).
	Signal int
	// Pressed and Timer drive the button countdown.
	Pressed bool
	Timer   int
	// Armed is the flip-flop's last-observed-input bit.
	Armed bool
}

// isDefault reports whether the state matches the block type's idle
// state, taking the registered default output into account (a NOT gate
// idles at 1, not 0).
func (s *BlockState) isDefault(defaultOutput int) bool {
	return s.Signal == defaultOutput && !s.Pressed && s.Timer == 0 && !s.Armed
}

func (e *Engine) stateAt(coord Vec3i) *BlockState {
	return e.states[coord]
}

func (e *Engine) ensureState(coord Vec3i) *BlockState {
	s := e.states[coord]
	if s == nil {
		s = &BlockState{}
		e.states[coord] = s
	}
	return s
}

// maybeFreeState drops a state entry that has reverted to the block
// type's idle state.
func (e *Engine) maybeFreeState(coord Vec3i, defaultOutput int) {
	if s := e.states[coord]; s != nil && s.isDefault(defaultOutput) {
		delete(e.states, coord)
	}
}
