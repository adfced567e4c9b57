package logic

import "sort"

// Phase is one of the three strictly ordered stages of a simulation
// tick. No phase begins before the previous one completes for a given
// structure.
type Phase uint8

const (
	// PhasePreTick advances stateful-block bookkeeping (button timers).
	PhasePreTick Phase = iota
	// PhaseConsume lets scheduled gates read inputs and stage new state.
	PhaseConsume
	// PhaseProduce publishes changed outputs and schedules dependents
	// for the following tick.
	PhaseProduce
)

// Scheduler holds the pending evaluation sets between phases. Gates
// scheduled during Produce (or by structural edits) are consumed on the
// *next* tick, which is what bounds feedback loops to one layer per
// tick.
type Scheduler struct {
	consumeNext map[Vec3i]bool
	produce     map[Vec3i]bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		consumeNext: map[Vec3i]bool{},
		produce:     map[Vec3i]bool{},
	}
}

// QueueInput schedules the block at coord for the next Consume phase.
func (s *Scheduler) QueueInput(coord Vec3i) { s.consumeNext[coord] = true }

// QueueOutput schedules the block at coord for this tick's Produce
// phase.
func (s *Scheduler) QueueOutput(coord Vec3i) { s.produce[coord] = true }

// PendingInputs reports how many blocks await Consume (test hook).
func (s *Scheduler) PendingInputs() int { return len(s.consumeNext) }

// PendingOutputs reports how many blocks await Produce (test hook).
func (s *Scheduler) PendingOutputs() int { return len(s.produce) }

func (s *Scheduler) drainConsume() []Vec3i {
	out := sortedCoords(s.consumeNext)
	s.consumeNext = map[Vec3i]bool{}
	return out
}

func (s *Scheduler) drainProduce() []Vec3i {
	out := sortedCoords(s.produce)
	s.produce = map[Vec3i]bool{}
	return out
}

func sortedCoords(set map[Vec3i]bool) []Vec3i {
	out := make([]Vec3i, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
