package world

import (
	"context"
	"time"
)

// Run drives the world loop until the context is cancelled or Stop is
// called. Joins, leaves, and actions accumulate between ticks and are
// applied in arrival order at the next tick boundary; attaches and
// event-batch queries are answered immediately since they read no
// mutable simulation state mid-tick.
func (w *World) Run(ctx context.Context) {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		pendingJoins  []JoinRequest
		pendingLeaves []string
		pendingActs   []ActionEnvelope
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case req := <-w.attach:
			w.handleAttach(req)
		case id := <-w.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-w.inbox:
			pendingActs = append(pendingActs, env)
		case req := <-w.eventsReq:
			w.handleEventsRequest(req)
		case <-ticker.C:
			w.step(pendingJoins, pendingLeaves, pendingActs)
			pendingJoins, pendingLeaves, pendingActs = nil, nil, nil
		}
	}
}

func (w *World) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

// sendLatest delivers b without ever blocking the world loop: if the
// client's channel is full, the oldest queued frame is dropped first.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
