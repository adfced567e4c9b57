package world

import "voxlogic/internal/protocol"

type Agent struct {
	ID   string
	Name string

	// ResumeToken is a transport-level token used for reconnects.
	// It is intentionally NOT included in snapshots/digests.
	ResumeToken string

	// Focus is the point OBS frames are centered on; agents move it
	// with the FOCUS instant.
	Focus Vec3i

	Events []protocol.Event

	// Rate limiting windows (per action type).
	rl map[string]*rateWindow
}

type rateWindow struct {
	StartTick uint64
	Count     int
	Window    uint64
	Max       int
}

func (a *Agent) initDefaults() {
	if a.rl == nil {
		a.rl = map[string]*rateWindow{}
	}
}

func (a *Agent) AddEvent(e protocol.Event) {
	a.Events = append(a.Events, e)
}

func (a *Agent) TakeEvents() []protocol.Event {
	ev := a.Events
	a.Events = nil
	return ev
}

func (a *Agent) RateLimitAllow(kind string, nowTick uint64, window uint64, max int) (ok bool, cooldownTicks uint64) {
	w, ok := a.rl[kind]
	if !ok {
		w = &rateWindow{StartTick: nowTick, Window: window, Max: max}
		a.rl[kind] = w
	}
	w.Window = window
	w.Max = max
	if w.Window == 0 || w.Max <= 0 {
		return true, 0
	}
	if nowTick-w.StartTick >= w.Window {
		w.StartTick = nowTick
		w.Count = 0
	}
	w.Count++
	if w.Count <= w.Max {
		return true, 0
	}
	// Remaining ticks until the window resets.
	return false, (w.StartTick + w.Window) - nowTick
}
