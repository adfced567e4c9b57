package world

import "voxlogic/internal/protocol"

// eventJournal keeps a bounded ring of world events with monotonically
// increasing cursors so clients can re-request missed events via
// EVENT_BATCH_REQ after a reconnect.
type eventJournal struct {
	items []protocol.EventBatchItem
	next  uint64
	cap   int
}

func newEventJournal(capacity int) *eventJournal {
	if capacity <= 0 {
		capacity = 1024
	}
	return &eventJournal{cap: capacity, next: 1}
}

func (j *eventJournal) Append(e protocol.Event) uint64 {
	cursor := j.next
	j.next++
	j.items = append(j.items, protocol.EventBatchItem{Cursor: cursor, Event: e})
	if len(j.items) > j.cap {
		// Drop the oldest half in one move to amortize the copy.
		keep := j.cap / 2
		j.items = append(j.items[:0], j.items[len(j.items)-keep:]...)
	}
	return cursor
}

// Since returns up to limit events with cursor > since, plus the cursor
// a follow-up request should resume from.
func (j *eventJournal) Since(since uint64, limit int) ([]protocol.EventBatchItem, uint64) {
	if limit <= 0 || limit > 512 {
		limit = 512
	}
	// Binary search would work, but the ring is small.
	i := 0
	for i < len(j.items) && j.items[i].Cursor <= since {
		i++
	}
	end := i + limit
	if end > len(j.items) {
		end = len(j.items)
	}
	out := make([]protocol.EventBatchItem, end-i)
	copy(out, j.items[i:end])
	next := since
	if len(out) > 0 {
		next = out[len(out)-1].Cursor
	}
	return out, next
}

func (w *World) handleEventsRequest(req EventsRequest) {
	items, next := w.journal.Since(req.SinceCursor, req.Limit)
	if req.Resp != nil {
		req.Resp <- protocol.EventBatchMsg{
			Type:            protocol.TypeEventBatch,
			ProtocolVersion: protocol.Version,
			ReqID:           req.ReqID,
			Events:          items,
			NextCursor:      next,
		}
	}
}
