// Package stream reconciles paginated thread history and incremental
// stream deltas into one ordered, duplicate-free transcript, and merges
// client-synthesized optimistic messages into it.
//
// The transcript is append-only from this package's perspective: settled
// messages never mutate, streaming messages only extend, and re-applied
// delta ranges are no-ops.
package stream

import (
	"sort"
	"sync"

	"github.com/peroskyX/inbox-poc/log"
	"github.com/peroskyX/inbox-poc/types"
)

// streamState tracks one delta stream's accumulated part buffer. Parts
// live at their declared offsets so deltas may land in any order; the
// visible message is the contiguous filled prefix.
type streamState struct {
	key      types.MessageKey
	role     types.Role
	slots    []types.Part // part per offset; nil where the part failed to decode
	filled   []bool
	contig   int // offsets [0, contig) are all filled
	finalEnd int // End of the final delta, -1 until seen
}

// Stats is a snapshot of reconciler counters.
type Stats struct {
	// PagesApplied counts history pages merged in.
	PagesApplied int64
	// DeltasApplied counts deltas that extended a stream.
	DeltasApplied int64
	// DeltasIgnored counts deltas whose range was already applied.
	DeltasIgnored int64
	// PartsSkipped counts wire parts dropped at the decode boundary.
	PartsSkipped int64
}

// Reconciler merges pages and deltas into an ordered transcript.
//
// The final message list is strictly increasing by (order, stepOrder);
// uniqueness of that pair across settled messages makes ties impossible.
type Reconciler struct {
	mu      sync.Mutex
	byKey   map[types.MessageKey]*types.Message
	streams map[string]*streamState
	cursor  string
	loaded  bool // at least one page applied ("no data yet" vs "empty")
	done    bool // terminal page seen
	stats   Stats
	logger  *log.Logger
}

// NewReconciler creates an empty reconciler.
// A nil logger disables logging.
func NewReconciler(logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.Nop()
	}
	return &Reconciler{
		byKey:   make(map[types.MessageKey]*types.Message),
		streams: make(map[string]*streamState),
		logger:  logger,
	}
}

// ApplyPage merges one page of history into the transcript.
//
// A message already present under the same ordering key is replaced only
// when the incoming status is a legal forward transition; the transcript
// never regresses. Envelope-level validation failures drop the single
// envelope, not the page.
func (r *Reconciler) ApplyPage(page *types.MessagePage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range page.Messages {
		msg, skipped, err := page.Messages[i].ToMessage()
		r.stats.PartsSkipped += int64(skipped)
		if err != nil {
			r.logger.Warn("dropping invalid message envelope", map[string]any{"error": err.Error()})
			continue
		}
		r.merge(msg)
	}
	r.cursor = page.Cursor
	r.loaded = true
	if page.IsDone {
		r.done = true
	}
	r.stats.PagesApplied++
}

// ApplyDelta extends a streaming message with one delta.
//
// Deltas are idempotent and may arrive in any order: each part lands at
// its declared offset, offsets already filled are skipped, and a delta
// carrying nothing unseen is a no-op. The message exposes the contiguous
// filled prefix, so a gap-filling delta surfaces everything buffered
// past it. The stream settles once coverage reaches the final delta's
// End.
func (r *Reconciler) ApplyDelta(d *types.StreamDelta) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.streams[d.StreamID]
	if !ok {
		st = &streamState{
			key:      types.MessageKey{Order: d.Order, StepOrder: d.StepOrder},
			finalEnd: -1,
		}
		r.streams[d.StreamID] = st
	}
	if role := types.Role(d.Role); role.Valid() {
		st.role = role
	}

	if d.End > len(st.filled) {
		slots := make([]types.Part, d.End)
		copy(slots, st.slots)
		st.slots = slots
		filled := make([]bool, d.End)
		copy(filled, st.filled)
		st.filled = filled
	}

	fresh := false
	n := d.End - d.Start
	if n > len(d.Parts) {
		n = len(d.Parts)
	}
	for i := 0; i < n; i++ {
		off := d.Start + i
		if st.filled[off] {
			continue
		}
		st.filled[off] = true
		fresh = true
		p, err := types.DecodePart(d.Parts[i])
		if err != nil {
			r.stats.PartsSkipped++
			continue
		}
		st.slots[off] = p
	}

	settling := false
	if d.Final && d.End > st.finalEnd {
		settling = st.finalEnd < 0
		st.finalEnd = d.End
	}

	if !fresh && !settling {
		r.stats.DeltasIgnored++
		return
	}

	for st.contig < len(st.filled) && st.filled[st.contig] {
		st.contig++
	}

	status := types.StatusStreaming
	if st.finalEnd >= 0 && st.contig >= st.finalEnd {
		status = types.StatusSuccess
	}

	parts := make([]types.Part, 0, st.contig)
	for _, p := range st.slots[:st.contig] {
		if p != nil {
			parts = append(parts, p)
		}
	}

	role := st.role
	if !role.Valid() {
		role = types.RoleAssistant
	}
	r.merge(&types.Message{
		ID:        d.StreamID,
		Role:      role,
		Order:     d.Order,
		StepOrder: d.StepOrder,
		Status:    status,
		Parts:     parts,
	})
	r.stats.DeltasApplied++
}

// merge inserts or advances the message under its ordering key.
// Caller holds the mutex.
func (r *Reconciler) merge(msg *types.Message) {
	key := msg.Key()
	existing, ok := r.byKey[key]
	if !ok {
		r.byKey[key] = msg
		return
	}
	if !existing.Status.CanAdvanceTo(msg.Status) {
		// Settled messages never regress; drop the stale update.
		return
	}
	// A streaming message may re-deliver with fewer parts than the delta
	// buffer has accumulated; keep the longer view.
	if len(msg.Parts) < len(existing.Parts) && msg.Status == existing.Status {
		existing.Status = msg.Status
		return
	}
	r.byKey[key] = msg
}

// Messages returns the transcript, strictly ordered by (order, stepOrder).
func (r *Reconciler) Messages() []*types.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*types.Message, 0, len(r.byKey))
	for _, m := range r.byKey {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().Less(out[j].Key())
	})
	return out
}

// Loaded reports whether at least one page has been applied. Before that,
// an empty transcript means "no data yet"; after, it is a valid terminal
// state.
func (r *Reconciler) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

// Done reports whether the terminal history page has been seen.
func (r *Reconciler) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// NextPageRequest returns the request for the next history page.
func (r *Reconciler) NextPageRequest(numItems int) types.PageRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	if numItems <= 0 {
		numItems = types.DefaultPageSize
	}
	return types.PageRequest{Cursor: r.cursor, NumItems: numItems}
}

// StreamCursors returns the per-stream resume points for a delta poll.
func (r *Reconciler) StreamCursors() []types.StreamCursor {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.streams))
	for id := range r.streams {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]types.StreamCursor, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.StreamCursor{StreamID: id, Cursor: r.streams[id].contig})
	}
	return out
}

// LastOrder returns the highest authoritative order seen, or zero when
// the transcript is empty. Optimistic messages are keyed past it.
func (r *Reconciler) LastOrder() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var last int64
	for key := range r.byKey {
		if key.Order > last {
			last = key.Order
		}
	}
	return last
}

// Reset discards all local state so the caller can re-request from a
// fresh cursor. Read operations never mutate server state, so a reset
// followed by a re-fetch yields a prefix-consistent transcript.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey = make(map[types.MessageKey]*types.Message)
	r.streams = make(map[string]*streamState)
	r.cursor = ""
	r.loaded = false
	r.done = false
	r.stats = Stats{}
}

// Stats returns a snapshot of reconciler counters.
func (r *Reconciler) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}
