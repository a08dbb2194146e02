package stream_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/peroskyX/inbox-poc/stream"
	"github.com/peroskyX/inbox-poc/types"
)

func envelope(id string, order, step int64, role, status, text string) types.MessageEnvelope {
	return types.MessageEnvelope{
		ID:        id,
		ThreadID:  "thread-1",
		Role:      role,
		Order:     order,
		StepOrder: step,
		Status:    status,
		Parts:     []types.RawPart{{Type: "text", Text: text}},
	}
}

func orders(msgs []*types.Message) []types.MessageKey {
	keys := make([]types.MessageKey, len(msgs))
	for i, m := range msgs {
		keys[i] = m.Key()
	}
	return keys
}

func TestReconcilerOrdersAcrossPages(t *testing.T) {
	r := stream.NewReconciler(nil)

	// Pages arrive newest-first; the transcript must still come out in
	// ascending (order, stepOrder).
	r.ApplyPage(&types.MessagePage{
		Messages: []types.MessageEnvelope{
			envelope("m3", 3, 0, "assistant", "success", "three"),
			envelope("m2b", 2, 1, "assistant", "success", "two-b"),
		},
		Cursor: "c1",
	})
	r.ApplyPage(&types.MessagePage{
		Messages: []types.MessageEnvelope{
			envelope("m2a", 2, 0, "assistant", "success", "two-a"),
			envelope("m1", 1, 0, "user", "success", "one"),
		},
		IsDone: true,
	})

	msgs := r.Messages()
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	want := []types.MessageKey{{Order: 1}, {Order: 2}, {Order: 2, StepOrder: 1}, {Order: 3}}
	for i, key := range orders(msgs) {
		if key != want[i] {
			t.Fatalf("position %d: got key %+v, want %+v", i, key, want[i])
		}
	}
	if !r.Done() {
		t.Fatal("Done should be true after terminal page")
	}
}

func TestReconcilerPageReapplyIsIdempotent(t *testing.T) {
	r := stream.NewReconciler(nil)
	page := &types.MessagePage{
		Messages: []types.MessageEnvelope{envelope("m1", 1, 0, "user", "success", "hi")},
		IsDone:   true,
	}
	r.ApplyPage(page)
	r.ApplyPage(page)

	if got := len(r.Messages()); got != 1 {
		t.Fatalf("got %d messages after re-apply, want 1", got)
	}
}

func TestReconcilerDropsInvalidEnvelope(t *testing.T) {
	r := stream.NewReconciler(nil)
	r.ApplyPage(&types.MessagePage{
		Messages: []types.MessageEnvelope{
			envelope("good", 1, 0, "user", "success", "hi"),
			envelope("bad", 2, 0, "narrator", "success", "nope"),
		},
	})
	msgs := r.Messages()
	if len(msgs) != 1 || msgs[0].ID != "good" {
		t.Fatalf("got %v, want only the valid envelope", orders(msgs))
	}
}

func TestReconcilerLoadedDistinguishesEmptyFromUnloaded(t *testing.T) {
	r := stream.NewReconciler(nil)
	if r.Loaded() {
		t.Fatal("fresh reconciler should not report loaded")
	}
	r.ApplyPage(&types.MessagePage{IsDone: true})
	if !r.Loaded() {
		t.Fatal("empty terminal page should still mark the transcript loaded")
	}
	if got := len(r.Messages()); got != 0 {
		t.Fatalf("got %d messages, want 0", got)
	}
}

func TestReconcilerDeltaAccumulation(t *testing.T) {
	r := stream.NewReconciler(nil)

	r.ApplyDelta(&types.StreamDelta{
		StreamID: "s1", Order: 5, Role: "assistant",
		Start: 0, End: 1,
		Parts: []types.RawPart{{Type: "text", Text: "Let me "}},
	})
	r.ApplyDelta(&types.StreamDelta{
		StreamID: "s1", Order: 5,
		Start: 1, End: 2,
		Parts: []types.RawPart{{Type: "text", Text: "check."}},
	})

	msgs := r.Messages()
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if got := msgs[0].Text(); got != "Let me check." {
		t.Fatalf("got text %q", got)
	}
	if msgs[0].Status != types.StatusStreaming {
		t.Fatalf("got status %q, want streaming", msgs[0].Status)
	}

	r.ApplyDelta(&types.StreamDelta{StreamID: "s1", Order: 5, Start: 2, End: 2, Final: true})
	if got := r.Messages()[0].Status; got != types.StatusSuccess {
		t.Fatalf("got status %q after final delta, want success", got)
	}
}

func TestReconcilerDeltaReapplyAndOverlap(t *testing.T) {
	r := stream.NewReconciler(nil)

	first := &types.StreamDelta{
		StreamID: "s1", Order: 5, Role: "assistant",
		Start: 0, End: 2,
		Parts: []types.RawPart{
			{Type: "text", Text: "a"},
			{Type: "text", Text: "b"},
		},
	}
	r.ApplyDelta(first)
	r.ApplyDelta(first) // exact duplicate

	// Overlapping range: [1, 3) re-delivers "b" then adds "c".
	r.ApplyDelta(&types.StreamDelta{
		StreamID: "s1", Order: 5,
		Start: 1, End: 3,
		Parts: []types.RawPart{
			{Type: "text", Text: "b"},
			{Type: "text", Text: "c"},
		},
	})

	if got := r.Messages()[0].Text(); got != "abc" {
		t.Fatalf("got text %q, want abc", got)
	}
	st := r.Stats()
	if st.DeltasIgnored != 1 {
		t.Fatalf("got %d ignored deltas, want 1", st.DeltasIgnored)
	}
	if st.DeltasApplied != 2 {
		t.Fatalf("got %d applied deltas, want 2", st.DeltasApplied)
	}
}

func TestReconcilerOutOfOrderDeltas(t *testing.T) {
	r := stream.NewReconciler(nil)

	// The second range lands first. Nothing is visible yet because the
	// stream has no contiguous prefix.
	r.ApplyDelta(&types.StreamDelta{
		StreamID: "s1", Order: 5, Role: "assistant",
		Start: 1, End: 2,
		Parts: []types.RawPart{{Type: "text", Text: "check."}},
	})
	if got := r.Messages()[0].Text(); got != "" {
		t.Fatalf("got text %q before the gap filled, want empty", got)
	}

	r.ApplyDelta(&types.StreamDelta{
		StreamID: "s1", Order: 5,
		Start: 0, End: 1,
		Parts: []types.RawPart{{Type: "text", Text: "Let me "}},
	})

	if got := r.Messages()[0].Text(); got != "Let me check." {
		t.Fatalf("got text %q, want both ranges in offset order", got)
	}
	st := r.Stats()
	if st.DeltasIgnored != 0 {
		t.Fatalf("got %d ignored deltas, want 0", st.DeltasIgnored)
	}
	if st.DeltasApplied != 2 {
		t.Fatalf("got %d applied deltas, want 2", st.DeltasApplied)
	}
}

func TestReconcilerFinalDeltaBeforeGapFilled(t *testing.T) {
	r := stream.NewReconciler(nil)

	r.ApplyDelta(&types.StreamDelta{
		StreamID: "s1", Order: 5, Role: "assistant",
		Start: 1, End: 2, Final: true,
		Parts: []types.RawPart{{Type: "text", Text: "check."}},
	})
	if got := r.Messages()[0].Status; got != types.StatusStreaming {
		t.Fatalf("got status %q with an unfilled gap, want streaming", got)
	}

	r.ApplyDelta(&types.StreamDelta{
		StreamID: "s1", Order: 5,
		Start: 0, End: 1,
		Parts: []types.RawPart{{Type: "text", Text: "Let me "}},
	})

	msg := r.Messages()[0]
	if msg.Status != types.StatusSuccess {
		t.Fatalf("got status %q once coverage is contiguous, want success", msg.Status)
	}
	if got := msg.Text(); got != "Let me check." {
		t.Fatalf("got text %q", got)
	}
}

func TestReconcilerSettledMessageNeverRegresses(t *testing.T) {
	r := stream.NewReconciler(nil)
	r.ApplyPage(&types.MessagePage{
		Messages: []types.MessageEnvelope{envelope("m1", 1, 0, "assistant", "success", "final text")},
	})

	// A stale delta for the same ordering key must not pull the settled
	// message back to streaming.
	r.ApplyDelta(&types.StreamDelta{
		StreamID: "m1", Order: 1,
		Start: 0, End: 1,
		Parts: []types.RawPart{{Type: "text", Text: "stale"}},
	})

	msg := r.Messages()[0]
	if msg.Status != types.StatusSuccess {
		t.Fatalf("got status %q, want success", msg.Status)
	}
	if got := msg.Text(); got != "final text" {
		t.Fatalf("got text %q, want settled text", got)
	}
}

func TestReconcilerStreamCursors(t *testing.T) {
	r := stream.NewReconciler(nil)
	r.ApplyDelta(&types.StreamDelta{StreamID: "s2", Order: 7, Start: 0, End: 3,
		Parts: []types.RawPart{{Type: "text", Text: "x"}, {Type: "text", Text: "y"}, {Type: "text", Text: "z"}}})
	r.ApplyDelta(&types.StreamDelta{StreamID: "s1", Order: 6, Start: 0, End: 1,
		Parts: []types.RawPart{{Type: "text", Text: "a"}}})

	cursors := r.StreamCursors()
	if len(cursors) != 2 {
		t.Fatalf("got %d cursors, want 2", len(cursors))
	}
	if cursors[0].StreamID != "s1" || cursors[0].Cursor != 1 {
		t.Fatalf("got cursor %+v, want s1/1", cursors[0])
	}
	if cursors[1].StreamID != "s2" || cursors[1].Cursor != 3 {
		t.Fatalf("got cursor %+v, want s2/3", cursors[1])
	}
}

func TestReconcilerResetAndRefetch(t *testing.T) {
	r := stream.NewReconciler(nil)
	r.ApplyPage(&types.MessagePage{
		Messages: []types.MessageEnvelope{envelope("m1", 1, 0, "user", "success", "hi")},
		Cursor:   "c1",
	})
	r.Reset()

	if r.Loaded() || r.Done() {
		t.Fatal("reset should clear loaded and done")
	}
	if got := r.NextPageRequest(0).Cursor; got != "" {
		t.Fatalf("got cursor %q after reset, want empty", got)
	}
	if got := len(r.Messages()); got != 0 {
		t.Fatalf("got %d messages after reset, want 0", got)
	}

	r.ApplyPage(&types.MessagePage{
		Messages: []types.MessageEnvelope{envelope("m1", 1, 0, "user", "success", "hi")},
		IsDone:   true,
	})
	if got := len(r.Messages()); got != 1 {
		t.Fatalf("got %d messages after refetch, want 1", got)
	}
}

func TestReconcilerLastOrder(t *testing.T) {
	r := stream.NewReconciler(nil)
	if got := r.LastOrder(); got != 0 {
		t.Fatalf("got last order %d on empty transcript, want 0", got)
	}
	r.ApplyPage(&types.MessagePage{
		Messages: []types.MessageEnvelope{
			envelope("m1", 1, 0, "user", "success", "a"),
			envelope("m9", 9, 2, "assistant", "success", "b"),
		},
	})
	if got := r.LastOrder(); got != 9 {
		t.Fatalf("got last order %d, want 9", got)
	}
}

func TestReconcilerManyPagesStaysSorted(t *testing.T) {
	r := stream.NewReconciler(nil)
	for page := 4; page >= 0; page-- {
		var envs []types.MessageEnvelope
		for i := 0; i < 10; i++ {
			order := int64(page*10 + i + 1)
			envs = append(envs, envelope(fmt.Sprintf("m%d", order), order, 0, "assistant", "success", "x"))
		}
		r.ApplyPage(&types.MessagePage{Messages: envs, IsDone: page == 0})
	}
	msgs := r.Messages()
	if len(msgs) != 50 {
		t.Fatalf("got %d messages, want 50", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if !msgs[i-1].Key().Less(msgs[i].Key()) {
			t.Fatalf("transcript not strictly increasing at %d", i)
		}
	}
}

func TestMergeOptimisticAppendsAndSorts(t *testing.T) {
	auth := []*types.Message{
		{ID: "m1", Order: 1, Role: types.RoleUser, Status: types.StatusSuccess},
		{ID: "m2", Order: 2, Role: types.RoleAssistant, Status: types.StatusSuccess},
	}
	opt := stream.NewOptimistic("thread-1", "book my dentist", 2)

	res := stream.Merge(auth, []*types.Message{opt})
	if len(res.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(res.Messages))
	}
	last := res.Messages[2]
	if !last.Optimistic || last.Role != types.RoleUser {
		t.Fatalf("optimistic message not last: %+v", last)
	}
	if last.Status != types.StatusPending {
		t.Fatalf("got status %q, want pending", last.Status)
	}
	if !strings.HasPrefix(last.ID, "optimistic-") {
		t.Fatalf("got id %q, want optimistic prefix", last.ID)
	}
	if !res.Evict {
		t.Fatal("merge against non-empty authoritative data should signal eviction")
	}
}

func TestMergeAuthoritativeWinsKeyConflict(t *testing.T) {
	auth := []*types.Message{
		{ID: "m3", Order: 3, Role: types.RoleUser, Status: types.StatusSuccess},
	}
	opt := &types.Message{ID: "opt", Order: 3, Role: types.RoleUser, Status: types.StatusPending, Optimistic: true}

	res := stream.Merge(auth, []*types.Message{opt})
	if len(res.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(res.Messages))
	}
	if res.Messages[0].ID != "m3" {
		t.Fatalf("got id %q, authoritative must win the key", res.Messages[0].ID)
	}
}

func TestMergeNoOptimisticNoEviction(t *testing.T) {
	auth := []*types.Message{{ID: "m1", Order: 1, Role: types.RoleUser, Status: types.StatusSuccess}}
	res := stream.Merge(auth, nil)
	if res.Evict {
		t.Fatal("no optimistic messages, nothing to evict")
	}
	if len(res.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(res.Messages))
	}
}

func TestMergeEmptyAuthoritativeKeepsOptimistic(t *testing.T) {
	opt := stream.NewOptimistic("thread-1", "hello", 0)
	res := stream.Merge(nil, []*types.Message{opt})
	if res.Evict {
		t.Fatal("nothing authoritative arrived, optimistic set must survive")
	}
	if len(res.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(res.Messages))
	}
}
