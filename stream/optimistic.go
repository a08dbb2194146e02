package stream

import (
	"sort"

	"github.com/google/uuid"

	"github.com/peroskyX/inbox-poc/types"
)

// MergeResult is the outcome of merging optimistic messages into an
// authoritative transcript.
type MergeResult struct {
	// Messages is the combined, ordered transcript.
	Messages []*types.Message
	// Evict reports that authoritative data arrived while optimistic
	// messages were pending; the caller should drop its optimistic set
	// after rendering this result.
	Evict bool
}

// NewOptimistic builds a client-local pending user message. It is keyed
// one past the last authoritative order so it sorts after everything the
// backend has confirmed.
func NewOptimistic(threadID, text string, lastOrder int64) *types.Message {
	return &types.Message{
		ID:         "optimistic-" + uuid.NewString(),
		ThreadID:   threadID,
		Role:       types.RoleUser,
		Order:      lastOrder + 1,
		StepOrder:  0,
		Status:     types.StatusPending,
		Parts:      []types.Part{types.TextPart{Text: text}},
		Optimistic: true,
	}
}

// Merge appends optimistic messages to the authoritative transcript,
// skipping any optimistic message whose ordering key an authoritative
// message already occupies. Authoritative always wins a key conflict.
//
// Evict is set whenever the authoritative transcript is non-empty and
// optimistic messages are pending: any new confirmed data is taken as
// the signal that the backend has caught up, and surviving duplicates
// are removed no later than the next merge.
func Merge(authoritative, optimistic []*types.Message) MergeResult {
	if len(optimistic) == 0 {
		return MergeResult{Messages: authoritative}
	}

	taken := make(map[types.MessageKey]struct{}, len(authoritative))
	for _, m := range authoritative {
		taken[m.Key()] = struct{}{}
	}

	out := make([]*types.Message, 0, len(authoritative)+len(optimistic))
	out = append(out, authoritative...)
	for _, m := range optimistic {
		if _, ok := taken[m.Key()]; ok {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().Less(out[j].Key())
	})
	return MergeResult{Messages: out, Evict: len(authoritative) > 0}
}
