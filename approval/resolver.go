// Package approval turns a tool invocation into a settled decision: it
// resolves each sub-operation's free-text query to candidate matches,
// collects the user's selections, and submits exactly one result per
// tool call.
package approval

import (
	"context"
	"sync"

	"github.com/peroskyX/inbox-poc/log"
	"github.com/peroskyX/inbox-poc/types"
)

// MaxDisplayMatches caps the candidates offered per sub-operation.
const MaxDisplayMatches = 3

// maxConcurrentSearches bounds the resolver's fan-out.
const maxConcurrentSearches = 4

// Searcher resolves a free-text query to candidate matches, best first.
// backend.Client satisfies it.
type Searcher interface {
	SearchEntities(ctx context.Context, query string) ([]types.CandidateMatch, error)
}

// SubOpResult is the resolution outcome for one sub-operation. A failed
// search carries its error here; one query failing never blocks the
// others.
type SubOpResult struct {
	Index   int
	Query   string
	Matches []types.CandidateMatch
	Err     error
}

// ResolveSubOp resolves one sub-operation's query, truncating to the top
// MaxDisplayMatches candidates. Sub-operations without a query resolve
// to zero matches immediately.
func ResolveSubOp(ctx context.Context, s Searcher, op types.SubOperation) SubOpResult {
	res := SubOpResult{Index: op.Index, Query: op.Query}
	if op.Query == "" {
		return res
	}
	matches, err := s.SearchEntities(ctx, op.Query)
	if err != nil {
		res.Err = err
		return res
	}
	if len(matches) > MaxDisplayMatches {
		matches = matches[:MaxDisplayMatches]
	}
	res.Matches = matches
	return res
}

// Resolver fans searches out over an invocation's sub-operations.
type Resolver struct {
	searcher Searcher
	logger   *log.Logger
}

// NewResolver creates a resolver. A nil logger disables logging.
func NewResolver(s Searcher, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Nop()
	}
	return &Resolver{searcher: s, logger: logger}
}

// Resolve searches every queried sub-operation concurrently and streams
// results as they arrive. The channel closes once all sub-operations have
// resolved. Results arrive in completion order, not index order; each
// carries its index.
func (r *Resolver) Resolve(ctx context.Context, inv types.Invocation) <-chan SubOpResult {
	queries := inv.Queries()
	out := make(chan SubOpResult, len(queries))
	if len(queries) == 0 {
		close(out)
		return out
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrentSearches)
	for _, op := range queries {
		wg.Add(1)
		go func(op types.SubOperation) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res := ResolveSubOp(ctx, r.searcher, op)
			if res.Err != nil {
				r.logger.Warn("sub-operation search failed", map[string]any{
					"tool":  inv.ToolName,
					"index": op.Index,
					"error": res.Err.Error(),
				})
			}
			out <- res
		}(op)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// ResolveAll collects the full resolution, indexed by sub-operation.
func (r *Resolver) ResolveAll(ctx context.Context, inv types.Invocation) map[int]SubOpResult {
	out := make(map[int]SubOpResult)
	for res := range r.Resolve(ctx, inv) {
		out[res.Index] = res
	}
	return out
}
