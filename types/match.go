package types

// CandidateMatch is a search result usable to resolve a sub-operation's
// free-text query to a concrete schedule item. Matches are fetched live
// per query and never persisted.
type CandidateMatch struct {
	ID        string `msgpack:"id" json:"id"`
	Title     string `msgpack:"title" json:"title"`
	Type      string `msgpack:"type" json:"type"`
	Status    string `msgpack:"status,omitempty" json:"status,omitempty"`
	StartDate string `msgpack:"startDate,omitempty" json:"startDate,omitempty"`
}
