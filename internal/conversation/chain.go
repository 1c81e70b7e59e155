// Package conversation tracks reply chains and assembles LLM context
// from them.
package conversation

// Turn is one user or bot turn inside a reply chain. It is independent
// of the durable storage.Message type.
type Turn struct {
	IsBot     bool
	Text      string
	MessageID int

	// A turn created by a history query carries the formatted chat log
	// so later turns in the chain keep that context.
	HasHistoryContext bool
	HistoryContext    string
}

// Chain is an ordered sequence of turns. A chain is shared: after an
// extension both the old and the new tracker keys point at the same,
// now-longer chain. Turns is mutated under the Tracker's lock; readers
// that may run concurrently with Extend should work on a
// Tracker.Snapshot instead of the live slice.
type Chain struct {
	Turns []Turn
}
