package events

import "github.com/saudievents/server/internal/store"

// The like/save ledgers are duplicate-free sets of actor emails. Membership
// toggles are idempotent, and the likes counter is always derived from set
// cardinality rather than incremented independently, so repeated calls
// cannot make it drift.

// addMember returns the set with member present and whether it changed.
func addMember(set []string, member string) ([]string, bool) {
	for _, existing := range set {
		if existing == member {
			return set, false
		}
	}
	return append(set, member), true
}

// removeMember returns the set with member absent and whether it changed.
func removeMember(set []string, member string) ([]string, bool) {
	for i, existing := range set {
		if existing == member {
			return append(set[:i], set[i+1:]...), true
		}
	}
	return set, false
}

// recountLikes re-derives the counter from the source-of-truth set.
func recountLikes(ev *store.Event) {
	ev.Likes = len(ev.LikedBy)
}
