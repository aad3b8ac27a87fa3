package models

// UserRef identifies a message sender or thread member. It is either a real
// user id or the Local sentinel used by unauthenticated, local-only clients.
type UserRef string

// Local is the anonymous sender sentinel. It is stored verbatim, so the
// wire and persisted forms stay compatible with clients that send "local".
const Local UserRef = "local"

// IsLocal reports whether the ref is the anonymous sentinel.
func (u UserRef) IsLocal() bool { return u == Local }

// String returns the raw ref value.
func (u UserRef) String() string { return string(u) }
