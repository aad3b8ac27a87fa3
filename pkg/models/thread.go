package models

// PinnedRef names a pinned message together with the embedded thread the UI
// should open when jumping to it.
type PinnedRef struct {
	Message string `json:"message"`
	Thread  string `json:"thread"`
}

// ThreadDescription is optional owner-set metadata on a thread.
type ThreadDescription struct {
	Text string `json:"text"`
	// Seconds since epoch
	UpdatedAt int64   `json:"updatedAt"`
	Creator   UserRef `json:"creator"`
}

// Thread is a named conversation container. Owner is set at creation and
// never cleared; DefaultThread points at the root embedded thread and is
// closed immediately after creation.
type Thread struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Owner  UserRef     `json:"owner"`
	Pinned []PinnedRef `json:"pinned"`

	CanSee  []UserRef `json:"canSee"`
	CanSend []UserRef `json:"canSend"`

	DefaultThread string             `json:"defaultThread,omitempty"`
	Description   *ThreadDescription `json:"description,omitempty"`

	// Created/updated timestamps (ms)
	CreatedTS int64 `json:"created_ts,omitempty"`
	UpdatedTS int64 `json:"updated_ts,omitempty"`

	// Deleted marks a thread as soft-deleted; DeletedTS records deletion time (ms).
	// Hard removal is deferred to the retention runner.
	Deleted   bool  `json:"deleted,omitempty"`
	DeletedTS int64 `json:"deleted_ts,omitempty"`
}

// EmbeddedThread is one linear transcript: an ordered list of message ids.
// Every edit or regeneration forks a new EmbeddedThread; messages are shared
// between embedded threads by reference.
type EmbeddedThread struct {
	ID string `json:"id"`
	// Owning thread; empty while the parent thread is still being created.
	Thread   string   `json:"thread,omitempty"`
	Messages []string `json:"messages"`
}
