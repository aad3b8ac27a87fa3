package models

// Draft is unsent composition state, one per (thread, user). Drafts live
// outside the branch graph and are freely overwritten and deleted.
type Draft struct {
	Thread  string       `json:"thread"`
	User    UserRef      `json:"user"`
	Message []PromptPart `json:"message"`
	Model   string       `json:"model"`
	// Last write timestamp (ms); used by the retention runner to expire
	// abandoned drafts.
	UpdatedTS int64 `json:"updated_ts,omitempty"`
}

// Note is free-form per-thread annotation text, one per (creator, thread)
// under the upsert operation.
type Note struct {
	ID      string  `json:"id"`
	Message string  `json:"message"`
	Thread  string  `json:"thread"`
	Creator UserRef `json:"creator"`
	Text    string  `json:"text"`
	// Seconds since epoch
	UpdatedAt int64 `json:"updatedAt"`
}
