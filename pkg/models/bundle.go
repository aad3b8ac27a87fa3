package models

// BundleRef points at one branch variant: the message carrying the variant
// content and the embedded thread that shows the transcript containing it.
type BundleRef struct {
	Thread  string `json:"thread"`
	Message string `json:"message"`
}

// EditBundle is the ordered variant list for one branch axis of a message.
// The same record shape serves both axes: a message's edit history and its
// regeneration history are two separate bundles. Index 0 is the original,
// later indices are alternates in creation order.
//
// A bundle is never persisted empty: the last entry's removal removes the
// bundle itself.
type EditBundle struct {
	ID     string      `json:"id"`
	Thread string      `json:"thread"`
	Msgs   []BundleRef `json:"msgs"`
}
