package store

// Key namespaces. Every entity is one JSON document under a prefixed key;
// the extra "idx" keys are small secondary indexes whose value is the target
// entity id.
const (
	ThreadPrefix         = "thread:"
	EmbeddedThreadPrefix = "ethread:"
	MessagePrefix        = "msg:"
	BundlePrefix         = "edits:"
	DraftPrefix          = "draft:"
	NotePrefix           = "note:"
	NoteThreadIdxPrefix  = "note:idx:thread:"
	UserPrefix           = "user:"
	UserExtIdxPrefix     = "user:idx:extid:"
	UserEmailIdxPrefix   = "user:idx:email:"
	ImagePrefix          = "image:"
	FilePrefix           = "file:"
)

// ThreadKey returns the storage key for a thread document.
func ThreadKey(id string) string { return ThreadPrefix + id }

// EmbeddedThreadKey returns the storage key for an embedded-thread document.
func EmbeddedThreadKey(id string) string { return EmbeddedThreadPrefix + id }

// MessageKey returns the storage key for a message document.
func MessageKey(id string) string { return MessagePrefix + id }

// BundleKey returns the storage key for an edit-bundle document.
func BundleKey(id string) string { return BundlePrefix + id }

// DraftKey returns the storage key for the (thread, user) draft document.
func DraftKey(threadID, user string) string { return DraftPrefix + threadID + ":" + user }

// NoteKey returns the storage key for a note document.
func NoteKey(id string) string { return NotePrefix + id }

// NoteThreadIdxKey returns the secondary-index key linking a thread to one
// of its notes.
func NoteThreadIdxKey(threadID, noteID string) string {
	return NoteThreadIdxPrefix + threadID + ":" + noteID
}

// UserKey returns the storage key for a user document.
func UserKey(id string) string { return UserPrefix + id }

// UserExtIdxKey returns the index key mapping an external identity id to a
// user id.
func UserExtIdxKey(externalID string) string { return UserExtIdxPrefix + externalID }

// UserEmailIdxKey returns the index key mapping an email to a user id.
func UserEmailIdxKey(email string) string { return UserEmailIdxPrefix + email }

// ImageKey returns the storage key for an image document.
func ImageKey(id string) string { return ImagePrefix + id }

// FileKey returns the storage key for a file document.
func FileKey(id string) string { return FilePrefix + id }
