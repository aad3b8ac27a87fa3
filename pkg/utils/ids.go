package utils

import (
	"strings"

	"github.com/google/uuid"
)

// Entity ids are prefixed UUIDs so a bare id names its table in logs and
// store dumps.
func newID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GenThreadID returns a new thread id.
func GenThreadID() string { return newID("th") }

// GenEmbeddedThreadID returns a new embedded-thread (transcript) id.
func GenEmbeddedThreadID() string { return newID("eth") }

// GenMessageID returns a new message id.
func GenMessageID() string { return newID("msg") }

// GenBundleID returns a new edit-bundle id.
func GenBundleID() string { return newID("ed") }

// GenNoteID returns a new note id.
func GenNoteID() string { return newID("note") }

// GenUserID returns a new user id.
func GenUserID() string { return newID("usr") }

// GenImageID returns a new image id.
func GenImageID() string { return newID("img") }

// GenFileID returns a new file id.
func GenFileID() string { return newID("file") }
