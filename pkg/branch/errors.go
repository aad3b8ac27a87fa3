package branch

import "errors"

// Domain errors are values, not panics: every mutation validates the ids it
// was handed before writing anything and returns the first miss. The API
// layer matches on these types to pick a status code.

// NoThreadError reports a missing thread or embedded thread.
type NoThreadError struct{ ID string }

func (e *NoThreadError) Error() string { return "no thread with id: " + e.ID }

// NoMessageError reports a missing message.
type NoMessageError struct{ ID string }

func (e *NoMessageError) Error() string { return "no message with id: " + e.ID }

// NoEditError reports a missing edit bundle.
type NoEditError struct{ ID string }

func (e *NoEditError) Error() string { return "no edit bundle with id: " + e.ID }

// NoRegenError reports a missing regen bundle.
type NoRegenError struct{ ID string }

func (e *NoRegenError) Error() string { return "no regen bundle with id: " + e.ID }

// NoDraftError reports a missing draft.
type NoDraftError struct{ ID string }

func (e *NoDraftError) Error() string { return "no draft for: " + e.ID }

// NoNoteError reports a missing note.
type NoNoteError struct{ ID string }

func (e *NoNoteError) Error() string { return "no note with id: " + e.ID }

// NoUserError reports a missing user.
type NoUserError struct{ ID string }

func (e *NoUserError) Error() string { return "no user with id: " + e.ID }

// InvalidUserIDError reports an authorization mismatch, e.g. a non-owner
// attempting an owner-only action.
type InvalidUserIDError struct{ ID string }

func (e *InvalidUserIDError) Error() string { return "invalid user id: " + e.ID }

// NoImageError reports a missing image record.
type NoImageError struct{ ID string }

func (e *NoImageError) Error() string { return "no image with id: " + e.ID }

// NoFileError reports a missing file record.
type NoFileError struct{ ID string }

func (e *NoFileError) Error() string { return "no file with id: " + e.ID }

// IsNotFound reports whether err is any of the missing-entity errors.
func IsNotFound(err error) bool {
	var (
		nt *NoThreadError
		nm *NoMessageError
		ne *NoEditError
		nr *NoRegenError
		nd *NoDraftError
		nn *NoNoteError
		nu *NoUserError
		ni *NoImageError
		nf *NoFileError
	)
	return errors.As(err, &nt) || errors.As(err, &nm) || errors.As(err, &ne) ||
		errors.As(err, &nr) || errors.As(err, &nd) || errors.As(err, &nn) ||
		errors.As(err, &nu) || errors.As(err, &ni) || errors.As(err, &nf)
}

// IsForbidden reports whether err is an authorization mismatch.
func IsForbidden(err error) bool {
	var iv *InvalidUserIDError
	return errors.As(err, &iv)
}
