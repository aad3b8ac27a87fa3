package branch

import (
	"errors"
	"sort"
	"strings"
	"time"

	"branchdb/pkg/models"
	"branchdb/pkg/store"
	"branchdb/pkg/telemetry"
	"branchdb/pkg/utils"
)

// UpsertNote creates or replaces the creator's note on a message. A user
// keeps at most one note per message, so an existing (message, creator)
// match is edited in place.
func UpsertNote(threadID, msgID, text string, creator models.UserRef) (*models.Note, error) {
	if creator == "" {
		creator = models.Local
	}
	var note *models.Note
	err := store.Update(threadID, func(tx *store.Txn) error {
		if _, err := getThreadTx(tx, threadID); err != nil {
			return err
		}
		if _, err := getMessageTx(tx, msgID); err != nil {
			return err
		}
		existing, err := noteForMessageTx(tx, threadID, msgID, creator)
		if err != nil {
			return err
		}
		if existing != nil {
			existing.Text = text
			existing.UpdatedAt = time.Now().Unix()
			note = existing
			return tx.SetJSON(store.NoteKey(existing.ID), existing)
		}
		n := models.Note{
			ID:        utils.GenNoteID(),
			Message:   msgID,
			Thread:    threadID,
			Creator:   creator,
			Text:      text,
			UpdatedAt: time.Now().Unix(),
		}
		note = &n
		if err := tx.Set(store.NoteThreadIdxKey(threadID, n.ID), []byte(n.ID)); err != nil {
			return err
		}
		return tx.SetJSON(store.NoteKey(n.ID), &n)
	})
	if err != nil {
		telemetry.RecordMutationFailure("upsert_note")
		return nil, err
	}
	telemetry.RecordMutation("upsert_note")
	return note, nil
}

// EditNote rewrites an existing note's text. Only the creator may edit it.
func EditNote(noteID, text string, by models.UserRef) error {
	if by == "" {
		by = models.Local
	}
	n, err := GetNote(noteID)
	if err != nil {
		telemetry.RecordMutationFailure("edit_note")
		return err
	}
	err = store.Update(n.Thread, func(tx *store.Txn) error {
		var cur models.Note
		if err := tx.GetJSON(store.NoteKey(noteID), &cur); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return &NoNoteError{ID: noteID}
			}
			return err
		}
		if cur.Creator != by {
			return &InvalidUserIDError{ID: string(by)}
		}
		cur.Text = text
		cur.UpdatedAt = time.Now().Unix()
		return tx.SetJSON(store.NoteKey(noteID), &cur)
	})
	if err != nil {
		telemetry.RecordMutationFailure("edit_note")
		return err
	}
	telemetry.RecordMutation("edit_note")
	return nil
}

// DeleteNote removes a note and its thread index entry, creator-only.
func DeleteNote(noteID string, by models.UserRef) error {
	if by == "" {
		by = models.Local
	}
	n, err := GetNote(noteID)
	if err != nil {
		telemetry.RecordMutationFailure("delete_note")
		return err
	}
	err = store.Update(n.Thread, func(tx *store.Txn) error {
		var cur models.Note
		if err := tx.GetJSON(store.NoteKey(noteID), &cur); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return &NoNoteError{ID: noteID}
			}
			return err
		}
		if cur.Creator != by {
			return &InvalidUserIDError{ID: string(by)}
		}
		if err := tx.Delete(store.NoteThreadIdxKey(cur.Thread, noteID)); err != nil {
			return err
		}
		return tx.Delete(store.NoteKey(noteID))
	})
	if err != nil {
		telemetry.RecordMutationFailure("delete_note")
		return err
	}
	telemetry.RecordMutation("delete_note")
	return nil
}

// GetNote returns a note by id.
func GetNote(id string) (*models.Note, error) {
	var n models.Note
	if err := store.GetJSON(store.NoteKey(id), &n); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NoNoteError{ID: id}
		}
		return nil, err
	}
	return &n, nil
}

// NotesForThread lists one user's notes on a thread, newest first. Notes
// whose message has since been deleted are still returned; the text may
// outlive its anchor.
func NotesForThread(threadID string, creator models.UserRef) ([]models.Note, error) {
	if creator == "" {
		creator = models.Local
	}
	keys, err := store.ScanKeys(store.NoteThreadIdxPrefix + threadID + ":")
	if err != nil {
		return nil, err
	}
	out := []models.Note{}
	for _, k := range keys {
		id, err := store.Get(k)
		if err != nil {
			continue
		}
		var n models.Note
		if err := store.GetJSON(store.NoteKey(string(id)), &n); err != nil {
			continue
		}
		if n.Creator == creator {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })
	return out, nil
}

func noteForMessageTx(tx *store.Txn, threadID, msgID string, creator models.UserRef) (*models.Note, error) {
	keys, err := tx.ScanKeys(store.NoteThreadIdxPrefix + threadID + ":")
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		id := strings.TrimPrefix(k, store.NoteThreadIdxPrefix+threadID+":")
		var n models.Note
		if err := tx.GetJSON(store.NoteKey(id), &n); err != nil {
			continue
		}
		if n.Message == msgID && n.Creator == creator {
			return &n, nil
		}
	}
	return nil, nil
}
