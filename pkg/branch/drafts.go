package branch

import (
	"errors"
	"time"

	"branchdb/pkg/models"
	"branchdb/pkg/store"
	"branchdb/pkg/telemetry"
)

// SaveDraft upserts the composer draft for a (thread, user) pair. Saving an
// empty draft deletes it instead, so abandoned composers leave nothing
// behind.
func SaveDraft(threadID string, user models.UserRef, parts []models.PromptPart, model string) error {
	if user == "" {
		user = models.Local
	}
	err := store.Update(threadID, func(tx *store.Txn) error {
		if _, err := getThreadTx(tx, threadID); err != nil {
			return err
		}
		key := store.DraftKey(threadID, string(user))
		if len(parts) == 0 {
			return tx.Delete(key)
		}
		d := models.Draft{
			Thread:    threadID,
			User:      user,
			Message:   parts,
			Model:     model,
			UpdatedTS: time.Now().UnixMilli(),
		}
		return tx.SetJSON(key, &d)
	})
	if err != nil {
		telemetry.RecordMutationFailure("save_draft")
		return err
	}
	telemetry.RecordMutation("save_draft")
	return nil
}

// GetDraft returns the draft for a (thread, user) pair.
func GetDraft(threadID string, user models.UserRef) (*models.Draft, error) {
	if user == "" {
		user = models.Local
	}
	var d models.Draft
	if err := store.GetJSON(store.DraftKey(threadID, string(user)), &d); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NoDraftError{ID: threadID + ":" + string(user)}
		}
		return nil, err
	}
	return &d, nil
}

// DeleteDraft drops the draft for a (thread, user) pair. Deleting a draft
// that does not exist is not an error.
func DeleteDraft(threadID string, user models.UserRef) error {
	if user == "" {
		user = models.Local
	}
	err := store.Update(threadID, func(tx *store.Txn) error {
		return tx.Delete(store.DraftKey(threadID, string(user)))
	})
	if err != nil {
		telemetry.RecordMutationFailure("delete_draft")
		return err
	}
	telemetry.RecordMutation("delete_draft")
	return nil
}
