package branch

import (
	"errors"
	"time"

	"branchdb/pkg/models"
	"branchdb/pkg/store"
	"branchdb/pkg/telemetry"
	"branchdb/pkg/utils"
)

// AddMessageInput carries everything needed to append a new message to an
// embedded thread. Sender defaults to the local user when empty.
type AddMessageInput struct {
	ThreadID         string
	EmbeddedThreadID string
	Prompt           []models.PromptPart
	Response         []models.ResponsePart
	Reasoning        string
	Model            string
	Sender           models.UserRef
}

// AddMessage appends a new message to the end of an embedded thread. The
// message is born with one edit bundle and one regen bundle, each holding a
// single entry pointing back at the embedded thread and the message itself,
// so every message always has at least one sibling on both axes: itself.
func AddMessage(in AddMessageInput) (string, error) {
	if in.Sender == "" {
		in.Sender = models.Local
	}
	var msgID string
	err := store.Update(in.ThreadID, func(tx *store.Txn) error {
		th, err := getThreadTx(tx, in.ThreadID)
		if err != nil {
			return err
		}
		et, err := getEmbeddedThreadTx(tx, in.EmbeddedThreadID)
		if err != nil {
			return err
		}

		msgID = utils.GenMessageID()
		seed := []models.BundleRef{{Thread: et.ID, Message: msgID}}
		edits := models.EditBundle{ID: utils.GenBundleID(), Thread: th.ID, Msgs: seed}
		regens := models.EditBundle{ID: utils.GenBundleID(), Thread: th.ID, Msgs: seed}

		msg := models.Message{
			ID:           msgID,
			Thread:       th.ID,
			Prompt:       in.Prompt,
			Response:     in.Response,
			Reasoning:    in.Reasoning,
			HasReasoning: in.Reasoning != "",
			Model:        in.Model,
			Sender:       in.Sender,
			Edits:        edits.ID,
			Regens:       regens.ID,
			CurEdit:      0,
			CurResp:      0,
			TS:           time.Now().UnixMilli(),
		}

		et.Messages = append(et.Messages, msgID)
		th.UpdatedTS = time.Now().UnixMilli()

		if err := tx.SetJSON(store.BundleKey(edits.ID), &edits); err != nil {
			return err
		}
		if err := tx.SetJSON(store.BundleKey(regens.ID), &regens); err != nil {
			return err
		}
		if err := tx.SetJSON(store.MessageKey(msgID), &msg); err != nil {
			return err
		}
		if err := tx.SetJSON(store.EmbeddedThreadKey(et.ID), et); err != nil {
			return err
		}
		return tx.SetJSON(store.ThreadKey(th.ID), th)
	})
	if err != nil {
		telemetry.RecordMutationFailure("add_message")
		return "", err
	}
	telemetry.RecordMutation("add_message")
	return msgID, nil
}

// EditMessageInput names the message being edited, the embedded thread the
// edit forks from, and the replacement content.
type EditMessageInput struct {
	ThreadID         string
	EmbeddedThreadID string
	MessageID        string
	Prompt           []models.PromptPart
	Response         []models.ResponsePart
	Reasoning        string
	Model            string
	Sender           models.UserRef
}

// EditMessage creates an edit sibling of an existing message and forks the
// transcript at that point. The new message joins the original's edit bundle
// and gets a fresh single-entry regen bundle: edit history is shared across
// siblings, regen history starts over. The returned embedded thread carries
// the transcript prefix up to (not including) the edited message, plus the
// new message at its tip.
func EditMessage(in EditMessageInput) (*models.EmbeddedThread, error) {
	if in.Sender == "" {
		in.Sender = models.Local
	}
	var forked *models.EmbeddedThread
	err := store.Update(in.ThreadID, func(tx *store.Txn) error {
		th, err := getThreadTx(tx, in.ThreadID)
		if err != nil {
			return err
		}
		et, err := getEmbeddedThreadTx(tx, in.EmbeddedThreadID)
		if err != nil {
			return err
		}
		orig, err := getMessageTx(tx, in.MessageID)
		if err != nil {
			return err
		}
		bundle, err := getBundleTx(tx, orig.Edits)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return &NoMessageError{ID: in.MessageID}
			}
			return err
		}
		at := indexOf(et.Messages, in.MessageID)
		if at < 0 {
			return &NoMessageError{ID: in.MessageID}
		}

		newID := utils.GenMessageID()
		regens := models.EditBundle{
			ID:     utils.GenBundleID(),
			Thread: th.ID,
			Msgs:   []models.BundleRef{{Thread: "", Message: newID}},
		}

		msg := models.Message{
			ID:           newID,
			Thread:       th.ID,
			Prompt:       in.Prompt,
			Response:     in.Response,
			Reasoning:    in.Reasoning,
			HasReasoning: in.Reasoning != "",
			Model:        in.Model,
			Sender:       in.Sender,
			Edits:        bundle.ID,
			Regens:       regens.ID,
			CurEdit:      len(bundle.Msgs),
			CurResp:      0,
			TS:           time.Now().UnixMilli(),
		}

		fork := models.EmbeddedThread{
			ID:       utils.GenEmbeddedThreadID(),
			Thread:   th.ID,
			Messages: append(append([]string{}, et.Messages[:at]...), newID),
		}
		regens.Msgs[0].Thread = fork.ID
		bundle.Msgs = append(bundle.Msgs, models.BundleRef{Thread: fork.ID, Message: newID})
		th.UpdatedTS = time.Now().UnixMilli()

		if err := tx.SetJSON(store.BundleKey(regens.ID), &regens); err != nil {
			return err
		}
		if err := tx.SetJSON(store.BundleKey(bundle.ID), bundle); err != nil {
			return err
		}
		if err := tx.SetJSON(store.MessageKey(newID), &msg); err != nil {
			return err
		}
		if err := tx.SetJSON(store.EmbeddedThreadKey(fork.ID), &fork); err != nil {
			return err
		}
		if err := tx.SetJSON(store.ThreadKey(th.ID), th); err != nil {
			return err
		}
		forked = &fork
		return nil
	})
	if err != nil {
		telemetry.RecordMutationFailure("edit_message")
		return nil, err
	}
	telemetry.RecordMutation("edit_message")
	return forked, nil
}

// RegenMessageInput names the message being regenerated and the new response.
// The prompt of the sibling is copied verbatim from the original message.
type RegenMessageInput struct {
	ThreadID         string
	EmbeddedThreadID string
	MessageID        string
	Response         []models.ResponsePart
	Reasoning        string
	Model            string
	Sender           models.UserRef
}

// RegenMessage is the mirror of EditMessage on the regen axis: the new
// sibling keeps the original prompt, joins the original's regen bundle, and
// gets a fresh single-entry edit bundle.
func RegenMessage(in RegenMessageInput) (*models.EmbeddedThread, error) {
	if in.Sender == "" {
		in.Sender = models.Local
	}
	var forked *models.EmbeddedThread
	err := store.Update(in.ThreadID, func(tx *store.Txn) error {
		th, err := getThreadTx(tx, in.ThreadID)
		if err != nil {
			return err
		}
		et, err := getEmbeddedThreadTx(tx, in.EmbeddedThreadID)
		if err != nil {
			return err
		}
		orig, err := getMessageTx(tx, in.MessageID)
		if err != nil {
			return err
		}
		bundle, err := getBundleTx(tx, orig.Regens)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return &NoMessageError{ID: in.MessageID}
			}
			return err
		}
		at := indexOf(et.Messages, in.MessageID)
		if at < 0 {
			return &NoMessageError{ID: in.MessageID}
		}

		newID := utils.GenMessageID()
		edits := models.EditBundle{
			ID:     utils.GenBundleID(),
			Thread: th.ID,
			Msgs:   []models.BundleRef{{Thread: "", Message: newID}},
		}

		msg := models.Message{
			ID:           newID,
			Thread:       th.ID,
			Prompt:       orig.Prompt,
			Response:     in.Response,
			Reasoning:    in.Reasoning,
			HasReasoning: in.Reasoning != "",
			Model:        in.Model,
			Sender:       in.Sender,
			Edits:        edits.ID,
			Regens:       bundle.ID,
			CurEdit:      0,
			CurResp:      len(bundle.Msgs),
			TS:           time.Now().UnixMilli(),
		}

		fork := models.EmbeddedThread{
			ID:       utils.GenEmbeddedThreadID(),
			Thread:   th.ID,
			Messages: append(append([]string{}, et.Messages[:at]...), newID),
		}
		edits.Msgs[0].Thread = fork.ID
		bundle.Msgs = append(bundle.Msgs, models.BundleRef{Thread: fork.ID, Message: newID})
		th.UpdatedTS = time.Now().UnixMilli()

		if err := tx.SetJSON(store.BundleKey(edits.ID), &edits); err != nil {
			return err
		}
		if err := tx.SetJSON(store.BundleKey(bundle.ID), bundle); err != nil {
			return err
		}
		if err := tx.SetJSON(store.MessageKey(newID), &msg); err != nil {
			return err
		}
		if err := tx.SetJSON(store.EmbeddedThreadKey(fork.ID), &fork); err != nil {
			return err
		}
		if err := tx.SetJSON(store.ThreadKey(th.ID), th); err != nil {
			return err
		}
		forked = &fork
		return nil
	})
	if err != nil {
		telemetry.RecordMutationFailure("regen_message")
		return nil, err
	}
	telemetry.RecordMutation("regen_message")
	return forked, nil
}

// PinMessage records a pin on the thread and flips the message's pinned
// flag. The pin remembers which embedded thread the message was pinned from
// so navigation can jump back to that transcript.
func PinMessage(threadID, embeddedThreadID, msgID string) error {
	err := store.Update(threadID, func(tx *store.Txn) error {
		th, err := getThreadTx(tx, threadID)
		if err != nil {
			return err
		}
		msg, err := getMessageTx(tx, msgID)
		if err != nil {
			return err
		}
		for _, p := range th.Pinned {
			if p.Message == msgID {
				return nil
			}
		}
		th.Pinned = append(th.Pinned, models.PinnedRef{Message: msgID, Thread: embeddedThreadID})
		msg.Pinned = true
		if err := tx.SetJSON(store.MessageKey(msgID), msg); err != nil {
			return err
		}
		return tx.SetJSON(store.ThreadKey(th.ID), th)
	})
	if err != nil {
		telemetry.RecordMutationFailure("pin_message")
		return err
	}
	telemetry.RecordMutation("pin_message")
	return nil
}

// UnpinMessage removes a message's pin entries from the thread. The message
// flag is cleared if the message still exists; a deleted message's stale pin
// can still be removed.
func UnpinMessage(threadID, msgID string) error {
	err := store.Update(threadID, func(tx *store.Txn) error {
		th, err := getThreadTx(tx, threadID)
		if err != nil {
			return err
		}
		kept := th.Pinned[:0]
		for _, p := range th.Pinned {
			if p.Message != msgID {
				kept = append(kept, p)
			}
		}
		th.Pinned = kept
		if msg, err := getMessageTx(tx, msgID); err == nil {
			msg.Pinned = false
			if err := tx.SetJSON(store.MessageKey(msgID), msg); err != nil {
				return err
			}
		}
		return tx.SetJSON(store.ThreadKey(th.ID), th)
	})
	if err != nil {
		telemetry.RecordMutationFailure("unpin_message")
		return err
	}
	telemetry.RecordMutation("unpin_message")
	return nil
}

// DeleteMessage removes a message and shrinks its bundles. A bundle whose
// only entry is the deleted message is deleted outright; otherwise only the
// matching entry is removed so surviving siblings keep their history.
// Embedded threads and pins that referenced the message are left alone;
// readers tolerate the tombstones.
func DeleteMessage(msgID string) error {
	msg, err := GetMessage(msgID)
	if err != nil {
		telemetry.RecordMutationFailure("delete_message")
		return err
	}
	err = store.Update(msg.Thread, func(tx *store.Txn) error {
		m, err := getMessageTx(tx, msgID)
		if err != nil {
			return err
		}
		if err := shrinkBundle(tx, m.Edits, msgID, true); err != nil {
			return err
		}
		if err := shrinkBundle(tx, m.Regens, msgID, false); err != nil {
			return err
		}
		return tx.Delete(store.MessageKey(msgID))
	})
	if err != nil {
		telemetry.RecordMutationFailure("delete_message")
		return err
	}
	telemetry.RecordMutation("delete_message")
	return nil
}

func shrinkBundle(tx *store.Txn, bundleID, msgID string, editAxis bool) error {
	b, err := getBundleTx(tx, bundleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			if editAxis {
				return &NoEditError{ID: bundleID}
			}
			return &NoRegenError{ID: bundleID}
		}
		return err
	}
	if len(b.Msgs) == 1 {
		return tx.Delete(store.BundleKey(bundleID))
	}
	kept := b.Msgs[:0]
	for _, r := range b.Msgs {
		if r.Message != msgID {
			kept = append(kept, r)
		}
	}
	b.Msgs = kept
	return tx.SetJSON(store.BundleKey(bundleID), b)
}

// Transcript materializes an embedded thread's message list. A missing
// embedded thread yields an empty transcript, and message ids that no longer
// resolve are skipped, so transcripts holding tombstones still render.
func Transcript(embeddedThreadID string) ([]models.Message, error) {
	var et models.EmbeddedThread
	if err := store.GetJSON(store.EmbeddedThreadKey(embeddedThreadID), &et); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []models.Message{}, nil
		}
		return nil, err
	}
	out := make([]models.Message, 0, len(et.Messages))
	for _, id := range et.Messages {
		var m models.Message
		if err := store.GetJSON(store.MessageKey(id), &m); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
