package branch

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"branchdb/pkg/models"
	"branchdb/pkg/store"
	"branchdb/pkg/telemetry"
	"branchdb/pkg/utils"
)

// CreateThreadInput describes a new top-level thread. Owner defaults to the
// local user; CanSee/CanSend seed the member lists alongside the owner.
type CreateThreadInput struct {
	Name    string
	Owner   models.UserRef
	CanSee  []models.UserRef
	CanSend []models.UserRef
}

// CreateThread creates a thread together with its default embedded thread.
// The two documents reference each other, so the thread is written first
// without its defaultThread field, the embedded thread second pointing back
// at it, and the thread patched last. All three writes land in one batch;
// readers never observe the half-initialized state.
//
// When the owner is a non-local user, the thread id is appended to that
// user's owned set. A missing user document is tolerated: the thread is
// still created and the ownership listing simply will not find it.
func CreateThread(in CreateThreadInput) (*models.Thread, error) {
	if in.Owner == "" {
		in.Owner = models.Local
	}
	th := models.Thread{
		ID:        utils.GenThreadID(),
		Name:      in.Name,
		Owner:     in.Owner,
		CanSee:    withMember(in.CanSee, in.Owner),
		CanSend:   withMember(in.CanSend, in.Owner),
		CreatedTS: time.Now().UnixMilli(),
		UpdatedTS: time.Now().UnixMilli(),
	}
	err := store.Update(th.ID, func(tx *store.Txn) error {
		if err := tx.SetJSON(store.ThreadKey(th.ID), &th); err != nil {
			return err
		}
		et := models.EmbeddedThread{
			ID:       utils.GenEmbeddedThreadID(),
			Thread:   th.ID,
			Messages: []string{},
		}
		if err := tx.SetJSON(store.EmbeddedThreadKey(et.ID), &et); err != nil {
			return err
		}
		th.DefaultThread = et.ID
		if err := tx.SetJSON(store.ThreadKey(th.ID), &th); err != nil {
			return err
		}
		if !th.Owner.IsLocal() {
			u, err := getUserTx(tx, string(th.Owner))
			if err != nil {
				if IsNotFound(err) {
					return nil
				}
				return err
			}
			u.Owner = append(u.Owner, th.ID)
			return tx.SetJSON(store.UserKey(u.ID), u)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordMutationFailure("create_thread")
		return nil, err
	}
	telemetry.RecordMutation("create_thread")
	return &th, nil
}

// EditThreadTitle renames a thread.
func EditThreadTitle(threadID, name string) error {
	err := store.Update(threadID, func(tx *store.Txn) error {
		th, err := getThreadTx(tx, threadID)
		if err != nil {
			return err
		}
		th.Name = name
		th.UpdatedTS = time.Now().UnixMilli()
		return tx.SetJSON(store.ThreadKey(th.ID), th)
	})
	if err != nil {
		telemetry.RecordMutationFailure("edit_thread_title")
		return err
	}
	telemetry.RecordMutation("edit_thread_title")
	return nil
}

// UpdateDescription sets the thread's description. Only the thread owner may
// write it; anyone else gets an InvalidUserIDError.
func UpdateDescription(threadID, text string, by models.UserRef) error {
	err := store.Update(threadID, func(tx *store.Txn) error {
		th, err := getThreadTx(tx, threadID)
		if err != nil {
			return err
		}
		if th.Owner != by {
			return &InvalidUserIDError{ID: string(by)}
		}
		th.Description = &models.ThreadDescription{
			Text:      text,
			UpdatedAt: time.Now().Unix(),
			Creator:   by,
		}
		th.UpdatedTS = time.Now().UnixMilli()
		return tx.SetJSON(store.ThreadKey(th.ID), th)
	})
	if err != nil {
		telemetry.RecordMutationFailure("update_description")
		return err
	}
	telemetry.RecordMutation("update_description")
	return nil
}

// RemoveDescription clears the thread's description, owner-only.
func RemoveDescription(threadID string, by models.UserRef) error {
	err := store.Update(threadID, func(tx *store.Txn) error {
		th, err := getThreadTx(tx, threadID)
		if err != nil {
			return err
		}
		if th.Owner != by {
			return &InvalidUserIDError{ID: string(by)}
		}
		th.Description = nil
		th.UpdatedTS = time.Now().UnixMilli()
		return tx.SetJSON(store.ThreadKey(th.ID), th)
	})
	if err != nil {
		telemetry.RecordMutationFailure("remove_description")
		return err
	}
	telemetry.RecordMutation("remove_description")
	return nil
}

// InviteUser grants a user visibility on a thread, and optionally send
// rights. The invited user's canSee/canSend sets gain the thread id too so
// both sides of the membership stay queryable. A missing user document fails
// the whole mutation.
func InviteUser(threadID string, user models.UserRef, canSend bool) error {
	err := store.Update(threadID, func(tx *store.Txn) error {
		th, err := getThreadTx(tx, threadID)
		if err != nil {
			return err
		}
		th.CanSee = withMember(th.CanSee, user)
		if canSend {
			th.CanSend = withMember(th.CanSend, user)
		}
		th.UpdatedTS = time.Now().UnixMilli()
		u, err := getUserTx(tx, string(user))
		if err != nil {
			return err
		}
		u.CanSee = withID(u.CanSee, threadID)
		if canSend {
			u.CanSend = withID(u.CanSend, threadID)
		}
		if err := tx.SetJSON(store.UserKey(u.ID), u); err != nil {
			return err
		}
		return tx.SetJSON(store.ThreadKey(th.ID), th)
	})
	if err != nil {
		telemetry.RecordMutationFailure("invite_user")
		return err
	}
	telemetry.RecordMutation("invite_user")
	return nil
}

// RemoveUser strips a user's membership from a thread on both sides. The
// owner cannot be removed.
func RemoveUser(threadID string, user models.UserRef) error {
	err := store.Update(threadID, func(tx *store.Txn) error {
		th, err := getThreadTx(tx, threadID)
		if err != nil {
			return err
		}
		if th.Owner == user {
			return &InvalidUserIDError{ID: string(user)}
		}
		th.CanSee = withoutMember(th.CanSee, user)
		th.CanSend = withoutMember(th.CanSend, user)
		th.UpdatedTS = time.Now().UnixMilli()
		if u, err := getUserTx(tx, string(user)); err == nil {
			u.CanSee = withoutID(u.CanSee, threadID)
			u.CanSend = withoutID(u.CanSend, threadID)
			if err := tx.SetJSON(store.UserKey(u.ID), u); err != nil {
				return err
			}
		} else if !IsNotFound(err) {
			return err
		}
		return tx.SetJSON(store.ThreadKey(th.ID), th)
	})
	if err != nil {
		telemetry.RecordMutationFailure("remove_user")
		return err
	}
	telemetry.RecordMutation("remove_user")
	return nil
}

// SoftDeleteThread marks a thread deleted without touching its messages or
// embedded threads. The retention job purges the whole family later.
func SoftDeleteThread(threadID string) error {
	err := store.Update(threadID, func(tx *store.Txn) error {
		th, err := getThreadTx(tx, threadID)
		if err != nil {
			return err
		}
		th.Deleted = true
		th.DeletedTS = time.Now().UnixMilli()
		return tx.SetJSON(store.ThreadKey(th.ID), th)
	})
	if err != nil {
		telemetry.RecordMutationFailure("delete_thread")
		return err
	}
	telemetry.RecordMutation("delete_thread")
	return nil
}

// ThreadsForUser lists live threads the user can see, most recently updated
// first. The local user sees every thread.
func ThreadsForUser(user models.UserRef) ([]models.Thread, error) {
	docs, err := store.Scan(store.ThreadPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]models.Thread, 0, len(docs))
	for _, raw := range docs {
		var th models.Thread
		if err := json.Unmarshal(raw, &th); err != nil {
			continue
		}
		if th.Deleted {
			continue
		}
		if user.IsLocal() || hasMember(th.CanSee, user) {
			out = append(out, th)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedTS > out[j].UpdatedTS })
	return out, nil
}

// ThreadListing groups a user's threads into owned and shared-with.
type ThreadListing struct {
	Owned  []models.Thread `json:"owned"`
	Shared []models.Thread `json:"shared"`
}

// ClassifyThreads splits ThreadsForUser output by ownership.
func ClassifyThreads(user models.UserRef) (*ThreadListing, error) {
	threads, err := ThreadsForUser(user)
	if err != nil {
		return nil, err
	}
	l := &ThreadListing{Owned: []models.Thread{}, Shared: []models.Thread{}}
	for _, th := range threads {
		if th.Owner == user {
			l.Owned = append(l.Owned, th)
		} else {
			l.Shared = append(l.Shared, th)
		}
	}
	return l, nil
}

// EmbeddedThreadsForThread lists the transcript spines belonging to a
// thread, default first then by id for stable ordering.
func EmbeddedThreadsForThread(threadID string) ([]models.EmbeddedThread, error) {
	th, err := GetThread(threadID)
	if err != nil {
		return nil, err
	}
	keys, err := store.ScanKeys(store.EmbeddedThreadPrefix)
	if err != nil {
		return nil, err
	}
	out := []models.EmbeddedThread{}
	for _, k := range keys {
		var et models.EmbeddedThread
		if err := store.GetJSON(k, &et); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if et.Thread == threadID {
			out = append(out, et)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID == th.DefaultThread {
			return true
		}
		if out[j].ID == th.DefaultThread {
			return false
		}
		return strings.Compare(out[i].ID, out[j].ID) < 0
	})
	return out, nil
}

func withMember(s []models.UserRef, u models.UserRef) []models.UserRef {
	for _, v := range s {
		if v == u {
			return s
		}
	}
	return append(s, u)
}

func withoutMember(s []models.UserRef, u models.UserRef) []models.UserRef {
	out := s[:0]
	for _, v := range s {
		if v != u {
			out = append(out, v)
		}
	}
	return out
}

func hasMember(s []models.UserRef, u models.UserRef) bool {
	for _, v := range s {
		if v == u {
			return true
		}
	}
	return false
}

func withID(s []string, id string) []string {
	for _, v := range s {
		if v == id {
			return s
		}
	}
	return append(s, id)
}

func withoutID(s []string, id string) []string {
	out := s[:0]
	for _, v := range s {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
