package branch

import (
	"testing"

	"branchdb/pkg/models"
)

// TestCreateThreadLinksDefaultEmbeddedThread verifies the mutual reference
// between a thread and its default embedded thread is complete after
// creation.
func TestCreateThreadLinksDefaultEmbeddedThread(t *testing.T) {
	openStore(t)
	th := newThread(t, "linked")

	if th.DefaultThread == "" {
		t.Fatalf("thread missing default embedded thread")
	}
	et, err := GetEmbeddedThread(th.DefaultThread)
	if err != nil {
		t.Fatalf("GetEmbeddedThread: %v", err)
	}
	if et.Thread != th.ID {
		t.Fatalf("embedded thread points at %s, want %s", et.Thread, th.ID)
	}
	if len(et.Messages) != 0 {
		t.Fatalf("new embedded thread not empty: %v", et.Messages)
	}

	// the persisted thread carries the link too, not just the returned copy
	stored, err := GetThread(th.ID)
	if err != nil {
		t.Fatalf("GetThread: %v", err)
	}
	if stored.DefaultThread != et.ID {
		t.Fatalf("stored defaultThread = %q, want %q", stored.DefaultThread, et.ID)
	}
	if stored.Owner != models.Local {
		t.Fatalf("owner = %q, want local", stored.Owner)
	}
	if !hasMember(stored.CanSee, models.Local) || !hasMember(stored.CanSend, models.Local) {
		t.Fatalf("owner not seeded into member lists: see=%v send=%v", stored.CanSee, stored.CanSend)
	}
}

// TestCreateThreadRecordsOwnership verifies a registered owner gains the
// thread in their owned set, and an unregistered owner is tolerated.
func TestCreateThreadRecordsOwnership(t *testing.T) {
	openStore(t)
	u, err := AddUser(AddUserInput{ExternalID: "ext-1"}, Defaults{Model: "m"})
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	th, err := CreateThread(CreateThreadInput{Name: "owned", Owner: models.UserRef(u.ID)})
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	got, err := GetUser(u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if len(got.Owner) != 1 || got.Owner[0] != th.ID {
		t.Fatalf("owned set = %v, want [%s]", got.Owner, th.ID)
	}

	// no user doc: the thread is still created
	th2, err := CreateThread(CreateThreadInput{Name: "ghost", Owner: "usr_missing"})
	if err != nil {
		t.Fatalf("CreateThread with unregistered owner: %v", err)
	}
	if _, err := GetThread(th2.ID); err != nil {
		t.Fatalf("GetThread: %v", err)
	}
}

// TestThreadsForUserVisibility verifies membership filtering, the local
// all-seeing user, and soft-deleted threads being hidden.
func TestThreadsForUserVisibility(t *testing.T) {
	openStore(t)
	alice := models.UserRef("usr_alice")
	bob := models.UserRef("usr_bob")

	mine, err := CreateThread(CreateThreadInput{Name: "mine", Owner: alice})
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	if _, err := CreateThread(CreateThreadInput{Name: "theirs", Owner: bob}); err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	gone, err := CreateThread(CreateThreadInput{Name: "gone", Owner: alice})
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	if err := SoftDeleteThread(gone.ID); err != nil {
		t.Fatalf("SoftDeleteThread: %v", err)
	}

	got, err := ThreadsForUser(alice)
	if err != nil {
		t.Fatalf("ThreadsForUser: %v", err)
	}
	if len(got) != 1 || got[0].ID != mine.ID {
		t.Fatalf("alice sees %d threads, want only %s", len(got), mine.ID)
	}

	all, err := ThreadsForUser(models.Local)
	if err != nil {
		t.Fatalf("ThreadsForUser(local): %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("local sees %d threads, want 2 live ones", len(all))
	}
}

// TestClassifyThreads verifies the owned/shared split.
func TestClassifyThreads(t *testing.T) {
	openStore(t)
	alice := models.UserRef("usr_alice")
	bob := models.UserRef("usr_bob")

	owned, err := CreateThread(CreateThreadInput{Name: "owned", Owner: alice})
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	shared, err := CreateThread(CreateThreadInput{Name: "shared", Owner: bob, CanSee: []models.UserRef{alice}})
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}

	l, err := ClassifyThreads(alice)
	if err != nil {
		t.Fatalf("ClassifyThreads: %v", err)
	}
	if len(l.Owned) != 1 || l.Owned[0].ID != owned.ID {
		t.Fatalf("owned = %v", l.Owned)
	}
	if len(l.Shared) != 1 || l.Shared[0].ID != shared.ID {
		t.Fatalf("shared = %v", l.Shared)
	}
}

// TestInviteAndRemoveUser verifies membership is kept on both the thread
// and the user document, and removal strips both sides.
func TestInviteAndRemoveUser(t *testing.T) {
	openStore(t)
	u, err := AddUser(AddUserInput{ExternalID: "ext-invitee"}, Defaults{})
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	th := newThread(t, "invites")

	if err := InviteUser(th.ID, models.UserRef(u.ID), true); err != nil {
		t.Fatalf("InviteUser: %v", err)
	}
	got, _ := GetThread(th.ID)
	if !hasMember(got.CanSee, models.UserRef(u.ID)) || !hasMember(got.CanSend, models.UserRef(u.ID)) {
		t.Fatalf("thread membership missing: see=%v send=%v", got.CanSee, got.CanSend)
	}
	gu, _ := GetUser(u.ID)
	if len(gu.CanSee) != 1 || gu.CanSee[0] != th.ID || len(gu.CanSend) != 1 {
		t.Fatalf("user inverse sets: see=%v send=%v", gu.CanSee, gu.CanSend)
	}

	// inviting an unregistered user fails the mutation
	if err := InviteUser(th.ID, "usr_nobody", false); !IsNotFound(err) {
		t.Fatalf("expected not-found inviting unregistered user, got %v", err)
	}

	if err := RemoveUser(th.ID, models.UserRef(u.ID)); err != nil {
		t.Fatalf("RemoveUser: %v", err)
	}
	got, _ = GetThread(th.ID)
	if hasMember(got.CanSee, models.UserRef(u.ID)) || hasMember(got.CanSend, models.UserRef(u.ID)) {
		t.Fatalf("membership survived removal: see=%v send=%v", got.CanSee, got.CanSend)
	}
	gu, _ = GetUser(u.ID)
	if len(gu.CanSee) != 0 || len(gu.CanSend) != 0 {
		t.Fatalf("user inverse sets survived removal: see=%v send=%v", gu.CanSee, gu.CanSend)
	}
}

// TestRemoveOwnerForbidden verifies stripping the owner is rejected.
func TestRemoveOwnerForbidden(t *testing.T) {
	openStore(t)
	alice := models.UserRef("usr_alice")
	th, err := CreateThread(CreateThreadInput{Name: "keep-owner", Owner: alice})
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	if err := RemoveUser(th.ID, alice); !IsForbidden(err) {
		t.Fatalf("expected forbidden removing owner, got %v", err)
	}
}

// TestDescriptionOwnerOnly verifies only the owner may set or clear the
// thread description.
func TestDescriptionOwnerOnly(t *testing.T) {
	openStore(t)
	alice := models.UserRef("usr_alice")
	bob := models.UserRef("usr_bob")
	th, err := CreateThread(CreateThreadInput{Name: "described", Owner: alice})
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}

	if err := UpdateDescription(th.ID, "about this thread", bob); !IsForbidden(err) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
	if err := UpdateDescription(th.ID, "about this thread", alice); err != nil {
		t.Fatalf("UpdateDescription: %v", err)
	}
	got, _ := GetThread(th.ID)
	if got.Description == nil || got.Description.Text != "about this thread" || got.Description.Creator != alice {
		t.Fatalf("description = %+v", got.Description)
	}
	if got.Description.UpdatedAt == 0 {
		t.Fatalf("description timestamp not set")
	}

	if err := RemoveDescription(th.ID, bob); !IsForbidden(err) {
		t.Fatalf("expected forbidden for non-owner removal, got %v", err)
	}
	if err := RemoveDescription(th.ID, alice); err != nil {
		t.Fatalf("RemoveDescription: %v", err)
	}
	got, _ = GetThread(th.ID)
	if got.Description != nil {
		t.Fatalf("description survived removal: %+v", got.Description)
	}
}

// TestEditThreadTitle verifies renaming and the missing-thread error.
func TestEditThreadTitle(t *testing.T) {
	openStore(t)
	th := newThread(t, "old name")
	if err := EditThreadTitle(th.ID, "new name"); err != nil {
		t.Fatalf("EditThreadTitle: %v", err)
	}
	got, _ := GetThread(th.ID)
	if got.Name != "new name" {
		t.Fatalf("name = %q", got.Name)
	}
	if err := EditThreadTitle("th_missing", "x"); !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

// TestEmbeddedThreadsDefaultFirst verifies transcript spines list with the
// default spine first.
func TestEmbeddedThreadsDefaultFirst(t *testing.T) {
	openStore(t)
	th := newThread(t, "spines")
	m1 := addText(t, th.ID, th.DefaultThread, "x", "r")
	if _, err := EditMessage(EditMessageInput{
		ThreadID:         th.ID,
		EmbeddedThreadID: th.DefaultThread,
		MessageID:        m1.ID,
		Prompt:           []models.PromptPart{models.TextPart("y")},
	}); err != nil {
		t.Fatalf("EditMessage: %v", err)
	}

	ets, err := EmbeddedThreadsForThread(th.ID)
	if err != nil {
		t.Fatalf("EmbeddedThreadsForThread: %v", err)
	}
	if len(ets) != 2 {
		t.Fatalf("thread has %d spines, want 2", len(ets))
	}
	if ets[0].ID != th.DefaultThread {
		t.Fatalf("default spine not first: %s", ets[0].ID)
	}
}
