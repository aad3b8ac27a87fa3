package branch

import (
	"testing"

	"branchdb/pkg/models"
)

// TestCreateAndGetAttachments covers the image and file record round trips.
func TestCreateAndGetAttachments(t *testing.T) {
	openStore(t)

	img, err := CreateImage("https://cdn.example.com/a.png", "image/png", "a.png")
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	gotImg, err := GetImage(img.ID)
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if gotImg.URL != img.URL || gotImg.MimeType != "image/png" {
		t.Fatalf("image = %+v", gotImg)
	}

	f, err := CreateFile("https://cdn.example.com/doc.pdf", "application/pdf", "doc.pdf")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	gotFile, err := GetFile(f.ID)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if gotFile.Filename != "doc.pdf" {
		t.Fatalf("file = %+v", gotFile)
	}

	if _, err := GetImage("img_missing"); !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if _, err := GetFile("file_missing"); !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

// TestAttachImageCreatesDraft verifies attaching to an empty composer
// creates the draft, and a second attach appends.
func TestAttachImageCreatesDraft(t *testing.T) {
	openStore(t)
	th := newThread(t, "attachments")
	img, err := CreateImage("https://cdn.example.com/b.png", "image/png", "b.png")
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	f, err := CreateFile("https://cdn.example.com/b.txt", "text/plain", "b.txt")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	if err := AttachImageToDraft(th.ID, models.Local, img.ID); err != nil {
		t.Fatalf("AttachImageToDraft: %v", err)
	}
	if err := AttachFileToDraft(th.ID, models.Local, f.ID); err != nil {
		t.Fatalf("AttachFileToDraft: %v", err)
	}

	d, err := GetDraft(th.ID, models.Local)
	if err != nil {
		t.Fatalf("GetDraft: %v", err)
	}
	if len(d.Message) != 2 {
		t.Fatalf("draft has %d parts, want 2", len(d.Message))
	}
	if d.Message[0].Role != models.PartImage || d.Message[0].Image != img.ID {
		t.Fatalf("first part = %+v", d.Message[0])
	}
	if d.Message[1].Role != models.PartFile || d.Message[1].File != f.ID {
		t.Fatalf("second part = %+v", d.Message[1])
	}
}

// TestAttachUnknownAttachment verifies attachments must exist before they
// can land in a draft.
func TestAttachUnknownAttachment(t *testing.T) {
	openStore(t)
	th := newThread(t, "bad-attach")
	if err := AttachImageToDraft(th.ID, models.Local, "img_missing"); !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if err := AttachFileToDraft(th.ID, models.Local, "file_missing"); !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if _, err := GetDraft(th.ID, models.Local); !IsNotFound(err) {
		t.Fatalf("failed attach left a draft behind: %v", err)
	}
}
