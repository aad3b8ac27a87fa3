package branch

import (
	"testing"

	"branchdb/pkg/logger"
	"branchdb/pkg/models"
	"branchdb/pkg/store"
)

// openStore initializes logging and opens a throwaway database for one test.
func openStore(t *testing.T) {
	t.Helper()
	logger.InitWithLevel("error", "text")
	if err := store.Open(t.TempDir() + "/db"); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
}

// newThread creates a thread owned by the local user.
func newThread(t *testing.T, name string) *models.Thread {
	t.Helper()
	th, err := CreateThread(CreateThreadInput{Name: name})
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	return th
}

// addText appends a plain text exchange to an embedded thread and returns
// the stored message.
func addText(t *testing.T, threadID, etID, prompt, response string) *models.Message {
	t.Helper()
	id, err := AddMessage(AddMessageInput{
		ThreadID:         threadID,
		EmbeddedThreadID: etID,
		Prompt:           []models.PromptPart{models.TextPart(prompt)},
		Response:         models.TextResponse(response),
		Model:            "test-model",
	})
	if err != nil {
		t.Fatalf("AddMessage(%q): %v", prompt, err)
	}
	m, err := GetMessage(id)
	if err != nil {
		t.Fatalf("GetMessage(%s): %v", id, err)
	}
	return m
}
