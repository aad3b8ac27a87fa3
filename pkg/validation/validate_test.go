package validation

import (
	"strings"
	"testing"

	"branchdb/pkg/models"
)

func restoreLimits(t *testing.T) {
	t.Helper()
	prev := limits
	t.Cleanup(func() { limits = prev })
}

// TestValidatePromptRoles checks the role/payload consistency rules.
func TestValidatePromptRoles(t *testing.T) {
	cases := []struct {
		name  string
		parts []models.PromptPart
		ok    bool
	}{
		{"text", []models.PromptPart{models.TextPart("hi")}, true},
		{"image", []models.PromptPart{models.ImagePart("img_1")}, true},
		{"file", []models.PromptPart{models.FilePart("file_1")}, true},
		{"mixed", []models.PromptPart{models.TextPart("hi"), models.ImagePart("img_1")}, true},
		{"empty", nil, false},
		{"text without content", []models.PromptPart{{Role: models.PartText}}, false},
		{"text with image payload", []models.PromptPart{{Role: models.PartText, Content: "hi", Image: "img_1"}}, false},
		{"image without id", []models.PromptPart{{Role: models.PartImage}}, false},
		{"file without id", []models.PromptPart{{Role: models.PartFile}}, false},
		{"unknown role", []models.PromptPart{{Role: "audio", Content: "x"}}, false},
	}
	for _, c := range cases {
		err := ValidatePrompt(c.parts)
		if c.ok && err != nil {
			t.Errorf("%s: unexpected error %v", c.name, err)
		}
		if !c.ok && err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

// TestValidatePromptLimits checks the part count and size bounds.
func TestValidatePromptLimits(t *testing.T) {
	restoreLimits(t)
	SetLimits(Limits{MaxParts: 2, MaxPartLen: 10})

	long := []models.PromptPart{models.TextPart(strings.Repeat("a", 11))}
	if err := ValidatePrompt(long); err == nil {
		t.Fatalf("expected error for oversized part")
	}
	many := []models.PromptPart{models.TextPart("a"), models.TextPart("b"), models.TextPart("c")}
	if err := ValidatePrompt(many); err == nil {
		t.Fatalf("expected error for too many parts")
	}
	if err := ValidatePrompt([]models.PromptPart{models.TextPart("ok")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestValidateResponse checks that empty responses pass and non-text roles
// fail.
func TestValidateResponse(t *testing.T) {
	if err := ValidateResponse(nil); err != nil {
		t.Fatalf("empty response should pass: %v", err)
	}
	if err := ValidateResponse(models.TextResponse("answer")); err != nil {
		t.Fatalf("text response should pass: %v", err)
	}
	if err := ValidateResponse([]models.ResponsePart{{Role: "audio", Content: "x"}}); err == nil {
		t.Fatalf("expected error for unknown response role")
	}
}

// TestValidateThreadName checks the title rules.
func TestValidateThreadName(t *testing.T) {
	restoreLimits(t)
	SetLimits(Limits{MaxNameLen: 8})

	if err := ValidateThreadName("ok name"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateThreadName("   "); err == nil {
		t.Fatalf("expected error for blank name")
	}
	if err := ValidateThreadName("much too long"); err == nil {
		t.Fatalf("expected error for long name")
	}
}

// TestValidateModelPolicy checks the required-model and allow-list rules.
func TestValidateModelPolicy(t *testing.T) {
	restoreLimits(t)

	SetLimits(Limits{RequireModel: true})
	if err := ValidateModel(""); err == nil {
		t.Fatalf("expected error for missing model")
	}
	if err := ValidateModel("anything"); err != nil {
		t.Fatalf("open policy should accept any model: %v", err)
	}

	SetLimits(Limits{RequireModel: false})
	if err := ValidateModel(""); err != nil {
		t.Fatalf("optional model should pass empty: %v", err)
	}

	SetLimits(Limits{AllowedModels: []string{"gpt-a", "gpt-b"}})
	if err := ValidateModel("gpt-a"); err != nil {
		t.Fatalf("listed model rejected: %v", err)
	}
	if err := ValidateModel("gpt-z"); err == nil {
		t.Fatalf("expected error for unlisted model")
	}
}

// TestValidateNoteAndMemory checks the annotation text bounds.
func TestValidateNoteAndMemory(t *testing.T) {
	restoreLimits(t)
	SetLimits(Limits{MaxNoteLen: 5, MaxMemoryLen: 5})

	if err := ValidateNote("ok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateNote(""); err == nil {
		t.Fatalf("expected error for empty note")
	}
	if err := ValidateNote("toolong"); err == nil {
		t.Fatalf("expected error for long note")
	}
	if err := ValidateMemory("ok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateMemory("toolong"); err == nil {
		t.Fatalf("expected error for long memory")
	}
}
