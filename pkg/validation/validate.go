package validation

import (
	"errors"
	"fmt"
	"strings"

	"branchdb/pkg/models"
)

// Limits are tunable input bounds, set once from config at startup.
type Limits struct {
	MaxNameLen    int
	MaxPartLen    int
	MaxParts      int
	MaxNoteLen    int
	MaxMemoryLen  int
	RequireModel  bool
	AllowedModels []string
}

var limits = Limits{
	MaxNameLen:   512,
	MaxPartLen:   1 << 20,
	MaxParts:     64,
	MaxNoteLen:   1 << 16,
	MaxMemoryLen: 4096,
	RequireModel: true,
}

func SetLimits(l Limits) { limits = l }

// ValidatePrompt checks a prompt part sequence: at least one part, each part
// carrying exactly the payload its role calls for.
func ValidatePrompt(parts []models.PromptPart) error {
	var errs []string
	if len(parts) == 0 {
		errs = append(errs, "prompt must have at least one part")
	}
	if limits.MaxParts > 0 && len(parts) > limits.MaxParts {
		errs = append(errs, fmt.Sprintf("too many prompt parts: %d > %d", len(parts), limits.MaxParts))
	}
	for i, p := range parts {
		switch p.Role {
		case models.PartText:
			if p.Content == "" {
				errs = append(errs, fmt.Sprintf("part %d: text part requires content", i))
			}
			if p.Image != "" || p.File != "" {
				errs = append(errs, fmt.Sprintf("part %d: text part must not carry image or file", i))
			}
		case models.PartImage:
			if p.Image == "" {
				errs = append(errs, fmt.Sprintf("part %d: image part requires image id", i))
			}
		case models.PartFile:
			if p.File == "" {
				errs = append(errs, fmt.Sprintf("part %d: file part requires file id", i))
			}
		default:
			errs = append(errs, fmt.Sprintf("part %d: unknown role %q", i, p.Role))
		}
		if limits.MaxPartLen > 0 && len(p.Content) > limits.MaxPartLen {
			errs = append(errs, fmt.Sprintf("part %d: content too long", i))
		}
	}
	return joinErrs(errs)
}

// ValidateResponse checks an assistant response sequence. Empty responses
// are allowed; a message can be stored before generation completes.
func ValidateResponse(parts []models.ResponsePart) error {
	var errs []string
	for i, p := range parts {
		if p.Role != models.PartText {
			errs = append(errs, fmt.Sprintf("response part %d: unknown role %q", i, p.Role))
		}
		if limits.MaxPartLen > 0 && len(p.Content) > limits.MaxPartLen {
			errs = append(errs, fmt.Sprintf("response part %d: content too long", i))
		}
	}
	return joinErrs(errs)
}

// ValidateThreadName checks a thread title.
func ValidateThreadName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("thread name is required")
	}
	if limits.MaxNameLen > 0 && len(name) > limits.MaxNameLen {
		return fmt.Errorf("thread name too long: %d > %d", len(name), limits.MaxNameLen)
	}
	return nil
}

// ValidateModel checks a model identifier against config policy.
func ValidateModel(model string) error {
	if model == "" {
		if limits.RequireModel {
			return errors.New("model is required")
		}
		return nil
	}
	if len(limits.AllowedModels) == 0 {
		return nil
	}
	for _, m := range limits.AllowedModels {
		if m == model {
			return nil
		}
	}
	return fmt.Errorf("model %q is not allowed", model)
}

// ValidateNote checks note text.
func ValidateNote(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("note text is required")
	}
	if limits.MaxNoteLen > 0 && len(text) > limits.MaxNoteLen {
		return errors.New("note text too long")
	}
	return nil
}

// ValidateMemory checks a memory line.
func ValidateMemory(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("memory text is required")
	}
	if limits.MaxMemoryLen > 0 && len(text) > limits.MaxMemoryLen {
		return errors.New("memory text too long")
	}
	return nil
}

func joinErrs(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.New(strings.Join(errs, "; "))
}
