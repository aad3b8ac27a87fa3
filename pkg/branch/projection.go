package branch

import (
	"errors"

	"branchdb/pkg/models"
	"branchdb/pkg/store"
)

// Resolution is the result of navigating along one branch axis: the sibling
// entry at the (clamped) index and the bundle size for cursor display.
type Resolution struct {
	Ref   models.BundleRef `json:"ref"`
	Index int              `json:"index"`
	Count int              `json:"count"`
}

// ResolveEdit navigates a message's edit axis. The requested index is
// clamped into the bundle's valid range, so callers can probe with out of
// range cursors and always land on a real sibling.
func ResolveEdit(msgID string, index int) (*Resolution, error) {
	msg, err := GetMessage(msgID)
	if err != nil {
		return nil, err
	}
	return resolveBundle(msg.Edits, index, true)
}

// ResolveRegen navigates a message's regen axis with the same clamping.
func ResolveRegen(msgID string, index int) (*Resolution, error) {
	msg, err := GetMessage(msgID)
	if err != nil {
		return nil, err
	}
	return resolveBundle(msg.Regens, index, false)
}

func resolveBundle(bundleID string, index int, editAxis bool) (*Resolution, error) {
	var b models.EditBundle
	if err := store.GetJSON(store.BundleKey(bundleID), &b); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			if editAxis {
				return nil, &NoEditError{ID: bundleID}
			}
			return nil, &NoRegenError{ID: bundleID}
		}
		return nil, err
	}
	if len(b.Msgs) == 0 {
		// Bundles are never persisted empty; treat a corrupt one as missing.
		if editAxis {
			return nil, &NoEditError{ID: bundleID}
		}
		return nil, &NoRegenError{ID: bundleID}
	}
	i := clamp(index, len(b.Msgs))
	return &Resolution{Ref: b.Msgs[i], Index: i, Count: len(b.Msgs)}, nil
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// SiblingIndex reports a message's position inside one of its own bundles,
// used by clients to seed the navigation cursor. Returns -1 when the message
// no longer appears in the bundle.
func SiblingIndex(b *models.EditBundle, msgID string) int {
	for i, r := range b.Msgs {
		if r.Message == msgID {
			return i
		}
	}
	return -1
}
