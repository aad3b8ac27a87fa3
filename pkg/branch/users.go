package branch

import (
	"errors"
	"sort"
	"strings"

	"branchdb/pkg/models"
	"branchdb/pkg/store"
	"branchdb/pkg/telemetry"
	"branchdb/pkg/utils"
)

// AddUserInput registers an account. ExternalID is required; it is the
// identity the auth layer hands us.
type AddUserInput struct {
	ExternalID   string
	Email        string
	DefaultModel string
	TitleModel   string
}

// AddUser creates a user document plus its external-id and email index
// entries. Registering an external id twice returns the existing user.
func AddUser(in AddUserInput, defaults Defaults) (*models.User, error) {
	if existing, err := UserByExternalID(in.ExternalID); err == nil {
		return existing, nil
	} else if !IsNotFound(err) {
		return nil, err
	}

	u := models.User{
		ID:               utils.GenUserID(),
		ExternalID:       in.ExternalID,
		Email:            in.Email,
		Owner:            []string{},
		CanSee:           []string{},
		CanSend:          []string{},
		Friends:          []string{},
		Blocked:          []string{},
		RequestedFriend:  []string{},
		RequestingFriend: []string{},
		DefaultModel:     in.DefaultModel,
		TitleModel:       in.TitleModel,
		Memories:         []string{},
		Tools:            map[string][]string{},
	}
	if u.DefaultModel == "" {
		u.DefaultModel = defaults.Model
	}
	if u.TitleModel == "" {
		u.TitleModel = defaults.TitleModel
	}
	err := store.Update("user:"+u.ID, func(tx *store.Txn) error {
		if err := tx.Set(store.UserExtIdxKey(in.ExternalID), []byte(u.ID)); err != nil {
			return err
		}
		if in.Email != "" {
			if err := tx.Set(store.UserEmailIdxKey(in.Email), []byte(u.ID)); err != nil {
				return err
			}
		}
		return tx.SetJSON(store.UserKey(u.ID), &u)
	})
	if err != nil {
		telemetry.RecordMutationFailure("add_user")
		return nil, err
	}
	telemetry.RecordMutation("add_user")
	return &u, nil
}

// Defaults are the fallback model choices applied to new accounts.
type Defaults struct {
	Model      string
	TitleModel string
}

// GetUser returns a user by id.
func GetUser(id string) (*models.User, error) {
	var u models.User
	if err := store.GetJSON(store.UserKey(id), &u); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NoUserError{ID: id}
		}
		return nil, err
	}
	return &u, nil
}

// UserByExternalID resolves a user through the external-id index.
func UserByExternalID(externalID string) (*models.User, error) {
	id, err := store.Get(store.UserExtIdxKey(externalID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NoUserError{ID: externalID}
		}
		return nil, err
	}
	return GetUser(string(id))
}

// UserByEmail resolves a user through the email index.
func UserByEmail(email string) (*models.User, error) {
	id, err := store.Get(store.UserEmailIdxKey(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NoUserError{ID: email}
		}
		return nil, err
	}
	return GetUser(string(id))
}

// UserSettings is the mutable settings surface of a user document. Nil
// pointers leave the stored value untouched.
type UserSettings struct {
	DefaultModel    *string                 `json:"defaultModel,omitempty"`
	TitleModel      *string                 `json:"titleModel,omitempty"`
	OpenRouterKey   *string                 `json:"openRouterKey,omitempty"`
	ToolCredentials *models.ToolCredentials `json:"toolCredentials,omitempty"`
	ToolPreferences *models.ToolPreferences `json:"toolPreferences,omitempty"`
}

// UpdateSettings applies a partial settings patch to a user.
func UpdateSettings(userID string, s UserSettings) error {
	err := store.Update("user:"+userID, func(tx *store.Txn) error {
		u, err := getUserTx(tx, userID)
		if err != nil {
			return err
		}
		if s.DefaultModel != nil {
			u.DefaultModel = *s.DefaultModel
		}
		if s.TitleModel != nil {
			u.TitleModel = *s.TitleModel
		}
		if s.OpenRouterKey != nil {
			u.OpenRouterKey = *s.OpenRouterKey
		}
		if s.ToolCredentials != nil {
			u.ToolCredentials = *s.ToolCredentials
		}
		if s.ToolPreferences != nil {
			u.ToolPreferences = *s.ToolPreferences
		}
		return tx.SetJSON(store.UserKey(u.ID), u)
	})
	if err != nil {
		telemetry.RecordMutationFailure("update_settings")
		return err
	}
	telemetry.RecordMutation("update_settings")
	return nil
}

// AddMemory appends a memory line to a user, deduplicating exact repeats.
func AddMemory(userID, memory string) error {
	err := store.Update("user:"+userID, func(tx *store.Txn) error {
		u, err := getUserTx(tx, userID)
		if err != nil {
			return err
		}
		for _, m := range u.Memories {
			if m == memory {
				return nil
			}
		}
		u.Memories = append(u.Memories, memory)
		return tx.SetJSON(store.UserKey(u.ID), u)
	})
	if err != nil {
		telemetry.RecordMutationFailure("add_memory")
		return err
	}
	telemetry.RecordMutation("add_memory")
	return nil
}

// Memories returns a user's memory lines.
func Memories(userID string) ([]string, error) {
	u, err := GetUser(userID)
	if err != nil {
		return nil, err
	}
	return u.Memories, nil
}

// ListUsers returns all registered users sorted by id. Index keys sharing
// the user prefix are skipped.
func ListUsers() ([]models.User, error) {
	keys, err := store.ScanKeys(store.UserPrefix)
	if err != nil {
		return nil, err
	}
	out := []models.User{}
	for _, k := range keys {
		if strings.HasPrefix(k, store.UserExtIdxPrefix) || strings.HasPrefix(k, store.UserEmailIdxPrefix) {
			continue
		}
		var u models.User
		if err := store.GetJSON(k, &u); err != nil {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
