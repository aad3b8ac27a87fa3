package branch

import (
	"errors"

	"branchdb/pkg/models"
	"branchdb/pkg/store"
)

// Transaction-scoped entity loaders. Each maps a store miss onto the domain
// error for the entity kind so mutations can validate-then-commit without
// translating errors at every call site.

func getThreadTx(tx *store.Txn, id string) (*models.Thread, error) {
	var t models.Thread
	if err := tx.GetJSON(store.ThreadKey(id), &t); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NoThreadError{ID: id}
		}
		return nil, err
	}
	return &t, nil
}

func getEmbeddedThreadTx(tx *store.Txn, id string) (*models.EmbeddedThread, error) {
	var et models.EmbeddedThread
	if err := tx.GetJSON(store.EmbeddedThreadKey(id), &et); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NoThreadError{ID: id}
		}
		return nil, err
	}
	return &et, nil
}

func getMessageTx(tx *store.Txn, id string) (*models.Message, error) {
	var m models.Message
	if err := tx.GetJSON(store.MessageKey(id), &m); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NoMessageError{ID: id}
		}
		return nil, err
	}
	return &m, nil
}

// getBundleTx leaves store.ErrNotFound untranslated: the right domain error
// for a missing bundle depends on which axis the caller is touching.
func getBundleTx(tx *store.Txn, id string) (*models.EditBundle, error) {
	var b models.EditBundle
	if err := tx.GetJSON(store.BundleKey(id), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func getUserTx(tx *store.Txn, id string) (*models.User, error) {
	var u models.User
	if err := tx.GetJSON(store.UserKey(id), &u); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NoUserError{ID: id}
		}
		return nil, err
	}
	return &u, nil
}

// Read-side loaders outside any transaction.

// GetThread returns a thread by id.
func GetThread(id string) (*models.Thread, error) {
	var t models.Thread
	if err := store.GetJSON(store.ThreadKey(id), &t); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NoThreadError{ID: id}
		}
		return nil, err
	}
	return &t, nil
}

// GetEmbeddedThread returns an embedded thread (transcript spine) by id.
func GetEmbeddedThread(id string) (*models.EmbeddedThread, error) {
	var et models.EmbeddedThread
	if err := store.GetJSON(store.EmbeddedThreadKey(id), &et); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NoThreadError{ID: id}
		}
		return nil, err
	}
	return &et, nil
}

// GetMessage returns a message by id.
func GetMessage(id string) (*models.Message, error) {
	var m models.Message
	if err := store.GetJSON(store.MessageKey(id), &m); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NoMessageError{ID: id}
		}
		return nil, err
	}
	return &m, nil
}

// GetBundle returns an edit bundle by id.
func GetBundle(id string) (*models.EditBundle, error) {
	var b models.EditBundle
	if err := store.GetJSON(store.BundleKey(id), &b); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NoEditError{ID: id}
		}
		return nil, err
	}
	return &b, nil
}
