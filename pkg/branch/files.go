package branch

import (
	"errors"
	"time"

	"branchdb/pkg/models"
	"branchdb/pkg/store"
	"branchdb/pkg/telemetry"
	"branchdb/pkg/utils"
)

// CreateImage records an uploaded image reference.
func CreateImage(url, mimeType, filename string) (*models.Image, error) {
	img := models.Image{
		ID:       utils.GenImageID(),
		URL:      url,
		MimeType: mimeType,
		Filename: filename,
	}
	err := store.Update("image:"+img.ID, func(tx *store.Txn) error {
		return tx.SetJSON(store.ImageKey(img.ID), &img)
	})
	if err != nil {
		telemetry.RecordMutationFailure("create_image")
		return nil, err
	}
	telemetry.RecordMutation("create_image")
	return &img, nil
}

// CreateFile records an uploaded file reference.
func CreateFile(url, mimeType, filename string) (*models.File, error) {
	f := models.File{
		ID:       utils.GenFileID(),
		URL:      url,
		MimeType: mimeType,
		Filename: filename,
	}
	err := store.Update("file:"+f.ID, func(tx *store.Txn) error {
		return tx.SetJSON(store.FileKey(f.ID), &f)
	})
	if err != nil {
		telemetry.RecordMutationFailure("create_file")
		return nil, err
	}
	telemetry.RecordMutation("create_file")
	return &f, nil
}

// GetImage returns an image record by id.
func GetImage(id string) (*models.Image, error) {
	var img models.Image
	if err := store.GetJSON(store.ImageKey(id), &img); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NoImageError{ID: id}
		}
		return nil, err
	}
	return &img, nil
}

// GetFile returns a file record by id.
func GetFile(id string) (*models.File, error) {
	var f models.File
	if err := store.GetJSON(store.FileKey(id), &f); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NoFileError{ID: id}
		}
		return nil, err
	}
	return &f, nil
}

// AttachImageToDraft appends an image part to the user's draft on a thread,
// creating the draft if the composer had nothing yet.
func AttachImageToDraft(threadID string, user models.UserRef, imageID string) error {
	if user == "" {
		user = models.Local
	}
	if _, err := GetImage(imageID); err != nil {
		telemetry.RecordMutationFailure("attach_image")
		return err
	}
	err := store.Update(threadID, func(tx *store.Txn) error {
		if _, err := getThreadTx(tx, threadID); err != nil {
			return err
		}
		key := store.DraftKey(threadID, string(user))
		var d models.Draft
		if err := tx.GetJSON(key, &d); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			d = models.Draft{Thread: threadID, User: user}
		}
		d.Message = append(d.Message, models.ImagePart(imageID))
		d.UpdatedTS = time.Now().UnixMilli()
		return tx.SetJSON(key, &d)
	})
	if err != nil {
		telemetry.RecordMutationFailure("attach_image")
		return err
	}
	telemetry.RecordMutation("attach_image")
	return nil
}

// AttachFileToDraft appends a file part to the user's draft on a thread.
func AttachFileToDraft(threadID string, user models.UserRef, fileID string) error {
	if user == "" {
		user = models.Local
	}
	if _, err := GetFile(fileID); err != nil {
		telemetry.RecordMutationFailure("attach_file")
		return err
	}
	err := store.Update(threadID, func(tx *store.Txn) error {
		if _, err := getThreadTx(tx, threadID); err != nil {
			return err
		}
		key := store.DraftKey(threadID, string(user))
		var d models.Draft
		if err := tx.GetJSON(key, &d); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			d = models.Draft{Thread: threadID, User: user}
		}
		d.Message = append(d.Message, models.FilePart(fileID))
		d.UpdatedTS = time.Now().UnixMilli()
		return tx.SetJSON(key, &d)
	})
	if err != nil {
		telemetry.RecordMutationFailure("attach_file")
		return err
	}
	telemetry.RecordMutation("attach_file")
	return nil
}
