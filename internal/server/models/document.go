// Package models defines the records persisted by the server.
package models

import "time"

// MaxOriginalFileNameLength bounds ClaimDocument.OriginalFileName.
const MaxOriginalFileNameLength = 255

// ClaimDocument is the metadata of one encrypted supporting document. The
// ciphertext lives in the uploads directory under StoredFileName; a document
// belongs to exactly one claim and is deleted with it.
type ClaimDocument struct {
	ID               string
	ClaimID          string
	OriginalFileName string
	StoredFileName   string
	SizeBytes        int64
	UploadedAt       time.Time
}
