package filestorage

import (
	"errors"
	"mime/multipart"
)

// Upload rejections
var (
	ErrNoFile          = errors.New("no file uploaded")
	ErrFileTooLarge    = errors.New("file is too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Stored describes a saved file
type Stored struct {
	URL      string
	Path     string
	MimeType string
	Size     int64
}

// FileStorage keeps uploaded files and serves them from a public URL
type FileStorage interface {
	// Save stores the upload under dir and returns where it can be fetched
	Save(fileHeader *multipart.FileHeader, dir string) (*Stored, error)

	// Delete removes a file previously returned by Save. Unknown files are ignored.
	Delete(fileURL string) error
}
