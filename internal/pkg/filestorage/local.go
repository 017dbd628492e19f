package filestorage

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/yigit/teacherportfolio/internal/pkg/logger"
)

// DefaultMaxSize caps profile photo uploads
const DefaultMaxSize = 5 << 20

// imageExtensions maps the accepted sniffed types to the stored extension
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// LocalStorage saves uploads below basePath and serves them under baseURL.
type LocalStorage struct {
	basePath string
	baseURL  string
	maxSize  int64
}

// NewLocalStorage creates basePath when missing. baseURL is the public prefix
// the directory is mounted on, e.g. http://localhost:8080/uploads.
func NewLocalStorage(basePath, baseURL string, maxSize int64) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxSize:  maxSize,
	}, nil
}

// Save checks size and sniffed image type, then writes the file under a fresh name
func (ls *LocalStorage) Save(fileHeader *multipart.FileHeader, dir string) (*Stored, error) {
	if fileHeader == nil {
		return nil, ErrNoFile
	}
	if fileHeader.Size > ls.maxSize {
		return nil, ErrFileTooLarge
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to open uploaded file")
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	head = head[:n]

	mimeType := http.DetectContentType(head)
	ext, ok := imageExtensions[mimeType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	dir = filepath.Clean("/" + dir)[1:]
	fullDir := filepath.Join(ls.basePath, dir)
	if err := os.MkdirAll(fullDir, 0o755); err != nil {
		logger.Error().Err(err).Str("path", fullDir).Msg("Failed to create subdirectory")
		return nil, fmt.Errorf("failed to create subdirectory: %w", err)
	}

	name := uuid.New().String() + ext
	dstPath := filepath.Join(fullDir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.LimitReader(io.MultiReader(bytes.NewReader(head), file), ls.maxSize+1))
	if err == nil && written > ls.maxSize {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = os.Remove(dstPath)
		if err == ErrFileTooLarge {
			return nil, err
		}
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy uploaded file content")
		return nil, fmt.Errorf("failed to save file content: %w", err)
	}

	rel := path.Join(filepath.ToSlash(dir), name)
	stored := &Stored{
		URL:      ls.baseURL + "/" + rel,
		Path:     dstPath,
		MimeType: mimeType,
		Size:     written,
	}
	logger.Info().Str("filename", fileHeader.Filename).Str("url", stored.URL).Msg("File saved")
	return stored, nil
}

// Delete removes the file behind fileURL when it lives under this storage
func (ls *LocalStorage) Delete(fileURL string) error {
	rel, ok := strings.CutPrefix(fileURL, ls.baseURL+"/")
	if !ok || rel == "" {
		return nil
	}

	physicalPath := filepath.Join(ls.basePath, filepath.Clean("/" + filepath.FromSlash(rel)))
	if err := os.Remove(physicalPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		logger.Error().Err(err).Str("path", physicalPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	logger.Info().Str("path", physicalPath).Msg("File deleted")
	return nil
}
