// Package media stores uploaded images and videos under the public
// directory and keeps media URLs in content files consistent.
package media

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"
)

var (
	ErrUnsupportedType = errors.New("only video and image files can be uploaded")
	ErrInvalidFolder   = errors.New("invalid upload folder")
	ErrMissingFile     = errors.New("no file uploaded")
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// Upload describes one incoming file.
type Upload struct {
	OriginalName string
	ContentType  string
	Folder       string
	CustomName   string
}

// Saved is what the upload endpoint reports back.
type Saved struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
}

// LocalStorage writes uploads below BasePath, which is served as the site
// root.
type LocalStorage struct {
	BasePath string
	now      func() time.Time
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create public dir: %w", err)
	}
	return &LocalStorage{BasePath: basePath, now: time.Now}, nil
}

func IsAllowedType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || strings.HasPrefix(contentType, "video/")
}

// CleanFolder turns a user-supplied folder into a relative slash path.
// Absolute paths and parent references are rejected.
func CleanFolder(folder string) (string, error) {
	folder = strings.TrimSpace(strings.ReplaceAll(folder, `\`, "/"))
	if folder == "" {
		return "", nil
	}
	if strings.HasPrefix(folder, "/") {
		return "", ErrInvalidFolder
	}
	for _, seg := range strings.Split(folder, "/") {
		if seg == ".." {
			return "", ErrInvalidFolder
		}
	}
	cleaned := path.Clean(folder)
	if cleaned == "." {
		return "", nil
	}
	return cleaned, nil
}

// FileName builds the stored name: customName plus the original extension,
// or the sanitised original base name with a millisecond timestamp.
func FileName(original, customName string, now time.Time) string {
	safe := unsafeNameChars.ReplaceAllString(original, "_")
	base, ext := safe, ""
	if i := strings.LastIndexByte(safe, '.'); i >= 0 {
		base, ext = safe[:i], safe[i:]
	}

	if custom := unsafeNameChars.ReplaceAllString(strings.TrimSpace(customName), "_"); custom != "" {
		return custom + ext
	}
	return base + "_" + strconv.FormatInt(now.UnixMilli(), 10) + ext
}

// Save streams r to its final location through a temp file in the same
// directory.
func (s *LocalStorage) Save(u Upload, r io.Reader) (*Saved, error) {
	if !IsAllowedType(u.ContentType) {
		return nil, ErrUnsupportedType
	}
	folder, err := CleanFolder(u.Folder)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(s.BasePath, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	name := FileName(u.OriginalName, u.CustomName, s.now())
	fullPath := filepath.Join(dir, name)

	tmpFile, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	size, err := io.Copy(tmpFile, r)
	if err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("close file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return nil, fmt.Errorf("chmod file: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		return nil, fmt.Errorf("rename file: %w", err)
	}

	url := "/" + name
	if folder != "" {
		url = "/" + folder + "/" + name
	}
	return &Saved{URL: url, FileName: name, Size: size, Type: u.ContentType}, nil
}

// ErrorStatus maps a Save failure to an HTTP status and a message that is
// safe to show the admin.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrUnsupportedType), errors.Is(err, ErrInvalidFolder), errors.Is(err, ErrMissingFile):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, syscall.ENOSPC):
		return http.StatusInsufficientStorage, "insufficient disk space on the server"
	case errors.Is(err, fs.ErrPermission):
		return http.StatusInternalServerError, "no write permission for the public directory"
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusInternalServerError, "upload folder not found"
	default:
		return http.StatusInternalServerError, "failed to store the uploaded file"
	}
}
