package media

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return s
}

func TestFileName(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	tests := []struct {
		original, custom, want string
	}{
		{"clip.mp4", "", "clip_1700000000000.mp4"},
		{"my clip (final).mp4", "", "my_clip__final__1700000000000.mp4"},
		{"clip.mp4", "hero", "hero.mp4"},
		{"clip.mp4", "../evil", ".._evil.mp4"},
		{"archive.tar.gz", "", "archive.tar_1700000000000.gz"},
		{"noext", "", "noext_1700000000000"},
	}
	for _, tt := range tests {
		if got := FileName(tt.original, tt.custom, now); got != tt.want {
			t.Errorf("FileName(%q, %q) = %q, want %q", tt.original, tt.custom, got, tt.want)
		}
	}
}

func TestCleanFolder(t *testing.T) {
	ok := map[string]string{
		"":                  "",
		"videos":            "videos",
		"videos/thumbnails": "videos/thumbnails",
		"videos//x/":        "videos/x",
		`images\brands`:     "images/brands",
		"./videos":          "videos",
	}
	for in, want := range ok {
		got, err := CleanFolder(in)
		if err != nil || got != want {
			t.Errorf("CleanFolder(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, bad := range []string{"../etc", "videos/../../x", "/abs", `..\x`} {
		if _, err := CleanFolder(bad); !errors.Is(err, ErrInvalidFolder) {
			t.Errorf("CleanFolder(%q) err = %v", bad, err)
		}
	}
}

func TestSave(t *testing.T) {
	s := newTestStorage(t)

	saved, err := s.Save(Upload{
		OriginalName: "reel.mp4",
		ContentType:  "video/mp4",
		Folder:       "videos",
	}, strings.NewReader("data"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.URL != "/videos/reel_1700000000000.mp4" || saved.Size != 4 || saved.Type != "video/mp4" {
		t.Errorf("unexpected result %+v", saved)
	}

	got, err := os.ReadFile(filepath.Join(s.BasePath, "videos", saved.FileName))
	if err != nil || string(got) != "data" {
		t.Fatalf("stored file = %q, %v", got, err)
	}

	entries, _ := os.ReadDir(filepath.Join(s.BasePath, "videos"))
	if len(entries) != 1 {
		t.Errorf("expected no temp files, got %d entries", len(entries))
	}
}

func TestSave_RootFolder(t *testing.T) {
	s := newTestStorage(t)
	saved, err := s.Save(Upload{OriginalName: "logo.png", ContentType: "image/png", CustomName: "logo"}, strings.NewReader("png"))
	if err != nil {
		t.Fatal(err)
	}
	if saved.URL != "/logo.png" {
		t.Errorf("URL = %q", saved.URL)
	}
}

func TestSave_Rejects(t *testing.T) {
	s := newTestStorage(t)

	if _, err := s.Save(Upload{OriginalName: "x.pdf", ContentType: "application/pdf"}, strings.NewReader("")); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("pdf err = %v", err)
	}
	if _, err := s.Save(Upload{OriginalName: "x.png", ContentType: "image/png", Folder: "../up"}, strings.NewReader("")); !errors.Is(err, ErrInvalidFolder) {
		t.Errorf("traversal err = %v", err)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrUnsupportedType, http.StatusBadRequest},
		{fmt.Errorf("write file: %w", &os.PathError{Op: "write", Path: "x", Err: syscall.ENOSPC}), http.StatusInsufficientStorage},
		{fmt.Errorf("create: %w", &os.PathError{Op: "open", Path: "x", Err: syscall.EACCES}), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := ErrorStatus(tt.err); got != tt.want {
			t.Errorf("ErrorStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
