package media

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/acgh213/reelfolio/internal/content"
)

const (
	videosPrefix = "/videos/"
	thumbsPrefix = "/videos/thumbnails/"
)

// Migrator moves gallery media that sits at the public root into
// /videos/ and /videos/thumbnails/ and rewrites videos.json to match.
type Migrator struct {
	Content   *content.Store
	PublicDir string
}

type MigrationResult struct {
	Videos     int
	Thumbnails int
}

func (r MigrationResult) Changed() bool {
	return r.Videos > 0 || r.Thumbnails > 0
}

func (m *Migrator) Run() (MigrationResult, error) {
	var res MigrationResult

	videos, err := m.Content.Videos()
	if err != nil {
		return res, fmt.Errorf("load videos: %w", err)
	}

	videosDir := filepath.Join(m.PublicDir, "videos")
	thumbsDir := filepath.Join(videosDir, "thumbnails")
	for _, dir := range []string{videosDir, thumbsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return res, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	for i := range videos {
		v := &videos[i]
		if url, ok := m.relocate(v.VideoURL, videosPrefix, videosDir); ok {
			v.VideoURL = url
			res.Videos++
		}
		if url, ok := m.relocate(v.Thumbnail, thumbsPrefix, thumbsDir); ok {
			v.Thumbnail = url
			res.Thumbnails++
		}
	}

	if !res.Changed() {
		return res, nil
	}
	if err := m.Content.SaveVideos(videos); err != nil {
		return res, fmt.Errorf("save videos: %w", err)
	}
	return res, nil
}

// relocate moves the file behind a root-level URL into targetDir. It
// reports the new URL once the file is in place, whether moved now or by an
// earlier run.
func (m *Migrator) relocate(url, prefix, targetDir string) (string, bool) {
	if !strings.HasPrefix(url, "/") || strings.HasPrefix(url, prefix) {
		return "", false
	}

	name := fileNameFromURL(url)
	if name == "" {
		return "", false
	}
	source := filepath.Join(m.PublicDir, name)
	target := filepath.Join(targetDir, name)

	moved := false
	if _, err := os.Stat(source); err == nil {
		if err := os.Rename(source, target); err != nil {
			slog.Warn("move media failed", "source", source, "error", err)
		} else {
			moved = true
		}
	}

	if !moved {
		if _, err := os.Stat(target); err != nil {
			return "", false
		}
		if err := os.Remove(source); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("remove duplicate media failed", "source", source, "error", err)
		}
	}
	return NormalizeURL(prefix + name), true
}

func fileNameFromURL(url string) string {
	decoded, err := decodeURI(url)
	if err != nil {
		decoded = url
	}
	decoded = strings.TrimLeft(decoded, "/")
	if i := strings.LastIndexByte(decoded, '/'); i >= 0 {
		decoded = decoded[i+1:]
	}
	return decoded
}
