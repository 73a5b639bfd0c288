package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Site is every section of the public page.
type Site struct {
	Videos      []Video
	Brands      []Brand
	Services    []Service
	Equipment   Equipment
	Contact     Contact
	Backgrounds Backgrounds
}

// HorizontalVideos and VerticalVideos split the gallery by orientation.
func (s *Site) HorizontalVideos() []Video {
	var out []Video
	for _, v := range s.Videos {
		if !v.Vertical() {
			out = append(out, v)
		}
	}
	return out
}

func (s *Site) VerticalVideos() []Video {
	var out []Video
	for _, v := range s.Videos {
		if v.Vertical() {
			out = append(out, v)
		}
	}
	return out
}

// LoadSite reads all sections. A missing file leaves its section empty; a
// file that does not parse is an error.
func (s *Store) LoadSite() (*Site, error) {
	site := &Site{}
	loads := []struct {
		t Type
		v any
	}{
		{TypeVideos, &site.Videos},
		{TypeBrands, &site.Brands},
		{TypeServices, &site.Services},
		{TypeEquipment, &site.Equipment},
		{TypeContact, &site.Contact},
		{TypeBackgrounds, &site.Backgrounds},
	}
	for _, l := range loads {
		err := s.load(l.t, l.v)
		if errors.Is(err, ErrNotFound) {
			slog.Warn("content file missing", "type", l.t)
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return site, nil
}

// Cache keeps the last loaded Site until a write or a change on disk
// invalidates it.
type Cache struct {
	store *Store

	mu   sync.RWMutex
	site *Site
}

func NewCache(store *Store) *Cache {
	return &Cache{store: store}
}

func (c *Cache) Site() (*Site, error) {
	c.mu.RLock()
	site := c.site
	c.mu.RUnlock()
	if site != nil {
		return site, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.site != nil {
		return c.site, nil
	}
	site, err := c.store.LoadSite()
	if err != nil {
		return nil, err
	}
	c.site = site
	return site, nil
}

func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.site = nil
	c.mu.Unlock()
}

// Watch invalidates the cache whenever a .json file in the content
// directory changes. The watch is registered before Watch returns and is
// removed when ctx is done.
func (c *Cache) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(c.store.Dir()); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", c.store.Dir(), err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isContentEvent(event) {
					continue
				}
				slog.Debug("content changed on disk", "file", filepath.Base(event.Name), "op", event.Op.String())
				c.Invalidate()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("content watcher error", "error", err)
			}
		}
	}()
	return nil
}

func isContentEvent(event fsnotify.Event) bool {
	if !strings.HasSuffix(event.Name, ".json") {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
