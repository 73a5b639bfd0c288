// Package content reads and writes the JSON files the public site is built
// from.
package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/acgh213/reelfolio/internal/fileutil"
)

var (
	ErrUnknownType = errors.New("unknown content type")
	ErrNotFound    = errors.New("content not found")
	ErrInvalidData = errors.New("invalid content data")
)

type Type string

const (
	TypeVideos      Type = "videos"
	TypeBrands      Type = "brands"
	TypeServices    Type = "services"
	TypeEquipment   Type = "equipment"
	TypeContact     Type = "contact"
	TypeBackgrounds Type = "backgroundVideos"
)

// Types lists every editable content file in dashboard order.
var Types = []Type{TypeVideos, TypeBrands, TypeServices, TypeEquipment, TypeContact, TypeBackgrounds}

func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// model returns a pointer to the Go shape of t, used to validate writes.
func (t Type) model() any {
	switch t {
	case TypeVideos:
		return &[]Video{}
	case TypeBrands:
		return &[]Brand{}
	case TypeServices:
		return &[]Service{}
	case TypeEquipment:
		return &Equipment{}
	case TypeContact:
		return &Contact{}
	case TypeBackgrounds:
		return &Backgrounds{}
	}
	return nil
}

type Video struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Thumbnail   string `json:"thumbnail"`
	VideoURL    string `json:"videoUrl"`
	Orientation string `json:"orientation"`
	Description string `json:"description,omitempty"`
}

func (v Video) Vertical() bool { return v.Orientation == "vertical" }

type Brand struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Logo    string `json:"logo"`
	Website string `json:"website,omitempty"`
}

type Service struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type EquipmentItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}

type Equipment struct {
	Items      []EquipmentItem `json:"items"`
	Categories []string        `json:"categories"`
}

type Socials struct {
	Instagram string `json:"instagram,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
}

type Contact struct {
	Phone          string  `json:"phone"`
	Email          string  `json:"email"`
	EmailSecondary string  `json:"emailSecondary,omitempty"`
	Location       string  `json:"location"`
	Website        string  `json:"website,omitempty"`
	Socials        Socials `json:"socials"`
}

// Backgrounds holds the background video URL of each page section.
type Backgrounds struct {
	Hero     string `json:"hero"`
	Gallery  string `json:"gallery"`
	Services string `json:"services"`
	Contact  string `json:"contact"`
}

// Store is a directory of <type>.json files.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(t Type) string {
	return filepath.Join(s.dir, string(t)+".json")
}

// Read returns the raw JSON stored for t.
func (s *Store) Read(t Type) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := s.load(t, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Write validates data against the shape of t and replaces the file.
func (s *Store) Write(t Type, data json.RawMessage) error {
	model := t.model()
	if model == nil {
		return fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("%w: empty", ErrInvalidData)
	}
	if err := json.Unmarshal(trimmed, model); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	// Re-indent the caller's bytes so unknown fields are kept.
	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", "  "); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if err := fileutil.WriteFileAtomic(s.path(t), buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", t, err)
	}
	return nil
}

func (s *Store) load(t Type, v any) error {
	if t.model() == nil {
		return fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	err := fileutil.ReadJSON(s.path(t), v)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, t)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", t, err)
	}
	return nil
}

func (s *Store) Videos() ([]Video, error) {
	var v []Video
	if err := s.load(TypeVideos, &v); err != nil {
		return v, err
	}
	return v, nil
}

func (s *Store) SaveVideos(videos []Video) error {
	if videos == nil {
		videos = []Video{}
	}
	return fileutil.WriteJSONAtomic(s.path(TypeVideos), videos)
}

func (s *Store) Brands() ([]Brand, error) {
	var v []Brand
	if err := s.load(TypeBrands, &v); err != nil {
		return v, err
	}
	return v, nil
}

func (s *Store) Services() ([]Service, error) {
	var v []Service
	if err := s.load(TypeServices, &v); err != nil {
		return v, err
	}
	return v, nil
}

func (s *Store) Equipment() (Equipment, error) {
	var v Equipment
	if err := s.load(TypeEquipment, &v); err != nil {
		return v, err
	}
	return v, nil
}

func (s *Store) Contact() (Contact, error) {
	var v Contact
	if err := s.load(TypeContact, &v); err != nil {
		return v, err
	}
	return v, nil
}

func (s *Store) Backgrounds() (Backgrounds, error) {
	var v Backgrounds
	if err := s.load(TypeBackgrounds, &v); err != nil {
		return v, err
	}
	return v, nil
}
