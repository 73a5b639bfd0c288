// Package submissions stores contact form messages in a JSON file, newest
// first.
package submissions

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/acgh213/reelfolio/internal/fileutil"
)

const FileName = "submissions.json"

var (
	ErrNotFound      = errors.New("submission not found")
	ErrMissingFields = errors.New("name, email and message are required")
	ErrInvalidEmail  = errors.New("invalid email address")
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Submission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// Input is an unvalidated contact form.
type Input struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Validate trims every field and checks the email shape.
func (in *Input) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Message = strings.TrimSpace(in.Message)
	if in.Name == "" || in.Email == "" || in.Message == "" {
		return ErrMissingFields
	}
	if !emailRe.MatchString(in.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// Store serialises every read-modify-write of the submissions file.
type Store struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, FileName), now: time.Now}
}

// Add validates in and stores it at the front of the list. An unreadable
// file is replaced rather than blocking new messages.
func (s *Store) Add(in Input) (*Submission, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.read()
	if err != nil && !errors.Is(err, ErrNotFound) {
		slog.Warn("submissions file unreadable, starting fresh", "error", err)
	}

	sub := Submission{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Message:   in.Message,
		Timestamp: s.now().UTC(),
	}
	list = append([]Submission{sub}, list...)

	if err := fileutil.WriteJSONAtomic(s.path, list); err != nil {
		return nil, fmt.Errorf("save submissions: %w", err)
	}
	return &sub, nil
}

// List returns every submission, or an empty slice when none exist yet.
func (s *Store) List() ([]Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.read()
	if errors.Is(err, ErrNotFound) {
		return []Submission{}, nil
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Unread counts submissions not yet marked read.
func (s *Store) Unread() (int, error) {
	list, err := s.List()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, sub := range list {
		if !sub.Read {
			n++
		}
	}
	return n, nil
}

func (s *Store) Delete(id string) error {
	return s.update(id, func(list []Submission, i int) []Submission {
		return append(list[:i], list[i+1:]...)
	})
}

func (s *Store) SetRead(id string, read bool) error {
	return s.update(id, func(list []Submission, i int) []Submission {
		list[i].Read = read
		return list
	})
}

func (s *Store) update(id string, fn func([]Submission, int) []Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.read()
	if err != nil {
		return err
	}
	idx := -1
	for i := range list {
		if list[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := fileutil.WriteJSONAtomic(s.path, fn(list, idx)); err != nil {
		return fmt.Errorf("save submissions: %w", err)
	}
	return nil
}

func (s *Store) read() ([]Submission, error) {
	var list []Submission
	err := fileutil.ReadJSON(s.path, &list)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}
