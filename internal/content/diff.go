package content

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Change counts the lines a save added to and removed from a content file.
type Change struct {
	Added   int
	Removed int
}

// LineDiff compares two texts line by line.
func LineDiff(oldText, newText string) Change {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var c Change
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			c.Added += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			c.Removed += countLines(d.Text)
		}
	}
	return c
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// Save writes data like Write and reports how the stored file changed. A
// type saved for the first time counts every line as added.
func (s *Store) Save(t Type, data json.RawMessage) (Change, error) {
	before, err := s.Read(t)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Change{}, err
	}
	if err := s.Write(t, data); err != nil {
		return Change{}, err
	}
	after, err := s.Read(t)
	if err != nil {
		return Change{}, err
	}
	return LineDiff(string(before), string(after)), nil
}
