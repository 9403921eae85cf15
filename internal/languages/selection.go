// Package languages selects instruction languages and trims a bundle down to them.
package languages

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrEmptySelection      = errors.New("no languages selected")
	ErrInvalidNumber       = errors.New("invalid language number")
	ErrUnknownLanguage     = errors.New("unknown language")
	ErrMissingLanguagesDir = errors.New("languages directory not found")
	ErrMissingManifest     = errors.New("manifest not found")
)

// Selection is an ordered set of language names. The first occurrence of a
// name fixes its position.
type Selection struct {
	index map[string]struct{}
	names []string
}

// NewSelection builds a Selection from names, dropping repeats and blanks.
func NewSelection(names ...string) Selection {
	sel := Selection{index: make(map[string]struct{}, len(names))}
	for _, name := range names {
		sel.add(name)
	}
	return sel
}

func (s *Selection) add(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if _, ok := s.index[name]; ok {
		return
	}
	s.index[name] = struct{}{}
	s.names = append(s.names, name)
}

// Names returns the selected languages in selection order.
func (s Selection) Names() []string {
	return append([]string(nil), s.names...)
}

// Contains reports whether name is selected.
func (s Selection) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s Selection) Len() int {
	return len(s.names)
}

func (s Selection) Empty() bool {
	return len(s.names) == 0
}

func (s Selection) String() string {
	return strings.Join(s.names, " ")
}

// isDigits reports whether s is made of ASCII digits only, so signs and
// other Unicode digits are read as names.
func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// ParseSelection reads a whitespace separated answer made of 1-based numbers
// into available and language names.
func ParseSelection(input string, available []string) (Selection, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return Selection{}, ErrEmptySelection
	}

	known := make(map[string]struct{}, len(available))
	for _, name := range available {
		known[name] = struct{}{}
	}

	sel := NewSelection()
	for _, field := range fields {
		if isDigits(field) {
			number, err := strconv.Atoi(field)
			if err != nil || number < 1 || number > len(available) {
				return Selection{}, fmt.Errorf("%w: %s (choose 1-%d)", ErrInvalidNumber, field, len(available))
			}
			sel.add(available[number-1])
			continue
		}

		if _, ok := known[field]; !ok {
			return Selection{}, fmt.Errorf("%w: %q (available: %s)",
				ErrUnknownLanguage, field, strings.Join(available, ", "))
		}
		sel.add(field)
	}

	return sel, nil
}
