package puzzle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	FirstYear = 2015
	MaxDay    = 25
	MaxPart   = 2
)

var ErrInvalidKey = errors.New("invalid puzzle key")

// Kind tells which remote resource a Key identifies.
type Kind string

const (
	// KindInput is the per-user puzzle input text.
	KindInput Kind = "input"
	// KindPage is the puzzle description page. Pages carry a part because
	// the page changes once part one is solved.
	KindPage Kind = "page"
)

// Key identifies one cacheable remote resource.
//
// Key is comparable and is used directly as a map key. Every field takes part
// in the canonical string form, so two distinct resources never share a
// String() and ParseKey(k.String()) == k for every valid key.
type Key struct {
	Kind Kind
	Year int
	Day  int
	Part int
}

func InputKey(year, day int) Key {
	return Key{Kind: KindInput, Year: year, Day: day}
}

func PageKey(year, day, part int) Key {
	return Key{Kind: KindPage, Year: year, Day: day, Part: part}
}

// String returns the canonical form: "input/2023/1" or "page/2023/1/2".
func (k Key) String() string {
	if k.Kind == KindPage {
		return fmt.Sprintf("%s/%d/%d/%d", k.Kind, k.Year, k.Day, k.Part)
	}
	return fmt.Sprintf("%s/%d/%d", k.Kind, k.Year, k.Day)
}

// Path returns the remote URL path of the resource, relative to the site root.
func (k Key) Path() string {
	if k.Kind == KindInput {
		return fmt.Sprintf("/%d/day/%d/input", k.Year, k.Day)
	}
	return fmt.Sprintf("/%d/day/%d", k.Year, k.Day)
}

func (k Key) Validate() error {
	switch k.Kind {
	case KindInput:
		if k.Part != 0 {
			return fmt.Errorf("%w: input keys have no part, got %d", ErrInvalidKey, k.Part)
		}
	case KindPage:
		if k.Part < 1 || k.Part > MaxPart {
			return fmt.Errorf("%w: part must be between 1 and %d, got %d", ErrInvalidKey, MaxPart, k.Part)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidKey, k.Kind)
	}
	if k.Year < FirstYear {
		return fmt.Errorf("%w: year must be %d or later, got %d", ErrInvalidKey, FirstYear, k.Year)
	}
	if k.Day < 1 || k.Day > MaxDay {
		return fmt.Errorf("%w: day must be between 1 and %d, got %d", ErrInvalidKey, MaxDay, k.Day)
	}
	return nil
}

// ParseKey is the inverse of Key.String. The parsed key is validated.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, "/")
	if len(parts) < 3 {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}

	key := Key{Kind: Kind(parts[0])}
	want := 3
	if key.Kind == KindPage {
		want = 4
	}
	if len(parts) != want {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}

	nums := make([]int, 0, 3)
	for _, p := range parts[1:] {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Key{}, fmt.Errorf("%w: %q: %s", ErrInvalidKey, s, err.Error())
		}
		nums = append(nums, n)
	}
	key.Year, key.Day = nums[0], nums[1]
	if key.Kind == KindPage {
		key.Part = nums[2]
	}

	if err := key.Validate(); err != nil {
		return Key{}, err
	}
	return key, nil
}
