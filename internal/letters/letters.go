package letters

import (
	"errors"
	"fmt"
	"strings"
)

// Size is the number of letters in a honeycomb, center included.
const Size = 7

var ErrMalformedSet = errors.New("malformed letter set")

type Set struct {
	Letters  []string `json:"letters"`
	Center   string   `json:"centerLetter"`
	Pangrams []string `json:"pangrams,omitempty"`
}

// Default is the set handed out when no corpus entry can be used.
func Default() Set {
	return Set{
		Letters: []string{"B", "F", "D", "O", "L", "I", "E"},
		Center:  "B",
	}
}

func (s Set) Validate() error {
	if len(s.Letters) != Size {
		return fmt.Errorf("%w: want %d letters, got %d", ErrMalformedSet, Size, len(s.Letters))
	}
	seen := make(map[string]bool, Size)
	for _, l := range s.Letters {
		if len(l) != 1 || l[0] < 'A' || l[0] > 'Z' {
			return fmt.Errorf("%w: invalid letter %q", ErrMalformedSet, l)
		}
		if seen[l] {
			return fmt.Errorf("%w: duplicate letter %q", ErrMalformedSet, l)
		}
		seen[l] = true
	}
	if !seen[s.Center] {
		return fmt.Errorf("%w: center %q is not one of the letters", ErrMalformedSet, s.Center)
	}
	return nil
}

func (s Set) Contains(r rune) bool {
	for _, l := range s.Letters {
		if len(l) == 1 && rune(l[0]) == r {
			return true
		}
	}
	return false
}

// IsPangram reports whether word is spelled only with the set's letters and
// uses every one of them.
func (s Set) IsPangram(word string) bool {
	used := make(map[rune]bool, Size)
	for _, r := range word {
		if !s.Contains(r) {
			return false
		}
		used[r] = true
	}
	return len(used) == len(s.Letters)
}

// String encodes the set the way the corpus stores it: center first, then the
// outer letters.
func (s Set) String() string {
	var b strings.Builder
	b.WriteString(s.Center)
	for _, l := range s.Letters {
		if l != s.Center {
			b.WriteString(l)
		}
	}
	return b.String()
}

func (s Set) Clone() Set {
	c := Set{Center: s.Center}
	c.Letters = append([]string(nil), s.Letters...)
	if len(s.Pangrams) > 0 {
		c.Pangrams = append([]string(nil), s.Pangrams...)
	}
	return c
}

// Parse builds a set from its corpus encoding. letters is a 7 character string
// whose first character is the center letter; pangrams is a '|' separated list.
// Listed pangrams that are not pangrams of the set are dropped.
func Parse(letters, pangrams string) (Set, error) {
	letters = strings.ToUpper(strings.TrimSpace(letters))
	if len(letters) != Size {
		return Set{}, fmt.Errorf("%w: %q is not %d characters", ErrMalformedSet, letters, Size)
	}

	s := Set{Center: letters[:1], Letters: make([]string, 0, Size)}
	for i := 0; i < len(letters); i++ {
		s.Letters = append(s.Letters, letters[i:i+1])
	}
	if err := s.Validate(); err != nil {
		return Set{}, err
	}

	for _, p := range strings.Split(pangrams, "|") {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" || !s.IsPangram(p) {
			continue
		}
		s.Pangrams = append(s.Pangrams, p)
	}
	return s, nil
}
