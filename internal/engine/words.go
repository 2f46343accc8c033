package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const MinWordLength = 4

type Reason string

const (
	ReasonTooShort       Reason = "too_short"
	ReasonInvalidLetters Reason = "invalid_letters"
	ReasonMissingCenter  Reason = "missing_center"
	ReasonDuplicate      Reason = "duplicate"
	ReasonNotAWord       Reason = "not_a_word"
	ReasonPending        Reason = "pending"
	ReasonNotPlaying     Reason = "not_playing"
)

var reasonMessages = map[Reason]string{
	ReasonTooShort:      "Word must be at least 4 letters long!",
	ReasonMissingCenter: "Word must contain center letter!",
	ReasonDuplicate:     "Word already found!",
	ReasonNotAWord:      "Word not in dictionary!",
	ReasonPending:       "Still checking your last word!",
	ReasonNotPlaying:    "Game is not in progress!",
}

// WordError is a rejection the player can fix. It goes back to the submitter
// only.
type WordError struct {
	Reason  Reason
	Message string
}

func (e *WordError) Error() string { return e.Message }

func NewWordError(reason Reason) *WordError {
	return &WordError{Reason: reason, Message: reasonMessages[reason]}
}

// CheckWord runs every submission check that needs no dictionary, in order:
// length, letters, center letter, duplicate. It returns the word uppercased.
func CheckWord(s State, playerID, raw string) (string, error) {
	i := s.indexOf(playerID)
	if i < 0 {
		return "", ErrUnknownPlayer
	}
	if s.Phase != PhasePlaying {
		return "", NewWordError(ReasonNotPlaying)
	}

	word := strings.ToUpper(strings.TrimSpace(raw))
	if utf8.RuneCountInString(word) < MinWordLength {
		return "", NewWordError(ReasonTooShort)
	}

	var invalid []string
	seen := map[rune]bool{}
	for _, r := range word {
		if s.Letters.Contains(r) || seen[r] {
			continue
		}
		seen[r] = true
		invalid = append(invalid, string(r))
	}
	if len(invalid) > 0 {
		return "", &WordError{
			Reason:  ReasonInvalidLetters,
			Message: fmt.Sprintf("Invalid letters: %s", strings.Join(invalid, ", ")),
		}
	}

	if !strings.Contains(word, s.Letters.Center) {
		return "", NewWordError(ReasonMissingCenter)
	}
	if s.Players[i].HasFound(word) {
		return "", NewWordError(ReasonDuplicate)
	}
	return word, nil
}
