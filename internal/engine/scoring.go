package engine

import (
	"fmt"

	"github.com/DoyleJ11/battlebees-backend/internal/letters"
)

// DefaultPangramBonus is added on top of the length score of a pangram.
const DefaultPangramBonus = 7

// Score is the length part of a word's value.
func Score(length int) int {
	switch {
	case length < MinWordLength:
		return 0
	case length == 4:
		return 1
	case length == 5:
		return 5
	case length == 6:
		return 6
	default:
		return 7
	}
}

func WordScore(word string, pangram bool, bonus int) int {
	points := Score(len([]rune(word)))
	if pangram {
		points += bonus
	}
	return points
}

// IsPangram counts distinct letters; the word is assumed to already be spelled
// from the set.
func IsPangram(word string, set letters.Set) bool {
	distinct := make(map[rune]struct{}, letters.Size)
	for _, r := range word {
		distinct[r] = struct{}{}
	}
	return len(distinct) == len(set.Letters)
}

type WinReason string

const (
	WinPangram WinReason = "pangram"
	WinWords   WinReason = "words"
	WinPoints  WinReason = "points"
)

type Winner struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Score      int       `json:"score"`
	FoundWords []string  `json:"foundWords"`
	Reason     WinReason `json:"reason"`
	Message    string    `json:"winReason"`
}

// evaluateWin runs after a successful submission by p. Pangram beats word
// count, which beats points, when several hold at once.
func evaluateWin(p Player, pangram bool, rules Settings) *Winner {
	var reason WinReason
	var msg string
	switch {
	case pangram && rules.IsPangramInstantWin:
		reason, msg = WinPangram, "Found a pangram!"
	case len(p.FoundWords) >= rules.TotalWordsToWin:
		reason, msg = WinWords, fmt.Sprintf("Found %d words!", rules.TotalWordsToWin)
	case p.Score >= rules.PointsToWin:
		reason, msg = WinPoints, fmt.Sprintf("Reached %d points!", rules.PointsToWin)
	default:
		return nil
	}
	return &Winner{
		ID:         p.ID,
		Name:       p.Name,
		Score:      p.Score,
		FoundWords: append([]string(nil), p.FoundWords...),
		Reason:     reason,
		Message:    msg,
	}
}
