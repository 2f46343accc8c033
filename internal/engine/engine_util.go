package engine

import (
	"strings"
	"unicode/utf8"

	"github.com/DoyleJ11/battlebees-backend/internal/letters"
)

func NewState(roomID string, set letters.Set, pangramBonus int) State {
	return State{
		RoomID:       roomID,
		Letters:      set.Clone(),
		Players:      []Player{},
		Settings:     DefaultSettings(),
		Phase:        PhaseLobby,
		PangramBonus: pangramBonus,
	}
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// NormalizeName trims the name and cuts it to MaxNameLength characters.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = strings.TrimSpace(string([]rune(name)[:MaxNameLength]))
	}
	return name, nil
}

func (s State) Player(id string) (Player, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return Player{}, false
	}
	return s.Players[i], true
}

func (s State) indexOf(id string) int {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return i
		}
	}
	return -1
}

func (s State) clone() State {
	c := s
	c.Letters = s.Letters.Clone()
	c.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		c.Players[i] = p.clone()
	}
	if s.Winner != nil {
		w := *s.Winner
		w.FoundWords = append([]string(nil), s.Winner.FoundWords...)
		c.Winner = &w
	}
	return c
}

func newPlayer(id, name string) Player {
	return Player{
		ID:         id,
		Name:       name,
		FoundWords: []string{},
		found:      map[string]struct{}{},
	}
}

func (p Player) clone() Player {
	c := p
	c.FoundWords = append(make([]string, 0, len(p.FoundWords)), p.FoundWords...)
	c.found = make(map[string]struct{}, len(p.found))
	for w := range p.found {
		c.found[w] = struct{}{}
	}
	return c
}

func (p *Player) reset() {
	p.Score = 0
	p.FoundWords = []string{}
	p.found = map[string]struct{}{}
}
