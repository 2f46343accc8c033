package engine

import "fmt"

type Settings struct {
	PointsToWin         int  `json:"pointsToWin"`
	TotalWordsToWin     int  `json:"totalWordsToWin"`
	IsPangramInstantWin bool `json:"isPangramInstantWin"`
}

func DefaultSettings() Settings {
	return Settings{PointsToWin: 30, TotalWordsToWin: 10, IsPangramInstantWin: true}
}

// SettingsPatch is a partial update; nil fields are left alone.
type SettingsPatch struct {
	PointsToWin         *int  `json:"pointsToWin,omitempty"`
	TotalWordsToWin     *int  `json:"totalWordsToWin,omitempty"`
	IsPangramInstantWin *bool `json:"isPangramInstantWin,omitempty"`
}

// Merge validates the whole patch before applying any of it.
func (s Settings) Merge(p SettingsPatch) (Settings, error) {
	if p.PointsToWin != nil && *p.PointsToWin <= 0 {
		return s, fmt.Errorf("%w: pointsToWin must be positive, got %d", ErrInvalidSettings, *p.PointsToWin)
	}
	if p.TotalWordsToWin != nil && *p.TotalWordsToWin <= 0 {
		return s, fmt.Errorf("%w: totalWordsToWin must be positive, got %d", ErrInvalidSettings, *p.TotalWordsToWin)
	}

	out := s
	if p.PointsToWin != nil {
		out.PointsToWin = *p.PointsToWin
	}
	if p.TotalWordsToWin != nil {
		out.TotalWordsToWin = *p.TotalWordsToWin
	}
	if p.IsPangramInstantWin != nil {
		out.IsPangramInstantWin = *p.IsPangramInstantWin
	}
	return out, nil
}
