package entity

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownDifficulty = errors.New("unknown difficulty")

// DifficultyProfile bounds the synthetic opponent's reaction delay and sets
// how often it deliberately strikes the wrong cell. Immutable once selected.
type DifficultyProfile struct {
	Name        string
	MinReaction time.Duration
	MaxReaction time.Duration
	ErrorRate   float64
}

var (
	ProfileEasy = DifficultyProfile{
		Name:        "easy",
		MinReaction: 700 * time.Millisecond,
		MaxReaction: 950 * time.Millisecond,
		ErrorRate:   0.15,
	}

	ProfileMedium = DifficultyProfile{
		Name:        "medium",
		MinReaction: 500 * time.Millisecond,
		MaxReaction: 900 * time.Millisecond,
		ErrorRate:   0.08,
	}

	ProfileHard = DifficultyProfile{
		Name:        "hard",
		MinReaction: 300 * time.Millisecond,
		MaxReaction: 800 * time.Millisecond,
		ErrorRate:   0.03,
	}
)

func ProfileByName(name string) (DifficultyProfile, error) {
	switch name {
	case ProfileEasy.Name:
		return ProfileEasy, nil
	case ProfileMedium.Name:
		return ProfileMedium, nil
	case ProfileHard.Name:
		return ProfileHard, nil
	default:
		return DifficultyProfile{}, fmt.Errorf("%w: %s", ErrUnknownDifficulty, name)
	}
}
