/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package guesser

import (
	"fmt"
	"slices"
)

// State is whether a session is currently scoring guesses.
type State int

const (
	Inactive State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "inactive"
}

// Presenter renders what the session decides. Implementations must not call
// back into the session.
type Presenter interface {
	ShowLevel(level Level, score int)
	MarkGuess(spell Spell, correct bool)
	ShowRestart(score int)
}

// Session is one player's game. It is not safe for concurrent use; callers
// serialise access.
type Session struct {
	data      ChampionData
	rng       RNG
	presenter Presenter

	difficulty int
	slots      []Slot
	score      int
	state      State
	level      Level
}

func NewSession(data ChampionData, rng RNG, presenter Presenter) *Session {
	return &Session{
		data:      data,
		rng:       rng,
		presenter: presenter,
	}
}

// Start resets the score and begins a new game at the given grid size.
func (s *Session) Start(difficulty int, slots []Slot) error {
	if difficulty < 1 {
		return ErrInvalidGridSize
	}
	for _, slot := range slots {
		if !slot.valid() {
			return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
		}
	}

	// A failed start leaves the session as it was.
	level, err := GenerateLevel(s.rng, s.data, difficulty, slots)
	if err != nil {
		return err
	}

	s.difficulty = difficulty
	s.slots = slices.Clone(slots)
	s.score = 0
	s.state = Active
	s.level = level
	s.presenter.ShowLevel(level, s.score)

	return nil
}

// Guess scores selected against the current answer by name. The guess is
// always marked, even once the game is over; only an active game scores.
func (s *Session) Guess(selected Spell) (bool, error) {
	correct := s.level.Spells != nil && selected.Name == s.level.Answer.Name

	s.presenter.MarkGuess(selected, correct)

	if s.state != Active {
		return correct, nil
	}

	if !correct {
		s.state = Inactive
		s.presenter.ShowRestart(s.score)
		return false, nil
	}

	s.score++
	if err := s.nextLevel(); err != nil {
		s.state = Inactive
		s.presenter.ShowRestart(s.score)
		return true, err
	}

	return true, nil
}

// GuessAt guesses the spell at a row-major index of the current grid.
func (s *Session) GuessAt(index int) (bool, error) {
	if index < 0 || index >= len(s.level.Spells) {
		return false, fmt.Errorf("%w: index %d", ErrInvalidGuess, index)
	}

	return s.Guess(s.level.Spells[index])
}

func (s *Session) nextLevel() error {
	level, err := GenerateLevel(s.rng, s.data, s.difficulty, s.slots)
	if err != nil {
		return err
	}

	s.level = level
	s.presenter.ShowLevel(level, s.score)

	return nil
}

func (s *Session) Score() int { return s.score }

func (s *Session) State() State { return s.state }

func (s *Session) Level() Level { return s.level }

func (s *Session) Difficulty() int { return s.difficulty }

func (s *Session) Slots() []Slot { return slices.Clone(s.slots) }
