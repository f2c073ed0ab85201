/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package guesser

import "fmt"

// Level is one round: a Size x Size grid of spells in row-major order and
// the spell the player has to find.
type Level struct {
	Size        int
	Spells      []Spell
	Answer      Spell
	AnswerIndex int
}

// Question is the prompt shown above the grid.
func (l Level) Question() string {
	return fmt.Sprintf("What is the icon of '%s'?", l.Answer.Name)
}

// GenerateLevel draws gridSize² distinct champions, gives each a slot from
// enabled (every slot when enabled is empty) and picks one as the answer.
func GenerateLevel(rng RNG, data ChampionData, gridSize int, enabled []Slot) (Level, error) {
	if gridSize < 1 {
		return Level{}, ErrInvalidGridSize
	}

	if len(enabled) == 0 {
		enabled = AllSlots
	}

	// Checked before squaring so huge sizes can't wrap around.
	if gridSize > MaxGridSize(data) {
		return Level{}, fmt.Errorf("%w: need a %dx%d grid, have %d champions", ErrInsufficientPopulation, gridSize, gridSize, data.Len())
	}

	n := gridSize * gridSize

	champions, err := SampleWithoutReplacement(rng, data.IDs(), n)
	if err != nil {
		return Level{}, err
	}

	slots, err := SampleWithReplacement(rng, enabled, n)
	if err != nil {
		return Level{}, err
	}

	spells := make([]Spell, n)
	for i := range spells {
		spells[i], err = ResolveSpell(data, champions[i], slots[i])
		if err != nil {
			return Level{}, err
		}
	}

	pick, err := RandomInts(rng, 0, n, 1)
	if err != nil {
		return Level{}, err
	}

	return Level{
		Size:        gridSize,
		Spells:      spells,
		Answer:      spells[pick[0]],
		AnswerIndex: pick[0],
	}, nil
}

// MaxGridSize is the largest grid data can fill without repeating a champion.
func MaxGridSize(data ChampionData) int {
	size := 0
	for (size+1)*(size+1) <= data.Len() {
		size++
	}

	return size
}
