package guesser_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FuYoshi/lol-guesser/games/guesser"
)

type mark struct {
	spell   guesser.Spell
	correct bool
}

// recordingPresenter keeps everything the session asked it to render.
type recordingPresenter struct {
	levels   []guesser.Level
	scores   []int
	marks    []mark
	restarts []int
}

func (p *recordingPresenter) ShowLevel(level guesser.Level, score int) {
	p.levels = append(p.levels, level)
	p.scores = append(p.scores, score)
}

func (p *recordingPresenter) MarkGuess(spell guesser.Spell, correct bool) {
	p.marks = append(p.marks, mark{spell: spell, correct: correct})
}

func (p *recordingPresenter) ShowRestart(score int) {
	p.restarts = append(p.restarts, score)
}

func wrongSpell(level guesser.Level) guesser.Spell {
	return level.Spells[(level.AnswerIndex+1)%len(level.Spells)]
}

func TestSession_Start(t *testing.T) {
	p := &recordingPresenter{}
	s := guesser.NewSession(testData(20), seeded(1), p)

	assert.Equal(t, guesser.Inactive, s.State())

	require.NoError(t, s.Start(3, []guesser.Slot{guesser.SlotQ}))

	assert.Equal(t, guesser.Active, s.State())
	assert.Equal(t, 0, s.Score())
	assert.Equal(t, 3, s.Difficulty())
	assert.Equal(t, []guesser.Slot{guesser.SlotQ}, s.Slots())
	require.Len(t, p.levels, 1)
	assert.Equal(t, s.Level(), p.levels[0])
	assert.Len(t, s.Level().Spells, 9)
}

func TestSession_CorrectGuess(t *testing.T) {
	p := &recordingPresenter{}
	s := guesser.NewSession(testData(20), seeded(2), p)
	require.NoError(t, s.Start(2, nil))

	for want := 1; want <= 3; want++ {
		correct, err := s.Guess(s.Level().Answer)
		require.NoError(t, err)
		assert.True(t, correct)
		assert.Equal(t, want, s.Score())
		assert.Equal(t, guesser.Active, s.State())
	}

	require.Len(t, p.levels, 4)
	assert.Equal(t, []int{0, 1, 2, 3}, p.scores)
	assert.Empty(t, p.restarts)
	for _, m := range p.marks {
		assert.True(t, m.correct)
	}
}

func TestSession_WrongGuessEndsGame(t *testing.T) {
	p := &recordingPresenter{}
	s := guesser.NewSession(testData(20), seeded(3), p)
	require.NoError(t, s.Start(2, nil))

	_, err := s.Guess(s.Level().Answer)
	require.NoError(t, err)

	level := s.Level()
	correct, err := s.Guess(wrongSpell(level))
	require.NoError(t, err)
	assert.False(t, correct)
	assert.Equal(t, guesser.Inactive, s.State())
	assert.Equal(t, 1, s.Score())
	assert.Equal(t, []int{1}, p.restarts)

	// Further misses are still marked but never score or restart again.
	correct, err = s.Guess(wrongSpell(level))
	require.NoError(t, err)
	assert.False(t, correct)
	assert.Equal(t, 1, s.Score())
	assert.Equal(t, []int{1}, p.restarts)
	require.Len(t, p.marks, 3)
	assert.False(t, p.marks[2].correct)

	// A hit on the stale board is marked but does not score.
	correct, err = s.Guess(level.Answer)
	require.NoError(t, err)
	assert.True(t, correct)
	assert.Equal(t, 1, s.Score())
	assert.Len(t, p.levels, 2)
}

func TestSession_RestartResetsScore(t *testing.T) {
	p := &recordingPresenter{}
	s := guesser.NewSession(testData(20), seeded(4), p)
	require.NoError(t, s.Start(1, nil))

	_, err := s.Guess(s.Level().Answer)
	require.NoError(t, err)
	require.Equal(t, 1, s.Score())

	require.NoError(t, s.Start(2, nil))
	assert.Equal(t, 0, s.Score())
	assert.Equal(t, guesser.Active, s.State())
	assert.Len(t, s.Level().Spells, 4)
}

func TestSession_GuessAt(t *testing.T) {
	p := &recordingPresenter{}
	s := guesser.NewSession(testData(20), seeded(5), p)
	require.NoError(t, s.Start(2, nil))

	correct, err := s.GuessAt(s.Level().AnswerIndex)
	require.NoError(t, err)
	assert.True(t, correct)

	_, err = s.GuessAt(4)
	assert.ErrorIs(t, err, guesser.ErrInvalidGuess)
	_, err = s.GuessAt(-1)
	assert.ErrorIs(t, err, guesser.ErrInvalidGuess)
	assert.Equal(t, 1, s.Score())
}

func TestSession_GuessBeforeStart(t *testing.T) {
	p := &recordingPresenter{}
	s := guesser.NewSession(testData(4), seeded(6), p)

	correct, err := s.Guess(guesser.Spell{Name: "anything"})
	require.NoError(t, err)
	assert.False(t, correct)
	assert.Equal(t, guesser.Inactive, s.State())
	assert.Empty(t, p.restarts)
	assert.Len(t, p.marks, 1)
}

func TestSession_StartErrors(t *testing.T) {
	p := &recordingPresenter{}
	s := guesser.NewSession(testData(4), seeded(7), p)

	assert.ErrorIs(t, s.Start(0, nil), guesser.ErrInvalidGridSize)
	assert.ErrorIs(t, s.Start(1, []guesser.Slot{"Z"}), guesser.ErrInvalidSlot)
	assert.ErrorIs(t, s.Start(3, nil), guesser.ErrInsufficientPopulation)
	assert.Equal(t, guesser.Inactive, s.State())
	assert.Empty(t, p.levels)
}

func TestSession_FailedRestartKeepsRun(t *testing.T) {
	p := &recordingPresenter{}
	s := guesser.NewSession(testData(4), seeded(7), p)

	require.NoError(t, s.Start(1, nil))
	correct, err := s.GuessAt(s.Level().AnswerIndex)
	require.NoError(t, err)
	require.True(t, correct)
	level := s.Level()

	assert.ErrorIs(t, s.Start(math.MaxInt, []guesser.Slot{guesser.SlotQ}), guesser.ErrInsufficientPopulation)

	assert.Equal(t, guesser.Active, s.State())
	assert.Equal(t, 1, s.Score())
	assert.Equal(t, 1, s.Difficulty())
	assert.Empty(t, s.Slots())
	assert.Equal(t, level, s.Level())
	assert.Len(t, p.levels, 2)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "active", guesser.Active.String())
	assert.Equal(t, "inactive", guesser.Inactive.String())
}
