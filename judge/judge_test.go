package judge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestJudgeRPS pins the full outcome table of Rock-Paper-Scissors.
func TestJudgeRPS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b    Action
		verdict Verdict
	}{
		{Rock, Rock, VerdictDraw},
		{Paper, Paper, VerdictDraw},
		{Scissors, Scissors, VerdictDraw},

		{Rock, Scissors, VerdictAWins},
		{Scissors, Paper, VerdictAWins},
		{Paper, Rock, VerdictAWins},

		{Scissors, Rock, VerdictBWins},
		{Paper, Scissors, VerdictBWins},
		{Rock, Paper, VerdictBWins},
	}
	for _, test := range tests {
		require.Equal(t, test.verdict, JudgeRPS(test.a, test.b),
			"judge(%d, %d)", test.a, test.b)
	}
}

// TestJudgeRPSSymmetry asserts swapping the players flips the winning side
// and preserves draws.
func TestJudgeRPSSymmetry(t *testing.T) {
	t.Parallel()

	for a := Rock; a <= Scissors; a++ {
		for b := Rock; b <= Scissors; b++ {
			forward := JudgeRPS(a, b)
			backward := JudgeRPS(b, a)
			require.Equal(t, forward.Opposite(), backward)
		}
	}
}

// TestJudgeGuess checks closest-to-secret judging including ties.
func TestJudgeGuess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b, secret Action
		verdict      Verdict
	}{
		{42, 55, 50, VerdictBWins},
		{55, 42, 50, VerdictAWins},
		{48, 52, 50, VerdictDraw},
		{50, 51, 50, VerdictAWins},
		{0, 99, 0, VerdictAWins},
		{7, 7, 3, VerdictDraw},
	}
	for _, test := range tests {
		require.Equal(t, test.verdict,
			JudgeGuess(test.a, test.b, test.secret),
			"judge(%d, %d, secret=%d)", test.a, test.b,
			test.secret)
	}
}

// TestJudgeTotality asserts the dispatcher returns exactly one of the three
// verdicts for every valid input pair.
func TestJudgeTotality(t *testing.T) {
	t.Parallel()

	for a := Rock; a <= Scissors; a++ {
		for b := Rock; b <= Scissors; b++ {
			v, err := Judge(KindRPS, a, b, nil)
			require.NoError(t, err)
			require.LessOrEqual(t, uint8(v), uint8(VerdictDraw))
		}
	}

	secret := Action(50)
	for a := Action(0); a < Action(DefaultGuessRange); a += 7 {
		for b := Action(0); b < Action(DefaultGuessRange); b += 11 {
			v, err := Judge(KindGuessNumber, a, b, &secret)
			require.NoError(t, err)
			require.LessOrEqual(t, uint8(v), uint8(VerdictDraw))
		}
	}

	// The dispatcher rejects a missing secret and unknown kinds.
	_, err := Judge(KindGuessNumber, 1, 2, nil)
	require.Error(t, err)
	_, err = Judge(Kind(0x7f), 1, 2, nil)
	require.Error(t, err)
}

// TestValidateAction exercises both action spaces and the configurable
// guess range.
func TestValidateAction(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateAction(KindRPS, Rock, 0))
	require.NoError(t, ValidateAction(KindRPS, Scissors, 0))
	require.Error(t, ValidateAction(KindRPS, 3, 0))

	require.NoError(t, ValidateAction(KindGuessNumber, 0, 0))
	require.NoError(t, ValidateAction(KindGuessNumber, 99, 0))
	require.Error(t, ValidateAction(KindGuessNumber, 100, 0))

	require.NoError(t, ValidateAction(KindGuessNumber, 9, 10))
	require.Error(t, ValidateAction(KindGuessNumber, 10, 10))

	require.Error(t, ValidateAction(Kind(0x7f), 0, 0))
}

// TestVerdictTags pins the literal tag bytes, which are a wire contract.
func TestVerdictTags(t *testing.T) {
	t.Parallel()

	require.Equal(t, []byte("A wins"), VerdictAWins.Tag())
	require.Equal(t, []byte("B wins"), VerdictBWins.Tag())
	require.Equal(t, []byte("Draw"), VerdictDraw.Tag())

	for _, v := range []Verdict{VerdictAWins, VerdictBWins, VerdictDraw} {
		parsed, err := VerdictFromTag(v.Tag())
		require.NoError(t, err)
		require.Equal(t, v, parsed)
	}

	_, err := VerdictFromTag([]byte("nobody wins"))
	require.Error(t, err)
}
