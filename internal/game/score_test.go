package game

import (
	"testing"

	"github.com/scythe504/triplay-backend/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMajorityAnswer(t *testing.T) {
	cases := []struct {
		name    string
		answers map[string]string
		want    string
		ok      bool
	}{
		{"two against one", map[string]string{"a": "x", "b": "x", "c": "y"}, "x", true},
		{"unanimous", map[string]string{"a": "y", "b": "y", "c": "y"}, "y", true},
		{"all different", map[string]string{"a": "x", "b": "y", "c": "z"}, "", false},
		{"two way tie", map[string]string{"a": "x", "b": "y"}, "", false},
		{"empty", map[string]string{}, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := MajorityAnswer(tc.answers)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestScoreDare(t *testing.T) {
	round := internal.NewRound("r3", "ROOM01", 3, internal.ModeDare, "q3", "c")

	round.Answers["c"] = internal.DareCompleted
	assert.Equal(t, []internal.ScoreEvent{{UserID: "c", Delta: 5, Reason: ReasonDareCompleted}}, ScoreDare(round))

	round.Answers["c"] = "shrug"
	assert.Empty(t, ScoreDare(round))

	round.DareTargetUserID = ""
	assert.Empty(t, ScoreDare(round))
}

func TestCalculateFinalResults(t *testing.T) {
	players := []*internal.Player{
		{UserID: "a", Score: 4},
		{UserID: "b", Score: 9},
		{UserID: "c", Score: 4},
	}

	results := CalculateFinalResults(players)
	require.NotNil(t, results.WinnerUserID)
	assert.Equal(t, "b", *results.WinnerUserID)
	assert.False(t, results.IsTie)
	assert.Equal(t, []internal.FinalScore{{UserID: "b", Score: 9}, {UserID: "a", Score: 4}, {UserID: "c", Score: 4}}, results.FinalScores)
	assert.Equal(t, "a", players[0].UserID, "input order is left alone")

	players[1].Score = 4
	results = CalculateFinalResults(players)
	assert.Equal(t, "a", *results.WinnerUserID, "join order breaks ties")
	assert.True(t, results.IsTie)
	assert.Len(t, results.FinalScores, 3)

	empty := CalculateFinalResults(nil)
	assert.Nil(t, empty.WinnerUserID)
	assert.False(t, empty.IsTie)
	assert.Empty(t, empty.FinalScores)
}

func TestModeForRound(t *testing.T) {
	want := []internal.GameMode{
		internal.ModeGuessMe, internal.ModeWouldYouRather, internal.ModeDare,
		internal.ModeGuessMe, internal.ModeWouldYouRather, internal.ModeDare,
		internal.ModeGuessMe, internal.ModeWouldYouRather, internal.ModeDare,
	}
	for i, mode := range want {
		assert.Equal(t, mode, ModeForRound(i+1), "round %d", i+1)
	}
}
