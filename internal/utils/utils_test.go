package utils

import (
	"strings"
	"testing"

	"github.com/scythe504/triplay-backend/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRoomCode(t *testing.T) {
	seen := make(map[string]bool)
	for range 200 {
		code := GenerateRoomCode()
		require.Len(t, code, internal.RoomCodeLength)
		for _, c := range code {
			assert.Contains(t, roomCodeAlphabet, string(c))
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestReadQuestionsCsv(t *testing.T) {
	input := strings.Join([]string{
		"type,category,text,options",
		"guess_me,Alltag,What did you eat for breakfast?,",
		`would_you_rather,Reisen,Beach or mountains?,Beach | Mountains`,
		"dare,Fitness,Do ten push-ups",
		"karaoke,Spaß,Sing a song,",
		"guess_me,Alltag",
		"guess_me,Alltag,   ,",
	}, "\n")

	questions, err := ReadQuestionsCsv(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, questions, 3)

	assert.Equal(t, internal.ModeGuessMe, questions[0].Type)
	assert.Equal(t, "Alltag", questions[0].Category)
	assert.Empty(t, questions[0].Options)

	assert.Equal(t, []string{"Beach", "Mountains"}, questions[1].Options)
	assert.Equal(t, internal.ModeDare, questions[2].Type)

	again, err := ReadQuestionsCsv(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, questions[1].Id, again[1].Id, "ids are stable across runs")
	assert.NotEqual(t, questions[0].Id, questions[1].Id)
}

func TestReadQuestionsFileMissing(t *testing.T) {
	_, err := ReadQuestionsFile("does-not-exist.csv")
	assert.Error(t, err)
}
