package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/scythe504/triplay-backend/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreSuite checks the behaviour every Store implementation must share.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("room round trip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		room := newTestRoom("ROOM01")
		require.NoError(t, s.CreateRoom(ctx, room))

		err := s.CreateRoom(ctx, newTestRoom("ROOM01"))
		assert.ErrorIs(t, err, internal.ErrConflict)

		got, err := s.GetRoom(ctx, "ROOM01")
		require.NoError(t, err)
		assert.Equal(t, "Friday night", got.Name)
		assert.Equal(t, internal.GameStateWaiting, got.GameState)
		assert.Equal(t, internal.DefaultTotalRounds, got.Settings.TotalRounds)
		assert.Equal(t, internal.ModeRotation, got.Settings.GameModes)
		assert.Empty(t, got.UsedQuestionIDs)
		assert.Nil(t, got.WinnerUserID)

		winner := "u1"
		got.GameState = internal.GameStateFinished
		got.UsedQuestionIDs = []string{"q1", "q2"}
		got.WinnerUserID = &winner
		got.IsTie = true
		got.FinalScores = []internal.FinalScore{{UserID: "u1", Score: 4}, {UserID: "u2", Score: 4}}
		require.NoError(t, s.UpdateRoom(ctx, got))

		again, err := s.GetRoom(ctx, "ROOM01")
		require.NoError(t, err)
		assert.Equal(t, internal.GameStateFinished, again.GameState)
		assert.Equal(t, []string{"q1", "q2"}, again.UsedQuestionIDs)
		require.NotNil(t, again.WinnerUserID)
		assert.Equal(t, "u1", *again.WinnerUserID)
		assert.True(t, again.IsTie)
		assert.Len(t, again.FinalScores, 2)

		_, err = s.GetRoom(ctx, "NOPE00")
		assert.ErrorIs(t, err, internal.ErrNotFound)
	})

	t.Run("settings update leaves progress alone", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		room := newTestRoom("ROOM01")
		require.NoError(t, s.CreateRoom(ctx, room))
		room.GameState = internal.GameStatePlaying
		room.CurrentRound = 2
		room.UsedQuestionIDs = []string{"q1", "q2"}
		room.DareRotationIndex = 1
		require.NoError(t, s.UpdateRoom(ctx, room))

		settings := internal.GameSettings{
			TotalRounds:        12,
			QuestionCategories: []string{"Reisen"},
			GameModes:          []internal.GameMode{internal.ModeDare},
		}
		require.NoError(t, s.UpdateSettings(ctx, "ROOM01", settings))

		got, err := s.GetRoom(ctx, "ROOM01")
		require.NoError(t, err)
		assert.Equal(t, settings, got.Settings)
		assert.Equal(t, internal.GameStatePlaying, got.GameState)
		assert.Equal(t, 2, got.CurrentRound)
		assert.Equal(t, []string{"q1", "q2"}, got.UsedQuestionIDs)
		assert.Equal(t, 1, got.DareRotationIndex)

		err = s.UpdateSettings(ctx, "NOPE00", settings)
		assert.ErrorIs(t, err, internal.ErrNotFound)
	})

	t.Run("players keep join order and clamp scores", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.CreateRoom(ctx, newTestRoom("ROOM02")))

		base := time.Now().UTC().Truncate(time.Millisecond)
		for i, id := range []string{"a", "b", "c"} {
			require.NoError(t, s.AddPlayer(ctx, &internal.Player{
				UserID:   id,
				RoomID:   "ROOM02",
				Name:     id,
				Role:     internal.RoleOrder[i],
				JoinedAt: base.Add(time.Duration(i) * time.Second),
			}))
		}
		err := s.AddPlayer(ctx, &internal.Player{UserID: "a", RoomID: "ROOM02", Name: "a", Role: internal.RoleYou})
		assert.ErrorIs(t, err, internal.ErrConflict)

		players, err := s.ListPlayers(ctx, "ROOM02")
		require.NoError(t, err)
		require.Len(t, players, 3)
		assert.Equal(t, "a", players[0].UserID)
		assert.Equal(t, "c", players[2].UserID)

		score, err := s.AdjustScore(ctx, "ROOM02", "b", 1)
		require.NoError(t, err)
		assert.Equal(t, 1, score)

		score, err = s.AdjustScore(ctx, "ROOM02", "b", -2)
		require.NoError(t, err)
		assert.Equal(t, 0, score)

		_, err = s.AdjustScore(ctx, "ROOM02", "ghost", 2)
		assert.ErrorIs(t, err, internal.ErrNotFound)

		_, err = s.AdjustScore(ctx, "ROOM02", "c", 5)
		require.NoError(t, err)
		require.NoError(t, s.ResetScores(ctx, "ROOM02"))
		c, err := s.GetPlayer(ctx, "ROOM02", "c")
		require.NoError(t, err)
		assert.Zero(t, c.Score)

		require.NoError(t, s.RemovePlayer(ctx, "ROOM02", "b"))
		assert.ErrorIs(t, s.RemovePlayer(ctx, "ROOM02", "b"), internal.ErrNotFound)
		_, err = s.GetPlayer(ctx, "ROOM02", "b")
		assert.ErrorIs(t, err, internal.ErrNotFound)
	})

	t.Run("concurrent score increments are not lost", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.CreateRoom(ctx, newTestRoom("ROOM03")))
		require.NoError(t, s.AddPlayer(ctx, &internal.Player{UserID: "a", RoomID: "ROOM03", Name: "a", Role: internal.RoleYou}))

		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.AdjustScore(ctx, "ROOM03", "a", 2)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		p, err := s.GetPlayer(ctx, "ROOM03", "a")
		require.NoError(t, err)
		assert.Equal(t, 40, p.Score)
	})

	t.Run("round versioning rejects stale writes", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.CreateRoom(ctx, newTestRoom("ROOM04")))

		_, err := s.LatestRound(ctx, "ROOM04")
		assert.ErrorIs(t, err, internal.ErrNotFound)

		round := internal.NewRound("r1", "ROOM04", 1, internal.ModeGuessMe, "q1", "")
		require.NoError(t, s.CreateRound(ctx, round))
		dup := internal.NewRound("r1b", "ROOM04", 1, internal.ModeGuessMe, "q1", "")
		assert.ErrorIs(t, s.CreateRound(ctx, dup), internal.ErrConflict)

		first, err := s.LatestRound(ctx, "ROOM04")
		require.NoError(t, err)
		second, err := s.LatestRound(ctx, "ROOM04")
		require.NoError(t, err)

		first.Answers["a"] = "pizza"
		first.Status = internal.StatusRevealing
		first.RevealOrder = []string{"c", "a", "b"}
		first.RevealGuesses[0] = map[string]string{"a": "c"}
		first.ContinueAcks["a"] = true
		require.NoError(t, s.UpdateRound(ctx, first))
		assert.Equal(t, 1, first.Version)

		second.Answers["b"] = "pasta"
		assert.ErrorIs(t, s.UpdateRound(ctx, second), internal.ErrConflict)

		latest, err := s.LatestRound(ctx, "ROOM04")
		require.NoError(t, err)
		assert.Equal(t, 1, latest.Version)
		assert.Equal(t, map[string]string{"a": "pizza"}, latest.Answers)
		assert.Equal(t, []string{"c", "a", "b"}, latest.RevealOrder)
		assert.Equal(t, "c", latest.RevealGuesses[0]["a"])
		assert.True(t, latest.ContinueAcks["a"])

		require.NoError(t, s.CreateRound(ctx, internal.NewRound("r2", "ROOM04", 2, internal.ModeDare, "q2", "a")))
		latest, err = s.LatestRound(ctx, "ROOM04")
		require.NoError(t, err)
		assert.Equal(t, 2, latest.RoundNumber)
		assert.Equal(t, "a", latest.DareTargetUserID)

		require.NoError(t, s.DeleteRounds(ctx, "ROOM04"))
		_, err = s.LatestRound(ctx, "ROOM04")
		assert.ErrorIs(t, err, internal.ErrNotFound)
	})

	t.Run("questions filter by mode and category", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		added, err := s.AddQuestions(ctx, []*internal.Question{
			{Id: "q1", Text: "Favourite food?", Type: internal.ModeGuessMe, Category: "Alltag"},
			{Id: "q2", Text: "Beach or mountains?", Type: internal.ModeWouldYouRather, Category: "Reisen", Options: []string{"Beach", "Mountains"}},
			{Id: "q3", Text: "Do ten push-ups", Type: internal.ModeDare, Category: "Fitness"},
			{Id: "q4", Text: "Dream job?", Type: internal.ModeGuessMe, Category: "Persönlich"},
			{Id: "q5", Text: "Untagged", Type: internal.ModeGuessMe, Category: ""},
		})
		require.NoError(t, err)
		assert.Equal(t, 5, added)

		added, err = s.AddQuestions(ctx, []*internal.Question{{Id: "q1", Text: "dup", Type: internal.ModeGuessMe, Category: "Alltag"}})
		require.NoError(t, err)
		assert.Zero(t, added)

		found, err := s.FindQuestions(ctx, internal.ModeGuessMe, []string{"Alltag", "Reisen"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "q1", found[0].Id)

		q, err := s.GetQuestion(ctx, "q2")
		require.NoError(t, err)
		assert.Equal(t, []string{"Beach", "Mountains"}, q.Options)

		_, err = s.GetQuestion(ctx, "missing")
		assert.ErrorIs(t, err, internal.ErrNotFound)

		categories, err := s.ListCategories(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Alltag", "Fitness", "Persönlich", "Reisen"}, categories)
	})
}

func newTestRoom(id string) *internal.Room {
	return &internal.Room{
		Id:              id,
		Name:            "Friday night",
		AdminUserID:     "a",
		GameState:       internal.GameStateWaiting,
		Settings:        internal.DefaultSettings(),
		UsedQuestionIDs: []string{},
	}
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		return NewMemory()
	})
}

func TestMemoryReturnsCopies(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	require.NoError(t, s.CreateRoom(ctx, newTestRoom("ROOM05")))

	room, err := s.GetRoom(ctx, "ROOM05")
	require.NoError(t, err)
	room.UsedQuestionIDs = append(room.UsedQuestionIDs, "q9")
	room.Settings.GameModes[0] = internal.ModeDare

	fresh, err := s.GetRoom(ctx, "ROOM05")
	require.NoError(t, err)
	assert.Empty(t, fresh.UsedQuestionIDs)
	assert.Equal(t, internal.ModeGuessMe, fresh.Settings.GameModes[0])
}
