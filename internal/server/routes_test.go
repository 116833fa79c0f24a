package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/triplay-backend/internal"
	"github.com/scythe504/triplay-backend/internal/config"
	"github.com/scythe504/triplay-backend/internal/game"
	"github.com/scythe504/triplay-backend/internal/store"
	"github.com/scythe504/triplay-backend/internal/websocket"
)

type envelope struct {
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, origins ...string) *httptest.Server {
	t.Helper()

	st := store.NewMemory()
	var questions []*internal.Question
	for _, mode := range internal.ModeRotation {
		for i := range 3 {
			questions = append(questions, &internal.Question{
				Id:       fmt.Sprintf("%s-%d", mode, i),
				Text:     fmt.Sprintf("%s question %d", mode, i),
				Type:     mode,
				Category: "Alltag",
				Options:  []string{"beach", "mountains"},
			})
		}
	}
	_, err := st.AddQuestions(context.Background(), questions)
	require.NoError(t, err)

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cfg := &config.Config{
		Bind:           "127.0.0.1",
		Port:           8080,
		Store:          config.StoreMemory,
		AllowedOrigins: origins,
		PublicURL:      "https://triplay.example",
	}
	hub := websocket.NewHub(cfg.AllowedOrigins)
	srv := NewServer(cfg, game.NewService(st, hub), hub)

	ts := httptest.NewServer(srv.RegisterRoutes())
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, ts *httptest.Server, method, path string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, resp.StatusCode, env.StatusCode)
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func errorOf(t *testing.T, env envelope) string {
	t.Helper()
	return decode[errorBody](t, env).Error
}

// seatTable creates a room as a and seats b and c.
func seatTable(t *testing.T, ts *httptest.Server) string {
	t.Helper()

	status, env := call(t, ts, http.MethodPost, "/api/rooms", game.CreateRoomRequest{
		UserID: "a", Name: "alex", RoomName: "Friday",
	})
	require.Equal(t, http.StatusCreated, status)
	roomID := decode[internal.RoomView](t, env).Room.Id

	for _, id := range []string{"b", "c"} {
		status, _ := call(t, ts, http.MethodPost, "/api/rooms/join", game.JoinRoomRequest{
			UserID: id, Name: id, RoomID: roomID,
		})
		require.Equal(t, http.StatusOK, status)
	}
	return roomID
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	status, env := call(t, ts, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", decode[map[string]string](t, env)["status"])
}

func TestRoomLifecycle(t *testing.T) {
	ts := newTestServer(t)
	roomID := seatTable(t, ts)

	status, env := call(t, ts, http.MethodGet, "/api/rooms/"+roomID, nil)
	require.Equal(t, http.StatusOK, status)
	view := decode[internal.RoomView](t, env)
	require.Len(t, view.Players, 3)
	assert.Equal(t, internal.RoleYou, view.Players[0].Role)
	assert.Equal(t, internal.RoleGirlfriend, view.Players[1].Role)
	assert.Equal(t, internal.RolePotentialPartner, view.Players[2].Role)

	t.Run("lowercase codes resolve", func(t *testing.T) {
		status, _ := call(t, ts, http.MethodPost, "/api/rooms/join", game.JoinRoomRequest{
			UserID: "b", Name: "b", RoomID: " " + strings.ToLower(roomID),
		})
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("fourth player is rejected", func(t *testing.T) {
		status, env := call(t, ts, http.MethodPost, "/api/rooms/join", game.JoinRoomRequest{
			UserID: "d", Name: "dana", RoomID: roomID,
		})
		assert.Equal(t, http.StatusConflict, status)
		assert.NotEmpty(t, errorOf(t, env))
	})

	t.Run("only the admin starts", func(t *testing.T) {
		status, _ := call(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/start", adminRequest{UserID: "b"})
		assert.Equal(t, http.StatusForbidden, status)
	})

	status, env = call(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/start", adminRequest{UserID: "a"})
	require.Equal(t, http.StatusOK, status)
	round := decode[internal.RoundView](t, env)
	require.NotNil(t, round.Round)
	assert.Equal(t, 1, round.Round.RoundNumber)
	assert.Equal(t, internal.ModeGuessMe, round.Round.Mode)
	require.NotNil(t, round.Question)
	assert.Equal(t, internal.ModeGuessMe, round.Question.Type)

	t.Run("strangers cannot act", func(t *testing.T) {
		status, _ := call(t, ts, http.MethodPost, "/api/game-round", actionRequest{
			RoomID: roomID, UserID: "mallory", Type: internal.ActionAnswer, Value: "hi",
		})
		assert.Equal(t, http.StatusForbidden, status)
	})

	for _, id := range []string{"a", "b", "c"} {
		status, env := call(t, ts, http.MethodPost, "/api/game-round", actionRequest{
			RoomID: roomID, UserID: id, Type: internal.ActionAnswer, Value: "answer of " + id,
		})
		require.Equal(t, http.StatusOK, status, errorOf(t, env))
	}

	status, env = call(t, ts, http.MethodGet, "/api/game-round?roomId="+roomID, nil)
	require.Equal(t, http.StatusOK, status)
	current := decode[internal.RoundView](t, env)
	assert.Len(t, current.Round.Answers, 3)
	assert.Equal(t, internal.StatusRevealing, current.Round.Status)
	assert.Len(t, current.Round.RevealOrder, 3)

	t.Run("settings are validated", func(t *testing.T) {
		status, _ := call(t, ts, http.MethodPut, "/api/rooms/"+roomID+"/settings", adminRequest{
			UserID:   "a",
			Settings: internal.GameSettings{TotalRounds: 2, QuestionCategories: []string{"Alltag"}, GameModes: internal.ModeRotation},
		})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	status, env = call(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/play-again", adminRequest{UserID: "a"})
	require.Equal(t, http.StatusOK, status)
	room := decode[internal.Room](t, env)
	assert.Equal(t, internal.GameStateWaiting, room.GameState)
	assert.Zero(t, room.CurrentRound)

	status, env = call(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/kick", adminRequest{UserID: "a", TargetUserID: "c"})
	require.Equal(t, http.StatusOK, status)

	status, env = call(t, ts, http.MethodGet, "/api/rooms/"+roomID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[internal.RoomView](t, env).Players, 2)
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)

	status, env := call(t, ts, http.MethodGet, "/api/rooms/NOPE42", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotContains(t, errorOf(t, env), ": not found")

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/rooms", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	status, _ = call(t, ts, http.MethodPost, "/api/rooms", game.CreateRoomRequest{Name: "alex"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{internal.Errorf(internal.ErrNotFound, "room %s", "X"), http.StatusNotFound},
		{internal.Errorf(internal.ErrForbidden, "admin only"), http.StatusForbidden},
		{internal.Errorf(internal.ErrInvalidInput, "bad value"), http.StatusBadRequest},
		{internal.Errorf(internal.ErrConflict, "room full"), http.StatusConflict},
		{fmt.Errorf("select: %w", internal.ErrExhausted), http.StatusConflict},
		{errors.New("pool closed"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}

	assert.Equal(t, "room full", shortMessage(internal.Errorf(internal.ErrConflict, "room full")))
}

func TestCategories(t *testing.T) {
	ts := newTestServer(t)

	status, env := call(t, ts, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"Alltag"}, decode[map[string][]string](t, env)["categories"])
}

func TestRoomQR(t *testing.T) {
	ts := newTestServer(t)
	roomID := seatTable(t, ts)

	resp, err := ts.Client().Get(ts.URL + "/api/rooms/" + roomID + "/qr")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))

	status, _ := call(t, ts, http.MethodGet, "/api/rooms/NOPE42/qr", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, "https://app.example")

	preflight := func(origin string) *http.Response {
		req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/rooms", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		resp, err := ts.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	resp := preflight("https://app.example")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://app.example", resp.Header.Get("Access-Control-Allow-Origin"))

	resp = preflight("https://evil.example")
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
