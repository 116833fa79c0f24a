package internal

type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// EventRoomUpdate is the single event clients subscribe to. The payload type
// says what changed so the client can decide what to refetch.
const EventRoomUpdate = "room_update"

const (
	UpdatePlayerJoined    = "player_joined"
	UpdatePlayerKicked    = "player_kicked"
	UpdateGameStarted     = "game_started"
	UpdateNextRound       = "next_round"
	UpdateSettingsUpdated = "settings_updated"
	UpdateResetToLobby    = "game_reset_to_lobby"
	UpdateGameFinished    = "game_finished"
)

type RoomUpdateData struct {
	Type        string  `json:"type"`
	RoomID      string  `json:"room_id"`
	UserID      string  `json:"user_id,omitempty"`
	RoundNumber int     `json:"round_number,omitempty"`
	Player      *Player `json:"player,omitempty"`
}

type RoomView struct {
	Room    *Room     `json:"room"`
	Players []*Player `json:"players"`
}

type RoundView struct {
	Round    *GameRound `json:"round"`
	Question *Question  `json:"question,omitempty"`
}

type ActionOutcome struct {
	Round       *GameRound   `json:"round"`
	Events      []ScoreEvent `json:"score_events"`
	AutoAdvance bool         `json:"auto_advance"`
	Room        *Room        `json:"room,omitempty"`
}
