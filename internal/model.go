package internal

import (
	"time"
)

const (
	// RequiredPlayerCount is the fixed table size. Every "all submitted"
	// threshold compares against it, never against the live player count.
	RequiredPlayerCount = 3

	DefaultTotalRounds = 9
	MinTotalRounds     = 3
	MaxTotalRounds     = 30

	RoomCodeLength = 6
)

type GameState string

const (
	GameStateWaiting  GameState = "waiting"
	GameStatePlaying  GameState = "playing"
	GameStateFinished GameState = "finished"
)

type GameMode string

const (
	ModeGuessMe        GameMode = "guess_me"
	ModeWouldYouRather GameMode = "would_you_rather"
	ModeDare           GameMode = "dare"
)

// ModeRotation is the round-robin the orchestrator walks by round number.
var ModeRotation = []GameMode{ModeGuessMe, ModeWouldYouRather, ModeDare}

func (m GameMode) Valid() bool {
	switch m {
	case ModeGuessMe, ModeWouldYouRather, ModeDare:
		return true
	}
	return false
}

type RoundStatus string

const (
	StatusAnswering RoundStatus = "answering"
	StatusGuessing  RoundStatus = "guessing"
	StatusRevealing RoundStatus = "revealing"
	StatusContinue  RoundStatus = "continue"
	StatusCompleted RoundStatus = "completed"
)

type ActionType string

const (
	ActionAnswer     ActionType = "answer"
	ActionGuess      ActionType = "guess"
	ActionVote       ActionType = "vote"
	ActionDareResult ActionType = "dare_result"
	ActionContinue   ActionType = "continue"
)

const (
	DareCompleted = "completed"
	DareDeclined  = "declined"
)

type PlayerRole string

const (
	RoleYou              PlayerRole = "you"
	RoleGirlfriend       PlayerRole = "girlfriend"
	RolePotentialPartner PlayerRole = "potential_partner"
)

// RoleOrder is the priority in which free roles are handed out on join.
var RoleOrder = []PlayerRole{RoleYou, RoleGirlfriend, RolePotentialPartner}

// DefaultCategories seeds new rooms until the admin picks their own.
var DefaultCategories = []string{
	"Alltag",
	"Spaß",
	"Persönlich",
	"Reisen",
	"Mutprobe",
	"Fitness",
	"Lifestyle",
}

type GameSettings struct {
	TotalRounds        int        `json:"totalRounds"`
	QuestionCategories []string   `json:"questionCategories"`
	GameModes          []GameMode `json:"gameModes"`
}

type FinalScore struct {
	UserID string `json:"user_id"`
	Score  int    `json:"score"`
}

type Room struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	AdminUserID string `json:"admin_user_id"`
	IsPermanent bool   `json:"is_permanent"`

	// Game State
	GameState         GameState    `json:"game_state"`
	CurrentRound      int          `json:"current_round"`
	Settings          GameSettings `json:"game_settings"`
	UsedQuestionIDs   []string     `json:"used_question_ids"`
	DareRotationIndex int          `json:"dare_rotation_index"`

	// Set once the game is finished
	WinnerUserID *string      `json:"winner_user_id,omitempty"`
	IsTie        bool         `json:"is_tie"`
	FinalScores  []FinalScore `json:"final_scores,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Player struct {
	UserID   string     `json:"user_id"`
	RoomID   string     `json:"room_id"`
	Name     string     `json:"name"`
	Avatar   string     `json:"avatar"`
	Role     PlayerRole `json:"role"`
	Score    int        `json:"score"`
	JoinedAt time.Time  `json:"joined_at"`
}

type Question struct {
	Id        string    `json:"id"`
	Text      string    `json:"text"`
	Type      GameMode  `json:"type"`
	Category  string    `json:"category"`
	Options   []string  `json:"options,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type GameRound struct {
	Id               string      `json:"id"`
	RoomID           string      `json:"room_id"`
	RoundNumber      int         `json:"round_number"`
	Mode             GameMode    `json:"mode"`
	QuestionID       string      `json:"question_id"`
	DareTargetUserID string      `json:"dare_target_user_id,omitempty"`
	Status           RoundStatus `json:"status"`

	// Player submissions
	Answers       map[string]string         `json:"answers"`
	Guesses       map[string]string         `json:"guesses"`
	RevealGuesses map[int]map[string]string `json:"reveal_guesses"`

	// guess_me reveal loop
	RevealOrder []string `json:"reveal_order,omitempty"`
	RevealIndex int      `json:"reveal_index"`

	// Players that pressed continue in the current phase
	ContinueAcks map[string]bool `json:"continue_acks"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScoreEvent is a point delta produced when a phase resolves.
type ScoreEvent struct {
	UserID string `json:"user_id"`
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

type Response struct {
	StatusCode    int   `json:"status_code"`
	RespStartTime int64 `json:"resp_time_start_ms"`
	RespEndTime   int64 `json:"resp_time_end_ms"`
	NetRespTime   int64 `json:"net_resp_time_ms"`
	Data          any   `json:"data"`
}
