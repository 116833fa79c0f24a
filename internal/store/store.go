package store

import (
	"context"

	"github.com/scythe504/triplay-backend/internal"
)

// Store is the persistent record store for rooms, players, questions and
// rounds. Lookups of missing records return internal.ErrNotFound.
type Store interface {
	CreateRoom(ctx context.Context, room *internal.Room) error
	GetRoom(ctx context.Context, roomID string) (*internal.Room, error)
	// UpdateRoom is last-write-wins.
	UpdateRoom(ctx context.Context, room *internal.Room) error
	// UpdateSettings writes only the settings, leaving game progress alone.
	UpdateSettings(ctx context.Context, roomID string, settings internal.GameSettings) error

	// ListPlayers returns the players of a room in join order.
	ListPlayers(ctx context.Context, roomID string) ([]*internal.Player, error)
	GetPlayer(ctx context.Context, roomID, userID string) (*internal.Player, error)
	AddPlayer(ctx context.Context, player *internal.Player) error
	RemovePlayer(ctx context.Context, roomID, userID string) error
	// AdjustScore adds delta atomically and clamps the result at zero.
	AdjustScore(ctx context.Context, roomID, userID string, delta int) (int, error)
	ResetScores(ctx context.Context, roomID string) error

	// LatestRound returns the round with the highest round number.
	LatestRound(ctx context.Context, roomID string) (*internal.GameRound, error)
	// CreateRound fails with internal.ErrConflict when the round number is taken.
	CreateRound(ctx context.Context, round *internal.GameRound) error
	// UpdateRound only writes if the stored version still equals round.Version,
	// then bumps the version on both sides. A stale write is internal.ErrConflict.
	UpdateRound(ctx context.Context, round *internal.GameRound) error
	DeleteRounds(ctx context.Context, roomID string) error

	GetQuestion(ctx context.Context, questionID string) (*internal.Question, error)
	FindQuestions(ctx context.Context, mode internal.GameMode, categories []string) ([]*internal.Question, error)
	ListCategories(ctx context.Context) ([]string, error)
	AddQuestions(ctx context.Context, questions []*internal.Question) (int, error)

	Close()
}
