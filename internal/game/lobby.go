package game

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/scythe504/triplay-backend/internal"
)

// =============================================================================
// LOBBY - ADMIN OPERATIONS
// =============================================================================

// loadAdminRoom fetches the room and checks the caller owns it.
func (s *Service) loadAdminRoom(ctx context.Context, roomID, userID, what string) (*internal.Room, error) {
	if roomID == "" || userID == "" {
		return nil, internal.Errorf(internal.ErrInvalidInput, "room id and user id are required")
	}
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsAdmin(userID) {
		return nil, internal.Errorf(internal.ErrForbidden, "only the admin can %s", what)
	}
	return room, nil
}

// StartGame creates round 1 using the first enabled mode.
func (s *Service) StartGame(ctx context.Context, roomID, userID string) (*internal.RoundView, error) {
	room, err := s.loadAdminRoom(ctx, roomID, userID, "start the game")
	if err != nil {
		return nil, err
	}

	switch room.GameState {
	case internal.GameStatePlaying:
		return nil, internal.Errorf(internal.ErrConflict, "game already in progress")
	case internal.GameStateFinished:
		return nil, internal.Errorf(internal.ErrConflict, "game is finished, reset it before starting again")
	}

	players, err := s.store.ListPlayers(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if len(players) != internal.RequiredPlayerCount {
		return nil, internal.Errorf(internal.ErrInvalidInput, "need exactly %d players, have %d", internal.RequiredPlayerCount, len(players))
	}

	round, err := s.startRound(ctx, room, room.CurrentRound+1, room.FirstMode())
	if err != nil {
		return nil, err
	}

	log.Printf("[StartGame] room=%s: game started by %s with %s", roomID, userID, round.Mode)
	s.broadcastRoomUpdate(ctx, internal.RoomUpdateData{
		Type:        internal.UpdateGameStarted,
		RoomID:      roomID,
		UserID:      userID,
		RoundNumber: round.RoundNumber,
	})
	return s.roundView(ctx, round)
}

// AdvanceRound is the manual advance. It goes through the same orchestrator
// as the automatic one and returns a nil round once the game is over.
func (s *Service) AdvanceRound(ctx context.Context, roomID, userID string) (*internal.RoundView, error) {
	room, err := s.loadAdminRoom(ctx, roomID, userID, "advance the round")
	if err != nil {
		return nil, err
	}
	if room.GameState != internal.GameStatePlaying {
		return nil, internal.Errorf(internal.ErrInvalidInput, "game is not in progress (state %s)", room.GameState)
	}

	round, err := s.Advance(ctx, room)
	if err != nil {
		return nil, err
	}
	if round == nil {
		return &internal.RoundView{}, nil
	}
	return s.roundView(ctx, round)
}

func (s *Service) UpdateSettings(ctx context.Context, roomID, userID string, settings internal.GameSettings) (*internal.Room, error) {
	room, err := s.loadAdminRoom(ctx, roomID, userID, "update settings")
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	// Only the settings column is written. A round may advance meanwhile.
	if err := s.store.UpdateSettings(ctx, room.Id, settings); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	room, err = s.store.GetRoom(ctx, room.Id)
	if err != nil {
		return nil, err
	}

	log.Printf("[UpdateSettings] room=%s: rounds=%d categories=%v modes=%v",
		roomID, settings.TotalRounds, settings.QuestionCategories, settings.GameModes)
	s.broadcastRoomUpdate(ctx, internal.RoomUpdateData{Type: internal.UpdateSettingsUpdated, RoomID: roomID, UserID: userID})
	return room, nil
}

// ResetGame wipes rounds and scores so the same table can play again.
func (s *Service) ResetGame(ctx context.Context, roomID, userID string) (*internal.Room, error) {
	room, err := s.loadAdminRoom(ctx, roomID, userID, "reset the game")
	if err != nil {
		return nil, err
	}

	// Each step is logged and the sequence is not rolled back on failure.
	if err := s.store.DeleteRounds(ctx, roomID); err != nil {
		log.Printf("[ResetGame] room=%s: failed to delete rounds: %v", roomID, err)
		return nil, fmt.Errorf("delete rounds: %w", err)
	}
	if err := s.store.ResetScores(ctx, roomID); err != nil {
		log.Printf("[ResetGame] room=%s: failed to reset scores: %v", roomID, err)
		return nil, fmt.Errorf("reset scores: %w", err)
	}

	room.ResetToLobby()
	if err := s.store.UpdateRoom(ctx, room); err != nil {
		log.Printf("[ResetGame] room=%s: failed to reset room: %v", roomID, err)
		return nil, fmt.Errorf("reset room: %w", err)
	}

	log.Printf("[ResetGame] room=%s: back in the lobby", roomID)
	s.broadcastRoomUpdate(ctx, internal.RoomUpdateData{Type: internal.UpdateResetToLobby, RoomID: roomID, UserID: userID})
	return room, nil
}

// KickPlayer removes a player. A game that drops below a full table goes
// back to the lobby.
func (s *Service) KickPlayer(ctx context.Context, roomID, userID, targetUserID string) (*internal.Room, error) {
	room, err := s.loadAdminRoom(ctx, roomID, userID, "kick players")
	if err != nil {
		return nil, err
	}
	if targetUserID == "" {
		return nil, internal.Errorf(internal.ErrInvalidInput, "target user id is required")
	}
	if targetUserID == userID {
		return nil, internal.Errorf(internal.ErrInvalidInput, "cannot kick yourself")
	}

	if err := s.store.RemovePlayer(ctx, roomID, targetUserID); err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return nil, internal.Errorf(internal.ErrNotFound, "player %s is not in room %s", targetUserID, roomID)
		}
		return nil, err
	}

	players, err := s.store.ListPlayers(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if room.GameState == internal.GameStatePlaying && len(players) < internal.RequiredPlayerCount {
		// Stale rounds would collide with round 1 of the next start.
		if err := s.store.DeleteRounds(ctx, roomID); err != nil {
			log.Printf("[KickPlayer] room=%s: failed to delete rounds: %v", roomID, err)
		}
		room.GameState = internal.GameStateWaiting
		room.CurrentRound = 0
		room.ClearResults()
		if err := s.store.UpdateRoom(ctx, room); err != nil {
			log.Printf("[KickPlayer] room=%s: player removed but room reset failed: %v", roomID, err)
			return nil, fmt.Errorf("reset room: %w", err)
		}
		log.Printf("[KickPlayer] room=%s: %d players left, back to waiting", roomID, len(players))
	}

	log.Printf("[KickPlayer] room=%s: %s kicked by %s", roomID, targetUserID, userID)
	s.broadcastRoomUpdate(ctx, internal.RoomUpdateData{Type: internal.UpdatePlayerKicked, RoomID: roomID, UserID: targetUserID})
	return room, nil
}

func (s *Service) roundView(ctx context.Context, round *internal.GameRound) (*internal.RoundView, error) {
	question, err := s.store.GetQuestion(ctx, round.QuestionID)
	if err != nil {
		return nil, err
	}
	return &internal.RoundView{Round: round, Question: question}, nil
}
