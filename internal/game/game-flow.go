package game

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/scythe504/triplay-backend/internal"
)

// =============================================================================
// GAME FLOW - ROUND ORCHESTRATION
// =============================================================================

// ModeForRound walks the fixed rotation by round number. It does not consult
// the room's enabled modes.
func ModeForRound(roundNumber int) internal.GameMode {
	if roundNumber < 1 {
		roundNumber = 1
	}
	return internal.ModeRotation[(roundNumber-1)%len(internal.ModeRotation)]
}

// Advance moves the room past its current round. It either creates the next
// round or finalizes the game and returns a nil round. room is updated in
// place and persisted.
func (s *Service) Advance(ctx context.Context, room *internal.Room) (*internal.GameRound, error) {
	next := room.CurrentRound + 1
	if next > room.TotalRounds() {
		log.Printf("[Advance] room=%s: round %d exceeds total %d, finishing game", room.Id, next, room.TotalRounds())
		return nil, s.finishGame(ctx, room)
	}

	round, err := s.startRound(ctx, room, next, ModeForRound(next))
	if errors.Is(err, internal.ErrExhausted) {
		log.Printf("[Advance] room=%s: %v, finishing game early", room.Id, err)
		return nil, s.finishGame(ctx, room)
	}
	if err != nil {
		return nil, err
	}

	s.broadcastRoomUpdate(ctx, internal.RoomUpdateData{
		Type:        internal.UpdateNextRound,
		RoomID:      room.Id,
		RoundNumber: round.RoundNumber,
	})
	return round, nil
}

// startRound selects a question, creates the round and records it on the
// room. ErrExhausted is returned untouched and leaves the room unchanged.
func (s *Service) startRound(ctx context.Context, room *internal.Room, number int, mode internal.GameMode) (*internal.GameRound, error) {
	// 1. Pick an unused question
	question, err := s.selector.Select(ctx, mode, room.Categories(), room.UsedQuestionIDs)
	if err != nil {
		return nil, err
	}

	// 2. Dare rounds rotate their target through the table in join order
	dareTarget := ""
	if mode == internal.ModeDare {
		players, err := s.store.ListPlayers(ctx, room.Id)
		if err != nil {
			return nil, fmt.Errorf("list players: %w", err)
		}
		if len(players) >= internal.RequiredPlayerCount {
			dareTarget = players[room.DareRotationIndex%internal.RequiredPlayerCount].UserID
			room.DareRotationIndex = (room.DareRotationIndex + 1) % internal.RequiredPlayerCount
		} else {
			log.Printf("[startRound] room=%s: only %d players, dare round %d has no target", room.Id, len(players), number)
		}
	}

	// 3. Persist the round, then the room fields that move with it
	round := internal.NewRound(s.newID(), room.Id, number, mode, question.Id, dareTarget)
	if err := s.store.CreateRound(ctx, round); err != nil {
		return nil, fmt.Errorf("create round %d: %w", number, err)
	}

	room.UsedQuestionIDs = append(room.UsedQuestionIDs, question.Id)
	room.CurrentRound = number
	room.GameState = internal.GameStatePlaying
	if err := s.store.UpdateRoom(ctx, room); err != nil {
		log.Printf("[startRound] room=%s: round %d created but room update failed: %v", room.Id, number, err)
		return nil, fmt.Errorf("update room: %w", err)
	}

	log.Printf("[startRound] room=%s: round %d mode=%s question=%s dareTarget=%q",
		room.Id, number, mode, question.Id, dareTarget)
	return round, nil
}

// finishGame writes the final standings onto the room.
func (s *Service) finishGame(ctx context.Context, room *internal.Room) error {
	players, err := s.store.ListPlayers(ctx, room.Id)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}

	results := CalculateFinalResults(players)
	room.GameState = internal.GameStateFinished
	room.WinnerUserID = results.WinnerUserID
	room.IsTie = results.IsTie
	room.FinalScores = results.FinalScores

	if err := s.store.UpdateRoom(ctx, room); err != nil {
		return fmt.Errorf("finish game: %w", err)
	}

	winner := ""
	if room.WinnerUserID != nil {
		winner = *room.WinnerUserID
	}
	log.Printf("[finishGame] room=%s: finished after round %d, winner=%s tie=%t", room.Id, room.CurrentRound, winner, room.IsTie)

	s.broadcastRoomUpdate(ctx, internal.RoomUpdateData{
		Type:        internal.UpdateGameFinished,
		RoomID:      room.Id,
		UserID:      winner,
		RoundNumber: room.CurrentRound,
	})
	return nil
}
