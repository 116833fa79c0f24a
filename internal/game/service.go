package game

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/scythe504/triplay-backend/internal"
	"github.com/scythe504/triplay-backend/internal/store"
	"github.com/scythe504/triplay-backend/internal/utils"
)

// maxActionAttempts bounds the optimistic retry loop in SubmitAction.
const maxActionAttempts = 5

// Service runs the game against a Store and announces every change through
// a Notifier.
type Service struct {
	store    store.Store
	notifier Notifier
	selector *Selector
	newID    func() string
	newCode  func() string
}

func NewService(st store.Store, notifier Notifier) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Service{
		store:    st,
		notifier: notifier,
		selector: NewSelector(st),
		newID:    utils.GenerateID,
		newCode:  utils.GenerateRoomCode,
	}
}

// =============================================================================
// ROUND ACTIONS
// =============================================================================

// GetCurrentRound returns the latest round of a room with its question.
func (s *Service) GetCurrentRound(ctx context.Context, roomID string) (*internal.RoundView, error) {
	if roomID == "" {
		return nil, internal.Errorf(internal.ErrInvalidInput, "room id is required")
	}

	round, err := s.store.LatestRound(ctx, roomID)
	if err != nil {
		return nil, err
	}

	view := &internal.RoundView{Round: round}
	question, err := s.store.GetQuestion(ctx, round.QuestionID)
	switch {
	case err == nil:
		view.Question = question
	case errors.Is(err, internal.ErrNotFound):
		log.Printf("[GetCurrentRound] room=%s: question %s of round %d is gone", roomID, round.QuestionID, round.RoundNumber)
	default:
		return nil, err
	}
	return view, nil
}

// SubmitAction folds one player action into the current round. Stale round
// writes are retried on fresh state. Score events are applied only once the
// round write has landed, and a completed round triggers the orchestrator.
func (s *Service) SubmitAction(ctx context.Context, roomID, userID string, action internal.ActionType, value string) (*internal.ActionOutcome, error) {
	if roomID == "" || userID == "" || action == "" {
		return nil, internal.Errorf(internal.ErrInvalidInput, "room id, user id and action type are required")
	}

	// 1. The room must be mid-game and the actor must sit at the table
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.GameState != internal.GameStatePlaying {
		return nil, internal.Errorf(internal.ErrInvalidInput, "game is not in progress (state %s)", room.GameState)
	}
	if _, err := s.store.GetPlayer(ctx, roomID, userID); err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return nil, internal.Errorf(internal.ErrForbidden, "user %s is not a player in room %s", userID, roomID)
		}
		return nil, err
	}

	for attempt := 1; attempt <= maxActionAttempts; attempt++ {
		// 2. Read the freshest round and apply the action to a copy
		round, err := s.store.LatestRound(ctx, roomID)
		if err != nil {
			return nil, err
		}
		question, err := s.store.GetQuestion(ctx, round.QuestionID)
		if err != nil && !errors.Is(err, internal.ErrNotFound) {
			return nil, err
		}

		result, err := ApplyAction(round, question, userID, action, value)
		if err != nil {
			return nil, err
		}

		// 3. Compare-and-swap on the round version
		err = s.store.UpdateRound(ctx, result.Round)
		if errors.Is(err, internal.ErrConflict) {
			log.Printf("[SubmitAction] room=%s: stale round write on attempt %d, retrying", roomID, attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("save round %d: %w", round.RoundNumber, err)
		}

		// 4. Exactly one writer resolved this phase, so score it now
		s.applyScoreEvents(ctx, roomID, result.Events)

		outcome := &internal.ActionOutcome{
			Round:       result.Round,
			Events:      result.Events,
			AutoAdvance: result.AutoAdvance,
		}

		// 5. Hand a completed round to the orchestrator. The action is
		// announced even if that fails, the round write already landed.
		var advanceErr error
		if result.AutoAdvance {
			outcome.Room, advanceErr = s.advanceAfter(ctx, roomID)
			if advanceErr != nil {
				log.Printf("[SubmitAction] room=%s: round %d completed but advancing failed: %v", roomID, round.RoundNumber, advanceErr)
			}
		}

		s.broadcastRoomUpdate(ctx, internal.RoomUpdateData{
			Type:        string(action),
			RoomID:      roomID,
			UserID:      userID,
			RoundNumber: result.Round.RoundNumber,
		})
		if advanceErr != nil {
			return nil, advanceErr
		}
		return outcome, nil
	}

	return nil, internal.Errorf(internal.ErrConflict, "round changed %d times while applying %s, try again", maxActionAttempts, action)
}

func (s *Service) advanceAfter(ctx context.Context, roomID string) (*internal.Room, error) {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Advance(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// applyScoreEvents logs and skips failures. There is no rollback of the
// already persisted round.
func (s *Service) applyScoreEvents(ctx context.Context, roomID string, events []internal.ScoreEvent) {
	for _, ev := range events {
		score, err := s.store.AdjustScore(ctx, roomID, ev.UserID, ev.Delta)
		if err != nil {
			log.Printf("[applyScoreEvents] room=%s: failed to apply %+d (%s) to %s: %v", roomID, ev.Delta, ev.Reason, ev.UserID, err)
			continue
		}
		log.Printf("[applyScoreEvents] room=%s: %s %+d (%s) -> %d", roomID, ev.UserID, ev.Delta, ev.Reason, score)
	}
}
