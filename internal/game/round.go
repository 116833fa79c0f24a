package game

import (
	"log"
	"math/rand"
	"time"

	"github.com/scythe504/triplay-backend/internal"
)

// =============================================================================
// ROUND STATE MACHINE
// =============================================================================

// ActionResult is the outcome of folding one action into a round.
type ActionResult struct {
	Round       *internal.GameRound
	Events      []internal.ScoreEvent
	AutoAdvance bool
}

// shuffle permutes ids in place. Replaced in tests that need a fixed order.
var shuffle = func(ids []string) {
	for i := len(ids) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}

// ApplyAction validates an action against the round's mode and phase and
// returns an updated copy. The input round is never mutated. question may be
// nil; it is only consulted for logging.
func ApplyAction(round *internal.GameRound, question *internal.Question, actorID string, action internal.ActionType, value string) (*ActionResult, error) {
	// 1. Reject anything that cannot apply to any phase
	if round == nil {
		return nil, internal.Errorf(internal.ErrNotFound, "no game round")
	}
	if actorID == "" {
		return nil, internal.Errorf(internal.ErrInvalidInput, "user id is required")
	}
	if value == "" && action != internal.ActionContinue {
		return nil, internal.Errorf(internal.ErrInvalidInput, "%s requires a value", action)
	}
	if round.IsFinished() {
		return nil, internal.Errorf(internal.ErrInvalidInput, "round %d is already completed", round.RoundNumber)
	}

	// 2. Work on a copy so a rejected action leaves no trace
	next := round.Clone()
	result := &ActionResult{Round: next}

	// 3. Dispatch by action type
	var err error
	switch action {
	case internal.ActionAnswer:
		err = applyAnswer(next, actorID, value)
	case internal.ActionGuess:
		if next.Mode == internal.ModeWouldYouRather {
			// clients send the majority prediction as a guess
			err = applyVote(next, actorID, value)
		} else {
			err = applyRevealGuess(next, actorID, value)
		}
	case internal.ActionVote:
		err = applyVote(next, actorID, value)
	case internal.ActionDareResult:
		err = applyDareResult(next, actorID, value)
	case internal.ActionContinue:
		err = applyContinue(next, actorID, result)
	default:
		err = internal.Errorf(internal.ErrInvalidInput, "unknown action %q", action)
	}
	if err != nil {
		return nil, err
	}

	next.UpdatedAt = time.Now().UTC()

	questionID := next.QuestionID
	if question != nil {
		questionID = question.Id
	}
	log.Printf("[ApplyAction] room=%s round=%d question=%s: %s by %s -> status=%s autoAdvance=%t",
		next.RoomID, next.RoundNumber, questionID, action, actorID, next.Status, result.AutoAdvance)
	return result, nil
}

// applyAnswer records or overwrites the actor's answer. The third distinct
// answer moves the round out of the answering phase.
func applyAnswer(round *internal.GameRound, actorID, value string) error {
	if round.Status != internal.StatusAnswering {
		return internal.Errorf(internal.ErrInvalidInput, "answers are closed (status %s)", round.Status)
	}

	round.Answers[actorID] = value
	if len(round.Answers) < internal.RequiredPlayerCount {
		return nil
	}

	switch round.Mode {
	case internal.ModeGuessMe:
		startReveal(round)
	case internal.ModeWouldYouRather:
		round.Status = internal.StatusGuessing
	case internal.ModeDare:
		round.Status = internal.StatusRevealing
	}
	round.ClearAcks()
	return nil
}

// applyContinue collects acknowledgements. Once everybody pressed continue
// the phase is scored and the round either loops or completes.
func applyContinue(round *internal.GameRound, actorID string, result *ActionResult) error {
	if !canContinue(round) {
		return internal.Errorf(internal.ErrInvalidInput, "nothing to continue in %s/%s", round.Mode, round.Status)
	}

	round.ContinueAcks[actorID] = true
	if len(round.ContinueAcks) < internal.RequiredPlayerCount {
		return nil
	}

	switch round.Mode {
	case internal.ModeGuessMe:
		result.Events = ScoreReveal(round)
		if round.RevealIndex+1 < len(round.RevealOrder) {
			round.RevealIndex++
			round.Status = internal.StatusRevealing
			round.ClearAcks()
			return nil
		}
	case internal.ModeWouldYouRather:
		result.Events = ScoreWouldYouRather(round)
	case internal.ModeDare:
		result.Events = ScoreDare(round)
	}

	round.Status = internal.StatusCompleted
	result.AutoAdvance = true
	return nil
}

func canContinue(round *internal.GameRound) bool {
	switch round.Mode {
	case internal.ModeGuessMe:
		return round.Status == internal.StatusContinue
	case internal.ModeWouldYouRather, internal.ModeDare:
		return round.Status == internal.StatusRevealing
	}
	return false
}
