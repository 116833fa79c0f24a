package game

import "github.com/scythe504/triplay-backend/internal"

// applyDareResult lets the dare target report how the dare went.
func applyDareResult(round *internal.GameRound, actorID, value string) error {
	if round.Mode != internal.ModeDare {
		return internal.Errorf(internal.ErrInvalidInput, "dare_result is not valid in %s", round.Mode)
	}
	if round.Status != internal.StatusAnswering {
		return internal.Errorf(internal.ErrInvalidInput, "dare already resolved (status %s)", round.Status)
	}
	if round.DareTargetUserID == "" || actorID != round.DareTargetUserID {
		return internal.Errorf(internal.ErrForbidden, "only the dare target can report the result")
	}
	if value != internal.DareCompleted && value != internal.DareDeclined {
		return internal.Errorf(internal.ErrInvalidInput, "dare result must be %q or %q", internal.DareCompleted, internal.DareDeclined)
	}

	round.Answers[actorID] = value
	round.Status = internal.StatusRevealing
	round.ClearAcks()
	return nil
}
