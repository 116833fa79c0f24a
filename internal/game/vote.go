package game

import "github.com/scythe504/triplay-backend/internal"

// applyVote records a would_you_rather prediction of the majority answer.
func applyVote(round *internal.GameRound, actorID, value string) error {
	if round.Mode != internal.ModeWouldYouRather {
		return internal.Errorf(internal.ErrInvalidInput, "vote is not valid in %s", round.Mode)
	}
	if round.Status != internal.StatusGuessing {
		return internal.Errorf(internal.ErrInvalidInput, "votes are closed (status %s)", round.Status)
	}

	round.Guesses[actorID] = value
	if len(round.Guesses) >= internal.RequiredPlayerCount {
		round.Status = internal.StatusRevealing
		round.ClearAcks()
	}
	return nil
}
