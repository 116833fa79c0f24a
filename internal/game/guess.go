package game

import (
	"slices"

	"github.com/scythe504/triplay-backend/internal"
)

// =============================================================================
// GUESS ME - REVEAL LOOP
// =============================================================================

// startReveal fixes the reveal order once per round. Answers are revealed
// one author at a time, the other two players guess who wrote it.
func startReveal(round *internal.GameRound) {
	authors := make([]string, 0, len(round.Answers))
	for userID := range round.Answers {
		authors = append(authors, userID)
	}
	slices.Sort(authors)
	shuffle(authors)

	round.RevealOrder = authors
	round.RevealIndex = 0
	round.Status = internal.StatusRevealing
}

// applyRevealGuess stores a guess about who wrote the answer on display.
func applyRevealGuess(round *internal.GameRound, actorID, value string) error {
	if round.Mode != internal.ModeGuessMe {
		return internal.Errorf(internal.ErrInvalidInput, "guess is not valid in %s", round.Mode)
	}
	if round.Status != internal.StatusRevealing {
		return internal.Errorf(internal.ErrInvalidInput, "guesses are closed (status %s)", round.Status)
	}

	author := round.RevealTarget()
	if actorID == author {
		return internal.Errorf(internal.ErrForbidden, "author cannot guess their own answer")
	}
	if !slices.Contains(round.RevealOrder, value) {
		return internal.Errorf(internal.ErrInvalidInput, "%q is not one of the players who answered", value)
	}

	guesses := round.RevealGuesses[round.RevealIndex]
	if guesses == nil {
		guesses = map[string]string{}
		round.RevealGuesses[round.RevealIndex] = guesses
	}
	guesses[actorID] = value

	guessers := 0
	for guesser := range guesses {
		if guesser != author {
			guessers++
		}
	}
	if guessers >= internal.RequiredPlayerCount-1 {
		round.Status = internal.StatusContinue
		round.ClearAcks()
	}
	return nil
}
