package game

import (
	"slices"

	"github.com/scythe504/triplay-backend/internal"
)

const (
	PointsCorrectGuess  = 2
	PointsMajorityVote  = 3
	PointsDareCompleted = 5
	PointsDareDeclined  = -2
	ReasonCorrectGuess  = "guess_me_correct"
	ReasonMajorityVote  = "would_you_rather_majority"
	ReasonDareCompleted = "dare_completed"
	ReasonDareDeclined  = "dare_declined"
)

// =============================================================================
// SCORING
// =============================================================================

// ScoreReveal awards every guesser who named the author on display.
func ScoreReveal(round *internal.GameRound) []internal.ScoreEvent {
	author := round.RevealTarget()
	if author == "" {
		return nil
	}

	var events []internal.ScoreEvent
	for _, guesser := range sortedKeys(round.RevealGuesses[round.RevealIndex]) {
		if round.RevealGuesses[round.RevealIndex][guesser] == author {
			events = append(events, internal.ScoreEvent{UserID: guesser, Delta: PointsCorrectGuess, Reason: ReasonCorrectGuess})
		}
	}
	return events
}

// ScoreWouldYouRather awards every player who predicted the majority answer.
// A tie for first place means there is no majority.
func ScoreWouldYouRather(round *internal.GameRound) []internal.ScoreEvent {
	majority, ok := MajorityAnswer(round.Answers)
	if !ok {
		return nil
	}

	var events []internal.ScoreEvent
	for _, userID := range sortedKeys(round.Guesses) {
		if round.Guesses[userID] == majority {
			events = append(events, internal.ScoreEvent{UserID: userID, Delta: PointsMajorityVote, Reason: ReasonMajorityVote})
		}
	}
	return events
}

// MajorityAnswer returns the value with strictly the most votes.
func MajorityAnswer(answers map[string]string) (string, bool) {
	tally := make(map[string]int, len(answers))
	for _, value := range answers {
		tally[value]++
	}

	best, bestCount, tied := "", 0, false
	for value, count := range tally {
		switch {
		case count > bestCount:
			best, bestCount, tied = value, count, false
		case count == bestCount:
			tied = true
		}
	}
	if bestCount == 0 || tied {
		return "", false
	}
	return best, true
}

// ScoreDare rewards a completed dare and penalises a declined one. The store
// clamps the penalty at zero.
func ScoreDare(round *internal.GameRound) []internal.ScoreEvent {
	target := round.DareTargetUserID
	if target == "" {
		return nil
	}

	switch round.Answers[target] {
	case internal.DareCompleted:
		return []internal.ScoreEvent{{UserID: target, Delta: PointsDareCompleted, Reason: ReasonDareCompleted}}
	case internal.DareDeclined:
		return []internal.ScoreEvent{{UserID: target, Delta: PointsDareDeclined, Reason: ReasonDareDeclined}}
	}
	return nil
}

// =============================================================================
// FINAL RESULTS
// =============================================================================

// Standings is the end-of-game summary written onto the room.
type Standings struct {
	WinnerUserID *string
	IsTie        bool
	FinalScores  []internal.FinalScore
}

// CalculateFinalResults ranks players by score. players must be in join
// order, which breaks ties.
func CalculateFinalResults(players []*internal.Player) Standings {
	// 1. Sort by score descending
	ranked := internal.SortByStanding(players)

	// 2. Flatten into the persisted leaderboard
	results := Standings{FinalScores: make([]internal.FinalScore, 0, len(ranked))}
	for _, p := range ranked {
		results.FinalScores = append(results.FinalScores, internal.FinalScore{UserID: p.UserID, Score: p.Score})
	}

	// 3. Winner is first, a tie means second place has the same score
	if len(ranked) > 0 {
		winner := ranked[0].UserID
		results.WinnerUserID = &winner
	}
	if len(ranked) > 1 {
		results.IsTie = ranked[0].Score == ranked[1].Score
	}
	return results
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
