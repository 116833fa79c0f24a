package internal

import (
	"maps"
	"slices"
	"time"
)

// NewRound builds a fresh round in the answering phase.
func NewRound(id, roomID string, number int, mode GameMode, questionID, dareTarget string) *GameRound {
	now := time.Now().UTC()
	return &GameRound{
		Id:               id,
		RoomID:           roomID,
		RoundNumber:      number,
		Mode:             mode,
		QuestionID:       questionID,
		DareTargetUserID: dareTarget,
		Status:           StatusAnswering,
		Answers:          map[string]string{},
		Guesses:          map[string]string{},
		RevealGuesses:    map[int]map[string]string{},
		ContinueAcks:     map[string]bool{},
		RevealIndex:      0,
		Version:          0,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Clone deep-copies every map and slice so the copy can be mutated freely.
func (r *GameRound) Clone() *GameRound {
	c := *r
	c.Answers = cloneMap(r.Answers)
	c.Guesses = cloneMap(r.Guesses)
	c.ContinueAcks = cloneMap(r.ContinueAcks)
	c.RevealOrder = slices.Clone(r.RevealOrder)
	c.RevealGuesses = make(map[int]map[string]string, len(r.RevealGuesses))
	for idx, guesses := range r.RevealGuesses {
		c.RevealGuesses[idx] = cloneMap(guesses)
	}
	return &c
}

// RevealTarget is the author whose answer is currently on display.
func (r *GameRound) RevealTarget() string {
	if r.RevealIndex < 0 || r.RevealIndex >= len(r.RevealOrder) {
		return ""
	}
	return r.RevealOrder[r.RevealIndex]
}

func (r *GameRound) ClearAcks() {
	r.ContinueAcks = map[string]bool{}
}

func (r *GameRound) IsFinished() bool {
	return r.Status == StatusCompleted
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return map[K]V{}
	}
	return maps.Clone(m)
}
