package internal

import "slices"

// Methods (Room Struct)

func DefaultSettings() GameSettings {
	return GameSettings{
		TotalRounds:        DefaultTotalRounds,
		QuestionCategories: slices.Clone(DefaultCategories),
		GameModes:          slices.Clone(ModeRotation),
	}
}

func (r *Room) IsAdmin(userID string) bool {
	return userID != "" && r.AdminUserID == userID
}

// TotalRounds falls back to the default when settings were never saved.
func (r *Room) TotalRounds() int {
	if r.Settings.TotalRounds <= 0 {
		return DefaultTotalRounds
	}
	return r.Settings.TotalRounds
}

func (r *Room) Categories() []string {
	if len(r.Settings.QuestionCategories) == 0 {
		return DefaultCategories
	}
	return r.Settings.QuestionCategories
}

func (r *Room) FirstMode() GameMode {
	if len(r.Settings.GameModes) == 0 {
		return ModeRotation[0]
	}
	return r.Settings.GameModes[0]
}

func (r *Room) ClearResults() {
	r.WinnerUserID = nil
	r.IsTie = false
	r.FinalScores = nil
}

// ResetToLobby returns the room to its pre-game state for a replay.
func (r *Room) ResetToLobby() {
	r.GameState = GameStateWaiting
	r.CurrentRound = 0
	r.UsedQuestionIDs = []string{}
	r.DareRotationIndex = 0
	r.ClearResults()
}

func (s GameSettings) Validate() error {
	if s.TotalRounds < MinTotalRounds || s.TotalRounds > MaxTotalRounds {
		return Errorf(ErrInvalidInput, "total rounds must be between %d and %d", MinTotalRounds, MaxTotalRounds)
	}
	if len(s.QuestionCategories) == 0 {
		return Errorf(ErrInvalidInput, "at least one question category must be selected")
	}
	if len(s.GameModes) == 0 {
		return Errorf(ErrInvalidInput, "at least one game mode must be selected")
	}
	for _, m := range s.GameModes {
		if !m.Valid() {
			return Errorf(ErrInvalidInput, "unknown game mode %q", m)
		}
	}
	return nil
}
