package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/scythe504/triplay-backend/internal"
)

// Memory keeps everything in process. Used by tests and by --store=memory.
type Memory struct {
	mu        sync.RWMutex
	rooms     map[string]*internal.Room
	players   map[string][]*internal.Player
	rounds    map[string][]*internal.GameRound
	questions []*internal.Question
}

func NewMemory() *Memory {
	return &Memory{
		rooms:   make(map[string]*internal.Room),
		players: make(map[string][]*internal.Player),
		rounds:  make(map[string][]*internal.GameRound),
	}
}

// =============================================================================
// ROOMS
// =============================================================================

func (m *Memory) CreateRoom(_ context.Context, room *internal.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rooms[room.Id]; exists {
		return internal.Errorf(internal.ErrConflict, "room %s already exists", room.Id)
	}
	now := time.Now().UTC()
	room.CreatedAt, room.UpdatedAt = now, now
	m.rooms[room.Id] = copyRoom(room)
	return nil
}

func (m *Memory) GetRoom(_ context.Context, roomID string) (*internal.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return nil, internal.Errorf(internal.ErrNotFound, "room %s", roomID)
	}
	return copyRoom(room), nil
}

func (m *Memory) UpdateRoom(_ context.Context, room *internal.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[room.Id]; !ok {
		return internal.Errorf(internal.ErrNotFound, "room %s", room.Id)
	}
	room.UpdatedAt = time.Now().UTC()
	m.rooms[room.Id] = copyRoom(room)
	return nil
}

func (m *Memory) UpdateSettings(_ context.Context, roomID string, settings internal.GameSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return internal.Errorf(internal.ErrNotFound, "room %s", roomID)
	}
	room.Settings = internal.GameSettings{
		TotalRounds:        settings.TotalRounds,
		QuestionCategories: slices.Clone(settings.QuestionCategories),
		GameModes:          slices.Clone(settings.GameModes),
	}
	room.UpdatedAt = time.Now().UTC()
	return nil
}

// =============================================================================
// PLAYERS
// =============================================================================

func (m *Memory) ListPlayers(_ context.Context, roomID string) ([]*internal.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	players := make([]*internal.Player, 0, len(m.players[roomID]))
	for _, p := range m.players[roomID] {
		cp := *p
		players = append(players, &cp)
	}
	return players, nil
}

func (m *Memory) GetPlayer(_ context.Context, roomID, userID string) (*internal.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p := internal.FindPlayer(m.players[roomID], userID)
	if p == nil {
		return nil, internal.Errorf(internal.ErrNotFound, "player %s in room %s", userID, roomID)
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) AddPlayer(_ context.Context, player *internal.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if internal.FindPlayer(m.players[player.RoomID], player.UserID) != nil {
		return internal.Errorf(internal.ErrConflict, "player %s already in room %s", player.UserID, player.RoomID)
	}
	if player.JoinedAt.IsZero() {
		player.JoinedAt = time.Now().UTC()
	}
	cp := *player
	m.players[player.RoomID] = append(m.players[player.RoomID], &cp)
	return nil
}

func (m *Memory) RemovePlayer(_ context.Context, roomID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.players[roomID])
	m.players[roomID] = slices.DeleteFunc(m.players[roomID], func(p *internal.Player) bool {
		return p.UserID == userID
	})
	if len(m.players[roomID]) == before {
		return internal.Errorf(internal.ErrNotFound, "player %s in room %s", userID, roomID)
	}
	return nil
}

func (m *Memory) AdjustScore(_ context.Context, roomID, userID string, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := internal.FindPlayer(m.players[roomID], userID)
	if p == nil {
		return 0, internal.Errorf(internal.ErrNotFound, "player %s in room %s", userID, roomID)
	}
	p.Score = max(p.Score+delta, 0)
	return p.Score, nil
}

func (m *Memory) ResetScores(_ context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.players[roomID] {
		p.Score = 0
	}
	return nil
}

// =============================================================================
// ROUNDS
// =============================================================================

func (m *Memory) LatestRound(_ context.Context, roomID string) (*internal.GameRound, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *internal.GameRound
	for _, r := range m.rounds[roomID] {
		if latest == nil || r.RoundNumber > latest.RoundNumber {
			latest = r
		}
	}
	if latest == nil {
		return nil, internal.Errorf(internal.ErrNotFound, "no game round for room %s", roomID)
	}
	return latest.Clone(), nil
}

func (m *Memory) CreateRound(_ context.Context, round *internal.GameRound) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.rounds[round.RoomID] {
		if r.RoundNumber == round.RoundNumber {
			return internal.Errorf(internal.ErrConflict, "round %d already exists in room %s", round.RoundNumber, round.RoomID)
		}
	}
	m.rounds[round.RoomID] = append(m.rounds[round.RoomID], round.Clone())
	return nil
}

func (m *Memory) UpdateRound(_ context.Context, round *internal.GameRound) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.rounds[round.RoomID] {
		if r.Id != round.Id {
			continue
		}
		if r.Version != round.Version {
			return internal.Errorf(internal.ErrConflict, "round %s was modified (version %d, have %d)", round.Id, r.Version, round.Version)
		}
		round.Version++
		round.UpdatedAt = time.Now().UTC()
		m.rounds[round.RoomID][i] = round.Clone()
		return nil
	}
	return internal.Errorf(internal.ErrNotFound, "round %s", round.Id)
}

func (m *Memory) DeleteRounds(_ context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.rounds, roomID)
	return nil
}

// =============================================================================
// QUESTIONS
// =============================================================================

func (m *Memory) GetQuestion(_ context.Context, questionID string) (*internal.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, q := range m.questions {
		if q.Id == questionID {
			cp := *q
			return &cp, nil
		}
	}
	return nil, internal.Errorf(internal.ErrNotFound, "question %s", questionID)
}

func (m *Memory) FindQuestions(_ context.Context, mode internal.GameMode, categories []string) ([]*internal.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found []*internal.Question
	for _, q := range m.questions {
		if q.Type == mode && slices.Contains(categories, q.Category) {
			cp := *q
			found = append(found, &cp)
		}
	}
	return found, nil
}

func (m *Memory) ListCategories(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	categories := []string{}
	for _, q := range m.questions {
		if q.Category == "" || seen[q.Category] {
			continue
		}
		seen[q.Category] = true
		categories = append(categories, q.Category)
	}
	sort.Strings(categories)
	return categories, nil
}

func (m *Memory) AddQuestions(_ context.Context, questions []*internal.Question) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, q := range questions {
		exists := slices.ContainsFunc(m.questions, func(existing *internal.Question) bool {
			return existing.Id == q.Id
		})
		if exists {
			continue
		}
		cp := *q
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = time.Now().UTC()
		}
		m.questions = append(m.questions, &cp)
		added++
	}
	return added, nil
}

func (m *Memory) Close() {}

func copyRoom(r *internal.Room) *internal.Room {
	cp := *r
	cp.UsedQuestionIDs = slices.Clone(r.UsedQuestionIDs)
	cp.FinalScores = slices.Clone(r.FinalScores)
	cp.Settings.QuestionCategories = slices.Clone(r.Settings.QuestionCategories)
	cp.Settings.GameModes = slices.Clone(r.Settings.GameModes)
	if r.WinnerUserID != nil {
		w := *r.WinnerUserID
		cp.WinnerUserID = &w
	}
	return &cp
}
