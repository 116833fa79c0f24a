package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scythe504/triplay-backend/internal"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects, pings and applies the schema.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	log.Println("[NewPostgres] connected and schema applied")
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

// =============================================================================
// ROOMS
// =============================================================================

const roomColumns = `id, name, admin_user_id, is_permanent, game_state, current_round,
	game_settings, used_question_ids, dare_rotation_index, winner_user_id, is_tie,
	final_scores, created_at, updated_at`

func (p *Postgres) CreateRoom(ctx context.Context, room *internal.Room) error {
	now := time.Now().UTC()
	room.CreatedAt, room.UpdatedAt = now, now
	if room.UsedQuestionIDs == nil {
		room.UsedQuestionIDs = []string{}
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO rooms (`+roomColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		room.Id, room.Name, room.AdminUserID, room.IsPermanent, room.GameState, room.CurrentRound,
		room.Settings, room.UsedQuestionIDs, room.DareRotationIndex, room.WinnerUserID, room.IsTie,
		room.FinalScores, room.CreatedAt, room.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return internal.Errorf(internal.ErrConflict, "room %s already exists", room.Id)
	}
	if err != nil {
		return fmt.Errorf("insert room %s: %w", room.Id, err)
	}
	return nil
}

func (p *Postgres) GetRoom(ctx context.Context, roomID string) (*internal.Room, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, roomID)

	var room internal.Room
	err := row.Scan(
		&room.Id, &room.Name, &room.AdminUserID, &room.IsPermanent, &room.GameState, &room.CurrentRound,
		&room.Settings, &room.UsedQuestionIDs, &room.DareRotationIndex, &room.WinnerUserID, &room.IsTie,
		&room.FinalScores, &room.CreatedAt, &room.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, internal.Errorf(internal.ErrNotFound, "room %s", roomID)
	}
	if err != nil {
		return nil, fmt.Errorf("select room %s: %w", roomID, err)
	}
	return &room, nil
}

func (p *Postgres) UpdateRoom(ctx context.Context, room *internal.Room) error {
	room.UpdatedAt = time.Now().UTC()
	if room.UsedQuestionIDs == nil {
		room.UsedQuestionIDs = []string{}
	}

	tag, err := p.pool.Exec(ctx, `
		UPDATE rooms SET
			name = $2, admin_user_id = $3, is_permanent = $4, game_state = $5, current_round = $6,
			game_settings = $7, used_question_ids = $8, dare_rotation_index = $9,
			winner_user_id = $10, is_tie = $11, final_scores = $12, updated_at = $13
		WHERE id = $1`,
		room.Id, room.Name, room.AdminUserID, room.IsPermanent, room.GameState, room.CurrentRound,
		room.Settings, room.UsedQuestionIDs, room.DareRotationIndex,
		room.WinnerUserID, room.IsTie, room.FinalScores, room.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update room %s: %w", room.Id, err)
	}
	if tag.RowsAffected() == 0 {
		return internal.Errorf(internal.ErrNotFound, "room %s", room.Id)
	}
	return nil
}

func (p *Postgres) UpdateSettings(ctx context.Context, roomID string, settings internal.GameSettings) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE rooms SET game_settings = $2, updated_at = $3 WHERE id = $1`,
		roomID, settings, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update settings of room %s: %w", roomID, err)
	}
	if tag.RowsAffected() == 0 {
		return internal.Errorf(internal.ErrNotFound, "room %s", roomID)
	}
	return nil
}

// =============================================================================
// PLAYERS
// =============================================================================

const playerColumns = `user_id, room_id, name, avatar, role, score, joined_at`

func scanPlayer(row pgx.Row) (*internal.Player, error) {
	var player internal.Player
	err := row.Scan(&player.UserID, &player.RoomID, &player.Name, &player.Avatar, &player.Role, &player.Score, &player.JoinedAt)
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (p *Postgres) ListPlayers(ctx context.Context, roomID string) ([]*internal.Player, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE room_id = $1
		ORDER BY joined_at ASC, user_id ASC`, roomID)
	if err != nil {
		return nil, fmt.Errorf("select players of room %s: %w", roomID, err)
	}
	defer rows.Close()

	players := []*internal.Player{}
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, player)
	}
	return players, rows.Err()
}

func (p *Postgres) GetPlayer(ctx context.Context, roomID, userID string) (*internal.Player, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE room_id = $1 AND user_id = $2`, roomID, userID)
	player, err := scanPlayer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, internal.Errorf(internal.ErrNotFound, "player %s in room %s", userID, roomID)
	}
	if err != nil {
		return nil, fmt.Errorf("select player %s: %w", userID, err)
	}
	return player, nil
}

func (p *Postgres) AddPlayer(ctx context.Context, player *internal.Player) error {
	if player.JoinedAt.IsZero() {
		player.JoinedAt = time.Now().UTC()
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO players (`+playerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		player.UserID, player.RoomID, player.Name, player.Avatar, player.Role, player.Score, player.JoinedAt,
	)
	if isUniqueViolation(err) {
		return internal.Errorf(internal.ErrConflict, "player %s already in room %s", player.UserID, player.RoomID)
	}
	if err != nil {
		return fmt.Errorf("insert player %s: %w", player.UserID, err)
	}
	return nil
}

func (p *Postgres) RemovePlayer(ctx context.Context, roomID, userID string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM players WHERE room_id = $1 AND user_id = $2`, roomID, userID)
	if err != nil {
		return fmt.Errorf("delete player %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return internal.Errorf(internal.ErrNotFound, "player %s in room %s", userID, roomID)
	}
	return nil
}

func (p *Postgres) AdjustScore(ctx context.Context, roomID, userID string, delta int) (int, error) {
	var score int
	err := p.pool.QueryRow(ctx, `
		UPDATE players SET score = GREATEST(score + $3, 0)
		WHERE room_id = $1 AND user_id = $2
		RETURNING score`, roomID, userID, delta).Scan(&score)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, internal.Errorf(internal.ErrNotFound, "player %s in room %s", userID, roomID)
	}
	if err != nil {
		return 0, fmt.Errorf("adjust score of %s: %w", userID, err)
	}
	return score, nil
}

func (p *Postgres) ResetScores(ctx context.Context, roomID string) error {
	if _, err := p.pool.Exec(ctx, `UPDATE players SET score = 0 WHERE room_id = $1`, roomID); err != nil {
		return fmt.Errorf("reset scores of room %s: %w", roomID, err)
	}
	return nil
}

// =============================================================================
// ROUNDS
// =============================================================================

const roundColumns = `id, room_id, round_number, mode, question_id, dare_target_user_id, status,
	answers, guesses, reveal_guesses, reveal_order, reveal_index, continue_acks,
	version, created_at, updated_at`

func (p *Postgres) LatestRound(ctx context.Context, roomID string) (*internal.GameRound, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+roundColumns+` FROM game_rounds
		WHERE room_id = $1
		ORDER BY round_number DESC
		LIMIT 1`, roomID)

	var r internal.GameRound
	err := row.Scan(
		&r.Id, &r.RoomID, &r.RoundNumber, &r.Mode, &r.QuestionID, &r.DareTargetUserID, &r.Status,
		&r.Answers, &r.Guesses, &r.RevealGuesses, &r.RevealOrder, &r.RevealIndex, &r.ContinueAcks,
		&r.Version, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, internal.Errorf(internal.ErrNotFound, "no game round for room %s", roomID)
	}
	if err != nil {
		return nil, fmt.Errorf("select latest round of room %s: %w", roomID, err)
	}
	// Clone normalises nil maps left by empty JSON documents.
	return r.Clone(), nil
}

func (p *Postgres) CreateRound(ctx context.Context, round *internal.GameRound) error {
	r := round.Clone()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO game_rounds (`+roundColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		r.Id, r.RoomID, r.RoundNumber, r.Mode, r.QuestionID, r.DareTargetUserID, r.Status,
		r.Answers, r.Guesses, r.RevealGuesses, nonNil(r.RevealOrder), r.RevealIndex, r.ContinueAcks,
		r.Version, r.CreatedAt, r.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return internal.Errorf(internal.ErrConflict, "round %d already exists in room %s", round.RoundNumber, round.RoomID)
	}
	if err != nil {
		return fmt.Errorf("insert round %d of room %s: %w", round.RoundNumber, round.RoomID, err)
	}
	return nil
}

func (p *Postgres) UpdateRound(ctx context.Context, round *internal.GameRound) error {
	r := round.Clone()
	now := time.Now().UTC()

	tag, err := p.pool.Exec(ctx, `
		UPDATE game_rounds SET
			status = $3, answers = $4, guesses = $5, reveal_guesses = $6,
			reveal_order = $7, reveal_index = $8, continue_acks = $9,
			dare_target_user_id = $10, version = version + 1, updated_at = $11
		WHERE id = $1 AND version = $2`,
		r.Id, r.Version, r.Status, r.Answers, r.Guesses, r.RevealGuesses,
		nonNil(r.RevealOrder), r.RevealIndex, r.ContinueAcks, r.DareTargetUserID, now,
	)
	if err != nil {
		return fmt.Errorf("update round %s: %w", round.Id, err)
	}
	if tag.RowsAffected() == 0 {
		return internal.Errorf(internal.ErrConflict, "round %s was modified (have version %d)", round.Id, round.Version)
	}
	round.Version++
	round.UpdatedAt = now
	return nil
}

func (p *Postgres) DeleteRounds(ctx context.Context, roomID string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM game_rounds WHERE room_id = $1`, roomID); err != nil {
		return fmt.Errorf("delete rounds of room %s: %w", roomID, err)
	}
	return nil
}

// =============================================================================
// QUESTIONS
// =============================================================================

const questionColumns = `id, text, type, category, options, created_at`

func scanQuestion(row pgx.Row) (*internal.Question, error) {
	var q internal.Question
	if err := row.Scan(&q.Id, &q.Text, &q.Type, &q.Category, &q.Options, &q.CreatedAt); err != nil {
		return nil, err
	}
	return &q, nil
}

func (p *Postgres) GetQuestion(ctx context.Context, questionID string) (*internal.Question, error) {
	q, err := scanQuestion(p.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, questionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, internal.Errorf(internal.ErrNotFound, "question %s", questionID)
	}
	if err != nil {
		return nil, fmt.Errorf("select question %s: %w", questionID, err)
	}
	return q, nil
}

func (p *Postgres) FindQuestions(ctx context.Context, mode internal.GameMode, categories []string) ([]*internal.Question, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+questionColumns+` FROM questions
		WHERE type = $1 AND category = ANY($2)
		ORDER BY id`, mode, nonNil(categories))
	if err != nil {
		return nil, fmt.Errorf("select %s questions: %w", mode, err)
	}
	defer rows.Close()

	var questions []*internal.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (p *Postgres) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT DISTINCT category FROM questions
		WHERE category <> ''
		ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect categories: %w", err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// AddQuestions inserts in one batch and skips ids that already exist.
func (p *Postgres) AddQuestions(ctx context.Context, questions []*internal.Question) (int, error) {
	batch := &pgx.Batch{}
	for _, q := range questions {
		createdAt := q.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		batch.Queue(`
			INSERT INTO questions (`+questionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING`,
			q.Id, q.Text, q.Type, q.Category, nonNil(q.Options), createdAt)
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()

	added := 0
	for range questions {
		tag, err := results.Exec()
		if err != nil {
			return added, fmt.Errorf("insert question: %w", err)
		}
		added += int(tag.RowsAffected())
	}
	return added, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
