// Package persistence provides SQLite-based game state storage.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/ashkar-house/realms/internal/state"
)

// ErrStaleTurn is returned when a turn-result write's optimistic guard
// fails: another writer already advanced the game past the expected turn.
var ErrStaleTurn = errors.New("persistence: stale turn, re-read and retry")

// ErrNotFound is returned when a game id has no matching row.
var ErrNotFound = errors.New("persistence: game not found")

// DB wraps a SQLite connection for game state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		game_id          TEXT PRIMARY KEY,
		theme_id         TEXT NOT NULL,
		turn             INTEGER NOT NULL,
		phase            TEXT NOT NULL,
		state_json       TEXT NOT NULL,
		rng_seed         INTEGER NOT NULL,
		created_at       TEXT NOT NULL,
		last_resolved_at TEXT
	);

	CREATE TABLE IF NOT EXISTS turn_history (
		game_id      TEXT NOT NULL,
		turn         INTEGER NOT NULL,
		summary_json TEXT NOT NULL,
		logs_json    TEXT NOT NULL,
		resolved_at  TEXT NOT NULL,
		PRIMARY KEY (game_id, turn)
	);

	CREATE TABLE IF NOT EXISTS submitted_orders (
		game_id           TEXT NOT NULL,
		turn              INTEGER NOT NULL,
		civilization_id   TEXT NOT NULL,
		orders_json       TEXT NOT NULL,
		submitted_at      TEXT NOT NULL,
		PRIMARY KEY (game_id, turn, civilization_id)
	);

	CREATE INDEX IF NOT EXISTS idx_turn_history_game ON turn_history(game_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// CreateGame inserts a freshly initialized game. Fails if the id already
// exists.
func (db *DB) CreateGame(gs *state.GameState) error {
	raw, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("marshal game state: %w", err)
	}
	_, err = db.conn.Exec(
		`INSERT INTO games (game_id, theme_id, turn, phase, state_json, rng_seed, created_at, last_resolved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		gs.GameID, gs.ThemeID, gs.Turn, gs.Phase, string(raw), gs.RNGSeed, gs.CreatedAt, gs.LastResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("insert game %s: %w", gs.GameID, err)
	}
	return nil
}

// LoadGame reads the current state for a game id.
func (db *DB) LoadGame(gameID string) (*state.GameState, error) {
	var raw string
	err := db.conn.Get(&raw, "SELECT state_json FROM games WHERE game_id = ?", gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", gameID, err)
	}
	var gs state.GameState
	if err := json.Unmarshal([]byte(raw), &gs); err != nil {
		return nil, fmt.Errorf("unmarshal game %s: %w", gameID, err)
	}
	return &gs, nil
}

// SaveTurnResult persists the resolver's output under an optimistic guard:
// the write only applies if the stored turn still equals expectedTurn,
// matching the host contract spec.md §5 and §6 describe. It also appends
// the turn's summary and log lines to turn_history.
func (db *DB) SaveTurnResult(expectedTurn int, next *state.GameState, logs []string) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal game state: %w", err)
	}

	result, err := tx.Exec(
		`UPDATE games SET turn = ?, phase = ?, state_json = ?, last_resolved_at = ?
		 WHERE game_id = ? AND turn = ?`,
		next.Turn, next.Phase, string(raw), next.LastResolvedAt, next.GameID, expectedTurn,
	)
	if err != nil {
		return fmt.Errorf("update game %s: %w", next.GameID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStaleTurn
	}

	var summary state.TurnSummary
	if len(next.TurnHistory) > 0 {
		summary = next.TurnHistory[len(next.TurnHistory)-1]
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	logsJSON, err := json.Marshal(logs)
	if err != nil {
		return fmt.Errorf("marshal logs: %w", err)
	}

	resolvedAt := ""
	if next.LastResolvedAt != nil {
		resolvedAt = *next.LastResolvedAt
	}
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO turn_history (game_id, turn, summary_json, logs_json, resolved_at)
		 VALUES (?, ?, ?, ?, ?)`,
		next.GameID, expectedTurn, string(summaryJSON), string(logsJSON), resolvedAt,
	); err != nil {
		return fmt.Errorf("insert turn history: %w", err)
	}

	return tx.Commit()
}

// SubmitOrders records one civ's order batch for a turn, replacing any
// prior submission for the same (game, turn, civ).
func (db *DB) SubmitOrders(gameID string, turn int, po state.PlayerOrders) error {
	raw, err := json.Marshal(po.Orders)
	if err != nil {
		return fmt.Errorf("marshal orders: %w", err)
	}
	_, err = db.conn.Exec(
		`INSERT OR REPLACE INTO submitted_orders (game_id, turn, civilization_id, orders_json, submitted_at)
		 VALUES (?, ?, ?, ?, ?)`,
		gameID, turn, po.CivilizationID, string(raw), po.SubmittedAt,
	)
	return err
}

// LoadSubmittedOrders returns every civ's order batch submitted for a turn.
func (db *DB) LoadSubmittedOrders(gameID string, turn int) ([]state.PlayerOrders, error) {
	type orderRow struct {
		CivilizationID string `db:"civilization_id"`
		OrdersJSON     string `db:"orders_json"`
		SubmittedAt    string `db:"submitted_at"`
	}
	var rows []orderRow
	err := db.conn.Select(&rows,
		`SELECT civilization_id, orders_json, submitted_at FROM submitted_orders
		 WHERE game_id = ? AND turn = ?`, gameID, turn)
	if err != nil {
		return nil, fmt.Errorf("load submitted orders: %w", err)
	}

	out := make([]state.PlayerOrders, 0, len(rows))
	for _, r := range rows {
		var orders []state.Order
		if err := json.Unmarshal([]byte(r.OrdersJSON), &orders); err != nil {
			return nil, fmt.Errorf("unmarshal orders for %s: %w", r.CivilizationID, err)
		}
		out = append(out, state.PlayerOrders{
			CivilizationID: r.CivilizationID,
			TurnNumber:     turn,
			Orders:         orders,
			SubmittedAt:    r.SubmittedAt,
		})
	}
	return out, nil
}

// GameSummary is the row shape listed in the game index.
type GameSummary struct {
	GameID  string `json:"gameId" db:"game_id"`
	ThemeID string `json:"themeId" db:"theme_id"`
	Turn    int    `json:"turn" db:"turn"`
	Phase   string `json:"phase" db:"phase"`
}

// ListGames returns every known game's summary row.
func (db *DB) ListGames() ([]GameSummary, error) {
	var rows []GameSummary
	err := db.conn.Select(&rows, "SELECT game_id, theme_id, turn, phase FROM games ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return rows, nil
}

// TurnHistoryRow is one archived turn's summary and log lines.
type TurnHistoryRow struct {
	Turn       int             `json:"turn" db:"turn"`
	Summary    json.RawMessage `json:"summary" db:"summary_json"`
	Logs       json.RawMessage `json:"logs" db:"logs_json"`
	ResolvedAt string          `json:"resolvedAt" db:"resolved_at"`
}

// LoadTurnHistory returns every archived turn for a game, oldest first.
func (db *DB) LoadTurnHistory(gameID string) ([]TurnHistoryRow, error) {
	var rows []TurnHistoryRow
	err := db.conn.Select(&rows,
		`SELECT turn, summary_json, logs_json, resolved_at FROM turn_history
		 WHERE game_id = ? ORDER BY turn ASC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("load turn history for %s: %w", gameID, err)
	}
	return rows, nil
}
