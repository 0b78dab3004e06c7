package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Tanishk-135/MathMinds-Bot/internal/types"
)

// Store defines all database operations.
type Store interface {
	InsertPendingAction(ctx context.Context, a *PendingAction) (int64, error)
	UpdatePendingActionStatus(ctx context.Context, handleID string, status types.ActionStatus) error
	ListPendingActions(ctx context.Context) ([]*PendingAction, error)
	MarkPendingActionsLost(ctx context.Context) (int64, error)
	InsertJoiner(ctx context.Context, j *Joiner) error
	ListJoiners(ctx context.Context) ([]*Joiner, error)
	DeleteJoinersUpTo(ctx context.Context, maxID int64) error
	AppendMessageLog(ctx context.Context, e *LogEntry) error
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// sqlOpenFunc is a package-level variable to allow testing sql.Open failures.
var sqlOpenFunc = sql.Open

// NewSQLiteStore opens a SQLite database and returns a new SQLiteStore.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	sqlDB, err := sqlOpenFunc("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := initDB(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &SQLiteStore{db: sqlDB}, nil
}

// initDB configures pragmas and runs migrations on an open database connection.
func initDB(sqlDB *sql.DB) error {
	// Single writer; timers and the event loop share one connection.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("enabling WAL mode: %w", err)
	}

	if err := RunMigrations(context.Background(), sqlDB); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// NewSQLiteStoreFromDB creates a SQLiteStore from an existing *sql.DB connection.
func NewSQLiteStoreFromDB(sqlDB *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: sqlDB}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertPendingAction(ctx context.Context, a *PendingAction) (int64, error) {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO pending_actions (handle_id, kind, key, guild_id, channel_id, user_id, role_id, body, fire_at, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.HandleID, string(a.Kind), a.Key, a.GuildID, a.ChannelID, a.UserID, a.RoleID, a.Body,
		a.FireAt.UTC(), string(types.ActionPending), now, now,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) UpdatePendingActionStatus(ctx context.Context, handleID string, status types.ActionStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE pending_actions SET status = ?, updated_at = ? WHERE handle_id = ?`,
		string(status), time.Now().UTC(), handleID,
	)
	return err
}

func (s *SQLiteStore) ListPendingActions(ctx context.Context) ([]*PendingAction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, handle_id, kind, key, guild_id, channel_id, user_id, role_id, body, fire_at, status, created_at, updated_at
		 FROM pending_actions WHERE status = ? ORDER BY fire_at`,
		string(types.ActionPending),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPendingActions(rows)
}

// MarkPendingActionsLost flags every still-pending record as lost and returns
// how many were affected.
func (s *SQLiteStore) MarkPendingActionsLost(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE pending_actions SET status = ?, updated_at = ? WHERE status = ?`,
		string(types.ActionLost), time.Now().UTC(), string(types.ActionPending),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *SQLiteStore) InsertJoiner(ctx context.Context, j *Joiner) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO joiners (guild_id, user_id, display, joined_at) VALUES (?, ?, ?, ?)`,
		j.GuildID, j.UserID, j.Display, j.JoinedAt.UTC(),
	)
	return err
}

func (s *SQLiteStore) ListJoiners(ctx context.Context) ([]*Joiner, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, guild_id, user_id, display, joined_at FROM joiners ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var joiners []*Joiner
	for rows.Next() {
		j := &Joiner{}
		if err := rows.Scan(&j.ID, &j.GuildID, &j.UserID, &j.Display, &j.JoinedAt); err != nil {
			return nil, err
		}
		joiners = append(joiners, j)
	}
	return joiners, rows.Err()
}

// DeleteJoinersUpTo removes joiners already included in a summary. Joins that
// land while the summary is being posted have a larger id and survive.
func (s *SQLiteStore) DeleteJoinersUpTo(ctx context.Context, maxID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM joiners WHERE id <= ?`, maxID)
	return err
}

func (s *SQLiteStore) AppendMessageLog(ctx context.Context, e *LogEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO message_log (channel_id, author_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ChannelID, e.AuthorID, string(e.Role), e.Content, time.Now().UTC(),
	)
	return err
}

// helpers

func scanPendingActions(rows *sql.Rows) ([]*PendingAction, error) {
	var actions []*PendingAction
	for rows.Next() {
		a := &PendingAction{}
		var kind, status string
		if err := rows.Scan(
			&a.ID, &a.HandleID, &kind, &a.Key, &a.GuildID, &a.ChannelID,
			&a.UserID, &a.RoleID, &a.Body, &a.FireAt, &status,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		a.Kind = types.ActionKind(kind)
		a.Status = types.ActionStatus(status)
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
