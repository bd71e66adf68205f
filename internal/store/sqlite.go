package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/pulse/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// ReplaceNotifications replaces the cached feed wholesale with items,
// preserving their order via an explicit position column. The feed is
// ordered by insertion, not by timestamp, so position is authoritative.
func (s *SQLiteStore) ReplaceNotifications(ctx context.Context, items []model.Notification) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM notifications"); err != nil {
		return fmt.Errorf("clearing notifications: %w", err)
	}

	const query = `
		INSERT INTO notifications (
			id, position, kind, actor, actor_display,
			target_kind, target_id, message, read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for i, n := range items {
		targetKind, targetID := "", ""
		if n.Target != nil {
			targetKind = string(n.Target.Kind)
			targetID = n.Target.ID
		}

		_, err = stmt.ExecContext(ctx,
			n.ID, i, string(n.Kind), n.Actor.Username, n.Actor.DisplayName,
			targetKind, targetID, n.Message, boolToInt(n.Read), n.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("inserting notification %s: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

// GetNotifications retrieves the cached feed in its stored order.
func (s *SQLiteStore) GetNotifications(ctx context.Context) ([]model.Notification, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM notifications ORDER BY position",
	)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var items []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}

	return items, rows.Err()
}

// SetNotificationRead mirrors a read-state change into the cache.
func (s *SQLiteStore) SetNotificationRead(ctx context.Context, id string, read bool) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = ? WHERE id = ?", boolToInt(read), id,
	)
	if err != nil {
		return fmt.Errorf("updating notification %s read state: %w", id, err)
	}
	return nil
}

// DeleteNotification mirrors a deletion into the cache.
func (s *SQLiteStore) DeleteNotification(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM notifications WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting notification %s: %w", id, err)
	}
	return nil
}

// UpsertProfile inserts or replaces a cached profile.
func (s *SQLiteStore) UpsertProfile(ctx context.Context, p model.Profile) error {
	var isFollowing interface{}
	if p.IsFollowing != nil {
		isFollowing = boolToInt(*p.IsFollowing)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO profiles (
			username, display_name, bio, followers, following, is_following, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Username, p.DisplayName, p.Bio, p.Followers, p.Following,
		isFollowing, p.FetchedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting profile %s: %w", p.Username, err)
	}

	return nil
}

// GetProfile retrieves a cached profile by username. Returns nil without
// error when the profile has never been cached.
func (s *SQLiteStore) GetProfile(ctx context.Context, username string) (*model.Profile, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT * FROM profiles WHERE username = ?", username,
	)

	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile %s: %w", username, err)
	}

	return &p, nil
}

// scanNotification scans a notification row from a sqlx.Rows result set.
func scanNotification(rows *sqlx.Rows) (model.Notification, error) {
	var (
		n            model.Notification
		position     int
		kind         string
		actor        string
		actorDisplay string
		targetKind   string
		targetID     string
		readInt      int
		createdAt    time.Time
	)

	err := rows.Scan(
		&n.ID, &position, &kind, &actor, &actorDisplay,
		&targetKind, &targetID, &n.Message, &readInt, &createdAt,
	)
	if err != nil {
		return model.Notification{}, fmt.Errorf("scanning notification row: %w", err)
	}

	n.Kind = model.Kind(kind)
	n.Actor = model.Actor{Username: actor, DisplayName: actorDisplay}
	n.Read = readInt != 0
	n.CreatedAt = createdAt
	if targetKind != "" || targetID != "" {
		n.Target = &model.Target{Kind: model.TargetKind(targetKind), ID: targetID}
	}

	return n, nil
}

// scanProfile scans a profile row from a sqlx.Row.
func scanProfile(row *sqlx.Row) (model.Profile, error) {
	var (
		p           model.Profile
		isFollowing sql.NullInt64
		fetchedAt   time.Time
	)

	err := row.Scan(
		&p.Username, &p.DisplayName, &p.Bio, &p.Followers, &p.Following,
		&isFollowing, &fetchedAt,
	)
	if err != nil {
		return model.Profile{}, err
	}

	if isFollowing.Valid {
		v := isFollowing.Int64 != 0
		p.IsFollowing = &v
	}
	p.FetchedAt = fetchedAt

	return p, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
