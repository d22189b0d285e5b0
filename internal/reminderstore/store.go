// Package reminderstore persists reminder definitions in a local sqlite
// file, scoped per user. Reminders are device-local state (the original
// product kept them out of the shared backend), so they live beside the
// process rather than in Postgres, and they survive restarts.
package reminderstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dailyrise_engine/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("reminder not found")

const schema = `
CREATE TABLE IF NOT EXISTS reminders (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id      INTEGER NOT NULL,
    habit_id     INTEGER NOT NULL,
    habit_name   TEXT NOT NULL,
    community_id INTEGER NOT NULL,
    time         TEXT NOT NULL,
    sound        TEXT NOT NULL DEFAULT 'classic',
    enabled      INTEGER NOT NULL DEFAULT 1,
    created_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS reminders_user_idx ON reminders (user_id);
`

type Store struct {
	db *sqlx.DB
}

func New(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, err
	}

	// sqlite allows one writer; a second concurrent writer errors instead
	// of queueing unless the pool is capped.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type reminderRow struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	HabitID     int64     `db:"habit_id"`
	HabitName   string    `db:"habit_name"`
	CommunityID int64     `db:"community_id"`
	Time        string    `db:"time"`
	Sound       string    `db:"sound"`
	Enabled     bool      `db:"enabled"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r reminderRow) toModel() *model.Reminder {
	return &model.Reminder{
		ID:          r.ID,
		UserID:      r.UserID,
		HabitID:     r.HabitID,
		HabitName:   r.HabitName,
		CommunityID: r.CommunityID,
		Time:        r.Time,
		Sound:       model.ToneProfile(r.Sound),
		Enabled:     r.Enabled,
		CreatedAt:   r.CreatedAt,
	}
}

func (s *Store) Create(ctx context.Context, rem *model.Reminder) (int64, error) {
	if rem.Sound == "" {
		rem.Sound = model.ToneClassic
	}
	if rem.CreatedAt.IsZero() {
		rem.CreatedAt = time.Now().UTC()
	}

	query, args, err := squirrel.
		Insert("reminders").
		SetMap(map[string]interface{}{
			"user_id":      rem.UserID,
			"habit_id":     rem.HabitID,
			"habit_name":   rem.HabitName,
			"community_id": rem.CommunityID,
			"time":         rem.Time,
			"sound":        string(rem.Sound),
			"enabled":      rem.Enabled,
			"created_at":   rem.CreatedAt,
		}).
		ToSql()
	if err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	rem.ID = id

	return id, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*model.Reminder, error) {
	var row reminderRow
	query, args, err := squirrel.
		Select("*").
		From("reminders").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = s.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

func (s *Store) ListByUser(ctx context.Context, userID int64) ([]*model.Reminder, error) {
	query, args, err := squirrel.
		Select("*").
		From("reminders").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("time ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []reminderRow
	err = s.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	reminders := make([]*model.Reminder, len(rows))
	for i, row := range rows {
		reminders[i] = row.toModel()
	}

	return reminders, nil
}

// FindByHabit returns the user's reminder for the habit, if one exists.
// Challenge acceptance reuses it instead of stacking duplicates.
func (s *Store) FindByHabit(ctx context.Context, userID, habitID int64) (*model.Reminder, error) {
	var row reminderRow
	query, args, err := squirrel.
		Select("*").
		From("reminders").
		Where(squirrel.Eq{"user_id": userID, "habit_id": habitID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = s.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

func (s *Store) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	query, args, err := squirrel.
		Update("reminders").
		Set("enabled", enabled).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	query, args, err := squirrel.
		Delete("reminders").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
