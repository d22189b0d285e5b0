package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dailyrise_engine/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

type challengeRow struct {
	ID               uuid.UUID  `db:"id"`
	ChallengerID     int64      `db:"challenger_id"`
	ChallengedUserID int64      `db:"challenged_user_id"`
	HabitID          int64      `db:"habit_id"`
	CommunityID      int64      `db:"community_id"`
	Status           string     `db:"status"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
	CompletedAt      *time.Time `db:"completed_at"`
	WinnerID         *int64     `db:"winner_id"`
}

func (c challengeRow) toModel() *model.Challenge {
	return &model.Challenge{
		ID:               c.ID,
		ChallengerID:     c.ChallengerID,
		ChallengedUserID: c.ChallengedUserID,
		HabitID:          c.HabitID,
		CommunityID:      c.CommunityID,
		Status:           model.ChallengeStatus(c.Status),
		CreatedAt:        c.CreatedAt,
		CompletedAt:      c.CompletedAt,
		WinnerID:         c.WinnerID,
	}
}

var challengeColumns = []string{
	"id", "challenger_id", "challenged_user_id", "habit_id", "community_id",
	"status", "created_at", "updated_at", "completed_at", "winner_id",
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *Repository) CreateChallenge(ctx context.Context, ch *model.Challenge) error {
	query, args, err := squirrel.
		Insert("challenges").
		SetMap(map[string]interface{}{
			"id":                 ch.ID,
			"challenger_id":      ch.ChallengerID,
			"challenged_user_id": ch.ChallengedUserID,
			"habit_id":           ch.HabitID,
			"community_id":       ch.CommunityID,
			"status":             string(ch.Status),
			"created_at":         ch.CreatedAt,
			"updated_at":         ch.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateChallenge
		}
		return err
	}

	return nil
}

func (r *Repository) GetChallengeByID(ctx context.Context, id uuid.UUID) (*model.Challenge, error) {
	var row challengeRow
	query, args, err := squirrel.
		Select(challengeColumns...).
		From("challenges").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

// pairFilter matches a challenge regardless of which side issued it.
func pairFilter(userA, userB int64) squirrel.Sqlizer {
	return squirrel.Or{
		squirrel.Eq{"challenger_id": userA, "challenged_user_id": userB},
		squirrel.Eq{"challenger_id": userB, "challenged_user_id": userA},
	}
}

// FindActiveBetween returns the most recent non-declined challenge between
// the unordered pair, optionally narrowed to one habit.
func (r *Repository) FindActiveBetween(ctx context.Context, userA, userB int64, habitID *int64) (*model.Challenge, error) {
	builder := squirrel.
		Select(challengeColumns...).
		From("challenges").
		Where(pairFilter(userA, userB)).
		Where(squirrel.NotEq{"status": string(model.ChallengeDeclined)}).
		OrderBy("created_at DESC").
		Limit(1)

	if habitID != nil {
		builder = builder.Where(squirrel.Eq{"habit_id": *habitID})
	}

	query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, err
	}

	var row challengeRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

// ActiveChallengeByHabit returns the accepted, winnerless challenge on the
// habit that involves the given user, if any. The orchestrator uses it to
// tie an alarm claim back to a challenge.
func (r *Repository) ActiveChallengeByHabit(ctx context.Context, habitID, userID int64) (*model.Challenge, error) {
	query, args, err := squirrel.
		Select(challengeColumns...).
		From("challenges").
		Where(squirrel.Eq{"habit_id": habitID, "status": string(model.ChallengeAccepted)}).
		Where("winner_id IS NULL").
		Where(squirrel.Or{
			squirrel.Eq{"challenger_id": userID},
			squirrel.Eq{"challenged_user_id": userID},
		}).
		OrderBy("created_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row challengeRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

func (r *Repository) ChallengesForUser(ctx context.Context, userID int64) ([]*model.Challenge, error) {
	query, args, err := squirrel.
		Select(challengeColumns...).
		From("challenges").
		Where(squirrel.Or{
			squirrel.Eq{"challenger_id": userID},
			squirrel.Eq{"challenged_user_id": userID},
		}).
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []challengeRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	challenges := make([]*model.Challenge, len(rows))
	for i, row := range rows {
		challenges[i] = row.toModel()
	}

	return challenges, nil
}

// ChallengesUpdatedSince backs the polling fallback of the change feed.
func (r *Repository) ChallengesUpdatedSince(ctx context.Context, userID int64, since time.Time) ([]*model.Challenge, error) {
	query, args, err := squirrel.
		Select(challengeColumns...).
		From("challenges").
		Where(squirrel.Or{
			squirrel.Eq{"challenger_id": userID},
			squirrel.Eq{"challenged_user_id": userID},
		}).
		Where(squirrel.Gt{"updated_at": since}).
		OrderBy("updated_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []challengeRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	challenges := make([]*model.Challenge, len(rows))
	for i, row := range rows {
		challenges[i] = row.toModel()
	}

	return challenges, nil
}

// TransitionChallengeStatus is a compare-and-swap on status: the write only
// lands when the current status is exactly `from`. Zero rows affected means
// the caller's view was stale; it must refetch to find out why.
func (r *Repository) TransitionChallengeStatus(ctx context.Context, id uuid.UUID, from, to model.ChallengeStatus) error {
	query, args, err := squirrel.
		Update("challenges").
		SetMap(map[string]interface{}{
			"status":     string(to),
			"updated_at": time.Now().UTC(),
		}).
		Where(squirrel.Eq{"id": id, "status": string(from)}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrStaleStatus
	}

	return nil
}

// CompleteChallenge marks the challenge completed with the given winner,
// guarded on status = accepted and an unset winner so the first writer wins
// and a repeat never changes winner_id or completed_at.
func (r *Repository) CompleteChallenge(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, winnerID int64, at time.Time) error {
	query, args, err := squirrel.
		Update("challenges").
		SetMap(map[string]interface{}{
			"status":       string(model.ChallengeCompleted),
			"completed_at": at,
			"updated_at":   at,
			"winner_id":    winnerID,
		}).
		Where(squirrel.Eq{"id": id, "status": string(model.ChallengeAccepted)}).
		Where("winner_id IS NULL").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	var result sql.Result
	if tx != nil {
		result, err = tx.ExecContext(ctx, query, args...)
	} else {
		result, err = r.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrStaleStatus
	}

	return nil
}
