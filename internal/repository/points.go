package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dailyrise_engine/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type pointsRow struct {
	UserID      int64     `db:"user_id"`
	CommunityID int64     `db:"community_id"`
	TotalPoints int       `db:"total_points"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// AwardPoints applies one idempotency-keyed award. The key row and the
// ledger increment commit in the same transaction, so a retried or
// redelivered trigger can never double-count: a consumed key returns
// ErrAlreadyAwarded and leaves the ledger untouched. The increment itself
// is done by the store (total_points + n), never by writing back a value
// read earlier, so concurrent awards on different keys cannot lose updates.
func (r *Repository) AwardPoints(ctx context.Context, userID, communityID int64, amount int, key string) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		keyQuery, keyArgs, err := squirrel.
			Insert("points_awards").
			SetMap(map[string]interface{}{
				"award_key":    key,
				"user_id":      userID,
				"community_id": communityID,
				"amount":       amount,
			}).
			Suffix("ON CONFLICT (award_key) DO NOTHING").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, keyQuery, keyArgs...)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAlreadyAwarded
		}

		now := time.Now().UTC()
		query, args, err := squirrel.
			Insert("user_points").
			SetMap(map[string]interface{}{
				"user_id":      userID,
				"community_id": communityID,
				"total_points": amount,
				"updated_at":   now,
			}).
			Suffix("ON CONFLICT (user_id, community_id) DO UPDATE SET " +
				"total_points = user_points.total_points + EXCLUDED.total_points, " +
				"updated_at = EXCLUDED.updated_at").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, query, args...)
		return err
	})
}

// awardPointsWithTx is AwardPoints inside a caller-owned transaction, used
// when a challenge completion and its counterpart award must commit together.
func (r *Repository) awardPointsWithTx(ctx context.Context, tx *sqlx.Tx, userID, communityID int64, amount int, key string) error {
	keyQuery, keyArgs, err := squirrel.
		Insert("points_awards").
		SetMap(map[string]interface{}{
			"award_key":    key,
			"user_id":      userID,
			"community_id": communityID,
			"amount":       amount,
		}).
		Suffix("ON CONFLICT (award_key) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, keyQuery, keyArgs...)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAlreadyAwarded
	}

	now := time.Now().UTC()
	query, args, err := squirrel.
		Insert("user_points").
		SetMap(map[string]interface{}{
			"user_id":      userID,
			"community_id": communityID,
			"total_points": amount,
			"updated_at":   now,
		}).
		Suffix("ON CONFLICT (user_id, community_id) DO UPDATE SET " +
			"total_points = user_points.total_points + EXCLUDED.total_points, " +
			"updated_at = EXCLUDED.updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// CompleteAndAward commits the challenge completion CAS and the counterpart
// award atomically.
func (r *Repository) CompleteAndAward(ctx context.Context, ch *model.Challenge, winnerID int64, at time.Time, counterpartID int64, amount int, counterpartKey string) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := r.CompleteChallenge(ctx, tx, ch.ID, winnerID, at); err != nil {
			return err
		}
		err := r.awardPointsWithTx(ctx, tx, counterpartID, ch.CommunityID, amount, counterpartKey)
		if err != nil && !errors.Is(err, ErrAlreadyAwarded) {
			return err
		}
		return nil
	})
}

func (r *Repository) GetPoints(ctx context.Context, userID, communityID int64) (*model.PointsEntry, error) {
	var row pointsRow
	query, args, err := squirrel.
		Select("user_id", "community_id", "total_points", "updated_at").
		From("user_points").
		Where(squirrel.Eq{"user_id": userID, "community_id": communityID}).
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

	return &model.PointsEntry{
		UserID:      row.UserID,
		CommunityID: row.CommunityID,
		TotalPoints: row.TotalPoints,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

func (r *Repository) GetPointsForUser(ctx context.Context, userID int64) ([]*model.PointsEntry, error) {
	query, args, err := squirrel.
		Select("user_id", "community_id", "total_points", "updated_at").
		From("user_points").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("community_id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []pointsRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	entries := make([]*model.PointsEntry, len(rows))
	for i, row := range rows {
		entries[i] = &model.PointsEntry{
			UserID:      row.UserID,
			CommunityID: row.CommunityID,
			TotalPoints: row.TotalPoints,
			UpdatedAt:   row.UpdatedAt,
		}
	}

	return entries, nil
}

func (r *Repository) GetLeaderboard(ctx context.Context, communityID int64, limit int) ([]*model.LeaderboardRow, error) {
	query, args, err := squirrel.
		Select("user_id", "total_points").
		From("user_points").
		Where(squirrel.Eq{"community_id": communityID}).
		OrderBy("total_points DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []struct {
		UserID      int64 `db:"user_id"`
		TotalPoints int   `db:"total_points"`
	}
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	board := make([]*model.LeaderboardRow, len(rows))
	for i, row := range rows {
		board[i] = &model.LeaderboardRow{
			UserID:      row.UserID,
			TotalPoints: row.TotalPoints,
		}
	}

	return board, nil
}
