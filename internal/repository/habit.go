package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dailyrise_engine/internal/model"

	"github.com/Masterminds/squirrel"
)

type habitRow struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	CommunityID int64     `db:"community_id"`
	Name        string    `db:"name"`
	CreatedAt   time.Time `db:"created_at"`
}

func (h habitRow) toModel() *model.Habit {
	return &model.Habit{
		ID:          h.ID,
		UserID:      h.UserID,
		CommunityID: h.CommunityID,
		Name:        h.Name,
		CreatedAt:   h.CreatedAt,
	}
}

func (r *Repository) GetHabitByID(ctx context.Context, id int64) (*model.Habit, error) {
	var row habitRow
	query, args, err := squirrel.
		Select("id", "user_id", "community_id", "name", "created_at").
		From("habits").
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

func (r *Repository) GetHabitsByUser(ctx context.Context, userID int64) ([]*model.Habit, error) {
	query, args, err := squirrel.
		Select("id", "user_id", "community_id", "name", "created_at").
		From("habits").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []habitRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	habits := make([]*model.Habit, len(rows))
	for i, row := range rows {
		habits[i] = row.toModel()
	}

	return habits, nil
}

func (r *Repository) CreateHabit(ctx context.Context, habit *model.Habit) (int64, error) {
	query, args, err := squirrel.
		Insert("habits").
		SetMap(map[string]interface{}{
			"user_id":      habit.UserID,
			"community_id": habit.CommunityID,
			"name":         habit.Name,
		}).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var id int64
	err = r.db.GetContext(ctx, &id, query, args...)
	if err != nil {
		return 0, err
	}

	return id, nil
}
