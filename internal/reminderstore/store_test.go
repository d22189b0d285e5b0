package reminderstore

import (
	"context"
	"testing"

	"dailyrise_engine/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sample(userID, habitID int64) *model.Reminder {
	return &model.Reminder{
		UserID:      userID,
		HabitID:     habitID,
		HabitName:   "morning run",
		CommunityID: 3,
		Time:        "07:30",
		Sound:       model.ToneChime,
		Enabled:     true,
	}
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rem := sample(100, 7)
	id, err := s.Create(ctx, rem)
	require.NoError(t, err)
	assert.Equal(t, id, rem.ID)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, rem.UserID, got.UserID)
	assert.Equal(t, rem.HabitID, got.HabitID)
	assert.Equal(t, rem.HabitName, got.HabitName)
	assert.Equal(t, rem.CommunityID, got.CommunityID)
	assert.Equal(t, "07:30", got.Time)
	assert.Equal(t, model.ToneChime, got.Sound)
	assert.True(t, got.Enabled)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestCreateDefaultsSound(t *testing.T) {
	s := newTestStore(t)

	rem := sample(100, 7)
	rem.Sound = ""
	id, err := s.Create(context.Background(), rem)
	require.NoError(t, err)

	got, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.ToneClassic, got.Sound)
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByUserOrdersByTime(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	evening := sample(100, 7)
	evening.Time = "21:00"
	_, err := s.Create(ctx, evening)
	require.NoError(t, err)

	morning := sample(100, 8)
	morning.Time = "06:45"
	_, err = s.Create(ctx, morning)
	require.NoError(t, err)

	other := sample(200, 7)
	_, err = s.Create(ctx, other)
	require.NoError(t, err)

	got, err := s.ListByUser(ctx, 100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "06:45", got[0].Time)
	assert.Equal(t, "21:00", got[1].Time)
}

func TestFindByHabit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rem := sample(100, 7)
	id, err := s.Create(ctx, rem)
	require.NoError(t, err)

	got, err := s.FindByHabit(ctx, 100, 7)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	_, err = s.FindByHabit(ctx, 100, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.FindByHabit(ctx, 200, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetEnabled(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rem := sample(100, 7)
	id, err := s.Create(ctx, rem)
	require.NoError(t, err)

	require.NoError(t, s.SetEnabled(ctx, id, false))
	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	require.NoError(t, s.SetEnabled(ctx, id, true))
	got, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Enabled)

	assert.ErrorIs(t, s.SetEnabled(ctx, 9999, true), ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rem := sample(100, 7)
	id, err := s.Create(ctx, rem)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, id), ErrNotFound)
}
