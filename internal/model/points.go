package model

import "time"

// PointsEntry is the durable reward total for one user inside one community.
// Totals only ever increase; there is no decrement path in the engine.
type PointsEntry struct {
	UserID      int64
	CommunityID int64
	TotalPoints int
	UpdatedAt   time.Time
}

type LeaderboardRow struct {
	UserID      int64
	TotalPoints int
}
