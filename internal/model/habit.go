package model

import "time"

type Habit struct {
	ID          int64
	UserID      int64
	CommunityID int64
	Name        string
	CreatedAt   time.Time
}
