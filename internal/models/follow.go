package models

import "time"

// Follow is a directed edge: FollowerID follows FollowingID
type Follow struct {
	FollowerID  uint      `gorm:"primaryKey;autoIncrement:false"`
	FollowingID uint      `gorm:"primaryKey;autoIncrement:false;index:idx_following_follower"`
	CreatedAt   time.Time
}
