package model

import "time"

// LearnerProfile 每个学习者一行，首次访问时惰性创建
// swagger:model LearnerProfile
type LearnerProfile struct {
	BaseModel
	UserID      uint  `gorm:"uniqueIndex" json:"userId"`
	User        *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TotalPoints int   `gorm:"default:0" json:"totalPoints"`
	Level       int   `gorm:"default:0" json:"level"`
}

func (LearnerProfile) TableName() string {
	return "learner_profiles"
}

// Badge 全局徽章目录，按 min_points 升序维护
// swagger:model Badge
type Badge struct {
	BaseModel
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
	Icon        string `gorm:"size:255" json:"icon"`
	MinPoints   int    `gorm:"not null;index" json:"minPoints"`
}

func (Badge) TableName() string {
	return "badges"
}

// UserBadge (user, badge) 唯一；冲突时 upsert 仅刷新 earned_at
// swagger:model UserBadge
type UserBadge struct {
	BaseModel
	UserID   uint      `gorm:"uniqueIndex:idx_user_badge" json:"userId"`
	BadgeID  uint      `gorm:"uniqueIndex:idx_user_badge" json:"badgeId"`
	Badge    *Badge    `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
	EarnedAt time.Time `json:"earnedAt"`
}

func (UserBadge) TableName() string {
	return "user_badges"
}
