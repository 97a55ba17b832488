package repository

import (
	"time"

	"elearn_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GamificationRepository struct {
	DB *gorm.DB
}

func NewGamificationRepository(db *gorm.DB) *GamificationRepository {
	return &GamificationRepository{DB: db}
}

// GetOrCreateProfile 学习者档案惰性创建，初始积分为 0
func (r *GamificationRepository) GetOrCreateProfile(userID uint) (*model.LearnerProfile, error) {
	var profile model.LearnerProfile
	err := r.DB.Where("user_id = ?", userID).First(&profile).Error
	if err == gorm.ErrRecordNotFound {
		profile = model.LearnerProfile{UserID: userID}
		if err := r.DB.Create(&profile).Error; err != nil {
			return nil, err
		}
		return &profile, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// AddPoints 原子累加，避免并发提交下的丢失更新
func (r *GamificationRepository) AddPoints(userID uint, points int) error {
	return r.DB.Model(&model.LearnerProfile{}).
		Where("user_id = ?", userID).
		Update("total_points", gorm.Expr("total_points + ?", points)).
		Error
}

func (r *GamificationRepository) UpdateLevel(userID uint, level int) error {
	return r.DB.Model(&model.LearnerProfile{}).
		Where("user_id = ?", userID).
		Update("level", level).
		Error
}

func (r *GamificationRepository) TopProfiles(limit int) ([]model.LearnerProfile, error) {
	var profiles []model.LearnerProfile
	err := r.DB.Preload("User").
		Order("total_points desc").
		Limit(limit).
		Find(&profiles).Error
	return profiles, err
}

// Badge catalog

func (r *GamificationRepository) CreateBadge(badge *model.Badge) error {
	return r.DB.Create(badge).Error
}

func (r *GamificationRepository) FindBadgeByID(id uint) (*model.Badge, error) {
	var badge model.Badge
	err := r.DB.First(&badge, id).Error
	return &badge, err
}

func (r *GamificationRepository) ListBadges() ([]model.Badge, error) {
	var badges []model.Badge
	err := r.DB.Order("min_points asc").Find(&badges).Error
	return badges, err
}

// ListQualifyingBadges 返回 min_points <= points 的所有徽章，按阈值降序
func (r *GamificationRepository) ListQualifyingBadges(points int) ([]model.Badge, error) {
	var badges []model.Badge
	err := r.DB.Where("min_points <= ?", points).
		Order("min_points desc").
		Find(&badges).Error
	return badges, err
}

func (r *GamificationRepository) UpdateBadge(badge *model.Badge) error {
	return r.DB.Save(badge).Error
}

func (r *GamificationRepository) DeleteBadge(id uint) error {
	return r.DB.Delete(&model.Badge{}, id).Error
}

// UpsertUserBadge (user_id, badge_id) 冲突时只刷新 earned_at
func (r *GamificationRepository) UpsertUserBadge(userID, badgeID uint, earnedAt time.Time) error {
	userBadge := model.UserBadge{
		UserID:   userID,
		BadgeID:  badgeID,
		EarnedAt: earnedAt,
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"earned_at": earnedAt}),
	}).Create(&userBadge).Error
}

func (r *GamificationRepository) ListUserBadges(userID uint) ([]model.UserBadge, error) {
	var userBadges []model.UserBadge
	err := r.DB.Preload("Badge").
		Where("user_id = ?", userID).
		Order("earned_at desc").
		Find(&userBadges).Error
	return userBadges, err
}
