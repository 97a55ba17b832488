package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"elearn_backend/internal/model"
	"elearn_backend/internal/repository"
	"elearn_backend/internal/util"
	"elearn_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	leaderboardCacheKey = "leaderboard:points"
	leaderboardCacheTTL = 30 * time.Second
)

type AchievementService struct {
	GamificationRepo *repository.GamificationRepository
	UserRepo         *repository.UserRepository
	Redis            *redis.Client
}

func NewAchievementService(
	gamificationRepo *repository.GamificationRepository,
	userRepo *repository.UserRepository,
	rdb *redis.Client,
) *AchievementService {
	return &AchievementService{
		GamificationRepo: gamificationRepo,
		UserRepo:         userRepo,
		Redis:            rdb,
	}
}

type UserAchievements struct {
	TotalPoints  int                `json:"totalPoints"`
	CurrentLevel int                `json:"currentLevel"`
	NextLevelAt  int                `json:"nextLevelAt"`
	Badges       []model.UserBadge  `json:"badges"`
	Leaderboard  []LeaderboardEntry `json:"leaderboard"`
}

type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	User   string `json:"user"`
	Points int    `json:"points"`
	Avatar string `json:"avatar,omitempty"`
}

// calculateLevel 简单等级计算：每200积分升一级
func calculateLevel(points int) (int, int) {
	level := points / 200
	nextLevelAt := (level + 1) * 200
	return level, nextLevelAt
}

func (s *AchievementService) GetUserAchievements(userID uint) (*UserAchievements, error) {
	profile, err := s.GamificationRepo.GetOrCreateProfile(userID)
	if err != nil {
		return nil, err
	}

	badges, err := s.GamificationRepo.ListUserBadges(userID)
	if err != nil {
		return nil, err
	}

	leaderboard, err := s.GetLeaderboard(10)
	if err != nil {
		return nil, err
	}

	level, nextLevelAt := calculateLevel(profile.TotalPoints)

	return &UserAchievements{
		TotalPoints:  profile.TotalPoints,
		CurrentLevel: level,
		NextLevelAt:  nextLevelAt,
		Badges:       badges,
		Leaderboard:  leaderboard,
	}, nil
}

// GetLeaderboard 积分榜，Redis 短 TTL 缓存；无 Redis 时直查数据库
func (s *AchievementService) GetLeaderboard(limit int) ([]LeaderboardEntry, error) {
	ctx := context.Background()

	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, leaderboardCacheKey).Result(); err == nil {
			var entries []LeaderboardEntry
			if err := json.Unmarshal([]byte(cached), &entries); err == nil {
				if len(entries) > limit {
					entries = entries[:limit]
				}
				return entries, nil
			}
		}
	}

	profiles, err := s.GamificationRepo.TopProfiles(limit)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(profiles))
	for i, profile := range profiles {
		entry := LeaderboardEntry{
			Rank:   i + 1,
			Points: profile.TotalPoints,
		}
		if profile.User != nil {
			entry.User = profile.User.Name
			entry.Avatar = profile.User.Avatar
		}
		entries[i] = entry
	}

	if s.Redis != nil {
		if data, err := json.Marshal(entries); err == nil {
			if err := s.Redis.Set(ctx, leaderboardCacheKey, data, leaderboardCacheTTL).Err(); err != nil {
				logger.Log.Warn("leaderboard cache write failed", zap.Error(err))
			}
		}
	}

	return entries, nil
}

// Badge catalog management (admin)

type BadgeRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	MinPoints   int    `json:"minPoints"`
}

func (s *AchievementService) ListBadges() ([]model.Badge, error) {
	return s.GamificationRepo.ListBadges()
}

func (s *AchievementService) CreateBadge(req BadgeRequest) (*model.Badge, error) {
	badge := &model.Badge{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		MinPoints:   req.MinPoints,
	}
	if err := s.GamificationRepo.CreateBadge(badge); err != nil {
		return nil, err
	}
	return badge, nil
}

func (s *AchievementService) UpdateBadge(id uint, req BadgeRequest) (*model.Badge, error) {
	badge, err := s.GamificationRepo.FindBadgeByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrBadgeNotFound
		}
		return nil, err
	}

	badge.Name = req.Name
	badge.Description = req.Description
	badge.Icon = req.Icon
	badge.MinPoints = req.MinPoints
	if err := s.GamificationRepo.UpdateBadge(badge); err != nil {
		return nil, err
	}
	return badge, nil
}

func (s *AchievementService) DeleteBadge(id uint) error {
	return s.GamificationRepo.DeleteBadge(id)
}
