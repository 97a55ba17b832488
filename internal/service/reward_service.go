package service

import (
	"time"

	"elearn_backend/internal/repository"
	"elearn_backend/pkg/logger"

	"go.uber.org/zap"
)

// RewardService 通过测验后的积分累加与徽章结算
type RewardService struct {
	GamificationRepo *repository.GamificationRepository
}

func NewRewardService(gamificationRepo *repository.GamificationRepository) *RewardService {
	return &RewardService{GamificationRepo: gamificationRepo}
}

// ApplyReward 给学习者累加积分并结算徽章。
// 积分走原子 UPDATE 累加；徽章授予覆盖所有达标徽章而不只是新跨过的那一档，
// 已持有的徽章 upsert 时仅刷新 earned_at。
func (s *RewardService) ApplyReward(userID uint, pointsEarned int) error {
	if pointsEarned <= 0 {
		return nil
	}

	if _, err := s.GamificationRepo.GetOrCreateProfile(userID); err != nil {
		return err
	}

	if err := s.GamificationRepo.AddPoints(userID, pointsEarned); err != nil {
		return err
	}

	profile, err := s.GamificationRepo.GetOrCreateProfile(userID)
	if err != nil {
		return err
	}

	// 等级随积分重算，落后时才写
	if level, _ := calculateLevel(profile.TotalPoints); level != profile.Level {
		if err := s.GamificationRepo.UpdateLevel(userID, level); err != nil {
			return err
		}
	}

	return s.ReconcileBadges(userID, profile.TotalPoints)
}

// ReconcileBadges 授予 min_points <= totalPoints 的全部徽章（降序遍历）
func (s *RewardService) ReconcileBadges(userID uint, totalPoints int) error {
	badges, err := s.GamificationRepo.ListQualifyingBadges(totalPoints)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, badge := range badges {
		if err := s.GamificationRepo.UpsertUserBadge(userID, badge.ID, now); err != nil {
			logger.Log.Error("badge upsert failed",
				zap.Uint("userId", userID),
				zap.Uint("badgeId", badge.ID),
				zap.Error(err))
			return err
		}
	}
	return nil
}
