package service

import (
	"testing"
	"time"

	"elearn_backend/internal/model"
	"elearn_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRewardEnv(t *testing.T) (*gorm.DB, *RewardService, *repository.GamificationRepository, *model.User) {
	t.Helper()
	db := newTestDB(t)

	gamRepo := repository.NewGamificationRepository(db)
	svc := NewRewardService(gamRepo)

	user := &model.User{Name: "learner", Email: "reward@test.com", Password: "x", Role: model.Learner}
	require.NoError(t, db.Create(user).Error)

	return db, svc, gamRepo, user
}

func TestApplyReward_AccruesPoints(t *testing.T) {
	_, svc, gamRepo, user := newRewardEnv(t)

	require.NoError(t, svc.ApplyReward(user.ID, 15))
	require.NoError(t, svc.ApplyReward(user.ID, 10))

	profile, err := gamRepo.GetOrCreateProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, profile.TotalPoints)
}

func TestApplyReward_ZeroPointsNoop(t *testing.T) {
	db, svc, _, user := newRewardEnv(t)

	require.NoError(t, svc.ApplyReward(user.ID, 0))

	// 0 分不应创建档案
	var count int64
	require.NoError(t, db.Model(&model.LearnerProfile{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestApplyReward_AwardsAllQualifyingBadges(t *testing.T) {
	db, svc, gamRepo, user := newRewardEnv(t)

	for _, b := range []model.Badge{
		{Name: "Bronze", MinPoints: 10},
		{Name: "Silver", MinPoints: 20},
		{Name: "Gold", MinPoints: 50},
	} {
		badge := b
		require.NoError(t, db.Create(&badge).Error)
	}

	require.NoError(t, svc.ApplyReward(user.ID, 25))

	badges, err := gamRepo.ListUserBadges(user.ID)
	require.NoError(t, err)
	require.Len(t, badges, 2)

	names := []string{badges[0].Badge.Name, badges[1].Badge.Name}
	assert.Contains(t, names, "Bronze")
	assert.Contains(t, names, "Silver")
	assert.NotContains(t, names, "Gold")
}

func TestReconcileBadges_IdempotentRefreshesEarnedAt(t *testing.T) {
	db, svc, gamRepo, user := newRewardEnv(t)

	badge := &model.Badge{Name: "Bronze", MinPoints: 10}
	require.NoError(t, db.Create(badge).Error)

	require.NoError(t, svc.ReconcileBadges(user.ID, 15))

	first, err := gamRepo.ListUserBadges(user.ID)
	require.NoError(t, err)
	require.Len(t, first, 1)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, svc.ReconcileBadges(user.ID, 15))

	second, err := gamRepo.ListUserBadges(user.ID)
	require.NoError(t, err)
	require.Len(t, second, 1, "重复发放不应产生重复记录")
	assert.False(t, second[0].EarnedAt.Before(first[0].EarnedAt))
}

func TestApplyReward_CreatesProfileLazily(t *testing.T) {
	db, svc, _, user := newRewardEnv(t)

	var before int64
	require.NoError(t, db.Model(&model.LearnerProfile{}).Count(&before).Error)
	assert.Zero(t, before)

	require.NoError(t, svc.ApplyReward(user.ID, 5))

	var profile model.LearnerProfile
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&profile).Error)
	assert.Equal(t, 5, profile.TotalPoints)
}
