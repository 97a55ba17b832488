package controller

import (
	"errors"
	"strconv"

	"elearn_backend/internal/service"
	"elearn_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AchievementController struct {
	AchievementService *service.AchievementService
}

func NewAchievementController(achievementService *service.AchievementService) *AchievementController {
	return &AchievementController{AchievementService: achievementService}
}

// GetUserAchievements godoc
// @Summary 获取用户成就
// @Description 获取用户的徽章、积分、等级和排行榜
// @Tags 成就系统
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.UserAchievements} "成功"
// @Router /api/achievements [get]
func (c *AchievementController) GetUserAchievements(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	achievements, err := c.AchievementService.GetUserAchievements(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, achievements)
}

// GetLeaderboard godoc
// @Summary 获取排行榜
// @Description 获取用户积分排行榜
// @Tags 成就系统
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "返回数量" default(10)
// @Success 200 {object} util.Response "成功"
// @Router /api/achievements/leaderboard [get]
func (c *AchievementController) GetLeaderboard(ctx *gin.Context) {
	limit := 10
	if limitStr := ctx.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	leaderboard, err := c.AchievementService.GetLeaderboard(limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, leaderboard)
}

// ListBadges godoc
// @Summary 徽章目录
// @Tags 成就系统
// @Produce json
// @Success 200 {object} util.Response{data=[]model.Badge} "成功"
// @Router /api/badges [get]
func (c *AchievementController) ListBadges(ctx *gin.Context) {
	badges, err := c.AchievementService.ListBadges()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, badges)
}

// CreateBadge godoc
// @Summary 创建徽章
// @Tags 成就系统
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.BadgeRequest true "徽章信息"
// @Success 201 {object} util.Response{data=model.Badge} "创建成功"
// @Router /api/admin/badges [post]
func (c *AchievementController) CreateBadge(ctx *gin.Context) {
	var req service.BadgeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	badge, err := c.AchievementService.CreateBadge(req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, badge)
}

// UpdateBadge godoc
// @Summary 更新徽章
// @Tags 成就系统
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param badgeId path int true "徽章ID"
// @Param body body service.BadgeRequest true "徽章信息"
// @Success 200 {object} util.Response{data=model.Badge} "成功"
// @Failure 404 {object} util.Response "徽章不存在"
// @Router /api/admin/badges/{badgeId} [put]
func (c *AchievementController) UpdateBadge(ctx *gin.Context) {
	var req service.BadgeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	badge, err := c.AchievementService.UpdateBadge(util.MustParseUint(ctx.Param("badgeId")), req)
	if err != nil {
		if errors.Is(err, util.ErrBadgeNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, badge)
}

// DeleteBadge godoc
// @Summary 删除徽章
// @Tags 成就系统
// @Produce json
// @Security ApiKeyAuth
// @Param badgeId path int true "徽章ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/admin/badges/{badgeId} [delete]
func (c *AchievementController) DeleteBadge(ctx *gin.Context) {
	if err := c.AchievementService.DeleteBadge(util.MustParseUint(ctx.Param("badgeId"))); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Badge deleted"})
}
