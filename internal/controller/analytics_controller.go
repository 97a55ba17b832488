package controller

import (
	"errors"

	"elearn_backend/internal/service"
	"elearn_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AnalyticsController 管理端统计接口
type AnalyticsController struct {
	AnalyticsService *service.AnalyticsService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{AnalyticsService: analyticsService}
}

// GetOverview godoc
// @Summary 平台总览
// @Description 用户、课程、报名、测验提交的汇总统计
// @Tags 统计
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.PlatformOverview} "成功"
// @Router /api/admin/analytics/overview [get]
func (c *AnalyticsController) GetOverview(ctx *gin.Context) {
	overview, err := c.AnalyticsService.GetOverview()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, overview)
}

// GetQuizStats godoc
// @Summary 测验统计
// @Description 单个测验的提交数、通过率与平均分
// @Tags 统计
// @Produce json
// @Security ApiKeyAuth
// @Param quizId path int true "测验ID"
// @Success 200 {object} util.Response{data=service.QuizStats} "成功"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/admin/analytics/quizzes/{quizId} [get]
func (c *AnalyticsController) GetQuizStats(ctx *gin.Context) {
	stats, err := c.AnalyticsService.GetQuizStats(util.MustParseUint(ctx.Param("quizId")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, stats)
}

// GetCourseQuizStats godoc
// @Summary 课程测验统计
// @Description 课程下全部测验的统计汇总
// @Tags 统计
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CourseQuizStats} "成功"
// @Router /api/admin/analytics/courses/{courseId} [get]
func (c *AnalyticsController) GetCourseQuizStats(ctx *gin.Context) {
	stats, err := c.AnalyticsService.GetCourseQuizStats(util.MustParseUint(ctx.Param("courseId")))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
