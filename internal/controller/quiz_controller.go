package controller

import (
	"errors"

	"elearn_backend/internal/model"
	"elearn_backend/internal/service"
	"elearn_backend/internal/util"
	"elearn_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService   *service.QuizService
	CourseService *service.CourseService
}

func NewQuizController(quizService *service.QuizService, courseService *service.CourseService) *QuizController {
	return &QuizController{
		QuizService:   quizService,
		CourseService: courseService,
	}
}

func quizError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrQuizNotFound), errors.Is(err, util.ErrCourseNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrNotEnrolled):
		util.Error(ctx, 403, "must be enrolled in this course")
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrQuizNoQuestions), errors.Is(err, util.ErrInvalidAnswers):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// checkQuizOwnership 测验归属课程的讲师或管理员才可改动
func (c *QuizController) checkQuizOwnership(ctx *gin.Context, courseID uint) bool {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return false
	}
	if claims.Role == model.Admin {
		return true
	}

	course, err := c.CourseService.GetCourse(courseID)
	if err != nil {
		quizError(ctx, err)
		return false
	}
	if course.InstructorID != claims.UserID {
		util.Forbidden(ctx)
		return false
	}
	return true
}

// CreateQuiz godoc
// @Summary 创建测验
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param body body service.QuizRequest true "测验信息"
// @Success 201 {object} util.Response{data=model.Quiz} "创建成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if !c.checkQuizOwnership(ctx, req.CourseID) {
		return
	}

	quiz, err := c.QuizService.CreateQuiz(req)
	if err != nil {
		quizError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// GetQuiz godoc
// @Summary 测验详情（学生视图）
// @Description 返回测验和题目，不含标准答案；需已报名所属课程
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param quizId path int true "测验ID"
// @Success 200 {object} util.Response{data=service.LearnerQuizView} "成功"
// @Failure 403 {object} util.Response "未报名课程"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/quizzes/{quizId} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	quizID := util.MustParseUint(ctx.Param("quizId"))

	// 讲师/管理员直接返回完整测验
	if claims.Role == model.Admin || claims.Role == model.Instructor {
		quiz, err := c.QuizService.GetQuiz(quizID)
		if err != nil {
			quizError(ctx, err)
			return
		}
		questions, err := c.QuizService.QuizRepo.ListQuestions(quizID)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		util.Success(ctx, gin.H{"quiz": quiz, "questions": questions})
		return
	}

	view, err := c.QuizService.GetQuizForLearner(claims.UserID, quizID)
	if err != nil {
		quizError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// ListCourseQuizzes godoc
// @Summary 课程下的测验列表
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.Quiz} "成功"
// @Router /api/courses/{courseId}/quizzes [get]
func (c *QuizController) ListCourseQuizzes(ctx *gin.Context) {
	quizzes, err := c.QuizService.ListByCourse(util.MustParseUint(ctx.Param("courseId")))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, quizzes)
}

// ListLessonQuizzes godoc
// @Summary 课时下的测验列表
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param lessonId path int true "课时ID"
// @Success 200 {object} util.Response{data=[]model.Quiz} "成功"
// @Router /api/lessons/{lessonId}/quizzes [get]
func (c *QuizController) ListLessonQuizzes(ctx *gin.Context) {
	quizzes, err := c.QuizService.ListByLesson(util.MustParseUint(ctx.Param("lessonId")))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, quizzes)
}

// UpdateQuiz godoc
// @Summary 更新测验
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param quizId path int true "测验ID"
// @Param body body service.QuizRequest true "测验信息"
// @Success 200 {object} util.Response{data=model.Quiz} "成功"
// @Router /api/quizzes/{quizId} [put]
func (c *QuizController) UpdateQuiz(ctx *gin.Context) {
	quizID := util.MustParseUint(ctx.Param("quizId"))
	quiz, err := c.QuizService.GetQuiz(quizID)
	if err != nil {
		quizError(ctx, err)
		return
	}
	if !c.checkQuizOwnership(ctx, quiz.CourseID) {
		return
	}

	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	updated, err := c.QuizService.UpdateQuiz(quizID, req)
	if err != nil {
		quizError(ctx, err)
		return
	}
	util.Success(ctx, updated)
}

// DeleteQuiz godoc
// @Summary 删除测验
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param quizId path int true "测验ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/quizzes/{quizId} [delete]
func (c *QuizController) DeleteQuiz(ctx *gin.Context) {
	quizID := util.MustParseUint(ctx.Param("quizId"))
	quiz, err := c.QuizService.GetQuiz(quizID)
	if err != nil {
		quizError(ctx, err)
		return
	}
	if !c.checkQuizOwnership(ctx, quiz.CourseID) {
		return
	}

	if err := c.QuizService.DeleteQuiz(quizID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Quiz deleted"})
}

// AddQuestion godoc
// @Summary 添加题目
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param quizId path int true "测验ID"
// @Param body body service.QuizQuestionRequest true "题目信息"
// @Success 201 {object} util.Response{data=model.QuizQuestion} "创建成功"
// @Router /api/quizzes/{quizId}/questions [post]
func (c *QuizController) AddQuestion(ctx *gin.Context) {
	quizID := util.MustParseUint(ctx.Param("quizId"))
	quiz, err := c.QuizService.GetQuiz(quizID)
	if err != nil {
		quizError(ctx, err)
		return
	}
	if !c.checkQuizOwnership(ctx, quiz.CourseID) {
		return
	}

	var req service.QuizQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.QuizService.AddQuestion(quizID, req)
	if err != nil {
		quizError(ctx, err)
		return
	}
	util.Created(ctx, question)
}

// UpdateQuestion godoc
// @Summary 更新题目
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param questionId path int true "题目ID"
// @Param body body service.QuizQuestionRequest true "题目信息"
// @Success 200 {object} util.Response{data=model.QuizQuestion} "成功"
// @Router /api/questions/{questionId} [put]
func (c *QuizController) UpdateQuestion(ctx *gin.Context) {
	questionID := util.MustParseUint(ctx.Param("questionId"))
	question, err := c.QuizService.QuizRepo.FindQuestionByID(questionID)
	if err != nil {
		util.NotFound(ctx)
		return
	}
	quiz, err := c.QuizService.GetQuiz(question.QuizID)
	if err != nil {
		quizError(ctx, err)
		return
	}
	if !c.checkQuizOwnership(ctx, quiz.CourseID) {
		return
	}

	var req service.QuizQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	updated, err := c.QuizService.UpdateQuestion(questionID, req)
	if err != nil {
		quizError(ctx, err)
		return
	}
	util.Success(ctx, updated)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param questionId path int true "题目ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/questions/{questionId} [delete]
func (c *QuizController) DeleteQuestion(ctx *gin.Context) {
	questionID := util.MustParseUint(ctx.Param("questionId"))
	question, err := c.QuizService.QuizRepo.FindQuestionByID(questionID)
	if err != nil {
		util.NotFound(ctx)
		return
	}
	quiz, err := c.QuizService.GetQuiz(question.QuizID)
	if err != nil {
		quizError(ctx, err)
		return
	}
	if !c.checkQuizOwnership(ctx, quiz.CourseID) {
		return
	}

	if err := c.QuizService.DeleteQuestion(questionID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Question deleted"})
}

// SetReward godoc
// @Summary 配置尝试奖励
// @Description 配置第 N 次通过测验可获得的积分，按 (测验, 次数) 幂等覆盖
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param quizId path int true "测验ID"
// @Param body body service.QuizRewardRequest true "奖励配置"
// @Success 200 {object} util.Response{data=model.QuizReward} "成功"
// @Router /api/quizzes/{quizId}/rewards [put]
func (c *QuizController) SetReward(ctx *gin.Context) {
	quizID := util.MustParseUint(ctx.Param("quizId"))
	quiz, err := c.QuizService.GetQuiz(quizID)
	if err != nil {
		quizError(ctx, err)
		return
	}
	if !c.checkQuizOwnership(ctx, quiz.CourseID) {
		return
	}

	var req service.QuizRewardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.AttemptNumber < 1 {
		util.BadRequest(ctx, "attemptNumber must be >= 1")
		return
	}

	reward, err := c.QuizService.SetReward(quizID, req)
	if err != nil {
		quizError(ctx, err)
		return
	}
	util.Success(ctx, reward)
}

// ListRewards godoc
// @Summary 奖励配置列表
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param quizId path int true "测验ID"
// @Success 200 {object} util.Response{data=[]model.QuizReward} "成功"
// @Router /api/quizzes/{quizId}/rewards [get]
func (c *QuizController) ListRewards(ctx *gin.Context) {
	rewards, err := c.QuizService.ListRewards(util.MustParseUint(ctx.Param("quizId")))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, rewards)
}

// SubmitRequest 测验提交体，answers 以题目ID为键
type SubmitRequest struct {
	Answers map[string]interface{} `json:"answers"`
}

// SubmitAttempt godoc
// @Summary 提交测验
// @Description 判分并记录一次提交；通过时按尝试次数发放积分并结算徽章
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param quizId path int true "测验ID"
// @Param body body SubmitRequest true "答案，以题目ID为键"
// @Success 201 {object} util.Response{data=service.AttemptResult} "提交成功"
// @Failure 400 {object} util.Response "答案格式错误或测验无题目"
// @Failure 403 {object} util.Response "未报名课程"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/quizzes/{quizId}/attempt [post]
func (c *QuizController) SubmitAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.QuizService.SubmitAttempt(claims.UserID, util.MustParseUint(ctx.Param("quizId")), req.Answers)
	if err != nil {
		quizError(ctx, err)
		return
	}

	if result.Passed {
		monitoring.QuizAttemptCounter.WithLabelValues("passed").Inc()
	} else {
		monitoring.QuizAttemptCounter.WithLabelValues("failed").Inc()
	}

	util.Created(ctx, result)
}

// MyAttempts godoc
// @Summary 我的提交记录
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param quizId path int true "测验ID"
// @Success 200 {object} util.Response{data=[]model.QuizAttempt} "成功"
// @Router /api/quizzes/{quizId}/attempts [get]
func (c *QuizController) MyAttempts(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	attempts, err := c.QuizService.ListMyAttempts(claims.UserID, util.MustParseUint(ctx.Param("quizId")))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

// AttemptHistory godoc
// @Summary 我的提交历史
// @Description 跨全部测验的个人提交记录，按时间倒序分页
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/attempts [get]
func (c *QuizController) AttemptHistory(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	page, limit := util.ParsePagination(ctx.Query("page"), ctx.Query("limit"))
	attempts, total, err := c.QuizService.AttemptHistory(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  attempts,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}
