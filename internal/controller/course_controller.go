package controller

import (
	"errors"

	"elearn_backend/internal/model"
	"elearn_backend/internal/service"
	"elearn_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService  *service.CourseService
	ContentService *service.ContentService
}

func NewCourseController(courseService *service.CourseService, contentService *service.ContentService) *CourseController {
	return &CourseController{
		CourseService:  courseService,
		ContentService: contentService,
	}
}

func courseError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrCourseNotFound), errors.Is(err, util.ErrLessonNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrCourseUnpublished):
		util.BadRequest(ctx, "course is not published")
	case errors.Is(err, util.ErrAlreadyEnrolled):
		util.Error(ctx, 409, "already enrolled in this course")
	case errors.Is(err, util.ErrNotEnrolled):
		util.BadRequest(ctx, "not enrolled in this course")
	default:
		util.LogInternalError(ctx, err)
	}
}

// ListCourses godoc
// @Summary 课程列表
// @Description 分页查询课程；学习者只看到已发布课程，讲师额外看到自己的未发布课程
// @Tags 课程
// @Produce  json
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	page, limit := util.ParsePagination(ctx.Query("page"), ctx.Query("limit"))

	publishedOnly := true
	var instructorID uint
	if claims := util.GetUserFromContext(ctx); claims != nil {
		switch claims.Role {
		case model.Admin:
			publishedOnly = false
		case model.Instructor:
			// 讲师看已发布课程 + 自己的全部课程
			instructorID = claims.UserID
		}
	}

	courses, total, err := c.CourseService.ListCourses(page, limit, publishedOnly, instructorID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  courses,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// GetCourse godoc
// @Summary 课程详情
// @Tags 课程
// @Produce  json
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{courseId} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	course, err := c.CourseService.GetCourse(util.MustParseUint(ctx.Param("courseId")))
	if err != nil {
		courseError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// CreateCourse godoc
// @Summary 创建课程
// @Description 讲师创建课程，初始为未发布状态
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param body body service.CourseRequest true "课程信息"
// @Success 201 {object} util.Response{data=model.Course} "创建成功"
// @Router /api/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.CreateCourse(claims.UserID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// UpdateCourse godoc
// @Summary 更新课程
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param body body service.CourseRequest true "课程信息"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/courses/{courseId} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.UpdateCourse(util.MustParseUint(ctx.Param("courseId")), claims.UserID, claims.Role, req)
	if err != nil {
		courseError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// PublishCourse godoc
// @Summary 发布/下架课程
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Router /api/courses/{courseId}/publish [patch]
func (c *CourseController) PublishCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req struct {
		Publish bool `json:"publish"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.PublishCourse(util.MustParseUint(ctx.Param("courseId")), claims.UserID, claims.Role, req.Publish)
	if err != nil {
		courseError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// DeleteCourse godoc
// @Summary 删除课程
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/courses/{courseId} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.CourseService.DeleteCourse(util.MustParseUint(ctx.Param("courseId")), claims.UserID, claims.Role); err != nil {
		courseError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Course deleted"})
}

// UploadCover godoc
// @Summary 上传课程封面
// @Description 校验归属后上传图片，返回可写入课程的封面 URL
// @Tags 课程
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param file formData file true "封面图片"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/courses/{courseId}/cover [post]
func (c *CourseController) UploadCover(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	course, err := c.CourseService.GetCourse(util.MustParseUint(ctx.Param("courseId")))
	if err != nil {
		courseError(ctx, err)
		return
	}
	if claims.Role != model.Admin && course.InstructorID != claims.UserID {
		util.Forbidden(ctx)
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	url, err := c.ContentService.UploadImage(ctx.Request.Context(), "covers", fileHeader)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err = c.CourseService.UpdateCourse(course.ID, claims.UserID, claims.Role, service.CourseRequest{
		Title:       course.Title,
		Description: course.Description,
		CoverURL:    url,
	})
	if err != nil {
		courseError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"url": url, "course": course})
}

// Lesson endpoints

// ListLessons godoc
// @Summary 课时列表
// @Tags 课时
// @Produce  json
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.Lesson} "成功"
// @Router /api/courses/{courseId}/lessons [get]
func (c *CourseController) ListLessons(ctx *gin.Context) {
	lessons, err := c.CourseService.ListLessons(util.MustParseUint(ctx.Param("courseId")))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, lessons)
}

// AddLesson godoc
// @Summary 新增课时
// @Tags 课时
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param body body service.LessonRequest true "课时信息"
// @Success 201 {object} util.Response{data=model.Lesson} "创建成功"
// @Router /api/courses/{courseId}/lessons [post]
func (c *CourseController) AddLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson, err := c.CourseService.AddLesson(util.MustParseUint(ctx.Param("courseId")), claims.UserID, claims.Role, req)
	if err != nil {
		courseError(ctx, err)
		return
	}
	util.Created(ctx, lesson)
}

// UpdateLesson godoc
// @Summary 更新课时
// @Tags 课时
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param lessonId path int true "课时ID"
// @Param body body service.LessonRequest true "课时信息"
// @Success 200 {object} util.Response{data=model.Lesson} "成功"
// @Router /api/lessons/{lessonId} [put]
func (c *CourseController) UpdateLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson, err := c.CourseService.UpdateLesson(util.MustParseUint(ctx.Param("lessonId")), claims.UserID, claims.Role, req)
	if err != nil {
		courseError(ctx, err)
		return
	}
	util.Success(ctx, lesson)
}

// DeleteLesson godoc
// @Summary 删除课时
// @Tags 课时
// @Produce  json
// @Security ApiKeyAuth
// @Param lessonId path int true "课时ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/lessons/{lessonId} [delete]
func (c *CourseController) DeleteLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.CourseService.DeleteLesson(util.MustParseUint(ctx.Param("lessonId")), claims.UserID, claims.Role); err != nil {
		courseError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Lesson deleted"})
}

// UploadLessonVideo godoc
// @Summary 上传课时视频
// @Description 上传视频文件，服务端探测时长后写入存储
// @Tags 课时
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param lessonId path int true "课时ID"
// @Param file formData file true "视频文件"
// @Success 200 {object} util.Response{data=model.Lesson} "成功"
// @Failure 404 {object} util.Response "课时不存在"
// @Router /api/lessons/{lessonId}/video [post]
func (c *CourseController) UploadLessonVideo(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	lessonID := util.MustParseUint(ctx.Param("lessonId"))

	// 先做归属校验再接收文件
	lesson, err := c.CourseService.GetLesson(lessonID)
	if err != nil {
		courseError(ctx, err)
		return
	}
	course, err := c.CourseService.GetCourse(lesson.CourseID)
	if err != nil {
		courseError(ctx, err)
		return
	}
	if claims.Role != model.Admin && course.InstructorID != claims.UserID {
		util.Forbidden(ctx)
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	updated, err := c.ContentService.UploadLessonVideo(ctx.Request.Context(), lessonID, fileHeader)
	if err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, updated)
}

// Enrollment endpoints

// Enroll godoc
// @Summary 报名课程
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 201 {object} util.Response{data=model.Enrollment} "报名成功"
// @Failure 409 {object} util.Response "已报名"
// @Router /api/courses/{courseId}/enroll [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	enrollment, err := c.CourseService.Enroll(util.MustParseUint(ctx.Param("courseId")), claims.UserID)
	if err != nil {
		courseError(ctx, err)
		return
	}
	util.Created(ctx, enrollment)
}

// Drop godoc
// @Summary 退课
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/courses/{courseId}/enroll [delete]
func (c *CourseController) Drop(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.CourseService.Drop(util.MustParseUint(ctx.Param("courseId")), claims.UserID); err != nil {
		courseError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Dropped"})
}

// MyEnrollments godoc
// @Summary 我的报名
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Enrollment} "成功"
// @Router /api/enrollments [get]
func (c *CourseController) MyEnrollments(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	enrollments, err := c.CourseService.MyEnrollments(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, enrollments)
}

// CourseRoster godoc
// @Summary 课程报名名单
// @Description 讲师查看自己课程的报名学习者
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/courses/{courseId}/enrollments [get]
func (c *CourseController) CourseRoster(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	page, limit := util.ParsePagination(ctx.Query("page"), ctx.Query("limit"))
	enrollments, total, err := c.CourseService.CourseRoster(util.MustParseUint(ctx.Param("courseId")), claims.UserID, claims.Role, page, limit)
	if err != nil {
		courseError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  enrollments,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}
